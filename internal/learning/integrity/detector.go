package integrity

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	types "github.com/yungbote/courseledger-backend/internal/domain"
)

// Verdict is computed per chat turn and never stored.
type Verdict struct {
	IsQuizQuestion       bool       `json:"is_quiz_question"`
	QuizCompleted        bool       `json:"quiz_completed"`
	QuizID               *uuid.UUID `json:"quiz_id"`
	HasIncompleteQuizzes bool       `json:"has_incomplete_quizzes"`
}

// Permissive is returned when there is nothing to protect or detection could not run.
func Permissive() Verdict {
	return Verdict{IsQuizQuestion: false, QuizCompleted: true, HasIncompleteQuizzes: false}
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// QuizView is one quiz as the detector sees it. Decoded is false when the stored
// questions could not be read; such quizzes are skipped for text matching.
type QuizView struct {
	ID        uuid.UUID
	CourseID  uuid.UUID
	Title     string
	Questions []types.QuizQuestion
	Decoded   bool
	Completed bool
}

type Input struct {
	Prompt         string
	History        []Message
	HasEnrollments bool
	// Quizzes are in enumeration order: enrollment order, then course position.
	Quizzes []QuizView
}

type Detector struct {
	threshold float64
	minLen    int
	patterns  []*regexp.Regexp
	keywords  []string
}

// NewDetector compiles r. Invalid rules fall back to the compiled-in defaults.
func NewDetector(r Rules) *Detector {
	if r.validate() != nil {
		r = fallbackRules
	}
	d := &Detector{
		threshold: r.OverlapThreshold,
		minLen:    r.MinWordLength,
		patterns:  make([]*regexp.Regexp, 0, len(r.AnswerRequestPatterns)),
		keywords:  make([]string, 0, len(r.Keywords)),
	}
	for _, p := range r.AnswerRequestPatterns {
		d.patterns = append(d.patterns, regexp.MustCompile("(?i)"+p))
	}
	for _, k := range r.Keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			d.keywords = append(d.keywords, k)
		}
	}
	return d
}

func (d *Detector) Detect(in Input) Verdict {
	if !in.HasEnrollments || len(in.Quizzes) == 0 {
		return Permissive()
	}

	hasIncomplete := false
	for _, q := range in.Quizzes {
		if !q.Completed {
			hasIncomplete = true
			break
		}
	}

	prompt := strings.ToLower(in.Prompt)

	// Direct overlap: first quiz with a matching question wins.
	for _, q := range in.Quizzes {
		if !q.Decoded {
			continue
		}
		for _, question := range q.Questions {
			if d.overlaps(question.Question, prompt) {
				id := q.ID
				return Verdict{
					IsQuizQuestion:       true,
					QuizCompleted:        q.Completed,
					QuizID:               &id,
					HasIncompleteQuizzes: hasIncomplete,
				}
			}
		}
	}

	if hasIncomplete && d.requestsAnswers(in.Prompt) && d.mentionsAssessment(prompt, in.History) {
		v := Verdict{IsQuizQuestion: true, QuizCompleted: false, HasIncompleteQuizzes: true}
		// Attribution follows enumeration order; unreadable questions do not disqualify a quiz.
		for _, q := range in.Quizzes {
			if q.Completed {
				continue
			}
			if q.ID != uuid.Nil {
				id := q.ID
				v.QuizID = &id
			}
			break
		}
		return v
	}

	return Verdict{IsQuizQuestion: false, QuizCompleted: true, HasIncompleteQuizzes: hasIncomplete}
}

// overlaps reports whether more than threshold of the question's significant words
// occur in the lower-cased prompt.
func (d *Detector) overlaps(question, prompt string) bool {
	words := strings.Fields(strings.ToLower(question))
	significant := 0
	matched := 0
	for _, w := range words {
		if utf8.RuneCountInString(w) <= d.minLen {
			continue
		}
		significant++
		if strings.Contains(prompt, w) {
			matched++
		}
	}
	if significant == 0 {
		return false
	}
	return float64(matched)/float64(significant) > d.threshold
}

func (d *Detector) requestsAnswers(prompt string) bool {
	for _, re := range d.patterns {
		if re.MatchString(prompt) {
			return true
		}
	}
	return false
}

func (d *Detector) mentionsAssessment(prompt string, history []Message) bool {
	var b strings.Builder
	b.WriteString(prompt)
	for _, m := range history {
		b.WriteByte('\n')
		b.WriteString(strings.ToLower(m.Content))
	}
	text := b.String()
	for _, k := range d.keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
