package services

import (
	"strings"

	"github.com/yungbote/courseledger-backend/internal/learning/integrity"
)

type TutorMode string

const (
	TutorProtect TutorMode = "protect"
	TutorCaution TutorMode = "caution"
	TutorNormal  TutorMode = "normal"
)

// TutorDirective tells the downstream tutoring assistant how to behave for one turn.
type TutorDirective struct {
	Mode         TutorMode `json:"mode"`
	SystemPrompt string    `json:"system_prompt"`
}

func ModeFor(v integrity.Verdict) TutorMode {
	switch {
	case v.IsQuizQuestion && !v.QuizCompleted:
		return TutorProtect
	case v.HasIncompleteQuizzes:
		return TutorCaution
	default:
		return TutorNormal
	}
}

// BuildTutorDirective maps a verdict to instructions. quizTitle may be empty.
func BuildTutorDirective(v integrity.Verdict, quizTitle string) TutorDirective {
	mode := ModeFor(v)
	quiz := strings.TrimSpace(quizTitle)
	if quiz == "" {
		quiz = "an unfinished quiz"
	} else {
		quiz = "the quiz \"" + quiz + "\""
	}

	var lines []string
	switch mode {
	case TutorProtect:
		lines = []string{
			"ROLE: Study tutor guarding assessment integrity.",
			"TASK: The student is asking about " + quiz + " they have not completed yet.",
			"RULES: Do not give answers, option letters, or worked solutions to quiz questions.",
			"RULES: Explain the underlying concepts with different examples than the quiz uses.",
			"RULES: Point the student back to the lessons and study materials of the course.",
			"OUTPUT: Brief, encouraging; say plainly that quiz answers cannot be shared.",
		}
	case TutorCaution:
		lines = []string{
			"ROLE: Study tutor.",
			"TASK: Help with the question while the student still has unfinished quizzes.",
			"RULES: Teach concepts; avoid producing answers that could be copied into an assessment.",
		}
	default:
		lines = []string{
			"ROLE: Study tutor.",
			"TASK: Answer helpfully and accurately.",
		}
	}
	return TutorDirective{Mode: mode, SystemPrompt: strings.TrimSpace(strings.Join(lines, "\n"))}
}
