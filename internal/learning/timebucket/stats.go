package timebucket

import (
	"math"
	"sort"
	"strings"
	"time"

	types "github.com/yungbote/courseledger-backend/internal/domain"
)

const (
	quizWeight       = 0.4
	assignmentWeight = 0.3
	lessonWeight     = 0.3
)

// Stat keeps an average together with the number of scores behind it.
type Stat struct {
	Average int `json:"average"`
	Count   int `json:"count"`
}

type LessonStat struct {
	Count int `json:"count"`
}

type SubjectStats struct {
	Subject    string     `json:"subject"`
	Quiz       Stat       `json:"quiz"`
	Assignment Stat       `json:"assignment"`
	Lessons    LessonStat `json:"lessons"`
	Overall    int        `json:"overall"`
}

type BucketStats struct {
	Bucket
	Subjects []SubjectStats `json:"subjects"`
	Totals   SubjectStats   `json:"totals"`
}

// Point is one completed ledger record placed in time.
type Point struct {
	At      time.Time
	Subject string
	Kind    types.ItemKind
	Score   *int
}

// Overall weights quiz 40%, assignment 30% and lesson activity 30%.
func Overall(quizAvg, assignmentAvg float64, lessons int) int {
	lessonScore := 0.0
	if lessons > 0 {
		lessonScore = 100
	}
	return round(quizWeight*quizAvg + assignmentWeight*assignmentAvg + lessonWeight*lessonScore)
}

// Comparison is the rounded percent change from previous to current.
// A rise from zero reports 100; no activity in either period reports 0.
func Comparison(current, previous float64) int {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return round(100 * (current - previous) / previous)
}

func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

type accumulator struct {
	sum float64
	n   int
}

func (a *accumulator) add(v int) {
	a.sum += float64(v)
	a.n++
}

func (a accumulator) avg() float64 {
	if a.n == 0 {
		return 0
	}
	return a.sum / float64(a.n)
}

func (a accumulator) stat() Stat {
	return Stat{Average: round(a.avg()), Count: a.n}
}

type subjectAcc struct {
	quiz       accumulator
	assignment accumulator
	lessons    int
}

func (s *subjectAcc) add(p Point) {
	switch p.Kind {
	case types.ItemQuiz:
		if p.Score != nil {
			s.quiz.add(*p.Score)
		}
	case types.ItemAssignment:
		if p.Score != nil {
			s.assignment.add(*p.Score)
		}
	case types.ItemLesson:
		s.lessons++
	}
}

func (s *subjectAcc) stats(subject string) SubjectStats {
	return SubjectStats{
		Subject:    subject,
		Quiz:       s.quiz.stat(),
		Assignment: s.assignment.stat(),
		Lessons:    LessonStat{Count: s.lessons},
		Overall:    Overall(s.quiz.avg(), s.assignment.avg(), s.lessons),
	}
}

// Aggregate assigns points to buckets and returns one entry per bucket, empty ones included.
// Subjects listed in subjects always appear, even with no activity; others appear when seen.
func Aggregate(buckets []Bucket, points []Point, subjects []string) []BucketStats {
	perBucket := make([]map[string]*subjectAcc, len(buckets))
	totals := make([]subjectAcc, len(buckets))
	for i := range perBucket {
		perBucket[i] = map[string]*subjectAcc{}
		for _, s := range subjects {
			perBucket[i][normalizeSubject(s)] = &subjectAcc{}
		}
	}

	for _, p := range points {
		idx := Index(buckets, p.At)
		if idx < 0 {
			continue
		}
		key := normalizeSubject(p.Subject)
		acc, ok := perBucket[idx][key]
		if !ok {
			acc = &subjectAcc{}
			perBucket[idx][key] = acc
		}
		acc.add(p)
		totals[idx].add(p)
	}

	out := make([]BucketStats, len(buckets))
	for i, b := range buckets {
		names := make([]string, 0, len(perBucket[i]))
		for name := range perBucket[i] {
			names = append(names, name)
		}
		sort.Strings(names)
		subs := make([]SubjectStats, 0, len(names))
		for _, name := range names {
			subs = append(subs, perBucket[i][name].stats(name))
		}
		out[i] = BucketStats{
			Bucket:   b,
			Subjects: subs,
			Totals:   totals[i].stats(""),
		}
	}
	return out
}

func normalizeSubject(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "general"
	}
	return s
}

// NormalizeSubject is the key subjects are grouped and filtered by.
func NormalizeSubject(s string) string { return normalizeSubject(s) }
