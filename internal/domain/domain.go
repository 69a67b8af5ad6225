package domain

import (
	"github.com/yungbote/courseledger-backend/internal/domain/learning"
)

const (
	EnrollmentPending  = learning.EnrollmentPending
	EnrollmentApproved = learning.EnrollmentApproved
	EnrollmentRejected = learning.EnrollmentRejected

	ItemLesson     = learning.ItemLesson
	ItemQuiz       = learning.ItemQuiz
	ItemAssignment = learning.ItemAssignment

	AnswersKeyCompletedExercises = learning.AnswersKeyCompletedExercises
	AnswersKeyVideoWatched       = learning.AnswersKeyVideoWatched
)

var (
	ErrItemReference    = learning.ErrItemReference
	DecodeQuizQuestions = learning.DecodeQuizQuestions
)

type Course = learning.Course
type Enrollment = learning.Enrollment
type EnrollmentStatus = learning.EnrollmentStatus

type Lesson = learning.Lesson
type Quiz = learning.Quiz
type QuizQuestion = learning.QuizQuestion
type Assignment = learning.Assignment

type ItemKind = learning.ItemKind
type ItemRef = learning.ItemRef
type ProgressRecord = learning.ProgressRecord
type LessonAnswers = learning.LessonAnswers

// Models lists every table in migration order.
func Models() []interface{} {
	return []interface{}{
		&Course{},
		&Enrollment{},
		&Lesson{},
		&Quiz{},
		&Assignment{},
		&ProgressRecord{},
	}
}
