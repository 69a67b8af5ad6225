package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/data/repos/learning"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type CourseRepo = learning.CourseRepo
type EnrollmentRepo = learning.EnrollmentRepo

type LessonRepo = learning.LessonRepo
type QuizRepo = learning.QuizRepo
type AssignmentRepo = learning.AssignmentRepo

type ProgressRecordRepo = learning.ProgressRecordRepo
type ProgressFilter = learning.ProgressFilter

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return learning.NewCourseRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return learning.NewEnrollmentRepo(db, baseLog)
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return learning.NewLessonRepo(db, baseLog)
}
func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return learning.NewQuizRepo(db, baseLog)
}
func NewAssignmentRepo(db *gorm.DB, baseLog *logger.Logger) AssignmentRepo {
	return learning.NewAssignmentRepo(db, baseLog)
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return learning.NewProgressRecordRepo(db, baseLog)
}
