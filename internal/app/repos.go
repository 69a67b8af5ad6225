package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/data/repos"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type Repos struct {
	Course     repos.CourseRepo
	Enrollment repos.EnrollmentRepo
	Lesson     repos.LessonRepo
	Quiz       repos.QuizRepo
	Assignment repos.AssignmentRepo
	Progress   repos.ProgressRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Course:     repos.NewCourseRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Lesson:     repos.NewLessonRepo(db, log),
		Quiz:       repos.NewQuizRepo(db, log),
		Assignment: repos.NewAssignmentRepo(db, log),
		Progress:   repos.NewProgressRecordRepo(db, log),
	}
}
