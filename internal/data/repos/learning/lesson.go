package learning

import (
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type LessonRepo interface {
	Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error)
	ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Lesson, error)
	// HasLessonType reports whether the lesson table carries the optional lesson_type column.
	HasLessonType(dbc dbctx.Context) bool
}

type lessonRepo struct {
	db  *gorm.DB
	log *logger.Logger

	schemaOnce    sync.Once
	hasLessonType bool
}

func NewLessonRepo(db *gorm.DB, baseLog *logger.Logger) LessonRepo {
	return &lessonRepo{db: db, log: baseLog.With("repo", "LessonRepo")}
}

// The column check runs once per repo; the schema is assumed stable for the process lifetime.
func (r *lessonRepo) HasLessonType(dbc dbctx.Context) bool {
	r.schemaOnce.Do(func() {
		transaction := dbc.Tx
		if transaction == nil {
			transaction = r.db
		}
		r.hasLessonType = transaction.WithContext(dbc.Ctx).Migrator().HasColumn(&types.Lesson{}, "lesson_type")
		r.log.Debug("lesson schema checked", "lesson_type", r.hasLessonType)
	})
	return r.hasLessonType
}

func (r *lessonRepo) columns(dbc dbctx.Context) []string {
	cols := []string{"id", "course_id", "title", "position", "exercises", "video_url", "created_at", "updated_at", "deleted_at"}
	if r.HasLessonType(dbc) {
		cols = append(cols, "lesson_type")
	}
	return cols
}

func (r *lessonRepo) Create(dbc dbctx.Context, lessons []*types.Lesson) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(lessons) == 0 {
		return []*types.Lesson{}, nil
	}
	q := transaction.WithContext(dbc.Ctx)
	if !r.HasLessonType(dbc) {
		q = q.Omit("lesson_type")
	}
	if err := q.Create(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *lessonRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Lesson
	if err := transaction.WithContext(dbc.Ctx).
		Select(r.columns(dbc)).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *lessonRepo) ListByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.Lesson, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Lesson{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Select(r.columns(dbc)).
		Where("course_id IN ?", courseIDs).
		Order("position ASC, created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
