package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appdb "github.com/yungbote/courseledger-backend/internal/db"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

// ProgressFilter narrows List. Zero values mean "any"; Since/Until bound submitted_at as [Since, Until).
type ProgressFilter struct {
	StudentID     uuid.UUID
	CourseIDs     []uuid.UUID
	Kinds         []types.ItemKind
	CompletedOnly bool
	Since         *time.Time
	Until         *time.Time
}

type ProgressRecordRepo interface {
	Get(dbc dbctx.Context, studentID, courseID uuid.UUID, ref types.ItemRef) (*types.ProgressRecord, error)
	// GetForUpdate reads like Get and additionally row-locks when the dialect supports it.
	GetForUpdate(dbc dbctx.Context, studentID, courseID uuid.UUID, ref types.ItemRef) (*types.ProgressRecord, error)
	// Upsert writes rec with one INSERT ... ON CONFLICT on (student_id, course_id, item_kind, item_id).
	Upsert(dbc dbctx.Context, rec *types.ProgressRecord) error
	ListByStudentCourse(dbc dbctx.Context, studentID, courseID uuid.UUID) ([]*types.ProgressRecord, error)
	List(dbc dbctx.Context, f ProgressFilter) ([]*types.ProgressRecord, error)
}

type progressRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRecordRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRecordRepo {
	return &progressRecordRepo{
		db:  db,
		log: baseLog.With("repo", "ProgressRecordRepo"),
	}
}

func (r *progressRecordRepo) Get(dbc dbctx.Context, studentID, courseID uuid.UUID, ref types.ItemRef) (*types.ProgressRecord, error) {
	return r.get(dbc, studentID, courseID, ref, false)
}

func (r *progressRecordRepo) GetForUpdate(dbc dbctx.Context, studentID, courseID uuid.UUID, ref types.ItemRef) (*types.ProgressRecord, error) {
	return r.get(dbc, studentID, courseID, ref, true)
}

func (r *progressRecordRepo) get(dbc dbctx.Context, studentID, courseID uuid.UUID, ref types.ItemRef, lock bool) (*types.ProgressRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || courseID == uuid.Nil || ref.ID == uuid.Nil {
		return nil, nil
	}
	q := transaction.WithContext(dbc.Ctx)
	if lock && appdb.SupportsRowLocks(transaction) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.ProgressRecord
	if err := q.
		Where("student_id = ? AND course_id = ? AND item_kind = ? AND item_id = ?", studentID, courseID, ref.Kind, ref.ID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *progressRecordRepo) Upsert(dbc dbctx.Context, rec *types.ProgressRecord) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if rec == nil {
		return nil
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	// On conflict, overwrite state; id and created_at keep the first writer's values.
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "student_id"}, {Name: "course_id"}, {Name: "item_kind"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"lesson_id", "quiz_id", "assignment_id",
				"completed", "score", "answers", "submitted_at", "updated_at",
			}),
		}).
		Create(rec).Error
}

func (r *progressRecordRepo) ListByStudentCourse(dbc dbctx.Context, studentID, courseID uuid.UUID) ([]*types.ProgressRecord, error) {
	out := []*types.ProgressRecord{}
	if studentID == uuid.Nil || courseID == uuid.Nil {
		return out, nil
	}
	return r.List(dbc, ProgressFilter{StudentID: studentID, CourseIDs: []uuid.UUID{courseID}})
}

func (r *progressRecordRepo) List(dbc dbctx.Context, f ProgressFilter) ([]*types.ProgressRecord, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.ProgressRecord{}
	if f.CourseIDs != nil && len(f.CourseIDs) == 0 {
		return out, nil
	}
	q := transaction.WithContext(dbc.Ctx)
	if f.StudentID != uuid.Nil {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if len(f.CourseIDs) > 0 {
		q = q.Where("course_id IN ?", f.CourseIDs)
	}
	if len(f.Kinds) > 0 {
		q = q.Where("item_kind IN ?", f.Kinds)
	}
	if f.CompletedOnly {
		q = q.Where("completed = ?", true)
	}
	if f.Since != nil {
		q = q.Where("submitted_at >= ?", f.Since.UTC())
	}
	if f.Until != nil {
		q = q.Where("submitted_at < ?", f.Until.UTC())
	}
	if err := q.Order("submitted_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
