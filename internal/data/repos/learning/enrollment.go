package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error)
	Get(dbc dbctx.Context, studentID, courseID uuid.UUID) (*types.Enrollment, error)
	// ListApprovedByStudent returns approved enrollments oldest first.
	ListApprovedByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Enrollment, error)
	ListApprovedByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error)
	// ListApproved returns every approved enrollment, optionally restricted to one course.
	ListApproved(dbc dbctx.Context, courseID *uuid.UUID) ([]*types.Enrollment, error)
	// UpdateProgress writes the cached percent and last-accessed time; false when no row matched.
	UpdateProgress(dbc dbctx.Context, studentID, courseID uuid.UUID, percent int, accessedAt time.Time) (bool, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{
		db:  db,
		log: baseLog.With("repo", "EnrollmentRepo"),
	}
}

func (r *enrollmentRepo) Create(dbc dbctx.Context, rows []*types.Enrollment) ([]*types.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Enrollment{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentRepo) Get(dbc dbctx.Context, studentID, courseID uuid.UUID) (*types.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var row types.Enrollment
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *enrollmentRepo) ListApprovedByStudent(dbc dbctx.Context, studentID uuid.UUID) ([]*types.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Enrollment{}
	if studentID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("student_id = ? AND status = ?", studentID, types.EnrollmentApproved).
		Order("created_at ASC, id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) ListApprovedByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]*types.Enrollment, error) {
	out := []*types.Enrollment{}
	if courseID == uuid.Nil {
		return out, nil
	}
	return r.ListApproved(dbc, &courseID)
}

func (r *enrollmentRepo) ListApproved(dbc dbctx.Context, courseID *uuid.UUID) ([]*types.Enrollment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.Enrollment{}
	q := transaction.WithContext(dbc.Ctx).Where("status = ?", types.EnrollmentApproved)
	if courseID != nil && *courseID != uuid.Nil {
		q = q.Where("course_id = ?", *courseID)
	}
	if err := q.Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *enrollmentRepo) UpdateProgress(dbc dbctx.Context, studentID, courseID uuid.UUID, percent int, accessedAt time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if studentID == uuid.Nil || courseID == uuid.Nil {
		return false, nil
	}
	at := accessedAt.UTC()
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Enrollment{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Updates(map[string]interface{}{
			"progress_percent": percent,
			"last_accessed_at": at,
			"updated_at":       at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
