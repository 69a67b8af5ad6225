package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "pending"
	EnrollmentApproved EnrollmentStatus = "approved"
	EnrollmentRejected EnrollmentStatus = "rejected"
)

// Enrollment links a student to a course. ProgressPercent is a cached value written only by
// the completion write-back; it is never an input to progress computation.
type Enrollment struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:1" json:"student_id"`
	CourseID  uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_student_course,priority:2;index" json:"course_id"`
	Course    *Course          `gorm:"foreignKey:CourseID;references:ID" json:"course,omitempty"`
	Status    EnrollmentStatus `gorm:"column:status;not null;default:'pending';index" json:"status"`

	ProgressPercent int        `gorm:"column:progress_percent;not null;default:0" json:"progress_percent"`
	LastAccessedAt  *time.Time `gorm:"column:last_accessed_at" json:"last_accessed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

func (e *Enrollment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	if e.Status == "" {
		e.Status = EnrollmentPending
	}
	return nil
}

func (e *Enrollment) Approved() bool {
	return e != nil && e.Status == EnrollmentApproved
}
