package learning

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ItemKind string

const (
	ItemLesson     ItemKind = "lesson"
	ItemQuiz       ItemKind = "quiz"
	ItemAssignment ItemKind = "assignment"
)

func (k ItemKind) Valid() bool {
	switch k {
	case ItemLesson, ItemQuiz, ItemAssignment:
		return true
	}
	return false
}

// Scored reports whether records of this kind may carry a score.
func (k ItemKind) Scored() bool {
	return k == ItemQuiz || k == ItemAssignment
}

// ItemRef identifies one catalog item of a course.
type ItemRef struct {
	Kind ItemKind  `json:"kind"`
	ID   uuid.UUID `json:"id"`
}

func (r ItemRef) String() string { return string(r.Kind) + ":" + r.ID.String() }

var ErrItemReference = errors.New("progress record must reference exactly one item")

// ProgressRecord is the ledger row for one (student, course, item).
// Exactly one of LessonID, QuizID, AssignmentID is set; ItemKind and ItemID mirror it
// so the unique index covers non-null columns only.
type ProgressRecord struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_item,priority:1;index:idx_progress_student_submitted,priority:1" json:"student_id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_progress_item,priority:2;index" json:"course_id"`

	ItemKind ItemKind  `gorm:"column:item_kind;not null;uniqueIndex:idx_progress_item,priority:3" json:"item_kind"`
	ItemID   uuid.UUID `gorm:"type:uuid;column:item_id;not null;uniqueIndex:idx_progress_item,priority:4" json:"item_id"`

	LessonID     *uuid.UUID `gorm:"type:uuid;index" json:"lesson_id,omitempty"`
	QuizID       *uuid.UUID `gorm:"type:uuid;index" json:"quiz_id,omitempty"`
	AssignmentID *uuid.UUID `gorm:"type:uuid;index" json:"assignment_id,omitempty"`

	Completed   bool           `gorm:"column:completed;not null;default:false;index" json:"completed"`
	Score       *int           `gorm:"column:score" json:"score,omitempty"`
	Answers     datatypes.JSON `gorm:"column:answers" json:"answers"`
	SubmittedAt time.Time      `gorm:"column:submitted_at;not null;index:idx_progress_student_submitted,priority:2" json:"submitted_at"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProgressRecord) TableName() string { return "progress_record" }

// SetRef points the record at ref and clears the other references.
func (p *ProgressRecord) SetRef(ref ItemRef) {
	id := ref.ID
	p.LessonID, p.QuizID, p.AssignmentID = nil, nil, nil
	switch ref.Kind {
	case ItemLesson:
		p.LessonID = &id
	case ItemQuiz:
		p.QuizID = &id
	case ItemAssignment:
		p.AssignmentID = &id
	}
	p.ItemKind = ref.Kind
	p.ItemID = id
}

// Ref derives the item from the nullable references.
func (p *ProgressRecord) Ref() (ItemRef, error) {
	var (
		ref ItemRef
		n   int
	)
	if p.LessonID != nil && *p.LessonID != uuid.Nil {
		ref, n = ItemRef{Kind: ItemLesson, ID: *p.LessonID}, n+1
	}
	if p.QuizID != nil && *p.QuizID != uuid.Nil {
		ref, n = ItemRef{Kind: ItemQuiz, ID: *p.QuizID}, n+1
	}
	if p.AssignmentID != nil && *p.AssignmentID != uuid.Nil {
		ref, n = ItemRef{Kind: ItemAssignment, ID: *p.AssignmentID}, n+1
	}
	if n != 1 {
		return ItemRef{}, fmt.Errorf("%w (got %d)", ErrItemReference, n)
	}
	return ref, nil
}

func (p *ProgressRecord) BeforeSave(tx *gorm.DB) error {
	ref, err := p.Ref()
	if err != nil {
		return err
	}
	ensureID(&p.ID)
	p.ItemKind = ref.Kind
	p.ItemID = ref.ID
	return nil
}

// LessonAnswers is the shape lesson progress keeps inside Answers.
type LessonAnswers struct {
	CompletedExercises []string `json:"completed_exercises"`
	VideoWatched       bool     `json:"video_watched"`
}

const (
	AnswersKeyCompletedExercises = "completed_exercises"
	AnswersKeyVideoWatched       = "video_watched"
)
