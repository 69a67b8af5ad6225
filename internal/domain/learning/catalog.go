package learning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Lesson struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Position int       `gorm:"column:position;not null;default:0" json:"position"`

	// Exercises is a JSON array of exercise ids (strings, or objects carrying an "id").
	Exercises datatypes.JSON `gorm:"column:exercises" json:"exercises"`
	VideoURL  string         `gorm:"column:video_url" json:"video_url,omitempty"`
	// LessonType is optional; older schemas do not carry the column.
	LessonType string `gorm:"column:lesson_type" json:"lesson_type,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Lesson) TableName() string { return "lesson" }

func (l *Lesson) BeforeCreate(tx *gorm.DB) error {
	ensureID(&l.ID)
	return nil
}

func (l *Lesson) HasVideo() bool {
	return l != nil && strings.TrimSpace(l.VideoURL) != ""
}

// ExerciseIDs decodes the exercise list. Malformed JSON yields no exercises.
func (l *Lesson) ExerciseIDs() []string {
	if l == nil {
		return nil
	}
	raw := bytes.TrimSpace(l.Exercises)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(item, &obj); err == nil && len(obj.ID) > 0 {
			id := strings.Trim(strings.TrimSpace(string(obj.ID)), `"`)
			if id != "" && id != "null" {
				out = append(out, id)
			}
		}
	}
	return out
}

type Quiz struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Title    string    `gorm:"column:title;not null" json:"title"`
	Position int       `gorm:"column:position;not null;default:0" json:"position"`

	// Questions holds either a JSON array of QuizQuestion or that array serialized into a JSON string.
	Questions datatypes.JSON `gorm:"column:questions" json:"questions"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Quiz) TableName() string { return "quiz" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	return nil
}

type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// DecodeQuizQuestions accepts a structured array or a text blob containing the serialized array.
func DecodeQuizQuestions(raw []byte) ([]QuizQuestion, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []QuizQuestion{}, nil
	}
	if raw[0] == '"' {
		var blob string
		if err := json.Unmarshal(raw, &blob); err != nil {
			return nil, fmt.Errorf("decode questions blob: %w", err)
		}
		raw = bytes.TrimSpace([]byte(blob))
		if len(raw) == 0 {
			return []QuizQuestion{}, nil
		}
	}
	var out []QuizQuestion
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode questions: %w", err)
	}
	if out == nil {
		out = []QuizQuestion{}
	}
	return out, nil
}

type Assignment struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID uuid.UUID  `gorm:"type:uuid;not null;index" json:"course_id"`
	Title    string     `gorm:"column:title;not null" json:"title"`
	Position int        `gorm:"column:position;not null;default:0" json:"position"`
	DueAt    *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Assignment) TableName() string { return "assignment" }

func (a *Assignment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&a.ID)
	return nil
}
