package testutil

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/courseledger-backend/internal/domain"
)

var seq atomic.Int64

// tick returns strictly increasing timestamps so ordering by created_at is deterministic.
func tick() time.Time {
	n := seq.Add(1)
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(n) * time.Second)
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, subject string) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:      uuid.New(),
		Title:   "course " + subject,
		Subject: subject,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedEnrollment(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID, status types.EnrollmentStatus) *types.Enrollment {
	tb.Helper()
	now := tick()
	e := &types.Enrollment{
		ID:        uuid.New(),
		StudentID: studentID,
		CourseID:  courseID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedLesson(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int, exercises []string, videoURL string) *types.Lesson {
	tb.Helper()
	if exercises == nil {
		exercises = []string{}
	}
	raw, _ := json.Marshal(exercises)
	now := tick()
	l := &types.Lesson{
		ID:        uuid.New(),
		CourseID:  courseID,
		Title:     "lesson",
		Position:  position,
		Exercises: datatypes.JSON(raw),
		VideoURL:  videoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(l).Error; err != nil {
		tb.Fatalf("seed lesson: %v", err)
	}
	return l
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int, questions []types.QuizQuestion) *types.Quiz {
	tb.Helper()
	raw, _ := json.Marshal(questions)
	return seedQuiz(tb, ctx, tx, courseID, position, raw)
}

// SeedQuizBlob stores the questions as a serialized text blob (a JSON string).
func SeedQuizBlob(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int, questions []types.QuizQuestion) *types.Quiz {
	tb.Helper()
	inner, _ := json.Marshal(questions)
	raw, _ := json.Marshal(string(inner))
	return seedQuiz(tb, ctx, tx, courseID, position, raw)
}

// SeedQuizRaw stores questions verbatim, including malformed payloads.
func SeedQuizRaw(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int, raw string) *types.Quiz {
	tb.Helper()
	return seedQuiz(tb, ctx, tx, courseID, position, []byte(raw))
}

func seedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int, raw []byte) *types.Quiz {
	tb.Helper()
	now := tick()
	q := &types.Quiz{
		ID:        uuid.New(),
		CourseID:  courseID,
		Title:     "quiz",
		Position:  position,
		Questions: datatypes.JSON(raw),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}

func SeedAssignment(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, position int) *types.Assignment {
	tb.Helper()
	now := tick()
	a := &types.Assignment{
		ID:        uuid.New(),
		CourseID:  courseID,
		Title:     "assignment",
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed assignment: %v", err)
	}
	return a
}

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID, ref types.ItemRef, completed bool, score *int, submittedAt time.Time) *types.ProgressRecord {
	tb.Helper()
	if submittedAt.IsZero() {
		submittedAt = time.Now().UTC()
	}
	p := &types.ProgressRecord{
		ID:          uuid.New(),
		StudentID:   studentID,
		CourseID:    courseID,
		Completed:   completed,
		Score:       score,
		Answers:     datatypes.JSON([]byte("{}")),
		SubmittedAt: submittedAt.UTC(),
	}
	p.SetRef(ref)
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}
