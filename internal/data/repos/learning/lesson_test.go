package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
)

func TestLessonRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewLessonRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	course := testutil.SeedCourse(t, ctx, tx, "math")
	second := testutil.SeedLesson(t, ctx, tx, course.ID, 1, nil, "")
	first := testutil.SeedLesson(t, ctx, tx, course.ID, 0, []string{"e1", "e2"}, "https://video.example/1")

	if !repo.HasLessonType(dbc) {
		t.Fatalf("HasLessonType: migrated schema should carry lesson_type")
	}

	rows, err := repo.ListByCourseIDs(dbc, []uuid.UUID{course.ID})
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByCourseIDs: err=%v len=%d", err, len(rows))
	}
	if rows[0].ID != first.ID || rows[1].ID != second.ID {
		t.Fatalf("ListByCourseIDs: expected position order")
	}

	got, err := repo.GetByID(dbc, first.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	if ids := got.ExerciseIDs(); len(ids) != 2 || !got.HasVideo() {
		t.Fatalf("GetByID: exercises=%v video=%v", ids, got.HasVideo())
	}
	if missing, err := repo.GetByID(dbc, uuid.New()); err != nil || missing != nil {
		t.Fatalf("GetByID(missing): got=%+v err=%v", missing, err)
	}
}

func TestLessonRepoWithoutLessonTypeColumn(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	if err := db.Exec(`ALTER TABLE lesson DROP COLUMN lesson_type`).Error; err != nil {
		t.Skipf("sqlite build cannot drop columns: %v", err)
	}

	repo := NewLessonRepo(db, testutil.Logger(t))
	if repo.HasLessonType(dbc) {
		t.Fatalf("HasLessonType: column was dropped")
	}

	course := testutil.SeedCourse(t, ctx, db, "math")
	if _, err := repo.Create(dbc, []*types.Lesson{{CourseID: course.ID, Title: "intro"}}); err != nil {
		t.Fatalf("Create without lesson_type: %v", err)
	}
	rows, err := repo.ListByCourseIDs(dbc, []uuid.UUID{course.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByCourseIDs without lesson_type: err=%v len=%d", err, len(rows))
	}
}
