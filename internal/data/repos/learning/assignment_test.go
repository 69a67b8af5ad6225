package learning

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
)

func TestAssignmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewAssignmentRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	course := testutil.SeedCourse(t, ctx, tx, "math")
	a := testutil.SeedAssignment(t, ctx, tx, course.ID, 0)

	if got, err := repo.GetByID(dbc, a.ID); err != nil || got == nil || got.CourseID != course.ID {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}
	if rows, err := repo.ListByCourseIDs(dbc, []uuid.UUID{course.ID, uuid.New()}); err != nil || len(rows) != 1 {
		t.Fatalf("ListByCourseIDs: err=%v len=%d", err, len(rows))
	}
}
