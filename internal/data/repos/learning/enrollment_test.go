package learning

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
)

func TestEnrollmentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewEnrollmentRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}

	student := uuid.New()
	c1 := testutil.SeedCourse(t, ctx, tx, "math")
	c2 := testutil.SeedCourse(t, ctx, tx, "science")
	c3 := testutil.SeedCourse(t, ctx, tx, "history")
	e1 := testutil.SeedEnrollment(t, ctx, tx, student, c1.ID, types.EnrollmentApproved)
	testutil.SeedEnrollment(t, ctx, tx, student, c2.ID, types.EnrollmentPending)
	e3 := testutil.SeedEnrollment(t, ctx, tx, student, c3.ID, types.EnrollmentApproved)
	testutil.SeedEnrollment(t, ctx, tx, uuid.New(), c1.ID, types.EnrollmentRejected)

	got, err := repo.Get(dbc, student, c2.ID)
	if err != nil || got == nil || got.Status != types.EnrollmentPending {
		t.Fatalf("Get: got=%+v err=%v", got, err)
	}
	if missing, err := repo.Get(dbc, uuid.New(), c1.ID); err != nil || missing != nil {
		t.Fatalf("Get(missing): got=%+v err=%v", missing, err)
	}

	approved, err := repo.ListApprovedByStudent(dbc, student)
	if err != nil || len(approved) != 2 {
		t.Fatalf("ListApprovedByStudent: err=%v len=%d", err, len(approved))
	}
	if approved[0].ID != e1.ID || approved[1].ID != e3.ID {
		t.Fatalf("ListApprovedByStudent: unexpected order")
	}

	if rows, err := repo.ListApprovedByCourse(dbc, c1.ID); err != nil || len(rows) != 1 {
		t.Fatalf("ListApprovedByCourse: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.ListApproved(dbc, nil); err != nil || len(rows) != 2 {
		t.Fatalf("ListApproved: err=%v len=%d", err, len(rows))
	}

	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	ok, err := repo.UpdateProgress(dbc, student, c1.ID, 67, at)
	if err != nil || !ok {
		t.Fatalf("UpdateProgress: ok=%v err=%v", ok, err)
	}
	got, _ = repo.Get(dbc, student, c1.ID)
	if got.ProgressPercent != 67 || got.LastAccessedAt == nil || !got.LastAccessedAt.Equal(at) {
		t.Fatalf("UpdateProgress not persisted: %+v", got)
	}
	if ok, err := repo.UpdateProgress(dbc, uuid.New(), c1.ID, 10, at); err != nil || ok {
		t.Fatalf("UpdateProgress(missing): ok=%v err=%v", ok, err)
	}
}
