package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseledger-backend/internal/clients/redis"
	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/learning/completion"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/pkg/pointers"
)

func lessonRef(id uuid.UUID) types.ItemRef { return types.ItemRef{Kind: types.ItemLesson, ID: id} }
func quizRef(id uuid.UUID) types.ItemRef   { return types.ItemRef{Kind: types.ItemQuiz, ID: id} }
func assignmentRef(id uuid.UUID) types.ItemRef {
	return types.ItemRef{Kind: types.ItemAssignment, ID: id}
}

func TestCourseCompletionCountsOnlyCatalogItems(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	other := testutil.SeedCourse(t, env.ctx, env.db, "history")
	l1 := testutil.SeedLesson(t, env.ctx, env.db, course.ID, 1, []string{"e1"}, "")
	testutil.SeedLesson(t, env.ctx, env.db, course.ID, 2, nil, "")
	q := testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 3, nil)
	a := testutil.SeedAssignment(t, env.ctx, env.db, course.ID, 4)
	foreign := testutil.SeedQuiz(t, env.ctx, env.db, other.ID, 1, nil)
	student := uuid.New()

	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, lessonRef(l1.ID), true, nil, time.Time{})
	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, quizRef(q.ID), true, pointers.Int(90), time.Time{})
	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, assignmentRef(a.ID), false, nil, time.Time{})
	// Recorded under this course but the item belongs elsewhere.
	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, quizRef(foreign.ID), true, nil, time.Time{})

	agg := env.aggregator(AggregatorOptions{})
	snap, err := agg.CourseCompletion(env.ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.Snapshot{Completed: 2, Total: 4, Percent: 50}, snap)
}

func TestCourseCompletionEmptyCourse(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "empty")

	snap, err := env.aggregator(AggregatorOptions{}).CourseCompletion(env.ctx, uuid.New(), course.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.Snapshot{}, snap)
}

func TestCourseCompletionRejectsNilIDs(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.aggregator(AggregatorOptions{}).CourseCompletion(env.ctx, uuid.Nil, uuid.New())
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))
}

func TestCourseCompletionUsesCache(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 1, nil)
	student := uuid.New()
	cache := newFakeCache()
	agg := env.aggregator(AggregatorOptions{Cache: cache})

	snap, err := agg.CourseCompletion(env.ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Total)

	cached := completion.Snapshot{Completed: 1, Total: 1, Percent: 100}
	require.NoError(t, cache.Set(env.ctx, student, course.ID, cached))
	snap, err = agg.CourseCompletion(env.ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, cached, snap)
}

func TestCohortCompletion(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	l := testutil.SeedLesson(t, env.ctx, env.db, course.ID, 1, nil, "")
	q := testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 2, nil)

	done, half, idle, pending := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	for _, s := range []uuid.UUID{done, half, idle} {
		testutil.SeedEnrollment(t, env.ctx, env.db, s, course.ID, types.EnrollmentApproved)
	}
	testutil.SeedEnrollment(t, env.ctx, env.db, pending, course.ID, types.EnrollmentPending)

	testutil.SeedProgress(t, env.ctx, env.db, done, course.ID, lessonRef(l.ID), true, nil, time.Time{})
	testutil.SeedProgress(t, env.ctx, env.db, done, course.ID, quizRef(q.ID), true, pointers.Int(100), time.Time{})
	testutil.SeedProgress(t, env.ctx, env.db, half, course.ID, quizRef(q.ID), true, pointers.Int(40), time.Time{})
	testutil.SeedProgress(t, env.ctx, env.db, pending, course.ID, quizRef(q.ID), true, pointers.Int(40), time.Time{})

	summary, err := env.aggregator(AggregatorOptions{Concurrency: 2}).CohortCompletion(env.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.CohortSummary{
		TotalStudents:   3,
		Completed:       1,
		InProgress:      1,
		NotStarted:      1,
		AverageProgress: 50,
	}, summary)
}

func TestCohortCompletionWithoutEnrollments(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")

	summary, err := env.aggregator(AggregatorOptions{}).CohortCompletion(env.ctx, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.CohortSummary{}, summary)
}

func TestStudentOverallProgress(t *testing.T) {
	env := newTestEnv(t)
	student := uuid.New()

	full := testutil.SeedCourse(t, env.ctx, env.db, "math")
	fq := testutil.SeedQuiz(t, env.ctx, env.db, full.ID, 1, nil)
	partial := testutil.SeedCourse(t, env.ctx, env.db, "physics")
	pq := testutil.SeedQuiz(t, env.ctx, env.db, partial.ID, 1, nil)
	testutil.SeedAssignment(t, env.ctx, env.db, partial.ID, 2)
	testutil.SeedAssignment(t, env.ctx, env.db, partial.ID, 3)
	ignored := testutil.SeedCourse(t, env.ctx, env.db, "art")

	testutil.SeedEnrollment(t, env.ctx, env.db, student, full.ID, types.EnrollmentApproved)
	testutil.SeedEnrollment(t, env.ctx, env.db, student, partial.ID, types.EnrollmentApproved)
	testutil.SeedEnrollment(t, env.ctx, env.db, student, ignored.ID, types.EnrollmentRejected)

	testutil.SeedProgress(t, env.ctx, env.db, student, full.ID, quizRef(fq.ID), true, pointers.Int(90), time.Time{})
	testutil.SeedProgress(t, env.ctx, env.db, student, partial.ID, quizRef(pq.ID), true, pointers.Int(90), time.Time{})

	// 100 and 33 average to 66.5, which rounds half up.
	overall, err := env.aggregator(AggregatorOptions{}).StudentOverallProgress(env.ctx, student)
	require.NoError(t, err)
	assert.Equal(t, 67, overall)

	none, err := env.aggregator(AggregatorOptions{}).StudentOverallProgress(env.ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, none)
}

func TestWritebackStoresPercentAndPublishes(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	q := testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 1, nil)
	testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 2, nil)
	student := uuid.New()
	testutil.SeedEnrollment(t, env.ctx, env.db, student, course.ID, types.EnrollmentApproved)
	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, quizRef(q.ID), true, pointers.Int(75), time.Time{})

	bus := &fakeBus{}
	cache := newFakeCache()
	agg := env.aggregator(AggregatorOptions{Bus: bus, Cache: cache})
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	agg.now = fixedClock(at)

	snap, err := agg.Writeback(env.ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, snap.Percent)

	e, err := env.enrollments.Get(dbcFor(env), student, course.ID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, 50, e.ProgressPercent)
	require.NotNil(t, e.LastAccessedAt)
	assert.True(t, e.LastAccessedAt.Equal(at))

	require.Len(t, bus.events, 1)
	assert.Equal(t, redis.EventProgressUpdated, bus.events[0].Type)
	assert.Equal(t, 50, bus.events[0].Percent)

	cached, err := cache.Get(env.ctx, student, course.ID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, snap, *cached)
}

func TestLedgerCompletionTriggersWriteback(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	a := testutil.SeedAssignment(t, env.ctx, env.db, course.ID, 1)
	student := uuid.New()
	testutil.SeedEnrollment(t, env.ctx, env.db, student, course.ID, types.EnrollmentApproved)

	agg := env.aggregator(AggregatorOptions{})
	ledger := NewLedgerService(env.db, env.log, env.catalog, env.progress, agg, nil)
	_, err := ledger.Upsert(env.ctx, UpsertProgressInput{
		StudentID: student,
		CourseID:  course.ID,
		ItemKind:  types.ItemAssignment,
		ItemID:    a.ID,
		Completed: pointers.Bool(true),
		Score:     pointers.Int(88),
	})
	require.NoError(t, err)

	e, err := env.enrollments.Get(dbcFor(env), student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, e.ProgressPercent)
}

func TestBackfill(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	q := testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 1, nil)
	s1, s2 := uuid.New(), uuid.New()
	testutil.SeedEnrollment(t, env.ctx, env.db, s1, course.ID, types.EnrollmentApproved)
	testutil.SeedEnrollment(t, env.ctx, env.db, s2, course.ID, types.EnrollmentApproved)
	testutil.SeedProgress(t, env.ctx, env.db, s1, course.ID, quizRef(q.ID), true, nil, time.Time{})

	agg := env.aggregator(AggregatorOptions{})

	res, err := agg.Backfill(env.ctx, &course.ID, true)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Enrollments: 2, Updated: 0, Changed: 1, DryRun: true}, res)
	e, err := env.enrollments.Get(dbcFor(env), s1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, e.ProgressPercent, "dry run must not write")

	res, err = agg.Backfill(env.ctx, nil, false)
	require.NoError(t, err)
	assert.Equal(t, BackfillResult{Enrollments: 2, Updated: 2, Changed: 1}, res)
	e, err = env.enrollments.Get(dbcFor(env), s1, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, e.ProgressPercent)
}
