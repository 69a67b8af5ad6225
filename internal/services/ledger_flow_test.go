package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/learning/completion"
	"github.com/yungbote/courseledger-backend/internal/pkg/pointers"
)

// Two video lessons and a two-question quiz: lessons alone give 67, the quiz brings it to 100.
func TestCourseProgressFromLessonsThenQuiz(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "biology")
	l1 := testutil.SeedLesson(t, env.ctx, env.db, course.ID, 1, nil, "https://video.example/cells")
	l2 := testutil.SeedLesson(t, env.ctx, env.db, course.ID, 2, nil, "https://video.example/dna")
	quiz := testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 3, []types.QuizQuestion{
		{Question: "Which organelle produces energy", Options: []string{"Mitochondria", "Nucleus"}, CorrectAnswer: 0},
		{Question: "What molecule carries genetic information", Options: []string{"Glucose", "DNA"}, CorrectAnswer: 1},
	})
	student := uuid.New()
	testutil.SeedEnrollment(t, env.ctx, env.db, student, course.ID, types.EnrollmentApproved)

	cache := newFakeCache()
	agg := env.aggregator(AggregatorOptions{Cache: cache})
	ledger := NewLedgerService(env.db, env.log, env.catalog, env.progress, agg, cache)

	for _, l := range []*types.Lesson{l1, l2} {
		rec, err := ledger.Upsert(env.ctx, UpsertProgressInput{
			StudentID: student,
			CourseID:  course.ID,
			ItemKind:  types.ItemLesson,
			ItemID:    l.ID,
			Answers:   json.RawMessage(`{"video_watched":true}`),
		})
		require.NoError(t, err)
		require.True(t, rec.Completed, "lesson %d not completed by its video", l.Position)
	}

	snap, err := agg.CourseCompletion(env.ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.Snapshot{Completed: 2, Total: 3, Percent: 67}, snap)
	assertStoredPercent(t, env, cache, student, course.ID, 67)

	_, err = ledger.Upsert(env.ctx, UpsertProgressInput{
		StudentID: student,
		CourseID:  course.ID,
		ItemKind:  types.ItemQuiz,
		ItemID:    quiz.ID,
		Completed: pointers.Bool(true),
		Score:     pointers.Int(80),
	})
	require.NoError(t, err)

	snap, err = agg.CourseCompletion(env.ctx, student, course.ID)
	require.NoError(t, err)
	assert.Equal(t, completion.Snapshot{Completed: 3, Total: 3, Percent: 100}, snap)
	assertStoredPercent(t, env, cache, student, course.ID, 100)
}

func assertStoredPercent(t *testing.T, env *testEnv, cache *fakeCache, studentID, courseID uuid.UUID, want int) {
	t.Helper()
	e, err := env.enrollments.Get(dbcFor(env), studentID, courseID)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, want, e.ProgressPercent)

	cached, err := cache.Get(env.ctx, studentID, courseID)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, want, cached.Percent)
}

func TestLedgerConcurrentSubmissionsKeepOneRecord(t *testing.T) {
	env := newTestEnv(t)
	course := testutil.SeedCourse(t, env.ctx, env.db, "math")
	exercises := make([]string, 10)
	for i := range exercises {
		exercises[i] = fmt.Sprintf("ex%02d", i)
	}
	lesson := testutil.SeedLesson(t, env.ctx, env.db, course.ID, 1, exercises, "")
	student := uuid.New()
	wb := &fakeWriteback{}
	ledger := newLedger(env, wb, nil)

	var wg sync.WaitGroup
	errs := make([]error, len(exercises))
	for i, ex := range exercises {
		wg.Add(1)
		go func(i int, ex string) {
			defer wg.Done()
			_, errs[i] = ledger.Upsert(env.ctx, UpsertProgressInput{
				StudentID: student,
				CourseID:  course.ID,
				ItemKind:  types.ItemLesson,
				ItemID:    lesson.ID,
				Answers:   json.RawMessage(fmt.Sprintf(`{"completed_exercises":[%q]}`, ex)),
			})
		}(i, ex)
	}
	wg.Wait()
	for i, err := range errs {
		require.NoError(t, err, "submission %d", i)
	}

	recs, err := env.progress.ListByStudentCourse(dbcFor(env), student, course.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Completed)

	var answers struct {
		CompletedExercises []string `json:"completed_exercises"`
	}
	require.NoError(t, json.Unmarshal(recs[0].Answers, &answers))
	assert.ElementsMatch(t, exercises, answers.CompletedExercises)

	assert.Len(t, wb.calls, 1, "only the completing submission writes back")
}
