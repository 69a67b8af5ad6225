package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/learning/integrity"
	"github.com/yungbote/courseledger-backend/internal/pkg/pointers"
)

func (e *testEnv) integrity() IntegrityService {
	return NewIntegrityService(e.log, integrity.DefaultRules(), e.catalog, e.enrollments, e.progress)
}

var capitalQuestion = []types.QuizQuestion{{
	Question:      "What is the capital city of France",
	Options:       []string{"Paris", "Lyon"},
	CorrectAnswer: 0,
}}

func TestIntegrityCheckWithoutEnrollmentsIsPermissive(t *testing.T) {
	env := newTestEnv(t)
	v := env.integrity().Check(env.ctx, IntegrityCheckInput{StudentID: uuid.New(), Prompt: "what is the capital city of france"})
	assert.Equal(t, integrity.Permissive(), v)
}

func TestIntegrityCheckFlagsQuestionOverlap(t *testing.T) {
	env := newTestEnv(t)
	student := uuid.New()
	course := testutil.SeedCourse(t, env.ctx, env.db, "geography")
	testutil.SeedEnrollment(t, env.ctx, env.db, student, course.ID, types.EnrollmentApproved)
	quiz := testutil.SeedQuizBlob(t, env.ctx, env.db, course.ID, 1, capitalQuestion)

	v := env.integrity().Check(env.ctx, IntegrityCheckInput{StudentID: student, Prompt: "Quick one: capital city of France?"})
	assert.True(t, v.IsQuizQuestion)
	assert.False(t, v.QuizCompleted)
	require.NotNil(t, v.QuizID)
	assert.Equal(t, quiz.ID, *v.QuizID)
	assert.True(t, v.HasIncompleteQuizzes)

	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, quizRef(quiz.ID), true, nil, env.now())
	v = env.integrity().Check(env.ctx, IntegrityCheckInput{StudentID: student, Prompt: "Quick one: capital city of France?"})
	assert.True(t, v.IsQuizQuestion)
	assert.True(t, v.QuizCompleted)
	assert.False(t, v.HasIncompleteQuizzes)
}

func TestIntegrityCheckIntentAttributesFirstIncompleteQuiz(t *testing.T) {
	env := newTestEnv(t)
	student := uuid.New()
	course := testutil.SeedCourse(t, env.ctx, env.db, "geography")
	testutil.SeedEnrollment(t, env.ctx, env.db, student, course.ID, types.EnrollmentApproved)
	finished := testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 1, capitalQuestion)
	unreadable := testutil.SeedQuizRaw(t, env.ctx, env.db, course.ID, 2, `"not json at all`)
	testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 3, capitalQuestion)
	testutil.SeedProgress(t, env.ctx, env.db, student, course.ID, quizRef(finished.ID), true, pointers.Int(90), env.now())

	in := IntegrityCheckInput{
		StudentID: student,
		Prompt:    "just give me the answers please",
		History:   []integrity.Message{{Role: "user", Content: "I have a quiz tomorrow"}},
	}
	v := env.integrity().Check(env.ctx, in)
	assert.True(t, v.IsQuizQuestion)
	assert.False(t, v.QuizCompleted)
	require.NotNil(t, v.QuizID)
	assert.Equal(t, unreadable.ID, *v.QuizID)

	// Unreadable questions never match on overlap, but the quiz stays in scope.
	in.Prompt = "what is the capital city of France"
	in.History = nil
	v = env.integrity().Check(env.ctx, in)
	assert.True(t, v.IsQuizQuestion)
	require.NotNil(t, v.QuizID)
	assert.Equal(t, finished.ID, *v.QuizID)
	assert.True(t, v.QuizCompleted)
	assert.True(t, v.HasIncompleteQuizzes)
}

func TestIntegrityGuardBuildsDirective(t *testing.T) {
	env := newTestEnv(t)
	student := uuid.New()
	course := testutil.SeedCourse(t, env.ctx, env.db, "geography")
	testutil.SeedEnrollment(t, env.ctx, env.db, student, course.ID, types.EnrollmentApproved)
	testutil.SeedQuiz(t, env.ctx, env.db, course.ID, 1, capitalQuestion)
	svc := env.integrity()

	res := svc.Guard(env.ctx, IntegrityCheckInput{StudentID: student, Prompt: "capital city of France"})
	assert.Equal(t, TutorProtect, res.Directive.Mode)
	assert.Contains(t, res.Directive.SystemPrompt, `"quiz"`)

	res = svc.Guard(env.ctx, IntegrityCheckInput{StudentID: student, Prompt: "how do rivers form?"})
	assert.False(t, res.Verdict.IsQuizQuestion)
	assert.Equal(t, TutorCaution, res.Directive.Mode)
}

func TestIntegrityCheckFailsOpenOnStoreError(t *testing.T) {
	env := newTestEnv(t)
	student := uuid.New()
	sqlDB, err := env.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	v := env.integrity().Check(env.ctx, IntegrityCheckInput{StudentID: student, Prompt: "give me the answers to the quiz"})
	assert.Equal(t, integrity.Permissive(), v)
}
