package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/courseledger-backend/internal/data/repos/testutil"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/services"
)

func TestWireServicesKeepsDefaultRulesWhenOverrideInvalid(t *testing.T) {
	db := testutil.DB(t)
	log := testutil.Logger(t)
	ctx := context.Background()

	bad := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("answer_request_patterns: ['(']\n"), 0o600))

	svcs, err := wireServices(db, log, Config{IntegrityRulesPath: bad}, wireRepos(db, log), Clients{})
	require.NoError(t, err)
	require.NotNil(t, svcs.Integrity)

	student := uuid.New()
	course := testutil.SeedCourse(t, ctx, db, "geography")
	testutil.SeedEnrollment(t, ctx, db, student, course.ID, types.EnrollmentApproved)
	testutil.SeedQuiz(t, ctx, db, course.ID, 1, []types.QuizQuestion{
		{Question: "What is the capital city of France", Options: []string{"Paris", "Lyon"}, CorrectAnswer: 0},
	})

	res := svcs.Integrity.Guard(ctx, services.IntegrityCheckInput{StudentID: student, Prompt: "capital city of France?"})
	assert.True(t, res.Verdict.IsQuizQuestion)
	assert.Equal(t, services.TutorProtect, res.Directive.Mode)
}
