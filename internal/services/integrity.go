package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/courseledger-backend/internal/data/repos"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/learning/integrity"
	"github.com/yungbote/courseledger-backend/internal/observability"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type IntegrityCheckInput struct {
	StudentID uuid.UUID
	Prompt    string
	History   []integrity.Message
}

// GuardResult is a verdict plus the directive derived from it.
type GuardResult struct {
	Verdict   integrity.Verdict `json:"verdict"`
	Directive TutorDirective    `json:"directive"`
}

type IntegrityService interface {
	// Check never fails; anything that prevents detection yields the permissive verdict.
	Check(ctx context.Context, in IntegrityCheckInput) integrity.Verdict
	Guard(ctx context.Context, in IntegrityCheckInput) GuardResult
}

type integrityService struct {
	log         *logger.Logger
	detector    *integrity.Detector
	catalog     CatalogService
	enrollments repos.EnrollmentRepo
	progress    repos.ProgressRecordRepo
}

func NewIntegrityService(baseLog *logger.Logger, rules integrity.Rules, catalog CatalogService, enrollments repos.EnrollmentRepo, progress repos.ProgressRecordRepo) IntegrityService {
	return &integrityService{
		log:         baseLog.With("service", "IntegrityService"),
		detector:    integrity.NewDetector(rules),
		catalog:     catalog,
		enrollments: enrollments,
		progress:    progress,
	}
}

func (s *integrityService) Check(ctx context.Context, in IntegrityCheckInput) integrity.Verdict {
	v, _ := s.check(ctx, in)
	return v
}

func (s *integrityService) Guard(ctx context.Context, in IntegrityCheckInput) GuardResult {
	v, title := s.check(ctx, in)
	res := GuardResult{Verdict: v, Directive: BuildTutorDirective(v, title)}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncIntegrityVerdict(string(res.Directive.Mode))
	}
	return res
}

func (s *integrityService) check(ctx context.Context, in IntegrityCheckInput) (v integrity.Verdict, title string) {
	ctx = ctxutil.Default(ctx)
	ctx, span := startSpan(ctx, "integrity.Check", attribute.String("student_id", in.StudentID.String()))
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn("integrity check panicked; failing open", "student_id", in.StudentID, "panic", fmt.Sprint(r))
			v, title = integrity.Permissive(), ""
			observability.Current().IncIntegrityFailOpen("panic")
		}
		span.SetAttributes(attribute.Bool("is_quiz_question", v.IsQuizQuestion))
		span.End()
	}()

	if in.StudentID == uuid.Nil {
		s.log.Warn("integrity check without student; failing open")
		return integrity.Permissive(), ""
	}
	input, err := s.gather(ctx, in)
	if err != nil {
		span.RecordError(err)
		s.log.Warn("integrity data unavailable; failing open", "student_id", in.StudentID, "error", err)
		observability.Current().IncIntegrityFailOpen("store")
		return integrity.Permissive(), ""
	}

	v = s.detector.Detect(input)
	if v.QuizID != nil {
		for _, q := range input.Quizzes {
			if q.ID == *v.QuizID {
				title = q.Title
				break
			}
		}
	}
	return v, title
}

func (s *integrityService) gather(ctx context.Context, in IntegrityCheckInput) (integrity.Input, error) {
	dbc := dbctx.Context{Ctx: ctx}
	out := integrity.Input{Prompt: in.Prompt, History: in.History}

	enrollments, err := s.enrollments.ListApprovedByStudent(dbc, in.StudentID)
	if err != nil {
		return out, fmt.Errorf("list enrollments: %w", err)
	}
	if len(enrollments) == 0 {
		return out, nil
	}
	out.HasEnrollments = true

	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	quizzes, err := s.catalog.ListQuizzes(ctx, courseIDs)
	if err != nil {
		return out, err
	}
	if len(quizzes) == 0 {
		return out, nil
	}

	records, err := s.progress.List(dbc, repos.ProgressFilter{
		StudentID:     in.StudentID,
		CourseIDs:     courseIDs,
		Kinds:         []types.ItemKind{types.ItemQuiz},
		CompletedOnly: true,
	})
	if err != nil {
		return out, fmt.Errorf("list quiz progress: %w", err)
	}
	done := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		if r.QuizID != nil {
			done[*r.QuizID] = true
		}
	}

	out.Quizzes = make([]integrity.QuizView, 0, len(quizzes))
	for _, q := range quizzes {
		view := integrity.QuizView{
			ID:        q.ID,
			CourseID:  q.CourseID,
			Title:     q.Title,
			Completed: done[q.ID],
		}
		questions, derr := types.DecodeQuizQuestions(q.Questions)
		if derr != nil {
			s.log.Debug("quiz questions unreadable", "quiz_id", q.ID, "error", derr)
		} else {
			view.Questions, view.Decoded = questions, true
		}
		out.Quizzes = append(out.Quizzes, view)
	}
	return out, nil
}
