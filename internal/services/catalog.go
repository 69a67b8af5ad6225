package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/data/repos"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

// CatalogItems is every countable item of one course.
type CatalogItems struct {
	CourseID    uuid.UUID           `json:"course_id"`
	Lessons     []*types.Lesson     `json:"lessons"`
	Quizzes     []*types.Quiz       `json:"quizzes"`
	Assignments []*types.Assignment `json:"assignments"`
}

func (c *CatalogItems) Total() int {
	if c == nil {
		return 0
	}
	return len(c.Lessons) + len(c.Quizzes) + len(c.Assignments)
}

// Refs returns the set of item references in the course.
func (c *CatalogItems) Refs() map[types.ItemRef]struct{} {
	out := make(map[types.ItemRef]struct{}, c.Total())
	if c == nil {
		return out
	}
	for _, l := range c.Lessons {
		out[types.ItemRef{Kind: types.ItemLesson, ID: l.ID}] = struct{}{}
	}
	for _, q := range c.Quizzes {
		out[types.ItemRef{Kind: types.ItemQuiz, ID: q.ID}] = struct{}{}
	}
	for _, a := range c.Assignments {
		out[types.ItemRef{Kind: types.ItemAssignment, ID: a.ID}] = struct{}{}
	}
	return out
}

// QuizDetail is a quiz with its questions decoded.
type QuizDetail struct {
	Quiz      *types.Quiz          `json:"quiz"`
	Questions []types.QuizQuestion `json:"questions"`
}

var ErrQuestionsUnreadable = fmt.Errorf("quiz questions unreadable")

type CatalogService interface {
	ListItems(ctx context.Context, courseID uuid.UUID) (*CatalogItems, error)
	ListItemsForCourses(ctx context.Context, courseIDs []uuid.UUID) (map[uuid.UUID]*CatalogItems, error)
	// ListQuizzes returns quizzes grouped in the order of courseIDs, then by course position.
	ListQuizzes(ctx context.Context, courseIDs []uuid.UUID) ([]*types.Quiz, error)
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*QuizDetail, error)
	// FindItem returns the lesson when ref belongs to courseID. For quizzes and assignments
	// the lesson is nil. Items outside the course are a NotFoundError.
	FindItem(ctx context.Context, courseID uuid.UUID, ref types.ItemRef) (*types.Lesson, error)
}

type catalogService struct {
	db          *gorm.DB
	log         *logger.Logger
	courses     repos.CourseRepo
	lessons     repos.LessonRepo
	quizzes     repos.QuizRepo
	assignments repos.AssignmentRepo
}

func NewCatalogService(db *gorm.DB, baseLog *logger.Logger, courses repos.CourseRepo, lessons repos.LessonRepo, quizzes repos.QuizRepo, assignments repos.AssignmentRepo) CatalogService {
	return &catalogService{
		db:          db,
		log:         baseLog.With("service", "CatalogService"),
		courses:     courses,
		lessons:     lessons,
		quizzes:     quizzes,
		assignments: assignments,
	}
}

func (s *catalogService) ListItems(ctx context.Context, courseID uuid.UUID) (*CatalogItems, error) {
	if courseID == uuid.Nil {
		return nil, apperrors.Invalid("course_id", "is required")
	}
	byCourse, err := s.ListItemsForCourses(ctx, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	return byCourse[courseID], nil
}

func (s *catalogService) ListItemsForCourses(ctx context.Context, courseIDs []uuid.UUID) (out map[uuid.UUID]*CatalogItems, err error) {
	ctx, span := startSpan(ctx, "catalog.ListItems", attribute.Int("course_count", len(courseIDs)))
	defer func() { endSpan(span, err) }()

	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	out = make(map[uuid.UUID]*CatalogItems, len(courseIDs))
	for _, id := range courseIDs {
		out[id] = &CatalogItems{
			CourseID:    id,
			Lessons:     []*types.Lesson{},
			Quizzes:     []*types.Quiz{},
			Assignments: []*types.Assignment{},
		}
	}
	if len(courseIDs) == 0 {
		return out, nil
	}

	lessons, err := s.lessons.ListByCourseIDs(dbc, courseIDs)
	if err != nil {
		return nil, apperrors.WrapStore("list lessons", err)
	}
	quizzes, err := s.quizzes.ListByCourseIDs(dbc, courseIDs)
	if err != nil {
		return nil, apperrors.WrapStore("list quizzes", err)
	}
	assignments, err := s.assignments.ListByCourseIDs(dbc, courseIDs)
	if err != nil {
		return nil, apperrors.WrapStore("list assignments", err)
	}
	for _, l := range lessons {
		if c := out[l.CourseID]; c != nil {
			c.Lessons = append(c.Lessons, l)
		}
	}
	for _, q := range quizzes {
		if c := out[q.CourseID]; c != nil {
			c.Quizzes = append(c.Quizzes, q)
		}
	}
	for _, a := range assignments {
		if c := out[a.CourseID]; c != nil {
			c.Assignments = append(c.Assignments, a)
		}
	}
	return out, nil
}

func (s *catalogService) ListQuizzes(ctx context.Context, courseIDs []uuid.UUID) ([]*types.Quiz, error) {
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	if len(courseIDs) == 0 {
		return []*types.Quiz{}, nil
	}
	rows, err := s.quizzes.ListByCourseIDs(dbc, courseIDs)
	if err != nil {
		return nil, apperrors.WrapStore("list quizzes", err)
	}
	rank := make(map[uuid.UUID]int, len(courseIDs))
	for i, id := range courseIDs {
		if _, ok := rank[id]; !ok {
			rank[id] = i
		}
	}
	// rows are already in position order; a stable sort keeps it within each course
	sort.SliceStable(rows, func(i, j int) bool {
		return rank[rows[i].CourseID] < rank[rows[j].CourseID]
	})
	return rows, nil
}

func (s *catalogService) GetQuiz(ctx context.Context, quizID uuid.UUID) (*QuizDetail, error) {
	if quizID == uuid.Nil {
		return nil, apperrors.Invalid("quiz_id", "is required")
	}
	q, err := s.quizzes.GetByID(dbctx.Context{Ctx: ctxutil.Default(ctx)}, quizID)
	if err != nil {
		return nil, apperrors.WrapStore("get quiz", err)
	}
	if q == nil {
		return nil, apperrors.NewNotFoundError("quiz", quizID.String())
	}
	questions, err := types.DecodeQuizQuestions(q.Questions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQuestionsUnreadable, err)
	}
	return &QuizDetail{Quiz: q, Questions: questions}, nil
}

func (s *catalogService) FindItem(ctx context.Context, courseID uuid.UUID, ref types.ItemRef) (*types.Lesson, error) {
	dbc := dbctx.Context{Ctx: ctxutil.Default(ctx)}
	var (
		itemCourse uuid.UUID
		lesson     *types.Lesson
	)
	switch ref.Kind {
	case types.ItemLesson:
		l, err := s.lessons.GetByID(dbc, ref.ID)
		if err != nil {
			return nil, apperrors.WrapStore("get lesson", err)
		}
		if l != nil {
			itemCourse, lesson = l.CourseID, l
		}
	case types.ItemQuiz:
		q, err := s.quizzes.GetByID(dbc, ref.ID)
		if err != nil {
			return nil, apperrors.WrapStore("get quiz", err)
		}
		if q != nil {
			itemCourse = q.CourseID
		}
	case types.ItemAssignment:
		a, err := s.assignments.GetByID(dbc, ref.ID)
		if err != nil {
			return nil, apperrors.WrapStore("get assignment", err)
		}
		if a != nil {
			itemCourse = a.CourseID
		}
	default:
		return nil, apperrors.Invalid("item_kind", "must be one of lesson quiz assignment")
	}
	if itemCourse == uuid.Nil || itemCourse != courseID {
		return nil, apperrors.NewNotFoundError(string(ref.Kind), ref.ID.String())
	}
	return lesson, nil
}
