package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/clients/redis"
	"github.com/yungbote/courseledger-backend/internal/data/repos"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	"github.com/yungbote/courseledger-backend/internal/learning/completion"
	"github.com/yungbote/courseledger-backend/internal/observability"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

const defaultAggregatorConcurrency = 8

// BackfillResult summarizes a Backfill run.
type BackfillResult struct {
	Enrollments int  `json:"enrollments"`
	Updated     int  `json:"updated"`
	Changed     int  `json:"changed"`
	DryRun      bool `json:"dry_run"`
}

type AggregatorService interface {
	CourseCompletion(ctx context.Context, studentID, courseID uuid.UUID) (completion.Snapshot, error)
	CohortCompletion(ctx context.Context, courseID uuid.UUID) (completion.CohortSummary, error)
	StudentOverallProgress(ctx context.Context, studentID uuid.UUID) (int, error)
	// Writeback stores the recomputed percent on the enrollment. It is the only writer of that column.
	Writeback(ctx context.Context, studentID, courseID uuid.UUID) (completion.Snapshot, error)
	// Backfill recomputes the stored percent of every approved enrollment, optionally for one course.
	Backfill(ctx context.Context, courseID *uuid.UUID, dryRun bool) (BackfillResult, error)
}

type AggregatorOptions struct {
	Concurrency int
	Cache       redis.SnapshotCache
	Bus         redis.ProgressBus
}

type aggregatorService struct {
	db          *gorm.DB
	log         *logger.Logger
	catalog     CatalogService
	enrollments repos.EnrollmentRepo
	progress    repos.ProgressRecordRepo
	cache       redis.SnapshotCache
	bus         redis.ProgressBus
	limit       int
	now         func() time.Time
}

func NewAggregatorService(db *gorm.DB, baseLog *logger.Logger, catalog CatalogService, enrollments repos.EnrollmentRepo, progress repos.ProgressRecordRepo, opts AggregatorOptions) AggregatorService {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = defaultAggregatorConcurrency
	}
	return &aggregatorService{
		db:          db,
		log:         baseLog.With("service", "AggregatorService"),
		catalog:     catalog,
		enrollments: enrollments,
		progress:    progress,
		cache:       opts.Cache,
		bus:         opts.Bus,
		limit:       limit,
		now:         time.Now,
	}
}

func (s *aggregatorService) CourseCompletion(ctx context.Context, studentID, courseID uuid.UUID) (snap completion.Snapshot, err error) {
	ctx = ctxutil.Default(ctx)
	if err := requireIDs(map[string]uuid.UUID{"student_id": studentID, "course_id": courseID}); err != nil {
		return completion.Snapshot{}, err
	}
	ctx, span := startSpan(ctx, "aggregator.CourseCompletion",
		attribute.String("student_id", studentID.String()),
		attribute.String("course_id", courseID.String()),
	)
	defer func() { endSpan(span, err) }()

	if s.cache != nil {
		metrics := observability.Current()
		cached, cerr := s.cache.Get(ctx, studentID, courseID)
		switch {
		case cerr != nil:
			metrics.IncCacheLookup("error")
			s.log.Warn("snapshot cache read failed", "student_id", studentID, "course_id", courseID, "error", cerr)
		case cached != nil:
			metrics.IncCacheLookup("hit")
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return *cached, nil
		default:
			metrics.IncCacheLookup("miss")
		}
	}

	snap, err = s.compute(ctx, studentID, courseID)
	if err != nil {
		return completion.Snapshot{}, err
	}
	s.remember(ctx, studentID, courseID, snap)
	return snap, nil
}

func (s *aggregatorService) compute(ctx context.Context, studentID, courseID uuid.UUID) (completion.Snapshot, error) {
	items, err := s.catalog.ListItems(ctx, courseID)
	if err != nil {
		return completion.Snapshot{}, err
	}
	return s.computeWith(ctx, studentID, courseID, items)
}

func (s *aggregatorService) computeWith(ctx context.Context, studentID, courseID uuid.UUID, items *CatalogItems) (completion.Snapshot, error) {
	records, err := s.progress.ListByStudentCourse(dbctx.Context{Ctx: ctx}, studentID, courseID)
	if err != nil {
		return completion.Snapshot{}, apperrors.WrapStore("list progress", err)
	}
	return completion.NewSnapshot(countCompleted(records, items.Refs()), items.Total()), nil
}

// countCompleted counts completed records whose item is still in the catalog.
func countCompleted(records []*types.ProgressRecord, refs map[types.ItemRef]struct{}) int {
	seen := make(map[types.ItemRef]struct{}, len(records))
	for _, r := range records {
		if r == nil || !r.Completed {
			continue
		}
		ref, err := r.Ref()
		if err != nil {
			continue
		}
		if _, ok := refs[ref]; !ok {
			continue
		}
		seen[ref] = struct{}{}
	}
	return len(seen)
}

func (s *aggregatorService) remember(ctx context.Context, studentID, courseID uuid.UUID, snap completion.Snapshot) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, studentID, courseID, snap); err != nil {
		s.log.Warn("snapshot cache write failed", "student_id", studentID, "course_id", courseID, "error", err)
	}
}

func (s *aggregatorService) CohortCompletion(ctx context.Context, courseID uuid.UUID) (summary completion.CohortSummary, err error) {
	ctx = ctxutil.Default(ctx)
	if err := requireIDs(map[string]uuid.UUID{"course_id": courseID}); err != nil {
		return completion.Summarize(nil), err
	}
	ctx, span := startSpan(ctx, "aggregator.CohortCompletion", attribute.String("course_id", courseID.String()))
	defer func() { endSpan(span, err) }()

	enrollments, err := s.enrollments.ListApprovedByCourse(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return completion.Summarize(nil), apperrors.WrapStore("list enrollments", err)
	}
	if len(enrollments) == 0 {
		return completion.Summarize(nil), nil
	}
	items, err := s.catalog.ListItems(ctx, courseID)
	if err != nil {
		return completion.Summarize(nil), err
	}

	percents := make([]int, len(enrollments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, e := range enrollments {
		i, studentID := i, e.StudentID
		g.Go(func() error {
			snap, err := s.computeWith(gctx, studentID, courseID, items)
			if err != nil {
				return err
			}
			percents[i] = snap.Percent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return completion.Summarize(nil), err
	}
	span.SetAttributes(attribute.Int("students", len(percents)))
	return completion.Summarize(percents), nil
}

func (s *aggregatorService) StudentOverallProgress(ctx context.Context, studentID uuid.UUID) (overall int, err error) {
	ctx = ctxutil.Default(ctx)
	if err := requireIDs(map[string]uuid.UUID{"student_id": studentID}); err != nil {
		return 0, err
	}
	ctx, span := startSpan(ctx, "aggregator.StudentOverallProgress", attribute.String("student_id", studentID.String()))
	defer func() { endSpan(span, err) }()

	enrollments, err := s.enrollments.ListApprovedByStudent(dbctx.Context{Ctx: ctx}, studentID)
	if err != nil {
		return 0, apperrors.WrapStore("list enrollments", err)
	}
	if len(enrollments) == 0 {
		return 0, nil
	}

	percents := make([]int, len(enrollments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for i, e := range enrollments {
		i, courseID := i, e.CourseID
		g.Go(func() error {
			snap, err := s.CourseCompletion(gctx, studentID, courseID)
			if err != nil {
				return err
			}
			percents[i] = snap.Percent
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return completion.Mean(percents), nil
}

func (s *aggregatorService) Writeback(ctx context.Context, studentID, courseID uuid.UUID) (snap completion.Snapshot, err error) {
	ctx = ctxutil.Default(ctx)
	if err := requireIDs(map[string]uuid.UUID{"student_id": studentID, "course_id": courseID}); err != nil {
		return completion.Snapshot{}, err
	}
	ctx, span := startSpan(ctx, "aggregator.Writeback",
		attribute.String("student_id", studentID.String()),
		attribute.String("course_id", courseID.String()),
	)
	defer func() { endSpan(span, err) }()

	snap, err = s.compute(ctx, studentID, courseID)
	if err != nil {
		return completion.Snapshot{}, err
	}
	at := s.now().UTC()
	ok, err := s.enrollments.UpdateProgress(dbctx.Context{Ctx: ctx}, studentID, courseID, snap.Percent, at)
	if err != nil {
		return completion.Snapshot{}, apperrors.WrapStore("update enrollment progress", err)
	}
	if !ok {
		s.log.Debug("writeback without enrollment row", "student_id", studentID, "course_id", courseID)
	}
	s.remember(ctx, studentID, courseID, snap)

	if s.bus != nil {
		ev := redis.ProgressEvent{
			Type:      redis.EventProgressUpdated,
			StudentID: studentID,
			CourseID:  courseID,
			Percent:   snap.Percent,
			At:        at,
		}
		if perr := s.bus.Publish(ctx, ev); perr != nil {
			s.log.Warn("progress event publish failed", "student_id", studentID, "course_id", courseID, "error", perr)
		}
	}
	return snap, nil
}

func (s *aggregatorService) Backfill(ctx context.Context, courseID *uuid.UUID, dryRun bool) (res BackfillResult, err error) {
	ctx = ctxutil.Default(ctx)
	ctx, span := startSpan(ctx, "aggregator.Backfill", attribute.Bool("dry_run", dryRun))
	defer func() { endSpan(span, err) }()

	res.DryRun = dryRun
	enrollments, err := s.enrollments.ListApproved(dbctx.Context{Ctx: ctx}, courseID)
	if err != nil {
		return res, apperrors.WrapStore("list enrollments", err)
	}
	res.Enrollments = len(enrollments)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.limit)
	for _, e := range enrollments {
		e := e
		g.Go(func() error {
			var (
				snap completion.Snapshot
				err  error
			)
			if dryRun {
				snap, err = s.compute(gctx, e.StudentID, e.CourseID)
			} else {
				snap, err = s.Writeback(gctx, e.StudentID, e.CourseID)
			}
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			if !dryRun {
				res.Updated++
			}
			if snap.Percent != e.ProgressPercent {
				res.Changed++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}
	s.log.Info("backfill finished", "enrollments", res.Enrollments, "updated", res.Updated, "changed", res.Changed, "dry_run", dryRun)
	return res, nil
}

func requireIDs(ids map[string]uuid.UUID) error {
	var fields []apperrors.FieldError
	for name, id := range ids {
		if id == uuid.Nil {
			fields = append(fields, apperrors.FieldError{Field: name, Error: "is required"})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return apperrors.NewValidationError(nil, fields...)
}
