package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/courseledger-backend/internal/data/repos"
	"github.com/yungbote/courseledger-backend/internal/learning/timebucket"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/dbctx"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

type TrendsInput struct {
	StudentID   uuid.UUID
	Granularity timebucket.Granularity
	Subject     string
}

// TrendComparison compares the latest bucket with the one before it.
type TrendComparison struct {
	Overall     int `json:"overall"`
	Completions int `json:"completions"`
}

type TrendSeries struct {
	Granularity timebucket.Granularity   `json:"granularity"`
	Subject     string                   `json:"subject,omitempty"`
	Buckets     []timebucket.BucketStats `json:"buckets"`
	Comparison  *TrendComparison         `json:"comparison,omitempty"`
}

type ActiveLearnersBucket struct {
	timebucket.Bucket
	ActiveLearners int `json:"active_learners"`
	Completions    int `json:"completions"`
}

type ActiveLearnersSeries struct {
	CourseID   *uuid.UUID             `json:"course_id,omitempty"`
	Buckets    []ActiveLearnersBucket `json:"buckets"`
	Comparison int                    `json:"comparison"`
}

type MetricsService interface {
	StudentTrends(ctx context.Context, in TrendsInput) (TrendSeries, error)
	ActiveLearners(ctx context.Context, courseID *uuid.UUID) (ActiveLearnersSeries, error)
}

type metricsService struct {
	db          *gorm.DB
	log         *logger.Logger
	courses     repos.CourseRepo
	enrollments repos.EnrollmentRepo
	progress    repos.ProgressRecordRepo
	now         func() time.Time
}

func NewMetricsService(db *gorm.DB, baseLog *logger.Logger, courses repos.CourseRepo, enrollments repos.EnrollmentRepo, progress repos.ProgressRecordRepo) MetricsService {
	return &metricsService{
		db:          db,
		log:         baseLog.With("service", "MetricsService"),
		courses:     courses,
		enrollments: enrollments,
		progress:    progress,
		now:         time.Now,
	}
}

// EmptyTrends is the well-shaped zero series for g, used when data cannot be read.
func EmptyTrends(g timebucket.Granularity, subject string, now time.Time) TrendSeries {
	buckets := timebucket.Buckets(g, now, timebucket.DefaultCount(g))
	var subjects []string
	if strings.TrimSpace(subject) != "" {
		subjects = []string{subject}
	}
	series := TrendSeries{
		Granularity: g,
		Subject:     subject,
		Buckets:     timebucket.Aggregate(buckets, nil, subjects),
	}
	series.Comparison = compareTrend(series.Buckets)
	return series
}

// EmptyActiveLearners is the zero series of the admin view.
func EmptyActiveLearners(courseID *uuid.UUID, now time.Time) ActiveLearnersSeries {
	buckets := timebucket.Buckets(timebucket.Month, now, timebucket.ActiveLearnerBuckets)
	out := ActiveLearnersSeries{CourseID: courseID, Buckets: make([]ActiveLearnersBucket, len(buckets))}
	for i, b := range buckets {
		out.Buckets[i] = ActiveLearnersBucket{Bucket: b}
	}
	return out
}

func (s *metricsService) StudentTrends(ctx context.Context, in TrendsInput) (series TrendSeries, err error) {
	ctx = ctxutil.Default(ctx)
	if in.Granularity == "" {
		in.Granularity = timebucket.Week
	}
	now := s.now().UTC()
	empty := EmptyTrends(in.Granularity, in.Subject, now)
	if in.StudentID == uuid.Nil {
		return empty, apperrors.Invalid("student_id", "is required")
	}
	if in.Granularity != timebucket.Week && in.Granularity != timebucket.Month {
		return empty, apperrors.Invalid("granularity", "must be one of week month")
	}

	ctx, span := startSpan(ctx, "metrics.StudentTrends",
		attribute.String("student_id", in.StudentID.String()),
		attribute.String("granularity", string(in.Granularity)),
	)
	defer func() { endSpan(span, err) }()

	dbc := dbctx.Context{Ctx: ctx}
	enrollments, err := s.enrollments.ListApprovedByStudent(dbc, in.StudentID)
	if err != nil {
		return empty, apperrors.WrapStore("list enrollments", err)
	}
	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	courses, err := s.courses.GetByIDs(dbc, courseIDs)
	if err != nil {
		return empty, apperrors.WrapStore("list courses", err)
	}

	filter := ""
	if strings.TrimSpace(in.Subject) != "" {
		filter = timebucket.NormalizeSubject(in.Subject)
	}
	subjectOf := make(map[uuid.UUID]string, len(courses))
	subjects := []string{}
	seen := map[string]bool{}
	kept := make([]uuid.UUID, 0, len(courses))
	for _, c := range courses {
		sub := timebucket.NormalizeSubject(c.Subject)
		if filter != "" && sub != filter {
			continue
		}
		subjectOf[c.ID] = sub
		kept = append(kept, c.ID)
		if !seen[sub] {
			seen[sub] = true
			subjects = append(subjects, sub)
		}
	}
	if filter != "" && !seen[filter] {
		subjects = append(subjects, filter)
	}

	buckets := timebucket.Buckets(in.Granularity, now, timebucket.DefaultCount(in.Granularity))
	since, until := timebucket.Window(buckets)
	records, err := s.progress.List(dbc, repos.ProgressFilter{
		StudentID:     in.StudentID,
		CourseIDs:     kept,
		CompletedOnly: true,
		Since:         &since,
		Until:         &until,
	})
	if err != nil {
		return empty, apperrors.WrapStore("list progress", err)
	}

	points := make([]timebucket.Point, 0, len(records))
	for _, r := range records {
		ref, rerr := r.Ref()
		if rerr != nil {
			continue
		}
		points = append(points, timebucket.Point{
			At:      r.SubmittedAt,
			Subject: subjectOf[r.CourseID],
			Kind:    ref.Kind,
			Score:   r.Score,
		})
	}
	span.SetAttributes(attribute.Int("points", len(points)))

	series = TrendSeries{
		Granularity: in.Granularity,
		Subject:     in.Subject,
		Buckets:     timebucket.Aggregate(buckets, points, subjects),
	}
	series.Comparison = compareTrend(series.Buckets)
	return series, nil
}

func compareTrend(buckets []timebucket.BucketStats) *TrendComparison {
	n := len(buckets)
	if n < 2 {
		return &TrendComparison{}
	}
	cur, prev := buckets[n-1].Totals, buckets[n-2].Totals
	return &TrendComparison{
		Overall:     timebucket.Comparison(float64(cur.Overall), float64(prev.Overall)),
		Completions: timebucket.Comparison(float64(completions(cur)), float64(completions(prev))),
	}
}

func completions(s timebucket.SubjectStats) int {
	return s.Quiz.Count + s.Assignment.Count + s.Lessons.Count
}

func (s *metricsService) ActiveLearners(ctx context.Context, courseID *uuid.UUID) (series ActiveLearnersSeries, err error) {
	ctx = ctxutil.Default(ctx)
	now := s.now().UTC()
	series = EmptyActiveLearners(courseID, now)
	if courseID != nil && *courseID == uuid.Nil {
		return series, apperrors.Invalid("course_id", "must be a valid id")
	}

	attrs := []attribute.KeyValue{}
	if courseID != nil {
		attrs = append(attrs, attribute.String("course_id", courseID.String()))
	}
	ctx, span := startSpan(ctx, "metrics.ActiveLearners", attrs...)
	defer func() { endSpan(span, err) }()

	buckets := make([]timebucket.Bucket, len(series.Buckets))
	for i, b := range series.Buckets {
		buckets[i] = b.Bucket
	}
	since, until := timebucket.Window(buckets)
	filter := repos.ProgressFilter{CompletedOnly: true, Since: &since, Until: &until}
	if courseID != nil {
		filter.CourseIDs = []uuid.UUID{*courseID}
	}
	records, err := s.progress.List(dbctx.Context{Ctx: ctx}, filter)
	if err != nil {
		return EmptyActiveLearners(courseID, now), apperrors.WrapStore("list progress", err)
	}

	students := make([]map[uuid.UUID]struct{}, len(buckets))
	for i := range students {
		students[i] = map[uuid.UUID]struct{}{}
	}
	for _, r := range records {
		if _, rerr := r.Ref(); rerr != nil {
			continue
		}
		idx := timebucket.Index(buckets, r.SubmittedAt)
		if idx < 0 {
			continue
		}
		students[idx][r.StudentID] = struct{}{}
		series.Buckets[idx].Completions++
	}
	for i := range series.Buckets {
		series.Buckets[i].ActiveLearners = len(students[i])
	}
	if n := len(series.Buckets); n >= 2 {
		series.Comparison = timebucket.Comparison(
			float64(series.Buckets[n-1].ActiveLearners),
			float64(series.Buckets[n-2].ActiveLearners),
		)
	}
	return series, nil
}
