package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseledger-backend/internal/http/response"
	"github.com/yungbote/courseledger-backend/internal/learning/timebucket"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
	"github.com/yungbote/courseledger-backend/internal/services"
)

type AnalyticsHandler struct {
	log     *logger.Logger
	metrics services.MetricsService
}

func NewAnalyticsHandler(log *logger.Logger, metrics services.MetricsService) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:     log.With("handler", "AnalyticsHandler"),
		metrics: metrics,
	}
}

// GET /api/analytics/trends?granularity=week|month&subject=
func (h *AnalyticsHandler) Trends(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	g, err := timebucket.ParseGranularity(c.Query("granularity"))
	if err != nil {
		response.RespondAPIError(c, apperrors.Invalid("granularity", "must be one of week month"))
		return
	}
	student, ok := subjectStudent(c, rd)
	if !ok {
		return
	}
	series, err := h.metrics.StudentTrends(c.Request.Context(), services.TrendsInput{
		StudentID:   student,
		Granularity: g,
		Subject:     c.Query("subject"),
	})
	if err != nil && len(series.Buckets) == 0 {
		series = services.EmptyTrends(g, c.Query("subject"), time.Now())
	}
	respondDashboard(c, h.log, "trends", "trends", series, err)
}

// GET /api/analytics/active-learners?course_id=
func (h *AnalyticsHandler) ActiveLearners(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	courseID, ok := optionalUUIDQuery(c, "course_id")
	if !ok {
		return
	}
	series, err := h.metrics.ActiveLearners(c.Request.Context(), courseID)
	if err != nil && len(series.Buckets) == 0 {
		series = services.EmptyActiveLearners(courseID, time.Now())
	}
	respondDashboard(c, h.log, "active_learners", "active_learners", series, err)
}
