package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseledger-backend/internal/platform/logger"
	"github.com/yungbote/courseledger-backend/internal/services"
)

type CourseHandler struct {
	log        *logger.Logger
	aggregator services.AggregatorService
}

func NewCourseHandler(log *logger.Logger, aggregator services.AggregatorService) *CourseHandler {
	return &CourseHandler{
		log:        log.With("handler", "CourseHandler"),
		aggregator: aggregator,
	}
}

// GET /api/courses/:id/completion
func (h *CourseHandler) Completion(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	student, ok := subjectStudent(c, rd)
	if !ok {
		return
	}
	snap, err := h.aggregator.CourseCompletion(c.Request.Context(), student, courseID)
	respondDashboard(c, h.log, "completion", "completion", snap, err)
}

// GET /api/courses/:id/cohort
func (h *CourseHandler) Cohort(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	courseID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.aggregator.CohortCompletion(c.Request.Context(), courseID)
	respondDashboard(c, h.log, "cohort", "cohort", summary, err)
}
