package handlers

import (
	"encoding/json"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/courseledger-backend/internal/http/response"
	types "github.com/yungbote/courseledger-backend/internal/domain"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
	"github.com/yungbote/courseledger-backend/internal/services"
)

type ProgressHandler struct {
	log        *logger.Logger
	ledger     services.LedgerService
	aggregator services.AggregatorService
}

func NewProgressHandler(log *logger.Logger, ledger services.LedgerService, aggregator services.AggregatorService) *ProgressHandler {
	return &ProgressHandler{
		log:        log.With("handler", "ProgressHandler"),
		ledger:     ledger,
		aggregator: aggregator,
	}
}

type upsertProgressRequest struct {
	CourseID  uuid.UUID       `json:"course_id"`
	ItemKind  string          `json:"item_kind"`
	ItemID    uuid.UUID       `json:"item_id"`
	Completed *bool           `json:"completed"`
	Score     *int            `json:"score"`
	Answers   json.RawMessage `json:"answers"`
}

// POST /api/progress
func (h *ProgressHandler) Upsert(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	var req upsertProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apperrors.NewValidationError(err, apperrors.FieldError{Field: "body", Error: "must be valid JSON"}))
		return
	}
	rec, err := h.ledger.Upsert(c.Request.Context(), services.UpsertProgressInput{
		StudentID: rd.UserID,
		CourseID:  req.CourseID,
		ItemKind:  types.ItemKind(strings.ToLower(strings.TrimSpace(req.ItemKind))),
		ItemID:    req.ItemID,
		Completed: req.Completed,
		Score:     req.Score,
		Answers:   req.Answers,
	})
	if err != nil {
		if !isClientError(err) {
			h.log.Error("progress upsert failed", "error", err, "user_id", rd.UserID, "course_id", req.CourseID)
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}

// GET /api/progress/courses/:courseId/items/:kind/:itemId
func (h *ProgressHandler) Get(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	itemID, ok := uuidParam(c, "itemId")
	if !ok {
		return
	}
	student, ok := subjectStudent(c, rd)
	if !ok {
		return
	}
	ref := types.ItemRef{Kind: types.ItemKind(strings.ToLower(c.Param("kind"))), ID: itemID}
	rec, err := h.ledger.Get(c.Request.Context(), student, courseID, ref)
	if err != nil {
		if !isClientError(err) {
			h.log.Error("progress get failed", "error", err, "user_id", rd.UserID)
		}
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"record": rec})
}

// GET /api/progress/overall
func (h *ProgressHandler) Overall(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	student, ok := subjectStudent(c, rd)
	if !ok {
		return
	}
	overall, err := h.aggregator.StudentOverallProgress(c.Request.Context(), student)
	respondDashboard(c, h.log, "overall", "overall_progress", overall, err)
}
