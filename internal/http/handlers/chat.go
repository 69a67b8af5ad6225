package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/courseledger-backend/internal/http/response"
	"github.com/yungbote/courseledger-backend/internal/learning/integrity"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
	"github.com/yungbote/courseledger-backend/internal/services"
)

type ChatGuardHandler struct {
	log       *logger.Logger
	integrity services.IntegrityService
}

func NewChatGuardHandler(log *logger.Logger, integrity services.IntegrityService) *ChatGuardHandler {
	return &ChatGuardHandler{
		log:       log.With("handler", "ChatGuardHandler"),
		integrity: integrity,
	}
}

type guardRequest struct {
	Prompt  string              `json:"prompt"`
	History []integrity.Message `json:"history"`
}

// POST /api/chat/guard
func (h *ChatGuardHandler) Guard(c *gin.Context) {
	rd, ok := requireUser(c)
	if !ok {
		return
	}
	var req guardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apperrors.NewValidationError(err, apperrors.FieldError{Field: "body", Error: "must be valid JSON"}))
		return
	}
	res := h.integrity.Guard(c.Request.Context(), services.IntegrityCheckInput{
		StudentID: rd.UserID,
		Prompt:    req.Prompt,
		History:   req.History,
	})
	h.log.Debug("chat guard", "user_id", rd.UserID, "mode", res.Directive.Mode, "prompt", req.Prompt)
	response.RespondOK(c, res)
}
