package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/courseledger-backend/internal/http/response"
	"github.com/yungbote/courseledger-backend/internal/observability"
	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
	"github.com/yungbote/courseledger-backend/internal/platform/apierr"
	"github.com/yungbote/courseledger-backend/internal/platform/ctxutil"
	"github.com/yungbote/courseledger-backend/internal/platform/logger"
)

func requireUser(c *gin.Context) (*ctxutil.RequestData, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, apierr.CodeUnauthorized, errors.New("unauthorized"))
		return nil, false
	}
	return rd, true
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil || id == uuid.Nil {
		response.RespondAPIError(c, apperrors.Invalid(name, "must be a valid id"))
		return uuid.Nil, false
	}
	return id, true
}

// optionalUUIDQuery returns nil when the query parameter is absent.
func optionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		response.RespondAPIError(c, apperrors.Invalid(name, "must be a valid id"))
		return nil, false
	}
	return &id, true
}

// subjectStudent is the caller, or for staff the student named by ?student_id=.
func subjectStudent(c *gin.Context, rd *ctxutil.RequestData) (uuid.UUID, bool) {
	if !rd.IsStaff() {
		return rd.UserID, true
	}
	id, ok := optionalUUIDQuery(c, "student_id")
	if !ok {
		return uuid.Nil, false
	}
	if id == nil {
		return rd.UserID, true
	}
	return *id, true
}

// respondDashboard answers read views. Validation and not-found errors keep their status;
// any other failure is logged and served as the zeroed payload with degraded=true.
func respondDashboard(c *gin.Context, log *logger.Logger, view, key string, payload any, err error) {
	if err != nil {
		if isClientError(err) {
			response.RespondAPIError(c, err)
			return
		}
		log.Error("dashboard degraded", "view", view, "error", err)
		if metrics := observability.Current(); metrics != nil {
			metrics.IncDegraded(view)
		}
		response.RespondOK(c, gin.H{key: payload, "degraded": true})
		return
	}
	response.RespondOK(c, gin.H{key: payload, "degraded": false})
}

func isClientError(err error) bool {
	return errors.Is(err, apperrors.ErrInvalidArgument) || errors.Is(err, apperrors.ErrNotFound)
}
