package apierr

import (
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
)

const (
	CodeInvalidArgument = "invalid_argument"
	CodeNotFound        = "not_found"
	CodeStoreError      = "store_error"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeInternal        = "internal"
)

type Error struct {
	Status int
	Code   string
	Err    error
	Fields []apperrors.FieldError
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// FromError maps a domain error onto an HTTP status and code.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		return &Error{Status: http.StatusBadRequest, Code: CodeInvalidArgument, Err: err, Fields: verr.Fields}
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return New(http.StatusBadRequest, CodeInvalidArgument, err)
	case errors.Is(err, apperrors.ErrNotFound):
		return New(http.StatusNotFound, CodeNotFound, err)
	case errors.Is(err, apperrors.ErrUnauthorized):
		return New(http.StatusUnauthorized, CodeUnauthorized, err)
	case errors.Is(err, apperrors.ErrStore):
		return New(http.StatusInternalServerError, CodeStoreError, err)
	default:
		return New(http.StatusInternalServerError, CodeInternal, err)
	}
}
