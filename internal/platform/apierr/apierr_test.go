package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", apperrors.Invalid("score", "must be at most 100"), http.StatusBadRequest, CodeInvalidArgument},
		{"wrapped validation", fmt.Errorf("upsert: %w", apperrors.Invalid("answers", "must be a JSON object")), http.StatusBadRequest, CodeInvalidArgument},
		{"not found", apperrors.NewNotFoundError("quiz", "q1"), http.StatusNotFound, CodeNotFound},
		{"store", apperrors.WrapStore("list progress", errors.New("conn reset")), http.StatusInternalServerError, CodeStoreError},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, CodeUnauthorized},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal},
		{"already mapped", New(http.StatusForbidden, CodeForbidden, nil), http.StatusForbidden, CodeForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FromError(tc.err)
			if got.Status != tc.status || got.Code != tc.code {
				t.Fatalf("FromError: want=%d/%s got=%d/%s", tc.status, tc.code, got.Status, got.Code)
			}
		})
	}
	if FromError(nil) != nil {
		t.Fatalf("FromError(nil) must be nil")
	}
	got := FromError(apperrors.Invalid("score", "must be at most 100"))
	if len(got.Fields) != 1 || got.Fields[0].Field != "score" {
		t.Fatalf("fields not carried: %+v", got.Fields)
	}
}
