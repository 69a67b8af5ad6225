package validate

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
)

type sample struct {
	ID    uuid.UUID `json:"id" validate:"notnil_uuid"`
	Kind  string    `json:"kind" validate:"oneof=lesson quiz assignment"`
	Score *int      `json:"score" validate:"omitempty,min=0,max=100"`
}

func TestStruct(t *testing.T) {
	ok := 80
	require.NoError(t, Struct(sample{ID: uuid.New(), Kind: "quiz", Score: &ok}))

	bad := 140
	err := Struct(sample{Kind: "video", Score: &bad})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidArgument))

	var ve *apperrors.ValidationError
	require.True(t, errors.As(err, &ve))
	fields := map[string]string{}
	for _, f := range ve.Fields {
		fields[f.Field] = f.Error
	}
	assert.Equal(t, "is required", fields["id"])
	assert.Equal(t, "must be one of lesson quiz assignment", fields["kind"])
	assert.Equal(t, "must be at most 100", fields["score"])
}
