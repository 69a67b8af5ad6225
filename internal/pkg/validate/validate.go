package validate

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	apperrors "github.com/yungbote/courseledger-backend/internal/pkg/errors"
)

const notNilUUIDTag = "notnil_uuid"

var (
	once     sync.Once
	instance *validator.Validate
)

// Validator returns the shared validator. Field names in errors follow json tags.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation(notNilUUIDTag, func(fl validator.FieldLevel) bool {
			id, ok := fl.Field().Interface().(uuid.UUID)
			return ok && id != uuid.Nil
		})
		instance = v
	})
	return instance
}

// Struct validates s and converts failures into an *errors.ValidationError.
func Struct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError(err)
	}
	fields := make([]apperrors.FieldError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := message(fe)
		fields = append(fields, apperrors.FieldError{Field: fe.Field(), Error: msg})
		msgs = append(msgs, fe.Field()+": "+msg)
	}
	return apperrors.NewValidationError(fmt.Errorf("%w: %s", apperrors.ErrInvalidArgument, strings.Join(msgs, "; ")), fields...)
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", notNilUUIDTag:
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
