package common

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	validator "github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared payload validator. Field names in errors use
// the json tag of the field.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// FieldError describes a single rejected payload field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidateStruct validates v and converts failures into a 400 AppError whose
// details list the offending fields.
func ValidateStruct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewAppError("BAD_REQUEST", "invalid payload", http.StatusBadRequest, err)
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	appErr := NewAppError("VALIDATION_FAILED", "invalid payload", http.StatusBadRequest, err)
	appErr.Details = details
	return appErr
}
