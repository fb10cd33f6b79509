// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "equity/internal/errors"
)

// Register registers all custom validators with the Gin binding engine.
// Validation errors report fields by their JSON name, so messages match
// what the client sent.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("notblank", validateNotBlank)
		_ = v.RegisterValidation("subscription_status", validateSubscriptionStatus)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateSubscriptionStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "inactive", "active", "past_due", "canceled", "incomplete",
		"incomplete_expired", "trialing", "unpaid", "paused":
		return true
	}
	return false
}

// BindingError converts a request binding failure into an AppError. The
// first missing required field becomes ErrMissingField naming that field;
// every other failure is ErrInvalidInput.
func BindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return apperrors.WithMessage(apperrors.ErrMissingField, "Missing required field: "+fe.Field())
		case "notblank":
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Field must not be blank: "+fe.Field())
		default:
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid value for field: "+fe.Field())
		}
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid value for field: "+typeErr.Field)
	}

	return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid request body"), err)
}
