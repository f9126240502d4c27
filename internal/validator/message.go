package validator

import (
	"errors"
	"strings"

	val "github.com/go-playground/validator/v10"

	"github.com/Chacha-A-Chacha/Complete-Full-Stack-Tutorial-Monolithic-vs-Separated-Architecture/internal/model"
)

var (
	messages = map[string]string{
		"required": "{field} is required",
		"max":      "{field} must be at most {param} characters",
		"min":      "{field} must be at least {param} characters",
	}
)

// toValidationError reports the first failed rule. field overrides the name
// the validator reports, which is empty for Var checks.
func toValidationError(field string, err error) error {
	var valErrors val.ValidationErrors
	if !errors.As(err, &valErrors) || len(valErrors) == 0 {
		return model.NewValidationError(field, err.Error())
	}

	first := valErrors[0]
	if field == "" {
		field = first.Field()
	}

	msg, ok := messages[first.Tag()]
	if !ok {
		return model.NewValidationError(field, "failed on the "+first.Tag()+" rule")
	}

	msg = strings.ReplaceAll(msg, "{field}", field)
	msg = strings.ReplaceAll(msg, "{param}", first.Param())

	return &model.ValidationError{Field: field, Message: msg}
}
