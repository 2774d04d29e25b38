package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"SisContratacoes/internal/apperrors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// report fields by their JSON names
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct runs the validate tags on v. Failures come back as a validation
// error naming the first offending field.
func Struct(v interface{}) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			return nil
		}
		return apperrors.Validation("%v", err)
	}
	return apperrors.Validation("%s", describe(verrs[0])).Wrap(err)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Required field '" + field + "' is missing"
	case "oneof":
		return "Invalid value for field '" + field + "': must be one of " + fe.Param()
	case "max":
		return "Invalid value for field '" + field + "': exceeds " + fe.Param() + " characters"
	case "min":
		return "Invalid value for field '" + field + "': shorter than " + fe.Param() + " characters"
	case "email":
		return "Invalid value for field '" + field + "': not an email address"
	case "gte":
		return "Invalid value for field '" + field + "': must be at least " + fe.Param()
	}
	return "Invalid value for field '" + field + "'"
}

// NormalizeString trims and upper-cases a code-like value.
func NormalizeString(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
