package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ConfigError reports an invalid generation parameter or segment request.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the parameter ranges.
func (p GenerationParams) Validate() error {
	return toConfigError("", validate.Struct(p))
}

// Validate checks the request ranges.
func (r SegmentRequest) Validate() error {
	return toConfigError("", validate.Struct(r))
}

// ValidateRequests checks that at least one request exists and each is valid.
func ValidateRequests(requests []SegmentRequest) error {
	if len(requests) == 0 {
		return &ConfigError{Field: "sets", Message: "at least one segment set is required"}
	}
	for i, r := range requests {
		if err := toConfigError(fmt.Sprintf("sets[%d].", i), validate.Struct(r)); err != nil {
			return err
		}
	}
	return nil
}

func toConfigError(prefix string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ConfigError{Field: prefix + "params", Message: err.Error()}
	}
	fe := verrs[0]
	return &ConfigError{Field: prefix + fe.Field(), Message: describe(fe)}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag()
	}
}
