package utils

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// ProcessValidationErrors flattens binding errors into a field->message map
// for API responses.
func ProcessValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		out["error"] = err.Error()
		return out
	}
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			out[field] = "is required"
		case "gt":
			out[field] = "must be greater than " + fe.Param()
		case "oneof":
			out[field] = "must be one of: " + fe.Param()
		default:
			out[field] = "is invalid (" + fe.Tag() + ")"
		}
	}
	return out
}
