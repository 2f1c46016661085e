package auth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

// FormatValidationErrors flattens an ozzo validation error into a
// field -> message map suitable for JSON responses and form re-renders.
func FormatValidationErrors(err error) map[string]any {
	if err == nil {
		return nil
	}

	out := map[string]any{}

	if errs, ok := err.(validation.Errors); ok {
		for field, fieldErr := range errs {
			out[field] = fieldErr.Error()
		}
		return out
	}

	out["base"] = err.Error()
	return out
}

// isUniqueViolation sniffs driver-level unique constraint failures. Both
// sqlite ("UNIQUE constraint failed") and postgres ("duplicate key value
// violates unique constraint") spell it out in the message.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
