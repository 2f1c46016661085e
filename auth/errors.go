package auth

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeValidation        = "ACCOUNT_VALIDATION"
	textCodeInvalidKey        = "INVALID_ACCOUNT_KEY"
	textCodeAuthentication    = "AUTHENTICATION_FAILED"
	textCodeAuthRequired      = "AUTHENTICATION_REQUIRED"
	textCodeAccountUnverified = "ACCOUNT_UNVERIFIED"
	textCodeOAuth             = "OAUTH_FAILED"
)

// ErrValidation covers field-level input failures; per-field messages travel
// in the error metadata under "fields".
var ErrValidation = goerrors.New("validation failed", goerrors.CategoryValidation).
	WithTextCode(textCodeValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidKey is returned for unknown, expired, consumed, or tampered
// verification/reset keys.
var ErrInvalidKey = goerrors.New("invalid or expired key", goerrors.CategoryBadInput).
	WithTextCode(textCodeInvalidKey).
	WithCode(goerrors.CodeBadRequest)

// ErrAuthentication is the uniform login failure: unknown email, bad
// password, or closed account. It deliberately carries no detail about which.
var ErrAuthentication = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthentication).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountUnverified blocks logins until the email is confirmed.
var ErrAccountUnverified = goerrors.New("account has not been verified", goerrors.CategoryAuth).
	WithTextCode(textCodeAccountUnverified).
	WithCode(goerrors.CodeUnauthorized)

// ErrAuthenticationRequired guards protected resources.
var ErrAuthenticationRequired = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(textCodeAuthRequired).
	WithCode(goerrors.CodeUnauthorized)

// ErrOAuth covers every expected failure in the OAuth callback path. The HTTP
// layer turns it into a redirect with a flash message, never a 5xx.
var ErrOAuth = goerrors.New("social login failed", goerrors.CategoryAuth).
	WithTextCode(textCodeOAuth).
	WithCode(goerrors.CodeUnauthorized)

// ValidationError builds an ErrValidation carrying a field -> message map.
func ValidationError(fields map[string]any) *goerrors.Error {
	return WithDetail(ErrValidation, map[string]any{
		"fields": fields,
	})
}

// WithDetail attaches metadata to a copy of a sentinel error. The copy keeps
// the sentinel as its source so errors.Is still matches, and the sentinel
// itself stays untouched.
func WithDetail(base *goerrors.Error, meta map[string]any) *goerrors.Error {
	clone := base.Clone()
	if clone == nil {
		return base
	}
	clone.Source = base
	return clone.WithMetadata(meta)
}

// FieldErrors extracts the field map from a validation error, nil when the
// error carries none.
func FieldErrors(err error) map[string]any {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return nil
	}
	if richErr.Metadata == nil {
		return nil
	}
	if fields, ok := richErr.Metadata["fields"].(map[string]any); ok {
		return fields
	}
	return nil
}

// IsValidationError reports whether err is a field-level input failure.
func IsValidationError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryValidation
}
