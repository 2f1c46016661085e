package social

import (
	goerrors "github.com/goliatone/go-errors"
)

// ErrInvalidState is returned when the OAuth state parameter fails
// verification.
var ErrInvalidState = goerrors.New("invalid OAuth state", goerrors.CategoryAuth).
	WithTextCode("OAUTH_INVALID_STATE").
	WithCode(goerrors.CodeUnauthorized)

// ErrStateExpired is returned when the OAuth state parameter is valid but
// past its deadline.
var ErrStateExpired = goerrors.New("OAuth state expired", goerrors.CategoryAuth).
	WithTextCode("OAUTH_STATE_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)
