package server

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"

	"github.com/martinmarchese/login-example/auth"
)

// wantsJSON reports whether the client asked for a JSON answer, either via the
// Accept header or by sending a JSON body.
func wantsJSON(c *fiber.Ctx) bool {
	accept := c.Get(fiber.HeaderAccept)
	if strings.Contains(accept, fiber.MIMEApplicationJSON) {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON)
}

// respondSuccess answers `{"success": msg}` to JSON clients and flashes plus
// redirects everyone else.
func respondSuccess(c *fiber.Ctx, message, redirectTo string) error {
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"success": message})
	}

	setFlash(c, "success", message)
	return c.Redirect(redirectTo, http.StatusSeeOther)
}

// errorBody extracts the JSON error payload: the field map for validation
// errors, the message for everything else.
func errorBody(err error) any {
	if fields := auth.FieldErrors(err); fields != nil {
		return fields
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}
	return "an unexpected error occurred"
}

// errorStatus maps domain errors onto HTTP statuses. Validation, bad key, and
// failed-credential errors all answer 422 on the auth endpoints; a missing
// session answers 401.
func errorStatus(err error) int {
	switch {
	case goerrors.Is(err, auth.ErrAuthenticationRequired):
		return http.StatusUnauthorized
	case auth.IsValidationError(err),
		goerrors.Is(err, auth.ErrInvalidKey),
		goerrors.Is(err, auth.ErrAuthentication),
		goerrors.Is(err, auth.ErrAccountUnverified):
		return http.StatusUnprocessableEntity
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.Category {
		case goerrors.CategoryValidation, goerrors.CategoryBadInput:
			return http.StatusUnprocessableEntity
		case goerrors.CategoryAuth:
			return http.StatusUnprocessableEntity
		case goerrors.CategoryNotFound:
			return http.StatusNotFound
		}
	}

	return http.StatusInternalServerError
}

// errorMessage is the human-facing line rendered into HTML flows.
func errorMessage(err error) string {
	if fields := auth.FieldErrors(err); fields != nil {
		parts := make([]string, 0, len(fields))
		for field, msg := range fields {
			parts = append(parts, field+": "+toString(msg))
		}
		return strings.Join(parts, "; ")
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.Message
	}
	return "an unexpected error occurred"
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return "invalid value"
}
