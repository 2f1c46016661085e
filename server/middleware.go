package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/martinmarchese/login-example/auth"
)

// RequireAuth gates a route behind a valid session token. The token comes
// from the session cookie or an Authorization bearer header. JSON clients get
// a 401; browser requests get a rejected-route cookie and a redirect to the
// login form, so a successful login can land them back where they started.
func RequireAuth(auther auth.Authenticator, cfg auth.Config, logger auth.Logger) fiber.Handler {
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c, cfg.GetContextKey())
		if token == "" {
			return rejectUnauthenticated(c, cfg, logger)
		}

		session, err := auther.SessionFromToken(token)
		if err != nil {
			logger.Info("session token rejected", "path", c.OriginalURL(), "error", err)
			return rejectUnauthenticated(c, cfg, logger)
		}

		c.Locals(cfg.GetContextKey(), session)
		return c.Next()
	}
}

// SessionFrom retrieves the session the guard stored on the request.
func SessionFrom(c *fiber.Ctx, contextKey string) (auth.Session, bool) {
	session, ok := c.Locals(contextKey).(auth.Session)
	return session, ok
}

func tokenFromRequest(c *fiber.Ctx, cookieName string) string {
	if token := c.Cookies(cookieName); token != "" {
		return token
	}

	header := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}

	return ""
}

func rejectUnauthenticated(c *fiber.Ctx, cfg auth.Config, logger auth.Logger) error {
	if wantsJSON(c) {
		return c.Status(http.StatusUnauthorized).JSON(fiber.Map{
			"error": "authentication required",
		})
	}

	logger.Info("setting rejected route cookie", "path", c.OriginalURL())
	c.Cookie(&fiber.Cookie{
		Name:     cfg.GetRejectedRouteKey(),
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})

	return c.Redirect("/login", http.StatusSeeOther)
}
