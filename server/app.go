package server

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	goerrors "github.com/goliatone/go-errors"

	"github.com/martinmarchese/login-example/auth"
)

// Options configures the fiber application.
type Options struct {
	ViewsDir string
	Logger   auth.Logger
}

// NewApp builds the fiber application with the django view engine and an
// error handler that keeps rich errors out of response bodies.
func NewApp(opts Options) *fiber.App {
	if opts.ViewsDir == "" {
		opts.ViewsDir = "./views"
	}
	logger := opts.Logger
	if logger == nil {
		logger = auth.DefaultLogger()
	}

	engine := django.New(opts.ViewsDir, ".html")

	app := fiber.New(fiber.Config{
		Views:             engine,
		PassLocalsToViews: true,
		ErrorHandler:      newErrorHandler(logger),
	})

	return app
}

func newErrorHandler(logger auth.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := http.StatusInternalServerError

		var fiberErr *fiber.Error
		if goerrors.As(err, &fiberErr) {
			status = fiberErr.Code
		}

		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Code > 0 {
			status = richErr.Code
		}

		if status >= http.StatusInternalServerError {
			logger.Error("unhandled request error", "path", c.OriginalURL(), "error", err)
		}

		if wantsJSON(c) {
			return c.Status(status).JSON(fiber.Map{"error": errorBody(err)})
		}

		if status == http.StatusNotFound {
			return c.Status(status).SendString("Not Found")
		}
		return c.Status(status).SendString("Something went wrong")
	}
}
