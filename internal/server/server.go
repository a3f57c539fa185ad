package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/routes"
)

// Server wraps the Fiber application and the services behind it.
type Server struct {
	app        *fiber.App
	deps       routes.Deps
	components *routes.Components
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(ctx context.Context, deps routes.Deps) (*Server, error) {
	components, err := routes.Build(ctx, deps)
	if err != nil {
		return nil, err
	}

	// multipart framing adds a little on top of the largest accepted file
	bodyLimit := int(deps.Cfg.Uploads.MaxBytes) * 2
	if bodyLimit <= 0 {
		bodyLimit = 20 << 20
	}
	app := fiber.New(fiber.Config{
		AppName:      deps.Cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    bodyLimit,
		ErrorHandler: errorHandler(deps.Logger),
	})

	if err := routes.Setup(app, deps, components); err != nil {
		components.Close(ctx)
		return nil, err
	}

	return &Server{app: app, deps: deps, components: components}, nil
}

// App exposes the fiber application, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.deps.Cfg.Address())
}

// Shutdown stops accepting requests, then waits for background uploads.
func (s *Server) Shutdown(ctx context.Context) error {
	return errors.Join(
		s.app.ShutdownWithContext(ctx),
		s.components.Close(ctx),
	)
}

// errorHandler renders every error as {"error": message}.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		msg := "internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			msg = fe.Message
		} else {
			logger.Error("unhandled error", slog.String("path", c.Path()), slog.Any("error", err))
		}
		return c.Status(code).JSON(fiber.Map{"error": msg})
	}
}
