package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/tamweel-auto/waitlist/internal/storage"
)

// RegisterHealthRoutes adds liveness/readiness style endpoints.
// Blob storage is checked when it can report its own reachability.
func RegisterHealthRoutes(app *fiber.App, d Deps, blob storage.BlobStore) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		checks := fiber.Map{}
		healthy := true
		report := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if d.DB != nil {
			report("postgres", d.DB.Ping(ctx))
		}
		if d.Cache != nil {
			report("redis", d.Cache.Ping(ctx).Err())
		}
		if p, ok := blob.(interface{ Ping(context.Context) error }); ok {
			report("minio", p.Ping(ctx))
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		return c.Status(status).JSON(fiber.Map{
			"status":    checks,
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		})
	})
}
