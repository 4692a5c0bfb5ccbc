package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/tzmonths/internal/pkg/metrics"
)

// SetupRoutes registers the months API, GraphQL, health, metrics and docs routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	reqTimeout := deps.RequestTimeout
	if reqTimeout <= 0 {
		reqTimeout = 15 * time.Second
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	if deps.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        deps.RateLimit,
			Expiration: 1 * time.Minute,
			KeyGenerator: func(c *fiber.Ctx) string {
				return c.IP()
			},
			LimitReached: func(c *fiber.Ctx) error {
				return newError(c, fiber.StatusTooManyRequests, "rate limit exceeded")
			},
		}))
	}

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Month starts: GET only; every other verb gets 405 with Allow: GET.
	months := timeout.NewWithContext(MonthsHandler(deps), reqTimeout)
	for _, path := range []string{"/api/months", "/v1/months"} {
		app.Add(fiber.MethodGet, path, months)
		app.All(path, MethodNotAllowed(fiber.MethodGet))
	}

	app.Add(fiber.MethodGet, "/v1/timezone", timeout.NewWithContext(TimeZoneHandler(deps), reqTimeout))
	app.All("/v1/timezone", MethodNotAllowed(fiber.MethodGet))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), reqTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)
}
