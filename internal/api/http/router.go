package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/access-gateway/internal/api/http/handlers"
	"github.com/spec-kit/access-gateway/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Upstream *handlers.UpstreamHandler
	Guard    fiber.Handler
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes. Gateway-owned endpoints come first so
// they never reach the guard or the upstream.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry, promhttp.HandlerOpts{})))
	}

	app.Use(cfg.Guard)
	app.All("/*", cfg.Upstream.Forward)
}
