package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/unibus-go-api/internal/config"
	"github.com/noah-isme/unibus-go-api/internal/handler"
	"github.com/noah-isme/unibus-go-api/internal/middleware"
	"github.com/noah-isme/unibus-go-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ShiftHandler      *handler.ShiftHandler
	AttendanceHandler *handler.AttendanceHandler
	ActivityHandler   *handler.ActivityHandler
	MonitorHandler    *handler.MonitorHandler
	JWTMiddleware     fiber.Handler
	ScanRateLimit     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	app.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	if deps.ShiftHandler != nil {
		shifts := app.Group("/api/shifts", jwtMiddleware)
		if deps.AttendanceHandler != nil {
			scanGroup := shifts.Group("")
			if deps.ScanRateLimit != nil {
				scanGroup = shifts.Group("", deps.ScanRateLimit)
			}
			deps.AttendanceHandler.RegisterScanRoute(scanGroup)
		}
		deps.ShiftHandler.Register(shifts)
	}

	if deps.AttendanceHandler != nil {
		attendance := app.Group("/api/attendance", jwtMiddleware, middleware.RequireRole("admin"))
		deps.AttendanceHandler.RegisterAdminRoutes(attendance)
	}

	if deps.ActivityHandler != nil {
		activity := app.Group("/api/activity", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ActivityHandler.Register(activity)
	}

	if deps.MonitorHandler != nil {
		monitor := app.Group("/api/monitor", jwtMiddleware)
		deps.MonitorHandler.Register(monitor)
	}
}
