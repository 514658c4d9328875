package route

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/http/middleware"
	"github.com/benedict-erwin/detection-reporter/http/registry"
	"github.com/benedict-erwin/detection-reporter/http/v1/handler"
	"github.com/benedict-erwin/detection-reporter/pkg/auth"
)

// init registers v1 health check routes with the registry
func init() {
	registry.Register("v1", func(g *echo.Group) {
		// public
		g.GET("/health/live", handler.HealthLive)   // Liveness probe
		g.GET("/health/ready", handler.HealthReady) // Readiness probe

		// JWT protected
		protected := g.Group("")
		protected.Use(middleware.JWTAuthMiddleware(auth.ActionRead + ":health"))
		protected.GET("/health", handler.HealthDetailed)
	})
}
