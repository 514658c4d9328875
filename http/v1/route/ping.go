package route

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/http/registry"
	"github.com/benedict-erwin/detection-reporter/http/v1/handler"
	"github.com/benedict-erwin/detection-reporter/pkg/logger"
)

// init registers v1 ping routes with the registry
func init() {
	registry.Register("v1", func(g *echo.Group) {
		logger.Info().Msg("Setting up /v1/ping routes")

		g.GET("/ping", handler.Ping)
		g.POST("/ping", handler.PingPost)
	})
}
