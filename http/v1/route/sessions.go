package route

import (
	"github.com/labstack/echo/v4"

	"github.com/benedict-erwin/detection-reporter/http/middleware"
	"github.com/benedict-erwin/detection-reporter/http/registry"
	"github.com/benedict-erwin/detection-reporter/http/v1/handler"
	"github.com/benedict-erwin/detection-reporter/pkg/auth"
)

func init() {
	// Register session and report routes for v1
	registry.Register("v1", func(g *echo.Group) {
		s := g.Group("/sessions")

		// Session creation and read-only endpoints
		read := s.Group("")
		read.Use(middleware.JWTAuthMiddleware(auth.ActionRead + ":report"))
		read.GET("/:id/fields", handler.GetFields)
		read.GET("/:id/generators/:name", handler.RunGenerator)

		// Mutating endpoints
		write := s.Group("")
		write.Use(middleware.JWTAuthMiddleware(auth.ActionWrite + ":report"))
		write.POST("", handler.CreateSession)
		write.POST("/:id/upload", handler.UploadDataset)
		write.POST("/:id/pivot", handler.BuildPivot)
		write.POST("/:id/chart", handler.ComposeChart)
		write.POST("/:id/export/csv", handler.ExportCSV)
		write.POST("/:id/export/pdf", handler.ExportPDF)

		// Generator catalog and job status
		misc := g.Group("")
		misc.Use(middleware.JWTAuthMiddleware(auth.ActionRead + ":report"))
		misc.GET("/generators", handler.ListGenerators)
		misc.GET("/jobs/:id", handler.JobStatus)
	})
}
