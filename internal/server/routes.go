package server

import (
	"github.com/OFFIS-RIT/diagramkg/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/health", routes.HealthHandler)

	apiRoutes := e.Group("/api/v1")

	apiRoutes.GET("/search", routes.SearchDiagramsHandler)

	// Diagram routes
	apiRoutes.GET("/diagrams/:id", routes.GetDiagramHandler)
	apiRoutes.GET("/diagrams/:id/image", routes.GetDiagramImageHandler)
	apiRoutes.GET("/enrich/:id", routes.EnrichDiagramHandler)
}
