package handler

import (
	"github.com/labstack/echo/v4"
)

func Register(e *echo.Echo, searchHandler *SearchHandler, rulesHandler *RulesHandler, logHandler *SearchLogHandler) {
	api := e.Group("/api/v1")
	api.POST("/flights/search", searchHandler.Search)

	api.GET("/pricing-rules", rulesHandler.List)
	api.POST("/pricing-rules", rulesHandler.Create)
	api.PUT("/pricing-rules/:id", rulesHandler.Update)
	api.DELETE("/pricing-rules/:id", rulesHandler.Delete)

	api.GET("/admin/search-logs", logHandler.Recent)

	e.GET("/health", HealthHandler)
}
