package routes

import (
	"github.com/labstack/echo/v4"

	"travel-cms/domain/auth"
	"travel-cms/domain/catalog"
	"travel-cms/domain/health"
	"travel-cms/middleware"
)

// RegisterRoutes wires every content type's uniform CRUD surface plus
// auth and health. List endpoints stay public (the marketing site reads
// them); mutations require an admin token.
func RegisterRoutes(e *echo.Echo, h *catalog.Handler) {
	e.POST("/auth/login", auth.LoginHandler)

	e.GET("/health", health.HealthHandler)
	e.GET("/health/live", health.LivenessHandler)
	e.GET("/health/ready", health.ReadinessHandler)
	e.GET("/health/stats", health.StatsHandler, middleware.JWTMiddleware)

	for _, d := range catalog.Descriptors() {
		g := e.Group("/" + d.Name)
		g.GET("", h.List(d))
		g.POST("", h.Save(d), middleware.JWTMiddleware)
		g.PATCH("", h.Toggle(d), middleware.JWTMiddleware)
		g.DELETE("", h.Delete(d), middleware.JWTMiddleware)
	}
}
