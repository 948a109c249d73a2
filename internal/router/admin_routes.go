package router

import (
	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/handler"
	"github.com/driveloop/bookingd/internal/middleware"
)

// RegisterAdmin registers catalog management under /v1/admin. Only the
// ADMIN role passes.
func RegisterAdmin(e *echo.Echo, h *handler.AdminResourceHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.POST("/resources", h.Create)
	g.GET("/resources", h.List)
	g.GET("/resources/:id", h.Get)
	g.PUT("/resources/:id", h.Update)
	g.DELETE("/resources/:id", h.Deactivate)
	g.GET("/resources/:id/reservations", h.ListReservations)
}
