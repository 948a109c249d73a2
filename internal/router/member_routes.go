package router

import (
	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/handler"
	"github.com/driveloop/bookingd/internal/middleware"
)

// RegisterMember registers the booking lifecycle endpoints. Every route
// requires a valid access token; members and admins may both book.
func RegisterMember(e *echo.Echo, a *handler.AuthHandler, b *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("MEMBER", "ADMIN"))

	g.GET("/me", a.Me)
	g.POST("/auth/logout-all", a.LogoutAll)

	// Availability is advisory; reserve and check-in re-check inside
	// their transactions.
	g.POST("/resources/:id/availability", b.CheckAvailability)
	g.POST("/resources/:id/reservations", b.Reserve)
	g.POST("/resources/:id/check-in", b.CheckIn)
	g.POST("/check-out", b.CheckOut)

	g.GET("/me/session", b.CurrentSession)
	g.GET("/me/sessions", b.ListSessions)
	g.GET("/me/stats", b.Stats)

	g.DELETE("/reservations/:id", b.CancelReservation)
}
