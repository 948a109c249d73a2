// Package router wires HTTP routes to handlers. Public routes carry no
// middleware; member and admin groups stack JWTAuth and RequireRole.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/driveloop/bookingd/internal/handler"
)

// RegisterPublic registers the unauthenticated surface: the health
// probe and the live occupancy board.
func RegisterPublic(e *echo.Echo, o *handler.OccupancyHandler) {
	e.GET("/healthz", handler.Health)
	// The board is read-only and safe for anonymous display screens.
	e.GET("/v1/occupancy", o.Board)
}

// RegisterAuth registers the token endpoints under /v1/auth. None of
// them require an existing session; refresh and logout authenticate by
// the refresh token in the body.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)
}
