package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql" // readiness probe target

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/event-checkin/internal/handler"    // import the handlers that implement the endpoints
	"github.com/iliyamo/event-checkin/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/event-checkin/internal/model"      // operator roles
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance: liveness and readiness probes.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(db))
}

// RegisterAuth registers operator login and the session introspection
// endpoint.  Login lives under /v1/auth; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleStaff))
	auth.GET("/me", a.Me)
}
