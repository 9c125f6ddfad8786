package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-checkin/internal/handler"
	"github.com/iliyamo/event-checkin/internal/middleware"
	"github.com/iliyamo/event-checkin/internal/model"
)

// RegisterAdmin registers ADMIN-scoped endpoints: credential issuance,
// no-show marking and cancellation.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/events",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	// ---- Credentials ----
	g.POST("/:event_id/credentials", a.IssueCredentials)
	g.GET("/:event_id/participants/:participant_id/credential", a.Credential)

	// ---- No-shows ----
	g.POST("/:event_id/participants/:participant_id/noshow", a.MarkNoShow)
	g.POST("/:event_id/noshows", a.MarkNoShows)

	// ---- Cancellation ----
	g.POST("/:event_id/participants/:participant_id/cancel", a.Cancel)
}
