package router

// This file registers the routes used by check-in stations.  Any operator
// (STAFF or ADMIN) may call them.  Scan and manual check-in share a rate
// limit keyed by station; the stats endpoint is served from the Redis
// response cache.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-checkin/internal/handler"
	"github.com/iliyamo/event-checkin/internal/middleware"
	"github.com/iliyamo/event-checkin/internal/model"
)

// StationDeps bundles the handlers and middleware of the station routes.
type StationDeps struct {
	Checkin   *handler.CheckinHandler
	Stats     *handler.StatsHandler
	RateLimit echo.MiddlewareFunc
	Cache     echo.MiddlewareFunc
}

// RegisterStation mounts the station endpoints under /v1/events.
func RegisterStation(e *echo.Echo, d StationDeps, jwtSecret string) {
	g := e.Group(
		"/v1/events",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleAdmin),
	)
	rl := d.RateLimit
	if rl == nil {
		rl = passthrough
	}
	cache := d.Cache
	if cache == nil {
		cache = passthrough
	}

	g.POST("/:event_id/scan", d.Checkin.Scan, rl)
	g.POST("/:event_id/participants/:participant_id/checkin", d.Checkin.ManualCheckIn, rl)
	g.POST("/:event_id/participants/:participant_id/checkout", d.Checkin.CheckOut, rl)
	g.GET("/:event_id/participants/:participant_id/checkin", d.Checkin.Record)
	g.PUT("/:event_id/participants/:participant_id/badge", d.Checkin.SetBadge)
	g.PUT("/:event_id/participants/:participant_id/materials", d.Checkin.SetMaterials)
	g.GET("/:event_id/stats", d.Stats.Get, cache)
}

func passthrough(next echo.HandlerFunc) echo.HandlerFunc { return next }
