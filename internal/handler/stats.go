package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-checkin/internal/checkin"
)

// StatsHandler serves the live dashboard figures of an event.
type StatsHandler struct {
    Stats *checkin.Aggregator
}

func NewStatsHandler(a *checkin.Aggregator) *StatsHandler { return &StatsHandler{Stats: a} }

// Get handles GET /v1/events/:event_id/stats.
func (h *StatsHandler) Get(c echo.Context) error {
    eventRef, _ := refs(c)
    st, err := h.Stats.StatsFor(c.Request().Context(), eventRef)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, st)
}
