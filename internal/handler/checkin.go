package handler

import (
    "context"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-checkin/internal/checkin"
    "github.com/iliyamo/event-checkin/internal/middleware"
)

// CheckinHandler serves the station routes.  Every request runs in the
// context of one station; scans go through that station's debouncer.
type CheckinHandler struct {
    Svc      *checkin.Service
    Stations *checkin.Stations
}

// NewCheckinHandler panics if a dependency is nil.
func NewCheckinHandler(svc *checkin.Service, stations *checkin.Stations) *CheckinHandler {
    if svc == nil || stations == nil {
        panic("nil dependency passed to NewCheckinHandler")
    }
    return &CheckinHandler{Svc: svc, Stations: stations}
}

type scanReq struct {
    Code string `json:"code"`
}

type flagReq struct {
    Value *bool `json:"value"`
}

// Scan handles POST /v1/events/:event_id/scan.
func (h *CheckinHandler) Scan(c echo.Context) error {
    eventRef, _ := refs(c)
    var req scanReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if eventRef == "" || strings.TrimSpace(req.Code) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
    }
    st := h.Stations.Get(middleware.StationID(c), eventRef)
    return writeOutcome(c, st.Scan(c.Request().Context(), req.Code))
}

// ManualCheckIn handles POST .../participants/:participant_id/checkin.
func (h *CheckinHandler) ManualCheckIn(c echo.Context) error {
    eventRef, participantRef := refs(c)
    return writeOutcome(c, h.Svc.ProcessManualCheckIn(h.ctx(c), participantRef, eventRef))
}

// CheckOut handles POST .../participants/:participant_id/checkout.
func (h *CheckinHandler) CheckOut(c echo.Context) error {
    eventRef, participantRef := refs(c)
    return writeOutcome(c, h.Svc.CheckOut(h.ctx(c), participantRef, eventRef))
}

// Record handles GET .../participants/:participant_id/checkin.
func (h *CheckinHandler) Record(c echo.Context) error {
    eventRef, participantRef := refs(c)
    rec, err := h.Svc.Record(c.Request().Context(), participantRef, eventRef)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, toRecordPart(rec))
}

// SetBadge handles PUT .../participants/:participant_id/badge.
func (h *CheckinHandler) SetBadge(c echo.Context) error {
    return h.setFlag(c, h.Svc.SetBadgePrinted)
}

// SetMaterials handles PUT .../participants/:participant_id/materials.
func (h *CheckinHandler) SetMaterials(c echo.Context) error {
    return h.setFlag(c, h.Svc.SetMaterialsProvided)
}

type flagSetter func(ctx context.Context, participantRef, eventRef string, value bool) error

func (h *CheckinHandler) setFlag(c echo.Context, set flagSetter) error {
    eventRef, participantRef := refs(c)
    var req flagReq
    if err := c.Bind(&req); err != nil || req.Value == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "value required"})
    }
    if err := set(c.Request().Context(), participantRef, eventRef, *req.Value); err != nil {
        return writeError(c, err)
    }
    return c.NoContent(http.StatusNoContent)
}

// ctx tags the request context with the calling station.
func (h *CheckinHandler) ctx(c echo.Context) context.Context {
    return checkin.WithStation(c.Request().Context(), middleware.StationID(c))
}
