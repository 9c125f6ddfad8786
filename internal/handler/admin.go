package handler

import (
    "context"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-checkin/internal/checkin"
    "github.com/iliyamo/event-checkin/internal/credential"
    "github.com/iliyamo/event-checkin/internal/middleware"
    "github.com/iliyamo/event-checkin/internal/repository"
)

// AdminHandler serves the ADMIN-only routes: issuance, no-show marking and
// cancellation.
type AdminHandler struct {
    Svc    *checkin.Service
    Issuer *checkin.Issuer
}

func NewAdminHandler(svc *checkin.Service, issuer *checkin.Issuer) *AdminHandler {
    if svc == nil || issuer == nil {
        panic("nil dependency passed to NewAdminHandler")
    }
    return &AdminHandler{Svc: svc, Issuer: issuer}
}

type overrideReq struct {
    Override bool `json:"override"`
}

// IssueCredentials handles POST /v1/events/:event_id/credentials.
func (h *AdminHandler) IssueCredentials(c echo.Context) error {
    eventRef, _ := refs(c)
    n, err := h.Issuer.IssueForEvent(c.Request().Context(), eventRef)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": eventRef, "issued": n})
}

// Credential handles GET .../participants/:participant_id/credential and
// returns the text the badge renderer encodes.
func (h *AdminHandler) Credential(c echo.Context) error {
    eventRef, participantRef := refs(c)
    text, err := h.Issuer.CredentialFor(c.Request().Context(), participantRef)
    if err != nil {
        return writeError(c, err)
    }
    if cr, err := credential.Decode(text); err != nil || cr.EventRef != eventRef {
        return writeError(c, repository.ErrParticipantNotFound)
    }
    return c.JSON(http.StatusOK, echo.Map{"participant_id": participantRef, "event_id": eventRef, "credential": text})
}

// MarkNoShow handles POST .../participants/:participant_id/noshow.
func (h *AdminHandler) MarkNoShow(c echo.Context) error {
    eventRef, participantRef := refs(c)
    var req overrideReq
    _ = c.Bind(&req) // empty body means no override
    return writeOutcome(c, h.Svc.MarkNoShow(h.ctx(c), participantRef, eventRef, req.Override))
}

// MarkNoShows handles POST /v1/events/:event_id/noshows.
func (h *AdminHandler) MarkNoShows(c echo.Context) error {
    eventRef, _ := refs(c)
    var req overrideReq
    _ = c.Bind(&req)
    n, err := h.Svc.MarkNoShowsForEvent(h.ctx(c), eventRef, req.Override)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"event_id": eventRef, "marked": n})
}

// Cancel handles POST .../participants/:participant_id/cancel.
func (h *AdminHandler) Cancel(c echo.Context) error {
    eventRef, participantRef := refs(c)
    return writeOutcome(c, h.Svc.Cancel(h.ctx(c), participantRef, eventRef))
}

func (h *AdminHandler) ctx(c echo.Context) context.Context {
    return checkin.WithStation(c.Request().Context(), middleware.StationID(c))
}
