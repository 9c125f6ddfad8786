package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-checkin/internal/checkin"
    "github.com/iliyamo/event-checkin/internal/model"
    "github.com/iliyamo/event-checkin/internal/repository"
)

// outcomeStatus maps every outcome to the HTTP status a station renders.
var outcomeStatus = map[checkin.OutcomeKind]int{
    checkin.OutcomeCheckedIn:         http.StatusOK,
    checkin.OutcomeCheckedOut:        http.StatusOK,
    checkin.OutcomeMarkedNoShow:      http.StatusOK,
    checkin.OutcomeCancelled:         http.StatusOK,
    checkin.OutcomeAlreadyCheckedIn:  http.StatusOK,
    checkin.OutcomeAlreadyCheckedOut: http.StatusOK,
    checkin.OutcomeAlreadyCancelled:  http.StatusOK,
    checkin.OutcomeSuppressed:        http.StatusAccepted,
    checkin.OutcomeNotCheckedInYet:   http.StatusConflict,
    checkin.OutcomeIneligible:        http.StatusConflict,
    checkin.OutcomeEventMismatch:     http.StatusConflict,
    checkin.OutcomeMalformed:         http.StatusBadRequest,
    checkin.OutcomeChecksumMismatch:  http.StatusUnprocessableEntity,
    checkin.OutcomeNotFound:          http.StatusNotFound,
    checkin.OutcomeStoreUnavailable:  http.StatusServiceUnavailable,
}

type participantPart struct {
    ID          string `json:"id"`
    EventID     string `json:"event_id"`
    DisplayName string `json:"display_name"`
    Category    string `json:"category,omitempty"`
}

type recordPart struct {
    Status            model.Status `json:"status"`
    Method            model.Method `json:"method,omitempty"`
    CheckedInAt       *time.Time   `json:"checked_in_at,omitempty"`
    CheckedOutAt      *time.Time   `json:"checked_out_at,omitempty"`
    BadgePrinted      bool         `json:"badge_printed"`
    MaterialsProvided bool         `json:"materials_provided"`
}

type outcomeResp struct {
    Outcome     checkin.OutcomeKind `json:"outcome"`
    Message     string              `json:"message"`
    Changed     bool                `json:"changed"`
    Retryable   bool                `json:"retryable"`
    Method      model.Method        `json:"method,omitempty"`
    EventID     string              `json:"event_id,omitempty"`
    Participant *participantPart    `json:"participant,omitempty"`
    Record      *recordPart         `json:"record,omitempty"`
}

func toRecordPart(r model.CheckinRecord) *recordPart {
    return &recordPart{
        Status:            r.Status,
        Method:            r.Method,
        CheckedInAt:       r.CheckedInAt,
        CheckedOutAt:      r.CheckedOutAt,
        BadgePrinted:      r.BadgePrinted,
        MaterialsProvided: r.MaterialsProvided,
    }
}

// writeOutcome renders out with its mapped status.  Store trouble adds a
// Retry-After hint so stations back off instead of hammering.
func writeOutcome(c echo.Context, out checkin.Outcome) error {
    status, ok := outcomeStatus[out.Kind]
    if !ok {
        status = http.StatusInternalServerError
    }
    resp := outcomeResp{
        Outcome:   out.Kind,
        Message:   out.Message(),
        Changed:   out.Changed(),
        Retryable: out.Retryable(),
        Method:    out.Method,
        EventID:   out.EventRef,
    }
    if p := out.Participant; p != nil {
        resp.Participant = &participantPart{ID: p.Ref, EventID: p.EventRef, DisplayName: p.DisplayName, Category: p.Category}
    }
    if out.Record != nil {
        resp.Record = toRecordPart(*out.Record)
    }
    if out.Retryable() {
        c.Response().Header().Set("Retry-After", "1")
    }
    return c.JSON(status, resp)
}

// writeError maps repository and engine errors for the non-outcome routes.
func writeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, checkin.ErrInvalidRef):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reference"})
    case errors.Is(err, repository.ErrParticipantNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
    case errors.Is(err, repository.ErrEventNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
    case errors.Is(err, checkin.ErrNotIssued):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "credential not issued"})
    case errors.Is(err, checkin.ErrEventNotEnded):
        return c.JSON(http.StatusConflict, echo.Map{"error": "event has not ended"})
    case errors.Is(err, repository.ErrStoreUnavailable):
        c.Response().Header().Set("Retry-After", "1")
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// refs reads and trims the event and participant path parameters.
func refs(c echo.Context) (eventRef, participantRef string) {
    return strings.TrimSpace(c.Param("event_id")), strings.TrimSpace(c.Param("participant_id"))
}
