package middleware

// identity.go defines the context keys written by JWTAuth and StationID and
// the helpers handlers use to read them back.

import (
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"
)

// Context keys set on authenticated requests.
const (
    CtxOperatorID = "operator_id"
    CtxRole       = "role"
    CtxStationID  = "station_id"
)

// StationHeader names the header a station sends with every request.
const StationHeader = "X-Station-ID"

// OperatorID returns the authenticated operator ID.
func OperatorID(c echo.Context) (uint64, bool) {
    id, ok := c.Get(CtxOperatorID).(uint64)
    return id, ok && id != 0
}

// Role returns the authenticated operator role, or "".
func Role(c echo.Context) string {
    r, _ := c.Get(CtxRole).(string)
    return r
}

// StationID returns the station handling the request.  Stations without an
// explicit header are keyed by operator, so two devices logged in as the
// same operator share a debouncer.
func StationID(c echo.Context) string {
    if s, ok := c.Get(CtxStationID).(string); ok && s != "" {
        return s
    }
    if s := strings.TrimSpace(c.Request().Header.Get(StationHeader)); s != "" {
        if len(s) > 64 {
            s = s[:64]
        }
        c.Set(CtxStationID, s)
        return s
    }
    return "operator-" + userID(c)
}

// userID returns the operator ID as a string, or "guest" when the request is
// not authenticated.
func userID(c echo.Context) string {
    if id, ok := OperatorID(c); ok {
        return strconv.FormatUint(id, 10)
    }
    return "guest"
}
