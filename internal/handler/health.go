package handler // declare the package name; contains HTTP handlers

import (
    "database/sql" // the pool being probed
    "net/http"     // net/http provides status codes and response helpers
    "time"         // probe timeout

    "github.com/labstack/echo/v4" // echo is the web framework used for this project

    "github.com/iliyamo/event-checkin/internal/database" // shared ping helper
)

// Health is a liveness endpoint used by load balancers and monitoring
// systems to verify that the process is running.  It returns a plain text
// "ok" message with an HTTP 200 status code.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Ready reports whether the check-in store answers.  Stations poll it to
// show a "network trouble" banner instead of failing scans one by one.
func Ready(db *sql.DB) echo.HandlerFunc {
    return func(c echo.Context) error {
        if err := database.Ping(c.Request().Context(), db, 2*time.Second); err != nil {
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unavailable"})
        }
        return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
    }
}
