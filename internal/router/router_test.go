package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-checkin/internal/checkin"
	"github.com/iliyamo/event-checkin/internal/credential"
	"github.com/iliyamo/event-checkin/internal/database"
	"github.com/iliyamo/event-checkin/internal/handler"
	"github.com/iliyamo/event-checkin/internal/middleware"
	"github.com/iliyamo/event-checkin/internal/model"
	"github.com/iliyamo/event-checkin/internal/testutil"
	"github.com/iliyamo/event-checkin/internal/utils"
)

const jwtSecret = "router-test-jwt-secret"

type app struct {
	e      *echo.Echo
	store  *testutil.MemStore
	roster *testutil.MemRoster
	clock  *testutil.Clock
	issuer *checkin.Issuer
	staff  string
	admin  string
}

func newApp(t *testing.T) *app {
	t.Helper()
	v, err := credential.NewVerifier("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)

	a := &app{
		e:      echo.New(),
		store:  testutil.NewMemStore(),
		roster: testutil.NewMemRoster(),
		clock:  testutil.NewClock(time.Date(2026, 5, 14, 9, 0, 0, 0, time.UTC)),
	}
	svc := checkin.NewService(a.store, a.roster, v, checkin.Options{Clock: a.clock.Now})
	a.issuer = checkin.NewIssuer(a.roster, v, nil, a.clock.Now)

	db, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	RegisterRoutes(a.e, db)
	RegisterStation(a.e, StationDeps{
		Checkin: handler.NewCheckinHandler(svc, checkin.NewStations(svc, 2*time.Second)),
		Stats:   handler.NewStatsHandler(checkin.NewAggregator(a.store, a.roster, a.clock.Now)),
	}, jwtSecret)
	RegisterAdmin(a.e, handler.NewAdminHandler(svc, a.issuer), jwtSecret)

	a.roster.AddEvent(model.Event{Ref: "spring"})
	a.roster.AddEvent(model.Event{Ref: "autumn"})
	for _, ref := range []string{"p1", "p2", "p3", "p4"} {
		a.roster.AddParticipant(model.Participant{Ref: ref, EventRef: "spring", DisplayName: "Guest " + ref})
	}

	staff, err := utils.NewAccessToken(jwtSecret, 7, model.RoleStaff, 60)
	require.NoError(t, err)
	admin, err := utils.NewAccessToken(jwtSecret, 1, model.RoleAdmin, 60)
	require.NoError(t, err)
	a.staff, a.admin = staff.Token, admin.Token
	return a
}

func (a *app) do(method, path, token, station, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if station != "" {
		req.Header.Set(middleware.StationHeader, station)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func outcomeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Outcome string `json:"outcome"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Outcome
}

func (a *app) code(t *testing.T, participantRef string) string {
	t.Helper()
	rec := a.do(http.MethodPost, "/v1/events/spring/credentials", a.admin, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/v1/events/spring/participants/"+participantRef+"/credential", a.admin, "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Credential string `json:"credential"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Credential
}

func TestProbes(t *testing.T) {
	a := newApp(t)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/healthz", "", "", "").Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/readyz", "", "", "").Code)
}

func TestAuthAndRoles(t *testing.T) {
	a := newApp(t)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/v1/events/spring/scan", "", "", `{"code":"x"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodPost, "/v1/events/spring/scan", "garbage", "", `{"code":"x"}`).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/events/spring/credentials", a.staff, "", "").Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/v1/events/spring/participants/p1/cancel", a.staff, "", "").Code)
}

func TestScanFlow(t *testing.T) {
	a := newApp(t)
	code := a.code(t, "p1")
	body := `{"code":"` + code + `"}`

	rec := a.do(http.MethodPost, "/v1/events/spring/scan", a.staff, "front", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checked_in", outcomeOf(t, rec))

	rec = a.do(http.MethodPost, "/v1/events/spring/scan", a.staff, "front", body)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "suppressed", outcomeOf(t, rec))

	rec = a.do(http.MethodPost, "/v1/events/spring/scan", a.staff, "side", body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_checked_in", outcomeOf(t, rec))

	rec = a.do(http.MethodPost, "/v1/events/autumn/scan", a.staff, "hall-b", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "event_mismatch", outcomeOf(t, rec))

	rec = a.do(http.MethodPost, "/v1/events/spring/scan", a.staff, "front", `{"code":"EC1.nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed", outcomeOf(t, rec))

	forged := code[:len(code)-4] + "0000"
	if forged == code {
		forged = code[:len(code)-4] + "1111"
	}
	rec = a.do(http.MethodPost, "/v1/events/spring/scan", a.staff, "front", `{"code":"`+forged+`"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "checksum_mismatch", outcomeOf(t, rec))

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/v1/events/spring/scan", a.staff, "front", `{}`).Code)
}

func TestManualCheckInAndCheckout(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/v1/events/spring/participants/p2/checkout", a.staff, "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_checked_in_yet", outcomeOf(t, rec))

	rec = a.do(http.MethodPost, "/v1/events/spring/participants/p2/checkin", a.staff, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "checked_in", outcomeOf(t, rec))

	rec = a.do(http.MethodPost, "/v1/events/spring/participants/nobody/checkin", a.staff, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(http.MethodPost, "/v1/events/spring/participants/p2/checkout", a.staff, "", "")
	assert.Equal(t, "checked_out", outcomeOf(t, rec))

	rec = a.do(http.MethodGet, "/v1/events/spring/participants/p2/checkin", a.staff, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"checked_out"`)
	assert.Contains(t, rec.Body.String(), `"method":"manual"`)
}

func TestFlagsAndStats(t *testing.T) {
	a := newApp(t)

	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPut, "/v1/events/spring/participants/p1/badge", a.staff, "", `{}`).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodPut, "/v1/events/spring/participants/p1/badge", a.staff, "", `{"value":true}`).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/v1/events/autumn/participants/p1/materials", a.staff, "", `{"value":true}`).Code)

	a.do(http.MethodPost, "/v1/events/spring/participants/p1/checkin", a.staff, "", "")
	rec := a.do(http.MethodPost, "/v1/events/spring/participants/p4/noshow", a.admin, "", `{"override":true}`)
	assert.Equal(t, "marked_no_show", outcomeOf(t, rec))

	rec = a.do(http.MethodGet, "/v1/events/spring/stats", a.staff, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var st checkin.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.CheckedIn)
	assert.Equal(t, 25, st.CheckinRate)
	assert.Equal(t, 25, st.NoShowRate)
	assert.Equal(t, 1, st.ByBadgePrinted.Printed)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/v1/events/winter/stats", a.staff, "", "").Code)
}

func TestAdminNoShowsAndCancel(t *testing.T) {
	a := newApp(t)

	rec := a.do(http.MethodPost, "/v1/events/spring/noshows", a.admin, "", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "event without an end time never ends")

	rec = a.do(http.MethodPost, "/v1/events/spring/noshows", a.admin, "", `{"override":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"marked":4`)

	rec = a.do(http.MethodPost, "/v1/events/spring/participants/p3/cancel", a.admin, "", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ineligible", outcomeOf(t, rec))
}

func TestStoreUnavailable(t *testing.T) {
	a := newApp(t)
	a.store.SetDown(true)

	rec := a.do(http.MethodPost, "/v1/events/spring/participants/p1/checkin", a.staff, "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, "store_unavailable", outcomeOf(t, rec))
}
