package handler

import (
	"context"  // provides context with cancellation for DB calls
	"errors"   // match repository sentinels
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for DB calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/event-checkin/internal/config"     // app configuration
	"github.com/iliyamo/event-checkin/internal/middleware" // identity helpers
	"github.com/iliyamo/event-checkin/internal/repository" // DB repositories
	"github.com/iliyamo/event-checkin/internal/utils"      // password checks and token issuing
)

// AuthHandler bundles dependencies for operator auth endpoints.  Stations
// log in once per shift; there is no self-registration, operators are
// created with checkinctl.
type AuthHandler struct {
	Cfg       config.Config
	Operators *repository.OperatorRepo
}

func NewAuthHandler(cfg config.Config, o *repository.OperatorRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Operators: o}
}

// ----- DTOs -----

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type operatorPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}
type authResp struct {
	Operator operatorPart `json:"operator"`
	Access   tokenPart    `json:"access"`
}

// Login: verify credentials and return an access token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	o, err := h.Operators.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrOperatorNotFound) {
			utils.BurnPasswordCheck(req.Password)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(o.PasswordHash, req.Password) || !o.IsActive {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, o.ID, o.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	return c.JSON(http.StatusOK, authResp{
		Operator: operatorPart{ID: o.ID, Email: o.Email, Role: o.Role},
		Access:   tokenPart{Token: access.Token, Expires: access.Exp},
	})
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
	id, _ := middleware.OperatorID(c)
	return c.JSON(http.StatusOK, echo.Map{
		"operator_id": id,
		"role":        middleware.Role(c),
		"station_id":  middleware.StationID(c),
	})
}
