package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/api/metrics"
	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
	"github.com/crediya/iam-service/internal/core/service"
)

// LoginThrottle limits repeated failed logins for one email.
// *redis.LoginThrottle satisfies it.
type LoginThrottle interface {
	Blocked(ctx context.Context, email string) (bool, error)
	RecordFailure(ctx context.Context, email string) (int64, error)
	Reset(ctx context.Context, email string) error
}

type AuthHandler struct {
	authService ports.AuthService
	throttle    LoginThrottle
	log         zerolog.Logger
}

// NewAuthHandler builds the login handler. throttle may be nil to disable
// failed-login limiting.
func NewAuthHandler(authService ports.AuthService, throttle LoginThrottle, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, throttle: throttle, log: log}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresAt int64  `json:"expiresAt"`
}

// Login authenticates a user and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorBody
// @Failure      401   {object}  errorBody
// @Failure      429   {object}  errorBody
// @Router       /login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	ctx := c.Request().Context()
	email := service.NormalizeEmail(req.Email)

	if h.throttled(ctx, email) {
		metrics.LoginsTotal.WithLabelValues(metrics.OutcomeThrottled).Inc()
		return domain.ErrTooManyAttempts
	}

	token, err := h.authService.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			metrics.LoginsTotal.WithLabelValues(metrics.OutcomeInvalidCredentials).Inc()
			h.recordFailure(ctx, email)
		case errors.Is(err, domain.ErrRoleNotFound):
			metrics.LoginsTotal.WithLabelValues(metrics.OutcomeRoleNotFound).Inc()
		default:
			metrics.LoginsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		}
		return err
	}

	metrics.LoginsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	h.resetFailures(ctx, email)

	return c.JSON(http.StatusOK, loginResponse{
		Token:     token.Token,
		TokenType: token.TokenType,
		ExpiresAt: token.ExpiresAt,
	})
}

// throttled fails open: a Redis error never blocks a login.
func (h *AuthHandler) throttled(ctx context.Context, email string) bool {
	if h.throttle == nil || email == "" {
		return false
	}
	blocked, err := h.throttle.Blocked(ctx, email)
	if err != nil {
		metrics.ThrottleErrorsTotal.Inc()
		h.log.Warn().Err(err).Msg("login throttle unavailable")
		return false
	}
	return blocked
}

func (h *AuthHandler) recordFailure(ctx context.Context, email string) {
	if h.throttle == nil || email == "" {
		return
	}
	if _, err := h.throttle.RecordFailure(ctx, email); err != nil {
		metrics.ThrottleErrorsTotal.Inc()
		h.log.Warn().Err(err).Msg("failed to record login failure")
	}
}

func (h *AuthHandler) resetFailures(ctx context.Context, email string) {
	if h.throttle == nil {
		return
	}
	if err := h.throttle.Reset(ctx, email); err != nil {
		metrics.ThrottleErrorsTotal.Inc()
		h.log.Warn().Err(err).Msg("failed to reset login failures")
	}
}
