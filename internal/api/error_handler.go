package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error", "code", "field"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, auth middleware, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: fmt.Sprintf("%v", he.Message), Code: statusCode(he.Code)}
	}

	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, errorResponse{Error: ve.Message, Code: "VALIDATION_ERROR", Field: ve.Field}
	}

	var de *domain.DuplicateEmailError
	if errors.As(err, &de) {
		return http.StatusConflict, errorResponse{Error: de.Error(), Code: "DUPLICATE_EMAIL", Field: "email"}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "INVALID_INPUT"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: "invalid credentials", Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, domain.ErrRoleNotFound):
		return http.StatusUnauthorized, errorResponse{Error: "role not found", Code: "ROLE_NOT_FOUND"}
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "DUPLICATE_EMAIL", Field: "email"}
	case errors.Is(err, domain.ErrEmailMismatch):
		return http.StatusConflict, errorResponse{Error: err.Error(), Code: "EMAIL_MISMATCH"}
	case errors.Is(err, domain.ErrUsersNotFound):
		return http.StatusNotFound, errorResponse{Error: err.Error(), Code: "USERS_NOT_FOUND"}
	case errors.Is(err, domain.ErrMissingInput):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "MISSING_INPUT"}
	case errors.Is(err, domain.ErrInvalidReference):
		return http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "INVALID_REFERENCE", Field: "roleId"}
	case errors.Is(err, domain.ErrTooManyAttempts):
		return http.StatusTooManyRequests, errorResponse{Error: err.Error(), Code: "TOO_MANY_ATTEMPTS"}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
}

// statusCode turns an HTTP status into a machine code, e.g. 404 -> NOT_FOUND.
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
