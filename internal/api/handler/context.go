package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/crediya/iam-service/internal/api/middleware"
)

// subjectID returns the authenticated subject, or "anonymous".
func subjectID(c echo.Context) string {
	if p, ok := middleware.PrincipalFrom(c); ok {
		return p.SubjectID
	}
	return "anonymous"
}

// errorBody documents the JSON error envelope for swagger.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}
