package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crediya/iam-service/internal/core/ports"
)

type ExistHandler struct {
	exist ports.ExistUserService
	log   zerolog.Logger
}

func NewExistHandler(exist ports.ExistUserService, log zerolog.Logger) *ExistHandler {
	return &ExistHandler{exist: exist, log: log}
}

// Pointers keep a missing field apart from an empty one.
type existRequest struct {
	Document *string `json:"document"`
	Email    *string `json:"email"`
}

type existResponse struct {
	Exists bool `json:"exists"`
}

// Exist confirms that a document is registered to an email.
//
// @Summary      Check user existence
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      existRequest  true  "Document and email"
// @Success      200   {object}  existResponse
// @Failure      401   {object}  errorBody
// @Failure      403   {object}  errorBody
// @Failure      404   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /users/exist [post]
func (h *ExistHandler) Exist(c echo.Context) error {
	var req existRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	h.log.Debug().Str("subject", subjectID(c)).Msg("existence check")

	exists, err := h.exist.Execute(c.Request().Context(), req.Document, req.Email)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, existResponse{Exists: exists})
}
