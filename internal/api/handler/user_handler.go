package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/crediya/iam-service/internal/api/metrics"
	"github.com/crediya/iam-service/internal/core/domain"
	"github.com/crediya/iam-service/internal/core/ports"
)

// UserHandler serves registration and listing.
type UserHandler struct {
	create ports.CreateUserService
	load   ports.LoadUsersService
}

func NewUserHandler(create ports.CreateUserService, load ports.LoadUsersService) *UserHandler {
	return &UserHandler{create: create, load: load}
}

type createUserRequest struct {
	FirstName        string           `json:"firstName"        validate:"required,max=150"`
	LastName         string           `json:"lastName"         validate:"required,max=150"`
	Email            string           `json:"email"            validate:"required,max=180,email"`
	Birthdate        string           `json:"birthdate"        validate:"required,datetime=2006-01-02,pastdate"`
	IdentityDocument string           `json:"identityDocument" validate:"required,max=50"`
	PhoneNumber      string           `json:"phoneNumber"      validate:"required,phone"`
	BaseSalary       *decimal.Decimal `json:"baseSalary"       validate:"required"`
	Address          string           `json:"address"          validate:"required"`
	Password         string           `json:"password"         validate:"required"`
	RoleID           *int64           `json:"roleId"           validate:"required"`
}

// userResponse is the public projection of a user; it never carries the password.
type userResponse struct {
	ID               int64       `json:"id"`
	FirstName        string      `json:"firstName"`
	LastName         string      `json:"lastName"`
	Email            string      `json:"email"`
	Birthdate        string      `json:"birthdate"`
	IdentityDocument string      `json:"identityDocument"`
	PhoneNumber      string      `json:"phoneNumber"`
	BaseSalary       json.Number `json:"baseSalary"`
	Address          string      `json:"address"`
	RoleID           int64       `json:"roleId"`
}

func (r createUserRequest) toDomain() *domain.User {
	// Birthdate format is enforced by the datetime validation tag.
	birthdate, _ := time.Parse(dateLayout, r.Birthdate)
	return domain.NewUser(
		r.FirstName, r.LastName,
		birthdate,
		r.Address, r.PhoneNumber, r.Email,
		r.BaseSalary,
		r.IdentityDocument,
		*r.RoleID,
		r.Password,
	)
}

func toUserResponse(u *domain.User) userResponse {
	resp := userResponse{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Birthdate:        u.Birthdate.Format(dateLayout),
		IdentityDocument: u.IdentityDocument,
		PhoneNumber:      u.PhoneNumber,
		Address:          u.Address,
		RoleID:           u.RoleID,
	}
	if u.BaseSalary != nil {
		resp.BaseSalary = json.Number(u.BaseSalary.String())
	}
	return resp
}

// Create registers a new user.
//
// @Summary      Register a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "User to register"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorBody
// @Failure      409   {object}  errorBody
// @Failure      422   {object}  errorBody
// @Router       /users [post]
func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		metrics.UserRejectionsTotal.WithLabelValues("validation").Inc()
		return err
	}

	saved, err := h.create.Execute(c.Request().Context(), req.toDomain())
	if err != nil {
		var ve *domain.ValidationError
		switch {
		case errors.As(err, &ve):
			metrics.UserRejectionsTotal.WithLabelValues("validation").Inc()
		case errors.Is(err, domain.ErrDuplicateEmail):
			metrics.UserRejectionsTotal.WithLabelValues("duplicate_email").Inc()
		case errors.Is(err, domain.ErrInvalidReference):
			metrics.UserRejectionsTotal.WithLabelValues("invalid_reference").Inc()
		}
		return err
	}

	metrics.UsersCreatedTotal.Inc()
	return c.JSON(http.StatusOK, toUserResponse(saved))
}

// List returns every registered user.
//
// @Summary      List users
// @Tags         users
// @Produce      json
// @Success      200  {array}   userResponse
// @Failure      404  {object}  errorBody
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	users, err := h.load.Execute(c.Request().Context())
	if err != nil {
		return err
	}
	resp := make([]userResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u))
	}
	return c.JSON(http.StatusOK, resp)
}
