package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"bizcards/internal/middleware"
	"bizcards/internal/model"
	"bizcards/internal/report"
	"bizcards/internal/schema"
	"bizcards/internal/service"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	base
	svc service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(svc service.UserService, schemas *schema.Registry, logger *slog.Logger, reporter *report.Reporter) *UserHandler {
	return &UserHandler{base: newBase(schemas, logger, reporter), svc: svc}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Name       model.Name    `json:"name"`
	Phone      string        `json:"phone" validate:"omitempty,min=9"`
	Email      string        `json:"email" validate:"required,email"`
	Password   string        `json:"password" validate:"required,min=2,max=72"`
	Image      model.Image   `json:"image"`
	Address    model.Address `json:"address"`
	IsAdmin    *bool         `json:"isAdmin" validate:"required"`
	IsBusiness *bool         `json:"isBusiness" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// EditUserRequest represents a profile replacement.
type EditUserRequest struct {
	Name    model.Name    `json:"name"`
	Phone   string        `json:"phone" validate:"omitempty,min=9"`
	Email   string        `json:"email" validate:"required,email"`
	Image   model.Image   `json:"image"`
	Address model.Address `json:"address"`
}

// PatchUserRequest represents a business status change.
type PatchUserRequest struct {
	IsBusiness *bool `json:"isBusiness" validate:"required"`
}

// TokenResponse carries a freshly minted token.
type TokenResponse struct {
	Token string `json:"token"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users [post]
func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := h.decode(c, schema.Register, &req); err != nil {
		return h.fail(c, "register", err)
	}

	token, err := h.svc.Register(c.Request().Context(), service.RegisterCommand{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Password:   req.Password,
		Image:      req.Image,
		Address:    req.Address,
		IsAdmin:    *req.IsAdmin,
		IsBusiness: *req.IsBusiness,
	})
	if err != nil {
		return h.fail(c, "register", err)
	}
	return c.JSON(http.StatusCreated, TokenResponse{Token: token})
}

// Login godoc
// @Summary Login user
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/login [post]
func (h *UserHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := h.decode(c, schema.Login, &req); err != nil {
		return h.fail(c, "login", err)
	}

	token, err := h.svc.Login(c.Request().Context(), service.LoginCommand{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.fail(c, "login", err)
	}
	return c.JSON(http.StatusOK, TokenResponse{Token: token})
}

// ListUsers godoc
// @Summary List users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} policy.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context(), middleware.ClaimsFrom(c))
	if err != nil {
		return h.fail(c, "list_users", err)
	}
	return c.JSON(http.StatusOK, users)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} policy.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "get_user", err)
	}

	user, err := h.svc.GetUser(c.Request().Context(), middleware.ClaimsFrom(c), id)
	if err != nil {
		return h.fail(c, "get_user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// EditUser godoc
// @Summary Replace own profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body EditUserRequest true "Profile"
// @Success 200 {object} policy.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id} [put]
func (h *UserHandler) EditUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "edit_user", err)
	}
	var req EditUserRequest
	if err := h.decode(c, schema.UserEdit, &req); err != nil {
		return h.fail(c, "edit_user", err)
	}

	user, err := h.svc.EditUser(c.Request().Context(), middleware.ClaimsFrom(c), id, service.EditUserCommand{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Image:   req.Image,
		Address: req.Address,
	})
	if err != nil {
		return h.fail(c, "edit_user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// PatchUser godoc
// @Summary Change own business status
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body PatchUserRequest true "Business status"
// @Success 200 {object} policy.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [patch]
func (h *UserHandler) PatchUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "patch_user", err)
	}
	var req PatchUserRequest
	if err := h.decode(c, schema.UserPatch, &req); err != nil {
		return h.fail(c, "patch_user", err)
	}

	user, err := h.svc.SetBusinessStatus(c.Request().Context(), middleware.ClaimsFrom(c), id, *req.IsBusiness)
	if err != nil {
		return h.fail(c, "patch_user", err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} policy.UserView
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "delete_user", err)
	}

	user, err := h.svc.DeleteUser(c.Request().Context(), middleware.ClaimsFrom(c), id)
	if err != nil {
		return h.fail(c, "delete_user", err)
	}
	return c.JSON(http.StatusOK, user)
}
