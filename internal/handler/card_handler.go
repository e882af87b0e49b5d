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

// CardHandler handles business card endpoints.
type CardHandler struct {
	base
	svc service.CardService
}

// NewCardHandler creates a new card handler.
func NewCardHandler(svc service.CardService, schemas *schema.Registry, logger *slog.Logger, reporter *report.Reporter) *CardHandler {
	return &CardHandler{base: newBase(schemas, logger, reporter), svc: svc}
}

// CardRequest represents a card body. Keys such as createdBy or likes are
// accepted and ignored.
type CardRequest struct {
	Title       string        `json:"title" validate:"required"`
	Subtitle    string        `json:"subtitle" validate:"required"`
	Description string        `json:"description" validate:"omitempty,min=2"`
	Phone       string        `json:"phone" validate:"omitempty,min=9"`
	Email       string        `json:"email"`
	Website     string        `json:"website" validate:"omitempty,min=2"`
	Image       model.Image   `json:"image"`
	Address     model.Address `json:"address"`
	BizNumber   string        `json:"bizNumber"`
}

// BizNumberRequest represents a business number reassignment.
type BizNumberRequest struct {
	BizNumber string `json:"bizNumber" validate:"required"`
}

func (r CardRequest) command() service.CardCommand {
	return service.CardCommand{
		Title:       r.Title,
		Subtitle:    r.Subtitle,
		Description: r.Description,
		Phone:       r.Phone,
		Email:       r.Email,
		Website:     r.Website,
		Image:       r.Image,
		Address:     r.Address,
		BizNumber:   r.BizNumber,
	}
}

// CreateCard godoc
// @Summary Create card
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CardRequest true "Card"
// @Success 201 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /cards [post]
func (h *CardHandler) CreateCard(c echo.Context) error {
	var req CardRequest
	if err := h.decode(c, schema.Card, &req); err != nil {
		return h.fail(c, "create_card", err)
	}

	card, err := h.svc.CreateCard(c.Request().Context(), middleware.ClaimsFrom(c), req.command())
	if err != nil {
		return h.fail(c, "create_card", err)
	}
	return c.JSON(http.StatusCreated, card)
}

// ListCards godoc
// @Summary List all cards
// @Tags cards
// @Produce json
// @Success 200 {array} model.Card
// @Router /cards [get]
func (h *CardHandler) ListCards(c echo.Context) error {
	cards, err := h.svc.ListCards(c.Request().Context())
	if err != nil {
		return h.fail(c, "list_cards", err)
	}
	return c.JSON(http.StatusOK, cards)
}

// ListMyCards godoc
// @Summary List the caller's cards
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Router /cards/my-cards [get]
func (h *CardHandler) ListMyCards(c echo.Context) error {
	cards, err := h.svc.ListMyCards(c.Request().Context(), middleware.ClaimsFrom(c))
	if err != nil {
		return h.fail(c, "list_my_cards", err)
	}
	return c.JSON(http.StatusOK, cards)
}

// GetCard godoc
// @Summary Get card by id
// @Tags cards
// @Produce json
// @Param id path string true "Card ID"
// @Success 200 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cards/{id} [get]
func (h *CardHandler) GetCard(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "get_card", err)
	}

	card, err := h.svc.GetCard(c.Request().Context(), id)
	if err != nil {
		return h.fail(c, "get_card", err)
	}
	return c.JSON(http.StatusOK, card)
}

// EditCard godoc
// @Summary Replace card details
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param request body CardRequest true "Card"
// @Success 201 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /cards/{id} [put]
func (h *CardHandler) EditCard(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "edit_card", err)
	}
	var req CardRequest
	if err := h.decode(c, schema.Card, &req); err != nil {
		return h.fail(c, "edit_card", err)
	}

	card, err := h.svc.EditCard(c.Request().Context(), middleware.ClaimsFrom(c), id, req.command())
	if err != nil {
		return h.fail(c, "edit_card", err)
	}
	return c.JSON(http.StatusCreated, card)
}

// ToggleLike godoc
// @Summary Like or unlike a card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /cards/{id} [patch]
func (h *CardHandler) ToggleLike(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "toggle_like", err)
	}

	card, err := h.svc.ToggleLike(c.Request().Context(), middleware.ClaimsFrom(c), id)
	if err != nil {
		return h.fail(c, "toggle_like", err)
	}
	return c.JSON(http.StatusOK, card)
}

// ReassignBizNumber godoc
// @Summary Reassign a card's business number
// @Tags cards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Param request body BizNumberRequest true "Business number"
// @Success 200 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /cards/{id}/biznumber [patch]
func (h *CardHandler) ReassignBizNumber(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "reassign_biz_number", err)
	}
	var req BizNumberRequest
	if err := h.decode(c, schema.BizNumber, &req); err != nil {
		return h.fail(c, "reassign_biz_number", err)
	}

	card, err := h.svc.ReassignBizNumber(c.Request().Context(), middleware.ClaimsFrom(c), id, req.BizNumber)
	if err != nil {
		return h.fail(c, "reassign_biz_number", err)
	}
	return c.JSON(http.StatusOK, card)
}

// DeleteCard godoc
// @Summary Delete card
// @Tags cards
// @Produce json
// @Security BearerAuth
// @Param id path string true "Card ID"
// @Success 200 {object} model.Card
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /cards/{id} [delete]
func (h *CardHandler) DeleteCard(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return h.fail(c, "delete_card", err)
	}

	card, err := h.svc.DeleteCard(c.Request().Context(), middleware.ClaimsFrom(c), id)
	if err != nil {
		return h.fail(c, "delete_card", err)
	}
	return c.JSON(http.StatusOK, card)
}
