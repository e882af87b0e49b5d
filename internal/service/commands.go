package service

import (
	"strings"

	"bizcards/internal/model"
)

// RegisterCommand carries a validated registration request.
type RegisterCommand struct {
	Name       model.Name
	Phone      string
	Email      string
	Password   string
	Image      model.Image
	Address    model.Address
	IsAdmin    bool
	IsBusiness bool
}

// LoginCommand carries a validated login request.
type LoginCommand struct {
	Email    string
	Password string
}

// EditUserCommand replaces a user's profile fields.
type EditUserCommand struct {
	Name    model.Name
	Phone   string
	Email   string
	Image   model.Image
	Address model.Address
}

// CardCommand carries a validated card body. BizNumber is honoured on
// create only.
type CardCommand struct {
	Title       string
	Subtitle    string
	Description string
	Phone       string
	Email       string
	Website     string
	Image       model.Image
	Address     model.Address
	BizNumber   string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// applyTo copies the editable details onto card.
func (cmd CardCommand) applyTo(card *model.Card) {
	card.Title = cmd.Title
	card.Subtitle = cmd.Subtitle
	card.Description = cmd.Description
	card.Phone = cmd.Phone
	card.Email = optional(normalizeEmail(cmd.Email))
	card.Website = cmd.Website
	card.Image = cmd.Image
	card.Address = cmd.Address
}
