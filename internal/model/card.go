package model

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Card represents a business card published in the directory.
type Card struct {
	ID          uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Subtitle    string    `json:"subtitle" gorm:"size:255;not null"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	Phone       string    `json:"phone,omitempty" gorm:"size:32"`
	Email       *string   `json:"email,omitempty" gorm:"uniqueIndex;size:255"`
	Website     string    `json:"website,omitempty" gorm:"size:1024"`
	Image       Image     `json:"image" gorm:"embedded;embeddedPrefix:image_"`
	Address     Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	BizNumber   *string   `json:"bizNumber,omitempty" gorm:"uniqueIndex;size:64"`
	Likes       []string  `json:"likes" gorm:"serializer:json;type:text"`
	CreatedBy   string    `json:"createdBy" gorm:"size:255;not null;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Version guards conditional updates of likes and bizNumber.
	Version uint `json:"-" gorm:"not null"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Card) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Likes == nil {
		c.Likes = []string{}
	}
	return nil
}

// DetailColumns are the columns replaced by a full card edit. bizNumber,
// likes and ownership are changed only through their own operations.
var DetailColumns = []string{
	"title", "subtitle", "description", "phone", "email", "website",
	"image_url", "image_alt",
	"address_state", "address_country", "address_city",
	"address_street", "address_house_number", "address_zip",
}

// LikedBy reports whether userID is in the card's like set.
func (c *Card) LikedBy(userID string) bool {
	return slices.Contains(c.Likes, userID)
}

// ToggledLikes returns the like set with userID removed if present, added
// otherwise. The card itself is not modified and each id appears at most once.
func (c *Card) ToggledLikes(userID string) []string {
	next := make([]string, 0, len(c.Likes)+1)
	found := false
	for _, id := range c.Likes {
		if id == userID {
			found = true
			continue
		}
		if slices.Contains(next, id) {
			continue
		}
		next = append(next, id)
	}
	if !found {
		next = append(next, userID)
	}
	return next
}

// HoldsBizNumber reports whether the card currently carries bizNumber.
func (c *Card) HoldsBizNumber(bizNumber string) bool {
	return c.BizNumber != nil && *c.BizNumber == bizNumber
}
