package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Name is a person's structured name.
type Name struct {
	First  string `json:"first" gorm:"size:255"`
	Middle string `json:"middle,omitempty" gorm:"size:255"`
	Last   string `json:"last" gorm:"size:255"`
}

// Image is a picture reference with alt text.
type Image struct {
	URL string `json:"url,omitempty" gorm:"size:1024"`
	Alt string `json:"alt,omitempty" gorm:"size:255"`
}

// Address is a postal address.
type Address struct {
	State       string `json:"state,omitempty" gorm:"size:255"`
	Country     string `json:"country,omitempty" gorm:"size:255"`
	City        string `json:"city,omitempty" gorm:"size:255"`
	Street      string `json:"street,omitempty" gorm:"size:255"`
	HouseNumber string `json:"houseNumber,omitempty" gorm:"size:32"`
	Zip         string `json:"zip,omitempty" gorm:"size:32"`
}

// User represents a registered account in the directory.
type User struct {
	ID           uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name         Name      `json:"name" gorm:"embedded;embeddedPrefix:name_"`
	Phone        string    `json:"phone,omitempty" gorm:"size:32"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Image        Image     `json:"image" gorm:"embedded;embeddedPrefix:image_"`
	Address      Address   `json:"address" gorm:"embedded;embeddedPrefix:address_"`
	IsAdmin      bool      `json:"isAdmin" gorm:"not null;default:false"`
	IsBusiness   bool      `json:"isBusiness" gorm:"not null;default:false;index"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ProfileColumns are the columns a user may replace on their own profile.
var ProfileColumns = []string{
	"name_first", "name_middle", "name_last",
	"phone", "email",
	"image_url", "image_alt",
	"address_state", "address_country", "address_city",
	"address_street", "address_house_number", "address_zip",
}
