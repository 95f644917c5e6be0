package models

import (
	"time"

	"gorm.io/gorm"
)

// CardSet represents a named, ordered collection of cards owned by one user
type CardSet struct {
	gorm.Model  `json:"-"`
	PublicID    string `gorm:"size:100;uniqueIndex" json:"id"`
	Title       string `gorm:"not null;size:100" json:"title"`
	Description string `gorm:"size:500" json:"description"`

	UserID uint `gorm:"not null;index" json:"-"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Cards []Card `gorm:"foreignKey:SetID;constraint:OnDelete:CASCADE" json:"cards,omitempty"`

	LastStudied *time.Time `gorm:"default:null" json:"last_studied,omitempty"`
}
