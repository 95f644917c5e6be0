package models

import "gorm.io/gorm"

// Card represents a single two-faced vocabulary card.
// DisplayOrder is a presentation property: listing a set ascending by
// DisplayOrder is the user's intended order, independent of creation time.
type Card struct {
	gorm.Model `json:"-"`
	PublicID   string `gorm:"size:100;uniqueIndex" json:"id"`

	SetID   uint    `gorm:"not null;index" json:"-"`
	CardSet CardSet `gorm:"foreignKey:SetID" json:"-"`

	FrontWord        string `gorm:"not null;size:200" json:"front_word"`
	FrontHint        string `gorm:"size:500" json:"front_hint"`
	FrontDescription string `gorm:"size:1000" json:"front_description"`
	BackWord         string `gorm:"not null;size:200" json:"back_word"`
	BackHint         string `gorm:"size:500" json:"back_hint"`
	BackDescription  string `gorm:"size:1000" json:"back_description"`

	DisplayOrder int `gorm:"not null;index" json:"display_order"`
}
