package models

import "gorm.io/gorm"

// User represents an account in the system
type User struct {
	gorm.Model
	Email        string `gorm:"unique;not null;size:200" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	DisplayName  string `gorm:"size:100" json:"display_name"`

	CardSets []CardSet `gorm:"foreignKey:UserID" json:"-"`
}
