package models

import (
	"time"

	"gorm.io/gorm"
)

// StudySession is one pass over a set's cards. TotalWords and CardOrder are
// snapshots taken at creation; CorrectWords, Accuracy and CompletedAt are
// written exactly once, at completion. A session abandoned before completion
// gets ClosedAt instead and its summary fields stay unset.
type StudySession struct {
	gorm.Model `json:"-"`
	PublicID   string `gorm:"size:100;uniqueIndex" json:"id"`

	UserID uint    `gorm:"not null;index" json:"-"`
	SetID  uint    `gorm:"not null;index" json:"-"`
	Set    CardSet `gorm:"foreignKey:SetID" json:"-"`

	IsReversed    bool `gorm:"not null;default:false" json:"is_reversed"`
	IsRandomOrder bool `gorm:"not null;default:false" json:"is_random_order"`

	// CardOrder is the comma-joined card ids of the fixed play sequence,
	// shuffled once at creation when IsRandomOrder is set.
	CardOrder string `gorm:"not null" json:"-"`

	TotalWords   int `gorm:"not null" json:"total_words"`
	CorrectWords int `gorm:"default:0" json:"correct_words"`
	Accuracy     int `gorm:"default:0" json:"accuracy"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `gorm:"default:null" json:"completed_at"`
	ClosedAt    *time.Time `gorm:"default:null" json:"closed_at"`
}
