package models

import (
	"time"

	"gorm.io/gorm"
)

// CardProgress records one answer inside a session. The unique index on
// (SessionID, CardID) is what enforces "each card answered exactly once".
type CardProgress struct {
	gorm.Model `json:"-"`

	SessionID uint `gorm:"not null;uniqueIndex:idx_card_progress_session_card" json:"-"`
	CardID    uint `gorm:"not null;uniqueIndex:idx_card_progress_session_card" json:"-"`
	UserID    uint `gorm:"not null;index" json:"-"`

	IsCorrect  bool      `gorm:"not null" json:"is_correct"`
	ReviewedAt time.Time `json:"reviewed_at"`
}
