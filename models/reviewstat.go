package models

import (
	"time"

	"gorm.io/gorm"
)

// ReviewStat is the per-(user, card) running tally of study outcomes.
// Score is an unbounded signed sum of +1/-1 observations; a persistently
// negative score marks a card the user keeps getting wrong.
// Invariant: CorrectCount + IncorrectCount == TotalAttempts.
type ReviewStat struct {
	gorm.Model `json:"-"`

	UserID uint `gorm:"not null;uniqueIndex:idx_review_stats_user_card" json:"-"`
	CardID uint `gorm:"not null;uniqueIndex:idx_review_stats_user_card" json:"-"`
	Card   Card `gorm:"foreignKey:CardID;constraint:OnDelete:CASCADE" json:"-"`

	Score          int       `gorm:"not null;default:0" json:"score"`
	TotalAttempts  int       `gorm:"not null;default:0" json:"total_attempts"`
	CorrectCount   int       `gorm:"not null;default:0" json:"correct_count"`
	IncorrectCount int       `gorm:"not null;default:0" json:"incorrect_count"`
	LastStudiedAt  time.Time `json:"last_studied_at"`
}
