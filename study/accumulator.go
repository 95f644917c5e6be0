package study

import (
	"time"

	"github.com/kotoba-app/kotoba-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Accumulator maintains the per-(user, card) running statistics from a
// stream of pass/fail observations. Recording is deliberately not idempotent:
// every observation counts, so the caller must deliver each at most once.
type Accumulator struct {
	DB *gorm.DB
}

// Record applies one observation. A first observation creates the stat row;
// later ones add to it: score moves by +1/-1 (unbounded, may go negative),
// the matching count and the attempt total each grow by one.
//
// Two concurrent Record calls for the same pair must not lose an update, so
// the read-modify-write happens inside the store: a single insert with
// additive on-conflict assignments, never a read followed by a write.
func (a *Accumulator) Record(userID, cardID uint, correct bool) (*models.ReviewStat, error) {
	now := time.Now()

	stat := models.ReviewStat{
		UserID:        userID,
		CardID:        cardID,
		LastStudiedAt: now,
		TotalAttempts: 1,
	}
	if correct {
		stat.Score = 1
		stat.CorrectCount = 1
	} else {
		stat.Score = -1
		stat.IncorrectCount = 1
	}

	delta := 1
	if !correct {
		delta = -1
	}
	err := a.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "card_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"score":           gorm.Expr("score + ?", delta),
			"total_attempts":  gorm.Expr("total_attempts + 1"),
			"correct_count":   gorm.Expr("correct_count + ?", stat.CorrectCount),
			"incorrect_count": gorm.Expr("incorrect_count + ?", stat.IncorrectCount),
			"last_studied_at": now,
			"updated_at":      now,
		}),
	}).Create(&stat).Error
	if err != nil {
		return nil, err
	}

	// Re-read so the caller sees the accumulated row, not the insert values.
	var current models.ReviewStat
	if err := a.DB.Where("user_id = ? AND card_id = ?", userID, cardID).First(&current).Error; err != nil {
		return nil, err
	}
	return &current, nil
}

// ForSet returns the caller's stats for every card in a set, joined so cards
// never studied are absent rather than zero-filled.
func (a *Accumulator) ForSet(userID, setID uint) ([]models.ReviewStat, error) {
	var stats []models.ReviewStat
	err := a.DB.
		Joins("JOIN cards ON cards.id = review_stats.card_id").
		Where("review_stats.user_id = ? AND cards.set_id = ?", userID, setID).
		Order("cards.display_order ASC").
		Find(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
