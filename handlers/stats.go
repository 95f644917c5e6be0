package handlers

import (
	"net/http"

	"github.com/kotoba-app/kotoba-api/models"
	"github.com/kotoba-app/kotoba-api/study"
)

// GetSetStats returns the caller's accumulated review stats for every card
// in the set they have studied at least once, in deck order.
func (db *DBHandler) GetSetStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	accumulator := &study.Accumulator{DB: db.DB}
	stats, err := accumulator.ForSet(userID, set.ID)
	if err != nil {
		http.Error(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}

	cards, err := db.orderedCards(set.ID)
	if err != nil {
		http.Error(w, "Failed to fetch cards", http.StatusInternalServerError)
		return
	}
	byID := make(map[uint]models.Card, len(cards))
	for _, card := range cards {
		byID[card.ID] = card
	}

	type cardStat struct {
		CardID    string `json:"card_id"`
		FrontWord string `json:"front_word"`
		BackWord  string `json:"back_word"`
		models.ReviewStat
	}
	out := make([]cardStat, 0, len(stats))
	for _, stat := range stats {
		card, ok := byID[stat.CardID]
		if !ok {
			continue
		}
		out = append(out, cardStat{
			CardID:     card.PublicID,
			FrontWord:  card.FrontWord,
			BackWord:   card.BackWord,
			ReviewStat: stat,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
