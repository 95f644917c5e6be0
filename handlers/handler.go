package handlers

import (
	"encoding/json"
	"net/http"

	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/models"
	"github.com/kotoba-app/kotoba-api/utils"
)

type DBHandler struct {
	*gorm.DB
}

// requireUser resolves the authenticated user id or writes a 401.
func (db *DBHandler) requireUser(w http.ResponseWriter, r *http.Request) (uint, bool) {
	userID, ok := utils.GetUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return 0, false
	}
	return userID, true
}

// findOwnedSet loads a set by public id, scoped to its owner. Sets belonging
// to other users are indistinguishable from missing ones.
func (db *DBHandler) findOwnedSet(userID uint, publicID string) (*models.CardSet, error) {
	var set models.CardSet
	if err := db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&set).Error; err != nil {
		return nil, err
	}
	return &set, nil
}

// orderedCards loads a set's cards in presentation order.
func (db *DBHandler) orderedCards(setID uint) ([]models.Card, error) {
	var cards []models.Card
	err := db.Where("set_id = ?", setID).
		Order("display_order ASC").
		Order("created_at ASC").
		Find(&cards).Error
	return cards, err
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
