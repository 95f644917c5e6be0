package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/models"
)

func (db *DBHandler) ListCardSets(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	var sets []models.CardSet
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Find(&sets).Error; err != nil {
		http.Error(w, "Failed to fetch card sets", http.StatusInternalServerError)
		return
	}

	type setWithCount struct {
		models.CardSet
		CardCount int64 `json:"card_count"`
	}
	out := make([]setWithCount, 0, len(sets))
	for _, set := range sets {
		var count int64
		db.Model(&models.Card{}).Where("set_id = ?", set.ID).Count(&count)
		out = append(out, setWithCount{CardSet: set, CardCount: count})
	}

	writeJSON(w, http.StatusOK, out)
}

func (db *DBHandler) GetCardSetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	cards, err := db.orderedCards(set.ID)
	if err != nil {
		http.Error(w, "Failed to fetch cards", http.StatusInternalServerError)
		return
	}
	set.Cards = cards

	writeJSON(w, http.StatusOK, set)
}

func (db *DBHandler) CreateCardSet(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	set := models.CardSet{
		PublicID:    publicID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		UserID:      userID,
	}
	if err := db.Create(&set).Error; err != nil {
		log.Println("card set creation failed:", err)
		http.Error(w, "Failed to create card set", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, set)
}

func (db *DBHandler) UpdateCardSetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	var req struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			http.Error(w, "Title cannot be empty", http.StatusBadRequest)
			return
		}
		set.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		set.Description = *req.Description
	}

	if err := db.Save(set).Error; err != nil {
		http.Error(w, "Failed to update card set", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, set)
}

// DeleteCardSetByID removes a set and everything hanging off it: cards,
// per-card stats, sessions and their progress rows, in one transaction.
func (db *DBHandler) DeleteCardSetByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		cardIDs := tx.Model(&models.Card{}).Select("id").Where("set_id = ?", set.ID)
		if err := tx.Where("card_id IN (?)", cardIDs).Delete(&models.ReviewStat{}).Error; err != nil {
			return err
		}
		sessionIDs := tx.Model(&models.StudySession{}).Select("id").Where("set_id = ?", set.ID)
		if err := tx.Where("session_id IN (?)", sessionIDs).Delete(&models.CardProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("set_id = ?", set.ID).Delete(&models.StudySession{}).Error; err != nil {
			return err
		}
		if err := tx.Where("set_id = ?", set.ID).Delete(&models.Card{}).Error; err != nil {
			return err
		}
		return tx.Delete(set).Error
	})
	if err != nil {
		log.Println("card set deletion failed:", err)
		http.Error(w, "Failed to delete card set", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
