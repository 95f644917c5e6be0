package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/deck"
	"github.com/kotoba-app/kotoba-api/models"
)

func (db *DBHandler) GetCardsForSet(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, cards)
}

func (db *DBHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
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
		FrontWord        string `json:"front_word"`
		FrontHint        string `json:"front_hint"`
		FrontDescription string `json:"front_description"`
		BackWord         string `json:"back_word"`
		BackHint         string `json:"back_hint"`
		BackDescription  string `json:"back_description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FrontWord) == "" || strings.TrimSpace(req.BackWord) == "" {
		http.Error(w, "Front and back words are required", http.StatusBadRequest)
		return
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	card := models.Card{
		PublicID:         publicID,
		SetID:            set.ID,
		FrontWord:        strings.TrimSpace(req.FrontWord),
		FrontHint:        req.FrontHint,
		FrontDescription: req.FrontDescription,
		BackWord:         strings.TrimSpace(req.BackWord),
		BackHint:         req.BackHint,
		BackDescription:  req.BackDescription,
	}

	// Key assignment and insert in one transaction so two concurrent
	// appends cannot read the same max key.
	err = db.Transaction(func(tx *gorm.DB) error {
		var maxKey int
		if err := tx.Model(&models.Card{}).
			Where("set_id = ?", set.ID).
			Select("COALESCE(MAX(display_order), 0)").
			Scan(&maxKey).Error; err != nil {
			return err
		}
		card.DisplayOrder = deck.AppendKey(maxKey)
		return tx.Create(&card).Error
	})
	if err != nil {
		log.Println("card creation failed:", err)
		http.Error(w, "Failed to create card", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, card)
}

func (db *DBHandler) UpdateCardByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	var card models.Card
	if err := db.Where("public_id = ? AND set_id = ?", r.PathValue("cardID"), set.ID).First(&card).Error; err != nil {
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	}

	var req struct {
		FrontWord        *string `json:"front_word,omitempty"`
		FrontHint        *string `json:"front_hint,omitempty"`
		FrontDescription *string `json:"front_description,omitempty"`
		BackWord         *string `json:"back_word,omitempty"`
		BackHint         *string `json:"back_hint,omitempty"`
		BackDescription  *string `json:"back_description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.FrontWord != nil {
		if strings.TrimSpace(*req.FrontWord) == "" {
			http.Error(w, "Front word cannot be empty", http.StatusBadRequest)
			return
		}
		card.FrontWord = strings.TrimSpace(*req.FrontWord)
	}
	if req.BackWord != nil {
		if strings.TrimSpace(*req.BackWord) == "" {
			http.Error(w, "Back word cannot be empty", http.StatusBadRequest)
			return
		}
		card.BackWord = strings.TrimSpace(*req.BackWord)
	}
	if req.FrontHint != nil {
		card.FrontHint = *req.FrontHint
	}
	if req.FrontDescription != nil {
		card.FrontDescription = *req.FrontDescription
	}
	if req.BackHint != nil {
		card.BackHint = *req.BackHint
	}
	if req.BackDescription != nil {
		card.BackDescription = *req.BackDescription
	}

	if err := db.Save(&card).Error; err != nil {
		http.Error(w, "Failed to update card", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, card)
}

// DeleteCardByID removes a card together with its review stats and recorded
// session progress; both are weak relations and must never block or outlive
// the delete.
func (db *DBHandler) DeleteCardByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	var card models.Card
	if err := db.Where("public_id = ? AND set_id = ?", r.PathValue("cardID"), set.ID).First(&card).Error; err != nil {
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.ReviewStat{}).Error; err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.CardProgress{}).Error; err != nil {
			return err
		}
		return tx.Delete(&card).Error
	})
	if err != nil {
		http.Error(w, "Failed to delete card", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReorderCards applies a full target ordering from the drag-and-drop editor.
// Every card of the set must appear exactly once; keys are recomputed for the
// whole set and written all-or-nothing, so a crash can never leave the stored
// order half way between the old and the intended one.
func (db *DBHandler) ReorderCards(w http.ResponseWriter, r *http.Request) {
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
		CardIDs []string `json:"card_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cards, err := db.orderedCards(set.ID)
	if err != nil {
		http.Error(w, "Failed to fetch cards", http.StatusInternalServerError)
		return
	}
	if len(req.CardIDs) != len(cards) {
		http.Error(w, "Ordering must list every card in the set exactly once", http.StatusBadRequest)
		return
	}
	inSet := make(map[string]bool, len(cards))
	for _, card := range cards {
		inSet[card.PublicID] = true
	}
	for _, id := range req.CardIDs {
		if !inSet[id] {
			http.Error(w, "Ordering names a card outside the set", http.StatusBadRequest)
			return
		}
	}

	keyed, err := deck.Recompute(req.CardIDs)
	if err != nil {
		if errors.Is(err, deck.ErrDuplicateCard) {
			http.Error(w, "Ordering lists a card more than once", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to reorder cards", http.StatusInternalServerError)
		return
	}

	if err := db.applyOrdering(set.ID, keyed); err != nil {
		log.Println("reorder failed:", err)
		http.Error(w, "Failed to reorder cards", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order updated"})
}

// MoveCard repositions one card to a target index within its set, from the
// editor's move-up/move-down controls.
func (db *DBHandler) MoveCard(w http.ResponseWriter, r *http.Request) {
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
		Index int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cards, err := db.orderedCards(set.ID)
	if err != nil {
		http.Error(w, "Failed to fetch cards", http.StatusInternalServerError)
		return
	}
	orderedIDs := make([]string, len(cards))
	for i, card := range cards {
		orderedIDs[i] = card.PublicID
	}

	keyed, err := deck.MoveTo(orderedIDs, r.PathValue("cardID"), req.Index)
	switch {
	case errors.Is(err, deck.ErrUnknownCard):
		http.Error(w, "Card not found", http.StatusNotFound)
		return
	case errors.Is(err, deck.ErrIndexOutOfRange):
		http.Error(w, "Target index is out of range", http.StatusBadRequest)
		return
	case err != nil:
		http.Error(w, "Failed to move card", http.StatusInternalServerError)
		return
	}

	if err := db.applyOrdering(set.ID, keyed); err != nil {
		log.Println("move failed:", err)
		http.Error(w, "Failed to move card", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "order updated"})
}

// applyOrdering writes recomputed keys as one unit. Any row that fails to
// update rolls back the whole batch.
func (db *DBHandler) applyOrdering(setID uint, keyed []deck.KeyedID) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, k := range keyed {
			result := tx.Model(&models.Card{}).
				Where("public_id = ? AND set_id = ?", k.ID, setID).
				Update("display_order", k.Key)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected != 1 {
				return fmt.Errorf("card %s not updated", k.ID)
			}
		}
		return nil
	})
}
