package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/models"
	"github.com/kotoba-app/kotoba-api/study"
)

// StartSession snapshots a set into a fixed play sequence and opens a
// session over it. A set with no cards is rejected before any row is
// created.
func (db *DBHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	var req struct {
		CardSetID     string `json:"card_set_id"`
		IsReversed    bool   `json:"is_reversed"`
		IsRandomOrder bool   `json:"is_random_order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CardSetID == "" {
		http.Error(w, "Card set ID is required", http.StatusBadRequest)
		return
	}

	set, err := db.findOwnedSet(userID, req.CardSetID)
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	cards, err := db.orderedCards(set.ID)
	if err != nil {
		http.Error(w, "Failed to fetch cards", http.StatusInternalServerError)
		return
	}

	engine, err := study.NewEngine(userID, cards, nil, study.Options{
		Reversed:    req.IsReversed,
		RandomOrder: req.IsRandomOrder,
	})
	if err != nil {
		if errors.Is(err, study.ErrEmptyDeck) {
			http.Error(w, "Cannot study an empty set", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	sequence := engine.Sequence()
	orderIDs := make([]string, len(sequence))
	for i, card := range sequence {
		orderIDs[i] = card.PublicID
	}

	publicID, err := gonanoid.New()
	if err != nil {
		http.Error(w, "Failed to generate ID", http.StatusInternalServerError)
		return
	}

	session := models.StudySession{
		PublicID:      publicID,
		UserID:        userID,
		SetID:         set.ID,
		IsReversed:    req.IsReversed,
		IsRandomOrder: req.IsRandomOrder,
		CardOrder:     strings.Join(orderIDs, ","),
		TotalWords:    len(sequence),
		StartedAt:     time.Now(),
	}
	if err := db.Create(&session).Error; err != nil {
		log.Println("session creation failed:", err)
		http.Error(w, "Failed to start session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"session": session,
		"cards":   sequence,
	})
}

func (db *DBHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	session, err := db.findOwnedSession(userID, r.PathValue("sessionID"))
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	engine, _, err := db.rebuildEngine(session, nil)
	if err != nil {
		http.Error(w, "Failed to load session state", http.StatusInternalServerError)
		return
	}

	answered, correct, _ := engine.Summary()
	resp := map[string]interface{}{
		"session":  session,
		"state":    engine.State().String(),
		"answered": answered,
		"correct":  correct,
	}
	if prompt, ok := engine.Current(); ok {
		resp["current"] = map[string]interface{}{
			"card_id":            prompt.Card.PublicID,
			"prompt_word":        prompt.PromptWord,
			"prompt_hint":        prompt.PromptHint,
			"prompt_description": prompt.PromptDescription,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// RecordProgress answers the card at the session cursor. The progress row
// and the stat accumulation commit together, so an observation is either
// fully recorded once or not at all.
func (db *DBHandler) RecordProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	session, err := db.findOwnedSession(userID, r.PathValue("sessionID"))
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	var req struct {
		CardID    string `json:"card_id"`
		IsCorrect bool   `json:"is_correct"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.CardID == "" {
		http.Error(w, "Card ID is required", http.StatusBadRequest)
		return
	}

	var answered *models.ReviewStat
	var state study.State
	var correct int
	txErr := db.Transaction(func(tx *gorm.DB) error {
		recorder := &capturingRecorder{inner: &study.Accumulator{DB: tx}}
		engine, sequence, err := (&DBHandler{DB: tx}).rebuildEngine(session, recorder)
		if err != nil {
			return err
		}

		var card *models.Card
		for i := range sequence {
			if sequence[i].PublicID == req.CardID {
				card = &sequence[i]
				break
			}
		}
		if card == nil {
			return study.ErrWrongCard
		}

		progress := models.CardProgress{
			SessionID:  session.ID,
			CardID:     card.ID,
			UserID:     userID,
			IsCorrect:  req.IsCorrect,
			ReviewedAt: time.Now(),
		}
		if err := tx.Create(&progress).Error; err != nil {
			return err
		}

		if err := engine.Answer(card.ID, req.IsCorrect); err != nil {
			return err
		}

		answered = recorder.last
		state = engine.State()
		_, correct, _ = engine.Summary()
		return nil
	})

	switch {
	case txErr == nil:
	case errors.Is(txErr, study.ErrSessionCompleted):
		http.Error(w, "Session is already completed", http.StatusConflict)
		return
	case errors.Is(txErr, study.ErrSessionClosed):
		http.Error(w, "Session is closed", http.StatusConflict)
		return
	case errors.Is(txErr, study.ErrWrongCard):
		http.Error(w, "Card is not next in the session sequence", http.StatusConflict)
		return
	case errors.Is(txErr, gorm.ErrDuplicatedKey):
		http.Error(w, "Card was already answered in this session", http.StatusConflict)
		return
	default:
		log.Println("progress recording failed:", txErr)
		http.Error(w, "Failed to record progress", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":   state.String(),
		"correct": correct,
		"stat":    answered,
	})
}

// CompleteSession freezes the summary once every card in the sequence has
// been answered. The counts come from the recorded progress, never from the
// client.
func (db *DBHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	session, err := db.findOwnedSession(userID, r.PathValue("sessionID"))
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if session.CompletedAt != nil {
		http.Error(w, "Session is already completed", http.StatusConflict)
		return
	}
	if session.ClosedAt != nil {
		http.Error(w, "Session is closed", http.StatusConflict)
		return
	}

	engine, _, err := db.rebuildEngine(session, nil)
	if err != nil {
		http.Error(w, "Failed to load session state", http.StatusInternalServerError)
		return
	}
	if engine.State() != study.Completed {
		http.Error(w, "Session still has unanswered cards", http.StatusConflict)
		return
	}

	// Accuracy is computed over the session's frozen TotalWords, not the
	// engine's live sequence; the two differ when a card was deleted
	// mid-session.
	_, correct, _ := engine.Summary()
	accuracy := study.Accuracy(correct, session.TotalWords)
	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.StudySession{}).
			Where("id = ? AND completed_at IS NULL AND closed_at IS NULL", session.ID).
			Updates(map[string]interface{}{
				"completed_at":  now,
				"correct_words": correct,
				"accuracy":      accuracy,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected != 1 {
			return study.ErrSessionCompleted
		}
		return tx.Model(&models.CardSet{}).
			Where("id = ?", session.SetID).
			Update("last_studied", now).Error
	})
	if errors.Is(err, study.ErrSessionCompleted) {
		http.Error(w, "Session is already completed", http.StatusConflict)
		return
	}
	if err != nil {
		log.Println("session completion failed:", err)
		http.Error(w, "Failed to complete session", http.StatusInternalServerError)
		return
	}

	session.CompletedAt = &now
	session.CorrectWords = correct
	session.Accuracy = accuracy
	writeJSON(w, http.StatusOK, session)
}

// CloseSession abandons an unfinished session. Stats recorded so far stay;
// the summary fields remain unset.
func (db *DBHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	session, err := db.findOwnedSession(userID, r.PathValue("sessionID"))
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}
	if session.CompletedAt != nil {
		http.Error(w, "Session is already completed", http.StatusConflict)
		return
	}
	if session.ClosedAt != nil {
		http.Error(w, "Session is already closed", http.StatusConflict)
		return
	}

	now := time.Now()
	if err := db.Model(session).Update("closed_at", now).Error; err != nil {
		http.Error(w, "Failed to close session", http.StatusInternalServerError)
		return
	}

	session.ClosedAt = &now
	writeJSON(w, http.StatusOK, session)
}

func (db *DBHandler) findOwnedSession(userID uint, publicID string) (*models.StudySession, error) {
	var session models.StudySession
	if err := db.Where("public_id = ? AND user_id = ?", publicID, userID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// rebuildEngine reconstructs the in-memory session state from the persisted
// sequence and progress rows. Each request loads, replays and discards it;
// nothing stays in memory between calls.
func (db *DBHandler) rebuildEngine(session *models.StudySession, recorder study.Recorder) (*study.Engine, []models.Card, error) {
	var cards []models.Card
	if err := db.Where("set_id = ?", session.SetID).Find(&cards).Error; err != nil {
		return nil, nil, err
	}
	byPublicID := make(map[string]models.Card, len(cards))
	for _, card := range cards {
		byPublicID[card.PublicID] = card
	}

	sequence := make([]models.Card, 0, session.TotalWords)
	for _, id := range strings.Split(session.CardOrder, ",") {
		card, ok := byPublicID[id]
		if !ok {
			// Card deleted mid-session; it stays in TotalWords but drops out
			// of the playable sequence.
			continue
		}
		sequence = append(sequence, card)
	}

	var progress []models.CardProgress
	if err := db.Where("session_id = ?", session.ID).Order("id ASC").Find(&progress).Error; err != nil {
		return nil, nil, err
	}
	outcomeByCard := make(map[uint]bool, len(progress))
	for _, p := range progress {
		outcomeByCard[p.CardID] = p.IsCorrect
	}

	// Outcomes are matched to sequence entries by card id, never by position.
	// A row for a card no longer in the sequence is ignored, so deleting an
	// answered card cannot shift its outcome onto the next card.
	var outcomes []bool
	for _, card := range sequence {
		correct, answered := outcomeByCard[card.ID]
		if !answered {
			break
		}
		outcomes = append(outcomes, correct)
	}

	engine, err := study.NewEngine(session.UserID, sequence, recorder, study.Options{
		Reversed: session.IsReversed,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := engine.Replay(outcomes); err != nil {
		return nil, nil, err
	}
	if session.ClosedAt != nil && engine.State() != study.Completed {
		_ = engine.Close()
	}
	return engine, sequence, nil
}

// capturingRecorder forwards to the accumulator and keeps the returned stat
// for the response body.
type capturingRecorder struct {
	inner *study.Accumulator
	last  *models.ReviewStat
}

func (c *capturingRecorder) Record(userID, cardID uint, correct bool) (*models.ReviewStat, error) {
	stat, err := c.inner.Record(userID, cardID, correct)
	if err != nil {
		return nil, err
	}
	c.last = stat
	return stat, nil
}
