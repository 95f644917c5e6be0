package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/kotoba-app/kotoba-api/csvio"
	"github.com/kotoba-app/kotoba-api/deck"
	"github.com/kotoba-app/kotoba-api/models"
)

// maxImportSize bounds an uploaded CSV body (4 MiB).
const maxImportSize = 4 << 20

// ImportCSV decodes an uploaded CSV body and appends the resulting cards to
// the set. The whole operation is best-effort: malformed rows are skipped by
// the codec, and a card the store rejects fails alone; the response reports
// imported/skipped/failed counts instead of treating partial success as
// total failure.
func (db *DBHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	userID, ok := db.requireUser(w, r)
	if !ok {
		return
	}

	set, err := db.findOwnedSet(userID, r.PathValue("setID"))
	if err != nil {
		http.Error(w, "Card set not found", http.StatusNotFound)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxImportSize))
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	drafts, warnings, err := csvio.Decode(string(body))
	if err != nil {
		if errors.Is(err, csvio.ErrEmptyInput) {
			http.Error(w, "CSV file is empty or has no data rows", http.StatusBadRequest)
			return
		}
		http.Error(w, "Failed to parse CSV", http.StatusBadRequest)
		return
	}

	var maxKey int
	if err := db.Model(&models.Card{}).
		Where("set_id = ?", set.ID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxKey).Error; err != nil {
		http.Error(w, "Failed to import cards", http.StatusInternalServerError)
		return
	}

	imported := 0
	failed := 0
	for _, draft := range drafts {
		publicID, err := gonanoid.New()
		if err != nil {
			failed++
			continue
		}
		maxKey = deck.AppendKey(maxKey)
		card := models.Card{
			PublicID:         publicID,
			SetID:            set.ID,
			FrontWord:        draft.FrontWord,
			FrontHint:        draft.FrontHint,
			FrontDescription: draft.FrontDescription,
			BackWord:         draft.BackWord,
			BackHint:         draft.BackHint,
			BackDescription:  draft.BackDescription,
			DisplayOrder:     maxKey,
		}
		if err := db.Create(&card).Error; err != nil {
			log.Println("import: card insert failed:", err)
			failed++
			continue
		}
		imported++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": imported,
		"skipped":  len(warnings),
		"failed":   failed,
		"warnings": warnings,
	})
}

// ExportCSV serializes the set's cards, in deck order, as a BOM-prefixed CSV
// attachment.
func (db *DBHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
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

	drafts := make([]csvio.CardDraft, len(cards))
	for i, card := range cards {
		drafts[i] = csvio.CardDraft{
			FrontWord:        card.FrontWord,
			FrontHint:        card.FrontHint,
			FrontDescription: card.FrontDescription,
			BackWord:         card.BackWord,
			BackHint:         card.BackHint,
			BackDescription:  card.BackDescription,
		}
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", set.Title+".csv"))
	io.WriteString(w, csvio.Encode(drafts))
}

// DownloadTemplate serves the sample CSV users fill in before their first
// import.
func (db *DBHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="flashcard_template.csv"`)
	io.WriteString(w, csvio.Template())
}
