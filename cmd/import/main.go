// Command import bulk-loads cards into a set from a CSV or Excel file.
//
//	go run ./cmd/import -file words.xlsx -user alice@example.com -set "N5 Vocabulary"
//
// CSV files go through the same codec as the browser import, so the same
// rows succeed or are skipped either way. Excel files are read sheet-first
// and mapped through identical validation.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/config"
	"github.com/kotoba-app/kotoba-api/csvio"
	"github.com/kotoba-app/kotoba-api/deck"
	"github.com/kotoba-app/kotoba-api/models"
)

func main() {
	var (
		file  = flag.String("file", "", "path to a .csv or .xlsx file (required)")
		email = flag.String("user", "", "email of the owning user (required)")
		title = flag.String("set", "", "set title; created when it does not exist (required)")
		sheet = flag.String("sheet", "Sheet1", "sheet name for .xlsx files")
	)
	flag.Parse()

	if *file == "" || *email == "" || *title == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	config.Connect()
	db := config.Database

	var user models.User
	if err := db.Where("email = ?", strings.ToLower(*email)).First(&user).Error; err != nil {
		log.Fatalf("user %s not found", *email)
	}

	drafts, warnings, err := loadDrafts(*file, *sheet)
	if err != nil {
		log.Fatalf("failed to read %s: %v", *file, err)
	}
	for _, warning := range warnings {
		log.Println("skipped:", warning)
	}

	set, err := findOrCreateSet(db, user.ID, *title)
	if err != nil {
		log.Fatalf("failed to prepare set: %v", err)
	}

	var maxKey int
	if err := db.Model(&models.Card{}).
		Where("set_id = ?", set.ID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&maxKey).Error; err != nil {
		log.Fatalf("failed to read existing order keys: %v", err)
	}

	created := 0
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
			log.Printf("insert failed for %q: %v", draft.FrontWord, err)
			failed++
			continue
		}
		created++
	}

	fmt.Printf("Set:      %s\n", set.Title)
	fmt.Printf("Processed: %d\n", len(drafts)+len(warnings))
	fmt.Printf("Created:   %d\n", created)
	fmt.Printf("Skipped:   %d\n", len(warnings))
	fmt.Printf("Failed:    %d\n", failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func loadDrafts(path, sheet string) ([]csvio.CardDraft, []string, error) {
	if strings.ToLower(filepath.Ext(path)) == ".xlsx" {
		return loadExcel(path, sheet)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	return csvio.Decode(string(data))
}

// loadExcel maps the first six columns of each row onto the CSV column
// schema and applies the same required-word validation as the codec.
func loadExcel(path, sheet string) ([]csvio.CardDraft, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) < 2 {
		return nil, nil, csvio.ErrEmptyInput
	}

	var (
		drafts   []csvio.CardDraft
		warnings []string
	)
	for i, row := range rows[1:] { // first row is the header
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}
		front, back := cell(0), cell(3)
		if front == "" || back == "" {
			warnings = append(warnings, fmt.Sprintf("row %d: front or back word is empty", i+2))
			continue
		}
		drafts = append(drafts, csvio.CardDraft{
			FrontWord:        front,
			FrontHint:        cell(1),
			FrontDescription: cell(2),
			BackWord:         back,
			BackHint:         cell(4),
			BackDescription:  cell(5),
		})
	}
	return drafts, warnings, nil
}

func findOrCreateSet(db *gorm.DB, userID uint, title string) (*models.CardSet, error) {
	var set models.CardSet
	err := db.Where("user_id = ? AND title = ?", userID, title).First(&set).Error
	if err == nil {
		return &set, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	publicID, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	set = models.CardSet{
		PublicID: publicID,
		Title:    title,
		UserID:   userID,
	}
	if err := db.Create(&set).Error; err != nil {
		return nil, err
	}
	return &set, nil
}
