package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/models"
)

func newTestHandler(t *testing.T) *DBHandler {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.CardSet{},
		&models.Card{},
		&models.ReviewStat{},
		&models.StudySession{},
		&models.CardProgress{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return &DBHandler{DB: db}
}

// newTestMux mirrors the route table the server registers, without the token
// middleware; tests inject validated claims directly.
func newTestMux(h *DBHandler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/signup", h.Signup)
	mux.HandleFunc("POST /api/auth/signin", h.Signin)
	mux.HandleFunc("POST /api/auth/signout", h.Signout)
	mux.HandleFunc("GET /api/auth/me", h.Me)

	mux.HandleFunc("GET /api/sets", h.ListCardSets)
	mux.HandleFunc("POST /api/sets", h.CreateCardSet)
	mux.HandleFunc("GET /api/sets/{setID}", h.GetCardSetByID)
	mux.HandleFunc("PUT /api/sets/{setID}", h.UpdateCardSetByID)
	mux.HandleFunc("DELETE /api/sets/{setID}", h.DeleteCardSetByID)

	mux.HandleFunc("GET /api/sets/{setID}/cards", h.GetCardsForSet)
	mux.HandleFunc("POST /api/sets/{setID}/cards", h.CreateCard)
	mux.HandleFunc("PUT /api/sets/{setID}/cards/reorder", h.ReorderCards)
	mux.HandleFunc("PUT /api/sets/{setID}/cards/{cardID}", h.UpdateCardByID)
	mux.HandleFunc("PUT /api/sets/{setID}/cards/{cardID}/move", h.MoveCard)
	mux.HandleFunc("DELETE /api/sets/{setID}/cards/{cardID}", h.DeleteCardByID)

	mux.HandleFunc("POST /api/sets/{setID}/import", h.ImportCSV)
	mux.HandleFunc("GET /api/sets/{setID}/export", h.ExportCSV)
	mux.HandleFunc("GET /api/cards/template", h.DownloadTemplate)

	mux.HandleFunc("POST /api/sessions", h.StartSession)
	mux.HandleFunc("GET /api/sessions/{sessionID}", h.GetSession)
	mux.HandleFunc("PUT /api/sessions/{sessionID}/progress", h.RecordProgress)
	mux.HandleFunc("PUT /api/sessions/{sessionID}/complete", h.CompleteSession)
	mux.HandleFunc("DELETE /api/sessions/{sessionID}", h.CloseSession)

	mux.HandleFunc("GET /api/sets/{setID}/stats", h.GetSetStats)

	return mux
}

// do issues a request against the mux as the given user. userID 0 leaves the
// request unauthenticated.
func do(t *testing.T, mux *http.ServeMux, userID uint, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, (&url.URL{Path: path}).String(), reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != 0 {
		claims := &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Subject: strconv.FormatUint(uint64(userID), 10),
			},
		}
		req = req.WithContext(context.WithValue(req.Context(), jwtmiddleware.ContextKey{}, claims))
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func seedUser(t *testing.T, h *DBHandler, email string) *models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", DisplayName: "Tester"}
	if err := h.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return &user
}

func seedSet(t *testing.T, h *DBHandler, userID uint, title string) *models.CardSet {
	t.Helper()
	set := models.CardSet{PublicID: "set-" + title, Title: title, UserID: userID}
	if err := h.Create(&set).Error; err != nil {
		t.Fatalf("failed to seed set: %v", err)
	}
	return &set
}

func seedCard(t *testing.T, h *DBHandler, setID uint, publicID, front, back string, order int) *models.Card {
	t.Helper()
	card := models.Card{
		PublicID:     publicID,
		SetID:        setID,
		FrontWord:    front,
		BackWord:     back,
		DisplayOrder: order,
	}
	if err := h.Create(&card).Error; err != nil {
		t.Fatalf("failed to seed card: %v", err)
	}
	return &card
}

// cardOrder reads back the set's public ids in stored deck order.
func cardOrder(t *testing.T, h *DBHandler, setID uint) []string {
	t.Helper()
	cards, err := h.orderedCards(setID)
	if err != nil {
		t.Fatalf("failed to load cards: %v", err)
	}
	ids := make([]string, len(cards))
	for i, card := range cards {
		ids[i] = card.PublicID
	}
	return ids
}
