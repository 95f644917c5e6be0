package study

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/models"
)

func openTestDB(t *testing.T) *gorm.DB {
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
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func TestAccumulatorRecord(t *testing.T) {
	db := openTestDB(t)
	acc := &Accumulator{DB: db}

	// First observation creates the row.
	stat, err := acc.Record(1, 10, true)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if stat.Score != 1 || stat.TotalAttempts != 1 || stat.CorrectCount != 1 || stat.IncorrectCount != 0 {
		t.Errorf("after first pass: %+v", stat)
	}
	if stat.LastStudiedAt.IsZero() {
		t.Error("LastStudiedAt not set")
	}

	// pass, fail, pass: score nets to +1 while every attempt is counted.
	if _, err := acc.Record(1, 10, false); err != nil {
		t.Fatal(err)
	}
	stat, err = acc.Record(1, 10, true)
	if err != nil {
		t.Fatal(err)
	}
	if stat.Score != 1 {
		t.Errorf("score = %d, want 1", stat.Score)
	}
	if stat.TotalAttempts != 3 || stat.CorrectCount != 2 || stat.IncorrectCount != 1 {
		t.Errorf("counts = (%d, %d, %d), want (3, 2, 1)",
			stat.TotalAttempts, stat.CorrectCount, stat.IncorrectCount)
	}

	var rows int64
	if err := db.Model(&models.ReviewStat{}).Count(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if rows != 1 {
		t.Errorf("accumulation created %d rows, want 1", rows)
	}
}

func TestAccumulatorScoreGoesNegative(t *testing.T) {
	db := openTestDB(t)
	acc := &Accumulator{DB: db}

	var stat *models.ReviewStat
	var err error
	for i := 0; i < 3; i++ {
		stat, err = acc.Record(1, 10, false)
		if err != nil {
			t.Fatal(err)
		}
	}
	if stat.Score != -3 {
		t.Errorf("score = %d, want -3", stat.Score)
	}
	if stat.IncorrectCount != 3 || stat.CorrectCount != 0 {
		t.Errorf("counts = (%d, %d), want (3, 0)", stat.IncorrectCount, stat.CorrectCount)
	}
}

func TestAccumulatorKeysByUserAndCard(t *testing.T) {
	db := openTestDB(t)
	acc := &Accumulator{DB: db}

	if _, err := acc.Record(1, 10, true); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Record(2, 10, false); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Record(1, 11, true); err != nil {
		t.Fatal(err)
	}

	var rows int64
	if err := db.Model(&models.ReviewStat{}).Count(&rows).Error; err != nil {
		t.Fatal(err)
	}
	if rows != 3 {
		t.Errorf("got %d rows, want one per (user, card) pair", rows)
	}

	stat, err := acc.Record(2, 10, false)
	if err != nil {
		t.Fatal(err)
	}
	if stat.Score != -2 || stat.TotalAttempts != 2 {
		t.Errorf("second user's stat leaked into another pair: %+v", stat)
	}
}

func TestAccumulatorForSet(t *testing.T) {
	db := openTestDB(t)
	acc := &Accumulator{DB: db}

	set := models.CardSet{PublicID: "set-1", Title: "N5", UserID: 1}
	if err := db.Create(&set).Error; err != nil {
		t.Fatal(err)
	}
	other := models.CardSet{PublicID: "set-2", Title: "N4", UserID: 1}
	if err := db.Create(&other).Error; err != nil {
		t.Fatal(err)
	}

	cards := []models.Card{
		{PublicID: "c-1", SetID: set.ID, FrontWord: "one", BackWord: "一", DisplayOrder: 2000},
		{PublicID: "c-2", SetID: set.ID, FrontWord: "two", BackWord: "二", DisplayOrder: 1000},
		{PublicID: "c-3", SetID: other.ID, FrontWord: "three", BackWord: "三", DisplayOrder: 1000},
	}
	for i := range cards {
		if err := db.Create(&cards[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	// Study the first two cards as user 1 and the foreign-set card as well;
	// only the requested set's rows come back, in deck order.
	if _, err := acc.Record(1, cards[0].ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Record(1, cards[1].ID, false); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Record(1, cards[2].ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := acc.Record(2, cards[0].ID, true); err != nil {
		t.Fatal(err)
	}

	stats, err := acc.ForSet(1, set.ID)
	if err != nil {
		t.Fatalf("ForSet failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d stats, want 2", len(stats))
	}
	// Deck order, not study order: c-2 has the lower display key.
	if stats[0].CardID != cards[1].ID || stats[1].CardID != cards[0].ID {
		t.Errorf("stats out of deck order: %d, %d", stats[0].CardID, stats[1].CardID)
	}
	if stats[0].Score != -1 || stats[1].Score != 1 {
		t.Errorf("scores = (%d, %d), want (-1, 1)", stats[0].Score, stats[1].Score)
	}

	// A set with no studied cards yields an empty slice, not an error.
	empty, err := acc.ForSet(2, other.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no stats, got %d", len(empty))
	}
}
