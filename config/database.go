package config

import (
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kotoba-app/kotoba-api/models"
)

var Database *gorm.DB

// Connect opens the database and migrates the schema. With DB_URL set it
// targets the hosted postgres instance; without it, a local sqlite file so
// the server runs standalone in development.
func Connect() error {
	var (
		db  *gorm.DB
		err error
	)
	// TranslateError turns driver-specific unique violations into
	// gorm.ErrDuplicatedKey, which handlers map to 409s.
	cfg := &gorm.Config{TranslateError: true}
	if dbURL := os.Getenv("DB_URL"); dbURL != "" {
		db, err = gorm.Open(postgres.Open(dbURL), cfg)
	} else {
		log.Println("DB_URL not set, using local sqlite database")
		db, err = gorm.Open(sqlite.Open("kotoba.db"), cfg)
	}
	if err != nil {
		panic("failed to connect database")
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
		panic("failed to auto migrate database")
	}

	Database = db
	return nil
}
