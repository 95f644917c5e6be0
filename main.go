package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/kotoba-app/kotoba-api/config"
	"github.com/kotoba-app/kotoba-api/handlers"
	"github.com/kotoba-app/kotoba-api/middleware"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	config.Connect()
	requireToken := middleware.EnsureValidToken()

	DBHandler := &handlers.DBHandler{DB: config.Database}
	mux := http.NewServeMux()

	// Auth
	mux.HandleFunc("POST /api/auth/signup", DBHandler.Signup)
	mux.HandleFunc("POST /api/auth/signin", DBHandler.Signin)
	mux.HandleFunc("POST /api/auth/signout", DBHandler.Signout)
	mux.Handle("GET /api/auth/me", requireToken(http.HandlerFunc(DBHandler.Me)))

	// Everything below needs a valid session token
	api := http.NewServeMux()

	// Card sets
	api.HandleFunc("GET /api/sets", DBHandler.ListCardSets)
	api.HandleFunc("POST /api/sets", DBHandler.CreateCardSet)
	api.HandleFunc("GET /api/sets/{setID}", DBHandler.GetCardSetByID)
	api.HandleFunc("PUT /api/sets/{setID}", DBHandler.UpdateCardSetByID)
	api.HandleFunc("DELETE /api/sets/{setID}", DBHandler.DeleteCardSetByID)

	// Cards
	api.HandleFunc("GET /api/sets/{setID}/cards", DBHandler.GetCardsForSet)
	api.HandleFunc("POST /api/sets/{setID}/cards", DBHandler.CreateCard)
	api.HandleFunc("PUT /api/sets/{setID}/cards/reorder", DBHandler.ReorderCards)
	api.HandleFunc("PUT /api/sets/{setID}/cards/{cardID}", DBHandler.UpdateCardByID)
	api.HandleFunc("PUT /api/sets/{setID}/cards/{cardID}/move", DBHandler.MoveCard)
	api.HandleFunc("DELETE /api/sets/{setID}/cards/{cardID}", DBHandler.DeleteCardByID)

	// CSV interchange
	api.HandleFunc("POST /api/sets/{setID}/import", DBHandler.ImportCSV)
	api.HandleFunc("GET /api/sets/{setID}/export", DBHandler.ExportCSV)
	api.HandleFunc("GET /api/cards/template", DBHandler.DownloadTemplate)

	// Study sessions
	api.HandleFunc("POST /api/sessions", DBHandler.StartSession)
	api.HandleFunc("GET /api/sessions/{sessionID}", DBHandler.GetSession)
	api.HandleFunc("PUT /api/sessions/{sessionID}/progress", DBHandler.RecordProgress)
	api.HandleFunc("PUT /api/sessions/{sessionID}/complete", DBHandler.CompleteSession)
	api.HandleFunc("DELETE /api/sessions/{sessionID}", DBHandler.CloseSession)

	// Stats
	api.HandleFunc("GET /api/sets/{setID}/stats", DBHandler.GetSetStats)

	mux.Handle("/api/", requireToken(api))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://kotoba-app.vercel.app"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(mux)

	serverAddr := "0.0.0.0:" + config.Env.Port
	log.Printf("Listening on %s", serverAddr)
	if err := http.ListenAndServe(serverAddr, corsHandler); err != nil {
		log.Fatal(err)
	}
}
