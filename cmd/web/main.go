package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/pdhleague/pdh-league/internal/db"
	"github.com/pdhleague/pdh-league/internal/middleware"
	"github.com/pdhleague/pdh-league/internal/realtime"
	"github.com/pdhleague/pdh-league/internal/scheduler"
	"github.com/pdhleague/pdh-league/internal/service"
	"github.com/pdhleague/pdh-league/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	database := db.InitDB()
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	middleware.InitAuth()

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	hub := realtime.NewHub()

	playerStore := store.NewPlayerStore(database)
	deckStore := store.NewDeckStore(database)
	lobbyStore := store.NewLobbyStore(database)
	matchStore := store.NewMatchStore(database)
	reportStore := store.NewReportStore(database)
	contestStore := store.NewContestStore(database)

	services := &services{
		players:  service.NewPlayerService(database, playerStore, deckStore),
		decks:    service.NewDeckService(database, deckStore),
		lobbies:  service.NewLobbyService(database, lobbyStore, deckStore, playerStore, matchStore, hub),
		matches:  service.NewMatchService(database, matchStore, playerStore, deckStore, reportStore, hub),
		reports:  service.NewReportService(database, reportStore),
		contests: service.NewContestService(database, contestStore),
	}

	sched, err := scheduler.Start(contestStore, lobbyStore)
	if err != nil {
		log.Fatal("Failed to start scheduler:", err)
	}
	defer sched.Shutdown()

	router := newRouter(sessionManager, playerStore, services, realtime.NewSocket(hub))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on http://localhost:%s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatal(err)
	}
}
