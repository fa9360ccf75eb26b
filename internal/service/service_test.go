package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/realtime"
	"github.com/pdhleague/pdh-league/internal/store"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// a second pooled connection would see a different empty database
	database.SetMaxOpenConns(1)

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

type testEnv struct {
	db       *sqlx.DB
	players  *store.PlayerStore
	decks    *store.DeckStore
	lobbies  *LobbyService
	matches  *MatchService
	reports  *store.ReportStore
	contests *ContestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	t.Cleanup(func() { db.Close() })

	playerStore := store.NewPlayerStore(db)
	deckStore := store.NewDeckStore(db)
	lobbyStore := store.NewLobbyStore(db)
	matchStore := store.NewMatchStore(db)
	reportStore := store.NewReportStore(db)
	hub := realtime.NewHub()

	return &testEnv{
		db:       db,
		players:  playerStore,
		decks:    deckStore,
		lobbies:  NewLobbyService(db, lobbyStore, deckStore, playerStore, matchStore, hub),
		matches:  NewMatchService(db, matchStore, playerStore, deckStore, reportStore, hub),
		reports:  reportStore,
		contests: NewContestService(db, store.NewContestStore(db)),
	}
}

func (e *testEnv) createPlayer(t *testing.T, username string, ratingValue, matchesPlayed int) *league.Player {
	t.Helper()

	player := &league.Player{
		ID:       uuid.New(),
		Email:    username + "@example.com",
		Username: username,
		Rating:   ratingValue,
	}
	require.NoError(t, e.players.CreatePlayer(context.Background(), player))

	_, err := e.db.Exec("UPDATE players SET matches_played = ? WHERE id = ?", matchesPlayed, player.ID)
	require.NoError(t, err)
	player.MatchesPlayed = matchesPlayed
	return player
}

func (e *testEnv) createDeck(t *testing.T, playerID uuid.UUID) *league.Deck {
	t.Helper()

	deck := &league.Deck{
		ID:            uuid.New(),
		PlayerID:      playerID,
		Name:          "Test Deck " + uuid.NewString()[:8],
		CommanderName: "Test Commander",
		Elo:           1000,
		IsActive:      true,
	}
	require.NoError(t, e.decks.CreateDeck(context.Background(), deck))
	return deck
}

// createFullLobby seeds four players with decks and puts them in one lobby.
func (e *testEnv) createFullLobby(t *testing.T) (*league.Lobby, []*league.Player, []*league.Deck) {
	t.Helper()
	ctx := context.Background()

	players := make([]*league.Player, 4)
	decks := make([]*league.Deck, 4)
	for i, name := range []string{"alice", "bob", "carol", "dave"} {
		players[i] = e.createPlayer(t, name, 1000, 0)
		decks[i] = e.createDeck(t, players[i].ID)
	}

	lobby, err := e.lobbies.Create(ctx, players[0].ID, "test pod", decks[0].ID)
	require.NoError(t, err)
	for i := 1; i < 4; i++ {
		_, err := e.lobbies.Join(ctx, lobby.ID, players[i].ID, decks[i].ID)
		require.NoError(t, err)
	}
	return lobby, players, decks
}

// startMatch readies everyone and starts the match directly, without
// waiting out the countdown.
func (e *testEnv) startMatch(t *testing.T, lobby *league.Lobby, players []*league.Player) *league.Match {
	t.Helper()
	ctx := context.Background()

	e.lobbies.countdown = time.Hour
	for _, p := range players {
		require.NoError(t, e.lobbies.SetReady(ctx, lobby.ID, p.ID, true))
	}
	e.lobbies.cancelCountdown(lobby.ID)

	match, err := e.lobbies.Start(ctx, lobby.ID)
	require.NoError(t, err)
	return match
}
