package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
)

type DeckStore struct {
	db *sqlx.DB
}

const (
	getDeckQuery = "SELECT * FROM decks WHERE id = ?"

	createDeckQuery = `
		INSERT INTO decks (id, player_id, name, commander_name, color_identity, decklist_url, elo)
		VALUES (:id, :player_id, :name, :commander_name, :color_identity, :decklist_url, :elo)
	`
	decksByPlayerQuery = "SELECT * FROM decks WHERE player_id = ? ORDER BY created_at DESC"

	setDeckActiveQuery = "UPDATE decks SET is_active = ? WHERE id = ?"

	deckLeaderboardQuery = `
		SELECT * FROM decks
		WHERE is_active = 1 AND games_played > 0
		ORDER BY elo DESC
		LIMIT ?
	`
	applyDeckResultQuery = `
		UPDATE decks SET
		elo = elo + ?,
		wins = wins + ?,
		games_played = games_played + 1
		WHERE id = ?
	`
)

func NewDeckStore(db *sqlx.DB) *DeckStore {
	return &DeckStore{db: db}
}

func (s *DeckStore) GetDeck(ctx context.Context, id uuid.UUID) (*league.Deck, error) {
	var deck league.Deck
	err := s.db.GetContext(ctx, &deck, getDeckQuery, id)
	if err != nil {
		return nil, err
	}
	return &deck, nil
}

func (s *DeckStore) CreateDeck(ctx context.Context, deck *league.Deck) error {
	_, err := s.db.NamedExecContext(ctx, createDeckQuery, deck)
	return err
}

func (s *DeckStore) GetDecksByPlayer(ctx context.Context, playerID uuid.UUID) ([]league.Deck, error) {
	var decks []league.Deck
	err := s.db.SelectContext(ctx, &decks, decksByPlayerQuery, playerID)
	return decks, err
}

func (s *DeckStore) SetDeckActive(ctx context.Context, id uuid.UUID, active bool) error {
	_, err := s.db.ExecContext(ctx, setDeckActiveQuery, active, id)
	return err
}

func (s *DeckStore) GetDeckLeaderboard(ctx context.Context, limit int) ([]league.Deck, error) {
	var decks []league.Deck
	err := s.db.SelectContext(ctx, &decks, deckLeaderboardQuery, limit)
	return decks, err
}

func (s *DeckStore) ApplyResultTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta, winsInc int) error {
	_, err := tx.ExecContext(ctx, applyDeckResultQuery, delta, winsInc, id)
	return err
}
