package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
)

type PlayerStore struct {
	db *sqlx.DB
}

const (
	getPlayerQuery           = "SELECT * FROM players WHERE id = ?"
	getPlayerByProviderQuery = `
        SELECT * FROM players
        WHERE provider = ?
        AND provider_id = ?
    `
	createPlayerQuery = `
		INSERT INTO players (id, email, username, rating, provider, provider_id, avatar_url) VALUES
		(:id, :email, :username, :rating, :provider, :provider_id, :avatar_url)
	`
	updateProfileQuery = `
		UPDATE players SET
		username = :username,
		avatar_url = :avatar_url
		WHERE id = :id
	`
	leaderboardQuery = `
		SELECT * FROM players
		WHERE matches_played > 0
		ORDER BY rating DESC
		LIMIT ?
	`
	applyRatingQuery = `
		UPDATE players SET
		rating = rating + ?,
		wins = wins + ?,
		losses = losses + ?,
		matches_played = matches_played + 1
		WHERE id = ?
	`
)

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) GetPlayer(ctx context.Context, id uuid.UUID) (*league.Player, error) {
	var player league.Player
	err := s.db.GetContext(ctx, &player, getPlayerQuery, id)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerStore) GetPlayerTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*league.Player, error) {
	var player league.Player
	err := tx.GetContext(ctx, &player, getPlayerQuery, id)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerStore) GetPlayerByProvider(ctx context.Context, provider, providerID string) (*league.Player, error) {
	var player league.Player
	err := s.db.GetContext(ctx, &player, getPlayerByProviderQuery, provider, providerID)
	if err != nil {
		return nil, err
	}
	return &player, nil
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, player *league.Player) error {
	_, err := s.db.NamedExecContext(ctx, createPlayerQuery, player)
	return err
}

func (s *PlayerStore) UpdateProfile(ctx context.Context, player *league.Player) error {
	_, err := s.db.NamedExecContext(ctx, updateProfileQuery, player)
	return err
}

func (s *PlayerStore) GetLeaderboard(ctx context.Context, limit int) ([]league.Player, error) {
	var players []league.Player
	err := s.db.SelectContext(ctx, &players, leaderboardQuery, limit)
	return players, err
}

// ApplyRatingChangeTx is the single write path for rating and win/loss
// counters. Rating changes only through validated match results.
func (s *PlayerStore) ApplyRatingChangeTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta, winsInc, lossesInc int) error {
	_, err := tx.ExecContext(ctx, applyRatingQuery, delta, winsInc, lossesInc, id)
	return err
}
