package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/rating"
	"github.com/pdhleague/pdh-league/internal/store"
	"github.com/pdhleague/pdh-league/internal/utils"
)

type PlayerService struct {
	db      *sqlx.DB
	players *store.PlayerStore
	decks   *store.DeckStore
}

func NewPlayerService(db *sqlx.DB, players *store.PlayerStore, decks *store.DeckStore) *PlayerService {
	return &PlayerService{db: db, players: players, decks: decks}
}

func (s *PlayerService) FindOrCreateByProvider(ctx context.Context, gothUser goth.User) (*league.Player, error) {
	player, err := s.players.GetPlayerByProvider(ctx, gothUser.Provider, gothUser.UserID)
	if err == nil {
		if utils.OrZero(player.AvatarURL) != gothUser.AvatarURL {
			player.AvatarURL = &gothUser.AvatarURL
			s.players.UpdateProfile(ctx, player)
		}
		return player, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		username := gothUser.NickName
		if username == "" {
			username = gothUser.Name
		}
		newPlayer := &league.Player{
			ID:         uuid.New(),
			Email:      gothUser.Email,
			Username:   username,
			Rating:     rating.StartingRating,
			Provider:   &gothUser.Provider,
			ProviderID: &gothUser.UserID,
			AvatarURL:  &gothUser.AvatarURL,
		}
		err := s.players.CreatePlayer(ctx, newPlayer)
		return newPlayer, err
	}

	return nil, err
}

// GuestPlayerID identifies the shared local-play account.
const GuestPlayerID = "00000000-0000-0000-0000-000000000001"

func (s *PlayerService) EnsureGuestPlayer(ctx context.Context) (*league.Player, error) {
	guestID := uuid.MustParse(GuestPlayerID)
	player, err := s.players.GetPlayer(ctx, guestID)
	if err == nil {
		return player, nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		guest := &league.Player{
			ID:       guestID,
			Email:    "guest@pdh-league.app",
			Username: "Guest Player",
			Rating:   rating.StartingRating,
		}
		err := s.players.CreatePlayer(ctx, guest)
		return guest, err
	}
	return nil, err
}

func (s *PlayerService) GetProfile(ctx context.Context, id uuid.UUID) (*league.Player, error) {
	return s.players.GetPlayer(ctx, id)
}

func (s *PlayerService) UpdateUsername(ctx context.Context, id uuid.UUID, username string) (*league.Player, error) {
	player, err := s.players.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}
	player.Username = username
	if err := s.players.UpdateProfile(ctx, player); err != nil {
		return nil, err
	}
	return player, nil
}

const defaultLeaderboardSize = 50

// LeaderboardRow joins a player's standing with their rating tier.
type LeaderboardRow struct {
	league.Player
	Tier rating.Tier `json:"tier"`
}

func (s *PlayerService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardRow, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	players, err := s.players.GetLeaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}

	rows := make([]LeaderboardRow, 0, len(players))
	for _, p := range players {
		rows = append(rows, LeaderboardRow{Player: p, Tier: rating.TierFor(p.Rating)})
	}
	return rows, nil
}

func (s *PlayerService) DeckLeaderboard(ctx context.Context, limit int) ([]league.Deck, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}
	return s.decks.GetDeckLeaderboard(ctx, limit)
}
