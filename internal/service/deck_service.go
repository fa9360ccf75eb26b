package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/rating"
	"github.com/pdhleague/pdh-league/internal/store"
	"github.com/pdhleague/pdh-league/internal/utils"
)

type DeckService struct {
	db    *sqlx.DB
	decks *store.DeckStore
}

func NewDeckService(db *sqlx.DB, decks *store.DeckStore) *DeckService {
	return &DeckService{db: db, decks: decks}
}

type DeckInput struct {
	Name          string
	CommanderName string
	ColorIdentity string
	DecklistURL   string
}

func (s *DeckService) Register(ctx context.Context, playerID uuid.UUID, input DeckInput) (*league.Deck, error) {
	deck := &league.Deck{
		ID:            uuid.New(),
		PlayerID:      playerID,
		Name:          input.Name,
		CommanderName: input.CommanderName,
		ColorIdentity: utils.StringOrNil(input.ColorIdentity),
		DecklistURL:   utils.StringOrNil(input.DecklistURL),
		Elo:           rating.StartingRating,
		IsActive:      true,
	}
	if err := s.decks.CreateDeck(ctx, deck); err != nil {
		return nil, err
	}
	return deck, nil
}

// Deactivate retires a deck. Decks are never deleted; their history
// stays attached to past matches.
func (s *DeckService) Deactivate(ctx context.Context, playerID, deckID uuid.UUID) error {
	deck, err := s.decks.GetDeck(ctx, deckID)
	if err != nil {
		return err
	}
	if deck.PlayerID != playerID {
		return ErrDeckNotUsable
	}
	return s.decks.SetDeckActive(ctx, deckID, false)
}

func (s *DeckService) ListMine(ctx context.Context, playerID uuid.UUID) ([]league.Deck, error) {
	return s.decks.GetDecksByPlayer(ctx, playerID)
}
