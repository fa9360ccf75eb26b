package league

import (
	"time"

	"github.com/google/uuid"
)

type Deck struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PlayerID      uuid.UUID `db:"player_id" json:"player_id"`
	Name          string    `db:"name" json:"name"`
	CommanderName string    `db:"commander_name" json:"commander_name"`
	ColorIdentity *string   `db:"color_identity" json:"color_identity"`
	DecklistURL   *string   `db:"decklist_url" json:"decklist_url"`
	Elo           int       `db:"elo" json:"elo"`
	Wins          int       `db:"wins" json:"wins"`
	GamesPlayed   int       `db:"games_played" json:"games_played"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
