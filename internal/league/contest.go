package league

import (
	"time"

	"github.com/google/uuid"
)

type ContestStatus string

const (
	ContestOpen   ContestStatus = "open"
	ContestClosed ContestStatus = "closed"
)

type Contest struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description *string       `db:"description" json:"description"`
	StartDate   time.Time     `db:"start_date" json:"start_date"`
	EndDate     time.Time     `db:"end_date" json:"end_date"`
	Status      ContestStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

type ContestEntry struct {
	ID           uuid.UUID `db:"id" json:"id"`
	ContestID    uuid.UUID `db:"contest_id" json:"contest_id"`
	PlayerID     uuid.UUID `db:"player_id" json:"player_id"`
	DecklistURL  *string   `db:"decklist_url" json:"decklist_url"`
	DecklistText *string   `db:"decklist_text" json:"decklist_text"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
