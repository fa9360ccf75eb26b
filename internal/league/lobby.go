package league

import (
	"time"

	"github.com/google/uuid"
)

type LobbyStatus string

const (
	LobbyWaiting    LobbyStatus = "waiting"
	LobbyInProgress LobbyStatus = "in_progress"
)

// LobbyCapacity is the fixed player count of a Commander pod.
const LobbyCapacity = 4

type Lobby struct {
	ID        uuid.UUID   `db:"id" json:"id"`
	Name      string      `db:"name" json:"name"`
	CreatedBy uuid.UUID   `db:"created_by" json:"created_by"`
	Status    LobbyStatus `db:"status" json:"status"`
	CreatedAt time.Time   `db:"created_at" json:"created_at"`
}

type LobbyPlayer struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	LobbyID   uuid.UUID  `db:"lobby_id" json:"lobby_id"`
	PlayerID  uuid.UUID  `db:"player_id" json:"player_id"`
	DeckID    uuid.UUID  `db:"deck_id" json:"deck_id"`
	IsReady   bool       `db:"is_ready" json:"is_ready"`
	ReadyAt   *time.Time `db:"ready_at" json:"ready_at"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
