package league

import (
	"time"

	"github.com/google/uuid"
)

type ContextKey string

const PlayerKey ContextKey = "player"

type Player struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	Username      string    `db:"username" json:"username"`
	Rating        int       `db:"rating" json:"rating"`
	Wins          int       `db:"wins" json:"wins"`
	Losses        int       `db:"losses" json:"losses"`
	Draws         int       `db:"draws" json:"draws"`
	MatchesPlayed int       `db:"matches_played" json:"matches_played"`
	IsAdmin       bool      `db:"is_admin" json:"is_admin"`
	Provider      *string   `db:"provider" json:"-"`
	ProviderID    *string   `db:"provider_id" json:"-"`
	AvatarURL     *string   `db:"avatar_url" json:"avatar_url"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
