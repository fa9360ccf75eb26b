package league

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchInProgress        MatchStatus = "in_progress"
	MatchPendingValidation MatchStatus = "pending_validation"
	MatchCompleted         MatchStatus = "completed"
)

type Match struct {
	ID          uuid.UUID   `db:"id" json:"id"`
	LobbyID     uuid.UUID   `db:"lobby_id" json:"lobby_id"`
	Status      MatchStatus `db:"status" json:"status"`
	WinnerID    *uuid.UUID  `db:"winner_id" json:"winner_id"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	CompletedAt *time.Time  `db:"completed_at" json:"completed_at"`
}

// MatchResult is one player's row in a match. Placement is set by the
// result submission, validation and challenge flags by the owning player.
type MatchResult struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	MatchID         uuid.UUID  `db:"match_id" json:"match_id"`
	PlayerID        uuid.UUID  `db:"player_id" json:"player_id"`
	DeckID          uuid.UUID  `db:"deck_id" json:"deck_id"`
	Placement       *int       `db:"placement" json:"placement"`
	EloChange       *int       `db:"elo_change" json:"elo_change"`
	Validated       bool       `db:"validated" json:"validated"`
	Challenged      bool       `db:"challenged" json:"challenged"`
	ChallengeReason *string    `db:"challenge_reason" json:"challenge_reason"`
	ValidatedAt     *time.Time `db:"validated_at" json:"validated_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

func (r *MatchResult) IsWin() bool {
	return r.Placement != nil && *r.Placement == 1
}
