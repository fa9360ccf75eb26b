package service

import (
	"database/sql"
	"errors"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// Caller mistakes. These reject synchronously with no partial state change.
var (
	ErrLobbyFull               = errors.New("lobby is full")
	ErrLobbyNotJoinable        = errors.New("lobby is not accepting players")
	ErrAlreadyInLobby          = errors.New("player is already in this lobby")
	ErrNotInLobby              = errors.New("player is not in this lobby")
	ErrDeckNotUsable           = errors.New("deck is inactive or not owned by player")
	ErrMatchNotInProgress      = errors.New("match is not in progress")
	ErrNotAParticipant         = errors.New("player is not a participant of this match")
	ErrInvalidPlacements       = errors.New("placements must map each participant to a distinct rank 1-4")
	ErrPlacementsNotSubmitted  = errors.New("placements have not been submitted yet")
	ErrNotYourResult           = errors.New("result row belongs to another player")
	ErrResultAlreadyFinalized  = errors.New("result was already validated or challenged")
	ErrChallengeReasonRequired = errors.New("a challenge requires a reason")
	ErrContestNotOpen          = errors.New("contest is not open for entries")
	ErrAlreadyEntered          = errors.New("player already entered this contest")
	ErrNotAdmin                = errors.New("admin privileges required")
)

// ErrConflict marks a lost conditional write. The caller should re-fetch
// current state and decide whether to retry; it is distinct from a
// validation error.
var ErrConflict = errors.New("conflicting concurrent update")

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
