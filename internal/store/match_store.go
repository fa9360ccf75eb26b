package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
)

type MatchStore struct {
	db *sqlx.DB
}

const (
	getMatchQuery    = "SELECT * FROM matches WHERE id = ?"
	createMatchQuery = "INSERT INTO matches (id, lobby_id, status) VALUES (:id, :lobby_id, :status)"

	submitMatchQuery = `
		UPDATE matches SET
		winner_id = ?,
		status = ?,
		completed_at = ?
		WHERE id = ? AND status = ?
	`
	completeMatchQuery = "UPDATE matches SET status = ? WHERE id = ? AND status = ?"

	createResultQuery = `
		INSERT INTO match_results (id, match_id, player_id, deck_id)
		VALUES (:id, :match_id, :player_id, :deck_id)
	`
	getResultQuery   = "SELECT * FROM match_results WHERE id = ?"
	getResultsQuery  = "SELECT * FROM match_results WHERE match_id = ?"
	setPlacementTx   = "UPDATE match_results SET placement = ?, elo_change = ? WHERE match_id = ? AND player_id = ?"
	validateResultTx = `
		UPDATE match_results SET
		validated = 1,
		validated_at = ?
		WHERE id = ? AND validated = 0 AND challenged = 0
	`
	challengeResultTx = `
		UPDATE match_results SET
		challenged = 1,
		challenge_reason = ?,
		validated_at = ?
		WHERE id = ? AND validated = 0 AND challenged = 0
	`
	countUnvalidatedTx = "SELECT COUNT(*) FROM match_results WHERE match_id = ? AND validated = 0"

	pendingValidationQuery = `
		SELECT match_results.* FROM match_results
		JOIN matches ON matches.id = match_results.match_id
		WHERE match_results.player_id = ?
		AND match_results.validated = 0
		AND match_results.challenged = 0
		AND matches.status = ?
		ORDER BY match_results.created_at ASC
		LIMIT 1
	`
	matchesByPlayerQuery = `
		SELECT match_results.* FROM match_results
		JOIN matches ON matches.id = match_results.match_id
		WHERE match_results.player_id = ?
		ORDER BY match_results.created_at DESC
		LIMIT ?
	`
)

func NewMatchStore(db *sqlx.DB) *MatchStore {
	return &MatchStore{db: db}
}

func (s *MatchStore) GetMatch(ctx context.Context, id uuid.UUID) (*league.Match, error) {
	var match league.Match
	err := s.db.GetContext(ctx, &match, getMatchQuery, id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*league.Match, error) {
	var match league.Match
	err := tx.GetContext(ctx, &match, getMatchQuery, id)
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (s *MatchStore) CreateMatchTx(ctx context.Context, tx *sqlx.Tx, match *league.Match) error {
	_, err := tx.NamedExecContext(ctx, createMatchQuery, match)
	return err
}

func (s *MatchStore) CreateResultsTx(ctx context.Context, tx *sqlx.Tx, results []league.MatchResult) error {
	if len(results) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createResultQuery, results)
	return err
}

// SubmitMatchTx records the winner and flips the match to
// pending_validation, guarded by the current status so only the first
// submission wins.
func (s *MatchStore) SubmitMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, winnerID uuid.UUID, completedAt time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, submitMatchQuery,
		winnerID, league.MatchPendingValidation, completedAt, id, league.MatchInProgress)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *MatchStore) CompleteMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, completeMatchQuery, league.MatchCompleted, id, league.MatchPendingValidation)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *MatchStore) GetResult(ctx context.Context, id uuid.UUID) (*league.MatchResult, error) {
	var result league.MatchResult
	err := s.db.GetContext(ctx, &result, getResultQuery, id)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *MatchStore) GetResultTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*league.MatchResult, error) {
	var result league.MatchResult
	err := tx.GetContext(ctx, &result, getResultQuery, id)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *MatchStore) GetResults(ctx context.Context, matchID uuid.UUID) ([]league.MatchResult, error) {
	var results []league.MatchResult
	err := s.db.SelectContext(ctx, &results, getResultsQuery, matchID)
	return results, err
}

func (s *MatchStore) GetResultsTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) ([]league.MatchResult, error) {
	var results []league.MatchResult
	err := tx.SelectContext(ctx, &results, getResultsQuery, matchID)
	return results, err
}

// SetPlacementTx records a participant's final rank along with the
// rating delta that rank will earn once the row is validated. Storing
// the delta here pins it to the ratings at submission time, so the
// order players later validate in cannot change anyone's outcome.
func (s *MatchStore) SetPlacementTx(ctx context.Context, tx *sqlx.Tx, matchID, playerID uuid.UUID, placement, eloChange int) error {
	_, err := tx.ExecContext(ctx, setPlacementTx, placement, eloChange, matchID, playerID)
	return err
}

// ValidateResultTx marks the row validated. The WHERE guard makes the
// commit idempotent: a row that was already validated or challenged is
// not touched and false is returned.
func (s *MatchStore) ValidateResultTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, validateResultTx, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *MatchStore) ChallengeResultTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, reason string, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, challengeResultTx, reason, at, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

func (s *MatchStore) CountUnvalidatedTx(ctx context.Context, tx *sqlx.Tx, matchID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, countUnvalidatedTx, matchID)
	return count, err
}

func (s *MatchStore) GetPendingValidation(ctx context.Context, playerID uuid.UUID) (*league.MatchResult, error) {
	var result league.MatchResult
	err := s.db.GetContext(ctx, &result, pendingValidationQuery, playerID, league.MatchPendingValidation)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *MatchStore) GetResultsByPlayer(ctx context.Context, playerID uuid.UUID, limit int) ([]league.MatchResult, error) {
	var results []league.MatchResult
	err := s.db.SelectContext(ctx, &results, matchesByPlayerQuery, playerID, limit)
	return results, err
}
