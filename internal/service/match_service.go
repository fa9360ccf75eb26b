package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/rating"
	"github.com/pdhleague/pdh-league/internal/realtime"
	"github.com/pdhleague/pdh-league/internal/store"
)

type MatchService struct {
	db      *sqlx.DB
	matches *store.MatchStore
	players *store.PlayerStore
	decks   *store.DeckStore
	reports *store.ReportStore
	hub     *realtime.Hub
}

func NewMatchService(db *sqlx.DB, matches *store.MatchStore, players *store.PlayerStore,
	decks *store.DeckStore, reports *store.ReportStore, hub *realtime.Hub) *MatchService {
	return &MatchService{db: db, matches: matches, players: players, decks: decks, reports: reports, hub: hub}
}

type MatchResultData struct {
	Result league.MatchResult `json:"result"`
	Player *league.Player     `json:"player"`
	Deck   *league.Deck       `json:"deck"`
}

type MatchData struct {
	Match   *league.Match     `json:"match"`
	Results []MatchResultData `json:"results"`
}

// SubmitPlacements records the final ranking of all four participants.
// The mapping must be a bijection from the participants onto 1..4. The
// status guard on the match row means exactly one submission is accepted;
// a racing second submitter gets ErrConflict. Each participant's rating
// delta is computed here, from one snapshot of everyone's rating, and
// stored on the result row for validation to apply later.
func (s *MatchService) SubmitPlacements(ctx context.Context, matchID, actingPlayerID uuid.UUID, placements map[uuid.UUID]int) (*league.Match, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.matches.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	if match.Status != league.MatchInProgress {
		return nil, ErrMatchNotInProgress
	}

	results, err := s.matches.GetResultsTx(ctx, tx, matchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match results: %w", err)
	}

	acting := false
	for _, r := range results {
		if r.PlayerID == actingPlayerID {
			acting = true
			break
		}
	}
	if !acting {
		return nil, ErrNotAParticipant
	}

	winnerID, err := checkPlacements(results, placements)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	submitted, err := s.matches.SubmitMatchTx(ctx, tx, matchID, winnerID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to submit match: %w", err)
	}
	if !submitted {
		return nil, ErrConflict
	}

	participants := make([]*league.Player, 0, len(results))
	for _, r := range results {
		p, err := s.players.GetPlayerTx(ctx, tx, r.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get participant: %w", err)
		}
		participants = append(participants, p)
	}

	for _, p := range participants {
		opponents := make([]int, 0, rating.OpponentCount)
		for _, opp := range participants {
			if opp.ID != p.ID {
				opponents = append(opponents, opp.Rating)
			}
		}
		delta, err := rating.Change(p.Rating, opponents, placements[p.ID], p.MatchesPlayed)
		if err != nil {
			return nil, fmt.Errorf("failed to compute rating change: %w", err)
		}
		if err := s.matches.SetPlacementTx(ctx, tx, matchID, p.ID, placements[p.ID], delta); err != nil {
			return nil, fmt.Errorf("failed to set placement: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	match.Status = league.MatchPendingValidation
	match.WinnerID = &winnerID
	match.CompletedAt = &now

	s.hub.Publish(realtime.Event{Set: realtime.SetMatches, Action: realtime.ActionUpdate, ParentID: matchID, Payload: match})
	s.hub.Publish(realtime.Event{Set: realtime.SetMatchResults, Action: realtime.ActionUpdate, ParentID: matchID, Payload: placements})
	return match, nil
}

// checkPlacements verifies the submitted mapping covers every participant
// exactly once with each rank 1..4 used exactly once, and returns the
// placement-1 player.
func checkPlacements(results []league.MatchResult, placements map[uuid.UUID]int) (uuid.UUID, error) {
	if len(placements) != len(results) {
		return uuid.Nil, ErrInvalidPlacements
	}

	var winnerID uuid.UUID
	seen := make(map[int]bool, len(results))
	for _, r := range results {
		place, ok := placements[r.PlayerID]
		if !ok {
			return uuid.Nil, ErrInvalidPlacements
		}
		if place < 1 || place > len(results) || seen[place] {
			return uuid.Nil, ErrInvalidPlacements
		}
		seen[place] = true
		if place == 1 {
			winnerID = r.PlayerID
		}
	}
	return winnerID, nil
}

// Validate commits the caller's own result row: it marks the row
// validated and applies the stored rating delta to the player and deck,
// all in one transaction. The conditional update on the row guarantees
// the delta is applied at most once. Rating commitment is per player,
// independent of the other rows.
func (s *MatchService) Validate(ctx context.Context, resultID, actingPlayerID uuid.UUID) (*league.MatchResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := s.matches.GetResultTx(ctx, tx, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result.PlayerID != actingPlayerID {
		return nil, ErrNotYourResult
	}
	if result.Placement == nil || result.EloChange == nil {
		return nil, ErrPlacementsNotSubmitted
	}
	if result.Validated || result.Challenged {
		return nil, ErrResultAlreadyFinalized
	}
	delta := *result.EloChange

	now := time.Now().UTC()
	committed, err := s.matches.ValidateResultTx(ctx, tx, resultID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to validate result: %w", err)
	}
	if !committed {
		// row was finalized between our read and the update
		return nil, ErrConflict
	}

	winsInc, lossesInc := 0, 1
	if *result.Placement == 1 {
		winsInc, lossesInc = 1, 0
	}
	if err := s.players.ApplyRatingChangeTx(ctx, tx, actingPlayerID, delta, winsInc, lossesInc); err != nil {
		return nil, fmt.Errorf("failed to apply player rating change: %w", err)
	}
	if err := s.decks.ApplyResultTx(ctx, tx, result.DeckID, delta, winsInc); err != nil {
		return nil, fmt.Errorf("failed to apply deck result: %w", err)
	}

	remaining, err := s.matches.CountUnvalidatedTx(ctx, tx, result.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to count unvalidated results: %w", err)
	}
	if remaining == 0 {
		if _, err := s.matches.CompleteMatchTx(ctx, tx, result.MatchID); err != nil {
			return nil, fmt.Errorf("failed to complete match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	result.Validated = true
	result.ValidatedAt = &now

	s.hub.Publish(realtime.Event{Set: realtime.SetMatchResults, Action: realtime.ActionUpdate, ParentID: result.MatchID, Payload: result})
	return result, nil
}

// Challenge disputes the recorded placements instead of validating. It
// files a pending report for the admin queue in the same transaction.
// Ratings already committed by other players' validations stay applied;
// undoing them is a manual admin step.
func (s *MatchService) Challenge(ctx context.Context, resultID, actingPlayerID uuid.UUID, reason string) (*league.MatchResult, error) {
	if reason == "" {
		return nil, ErrChallengeReasonRequired
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := s.matches.GetResultTx(ctx, tx, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	if result.PlayerID != actingPlayerID {
		return nil, ErrNotYourResult
	}
	if result.Placement == nil {
		return nil, ErrPlacementsNotSubmitted
	}
	if result.Validated || result.Challenged {
		return nil, ErrResultAlreadyFinalized
	}

	match, err := s.matches.GetMatchTx(ctx, tx, result.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	now := time.Now().UTC()
	committed, err := s.matches.ChallengeResultTx(ctx, tx, resultID, reason, now)
	if err != nil {
		return nil, fmt.Errorf("failed to challenge result: %w", err)
	}
	if !committed {
		return nil, ErrConflict
	}

	reported := actingPlayerID
	if match.WinnerID != nil {
		reported = *match.WinnerID
	}
	report := &league.Report{
		ID:               uuid.New(),
		ReporterID:       actingPlayerID,
		ReportedPlayerID: reported,
		MatchID:          &result.MatchID,
		Reason:           "match result challenged",
		Details:          &reason,
		Status:           league.ReportPending,
	}
	if err := s.reports.CreateReportTx(ctx, tx, report); err != nil {
		return nil, fmt.Errorf("failed to file challenge report: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	result.Challenged = true
	result.ChallengeReason = &reason

	s.hub.Publish(realtime.Event{Set: realtime.SetMatchResults, Action: realtime.ActionUpdate, ParentID: result.MatchID, Payload: result})
	return result, nil
}

// Get fetches a match with its four results and their players and decks.
func (s *MatchService) Get(ctx context.Context, matchID uuid.UUID) (*MatchData, error) {
	match, err := s.matches.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	results, err := s.matches.GetResults(ctx, matchID)
	if err != nil {
		return nil, err
	}

	data := &MatchData{Match: match}
	for _, r := range results {
		player, err := s.players.GetPlayer(ctx, r.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to get result player: %w", err)
		}
		deck, err := s.decks.GetDeck(ctx, r.DeckID)
		if err != nil {
			return nil, fmt.Errorf("failed to get result deck: %w", err)
		}
		data.Results = append(data.Results, MatchResultData{Result: r, Player: player, Deck: deck})
	}
	return data, nil
}

// PendingValidation returns the caller's oldest unvalidated result row
// for a match awaiting validation, or nil when there is none.
func (s *MatchService) PendingValidation(ctx context.Context, playerID uuid.UUID) (*league.MatchResult, error) {
	result, err := s.matches.GetPendingValidation(ctx, playerID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return result, nil
}

func (s *MatchService) History(ctx context.Context, playerID uuid.UUID, limit int) ([]league.MatchResult, error) {
	return s.matches.GetResultsByPlayer(ctx, playerID, limit)
}
