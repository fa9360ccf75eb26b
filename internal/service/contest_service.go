package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
	"github.com/pdhleague/pdh-league/internal/store"
	"github.com/pdhleague/pdh-league/internal/utils"
)

type ContestService struct {
	db       *sqlx.DB
	contests *store.ContestStore
}

func NewContestService(db *sqlx.DB, contests *store.ContestStore) *ContestService {
	return &ContestService{db: db, contests: contests}
}

func (s *ContestService) Create(ctx context.Context, name, description string, start, end time.Time) (*league.Contest, error) {
	contest := &league.Contest{
		ID:          uuid.New(),
		Name:        name,
		Description: utils.StringOrNil(description),
		StartDate:   start,
		EndDate:     end,
		Status:      league.ContestOpen,
	}
	if err := s.contests.CreateContest(ctx, contest); err != nil {
		return nil, err
	}
	return contest, nil
}

// SubmitEntry accepts one entry per player per contest, only while the
// contest window is open.
func (s *ContestService) SubmitEntry(ctx context.Context, contestID, playerID uuid.UUID, decklistURL, decklistText string) (*league.ContestEntry, error) {
	contest, err := s.contests.GetContest(ctx, contestID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if contest.Status != league.ContestOpen || now.Before(contest.StartDate) || now.After(contest.EndDate) {
		return nil, ErrContestNotOpen
	}

	entry := &league.ContestEntry{
		ID:           uuid.New(),
		ContestID:    contestID,
		PlayerID:     playerID,
		DecklistURL:  utils.StringOrNil(decklistURL),
		DecklistText: utils.StringOrNil(decklistText),
	}
	if err := s.contests.CreateEntry(ctx, entry); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyEntered
		}
		return nil, err
	}
	return entry, nil
}

func (s *ContestService) List(ctx context.Context) ([]store.ContestWithCount, error) {
	return s.contests.ListContests(ctx)
}

type ContestData struct {
	Contest *league.Contest       `json:"contest"`
	Entries []league.ContestEntry `json:"entries"`
}

func (s *ContestService) Get(ctx context.Context, id uuid.UUID) (*ContestData, error) {
	contest, err := s.contests.GetContest(ctx, id)
	if err != nil {
		return nil, err
	}
	entries, err := s.contests.ListEntries(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ContestData{Contest: contest, Entries: entries}, nil
}
