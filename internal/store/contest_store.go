package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
)

type ContestStore struct {
	db *sqlx.DB
}

// ContestWithCount carries the entry count the contest listing shows.
type ContestWithCount struct {
	league.Contest
	EntryCount int `db:"entry_count" json:"entry_count"`
}

const (
	createContestQuery = `
		INSERT INTO contests (id, name, description, start_date, end_date, status)
		VALUES (:id, :name, :description, :start_date, :end_date, :status)
	`
	getContestQuery   = "SELECT * FROM contests WHERE id = ?"
	listContestsQuery = `
		SELECT contests.*, COUNT(contest_entries.id) AS entry_count
		FROM contests
		LEFT JOIN contest_entries ON contest_entries.contest_id = contests.id
		GROUP BY contests.id
		ORDER BY contests.end_date DESC
	`
	createEntryQuery = `
		INSERT INTO contest_entries (id, contest_id, player_id, decklist_url, decklist_text)
		VALUES (:id, :contest_id, :player_id, :decklist_url, :decklist_text)
	`
	listEntriesQuery   = "SELECT * FROM contest_entries WHERE contest_id = ? ORDER BY created_at ASC"
	closeExpiredUpdate = "UPDATE contests SET status = ? WHERE status = ? AND end_date < ?"
)

func NewContestStore(db *sqlx.DB) *ContestStore {
	return &ContestStore{db: db}
}

func (s *ContestStore) CreateContest(ctx context.Context, contest *league.Contest) error {
	_, err := s.db.NamedExecContext(ctx, createContestQuery, contest)
	return err
}

func (s *ContestStore) GetContest(ctx context.Context, id uuid.UUID) (*league.Contest, error) {
	var contest league.Contest
	err := s.db.GetContext(ctx, &contest, getContestQuery, id)
	if err != nil {
		return nil, err
	}
	return &contest, nil
}

func (s *ContestStore) ListContests(ctx context.Context) ([]ContestWithCount, error) {
	var contests []ContestWithCount
	err := s.db.SelectContext(ctx, &contests, listContestsQuery)
	return contests, err
}

func (s *ContestStore) CreateEntry(ctx context.Context, entry *league.ContestEntry) error {
	_, err := s.db.NamedExecContext(ctx, createEntryQuery, entry)
	return err
}

func (s *ContestStore) ListEntries(ctx context.Context, contestID uuid.UUID) ([]league.ContestEntry, error) {
	var entries []league.ContestEntry
	err := s.db.SelectContext(ctx, &entries, listEntriesQuery, contestID)
	return entries, err
}

func (s *ContestStore) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, closeExpiredUpdate, league.ContestClosed, league.ContestOpen, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
