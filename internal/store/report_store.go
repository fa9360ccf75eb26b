package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pdhleague/pdh-league/internal/league"
)

type ReportStore struct {
	db *sqlx.DB
}

const (
	createReportQuery = `
		INSERT INTO reports (id, reporter_id, reported_player_id, match_id, reason, details, status)
		VALUES (:id, :reporter_id, :reported_player_id, :match_id, :reason, :details, :status)
	`
	getReportQuery         = "SELECT * FROM reports WHERE id = ?"
	listReportsQuery       = "SELECT * FROM reports WHERE status = ? ORDER BY created_at ASC"
	updateReportStatusStmt = "UPDATE reports SET status = ?, resolved_at = ? WHERE id = ? AND status = ?"
)

func NewReportStore(db *sqlx.DB) *ReportStore {
	return &ReportStore{db: db}
}

func (s *ReportStore) CreateReport(ctx context.Context, report *league.Report) error {
	_, err := s.db.NamedExecContext(ctx, createReportQuery, report)
	return err
}

func (s *ReportStore) CreateReportTx(ctx context.Context, tx *sqlx.Tx, report *league.Report) error {
	_, err := tx.NamedExecContext(ctx, createReportQuery, report)
	return err
}

func (s *ReportStore) GetReport(ctx context.Context, id uuid.UUID) (*league.Report, error) {
	var report league.Report
	err := s.db.GetContext(ctx, &report, getReportQuery, id)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (s *ReportStore) ListByStatus(ctx context.Context, status league.ReportStatus) ([]league.Report, error) {
	var reports []league.Report
	err := s.db.SelectContext(ctx, &reports, listReportsQuery, status)
	return reports, err
}

// UpdateStatus transitions a pending report to resolved or dismissed.
func (s *ReportStore) UpdateStatus(ctx context.Context, id uuid.UUID, to league.ReportStatus, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, updateReportStatusStmt, to, at, id, league.ReportPending)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
