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

type ReportService struct {
	db      *sqlx.DB
	reports *store.ReportStore
}

func NewReportService(db *sqlx.DB, reports *store.ReportStore) *ReportService {
	return &ReportService{db: db, reports: reports}
}

func (s *ReportService) Submit(ctx context.Context, reporterID, reportedPlayerID uuid.UUID, matchID *uuid.UUID, reason, details string) (*league.Report, error) {
	report := &league.Report{
		ID:               uuid.New(),
		ReporterID:       reporterID,
		ReportedPlayerID: reportedPlayerID,
		MatchID:          matchID,
		Reason:           reason,
		Details:          utils.StringOrNil(details),
		Status:           league.ReportPending,
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) ListByStatus(ctx context.Context, status league.ReportStatus) ([]league.Report, error) {
	return s.reports.ListByStatus(ctx, status)
}

// Resolve transitions a pending report; only pending reports move.
func (s *ReportService) Resolve(ctx context.Context, id uuid.UUID, to league.ReportStatus) error {
	if to != league.ReportResolved && to != league.ReportDismissed {
		return ErrConflict
	}
	moved, err := s.reports.UpdateStatus(ctx, id, to, time.Now().UTC())
	if err != nil {
		return err
	}
	if !moved {
		return ErrConflict
	}
	return nil
}
