package league

import (
	"time"

	"github.com/google/uuid"
)

type ReportStatus string

const (
	ReportPending   ReportStatus = "pending"
	ReportResolved  ReportStatus = "resolved"
	ReportDismissed ReportStatus = "dismissed"
)

type Report struct {
	ID               uuid.UUID    `db:"id" json:"id"`
	ReporterID       uuid.UUID    `db:"reporter_id" json:"reporter_id"`
	ReportedPlayerID uuid.UUID    `db:"reported_player_id" json:"reported_player_id"`
	MatchID          *uuid.UUID   `db:"match_id" json:"match_id"`
	Reason           string       `db:"reason" json:"reason"`
	Details          *string      `db:"details" json:"details"`
	Status           ReportStatus `db:"status" json:"status"`
	CreatedAt        time.Time    `db:"created_at" json:"created_at"`
	ResolvedAt       *time.Time   `db:"resolved_at" json:"resolved_at"`
}
