// Package collectionrun records the outcome of each data-collection
// request for auditing.
package collectionrun

import (
	"context"
	"time"
)

type Status string

const (
	StatusComplete Status = "complete"
	StatusPartial  Status = "partial"
	StatusFailed   Status = "failed"
)

// Run is one collection attempt for a player.
type Run struct {
	ID               string
	RiotID           string
	Region           string
	MatchCount       int
	OverallStatus    Status
	MatchStatus      string
	MasteryStatus    string
	MatchesProcessed int
	ErrorDetail      string
	StartedAt        time.Time
	FinishedAt       time.Time
}

// Repository persists runs. Writes are best effort; collection results
// never depend on the audit trail being available.
type Repository interface {
	Record(ctx context.Context, run Run) error
	ListRecent(ctx context.Context, riotID string, limit int) ([]Run, error)
}
