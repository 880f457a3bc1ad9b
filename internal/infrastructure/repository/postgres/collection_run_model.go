package postgres

import "time"

type collectionRunModel struct {
	ID               string    `db:"id"`
	RiotID           string    `db:"riot_id"`
	Region           string    `db:"region"`
	MatchCount       int       `db:"match_count"`
	OverallStatus    string    `db:"overall_status"`
	MatchStatus      string    `db:"match_status"`
	MasteryStatus    string    `db:"mastery_status"`
	MatchesProcessed int       `db:"matches_processed"`
	ErrorDetail      *string   `db:"error_detail"`
	StartedAt        time.Time `db:"started_at"`
	FinishedAt       time.Time `db:"finished_at"`
}
