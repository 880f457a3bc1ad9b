// Package postgres persists the collection-run audit trail.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/doyaji/rift-rewind/internal/domain/collectionrun"
	"github.com/jmoiron/sqlx"
)

type CollectionRunRepository struct {
	db *sqlx.DB
}

func NewCollectionRunRepository(db *sqlx.DB) *CollectionRunRepository {
	return &CollectionRunRepository{db: db}
}

func (r *CollectionRunRepository) Record(ctx context.Context, run collectionrun.Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("run id is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	model := collectionRunModel{
		ID:               run.ID,
		RiotID:           run.RiotID,
		Region:           run.Region,
		MatchCount:       run.MatchCount,
		OverallStatus:    string(run.OverallStatus),
		MatchStatus:      run.MatchStatus,
		MasteryStatus:    run.MasteryStatus,
		MatchesProcessed: run.MatchesProcessed,
		ErrorDetail:      optionalString(run.ErrorDetail),
		StartedAt:        run.StartedAt.UTC(),
		FinishedAt:       run.FinishedAt.UTC(),
	}

	const query = `
INSERT INTO collection_runs (
    id, riot_id, region, match_count,
    overall_status, match_status, mastery_status,
    matches_processed, error_detail, started_at, finished_at
) VALUES (
    :id, :riot_id, :region, :match_count,
    :overall_status, :match_status, :mastery_status,
    :matches_processed, :error_detail, :started_at, :finished_at
)
ON CONFLICT (id) DO UPDATE SET
    overall_status = EXCLUDED.overall_status,
    match_status = EXCLUDED.match_status,
    mastery_status = EXCLUDED.mastery_status,
    matches_processed = EXCLUDED.matches_processed,
    error_detail = EXCLUDED.error_detail,
    finished_at = EXCLUDED.finished_at`

	if _, err := r.db.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("insert collection run %s: %w", run.ID, err)
	}
	return nil
}

func (r *CollectionRunRepository) ListRecent(ctx context.Context, riotID string, limit int) ([]collectionrun.Run, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	const query = `
SELECT id, riot_id, region, match_count,
       overall_status, match_status, mastery_status,
       matches_processed, error_detail, started_at, finished_at
FROM collection_runs
WHERE riot_id = $1
ORDER BY started_at DESC
LIMIT $2`

	var models []collectionRunModel
	if err := r.db.SelectContext(ctx, &models, query, riotID, limit); err != nil {
		return nil, fmt.Errorf("list collection runs for %s: %w", riotID, err)
	}

	out := make([]collectionrun.Run, 0, len(models))
	for _, m := range models {
		run := collectionrun.Run{
			ID:               m.ID,
			RiotID:           m.RiotID,
			Region:           m.Region,
			MatchCount:       m.MatchCount,
			OverallStatus:    collectionrun.Status(m.OverallStatus),
			MatchStatus:      m.MatchStatus,
			MasteryStatus:    m.MasteryStatus,
			MatchesProcessed: m.MatchesProcessed,
			StartedAt:        m.StartedAt,
			FinishedAt:       m.FinishedAt,
		}
		if m.ErrorDetail != nil {
			run.ErrorDetail = *m.ErrorDetail
		}
		out = append(out, run)
	}
	return out, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
