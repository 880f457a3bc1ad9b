package usecase

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/domain/match"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

const (
	storageTimestampLayout = "20060102_150405"
	// maxConsecutiveFetchFailures aborts the run when the upstream
	// keeps failing, instead of burning the remaining rate budget.
	maxConsecutiveFetchFailures = 3
)

type MatchCollectionInput struct {
	Identity account.Identity
	Region   account.Region
	Count    int
}

type MatchCollectionResult struct {
	MatchesProcessed int                    `json:"matchesProcessed"`
	Matches          []match.ProcessedMatch `json:"matches"`
	Message          string                 `json:"message"`
}

// MatchCollectorService fetches a player's recent matches, archives
// each full document, and stores an extracted per-player stats slice
// next to it.
type MatchCollectorService struct {
	riot   RiotAPI
	store  blob.Store
	logger *logging.Logger
	now    func() time.Time
}

func NewMatchCollectorService(riotAPI RiotAPI, store blob.Store, logger *logging.Logger) *MatchCollectorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchCollectorService{
		riot:   riotAPI,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

func (s *MatchCollectorService) Collect(ctx context.Context, input MatchCollectionInput) (MatchCollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchCollector.Collect")
	defer span.End()

	riotID := input.Identity.RiotID()
	safeName := riotID.SafeName()

	matchIDs, err := s.riot.ListMatchIDs(ctx, input.Region, input.Identity.PUUID, input.Count)
	if err != nil {
		return MatchCollectionResult{}, err
	}
	if len(matchIDs) == 0 {
		return MatchCollectionResult{}, fmt.Errorf("%w: no matches found for %s", ErrNotFound, riotID)
	}

	timestamp := s.now().UTC().Format(storageTimestampLayout)
	processed := make([]match.ProcessedMatch, 0, len(matchIDs))
	consecutiveFailures := 0

	for i, matchID := range matchIDs {
		if err := ctx.Err(); err != nil {
			return MatchCollectionResult{}, err
		}

		payload, raw, err := s.riot.GetMatch(ctx, input.Region, matchID)
		if err != nil {
			consecutiveFailures++
			s.logger.WarnContext(ctx, "skip match after fetch failure",
				"match_id", matchID,
				"position", fmt.Sprintf("%d/%d", i+1, len(matchIDs)),
				"consecutive_failures", consecutiveFailures,
				"error", err,
			)
			if consecutiveFailures >= maxConsecutiveFetchFailures {
				if len(processed) == 0 {
					return MatchCollectionResult{}, fmt.Errorf("fetching matches for %s keeps failing: %w", riotID, err)
				}
				s.logger.WarnContext(ctx, "aborting match collection after repeated fetch failures",
					"collected", len(processed), "remaining", len(matchIDs)-i-1)
				break
			}
			continue
		}
		consecutiveFailures = 0

		fullKey := fmt.Sprintf("match-history/%s/full/%s_%s.json", safeName, matchID, timestamp)
		if err := s.store.Put(ctx, fullKey, raw, "application/json"); err != nil {
			return MatchCollectionResult{}, fmt.Errorf("archive match %s: %w", matchID, err)
		}

		stats, err := match.ExtractPlayerStats(payload, input.Identity.PUUID)
		if err != nil {
			s.logger.WarnContext(ctx, "skip stats extraction", "match_id", matchID, "error", err)
			continue
		}

		statsJSON, err := sonic.MarshalIndent(stats, "", "  ")
		if err != nil {
			return MatchCollectionResult{}, fmt.Errorf("encode stats for %s: %w", matchID, err)
		}
		statsKey := fmt.Sprintf("match-history/%s/stats/%s_%s.json", safeName, matchID, timestamp)
		if err := s.store.Put(ctx, statsKey, statsJSON, "application/json"); err != nil {
			return MatchCollectionResult{}, fmt.Errorf("store stats for %s: %w", matchID, err)
		}

		processed = append(processed, match.ProcessedMatch{
			MatchID:          matchID,
			Champion:         stats.ChampionName,
			KDA:              stats.KDA(),
			Win:              stats.Win,
			FullDataLocation: fullKey,
			StatsLocation:    statsKey,
		})
	}

	if len(processed) == 0 {
		return MatchCollectionResult{}, fmt.Errorf("%w: no matches could be processed for %s", ErrUpstream, riotID)
	}

	return MatchCollectionResult{
		MatchesProcessed: len(processed),
		Matches:          processed,
		Message:          fmt.Sprintf("Successfully processed %d matches for %s", len(processed), riotID),
	}, nil
}

// wrapDeadline converts a deadline-driven failure into ErrTimeout so
// callers can report the collector as timed out rather than errored.
func wrapDeadline(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if crerr.Is(ctx.Err(), context.DeadlineExceeded) || crerr.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
