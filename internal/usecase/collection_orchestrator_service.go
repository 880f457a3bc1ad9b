package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/collectionrun"
	"github.com/doyaji/rift-rewind/internal/platform/id"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc/panics"
)

const (
	defaultMatchCount = 5
	maxMatchCount     = 20

	defaultMatchTimeout   = 50 * time.Second
	defaultMasteryTimeout = 30 * time.Second

	collectorStatusSuccess = "success"
	collectorStatusFailed  = "failed"
)

type CollectInput struct {
	RiotID     string
	Region     string
	MatchCount int
}

type CollectionStatus struct {
	MatchHistory string `json:"matchHistory"`
	Mastery      string `json:"mastery"`
}

type CollectionError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type CollectionData struct {
	MatchHistory *MatchCollectionResult   `json:"matchHistory,omitempty"`
	Mastery      *MasteryCollectionResult `json:"mastery,omitempty"`
}

type DataLocations struct {
	MatchHistory string `json:"matchHistory"`
	Mastery      string `json:"mastery"`
}

type CollectionResult struct {
	Summoner         string            `json:"summoner"`
	Region           string            `json:"region"`
	CollectionStatus CollectionStatus  `json:"collectionStatus"`
	Data             CollectionData    `json:"data"`
	Errors           []CollectionError `json:"errors"`
	DataLocations    DataLocations     `json:"dataLocations"`
	OverallStatus    string            `json:"overallStatus"`
	Message          string            `json:"message"`
}

// CollectionOrchestratorService resolves the player once, then runs
// the match and mastery collectors concurrently and merges their
// outcomes. One collector failing degrades the run to partial instead
// of failing it.
type CollectionOrchestratorService struct {
	riot      RiotAPI
	matches   *MatchCollectorService
	masteries *MasteryCollectorService
	runs      collectionrun.Repository
	ids       id.Generator
	logger    *logging.Logger

	matchTimeout   time.Duration
	masteryTimeout time.Duration
	defaultCount   int
	now            func() time.Time
}

type OrchestratorConfig struct {
	MatchTimeout   time.Duration
	MasteryTimeout time.Duration
	// DefaultMatchCount is used when a request leaves matchCount unset.
	DefaultMatchCount int
}

func NewCollectionOrchestratorService(
	riotAPI RiotAPI,
	matches *MatchCollectorService,
	masteries *MasteryCollectorService,
	runs collectionrun.Repository,
	ids id.Generator,
	logger *logging.Logger,
	cfg OrchestratorConfig,
) *CollectionOrchestratorService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MatchTimeout <= 0 {
		cfg.MatchTimeout = defaultMatchTimeout
	}
	if cfg.MasteryTimeout <= 0 {
		cfg.MasteryTimeout = defaultMasteryTimeout
	}
	if cfg.DefaultMatchCount < 1 || cfg.DefaultMatchCount > maxMatchCount {
		cfg.DefaultMatchCount = defaultMatchCount
	}
	if ids == nil {
		ids = id.NewRandomGenerator()
	}
	return &CollectionOrchestratorService{
		riot:           riotAPI,
		matches:        matches,
		masteries:      masteries,
		runs:           runs,
		ids:            ids,
		logger:         logger,
		matchTimeout:   cfg.MatchTimeout,
		masteryTimeout: cfg.MasteryTimeout,
		defaultCount:   cfg.DefaultMatchCount,
		now:            time.Now,
	}
}

func (s *CollectionOrchestratorService) Collect(ctx context.Context, input CollectInput) (CollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CollectionOrchestrator.Collect")
	defer span.End()

	startedAt := s.now().UTC()

	riotID, err := account.ParseRiotID(input.RiotID)
	if err != nil {
		return CollectionResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	region, err := account.ParseRegion(input.Region)
	if err != nil {
		return CollectionResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	matchCount := input.MatchCount
	if matchCount == 0 {
		matchCount = s.defaultCount
	}
	if matchCount < 1 || matchCount > maxMatchCount {
		return CollectionResult{}, fmt.Errorf("%w: match count must be between 1 and %d", ErrInvalidInput, maxMatchCount)
	}

	identity, err := s.riot.ResolveAccount(ctx, region, riotID)
	if err != nil {
		return CollectionResult{}, err
	}
	// Canonical casing comes from the account service.
	resolvedID := identity.RiotID()

	var (
		matchResult   MatchCollectionResult
		matchErr      error
		masteryResult MasteryCollectionResult
		masteryErr    error
	)

	pool, err := ants.NewPool(2)
	if err != nil {
		return CollectionResult{}, fmt.Errorf("create collector pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	workers.Add(1)
	if err := pool.Submit(func() {
		defer workers.Done()
		taskCtx, cancel := context.WithTimeout(ctx, s.matchTimeout)
		defer cancel()
		if recovered := panics.Try(func() {
			matchResult, matchErr = s.matches.Collect(taskCtx, MatchCollectionInput{
				Identity: identity,
				Region:   region,
				Count:    matchCount,
			})
		}); recovered != nil {
			matchErr = fmt.Errorf("match collector panicked: %v", recovered.Value)
		}
		matchErr = wrapDeadline(taskCtx, matchErr)
	}); err != nil {
		workers.Done()
		return CollectionResult{}, fmt.Errorf("submit match collector: %w", err)
	}

	workers.Add(1)
	if err := pool.Submit(func() {
		defer workers.Done()
		taskCtx, cancel := context.WithTimeout(ctx, s.masteryTimeout)
		defer cancel()
		if recovered := panics.Try(func() {
			masteryResult, masteryErr = s.masteries.Collect(taskCtx, MasteryCollectionInput{
				Identity: identity,
				Region:   region,
			})
		}); recovered != nil {
			masteryErr = fmt.Errorf("mastery collector panicked: %v", recovered.Value)
		}
		masteryErr = wrapDeadline(taskCtx, masteryErr)
	}); err != nil {
		workers.Done()
		return CollectionResult{}, fmt.Errorf("submit mastery collector: %w", err)
	}

	workers.Wait()

	result := s.mergeResults(resolvedID, region, matchResult, matchErr, masteryResult, masteryErr)
	s.recordRun(ctx, result, matchCount, startedAt, matchErr, masteryErr)

	if result.OverallStatus == string(collectionrun.StatusFailed) {
		return result, mergedFailure(matchErr, masteryErr)
	}
	return result, nil
}

const recentRunsLimit = 20

// ListRuns returns the most recently recorded collection runs for a
// riot id, newest first. An empty history is not an error.
func (s *CollectionOrchestratorService) ListRuns(ctx context.Context, rawRiotID string) ([]collectionrun.Run, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.CollectionOrchestrator.ListRuns")
	defer span.End()

	riotID, err := account.ParseRiotID(rawRiotID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.runs == nil {
		return []collectionrun.Run{}, nil
	}

	runs, err := s.runs.ListRecent(ctx, riotID.String(), recentRunsLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: list collection runs: %v", ErrStorage, err)
	}
	if runs == nil {
		runs = []collectionrun.Run{}
	}
	return runs, nil
}

func (s *CollectionOrchestratorService) mergeResults(
	riotID account.RiotID,
	region account.Region,
	matchResult MatchCollectionResult,
	matchErr error,
	masteryResult MasteryCollectionResult,
	masteryErr error,
) CollectionResult {
	safeName := riotID.SafeName()
	result := CollectionResult{
		Summoner: riotID.String(),
		Region:   region.String(),
		CollectionStatus: CollectionStatus{
			MatchHistory: collectorStatusFailed,
			Mastery:      collectorStatusFailed,
		},
		Errors: []CollectionError{},
		DataLocations: DataLocations{
			MatchHistory: fmt.Sprintf("match-history/%s/", safeName),
			Mastery:      fmt.Sprintf("mastery-data/%s/", safeName),
		},
	}

	if matchErr == nil {
		result.CollectionStatus.MatchHistory = collectorStatusSuccess
		result.Data.MatchHistory = &matchResult
	} else {
		result.Errors = append(result.Errors, CollectionError{Type: "matchHistory", Error: matchErr.Error()})
	}

	if masteryErr == nil {
		result.CollectionStatus.Mastery = collectorStatusSuccess
		result.Data.Mastery = &masteryResult
	} else {
		result.Errors = append(result.Errors, CollectionError{Type: "mastery", Error: masteryErr.Error()})
	}

	switch {
	case matchErr == nil && masteryErr == nil:
		result.OverallStatus = string(collectionrun.StatusComplete)
		result.Message = fmt.Sprintf("Successfully collected all data for %s", riotID)
	case matchErr == nil || masteryErr == nil:
		result.OverallStatus = string(collectionrun.StatusPartial)
		result.Message = fmt.Sprintf("Partially collected data for %s. Some data may be missing.", riotID)
	default:
		result.OverallStatus = string(collectionrun.StatusFailed)
		result.Message = fmt.Sprintf("Failed to collect data for %s. Please check the summoner name and try again.", riotID)
	}

	return result
}

func (s *CollectionOrchestratorService) recordRun(
	ctx context.Context,
	result CollectionResult,
	matchCount int,
	startedAt time.Time,
	matchErr, masteryErr error,
) {
	if s.runs == nil {
		return
	}

	runID, err := s.ids.NewID()
	if err != nil {
		s.logger.WarnContext(ctx, "skip collection run audit, id generation failed", "error", err)
		return
	}

	run := collectionrun.Run{
		ID:            runID,
		RiotID:        result.Summoner,
		Region:        result.Region,
		MatchCount:    matchCount,
		OverallStatus: collectionrun.Status(result.OverallStatus),
		MatchStatus:   result.CollectionStatus.MatchHistory,
		MasteryStatus: result.CollectionStatus.Mastery,
		StartedAt:     startedAt,
		FinishedAt:    s.now().UTC(),
	}
	if result.Data.MatchHistory != nil {
		run.MatchesProcessed = result.Data.MatchHistory.MatchesProcessed
	}
	run.ErrorDetail = joinErrorDetail(matchErr, masteryErr)

	if err := s.runs.Record(ctx, run); err != nil {
		s.logger.WarnContext(ctx, "record collection run failed", "run_id", runID, "error", err)
	}
}

func joinErrorDetail(matchErr, masteryErr error) string {
	switch {
	case matchErr != nil && masteryErr != nil:
		return fmt.Sprintf("matchHistory: %v; mastery: %v", matchErr, masteryErr)
	case matchErr != nil:
		return fmt.Sprintf("matchHistory: %v", matchErr)
	case masteryErr != nil:
		return fmt.Sprintf("mastery: %v", masteryErr)
	default:
		return ""
	}
}

// mergedFailure picks the sentinel to surface when both collectors
// fail, preferring the more specific classification.
func mergedFailure(matchErr, masteryErr error) error {
	for _, sentinel := range []error{ErrNotFound, ErrUnauthorized, ErrRateLimited, ErrDependencyUnavailable, ErrTimeout} {
		if crerr.Is(matchErr, sentinel) && crerr.Is(masteryErr, sentinel) {
			return fmt.Errorf("%w: both collectors failed", sentinel)
		}
	}
	return fmt.Errorf("%w: match history and mastery collection both failed", ErrUpstream)
}
