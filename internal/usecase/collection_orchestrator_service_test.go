package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/collectionrun"
	"github.com/doyaji/rift-rewind/internal/domain/match"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

type recordingRunRepo struct {
	mu   sync.Mutex
	runs []collectionrun.Run
}

func (r *recordingRunRepo) Record(_ context.Context, run collectionrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *recordingRunRepo) ListRecent(context.Context, string, int) ([]collectionrun.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]collectionrun.Run(nil), r.runs...), nil
}

func newOrchestrator(api RiotAPI, store *stubStore, runs collectionrun.Repository) *CollectionOrchestratorService {
	logger := logging.NewNop()
	catalog := NewChampionCatalog(nil, "", logger)
	return NewCollectionOrchestratorService(
		api,
		NewMatchCollectorService(api, store, logger),
		NewMasteryCollectorService(api, store, catalog, logger),
		runs,
		nil,
		logger,
		OrchestratorConfig{},
	)
}

func healthyAPI(identity account.Identity) *stubRiotAPI {
	return &stubRiotAPI{
		resolveFunc: func(ctx context.Context, region account.Region, id account.RiotID) (account.Identity, error) {
			return identity, nil
		},
		listFunc: func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
			return []string{"KR_1"}, nil
		},
		getMatchFunc: func(ctx context.Context, region account.Region, matchID string) (match.Payload, []byte, error) {
			payload, raw := matchDoc(matchID, identity.PUUID, "Ahri", true)
			return payload, raw, nil
		},
		masteriesFunc: func(ctx context.Context, region account.Region, puuid string, count int) ([]ExternalMastery, error) {
			return []ExternalMastery{{ChampionID: 103, ChampionLevel: 7, ChampionPoints: 100}}, nil
		},
	}
}

func TestOrchestratorCompleteRun(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	repo := &recordingRunRepo{}
	svc := newOrchestrator(healthyAPI(identity), newStubStore(), repo)

	result, err := svc.Collect(context.Background(), CollectInput{RiotID: "hide ON bush#kr1", Region: "kr", MatchCount: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.OverallStatus != "complete" {
		t.Fatalf("overall: got %q", result.OverallStatus)
	}
	// Canonical casing comes from the resolved account, not the input.
	if result.Summoner != "Hide on bush#KR1" {
		t.Fatalf("summoner: got %q", result.Summoner)
	}
	if result.CollectionStatus.MatchHistory != "success" || result.CollectionStatus.Mastery != "success" {
		t.Fatalf("status: %+v", result.CollectionStatus)
	}
	if result.Data.MatchHistory == nil || result.Data.Mastery == nil {
		t.Fatal("expected both data sections")
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors: %+v", result.Errors)
	}
	if result.DataLocations.MatchHistory != "match-history/Hide_on_bush#KR1/" {
		t.Fatalf("locations: %+v", result.DataLocations)
	}

	runs, _ := repo.ListRecent(context.Background(), "", 0)
	if len(runs) != 1 {
		t.Fatalf("expected 1 audit run, got %d", len(runs))
	}
	if runs[0].OverallStatus != collectionrun.StatusComplete || runs[0].MatchesProcessed != 1 {
		t.Fatalf("audit run: %+v", runs[0])
	}
}

func TestOrchestratorPartialWhenMasteryFails(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	api := healthyAPI(identity)
	api.masteriesFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]ExternalMastery, error) {
		return nil, fmt.Errorf("%w: mastery down", ErrUpstream)
	}

	svc := newOrchestrator(api, newStubStore(), &recordingRunRepo{})
	result, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr"})
	if err != nil {
		t.Fatalf("partial runs must not return an error, got %v", err)
	}

	if result.OverallStatus != "partial" {
		t.Fatalf("overall: got %q", result.OverallStatus)
	}
	if result.CollectionStatus.Mastery != "failed" || result.Data.Mastery != nil {
		t.Fatalf("mastery section: %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Type != "mastery" {
		t.Fatalf("errors: %+v", result.Errors)
	}
}

func TestOrchestratorFailedWhenBothFail(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	api := healthyAPI(identity)
	api.listFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
		return nil, fmt.Errorf("%w: matches down", ErrUpstream)
	}
	api.masteriesFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]ExternalMastery, error) {
		return nil, fmt.Errorf("%w: mastery down", ErrUpstream)
	}

	svc := newOrchestrator(api, newStubStore(), &recordingRunRepo{})
	result, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr"})
	if !crerr.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	if result.OverallStatus != "failed" || len(result.Errors) != 2 {
		t.Fatalf("result: %+v", result)
	}
}

func TestOrchestratorResolveFailureFailsFast(t *testing.T) {
	t.Parallel()

	api := &stubRiotAPI{
		resolveFunc: func(ctx context.Context, region account.Region, id account.RiotID) (account.Identity, error) {
			return account.Identity{}, fmt.Errorf("%w: riot id not found", ErrNotFound)
		},
	}

	svc := newOrchestrator(api, newStubStore(), &recordingRunRepo{})
	_, err := svc.Collect(context.Background(), CollectInput{RiotID: "Nobody#NA1", Region: "na1"})
	if !crerr.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOrchestratorInputValidation(t *testing.T) {
	t.Parallel()

	svc := newOrchestrator(healthyAPI(testIdentity()), newStubStore(), nil)

	cases := []CollectInput{
		{RiotID: "NoSeparator", Region: "kr"},
		{RiotID: "Faker#KR1", Region: "mars1"},
		{RiotID: "Faker#KR1", Region: "kr", MatchCount: 21},
		{RiotID: "Faker#KR1", Region: "kr", MatchCount: -1},
	}
	for _, input := range cases {
		if _, err := svc.Collect(context.Background(), input); !crerr.Is(err, ErrInvalidInput) {
			t.Fatalf("input %+v: expected ErrInvalidInput, got %v", input, err)
		}
	}
}

func TestOrchestratorDefaultsMatchCount(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	api := healthyAPI(identity)
	gotCount := 0
	api.listFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
		gotCount = count
		return []string{"KR_1"}, nil
	}

	svc := newOrchestrator(api, newStubStore(), nil)
	if _, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCount != defaultMatchCount {
		t.Fatalf("expected default count %d, got %d", defaultMatchCount, gotCount)
	}
}

func TestOrchestratorUsesConfiguredDefaultMatchCount(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	api := healthyAPI(identity)
	gotCount := 0
	api.listFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
		gotCount = count
		return []string{"KR_1"}, nil
	}

	logger := logging.NewNop()
	store := newStubStore()
	svc := NewCollectionOrchestratorService(
		api,
		NewMatchCollectorService(api, store, logger),
		NewMasteryCollectorService(api, store, NewChampionCatalog(nil, "", logger), logger),
		nil,
		nil,
		logger,
		OrchestratorConfig{DefaultMatchCount: 7},
	)

	if _, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotCount != 7 {
		t.Fatalf("expected configured default count 7, got %d", gotCount)
	}
}

func TestOrchestratorListRuns(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	repo := &recordingRunRepo{}
	svc := newOrchestrator(healthyAPI(identity), newStubStore(), repo)

	if _, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr", MatchCount: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, err := svc.ListRuns(context.Background(), "hide ON bush#kr1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if runs[0].RiotID != "Hide on bush#KR1" || runs[0].OverallStatus != collectionrun.StatusComplete {
		t.Fatalf("run: %+v", runs[0])
	}

	if _, err := svc.ListRuns(context.Background(), "no-tag-here"); !crerr.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOrchestratorListRunsWithoutRepository(t *testing.T) {
	t.Parallel()

	svc := newOrchestrator(healthyAPI(testIdentity()), newStubStore(), nil)

	runs, err := svc.ListRuns(context.Background(), "Hide on bush#KR1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Fatalf("expected empty run list, got %v", runs)
	}
}

func TestOrchestratorCapturesCollectorPanic(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	api := healthyAPI(identity)
	api.listFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
		panic("unexpected provider payload")
	}

	svc := newOrchestrator(api, newStubStore(), &recordingRunRepo{})
	result, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr"})
	if err != nil {
		t.Fatalf("panic must degrade to partial, got error %v", err)
	}
	if result.OverallStatus != "partial" {
		t.Fatalf("overall: got %q", result.OverallStatus)
	}
	if len(result.Errors) != 1 || result.Errors[0].Type != "matchHistory" {
		t.Fatalf("errors: %+v", result.Errors)
	}
}

func TestOrchestratorCollectorTimeout(t *testing.T) {
	t.Parallel()

	identity := testIdentity()
	api := healthyAPI(identity)
	api.listFunc = func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	logger := logging.NewNop()
	catalog := NewChampionCatalog(nil, "", logger)
	store := newStubStore()
	svc := NewCollectionOrchestratorService(
		api,
		NewMatchCollectorService(api, store, logger),
		NewMasteryCollectorService(api, store, catalog, logger),
		nil,
		nil,
		logger,
		OrchestratorConfig{MatchTimeout: 50 * time.Millisecond},
	)

	result, err := svc.Collect(context.Background(), CollectInput{RiotID: "Hide on bush#KR1", Region: "kr"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CollectionStatus.MatchHistory != "failed" || result.OverallStatus != "partial" {
		t.Fatalf("result: %+v", result)
	}
}
