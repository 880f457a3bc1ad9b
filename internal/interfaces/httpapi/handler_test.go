package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/collectionrun"
	"github.com/doyaji/rift-rewind/internal/domain/mastery"
	"github.com/doyaji/rift-rewind/internal/domain/match"
	"github.com/doyaji/rift-rewind/internal/infrastructure/blobstore/memory"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
	"github.com/doyaji/rift-rewind/internal/usecase"
)

type fakeRiotAPI struct {
	resolveErr error
}

func (f *fakeRiotAPI) ResolveAccount(_ context.Context, _ account.Region, id account.RiotID) (account.Identity, error) {
	if f.resolveErr != nil {
		return account.Identity{}, f.resolveErr
	}
	return account.Identity{PUUID: "puuid-1", GameName: id.GameName, TagLine: id.TagLine}, nil
}

func (f *fakeRiotAPI) ListMatchIDs(context.Context, account.Region, string, int) ([]string, error) {
	return []string{"KR_1"}, nil
}

func (f *fakeRiotAPI) GetMatch(_ context.Context, _ account.Region, matchID string) (match.Payload, []byte, error) {
	payload := match.Payload{
		Metadata: match.Metadata{MatchID: matchID},
		Info: match.Info{
			GameMode: "CLASSIC",
			Participants: []match.Participant{
				{PUUID: "puuid-1", ChampionName: "Ahri", ChampionID: 103, Kills: 5, Deaths: 1, Assists: 9, Win: true},
			},
		},
	}
	raw := []byte(fmt.Sprintf(`{"metadata":{"matchId":%q}}`, matchID))
	return payload, raw, nil
}

func (f *fakeRiotAPI) TopMasteries(context.Context, account.Region, string, int) ([]usecase.ExternalMastery, error) {
	return []usecase.ExternalMastery{{ChampionID: 103, ChampionLevel: 7, ChampionPoints: 250000}}, nil
}

type fakeRunRepo struct {
	mu   sync.Mutex
	runs []collectionrun.Run
}

func (r *fakeRunRepo) Record(_ context.Context, run collectionrun.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, run)
	return nil
}

func (r *fakeRunRepo) ListRecent(context.Context, string, int) ([]collectionrun.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]collectionrun.Run(nil), r.runs...), nil
}

func newTestRouter(api usecase.RiotAPI, store *memory.Store) http.Handler {
	return newTestRouterWithRuns(api, store, nil)
}

func newTestRouterWithRuns(api usecase.RiotAPI, store *memory.Store, runs collectionrun.Repository) http.Handler {
	logger := logging.NewNop()
	catalog := usecase.NewChampionCatalog(nil, "", logger)
	orchestrator := usecase.NewCollectionOrchestratorService(
		api,
		usecase.NewMatchCollectorService(api, store, logger),
		usecase.NewMasteryCollectorService(api, store, catalog, logger),
		runs,
		nil,
		logger,
		usecase.OrchestratorConfig{},
	)
	handler := NewHandler(
		orchestrator,
		usecase.NewMatchQueryService(store, logger),
		usecase.NewMasteryQueryService(store, logger),
		slog.New(slog.DiscardHandler),
	)
	return NewRouter(handler, slog.New(slog.DiscardHandler), []string{"*"})
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return body
}

func TestHealthzRoute(t *testing.T) {
	router := newTestRouter(&fakeRiotAPI{}, memory.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["status"] != "ok" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestCollectSummonerDataRoute(t *testing.T) {
	store := memory.New()
	router := newTestRouter(&fakeRiotAPI{}, store)

	payload := `{"riotId":"Hide on bush#KR1","region":"kr","matchCount":1}`
	req := httptest.NewRequest(http.MethodPost, "/v1/summoners/collect", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["overallStatus"] != "complete" {
		t.Fatalf("unexpected data: %v", data)
	}
	if data["summoner"] != "Hide on bush#KR1" {
		t.Fatalf("unexpected summoner: %v", data["summoner"])
	}

	// Collection must have landed in storage.
	if _, err := store.Get(context.Background(), "mastery-data/Hide_on_bush#KR1/mastery.json"); err != nil {
		t.Fatalf("expected stored mastery snapshot: %v", err)
	}
}

func TestCollectSummonerDataRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(&fakeRiotAPI{}, memory.New())

	req := httptest.NewRequest(http.MethodPost, "/v1/summoners/collect", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCollectSummonerDataValidatesPayload(t *testing.T) {
	router := newTestRouter(&fakeRiotAPI{}, memory.New())

	cases := []string{
		`{"region":"kr"}`,
		`{"riotId":"Faker#KR1","matchCount":21}`,
		`{"riotId":"Faker#KR1","unknownField":true}`,
	}
	for _, payload := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/summoners/collect", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %s: expected 400, got %d", payload, rec.Code)
		}
	}
}

func TestCollectSummonerDataUnknownPlayer(t *testing.T) {
	api := &fakeRiotAPI{resolveErr: fmt.Errorf("%w: riot id not found", usecase.ErrNotFound)}
	router := newTestRouter(api, memory.New())

	payload := `{"riotId":"Nobody#NA1","region":"na1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/summoners/collect", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	body := decodeEnvelope(t, rec)
	errorObj, _ := body["error"].(map[string]any)
	if errorObj["status"] != "NOT_FOUND" {
		t.Fatalf("unexpected error body: %v", body)
	}
}

func TestGetMatchHistoryRoute(t *testing.T) {
	store := memory.New()
	stats := match.PlayerStats{MatchID: "KR_1", ChampionName: "Ahri", Win: true}
	raw, _ := sonic.Marshal(stats)
	if err := store.Put(context.Background(), "match-history/Hide_on_bush#KR1/stats/KR_1_20260830_120000.json", raw, "application/json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	router := newTestRouter(&fakeRiotAPI{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/summoners/Hide%20on%20bush%23KR1/matches", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["totalMatches"] != float64(1) {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestGetMatchHistoryNoData(t *testing.T) {
	router := newTestRouter(&fakeRiotAPI{}, memory.New())

	req := httptest.NewRequest(http.MethodGet, "/v1/summoners/Hide%20on%20bush%23KR1/matches", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetMasteryDataRoute(t *testing.T) {
	store := memory.New()
	snapshot := mastery.NewSnapshot("Hide on bush#KR1", "kr", []mastery.Record{
		{ChampionID: 103, ChampionName: "Ahri", ChampionLevel: 7, ChampionPoints: 250000},
	}, time.Now())
	raw, _ := sonic.Marshal(snapshot)
	if err := store.Put(context.Background(), "mastery-data/Hide_on_bush#KR1/mastery.json", raw, "application/json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	router := newTestRouter(&fakeRiotAPI{}, store)

	req := httptest.NewRequest(http.MethodGet, "/v1/summoners/Hide%20on%20bush%23KR1/mastery", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["totalScore"] != float64(250000) {
		t.Fatalf("unexpected data: %v", data)
	}
}

func TestGetCollectionRunsRoute(t *testing.T) {
	repo := &fakeRunRepo{}
	router := newTestRouterWithRuns(&fakeRiotAPI{}, memory.New(), repo)

	payload := `{"riotId":"Hide on bush#KR1","region":"kr","matchCount":1}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/summoners/collect", strings.NewReader(payload)))
	if rec.Code != http.StatusOK {
		t.Fatalf("collect: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/summoners/Hide%20on%20bush%23KR1/runs", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	data, _ := body["data"].(map[string]any)
	if data["totalRuns"] != float64(1) {
		t.Fatalf("unexpected data: %v", data)
	}
	runs, _ := data["runs"].([]any)
	if len(runs) != 1 {
		t.Fatalf("runs: %v", data["runs"])
	}
	run, _ := runs[0].(map[string]any)
	if run["riotId"] != "Hide on bush#KR1" || run["overallStatus"] != "complete" {
		t.Fatalf("run: %v", run)
	}
	if run["id"] == "" || run["id"] == nil {
		t.Fatalf("run id missing: %v", run)
	}
}

func TestGetCollectionRunsValidatesRiotID(t *testing.T) {
	router := newTestRouterWithRuns(&fakeRiotAPI{}, memory.New(), &fakeRunRepo{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/summoners/no-tag-here/runs", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeEnvelope(t, rec)
	errBody, _ := body["error"].(map[string]any)
	if errBody["status"] != "INVALID_ARGUMENT" {
		t.Fatalf("unexpected error body: %v", body)
	}
}
