package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/domain/match"
)

type stubRiotAPI struct {
	resolveFunc   func(ctx context.Context, region account.Region, id account.RiotID) (account.Identity, error)
	listFunc      func(ctx context.Context, region account.Region, puuid string, count int) ([]string, error)
	getMatchFunc  func(ctx context.Context, region account.Region, matchID string) (match.Payload, []byte, error)
	masteriesFunc func(ctx context.Context, region account.Region, puuid string, count int) ([]ExternalMastery, error)
}

func (s *stubRiotAPI) ResolveAccount(ctx context.Context, region account.Region, id account.RiotID) (account.Identity, error) {
	if s.resolveFunc == nil {
		return account.Identity{PUUID: "stub-puuid", GameName: id.GameName, TagLine: id.TagLine}, nil
	}
	return s.resolveFunc(ctx, region, id)
}

func (s *stubRiotAPI) ListMatchIDs(ctx context.Context, region account.Region, puuid string, count int) ([]string, error) {
	if s.listFunc == nil {
		return nil, fmt.Errorf("%w: no matches", ErrNotFound)
	}
	return s.listFunc(ctx, region, puuid, count)
}

func (s *stubRiotAPI) GetMatch(ctx context.Context, region account.Region, matchID string) (match.Payload, []byte, error) {
	if s.getMatchFunc == nil {
		return match.Payload{}, nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return s.getMatchFunc(ctx, region, matchID)
}

func (s *stubRiotAPI) TopMasteries(ctx context.Context, region account.Region, puuid string, count int) ([]ExternalMastery, error) {
	if s.masteriesFunc == nil {
		return nil, fmt.Errorf("%w: mastery unavailable", ErrUpstream)
	}
	return s.masteriesFunc(ctx, region, puuid, count)
}

type stubObject struct {
	body     []byte
	modified time.Time
}

// stubStore is a minimal in-memory blob.Store for service tests.
type stubStore struct {
	mu      sync.Mutex
	objects map[string]stubObject
	clock   time.Time
	putErr  error
	getErr  error
	listErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		objects: make(map[string]stubObject),
		clock:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func (s *stubStore) Put(_ context.Context, key string, body []byte, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(time.Second)
	cp := make([]byte, len(body))
	copy(cp, body)
	s.objects[key] = stubObject{body: cp, modified: s.clock}
	return nil
}

func (s *stubStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: object %s", ErrNotFound, key)
	}
	return obj.body, nil
}

func (s *stubStore) List(_ context.Context, prefix string, limit int) ([]blob.Object, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]blob.Object, 0, len(s.objects))
	for key, obj := range s.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, blob.Object{Key: key, Size: int64(len(obj.body)), LastModified: obj.modified})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.After(out[j].LastModified)
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ blob.Store = (*stubStore)(nil)

func testIdentity() account.Identity {
	return account.Identity{PUUID: "puuid-1", GameName: "Hide on bush", TagLine: "KR1"}
}

func matchDoc(matchID, puuid, champion string, win bool) (match.Payload, []byte) {
	payload := match.Payload{
		Metadata: match.Metadata{MatchID: matchID},
		Info: match.Info{
			GameMode: "CLASSIC",
			QueueID:  420,
			Participants: []match.Participant{
				{PUUID: puuid, ChampionName: champion, ChampionID: 103, Kills: 5, Deaths: 1, Assists: 9, Win: win},
			},
		},
	}
	raw := []byte(fmt.Sprintf(`{"metadata":{"matchId":%q},"info":{"gameMode":"CLASSIC"}}`, matchID))
	return payload, raw
}
