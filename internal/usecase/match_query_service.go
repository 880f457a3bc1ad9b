package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/domain/match"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

const maxStoredMatches = 100

// StoredMatch is one extracted stats document plus its storage
// metadata.
type StoredMatch struct {
	match.PlayerStats
	StorageLocation string `json:"s3Location"`
	LastModified    string `json:"lastModified"`
	FileSize        int64  `json:"fileSize"`
}

type MatchSummary struct {
	Wins    int     `json:"wins"`
	Losses  int     `json:"losses"`
	WinRate float64 `json:"winRate"`
}

type ChampionSummary struct {
	ChampionName string  `json:"championName"`
	Games        int     `json:"games"`
	Wins         int     `json:"wins"`
	WinRate      float64 `json:"winRate"`
}

type MatchQueryResult struct {
	Summoner     string            `json:"summoner"`
	TotalMatches int               `json:"totalMatches"`
	Summary      MatchSummary      `json:"summary"`
	TopChampions []ChampionSummary `json:"topChampions"`
	Matches      []StoredMatch     `json:"matches"`
	DataLocation string            `json:"dataLocation"`
	LastUpdated  string            `json:"lastUpdated"`
}

// MatchQueryService reads previously collected match stats back out of
// blob storage and aggregates them.
type MatchQueryService struct {
	store  blob.Store
	logger *logging.Logger
}

func NewMatchQueryService(store blob.Store, logger *logging.Logger) *MatchQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchQueryService{store: store, logger: logger}
}

func (s *MatchQueryService) GetMatchData(ctx context.Context, rawRiotID string) (MatchQueryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchQuery.GetMatchData")
	defer span.End()

	riotID, err := account.ParseRiotID(rawRiotID)
	if err != nil {
		return MatchQueryResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	prefix := fmt.Sprintf("match-history/%s/stats/", riotID.SafeName())
	objects, err := s.store.List(ctx, prefix, maxStoredMatches)
	if err != nil {
		return MatchQueryResult{}, fmt.Errorf("list match data: %w", err)
	}
	if len(objects) == 0 {
		return MatchQueryResult{}, fmt.Errorf("%w: no match history found for %s, collect data first", ErrNotFound, riotID)
	}

	matches := make([]StoredMatch, 0, len(objects))
	for _, obj := range objects {
		raw, err := s.store.Get(ctx, obj.Key)
		if err != nil {
			s.logger.WarnContext(ctx, "skip unreadable match file", "key", obj.Key, "error", err)
			continue
		}
		var stats match.PlayerStats
		if err := sonic.Unmarshal(raw, &stats); err != nil {
			s.logger.WarnContext(ctx, "skip malformed match file", "key", obj.Key, "error", err)
			continue
		}
		matches = append(matches, StoredMatch{
			PlayerStats:     stats,
			StorageLocation: obj.Key,
			LastModified:    obj.LastModified.UTC().Format(time.RFC3339),
			FileSize:        obj.Size,
		})
	}
	if len(matches) == 0 {
		return MatchQueryResult{}, fmt.Errorf("%w: match files exist but none could be read for %s", ErrStorage, riotID)
	}

	wins := 0
	championStats := make(map[string]*ChampionSummary)
	for _, m := range matches {
		if m.Win {
			wins++
		}
		name := m.ChampionName
		if name == "" {
			name = "Unknown"
		}
		cs, ok := championStats[name]
		if !ok {
			cs = &ChampionSummary{ChampionName: name}
			championStats[name] = cs
		}
		cs.Games++
		if m.Win {
			cs.Wins++
		}
	}

	topChampions := make([]ChampionSummary, 0, len(championStats))
	for _, cs := range championStats {
		cs.WinRate = roundPct(cs.Wins, cs.Games)
		topChampions = append(topChampions, *cs)
	}
	sort.SliceStable(topChampions, func(i, j int) bool {
		if topChampions[i].Games != topChampions[j].Games {
			return topChampions[i].Games > topChampions[j].Games
		}
		return topChampions[i].ChampionName < topChampions[j].ChampionName
	})
	if len(topChampions) > 5 {
		topChampions = topChampions[:5]
	}

	total := len(matches)
	return MatchQueryResult{
		Summoner:     riotID.String(),
		TotalMatches: total,
		Summary: MatchSummary{
			Wins:    wins,
			Losses:  total - wins,
			WinRate: roundPct(wins, total),
		},
		TopChampions: topChampions,
		Matches:      matches,
		DataLocation: prefix,
		LastUpdated:  matches[0].LastModified,
	}, nil
}

// roundPct returns wins/games as a percentage with one decimal place.
func roundPct(wins, games int) float64 {
	if games == 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(games)*1000) / 10
}
