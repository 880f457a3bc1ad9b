package usecase

import (
	"context"
	"fmt"
	"math"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/domain/mastery"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

type MasteryFileInfo struct {
	StorageLocation string `json:"s3Location"`
	LastModified    string `json:"lastModified"`
	FileSize        int64  `json:"fileSize"`
}

type MasteryStatistics struct {
	HighestLevel  int     `json:"highestLevel"`
	HighestPoints int     `json:"highestPoints"`
	AverageLevel  float64 `json:"averageLevel"`
}

type MasteryQueryResult struct {
	Summoner            string           `json:"summoner"`
	Region              string           `json:"region"`
	CollectedAt         string           `json:"collectedAt"`
	TotalScore          int              `json:"totalScore"`
	TotalChampions      int              `json:"totalChampions"`
	AveragePoints       float64          `json:"averagePoints"`
	MasteryLevels       map[string]int   `json:"masteryLevels"`
	TopChampions        []mastery.Record `json:"topChampions"`
	ChampionsWithTokens []mastery.Record `json:"championsWithTokens"`
	ChestsAvailable     int              `json:"chestsAvailable"`
	AllMasteries        []mastery.Record `json:"allMasteries"`
	FileInfo            MasteryFileInfo  `json:"fileInfo"`
	Statistics          MasteryStatistics `json:"statistics"`
}

// MasteryQueryService reads the latest stored mastery snapshot back
// out of blob storage with derived statistics.
type MasteryQueryService struct {
	store  blob.Store
	logger *logging.Logger
}

func NewMasteryQueryService(store blob.Store, logger *logging.Logger) *MasteryQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MasteryQueryService{store: store, logger: logger}
}

func (s *MasteryQueryService) GetMasteryData(ctx context.Context, rawRiotID string) (MasteryQueryResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MasteryQuery.GetMasteryData")
	defer span.End()

	riotID, err := account.ParseRiotID(rawRiotID)
	if err != nil {
		return MasteryQueryResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	prefix := fmt.Sprintf("mastery-data/%s/", riotID.SafeName())
	objects, err := s.store.List(ctx, prefix, 50)
	if err != nil {
		return MasteryQueryResult{}, fmt.Errorf("list mastery data: %w", err)
	}
	if len(objects) == 0 {
		return MasteryQueryResult{}, fmt.Errorf("%w: no mastery data found for %s, collect data first", ErrNotFound, riotID)
	}

	latest := objects[0]
	raw, err := s.store.Get(ctx, latest.Key)
	if err != nil {
		return MasteryQueryResult{}, fmt.Errorf("read mastery snapshot %s: %w", latest.Key, err)
	}
	var snapshot mastery.Snapshot
	if err := sonic.Unmarshal(raw, &snapshot); err != nil {
		return MasteryQueryResult{}, fmt.Errorf("%w: decode mastery snapshot %s: %v", ErrStorage, latest.Key, err)
	}

	result := MasteryQueryResult{
		Summoner:       snapshot.RiotID,
		Region:         snapshot.Region,
		CollectedAt:    snapshot.CollectedAt,
		TotalScore:     snapshot.TotalScore,
		TotalChampions: len(snapshot.Masteries),
		MasteryLevels:  levelCounts(snapshot.Masteries),
		TopChampions:   snapshot.Top(10),
		AllMasteries:   snapshot.Masteries,
		FileInfo: MasteryFileInfo{
			StorageLocation: latest.Key,
			LastModified:    latest.LastModified.UTC().Format(time.RFC3339),
			FileSize:        latest.Size,
		},
	}

	chestsAvailable := 0
	withTokens := make([]mastery.Record, 0, len(snapshot.Masteries))
	levelSum := 0
	for _, record := range snapshot.Masteries {
		if !record.ChestGranted {
			chestsAvailable++
		}
		if record.TokensEarned > 0 {
			withTokens = append(withTokens, record)
		}
		levelSum += record.ChampionLevel
		if record.ChampionLevel > result.Statistics.HighestLevel {
			result.Statistics.HighestLevel = record.ChampionLevel
		}
		if record.ChampionPoints > result.Statistics.HighestPoints {
			result.Statistics.HighestPoints = record.ChampionPoints
		}
	}
	result.ChestsAvailable = chestsAvailable
	result.ChampionsWithTokens = withTokens

	if count := len(snapshot.Masteries); count > 0 {
		result.AveragePoints = math.Round(float64(snapshot.TotalScore) / float64(count))
		result.Statistics.AverageLevel = math.Round(float64(levelSum)/float64(count)*100) / 100
	}

	return result, nil
}

func levelCounts(records []mastery.Record) map[string]int {
	out := make(map[string]int, 7)
	for level := 1; level <= 7; level++ {
		out[fmt.Sprintf("level%d", level)] = 0
	}
	for _, record := range records {
		if record.ChampionLevel >= 1 && record.ChampionLevel <= 7 {
			out[fmt.Sprintf("level%d", record.ChampionLevel)]++
		}
	}
	return out
}
