package usecase

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/domain/mastery"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

const topMasteryCount = 10

type MasteryCollectionInput struct {
	Identity account.Identity
	Region   account.Region
}

type MasteryCollectionResult struct {
	TotalScore      int              `json:"totalScore"`
	ChampionCount   int              `json:"championCount"`
	MasteryLevels   mastery.Levels   `json:"masteryLevels"`
	TopChampions    []mastery.Record `json:"topChampions"`
	StorageLocation string           `json:"s3Location"`
	Message         string           `json:"message"`
}

// MasteryCollectorService fetches a player's top champion masteries,
// enriches them with champion names, and overwrites the stored
// snapshot.
type MasteryCollectorService struct {
	riot    RiotAPI
	store   blob.Store
	catalog *ChampionCatalog
	logger  *logging.Logger
	now     func() time.Time
}

func NewMasteryCollectorService(riotAPI RiotAPI, store blob.Store, catalog *ChampionCatalog, logger *logging.Logger) *MasteryCollectorService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MasteryCollectorService{
		riot:    riotAPI,
		store:   store,
		catalog: catalog,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *MasteryCollectorService) Collect(ctx context.Context, input MasteryCollectionInput) (MasteryCollectionResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MasteryCollector.Collect")
	defer span.End()

	riotID := input.Identity.RiotID()

	entries, err := s.riot.TopMasteries(ctx, input.Region, input.Identity.PUUID, topMasteryCount)
	if err != nil {
		return MasteryCollectionResult{}, err
	}

	records := make([]mastery.Record, 0, len(entries))
	for _, entry := range entries {
		records = append(records, mastery.Record{
			ChampionID:                   entry.ChampionID,
			ChampionName:                 s.catalog.Name(ctx, entry.ChampionID),
			ChampionLevel:                entry.ChampionLevel,
			ChampionPoints:               entry.ChampionPoints,
			LastPlayTime:                 entry.LastPlayTime,
			ChampionPointsSinceLastLevel: entry.PointsSinceLastLevel,
			ChampionPointsUntilNextLevel: entry.PointsUntilNextLevel,
			TokensEarned:                 entry.TokensEarned,
			ChestGranted:                 entry.ChestGranted,
		})
	}

	snapshot := mastery.NewSnapshot(riotID.String(), input.Region.String(), records, s.now().UTC())

	snapshotJSON, err := sonic.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return MasteryCollectionResult{}, fmt.Errorf("encode mastery snapshot: %w", err)
	}
	key := fmt.Sprintf("mastery-data/%s/mastery.json", riotID.SafeName())
	if err := s.store.Put(ctx, key, snapshotJSON, "application/json"); err != nil {
		return MasteryCollectionResult{}, fmt.Errorf("store mastery snapshot: %w", err)
	}

	return MasteryCollectionResult{
		TotalScore:      snapshot.TotalScore,
		ChampionCount:   len(snapshot.Masteries),
		MasteryLevels:   snapshot.Levels(),
		TopChampions:    snapshot.Top(5),
		StorageLocation: key,
		Message:         fmt.Sprintf("Successfully collected mastery data for %s", riotID),
	}, nil
}
