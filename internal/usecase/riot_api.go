package usecase

import (
	"context"

	"github.com/doyaji/rift-rewind/internal/domain/account"
	"github.com/doyaji/rift-rewind/internal/domain/match"
)

// ExternalMastery is one champion-mastery row as the upstream API
// reports it, before champion-name enrichment.
type ExternalMastery struct {
	ChampionID           int
	ChampionLevel        int
	ChampionPoints       int
	LastPlayTime         int64
	PointsSinceLastLevel int
	PointsUntilNextLevel int
	TokensEarned         int
	ChestGranted         bool
}

// RiotAPI is the upstream surface the collectors depend on.
type RiotAPI interface {
	ResolveAccount(ctx context.Context, region account.Region, id account.RiotID) (account.Identity, error)
	ListMatchIDs(ctx context.Context, region account.Region, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, region account.Region, matchID string) (match.Payload, []byte, error)
	TopMasteries(ctx context.Context, region account.Region, puuid string, count int) ([]ExternalMastery, error)
}
