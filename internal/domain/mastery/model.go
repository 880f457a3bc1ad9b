package mastery

import (
	"sort"
	"time"
)

// Record is a single champion's mastery entry after enrichment with
// the champion name.
type Record struct {
	ChampionID                   int    `json:"championId"`
	ChampionName                 string `json:"championName"`
	ChampionLevel                int    `json:"championLevel"`
	ChampionPoints               int    `json:"championPoints"`
	LastPlayTime                 int64  `json:"lastPlayTime"`
	ChampionPointsSinceLastLevel int    `json:"championPointsSinceLastLevel"`
	ChampionPointsUntilNextLevel int    `json:"championPointsUntilNextLevel"`
	TokensEarned                 int    `json:"tokensEarned"`
	ChestGranted                 bool   `json:"chestGranted"`
}

// Snapshot is the stored mastery document, one per player, overwritten
// on each collection.
type Snapshot struct {
	RiotID      string   `json:"riotId"`
	Region      string   `json:"region"`
	TotalScore  int      `json:"totalScore"`
	CollectedAt string   `json:"collectedAt"`
	Masteries   []Record `json:"masteries"`
}

// NewSnapshot assembles a snapshot from enriched records, sorting them
// by points descending and summing the total score.
func NewSnapshot(riotID, region string, records []Record, collectedAt time.Time) Snapshot {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ChampionPoints > sorted[j].ChampionPoints
	})

	total := 0
	for _, r := range sorted {
		total += r.ChampionPoints
	}

	return Snapshot{
		RiotID:      riotID,
		Region:      region,
		TotalScore:  total,
		CollectedAt: collectedAt.Format(time.RFC3339),
		Masteries:   sorted,
	}
}

// Levels counts how many champions sit at mastery levels 5, 6 and 7.
type Levels struct {
	Level7 int `json:"level7"`
	Level6 int `json:"level6"`
	Level5 int `json:"level5"`
}

func (s Snapshot) Levels() Levels {
	var l Levels
	for _, r := range s.Masteries {
		switch r.ChampionLevel {
		case 7:
			l.Level7++
		case 6:
			l.Level6++
		case 5:
			l.Level5++
		}
	}
	return l
}

// Top returns up to n records from the already-sorted snapshot.
func (s Snapshot) Top(n int) []Record {
	if n > len(s.Masteries) {
		n = len(s.Masteries)
	}
	return s.Masteries[:n]
}
