package match

import "fmt"

// Perks is the rune page summary kept with the extracted stats.
type Perks struct {
	PrimaryStyle int `json:"primaryStyle"`
	SubStyle     int `json:"subStyle"`
	PrimaryPerk  int `json:"primaryPerk"`
}

// PlayerStats is the per-player slice of a match, extracted from the
// full match payload for the requested player.
type PlayerStats struct {
	MatchID                     string `json:"matchId"`
	GameCreation                int64  `json:"gameCreation"`
	GameDuration                int64  `json:"gameDuration"`
	GameMode                    string `json:"gameMode"`
	QueueID                     int    `json:"queueId"`
	ChampionName                string `json:"championName"`
	ChampionID                  int    `json:"championId"`
	TeamPosition                string `json:"teamPosition"`
	IndividualPosition          string `json:"individualPosition"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	GoldEarned                  int    `json:"goldEarned"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	TotalDamageTaken            int    `json:"totalDamageTaken"`
	VisionScore                 int    `json:"visionScore"`
	Win                         bool   `json:"win"`
	Items                       [7]int `json:"items"`
	Summoner1ID                 int    `json:"summoner1Id"`
	Summoner2ID                 int    `json:"summoner2Id"`
	Perks                       Perks  `json:"perks"`
}

// KDA renders the kills/deaths/assists line, e.g. "7/2/11".
func (s PlayerStats) KDA() string {
	return fmt.Sprintf("%d/%d/%d", s.Kills, s.Deaths, s.Assists)
}

// ProcessedMatch is the per-match descriptor returned to callers after
// a collection run. Full payload and extracted stats stay in blob
// storage; only their keys travel in the response.
type ProcessedMatch struct {
	MatchID          string `json:"matchId"`
	Champion         string `json:"champion"`
	KDA              string `json:"kda"`
	Win              bool   `json:"win"`
	FullDataLocation string `json:"fullDataLocation"`
	StatsLocation    string `json:"statsLocation"`
}
