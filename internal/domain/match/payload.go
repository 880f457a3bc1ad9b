package match

import "fmt"

// Payload mirrors the upstream match-v5 document, limited to the
// fields the extraction step reads. The raw bytes are archived as-is,
// so unmapped fields are not lost.
type Payload struct {
	Metadata Metadata `json:"metadata"`
	Info     Info     `json:"info"`
}

type Metadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type Info struct {
	GameCreation int64         `json:"gameCreation"`
	GameDuration int64         `json:"gameDuration"`
	GameMode     string        `json:"gameMode"`
	QueueID      int           `json:"queueId"`
	Participants []Participant `json:"participants"`
}

type Participant struct {
	PUUID                       string           `json:"puuid"`
	ChampionName                string           `json:"championName"`
	ChampionID                  int              `json:"championId"`
	TeamPosition                string           `json:"teamPosition"`
	IndividualPosition          string           `json:"individualPosition"`
	Kills                       int              `json:"kills"`
	Deaths                      int              `json:"deaths"`
	Assists                     int              `json:"assists"`
	TotalMinionsKilled          int              `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int              `json:"neutralMinionsKilled"`
	GoldEarned                  int              `json:"goldEarned"`
	TotalDamageDealtToChampions int              `json:"totalDamageDealtToChampions"`
	TotalDamageTaken            int              `json:"totalDamageTaken"`
	VisionScore                 int              `json:"visionScore"`
	Win                         bool             `json:"win"`
	Item0                       int              `json:"item0"`
	Item1                       int              `json:"item1"`
	Item2                       int              `json:"item2"`
	Item3                       int              `json:"item3"`
	Item4                       int              `json:"item4"`
	Item5                       int              `json:"item5"`
	Item6                       int              `json:"item6"`
	Summoner1ID                 int              `json:"summoner1Id"`
	Summoner2ID                 int              `json:"summoner2Id"`
	Perks                       ParticipantPerks `json:"perks"`
}

type ParticipantPerks struct {
	Styles []PerkStyle `json:"styles"`
}

type PerkStyle struct {
	Style      int             `json:"style"`
	Selections []PerkSelection `json:"selections"`
}

type PerkSelection struct {
	Perk int `json:"perk"`
}

// ExtractPlayerStats finds the participant with the given puuid and
// flattens their slice of the match into PlayerStats.
func ExtractPlayerStats(p Payload, puuid string) (PlayerStats, error) {
	var player *Participant
	for i := range p.Info.Participants {
		if p.Info.Participants[i].PUUID == puuid {
			player = &p.Info.Participants[i]
			break
		}
	}
	if player == nil {
		return PlayerStats{}, fmt.Errorf("match %s: participant %s not found", p.Metadata.MatchID, puuid)
	}

	stats := PlayerStats{
		MatchID:                     p.Metadata.MatchID,
		GameCreation:                p.Info.GameCreation,
		GameDuration:                p.Info.GameDuration,
		GameMode:                    p.Info.GameMode,
		QueueID:                     p.Info.QueueID,
		ChampionName:                player.ChampionName,
		ChampionID:                  player.ChampionID,
		TeamPosition:                player.TeamPosition,
		IndividualPosition:          player.IndividualPosition,
		Kills:                       player.Kills,
		Deaths:                      player.Deaths,
		Assists:                     player.Assists,
		TotalMinionsKilled:          player.TotalMinionsKilled,
		NeutralMinionsKilled:        player.NeutralMinionsKilled,
		GoldEarned:                  player.GoldEarned,
		TotalDamageDealtToChampions: player.TotalDamageDealtToChampions,
		TotalDamageTaken:            player.TotalDamageTaken,
		VisionScore:                 player.VisionScore,
		Win:                         player.Win,
		Items:                       [7]int{player.Item0, player.Item1, player.Item2, player.Item3, player.Item4, player.Item5, player.Item6},
		Summoner1ID:                 player.Summoner1ID,
		Summoner2ID:                 player.Summoner2ID,
	}

	if styles := player.Perks.Styles; len(styles) > 0 {
		stats.Perks.PrimaryStyle = styles[0].Style
		if len(styles[0].Selections) > 0 {
			stats.Perks.PrimaryPerk = styles[0].Selections[0].Perk
		}
		if len(styles) > 1 {
			stats.Perks.SubStyle = styles[1].Style
		}
	}

	return stats, nil
}
