package account

import (
	"fmt"
	"strings"
)

// RiotID is the game-name/tag-line pair players identify themselves
// with, e.g. "Faker#KR1".
type RiotID struct {
	GameName string
	TagLine  string
}

// ParseRiotID splits a raw "name#tag" string. Both halves must be
// non-empty and exactly one '#' must be present.
func ParseRiotID(raw string) (RiotID, error) {
	raw = strings.TrimSpace(raw)
	name, tag, found := strings.Cut(raw, "#")
	if !found {
		return RiotID{}, fmt.Errorf("riot id %q: missing '#' separator", raw)
	}
	if strings.Contains(tag, "#") {
		return RiotID{}, fmt.Errorf("riot id %q: more than one '#'", raw)
	}

	name = strings.TrimSpace(name)
	tag = strings.TrimSpace(tag)
	if name == "" || tag == "" {
		return RiotID{}, fmt.Errorf("riot id %q: game name and tag line must both be non-empty", raw)
	}

	return RiotID{GameName: name, TagLine: tag}, nil
}

func (id RiotID) String() string {
	return id.GameName + "#" + id.TagLine
}

// SafeName is the storage-path form of the riot id, with spaces
// replaced by underscores.
func (id RiotID) SafeName() string {
	return strings.ReplaceAll(id.String(), " ", "_")
}

// Identity is the resolved account as returned by the account service.
type Identity struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

func (i Identity) RiotID() RiotID {
	return RiotID{GameName: i.GameName, TagLine: i.TagLine}
}
