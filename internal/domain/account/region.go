package account

import "fmt"

// Region is a platform shard such as "na1" or "euw1".
type Region string

// DefaultRegion is used when a request does not name one.
const DefaultRegion Region = "na1"

var validRegions = map[Region]struct{}{
	"na1": {}, "br1": {}, "la1": {}, "la2": {},
	"euw1": {}, "eun1": {}, "tr1": {}, "ru": {},
	"kr": {}, "jp1": {},
	"oc1": {}, "ph2": {}, "sg2": {}, "th2": {}, "tw2": {}, "vn2": {},
}

// routingByRegion maps each platform shard to its continental routing
// value used by account and match endpoints.
var routingByRegion = map[Region]string{
	"na1": "americas", "br1": "americas", "la1": "americas", "la2": "americas",
	"euw1": "europe", "eun1": "europe", "tr1": "europe", "ru": "europe",
	"kr": "asia", "jp1": "asia",
	"oc1": "sea", "ph2": "sea", "sg2": "sea", "th2": "sea", "tw2": "sea", "vn2": "sea",
}

// ParseRegion validates a raw region string, defaulting empty input to
// DefaultRegion.
func ParseRegion(raw string) (Region, error) {
	if raw == "" {
		return DefaultRegion, nil
	}
	r := Region(raw)
	if _, ok := validRegions[r]; !ok {
		return "", fmt.Errorf("unknown region %q", raw)
	}
	return r, nil
}

// Routing returns the continental routing value for the region.
// Unlisted regions fall back to americas, matching the upstream API's
// tolerance for stale shard lists.
func (r Region) Routing() string {
	if routing, ok := routingByRegion[r]; ok {
		return routing
	}
	return "americas"
}

func (r Region) String() string { return string(r) }
