package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	sonic "github.com/bytedance/sonic"
	"github.com/doyaji/rift-rewind/internal/domain/blob"
	"github.com/doyaji/rift-rewind/internal/platform/logging"
)

// DefaultChampionDataKey is where the Data Dragon champion document
// lives in the blob store.
const DefaultChampionDataKey = "lol-data/15.21.1/data/en_US/champion.json"

// builtinChampions covers common champions when the stored catalog is
// unavailable.
var builtinChampions = map[int]string{
	1: "Annie", 2: "Olaf", 3: "Galio", 4: "TwistedFate", 5: "XinZhao",
	22: "Ashe", 51: "Caitlyn", 81: "Ezreal", 103: "Ahri", 157: "Yasuo",
	202: "Jhin", 222: "Jinx", 238: "Zed", 266: "Aatrox", 777: "Yone",
}

// ChampionCatalog maps champion ids to names, loading the Data Dragon
// document from blob storage on first use. A failed load falls back to
// the builtin table for the process lifetime; it is not retried.
type ChampionCatalog struct {
	store  blob.Store
	key    string
	logger *logging.Logger

	once sync.Once
	byID map[int]string
}

func NewChampionCatalog(store blob.Store, key string, logger *logging.Logger) *ChampionCatalog {
	if key == "" {
		key = DefaultChampionDataKey
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChampionCatalog{store: store, key: key, logger: logger}
}

// Name resolves a champion id, returning "Champion_<id>" for ids
// missing from the catalog.
func (c *ChampionCatalog) Name(ctx context.Context, championID int) string {
	c.once.Do(func() { c.load(ctx) })

	if name, ok := c.byID[championID]; ok {
		return name
	}
	return "Champion_" + strconv.Itoa(championID)
}

func (c *ChampionCatalog) load(ctx context.Context) {
	c.byID = builtinChampions
	if c.store == nil {
		return
	}

	raw, err := c.store.Get(ctx, c.key)
	if err != nil {
		c.logger.WarnContext(ctx, "champion catalog unavailable, using builtin table", "key", c.key, "error", err)
		return
	}

	mapping, err := parseChampionDocument(raw)
	if err != nil {
		c.logger.WarnContext(ctx, "champion catalog malformed, using builtin table", "key", c.key, "error", err)
		return
	}

	c.byID = mapping
	c.logger.InfoContext(ctx, "champion catalog loaded", "key", c.key, "champions", len(mapping))
}

type championDocument struct {
	Data map[string]struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"data"`
}

func parseChampionDocument(raw []byte) (map[int]string, error) {
	var doc championDocument
	if err := sonic.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode champion document: %w", err)
	}
	if len(doc.Data) == 0 {
		return nil, fmt.Errorf("champion document has no data section")
	}

	// Data Dragon keys champions by name; the numeric id lives in the
	// "key" field as a string.
	out := make(map[int]string, len(doc.Data))
	for _, champ := range doc.Data {
		id, err := strconv.Atoi(champ.Key)
		if err != nil || champ.Name == "" {
			continue
		}
		out[id] = champ.Name
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("champion document has no usable entries")
	}
	return out, nil
}
