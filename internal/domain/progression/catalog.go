package progression

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
)

//go:embed catalog/achievements.toml
var defaultCatalogData []byte

// Catalog is the immutable, versioned list of achievement definitions. It is
// loaded once and passed explicitly to whoever evaluates achievements.
type Catalog struct {
	version     int
	definitions []Definition
	index       map[string]int
}

func NewCatalog(version int, definitions ...Definition) (*Catalog, error) {
	c := &Catalog{
		version:     version,
		definitions: make([]Definition, 0, len(definitions)),
		index:       make(map[string]int, len(definitions)),
	}

	for _, def := range definitions {
		if def.Key == "" {
			return nil, fmt.Errorf("achievement key is required")
		}

		if def.Criteria == nil {
			return nil, fmt.Errorf("achievement %s has no criteria", def.Key)
		}

		if _, ok := c.index[def.Key]; ok {
			return nil, fmt.Errorf("duplicated achievement key %s", def.Key)
		}

		c.index[def.Key] = len(c.definitions)
		c.definitions = append(c.definitions, def)
	}

	return c, nil
}

func (c *Catalog) Version() int {
	return c.version
}

// Definitions returns the definitions in catalog order. DO NOT modify the
// returned slice.
func (c *Catalog) Definitions() []Definition {
	return c.definitions
}

func (c *Catalog) Get(key string) (Definition, bool) {
	i, ok := c.index[key]
	if !ok {
		return Definition{}, false
	}

	return c.definitions[i], true
}

func (c *Catalog) Len() int {
	return len(c.definitions)
}

type catalogFile struct {
	Version      int            `toml:"version"`
	Achievements []catalogEntry `toml:"achievements"`
}

type catalogEntry struct {
	Key         string         `toml:"key"`
	Name        string         `toml:"name"`
	Description string         `toml:"description"`
	Category    string         `toml:"category"`
	Rarity      string         `toml:"rarity"`
	Points      int            `toml:"points"`
	Hidden      bool           `toml:"hidden"`
	Criteria    map[string]any `toml:"criteria"`
}

// ParseCatalog parses a catalog in TOML format. Any malformed entry fails the
// whole catalog, except unknown criteria types which are kept and skipped at
// evaluation.
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if _, err := toml.Decode(string(data), &file); err != nil {
		return nil, err
	}

	definitions := make([]Definition, 0, len(file.Achievements))
	for _, e := range file.Achievements {
		rarity, err := ParseRarity(e.Rarity)
		if err != nil {
			return nil, fmt.Errorf("achievement %s: %w", e.Key, err)
		}

		criteria, err := NewCriteria(e.Criteria)
		if err != nil {
			return nil, fmt.Errorf("achievement %s: %w", e.Key, err)
		}

		definitions = append(definitions, Definition{
			Key:         e.Key,
			Name:        e.Name,
			Description: e.Description,
			Category:    e.Category,
			Rarity:      rarity,
			Criteria:    criteria,
			Points:      e.Points,
			Hidden:      e.Hidden,
		})
	}

	return NewCatalog(file.Version, definitions...)
}

// DefaultCatalog returns the catalog shipped with the binary.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalogData)
}

// CatalogFromEntities builds the catalog from the stored achievements. Rows
// which cannot be decoded are logged and left out.
func CatalogFromEntities(ctx context.Context, achievements []entity.Achievement) (*Catalog, error) {
	version := 0
	definitions := make([]Definition, 0, len(achievements))
	for _, a := range achievements {
		rarity, err := ParseRarity(a.Rarity)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Skip achievement %s: %v", a.Key, err)
			continue
		}

		data := map[string]any{"type": a.CriteriaType, "threshold": a.Threshold}
		if a.CriteriaCategory != "" {
			data["category"] = a.CriteriaCategory
		}

		criteria, err := NewCriteria(data)
		if err != nil {
			xcontext.Logger(ctx).Warnf("Skip achievement %s: %v", a.Key, err)
			continue
		}

		if a.CatalogVersion > version {
			version = a.CatalogVersion
		}

		definitions = append(definitions, Definition{
			Key:         a.Key,
			Name:        a.Name,
			Description: a.Description,
			Category:    a.Category,
			Rarity:      rarity,
			Criteria:    criteria,
			Points:      a.Points,
			Hidden:      a.Hidden,
		})
	}

	return NewCatalog(version, definitions...)
}

// Entities converts the catalog to rows for seeding the achievement table.
func (c *Catalog) Entities() []entity.Achievement {
	result := make([]entity.Achievement, 0, len(c.definitions))
	for _, def := range c.definitions {
		a := entity.Achievement{
			Key:            def.Key,
			Name:           def.Name,
			Description:    def.Description,
			Category:       def.Category,
			Rarity:         def.Rarity.String(),
			Points:         def.Points,
			Hidden:         def.Hidden,
			CriteriaType:   string(def.Criteria.Type()),
			Threshold:      def.Criteria.Threshold(),
			CatalogVersion: c.version,
		}

		if cl, ok := def.Criteria.(*CategoryLevelCriteria); ok {
			a.CriteriaCategory = cl.Category
		}

		result = append(result, a)
	}

	return result
}
