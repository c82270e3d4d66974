package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)
	require.Equal(t, 1, catalog.Version())
	require.Equal(t, 25, catalog.Len())

	def, ok := catalog.Get("first_log")
	require.True(t, ok)
	require.Equal(t, TotalLogsCriteriaType, def.Criteria.Type())
	require.Equal(t, float64(1), def.Criteria.Threshold())
	require.Equal(t, RarityC, def.Rarity)

	def, ok = catalog.Get("reader_5")
	require.True(t, ok)
	require.Equal(t, &CategoryLevelCriteria{Bound: Bound{Value: 5}, Category: "reading"}, def.Criteria)

	def, ok = catalog.Get("streak_365")
	require.True(t, ok)
	require.True(t, def.Hidden)

	_, ok = catalog.Get("not_exist")
	require.False(t, ok)
}

func TestParseCatalog(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
		wantLen int
	}{
		{
			name: "valid",
			data: `
version = 3
[[achievements]]
key = "a"
rarity = "B"
criteria = { type = "pages_read", threshold = 10 }
`,
			wantLen: 1,
		},
		{
			name: "unknown criteria type is kept",
			data: `
[[achievements]]
key = "a"
rarity = "C"
criteria = { type = "moon_phase", threshold = 1 }
`,
			wantLen: 1,
		},
		{
			name: "duplicated key",
			data: `
[[achievements]]
key = "a"
rarity = "C"
criteria = { type = "total_logs", threshold = 1 }
[[achievements]]
key = "a"
rarity = "C"
criteria = { type = "total_logs", threshold = 2 }
`,
			wantErr: true,
		},
		{
			name: "invalid rarity",
			data: `
[[achievements]]
key = "a"
rarity = "legendary"
criteria = { type = "total_logs", threshold = 1 }
`,
			wantErr: true,
		},
		{
			name: "missing threshold",
			data: `
[[achievements]]
key = "a"
rarity = "C"
criteria = { type = "total_logs" }
`,
			wantErr: true,
		},
		{
			name: "invalid category",
			data: `
[[achievements]]
key = "a"
rarity = "C"
criteria = { type = "category_level", threshold = 1, category = "cooking" }
`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog, err := ParseCatalog([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.wantLen, catalog.Len())
		})
	}
}

func TestNewCriteria(t *testing.T) {
	c, err := NewCriteria(map[string]any{"type": "hours_listened", "threshold": int64(10)})
	require.NoError(t, err)
	require.Equal(t, &HoursListenedCriteria{Bound: Bound{Value: 10}}, c)

	c, err = NewCriteria(map[string]any{"type": "moon_phase", "threshold": 1})
	require.NoError(t, err)
	require.Equal(t, CriteriaType("moon_phase"), c.Type())

	_, err = c.Measure(&Snapshot{})
	require.True(t, errors.Is(err, ErrUnknownCriteriaType))

	_, err = NewCriteria(map[string]any{"threshold": 1})
	require.Error(t, err)

	_, err = NewCriteria(map[string]any{"type": "total_xp", "threshold": -1})
	require.Error(t, err)
}

func TestCriteriaData(t *testing.T) {
	c, err := NewCriteria(map[string]any{"type": "category_level", "threshold": 20, "category": "listening"})
	require.NoError(t, err)

	require.Equal(t, map[string]any{
		"type":      "category_level",
		"threshold": float64(20),
		"category":  "listening",
	}, CriteriaData(c))
}

func TestCatalogFromEntities(t *testing.T) {
	catalog, err := DefaultCatalog()
	require.NoError(t, err)

	entities := catalog.Entities()
	require.Len(t, entities, catalog.Len())
	entities = append(entities, entity.Achievement{
		Key:          "broken",
		Rarity:       "legendary",
		CriteriaType: "total_logs",
		Threshold:    1,
	})

	loaded, err := CatalogFromEntities(context.Background(), entities)
	require.NoError(t, err)
	require.Equal(t, catalog.Version(), loaded.Version())
	require.Equal(t, catalog.Definitions(), loaded.Definitions())

	_, ok := loaded.Get("broken")
	require.False(t, ok)
}
