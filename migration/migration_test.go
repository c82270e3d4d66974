package migration

import (
	"testing"

	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/internal/repository"
	"github.com/immersionlab/backend/pkg/testutil"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	ctx := testutil.NewMockContext()

	require.NoError(t, Migrate(ctx))

	var migrations []entity.Migration
	require.NoError(t, xcontext.DB(ctx).Order("version ASC").Find(&migrations).Error)
	require.Len(t, migrations, len(Migrators))
	require.Equal(t, "0001", migrations[0].Version)

	achievements, err := repository.NewAchievementRepository().GetAll(ctx)
	require.NoError(t, err)

	catalog, err := progression.DefaultCatalog()
	require.NoError(t, err)
	require.Len(t, achievements, catalog.Len())

	loaded, err := progression.CatalogFromEntities(ctx, achievements)
	require.NoError(t, err)
	require.Equal(t, catalog.Version(), loaded.Version())
	require.Equal(t, catalog.Len(), loaded.Len())

	// Applying again is a no-op.
	require.NoError(t, Migrate(ctx))
	require.NoError(t, Apply(ctx, "0002"))

	migrations = nil
	require.NoError(t, xcontext.DB(ctx).Find(&migrations).Error)
	require.Len(t, migrations, len(Migrators))

	require.Error(t, Apply(ctx, "9999"))
}

func TestSeedCatalog_Overwrites(t *testing.T) {
	ctx := testutil.NewMockContext()
	repo := repository.NewAchievementRepository()

	require.NoError(t, repo.Upsert(ctx, entity.Achievement{
		Key:          "first_log",
		Name:         "Old name",
		Rarity:       "C",
		CriteriaType: "total_logs",
		Threshold:    5,
	}))

	require.NoError(t, SeedCatalog(ctx, repo))

	achievements, err := repo.GetAll(ctx)
	require.NoError(t, err)

	for _, a := range achievements {
		if a.Key == "first_log" {
			require.Equal(t, "First Step", a.Name)
			require.Equal(t, float64(1), a.Threshold)
			return
		}
	}

	require.Fail(t, "first_log is not seeded")
}
