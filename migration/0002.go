package migration

import (
	"context"

	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/repository"
)

// migrate0002 seeds the achievement catalog shipped with the binary. Existing
// definitions with the same key are overwritten.
func migrate0002(ctx context.Context) error {
	return SeedCatalog(ctx, repository.NewAchievementRepository())
}

func SeedCatalog(ctx context.Context, achievementRepo repository.AchievementRepository) error {
	catalog, err := progression.DefaultCatalog()
	if err != nil {
		return err
	}

	return achievementRepo.Upsert(ctx, catalog.Entities()...)
}
