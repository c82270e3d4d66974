package migration

import (
	"context"

	"github.com/immersionlab/backend/internal/entity"
)

// When this migrator is called, no need to call other schema migrators.
func AutoMigrate(ctx context.Context) error {
	return entity.MigrateTable(ctx)
}
