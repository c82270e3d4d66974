package migration

import (
	"context"

	"github.com/immersionlab/backend/pkg/xcontext"
)

// progressionV1 is the progressions table before the optimistic version was
// added.
type progressionV1 struct {
	UserID string `gorm:"primaryKey"`
}

func (progressionV1) TableName() string {
	return "progressions"
}

type progressionV2 struct {
	progressionV1

	Version uint64 `gorm:"not null;default:0"`
}

func (progressionV2) TableName() string {
	return "progressions"
}

// migrate0001 adds the version column used to detect concurrent recomputes.
func migrate0001(ctx context.Context) error {
	migrator := xcontext.DB(ctx).Migrator()
	if migrator.HasColumn(&progressionV2{}, "version") {
		return nil
	}

	return migrator.AddColumn(&progressionV2{}, "Version")
}
