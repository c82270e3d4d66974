package entity

import (
	"context"
	"time"

	"github.com/immersionlab/backend/pkg/xcontext"
)

// Migration records a versioned migrator which was applied to the database.
type Migration struct {
	Version   string `gorm:"primaryKey"`
	AppliedAt time.Time
}

// MigrateTable creates or alters every table to the latest schema.
func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&ImmersionLog{},
		&Progression{},
		&UserStats{},
		&Achievement{},
		&UnlockedAchievement{},
		&ClubMember{},
		&Migration{},
	)
}
