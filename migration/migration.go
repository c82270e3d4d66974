package migration

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/pkg/xcontext"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Migrator func(ctx context.Context) error

// Migrators are applied in the order of their versions. A version is never
// applied twice.
var Migrators = map[string]Migrator{
	"0001": migrate0001,
	"0002": migrate0002,
}

// Migrate creates the schema, then applies every migrator which was not
// applied yet.
func Migrate(ctx context.Context) error {
	if err := AutoMigrate(ctx); err != nil {
		return err
	}

	versions := make([]string, 0, len(Migrators))
	for version := range Migrators {
		versions = append(versions, version)
	}
	sort.Strings(versions)

	for _, version := range versions {
		if err := Apply(ctx, version); err != nil {
			return err
		}
	}

	return nil
}

// Apply runs the migrator of version if it was not applied.
func Apply(ctx context.Context, version string) error {
	migrator, ok := Migrators[version]
	if !ok {
		return errors.New("not found migrator version " + version)
	}

	var record entity.Migration
	err := xcontext.DB(ctx).Where("version=?", version).Take(&record).Error
	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	xcontext.Logger(ctx).Infof("Apply migration %s", version)
	if err := migrator(ctx); err != nil {
		return err
	}

	return xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entity.Migration{Version: version, AppliedAt: time.Now()}).Error
}
