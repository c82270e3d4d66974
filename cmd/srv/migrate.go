package main

import (
	"github.com/immersionlab/backend/migration"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startMigrate(cctx *cli.Context) error {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())

	version := cctx.String("version")
	if version == "" {
		return migration.Migrate(s.ctx)
	}

	if err := migration.AutoMigrate(s.ctx); err != nil {
		return err
	}

	return migration.Apply(s.ctx, version)
}
