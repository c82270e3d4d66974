package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/immersionlab/backend/internal/model"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startRecalculate(cctx *cli.Context) error {
	s.loadAll()
	defer s.stop()

	// Users being recomputed when the signal arrives are still committed.
	ctx, cancel := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	resp, err := s.progressionDomain.Recalculate(ctx, &model.RecalculateRequest{
		UserID: cctx.String("user"),
	})
	if err != nil {
		return err
	}

	report(ctx, resp)
	return nil
}

func report(ctx context.Context, resp *model.RecalculateResponse) {
	xcontext.Logger(ctx).Infof("Users processed: %d", resp.UsersProcessed)
	xcontext.Logger(ctx).Infof("Achievements unlocked: %d", resp.AchievementsUnlocked)
	for _, f := range resp.Failures {
		xcontext.Logger(ctx).Errorf("User %s failed: %s", f.UserID, f.Error)
	}

	if resp.Cancelled {
		xcontext.Logger(ctx).Warnf("Recalculation was cancelled")
	}
}
