package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/immersionlab/backend/internal/domain/cron"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadAll()
	defer s.stop()

	hour := xcontext.Configs(s.ctx).Progression.RecalculateHour
	if hour < 0 {
		xcontext.Logger(s.ctx).Warnf("Nightly recalculation is disabled")
		return nil
	}

	cronJobManager := cron.NewCronJobManager()
	cronJobManager.Register(cron.NewRecalculateProgressionCronJob(s.progressionDomain, hour))

	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s, cancelling cron jobs", sig.String())
		cronJobManager.Cancel(s.ctx)
	}()

	cronJobManager.Start(s.ctx)
	return nil
}
