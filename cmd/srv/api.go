package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/immersionlab/backend/internal/middleware"
	"github.com/immersionlab/backend/pkg/prometheus"
	"github.com/immersionlab/backend/pkg/router"
	"github.com/immersionlab/backend/pkg/xcontext"

	"github.com/urfave/cli/v2"
)

func (s *srv) startApi(*cli.Context) error {
	s.loadAll()
	defer s.stop()
	s.loadRouter()

	cfg := xcontext.Configs(s.ctx).ApiServer
	s.server = &http.Server{
		Addr:    cfg.Address(),
		Handler: s.router.Handler(cfg.AllowedOrigins),
	}

	go func() {
		termSignal := make(chan os.Signal, 1)
		signal.Notify(termSignal, syscall.SIGINT, syscall.SIGTERM)
		sig := <-termSignal
		xcontext.Logger(s.ctx).Infof("Got a signal of %s, shutting down", sig.String())

		ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
		defer cancel()
		if err := s.server.Shutdown(ctx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot shutdown server: %v", err)
		}
	}()

	xcontext.Logger(s.ctx).Infof("Starting server on port: %s", cfg.Port)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	xcontext.Logger(s.ctx).Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(s.ctx)
	s.router.Before(middleware.WithStartTime())
	s.router.AddCloser(middleware.Logger(), middleware.Prometheus())
	s.router.Handle(http.MethodGet, "/metrics", prometheus.NewHandler("api"))

	// These following APIs are called on behalf of a user.
	userRouter := s.router.Branch()
	userRouter.Before(middleware.Authenticate())
	{
		// Immersion log API
		router.GET(userRouter, "/getMyImmersionLogs", s.immersionLogDomain.GetMyLogs)
		router.POST(userRouter, "/createImmersionLog", s.immersionLogDomain.Create)
		router.POST(userRouter, "/updateImmersionLog", s.immersionLogDomain.Update)
		router.POST(userRouter, "/deleteImmersionLog", s.immersionLogDomain.Delete)

		// Progression API
		router.POST(userRouter, "/updateTimezone", s.progressionDomain.UpdateTimezone)
	}

	adminRouter := s.router.Branch()
	adminRouter.Before(middleware.OnlyAdmin())
	{
		router.POST(adminRouter, "/admin/recalculate", s.progressionDomain.Recalculate)
	}

	// Public API, the user defaults to the requesting one.
	router.GET(s.router, "/getProgression", s.progressionDomain.GetProgression)
	router.GET(s.router, "/getAchievements", s.progressionDomain.GetAchievements)
}
