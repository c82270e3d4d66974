package domain

import (
	"context"
	"errors"
	"sync"

	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/internal/model"
	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/xcontext"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

type RecalculateFailure struct {
	UserID string
	Err    error
}

// RecalculateReport summarizes a batch recalculation. Cancelled is true if the
// context was done before every user was processed; the users processed so
// far are committed.
type RecalculateReport struct {
	UsersProcessed       int
	AchievementsUnlocked int
	Failures             []RecalculateFailure
	Cancelled            bool
}

func (r *RecalculateReport) toModel() *model.RecalculateResponse {
	resp := &model.RecalculateResponse{
		UsersProcessed:       r.UsersProcessed,
		AchievementsUnlocked: r.AchievementsUnlocked,
		Failures:             []model.RecalculateFailure{},
		Cancelled:            r.Cancelled,
	}

	for _, f := range r.Failures {
		resp.Failures = append(resp.Failures, model.RecalculateFailure{
			UserID: f.UserID,
			Error:  f.Err.Error(),
		})
	}

	return resp
}

func (d *progressionDomain) Recalculate(
	ctx context.Context, req *model.RecalculateRequest,
) (*model.RecalculateResponse, error) {
	if req.UserID != "" {
		report := &RecalculateReport{}
		rec, err := d.recomputeUser(ctx, batchPath, req.UserID, d.loadUser)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errorx.New(errorx.NotFound, "Not found user")
			}

			xcontext.Logger(ctx).Errorf("Cannot recalculate user %s: %v", req.UserID, err)
			report.Failures = append(report.Failures, RecalculateFailure{UserID: req.UserID, Err: err})
		} else {
			report.UsersProcessed = 1
			report.AchievementsUnlocked = len(rec.NewUnlocks)
		}

		return report.toModel(), nil
	}

	report, err := d.RecalculateAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot recalculate all users: %v", err)
		return nil, errorx.Unknown
	}

	return report.toModel(), nil
}

func (d *progressionDomain) RecalculateAll(ctx context.Context) (*RecalculateReport, error) {
	cfg := xcontext.Configs(ctx).Progression
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	report := &RecalculateReport{}
	afterID := ""
	for {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		userIDs, err := d.userRepo.GetIDsAfter(ctx, afterID, batchSize)
		if err != nil {
			if ctx.Err() != nil {
				report.Cancelled = true
				break
			}

			return report, err
		}

		if len(userIDs) == 0 {
			break
		}

		d.recalculatePage(ctx, userIDs, report)
		afterID = userIDs[len(userIDs)-1]
	}

	xcontext.Logger(ctx).Infof("Recalculated %d users, %d achievements unlocked, %d failures, cancelled=%t",
		report.UsersProcessed, report.AchievementsUnlocked, len(report.Failures), report.Cancelled)

	return report, nil
}

// recalculatePage loads the page with one query per table, then recomputes its
// users in parallel. A user is either fully recomputed or not started.
func (d *progressionDomain) recalculatePage(ctx context.Context, userIDs []string, report *RecalculateReport) {
	var mutex sync.Mutex
	fail := func(userID string, err error) {
		mutex.Lock()
		defer mutex.Unlock()
		report.Failures = append(report.Failures, RecalculateFailure{UserID: userID, Err: err})
	}

	page, err := d.loadPage(ctx, userIDs)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot load recalculation page: %v", err)
		for _, id := range userIDs {
			fail(id, err)
		}
		return
	}

	concurrency := xcontext.Configs(ctx).Progression.BatchConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}

	g := errgroup.Group{}
	g.SetLimit(concurrency)
	for _, userID := range userIDs {
		if ctx.Err() != nil {
			mutex.Lock()
			report.Cancelled = true
			mutex.Unlock()
			break
		}

		userID := userID
		g.Go(func() error {
			// Once started, a user is never cancelled halfway.
			userCtx := context.WithoutCancel(ctx)
			rec, err := d.recomputeUser(userCtx, batchPath, userID, page.load)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot recalculate user %s: %v", userID, err)
				fail(userID, err)
				return nil
			}

			mutex.Lock()
			defer mutex.Unlock()
			report.UsersProcessed++
			report.AchievementsUnlocked += len(rec.NewUnlocks)
			return nil
		})
	}

	g.Wait()
}

type recalculatePage struct {
	domain *progressionDomain

	progressions map[string]entity.Progression
	timezones    map[string]string
	logs         map[string][]entity.ImmersionLog
	unlocked     map[string]map[string]struct{}
	clubs        map[string]int64
}

// loadPage reads the progressions before the logs, so a log mutation committed
// in between makes the stored version newer than the preloaded one.
func (d *progressionDomain) loadPage(ctx context.Context, userIDs []string) (*recalculatePage, error) {
	page := &recalculatePage{domain: d}

	var err error
	if page.progressions, err = d.progressionRepo.GetByUserIDs(ctx, userIDs); err != nil {
		return nil, err
	}

	if page.timezones, err = d.userRepo.GetTimezones(ctx, userIDs); err != nil {
		return nil, err
	}

	if page.logs, err = d.immersionLogRepo.GetByUserIDs(ctx, userIDs); err != nil {
		return nil, err
	}

	if page.unlocked, err = d.unlockedAchievementRepo.GetKeysByUserIDs(ctx, userIDs); err != nil {
		return nil, err
	}

	if page.clubs, err = d.clubMemberRepo.CountByUserIDs(ctx, userIDs); err != nil {
		return nil, err
	}

	return page, nil
}

func (p *recalculatePage) load(ctx context.Context, userID string) (*userSnapshot, error) {
	timezone, ok := p.timezones[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	var stored *entity.Progression
	if record, ok := p.progressions[userID]; ok {
		stored = &record
	}

	return p.domain.newSnapshot(
		ctx, userID, stored, timezone, p.logs[userID], p.unlocked[userID], p.clubs[userID]), nil
}
