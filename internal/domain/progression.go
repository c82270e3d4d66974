package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/immersionlab/backend/internal/common"
	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/internal/model"
	"github.com/immersionlab/backend/internal/repository"
	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/immersionlab/backend/pkg/xredis"
	"gorm.io/gorm"
)

const (
	incrementalPath = "incremental"
	batchPath       = "batch"
)

type ProgressionDomain interface {
	GetProgression(context.Context, *model.GetProgressionRequest) (*model.GetProgressionResponse, error)
	GetAchievements(context.Context, *model.GetAchievementsRequest) (*model.GetAchievementsResponse, error)
	UpdateTimezone(context.Context, *model.UpdateTimezoneRequest) (*model.UpdateTimezoneResponse, error)
	Recalculate(context.Context, *model.RecalculateRequest) (*model.RecalculateResponse, error)

	// Recompute derives the progression of the user from all of its surviving
	// logs and commits it. It must be called after every log mutation.
	Recompute(ctx context.Context, userID string) (*Recomputation, error)

	// RecalculateAll recomputes every user page by page. A failed user is
	// reported and never stops the others.
	RecalculateAll(ctx context.Context) (*RecalculateReport, error)
}

// Recomputation is the committed outcome of one recompute.
type Recomputation struct {
	Progression *entity.Progression
	Stats       progression.Stats
	NewUnlocks  []progression.Unlock
	Events      []progression.Event
}

type progressionDomain struct {
	engine    *progression.Engine
	locker    progression.Locker
	publisher *progression.EventPublisher
	cache     xredis.Client

	userRepo                repository.UserRepository
	immersionLogRepo        repository.ImmersionLogRepository
	progressionRepo         repository.ProgressionRepository
	userStatsRepo           repository.UserStatsRepository
	unlockedAchievementRepo repository.UnlockedAchievementRepository
	clubMemberRepo          repository.ClubMemberRepository
}

// NewProgressionDomain returns the progression coordinator. The cache is
// optional.
func NewProgressionDomain(
	engine *progression.Engine,
	locker progression.Locker,
	publisher *progression.EventPublisher,
	cache xredis.Client,
	userRepo repository.UserRepository,
	immersionLogRepo repository.ImmersionLogRepository,
	progressionRepo repository.ProgressionRepository,
	userStatsRepo repository.UserStatsRepository,
	unlockedAchievementRepo repository.UnlockedAchievementRepository,
	clubMemberRepo repository.ClubMemberRepository,
) *progressionDomain {
	return &progressionDomain{
		engine:                  engine,
		locker:                  locker,
		publisher:               publisher,
		cache:                   cache,
		userRepo:                userRepo,
		immersionLogRepo:        immersionLogRepo,
		progressionRepo:         progressionRepo,
		userStatsRepo:           userStatsRepo,
		unlockedAchievementRepo: unlockedAchievementRepo,
		clubMemberRepo:          clubMemberRepo,
	}
}

func (d *progressionDomain) GetProgression(
	ctx context.Context, req *model.GetProgressionRequest,
) (*model.GetProgressionResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require user id")
	}

	if d.cache != nil {
		var cached model.Progression
		if err := d.cache.GetObj(ctx, common.RedisKeyProgression(userID), &cached); err == nil {
			return &model.GetProgressionResponse{Progression: cached}, nil
		}
	}

	if _, err := d.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	var stored *entity.Progression
	stats := progression.Stats{}

	p, err := d.progressionRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get progression: %v", err)
			return nil, errorx.Unknown
		}
	} else {
		stored = p

		userStats, err := d.userStatsRepo.Get(ctx, userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get user stats: %v", err)
			return nil, errorx.Unknown
		}

		if userStats != nil {
			stats = progression.StatsFromEntity(userStats)
		}
	}

	result := convertProgression(stored, stats, d.engine.Curve())
	result.UserID = userID

	// A recompute committed after the read above has already written its
	// result, which must not be replaced by this one.
	if d.cache != nil {
		ttl := xcontext.Configs(ctx).Redis.CacheTTL
		if _, err := d.cache.SetObjNX(ctx, common.RedisKeyProgression(userID), result, ttl); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot cache progression of %s: %v", userID, err)
		}
	}

	return &model.GetProgressionResponse{Progression: result}, nil
}

func (d *progressionDomain) GetAchievements(
	ctx context.Context, req *model.GetAchievementsRequest,
) (*model.GetAchievementsResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	if userID == "" {
		return nil, errorx.New(errorx.BadRequest, "Require user id")
	}

	unlockedAchievements, err := d.unlockedAchievementRepo.GetByUserID(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get unlocked achievements: %v", err)
		return nil, errorx.Unknown
	}

	unlockedMap := map[string]*entity.UnlockedAchievement{}
	for i := range unlockedAchievements {
		unlockedMap[unlockedAchievements[i].AchievementKey] = &unlockedAchievements[i]
	}

	catalog := d.engine.Catalog()
	definitions := append([]progression.Definition(nil), catalog.Definitions()...)
	sort.SliceStable(definitions, func(i, j int) bool {
		if definitions[i].Rarity != definitions[j].Rarity {
			return definitions[i].Rarity < definitions[j].Rarity
		}
		return definitions[i].Key < definitions[j].Key
	})

	resp := &model.GetAchievementsResponse{
		CatalogVersion: catalog.Version(),
		Achievements:   []model.Achievement{},
	}
	for _, def := range definitions {
		unlocked := unlockedMap[def.Key]
		if def.Hidden && unlocked == nil {
			continue
		}

		if unlocked != nil {
			resp.TotalPoints += def.Points
		}

		resp.Achievements = append(resp.Achievements, convertAchievement(def, unlocked))
	}

	return resp, nil
}

func (d *progressionDomain) UpdateTimezone(
	ctx context.Context, req *model.UpdateTimezoneRequest,
) (*model.UpdateTimezoneResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if _, err := time.LoadLocation(req.Timezone); err != nil || req.Timezone == "" {
		return nil, errorx.New(errorx.BadRequest, "Invalid timezone %q", req.Timezone)
	}

	if err := d.userRepo.UpdateTimezone(ctx, userID, req.Timezone); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update timezone: %v", err)
		return nil, errorx.Unknown
	}

	rec, err := d.Recompute(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.UpdateTimezoneResponse{
		Progression: convertProgression(rec.Progression, rec.Stats, d.engine.Curve()),
		Events:      convertEvents(rec.Events),
	}, nil
}

func (d *progressionDomain) Recompute(ctx context.Context, userID string) (*Recomputation, error) {
	rec, err := d.recomputeUser(ctx, incrementalPath, userID, d.loadUser)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		if errors.Is(err, progression.ErrConcurrentMutation) {
			xcontext.Logger(ctx).Warnf("Cannot recompute progression of %s: %v", userID, err)
			return nil, errorx.New(errorx.ConcurrentMutation, "Progression is busy, please try again")
		}

		xcontext.Logger(ctx).Errorf("Cannot recompute progression of %s: %v", userID, err)
		return nil, errorx.Unknown
	}

	return rec, nil
}

// userSnapshot is everything a recompute of one user reads. ReadVersion is
// read before the logs, so a writer committing in between is detected when
// saving.
type userSnapshot struct {
	readVersion uint64
	oldLevel    int
	input       progression.Input
}

type loadFunc func(ctx context.Context, userID string) (*userSnapshot, error)

func (d *progressionDomain) loadUser(ctx context.Context, userID string) (*userSnapshot, error) {
	var stored *entity.Progression
	p, err := d.progressionRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		stored = p
	}

	user, err := d.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	logs, err := d.immersionLogRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlockedAchievements, err := d.unlockedAchievementRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	unlocked := map[string]struct{}{}
	for _, u := range unlockedAchievements {
		unlocked[u.AchievementKey] = struct{}{}
	}

	clubMemberships, err := d.clubMemberRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return d.newSnapshot(ctx, userID, stored, user.Timezone, logs, unlocked, clubMemberships), nil
}

func (d *progressionDomain) newSnapshot(
	ctx context.Context,
	userID string,
	stored *entity.Progression,
	timezone string,
	logs []entity.ImmersionLog,
	unlocked map[string]struct{},
	clubMemberships int64,
) *userSnapshot {
	snapshot := &userSnapshot{
		oldLevel: d.engine.Curve().Resolve(0).Level,
		input: progression.Input{
			Logs:            logs,
			Location:        d.resolveLocation(ctx, userID, timezone),
			ClubMemberships: clubMemberships,
			Unlocked:        unlocked,
		},
	}

	if stored != nil {
		snapshot.readVersion = stored.Version
		snapshot.oldLevel = stored.Level
	}

	if snapshot.input.Unlocked == nil {
		snapshot.input.Unlocked = map[string]struct{}{}
	}

	return snapshot
}

// resolveLocation falls back to the default timezone for users without one,
// then to UTC if it cannot be loaded.
func (d *progressionDomain) resolveLocation(ctx context.Context, userID, timezone string) *time.Location {
	if timezone == "" {
		timezone = xcontext.Configs(ctx).Progression.DefaultTimezone
	}

	loc, err := progression.ResolveLocation(timezone)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Use UTC for user %s: %v", userID, err)
	}

	return loc
}

// recomputeUser holds the lock of the user during the whole recompute. The
// first attempt reads with load, retries after a conflict always read the
// current state.
func (d *progressionDomain) recomputeUser(
	ctx context.Context, path, userID string, load loadFunc,
) (*Recomputation, error) {
	start := time.Now()
	rec, err := d.lockAndRecompute(ctx, path, userID, load)

	result := "success"
	switch {
	case errors.Is(err, progression.ErrConcurrentMutation):
		result = "conflict"
	case err != nil:
		result = "error"
	}

	common.PromCounters[common.RecomputeTotal].WithLabelValues(path, result).Inc()
	common.PromHistograms[common.RecomputeDurationSeconds].
		WithLabelValues(path).Observe(time.Since(start).Seconds())

	return rec, err
}

func (d *progressionDomain) lockAndRecompute(
	ctx context.Context, path, userID string, load loadFunc,
) (*Recomputation, error) {
	unlock, err := d.locker.Lock(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lock user %s: %w", userID, err)
	}
	defer unlock()

	maxRetries := xcontext.Configs(ctx).Progression.MaxConflictRetries
	for attempt := 0; ; attempt++ {
		snapshot, err := load(ctx, userID)
		if err != nil {
			return nil, err
		}

		result := d.engine.Recompute(ctx, snapshot.input)
		rec, err := d.commit(ctx, userID, snapshot, result)
		if err == nil {
			d.afterCommit(ctx, rec)
			return rec, nil
		}

		if !errors.Is(err, repository.ErrStaleVersion) {
			return nil, err
		}

		common.PromCounters[common.RecomputeConflictsTotal].WithLabelValues(path).Inc()
		if attempt >= maxRetries {
			return nil, fmt.Errorf("%w: user %s after %d attempts",
				progression.ErrConcurrentMutation, userID, attempt+1)
		}

		xcontext.Logger(ctx).Debugf("Progression of %s changed while recomputing, retry", userID)
		load = d.loadUser
	}
}

// commit writes the progression, the stats and the new unlocks in one
// transaction. Nothing is written if the progression was changed since it was
// read.
func (d *progressionDomain) commit(
	ctx context.Context, userID string, snapshot *userSnapshot, result *progression.Result,
) (*Recomputation, error) {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	p := result.State.ToEntity(userID)
	if err := d.progressionRepo.Save(ctx, p, snapshot.readVersion); err != nil {
		return nil, err
	}

	if err := d.userStatsRepo.Upsert(ctx, result.Stats.ToEntity(userID)); err != nil {
		return nil, err
	}

	now := time.Now()
	newUnlocks := []progression.Unlock{}
	for _, u := range result.NewUnlocks {
		created, err := d.unlockedAchievementRepo.CreateIfNotExists(ctx, &entity.UnlockedAchievement{
			UserID:         userID,
			AchievementKey: u.Definition.Key,
			UnlockedAt:     now,
		})
		if err != nil {
			return nil, err
		}

		if created {
			newUnlocks = append(newUnlocks, u)
		}
	}

	if err := xcontext.WithCommitDBTransaction(ctx); err != nil {
		return nil, err
	}

	return &Recomputation{
		Progression: p,
		Stats:       result.Stats,
		NewUnlocks:  newUnlocks,
		Events:      progression.BuildEvents(userID, snapshot.oldLevel, p.Level, newUnlocks, now),
	}, nil
}

func (d *progressionDomain) afterCommit(ctx context.Context, rec *Recomputation) {
	for _, u := range rec.NewUnlocks {
		common.PromCounters[common.AchievementsUnlockedTotal].
			WithLabelValues(u.Definition.Rarity.String()).Inc()
	}

	if d.cache != nil {
		d.refreshCache(ctx, rec)
	}

	if len(rec.Events) > 0 {
		rec.Events = d.publisher.Publish(ctx, rec.Events)
	}
}

// refreshCache overwrites the cached progression while the user is still
// locked. If it cannot be written the key is dropped.
func (d *progressionDomain) refreshCache(ctx context.Context, rec *Recomputation) {
	key := common.RedisKeyProgression(rec.Progression.UserID)
	result := convertProgression(rec.Progression, rec.Stats, d.engine.Curve())

	err := d.cache.SetObj(ctx, key, result, xcontext.Configs(ctx).Redis.CacheTTL)
	if err == nil {
		return
	}

	xcontext.Logger(ctx).Warnf("Cannot cache progression of %s: %v", rec.Progression.UserID, err)
	if err := d.cache.Del(ctx, key); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate progression cache: %v", err)
	}
}
