package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/entity"
	"github.com/immersionlab/backend/internal/model"
	"github.com/immersionlab/backend/internal/repository"
	"github.com/immersionlab/backend/pkg/errorx"
	"github.com/immersionlab/backend/pkg/pubsub"
	"github.com/immersionlab/backend/pkg/testutil"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/immersionlab/backend/pkg/xredis"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// publishedEvents collects every event sent through the mock publisher.
type publishedEvents struct {
	mutex  sync.Mutex
	events []progression.Event
}

func (p *publishedEvents) publisher() *testutil.MockPublisher {
	return &testutil.MockPublisher{
		PublishFunc: func(ctx context.Context, topic string, pack *pubsub.Pack) error {
			var e progression.Event
			if err := json.Unmarshal(pack.Msg, &e); err != nil {
				return err
			}

			p.mutex.Lock()
			defer p.mutex.Unlock()
			p.events = append(p.events, e)
			return nil
		},
	}
}

func (p *publishedEvents) keys() []string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	keys := []string{}
	for _, e := range p.events {
		if e.Type == progression.AchievementUnlockedEvent {
			keys = append(keys, e.AchievementKey)
		}
	}

	return keys
}

func newTestProgressionDomain(
	t *testing.T, ctx context.Context, cache xredis.Client, published *publishedEvents,
) *progressionDomain {
	catalog, err := progression.DefaultCatalog()
	require.NoError(t, err)

	cfg := xcontext.Configs(ctx).Progression
	engine := progression.NewEngine(
		progression.NewLevelCurve(cfg.Level), catalog, progression.StreakPolicy(cfg.StreakPolicy))

	var publisher pubsub.Publisher
	if published != nil {
		publisher = published.publisher()
	}

	eventPublisher, err := progression.NewEventPublisher(publisher, "progression", 1)
	require.NoError(t, err)

	return NewProgressionDomain(
		engine,
		progression.NewLocalLocker(),
		eventPublisher,
		cache,
		repository.NewUserRepository(),
		repository.NewImmersionLogRepository(),
		repository.NewProgressionRepository(),
		repository.NewUserStatsRepository(),
		repository.NewUnlockedAchievementRepository(),
		repository.NewClubMemberRepository(),
	)
}

// insertLog stores a log without recomputing, as if the recompute after it
// had failed.
func insertLog(t *testing.T, ctx context.Context, id, userID string, logType entity.ImmersionType, date string, chars, minutes int64) {
	d, err := time.Parse(time.RFC3339, date)
	require.NoError(t, err)

	log := &entity.ImmersionLog{
		Base:   entity.Base{ID: id},
		UserID: userID,
		Type:   logType,
		Date:   d,
	}

	if chars > 0 {
		log.Chars = sql.NullInt64{Int64: chars, Valid: true}
	}

	if minutes > 0 {
		log.Time = sql.NullInt64{Int64: minutes, Valid: true}
	}

	require.NoError(t, repository.NewImmersionLogRepository().Create(ctx, log))
}

func Test_progressionDomain_Recompute(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	published := &publishedEvents{}
	d := newTestProgressionDomain(t, ctx, nil, published)

	insertLog(t, ctx, "log1", testutil.User1.ID, entity.Reading, "2024-03-01T12:00:00Z", 350000, 0)

	rec, err := d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), rec.Progression.CumulativeXP)
	require.Equal(t, 6, rec.Progression.Level)
	require.Equal(t, 1, rec.Progression.CurrentStreak)
	require.Equal(t, "2024-03-01", rec.Progression.LastActiveDay)
	require.Equal(t, uint64(1), rec.Progression.Version)
	require.Len(t, rec.NewUnlocks, 3)

	require.Len(t, rec.Events, 4)
	require.Equal(t, progression.LevelUpEvent, rec.Events[0].Type)
	require.Equal(t, 1, rec.Events[0].OldLevel)
	require.Equal(t, 6, rec.Events[0].NewLevel)
	require.Equal(t, []string{"first_log", "reader_5", "chars_100k"}, published.keys())
	for _, e := range rec.Events {
		require.NotEmpty(t, e.ID)
	}

	stored, err := repository.NewProgressionRepository().Get(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(5000), stored.CumulativeXP)

	stats, err := repository.NewUserStatsRepository().Get(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(350000), stats.CharsRead)
	require.Equal(t, 6, stats.ReadingLevel)

	// Nothing changed, so nothing is unlocked or announced again.
	rec, err = d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Empty(t, rec.NewUnlocks)
	require.Empty(t, rec.Events)
	require.Equal(t, uint64(2), rec.Progression.Version)
	require.Len(t, published.keys(), 3)
}

func Test_progressionDomain_Recompute_NotFoundUser(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	_, err := d.Recompute(ctx, "unknown")
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))
}

func Test_progressionDomain_Recompute_InvalidTimezone(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	// The timezone of the user cannot be loaded, so the day is counted in UTC.
	insertLog(t, ctx, "log1", testutil.User3.ID, entity.Anime, "2024-03-01T23:00:00Z", 0, 30)

	rec, err := d.Recompute(ctx, testutil.User3.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-03-01", rec.Progression.LastActiveDay)
	require.Equal(t, uint64(150), rec.Progression.CumulativeXP)
}

func Test_progressionDomain_Recompute_ClubMembership(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	testutil.InsertClubMember(ctx, "club1", testutil.User1.ID)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	rec, err := d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), rec.Stats.ClubMemberships)
	require.Equal(t, []string{"club_member"}, unlockedKeys(rec.NewUnlocks))
	require.Empty(t, rec.Progression.LastActiveDay)
	require.Equal(t, 1, rec.Progression.Level)
}

func Test_progressionDomain_Recompute_StaleVersion(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	insertLog(t, ctx, "log1", testutil.User1.ID, entity.Anime, "2024-03-01T12:00:00Z", 0, 10)
	_, err := d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)

	// A snapshot read before the first commit is stale now.
	staleLoad := func(ctx context.Context, userID string) (*userSnapshot, error) {
		snapshot, err := d.loadUser(ctx, userID)
		if err != nil {
			return nil, err
		}

		snapshot.readVersion = 0
		return snapshot, nil
	}

	rec, err := d.recomputeUser(ctx, batchPath, testutil.User1.ID, staleLoad)
	require.NoError(t, err)
	require.Equal(t, uint64(2), rec.Progression.Version)

	// Without retries the conflict is reported.
	cfg := xcontext.Configs(ctx)
	cfg.Progression.MaxConflictRetries = 0
	noRetryCtx := xcontext.WithConfigs(ctx, cfg)

	_, err = d.recomputeUser(noRetryCtx, batchPath, testutil.User1.ID, staleLoad)
	require.ErrorIs(t, err, progression.ErrConcurrentMutation)

	stored, err := repository.NewProgressionRepository().Get(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, uint64(2), stored.Version)
}

func Test_progressionDomain_GetProgression(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	// A user without any log is at the first level.
	resp, err := d.GetProgression(ctx, &model.GetProgressionRequest{UserID: testutil.User2.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.User2.ID, resp.Progression.UserID)
	require.Equal(t, 1, resp.Progression.Level.Level)
	require.Equal(t, uint64(500), resp.Progression.Level.XPCeiling)
	require.Zero(t, resp.Progression.CumulativeXP)

	insertLog(t, ctx, "log1", testutil.User2.ID, entity.Reading, "2024-03-01T12:00:00Z", 35000, 0)
	_, err = d.Recompute(ctx, testutil.User2.ID)
	require.NoError(t, err)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	resp, err = d.GetProgression(userCtx, &model.GetProgressionRequest{})
	require.NoError(t, err)
	require.Equal(t, uint64(500), resp.Progression.CumulativeXP)
	require.Equal(t, 2, resp.Progression.Level.Level)
	require.Equal(t, int64(35000), resp.Progression.Stats.CharsRead)
	require.Equal(t, "2024-03-01", resp.Progression.LastActiveDay)

	_, err = d.GetProgression(ctx, &model.GetProgressionRequest{UserID: "unknown"})
	require.ErrorIs(t, err, errorx.New(errorx.NotFound, ""))

	_, err = d.GetProgression(ctx, &model.GetProgressionRequest{})
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))
}

// memoryCache is a MockRedisClient which keeps objects in a map.
type memoryCache struct {
	mutex   sync.Mutex
	objects map[string][]byte
	dels    []string
}

func (c *memoryCache) client(t *testing.T) *testutil.MockRedisClient {
	c.objects = map[string][]byte{}
	set := func(key string, obj any, onlyNew bool) bool {
		c.mutex.Lock()
		defer c.mutex.Unlock()
		if _, ok := c.objects[key]; ok && onlyNew {
			return false
		}

		b, err := json.Marshal(obj)
		require.NoError(t, err)
		c.objects[key] = b
		return true
	}

	return &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			require.Equal(t, 5*time.Minute, ttl)
			set(key, obj, false)
			return nil
		},
		SetObjNXFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) (bool, error) {
			require.Equal(t, 5*time.Minute, ttl)
			return set(key, obj, true), nil
		},
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			c.mutex.Lock()
			defer c.mutex.Unlock()
			b, ok := c.objects[key]
			if !ok {
				return redis.Nil
			}
			return json.Unmarshal(b, v)
		},
		DelFunc: func(ctx context.Context, key ...string) error {
			c.mutex.Lock()
			defer c.mutex.Unlock()
			for _, k := range key {
				delete(c.objects, k)
				c.dels = append(c.dels, k)
			}
			return nil
		},
	}
}

func (c *memoryCache) get(t *testing.T, key string) (model.Progression, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var p model.Progression
	b, ok := c.objects[key]
	if ok {
		require.NoError(t, json.Unmarshal(b, &p))
	}
	return p, ok
}

func Test_progressionDomain_GetProgression_Cache(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	insertLog(t, ctx, "log1", testutil.User1.ID, entity.Reading, "2024-03-01T12:00:00Z", 35000, 0)

	cache := &memoryCache{}
	client := cache.client(t)
	d := newTestProgressionDomain(t, ctx, client, nil)

	resp, err := d.GetProgression(ctx, &model.GetProgressionRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)
	require.Zero(t, resp.Progression.CumulativeXP)

	cached, ok := cache.get(t, "progression:user1")
	require.True(t, ok)
	require.Zero(t, cached.CumulativeXP)

	// A recompute overwrites the cached progression.
	_, err = d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)

	cached, ok = cache.get(t, "progression:user1")
	require.True(t, ok)
	require.Equal(t, uint64(500), cached.CumulativeXP)
	require.Equal(t, testutil.User1.ID, cached.UserID)
	require.Empty(t, cache.dels)

	resp, err = d.GetProgression(ctx, &model.GetProgressionRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)
	require.Equal(t, uint64(500), resp.Progression.CumulativeXP)

	// A cached progression is returned without touching the database.
	require.NoError(t, client.SetObj(ctx, "progression:ghost", model.Progression{CumulativeXP: 42}, 5*time.Minute))
	resp, err = d.GetProgression(ctx, &model.GetProgressionRequest{UserID: "ghost"})
	require.NoError(t, err)
	require.Equal(t, uint64(42), resp.Progression.CumulativeXP)
}

func Test_progressionDomain_GetProgression_CacheRace(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	cache := &memoryCache{}
	client := cache.client(t)
	d := newTestProgressionDomain(t, ctx, client, nil)

	// A log is created and recomputed after the reader loaded the empty
	// progression, but before it caches it.
	setObjNX := client.SetObjNXFunc
	client.SetObjNXFunc = func(ctx context.Context, key string, obj any, ttl time.Duration) (bool, error) {
		require.Zero(t, obj.(model.Progression).CumulativeXP)

		insertLog(t, ctx, "log1", testutil.User1.ID, entity.Anime, "2024-03-01T12:00:00Z", 0, 20)
		_, err := d.Recompute(ctx, testutil.User1.ID)
		require.NoError(t, err)

		return setObjNX(ctx, key, obj, ttl)
	}

	_, err := d.GetProgression(ctx, &model.GetProgressionRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)

	cached, ok := cache.get(t, "progression:user1")
	require.True(t, ok)
	require.Equal(t, uint64(100), cached.CumulativeXP)

	client.SetObjNXFunc = setObjNX
	resp, err := d.GetProgression(ctx, &model.GetProgressionRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)
	require.Equal(t, uint64(100), resp.Progression.CumulativeXP)
}

func Test_progressionDomain_Recompute_CacheFailure(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)

	var dels []string
	d := newTestProgressionDomain(t, ctx, &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			return errors.New("redis is down")
		},
		DelFunc: func(ctx context.Context, key ...string) error {
			dels = append(dels, key...)
			return nil
		},
	}, nil)

	_, err := d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"progression:user1"}, dels)
}

func Test_progressionDomain_GetAchievements(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	insertLog(t, ctx, "log1", testutil.User1.ID, entity.Reading, "2024-03-01T12:00:00Z", 350000, 0)
	_, err := d.Recompute(ctx, testutil.User1.ID)
	require.NoError(t, err)

	resp, err := d.GetAchievements(ctx, &model.GetAchievementsRequest{UserID: testutil.User1.ID})
	require.NoError(t, err)
	require.Equal(t, 1, resp.CatalogVersion)
	require.Equal(t, 10+40+30, resp.TotalPoints)

	// Hidden achievements are only listed once unlocked.
	require.Len(t, resp.Achievements, 21)

	unlocked := []string{}
	for i, a := range resp.Achievements {
		require.False(t, a.Hidden)
		if a.Unlocked {
			unlocked = append(unlocked, a.Key)
			require.NotEmpty(t, a.UnlockedAt)
		}

		if i > 0 {
			prev, err := progression.ParseRarity(resp.Achievements[i-1].Rarity)
			require.NoError(t, err)
			cur, err := progression.ParseRarity(a.Rarity)
			require.NoError(t, err)
			require.LessOrEqual(t, int(prev), int(cur))
		}
	}
	require.ElementsMatch(t, []string{"first_log", "reader_5", "chars_100k"}, unlocked)

	// Another user sees nothing unlocked.
	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	resp, err = d.GetAchievements(userCtx, &model.GetAchievementsRequest{})
	require.NoError(t, err)
	require.Zero(t, resp.TotalPoints)
	for _, a := range resp.Achievements {
		require.False(t, a.Unlocked)
	}
}

func Test_progressionDomain_UpdateTimezone(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestProgressionDomain(t, ctx, nil, nil)

	// Two UTC days, but the same day in Tokyo.
	insertLog(t, ctx, "log1", testutil.User1.ID, entity.Anime, "2024-03-01T16:00:00Z", 0, 10)
	insertLog(t, ctx, "log2", testutil.User1.ID, entity.Anime, "2024-03-02T14:00:00Z", 0, 10)

	userCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	rec, err := d.Recompute(userCtx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, 2, rec.Progression.CurrentStreak)

	resp, err := d.UpdateTimezone(userCtx, &model.UpdateTimezoneRequest{Timezone: "Asia/Tokyo"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.Progression.CurrentStreak)
	require.Equal(t, 1, resp.Progression.LongestStreak)
	require.Equal(t, "2024-03-02", resp.Progression.LastActiveDay)

	user, err := repository.NewUserRepository().GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.Equal(t, "Asia/Tokyo", user.Timezone)

	_, err = d.UpdateTimezone(userCtx, &model.UpdateTimezoneRequest{Timezone: "Mars/Olympus_Mons"})
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))

	_, err = d.UpdateTimezone(userCtx, &model.UpdateTimezoneRequest{})
	require.ErrorIs(t, err, errorx.New(errorx.BadRequest, ""))
}

func unlockedKeys(unlocks []progression.Unlock) []string {
	keys := []string{}
	for _, u := range unlocks {
		keys = append(keys, u.Definition.Key)
	}

	return keys
}
