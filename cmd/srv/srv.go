package main

import (
	"context"
	"net/http"

	"github.com/immersionlab/backend/config"
	"github.com/immersionlab/backend/internal/domain"
	"github.com/immersionlab/backend/internal/domain/progression"
	"github.com/immersionlab/backend/internal/repository"
	"github.com/immersionlab/backend/migration"
	"github.com/immersionlab/backend/pkg/kafka"
	"github.com/immersionlab/backend/pkg/pubsub"
	"github.com/immersionlab/backend/pkg/router"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/immersionlab/backend/pkg/xredis"

	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	userRepo                repository.UserRepository
	immersionLogRepo        repository.ImmersionLogRepository
	progressionRepo         repository.ProgressionRepository
	userStatsRepo           repository.UserStatsRepository
	achievementRepo         repository.AchievementRepository
	unlockedAchievementRepo repository.UnlockedAchievementRepository
	clubMemberRepo          repository.ClubMemberRepository

	progressionDomain  domain.ProgressionDomain
	immersionLogDomain domain.ImmersionLogDomain

	engine      *progression.Engine
	locker      progression.Locker
	publisher   pubsub.Publisher
	redisClient xredis.Client

	router *router.Router
	server *http.Server
}

func (s *srv) newDatabase() *gorm.DB {
	cfg := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(parseDBLogLevel(cfg.LogLevel)),
	})
	if err != nil {
		panic(err)
	}

	return db
}

func parseDBLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "silent":
		return gormlogger.Silent
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	default:
		return gormlogger.Error
	}
}

func (s *srv) migrateDB() {
	if err := migration.Migrate(s.ctx); err != nil {
		panic(err)
	}
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.immersionLogRepo = repository.NewImmersionLogRepository()
	s.progressionRepo = repository.NewProgressionRepository()
	s.userStatsRepo = repository.NewUserStatsRepository()
	s.achievementRepo = repository.NewAchievementRepository()
	s.unlockedAchievementRepo = repository.NewUnlockedAchievementRepository()
	s.clubMemberRepo = repository.NewClubMemberRepository()
}

// loadRedisClient connects to redis only if it is configured. Without redis
// the service must run as a single instance.
func (s *srv) loadRedisClient() {
	if xcontext.Configs(s.ctx).Redis.Addr == "" {
		xcontext.Logger(s.ctx).Warnf("Redis is not configured, use in-memory locks")
		return
	}

	client, err := xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}

	s.redisClient = client
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx).Kafka
	if len(cfg.Addrs) == 0 {
		xcontext.Logger(s.ctx).Warnf("Kafka is not configured, progression events are only logged")
		return
	}

	publisher, err := kafka.NewPublisher(cfg)
	if err != nil {
		panic(err)
	}

	s.publisher = publisher
}

// loadEngine reads the achievement catalog from the database. The catalog
// shipped with the binary is used if the table was never seeded.
func (s *srv) loadEngine() {
	cfg := xcontext.Configs(s.ctx).Progression

	achievements, err := s.achievementRepo.GetAll(s.ctx)
	if err != nil {
		panic(err)
	}

	var catalog *progression.Catalog
	if len(achievements) == 0 {
		catalog, err = progression.DefaultCatalog()
	} else {
		catalog, err = progression.CatalogFromEntities(s.ctx, achievements)
	}
	if err != nil {
		panic(err)
	}

	xcontext.Logger(s.ctx).Infof("Loaded achievement catalog version %d with %d achievements",
		catalog.Version(), catalog.Len())

	s.engine = progression.NewEngine(
		progression.NewLevelCurve(cfg.Level),
		catalog,
		progression.StreakPolicy(cfg.StreakPolicy),
	)
}

func (s *srv) loadLocker() {
	if s.redisClient == nil {
		s.locker = progression.NewLocalLocker()
		return
	}

	s.locker = progression.NewRedisLocker(s.redisClient, xcontext.Configs(s.ctx).Redis.LockTTL)
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	eventPublisher, err := progression.NewEventPublisher(s.publisher, cfg.Kafka.Topic, nodeID(cfg))
	if err != nil {
		panic(err)
	}

	s.progressionDomain = domain.NewProgressionDomain(
		s.engine,
		s.locker,
		eventPublisher,
		s.redisClient,
		s.userRepo,
		s.immersionLogRepo,
		s.progressionRepo,
		s.userStatsRepo,
		s.unlockedAchievementRepo,
		s.clubMemberRepo,
	)

	s.immersionLogDomain = domain.NewImmersionLogDomain(
		s.immersionLogRepo,
		s.userRepo,
		s.progressionDomain,
		s.engine.Curve(),
	)
}

// loadAll prepares everything the progression domain needs.
func (s *srv) loadAll() {
	s.ctx = xcontext.WithDB(s.ctx, s.newDatabase())
	s.migrateDB()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadEngine()
	s.loadLocker()
	s.loadDomains()
}

func (s *srv) stop() {
	if s.publisher != nil {
		if err := s.publisher.Stop(s.ctx); err != nil {
			xcontext.Logger(s.ctx).Errorf("Cannot stop publisher: %v", err)
		}
	}
}

// nodeID distinguishes event ids generated by different instances.
func nodeID(cfg config.Configs) int64 {
	var h int64
	for _, c := range cfg.Kafka.ClientID + cfg.ApiServer.Address() {
		h = (h*31 + int64(c)) % 1024
	}

	return h
}
