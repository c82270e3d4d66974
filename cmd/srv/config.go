package main

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/immersionlab/backend/config"
	"github.com/immersionlab/backend/pkg/logger"
	"github.com/immersionlab/backend/pkg/xcontext"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func (s *srv) loadConfig(cctx *cli.Context) error {
	if err := godotenv.Load(cctx.String("env-file")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	cfg := config.Default()
	if path := cctx.String("config"); path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return err
		}
	}

	if err := overrideFromEnv(&cfg); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}

	s.ctx = xcontext.NewContext(cctx.Context, cfg, logger.NewLogger(level))
	return nil
}

// overrideFromEnv replaces the values of the config file by the non-empty
// environment variables.
func overrideFromEnv(cfg *config.Configs) error {
	setString(&cfg.Env, "ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")

	setString(&cfg.Database.Host, "DB_HOST")
	setString(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.Database, "DB_DATABASE")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.LogLevel, "DB_LOG_LEVEL")

	setString(&cfg.ApiServer.Host, "API_SERVER_HOST")
	setString(&cfg.ApiServer.Port, "API_SERVER_PORT")
	if v := os.Getenv("API_SERVER_ALLOWED_ORIGINS"); v != "" {
		cfg.ApiServer.AllowedOrigins = strings.Split(v, ",")
	}

	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	if err := setDuration(&cfg.Redis.LockTTL, "REDIS_LOCK_TTL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Redis.CacheTTL, "REDIS_CACHE_TTL"); err != nil {
		return err
	}

	if v := os.Getenv("KAFKA_ADDRS"); v != "" {
		cfg.Kafka.Addrs = strings.Split(v, ",")
	}
	setString(&cfg.Kafka.ClientID, "KAFKA_CLIENT_ID")
	setString(&cfg.Kafka.Topic, "KAFKA_TOPIC")

	setString(&cfg.Progression.StreakPolicy, "PROGRESSION_STREAK_POLICY")
	setString(&cfg.Progression.DefaultTimezone, "PROGRESSION_DEFAULT_TIMEZONE")
	if err := setInt(&cfg.Progression.MaxConflictRetries, "PROGRESSION_MAX_CONFLICT_RETRIES"); err != nil {
		return err
	}
	if err := setInt(&cfg.Progression.BatchSize, "PROGRESSION_BATCH_SIZE"); err != nil {
		return err
	}
	if err := setInt(&cfg.Progression.BatchConcurrency, "PROGRESSION_BATCH_CONCURRENCY"); err != nil {
		return err
	}
	if err := setInt(&cfg.Progression.RecalculateHour, "PROGRESSION_RECALCULATE_HOUR"); err != nil {
		return err
	}

	setString(&cfg.Admin.Token, "ADMIN_TOKEN")
	return nil
}

func setString(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}

func setInt(field *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}

	*field = n
	return nil
}

func setDuration(field *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}

	*field = d
	return nil
}
