package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	Database    DatabaseConfigs    `toml:"database"`
	ApiServer   ServerConfigs      `toml:"api_server"`
	Redis       RedisConfigs       `toml:"redis"`
	Kafka       KafkaConfigs       `toml:"kafka"`
	Progression ProgressionConfigs `toml:"progression"`
	Admin       AdminConfigs       `toml:"admin"`
}

type DatabaseConfigs struct {
	Host     string `toml:"host"`
	Port     string `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	LogLevel string `toml:"log_level"`
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type ServerConfigs struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	AllowedOrigins []string `toml:"allowed_origins"`
}

func (s *ServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

type RedisConfigs struct {
	// Addr is empty when the service runs as a single instance. Per-user locks
	// are kept in memory in that case.
	Addr    string        `toml:"addr"`
	LockTTL time.Duration `toml:"lock_ttl"`

	// CacheTTL is how long a read progression is cached.
	CacheTTL time.Duration `toml:"cache_ttl"`
}

type KafkaConfigs struct {
	Addrs    []string `toml:"addrs"`
	ClientID string   `toml:"client_id"`
	Topic    string   `toml:"topic"`
}

type LevelConfigs struct {
	BaseXP   uint64 `toml:"base_xp"`
	GrowthXP uint64 `toml:"growth_xp"`
	MaxLevel int    `toml:"max_level"`
}

type ProgressionConfigs struct {
	Level LevelConfigs `toml:"level"`

	// StreakPolicy decides which streak value is compared with streak_days
	// achievements, either "longest" or "current".
	StreakPolicy string `toml:"streak_policy"`

	DefaultTimezone    string `toml:"default_timezone"`
	MaxConflictRetries int    `toml:"max_conflict_retries"`

	BatchSize        int `toml:"batch_size"`
	BatchConcurrency int `toml:"batch_concurrency"`

	// RecalculateHour is the hour of day (UTC) when the nightly recalculation
	// runs. A negative value disables the job.
	RecalculateHour int `toml:"recalculate_hour"`
}

type AdminConfigs struct {
	Token string `toml:"token"`
}

func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		Database: DatabaseConfigs{
			Host:     "localhost",
			Port:     "3306",
			Database: "immersion",
			User:     "root",
			LogLevel: "error",
		},
		ApiServer: ServerConfigs{
			Host:           "",
			Port:           "8080",
			AllowedOrigins: []string{"*"},
		},
		Redis: RedisConfigs{
			LockTTL:  30 * time.Second,
			CacheTTL: 5 * time.Minute,
		},
		Kafka: KafkaConfigs{
			ClientID: "progression",
			Topic:    "progression",
		},
		Progression: ProgressionConfigs{
			Level: LevelConfigs{
				BaseXP:   500,
				GrowthXP: 250,
				MaxLevel: 100,
			},
			StreakPolicy:       "longest",
			DefaultTimezone:    "UTC",
			MaxConflictRetries: 3,
			BatchSize:          100,
			BatchConcurrency:   4,
			RecalculateHour:    3,
		},
	}
}
