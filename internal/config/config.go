package config

import (
	"time"

	"github.com/spf13/viper"

	pkgconfig "github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/config"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/database"
	"github.com/gm7627442-hub/myownpymessnger-pet-project/pkg/log"
)

type Config struct {
	Server   ServerConfig
	Database database.Config
	Cache    CacheConfig
	Health   HealthConfig
	Log      log.Config
}

type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	MaxConns      int           `mapstructure:"max_conns"`
	MaxLineBytes  int           `mapstructure:"max_line_bytes"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	HistoryReplay int           `mapstructure:"history_replay"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	RateBurst     int           `mapstructure:"rate_burst"`
	InboxLimit    int           `mapstructure:"inbox_limit"`
	ThreadLimit   int           `mapstructure:"thread_limit"`
}

type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
	Prefix   string        `mapstructure:"prefix"`
}

type HealthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5555)
	v.SetDefault("server.max_conns", 256)
	v.SetDefault("server.max_line_bytes", 4096)
	v.SetDefault("server.write_timeout", "10s")
	v.SetDefault("server.history_replay", 20)
	v.SetDefault("server.rate_per_second", 5.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.inbox_limit", 50)
	v.SetDefault("server.thread_limit", 50)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "messenger.db")
	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", "30s")
	v.SetDefault("cache.prefix", "chat:history")
	v.SetDefault("health.enabled", true)
	v.SetDefault("health.address", "0.0.0.0:8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "chat-server")

	// Override from environment
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.max_conns", "MAX_CONNS")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("cache.enabled", "CACHE_ENABLED")
	v.BindEnv("cache.address", "REDIS_ADDRESS")
	v.BindEnv("cache.password", "REDIS_PASSWORD")
	v.BindEnv("log.level", "LOG_LEVEL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Parse durations
	cfg.Server.WriteTimeout = parseDuration(v, "server.write_timeout", 10*time.Second)
	cfg.Cache.TTL = parseDuration(v, "cache.ttl", 30*time.Second)

	return &cfg, nil
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}
