package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

type Config struct {
	Addr     string `env:"HEIST_ADDR" envDefault:":8080"`
	Env      string `env:"HEIST_ENV" envDefault:"development"`
	LogLevel string `env:"HEIST_LOG_LEVEL" envDefault:"info"`

	Store       string        `env:"HEIST_STORE" envDefault:"memory"`
	DatabaseURL string        `env:"HEIST_DATABASE_URL"`
	SQLitePath  string        `env:"HEIST_SQLITE_PATH" envDefault:"heist.db"`
	RedisAddr   string        `env:"HEIST_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisTTL    time.Duration `env:"HEIST_REDIS_TTL" envDefault:"24h"`

	PersistTimeout  time.Duration `env:"HEIST_PERSIST_TIMEOUT" envDefault:"2s"`
	RoomIdleTimeout time.Duration `env:"HEIST_ROOM_IDLE_TIMEOUT" envDefault:"10m"`
	PingInterval    time.Duration `env:"HEIST_WS_PING_INTERVAL" envDefault:"30s"`

	// AllowedOrigins are websocket origin patterns, e.g. "localhost:5173".
	AllowedOrigins []string `env:"HEIST_ALLOWED_ORIGINS" envSeparator:","`
}

// Load reads the optional dotenv files, then the environment. Variables
// already set in the environment win over the files.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("HEIST_DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.PersistTimeout <= 0 {
		return fmt.Errorf("HEIST_PERSIST_TIMEOUT must be positive")
	}
	if c.PingInterval <= 0 {
		return fmt.Errorf("HEIST_WS_PING_INTERVAL must be positive")
	}
	return nil
}

func (c Config) Development() bool {
	return c.Env == "development"
}
