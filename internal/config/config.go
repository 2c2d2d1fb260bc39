package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config holds all environment-driven settings, GW_ prefixed.
type Config struct {
	// HTTPAddr is the listen address of the HTTP front-end.
	HTTPAddr string `env:"GW_HTTP_ADDR" envDefault:":8080"`
	// PublicURL is how the service refers to itself in chat messages
	// and the admin panel.
	PublicURL string `env:"GW_PUBLIC_URL" envDefault:"http://localhost:8080"`

	Env       string `env:"GW_ENV" envDefault:"dev"`
	LogLevel  string `env:"GW_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"GW_LOG_FORMAT" envDefault:"json"`

	// Store selects the registry backend: memory (default) or sqlite.
	Store  string `env:"GW_STORE" envDefault:"memory"`
	DBPath string `env:"GW_DB_PATH" envDefault:"./data/gatewarden.db"`

	// RobloxBaseURL points at the identity directory; overridden in tests.
	RobloxBaseURL string `env:"GW_ROBLOX_API_URL" envDefault:"https://api.roblox.com"`
	// ResolveTimeout bounds each directory lookup. One attempt, no retry.
	ResolveTimeout time.Duration `env:"GW_RESOLVE_TIMEOUT" envDefault:"10s"`

	// CommandPrefix starts every chat command.
	CommandPrefix string `env:"GW_COMMAND_PREFIX" envDefault:"!"`
	// AdminRoleIDs is the role allow-list granting approver capability
	// alongside the platform admin flag.
	AdminRoleIDs []int64 `env:"GW_ADMIN_ROLE_IDS"`
	// SeedUserIDs pre-admits a fixed set of ids at startup.
	SeedUserIDs []int64 `env:"GW_SEED_USER_IDS"`

	// NotifyWorkers bounds the approval fan-out concurrency.
	NotifyWorkers int `env:"GW_NOTIFY_WORKERS" envDefault:"4"`

	ShutdownTimeout time.Duration `env:"GW_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// Load parses the environment into a Config and validates the handful
// of enum-like fields.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, err
	}

	if cfg.Env != "dev" && cfg.Env != "prod" {
		return Config{}, fmt.Errorf("GW_ENV: unknown environment %q", cfg.Env)
	}
	if cfg.Store != StoreMemory && cfg.Store != StoreSQLite {
		return Config{}, fmt.Errorf("GW_STORE: unknown backend %q", cfg.Store)
	}
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return Config{}, fmt.Errorf("GW_LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}
	if cfg.NotifyWorkers <= 0 {
		return Config{}, fmt.Errorf("GW_NOTIFY_WORKERS: must be positive, got %d", cfg.NotifyWorkers)
	}

	return cfg, nil
}
