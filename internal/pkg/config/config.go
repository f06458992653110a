package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreFile   = "file"
	TokenStoreRedis  = "redis"
)

// Reconcile policies for optimistic ingredient writes.
const (
	PolicyLastWriteWins     = "last-write-wins"
	PolicyRollbackOnFailure = "rollback-on-failure"
)

type Config struct {
	BackendURL  string        `env:"CABINET_BACKEND_URL, default=http://127.0.0.1:5000/api/" validate:"required,url"`
	Env         string        `env:"ENV,                 default=development"`
	LogLevel    string        `env:"LOG_LEVEL,           default=info"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT,        default=0s" validate:"gte=0"`

	SearchDebounce  time.Duration `env:"SEARCH_DEBOUNCE,   default=500ms" validate:"gt=0"`
	DispatchWorkers int           `env:"DISPATCH_WORKERS,  default=4"     validate:"min=1,max=64"`
	WidgetInitDelay time.Duration `env:"WIDGET_INIT_DELAY, default=0s"    validate:"gte=0"`
	MetricsAddr     string        `env:"METRICS_ADDR"`
	ReconcilePolicy string        `env:"RECONCILE_POLICY,  default=last-write-wins" validate:"oneof=last-write-wins rollback-on-failure"`

	Token TokenConfig
	Redis RedisConfig
}

type TokenConfig struct {
	Store string `env:"TOKEN_STORE, default=file" validate:"oneof=memory file redis"`
	File  string `env:"TOKEN_FILE"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR,      default=localhost:6379"`
	DB       int           `env:"REDIS_DB,        default=0"`
	TokenKey string        `env:"REDIS_TOKEN_KEY, default=cabinet:session:token"`
	TokenTTL time.Duration `env:"REDIS_TOKEN_TTL, default=24h"`
}

// Load reads configuration from environment variables using go-envconfig and
// validates the result.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit lookuper, used by tests.
func LoadFrom(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Token.File == "" {
		cfg.Token.File = defaultTokenFile()
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

// IsProduction reports whether ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "cabinet", "token")
	}
	return filepath.Join(home, ".cabinet", "token")
}
