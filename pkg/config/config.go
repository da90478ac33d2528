package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the envconfig prefix for auto-derived variable names.
// Every variable this service reads carries the DUTCHBAMIN_ prefix.
const EnvPrefix = "DUTCHBAMIN"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Env variable names referenced directly by tests and tooling.
const (
	EnvAppEnv      = "DUTCHBAMIN_APP_ENV"
	EnvPort        = "DUTCHBAMIN_APP_PORT"
	EnvUpstreamURL = "DUTCHBAMIN_UPSTREAM_URL"
)

type Config struct {
	App        AppConfig
	Upstream   UpstreamConfig
	Poll       PollConfig
	LocalStore LocalStoreConfig
	CORS       CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Upstream.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DUTCHBAMIN_APP_ENV" required:"true"`
	Port         string `envconfig:"DUTCHBAMIN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DUTCHBAMIN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DUTCHBAMIN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// UpstreamConfig points at the remote Dutch Bamin backend that owns all
// business logic. Every proxied and direct call goes to BaseURL.
type UpstreamConfig struct {
	BaseURL     string        `envconfig:"DUTCHBAMIN_UPSTREAM_URL" required:"true"`
	CallTimeout time.Duration `envconfig:"DUTCHBAMIN_UPSTREAM_CALL_TIMEOUT" default:"10s"`
}

func (u UpstreamConfig) validate() error {
	parsed, err := url.Parse(u.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid upstream url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("upstream url must be http or https, got %q", u.BaseURL)
	}
	if u.CallTimeout <= 0 {
		return fmt.Errorf("upstream call timeout must be positive")
	}
	return nil
}

// PollConfig drives the room refresh schedule.
type PollConfig struct {
	Interval time.Duration `envconfig:"DUTCHBAMIN_POLL_INTERVAL" default:"3s"`
}

// LocalStoreConfig locates the client-local sqlite database holding the
// session, favorited stores, and recently visited rooms.
type LocalStoreConfig struct {
	Path string `envconfig:"DUTCHBAMIN_LOCAL_STORE_PATH" default:"dutchbamin.db"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"DUTCHBAMIN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
