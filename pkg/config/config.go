package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App         AppConfig
	API         APIConfig
	Terminal    TerminalConfig
	Scan        ScanConfig
	Store       StoreConfig
	Diagnostics DiagnosticsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PDV_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"PDV_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PDV_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL        string        `envconfig:"PDV_API_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"PDV_API_REQUEST_TIMEOUT" default:"30s"`
}

func (a APIConfig) validate() error {
	if !strings.HasPrefix(a.BaseURL, "http://") && !strings.HasPrefix(a.BaseURL, "https://") {
		return fmt.Errorf("PDV_API_BASE_URL must be an http(s) URL, got %q", a.BaseURL)
	}
	return nil
}

type TerminalConfig struct {
	// DefaultName seeds first-run setup; the persisted name in the local
	// store always wins once present.
	DefaultName string `envconfig:"PDV_TERMINAL_DEFAULT_NAME"`
}

type ScanConfig struct {
	InterKeyTolerance time.Duration `envconfig:"PDV_SCAN_INTERKEY_TOLERANCE" default:"100ms"`
	MinLength         int           `envconfig:"PDV_SCAN_MIN_LENGTH" default:"3"`
}

type StoreConfig struct {
	SQLitePath string `envconfig:"PDV_STORE_SQLITE_PATH" default:"pdv.db"`
}

type DiagnosticsConfig struct {
	// Addr of the local metrics/health listener; empty disables it.
	Addr string `envconfig:"PDV_DIAG_ADDR" default:"127.0.0.1:9464"`
}

func (d DiagnosticsConfig) Enabled() bool {
	return strings.TrimSpace(d.Addr) != ""
}
