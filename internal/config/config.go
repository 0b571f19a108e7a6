package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nexoratech/riskvault/internal/models"
)

// Config captures the settings required to boot the risk analysis service.
type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Clients  ClientsConfig   `yaml:"clients"`
	Logging  LoggingConfig   `yaml:"logging"`
	Analysis models.Tunables `yaml:"analysis"`
	Actions  ActionsConfig   `yaml:"actions"`
	Cache    CacheConfig     `yaml:"cache"`
	Notify   NotifyConfig    `yaml:"notify"`
}

// ServerConfig controls the HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// ClientsConfig groups the collaborator integrations.
type ClientsConfig struct {
	Normalizer NormalizerClientConfig `yaml:"normalizer"`
	Archive    ArchiveClientConfig    `yaml:"archive"`
}

// NormalizerClientConfig configures access to the event normalizer APIs.
type NormalizerClientConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	EventsPath string        `yaml:"eventsPath"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ArchiveClientConfig configures the append-only report archive.
type ArchiveClientConfig struct {
	BaseURL     string        `yaml:"baseURL"`
	ReportsPath string        `yaml:"reportsPath"`
	Timeout     time.Duration `yaml:"timeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// ActionsConfig controls action-pack loading for the aggregator.
type ActionsConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig controls Valkey-backed caching of normalizer fetches and
// analysis results.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	EventsTTL    time.Duration `yaml:"eventsTTL"`
	ResultsTTL   time.Duration `yaml:"resultsTTL"`
}

// NotifyConfig controls publication of critical summaries to NATS.
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Load initialises Config from a YAML file, applies environment overrides and
// validates the analysis thresholds. A degenerate threshold is rejected here
// instead of silently collapsing a risk band at scoring time.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("RISKVAULT_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Analysis.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis configuration: %w", err)
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Clients: ClientsConfig{
			Normalizer: NormalizerClientConfig{
				EventsPath: "/api/v1/events",
				Timeout:    5 * time.Second,
			},
			Archive: ArchiveClientConfig{
				ReportsPath: "/api/v1/reports",
				Timeout:     5 * time.Second,
			},
		},
		Logging:  LoggingConfig{Level: "info", JSON: false},
		Analysis: models.DefaultTunables(),
		Actions:  ActionsConfig{Path: "configs/actions/default.yaml"},
		Cache: CacheConfig{
			Enabled:      false,
			EventsTTL:    2 * time.Minute,
			ResultsTTL:   5 * time.Minute,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
		},
		Notify: NotifyConfig{
			Enabled: false,
			Subject: "riskvault.summary.critical",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RISKVAULT_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("RISKVAULT_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("RISKVAULT_NORMALIZER_BASE_URL"); v != "" {
		cfg.Clients.Normalizer.BaseURL = v
	}
	if v := os.Getenv("RISKVAULT_NORMALIZER_EVENTS_PATH"); v != "" {
		cfg.Clients.Normalizer.EventsPath = v
	}
	if v := os.Getenv("RISKVAULT_ARCHIVE_BASE_URL"); v != "" {
		cfg.Clients.Archive.BaseURL = v
	}
	if v := os.Getenv("RISKVAULT_ARCHIVE_REPORTS_PATH"); v != "" {
		cfg.Clients.Archive.ReportsPath = v
	}
	if v := os.Getenv("RISKVAULT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RISKVAULT_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("RISKVAULT_ACTIONS_PATH"); v != "" {
		cfg.Actions.Path = v
	}
	if v := os.Getenv("RISKVAULT_DEFAULT_DETECTABILITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.DefaultDetectability = n
		}
	}
	if v := os.Getenv("RISKVAULT_CRITICAL_RPN_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.CriticalRPNThreshold = n
		}
	}
	if v := os.Getenv("RISKVAULT_BURST_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.BurstWindowSeconds = n
		}
	}
	if v := os.Getenv("RISKVAULT_BURST_ATTEMPT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.BurstAttemptThreshold = n
		}
	}
	if v := os.Getenv("RISKVAULT_WATCHLIST"); v != "" {
		parts := strings.Split(v, ",")
		watchlist := make([]string, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				watchlist = append(watchlist, part)
			}
		}
		cfg.Analysis.Watchlist = watchlist
	}
	if v := os.Getenv("RISKVAULT_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("RISKVAULT_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("RISKVAULT_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("RISKVAULT_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("RISKVAULT_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("RISKVAULT_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("RISKVAULT_CACHE_DIAL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.DialTimeout = d
		}
	}
	if v := os.Getenv("RISKVAULT_CACHE_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ReadTimeout = d
		}
	}
	if v := os.Getenv("RISKVAULT_CACHE_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.WriteTimeout = d
		}
	}
	if v := os.Getenv("RISKVAULT_CACHE_MAX_RETRIES"); v != "" {
		if retry, err := strconv.Atoi(v); err == nil {
			cfg.Cache.MaxRetries = retry
		}
	}
	if v := os.Getenv("RISKVAULT_CACHE_EVENTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.EventsTTL = d
		}
	}
	if v := os.Getenv("RISKVAULT_CACHE_RESULTS_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ResultsTTL = d
		}
	}
	if v := os.Getenv("RISKVAULT_NOTIFY_ENABLED"); v != "" {
		cfg.Notify.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("RISKVAULT_NOTIFY_URL"); v != "" {
		cfg.Notify.URL = v
	}
	if v := os.Getenv("RISKVAULT_NOTIFY_SUBJECT"); v != "" {
		cfg.Notify.Subject = v
	}
}
