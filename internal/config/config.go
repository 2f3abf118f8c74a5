package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	// workout plan spreadsheet uploads land here before being parsed
	PlanUploadsPath string `toml:"plan_uploads_path"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(path, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s is empty", env)
	}

	cfg.Environment = env
	if cfg.LoginRateLimitAllowedPerMin <= 0 {
		cfg.LoginRateLimitAllowedPerMin = 15
	}

	return cfg, nil
}
