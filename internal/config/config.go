// Package config loads service configuration: struct defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the optional YAML config file.
const PathEnvVar = "GAMESAGE_CONFIG"

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Inference InferenceConfig `koanf:"inference"`
	Diagnose  DiagnoseConfig  `koanf:"diagnose"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Addr           string  `koanf:"addr"`
	RateLimitRPS   float64 `koanf:"rate_limit_rps"`
	RateLimitBurst int     `koanf:"rate_limit_burst"`
}

type DatabaseConfig struct {
	Driver string `koanf:"driver"`
	DSN    string `koanf:"dsn"`
	// MigrationsDir overrides the migrations bundled into the binary.
	MigrationsDir string `koanf:"migrations_dir"`
	// SeedDir may hold rules.yaml and games.yaml replacing the bundled pack.
	SeedDir string `koanf:"seed_dir"`
}

type CombinedConfig struct {
	PriorityWeight    float64 `koanf:"priority_weight"`
	SpecificityWeight float64 `koanf:"specificity_weight"`
}

type InferenceConfig struct {
	MaxIterations   int            `koanf:"max_iterations"`
	DefaultStrategy string         `koanf:"default_strategy"`
	Combined        CombinedConfig `koanf:"combined"`
	ResultLimit     int            `koanf:"result_limit"`
	MaxResultLimit  int            `koanf:"max_result_limit"`
	Timeout         time.Duration  `koanf:"timeout"`
}

type DiagnoseConfig struct {
	DefaultPageSize int `koanf:"default_page_size"`
	MaxPageSize     int `koanf:"max_page_size"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold"`
	OpenTimeout      time.Duration `koanf:"open_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080", RateLimitRPS: 50, RateLimitBurst: 100},
		Database: DatabaseConfig{Driver: DriverMemory},
		Inference: InferenceConfig{
			MaxIterations:   50,
			DefaultStrategy: "combined",
			Combined:        CombinedConfig{PriorityWeight: 0.6, SpecificityWeight: 0.4},
			ResultLimit:     10,
			MaxResultLimit:  100,
			Timeout:         5 * time.Second,
		},
		Diagnose: DiagnoseConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Breaker:  BreakerConfig{FailureThreshold: 5, OpenTimeout: 30 * time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
	}
}

// Load layers defaults, the YAML file at path (or $GAMESAGE_CONFIG) and env.
// An empty path with no env override skips the file layer.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(PathEnvVar)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var envMappings = map[string]string{
	"gamesage_addr":                      "server.addr",
	"gamesage_rate_limit_rps":            "server.rate_limit_rps",
	"gamesage_rate_limit_burst":          "server.rate_limit_burst",
	"gamesage_db_driver":                 "database.driver",
	"gamesage_db_dsn":                    "database.dsn",
	"gamesage_migrations_dir":            "database.migrations_dir",
	"gamesage_seed_dir":                  "database.seed_dir",
	"gamesage_max_iterations":            "inference.max_iterations",
	"gamesage_default_strategy":          "inference.default_strategy",
	"gamesage_priority_weight":           "inference.combined.priority_weight",
	"gamesage_specificity_weight":        "inference.combined.specificity_weight",
	"gamesage_result_limit":              "inference.result_limit",
	"gamesage_max_result_limit":          "inference.max_result_limit",
	"gamesage_inference_timeout":         "inference.timeout",
	"gamesage_diagnose_page_size":        "diagnose.default_page_size",
	"gamesage_diagnose_max_page_size":    "diagnose.max_page_size",
	"gamesage_breaker_failure_threshold": "breaker.failure_threshold",
	"gamesage_breaker_open_timeout":      "breaker.open_timeout",
	"log_level":                          "logging.level",
	"log_format":                         "logging.format",
}

// envTransform maps known variables to config paths; everything else is dropped.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

func (c Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, errors.New("database.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported", c.Database.Driver))
	}
	if c.Inference.MaxIterations < 0 {
		errs = append(errs, errors.New("inference.max_iterations must not be negative"))
	}
	switch strings.ToLower(c.Inference.DefaultStrategy) {
	case "priority", "specificity", "combined":
	default:
		errs = append(errs, fmt.Errorf("inference.default_strategy %q is not supported", c.Inference.DefaultStrategy))
	}
	w := c.Inference.Combined
	if w.PriorityWeight < 0 || w.SpecificityWeight < 0 || w.PriorityWeight+w.SpecificityWeight == 0 {
		errs = append(errs, errors.New("inference.combined weights must be non-negative and not both zero"))
	}
	if c.Inference.ResultLimit <= 0 || c.Inference.MaxResultLimit < c.Inference.ResultLimit {
		errs = append(errs, errors.New("inference.result_limit must be positive and at most max_result_limit"))
	}
	if c.Inference.Timeout <= 0 {
		errs = append(errs, errors.New("inference.timeout must be positive"))
	}
	if c.Diagnose.DefaultPageSize <= 0 || c.Diagnose.MaxPageSize < c.Diagnose.DefaultPageSize {
		errs = append(errs, errors.New("diagnose.default_page_size must be positive and at most max_page_size"))
	}
	if c.Breaker.FailureThreshold == 0 {
		errs = append(errs, errors.New("breaker.failure_threshold must be positive"))
	}
	if c.Server.RateLimitRPS < 0 || c.Server.RateLimitBurst < 0 {
		errs = append(errs, errors.New("server rate limits must not be negative"))
	}
	return errors.Join(errs...)
}
