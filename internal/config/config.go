// Package config loads cypher-builder.yaml. Every field is optional; the
// Effective* accessors fill in defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/DeusData/cypher-builder/internal/builder"
	"github.com/DeusData/cypher-builder/internal/connection"
	"github.com/DeusData/cypher-builder/internal/sampling"
	"github.com/DeusData/cypher-builder/internal/store"
)

// FileName is the config file looked up in the working directory.
const FileName = "cypher-builder.yaml"

var validate = validator.New()

// Config holds user-overridable settings.
type Config struct {
	Limits LimitsConfig `yaml:"limits"`

	// DeleteThresholdX is the pointer x below which a dropped query block
	// is deleted. Default: 300.
	DeleteThresholdX *float64 `yaml:"delete_threshold_x" validate:"omitempty,gte=0"`

	HTTP     HTTPConfig     `yaml:"http"`
	Store    StoreConfig    `yaml:"store"`
	Sampling SamplingConfig `yaml:"sampling"`

	// SchemaFile is a JSON or YAML schema loaded at startup and watched.
	SchemaFile string `yaml:"schema_file"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// Connection is the database sampled by sample_schema when no
	// descriptor is given. The password comes from NEO4J_PASSWORD.
	Connection *connection.Connection `yaml:"connection"`
}

// LimitsConfig caps the generated palettes.
type LimitsConfig struct {
	Nodes         *int `yaml:"nodes" validate:"omitempty,gt=0"`
	Relationships *int `yaml:"relationships" validate:"omitempty,gt=0"`
	Variables     *int `yaml:"variables" validate:"omitempty,gt=0"`
	Wizard        *int `yaml:"wizard" validate:"omitempty,gt=0"`
	AliasAttempts *int `yaml:"alias_attempts" validate:"omitempty,gt=0"`
}

// HTTPConfig configures the serve command.
type HTTPConfig struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StoreConfig configures the SQLite cache.
type StoreConfig struct {
	// Path defaults to cache.db in the user cache directory.
	Path   string `yaml:"path"`
	Driver string `yaml:"driver" validate:"omitempty,oneof=sqlite sqlite3"`
}

// SamplingConfig configures the sampling collaborator.
type SamplingConfig struct {
	Timeout  string        `yaml:"timeout"`
	Parallel *int          `yaml:"parallel" validate:"omitempty,gt=0"`
	Breaker  BreakerConfig `yaml:"breaker"`
}

// BreakerConfig configures the circuit breaker around sampling.
type BreakerConfig struct {
	MaxFailures *uint32 `yaml:"max_failures" validate:"omitempty,gt=0"`
	OpenTimeout string  `yaml:"open_timeout"`
}

// Default returns an empty configuration.
func Default() *Config {
	return &Config{}
}

// Load reads the config at path. An empty path means FileName in the
// working directory. A missing file yields defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = FileName
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		slog.Debug("config.default", "path", path)
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML config.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and duration strings.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, v := range map[string]string{
		"sampling.timeout":              c.Sampling.Timeout,
		"sampling.breaker.open_timeout": c.Sampling.Breaker.OpenTimeout,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid config: %s: %w", name, err)
		}
	}
	if c.Connection != nil {
		if err := c.Connection.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

// EffectiveLimits merges configured limits over builder.DefaultLimits.
func (c *Config) EffectiveLimits() builder.Limits {
	lim := builder.DefaultLimits()
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	set(&lim.Nodes, c.Limits.Nodes)
	set(&lim.Relationships, c.Limits.Relationships)
	set(&lim.Variables, c.Limits.Variables)
	set(&lim.Wizard, c.Limits.Wizard)
	set(&lim.AliasAttempts, c.Limits.AliasAttempts)
	return lim
}

// EffectiveDeleteThresholdX returns the configured threshold, or 300.
func (c *Config) EffectiveDeleteThresholdX() float64 {
	if c.DeleteThresholdX != nil {
		return *c.DeleteThresholdX
	}
	return 300
}

// EffectiveHTTPAddr returns the listen address, or ":7475".
func (c *Config) EffectiveHTTPAddr() string {
	if c.HTTP.Addr != "" {
		return c.HTTP.Addr
	}
	return ":7475"
}

// EffectiveCORSOrigins returns the allowed origins, or all.
func (c *Config) EffectiveCORSOrigins() []string {
	if len(c.HTTP.CORSOrigins) > 0 {
		return c.HTTP.CORSOrigins
	}
	return []string{"*"}
}

// EffectiveStoreDriver returns the SQL driver name, or the pure Go one.
func (c *Config) EffectiveStoreDriver() string {
	if c.Store.Driver != "" {
		return c.Store.Driver
	}
	return store.DriverPure
}

// EffectiveLogLevel maps log_level to a slog level.
func (c *Config) EffectiveLogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// EffectiveSampling merges configured sampling settings over
// sampling.DefaultOptions. Durations were checked by Validate.
func (c *Config) EffectiveSampling() sampling.Options {
	opts := sampling.DefaultOptions()
	if d, err := time.ParseDuration(c.Sampling.Timeout); err == nil {
		opts.Timeout = d
	}
	if c.Sampling.Parallel != nil {
		opts.Parallel = *c.Sampling.Parallel
	}
	if c.Sampling.Breaker.MaxFailures != nil {
		opts.MaxFailures = *c.Sampling.Breaker.MaxFailures
	}
	if d, err := time.ParseDuration(c.Sampling.Breaker.OpenTimeout); err == nil {
		opts.OpenTimeout = d
	}
	return opts
}

// EffectiveConnection returns the configured descriptor, or
// connection.Default, with the password taken from NEO4J_PASSWORD.
func (c *Config) EffectiveConnection() connection.Connection {
	conn := connection.Default()
	if c.Connection != nil {
		conn = *c.Connection
	}
	if pw := os.Getenv("NEO4J_PASSWORD"); pw != "" {
		conn.Password = pw
	}
	return conn
}
