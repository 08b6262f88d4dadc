// Package config loads empsearch settings from an optional YAML or TOML file, then applies
// EMPSEARCH_* environment overrides on top.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rshade/empsearch/internal/engine/cache"
)

// Defaults applied before any file or environment override.
const (
	DefaultDriver       = "sqlite"
	DefaultDSN          = "file:empsearch.db"
	DefaultCacheDir     = cache.DefaultDirectory
	DefaultLogLevel     = "warn"
	DefaultLogFormat    = "console"
	DefaultOutputFormat = "csv"
)

// DefaultFileNames are searched, in order, in the working directory when no path is given.
var DefaultFileNames = []string{"empsearch.yaml", "empsearch.yml", "empsearch.toml"}

// ErrInvalidConfig is wrapped by every load or validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the complete empsearch configuration.
type Config struct {
	Version  string         `yaml:"version"  toml:"version"`
	Database DatabaseConfig `yaml:"database" toml:"database"`
	Cache    CacheConfig    `yaml:"cache"    toml:"cache"`
	Logging  LoggingConfig  `yaml:"logging"  toml:"logging"`
	Output   OutputConfig   `yaml:"output"   toml:"output"`

	// Path is the file the configuration was read from, empty when defaults were used.
	Path string `yaml:"-" toml:"-"`
}

// DatabaseConfig selects the backing store.
type DatabaseConfig struct {
	Driver string `yaml:"driver" toml:"driver"`
	DSN    string `yaml:"dsn"    toml:"dsn"`

	// MaxOpenConns caps the connection pool; 0 keeps the driver default.
	MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`
}

// CacheConfig locates the query-result cache.
type CacheConfig struct {
	Dir      string `yaml:"dir"      toml:"dir"`
	Compress bool   `yaml:"compress" toml:"compress"`
}

// LoggingConfig controls log level, format and destination.
type LoggingConfig struct {
	Level  string `yaml:"level"  toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file"   toml:"file"`
}

// OutputConfig controls how result rows are printed.
type OutputConfig struct {
	Format string `yaml:"format" toml:"format"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Database: DatabaseConfig{Driver: DefaultDriver, DSN: DefaultDSN},
		Cache:    CacheConfig{Dir: DefaultCacheDir},
		Logging:  LoggingConfig{Level: DefaultLogLevel, Format: DefaultLogFormat},
		Output:   OutputConfig{Format: DefaultOutputFormat},
	}
}

// Load builds the effective configuration: defaults, then the file at path (or the first
// DefaultFileNames entry present in the working directory when path is empty), then the
// environment. The result is validated.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (*Config, error) {
	cfg := New()

	if path == "" {
		path = discover()
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(lookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func discover() string {
	for _, name := range DefaultFileNames {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			return name
		}
	}
	return ""
}

// mergeFile decodes the file onto cfg. Keys absent from the file keep their current values;
// unknown keys are rejected.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(c)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		// An empty or comment-only document decodes to io.EOF.
		if err = dec.Decode(c); errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
	}

	c.Path = path
	return nil
}
