package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog"

	"github.com/rshade/empsearch/internal/db"
)

// SupportedVersions is the constraint a non-empty Config.Version must satisfy.
const SupportedVersions = "^1"

// Output formats.
const (
	OutputCSV   = "csv"
	OutputTable = "table"
)

var (
	logFormats    = []string{"console", "json"}
	outputFormats = []string{OutputCSV, OutputTable}
)

// Validate reports every invalid field, joined, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
	}

	if err := checkVersion(c.Version); err != nil {
		invalid("version %q: %v", c.Version, err)
	}
	if _, err := db.ParseDialect(c.Database.Driver); err != nil {
		invalid("database.driver: %v", err)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		invalid("database.dsn must not be empty")
	}
	if c.Database.MaxOpenConns < 0 {
		invalid("database.max_open_conns must not be negative, got %d", c.Database.MaxOpenConns)
	}
	if strings.TrimSpace(c.Cache.Dir) == "" {
		invalid("cache.dir must not be empty")
	}
	if c.Logging.Level != "" {
		if _, err := zerolog.ParseLevel(strings.ToLower(c.Logging.Level)); err != nil {
			invalid("logging.level %q is not a log level", c.Logging.Level)
		}
	}
	if !slices.Contains(logFormats, strings.ToLower(c.Logging.Format)) {
		invalid("logging.format %q must be one of %s", c.Logging.Format, strings.Join(logFormats, ", "))
	}
	if !slices.Contains(outputFormats, strings.ToLower(c.Output.Format)) {
		invalid("output.format %q must be one of %s", c.Output.Format, strings.Join(outputFormats, ", "))
	}

	return errors.Join(errs...)
}

func checkVersion(version string) error {
	if version == "" {
		return nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return err
	}
	constraint, err := semver.NewConstraint(SupportedVersions)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("unsupported, want %s", SupportedVersions)
	}
	return nil
}
