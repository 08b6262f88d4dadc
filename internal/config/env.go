package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Environment variables overriding file values.
const (
	EnvDBDriver      = "EMPSEARCH_DB_DRIVER"
	EnvDBDSN         = "EMPSEARCH_DB_DSN"
	EnvDBMaxConns    = "EMPSEARCH_DB_MAX_OPEN_CONNS"
	EnvCacheDir      = "EMPSEARCH_CACHE_DIR"
	EnvCacheCompress = "EMPSEARCH_CACHE_COMPRESS"
	EnvLogLevel      = "EMPSEARCH_LOG_LEVEL"
	EnvLogFormat     = "EMPSEARCH_LOG_FORMAT"
	EnvOutputFormat  = "EMPSEARCH_OUTPUT_FORMAT"

	// EnvLoggerLevel is honored when EnvLogLevel is unset.
	EnvLoggerLevel = "LOGGER_LEVEL"
)

func (c *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookupEnv(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvDBDriver); ok {
		c.Database.Driver = v
	}
	if v, ok := get(EnvDBDSN); ok {
		c.Database.DSN = v
	}
	if v, ok := get(EnvDBMaxConns); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvDBMaxConns, v, err)
		}
		c.Database.MaxOpenConns = n
	}
	if v, ok := get(EnvCacheDir); ok {
		c.Cache.Dir = v
	}
	if v, ok := get(EnvCacheCompress); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %w", ErrInvalidConfig, EnvCacheCompress, v, err)
		}
		c.Cache.Compress = b
	}
	if v, ok := get(EnvLogLevel); ok {
		c.Logging.Level = v
	} else if v, ok = get(EnvLoggerLevel); ok {
		c.Logging.Level = v
	}
	if v, ok := get(EnvLogFormat); ok {
		c.Logging.Format = v
	}
	if v, ok := get(EnvOutputFormat); ok {
		c.Output.Format = v
	}
	return nil
}
