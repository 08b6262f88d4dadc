package config

import "github.com/rshade/empsearch/internal/logging"

// ToLoggingConfig converts the logging section for use with the logging package. Output is
// left nil so the logger writes to stderr.
func (lc LoggingConfig) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:  lc.Level,
		Format: lc.Format,
		File:   lc.File,
	}
}
