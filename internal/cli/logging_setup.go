package cli

import (
	"github.com/spf13/cobra"

	"github.com/rshade/empsearch/internal/config"
	"github.com/rshade/empsearch/internal/logging"
)

// setupLogging builds the logger from the logging section, applies --debug, and stores the
// logger and a fresh trace ID in the command context.
func (a *app) setupLogging(cmd *cobra.Command, cfg config.LoggingConfig) {
	if a.flags.debug {
		cfg.Level = "debug"
		cfg.Format = logging.FormatConsole
		cfg.File = ""
	}

	loggingCfg := cfg.ToLoggingConfig()
	loggingCfg.Output = cmd.ErrOrStderr()
	result := logging.NewLoggerWithPath(loggingCfg)
	a.logResult = result
	a.base = result.Logger
	a.logger = logging.ComponentLogger(result.Logger, "cli")

	if result.UsingFile {
		logging.PrintLogPathMessage(cmd.ErrOrStderr(), result.FilePath)
	} else if result.FallbackUsed {
		logging.PrintFallbackWarning(cmd.ErrOrStderr(), result.FallbackReason)
	}

	ctx := logging.ContextWithTraceID(cmd.Context(), logging.GetOrGenerateTraceID(cmd.Context()))
	ctx = a.logger.WithContext(ctx)
	cmd.SetContext(ctx)

	a.logger.Debug().Ctx(ctx).Str("command", cmd.CommandPath()).Msg("command started")
}

// cleanupLogging closes the log file, if any.
func (a *app) cleanupLogging() error {
	if a.logResult == nil {
		return nil
	}
	return a.logResult.Close()
}
