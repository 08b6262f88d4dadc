package cli

import (
	"errors"

	"github.com/rshade/empsearch/internal/config"
	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/employee"
	"github.com/rshade/empsearch/internal/engine/cache"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitUsage        = 2
	ExitQueryFailed  = 3
	ExitClearPartial = 4
)

// ExitCode maps an error returned by the root command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var execErr *db.ExecutionError
	var clearErr *cache.ClearError
	switch {
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, employee.ErrInvalidQuery):
		return ExitUsage
	case errors.As(err, &execErr):
		return ExitQueryFailed
	case errors.As(err, &clearErr):
		return ExitClearPartial
	default:
		return ExitFailure
	}
}
