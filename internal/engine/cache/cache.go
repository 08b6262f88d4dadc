package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rshade/empsearch/internal/resultset"
)

// Executor runs a rendered statement against the backing store. Errors are returned to the
// caller of Fetch unchanged.
type Executor func(ctx context.Context, stmt Statement) ([]resultset.Row, error)

// ResultCache answers queries from stored entries and populates the store on a miss.
type ResultCache struct {
	store    *FileStore
	compress bool
	logger   zerolog.Logger
	group    singleflight.Group
}

// Option configures a ResultCache.
type Option func(*ResultCache)

// WithLogger sets the logger used for cache diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *ResultCache) {
		c.logger = logger.With().Str("component", "cache").Logger()
	}
}

// WithCompression enables zstd compression of newly written entries. Existing entries are
// readable either way.
func WithCompression(enabled bool) Option {
	return func(c *ResultCache) {
		c.compress = enabled
	}
}

// New creates a ResultCache on top of store.
func New(store *FileStore, opts ...Option) *ResultCache {
	c := &ResultCache{
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the rows for q. A stored entry is returned without calling exec; otherwise
// exec runs once, its rows are persisted on a best-effort basis, and returned.
//
// Concurrent calls for the same key within this process share one execution. When that
// execution fails because its caller's context ended, callers whose own context is still live
// fetch again.
func (c *ResultCache) Fetch(ctx context.Context, q Query, exec Executor) ([]resultset.Row, error) {
	if exec == nil {
		return nil, errors.New("cache: nil executor")
	}

	stmt, err := render(q)
	if err != nil {
		return nil, err
	}
	key, err := FingerprintStatement(stmt)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().Ctx(ctx).
		Str("operation", "fetch").
		Str("sql", stmt.SQL).
		Interface("bindings", stmt.Bindings).
		Str("key", key).
		Msg("fingerprinted query")

	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, key, stmt, exec)
	})
	if err != nil && shared && ctx.Err() == nil && isContextError(err) {
		// The shared execution ran under another caller's context, which ended.
		c.logger.Debug().Ctx(ctx).Str("key", key).Err(err).Msg("shared fetch canceled, fetching again")
		return c.fetch(ctx, key, stmt, exec)
	}
	if err != nil {
		return nil, err
	}

	rows, _ := v.([]resultset.Row)
	if shared {
		rows = cloneRows(rows)
	}
	return rows, nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *ResultCache) fetch(ctx context.Context, key string, stmt Statement, exec Executor) ([]resultset.Row, error) {
	res := c.Lookup(key)
	switch res.Status {
	case LookupHit:
		c.logger.Debug().Ctx(ctx).Str("key", key).Int("rows", len(res.Rows)).
			Msg("cache hit, returning stored rows")
		return res.Rows, nil
	case LookupCorrupt:
		c.logger.Warn().Ctx(ctx).Str("key", key).Err(res.Err).
			Msg("unreadable cache entry, recomputing")
	case LookupMiss:
		c.logger.Debug().Ctx(ctx).Str("key", key).Msg("cache miss, querying database")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows, err := exec(ctx, stmt)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []resultset.Row{}
	}

	if saveErr := c.save(key, rows); saveErr != nil {
		c.logger.Warn().Ctx(ctx).Str("key", key).Err(saveErr).
			Msg("could not persist query result, continuing without cache")
	} else {
		c.logger.Debug().Ctx(ctx).Str("key", key).Int("rows", len(rows)).Msg("saved cache entry")
	}
	return rows, nil
}

// Lookup reads and decodes the entry stored under key. A missing entry is a miss; an
// unreadable or undecodable one is reported as corrupt.
func (c *ResultCache) Lookup(key string) LookupResult {
	data, err := c.store.Read(key)
	if err != nil {
		if errors.Is(err, ErrCacheNotFound) {
			return LookupResult{Key: key, Status: LookupMiss}
		}
		return LookupResult{Key: key, Status: LookupCorrupt, Err: err}
	}

	rows, err := decodeEntry(data)
	if err != nil {
		return LookupResult{Key: key, Status: LookupCorrupt, Err: err}
	}
	return LookupResult{Key: key, Status: LookupHit, Rows: rows}
}

func (c *ResultCache) save(key string, rows []resultset.Row) error {
	data, err := encodeEntry(rows, c.compress)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	if err = c.store.Write(key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheWrite, err)
	}
	return nil
}

// ClearAll deletes every stored entry. Each failed deletion is logged and collected into
// the returned *ClearError; the remaining entries are still processed.
func (c *ResultCache) ClearAll(ctx context.Context) (ClearReport, error) {
	c.logger.Debug().Ctx(ctx).Str("operation", "clear").Str("dir", c.store.Directory()).
		Msg("clearing all cache entries")

	report, err := c.store.Clear()

	var clearErr *ClearError
	if errors.As(err, &clearErr) {
		for _, f := range clearErr.Failures {
			c.logger.Warn().Ctx(ctx).Str("key", f.Key).Err(f.Err).Msg("failed to remove cache entry")
		}
	}

	c.logger.Debug().Ctx(ctx).
		Int("removed", report.Removed).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("cache cleared")
	return report, err
}

// Stats reports the number and total size of stored entries.
func (c *ResultCache) Stats() (Stats, error) {
	return c.store.Stats()
}

// Dir returns the cache root.
func (c *ResultCache) Dir() string {
	return c.store.Directory()
}

func cloneRows(rows []resultset.Row) []resultset.Row {
	out := make([]resultset.Row, len(rows))
	for i, r := range rows {
		out[i] = slices.Clone(r)
	}
	return out
}
