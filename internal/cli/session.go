package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/empsearch/internal/config"
	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/employee"
	"github.com/rshade/empsearch/internal/engine/cache"
	"github.com/rshade/empsearch/internal/logging"
	"github.com/rshade/empsearch/internal/resultset"
)

// Searcher is the set of operations the interactive loop drives.
type Searcher interface {
	SearchByName(ctx context.Context, name string) ([]resultset.Row, error)
	SearchByTenure(ctx context.Context, years string) ([]resultset.Row, error)
	ClearCache(ctx context.Context) (cache.ClearReport, error)
}

// Session owns the database connection and the result cache for one invocation.
type Session struct {
	db      *db.DB
	cache   *cache.ResultCache
	builder employee.Builder
	logger  zerolog.Logger
}

// OpenCache returns the result cache configured by cfg.
func OpenCache(cfg *config.Config, logger zerolog.Logger) (*cache.ResultCache, error) {
	store, err := cache.NewOSFileStore(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return cache.New(store,
		cache.WithLogger(logger),
		cache.WithCompression(cfg.Cache.Compress),
	), nil
}

// OpenSession connects to the configured database and cache.
func OpenSession(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Session, error) {
	rc, err := OpenCache(cfg, logger)
	if err != nil {
		return nil, err
	}

	conn, err := db.Open(ctx, db.Config{
		Driver:       cfg.Database.Driver,
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger)
	if err != nil {
		return nil, err
	}

	return NewSession(conn, rc, logger), nil
}

// NewSession assembles a Session from an open connection and cache.
func NewSession(conn *db.DB, rc *cache.ResultCache, logger zerolog.Logger) *Session {
	return &Session{
		db:      conn,
		cache:   rc,
		builder: employee.NewBuilder(conn.Dialect()),
		logger:  logging.ComponentLogger(logger, "session"),
	}
}

// SearchByName returns employees whose name contains name.
func (s *Session) SearchByName(ctx context.Context, name string) ([]resultset.Row, error) {
	q, err := s.builder.ByName(name)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, q)
}

// SearchByTenure returns employees in their n-th year, years being a decimal string.
func (s *Session) SearchByTenure(ctx context.Context, years string) ([]resultset.Row, error) {
	q, err := s.builder.ByTenure(years)
	if err != nil {
		return nil, err
	}
	return s.search(ctx, q)
}

func (s *Session) search(ctx context.Context, q employee.Query) ([]resultset.Row, error) {
	rows, err := s.cache.Fetch(ctx, q, s.db.Execute)
	if err != nil {
		s.logger.Error().Ctx(ctx).
			Str("operation", "search").
			Stringer("query", q).
			Err(err).
			Msg("search failed")
		return nil, err
	}
	s.logger.Info().Ctx(ctx).
		Str("operation", "search").
		Str("mode", q.Mode().String()).
		Int("rows", len(rows)).
		Msg("search complete")
	return rows, nil
}

// ClearCache removes every cached result.
func (s *Session) ClearCache(ctx context.Context) (cache.ClearReport, error) {
	return s.cache.ClearAll(ctx)
}

// Seed loads the sample employees into the database.
func (s *Session) Seed(ctx context.Context) error {
	return s.db.Seed(ctx)
}

// Close releases the database connection. The cache holds no resources.
func (s *Session) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}
