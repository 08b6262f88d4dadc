package employee_test

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/employee"
	"github.com/rshade/empsearch/internal/engine/cache"
	"github.com/rshade/empsearch/internal/resultset"
)

func seededSQLite(t *testing.T) *db.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "employee.db")
	conn, err := db.Open(context.Background(), db.Config{Driver: "sqlite", DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, conn.Seed(context.Background()))
	return conn
}

// expectedTenure mirrors the sqlite tenure expression: whole years since entried, plus one.
func expectedTenure(t *testing.T, entried string) int64 {
	t.Helper()
	joined, err := time.Parse(time.DateOnly, entried)
	require.NoError(t, err)
	now := time.Now().UTC()
	years := now.Year() - joined.Year()
	if now.Format("01-02") < joined.Format("01-02") {
		years--
	}
	return int64(years + 1)
}

func ids(rows []resultset.Row) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		v, _ := r.Get("id")
		id, _ := v.(int64)
		out = append(out, id)
	}
	return out
}

func TestSearchByName_SQLite(t *testing.T) {
	conn := seededSQLite(t)
	q, err := employee.NewBuilder(conn.Dialect()).ByName("田")
	require.NoError(t, err)

	stmt, err := q.ToNative()
	require.NoError(t, err)
	rows, err := conn.Execute(context.Background(), stmt)
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2}, ids(rows))
	assert.Equal(t, []string{"id", "name", "entried", "year", "post_names"}, rows[0].Columns())
	assert.ElementsMatch(t, []string{"営業", "企画"}, strings.Split(rows[0].Text("post_names"), "/"))
	assert.Equal(t, "開発", rows[1].Text("post_names"))

	for _, r := range rows {
		year, _ := r.Get("year")
		assert.Equal(t, expectedTenure(t, r.Text("entried")), year, r.Text("name"))
	}
}

func TestSearchByName_MetacharactersAreLiteral(t *testing.T) {
	conn := seededSQLite(t)
	b := employee.NewBuilder(conn.Dialect())

	for _, input := range []string{"_", "%", "0% S"} {
		t.Run(input, func(t *testing.T) {
			q, err := b.ByName(input)
			require.NoError(t, err)
			stmt, err := q.ToNative()
			require.NoError(t, err)

			rows, err := conn.Execute(context.Background(), stmt)
			require.NoError(t, err)
			assert.Equal(t, []int64{6}, ids(rows))
		})
	}
}

func TestSearchByTenure_SQLite(t *testing.T) {
	conn := seededSQLite(t)
	b := employee.NewBuilder(conn.Dialect())

	for _, e := range db.SampleEmployees() {
		years := expectedTenure(t, e.Entried)
		q, err := b.ByTenureYears(years)
		require.NoError(t, err)
		stmt, err := q.ToNative()
		require.NoError(t, err)

		rows, err := conn.Execute(context.Background(), stmt)
		require.NoError(t, err)
		assert.Contains(t, ids(rows), e.ID, "tenure %d", years)
	}

	q, err := b.ByTenure("200")
	require.NoError(t, err)
	stmt, err := q.ToNative()
	require.NoError(t, err)
	rows, err := conn.Execute(context.Background(), stmt)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSearch_ThroughCache(t *testing.T) {
	conn := seededSQLite(t)
	fs := afero.NewMemMapFs()
	store, err := cache.NewFileStore(fs, "cache")
	require.NoError(t, err)

	var executed []cache.Statement
	exec := func(ctx context.Context, stmt cache.Statement) ([]resultset.Row, error) {
		executed = append(executed, stmt)
		return conn.Execute(ctx, stmt)
	}

	q, err := employee.NewBuilder(conn.Dialect()).ByName("田")
	require.NoError(t, err)

	rc := cache.New(store)
	first, err := rc.Fetch(context.Background(), q, exec)
	require.NoError(t, err)
	require.Len(t, executed, 1)
	assert.Contains(t, executed[0].SQL, "WHERE employees.name LIKE ?")
	assert.Equal(t, []any{"%田%"}, executed[0].Bindings)

	keys, err := store.Keys()
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Len(t, keys[0], cache.KeyLength)
	exists, err := afero.Exists(fs, filepath.Join("cache", keys[0]))
	require.NoError(t, err)
	assert.True(t, exists)

	again, err := employee.NewBuilder(conn.Dialect()).ByName("田")
	require.NoError(t, err)
	second, err := cache.New(store).Fetch(context.Background(), again, exec)
	require.NoError(t, err)
	assert.Len(t, executed, 1)
	assert.Equal(t, ids(first), ids(second))
	assert.Equal(t, first[0].Text("post_names"), second[0].Text("post_names"))
}
