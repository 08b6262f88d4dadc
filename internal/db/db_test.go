package db_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/engine/cache"
)

func openSQLite(t *testing.T) *db.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "employee.db")
	conn, err := db.Open(context.Background(), db.Config{Driver: "sqlite", DSN: dsn}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		input string
		want  db.Dialect
	}{
		{input: "mysql", want: db.DialectMySQL},
		{input: "MariaDB", want: db.DialectMySQL},
		{input: "postgres", want: db.DialectPostgres},
		{input: "pgx", want: db.DialectPostgres},
		{input: " sqlite3 ", want: db.DialectSQLite},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := db.ParseDialect(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := db.ParseDialect("oracle")
	require.Error(t, err)
}

func TestDialect_DriverAndPlaceholder(t *testing.T) {
	assert.Equal(t, "mysql", db.DialectMySQL.DriverName())
	assert.Equal(t, "pgx", db.DialectPostgres.DriverName())
	assert.Equal(t, "sqlite", db.DialectSQLite.DriverName())

	assert.Equal(t, "?", db.DialectMySQL.Placeholder(2))
	assert.Equal(t, "?", db.DialectSQLite.Placeholder(1))
	assert.Equal(t, "$3", db.DialectPostgres.Placeholder(3))
	assert.Len(t, db.Dialects(), 3)
}

func TestOpen_Validation(t *testing.T) {
	_, err := db.Open(context.Background(), db.Config{Driver: "oracle", DSN: "x"}, zerolog.Nop())
	require.Error(t, err)

	_, err = db.Open(context.Background(), db.Config{Driver: "sqlite"}, zerolog.Nop())
	require.Error(t, err)
}

func TestExecute_AfterSeed(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, conn.Seed(ctx))
	assert.Equal(t, db.DialectSQLite, conn.Dialect())

	rows, err := conn.Execute(ctx, cache.Statement{
		SQL:      "SELECT id, name, entried FROM employees WHERE id = ?",
		Bindings: []any{int64(2)},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, []string{"id", "name", "entried"}, rows[0].Columns())
	id, _ := rows[0].Get("id")
	assert.Equal(t, int64(2), id)
	assert.Equal(t, "田中 花子", rows[0].Text("name"))
	assert.Equal(t, "2018-10-01", rows[0].Text("entried"))
}

func TestExecute_EmptyResult(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, conn.Seed(ctx))

	rows, err := conn.Execute(ctx, cache.Statement{SQL: "SELECT id FROM employees WHERE id < 0"})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestExecute_ErrorIsExecutionError(t *testing.T) {
	conn := openSQLite(t)

	_, err := conn.Execute(context.Background(), cache.Statement{SQL: "SELECT * FROM no_such_table"})
	require.Error(t, err)

	var execErr *db.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "SELECT * FROM no_such_table", execErr.SQL)
	assert.Contains(t, err.Error(), "query execution failed")
	require.Error(t, execErr.Unwrap())
}

func TestSeed_IsRepeatable(t *testing.T) {
	conn := openSQLite(t)
	ctx := context.Background()
	require.NoError(t, conn.Seed(ctx))
	require.NoError(t, conn.Seed(ctx))

	rows, err := conn.Execute(ctx, cache.Statement{SQL: "SELECT COUNT(*) AS n FROM employees"})
	require.NoError(t, err)
	n, _ := rows[0].Get("n")
	assert.Equal(t, int64(len(db.SampleEmployees())), n)

	rows, err = conn.Execute(ctx, cache.Statement{SQL: "SELECT COUNT(*) AS n FROM posts"})
	require.NoError(t, err)
	posts := 0
	for _, e := range db.SampleEmployees() {
		posts += len(e.Posts)
	}
	n, _ = rows[0].Get("n")
	assert.Equal(t, int64(posts), n)
}
