package employee_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/employee"
	"github.com/rshade/empsearch/internal/engine/cache"
)

func TestByName_Render(t *testing.T) {
	tests := []struct {
		dialect      db.Dialect
		wantContains []string
	}{
		{
			dialect: db.DialectMySQL,
			wantContains: []string{
				"WHERE employees.name LIKE ? GROUP BY",
				"TIMESTAMPDIFF(YEAR, employees.entried, NOW()) + 1 AS year",
				"GROUP_CONCAT(posts.name SEPARATOR '/') AS post_names",
			},
		},
		{
			dialect: db.DialectPostgres,
			wantContains: []string{
				"WHERE employees.name LIKE $1 GROUP BY",
				"STRING_AGG(posts.name, '/') AS post_names",
			},
		},
		{
			dialect: db.DialectSQLite,
			wantContains: []string{
				`WHERE employees.name LIKE ? ESCAPE '\' GROUP BY`,
				"GROUP_CONCAT(posts.name, '/') AS post_names",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String(), func(t *testing.T) {
			q, err := employee.NewBuilder(tt.dialect).ByName("田")
			require.NoError(t, err)
			assert.Equal(t, employee.ModeName, q.Mode())
			assert.Equal(t, tt.dialect, q.Dialect())

			stmt, err := q.ToNative()
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(stmt.SQL, "SELECT employees.*, "))
			assert.Contains(t, stmt.SQL, "FROM employees INNER JOIN posts ON employees.id = posts.employee_id")
			assert.True(t, strings.HasSuffix(stmt.SQL, "GROUP BY employees.id ORDER BY employees.id"))
			for _, want := range tt.wantContains {
				assert.Contains(t, stmt.SQL, want)
			}
			assert.Equal(t, []any{"%田%"}, stmt.Bindings)
		})
	}
}

func TestByName_Escaping(t *testing.T) {
	b := employee.NewBuilder(db.DialectSQLite)

	tests := []struct {
		input string
		want  string
	}{
		{input: "100%", want: `%100\%%`},
		{input: "a_b", want: `%a\_b%`},
		{input: `back\slash`, want: `%back\\slash%`},
		{input: "%%", want: `%\%\%%`},
		{input: "  山田  ", want: "%山田%"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			q, err := b.ByName(tt.input)
			require.NoError(t, err)
			stmt, err := q.ToNative()
			require.NoError(t, err)
			assert.Equal(t, []any{tt.want}, stmt.Bindings)
		})
	}
}

func TestByName_NormalizesUnicode(t *testing.T) {
	b := employee.NewBuilder(db.DialectMySQL)

	composed, err := b.ByName("が")
	require.NoError(t, err)
	decomposed, err := b.ByName("\u304b\u3099")
	require.NoError(t, err)

	k1, err := cache.Fingerprint(composed)
	require.NoError(t, err)
	k2, err := cache.Fingerprint(decomposed)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestByName_Empty(t *testing.T) {
	for _, input := range []string{"", "   ", "\t\n"} {
		_, err := employee.NewBuilder(db.DialectSQLite).ByName(input)
		require.ErrorIs(t, err, cache.ErrInvalidQuery)
	}
}

func TestByTenure(t *testing.T) {
	b := employee.NewBuilder(db.DialectPostgres)

	q, err := b.ByTenure("3")
	require.NoError(t, err)
	assert.Equal(t, employee.ModeTenure, q.Mode())

	stmt, err := q.ToNative()
	require.NoError(t, err)
	assert.Contains(t, stmt.SQL, "WHERE CAST(EXTRACT(YEAR FROM AGE(NOW(), employees.entried)) AS INTEGER) + 1 = $1")
	assert.Equal(t, []any{int64(3)}, stmt.Bindings)
	assert.Equal(t, "tenure = 3", q.String())
}

func TestByTenure_Invalid(t *testing.T) {
	b := employee.NewBuilder(db.DialectMySQL)

	for _, input := range []string{"", "0", "-1", "01", "1.5", "abc", "3 years", "99999999999999999999"} {
		t.Run(input, func(t *testing.T) {
			_, err := b.ByTenure(input)
			require.ErrorIs(t, err, cache.ErrInvalidQuery)
		})
	}

	_, err := b.ByTenureYears(0)
	require.ErrorIs(t, err, cache.ErrInvalidQuery)
}

func TestToNative_Deterministic(t *testing.T) {
	b := employee.NewBuilder(db.DialectSQLite)

	q1, err := b.ByName("田")
	require.NoError(t, err)
	q2, err := employee.NewBuilder(db.DialectSQLite).ByName("田")
	require.NoError(t, err)

	s1, err := q1.ToNative()
	require.NoError(t, err)
	s2, err := q2.ToNative()
	require.NoError(t, err)
	assert.Equal(t, s1, s2)

	k1, err := cache.Fingerprint(q1)
	require.NoError(t, err)
	k2, err := cache.Fingerprint(q2)
	require.NoError(t, err)
	assert.Equal(t, k1, k2)
}

func TestFingerprint_DiffersAcrossModesAndDialects(t *testing.T) {
	keys := map[string]bool{}
	for _, d := range db.Dialects() {
		b := employee.NewBuilder(d)
		byName, err := b.ByName("1")
		require.NoError(t, err)
		byTenure, err := b.ByTenure("1")
		require.NoError(t, err)

		for _, q := range []employee.Query{byName, byTenure} {
			k, err := cache.Fingerprint(q)
			require.NoError(t, err)
			assert.False(t, keys[k], "duplicate key for %s %s", d, q)
			keys[k] = true
		}
	}
	assert.Len(t, keys, 6)
}

func TestZeroQueryIsInvalid(t *testing.T) {
	var q employee.Query
	_, err := q.ToNative()
	require.ErrorIs(t, err, cache.ErrInvalidQuery)

	_, err = cache.Fingerprint(q)
	require.ErrorIs(t, err, cache.ErrInvalidQuery)

	q, err = employee.NewBuilder(db.Dialect("oracle")).ByName("x")
	require.NoError(t, err)
	_, err = q.ToNative()
	require.ErrorIs(t, err, cache.ErrInvalidQuery)
}
