package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of the backing store.
type Dialect string

// Supported dialects.
const (
	DialectMySQL    Dialect = "mysql"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Dialects lists every supported dialect.
func Dialects() []Dialect {
	return []Dialect{DialectMySQL, DialectPostgres, DialectSQLite}
}

// ParseDialect accepts a dialect name or one of its common driver aliases.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx":
		return DialectPostgres, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q (want mysql, postgres or sqlite)", name)
	}
}

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectSQLite:
		return "sqlite"
	default:
		return "mysql"
	}
}

// Placeholder returns the bind marker for the n-th (1-based) parameter.
func (d Dialect) Placeholder(n int) string {
	if d == DialectPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// String implements fmt.Stringer.
func (d Dialect) String() string {
	return string(d)
}
