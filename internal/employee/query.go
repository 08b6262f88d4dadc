// Package employee builds the employee lookup queries: every employee joined with the posts
// they hold, filtered by a name substring or by years of tenure, rendered for one SQL dialect.
package employee

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/engine/cache"
)

// Mode is the predicate a Query filters on.
type Mode int

const (
	modeUnset Mode = iota
	// ModeName filters on a substring of employees.name.
	ModeName
	// ModeTenure filters on the number of calendar years since employees.entried, counting
	// the joining year as year one.
	ModeTenure
)

// String returns the mode name used in logs.
func (m Mode) String() string {
	switch m {
	case ModeName:
		return "name"
	case ModeTenure:
		return "tenure"
	default:
		return "unset"
	}
}

// ErrInvalidQuery is returned for inputs that cannot form a query.
var ErrInvalidQuery = cache.ErrInvalidQuery

// tenurePattern is the accepted form of a tenure input: a positive integer without sign or
// leading zeros.
var tenurePattern = regexp.MustCompile(`^[1-9][0-9]*$`)

// likeEscaper escapes LIKE metacharacters with a backslash.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Query is an immutable employee search. The zero value is invalid and renders to an error.
type Query struct {
	dialect db.Dialect
	mode    Mode
	pattern string
	years   int64
}

// Builder creates queries for one dialect.
type Builder struct {
	dialect db.Dialect
}

// NewBuilder returns a Builder rendering for dialect.
func NewBuilder(dialect db.Dialect) Builder {
	return Builder{dialect: dialect}
}

// ByName returns a query for employees whose name contains name. The input is trimmed and
// NFC-normalized, so composed and decomposed spellings share a cache entry.
func (b Builder) ByName(name string) (Query, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return Query{}, fmt.Errorf("%w: name must not be empty", ErrInvalidQuery)
	}
	return Query{
		dialect: b.dialect,
		mode:    ModeName,
		pattern: "%" + likeEscaper.Replace(name) + "%",
	}, nil
}

// ByTenure returns a query for employees in their n-th year, where years is a positive
// decimal integer.
func (b Builder) ByTenure(years string) (Query, error) {
	years = strings.TrimSpace(years)
	if !tenurePattern.MatchString(years) {
		return Query{}, fmt.Errorf("%w: tenure must be a positive integer, got %q", ErrInvalidQuery, years)
	}
	n, err := strconv.ParseInt(years, 10, 64)
	if err != nil {
		return Query{}, fmt.Errorf("%w: tenure %q: %w", ErrInvalidQuery, years, err)
	}
	return b.ByTenureYears(n)
}

// ByTenureYears is ByTenure for an already parsed value.
func (b Builder) ByTenureYears(years int64) (Query, error) {
	if years < 1 {
		return Query{}, fmt.Errorf("%w: tenure must be at least 1, got %d", ErrInvalidQuery, years)
	}
	return Query{dialect: b.dialect, mode: ModeTenure, years: years}, nil
}

// Mode returns the predicate kind.
func (q Query) Mode() Mode {
	return q.mode
}

// Dialect returns the dialect the query renders for.
func (q Query) Dialect() db.Dialect {
	return q.dialect
}

// ToNative renders the query to SQL text and positional bindings.
func (q Query) ToNative() (cache.Statement, error) {
	r, err := rendererFor(q.dialect)
	if err != nil {
		return cache.Statement{}, err
	}

	var where string
	var binding any
	switch q.mode {
	case ModeName:
		if q.pattern == "" {
			return cache.Statement{}, fmt.Errorf("%w: name query without pattern", ErrInvalidQuery)
		}
		where = "employees.name LIKE " + q.dialect.Placeholder(1) + r.likeEscape
		binding = q.pattern
	case ModeTenure:
		if q.years < 1 {
			return cache.Statement{}, fmt.Errorf("%w: tenure query without years", ErrInvalidQuery)
		}
		where = r.tenure + " = " + q.dialect.Placeholder(1)
		binding = q.years
	default:
		return cache.Statement{}, fmt.Errorf("%w: query has no predicate", ErrInvalidQuery)
	}

	var sb strings.Builder
	sb.WriteString("SELECT employees.*, ")
	sb.WriteString(r.tenure)
	sb.WriteString(" AS year, ")
	sb.WriteString(r.postNames)
	sb.WriteString(" AS post_names FROM employees")
	sb.WriteString(" INNER JOIN posts ON employees.id = posts.employee_id")
	sb.WriteString(" WHERE ")
	sb.WriteString(where)
	sb.WriteString(" GROUP BY employees.id ORDER BY employees.id")

	return cache.Statement{SQL: sb.String(), Bindings: []any{binding}}, nil
}

// String describes the query for logs and prompts.
func (q Query) String() string {
	switch q.mode {
	case ModeName:
		return fmt.Sprintf("name LIKE %s", q.pattern)
	case ModeTenure:
		return fmt.Sprintf("tenure = %d", q.years)
	default:
		return "invalid query"
	}
}
