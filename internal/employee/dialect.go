package employee

import (
	"fmt"

	"github.com/rshade/empsearch/internal/db"
)

// renderer holds the dialect-specific fragments of the search statement.
type renderer struct {
	// tenure evaluates to whole years since employees.entried, plus one.
	tenure string
	// postNames concatenates the joined post names with '/'.
	postNames string
	// likeEscape declares the LIKE escape character where the dialect has no default.
	likeEscape string
}

var renderers = map[db.Dialect]renderer{
	db.DialectMySQL: {
		tenure:    "TIMESTAMPDIFF(YEAR, employees.entried, NOW()) + 1",
		postNames: "GROUP_CONCAT(posts.name SEPARATOR '/')",
	},
	db.DialectPostgres: {
		tenure:    "CAST(EXTRACT(YEAR FROM AGE(NOW(), employees.entried)) AS INTEGER) + 1",
		postNames: "STRING_AGG(posts.name, '/')",
	},
	db.DialectSQLite: {
		tenure: "(CAST(strftime('%Y', 'now') AS INTEGER) - CAST(strftime('%Y', employees.entried) AS INTEGER)" +
			" - (strftime('%m-%d', 'now') < strftime('%m-%d', employees.entried)) + 1)",
		postNames:  "GROUP_CONCAT(posts.name, '/')",
		likeEscape: ` ESCAPE '\'`,
	},
}

func rendererFor(d db.Dialect) (renderer, error) {
	r, ok := renderers[d]
	if !ok {
		return renderer{}, fmt.Errorf("%w: unsupported dialect %q", ErrInvalidQuery, d)
	}
	return r, nil
}
