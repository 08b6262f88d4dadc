package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rshade/empsearch/internal/config"
	"github.com/rshade/empsearch/internal/resultset"
	"github.com/rshade/empsearch/internal/tui"
)

// RowWriter prints a result set.
type RowWriter func(w io.Writer, rows []resultset.Row) error

// NewRowWriter returns the writer for an output format. Format names are case-insensitive.
func NewRowWriter(format string) (RowWriter, error) {
	switch strings.ToLower(format) {
	case config.OutputCSV, "":
		return writeLines, nil
	case config.OutputTable:
		return writeTable, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

// writeLines prints one comma-joined line per row: id,name,year,post_names. Values are
// written as stored, without quoting.
func writeLines(w io.Writer, rows []resultset.Row) error {
	fields := make([]string, len(tui.EmployeeColumns))
	for _, row := range rows {
		for i, c := range tui.EmployeeColumns {
			fields[i] = row.Text(c)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ",")); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, rows []resultset.Row) error {
	_, err := fmt.Fprintln(w, tui.RenderRowsTable(rows, tui.EmployeeColumns))
	return err
}
