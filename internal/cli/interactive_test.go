package cli_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/empsearch/internal/cli"
	"github.com/rshade/empsearch/internal/db"
	"github.com/rshade/empsearch/internal/employee"
	"github.com/rshade/empsearch/internal/engine/cache"
	"github.com/rshade/empsearch/internal/resultset"
)

// fakeSearcher records calls and answers from fixed data.
type fakeSearcher struct {
	names   []string
	tenures []string
	clears  int
	execErr error
}

func (f *fakeSearcher) SearchByName(_ context.Context, name string) ([]resultset.Row, error) {
	f.names = append(f.names, name)
	if strings.TrimSpace(name) == "" {
		return nil, employee.ErrInvalidQuery
	}
	if f.execErr != nil {
		return nil, f.execErr
	}
	if name == "nobody" {
		return []resultset.Row{}, nil
	}
	return []resultset.Row{{
		{Name: "id", Value: int64(1)},
		{Name: "name", Value: "山田 太郎"},
		{Name: "year", Value: int64(15)},
		{Name: "post_names", Value: "営業/企画"},
	}}, nil
}

func (f *fakeSearcher) SearchByTenure(_ context.Context, years string) ([]resultset.Row, error) {
	f.tenures = append(f.tenures, years)
	if years != "3" {
		return nil, employee.ErrInvalidQuery
	}
	return []resultset.Row{{
		{Name: "id", Value: int64(3)},
		{Name: "name", Value: "佐藤 次郎"},
		{Name: "year", Value: int64(3)},
		{Name: "post_names", Value: "人事"},
	}}, nil
}

func (f *fakeSearcher) ClearCache(context.Context) (cache.ClearReport, error) {
	f.clears++
	return cache.ClearReport{Removed: 2}, nil
}

func runLoop(t *testing.T, s cli.Searcher, input string) string {
	t.Helper()
	var out bytes.Buffer
	write, err := cli.NewRowWriter("csv")
	require.NoError(t, err)

	it := &cli.Interactive{Searcher: s, In: strings.NewReader(input), Out: &out, Write: write}
	require.NoError(t, it.Run(context.Background()))
	return out.String()
}

func TestInteractive_NameSearch(t *testing.T) {
	s := &fakeSearcher{}
	out := runLoop(t, s, "N\n田\nQ\n")

	assert.Equal(t, []string{"田"}, s.names)
	assert.Contains(t, out, cli.MenuPrompt)
	assert.Contains(t, out, cli.NamePrompt)
	assert.Contains(t, out, "1,山田 太郎,15,営業/企画\n")
	assert.True(t, strings.HasSuffix(out, "bye\n"))
}

func TestInteractive_CommandsAreCaseInsensitive(t *testing.T) {
	s := &fakeSearcher{}
	runLoop(t, s, "n\n田\ny\n3\nc\nq\n")

	assert.Equal(t, []string{"田"}, s.names)
	assert.Equal(t, []string{"3"}, s.tenures)
	assert.Equal(t, 1, s.clears)
}

func TestInteractive_RepromptsOnInvalidInput(t *testing.T) {
	s := &fakeSearcher{}
	out := runLoop(t, s, "Y\n0\nabc\n3\nN\n\n佐藤\nQ\n")

	assert.Equal(t, []string{"0", "abc", "3"}, s.tenures)
	assert.Equal(t, []string{"", "佐藤"}, s.names)
	assert.Equal(t, 3, strings.Count(out, "Invalid input"))
	assert.Equal(t, 3, strings.Count(out, cli.TenurePrompt))
	assert.Contains(t, out, "3,佐藤 次郎,3,人事\n")
}

func TestInteractive_UnknownCommand(t *testing.T) {
	s := &fakeSearcher{}
	out := runLoop(t, s, "X\n\nQ\n")

	assert.Contains(t, out, `Unknown operation "X".`)
	assert.Equal(t, 3, strings.Count(out, cli.MenuPrompt))
}

func TestInteractive_EOFSaysBye(t *testing.T) {
	out := runLoop(t, &fakeSearcher{}, "")
	assert.Equal(t, cli.MenuPrompt+"bye\n", out)

	// EOF while waiting for a name also ends the session.
	s := &fakeSearcher{}
	out = runLoop(t, s, "N\n")
	assert.Empty(t, s.names)
	assert.True(t, strings.HasSuffix(out, "bye\n"))
}

func TestInteractive_ExecutionErrorContinues(t *testing.T) {
	s := &fakeSearcher{execErr: &db.ExecutionError{SQL: "SELECT", Err: errors.New("connection refused")}}
	out := runLoop(t, s, "N\n田\nC\nQ\n")

	assert.Contains(t, out, "Search failed: query execution failed")
	assert.Equal(t, 1, s.clears)
	assert.Contains(t, out, "Removed: ")
}

func TestInteractive_EmptyResult(t *testing.T) {
	out := runLoop(t, &fakeSearcher{}, "N\nnobody\nQ\n")
	assert.Contains(t, out, "No employees matched.")
}

func TestInteractive_Browse(t *testing.T) {
	var browsed []string
	var out bytes.Buffer
	it := &cli.Interactive{
		Searcher: &fakeSearcher{},
		In:       strings.NewReader("N\n田\nQ\n"),
		Out:      &out,
		Write: func(_ io.Writer, _ []resultset.Row) error {
			t.Fatal("Write must not be called when browsing")
			return nil
		},
		Browse: func(_ context.Context, title string, rows []resultset.Row) error {
			browsed = append(browsed, title)
			assert.Len(t, rows, 1)
			return nil
		},
	}
	require.NoError(t, it.Run(context.Background()))
	assert.Equal(t, []string{"name: 田"}, browsed)
}

func TestInteractive_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	it := &cli.Interactive{Searcher: &fakeSearcher{}, In: strings.NewReader("N\n田\n"), Out: &bytes.Buffer{}}
	require.ErrorIs(t, it.Run(ctx), context.Canceled)
}

func TestNewRowWriter(t *testing.T) {
	_, err := cli.NewRowWriter("xml")
	require.Error(t, err)

	rows := []resultset.Row{{
		{Name: "id", Value: int64(6)},
		{Name: "name", Value: "100% Sales_Team"},
		{Name: "year", Value: int64(10)},
		{Name: "post_names", Value: "営業"},
	}}

	var buf bytes.Buffer
	w, err := cli.NewRowWriter("csv")
	require.NoError(t, err)
	require.NoError(t, w(&buf, rows))
	assert.Equal(t, "6,100% Sales_Team,10,営業\n", buf.String())

	buf.Reset()
	w, err = cli.NewRowWriter("table")
	require.NoError(t, err)
	require.NoError(t, w(&buf, rows))
	assert.Contains(t, buf.String(), "post_names")
	assert.Contains(t, buf.String(), "100% Sales_Team")
}

func TestNewRowWriter_MixedCase(t *testing.T) {
	rows := []resultset.Row{{
		{Name: "id", Value: int64(1)},
		{Name: "name", Value: "山田 太郎"},
		{Name: "year", Value: int64(3)},
		{Name: "post_names", Value: "営業"},
	}}

	for _, format := range []string{"TABLE", "Table"} {
		var buf bytes.Buffer
		w, err := cli.NewRowWriter(format)
		require.NoError(t, err, format)
		require.NoError(t, w(&buf, rows))
		assert.Contains(t, buf.String(), "post_names", format)
	}

	var buf bytes.Buffer
	w, err := cli.NewRowWriter("CSV")
	require.NoError(t, err)
	require.NoError(t, w(&buf, rows))
	assert.Equal(t, "1,山田 太郎,3,営業\n", buf.String())
}

func TestNewRowWriter_LinesAreUnquoted(t *testing.T) {
	rows := []resultset.Row{{
		{Name: "id", Value: int64(7)},
		{Name: "name", Value: ` "Doe, J"`},
		{Name: "year", Value: int64(2)},
		{Name: "post_names", Value: "営業/企画"},
	}}

	var buf bytes.Buffer
	w, err := cli.NewRowWriter("csv")
	require.NoError(t, err)
	require.NoError(t, w(&buf, rows))
	assert.Equal(t, "7, \"Doe, J\",2,営業/企画\n", buf.String())
}
