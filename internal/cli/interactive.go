package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rshade/empsearch/internal/employee"
	"github.com/rshade/empsearch/internal/logging"
	"github.com/rshade/empsearch/internal/resultset"
	"github.com/rshade/empsearch/internal/tui"
)

// Prompt texts.
const (
	MenuPrompt   = "Select an operation: [N] name search  [Y] tenure years  [C] clear cache  [Q] quit\n> "
	NamePrompt   = "Employee name: "
	TenurePrompt = "Years of tenure: "
	Farewell     = "bye"
)

// Interactive is the menu-driven search loop.
type Interactive struct {
	Searcher Searcher
	In       io.Reader
	Out      io.Writer
	Write    RowWriter
	// Browse, when set, replaces Write for non-empty results.
	Browse func(ctx context.Context, title string, rows []resultset.Row) error
}

// Run loops until the user quits or the input ends, then prints the farewell.
// Invalid input re-prompts; search failures are printed and the loop continues.
func (it *Interactive) Run(ctx context.Context) error {
	log := logging.FromContext(ctx)
	p := newPrompter(it.In, it.Out)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		choice, err := p.ask(MenuPrompt)
		if errors.Is(err, errInputClosed) {
			break
		}
		if err != nil {
			return err
		}

		switch strings.ToUpper(choice) {
		case "N":
			err = it.searchLoop(ctx, p, NamePrompt, "name", it.Searcher.SearchByName)
		case "Y":
			err = it.searchLoop(ctx, p, TenurePrompt, "tenure", it.Searcher.SearchByTenure)
		case "C":
			it.clear(ctx)
		case "Q":
			_, _ = fmt.Fprintln(it.Out, Farewell)
			return nil
		case "":
		default:
			_, _ = fmt.Fprintf(it.Out, "Unknown operation %q.\n", choice)
		}

		if errors.Is(err, errInputClosed) {
			break
		}
		if err != nil {
			return err
		}
	}

	log.Debug().Ctx(ctx).Str("component", "cli").Msg("input closed, leaving interactive mode")
	_, _ = fmt.Fprintln(it.Out, Farewell)
	return nil
}

type searchFunc func(ctx context.Context, input string) ([]resultset.Row, error)

// searchLoop asks for input until it forms a valid query, then runs it once.
func (it *Interactive) searchLoop(ctx context.Context, p *prompter, question, label string, search searchFunc) error {
	for {
		input, err := p.ask(question)
		if err != nil {
			return err
		}

		rows, err := search(ctx, input)
		switch {
		case errors.Is(err, employee.ErrInvalidQuery):
			_, _ = fmt.Fprintln(it.Out, tui.ErrorStyle.Render("Invalid input: "+err.Error()))
			continue
		case err != nil:
			_, _ = fmt.Fprintln(it.Out, tui.ErrorStyle.Render("Search failed: "+err.Error()))
			return nil
		}

		return it.show(ctx, fmt.Sprintf("%s: %s", label, input), rows)
	}
}

func (it *Interactive) show(ctx context.Context, title string, rows []resultset.Row) error {
	if it.Browse != nil && len(rows) > 0 {
		return it.Browse(ctx, title, rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(it.Out, tui.InfoStyle.Render("No employees matched."))
		return err
	}
	return it.Write(it.Out, rows)
}

func (it *Interactive) clear(ctx context.Context) {
	report, err := it.Searcher.ClearCache(ctx)
	if err != nil {
		_, _ = fmt.Fprintln(it.Out, tui.ErrorStyle.Render("Cache clear incomplete: "+err.Error()))
	}
	_, _ = fmt.Fprintln(it.Out, tui.RenderClearReport(report))
}
