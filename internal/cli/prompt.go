package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// errInputClosed is returned by a prompter once its input reaches EOF.
var errInputClosed = errors.New("input closed")

// prompter reads one trimmed line per question.
type prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{scanner: bufio.NewScanner(in), out: out}
}

// ask writes question and returns the next input line, trimmed. It returns errInputClosed at
// EOF and the scanner error on a read failure.
func (p *prompter) ask(question string) (string, error) {
	_, _ = fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}
