package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter asks the operator for input.
type Prompter interface {
	Prompt(label string) (string, error)
	PromptSecret(label string) (string, error)
}

// LinePrompter reads one answer per line. Secrets are read the same way, so it
// suits pipes and tests.
type LinePrompter struct {
	r   *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{r: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) Prompt(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.r.ReadString('\n')
	switch {
	case errors.Is(err, io.EOF) && line == "":
		return "", io.ErrUnexpectedEOF
	case err != nil && !errors.Is(err, io.EOF):
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (p *LinePrompter) PromptSecret(label string) (string, error) {
	return p.Prompt(label)
}

// TerminalPrompter disables echo for secrets when in is a terminal and falls
// back to line reads otherwise.
type TerminalPrompter struct {
	*LinePrompter
	fd int
}

func NewTerminalPrompter(in *os.File, out io.Writer) *TerminalPrompter {
	return &TerminalPrompter{
		LinePrompter: NewLinePrompter(in, out),
		fd:           int(in.Fd()), // #nosec G115 - file descriptors fit in int
	}
}

func (p *TerminalPrompter) PromptSecret(label string) (string, error) {
	if !term.IsTerminal(p.fd) {
		return p.LinePrompter.PromptSecret(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
