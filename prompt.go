package xdpready

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompter obtains decisions and credentials from the operator.
//
// Stages depend on this interface only, so tests inject pre-decided
// answers instead of driving a terminal.
type Prompter interface {
	// Confirm asks a yes/no question whose default answer is yes.
	Confirm(question string) (bool, error)
	// Line reads one line of visible input.
	Line(label string) (string, error)
	// Secret reads one line of input without echoing it.
	Secret(label string) (string, error)
}

// ParseConfirmation interprets an answer to a [Y/n] question.
// Empty input, "y" and "yes" (any case) accept; anything else declines.
func ParseConfirmation(answer string) bool {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

// TerminalPrompter prompts on a terminal (or any reader/writer pair).
type TerminalPrompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
}

// NewTerminalPrompter prompts on stdin/stderr.
func NewTerminalPrompter() *TerminalPrompter {
	return NewPrompter(os.Stdin, os.Stderr)
}

// NewPrompter prompts on out and reads answers from in. If in is a
// terminal, secrets are read with echo disabled.
func NewPrompter(in io.Reader, out io.Writer) *TerminalPrompter {
	fd := -1
	if f, ok := in.(*os.File); ok {
		fd = int(f.Fd())
	}
	return &TerminalPrompter{in: bufio.NewReader(in), out: out, fd: fd}
}

// Confirm implements [Prompter].
func (p *TerminalPrompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s? [Y/n] ", question)
	answer, err := p.readLine()
	if err != nil {
		return false, err
	}
	return ParseConfirmation(answer), nil
}

// Line implements [Prompter].
func (p *TerminalPrompter) Line(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	answer, err := p.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

// Secret implements [Prompter].
func (p *TerminalPrompter) Secret(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if p.fd >= 0 && term.IsTerminal(p.fd) {
		b, err := term.ReadPassword(p.fd)
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}
	return p.readLine()
}

func (p *TerminalPrompter) readLine() (string, error) {
	line, err := p.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
