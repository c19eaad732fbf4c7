package xdpready

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Console renders the human-readable diagnostic transcript.
//
// Colors are only emitted when the writer is a color-capable terminal.
type Console struct {
	w io.Writer

	section  lipgloss.Style
	alert    lipgloss.Style
	label    lipgloss.Style
	errLabel lipgloss.Style
	ok       lipgloss.Style
	notOK    lipgloss.Style
	bold     lipgloss.Style
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	r := lipgloss.NewRenderer(w)
	return &Console{
		w:        w,
		section:  r.NewStyle().Background(lipgloss.Color("4")).Foreground(lipgloss.Color("0")),
		alert:    r.NewStyle().Background(lipgloss.Color("1")).Foreground(lipgloss.Color("0")),
		label:    r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		errLabel: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		ok:       r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		notOK:    r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		bold:     r.NewStyle().Bold(true),
	}
}

// Section prints a section header such as "- Kernel Version Check -".
func (c *Console) Section(title string) {
	fmt.Fprintln(c.w, c.section.Render("- "+title+" -"))
}

// Infof prints an informational line.
func (c *Console) Infof(format string, args ...any) {
	fmt.Fprintf(c.w, "%s: %s\n", c.label.Render("Analyze"), fmt.Sprintf(format, args...))
}

// Status prints the verdict for subject followed by a blank line.
func (c *Console) Status(subject string, ok bool) {
	badge := c.ok.Render("(ok)")
	if !ok {
		badge = c.notOK.Render("(not ok)")
	}
	c.Infof("%s %s\n", subject, badge)
}

// List prints items as a bulleted list under header.
func (c *Console) List(header string, items []string) {
	c.Infof("%s:\n - %s", header, strings.Join(items, "\n - "))
}

// Bold renders s in bold.
func (c *Console) Bold(s string) string {
	return c.bold.Render(s)
}

// Alert prints a red section header used for the error block.
func (c *Console) Alert(title string) {
	fmt.Fprintln(c.w, c.alert.Render("- "+title+" -"))
}

// Error prints one aggregated error message.
func (c *Console) Error(err error) {
	fmt.Fprintf(c.w, "%s: %v\n", c.errLabel.Render("Analyze Error"), err)
}

// Count renders a failure count, red when non-zero.
func (c *Console) Count(n int) string {
	if n == 0 {
		return c.ok.Render(fmt.Sprint(n))
	}
	return c.notOK.Render(fmt.Sprint(n))
}

// Writer returns the underlying writer.
func (c *Console) Writer() io.Writer {
	return c.w
}
