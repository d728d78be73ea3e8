// Package ui is everything the user sees and types: diagnostics, the
// welcome banner, the numbered menu and yes/no questions.
//
// Output is styled with pterm and lipgloss only when it goes to a terminal.
package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/nyarchlinux/nyarchify/pkg/catalog"
	"github.com/pterm/pterm"
)

// Printer writes messages to the user and reads their answers
type Printer struct {
	in     *bufio.Reader
	out    io.Writer
	styled bool
}

// New creates a printer. Styling is enabled when out is a terminal.
func New(in io.Reader, out io.Writer) *Printer {
	return &Printer{in: bufio.NewReader(in), out: out, styled: isTerminal(out)}
}

// Plain disables styling
func (p *Printer) Plain() *Printer {
	p.styled = false
	return p
}

// Styled reports whether output carries terminal styling
func (p *Printer) Styled() bool {
	return p.styled
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Println writes a plain line
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes formatted plain text
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Info prints an informational line
func (p *Printer) Info(format string, a ...any) {
	p.prefixed(pterm.Info, "", format, a...)
}

// Warn prints a warning
func (p *Printer) Warn(format string, a ...any) {
	p.prefixed(pterm.Warning, "Warning: ", format, a...)
}

// Success prints a completion message
func (p *Printer) Success(format string, a ...any) {
	p.prefixed(pterm.Success, "", format, a...)
}

// Error prints an error
func (p *Printer) Error(format string, a ...any) {
	p.prefixed(pterm.Error, "Error: ", format, a...)
}

func (p *Printer) prefixed(pp pterm.PrefixPrinter, plain, format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if p.styled {
		fmt.Fprint(p.out, pp.Sprintln(msg))
		return
	}
	fmt.Fprintln(p.out, plain+msg)
}

// Section prints a heading for a group of steps
func (p *Printer) Section(title string) {
	if p.styled {
		fmt.Fprintln(p.out, "\n"+lipgloss.NewStyle().Bold(true).Underline(true).Render(title))
		return
	}
	fmt.Fprintln(p.out, "\n== "+title+" ==")
}

var (
	bannerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	welcomeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	idStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
)

// Banner prints ascii art followed by the welcome line
func (p *Printer) Banner(art, welcome string) {
	art = strings.TrimRight(art, "\n")
	if art != "" {
		if p.styled {
			art = bannerStyle.Render(art)
		}
		fmt.Fprintln(p.out, art)
	}
	if p.styled {
		welcome = welcomeStyle.Render(welcome)
	}
	fmt.Fprintln(p.out, welcome)
}

// Menu prints the numbered catalog
func (p *Printer) Menu(ops []catalog.Operation) {
	fmt.Fprintln(p.out)
	for _, op := range ops {
		fmt.Fprintf(p.out, "%s %s\n", p.id(op.ID), op.Prompt)
	}
	fmt.Fprintf(p.out, "%s Do nothing / skip everything\n\n", p.id(0))
}

func (p *Printer) id(n int) string {
	s := fmt.Sprintf("[%d]", n)
	if p.styled {
		return idStyle.Render(s)
	}
	return s
}

// ReadLine prints prompt and returns the answer without its line ending.
// End of input counts as an empty answer.
func (p *Printer) ReadLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	line, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Confirm asks a yes/no question. An empty answer means yes.
func (p *Printer) Confirm(question string) (bool, error) {
	return p.confirm(question+" [Y/n]: ", true)
}

// ConfirmDefaultNo asks a yes/no question where only an explicit y or yes
// counts as agreement.
func (p *Printer) ConfirmDefaultNo(question string) (bool, error) {
	return p.confirm(question+" [y/N]: ", false)
}

func (p *Printer) confirm(prompt string, empty bool) (bool, error) {
	answer, err := p.ReadLine(prompt)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "":
		return empty, nil
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
