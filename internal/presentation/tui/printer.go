package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// Printer renders scenario output with the color profile of its writer.
type Printer struct {
	out     *termenv.Output
	profile termenv.Profile
}

// NewPrinter creates a printer for w. Colors are dropped when w is not a
// terminal.
func NewPrinter(w io.Writer, opts ...termenv.OutputOption) *Printer {
	out := termenv.NewOutput(w, opts...)
	return &Printer{out: out, profile: out.Profile}
}

// Banner prints the easel banner followed by version.
func (p *Printer) Banner(version string) {
	lines := []struct{ text, color string }{
		{"   ___  __ _ ___  ___| |", "#818cf8"},
		{"  / _ \\/ _` / __|/ _ \\ |", "#a78bfa"},
		{" |  __/ (_| \\__ \\  __/ |", "#c084fc"},
		{"  \\___|\\__,_|___/\\___|_|", "#f472b6"},
	}
	fmt.Fprintln(p.out)
	for _, l := range lines {
		fmt.Fprintln(p.out, p.out.String(l.text).Foreground(p.profile.Color(l.color)))
	}
	fmt.Fprintln(p.out, p.out.String("  v"+version).Faint())
	fmt.Fprintln(p.out)
}

// Step prints the outcome of one scenario step.
func (p *Printer) Step(index int, op, detail string, err error) {
	mark := p.out.String("✓").Foreground(p.profile.Color("#34d399"))
	if err != nil {
		mark = p.out.String("✗").Foreground(p.profile.Color("#fb7185"))
	}
	line := fmt.Sprintf("%s %2d %s", mark, index, p.out.String(op).Bold())
	if detail != "" {
		line += " " + detail
	}
	fmt.Fprintln(p.out, line)
	if err != nil {
		for _, l := range strings.Split(err.Error(), "\n") {
			fmt.Fprintln(p.out, "     "+p.out.String(l).Foreground(p.profile.Color("#fb7185")).String())
		}
	}
}

// Document prints markup with the selection brackets highlighted.
func (p *Printer) Document(markup string) {
	var b strings.Builder
	for _, r := range markup {
		if r == '[' || r == ']' {
			b.WriteString(p.out.String(string(r)).Foreground(p.profile.Color("#fbbf24")).Bold().String())
			continue
		}
		b.WriteRune(r)
	}
	fmt.Fprintln(p.out, "     "+p.out.String(b.String()).Faint().String())
}
