package chart

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Options controls how rows are drawn.
type Options struct {
	// Color forces colored output on (true) or off (false); nil detects it
	// from the writer.
	Color *bool
}

// ShouldUseColor decides whether to color output written to w.
func ShouldUseColor(w io.Writer, force *bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force != nil {
		return *force
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

type palette struct {
	enabled bool
	asleep  lipgloss.Style
	noData  lipgloss.Style
	date    lipgloss.Style
}

func newPalette(w io.Writer, enabled bool) palette {
	if !enabled {
		return palette{}
	}
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(termenv.ANSI256)
	return palette{
		enabled: true,
		asleep:  r.NewStyle().Foreground(lipgloss.Color("63")),
		noData:  r.NewStyle().Foreground(lipgloss.Color("240")),
		date:    r.NewStyle().Bold(true),
	}
}

func (p palette) cells(row Row) string {
	var b strings.Builder
	for _, st := range row.Cells {
		ch := string(st.Symbol())
		if p.enabled {
			switch st {
			case Asleep:
				ch = p.asleep.Render(ch)
			case NoData:
				ch = p.noData.Render(ch)
			}
		}
		b.WriteString(ch)
	}
	return b.String()
}

func (p palette) label(date time.Time) string {
	text := date.Format(dateLayout)
	if p.enabled {
		return p.date.Render(text)
	}
	return text
}

// Render writes a ruler, then one line per row. The ruler is repeated
// before every Sunday after the first row.
func Render(w io.Writer, rows []Row, opts Options) error {
	if len(rows) == 0 {
		return nil
	}
	p := newPalette(w, ShouldUseColor(w, opts.Color))
	ruler := Ruler()
	for i, row := range rows {
		if i == 0 || row.Date.Weekday() == time.Sunday {
			if _, err := fmt.Fprintln(w, ruler); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "%s |%s|\n", p.label(row.Date), p.cells(row)); err != nil {
			return err
		}
	}
	return nil
}
