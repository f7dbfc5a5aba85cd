package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/iaa/internal/agreement"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Bold(true).Padding(0, 1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Padding(0, 1).Align(lipgloss.Right)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
)

// Renderer returns a table renderer writing to w, styled when w is a terminal
// (or when forceColor is set) and plain otherwise.
func Renderer(w io.Writer, forceColor bool) agreement.RenderFunc {
	if shouldUseColor(w, forceColor) {
		return StyledRenderer(w)
	}
	return PlainRenderer(w)
}

// PlainRenderer renders count tables as aligned text. Each table reaches w in a
// single write, so the renderer may be shared by concurrent callers.
func PlainRenderer(w io.Writer) agreement.RenderFunc {
	var mu sync.Mutex
	return func(title string, rows, cols []string, cells *mat.Dense) {
		var sb strings.Builder
		if err := writePlainTable(&sb, title, rows, cols, cells); err != nil {
			logErrf("failed to render %s: %v\n", title, err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if _, err := io.WriteString(w, sb.String()); err != nil {
			logErrf("failed to render %s: %v\n", title, err)
		}
	}
}

func writePlainTable(w io.Writer, title string, rows, cols []string, cells *mat.Dense) error {
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	headers := append([]string{""}, cols...)
	lines := formatTable(headers, countRows(rows, cells), rightAlignFrom(1, len(headers)))
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// StyledRenderer renders count tables with lipgloss borders and colors.
func StyledRenderer(w io.Writer) agreement.RenderFunc {
	var mu sync.Mutex
	return func(title string, rows, cols []string, cells *mat.Dense) {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(borderStyle).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case col == 0:
					return labelStyle
				default:
					return cellStyle
				}
			}).
			Headers(append([]string{""}, cols...)...).
			Rows(countRows(rows, cells)...)
		out := t.Render()
		mu.Lock()
		defer mu.Unlock()
		if _, err := fmt.Fprintf(w, "%s\n%s\n\n", titleStyle.Render(title), out); err != nil {
			logErrf("failed to render %s: %v\n", title, err)
		}
	}
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
