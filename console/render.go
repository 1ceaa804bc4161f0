package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/asaidimu/go-tabula/core"
	"github.com/asaidimu/go-tabula/core/stats"
	"github.com/asaidimu/go-tabula/core/view"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const (
	maxCellWidth = 32
	barWidth     = 30
)

// Theme holds the styles used for console output.
type Theme struct {
	Header  lipgloss.Style
	Rule    lipgloss.Style
	Cell    lipgloss.Style
	Muted   lipgloss.Style
	Title   lipgloss.Style
	Bar     lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Card    lipgloss.Style
}

// DefaultTheme returns the console's styles bound to r, which decides the
// color profile of the output.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	return Theme{
		Header:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Rule:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Cell:    r.NewStyle(),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Title:   r.NewStyle().Bold(true).Underline(true),
		Bar:     r.NewStyle().Foreground(lipgloss.Color("10")),
		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Failure: r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Card: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1),
	}
}

// Renderer writes tables and charts.
type Renderer struct {
	out   io.Writer
	theme Theme
}

// NewRenderer creates a renderer writing to out.
func NewRenderer(out io.Writer, theme Theme) *Renderer {
	return &Renderer{out: out, theme: theme}
}

func cellText(v any) string {
	text := strings.ReplaceAll(core.Stringify(v), "\n", " ")
	return ansi.Truncate(text, maxCellWidth, "…")
}

// Table writes one page of a table with a footer describing the page.
func (r *Renderer) Table(columns []view.Column, result view.Result) {
	if len(result.Rows) == 0 {
		fmt.Fprintln(r.out, r.theme.Muted.Render("No records found."))
		return
	}

	widths := make([]int, len(columns))
	cells := make([][]string, len(result.Rows))
	for i, col := range columns {
		widths[i] = lipgloss.Width(col.Header)
	}
	for row, record := range result.Rows {
		cells[row] = make([]string, len(columns))
		for i, col := range columns {
			v, _ := record.Get(col.Field)
			text := cellText(v)
			cells[row][i] = text
			widths[i] = max(widths[i], lipgloss.Width(text))
		}
	}

	header := make([]string, len(columns))
	rule := make([]string, len(columns))
	for i, col := range columns {
		header[i] = r.theme.Header.Width(widths[i]).Render(col.Header)
		rule[i] = strings.Repeat("─", widths[i])
	}
	fmt.Fprintln(r.out, strings.Join(header, "  "))
	fmt.Fprintln(r.out, r.theme.Rule.Render(strings.Join(rule, "  ")))

	for _, row := range cells {
		line := make([]string, len(row))
		for i, text := range row {
			line[i] = r.theme.Cell.Width(widths[i]).Render(text)
		}
		fmt.Fprintln(r.out, strings.TrimRight(strings.Join(line, "  "), " "))
	}

	fmt.Fprintln(r.out, r.theme.Muted.Render(
		fmt.Sprintf("Page %d of %d (%d records)", result.Page, result.TotalPages, result.Total)))
}

// Bars writes a horizontal bar chart.
func (r *Renderer) Bars(title string, points []stats.Point) {
	fmt.Fprintln(r.out, r.theme.Title.Render(title))

	labelWidth, top := 0, 0
	for _, p := range points {
		labelWidth = max(labelWidth, lipgloss.Width(p.Label))
		top = max(top, p.Value)
	}
	for _, p := range points {
		length := 0
		if top > 0 {
			length = p.Value * barWidth / top
		}
		if p.Value > 0 && length == 0 {
			length = 1
		}
		label := r.theme.Cell.Width(labelWidth).Render(p.Label)
		bar := r.theme.Bar.Render(strings.Repeat("█", length))
		fmt.Fprintf(r.out, "  %s  %s %d\n", label, bar, p.Value)
	}
	fmt.Fprintln(r.out)
}

// Cards writes the dashboard stat cards.
func (r *Renderer) Cards(summary stats.Summary) {
	card := r.theme.Card
	boxes := []string{
		card.Render(fmt.Sprintf("Total Users\n%d", summary.TotalUsers)),
		card.Render(fmt.Sprintf("Admins\n%d", summary.AdminUsers)),
		card.Render(fmt.Sprintf("Total Tasks\n%d", summary.TotalTasks)),
		card.Render(fmt.Sprintf("Completed\n%d", summary.CompletedTasks)),
	}
	fmt.Fprintln(r.out, lipgloss.JoinHorizontal(lipgloss.Top, boxes...))
	fmt.Fprintln(r.out)
}

// Notifier reports the outcome of an action to the user.
type Notifier struct {
	out   io.Writer
	theme Theme
}

// NewNotifier creates a notifier writing to out.
func NewNotifier(out io.Writer, theme Theme) *Notifier {
	return &Notifier{out: out, theme: theme}
}

// Success reports a completed action.
func (n *Notifier) Success(format string, args ...any) {
	fmt.Fprintln(n.out, n.theme.Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// Failure reports a failed action.
func (n *Notifier) Failure(format string, args ...any) {
	fmt.Fprintln(n.out, n.theme.Failure.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Info reports a neutral message.
func (n *Notifier) Info(format string, args ...any) {
	fmt.Fprintln(n.out, n.theme.Muted.Render(fmt.Sprintf(format, args...)))
}
