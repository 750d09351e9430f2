package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/services"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorText   = lipgloss.Color("#FFFCF0")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorAccent = lipgloss.Color("#3AA99F")
	colorAmount = lipgloss.Color("#879A39")
)

// paletteColors maps core.Palette names to terminal colors.
var paletteColors = map[string]lipgloss.Color{
	"blue":   lipgloss.Color("#4385BE"),
	"green":  lipgloss.Color("#879A39"),
	"orange": lipgloss.Color("#DA702C"),
	"purple": lipgloss.Color("#8B7EC8"),
	"pink":   lipgloss.Color("#CE5D97"),
	"red":    lipgloss.Color("#D14D41"),
	"yellow": lipgloss.Color("#D0A215"),
	"cyan":   lipgloss.Color("#24837B"),
	"mint":   lipgloss.Color("#66A0C8"),
	"indigo": lipgloss.Color("#5E409D"),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	amountStyle = lipgloss.NewStyle().Foreground(colorAmount)
	borderStyle = lipgloss.NewStyle().Foreground(colorBorder)
)

const barWidth = 20

// Table is a bordered text table.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// RightAlign marks columns rendered flush right.
	RightAlign []bool
}

// RenderTitle renders title in a rounded box.
func RenderTitle(title string) string {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorBorder).
		Padding(0, 1).
		Render(titleStyle.Render(title))
}

// RenderTable renders t with box-drawing borders. Column widths follow the
// display width of the widest cell, so emoji icons line up.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	for _, row := range t.Rows {
		numCols = max(numCols, len(row))
	}
	if numCols == 0 {
		return ""
	}

	widths := make([]int, numCols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		measure(row)
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(headerStyle.Render(t.Title))
		b.WriteString("\n")
	}

	rule := func(left, mid, right string) {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		b.WriteString(borderStyle.Render(left + strings.Join(parts, mid) + right))
		b.WriteString("\n")
	}
	line := func(row []string, style *lipgloss.Style) {
		b.WriteString(borderStyle.Render("│"))
		for i := range numCols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			pad := strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			if style != nil {
				cell = style.Render(cell)
			}
			if i < len(t.RightAlign) && t.RightAlign[i] {
				cell = pad + cell
			} else {
				cell += pad
			}
			b.WriteString(" " + cell + " ")
			b.WriteString(borderStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	rule("╭", "┬", "╮")
	if len(t.Headers) > 0 {
		line(t.Headers, &headerStyle)
		rule("├", "┼", "┤")
	}
	for _, row := range t.Rows {
		line(row, nil)
	}
	rule("╰", "┴", "╯")
	return b.String()
}

// RenderBreakdown renders a month's per-category spending with a bar per
// category colored like its chart segment.
func RenderBreakdown(report services.MonthReport, f *core.Formatter) string {
	b := report.Breakdown

	var sb strings.Builder
	sb.WriteString(RenderTitle(b.Month.Label()))
	sb.WriteString("\n")

	if b.IsEmpty() {
		sb.WriteString(mutedStyle.Render("No categorized expenses this month."))
		sb.WriteString("\n")
	} else {
		rows := make([][]string, 0, len(b.Stats))
		for i, st := range b.Stats {
			color := colorAccent
			if i < len(report.Segments) {
				color = paletteColors[report.Segments[i].Color()]
			}
			rows = append(rows, []string{
				categoryLabel(st.Category),
				f.Format(st.Amount),
				f.FormatPercent(st.Percentage),
				lipgloss.NewStyle().Foreground(color).Render(bar(st.Percentage, barWidth)),
			})
		}
		sb.WriteString(RenderTable(Table{
			Headers:    []string{"Category", "Amount", "Share", ""},
			Rows:       rows,
			RightAlign: []bool{false, true, true, false},
		}))
	}

	sb.WriteString(fmt.Sprintf("Total: %s\n", amountStyle.Render(f.Format(b.Total))))
	if !b.UncategorizedTotal.IsZero() {
		sb.WriteString(mutedStyle.Render(fmt.Sprintf("Uncategorized: %s", f.Format(b.UncategorizedTotal))))
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderCategories renders categories in display order with their usage.
func RenderCategories(cats []core.Category, usage map[uuid.UUID]int) string {
	rows := make([][]string, 0, len(cats))
	for _, c := range cats {
		rows = append(rows, []string{
			fmt.Sprint(c.SortOrder),
			categoryLabel(c),
			fmt.Sprint(usage[c.ID]),
			c.ID.String(),
		})
	}
	return RenderTable(Table{
		Title:      "Categories",
		Headers:    []string{"#", "Name", "Expenses", "ID"},
		Rows:       rows,
		RightAlign: []bool{true, false, true, false},
	})
}

// RenderExpenses renders expenses with their category names resolved.
// Dates are shown in loc.
func RenderExpenses(expenses []core.Expense, cats []core.Category, f *core.Formatter, loc *time.Location) string {
	names := make(map[uuid.UUID]string, len(cats))
	for _, c := range cats {
		names[c.ID] = categoryLabel(c)
	}

	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		category := "-"
		if e.HasCategory() {
			if name, ok := names[*e.CategoryID]; ok {
				category = name
			} else {
				category = "?"
			}
		}
		rows = append(rows, []string{
			e.Date.In(loc).Format("2006-01-02"),
			f.Format(e.Amount),
			category,
			e.Comment,
			e.ID.String(),
		})
	}
	return RenderTable(Table{
		Title:      "Expenses",
		Headers:    []string{"Date", "Amount", "Category", "Comment", "ID"},
		Rows:       rows,
		RightAlign: []bool{false, true, false, false, false},
	})
}

func categoryLabel(c core.Category) string {
	if c.Icon == "" {
		return c.Name
	}
	return c.Icon + " " + c.Name
}

// bar renders pct (0-100) as a fixed-width bar.
func bar(pct float64, width int) string {
	filled := int(math.Round(pct / 100 * float64(width)))
	filled = min(max(filled, 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
