package cli

import (
	"strings"
	"testing"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/services"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
)

func testFormatter(t *testing.T) *core.Formatter {
	t.Helper()
	f, err := core.NewFormatter("USD", "en-US")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestRenderBreakdown(t *testing.T) {
	cal := core.NewCalendar(time.UTC)
	food := core.NewCategory("Food", "🍔", 0, testNow)
	transport := core.NewCategory("Transport", "🚗", 1, testNow)
	oct := core.Month{Year: 2026, Month: time.October}

	expenses := []core.Expense{
		core.NewExpense(core.MustParseMoney("12.50"), time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC), &food.ID, "", testNow),
		core.NewExpense(core.MustParseMoney("7.50"), time.Date(2026, 10, 4, 0, 0, 0, 0, time.UTC), &transport.ID, "", testNow),
		core.NewExpense(core.MustParseMoney("3.00"), time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC), nil, "", testNow),
	}
	b := core.ComputeStats(cal, expenses, []core.Category{food, transport}, oct)
	out := RenderBreakdown(services.MonthReport{Breakdown: b, Segments: core.ComputeSegments(b.Stats)}, testFormatter(t))

	for _, want := range []string{"October 2026", "🍔 Food", "$12.50", "62.5%", "🚗 Transport", "37.5%", "Total: $20.00", "Uncategorized: $3.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Food") > strings.Index(out, "Transport") {
		t.Error("larger category must be listed first")
	}
}

func TestRenderBreakdownEmpty(t *testing.T) {
	b := core.Breakdown{Month: core.Month{Year: 2025, Month: time.February}}
	out := RenderBreakdown(services.MonthReport{Breakdown: b}, testFormatter(t))
	if !strings.Contains(out, "No categorized expenses") || !strings.Contains(out, "Total: $0.00") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "Uncategorized") {
		t.Error("zero uncategorized total must be omitted")
	}
}

func TestRenderTableAlignsWideCells(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "N"},
		Rows:    [][]string{{"🍔 Food", "1"}, {"Transport", "12"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 6 {
		t.Fatalf("lines = %d:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, l := range lines {
		if lipgloss.Width(l) != width {
			t.Errorf("line %d width %d, want %d: %q", i, lipgloss.Width(l), width, l)
		}
	}
	if RenderTable(Table{}) != "" {
		t.Error("empty table should render nothing")
	}
}

func TestRenderExpensesResolvesCategories(t *testing.T) {
	food := core.NewCategory("Food", "", 0, testNow)
	missing := uuid.New()
	expenses := []core.Expense{
		core.NewExpense(core.MustParseMoney("1.00"), time.Date(2026, 10, 1, 23, 30, 0, 0, time.UTC), &food.ID, "bread", testNow),
		core.NewExpense(core.MustParseMoney("2.00"), time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC), &missing, "", testNow),
		core.NewExpense(core.MustParseMoney("3.00"), time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC), nil, "", testNow),
	}
	out := RenderExpenses(expenses, []core.Category{food}, testFormatter(t), time.UTC)
	for _, want := range []string{"2026-10-01", "Food", "bread", "$2.00", " ? ", " - "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{140, "██████████"},
	}
	for _, tt := range tests {
		if got := bar(tt.pct, 10); got != tt.want {
			t.Errorf("bar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
