package core

import (
	"cmp"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// CategoryStat is the aggregate of one category for one month.
type CategoryStat struct {
	Category   Category
	Amount     Money
	Percentage float64
}

// Breakdown is the per-category view of a month's spending.
// Total is the exact sum of Stats amounts; uncategorized spend is not part of it.
type Breakdown struct {
	Month              Month
	Total              Money
	Stats              []CategoryStat
	UncategorizedTotal Money
	ExpenseCount       int
}

// IsEmpty reports whether no categorized spend fell in the month.
func (b Breakdown) IsEmpty() bool {
	return len(b.Stats) == 0
}

// ComputeStats buckets expenses into month, groups them by category and
// computes exact totals and display percentages.
//
// Expenses without a category, or referencing a category missing from
// categories, are left out of the breakdown (UncategorizedTotal tracks them).
// Stats are ordered by amount descending; equal amounts fall back to the
// category display order (SortOrder, CreatedAt, ID) so the result is deterministic.
func ComputeStats(cal Calendar, expenses []Expense, categories []Category, month Month) Breakdown {
	byID := make(map[uuid.UUID]Category, len(categories))
	for _, c := range categories {
		byID[c.ID] = c
	}

	out := Breakdown{Month: month, Stats: []CategoryStat{}}
	sums := make(map[uuid.UUID]Money)
	for _, e := range expenses {
		if !month.Contains(cal, e.Date) {
			continue
		}
		out.ExpenseCount++
		if !e.HasCategory() {
			out.UncategorizedTotal = out.UncategorizedTotal.Add(e.Amount)
			continue
		}
		if _, ok := byID[*e.CategoryID]; !ok {
			out.UncategorizedTotal = out.UncategorizedTotal.Add(e.Amount)
			continue
		}
		sums[*e.CategoryID] = sums[*e.CategoryID].Add(e.Amount)
	}

	for id, amount := range sums {
		out.Total = out.Total.Add(amount)
		out.Stats = append(out.Stats, CategoryStat{Category: byID[id], Amount: amount})
	}

	if out.Total.IsPositive() {
		total := out.Total.Float64()
		for i := range out.Stats {
			out.Stats[i].Percentage = out.Stats[i].Amount.Float64() / total * 100
		}
	}

	slices.SortFunc(out.Stats, compareStats)
	return out
}

func compareStats(a, b CategoryStat) int {
	if c := b.Amount.Cmp(a.Amount); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Category.SortOrder, b.Category.SortOrder); c != 0 {
		return c
	}
	if c := a.Category.CreatedAt.Compare(b.Category.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.Category.ID.String(), b.Category.ID.String())
}

// ExpensesInMonth returns every expense dated in month, uncategorized ones
// included, newest first (date, then creation time).
func ExpensesInMonth(cal Calendar, expenses []Expense, month Month) []Expense {
	out := make([]Expense, 0)
	for _, e := range expenses {
		if month.Contains(cal, e.Date) {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b Expense) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// CountByCategory returns how many expenses reference each category.
func CountByCategory(expenses []Expense) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, e := range expenses {
		if e.HasCategory() {
			counts[*e.CategoryID]++
		}
	}
	return counts
}

// MonthsWithExpenses lists the distinct months that have at least one expense, newest first.
func MonthsWithExpenses(cal Calendar, expenses []Expense) []Month {
	seen := make(map[Month]struct{})
	var out []Month
	for _, e := range expenses {
		m := cal.MonthOf(e.Date)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b Month) int {
		switch {
		case a == b:
			return 0
		case b.Before(a):
			return -1
		default:
			return 1
		}
	})
	return out
}
