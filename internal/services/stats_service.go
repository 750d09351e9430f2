package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"

	"budgetlite/internal/cache"
	"budgetlite/internal/core"
	"budgetlite/internal/ledger"

	"golang.org/x/sync/singleflight"
)

// LedgerReader is the read side of the repository the statistics are pulled from.
type LedgerReader interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListExpenses(ctx context.Context) ([]core.Expense, error)
}

// MonthReport is everything the presentation layer needs to draw a month.
type MonthReport struct {
	Breakdown core.Breakdown
	Segments  []core.ChartSegment
}

// StatsService computes monthly breakdowns on demand. Results may be cached,
// but every ChangeEvent drops the cache so a breakdown computed before a
// mutation is never returned after it.
type StatsService struct {
	repo  LedgerReader
	cal   core.Calendar
	cache cache.Cache[MonthReport]
	group singleflight.Group

	// generation increments on every invalidation; results computed under an
	// older generation are not stored.
	generation atomic.Uint64
}

// NewStatsService creates the service. A nil cache disables caching.
func NewStatsService(repo LedgerReader, cal core.Calendar, c cache.Cache[MonthReport]) *StatsService {
	return &StatsService{repo: repo, cal: cal, cache: c}
}

// Calendar returns the calendar months are bucketed with.
func (s *StatsService) Calendar() core.Calendar {
	return s.cal
}

// MonthStats returns the breakdown and chart segments for month.
func (s *StatsService) MonthStats(ctx context.Context, month core.Month) (MonthReport, error) {
	key := month.String()
	if s.cache != nil {
		if r, ok := s.cache.Get(key); ok {
			return r, nil
		}
	}

	gen := s.generation.Load()
	v, err, _ := s.group.Do(key+"@"+strconv.FormatUint(gen, 10), func() (any, error) {
		categories, err := s.repo.ListCategories(ctx)
		if err != nil {
			return MonthReport{}, fmt.Errorf("list categories: %w", err)
		}
		expenses, err := s.repo.ListExpenses(ctx)
		if err != nil {
			return MonthReport{}, fmt.Errorf("list expenses: %w", err)
		}

		b := core.ComputeStats(s.cal, expenses, categories, month)
		r := MonthReport{Breakdown: b, Segments: core.ComputeSegments(b.Stats)}

		if s.cache != nil && s.generation.Load() == gen {
			s.cache.Set(key, r)
			// Invalidate bumps the generation before clearing, so a bump
			// seen here may have cleared the cache before the Set landed.
			if s.generation.Load() != gen {
				s.cache.Delete(key)
			}
		}
		return r, nil
	})
	if err != nil {
		return MonthReport{}, err
	}
	return v.(MonthReport), nil
}

// MonthExpenses returns every expense dated in month, uncategorized ones
// included, newest first.
func (s *StatsService) MonthExpenses(ctx context.Context, month core.Month) ([]core.Expense, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.ExpensesInMonth(s.cal, expenses, month), nil
}

// Months returns the months that have at least one expense, newest first.
func (s *StatsService) Months(ctx context.Context) ([]core.Month, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.MonthsWithExpenses(s.cal, expenses), nil
}

// Invalidate drops every cached breakdown. The generation is bumped before
// the cache is cleared; MonthStats relies on that order.
func (s *StatsService) Invalidate() {
	s.generation.Add(1)
	if s.cache != nil {
		s.cache.Clear()
	}
}

// OnChange is a ledger.Listener that invalidates the cache.
func (s *StatsService) OnChange(ctx context.Context, ev ledger.ChangeEvent) {
	s.Invalidate()
	slog.DebugContext(ctx, "Stats cache invalidated",
		"entity", ev.Entity,
		"kind", ev.Kind,
		"id", ev.ID)
}
