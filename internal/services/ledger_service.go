package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/ledger"
	applog "budgetlite/internal/log"

	"github.com/google/uuid"
)

// ErrInvalidPosition is returned when a category is moved outside the list.
var ErrInvalidPosition = errors.New("invalid category position")

// DefaultCategory is a category created by SeedDefaults.
type DefaultCategory struct {
	Name string
	Icon string
}

// DefaultCategories are created on first start when the ledger is empty.
var DefaultCategories = []DefaultCategory{
	{Name: "Food", Icon: "🍔"},
	{Name: "Transport", Icon: "🚗"},
	{Name: "Home", Icon: "🏠"},
	{Name: "Fun", Icon: "🎮"},
}

// ExpenseInput carries the user-editable fields of an expense.
type ExpenseInput struct {
	Amount     core.Money
	Date       time.Time
	CategoryID *uuid.UUID
	Comment    string
}

// LedgerService validates and applies mutations, then notifies listeners.
type LedgerService struct {
	repo     ledger.Repository
	notifier *ledger.Notifier
	cal      core.Calendar
	clock    core.Clock

	// mu serializes mutations so sort orders computed from a listing stay valid.
	mu sync.Mutex
}

// NewLedgerService wires the service. A nil notifier disables events and a
// nil clock uses the system clock.
func NewLedgerService(repo ledger.Repository, notifier *ledger.Notifier, cal core.Calendar, clock core.Clock) *LedgerService {
	if notifier == nil {
		notifier = ledger.NewNotifier()
	}
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &LedgerService{repo: repo, notifier: notifier, cal: cal, clock: clock}
}

// Categories lists categories in display order.
func (s *LedgerService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Expense returns one expense.
func (s *LedgerService) Expense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// CategoryUsage returns how many expenses reference each category.
func (s *LedgerService) CategoryUsage(ctx context.Context) (map[uuid.UUID]int, error) {
	expenses, err := s.repo.ListExpenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return core.CountByCategory(expenses), nil
}

// AddCategory appends a category after the existing ones.
func (s *LedgerService) AddCategory(ctx context.Context, name, icon string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return core.Category{}, fmt.Errorf("list categories: %w", err)
	}
	order := 0
	for _, c := range cats {
		order = max(order, c.SortOrder+1)
	}

	c := core.NewCategory(name, icon, order, s.clock.Now())
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.InsertCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category added", applog.FieldCategoryID, c.ID, "name", c.Name, "sort_order", c.SortOrder)
	s.emit(ctx, ledger.Created, ledger.EntityCategory, c.ID)
	return c, nil
}

// RenameCategory changes a category's name and, when icon is non-empty, its icon.
func (s *LedgerService) RenameCategory(ctx context.Context, id uuid.UUID, name, icon string) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.repo.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Name = strings.TrimSpace(name)
	if strings.TrimSpace(icon) != "" {
		c.Icon = icon
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}

	s.emit(ctx, ledger.Updated, ledger.EntityCategory, c.ID)
	return c, nil
}

// MoveCategory moves the category to position to (0-based) and renumbers
// every category so SortOrder equals its index.
func (s *LedgerService) MoveCategory(ctx context.Context, id uuid.UUID, to int) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	from := -1
	for i, c := range cats {
		if c.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return nil, fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
	}
	if to < 0 || to >= len(cats) {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidPosition, to, len(cats))
	}

	moved := cats[from]
	reordered := make([]core.Category, 0, len(cats))
	reordered = append(reordered, cats[:from]...)
	reordered = append(reordered, cats[from+1:]...)
	reordered = append(reordered[:to], append([]core.Category{moved}, reordered[to:]...)...)

	ids := make([]uuid.UUID, len(reordered))
	changed := false
	for i := range reordered {
		ids[i] = reordered[i].ID
		if reordered[i].SortOrder != i {
			reordered[i].SortOrder = i
			changed = true
		}
	}
	if changed {
		if err := s.repo.ReorderCategories(ctx, ids); err != nil {
			return nil, fmt.Errorf("reorder categories: %w", err)
		}
	}

	slog.InfoContext(ctx, "Category moved", applog.FieldCategoryID, id, "from", from, "to", to)
	s.emit(ctx, ledger.Moved, ledger.EntityCategory, id)
	return reordered, nil
}

// DeleteCategory removes an unused category. ledger.ErrCategoryInUse is
// returned unchanged when expenses still reference it.
func (s *LedgerService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, ledger.ErrCategoryInUse) {
			slog.WarnContext(ctx, "Refusing to delete category in use", applog.FieldCategoryID, id)
		}
		return err
	}
	s.emit(ctx, ledger.Deleted, ledger.EntityCategory, id)
	return nil
}

// AddExpense records a new expense.
func (s *LedgerService) AddExpense(ctx context.Context, in ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.NewExpense(in.Amount, in.Date, normalizeRef(in.CategoryID), in.Comment, s.clock.Now())
	if err := s.checkExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.InsertExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense added", s.expenseFields(e).ToSlice()...)
	s.emit(ctx, ledger.Created, ledger.EntityExpense, e.ID, s.cal.MonthOf(e.Date))
	return e, nil
}

// UpdateExpense replaces the editable fields of an existing expense.
func (s *LedgerService) UpdateExpense(ctx context.Context, id uuid.UUID, in ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	e := old
	e.Amount = in.Amount
	e.Date = in.Date
	e.CategoryID = normalizeRef(in.CategoryID)
	e.Comment = strings.TrimSpace(in.Comment)
	if err := s.checkExpense(ctx, e); err != nil {
		return core.Expense{}, err
	}
	if err := s.repo.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("update expense: %w", err)
	}

	months := []core.Month{s.cal.MonthOf(old.Date)}
	if m := s.cal.MonthOf(e.Date); m != months[0] {
		months = append(months, m)
	}
	slog.InfoContext(ctx, "Expense updated", s.expenseFields(e).ToSlice()...)
	s.emit(ctx, ledger.Updated, ledger.EntityExpense, e.ID, months...)
	return e, nil
}

func (s *LedgerService) expenseFields(e core.Expense) applog.LogFields {
	return applog.NewFields().
		WithExpense(e.ID, e.Amount.Cents, e.CategoryID).
		WithMonth(s.cal.MonthOf(e.Date).String())
}

// DeleteExpense removes an expense.
func (s *LedgerService) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, err := s.repo.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("get expense: %w", err)
	}
	if err := s.repo.DeleteExpense(ctx, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.emit(ctx, ledger.Deleted, ledger.EntityExpense, id, s.cal.MonthOf(e.Date))
	return nil
}

// SeedDefaults creates DefaultCategories when the ledger has no categories
// and reports how many were created.
func (s *LedgerService) SeedDefaults(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return 0, fmt.Errorf("list categories: %w", err)
	}
	if len(cats) > 0 {
		return 0, nil
	}

	now := s.clock.Now()
	for i, d := range DefaultCategories {
		c := core.NewCategory(d.Name, d.Icon, i, now.Add(time.Duration(i)*time.Millisecond))
		if err := s.repo.InsertCategory(ctx, c); err != nil {
			return i, fmt.Errorf("seed category %q: %w", d.Name, err)
		}
		s.emit(ctx, ledger.Created, ledger.EntityCategory, c.ID)
	}
	slog.InfoContext(ctx, "Seeded default categories", "count", len(DefaultCategories))
	return len(DefaultCategories), nil
}

func (s *LedgerService) checkExpense(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if e.HasCategory() {
		if _, err := s.repo.GetCategory(ctx, *e.CategoryID); err != nil {
			return fmt.Errorf("expense category: %w", err)
		}
	}
	return nil
}

func (s *LedgerService) emit(ctx context.Context, kind ledger.ChangeKind, entity ledger.Entity, id uuid.UUID, months ...core.Month) {
	s.notifier.Notify(ctx, ledger.ChangeEvent{
		Kind:   kind,
		Entity: entity,
		ID:     id,
		Months: months,
		At:     s.clock.Now(),
	})
}

func normalizeRef(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return core.Ref(*id)
}
