// Package memory is an in-process ledger.Repository used as the default
// backend and in tests.
package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/ledger"

	"github.com/google/uuid"
)

type Store struct {
	mu         sync.Mutex
	categories map[uuid.UUID]core.Category
	expenses   map[uuid.UUID]core.Expense
}

func New() *Store {
	return &Store{
		categories: make(map[uuid.UUID]core.Category),
		expenses:   make(map[uuid.UUID]core.Expense),
	}
}

// NewFromFile seeds categories from a text file with one "icon name" or
// "name" entry per line. Blank lines and lines starting with '#' are skipped.
// A missing file yields an empty store.
func NewFromFile(path string, now time.Time) *Store {
	s := New()
	for i, line := range readLines(path) {
		icon, name := core.DefaultIcon, line
		if fields := strings.SplitN(line, " ", 2); len(fields) == 2 && !startsWithLetter(fields[0]) {
			icon, name = fields[0], fields[1]
		}
		c := core.NewCategory(name, icon, i, now.Add(time.Duration(i)*time.Millisecond))
		s.categories[c.ID] = c
	}
	return s
}

// ListCategories implements ledger.CategoryStore.
func (s *Store) ListCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	core.SortCategories(out)
	return out, nil
}

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
	}
	return c, nil
}

func (s *Store) InsertCategory(_ context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.categories[c.ID]; exists {
		return fmt.Errorf("category %s already exists", c.ID)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return fmt.Errorf("category %s: %w", c.ID, ledger.ErrNotFound)
	}
	s.categories[c.ID] = c
	return nil
}

func (s *Store) ReorderCategories(_ context.Context, ids []uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(ids) != len(s.categories) {
		return fmt.Errorf("%w: %d ids for %d categories", ledger.ErrInvalidOrder, len(ids), len(s.categories))
	}
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if _, ok := s.categories[id]; !ok {
			return fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
		}
		if seen[id] {
			return fmt.Errorf("%w: duplicate %s", ledger.ErrInvalidOrder, id)
		}
		seen[id] = true
	}
	for i, id := range ids {
		c := s.categories[id]
		c.SortOrder = i
		s.categories[id] = c
	}
	return nil
}

// DeleteCategory refuses to remove a category that any expense references.
func (s *Store) DeleteCategory(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
	}
	for _, e := range s.expenses {
		if e.HasCategory() && *e.CategoryID == id {
			return fmt.Errorf("delete category %s: %w", id, ledger.ErrCategoryInUse)
		}
	}
	delete(s.categories, id)
	return nil
}

// ListExpenses implements ledger.ExpenseStore.
func (s *Store) ListExpenses(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		out = append(out, copyExpense(e))
	}
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
	}
	return copyExpense(e), nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.expenses[e.ID]; exists {
		return fmt.Errorf("expense %s already exists", e.ID)
	}
	if err := s.checkCategoryLocked(e); err != nil {
		return err
	}
	s.expenses[e.ID] = copyExpense(e)
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[e.ID]; !ok {
		return fmt.Errorf("expense %s: %w", e.ID, ledger.ErrNotFound)
	}
	if err := s.checkCategoryLocked(e); err != nil {
		return err
	}
	s.expenses[e.ID] = copyExpense(e)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) Close() error { return nil }

func (s *Store) checkCategoryLocked(e core.Expense) error {
	if !e.HasCategory() {
		return nil
	}
	if _, ok := s.categories[*e.CategoryID]; !ok {
		return fmt.Errorf("category %s: %w", *e.CategoryID, ledger.ErrNotFound)
	}
	return nil
}

// copyExpense detaches the CategoryID pointer from the stored value.
func copyExpense(e core.Expense) core.Expense {
	if e.CategoryID != nil {
		e.CategoryID = core.Ref(*e.CategoryID)
	}
	return e
}

func startsWithLetter(s string) bool {
	for _, r := range s {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}
	return false
}

func readLines(path string) []string {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	seen := map[string]struct{}{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

var _ ledger.Repository = (*Store)(nil)
