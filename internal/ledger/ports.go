// Package ledger defines the persistence collaborator used by the statistics
// engine: category and expense stores plus explicit change notification.
package ledger

import (
	"context"
	"errors"

	"budgetlite/internal/core"

	"github.com/google/uuid"
)

var (
	// ErrCategoryInUse is returned when deleting a category that expenses still reference.
	ErrCategoryInUse = errors.New("category in use")
	ErrNotFound      = errors.New("not found")
	// ErrInvalidOrder is returned by ReorderCategories when ids is not a
	// permutation of the stored categories.
	ErrInvalidOrder = errors.New("invalid category order")
)

// Ports for storage adapters.
type (
	CategoryStore interface {
		// ListCategories returns categories ordered by SortOrder, then CreatedAt.
		ListCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error)
		InsertCategory(ctx context.Context, c core.Category) error
		UpdateCategory(ctx context.Context, c core.Category) error
		// ReorderCategories sets each category's SortOrder to its index in ids,
		// all or nothing. ids must name every stored category exactly once.
		ReorderCategories(ctx context.Context, ids []uuid.UUID) error
		// DeleteCategory fails with ErrCategoryInUse while any expense references it.
		DeleteCategory(ctx context.Context, id uuid.UUID) error
	}

	ExpenseStore interface {
		// ListExpenses returns every expense in no particular order.
		ListExpenses(ctx context.Context) ([]core.Expense, error)
		GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
		InsertExpense(ctx context.Context, e core.Expense) error
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id uuid.UUID) error
	}

	// Repository is the full collaborator. Writes are atomic and visible to the next List call.
	Repository interface {
		CategoryStore
		ExpenseStore
		Close() error
	}
)
