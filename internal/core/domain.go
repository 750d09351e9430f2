package core

import (
	"cmp"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultIcon is used when a category is created without one.
const DefaultIcon = "💸"

const maxCommentLength = 200

type (
	Category struct {
		ID        uuid.UUID
		Name      string
		Icon      string
		CreatedAt time.Time
		SortOrder int
	}

	Expense struct {
		ID         uuid.UUID
		Amount     Money
		Date       time.Time // accounting date
		CategoryID *uuid.UUID // nil when uncategorized
		Comment    string
		CreatedAt  time.Time // tie-breaker only
	}
)

var (
	ErrEmptyCategoryName = errors.New("empty category name")
	ErrZeroDate          = errors.New("date cannot be zero")
	ErrCommentTooLong    = errors.New("comment too long (max 200 characters)")
)

// NewCategory builds a category with a fresh id. The name is trimmed.
func NewCategory(name, icon string, sortOrder int, now time.Time) Category {
	if strings.TrimSpace(icon) == "" {
		icon = DefaultIcon
	}
	return Category{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Icon:      icon,
		CreatedAt: now,
		SortOrder: sortOrder,
	}
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategoryName
	}
	return nil
}

// NewExpense builds an expense with a fresh id.
func NewExpense(amount Money, date time.Time, categoryID *uuid.UUID, comment string, now time.Time) Expense {
	return Expense{
		ID:         uuid.New(),
		Amount:     amount,
		Date:       date,
		CategoryID: categoryID,
		Comment:    strings.TrimSpace(comment),
		CreatedAt:  now,
	}
}

// Validate enforces creation-time rules. The Money type itself allows any value.
func (e Expense) Validate() error {
	if e.Date.IsZero() {
		return ErrZeroDate
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(e.Comment) > maxCommentLength {
		return ErrCommentTooLong
	}
	return nil
}

// HasCategory reports whether the expense references a category.
func (e Expense) HasCategory() bool {
	return e.CategoryID != nil && *e.CategoryID != uuid.Nil
}

// Ref returns a pointer to a copy of id, handy for Expense.CategoryID.
func Ref(id uuid.UUID) *uuid.UUID {
	return &id
}

// SortCategories orders categories by SortOrder, then CreatedAt, then ID.
func SortCategories(cats []Category) {
	slices.SortStableFunc(cats, func(a, b Category) int {
		if c := cmp.Compare(a.SortOrder, b.SortOrder); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID.String(), b.ID.String())
	})
}
