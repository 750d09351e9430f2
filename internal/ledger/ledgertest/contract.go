// Package ledgertest holds the behavioral checks every ledger.Repository must pass.
package ledgertest

import (
	"context"
	"errors"
	"testing"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/ledger"

	"github.com/google/uuid"
)

var base = time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)

// RunContract exercises repo created fresh for each subtest.
func RunContract(t *testing.T, newRepo func(t *testing.T) ledger.Repository) {
	t.Run("categories ordered by sort order then creation", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		b := core.NewCategory("B", "🚗", 1, base)
		a := core.NewCategory("A", "🍔", 0, base.Add(time.Minute))
		c := core.NewCategory("C", "🏠", 1, base.Add(-time.Minute))
		for _, cat := range []core.Category{b, a, c} {
			mustNoErr(t, repo.InsertCategory(ctx, cat))
		}
		got, err := repo.ListCategories(ctx)
		mustNoErr(t, err)
		if len(got) != 3 || got[0].ID != a.ID || got[1].ID != c.ID || got[2].ID != b.ID {
			t.Fatalf("unexpected order: %v", names(got))
		}
		if got[0].Icon != "🍔" || !got[0].CreatedAt.Equal(a.CreatedAt) {
			t.Fatalf("fields not preserved: %+v", got[0])
		}
	})

	t.Run("expense round trip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		cat := core.NewCategory("Food", "🍔", 0, base)
		mustNoErr(t, repo.InsertCategory(ctx, cat))

		e := core.NewExpense(core.MustParseMoney("12.34"), base, core.Ref(cat.ID), "lunch", base)
		mustNoErr(t, repo.InsertExpense(ctx, e))
		got, err := repo.GetExpense(ctx, e.ID)
		mustNoErr(t, err)
		if !got.Amount.Equal(e.Amount) || got.Comment != "lunch" || !got.Date.Equal(e.Date) || *got.CategoryID != cat.ID {
			t.Fatalf("round trip mismatch: %+v", got)
		}

		got.Amount = core.MustParseMoney("1.00")
		got.CategoryID = nil
		mustNoErr(t, repo.UpdateExpense(ctx, got))
		list, err := repo.ListExpenses(ctx)
		mustNoErr(t, err)
		if len(list) != 1 || list[0].Amount.Cents != 100 || list[0].HasCategory() {
			t.Fatalf("update not visible: %+v", list)
		}

		mustNoErr(t, repo.DeleteExpense(ctx, e.ID))
		if _, err := repo.GetExpense(ctx, e.ID); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("delete category in use", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		used := core.NewCategory("Used", "", 0, base)
		unused := core.NewCategory("Unused", "", 1, base)
		mustNoErr(t, repo.InsertCategory(ctx, used))
		mustNoErr(t, repo.InsertCategory(ctx, unused))
		e := core.NewExpense(core.Cents(500), base, core.Ref(used.ID), "", base)
		mustNoErr(t, repo.InsertExpense(ctx, e))

		if err := repo.DeleteCategory(ctx, used.ID); !errors.Is(err, ledger.ErrCategoryInUse) {
			t.Fatalf("expected ErrCategoryInUse, got %v", err)
		}
		cats, err := repo.ListCategories(ctx)
		mustNoErr(t, err)
		exps, err := repo.ListExpenses(ctx)
		mustNoErr(t, err)
		if len(cats) != 2 || len(exps) != 1 {
			t.Fatalf("data changed after refused delete: cats=%d exps=%d", len(cats), len(exps))
		}

		mustNoErr(t, repo.DeleteCategory(ctx, unused.ID))
		cats, _ = repo.ListCategories(ctx)
		if len(cats) != 1 || cats[0].ID != used.ID {
			t.Fatalf("unexpected categories after delete: %v", names(cats))
		}
	})

	t.Run("missing records", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		if _, err := repo.GetCategory(ctx, uuid.New()); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("GetCategory: %v", err)
		}
		if err := repo.DeleteCategory(ctx, uuid.New()); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("DeleteCategory: %v", err)
		}
		if err := repo.DeleteExpense(ctx, uuid.New()); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("DeleteExpense: %v", err)
		}
		ghost := core.NewExpense(core.Cents(1), base, nil, "", base)
		if err := repo.UpdateExpense(ctx, ghost); !errors.Is(err, ledger.ErrNotFound) {
			t.Fatalf("UpdateExpense: %v", err)
		}
		orphan := core.NewExpense(core.Cents(1), base, core.Ref(uuid.New()), "", base)
		if err := repo.InsertExpense(ctx, orphan); err == nil {
			t.Fatal("expense referencing unknown category was accepted")
		}
	})

	t.Run("update category", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		c := core.NewCategory("Fun", "🎮", 0, base)
		mustNoErr(t, repo.InsertCategory(ctx, c))
		c.Name = "Games"
		c.SortOrder = 4
		mustNoErr(t, repo.UpdateCategory(ctx, c))
		got, err := repo.GetCategory(ctx, c.ID)
		mustNoErr(t, err)
		if got.Name != "Games" || got.SortOrder != 4 {
			t.Fatalf("update not visible: %+v", got)
		}
	})

	t.Run("reorder categories", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		a := core.NewCategory("A", "", 0, base)
		b := core.NewCategory("B", "", 1, base)
		c := core.NewCategory("C", "", 2, base)
		for _, cat := range []core.Category{a, b, c} {
			mustNoErr(t, repo.InsertCategory(ctx, cat))
		}

		mustNoErr(t, repo.ReorderCategories(ctx, []uuid.UUID{b.ID, c.ID, a.ID}))
		got, err := repo.ListCategories(ctx)
		mustNoErr(t, err)
		if n := names(got); len(n) != 3 || n[0] != "B" || n[1] != "C" || n[2] != "A" {
			t.Fatalf("order after reorder = %v", n)
		}
		for i, cat := range got {
			if cat.SortOrder != i {
				t.Fatalf("%s sort order = %d, want %d", cat.Name, cat.SortOrder, i)
			}
		}

		bad := []struct {
			name string
			ids  []uuid.UUID
			want error
		}{
			{"unknown id", []uuid.UUID{a.ID, b.ID, uuid.New()}, ledger.ErrNotFound},
			{"duplicate id", []uuid.UUID{a.ID, a.ID, b.ID}, ledger.ErrInvalidOrder},
			{"missing id", []uuid.UUID{c.ID, a.ID}, ledger.ErrInvalidOrder},
		}
		for _, tt := range bad {
			if err := repo.ReorderCategories(ctx, tt.ids); !errors.Is(err, tt.want) {
				t.Errorf("%s: err = %v, want %v", tt.name, err, tt.want)
			}
		}
		after, err := repo.ListCategories(ctx)
		mustNoErr(t, err)
		if n := names(after); n[0] != "B" || n[1] != "C" || n[2] != "A" || after[0].SortOrder != 0 || after[2].SortOrder != 2 {
			t.Fatalf("rejected reorder changed rows: %v", n)
		}
	})
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func names(cats []core.Category) []string {
	out := make([]string, len(cats))
	for i, c := range cats {
		out[i] = c.Name
	}
	return out
}
