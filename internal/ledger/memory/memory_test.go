package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"budgetlite/internal/ledger"
	"budgetlite/internal/ledger/ledgertest"
)

func TestStoreContract(t *testing.T) {
	ledgertest.RunContract(t, func(t *testing.T) ledger.Repository { return New() })
}

func TestNewFromFileSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// No file -> empty store
	s := NewFromFile(filepath.Join(dir, "missing.txt"), now)
	cats, _ := s.ListCategories(context.Background())
	if len(cats) != 0 {
		t.Fatalf("expected no categories when file missing, got %d", len(cats))
	}

	path := filepath.Join(dir, "seed_categories.txt")
	if err := os.WriteFile(path, []byte("# header\n🍔 Food\nTransport\n🍔 Food\n\n🏠 Home sweet home\n"), 0o644); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	s = NewFromFile(path, now)
	cats, _ = s.ListCategories(context.Background())
	if len(cats) != 3 {
		t.Fatalf("unexpected cats: %+v", cats)
	}
	if cats[0].Name != "Food" || cats[0].Icon != "🍔" {
		t.Fatalf("first = %+v", cats[0])
	}
	if cats[1].Name != "Transport" || cats[1].Icon != "💸" {
		t.Fatalf("second = %+v", cats[1])
	}
	if cats[2].Name != "Home sweet home" || cats[2].SortOrder != 2 {
		t.Fatalf("third = %+v", cats[2])
	}
}

func TestListExpensesReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	cats, _ := s.ListCategories(ctx)
	if len(cats) != 0 {
		t.Fatal("new store should be empty")
	}
	exps, _ := s.ListExpenses(ctx)
	if exps == nil {
		t.Fatal("expected empty non-nil slice")
	}
}
