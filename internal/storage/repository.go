package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"budgetlite/internal/core"
	"budgetlite/internal/ledger"
	applog "budgetlite/internal/log"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements ledger.Repository on a local SQLite file.
// Amounts are stored as integer cents.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection keeps read-your-writes simple.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func dsn(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection, used by readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const categoryColumns = `id, name, icon, sort_order, created_at_ns`

// ListCategories implements ledger.CategoryStore
func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sort_order, created_at_ns, id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	cats := make([]core.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id.String())
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Icon, c.SortOrder, c.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	slog.InfoContext(ctx, "Category saved to SQLite",
		applog.FieldCategoryID, c.ID,
		"name", c.Name,
		"sort_order", c.SortOrder)
	return nil
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	if err := c.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, icon = ?, sort_order = ? WHERE id = ?`,
		c.Name, c.Icon, c.SortOrder, c.ID.String())
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return expectOneRow(res, "category", c.ID)
}

// ReorderCategories renumbers every category inside one transaction.
func (r *SQLiteRepository) ReorderCategories(ctx context.Context, ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: duplicate %s", ledger.ErrInvalidOrder, id)
		}
		seen[id] = true
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reorder categories: %w", err)
	}
	defer tx.Rollback()

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&total); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if total != len(ids) {
		return fmt.Errorf("%w: %d ids for %d categories", ledger.ErrInvalidOrder, len(ids), total)
	}

	stmt, err := tx.PrepareContext(ctx, `UPDATE categories SET sort_order = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("prepare reorder: %w", err)
	}
	defer stmt.Close()
	for i, id := range ids {
		res, err := stmt.ExecContext(ctx, i, id.String())
		if err != nil {
			return fmt.Errorf("update category order: %w", err)
		}
		if err := expectOneRow(res, "category", id); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reorder categories: %w", err)
	}

	slog.InfoContext(ctx, "Categories reordered in SQLite", "count", len(ids))
	return nil
}

// DeleteCategory checks for referencing expenses inside the same transaction
// so a refused delete leaves every row untouched.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	var refs int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM expenses WHERE category_id = ?`, id.String()).Scan(&refs); err != nil {
		return fmt.Errorf("count category references: %w", err)
	}
	if refs > 0 {
		slog.WarnContext(ctx, "Refusing to delete category in use", applog.FieldCategoryID, id, "expenses", refs)
		return fmt.Errorf("delete category %s (%d expenses): %w", id, refs, ledger.ErrCategoryInUse)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if err := expectOneRow(res, "category", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}

	slog.InfoContext(ctx, "Category deleted from SQLite", applog.FieldCategoryID, id)
	return nil
}

const expenseColumns = `id, amount_cents, date, category_id, comment, created_at_ns`

// ListExpenses implements ledger.ExpenseStore
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses`)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id.String())
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %s: %w", id, ledger.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense by id: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) error {
	if err := r.checkCategory(ctx, e); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Amount.Cents, e.Date.Format(time.RFC3339Nano), categoryParam(e), e.Comment, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		applog.FieldExpenseID, e.ID,
		applog.FieldAmountCents, e.Amount.Cents,
		"date", e.Date.Format("2006-01-02"))
	return nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	if err := r.checkCategory(ctx, e); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET amount_cents = ?, date = ?, category_id = ?, comment = ? WHERE id = ?`,
		e.Amount.Cents, e.Date.Format(time.RFC3339Nano), categoryParam(e), e.Comment, e.ID.String())
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return expectOneRow(res, "expense", e.ID)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if err := expectOneRow(res, "expense", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense deleted from SQLite", applog.FieldExpenseID, id)
	return nil
}

func (r *SQLiteRepository) checkCategory(ctx context.Context, e core.Expense) error {
	if !e.HasCategory() {
		return nil
	}
	_, err := r.GetCategory(ctx, *e.CategoryID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(s scanner) (core.Category, error) {
	var (
		c       core.Category
		id      string
		created int64
	)
	if err := s.Scan(&id, &c.Name, &c.Icon, &c.SortOrder, &created); err != nil {
		return core.Category{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Category{}, fmt.Errorf("parse category id %q: %w", id, err)
	}
	c.ID = parsed
	c.CreatedAt = time.Unix(0, created).UTC()
	return c, nil
}

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e        core.Expense
		id, date string
		catID    sql.NullString
		created  int64
	)
	if err := s.Scan(&id, &e.Amount.Cents, &date, &catID, &e.Comment, &created); err != nil {
		return core.Expense{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense id %q: %w", id, err)
	}
	e.ID = parsed
	if e.Date, err = time.Parse(time.RFC3339Nano, date); err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	if catID.Valid {
		cid, err := uuid.Parse(catID.String)
		if err != nil {
			return core.Expense{}, fmt.Errorf("parse category id %q: %w", catID.String, err)
		}
		e.CategoryID = &cid
	}
	e.CreatedAt = time.Unix(0, created).UTC()
	return e, nil
}

func categoryParam(e core.Expense) sql.NullString {
	if !e.HasCategory() {
		return sql.NullString{}
	}
	return sql.NullString{String: e.CategoryID.String(), Valid: true}
}

func expectOneRow(res sql.Result, what string, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", what, id, ledger.ErrNotFound)
	}
	return nil
}

var _ ledger.Repository = (*SQLiteRepository)(nil)
