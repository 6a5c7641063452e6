package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

func newTestRepo(t *testing.T) *SQLRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "expenses.db"))
	if err != nil {
		t.Fatalf("open sqlite repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func mustInsert(t *testing.T, repo *SQLRepository, desc, amount string, d core.Date) core.Expense {
	t.Helper()
	e, err := repo.Insert(context.Background(), core.ExpenseCreate{
		Description: desc,
		Amount:      decimal.RequireFromString(amount),
		Date:        d,
	}, time.Now())
	if err != nil {
		t.Fatalf("insert %s: %v", desc, err)
	}
	return e
}

func TestSQLiteInsertAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := mustInsert(t, repo, "Lunch at restaurant", "25.50", core.NewDate(2024, 1, 15))
	if created.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("expected created_at to be set")
	}

	got, found, err := repo.Get(ctx, created.ID)
	if err != nil || !found {
		t.Fatalf("get: found=%v err=%v", found, err)
	}
	if got.Description != "Lunch at restaurant" || core.FormatAmount(got.Amount) != "25.50" || got.Date.String() != "2024-01-15" {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, created.CreatedAt)
	}

	_, found, err = repo.Get(ctx, 999)
	if err != nil || found {
		t.Fatalf("expected not found without error, got found=%v err=%v", found, err)
	}
}

func TestSQLiteListOrderedByDateDesc(t *testing.T) {
	repo := newTestRepo(t)

	items, err := repo.ListByDateDesc(context.Background())
	if err != nil {
		t.Fatalf("list empty: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", items)
	}

	mustInsert(t, repo, "Coffee", "5.00", core.NewDate(2024, 1, 10))
	mustInsert(t, repo, "Dinner", "30.00", core.NewDate(2024, 1, 15))
	mustInsert(t, repo, "Rent", "900.00", core.NewDate(2023, 12, 31))
	mustInsert(t, repo, "Flight", "210.99", core.NewDate(2025, 3, 1))

	items, err = repo.ListByDateDesc(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Flight", "Dinner", "Coffee", "Rent"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].Description != w {
			t.Fatalf("position %d: expected %s, got %s", i, w, items[i].Description)
		}
	}
}

func TestSQLiteDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := mustInsert(t, repo, "Groceries", "75.25", core.NewDate(2024, 1, 25))

	ok, err := repo.Delete(ctx, e.ID)
	if err != nil || !ok {
		t.Fatalf("expected delete true, got %v err=%v", ok, err)
	}
	if _, found, _ := repo.Get(ctx, e.ID); found {
		t.Fatal("expense still present after delete")
	}

	ok, err = repo.Delete(ctx, 999)
	if err != nil || ok {
		t.Fatalf("expected delete false without error, got %v err=%v", ok, err)
	}

	next := mustInsert(t, repo, "Snacks", "3.10", core.NewDate(2024, 1, 26))
	if next.ID <= e.ID {
		t.Fatalf("ids must not be reused: got %d after %d", next.ID, e.ID)
	}
}

func TestSQLiteRejectsOverlongDescription(t *testing.T) {
	repo := newTestRepo(t)
	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	_, err := repo.Insert(context.Background(), core.ExpenseCreate{
		Description: string(long),
		Amount:      decimal.NewFromInt(1),
		Date:        core.NewDate(2024, 1, 1),
	}, time.Now())
	if err == nil {
		t.Fatal("expected constraint violation for 501-character description")
	}

	items, _ := repo.ListByDateDesc(context.Background())
	if len(items) != 0 {
		t.Fatalf("failed insert must leave no row, found %d", len(items))
	}
}

func TestDialectRebind(t *testing.T) {
	q := "SELECT * FROM expenses WHERE id = ? AND amount_cents > ?"
	if got := DialectSQLite.rebind(q); got != q {
		t.Fatalf("sqlite rebind changed query: %s", got)
	}
	want := "SELECT * FROM expenses WHERE id = $1 AND amount_cents > $2"
	if got := DialectPostgres.rebind(q); got != want {
		t.Fatalf("postgres rebind = %s, want %s", got, want)
	}
}

func TestDBTimeScan(t *testing.T) {
	var d dbTime
	if err := d.Scan("2024-01-15"); err != nil || d.Format("2006-01-02") != "2024-01-15" {
		t.Fatalf("scan date text: %v %v", d.Time, err)
	}
	now := time.Date(2024, 2, 3, 4, 5, 6, 7, time.UTC)
	if err := d.Scan(now.Format(time.RFC3339Nano)); err != nil || !d.Equal(now) {
		t.Fatalf("scan timestamp text: %v %v", d.Time, err)
	}
	if err := d.Scan(now); err != nil || !d.Equal(now) {
		t.Fatalf("scan time.Time: %v %v", d.Time, err)
	}
	if err := d.Scan(42); err == nil {
		t.Fatal("expected error for unsupported type")
	}
}
