package memory

import (
	"context"
	"errors"
	"testing"

	ports "expenses/internal/sheets"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.AppendExpense(ctx, ports.Row{ID: 1, Date: "2024-01-10", Description: "Coffee", Amount: "5.00"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.AppendExpense(ctx, ports.Row{ID: 2, Date: "2024-01-15", Description: "Dinner", Amount: "30.00"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if has, _ := s.HasExpense(ctx, 2); !has {
		t.Error("expected row 2")
	}
	if has, _ := s.HasExpense(ctx, 3); has {
		t.Error("unexpected row 3")
	}

	deleted, err := s.DeleteExpense(ctx, 1)
	if err != nil || !deleted {
		t.Fatalf("DeleteExpense(1) = %v, %v", deleted, err)
	}
	deleted, err = s.DeleteExpense(ctx, 1)
	if err != nil || deleted {
		t.Fatalf("second DeleteExpense(1) = %v, %v", deleted, err)
	}

	rows := s.Rows()
	if len(rows) != 1 || rows[0].Description != "Dinner" {
		t.Fatalf("rows = %+v", rows)
	}
	rows[0].Description = "changed"
	if s.Rows()[0].Description != "Dinner" {
		t.Error("Rows must return a copy")
	}
}

func TestStore_Err(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("quota exceeded")
	s := New()
	s.Err = boom

	if _, err := s.HasExpense(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("HasExpense err = %v", err)
	}
	if err := s.AppendExpense(ctx, ports.Row{ID: 1}); !errors.Is(err, boom) {
		t.Errorf("AppendExpense err = %v", err)
	}
	if _, err := s.DeleteExpense(ctx, 1); !errors.Is(err, boom) {
		t.Errorf("DeleteExpense err = %v", err)
	}
}
