package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/sheets"
)

// ExpenseLister is the read side the worker reconciles against.
type ExpenseLister interface {
	ListAll(ctx context.Context) ([]core.Expense, error)
}

// SyncWorker mirrors expense change events to a sheet.
type SyncWorker struct {
	mirror sheets.Mirror
	logger *slog.Logger
}

func NewSyncWorker(mirror sheets.Mirror, logger *slog.Logger) *SyncWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncWorker{mirror: mirror, logger: logger}
}

// HandleEvent applies one event to the mirror. Redelivered events are
// harmless: creates skip rows that already exist and deletes of missing rows
// succeed.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev amqp.ExpenseEvent) error {
	w.logger.InfoContext(ctx, "Processing expense event",
		"type", ev.Type,
		"id", ev.ID,
		"timestamp", ev.Timestamp)

	switch ev.Type {
	case amqp.EventExpenseCreated:
		_, err := w.appendIfMissing(ctx, sheets.Row{
			ID:          ev.ID,
			Date:        ev.Date,
			Description: ev.Description,
			Amount:      ev.Amount,
		})
		return err
	case amqp.EventExpenseDeleted:
		found, err := w.mirror.DeleteExpense(ctx, ev.ID)
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to delete expense from sheet", "id", ev.ID, "error", err)
			return fmt.Errorf("delete expense %d: %w", ev.ID, err)
		}
		if !found {
			w.logger.WarnContext(ctx, "Expense not present in sheet, nothing to delete", "id", ev.ID)
			return nil
		}
		w.logger.InfoContext(ctx, "Deleted expense from sheet", "id", ev.ID)
		return nil
	default:
		return fmt.Errorf("unsupported event type %q", ev.Type)
	}
}

// Reconcile appends every stored expense the sheet is missing. It recovers
// events lost while the worker was down; rows for expenses deleted in that
// window are left in place.
func (w *SyncWorker) Reconcile(ctx context.Context, src ExpenseLister) error {
	items, err := src.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}

	synced, failed := 0, 0
	// oldest date first; ListAll returns newest date first
	for i := len(items) - 1; i >= 0; i-- {
		e := items[i]
		added, err := w.appendIfMissing(ctx, rowOf(e))
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to reconcile expense", "id", e.ID, "error", err)
			failed++
			continue
		}
		if added {
			synced++
		}
	}

	w.logger.InfoContext(ctx, "Startup reconcile completed",
		"total", len(items),
		"synced", synced,
		"errors", failed)

	if failed > 0 {
		return fmt.Errorf("reconcile: %d of %d expenses failed", failed, len(items))
	}
	return nil
}

func (w *SyncWorker) appendIfMissing(ctx context.Context, row sheets.Row) (bool, error) {
	exists, err := w.mirror.HasExpense(ctx, row.ID)
	if err != nil {
		return false, fmt.Errorf("check expense %d: %w", row.ID, err)
	}
	if exists {
		w.logger.DebugContext(ctx, "Expense already in sheet, skipping", "id", row.ID)
		return false, nil
	}
	if err := w.mirror.AppendExpense(ctx, row); err != nil {
		return false, fmt.Errorf("append expense %d: %w", row.ID, err)
	}
	w.logger.InfoContext(ctx, "Appended expense to sheet",
		"id", row.ID,
		"date", row.Date,
		"amount", row.Amount)
	return true, nil
}

func rowOf(e core.Expense) sheets.Row {
	return sheets.Row{
		ID:          e.ID,
		Date:        e.Date.String(),
		Description: e.Description,
		Amount:      core.FormatAmount(e.Amount),
	}
}
