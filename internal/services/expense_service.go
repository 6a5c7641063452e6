package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/amqp"
	"expenses/internal/core"
	applog "expenses/internal/log"
	"expenses/internal/storage"
)

// EventPublisher announces committed expense changes to other processes.
type EventPublisher interface {
	Publish(ctx context.Context, ev amqp.ExpenseEvent) error
}

// ExpenseService exposes the expense operations over a Repository.
// Every operation is its own unit of work; there are no cross-call transactions.
type ExpenseService struct {
	storage   storage.Repository
	publisher EventPublisher
	logger    *applog.StructuredLogger
	now       func() time.Time
}

// NewExpenseService wires a service to its repository. publisher may be nil.
func NewExpenseService(repo storage.Repository, publisher EventPublisher) *ExpenseService {
	logger := applog.New(applog.Config{Handler: slog.Default().Handler(), Component: applog.ComponentExpense})
	return &ExpenseService{
		storage:   repo,
		publisher: publisher,
		logger:    applog.NewStructuredLogger(logger),
		now:       time.Now,
	}
}

// Create validates and stores a new expense, returning it with its ID and
// creation time. Identical requests create distinct rows.
func (s *ExpenseService) Create(ctx context.Context, req core.ExpenseCreate) (core.Expense, error) {
	if err := req.Validate(); err != nil {
		return core.Expense{}, fmt.Errorf("validate expense: %w", err)
	}
	req = req.Normalize()

	e, err := s.storage.Insert(ctx, req, s.now())
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}

	s.logger.LogExpenseCreated(ctx, e.ID, e.Description, core.FormatAmount(e.Amount), e.Date.String())
	s.publish(ctx, amqp.NewCreatedEvent(e))

	return e, nil
}

// ListAll returns every expense ordered by date, newest first.
func (s *ExpenseService) ListAll(ctx context.Context) ([]core.Expense, error) {
	items, err := s.storage.ListByDateDesc(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if items == nil {
		items = []core.Expense{}
	}
	return items, nil
}

// GetByID returns the expense with the given ID. found is false, with a nil
// error, when no such expense exists.
func (s *ExpenseService) GetByID(ctx context.Context, id int64) (core.Expense, bool, error) {
	e, found, err := s.storage.Get(ctx, id)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("get expense %d: %w", id, err)
	}
	return e, found, nil
}

// Delete removes the expense with the given ID. It reports false, with a
// nil error, when no such expense exists.
func (s *ExpenseService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.storage.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}

	s.logger.LogExpenseDeleted(ctx, id, deleted)
	if deleted {
		s.publish(ctx, amqp.NewDeletedEvent(id))
	}

	return deleted, nil
}

// Total sums every stored amount with exact decimal arithmetic.
// It is 0.00 when there are no expenses.
func (s *ExpenseService) Total(ctx context.Context) (decimal.Decimal, error) {
	items, err := s.storage.ListByDateDesc(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("total expenses: %w", err)
	}
	return core.Sum(items), nil
}

// Ping checks that the repository is reachable.
func (s *ExpenseService) Ping(ctx context.Context) error {
	return s.storage.Ping(ctx)
}

// publish is best effort: the change is already committed.
func (s *ExpenseService) publish(ctx context.Context, ev amqp.ExpenseEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		fields := applog.NewFields()
		fields[applog.FieldExpenseID] = ev.ID
		s.logger.LogError(ctx, "Failed to publish expense event", err, applog.ComponentAMQP, applog.OpPublish, fields)
	}
}

// Close closes the repository and the publisher when it supports closing.
func (s *ExpenseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if c, ok := s.publisher.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}

	return nil
}
