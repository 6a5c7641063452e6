package sheets

import (
	"context"
)

// Row is one mirrored expense: [id, date, description, amount].
type Row struct {
	ID          int64
	Date        string
	Description string
	Amount      string
}

// Mirror keeps an external copy of the expense list keyed by
// expense id.
type Mirror interface {
	// HasExpense reports whether a row for id already exists.
	HasExpense(ctx context.Context, id int64) (bool, error)
	AppendExpense(ctx context.Context, row Row) error
	// DeleteExpense removes the row for id; found is false when absent.
	DeleteExpense(ctx context.Context, id int64) (found bool, err error)
}
