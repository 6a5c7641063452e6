package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
)

// Repository is the persistence port used by the expense service.
// Each call is one unit of work: it either fully applies or returns an error.
type Repository interface {
	// Insert stores a new expense and returns it with its assigned ID.
	Insert(ctx context.Context, c core.ExpenseCreate, createdAt time.Time) (core.Expense, error)
	// ListByDateDesc returns every expense, newest date first.
	ListByDateDesc(ctx context.Context) ([]core.Expense, error)
	// Get returns the expense with the given ID; found is false when absent.
	Get(ctx context.Context, id int64) (e core.Expense, found bool, err error)
	// Delete removes the expense with the given ID; deleted is false when absent.
	Delete(ctx context.Context, id int64) (deleted bool, err error)
	Ping(ctx context.Context) error
	Close() error
}

// Dialect selects the SQL flavour used by SQLRepository.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	return string(d)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const (
	insertExpenseSQL = `INSERT INTO expenses (description, amount_cents, expense_date, created_at)
VALUES (?, ?, ?, ?) RETURNING id`
	listExpensesSQL = `SELECT id, description, amount_cents, expense_date, created_at
FROM expenses ORDER BY expense_date DESC, id DESC`
	getExpenseSQL = `SELECT id, description, amount_cents, expense_date, created_at
FROM expenses WHERE id = ?`
	deleteExpenseSQL = `DELETE FROM expenses WHERE id = ?`
)

// SQLRepository implements Repository on top of database/sql.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

var _ Repository = (*SQLRepository)(nil)

func (r *SQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (r *SQLRepository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, c core.ExpenseCreate, createdAt time.Time) (core.Expense, error) {
	createdAt = createdAt.UTC()
	e := core.Expense{
		Description: c.Description,
		Amount:      c.Amount.Round(2),
		Date:        c.Date,
		CreatedAt:   createdAt,
	}

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		return tx.QueryRowContext(ctx, r.dialect.rebind(insertExpenseSQL),
			e.Description,
			core.ToCents(e.Amount),
			e.Date.String(),
			createdAt.Format(time.RFC3339Nano),
		).Scan(&e.ID)
	})
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved",
		"id", e.ID,
		"description", e.Description,
		"amount_cents", core.ToCents(e.Amount),
		"date", e.Date.String(),
		"dialect", r.dialect)

	return e, nil
}

func (r *SQLRepository) ListByDateDesc(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, listExpensesSQL)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := make([]core.Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLRepository) Get(ctx context.Context, id int64) (core.Expense, bool, error) {
	row := r.db.QueryRowContext(ctx, r.dialect.rebind(getExpenseSQL), id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, false, nil
	}
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("get expense by id: %w", err)
	}
	return e, true, nil
}

var errNothingDeleted = errors.New("nothing deleted")

func (r *SQLRepository) Delete(ctx context.Context, id int64) (bool, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.dialect.rebind(deleteExpenseSQL), id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errNothingDeleted
		}
		return nil
	})
	if errors.Is(err, errNothingDeleted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(s rowScanner) (core.Expense, error) {
	var (
		e     core.Expense
		cents int64
		date  dbTime
		at    dbTime
	)
	if err := s.Scan(&e.ID, &e.Description, &cents, &date, &at); err != nil {
		return core.Expense{}, err
	}
	e.Amount = core.FromCents(cents)
	e.Date = core.DateOf(date.Time)
	e.CreatedAt = at.Time
	return e, nil
}

// dbTime scans DATE/TIMESTAMP columns that arrive either as time.Time
// (lib/pq) or as text (SQLite).
type dbTime struct {
	time.Time
}

func (t *dbTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return fmt.Errorf("unsupported time value %T", src)
	}
}

func (t *dbTime) parse(s string) error {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("cannot parse time %q", s)
}
