package core

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxDescriptionLength is the longest description accepted, in characters.
const MaxDescriptionLength = 500

const dateLayout = "2006-01-02"

// MaxAmount is the largest amount accepted for a single expense.
var MaxAmount = decimal.RequireFromString("999999999.99")

type (
	// Date is a calendar date stored as UTC midnight.
	Date struct {
		time.Time
	}

	// Expense is a persisted expense record.
	Expense struct {
		ID          int64
		Description string
		Amount      decimal.Decimal
		Date        Date
		CreatedAt   time.Time
	}

	// ExpenseCreate is the input shape for a new expense.
	ExpenseCreate struct {
		Description string
		Amount      decimal.Decimal
		Date        Date
	}

	// ExpenseUpdate holds optional fields for a partial update.
	// Nil fields are left untouched by Apply.
	ExpenseUpdate struct {
		Description *string
		Amount      *decimal.Decimal
		Date        *Date
	}
)

var (
	ErrEmptyDescription   = errors.New("empty description")
	ErrDescriptionTooLong = errors.New("description too long (max 500 characters)")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrNegativeAmount     = errors.New("amount cannot be negative")
	ErrAmountTooLarge     = errors.New("amount too large (max 999999999.99)")
	ErrAmountPrecision    = errors.New("amount cannot have more than 2 decimal places")
	ErrInvalidDate        = errors.New("invalid date")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Before reports whether d is an earlier calendar date than other.
func (d Date) Before(other Date) bool {
	return d.Time.Before(other.Time)
}

func validateDescription(desc string) error {
	if strings.TrimSpace(desc) == "" {
		return ErrEmptyDescription
	}
	if utf8.RuneCountInString(desc) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}
	return nil
}

func validateAmount(a decimal.Decimal) error {
	if a.IsNegative() {
		return ErrNegativeAmount
	}
	if a.GreaterThan(MaxAmount) {
		return ErrAmountTooLarge
	}
	if !a.Equal(a.Round(2)) {
		return ErrAmountPrecision
	}
	return nil
}

// Validate checks the invariants every stored expense must hold.
// Zero amounts are allowed; negative ones are not.
func (c ExpenseCreate) Validate() error {
	if err := validateDescription(c.Description); err != nil {
		return err
	}
	if err := validateAmount(c.Amount); err != nil {
		return err
	}
	return c.Date.Validate()
}

func (u ExpenseUpdate) Validate() error {
	if u.Description != nil {
		if err := validateDescription(*u.Description); err != nil {
			return err
		}
	}
	if u.Amount != nil {
		if err := validateAmount(*u.Amount); err != nil {
			return err
		}
	}
	if u.Date != nil {
		return u.Date.Validate()
	}
	return nil
}

// Apply returns e with the non-nil fields of u applied.
func (u ExpenseUpdate) Apply(e Expense) Expense {
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.Amount != nil {
		e.Amount = *u.Amount
	}
	if u.Date != nil {
		e.Date = *u.Date
	}
	return e
}

// Normalize trims the description and fixes the amount scale to 2 digits.
func (c ExpenseCreate) Normalize() ExpenseCreate {
	c.Description = strings.TrimSpace(c.Description)
	c.Amount = c.Amount.Round(2)
	return c
}
