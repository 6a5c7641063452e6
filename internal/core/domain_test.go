package core

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{NewDate(2099, 6, 15), true}, // future dates are fine
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-01-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-01-15" {
		t.Fatalf("expected 2024-01-15, got %s", d)
	}
	if !d.Equal(NewDate(2024, 1, 15).Time) {
		t.Fatalf("parsed date mismatch: %v", d.Time)
	}
	for _, bad := range []string{"", "2024-13-01", "15/01/2024", "2024-1-5"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Fatalf("%q expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestExpenseCreateValidate(t *testing.T) {
	good := ExpenseCreate{
		Description: "Lunch at restaurant",
		Amount:      decimal.RequireFromString("25.50"),
		Date:        NewDate(2024, 1, 15),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	zero := good
	zero.Amount = decimal.Zero
	if err := zero.Validate(); err != nil {
		t.Fatalf("zero amount should be accepted, got %v", err)
	}

	bads := []struct {
		c   ExpenseCreate
		err error
	}{
		{ExpenseCreate{Description: "   ", Amount: decimal.NewFromInt(1), Date: NewDate(2024, 1, 1)}, ErrEmptyDescription},
		{ExpenseCreate{Description: strings.Repeat("a", 501), Amount: decimal.NewFromInt(1), Date: NewDate(2024, 1, 1)}, ErrDescriptionTooLong},
		{ExpenseCreate{Description: "a", Amount: decimal.NewFromInt(-1), Date: NewDate(2024, 1, 1)}, ErrNegativeAmount},
		{ExpenseCreate{Description: "a", Amount: decimal.RequireFromString("1.234"), Date: NewDate(2024, 1, 1)}, ErrAmountPrecision},
		{ExpenseCreate{Description: "a", Amount: decimal.RequireFromString("1000000000.00"), Date: NewDate(2024, 1, 1)}, ErrAmountTooLarge},
		{ExpenseCreate{Description: "a", Amount: decimal.NewFromInt(1)}, ErrInvalidDate},
	}
	for i, tc := range bads {
		if err := tc.c.Validate(); !errors.Is(err, tc.err) {
			t.Fatalf("case %d expected %v, got %v", i, tc.err, err)
		}
	}

	exact := good
	exact.Description = strings.Repeat("é", 500)
	if err := exact.Validate(); err != nil {
		t.Fatalf("500 characters should be accepted, got %v", err)
	}
}

func TestExpenseUpdateApply(t *testing.T) {
	orig := Expense{ID: 7, Description: "Coffee", Amount: decimal.RequireFromString("5.00"), Date: NewDate(2024, 1, 10)}

	desc := "Espresso"
	u := ExpenseUpdate{Description: &desc}
	if err := u.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := u.Apply(orig)
	if got.Description != "Espresso" || !got.Amount.Equal(orig.Amount) || got.ID != 7 {
		t.Fatalf("unexpected apply result: %+v", got)
	}

	neg := decimal.NewFromInt(-3)
	if err := (ExpenseUpdate{Amount: &neg}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	c := ExpenseCreate{Description: "  Gas  ", Amount: decimal.RequireFromString("45"), Date: NewDate(2024, 1, 20)}.Normalize()
	if c.Description != "Gas" {
		t.Fatalf("expected trimmed description, got %q", c.Description)
	}
	if FormatAmount(c.Amount) != "45.00" {
		t.Fatalf("expected 45.00, got %s", FormatAmount(c.Amount))
	}
}
