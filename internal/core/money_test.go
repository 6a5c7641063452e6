package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true},
		{"12.344", "12.34", true},
		{" 2.50 ", "2.50", true},
		{"0", "0.00", true},
		{"-1", "-1.00", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"1e3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || FormatAmount(got) != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, FormatAmount(got), err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestCentsRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 1050, 123456789} {
		d := FromCents(cents)
		if got := ToCents(d); got != cents {
			t.Fatalf("round trip %d -> %s -> %d", cents, d, got)
		}
	}
	if got := FormatAmount(FromCents(550)); got != "5.50" {
		t.Fatalf("expected 5.50, got %s", got)
	}
}

func TestSumIsExact(t *testing.T) {
	items := []Expense{
		{Amount: decimal.RequireFromString("10.50")},
		{Amount: decimal.RequireFromString("25.75")},
		{Amount: decimal.RequireFromString("15.25")},
	}
	if got := FormatAmount(Sum(items)); got != "51.50" {
		t.Fatalf("expected 51.50, got %s", got)
	}

	// 0.1 summed ten times drifts in float64; decimal must not.
	var tenths []Expense
	for i := 0; i < 10; i++ {
		tenths = append(tenths, Expense{Amount: decimal.RequireFromString("0.10")})
	}
	if !Sum(tenths).Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected exactly 1, got %s", Sum(tenths))
	}

	if got := FormatAmount(Sum(nil)); got != "0.00" {
		t.Fatalf("empty sum expected 0.00, got %s", got)
	}
}
