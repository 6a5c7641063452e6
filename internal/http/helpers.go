package http

import (
	"strings"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// formatDollars renders an amount as "$12.34".
func formatDollars(d decimal.Decimal) string {
	return "$" + core.FormatAmount(d)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
