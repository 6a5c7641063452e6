// Package http provides HTTP server and handler implementations.
//
// This file turns the page's form submissions into validated values.
package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
)

// Form field and action names used by the page.
const (
	fieldAction      = "action"
	fieldDescription = "description"
	fieldAmount      = "amount"
	fieldDate        = "date"
	fieldID          = "id"

	actionAdd    = "add"
	actionDelete = "delete"
)

// Messages shown for rejected input.
const (
	msgEnterDescription = "Please enter a description"
	msgEnterAmount      = "Please enter a valid amount"
	msgEnterDate        = "Please enter a valid date"
)

// formInput is an error shown to the user before any service call.
type formInput struct {
	message string
}

func (e *formInput) Error() string { return e.message }

// isFormError reports whether err came from form validation.
func isFormError(err error) bool {
	var fe *formInput
	return errors.As(err, &fe)
}

// ExpenseForm holds the raw add-expense inputs so they can be re-rendered.
type ExpenseForm struct {
	Description string
	Amount      string
	Date        string
}

// DefaultExpenseForm returns the inputs of a fresh form.
func DefaultExpenseForm(today core.Date) ExpenseForm {
	return ExpenseForm{Amount: "0.00", Date: today.String()}
}

// ReadExpenseForm copies the add-expense fields out of form.
func ReadExpenseForm(form url.Values) ExpenseForm {
	return ExpenseForm{
		Description: sanitizeInput(form.Get(fieldDescription)),
		Amount:      strings.TrimSpace(form.Get(fieldAmount)),
		Date:        strings.TrimSpace(form.Get(fieldDate)),
	}
}

// Validate applies the page's checks: description non-empty after trimming,
// amount strictly positive and at most core.MaxAmount, date in YYYY-MM-DD form.
func (f ExpenseForm) Validate() (core.ExpenseCreate, error) {
	desc := strings.TrimSpace(f.Description)
	if desc == "" {
		return core.ExpenseCreate{}, &formInput{msgEnterDescription}
	}

	amount, err := core.ParseAmount(f.Amount)
	if err != nil || !amount.GreaterThan(decimal.Zero) || amount.GreaterThan(core.MaxAmount) {
		return core.ExpenseCreate{}, &formInput{msgEnterAmount}
	}

	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.ExpenseCreate{}, &formInput{msgEnterDate}
	}

	return core.ExpenseCreate{Description: desc, Amount: amount, Date: date}, nil
}

// ParseExpenseID reads a positive expense id from the form.
func ParseExpenseID(form url.Values) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(form.Get(fieldID)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
