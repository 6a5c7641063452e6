package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

// Notification texts shown on the page.
const (
	msgAdded         = "Expense added successfully!"
	msgAddFailed     = "Error adding expense: "
	msgDeleted       = "Expense deleted successfully!"
	msgDeleteFailed  = "Error deleting expense"
	msgLoadFailed    = "Error loading expenses: "
	msgBadRequest    = "Invalid request"
	msgUnknownAction = "Unknown action"
)

const maxFormBytes = 64 << 10

type notice struct {
	Kind    string // "positive" or "negative"
	Message string
}

func positive(msg string) *notice { return &notice{Kind: "positive", Message: msg} }
func negative(msg string) *notice { return &notice{Kind: "negative", Message: msg} }

type expenseRow struct {
	ID          int64
	Description string
	Date        string
	Amount      string
}

type pageData struct {
	Total    string
	Form     ExpenseForm
	Expenses []expenseRow
	Notice   *notice
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.render(w, r, http.StatusOK, DefaultExpenseForm(s.today()), nil)
	case http.MethodPost:
		s.handleAction(w, r)
	default:
		w.Header().Set("Allow", "GET, HEAD, POST")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	parseErr := r.ParseForm()

	s.mu.Lock()
	defer s.mu.Unlock()

	if parseErr != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Parse form error", applog.FieldError, parseErr)
		s.render(w, r, http.StatusBadRequest, DefaultExpenseForm(s.today()), negative(msgBadRequest))
		return
	}

	switch r.PostForm.Get(fieldAction) {
	case actionAdd:
		s.handleAdd(w, r)
	case actionDelete:
		s.handleDelete(w, r)
	default:
		s.render(w, r, http.StatusBadRequest, DefaultExpenseForm(s.today()), negative(msgUnknownAction))
	}
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := ReadExpenseForm(r.PostForm)

	req, err := form.Validate()
	if err != nil {
		s.render(w, r, http.StatusUnprocessableEntity, form, negative(err.Error()))
		return
	}

	if _, err := s.expenses.Create(ctx, req); err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusUnprocessableEntity
		}
		s.log.LogError(ctx, "Failed to create expense", err, applog.ComponentHTTP, applog.OpCreate,
			applog.NewFields().WithExpense(0, req.Description, core.FormatAmount(req.Amount), req.Date.String()))
		s.render(w, r, status, form, negative(msgAddFailed+err.Error()))
		return
	}

	s.render(w, r, http.StatusOK, DefaultExpenseForm(s.today()), positive(msgAdded))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form := DefaultExpenseForm(s.today())

	id, ok := ParseExpenseID(r.PostForm)
	if !ok {
		s.render(w, r, http.StatusBadRequest, form, negative(msgDeleteFailed))
		return
	}

	deleted, err := s.expenses.Delete(ctx, id)
	if err != nil {
		fields := applog.NewFields()
		fields[applog.FieldExpenseID] = id
		s.log.LogError(ctx, "Failed to delete expense", err, applog.ComponentHTTP, applog.OpDelete, fields)
		s.render(w, r, http.StatusInternalServerError, form, negative(msgDeleteFailed+": "+err.Error()))
		return
	}
	if !deleted {
		s.render(w, r, http.StatusNotFound, form, negative(msgDeleteFailed))
		return
	}

	s.render(w, r, http.StatusOK, form, positive(msgDeleted))
}

// render re-reads the full list and total and writes the whole page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, form ExpenseForm, n *notice) {
	ctx := r.Context()
	data := pageData{
		Total:    formatDollars(decimal.Zero),
		Form:     form,
		Expenses: []expenseRow{},
		Notice:   n,
	}

	items, err := s.expenses.ListAll(ctx)
	var total decimal.Decimal
	if err == nil {
		total, err = s.expenses.Total(ctx)
	}
	if err != nil {
		s.log.LogError(ctx, "Failed to load expenses", err, applog.ComponentHTTP, applog.OpList, nil)
		if data.Notice == nil {
			data.Notice = negative(msgLoadFailed + err.Error())
		}
		if status < http.StatusInternalServerError {
			status = http.StatusInternalServerError
		}
	} else {
		data.Total = formatDollars(total)
		for _, e := range items {
			data.Expenses = append(data.Expenses, expenseRow{
				ID:          e.ID,
				Description: e.Description,
				Date:        e.Date.String(),
				Amount:      formatDollars(e.Amount),
			})
		}
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "index.html", data); err != nil {
		s.log.LogError(ctx, "Index template execution failed", err, applog.ComponentTemplate, applog.OpRender, nil)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).
		WarnContext(r.Context(), "Rate limit exceeded", applog.FieldMethod, r.Method, applog.FieldPath, r.URL.Path)
	w.Header().Set("Retry-After", "60")
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady reports whether the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{"templates": "ok", "storage": "ok"}
	status, code := "ready", http.StatusOK
	if err := s.expenses.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrEmptyDescription,
		core.ErrDescriptionTooLong,
		core.ErrInvalidAmount,
		core.ErrNegativeAmount,
		core.ErrAmountTooLarge,
		core.ErrAmountPrecision,
		core.ErrInvalidDate,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
