// Package memory provides an in-process sheet mirror used by tests and by the
// worker when no spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	ports "expenses/internal/sheets"
)

type Store struct {
	mu   sync.Mutex
	rows []ports.Row

	// Err, when set, is returned by every call.
	Err error
}

var _ ports.Mirror = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) HasExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	return s.indexOf(id) >= 0, nil
}

// AppendExpense stores row at the end of the sheet.
func (s *Store) AppendExpense(_ context.Context, row ports.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.rows = append(s.rows, row)
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.rows = append(s.rows[:i], s.rows[i+1:]...)
	return true, nil
}

// Rows returns a copy of the stored rows in insertion order.
func (s *Store) Rows() []ports.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Row(nil), s.rows...)
}

func (s *Store) indexOf(id int64) int {
	for i, r := range s.rows {
		if r.ID == id {
			return i
		}
	}
	return -1
}
