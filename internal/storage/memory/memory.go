// Package memory provides an in-process expense repository.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"expenses/internal/core"
	"expenses/internal/storage"
)

// ErrClosed is returned by every operation once the store is closed.
var ErrClosed = errors.New("memory store closed")

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Expense
	closed bool
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{items: make(map[int64]core.Expense)}
}

// Insert stores the expense and assigns the next ID. IDs are never reused.
func (s *Store) Insert(_ context.Context, c core.ExpenseCreate, createdAt time.Time) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Expense{}, ErrClosed
	}
	s.nextID++
	e := core.Expense{
		ID:          s.nextID,
		Description: c.Description,
		Amount:      c.Amount.Round(2),
		Date:        c.Date,
		CreatedAt:   createdAt.UTC(),
	}
	s.items[e.ID] = e
	return e, nil
}

func (s *Store) ListByDateDesc(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]core.Expense, 0, len(s.items))
	for _, e := range s.items {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[j].Date.Before(out[i].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Expense, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return core.Expense{}, false, ErrClosed
	}
	e, ok := s.items[id]
	return e, ok, nil
}

func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	if _, ok := s.items[id]; !ok {
		return false, nil
	}
	delete(s.items, id)
	return true, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
