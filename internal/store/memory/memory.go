package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wydatki/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  []core.Expense
}

func New() *Store {
	return &Store{nextID: 1}
}

// Create stores the expense under the next sequential id.
func (s *Store) Create(_ context.Context, d core.Draft) (int64, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	e := d.WithID(id)
	e.CreatedAt = e.CreatedAt.Truncate(time.Second)
	s.items = append(s.items, e)
	return id, nil
}

func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) QueryDetailed(_ context.Context, start, end time.Time) ([]core.UserCategoryTotal, error) {
	return core.SumByUserCategory(s.between(start, end)), nil
}

func (s *Store) QueryTotals(_ context.Context, start, end time.Time) ([]core.CategoryTotal, error) {
	return core.SumByCategory(s.between(start, end)), nil
}

func (s *Store) QueryRecent(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	out := append([]core.Expense(nil), s.items...)
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Len returns the number of stored expenses.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) Close() error { return nil }

func (s *Store) between(start, end time.Time) []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.items {
		if e.CreatedAt.Before(start) || e.CreatedAt.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}
