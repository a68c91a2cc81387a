package memory

import (
	"context"
	"fmt"
	"sync"

	"registros/internal/core"
)

// Store keeps records in a slice for insertion order plus an index by id.
type Store struct {
	mu    sync.Mutex
	items []core.Record
	index map[string]int
}

func New(seed ...core.Record) *Store {
	s := &Store{index: map[string]int{}}
	for _, r := range seed {
		_ = s.insert(r)
	}
	return s
}

// Insert appends the record.
func (s *Store) Insert(_ context.Context, r core.Record) error {
	if err := r.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(r)
}

func (s *Store) insert(r core.Record) error {
	if _, ok := s.index[r.ID]; ok {
		return fmt.Errorf("duplicate record id %q", r.ID)
	}
	s.index[r.ID] = len(s.items)
	s.items = append(s.items, r)
	return nil
}

func (s *Store) Replace(_ context.Context, r core.Record) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[r.ID]
	if !ok {
		return false, nil
	}
	s.items[i] = r
	return true, nil
}

func (s *Store) Remove(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return false, nil
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	return true, nil
}

func (s *Store) SetStatus(_ context.Context, ids []string, status core.Status) (int, error) {
	if err := status.Validate(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok {
			continue
		}
		s.items[i].Status = status
		n++
	}
	return n, nil
}

func (s *Store) Get(_ context.Context, id string) (core.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return core.Record{}, false, nil
	}
	return s.items[i], true, nil
}

// All returns a copy of the collection in insertion order.
func (s *Store) All(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record(nil), s.items...), nil
}

func (s *Store) Summarize(ctx context.Context) ([]core.StatusTotal, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	return core.SummarizeRecords(all), nil
}
