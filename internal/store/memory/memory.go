// Package memory implements the storage adapter in process memory. Data is
// lost on restart. It backs tests and ephemeral deployments, and id
// assignment matches the other backends exactly: a per-collection int64
// counter that never resets.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/model"
)

// Store keeps every collection in memory. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

type collection struct {
	nextID int64
	items  []model.Record // newest first
}

func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) Close() error { return nil }

// coll returns the named collection, creating it lazily. Callers must hold
// the write lock.
func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{nextID: 1}
		s.collections[name] = c
	}
	return c
}

func (s *Store) List(ctx context.Context, name string) ([]model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return []model.Record{}, nil
	}
	out := make([]model.Record, len(c.items))
	for i, item := range c.items {
		out[i] = item.Clone()
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, name string, fields model.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	rec := fields.WithoutID()
	rec[model.IDField] = c.nextID
	c.nextID++
	c.items = append([]model.Record{rec}, c.items...)
	return rec.ID(), nil
}

func (s *Store) Update(ctx context.Context, name string, id int64, fields model.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	for _, item := range c.items {
		if item.ID() == id {
			item.Merge(fields)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) Delete(ctx context.Context, name string, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	for i, item := range c.items {
		if item.ID() == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *Store) DeleteAll(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Lazily create so the counter survives a clear-then-insert cycle on a
	// collection that was never written.
	s.coll(name).items = nil
	return nil
}

func (s *Store) FindByField(ctx context.Context, name, field string, value any) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if ok {
		for _, item := range c.items {
			if item[field] == value {
				return item.Clone(), nil
			}
		}
	}
	return nil, apperror.NotFoundNamed(name, fmt.Sprintf("%s=%v", field, value))
}
