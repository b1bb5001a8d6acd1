// Package jsonfile implements the storage adapter on flat JSON files, one
// document per collection:
//
//	data/
//	  users.json         {"nextId": 2, "items": [...]}
//	  portfolio.json
//	  ...
//
// Each file carries its own id counter, so ids are monotonic per collection
// and survive deletions. Files are created lazily on first access.
//
// Two deliberate hardening choices over a naive read-modify-write cycle:
// a per-collection mutex serialises mutations (concurrent writers would
// otherwise silently drop each other's changes), and every save goes
// through a temp file + rename so a crash mid-write can never leave a
// half-written collection behind. The backup snapshotter copies these
// files while the server runs and relies on the rename discipline.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/model"
)

// Store persists each collection as dir/<collection>.json.
type Store struct {
	dir string

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// collectionFile is the on-disk shape of one collection.
type collectionFile struct {
	NextID int64          `json:"nextId"`
	Items  []model.Record `json:"items"`
}

// New creates the data directory if needed and returns a file-backed store.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("jsonfile: creating data dir: %w", err)
	}
	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) Close() error { return nil }

// lock returns the mutex serialising access to one collection's file.
func (s *Store) lock(collection string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu, ok := s.locks[collection]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[collection] = mu
	}
	return mu
}

func (s *Store) path(collection string) string {
	return filepath.Join(s.dir, collection+".json")
}

// load reads a collection file, returning an empty collection (counter at 1)
// when the file does not exist yet.
func (s *Store) load(collection string) (*collectionFile, error) {
	data, err := os.ReadFile(s.path(collection))
	if err != nil {
		if os.IsNotExist(err) {
			return &collectionFile{NextID: 1, Items: []model.Record{}}, nil
		}
		return nil, fmt.Errorf("jsonfile: reading %s: %w", collection, err)
	}

	var f collectionFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("jsonfile: parsing %s: %w", collection, err)
	}
	if f.NextID < 1 {
		f.NextID = 1
	}
	// JSON decoding turns the id into float64; normalise back to int64 so
	// every backend hands out the same wire type.
	for _, item := range f.Items {
		if _, ok := item[model.IDField]; ok {
			item[model.IDField] = item.ID()
		}
	}
	return &f, nil
}

// save writes the collection atomically: marshal, write to a temp file in
// the same directory, then rename over the live file.
func (s *Store) save(collection string, f *collectionFile) error {
	if f.Items == nil {
		f.Items = []model.Record{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile: encoding %s: %w", collection, err)
	}

	tmp, err := os.CreateTemp(s.dir, "."+collection+"-*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile: creating temp file for %s: %w", collection, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: writing %s: %w", collection, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: closing temp file for %s: %w", collection, err)
	}
	if err := os.Rename(tmpName, s.path(collection)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("jsonfile: replacing %s: %w", collection, err)
	}
	return nil
}

// List returns all records, newest-inserted first. Inserts prepend, so the
// stored order is already the presentation order.
func (s *Store) List(ctx context.Context, collection string) ([]model.Record, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, len(f.Items))
	for i, item := range f.Items {
		out[i] = item.Clone()
	}
	return out, nil
}

// Insert allocates the next id, prepends the record and persists the file.
func (s *Store) Insert(ctx context.Context, collection string, fields model.Record) (int64, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.load(collection)
	if err != nil {
		return 0, err
	}

	rec := fields.WithoutID()
	rec[model.IDField] = f.NextID
	f.NextID++
	f.Items = append([]model.Record{rec}, f.Items...)

	if err := s.save(collection, f); err != nil {
		return 0, err
	}
	return rec.ID(), nil
}

// Update merges fields onto the record with the given id. Returns (0, nil)
// when no record matches.
func (s *Store) Update(ctx context.Context, collection string, id int64, fields model.Record) (int64, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.load(collection)
	if err != nil {
		return 0, err
	}

	for _, item := range f.Items {
		if item.ID() == id {
			item.Merge(fields)
			if err := s.save(collection, f); err != nil {
				return 0, err
			}
			return 1, nil
		}
	}
	return 0, nil
}

// Delete removes the record with the given id if present. Idempotent.
func (s *Store) Delete(ctx context.Context, collection string, id int64) (int64, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.load(collection)
	if err != nil {
		return 0, err
	}

	kept := f.Items[:0]
	var changes int64
	for _, item := range f.Items {
		if item.ID() == id {
			changes++
			continue
		}
		kept = append(kept, item)
	}
	if changes == 0 {
		return 0, nil
	}
	f.Items = kept
	if err := s.save(collection, f); err != nil {
		return 0, err
	}
	return changes, nil
}

// DeleteAll empties the collection. The id counter is left alone so
// subsequent inserts keep allocating fresh ids.
func (s *Store) DeleteAll(ctx context.Context, collection string) error {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.load(collection)
	if err != nil {
		return err
	}
	f.Items = []model.Record{}
	return s.save(collection, f)
}

// FindByField returns the first record whose field equals value.
func (s *Store) FindByField(ctx context.Context, collection, field string, value any) (model.Record, error) {
	mu := s.lock(collection)
	mu.Lock()
	defer mu.Unlock()

	f, err := s.load(collection)
	if err != nil {
		return nil, err
	}
	for _, item := range f.Items {
		if item[field] == value {
			return item.Clone(), nil
		}
	}
	return nil, apperror.NotFoundNamed(collection, fmt.Sprintf("%s=%v", field, value))
}
