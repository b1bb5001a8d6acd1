// Package store defines the storage adapter contract shared by every
// backend. The rest of the application — router, services, backup — only
// ever sees this interface; which backend is behind it is a startup
// configuration choice.
package store

import (
	"context"

	"github.com/mzevk/estate-api/internal/model"
)

// Store is a uniform interface over named collections of records.
//
// Semantics every implementation must honour:
//
//   - List returns records newest-assigned-first (id descending) and never
//     fails for an empty or never-written collection.
//   - Insert allocates the next id for the collection (monotonic, never
//     reused, independent across collections), ignores any caller-supplied
//     id, and returns the new id.
//   - Update merges the given fields onto the existing record; fields not
//     present in the update keep their prior value. Returns the number of
//     records changed (0 when the id does not exist — the caller decides
//     whether that is an error).
//   - Delete removes at most one record and is idempotent: a missing id
//     yields (0, nil), never an error.
//   - DeleteAll empties the collection unconditionally without resetting
//     the id counter.
//   - FindByField returns the first record whose field equals value, or an
//     error matching apperror.ErrNotFound.
type Store interface {
	List(ctx context.Context, collection string) ([]model.Record, error)
	Insert(ctx context.Context, collection string, fields model.Record) (int64, error)
	Update(ctx context.Context, collection string, id int64, fields model.Record) (int64, error)
	Delete(ctx context.Context, collection string, id int64) (int64, error)
	DeleteAll(ctx context.Context, collection string) error
	FindByField(ctx context.Context, collection, field string, value any) (model.Record, error)
	Close() error
}
