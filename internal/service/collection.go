// Package service contains the business logic layer: the policies the CRUD
// routes apply on top of the storage adapter, and the auth rules. Handlers
// parse HTTP and delegate here; this package never sees HTTP and returns
// domain errors that the handler layer maps to status codes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/backup"
	"github.com/mzevk/estate-api/internal/model"
	"github.com/mzevk/estate-api/internal/store"
)

// CollectionService drives the generic CRUD operations for every exposed
// collection, plus the two public submission endpoints. One instance serves
// all collections — the collection name is just a parameter.
type CollectionService struct {
	store   store.Store
	backups *backup.Manager // nil for non-file backends
	logger  *slog.Logger
}

func NewCollectionService(st store.Store, backups *backup.Manager, logger *slog.Logger) *CollectionService {
	return &CollectionService{
		store:   st,
		backups: backups,
		logger:  logger,
	}
}

// List returns every record of the collection, newest first.
func (s *CollectionService) List(ctx context.Context, collection string) ([]model.Record, error) {
	items, err := s.store.List(ctx, collection)
	if err != nil {
		s.logger.Error("failed to list collection",
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing %s: %w", collection, err)
	}
	return items, nil
}

// Insert persists a new record. A caller-supplied id is discarded, and a
// missing date field is stamped with the current time so every record sorts
// and displays without the client having to care.
func (s *CollectionService) Insert(ctx context.Context, collection string, fields model.Record) (int64, error) {
	rec := fields.WithoutID()
	if _, ok := rec["date"]; !ok {
		rec["date"] = time.Now().Format(time.RFC3339)
	}

	id, err := s.store.Insert(ctx, collection, rec)
	if err != nil {
		s.logger.Error("failed to insert record",
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("inserting into %s: %w", collection, err)
	}

	s.logger.Info("record created",
		slog.String("collection", collection),
		slog.Int64("id", id),
	)
	s.backups.NotifyWrite()
	return id, nil
}

// Update merges the given fields onto an existing record. Fields absent
// from the payload keep their prior values; the id field is immutable.
// A missing id is a not-found error — uniformly, for every collection.
func (s *CollectionService) Update(ctx context.Context, collection string, id int64, fields model.Record) (int64, error) {
	changes, err := s.store.Update(ctx, collection, id, fields.WithoutID())
	if err != nil {
		s.logger.Error("failed to update record",
			slog.String("collection", collection),
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("updating %s: %w", collection, err)
	}
	if changes == 0 {
		return 0, apperror.NotFound(collection, id)
	}

	s.backups.NotifyWrite()
	return changes, nil
}

// Delete removes one record. Idempotent: a missing id is a success with
// zero changes, so clients can retry freely.
func (s *CollectionService) Delete(ctx context.Context, collection string, id int64) (int64, error) {
	changes, err := s.store.Delete(ctx, collection, id)
	if err != nil {
		s.logger.Error("failed to delete record",
			slog.String("collection", collection),
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("deleting from %s: %w", collection, err)
	}
	if changes > 0 {
		s.backups.NotifyWrite()
	}
	return changes, nil
}

// DeleteAll empties the collection.
func (s *CollectionService) DeleteAll(ctx context.Context, collection string) error {
	if err := s.store.DeleteAll(ctx, collection); err != nil {
		s.logger.Error("failed to clear collection",
			slog.String("collection", collection),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("clearing %s: %w", collection, err)
	}

	s.logger.Info("collection cleared", slog.String("collection", collection))
	s.backups.NotifyWrite()
	return nil
}

// SubmitTestimonial handles the public, unauthenticated testimonial form.
// Both fields are required; the stored record carries only author, text and
// a calendar-day date — visitors don't get to attach arbitrary fields.
func (s *CollectionService) SubmitTestimonial(ctx context.Context, author, text string) (int64, error) {
	if strings.TrimSpace(author) == "" || strings.TrimSpace(text) == "" {
		return 0, apperror.ValidationFailed("author", "author and text are required")
	}

	rec := model.Record{
		"author": author,
		"text":   text,
		"date":   time.Now().Format("2006-01-02"),
	}
	id, err := s.store.Insert(ctx, "testimonials", rec)
	if err != nil {
		s.logger.Error("failed to store public testimonial", slog.String("error", err.Error()))
		return 0, fmt.Errorf("storing testimonial: %w", err)
	}

	s.logger.Info("public testimonial received", slog.Int64("id", id))
	s.backups.NotifyWrite()
	return id, nil
}

// SubmitMessage handles the public contact form. Name and message are
// required; phone, email and topic default to empty strings. The record is
// stamped with a full timestamp and starts unread.
func (s *CollectionService) SubmitMessage(ctx context.Context, name, phone, email, topic, message string) (int64, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(message) == "" {
		return 0, apperror.ValidationFailed("name", "name and message are required")
	}

	rec := model.Record{
		"name":    name,
		"phone":   phone,
		"email":   email,
		"topic":   topic,
		"message": message,
		"date":    time.Now().Format(time.RFC3339),
		"read":    false,
	}
	id, err := s.store.Insert(ctx, "messages", rec)
	if err != nil {
		s.logger.Error("failed to store public message", slog.String("error", err.Error()))
		return 0, fmt.Errorf("storing message: %w", err)
	}

	s.logger.Info("public message received", slog.Int64("id", id))
	s.backups.NotifyWrite()
	return id, nil
}
