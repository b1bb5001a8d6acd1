// Package handler is the HTTP layer: it parses requests, delegates to the
// service layer and writes JSON responses. One CollectionHandler serves
// every collection — the chi {collection} URL parameter selects which.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mzevk/estate-api/internal/apperror"
	"github.com/mzevk/estate-api/internal/model"
	"github.com/mzevk/estate-api/internal/service"
)

// CollectionHandler exposes the generic CRUD operations plus the two public
// submission endpoints.
type CollectionHandler struct {
	collections *service.CollectionService
	logger      *slog.Logger
}

func NewCollectionHandler(collections *service.CollectionService, logger *slog.Logger) *CollectionHandler {
	return &CollectionHandler{collections: collections, logger: logger}
}

// RequireKnownCollection is a middleware that 404s any collection name
// outside the fixed set. The users collection is deliberately outside it —
// credentials are not reachable over the generic routes.
func (h *CollectionHandler) RequireKnownCollection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "collection")
		if !model.IsCRUDCollection(name) {
			writeError(w, apperror.NotFoundNamed("collection", name))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeFields reads the request body as a flat field map.
func decodeFields(r *http.Request) (model.Record, error) {
	var fields model.Record
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, apperror.ValidationFailed("body", "request body must be a JSON object")
	}
	return fields, nil
}

// recordID parses the {id} URL parameter. A non-numeric id can't match any
// record, so it reports not-found rather than a malformed-request error.
func recordID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperror.NotFoundNamed("record", raw)
	}
	return id, nil
}

// HandleList returns all records of the collection, newest first.
//
// HTTP: GET /api/{collection}
func (h *CollectionHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := h.collections.List(r.Context(), chi.URLParam(r, "collection"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// HandleInsert creates a record from the posted field map.
//
// HTTP: POST /api/{collection}  →  {"id": N}
func (h *CollectionHandler) HandleInsert(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := h.collections.Insert(r.Context(), chi.URLParam(r, "collection"), fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// HandleUpdate merges the posted fields onto an existing record.
//
// HTTP: PUT /api/{collection}/{id}  →  {"changes": 1}, or 404
func (h *CollectionHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, err)
		return
	}
	changes, err := h.collections.Update(r.Context(), chi.URLParam(r, "collection"), id, fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

// HandleDelete removes one record. Deleting a missing id succeeds with
// zero changes.
//
// HTTP: DELETE /api/{collection}/{id}  →  {"changes": 0|1}
func (h *CollectionHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := recordID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	changes, err := h.collections.Delete(r.Context(), chi.URLParam(r, "collection"), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"changes": changes})
}

// HandleDeleteAll empties the collection.
//
// HTTP: DELETE /api/{collection}  →  {"ok": true}
func (h *CollectionHandler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	if err := h.collections.DeleteAll(r.Context(), chi.URLParam(r, "collection")); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// HandlePublicTestimonial accepts the public testimonial form.
//
// HTTP: POST /api/testimonials/public (unauthenticated)
func (h *CollectionHandler) HandlePublicTestimonial(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Author string `json:"author"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be a JSON object"))
		return
	}
	id, err := h.collections.SubmitTestimonial(r.Context(), body.Author, body.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// HandlePublicMessage accepts the public contact form.
//
// HTTP: POST /api/messages/public (unauthenticated)
func (h *CollectionHandler) HandlePublicMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Topic   string `json:"topic"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, apperror.ValidationFailed("body", "request body must be a JSON object"))
		return
	}
	id, err := h.collections.SubmitMessage(r.Context(), body.Name, body.Phone, body.Email, body.Topic, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// HandleSeedDemo installs starter content into empty collections.
//
// HTTP: POST /api/seed/demo (bearer)  →  {"ok": true}
func (h *CollectionHandler) HandleSeedDemo(w http.ResponseWriter, r *http.Request) {
	if err := h.collections.SeedDemo(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
