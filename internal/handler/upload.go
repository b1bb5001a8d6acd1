package handler

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mzevk/estate-api/internal/apperror"
)

// maxUploadBytes caps a single upload. Listing photos are the largest
// legitimate payload; 20 MB leaves generous headroom.
const maxUploadBytes = 20 << 20

// UploadHandler stores multipart file uploads on disk. Files are served
// back statically under /uploads/.
type UploadHandler struct {
	dir    string
	logger *slog.Logger
}

// NewUploadHandler creates the uploads directory if needed.
func NewUploadHandler(dir string, logger *slog.Logger) (*UploadHandler, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating uploads dir: %w", err)
	}
	return &UploadHandler{dir: dir, logger: logger}, nil
}

// HandleUpload accepts a single multipart file field named "file".
//
// HTTP: POST /api/upload (bearer)
// Response: {"url": "/uploads/<name>", "filename": "<name>", "path": "<disk path>"}
//
// The stored name is <millis>-<random><original extension> — never the
// client's filename, which is untrusted input.
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperror.ValidationFailed("file", "no file uploaded"))
		return
	}
	defer file.Close()

	// Keep the extension only; the base name is discarded entirely, so
	// traversal attempts in the client filename go nowhere.
	ext := filepath.Ext(filepath.Base(header.Filename))
	name := fmt.Sprintf("%d-%d%s", time.Now().UnixMilli(), rand.Intn(1_000_000_000), ext)
	dest := filepath.Join(h.dir, name)

	out, err := os.Create(dest)
	if err != nil {
		h.logger.Error("failed to create upload file", slog.String("error", err.Error()))
		writeError(w, apperror.Storage(err))
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(dest)
		h.logger.Error("failed to write upload", slog.String("error", err.Error()))
		writeError(w, apperror.Storage(err))
		return
	}

	h.logger.Info("file uploaded",
		slog.String("filename", name),
		slog.Int64("size", header.Size),
	)
	writeJSON(w, http.StatusOK, map[string]string{
		"url":      "/uploads/" + name,
		"filename": name,
		"path":     dest,
	})
}
