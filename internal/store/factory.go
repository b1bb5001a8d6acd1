package store

import (
	"fmt"
	"path/filepath"

	"github.com/mzevk/estate-api/internal/store/jsonfile"
	"github.com/mzevk/estate-api/internal/store/memory"
	"github.com/mzevk/estate-api/internal/store/sqlite"
)

// Compile-time interface checks for every backend.
var (
	_ Store = (*jsonfile.Store)(nil)
	_ Store = (*sqlite.Store)(nil)
	_ Store = (*memory.Store)(nil)
)

// Open creates a Store for the configured backend.
//
// Supported backends:
//
//	"json"   - one JSON file per collection under dataDir (default)
//	"sqlite" - SQLite database at dataDir/estate.db
//	"memory" - in-memory (ephemeral, for testing)
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case "json", "":
		return jsonfile.New(dataDir)
	case "sqlite":
		return sqlite.New(filepath.Join(dataDir, "estate.db"))
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q (supported: json, sqlite, memory)", backend)
	}
}
