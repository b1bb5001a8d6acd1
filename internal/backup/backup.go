// Package backup implements the snapshot lifecycle for the file-backed
// store: periodic point-in-time copies of every collection file, rotation
// down to the newest few, and best-effort recovery at startup.
//
// This is crash insurance, not versioning. RestoreLatest overwrites the
// live files with the newest snapshot unconditionally, so any write made
// after that snapshot and never re-snapshotted is gone. Snapshot I/O
// failures are logged and never abort the serving process.
package backup

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const dirPrefix = "backup-"

const timeLayout = "2006-01-02T15-04-05"

// snapshotName builds the directory name for a snapshot taken at t.
// Nanosecond precision keeps rapid successive snapshots (on-write mode)
// from colliding. The fraction is appended by hand because Format only
// emits fractional seconds after a "." separator; zero-padding to nine
// digits keeps the names lexicographically sortable.
func snapshotName(t time.Time) string {
	return fmt.Sprintf("%s%s-%09d", dirPrefix, t.Format(timeLayout), t.Nanosecond())
}

// Config controls the snapshot lifecycle.
type Config struct {
	DataDir   string        // live collection files
	BackupDir string        // snapshot directories
	Keep      int           // snapshots retained (newest N)
	Interval  time.Duration // periodic snapshot cadence
	OnWrite   bool          // also snapshot after every mutation
}

// Manager owns the snapshot directory. A nil *Manager is a valid no-op —
// the non-file backends simply never construct one.
type Manager struct {
	cfg         Config
	collections []string
	logger      *slog.Logger

	mu sync.Mutex // serialises snapshot/restore/prune
}

// New creates the backup directory and returns a Manager covering the
// given collection names.
func New(cfg Config, collections []string, logger *slog.Logger) (*Manager, error) {
	if cfg.Keep <= 0 {
		cfg.Keep = 5
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if err := os.MkdirAll(cfg.BackupDir, 0o755); err != nil {
		return nil, fmt.Errorf("backup: creating backup dir: %w", err)
	}
	return &Manager{cfg: cfg, collections: collections, logger: logger}, nil
}

// Snapshot copies every collection file into a fresh timestamped directory
// and prunes everything beyond the retention count.
func (m *Manager) Snapshot() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	name := snapshotName(time.Now().UTC())
	dest := filepath.Join(m.cfg.BackupDir, name)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("backup: creating snapshot dir: %w", err)
	}

	for _, collection := range m.collections {
		src := filepath.Join(m.cfg.DataDir, collection+".json")
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue // collection never written yet
		}
		if err := copyFile(src, filepath.Join(dest, collection+".json")); err != nil {
			return fmt.Errorf("backup: copying %s: %w", collection, err)
		}
	}

	if err := m.prune(); err != nil {
		return err
	}

	m.logger.Info("snapshot created", slog.String("dir", name))
	return nil
}

// prune deletes all but the Keep most recent snapshot directories. Names
// embed the timestamp, so lexicographic descending order is newest-first.
// Callers hold m.mu.
func (m *Manager) prune() error {
	names, err := m.snapshotNames()
	if err != nil {
		return err
	}
	for _, name := range names[min(m.cfg.Keep, len(names)):] {
		if err := os.RemoveAll(filepath.Join(m.cfg.BackupDir, name)); err != nil {
			return fmt.Errorf("backup: removing old snapshot %s: %w", name, err)
		}
	}
	return nil
}

// RestoreLatest overwrites each live collection file with the newest
// snapshot's copy. Returns false when no snapshot exists. Run once at
// startup, before the store serves anything.
func (m *Manager) RestoreLatest() (bool, error) {
	if m == nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	names, err := m.snapshotNames()
	if err != nil {
		return false, err
	}
	if len(names) == 0 {
		return false, nil
	}

	latest := filepath.Join(m.cfg.BackupDir, names[0])
	for _, collection := range m.collections {
		src := filepath.Join(latest, collection+".json")
		if _, err := os.Stat(src); os.IsNotExist(err) {
			continue
		}
		if err := copyFile(src, filepath.Join(m.cfg.DataDir, collection+".json")); err != nil {
			return false, fmt.Errorf("backup: restoring %s: %w", collection, err)
		}
	}

	m.logger.Info("data restored from snapshot", slog.String("dir", names[0]))
	return true, nil
}

// snapshotNames lists snapshot directories newest-first.
func (m *Manager) snapshotNames() ([]string, error) {
	entries, err := os.ReadDir(m.cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("backup: reading backup dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), dirPrefix) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Run snapshots on the configured interval until ctx is cancelled.
// Failures are logged; the ticker keeps going.
func (m *Manager) Run(ctx context.Context) {
	if m == nil {
		return
	}
	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Snapshot(); err != nil {
				m.logger.Error("periodic snapshot failed", slog.String("error", err.Error()))
			}
		}
	}
}

// NotifyWrite is called by the collection service after every successful
// mutation. In on-write mode each mutation pays for a full snapshot — the
// deliberate durability-over-throughput trade of the file backend.
func (m *Manager) NotifyWrite() {
	if m == nil || !m.cfg.OnWrite {
		return
	}
	if err := m.Snapshot(); err != nil {
		m.logger.Error("write-triggered snapshot failed", slog.String("error", err.Error()))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
