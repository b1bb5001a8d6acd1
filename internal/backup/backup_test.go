package backup

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestManager(t *testing.T, cfg Config) (*Manager, string, string) {
	t.Helper()
	dataDir := t.TempDir()
	backupDir := t.TempDir()
	cfg.DataDir = dataDir
	cfg.BackupDir = backupDir

	m, err := New(cfg, []string{"blog", "gallery"}, discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m, dataDir, backupDir
}

func writeCollection(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func snapshotDirs(t *testing.T, backupDir string) []string {
	t.Helper()
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "backup-") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestSnapshot_CopiesCollections(t *testing.T) {
	m, dataDir, backupDir := newTestManager(t, Config{})
	writeCollection(t, dataDir, "blog", `{"nextId":2,"items":[{"id":1}]}`)

	if err := m.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	dirs := snapshotDirs(t, backupDir)
	if len(dirs) != 1 {
		t.Fatalf("got %d snapshot dirs, want 1", len(dirs))
	}
	got, err := os.ReadFile(filepath.Join(backupDir, dirs[0], "blog.json"))
	if err != nil {
		t.Fatalf("reading snapshot copy: %v", err)
	}
	if string(got) != `{"nextId":2,"items":[{"id":1}]}` {
		t.Errorf("snapshot content = %s", got)
	}
	// gallery.json never existed; the snapshot must not invent it.
	if _, err := os.Stat(filepath.Join(backupDir, dirs[0], "gallery.json")); !os.IsNotExist(err) {
		t.Error("snapshot contains a file for a never-written collection")
	}
}

func TestSnapshot_RetentionKeepsNewestFive(t *testing.T) {
	m, dataDir, backupDir := newTestManager(t, Config{Keep: 5})
	writeCollection(t, dataDir, "blog", `{}`)

	for i := 0; i < 7; i++ {
		if err := m.Snapshot(); err != nil {
			t.Fatalf("Snapshot() #%d error = %v", i, err)
		}
	}

	dirs := snapshotDirs(t, backupDir)
	if len(dirs) != 5 {
		t.Fatalf("after 7 cycles got %d snapshot dirs, want 5", len(dirs))
	}

	// Names are timestamped, so the survivors must be the lexicographic
	// top five of everything ever created — i.e. the most recent.
	for i := 1; i < len(dirs); i++ {
		if dirs[i-1] >= dirs[i] {
			t.Fatalf("snapshot names not strictly increasing: %s, %s", dirs[i-1], dirs[i])
		}
	}
}

func TestSnapshotName_SubSecondPrecision(t *testing.T) {
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	earlier := snapshotName(base)
	later := snapshotName(base.Add(111 * time.Millisecond))

	if earlier == later {
		t.Fatalf("two snapshots in the same second share the name %s", earlier)
	}
	if !(earlier < later) {
		t.Errorf("names not lexicographically ordered: %s, %s", earlier, later)
	}
	if want := "backup-2026-08-29T10-00-00-000000000"; earlier != want {
		t.Errorf("snapshotName = %s, want %s", earlier, want)
	}
	if want := "backup-2026-08-29T10-00-00-111000000"; later != want {
		t.Errorf("snapshotName = %s, want %s", later, want)
	}
}

func TestRestoreLatest(t *testing.T) {
	m, dataDir, _ := newTestManager(t, Config{})

	writeCollection(t, dataDir, "blog", `old`)
	if err := m.Snapshot(); err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	// A later write that was never snapshotted is discarded by restore —
	// last snapshot wins, no merging.
	writeCollection(t, dataDir, "blog", `newer, unsnapshotted`)

	restored, err := m.RestoreLatest()
	if err != nil {
		t.Fatalf("RestoreLatest() error = %v", err)
	}
	if !restored {
		t.Fatal("RestoreLatest() = false, want true")
	}

	got, err := os.ReadFile(filepath.Join(dataDir, "blog.json"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "old" {
		t.Errorf("restored content = %q, want the snapshot's copy", got)
	}
}

func TestRestoreLatest_NoSnapshots(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})
	restored, err := m.RestoreLatest()
	if err != nil {
		t.Fatalf("RestoreLatest() error = %v", err)
	}
	if restored {
		t.Error("RestoreLatest() = true with no snapshots")
	}
}

func TestNotifyWrite_OnWriteMode(t *testing.T) {
	m, dataDir, backupDir := newTestManager(t, Config{OnWrite: true})
	writeCollection(t, dataDir, "blog", `{}`)

	m.NotifyWrite()

	if len(snapshotDirs(t, backupDir)) != 1 {
		t.Error("NotifyWrite() in on-write mode should snapshot immediately")
	}
}

func TestNotifyWrite_Disabled(t *testing.T) {
	m, dataDir, backupDir := newTestManager(t, Config{OnWrite: false})
	writeCollection(t, dataDir, "blog", `{}`)

	m.NotifyWrite()

	if len(snapshotDirs(t, backupDir)) != 0 {
		t.Error("NotifyWrite() without on-write mode must not snapshot")
	}
}

func TestNilManagerIsNoOp(t *testing.T) {
	var m *Manager
	m.NotifyWrite()
	if err := m.Snapshot(); err != nil {
		t.Errorf("nil Snapshot() error = %v", err)
	}
	if restored, err := m.RestoreLatest(); err != nil || restored {
		t.Errorf("nil RestoreLatest() = %v, %v", restored, err)
	}
}

func TestNew_Defaults(t *testing.T) {
	m, _, _ := newTestManager(t, Config{})
	if m.cfg.Keep != 5 {
		t.Errorf("default Keep = %d, want 5", m.cfg.Keep)
	}
	if m.cfg.Interval != time.Hour {
		t.Errorf("default Interval = %v, want 1h", m.cfg.Interval)
	}
}
