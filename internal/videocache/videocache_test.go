package videocache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"subpulse/internal/config"
	"subpulse/internal/logging"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newTestManager(t *testing.T, maxBytes int64) *Manager {
	t.Helper()
	return &Manager{
		root:     t.TempDir(),
		maxBytes: maxBytes,
		logger:   logging.NewComponentLogger(logging.NewNop(), "videocache"),
	}
}

func TestNewManagerDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.VideoCache.Enabled = false
	if m := NewManager(&cfg, nil); m != nil {
		t.Fatal("disabled cache must yield nil manager")
	}

	cfg.VideoCache.Enabled = true
	cfg.VideoCache.Dir = ""
	if m := NewManager(&cfg, nil); m != nil {
		t.Fatal("unconfigured dir must yield nil manager")
	}
}

func TestNilManagerIsNoOp(t *testing.T) {
	var m *Manager
	if err := m.Save("show", 1, "/nope.mkv"); err != nil {
		t.Fatalf("nil Save: %v", err)
	}
	if err := m.Delete("show", 1); err != nil {
		t.Fatalf("nil Delete: %v", err)
	}
	if _, ok := m.Path("show", 1); ok {
		t.Fatal("nil Path must report missing")
	}
	if _, ok := m.Load("show", 1); ok {
		t.Fatal("nil Load must report missing")
	}
}

func TestLoadReadsCachedBlob(t *testing.T) {
	m := newTestManager(t, 1<<30)
	source := filepath.Join(t.TempDir(), "episode.mkv")
	writeFile(t, source, 64)

	if err := m.Save("show", 2, source); err != nil {
		t.Fatalf("Save: %v", err)
	}
	reader, ok := m.Load("show", 2)
	if !ok {
		t.Fatal("cached blob missing")
	}
	defer reader.Close()
	data, err := io.ReadAll(reader)
	if err != nil || len(data) != 64 {
		t.Fatalf("blob content mismatch: len=%d err=%v", len(data), err)
	}

	if _, ok := m.Load("show", 9); ok {
		t.Fatal("missing episode must not load")
	}
}

func TestSavePathDeleteRoundTrip(t *testing.T) {
	m := newTestManager(t, 1<<30)
	source := filepath.Join(t.TempDir(), "episode.mkv")
	writeFile(t, source, 128)

	if err := m.Save("show", 3, source); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path, ok := m.Path("show", 3)
	if !ok {
		t.Fatal("cached blob missing")
	}
	if filepath.Base(path) != "ep003.mkv" {
		t.Fatalf("unexpected blob name: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || len(data) != 128 {
		t.Fatalf("blob content mismatch: len=%d err=%v", len(data), err)
	}

	if err := m.Delete("show", 3); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := m.Path("show", 3); ok {
		t.Fatal("blob survived delete")
	}
	if err := m.Delete("show", 3); err != nil {
		t.Fatalf("deleting a missing blob must not fail: %v", err)
	}
}

func TestSaveReplacesPreviousExtension(t *testing.T) {
	m := newTestManager(t, 1<<30)
	mkv := filepath.Join(t.TempDir(), "episode.mkv")
	mp4 := filepath.Join(t.TempDir(), "episode.mp4")
	writeFile(t, mkv, 64)
	writeFile(t, mp4, 32)

	if err := m.Save("show", 1, mkv); err != nil {
		t.Fatalf("Save mkv: %v", err)
	}
	if err := m.Save("show", 1, mp4); err != nil {
		t.Fatalf("Save mp4: %v", err)
	}

	matches, err := filepath.Glob(filepath.Join(m.root, "show", "ep001.*"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(matches) != 1 || filepath.Ext(matches[0]) != ".mp4" {
		t.Fatalf("old blob not replaced: %v", matches)
	}
}

func TestSaveValidatesKey(t *testing.T) {
	m := newTestManager(t, 1<<30)
	if err := m.Save("", 1, "/nope.mkv"); err == nil {
		t.Fatal("expected error for empty series")
	}
	if err := m.Save("show", 0, "/nope.mkv"); err == nil {
		t.Fatal("expected error for episode 0")
	}
}

func TestPruneRemovesOldestFirst(t *testing.T) {
	m := newTestManager(t, 250)

	old := filepath.Join(m.root, "show", "ep001.mkv")
	mid := filepath.Join(m.root, "show", "ep002.mkv")
	writeFile(t, old, 100)
	writeFile(t, mid, 100)
	past := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	lessPast := time.Now().Add(-1 * time.Hour)
	if err := os.Chtimes(mid, lessPast, lessPast); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	source := filepath.Join(t.TempDir(), "episode.mkv")
	writeFile(t, source, 100)
	if err := m.Save("show", 3, source); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Fatal("oldest blob should have been pruned")
	}
	if _, err := os.Stat(mid); err != nil {
		t.Fatalf("newer blob should survive: %v", err)
	}
	if _, ok := m.Path("show", 3); !ok {
		t.Fatal("freshly saved blob must survive pruning")
	}
}

func TestPruneNeverEvictsFreshBlob(t *testing.T) {
	m := newTestManager(t, 10)

	source := filepath.Join(t.TempDir(), "episode.mkv")
	writeFile(t, source, 100)
	if err := m.Save("show", 1, source); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, ok := m.Path("show", 1); !ok {
		t.Fatal("over-cap blob must still be kept when it is the active entry")
	}
}
