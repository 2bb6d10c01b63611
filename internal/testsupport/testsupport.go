// Package testsupport holds shared helpers for package tests: throwaway
// configs rooted in temp directories, pre-opened stores, and fixture
// subtitle files.
package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/brianvoe/gofakeit/v6"

	"subpulse/internal/config"
	"subpulse/internal/library"
	"subpulse/internal/queue"
)

// NewConfig returns a validated config whose paths all live under the test's
// temp directory.
func NewConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.VideoCache.Dir = filepath.Join(base, "cache")
	cfg.Study.Language = "ja"
	cfg.Study.ReferenceLanguage = "en"
	cfg.Analysis.APIKey = "test-key"
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// MustOpenQueue opens a queue store under the test's temp directory and
// closes it on cleanup.
func MustOpenQueue(t *testing.T) *queue.Store {
	t.Helper()
	store, err := queue.OpenPath(filepath.Join(t.TempDir(), "queue.db"))
	if err != nil {
		t.Fatalf("open queue store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// MustOpenLibrary opens an episode store under the test's temp directory and
// closes it on cleanup.
func MustOpenLibrary(t *testing.T, opts ...library.Option) *library.Store {
	t.Helper()
	store, err := library.OpenPath(filepath.Join(t.TempDir(), "library.db"), nil, opts...)
	if err != nil {
		t.Fatalf("open library store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// WriteSRT writes an SRT file with the given cue texts, one cue per entry
// starting at one-second intervals.
func WriteSRT(t *testing.T, path string, lines ...string) {
	t.Helper()
	var body string
	for i, line := range lines {
		start := i*3 + 1
		body += fmt.Sprintf("%d\n00:00:%02d,000 --> 00:00:%02d,000\n%s\n\n", i+1, start, start+2, line)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}
}

// RandomShowTitle produces a deterministic fake series title for fixtures.
func RandomShowTitle(seed int64) string {
	faker := gofakeit.New(seed)
	return faker.BookTitle()
}
