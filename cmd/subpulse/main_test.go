package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"subpulse/internal/config"
	"subpulse/internal/library"
	"subpulse/internal/testsupport"
	"subpulse/internal/timeline"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.VideoCache.Enabled = false
	cfg.VideoCache.Dir = filepath.Join(base, "cache")

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writePair(t *testing.T, dir, base string) (string, string) {
	t.Helper()
	video := filepath.Join(dir, base+".mkv")
	sub := filepath.Join(dir, base+".srt")
	if err := os.WriteFile(video, []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}
	testsupport.WriteSRT(t, sub, "こんにちは", "元気ですか")
	return video, sub
}

func TestAddAndQueueLifecycle(t *testing.T) {
	configPath := writeTestConfig(t)
	dir := t.TempDir()
	video, sub := writePair(t, dir, "my_show_ep01")

	out, err := runCLI(t, configPath, "add", video, sub)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Queued item #1") {
		t.Fatalf("unexpected add output: %q", out)
	}

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "my show ep01") || !strings.Contains(out, "pending") {
		t.Fatalf("unexpected list output: %q", out)
	}

	out, err = runCLI(t, configPath, "queue", "status")
	if err != nil {
		t.Fatalf("queue status: %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Fatalf("unexpected status output: %q", out)
	}

	if _, err := runCLI(t, configPath, "queue", "retry", "1"); err == nil {
		t.Fatal("retry must reject items that have not failed")
	}

	out, err = runCLI(t, configPath, "queue", "remove", "1")
	if err != nil {
		t.Fatalf("queue remove: %v", err)
	}
	if !strings.Contains(out, "Removed item #1") {
		t.Fatalf("unexpected remove output: %q", out)
	}

	out, err = runCLI(t, configPath, "queue", "list")
	if err != nil {
		t.Fatalf("queue list: %v", err)
	}
	if !strings.Contains(out, "Queue is empty") {
		t.Fatalf("expected empty queue, got %q", out)
	}
}

func TestAddDirectoryPairsByBasename(t *testing.T) {
	configPath := writeTestConfig(t)
	dir := t.TempDir()
	writePair(t, dir, "show_ep01")
	writePair(t, dir, "show_ep02")
	if err := os.WriteFile(filepath.Join(dir, "lonely.mkv"), []byte("video"), 0o644); err != nil {
		t.Fatalf("write video: %v", err)
	}

	out, err := runCLI(t, configPath, "add", "--dir", dir, "--series", "show")
	if err != nil {
		t.Fatalf("add --dir: %v", err)
	}
	if !strings.Contains(out, "Queued 2 items") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, "Skipping lonely.mkv") {
		t.Fatalf("unpaired video should be reported: %q", out)
	}
}

func TestAddRejectsUnknownExtensions(t *testing.T) {
	configPath := writeTestConfig(t)
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.wav")
	if err := os.WriteFile(video, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	sub := filepath.Join(dir, "clip.srt")
	testsupport.WriteSRT(t, sub, "hello")

	if _, err := runCLI(t, configPath, "add", video, sub); err == nil {
		t.Fatal("expected unsupported extension error")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	configPath := writeTestConfig(t)

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := library.Open(cfg, nil)
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	title := testsupport.RandomShowTitle(1)
	record := library.Record{
		SeriesID: "my-show",
		Episode:  1,
		Analysis: timeline.VideoAnalysis{
			VideoID: "my-show-e01",
			Title:   title,
			Nodes: []timeline.DialogueNode{{
				ID:    "n1",
				Start: 1,
				End:   2,
				SourceTokens: []timeline.Token{
					{Text: "こんにちは", Kind: timeline.TokenContent, GroupID: 1},
				},
			}},
		},
	}
	if err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close library: %v", err)
	}

	archive := filepath.Join(t.TempDir(), "my-show.json")
	out, err := runCLI(t, configPath, "export", "my-show", "--output", archive, "--title", title)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported my-show") {
		t.Fatalf("unexpected export output: %q", out)
	}

	// Import into a fresh store.
	otherConfig := writeTestConfig(t)
	out, err = runCLI(t, otherConfig, "import", archive)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 episodes") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, err = runCLI(t, otherConfig, "show", "my-show", "1")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, title) || !strings.Contains(out, "こんにちは") {
		t.Fatalf("unexpected show output: %q", out)
	}
}

func TestShowSeriesSummary(t *testing.T) {
	configPath := writeTestConfig(t)

	out, err := runCLI(t, configPath, "show", "missing-show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out, "No episodes stored") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestQueueListRejectsUnknownStatus(t *testing.T) {
	configPath := writeTestConfig(t)

	_, err := runCLI(t, configPath, "queue", "list", "--status", "bogus")
	if err == nil {
		t.Fatal("expected error for unknown status")
	}
	if !strings.Contains(err.Error(), "valid: pending, processing, completed, failed") {
		t.Fatalf("error must list known statuses, got: %v", err)
	}
}

func TestTableViewPadsShortRows(t *testing.T) {
	view := newTableView(numCol("ID"), textCol("Title"), textCol("Status"))
	view.addRow("1", "my show ep01", "pending")
	view.addRow("2")

	rendered := view.render()
	for _, want := range []string{"ID", "Title", "Status", "my show ep01", "pending"} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("rendered table missing %q:\n%s", want, rendered)
		}
	}

	if newTableView().render() != "" {
		t.Fatal("view without columns must render nothing")
	}
}

func TestApplyAPIKeyEnv(t *testing.T) {
	t.Run("analysis key overrides config", func(t *testing.T) {
		t.Setenv("ANALYSIS_API_KEY", "env-key")
		t.Setenv("OPENAI_API_KEY", "openai-key")
		cfg := config.Default()
		cfg.Analysis.APIKey = "file-key"
		applyAPIKeyEnv(&cfg)
		if cfg.Analysis.APIKey != "env-key" {
			t.Fatalf("APIKey = %q, want env-key", cfg.Analysis.APIKey)
		}
	})

	t.Run("openai key fills empty config", func(t *testing.T) {
		t.Setenv("ANALYSIS_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "openai-key")
		cfg := config.Default()
		cfg.Analysis.APIKey = ""
		applyAPIKeyEnv(&cfg)
		if cfg.Analysis.APIKey != "openai-key" {
			t.Fatalf("APIKey = %q, want openai-key", cfg.Analysis.APIKey)
		}
	})

	t.Run("openai key never overrides config", func(t *testing.T) {
		t.Setenv("ANALYSIS_API_KEY", "")
		t.Setenv("OPENAI_API_KEY", "openai-key")
		cfg := config.Default()
		cfg.Analysis.APIKey = "file-key"
		applyAPIKeyEnv(&cfg)
		if cfg.Analysis.APIKey != "file-key" {
			t.Fatalf("APIKey = %q, want file-key", cfg.Analysis.APIKey)
		}
	})
}

func TestConfigInit(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, "Wrote sample configuration") {
		t.Fatalf("unexpected output: %q", out)
	}

	if _, err := runCLI(t, "", "config", "init", "--path", target); err == nil {
		t.Fatal("second init without --overwrite must fail")
	}

	if _, err := runCLI(t, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}
