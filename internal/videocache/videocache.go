// Package videocache keeps a size-capped copy of ingested video files keyed
// by series and episode, so study sessions can replay an episode without the
// original file sticking around.
package videocache

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"subpulse/internal/config"
	"subpulse/internal/logging"
)

// Manager stores and prunes cached video blobs. A nil manager is valid and
// turns every operation into a no-op, which is how a disabled cache degrades.
type Manager struct {
	root     string
	maxBytes int64
	logger   *slog.Logger
}

// NewManager builds a cache manager when enabled; returns nil when caching is
// disabled or misconfigured.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if cfg == nil || !cfg.VideoCache.Enabled {
		return nil
	}
	root := strings.TrimSpace(cfg.VideoCache.Dir)
	if root == "" || cfg.VideoCache.MaxGiB <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		root:     root,
		maxBytes: int64(cfg.VideoCache.MaxGiB) * 1024 * 1024 * 1024,
		logger:   logging.NewComponentLogger(logger, "videocache"),
	}
}

// Save copies a video file into the cache, replacing any previous blob for
// the same episode, then prunes oldest entries beyond the size cap.
func (m *Manager) Save(seriesID string, episode int, videoPath string) error {
	if m == nil {
		return nil
	}
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" || episode <= 0 {
		return errors.New("videocache: series id and positive episode required")
	}

	src, err := os.Open(videoPath)
	if err != nil {
		return fmt.Errorf("videocache: open source: %w", err)
	}
	defer src.Close()

	dest := m.blobPath(seriesID, episode, filepath.Ext(videoPath))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("videocache: ensure series dir: %w", err)
	}
	if err := m.removeEpisodeBlobs(seriesID, episode); err != nil {
		return err
	}

	tmp := dest + ".partial"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("videocache: create blob: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("videocache: copy blob: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("videocache: close blob: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("videocache: finalize blob: %w", err)
	}
	now := time.Now()
	_ = os.Chtimes(dest, now, now)

	if err := m.prune(dest); err != nil {
		return err
	}
	m.logger.Info("cached episode video",
		logging.String(logging.FieldSeries, seriesID),
		logging.Int(logging.FieldEpisode, episode),
		logging.String("blob", dest),
	)
	return nil
}

// Path returns the cached blob for an episode and whether one exists.
func (m *Manager) Path(seriesID string, episode int) (string, bool) {
	if m == nil {
		return "", false
	}
	matches, err := m.episodeBlobs(strings.TrimSpace(seriesID), episode)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// Load opens the cached blob for reading. ok is false when the cache is
// disabled or holds nothing for the episode; the caller owns the close.
func (m *Manager) Load(seriesID string, episode int) (io.ReadCloser, bool) {
	path, ok := m.Path(seriesID, episode)
	if !ok {
		return nil, false
	}
	file, err := os.Open(path)
	if err != nil {
		m.logger.Warn("cached blob unreadable",
			logging.String(logging.FieldSeries, seriesID),
			logging.Int(logging.FieldEpisode, episode),
			logging.Error(err),
		)
		return nil, false
	}
	return file, true
}

// Delete removes an episode's cached blob. Deleting a missing blob is not an
// error.
func (m *Manager) Delete(seriesID string, episode int) error {
	if m == nil {
		return nil
	}
	return m.removeEpisodeBlobs(strings.TrimSpace(seriesID), episode)
}

func (m *Manager) blobPath(seriesID string, episode int, ext string) string {
	if ext == "" {
		ext = ".mkv"
	}
	return filepath.Join(m.root, seriesID, fmt.Sprintf("ep%03d%s", episode, ext))
}

func (m *Manager) episodeBlobs(seriesID string, episode int) ([]string, error) {
	pattern := filepath.Join(m.root, seriesID, fmt.Sprintf("ep%03d.*", episode))
	return filepath.Glob(pattern)
}

func (m *Manager) removeEpisodeBlobs(seriesID string, episode int) error {
	matches, err := m.episodeBlobs(seriesID, episode)
	if err != nil {
		return fmt.Errorf("videocache: list blobs: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("videocache: remove %q: %w", match, err)
		}
	}
	return nil
}

type blob struct {
	path    string
	size    int64
	modTime time.Time
}

// prune removes oldest blobs until the cache fits under the size cap.
// keepPath protects the blob that was just written.
func (m *Manager) prune(keepPath string) error {
	blobs, total, err := m.scan()
	if err != nil {
		return err
	}
	for _, candidate := range blobs {
		if total <= m.maxBytes {
			return nil
		}
		if samePath(candidate.path, keepPath) {
			continue
		}
		if err := os.Remove(candidate.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("videocache: prune %q: %w", candidate.path, err)
		}
		m.logger.Info("pruned cached video",
			logging.String("blob", candidate.path),
			logging.Int64("size_bytes", candidate.size),
		)
		total -= candidate.size
	}
	if total > m.maxBytes {
		m.logger.Warn("cache over limit but newest blob is protected",
			logging.Int64("total_bytes", total),
			logging.Int64("max_bytes", m.maxBytes),
		)
	}
	return nil
}

func (m *Manager) scan() ([]blob, int64, error) {
	var (
		blobs []blob
		total int64
	)
	err := filepath.WalkDir(m.root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if entry.IsDir() || strings.HasSuffix(path, ".partial") {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return nil
		}
		blobs = append(blobs, blob{path: path, size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("videocache: scan: %w", err)
	}
	sort.Slice(blobs, func(i, j int) bool {
		return blobs[i].modTime.Before(blobs[j].modTime)
	})
	return blobs, total, nil
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return a == b
	}
	return absA == absB
}
