package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"subpulse/internal/config"
	"subpulse/internal/logging"
	"subpulse/internal/timeline"
)

// Record is one stored episode: the enriched timeline plus the audio-derived
// subtitle offset.
type Record struct {
	SeriesID       string                 `json:"series_id"`
	Episode        int                    `json:"episode"`
	Analysis       timeline.VideoAnalysis `json:"analysis"`
	SubtitleOffset float64                `json:"subtitle_offset"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// BlobCache is the slice of the video cache the library needs for delete
// cascades.
type BlobCache interface {
	Delete(seriesID string, episode int) error
}

// Store persists episode analyses in SQLite.
type Store struct {
	db     *sql.DB
	path   string
	blobs  BlobCache
	logger *slog.Logger
}

// Option customizes the store.
type Option func(*Store)

// WithBlobCache wires the video cache so deleting an episode also drops its
// cached video file.
func WithBlobCache(cache BlobCache) Option {
	return func(s *Store) {
		s.blobs = cache
	}
}

// Open initializes or connects to the episode database under the data
// directory.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "library.db"), logger, opts...)
}

// OpenPath opens an episode database at an explicit location.
func OpenPath(dbPath string, logger *slog.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, logger: logging.NewComponentLogger(logger, "library")}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS episodes (
        series_id TEXT NOT NULL,
        episode INTEGER NOT NULL,
        analysis_json TEXT NOT NULL,
        subtitle_offset REAL NOT NULL DEFAULT 0,
        updated_at TEXT NOT NULL,
        PRIMARY KEY (series_id, episode)
    )`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create episodes schema: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts one episode record.
func (s *Store) Save(ctx context.Context, record Record) error {
	record.SeriesID = strings.TrimSpace(record.SeriesID)
	if record.SeriesID == "" {
		return errors.New("series id required")
	}
	if record.Episode <= 0 {
		return fmt.Errorf("episode number must be positive, got %d", record.Episode)
	}

	analysisJSON, err := json.Marshal(record.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO episodes (series_id, episode, analysis_json, subtitle_offset, updated_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT(series_id, episode) DO UPDATE SET
             analysis_json = excluded.analysis_json,
             subtitle_offset = excluded.subtitle_offset,
             updated_at = excluded.updated_at`,
		record.SeriesID,
		record.Episode,
		string(analysisJSON),
		record.SubtitleOffset,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("save episode: %w", err)
	}
	return nil
}

// BulkSave upserts many episode records, stopping at the first failure.
func (s *Store) BulkSave(ctx context.Context, records []Record) error {
	for _, record := range records {
		if err := s.Save(ctx, record); err != nil {
			return fmt.Errorf("episode %d: %w", record.Episode, err)
		}
	}
	return nil
}

// Get fetches one episode. A missing record returns (nil, nil).
func (s *Store) Get(ctx context.Context, seriesID string, episode int) (*Record, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT series_id, episode, analysis_json, subtitle_offset, updated_at
         FROM episodes WHERE series_id = ? AND episode = ?`,
		strings.TrimSpace(seriesID),
		episode,
	)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return record, nil
}

// BulkGet returns stored episodes for a series ordered by episode number.
// With no episode numbers it returns the whole series; otherwise only the
// requested episodes, silently omitting numbers with no stored record.
func (s *Store) BulkGet(ctx context.Context, seriesID string, episodes ...int) ([]Record, error) {
	query := `SELECT series_id, episode, analysis_json, subtitle_offset, updated_at
         FROM episodes WHERE series_id = ?`
	args := []any{strings.TrimSpace(seriesID)}
	if len(episodes) > 0 {
		query += ` AND episode IN (` + strings.Repeat("?,", len(episodes)-1) + `?)`
		for _, episode := range episodes {
			args = append(args, episode)
		}
	}
	query += ` ORDER BY episode`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Delete removes one episode and cascades to the video blob cache when one
// is wired. A missing blob is not an error.
func (s *Store) Delete(ctx context.Context, seriesID string, episode int) (bool, error) {
	seriesID = strings.TrimSpace(seriesID)
	res, err := s.db.ExecContext(ctx, `DELETE FROM episodes WHERE series_id = ? AND episode = ?`, seriesID, episode)
	if err != nil {
		return false, fmt.Errorf("delete episode: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 && s.blobs != nil {
		if err := s.blobs.Delete(seriesID, episode); err != nil {
			s.logger.Warn("cached video not removed",
				logging.String(logging.FieldSeries, seriesID),
				logging.Int(logging.FieldEpisode, episode),
				logging.Error(err),
			)
		}
	}
	return affected > 0, nil
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		seriesID     string
		episode      int
		analysisJSON string
		offset       float64
		updatedRaw   string
	)
	if err := scanner.Scan(&seriesID, &episode, &analysisJSON, &offset, &updatedRaw); err != nil {
		return nil, err
	}

	record := &Record{SeriesID: seriesID, Episode: episode, SubtitleOffset: offset}
	if err := json.Unmarshal([]byte(analysisJSON), &record.Analysis); err != nil {
		return nil, fmt.Errorf("decode analysis for episode %d: %w", episode, err)
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		record.UpdatedAt = updated
	}
	return record, nil
}
