package queue

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

const itemColumns = "id, video_path, subtitle_path, title, series_id, episode, status, progress_percent, progress_phase, progress_details, error_message, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		videoPath    string
		subtitlePath sql.NullString
		title        sql.NullString
		seriesID     sql.NullString
		episode      sql.NullInt64
		statusStr    string
		progress     sql.NullInt64
		phase        sql.NullString
		details      sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&videoPath,
		&subtitlePath,
		&title,
		&seriesID,
		&episode,
		&statusStr,
		&progress,
		&phase,
		&details,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		VideoPath:    videoPath,
		SubtitlePath: subtitlePath.String,
		Title:        title.String,
		SeriesID:     seriesID.String,
		Episode:      int(episode.Int64),
		Status:       Status(statusStr),
		Progress:     int(progress.Int64),
		Phase:        phase.String,
		Details:      details.String,
		ErrorMessage: errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

// inferTitleFromPath derives a display title from a video filename.
func inferTitleFromPath(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("_", " ", ".", " ").Replace(base)
	return strings.Join(strings.Fields(base), " ")
}
