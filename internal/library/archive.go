package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"subpulse/internal/services"
)

const (
	archiveApp     = "subpulse"
	archiveVersion = 1
)

// ArchiveMeta describes the provenance of an exported series.
type ArchiveMeta struct {
	App         string `json:"app"`
	SeriesID    string `json:"series_id"`
	SeriesTitle string `json:"series_title,omitempty"`
	ExportDate  string `json:"export_date"`
	Version     int    `json:"version"`
	// GlobalOffset, when non-zero, overrides every episode's stored
	// subtitle offset on import. Useful when a different video release
	// shifts the whole series by a constant amount.
	GlobalOffset float64 `json:"global_offset,omitempty"`
}

// Archive is the portable JSON document holding one series.
type Archive struct {
	Meta     ArchiveMeta `json:"meta"`
	Episodes []Record    `json:"episodes"`
}

// Export serializes every stored episode of a series into an archive
// document.
func (s *Store) Export(ctx context.Context, seriesID, seriesTitle string) ([]byte, error) {
	seriesID = strings.TrimSpace(seriesID)
	if seriesID == "" {
		return nil, errors.New("series id required")
	}

	episodes, err := s.BulkGet(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if len(episodes) == 0 {
		return nil, services.Wrap(services.ErrNotFound, "archive", "export", fmt.Sprintf("no episodes stored for series %q", seriesID), nil)
	}

	archive := Archive{
		Meta: ArchiveMeta{
			App:         archiveApp,
			SeriesID:    seriesID,
			SeriesTitle: strings.TrimSpace(seriesTitle),
			ExportDate:  time.Now().UTC().Format(time.RFC3339),
			Version:     archiveVersion,
		},
		Episodes: episodes,
	}
	encoded, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode archive: %w", err)
	}
	return encoded, nil
}

// Import loads an archive document and upserts its episodes. The archive's
// series id wins over whatever the episodes carried when they were exported
// from another install.
func (s *Store) Import(ctx context.Context, data []byte) (int, error) {
	var archive Archive
	if err := json.Unmarshal(data, &archive); err != nil {
		return 0, services.Wrap(services.ErrValidation, "archive", "import", "archive is not valid JSON", err)
	}
	if archive.Meta.App != archiveApp {
		return 0, services.Wrap(services.ErrValidation, "archive", "import",
			fmt.Sprintf("archive was not produced by %s (app=%q)", archiveApp, archive.Meta.App), nil)
	}
	if strings.TrimSpace(archive.Meta.SeriesID) == "" {
		return 0, services.Wrap(services.ErrValidation, "archive", "import", "archive meta is missing series_id", nil)
	}
	if len(archive.Episodes) == 0 {
		return 0, services.Wrap(services.ErrValidation, "archive", "import", "archive contains no episodes", nil)
	}

	for i := range archive.Episodes {
		archive.Episodes[i].SeriesID = archive.Meta.SeriesID
		if archive.Meta.GlobalOffset != 0 {
			archive.Episodes[i].SubtitleOffset = archive.Meta.GlobalOffset
		}
	}
	if err := s.BulkSave(ctx, archive.Episodes); err != nil {
		return 0, err
	}
	return len(archive.Episodes), nil
}
