package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"subpulse/internal/episodenum"
	"subpulse/internal/library"
	"subpulse/internal/logging"
	"subpulse/internal/queue"
	"subpulse/internal/services"
	"subpulse/internal/subtitle"
	"subpulse/internal/timeline"
)

// Progress bands per phase. Enrichment sweeps the wide middle band; the
// bookend phases are cheap and get fixed markers.
const (
	progressAudioSync  = 5
	progressEnrichLow  = 30
	progressEnrichSpan = 60
	progressFinalizing = 95
)

// processItem drives one queue item through the pipeline. The returned error
// is nil when the item completed; failures are already persisted on the item
// before returning.
func (m *Manager) processItem(ctx context.Context, item *queue.Item) error {
	logger := m.logger.With(logging.Int64(logging.FieldItemID, item.ID))

	item.Status = queue.StatusProcessing
	item.ErrorMessage = ""
	item.SetProgress(progressAudioSync, "Audio Sync", "")
	if err := m.store.Update(ctx, item); err != nil {
		return err
	}
	logger.Info("ingestion started", logging.String("video", item.VideoPath))

	analysis, offset, err := m.ingest(ctx, item, logger)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return m.failItem(ctx, item, logger, err)
	}

	item.SetProgress(progressFinalizing, "Finalizing", "")
	if err := m.store.Update(ctx, item); err != nil {
		return err
	}
	if err := m.finalize(ctx, item, logger, analysis, offset); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return m.failItem(ctx, item, logger, err)
	}

	item.SetCompleted()
	if err := m.store.Update(ctx, item); err != nil {
		return err
	}
	logger.Info("ingestion completed",
		logging.String(logging.FieldSeries, item.SeriesID),
		logging.Int(logging.FieldEpisode, item.Episode),
		logging.Int("lines", len(analysis.Nodes)),
	)
	return nil
}

// ingest runs parse, probe, offset estimation, and enrichment. It returns
// the enriched analysis and the applied offset.
func (m *Manager) ingest(ctx context.Context, item *queue.Item, logger *slog.Logger) (timeline.VideoAnalysis, float64, error) {
	var empty timeline.VideoAnalysis

	cues, err := m.parseSubtitle(item.SubtitlePath)
	if err != nil {
		return empty, 0, err
	}

	hasAudio, err := m.probeVideo(ctx, item)
	if err != nil {
		return empty, 0, err
	}
	var offset float64
	if hasAudio {
		offset = m.estimateOffset(ctx, item, logger, cues)
	} else {
		logger.Warn("media has no audio track, keeping scripted timings")
	}
	nodes := timeline.FromCues(cues)
	if offset != 0 {
		timeline.Shift(nodes, offset)
	}

	enriched, err := m.enricher.Enrich(ctx, nodes, func(done, total int, details string) {
		percent := progressEnrichLow
		if total > 0 {
			percent += done * progressEnrichSpan / total
		}
		item.SetProgress(percent, "Translating", details)
		if err := m.store.Update(ctx, item); err != nil {
			logger.Warn("progress update lost", logging.Error(err))
		}
	})
	if err != nil {
		return empty, 0, err
	}

	return timeline.VideoAnalysis{
		VideoID: videoID(item),
		Title:   item.Title,
		Nodes:   enriched,
	}, offset, nil
}

func (m *Manager) parseSubtitle(path string) ([]subtitle.Cue, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, services.Wrap(services.ErrValidation, "ingest", "parse", "queue item has no subtitle path", nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrMediaLoad, "ingest", "parse", fmt.Sprintf("read subtitle %q", path), err)
	}
	cues := m.parser.Parse(string(raw))
	if len(cues) == 0 {
		return nil, services.Wrap(services.ErrEmptySubtitle, "ingest", "parse", "subtitle file contained no dialogue", nil)
	}
	return cues, nil
}

// estimateOffset is best effort: sampling trouble logs a warning and keeps
// the scripted timings.
func (m *Manager) estimateOffset(ctx context.Context, item *queue.Item, logger *slog.Logger, cues []subtitle.Cue) float64 {
	sample, err := m.prober.Sample(ctx, item.VideoPath, m.cfg.Ingest.AudioSampleSeconds)
	if err != nil {
		logger.Warn("audio sample failed, keeping scripted timings", logging.Error(err))
		return 0
	}
	return m.estimator.Estimate(ctx, sample.Data, cues)
}

// probeVideo verifies the container is readable and reports whether it
// carries an audio track. A missing track is not fatal; offset estimation is
// skipped and the scripted timings stand.
func (m *Manager) probeVideo(ctx context.Context, item *queue.Item) (bool, error) {
	result, err := m.prober.Inspect(ctx, item.VideoPath)
	if err != nil {
		return false, err
	}
	return result.AudioStreamCount() > 0, nil
}

// finalize resolves series and episode identity, persists the analysis, and
// caches the video blob.
func (m *Manager) finalize(ctx context.Context, item *queue.Item, logger *slog.Logger, analysis timeline.VideoAnalysis, offset float64) error {
	if item.Episode <= 0 {
		episode, ok := episodenum.FromTitle(item.Title)
		if !ok {
			return services.Wrap(services.ErrValidation, "ingest", "finalize",
				fmt.Sprintf("cannot derive an episode number from title %q; re-add with --episode", item.Title), nil)
		}
		item.Episode = episode
	}
	if strings.TrimSpace(item.SeriesID) == "" {
		item.SeriesID = seriesSlug(item.Title)
	}

	record := library.Record{
		SeriesID:       item.SeriesID,
		Episode:        item.Episode,
		Analysis:       analysis,
		SubtitleOffset: offset,
	}
	if err := m.episodes.Save(ctx, record); err != nil {
		return err
	}

	if err := m.blobs.Save(item.SeriesID, item.Episode, item.VideoPath); err != nil {
		logger.Warn("video not cached",
			logging.String(logging.FieldSeries, item.SeriesID),
			logging.Int(logging.FieldEpisode, item.Episode),
			logging.Error(err),
		)
	}
	return nil
}

func (m *Manager) failItem(ctx context.Context, item *queue.Item, logger *slog.Logger, cause error) error {
	item.SetFailed(cause.Error())
	if err := m.store.Update(ctx, item); err != nil {
		logger.Error("failed item not persisted", logging.Error(err))
		return err
	}
	logger.Error("ingestion failed",
		logging.Error(cause),
		logging.String(logging.FieldEventType, "ingest_failed"),
	)
	return cause
}

func videoID(item *queue.Item) string {
	base := filepath.Base(item.VideoPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var (
	slugStripRe      = regexp.MustCompile(`[^a-z0-9]+`)
	episodeMarkerRes = []*regexp.Regexp{
		regexp.MustCompile(`s\d{1,2}e\d{1,3}`),
		regexp.MustCompile(`\bep(?:isode)?\.?\s*\d{1,3}\b`),
		regexp.MustCompile(`\d{1,3}\s*$`),
	}
)

// seriesSlug reduces a display title to a stable series identifier, dropping
// episode markers so every episode of a show lands in the same series.
func seriesSlug(title string) string {
	lowered := strings.ToLower(title)
	for _, marker := range episodeMarkerRes {
		lowered = marker.ReplaceAllString(lowered, " ")
	}
	slug := strings.Trim(slugStripRe.ReplaceAllString(lowered, "-"), "-")
	if slug == "" {
		return "unknown-series"
	}
	return slug
}
