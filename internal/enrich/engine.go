package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"subpulse/internal/analysis"
	"subpulse/internal/config"
	"subpulse/internal/logging"
	"subpulse/internal/services"
	"subpulse/internal/timeline"
)

// Analyzer annotates one sub-batch of dialogue nodes.
type Analyzer interface {
	AnnotateBatch(ctx context.Context, nodes []timeline.DialogueNode) ([]analysis.NodeAnnotation, error)
}

// ProgressFunc receives enrichment progress. done and total count dialogue
// nodes; details is a short human-readable status such as a cooldown
// countdown.
type ProgressFunc func(done, total int, details string)

// Engine walks a subtitle timeline in time-windowed buckets and enriches each
// bucket through the analyzer, pacing requests so a whole episode stays under
// provider rate limits.
type Engine struct {
	analyzer Analyzer
	logger   *slog.Logger

	bucketSeconds  int
	batchSize      int
	batchDelay     time.Duration
	bucketCooldown int
	sleep          func(context.Context, time.Duration) error
}

// Option customizes the engine.
type Option func(*Engine)

// WithSleep overrides how pacing waits are performed. Tests inject a recorder
// here.
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(e *Engine) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// NewEngine builds an enrichment engine from application config.
func NewEngine(cfg *config.Config, analyzer Analyzer, logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	engine := &Engine{
		analyzer:       analyzer,
		logger:         logging.NewComponentLogger(logger, "enrich"),
		bucketSeconds:  cfg.Ingest.BucketSeconds,
		batchSize:      cfg.Ingest.BatchSize,
		batchDelay:     time.Duration(cfg.Ingest.BatchDelaySeconds) * time.Second,
		bucketCooldown: cfg.Ingest.BucketCooldownSeconds,
		sleep:          services.Sleep,
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// Enrich annotates every node and returns a new slice in the same order. A
// failed sub-batch degrades gracefully: its nodes pass through untouched and
// the rest of the timeline still gets enriched. Only context cancellation
// aborts the walk.
func (e *Engine) Enrich(ctx context.Context, nodes []timeline.DialogueNode, progress ProgressFunc) ([]timeline.DialogueNode, error) {
	if progress == nil {
		progress = func(int, int, string) {}
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	enriched := make([]timeline.DialogueNode, len(nodes))
	copy(enriched, nodes)
	timeline.SortByStart(enriched)

	byID := make(map[string]*timeline.DialogueNode, len(enriched))
	for i := range enriched {
		byID[enriched[i].ID] = &enriched[i]
	}

	buckets := splitBuckets(enriched, e.bucketSeconds)
	total := len(enriched)
	done := 0
	degraded := 0

	for bucketPos, b := range buckets {
		for batchPos, batch := range splitBatches(b.nodes, e.batchSize) {
			if batchPos > 0 && e.batchDelay > 0 {
				if err := e.sleep(ctx, e.batchDelay); err != nil {
					return nil, err
				}
			}

			annotations, err := e.analyzer.AnnotateBatch(ctx, batch)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				degraded += len(batch)
				e.logger.Warn("sub-batch enrichment failed, keeping raw lines",
					logging.Int("bucket", b.index),
					logging.Int("lines", len(batch)),
					logging.Error(err),
				)
			} else {
				applyAnnotations(byID, annotations)
			}

			done += len(batch)
			progress(done, total, fmt.Sprintf("Annotated %d of %d lines", done, total))
		}

		if bucketPos < len(buckets)-1 {
			if err := e.coolDown(ctx, done, total, progress); err != nil {
				return nil, err
			}
		}
	}

	if degraded > 0 {
		e.logger.Warn("timeline partially enriched",
			logging.Int("degraded_lines", degraded),
			logging.Int("total_lines", total),
		)
	}
	return enriched, nil
}

// coolDown waits out the inter-bucket pause, announcing the remaining seconds
// once per second.
func (e *Engine) coolDown(ctx context.Context, done, total int, progress ProgressFunc) error {
	for remaining := e.bucketCooldown; remaining > 0; remaining-- {
		progress(done, total, fmt.Sprintf("Cooling down, next part in %ds", remaining))
		if err := e.sleep(ctx, time.Second); err != nil {
			return err
		}
	}
	return nil
}

// applyAnnotations merges model output into the timeline by node ID. Timing,
// speaker, and identity fields never change; only the token layers and notes
// are replaced.
func applyAnnotations(byID map[string]*timeline.DialogueNode, annotations []analysis.NodeAnnotation) {
	for _, annotation := range annotations {
		node, ok := byID[annotation.ID]
		if !ok {
			continue
		}
		if len(annotation.SourceTokens) > 0 {
			node.SourceTokens = annotation.SourceTokens
		}
		node.TargetTokens = annotation.TargetTokens
		node.Notes = annotation.Notes
	}
}
