package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"subpulse/internal/analysis"
	"subpulse/internal/audiosync"
	"subpulse/internal/config"
	"subpulse/internal/enrich"
	"subpulse/internal/library"
	"subpulse/internal/logging"
	"subpulse/internal/media"
	"subpulse/internal/queue"
	"subpulse/internal/services"
	"subpulse/internal/subtitle"
	"subpulse/internal/timeline"
	"subpulse/internal/videocache"
)

// Prober inspects a media container and extracts a short audio excerpt.
type Prober interface {
	Inspect(ctx context.Context, path string) (media.Result, error)
	Sample(ctx context.Context, path string, seconds int) (media.AudioSample, error)
}

// OffsetEstimator derives the subtitle clock offset from an audio sample.
type OffsetEstimator interface {
	Estimate(ctx context.Context, audio []byte, cues []subtitle.Cue) float64
}

// Enricher annotates a subtitle timeline.
type Enricher interface {
	Enrich(ctx context.Context, nodes []timeline.DialogueNode, progress enrich.ProgressFunc) ([]timeline.DialogueNode, error)
}

// Manager runs the single ingestion worker: it claims the oldest pending
// queue item, drives it through the pipeline, and keeps going until stopped.
type Manager struct {
	cfg       *config.Config
	store     *queue.Store
	episodes  *library.Store
	blobs     *videocache.Manager
	parser    *subtitle.Parser
	prober    Prober
	estimator OffsetEstimator
	enricher  Enricher
	logger    *slog.Logger

	pollInterval    time.Duration
	jobCooldown     time.Duration
	failureCooldown time.Duration
	errRetry        time.Duration
	sleep           func(context.Context, time.Duration) error

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithProber overrides media probing (tests inject fakes here).
func WithProber(p Prober) ManagerOption {
	return func(m *Manager) {
		if p != nil {
			m.prober = p
		}
	}
}

// WithEstimator overrides offset estimation.
func WithEstimator(e OffsetEstimator) ManagerOption {
	return func(m *Manager) {
		if e != nil {
			m.estimator = e
		}
	}
}

// WithEnricher overrides the enrichment engine.
func WithEnricher(e Enricher) ManagerOption {
	return func(m *Manager) {
		if e != nil {
			m.enricher = e
		}
	}
}

// WithSleep overrides how cooldown waits are performed.
func WithSleep(sleep func(context.Context, time.Duration) error) ManagerOption {
	return func(m *Manager) {
		if sleep != nil {
			m.sleep = sleep
		}
	}
}

// NewManager constructs a workflow manager. The analysis client is optional
// at construction time so queue-only commands can build a manager without an
// API key; Start fails if enrichment was never wired.
func NewManager(
	cfg *config.Config,
	store *queue.Store,
	episodes *library.Store,
	blobs *videocache.Manager,
	client *analysis.Client,
	logger *slog.Logger,
	opts ...ManagerOption,
) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	m := &Manager{
		cfg:             cfg,
		store:           store,
		episodes:        episodes,
		blobs:           blobs,
		parser:          subtitle.NewParser(cfg.Study.Language),
		logger:          logging.NewComponentLogger(logger, "workflow"),
		pollInterval:    time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		jobCooldown:     time.Duration(cfg.Workflow.JobCooldownSeconds) * time.Second,
		failureCooldown: time.Duration(cfg.Workflow.FailureCooldownSeconds) * time.Second,
		errRetry:        time.Duration(cfg.Workflow.ErrorRetryInterval) * time.Second,
		sleep:           services.Sleep,
	}
	if client != nil {
		m.prober = binaryProber{cfg: cfg}
		m.estimator = audiosync.NewEstimator(client, logger)
		m.enricher = enrich.NewEngine(cfg, client, logger)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// binaryProber shells out to the configured ffprobe/ffmpeg binaries.
type binaryProber struct {
	cfg *config.Config
}

func (p binaryProber) Inspect(ctx context.Context, path string) (media.Result, error) {
	return media.Inspect(ctx, p.cfg.FFprobeBinary(), path)
}

func (p binaryProber) Sample(ctx context.Context, path string, seconds int) (media.AudioSample, error) {
	return media.SampleAudio(ctx, p.cfg.FFmpegBinary(), path, seconds)
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return errors.New("workflow already running")
	}
	if m.prober == nil || m.estimator == nil || m.enricher == nil {
		return errors.New("workflow pipeline not configured")
	}

	if count, err := m.store.ResetProcessing(ctx); err != nil {
		return err
	} else if count > 0 {
		m.logger.Info("requeued interrupted jobs", logging.Int64("count", count))
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	go m.run(runCtx)
	return nil
}

// Stop terminates background processing and waits for the worker to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the worker is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// LastError returns the most recent queue access failure.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) run(ctx context.Context) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		item, err := m.store.NextPending(ctx)
		if err != nil {
			m.setLastError(err)
			m.logger.Error("failed to fetch next queue item",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
				logging.Duration("retry_in", m.errRetry),
			)
			if sleepErr := m.sleep(ctx, m.errRetry); sleepErr != nil {
				return
			}
			continue
		}
		if item == nil {
			if sleepErr := m.sleep(ctx, m.pollInterval); sleepErr != nil {
				return
			}
			continue
		}

		cooldown := m.jobCooldown
		if err := m.processItem(ctx, item); err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return
			}
			cooldown = m.failureCooldown
		}
		if sleepErr := m.sleep(ctx, cooldown); sleepErr != nil {
			return
		}
	}
}
