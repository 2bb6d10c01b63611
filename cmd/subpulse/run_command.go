package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"subpulse/internal/analysis"
	"subpulse/internal/config"
	"subpulse/internal/library"
	"subpulse/internal/logging"
	"subpulse/internal/queue"
	"subpulse/internal/videocache"
	"subpulse/internal/workflow"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process the queue until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(cmd.Context(), ctx)
		},
	}
}

// applyAPIKeyEnv resolves the analysis API key from the environment.
// ANALYSIS_API_KEY overrides the config file; OPENAI_API_KEY fills in only
// when the config carries no key.
func applyAPIKeyEnv(cfg *config.Config) {
	if key := os.Getenv("ANALYSIS_API_KEY"); key != "" {
		cfg.Analysis.APIKey = key
		return
	}
	if cfg.Analysis.APIKey == "" {
		cfg.Analysis.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func runWorker(cmdCtx context.Context, ctx *commandContext) error {
	// A .env in the working directory can supply the API key.
	_ = godotenv.Load()

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyAPIKeyEnv(cfg)

	lock := flock.New(filepath.Join(cfg.Paths.DataDir, "subpulse.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire instance lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("another subpulse worker is already running (lock: %s)", lock.Path())
	}
	defer lock.Unlock()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open queue store", logging.Error(err))
		return err
	}
	defer store.Close()

	blobs := videocache.NewManager(cfg, logger)
	episodes, err := library.Open(cfg, logger, library.WithBlobCache(blobs))
	if err != nil {
		logger.Error("open episode store", logging.Error(err))
		return err
	}
	defer episodes.Close()

	client, err := analysis.NewClient(cfg)
	if err != nil {
		return fmt.Errorf("configure analysis client: %w", err)
	}

	manager := workflow.NewManager(cfg, store, episodes, blobs, client, logger)

	g, runCtx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		if err := manager.Start(runCtx); err != nil {
			return err
		}
		<-runCtx.Done()
		manager.Stop()
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return nil
			case <-ticker.C:
				stats, err := store.Summarize(runCtx)
				if err != nil {
					continue
				}
				logger.Info("queue heartbeat",
					logging.Int("pending", stats.Pending),
					logging.Int("processing", stats.Processing),
					logging.Int("completed", stats.Completed),
					logging.Int("failed", stats.Failed),
				)
			}
		}
	})

	logger.Info("subpulse worker started",
		logging.String("queue", store.Path()),
		logging.Bool("video_cache", cfg.VideoCache.Enabled),
	)
	err = g.Wait()
	logger.Info("subpulse worker shutting down")
	return err
}
