package config

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDataDir               = "~/.local/share/subpulse"
	defaultLogDir                = "~/.local/share/subpulse/logs"
	defaultStudyLanguage         = "ja"
	defaultReferenceLanguage     = "en"
	defaultAnalysisBaseURL       = "https://openrouter.ai/api/v1"
	defaultAnalysisModel         = "google/gemini-3-flash-preview"
	defaultAnalysisTimeout       = 120
	defaultRetryMax              = 5
	defaultRetryInitialSeconds   = 4
	defaultBucketSeconds         = 300
	defaultBatchSize             = 8
	defaultBatchDelaySeconds     = 4
	defaultBucketCooldownSeconds = 60
	defaultAudioSampleSeconds    = 25
	defaultQueuePollInterval     = 5
	defaultJobCooldownSeconds    = 5
	defaultFailureCooldown       = 2
	defaultErrorRetryInterval    = 10
	defaultVideoCacheMaxGiB      = 50
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Study: Study{
			Language:          defaultStudyLanguage,
			ReferenceLanguage: defaultReferenceLanguage,
		},
		Analysis: Analysis{
			BaseURL:             defaultAnalysisBaseURL,
			Model:               defaultAnalysisModel,
			TimeoutSeconds:      defaultAnalysisTimeout,
			RetryMax:            defaultRetryMax,
			RetryInitialSeconds: defaultRetryInitialSeconds,
		},
		Ingest: Ingest{
			BucketSeconds:         defaultBucketSeconds,
			BatchSize:             defaultBatchSize,
			BatchDelaySeconds:     defaultBatchDelaySeconds,
			BucketCooldownSeconds: defaultBucketCooldownSeconds,
			AudioSampleSeconds:    defaultAudioSampleSeconds,
		},
		Workflow: Workflow{
			QueuePollInterval:      defaultQueuePollInterval,
			JobCooldownSeconds:     defaultJobCooldownSeconds,
			FailureCooldownSeconds: defaultFailureCooldown,
			ErrorRetryInterval:     defaultErrorRetryInterval,
		},
		VideoCache: VideoCache{
			Enabled: true,
			Dir:     defaultVideoCacheDir(),
			MaxGiB:  defaultVideoCacheMaxGiB,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultVideoCacheDir() string {
	if base, ok := os.LookupEnv("XDG_CACHE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "subpulse", "videos")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "~/.cache/subpulse/videos"
	}
	return filepath.Join(home, ".cache", "subpulse", "videos")
}
