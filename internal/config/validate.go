package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}
	if strings.TrimSpace(c.Study.Language) == "" {
		problems = append(problems, "study.language must not be empty")
	}
	if c.Ingest.BucketSeconds <= 0 {
		problems = append(problems, "ingest.bucket_seconds must be positive")
	}
	if c.Ingest.BatchSize <= 0 {
		problems = append(problems, "ingest.batch_size must be positive")
	}
	if c.Ingest.BatchDelaySeconds < 0 {
		problems = append(problems, "ingest.batch_delay_seconds must not be negative")
	}
	if c.Ingest.BucketCooldownSeconds < 0 {
		problems = append(problems, "ingest.bucket_cooldown_seconds must not be negative")
	}
	if c.Ingest.AudioSampleSeconds <= 0 {
		problems = append(problems, "ingest.audio_sample_seconds must be positive")
	}
	if c.Analysis.RetryMax < 0 {
		problems = append(problems, "analysis.retry_max must not be negative")
	}
	if c.Analysis.RetryInitialSeconds <= 0 {
		problems = append(problems, "analysis.retry_initial_seconds must be positive")
	}
	if c.Workflow.QueuePollInterval <= 0 {
		problems = append(problems, "workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.JobCooldownSeconds < 0 {
		problems = append(problems, "workflow.job_cooldown_seconds must not be negative")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q is not supported (console or json)", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
