package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Study describes the language pair being studied.
type Study struct {
	// Language is the language being learned; drives subtitle script
	// filtering and the tokenization prompt.
	Language string `toml:"language"`
	// ReferenceLanguage is the gloss/translation language.
	ReferenceLanguage string `toml:"reference_language"`
}

// Analysis contains connection settings for the external analysis capability.
type Analysis struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	// RetryMax is the number of retries after a rate-limited attempt.
	RetryMax int `toml:"retry_max"`
	// RetryInitialSeconds is the first backoff delay; doubled per retry.
	RetryInitialSeconds int `toml:"retry_initial_seconds"`
}

// Ingest contains the chunked enrichment timing knobs.
type Ingest struct {
	BucketSeconds         int `toml:"bucket_seconds"`
	BatchSize             int `toml:"batch_size"`
	BatchDelaySeconds     int `toml:"batch_delay_seconds"`
	BucketCooldownSeconds int `toml:"bucket_cooldown_seconds"`
	AudioSampleSeconds    int `toml:"audio_sample_seconds"`
}

// Workflow contains the queue worker's timing configuration.
type Workflow struct {
	QueuePollInterval      int `toml:"queue_poll_interval"`
	JobCooldownSeconds     int `toml:"job_cooldown_seconds"`
	FailureCooldownSeconds int `toml:"failure_cooldown_seconds"`
	ErrorRetryInterval     int `toml:"error_retry_interval"`
}

// VideoCache contains configuration for the local video blob cache.
type VideoCache struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	MaxGiB  int    `toml:"max_gib"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subpulse.
type Config struct {
	Paths      Paths      `toml:"paths"`
	Study      Study      `toml:"study"`
	Analysis   Analysis   `toml:"analysis"`
	Ingest     Ingest     `toml:"ingest"`
	Workflow   Workflow   `toml:"workflow"`
	VideoCache VideoCache `toml:"video_cache"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/subpulse/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("subpulse.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the daemon needs at runtime.
// The video cache dir is best-effort so a missing external drive does not
// prevent startup; the cache degrades to a no-op instead.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.VideoCache.Enabled && strings.TrimSpace(c.VideoCache.Dir) != "" {
		_ = os.MkdirAll(c.VideoCache.Dir, 0o755)
	}
	return nil
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// FFmpegBinary returns the ffmpeg executable used for audio sampling.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

func (c *Config) normalize() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.VideoCache.Dir, err = expandPath(c.VideoCache.Dir); err != nil {
		return err
	}
	c.Study.Language = strings.ToLower(strings.TrimSpace(c.Study.Language))
	c.Study.ReferenceLanguage = strings.ToLower(strings.TrimSpace(c.Study.ReferenceLanguage))
	c.Analysis.APIKey = strings.TrimSpace(c.Analysis.APIKey)
	c.Analysis.BaseURL = strings.TrimSpace(c.Analysis.BaseURL)
	c.Analysis.Model = strings.TrimSpace(c.Analysis.Model)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}

// ExpandPath resolves a leading ~ and returns an absolute, cleaned path.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
