package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

var (
	// ErrMediaLoad marks a video file that cannot be decoded or probed.
	ErrMediaLoad = errors.New("media load error")
	// ErrNoAudioTrack marks a video with no extractable audio stream.
	ErrNoAudioTrack = errors.New("no audio track")
	// ErrEmptySubtitle marks a subtitle file that parsed to zero cues.
	ErrEmptySubtitle = errors.New("empty subtitle")
	// ErrRateLimited marks a transient quota/capacity failure from the
	// analysis capability. Only errors carrying this classification are
	// retried with backoff.
	ErrRateLimited = errors.New("rate limited")
	// ErrAnalysis marks a permanent failure from the analysis capability.
	ErrAnalysis = errors.New("analysis error")

	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker sentinel for later classification.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrAnalysis
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// rateLimitHints are the substrings that identify a quota failure when the
// upstream error carries no usable status code. The analysis capability's
// error taxonomy is not under our control, so every shape it has been seen
// to produce is sniffed here and nowhere else.
var rateLimitHints = []string{"429", "quota", "resource_exhausted", "rate limit"}

// IsRateLimited reports whether an error represents a transient quota or
// rate-limit failure that is worth retrying with backoff.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range rateLimitHints {
		if strings.Contains(msg, hint) {
			return true
		}
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
