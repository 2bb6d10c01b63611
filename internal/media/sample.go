package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"subpulse/internal/services"
)

// AudioSample holds a short mono audio excerpt extracted from a video file.
type AudioSample struct {
	Data    []byte
	Format  string
	Seconds int
}

// SampleAudio extracts the opening seconds of the first audio track as a mono
// 16 kHz Ogg/Opus clip suitable for transcription. The result requires no
// temporary files; ffmpeg streams the encoded clip to stdout.
func SampleAudio(ctx context.Context, binary string, path string, seconds int) (AudioSample, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return AudioSample{}, services.Wrap(services.ErrMediaLoad, "sample", "extract", "empty media path", nil)
	}
	if seconds <= 0 {
		return AudioSample{}, services.Wrap(services.ErrValidation, "sample", "extract", "sample length must be positive", nil)
	}

	args := []string{
		"-v", "error",
		"-hide_banner",
		"-i", path,
		"-t", strconv.Itoa(seconds),
		"-vn",
		"-map", "0:a:0",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "libopus",
		"-f", "ogg",
		"pipe:1",
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if strings.Contains(detail, "matches no streams") || strings.Contains(detail, "Stream map '0:a:0'") {
			return AudioSample{}, services.Wrap(services.ErrNoAudioTrack, "sample", "extract", "media has no audio track", err)
		}
		return AudioSample{}, services.Wrap(services.ErrMediaLoad, "sample", "extract", fmt.Sprintf("ffmpeg failed: %s", detail), err)
	}
	if stdout.Len() == 0 {
		return AudioSample{}, services.Wrap(services.ErrMediaLoad, "sample", "extract", "ffmpeg produced no audio data", nil)
	}

	return AudioSample{Data: stdout.Bytes(), Format: "ogg", Seconds: seconds}, nil
}
