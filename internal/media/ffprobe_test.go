package media

import (
	"context"
	"errors"
	"testing"

	"subpulse/internal/services"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "video", Width: 1920, Height: 1080},
			{CodecType: "audio", Index: 1, Channels: 2},
			{CodecType: "audio", Index: 2, Channels: 6},
		},
		Format: Format{
			Duration: "123.45",
			Size:     "1000",
		},
	}
	if result.VideoStreamCount() != 1 {
		t.Fatalf("expected 1 video stream, got %d", result.VideoStreamCount())
	}
	if result.AudioStreamCount() != 2 {
		t.Fatalf("expected 2 audio streams, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 1000 {
		t.Fatalf("unexpected size: %d", result.SizeBytes())
	}
	width, height := result.Dimensions()
	if width != 1920 || height != 1080 {
		t.Fatalf("unexpected dimensions: %dx%d", width, height)
	}
	stream, ok := result.FirstAudioStream()
	if !ok || stream.Index != 1 {
		t.Fatalf("unexpected first audio stream: %+v ok=%v", stream, ok)
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{
		Format: Format{
			Duration: "bad",
			Size:     "-1",
		},
	}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0, got %v", result.DurationSeconds())
	}
	if result.SizeBytes() != 0 {
		t.Fatalf("expected size 0, got %d", result.SizeBytes())
	}
	if _, ok := result.FirstAudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
	width, height := result.Dimensions()
	if width != 0 || height != 0 {
		t.Fatalf("expected zero dimensions, got %dx%d", width, height)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	_, err := Inspect(context.Background(), "ffprobe", "  ")
	if !errors.Is(err, services.ErrMediaLoad) {
		t.Fatalf("expected media load error, got %v", err)
	}
}

func TestSampleAudioValidatesArguments(t *testing.T) {
	if _, err := SampleAudio(context.Background(), "ffmpeg", "", 25); !errors.Is(err, services.ErrMediaLoad) {
		t.Fatalf("expected media load error for empty path, got %v", err)
	}
	if _, err := SampleAudio(context.Background(), "ffmpeg", "video.mkv", 0); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for zero length, got %v", err)
	}
}
