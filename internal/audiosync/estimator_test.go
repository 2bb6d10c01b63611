package audiosync

import (
	"context"
	"errors"
	"math"
	"testing"

	"subpulse/internal/analysis"
	"subpulse/internal/subtitle"
)

type stubTranscriber struct {
	segments []analysis.TranscriptSegment
	err      error
	calls    int
}

func (s *stubTranscriber) TranscribeSample(context.Context, []byte, string) ([]analysis.TranscriptSegment, error) {
	s.calls++
	return s.segments, s.err
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestEstimateMatchesShiftedCue(t *testing.T) {
	transcriber := &stubTranscriber{segments: []analysis.TranscriptSegment{
		{Start: 0.5, End: 2.0, Text: "whatever lead-in noise"},
		{Start: 4.7, End: 7.0, Text: "Good morning, everyone!"},
	}}
	estimator := NewEstimator(transcriber, nil)

	cues := []subtitle.Cue{
		{Start: 2.2, End: 4.5, Text: "good morning everyone"},
		{Start: 5.0, End: 7.0, Text: "unrelated second line"},
	}
	offset := estimator.Estimate(context.Background(), []byte("audio"), cues)
	if !almostEqual(offset, 2.5) {
		t.Fatalf("expected offset 2.5, got %v", offset)
	}
}

func TestEstimateZeroWhenNothingMatches(t *testing.T) {
	transcriber := &stubTranscriber{segments: []analysis.TranscriptSegment{
		{Start: 1.0, End: 2.0, Text: "completely different speech"},
	}}
	estimator := NewEstimator(transcriber, nil)

	cues := []subtitle.Cue{{Start: 0, End: 2, Text: "お弁当を忘れた"}}
	if offset := estimator.Estimate(context.Background(), []byte("audio"), cues); offset != 0 {
		t.Fatalf("expected zero offset, got %v", offset)
	}
}

func TestEstimateZeroOnTranscriptionError(t *testing.T) {
	transcriber := &stubTranscriber{err: errors.New("boom")}
	estimator := NewEstimator(transcriber, nil)

	cues := []subtitle.Cue{{Start: 0, End: 2, Text: "hello world"}}
	if offset := estimator.Estimate(context.Background(), []byte("audio"), cues); offset != 0 {
		t.Fatalf("expected zero offset on error, got %v", offset)
	}
}

func TestEstimateSkipsTranscriptionWithoutInput(t *testing.T) {
	transcriber := &stubTranscriber{}
	estimator := NewEstimator(transcriber, nil)

	if offset := estimator.Estimate(context.Background(), nil, []subtitle.Cue{{Text: "hi"}}); offset != 0 {
		t.Fatalf("expected zero offset, got %v", offset)
	}
	if offset := estimator.Estimate(context.Background(), []byte("audio"), nil); offset != 0 {
		t.Fatalf("expected zero offset, got %v", offset)
	}
	if transcriber.calls != 0 {
		t.Fatalf("expected no transcription calls, got %d", transcriber.calls)
	}
}

func TestEstimateProbesOnlyOpeningCues(t *testing.T) {
	transcriber := &stubTranscriber{segments: []analysis.TranscriptSegment{
		{Start: 100, End: 102, Text: "line number seven exactly"},
	}}
	estimator := NewEstimator(transcriber, nil)

	cues := make([]subtitle.Cue, 0, 7)
	for i := 0; i < 6; i++ {
		cues = append(cues, subtitle.Cue{Start: float64(i), End: float64(i) + 1, Text: "irrelevant filler text"})
	}
	cues = append(cues, subtitle.Cue{Start: 6, End: 7, Text: "line number seven exactly"})

	if offset := estimator.Estimate(context.Background(), []byte("audio"), cues); offset != 0 {
		t.Fatalf("cue beyond the probe window must not match, got offset %v", offset)
	}
}

func TestDiceSimilarity(t *testing.T) {
	if got := diceSimilarity("", "abc"); got != 0 {
		t.Fatalf("empty input: got %v", got)
	}
	if got := diceSimilarity("night", "night"); got != 1 {
		t.Fatalf("identical strings: got %v", got)
	}
	high := diceSimilarity(normalizeText("おはようございます"), normalizeText("おはよう ございます。"))
	if high < 0.9 {
		t.Fatalf("normalized CJK variants should score high, got %v", high)
	}
	low := diceSimilarity(normalizeText("good morning"), normalizeText("見つけた"))
	if low >= matchThreshold {
		t.Fatalf("unrelated scripts should score low, got %v", low)
	}
}

func TestNormalizeText(t *testing.T) {
	if got := normalizeText("Hello, World!  "); got != "helloworld" {
		t.Fatalf("unexpected normalization: %q", got)
	}
	if got := normalizeText("「元気？」"); got != "元気" {
		t.Fatalf("unexpected CJK normalization: %q", got)
	}
}
