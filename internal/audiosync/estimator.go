package audiosync

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"subpulse/internal/analysis"
	"subpulse/internal/logging"
	"subpulse/internal/subtitle"
)

const (
	// maxProbeCues bounds how many opening cues are matched against the
	// transcript.
	maxProbeCues = 5
	// matchThreshold is the minimum Dice similarity for accepting a cue to
	// transcript-segment pairing.
	matchThreshold = 0.5
)

// Transcriber produces timed speech segments from a raw audio clip.
type Transcriber interface {
	TranscribeSample(ctx context.Context, audio []byte, filename string) ([]analysis.TranscriptSegment, error)
}

// Estimator derives the clock offset between a subtitle track and the audio
// it was authored for. Estimation is best effort: any failure yields a zero
// offset so ingestion can proceed with the scripted timings.
type Estimator struct {
	transcriber Transcriber
	logger      *slog.Logger
}

// NewEstimator builds an estimator around the given transcriber.
func NewEstimator(transcriber Transcriber, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Estimator{
		transcriber: transcriber,
		logger:      logging.NewComponentLogger(logger, "audiosync"),
	}
}

// Estimate transcribes the audio sample and matches the opening cues against
// the transcript. The returned offset is the amount to add to every cue so it
// lines up with the audio; 0 means no adjustment.
func (e *Estimator) Estimate(ctx context.Context, audio []byte, cues []subtitle.Cue) float64 {
	if e == nil || e.transcriber == nil {
		return 0
	}
	if len(audio) == 0 || len(cues) == 0 {
		return 0
	}

	segments, err := e.transcriber.TranscribeSample(ctx, audio, "sample.ogg")
	if err != nil {
		e.logger.Warn("transcription failed, keeping scripted timings", logging.Error(err))
		return 0
	}
	if len(segments) == 0 {
		e.logger.Warn("transcript is empty, keeping scripted timings")
		return 0
	}

	probe := cues
	if len(probe) > maxProbeCues {
		probe = probe[:maxProbeCues]
	}

	bestScore := 0.0
	bestOffset := 0.0
	matched := false
	for _, cue := range probe {
		cueText := normalizeText(cue.Text)
		if cueText == "" {
			continue
		}
		for _, segment := range segments {
			score := diceSimilarity(cueText, normalizeText(segment.Text))
			if score < matchThreshold || score <= bestScore {
				continue
			}
			bestScore = score
			bestOffset = segment.Start - cue.Start
			matched = true
		}
	}

	if !matched {
		e.logger.Warn("no transcript segment matched the opening cues, keeping scripted timings",
			logging.Int("cues_probed", len(probe)),
			logging.Int("segments", len(segments)),
		)
		return 0
	}

	e.logger.Info("estimated subtitle offset",
		logging.Float64("offset_seconds", bestOffset),
		logging.Float64("similarity", bestScore),
	)
	return bestOffset
}

// normalizeText lowercases and strips whitespace and punctuation so
// transcript spelling quirks do not defeat matching.
func normalizeText(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// diceSimilarity computes the Sorensen-Dice coefficient over rune bigrams.
// Bigrams of runes work for both spaced scripts and CJK text.
func diceSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	bigramsA := runeBigrams(a)
	bigramsB := runeBigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0
	}

	counts := make(map[string]int, len(bigramsA))
	for _, gram := range bigramsA {
		counts[gram]++
	}
	overlap := 0
	for _, gram := range bigramsB {
		if counts[gram] > 0 {
			counts[gram]--
			overlap++
		}
	}
	return 2 * float64(overlap) / float64(len(bigramsA)+len(bigramsB))
}

func runeBigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-1)
	for i := 0; i+1 < len(runes); i++ {
		grams = append(grams, string(runes[i:i+2]))
	}
	return grams
}
