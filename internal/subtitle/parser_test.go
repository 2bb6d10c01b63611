package subtitle

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseSRTTimestamps(t *testing.T) {
	raw := "1\n00:01:02,500 --> 00:01:05,000\nこんにちは\n\n2\n00:01:06.250 --> 00:01:08.750\n元気ですか\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 2 {
		t.Fatalf("cues = %d, want 2", len(cues))
	}
	if !almostEqual(cues[0].Start, 62.5) || !almostEqual(cues[0].End, 65.0) {
		t.Fatalf("cue 0 timing = %v-%v, want 62.5-65.0", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "こんにちは" {
		t.Fatalf("cue 0 text = %q", cues[0].Text)
	}
	if !almostEqual(cues[1].Start, 66.25) || !almostEqual(cues[1].End, 68.75) {
		t.Fatalf("cue 1 timing = %v-%v", cues[1].Start, cues[1].End)
	}
}

func TestParseShortTimestampForm(t *testing.T) {
	raw := "00:12.000 --> 00:14.500\nhello there\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if !almostEqual(cues[0].Start, 12.0) || !almostEqual(cues[0].End, 14.5) {
		t.Fatalf("timing = %v-%v, want 12.0-14.5", cues[0].Start, cues[0].End)
	}
}

func TestScriptFilteringKeepsTargetLines(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\n今日は晴れです\nIt is sunny today\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if cues[0].Text != "今日は晴れです" {
		t.Fatalf("text = %q, want only the Japanese line", cues[0].Text)
	}
}

func TestScriptFilteringFallsBackWhenNoTargetScript(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\nfirst line\nsecond line\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if cues[0].Text != "first line second line" {
		t.Fatalf("text = %q, want full joined block", cues[0].Text)
	}
}

func TestTagStripping(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\n<i>見て</i>{\\an8}ください\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if cues[0].Text != "見てください" {
		t.Fatalf("text = %q, want tags removed", cues[0].Text)
	}
}

func TestEmptyCueAfterCleaningIsDropped(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\n{\\pos(1,2)}\n\n2\n00:00:04,000 --> 00:00:05,000\n続き\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1 (tag-only cue dropped)", len(cues))
	}
	if cues[0].Text != "続き" {
		t.Fatalf("text = %q", cues[0].Text)
	}
}

func TestUnparseableFileYieldsEmpty(t *testing.T) {
	if cues := NewParser("ja").Parse("not a subtitle file\nat all\n"); len(cues) != 0 {
		t.Fatalf("cues = %d, want 0", len(cues))
	}
}

func TestParseASSRespectsFormatColumnOrder(t *testing.T) {
	raw := `[Script Info]
Title: Test

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.50,0:00:03.20,Default,,0,0,0,,台詞です、そうです
Comment: 0,0:00:04.00,0:00:05.00,Default,,0,0,0,,コメント行
`
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 2 {
		t.Fatalf("cues = %d, want 2", len(cues))
	}
	if !almostEqual(cues[0].Start, 1.5) || !almostEqual(cues[0].End, 3.2) {
		t.Fatalf("timing = %v-%v, want 1.5-3.2", cues[0].Start, cues[0].End)
	}
	if cues[0].Text != "台詞です、そうです" {
		t.Fatalf("text = %q, commas inside the Text field must survive", cues[0].Text)
	}
}

func TestParseASSStripsOverrideTagsAndLineBreaks(t *testing.T) {
	raw := `[Events]
Format: Layer, Start, End, Style, Text
Dialogue: 0,0:00:01.00,0:00:02.00,Default,{\i1}одна{\i0}\Nстрока
`
	cues := NewParser("ru").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if cues[0].Text != "одна строка" {
		t.Fatalf("text = %q", cues[0].Text)
	}
}

func TestVTTSettingsAfterEndTimestamp(t *testing.T) {
	raw := "WEBVTT\n\n00:00:01.000 --> 00:00:02.000 align:start position:10%\nおはよう\n"
	cues := NewParser("ja").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if !almostEqual(cues[0].End, 2.0) {
		t.Fatalf("end = %v, want 2.0", cues[0].End)
	}
}

func TestLatinLanguageSkipsScriptFiltering(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:02,000\nBonjour\nHello\n"
	cues := NewParser("fr").Parse(raw)
	if len(cues) != 1 {
		t.Fatalf("cues = %d, want 1", len(cues))
	}
	if cues[0].Text != "Bonjour Hello" {
		t.Fatalf("text = %q", cues[0].Text)
	}
}
