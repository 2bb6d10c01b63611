package subtitle

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Cue is one time-bounded subtitle event. The parser does not guarantee
// output sorted by start time; callers sort before use.
type Cue struct {
	Start float64
	End   float64
	Text  string
}

// Parser converts raw subtitle text into cues, filtering mixed-language
// content down to the configured study language's script when present.
type Parser struct {
	scripts []*unicode.RangeTable
}

// scriptsByLanguage maps ISO 639-1 primary subtags to the Unicode ranges
// that identify a line as being written in that language. Languages without
// an entry (Latin-script languages included) skip script filtering entirely.
var scriptsByLanguage = map[string][]*unicode.RangeTable{
	"ja": {unicode.Hiragana, unicode.Katakana, unicode.Han},
	"zh": {unicode.Han},
	"ko": {unicode.Hangul},
	"ru": {unicode.Cyrillic},
	"uk": {unicode.Cyrillic},
	"ar": {unicode.Arabic},
	"he": {unicode.Hebrew},
	"hi": {unicode.Devanagari},
	"th": {unicode.Thai},
	"el": {unicode.Greek},
}

// NewParser builds a parser for the given study language code ("ja",
// "ja-JP", "jpn" are all accepted; only the primary subtag matters).
func NewParser(language string) *Parser {
	code := strings.ToLower(strings.TrimSpace(language))
	if idx := strings.IndexAny(code, "-_"); idx > 0 {
		code = code[:idx]
	}
	if len(code) == 3 {
		// Common ISO 639-2 aliases seen in subtitle filenames.
		switch code {
		case "jpn":
			code = "ja"
		case "zho", "chi":
			code = "zh"
		case "kor":
			code = "ko"
		case "rus":
			code = "ru"
		case "ara":
			code = "ar"
		}
	}
	return &Parser{scripts: scriptsByLanguage[code]}
}

// Parse converts raw subtitle file text into cues. A completely unparseable
// file yields an empty slice and no error; callers decide whether that is
// fatal.
func (p *Parser) Parse(raw string) []Cue {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	if isASS(normalized) {
		return p.parseASS(normalized)
	}
	return p.parseSRT(normalized)
}

func isASS(content string) bool {
	return strings.Contains(content, "[Events]") ||
		strings.HasPrefix(content, "Dialogue:") ||
		strings.Contains(content, "\nDialogue:")
}

func (p *Parser) parseSRT(content string) []Cue {
	blocks := strings.Split(strings.TrimSpace(content), "\n\n")
	var cues []Cue
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		cues = append(cues, p.parseSRTBlock(block)...)
	}
	return cues
}

func (p *Parser) parseSRTBlock(block string) []Cue {
	lines := strings.Split(block, "\n")
	var cues []Cue
	var current *Cue
	var textLines []string

	flush := func() {
		if current == nil {
			return
		}
		if text := p.joinCueText(textLines); text != "" {
			current.Text = text
			cues = append(cues, *current)
		}
		current = nil
		textLines = nil
	}

	for _, line := range lines {
		if start, end, ok := parseTimingLine(line); ok {
			flush()
			current = &Cue{Start: start, End: end}
			continue
		}
		trimmed := strings.TrimSpace(line)
		if current == nil {
			// Cue index numbers (and stray headers like WEBVTT) before the
			// first timing line carry no text.
			continue
		}
		if trimmed == "" {
			continue
		}
		textLines = append(textLines, trimmed)
	}
	flush()
	return cues
}

// parseTimingLine matches "start --> end" cue timing lines.
func parseTimingLine(line string) (float64, float64, bool) {
	if !strings.Contains(line, "-->") {
		return 0, 0, false
	}
	parts := strings.SplitN(line, "-->", 2)
	start, errStart := parseTimestamp(parts[0])
	// VTT timing lines may carry cue settings after the end timestamp.
	endField := strings.TrimSpace(parts[1])
	if idx := strings.IndexAny(endField, " \t"); idx > 0 {
		endField = endField[:idx]
	}
	end, errEnd := parseTimestamp(endField)
	if errStart != nil || errEnd != nil {
		return 0, 0, false
	}
	return start, end, true
}

// parseTimestamp accepts H:MM:SS,mmm, H:MM:SS.mmm, and MM:SS.mmm forms.
func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ",", ".")
	fields := strings.Split(value, ":")
	if len(fields) < 2 || len(fields) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}

	var hours, minutes int
	var err error
	idx := 0
	if len(fields) == 3 {
		if hours, err = strconv.Atoi(strings.TrimSpace(fields[0])); err != nil {
			return 0, fmt.Errorf("invalid timestamp %q", value)
		}
		idx = 1
	}
	if minutes, err = strconv.Atoi(strings.TrimSpace(fields[idx])); err != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(fields[idx+1]), 64)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60) + seconds, nil
}

var (
	angleTagRe = regexp.MustCompile(`<[^>]*>`)
	braceTagRe = regexp.MustCompile(`\{[^}]*\}`)
)

var escapeReplacer = strings.NewReplacer(`\N`, " ", `\n`, " ", `\h`, " ")

// cleanLine strips inline markup tags and normalizes escape sequences.
func cleanLine(line string) string {
	line = angleTagRe.ReplaceAllString(line, "")
	line = braceTagRe.ReplaceAllString(line, "")
	line = escapeReplacer.Replace(line)
	return strings.Join(strings.Fields(line), " ")
}

// joinCueText cleans the cue's lines and applies the target-script retention
// policy: when any line contains the study language's script, only those
// lines survive (dropping bundled reference-language lines); when none do,
// the whole block is kept so single-language subtitles still parse.
func (p *Parser) joinCueText(lines []string) string {
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if c := cleanLine(line); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	if len(p.scripts) > 0 {
		var matching []string
		for _, line := range cleaned {
			if p.containsTargetScript(line) {
				matching = append(matching, line)
			}
		}
		if len(matching) > 0 {
			cleaned = matching
		}
	}
	return strings.Join(cleaned, " ")
}

func (p *Parser) containsTargetScript(line string) bool {
	for _, r := range line {
		for _, table := range p.scripts {
			if unicode.Is(table, r) {
				return true
			}
		}
	}
	return false
}
