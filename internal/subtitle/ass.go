package subtitle

import (
	"strings"
)

// parseASS handles Advanced SubStation Alpha (.ass/.ssa) event sections. The
// Format: header declares column order; only the first N-1 declared fields
// are comma-split because the trailing Text field may itself contain commas.
func (p *Parser) parseASS(content string) []Cue {
	var (
		columns  []string
		startIdx = -1
		endIdx   = -1
		textIdx  = -1
		inEvents bool
		cues     []Cue
	)

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "["):
			inEvents = strings.EqualFold(trimmed, "[Events]")
		case inEvents && strings.HasPrefix(trimmed, "Format:"):
			columns = splitASSFields(strings.TrimPrefix(trimmed, "Format:"), -1)
			startIdx, endIdx, textIdx = -1, -1, -1
			for i, name := range columns {
				if strings.EqualFold(name, "Start") {
					startIdx = i
				}
				if strings.EqualFold(name, "End") {
					endIdx = i
				}
				if strings.EqualFold(name, "Text") {
					textIdx = i
				}
			}
		case strings.HasPrefix(trimmed, "Dialogue:"), strings.HasPrefix(trimmed, "Comment:"):
			if startIdx < 0 || endIdx < 0 || textIdx < 0 {
				continue
			}
			value := trimmed[strings.Index(trimmed, ":")+1:]
			fields := splitASSFields(value, len(columns))
			if len(fields) <= startIdx || len(fields) <= endIdx || len(fields) <= textIdx {
				continue
			}
			start, errStart := parseTimestamp(fields[startIdx])
			end, errEnd := parseTimestamp(fields[endIdx])
			if errStart != nil || errEnd != nil {
				continue
			}
			if text := p.joinCueText(strings.Split(fields[textIdx], `\N`)); text != "" {
				cues = append(cues, Cue{Start: start, End: end, Text: text})
			}
		}
	}
	return cues
}

// splitASSFields splits a comma-delimited ASS line into at most limit fields,
// leaving the remainder (the Text column) intact. limit < 0 splits fully,
// which is only safe for the Format: header.
func splitASSFields(value string, limit int) []string {
	var parts []string
	if limit < 0 {
		parts = strings.Split(value, ",")
	} else {
		parts = strings.SplitN(value, ",", limit)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
