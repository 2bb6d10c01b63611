// Package episodenum guesses an episode number from a video title or
// filename. Patterns are tried from most to least specific so "S02E05"
// beats a stray trailing year.
package episodenum

import (
	"regexp"
	"strconv"
	"strings"
)

var patterns = []*regexp.Regexp{
	// S01E05, s1e5
	regexp.MustCompile(`(?i)s\d{1,2}e(\d{1,3})`),
	// Episode 5, Ep. 5, ep5
	regexp.MustCompile(`(?i)\bep(?:isode)?\.?\s*(\d{1,3})\b`),
	// "- 05", "#05"
	regexp.MustCompile(`(?:-|#)\s*(\d{1,3})\b`),
	// bare trailing number: "Title 05"
	regexp.MustCompile(`(\d{1,3})\s*$`),
}

// FromTitle extracts an episode number from a title. The boolean reports
// whether any pattern matched.
func FromTitle(title string) (int, bool) {
	title = strings.TrimSpace(title)
	if title == "" {
		return 0, false
	}
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(title)
		if match == nil {
			continue
		}
		number, err := strconv.Atoi(match[1])
		if err != nil || number <= 0 {
			continue
		}
		return number, true
	}
	return 0, false
}
