// Package audiosync estimates the clock offset between a subtitle track and
// the video's audio by transcribing the opening seconds and fuzzy-matching
// the transcript against the first cues.
package audiosync
