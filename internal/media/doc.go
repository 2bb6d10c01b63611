// Package media shells out to ffprobe and ffmpeg for container inspection and
// short audio excerpt extraction.
package media
