// Package analysis wraps an OpenAI-compatible API for two jobs: enriching
// batches of subtitle lines with token-level annotations, and transcribing
// short audio excerpts for clock-offset estimation. All requests retry with
// exponential backoff when the provider rate limits.
package analysis
