// Package workflow runs the ingestion worker. One goroutine claims the
// oldest pending queue item and walks it through subtitle parsing, media
// probing, audio-based offset estimation, chunked enrichment, and library
// persistence, with cooldowns between jobs so a bulk add never hammers the
// analysis provider.
package workflow
