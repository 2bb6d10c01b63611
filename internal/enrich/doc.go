// Package enrich drives the chunked annotation of a subtitle timeline:
// dialogue is walked in five-minute buckets, each bucket is sent in small
// sub-batches with pacing delays, and failed sub-batches fall back to the
// raw lines instead of aborting the episode.
package enrich
