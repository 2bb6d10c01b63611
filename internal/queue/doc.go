// Package queue persists ingestion jobs in SQLite. Jobs move through a small
// lifecycle (pending, processing, completed, failed) and the oldest pending
// job is always claimed first, so a directory of episodes ingests in order.
package queue
