// Command subpulse is the CLI entry point: it queues video/subtitle pairs,
// runs the enrichment worker, and inspects the episode store.
package main
