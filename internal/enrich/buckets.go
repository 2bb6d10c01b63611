package enrich

import (
	"math"

	"subpulse/internal/timeline"
)

// bucket is one contiguous run of dialogue nodes that falls inside the same
// wall-clock window of the video.
type bucket struct {
	index int
	nodes []timeline.DialogueNode
}

// bucketIndex maps a cue start time to its window. Starts exactly on a
// boundary belong to the later window.
func bucketIndex(start float64, bucketSeconds int) int {
	if bucketSeconds <= 0 || start <= 0 {
		return 0
	}
	return int(math.Floor(start / float64(bucketSeconds)))
}

// splitBuckets groups nodes by window. Nodes must already be sorted by start
// time; the result preserves that order within and across buckets. Windows
// with no dialogue produce no bucket.
func splitBuckets(nodes []timeline.DialogueNode, bucketSeconds int) []bucket {
	if len(nodes) == 0 {
		return nil
	}
	buckets := make([]bucket, 0, 1)
	current := bucket{index: bucketIndex(nodes[0].Start, bucketSeconds)}
	for _, node := range nodes {
		idx := bucketIndex(node.Start, bucketSeconds)
		if idx != current.index && len(current.nodes) > 0 {
			buckets = append(buckets, current)
			current = bucket{index: idx}
		}
		current.nodes = append(current.nodes, node)
	}
	if len(current.nodes) > 0 {
		buckets = append(buckets, current)
	}
	return buckets
}

// splitBatches slices a bucket's nodes into request-sized sub-batches.
func splitBatches(nodes []timeline.DialogueNode, batchSize int) [][]timeline.DialogueNode {
	if len(nodes) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = len(nodes)
	}
	batches := make([][]timeline.DialogueNode, 0, (len(nodes)+batchSize-1)/batchSize)
	for start := 0; start < len(nodes); start += batchSize {
		end := start + batchSize
		if end > len(nodes) {
			end = len(nodes)
		}
		batches = append(batches, nodes[start:end])
	}
	return batches
}
