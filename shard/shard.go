// Package shard partitions a contiguous range of indices across a
// fixed number of workers, the way executors divide the vocabulary
// and batch-file lists between themselves.
package shard

import "fmt"

// Range returns the half-open [begin, end) interval covered by shard
// index out of shards total shards, over a universe of size total.
// Shards are contiguous and disjoint; the last shard absorbs whatever
// remainder when the total doesn't divide evenly.
func Range(total, shards, index int) (begin, end int, err error) {
	if shards <= 0 {
		return 0, 0, fmt.Errorf("shard: shards must be positive, got %d", shards)
	}
	if index < 0 || index >= shards {
		return 0, 0, fmt.Errorf("shard: index %d out of range [0,%d)", index, shards)
	}
	if total < 0 {
		return 0, 0, fmt.Errorf("shard: total must be non-negative, got %d", total)
	}

	step := total / shards
	begin = index * step
	if index == shards-1 {
		end = total
	} else {
		end = begin + step
	}
	return begin, end, nil
}
