// Package normalize implements the two-phase reduce/broadcast
// distributed normalization that turns the accumulator matrix N into
// the probability matrix Φ.
package normalize

import (
	"context"
	"fmt"

	"github.com/golang/glog"

	"github.com/bobonovski/clusterlda/matrix"
	"github.com/bobonovski/clusterlda/protocol"
	"github.com/bobonovski/clusterlda/store"
)

const floor = 1e-16

// PartialNormalizer computes, over only the token range [begin,end)
// of nwt, a per-class-id sum of max(N[t,·],0), mirroring
// original_source/src/executor_main.cc's FindNt.
func PartialNormalizer(nwt matrix.Matrix, begin, end int) (map[string][]float64, error) {
	topics := nwt.TopicSize()
	out := make(map[string][]float64)

	for tokenID := begin; tokenID < end; tokenID++ {
		tok := nwt.Token(tokenID)
		row, err := nwt.Get(tokenID)
		if err != nil {
			return nil, fmt.Errorf("normalize: partial normalizer read token %d: %w", tokenID, err)
		}

		acc, ok := out[tok.ClassID]
		if !ok {
			acc = make([]float64, topics)
			out[tok.ClassID] = acc
		}
		for k, v := range row {
			if v > 0 {
				acc[k] += float64(v)
			}
		}
	}
	return out, nil
}

// Worker runs both halves of the worker-side normalization protocol
// for the token range [begin,end): publish a partial normalizer, wait
// for the merged result, then scale N into Φ for the same range.
// Mirrors original_source/src/executor_main.cc's NormalizeNwt.
func Worker(ctx context.Context, kv store.KV, pwt, nwt matrix.Matrix, begin, end int, commandKey, dataKey string) error {
	if err := protocol.WaitForFlag(ctx, kv, commandKey, protocol.StartNormalization); err != nil {
		return fmt.Errorf("normalize: worker phase A wait: %w", err)
	}

	glog.Infof("normalize: worker computing partial normalizer for [%d,%d)", begin, end)

	nt, err := PartialNormalizer(nwt, begin, end)
	if err != nil {
		return err
	}
	if err := kv.SetHash(dataKey, nt); err != nil {
		return fmt.Errorf("normalize: worker publish partial normalizer: %w", err)
	}

	if err := protocol.CheckNonTerminatedAndUpdate(kv, commandKey, protocol.FinishNormalization, false); err != nil {
		return fmt.Errorf("normalize: worker phase A finish: %w", err)
	}

	if err := protocol.WaitForFlag(ctx, kv, commandKey, protocol.StartNormalization); err != nil {
		return fmt.Errorf("normalize: worker phase B wait: %w", err)
	}

	topics := nwt.TopicSize()
	merged, err := kv.GetHash(dataKey, topics)
	if err != nil {
		return fmt.Errorf("normalize: worker read merged normalizer: %w", err)
	}

	zeros := make([]float32, topics)
	for tokenID := begin; tokenID < end; tokenID++ {
		tok := nwt.Token(tokenID)
		classNt, ok := merged[tok.ClassID]
		if !ok {
			classNt = make([]float64, topics)
		}

		prevN, err := nwt.GetAndSet(tokenID, zeros)
		if err != nil {
			return fmt.Errorf("normalize: worker get-and-zero token %d: %w", tokenID, err)
		}

		scaled := make([]float32, topics)
		for k := range scaled {
			var v float32
			if classNt[k] > 0 {
				n := float64(prevN[k])
				if n < 0 {
					n = 0
				}
				v = float32(n / classNt[k])
				if v < floor {
					v = 0
				}
			}
			scaled[k] = v
		}
		if err := pwt.Set(tokenID, scaled); err != nil {
			return fmt.Errorf("normalize: worker write phi row %d: %w", tokenID, err)
		}
	}

	if err := protocol.CheckNonTerminatedAndUpdate(kv, commandKey, protocol.FinishNormalization, false); err != nil {
		return fmt.Errorf("normalize: worker phase B finish: %w", err)
	}
	return nil
}
