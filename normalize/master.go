package normalize

import (
	"context"
	"fmt"

	"github.com/bobonovski/clusterlda/protocol"
	"github.com/bobonovski/clusterlda/store"
)

// Master drives both halves of the distributed normalization from
// the coordinator side: tell every worker to compute its partial
// normalizer, merge the results by class id, broadcast the merge,
// then tell every worker to scale. Mirrors
// original_source/src/master_main.cc's normalize_nwt.
func Master(ctx context.Context, kv store.KV, commandKeys, dataKeys []string, topics int) error {
	if err := protocol.CheckNonTerminatedAndUpdateKeys(kv, commandKeys, protocol.StartNormalization); err != nil {
		return fmt.Errorf("normalize: master phase A start: %w", err)
	}
	if err := protocol.CheckFinishedOrTerminated(ctx, kv, commandKeys, protocol.StartNormalization, protocol.FinishNormalization, 0); err != nil {
		return fmt.Errorf("normalize: master phase A wait: %w", err)
	}

	merged := make(map[string][]float64)
	for _, key := range dataKeys {
		partial, err := kv.GetHash(key, topics)
		if err != nil {
			return fmt.Errorf("normalize: master read partial normalizer %s: %w", key, err)
		}
		for classID, vec := range partial {
			acc, ok := merged[classID]
			if !ok {
				acc = make([]float64, topics)
				merged[classID] = acc
			}
			for k, v := range vec {
				acc[k] += v
			}
		}
	}

	for _, key := range dataKeys {
		if err := kv.SetHash(key, merged); err != nil {
			return fmt.Errorf("normalize: master broadcast merged normalizer %s: %w", key, err)
		}
	}

	if err := protocol.CheckNonTerminatedAndUpdateKeys(kv, commandKeys, protocol.StartNormalization); err != nil {
		return fmt.Errorf("normalize: master phase B start: %w", err)
	}
	if err := protocol.CheckFinishedOrTerminated(ctx, kv, commandKeys, protocol.StartNormalization, protocol.FinishNormalization, 0); err != nil {
		return fmt.Errorf("normalize: master phase B wait: %w", err)
	}
	return nil
}
