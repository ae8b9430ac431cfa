// Package master implements the coordinator process: it drives every
// executor thread through the barrier-synchronized protocol, merges
// per-shard normalizers and perplexity, and reports progress. Mirrors
// original_source/src/master_main.cc's main().
package master

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/golang/glog"

	"github.com/bobonovski/clusterlda/config"
	"github.com/bobonovski/clusterlda/matrix"
	"github.com/bobonovski/clusterlda/normalize"
	"github.com/bobonovski/clusterlda/procstats"
	"github.com/bobonovski/clusterlda/protocol"
	"github.com/bobonovski/clusterlda/store"
	"github.com/bobonovski/clusterlda/topwords"
)

func threadKeys(cfg *config.Master) (commandKeys, dataKeys []string) {
	for e := 0; e < cfg.NumExecutors; e++ {
		executorID := strconv.Itoa(e)
		for th := 0; th < cfg.NumExecutorThreads; th++ {
			commandKeys = append(commandKeys, protocol.CommandKey(executorID, th))
			dataKeys = append(dataKeys, protocol.DataKey(executorID, th))
		}
	}
	return commandKeys, dataKeys
}

// Run drives the outer EM loop from the coordinator side and prints a
// final report to stdout (top tokens, when requested).
func Run(ctx context.Context, cfg *config.Master, kv store.KV) error {
	commandKeys, dataKeys := threadKeys(cfg)

	glog.Infof("master: connecting to %d executor threads", len(commandKeys))
	if err := protocol.CheckFinishedOrTerminated(ctx, kv, commandKeys, protocol.StartGlobalStart, protocol.FinishGlobalStart, cfg.StartTimeout); err != nil {
		return terminateAll(kv, commandKeys, fmt.Errorf("master: step 0: %w", err))
	}

	if err := protocol.CheckNonTerminatedAndUpdateKeys(kv, commandKeys, protocol.StartInitialization); err != nil {
		return terminateAll(kv, commandKeys, fmt.Errorf("master: step 1 start: %w", err))
	}
	if err := protocol.CheckFinishedOrTerminated(ctx, kv, commandKeys, protocol.StartInitialization, protocol.FinishInitialization, 0); err != nil {
		return terminateAll(kv, commandKeys, fmt.Errorf("master: step 1 finish: %w", err))
	}

	n, err := sumDataSlots(kv, dataKeys)
	if err != nil {
		return terminateAll(kv, commandKeys, err)
	}
	glog.Infof("master: all executors started, total token slots: %v", n)
	fmt.Printf("Master: all executors have started! Total number of token slots in collection: %v\n", n)

	if !cfg.ContinueFitting {
		if err := normalize.Master(ctx, kv, commandKeys, dataKeys, cfg.NumTopics); err != nil {
			return terminateAll(kv, commandKeys, fmt.Errorf("master: initial normalization: %w", err))
		}
	}

	for iteration := 0; iteration < cfg.NumOuterIters; iteration++ {
		glog.Infof("master: start iteration %d", iteration)

		if err := protocol.CheckNonTerminatedAndUpdateKeys(kv, commandKeys, protocol.StartIteration); err != nil {
			return terminateAll(kv, commandKeys, fmt.Errorf("master: iteration %d start: %w", iteration, err))
		}
		if err := protocol.CheckFinishedOrTerminated(ctx, kv, commandKeys, protocol.StartIteration, protocol.FinishIteration, 0); err != nil {
			return terminateAll(kv, commandKeys, fmt.Errorf("master: iteration %d wait: %w", iteration, err))
		}

		perplexitySum, err := sumDataSlots(kv, dataKeys)
		if err != nil {
			return terminateAll(kv, commandKeys, err)
		}

		if err := normalize.Master(ctx, kv, commandKeys, dataKeys, cfg.NumTopics); err != nil {
			return terminateAll(kv, commandKeys, fmt.Errorf("master: iteration %d normalize: %w", iteration, err))
		}

		perplexity := math.Exp(-perplexitySum / n)
		glog.Infof("master: iteration %d perplexity=%v maxrss=%dKB", iteration, perplexity, procstats.PeakRSSKB())
		fmt.Printf("Iteration: %d, perplexity: %v\n", iteration, perplexity)
	}

	for _, key := range commandKeys {
		if err := kv.SetFlag(key, string(protocol.StartTermination)); err != nil {
			return fmt.Errorf("master: broadcast termination: %w", err)
		}
	}
	if err := protocol.CheckFinishedOrTerminated(ctx, kv, commandKeys, protocol.StartTermination, protocol.FinishTermination, 0); err != nil {
		return fmt.Errorf("master: wait termination: %w", err)
	}

	if cfg.ShowTopTokens {
		return reportTopTokens(kv, cfg)
	}
	return nil
}

func sumDataSlots(kv store.KV, keys []string) (float64, error) {
	var total float64
	for _, key := range keys {
		raw, err := kv.GetFlag(key)
		if err != nil {
			return 0, fmt.Errorf("master: read data slot %s: %w", key, err)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("master: parse data slot %s value %q: %w", key, raw, err)
		}
		total += v
	}
	return total, nil
}

func terminateAll(kv store.KV, commandKeys []string, cause error) error {
	for _, key := range commandKeys {
		_ = kv.SetFlag(key, string(protocol.StartTermination))
	}
	return cause
}

func reportTopTokens(kv store.KV, cfg *config.Master) error {
	pwt := matrix.NewKVMatrix(kv, "pwt", cfg.NumTopics, matrix.CacheNone)
	if err := topwords.LoadVocabInto(pwt, cfg.VocabPath); err != nil {
		return fmt.Errorf("master: top tokens: %w", err)
	}
	return topwords.Print(os.Stdout, pwt, 10)
}
