// Package executor implements the executor process's phase machine:
// connect, initialize its token/batch shard, optionally normalize,
// then loop E-step/normalize rounds until the master signals
// termination. Mirrors original_source/src/executor_main.cc's main()
// and, for the per-thread shard split, executor_thread.cc's
// ExecutorThread.
package executor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"

	"github.com/bobonovski/clusterlda/batch"
	"github.com/bobonovski/clusterlda/config"
	"github.com/bobonovski/clusterlda/estep"
	"github.com/bobonovski/clusterlda/matrix"
	"github.com/bobonovski/clusterlda/normalize"
	"github.com/bobonovski/clusterlda/procstats"
	"github.com/bobonovski/clusterlda/protocol"
	"github.com/bobonovski/clusterlda/seed"
	"github.com/bobonovski/clusterlda/shard"
	"github.com/bobonovski/clusterlda/store"
	"github.com/bobonovski/clusterlda/token"
)

// thread holds one worker thread's shard of tokens and batches,
// generalizing ExecutorThread's constructor arguments.
type thread struct {
	executorID string
	threadID   int
	commandKey string
	dataKey    string

	tokenBegin, tokenEnd int
	batchBegin, batchEnd int
}

// listBatchFiles returns batch file paths in a stable, cross-process
// consistent order (lexical by name), matching the
// requirement that every worker iterate the batch directory
// identically.
func listBatchFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("executor: read batches dir %s: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

func loadVocabLines(vocabPath string) ([]string, error) {
	f, err := os.Open(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("executor: open vocab %s: %w", vocabPath, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Run drives the full executor process: it loads the vocabulary into
// pwt/nwt identically across all threads, shards this executor's
// token and batch ranges across cfg.NumThreads goroutines, and runs
// each thread's phase machine until every thread observes termination
// or an error.
func Run(ctx context.Context, cfg *config.Executor, kv store.KV) error {
	cacheMode := matrix.CacheNone
	if cfg.CachePhi {
		cacheMode = matrix.CacheRead
	}
	pwt := matrix.NewKVMatrix(kv, "pwt", cfg.NumTopics, cacheMode)
	nwt := matrix.NewKVMatrix(kv, "nwt", cfg.NumTopics, matrix.CacheNone)

	if err := loadVocab(cfg, pwt, nwt); err != nil {
		return err
	}
	glog.Infof("executor %s: loaded %d tokens; matrices reset: %v", cfg.ExecutorID, pwt.TokenSize(), !cfg.ContinueFitting)

	batchFiles, err := listBatchFiles(cfg.BatchesDirPath)
	if err != nil {
		return err
	}

	threads := buildThreads(cfg)

	g, gctx := errgroup.WithContext(ctx)
	for _, th := range threads {
		th := th
		g.Go(func() error {
			return runThread(gctx, cfg, kv, pwt, nwt, batchFiles, th)
		})
	}
	return g.Wait()
}

func buildThreads(cfg *config.Executor) []thread {
	totalTokens := cfg.TokenEndIndex - cfg.TokenBeginIndex
	totalBatches := cfg.BatchEndIndex - cfg.BatchBeginIndex

	threads := make([]thread, cfg.NumThreads)
	for i := 0; i < cfg.NumThreads; i++ {
		tBegin, tEnd, _ := shard.Range(totalTokens, cfg.NumThreads, i)
		bBegin, bEnd, _ := shard.Range(totalBatches, cfg.NumThreads, i)
		threads[i] = thread{
			executorID: cfg.ExecutorID,
			threadID:   i,
			commandKey: protocol.CommandKey(cfg.ExecutorID, i),
			dataKey:    protocol.DataKey(cfg.ExecutorID, i),
			tokenBegin: cfg.TokenBeginIndex + tBegin,
			tokenEnd:   cfg.TokenBeginIndex + tEnd,
			batchBegin: cfg.BatchBeginIndex + bBegin,
			batchEnd:   cfg.BatchBeginIndex + bEnd,
		}
	}
	return threads
}

// loadVocab registers every vocabulary line into pwt and nwt, in
// vocabulary-file order, exactly once per process (every thread
// shares the same pwt/nwt instances). When not continuing a prior fit,
// tokens inside [TokenBeginIndex,TokenEndIndex) are written to the
// store (a zero pwt row and a seeded nwt row); every other token is
// only registered locally, with no store write, so the token id sets
// line up across executors.
func loadVocab(cfg *config.Executor, pwt, nwt matrix.Matrix) error {
	lines, err := loadVocabLines(cfg.VocabPath)
	if err != nil {
		return err
	}

	zeros := make([]float32, cfg.NumTopics)
	for i, line := range lines {
		tok := token.New(token.DefaultClass, line)
		publish := !cfg.ContinueFitting && i >= cfg.TokenBeginIndex && i < cfg.TokenEndIndex

		if _, err := pwt.AddToken(tok, publish, zeros); err != nil {
			return fmt.Errorf("executor: register phi token %q: %w", line, err)
		}

		nRow := zeros
		if publish {
			nRow = seed.TokenVector(cfg.NumTopics, tok, -1)
		}
		if _, err := nwt.AddToken(tok, publish, nRow); err != nil {
			return fmt.Errorf("executor: register n token %q: %w", line, err)
		}
	}
	return nil
}

func sumBatchTokenSlots(batchFiles []string, begin, end int) (float64, int, error) {
	var total float64
	processed := 0
	for i := begin; i < end && i < len(batchFiles); i++ {
		b, err := batch.Load(batchFiles[i])
		if err != nil {
			return 0, 0, err
		}
		for _, item := range b.Items {
			for _, w := range item.TokenWeight {
				total += float64(w)
			}
		}
		processed++
	}
	return total, processed, nil
}

func runThread(ctx context.Context, cfg *config.Executor, kv store.KV, pwt, nwt matrix.Matrix, batchFiles []string, th thread) error {
	if err := protocol.CheckNonTerminatedAndUpdate(kv, th.commandKey, protocol.FinishGlobalStart, true); err != nil {
		return fmt.Errorf("executor thread %s: step 0: %w", th.commandKey, err)
	}
	if err := protocol.WaitForFlag(ctx, kv, th.commandKey, protocol.StartInitialization); err != nil {
		return fmt.Errorf("executor thread %s: step 1 start: %w", th.commandKey, err)
	}

	n, processed, err := sumBatchTokenSlots(batchFiles, th.batchBegin, th.batchEnd)
	if err != nil {
		return fmt.Errorf("executor thread %s: preparations: %w", th.commandKey, err)
	}
	if err := kv.SetFlag(th.dataKey, strconv.FormatFloat(n, 'f', -1, 64)); err != nil {
		return fmt.Errorf("executor thread %s: publish token-slot count: %w", th.commandKey, err)
	}
	glog.Infof("executor thread %s: %v token slots across %d batches", th.commandKey, n, processed)

	if err := protocol.CheckNonTerminatedAndUpdate(kv, th.commandKey, protocol.FinishInitialization, false); err != nil {
		return fmt.Errorf("executor thread %s: step 1 finish: %w", th.commandKey, err)
	}

	if !cfg.ContinueFitting {
		if err := normalize.Worker(ctx, kv, pwt, nwt, th.tokenBegin, th.tokenEnd, th.commandKey, th.dataKey); err != nil {
			return fmt.Errorf("executor thread %s: initial normalization: %w", th.commandKey, err)
		}
	}

	for {
		if err := protocol.WaitForFlag(ctx, kv, th.commandKey, protocol.StartIteration); err != nil {
			if err == protocol.ErrTerminated {
				break
			}
			return fmt.Errorf("executor thread %s: wait iteration: %w", th.commandKey, err)
		}

		var perplexity float32
		for i := th.batchBegin; i < th.batchEnd && i < len(batchFiles); i++ {
			b, err := batch.Load(batchFiles[i])
			if err != nil {
				return fmt.Errorf("executor thread %s: load batch: %w", th.commandKey, err)
			}
			contribution, err := estep.Run(b, pwt, nwt, cfg.NumInnerIters)
			if err != nil {
				return fmt.Errorf("executor thread %s: e-step on %s: %w", th.commandKey, b.ID, err)
			}
			perplexity += contribution
			pwt.ClearCache()
			if cfg.DebugPrint {
				glog.Infof("executor thread %s: batch %s done, perplexity contribution %v", th.commandKey, b.ID, contribution)
			}
		}

		if err := kv.SetFlag(th.dataKey, strconv.FormatFloat(float64(perplexity), 'f', -1, 32)); err != nil {
			return fmt.Errorf("executor thread %s: publish perplexity: %w", th.commandKey, err)
		}

		if err := protocol.CheckNonTerminatedAndUpdate(kv, th.commandKey, protocol.FinishIteration, false); err != nil {
			return fmt.Errorf("executor thread %s: finish iteration: %w", th.commandKey, err)
		}

		if err := normalize.Worker(ctx, kv, pwt, nwt, th.tokenBegin, th.tokenEnd, th.commandKey, th.dataKey); err != nil {
			return fmt.Errorf("executor thread %s: normalize: %w", th.commandKey, err)
		}

		glog.Infof("executor thread %s: maxrss=%d KB", th.commandKey, procstats.PeakRSSKB())
	}

	return protocol.CheckNonTerminatedAndUpdate(kv, th.commandKey, protocol.FinishTermination, true)
}
