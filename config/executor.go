// Package config parses and validates the executor and master CLI
// flags, following bobonovski-gotm/main.go's flag-based style.
package config

import (
	"flag"
	"fmt"
)

// Executor holds the parsed executor-process flags, grounded on
// original_source/src/executor_main.cc's Parameters struct.
type Executor struct {
	NumTopics       int
	NumInnerIters   int
	NumThreads      int
	BatchesDirPath  string
	VocabPath       string
	RedisIP         string
	RedisPort       string
	ContinueFitting bool
	CachePhi        bool
	TokenBeginIndex int
	TokenEndIndex   int
	BatchBeginIndex int
	BatchEndIndex   int
	ExecutorID      string
	DebugPrint      bool
}

// ParseExecutor defines and parses the executor flag set.
func ParseExecutor(args []string) (*Executor, error) {
	fs := flag.NewFlagSet("executor", flag.ContinueOnError)

	c := &Executor{}
	fs.IntVar(&c.NumTopics, "num-topics", 0, "number of topics T")
	fs.IntVar(&c.NumInnerIters, "num-inner-iter", 10, "number of E-step inner iterations")
	fs.IntVar(&c.NumThreads, "num-threads", 1, "number of worker threads in this executor")
	fs.StringVar(&c.BatchesDirPath, "batches-dir-path", "", "directory of batch files")
	fs.StringVar(&c.VocabPath, "vocab-path", "", "vocabulary file path")
	fs.StringVar(&c.RedisIP, "redis-ip", "127.0.0.1", "shared store host")
	fs.StringVar(&c.RedisPort, "redis-port", "6379", "shared store port")
	fs.BoolVar(&c.ContinueFitting, "continue-fitting", false, "reuse existing Phi/N instead of reinitializing")
	fs.BoolVar(&c.CachePhi, "cache-phi", false, "enable the Phi read cache")
	fs.IntVar(&c.TokenBeginIndex, "token-begin-index", 0, "first vocabulary index owned by this executor")
	fs.IntVar(&c.TokenEndIndex, "token-end-index", 0, "one past the last vocabulary index owned by this executor")
	fs.IntVar(&c.BatchBeginIndex, "batch-begin-index", 0, "first batch index owned by this executor")
	fs.IntVar(&c.BatchEndIndex, "batch-end-index", 0, "one past the last batch index owned by this executor")
	fs.StringVar(&c.ExecutorID, "executor-id", "0", "this executor's identifier in the command/data key namespace")
	fs.BoolVar(&c.DebugPrint, "debug-print", false, "log per-batch progress at INFO level")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the invariants LogParams/CheckParams enforced in
// the original executor: positive topic/thread/iteration counts,
// required paths, and token/batch shard ranges whose end is not before
// their begin (an empty range is accepted).
func (c *Executor) Validate() error {
	if c.NumTopics <= 0 {
		return fmt.Errorf("config: num-topics must be positive, got %d", c.NumTopics)
	}
	if c.NumInnerIters <= 0 {
		return fmt.Errorf("config: num-inner-iter must be positive, got %d", c.NumInnerIters)
	}
	if c.NumThreads <= 0 {
		return fmt.Errorf("config: num-threads must be positive, got %d", c.NumThreads)
	}
	if c.BatchesDirPath == "" {
		return fmt.Errorf("config: batches-dir-path is required")
	}
	if c.VocabPath == "" {
		return fmt.Errorf("config: vocab-path is required")
	}
	if c.TokenEndIndex < c.TokenBeginIndex {
		return fmt.Errorf("config: token-end-index %d must be >= token-begin-index %d", c.TokenEndIndex, c.TokenBeginIndex)
	}
	if c.BatchEndIndex < c.BatchBeginIndex {
		return fmt.Errorf("config: batch-end-index %d must be >= batch-begin-index %d", c.BatchEndIndex, c.BatchBeginIndex)
	}
	return nil
}
