package config

import (
	"flag"
	"fmt"
	"time"
)

// Master holds the parsed master-process flags, grounded on
// original_source/src/master_main.cc's Parameters struct.
type Master struct {
	NumTopics          int
	NumOuterIters      int
	NumExecutors       int
	NumExecutorThreads int
	BatchesDirPath     string
	VocabPath          string
	RedisIP            string
	RedisPort          string
	ShowTopTokens      bool
	ContinueFitting    bool
	StartTimeout       time.Duration
}

// ParseMaster defines and parses the master flag set.
func ParseMaster(args []string) (*Master, error) {
	fs := flag.NewFlagSet("master", flag.ContinueOnError)

	c := &Master{}
	fs.IntVar(&c.NumTopics, "num-topics", 0, "number of topics T")
	fs.IntVar(&c.NumOuterIters, "num-outer-iter", 10, "number of outer EM iterations")
	fs.IntVar(&c.NumExecutors, "num-executors", 1, "number of executor processes")
	fs.IntVar(&c.NumExecutorThreads, "num-executor-threads", 1, "worker threads per executor")
	fs.StringVar(&c.BatchesDirPath, "batches-dir-path", "", "directory of batch files")
	fs.StringVar(&c.VocabPath, "vocab-path", "", "vocabulary file path")
	fs.StringVar(&c.RedisIP, "redis-ip", "127.0.0.1", "shared store host")
	fs.StringVar(&c.RedisPort, "redis-port", "6379", "shared store port")
	fs.BoolVar(&c.ShowTopTokens, "show-top-tokens", false, "print top tokens per topic after fitting")
	fs.BoolVar(&c.ContinueFitting, "continue-fitting", false, "reuse existing Phi/N instead of reinitializing")
	fs.DurationVar(&c.StartTimeout, "start-timeout", 5*time.Second, "timeout for the initial executor spawn handshake")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the invariants check_parameters enforced in the
// original master.
func (c *Master) Validate() error {
	if c.NumTopics <= 0 {
		return fmt.Errorf("config: num-topics must be positive, got %d", c.NumTopics)
	}
	if c.NumOuterIters <= 0 {
		return fmt.Errorf("config: num-outer-iter must be positive, got %d", c.NumOuterIters)
	}
	if c.NumExecutors <= 0 {
		return fmt.Errorf("config: num-executors must be positive, got %d", c.NumExecutors)
	}
	if c.NumExecutorThreads <= 0 {
		return fmt.Errorf("config: num-executor-threads must be positive, got %d", c.NumExecutorThreads)
	}
	if c.BatchesDirPath == "" {
		return fmt.Errorf("config: batches-dir-path is required")
	}
	if c.VocabPath == "" {
		return fmt.Errorf("config: vocab-path is required")
	}
	if c.StartTimeout <= 0 {
		return fmt.Errorf("config: start-timeout must be positive, got %s", c.StartTimeout)
	}
	return nil
}
