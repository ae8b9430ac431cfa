// Command executor runs one executor process: it connects to the
// shared store and drives its token/batch shard through the protocol
// until the master signals termination. Mirrors
// original_source/src/executor_main.cc's main(), following
// bobonovski-gotm/main.go's flag-parse-then-dispatch shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"github.com/bobonovski/clusterlda/config"
	"github.com/bobonovski/clusterlda/executor"
	"github.com/bobonovski/clusterlda/store"
)

func main() {
	defer glog.Flush()

	cfg, err := config.ParseExecutor(os.Args[1:])
	if err != nil {
		glog.Exitf("executor: %v", err)
	}

	kv, err := store.Dial(cfg.RedisIP + ":" + cfg.RedisPort)
	if err != nil {
		glog.Exitf("executor: %v", err)
	}
	defer kv.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := executor.Run(ctx, cfg, kv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
