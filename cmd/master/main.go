// Command master runs the coordinator process: it connects to the
// shared store, drives every executor thread through the protocol,
// and reports perplexity per outer iteration. Mirrors
// original_source/src/master_main.cc's main(), following
// bobonovski-gotm/main.go's flag-parse-then-dispatch shape.
//
// If the master dies before it broadcasts termination, executors keep
// polling their command slots; stop them by hand, for example with
// `pkill -f -- -executor-id`.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/golang/glog"

	"github.com/bobonovski/clusterlda/config"
	"github.com/bobonovski/clusterlda/master"
	"github.com/bobonovski/clusterlda/store"
)

func main() {
	defer glog.Flush()

	cfg, err := config.ParseMaster(os.Args[1:])
	if err != nil {
		glog.Exitf("master: %v", err)
	}

	kv, err := store.Dial(cfg.RedisIP + ":" + cfg.RedisPort)
	if err != nil {
		glog.Exitf("master: %v", err)
	}
	defer kv.Close()

	if err := master.Run(context.Background(), cfg, kv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
