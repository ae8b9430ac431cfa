package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/bobonovski/clusterlda/store"
)

// WaitForFlag polls key until it reads flag (success), StartTermination
// (clean termination, reported as ErrTerminated), or ctx is cancelled
// (e.g. on SIGINT, reported as ctx.Err()).
func WaitForFlag(ctx context.Context, kv store.KV, key string, flag Flag) error {
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		val, err := kv.GetFlag(key)
		if err != nil {
			return fmt.Errorf("protocol: read command slot %s: %w", key, err)
		}
		switch Flag(val) {
		case flag:
			return nil
		case StartTermination:
			return ErrTerminated
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// CheckNonTerminatedAndUpdate writes flag to key unless the key
// already reads StartTermination, in which case it returns
// ErrTerminated and writes nothing. Passing force=true skips the
// check and always writes (used by the worker's own termination exit
// path).
func CheckNonTerminatedAndUpdate(kv store.KV, key string, flag Flag, force bool) error {
	if !force {
		val, err := kv.GetFlag(key)
		if err != nil {
			return fmt.Errorf("protocol: read command slot %s: %w", key, err)
		}
		if Flag(val) == StartTermination {
			return ErrTerminated
		}
	}
	if err := kv.SetFlag(key, string(flag)); err != nil {
		return fmt.Errorf("protocol: write command slot %s: %w", key, err)
	}
	return nil
}
