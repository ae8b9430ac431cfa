package protocol

import (
	"context"
	"fmt"
	"time"

	"github.com/bobonovski/clusterlda/store"
)

// ErrTerminated is returned by the master-side functions when any
// observed command slot reads FinishTermination (other than as the
// flag CheckFinishedOrTerminated is waiting for), and by WaitForFlag
// when the worker's slot reads StartTermination.
var ErrTerminated = fmt.Errorf("protocol: worker reported termination")

// ErrTimeout is returned by CheckFinishedOrTerminated when the round
// does not complete within the given timeout.
var ErrTimeout = fmt.Errorf("protocol: timed out waiting for round to finish")

// CheckFinishedOrTerminated polls every key in keys until each reads
// newFlag, any reads FinishTermination, or timeout elapses. When
// newFlag is FinishTermination itself, that value counts as success. A
// non-positive timeout means wait indefinitely (used by every round
// except the initial spawn handshake).
func CheckFinishedOrTerminated(ctx context.Context, kv store.KV, keys []string, oldFlag, newFlag Flag, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		done, err := allFinishedOrTerminated(kv, keys, newFlag)
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		if timeout > 0 && time.Now().After(deadline) {
			return ErrTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func allFinishedOrTerminated(kv store.KV, keys []string, newFlag Flag) (bool, error) {
	allDone := true
	for _, key := range keys {
		val, err := kv.GetFlag(key)
		if err != nil {
			return false, fmt.Errorf("protocol: read command slot %s: %w", key, err)
		}
		if Flag(val) == newFlag {
			continue
		}
		if Flag(val) == FinishTermination {
			return false, ErrTerminated
		}
		allDone = false
	}
	return allDone, nil
}

// CheckNonTerminatedAndUpdateKeys writes flag to every key in keys,
// unless any key already reads FinishTermination, in which case it
// returns ErrTerminated and writes nothing.
func CheckNonTerminatedAndUpdateKeys(kv store.KV, keys []string, flag Flag) error {
	for _, key := range keys {
		val, err := kv.GetFlag(key)
		if err != nil {
			return fmt.Errorf("protocol: read command slot %s: %w", key, err)
		}
		if Flag(val) == FinishTermination {
			return ErrTerminated
		}
	}
	for _, key := range keys {
		if err := kv.SetFlag(key, string(flag)); err != nil {
			return fmt.Errorf("protocol: write command slot %s: %w", key, err)
		}
	}
	return nil
}
