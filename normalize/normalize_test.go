package normalize

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobonovski/clusterlda/matrix"
	"github.com/bobonovski/clusterlda/protocol"
	"github.com/bobonovski/clusterlda/store"
	"github.com/bobonovski/clusterlda/token"
)

// buildTokens registers the same four tokens, in the same order, on
// both pwt and nwt, as every executor must per the invariant
// that token id sets are identical and in the same order everywhere.
func buildTokens(t *testing.T, pwt, nwt matrix.Matrix, rows map[string][]float32) {
	t.Helper()
	for _, kw := range []string{"cat", "dog", "fox", "owl"} {
		tok := token.New("", kw)
		idxN, err := nwt.AddToken(tok, true, rows[kw])
		require.NoError(t, err)
		_, err = pwt.AddToken(tok, true, make([]float32, nwt.TopicSize()))
		require.NoError(t, err)
		_ = idxN
	}
}

func TestNormalizeSingleWorkerRoundTrip(t *testing.T) {
	const topics = 2
	kv := store.NewFake()
	pwt := matrix.NewDenseMatrix(topics)
	nwt := matrix.NewDenseMatrix(topics)

	rows := map[string][]float32{
		"cat": {2, 2},
		"dog": {2, 2},
		"fox": {4, 0},
		"owl": {0, 4},
	}
	buildTokens(t, pwt, nwt, rows)

	commandKey := protocol.CommandKey("0", 0)
	dataKey := protocol.DataKey("0", 0)
	require.NoError(t, kv.SetFlag(commandKey, string(protocol.FinishIteration)))

	var wg sync.WaitGroup
	wg.Add(1)
	var workerErr error
	go func() {
		defer wg.Done()
		workerErr = Worker(context.Background(), kv, pwt, nwt, 0, nwt.TokenSize(), commandKey, dataKey)
	}()

	require.NoError(t, Master(context.Background(), kv, []string{commandKey}, []string{dataKey}, topics))
	wg.Wait()
	require.NoError(t, workerErr)

	// All four rows sum to 8 per topic (single class), so each
	// contributes its own value / 8.
	row, err := pwt.Get(nwt.Index(token.New("", "cat")))
	require.NoError(t, err)
	assert.InDelta(t, 0.25, row[0], 1e-6)
	assert.InDelta(t, 0.25, row[1], 1e-6)

	row, err = pwt.Get(nwt.Index(token.New("", "fox")))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, row[0], 1e-6)
	assert.InDelta(t, 0.0, row[1], 1e-6)

	// N rows must be zeroed by the get-and-set in phase B.
	nrow, err := nwt.Get(nwt.Index(token.New("", "cat")))
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, nrow)
}

func TestNormalizeTwoWorkersMergeAcrossShards(t *testing.T) {
	const topics = 1
	kv := store.NewFake()
	pwt := matrix.NewDenseMatrix(topics)
	nwt := matrix.NewDenseMatrix(topics)

	rows := map[string][]float32{
		"cat": {3},
		"dog": {1},
		"fox": {2},
		"owl": {4},
	}
	buildTokens(t, pwt, nwt, rows)

	cmdA, dataA := protocol.CommandKey("0", 0), protocol.DataKey("0", 0)
	cmdB, dataB := protocol.CommandKey("1", 0), protocol.DataKey("1", 0)
	require.NoError(t, kv.SetFlag(cmdA, string(protocol.FinishIteration)))
	require.NoError(t, kv.SetFlag(cmdB, string(protocol.FinishIteration)))

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(2)
	go func() {
		defer wg.Done()
		errA = Worker(context.Background(), kv, pwt, nwt, 0, 2, cmdA, dataA)
	}()
	go func() {
		defer wg.Done()
		errB = Worker(context.Background(), kv, pwt, nwt, 2, 4, cmdB, dataB)
	}()

	require.NoError(t, Master(context.Background(), kv, []string{cmdA, cmdB}, []string{dataA, dataB}, topics))
	wg.Wait()
	require.NoError(t, errA)
	require.NoError(t, errB)

	// Total mass across all four tokens (one class) is 3+1+2+4=10.
	row, err := pwt.Get(nwt.Index(token.New("", "cat")))
	require.NoError(t, err)
	assert.InDelta(t, 0.3, row[0], 1e-6)

	row, err = pwt.Get(nwt.Index(token.New("", "owl")))
	require.NoError(t, err)
	assert.InDelta(t, 0.4, row[0], 1e-6)
}

func TestNormalizeWorkerObservesTermination(t *testing.T) {
	kv := store.NewFake()
	pwt := matrix.NewDenseMatrix(1)
	nwt := matrix.NewDenseMatrix(1)
	_, err := nwt.AddToken(token.New("", "cat"), true, []float32{1})
	require.NoError(t, err)
	_, err = pwt.AddToken(token.New("", "cat"), true, []float32{0})
	require.NoError(t, err)

	commandKey := protocol.CommandKey("0", 0)
	dataKey := protocol.DataKey("0", 0)
	require.NoError(t, kv.SetFlag(commandKey, string(protocol.StartTermination)))

	err = Worker(context.Background(), kv, pwt, nwt, 0, 1, commandKey, dataKey)
	assert.ErrorIs(t, err, protocol.ErrTerminated)
}
