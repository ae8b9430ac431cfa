package executor

import (
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobonovski/clusterlda/config"
	"github.com/bobonovski/clusterlda/master"
	"github.com/bobonovski/clusterlda/store"
	"github.com/bobonovski/clusterlda/token"
)

// gobBatch mirrors batch.Load's on-disk shape by field name, so a test
// fixture can be written without exporting batch's internal type.
type gobBatch struct {
	ID      string
	ClassID []string
	Token   []string
	Items   []item
}

type item struct {
	TokenID     []int
	TokenWeight []float32
}

func writeBatchFile(t *testing.T, dir, name string, b gobBatch) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, gob.NewEncoder(f).Encode(b))
	return path
}

func writeVocabFile(t *testing.T, dir string, keywords []string) string {
	t.Helper()
	path := filepath.Join(dir, "vocab.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	for _, kw := range keywords {
		_, err := f.WriteString(kw + "\n")
		require.NoError(t, err)
	}
	return path
}

// TestRunSingleExecutorAgainstMaster wires executor.Run against
// master.Run over a shared fake store, the way one executor process
// and the master process cooperate over a live Redis in production.
func TestRunSingleExecutorAgainstMaster(t *testing.T) {
	dir := t.TempDir()
	vocabPath := writeVocabFile(t, dir, []string{"cat", "dog"})

	batchesDir := t.TempDir()
	writeBatchFile(t, batchesDir, "batch-0.gob", gobBatch{
		ID:      "11111111-1111-1111-1111-111111111111",
		ClassID: []string{token.DefaultClass, token.DefaultClass},
		Token:   []string{"cat", "dog"},
		Items: []item{
			{TokenID: []int{0, 1}, TokenWeight: []float32{3, 1}},
			{TokenID: []int{0, 1}, TokenWeight: []float32{1, 3}},
		},
	})

	kv := store.NewFake()

	execCfg := &config.Executor{
		NumTopics:       2,
		NumInnerIters:   5,
		NumThreads:      1,
		BatchesDirPath:  batchesDir,
		VocabPath:       vocabPath,
		ContinueFitting: false,
		TokenBeginIndex: 0,
		TokenEndIndex:   2,
		BatchBeginIndex: 0,
		BatchEndIndex:   1,
		ExecutorID:      "0",
	}

	masterCfg := &config.Master{
		NumTopics:          2,
		NumOuterIters:      2,
		NumExecutors:       1,
		NumExecutorThreads: 1,
		StartTimeout:       time.Second,
	}

	execErrCh := make(chan error, 1)
	go func() { execErrCh <- Run(context.Background(), execCfg, kv) }()

	require.NoError(t, master.Run(context.Background(), masterCfg, kv))
	require.NoError(t, <-execErrCh)
}

func TestListBatchFilesSortsLexically(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.gob", "a.gob", "c.gob"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{}, 0o644))
	}
	files, err := listBatchFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	assert.Equal(t, filepath.Join(dir, "a.gob"), files[0])
	assert.Equal(t, filepath.Join(dir, "b.gob"), files[1])
	assert.Equal(t, filepath.Join(dir, "c.gob"), files[2])
}

func TestBuildThreadsShardsWithinExecutorRange(t *testing.T) {
	cfg := &config.Executor{
		NumThreads:      2,
		TokenBeginIndex: 10,
		TokenEndIndex:   20,
		BatchBeginIndex: 0,
		BatchEndIndex:   5,
		ExecutorID:      "3",
	}
	threads := buildThreads(cfg)
	require.Len(t, threads, 2)

	assert.Equal(t, 10, threads[0].tokenBegin)
	assert.Equal(t, 15, threads[0].tokenEnd)
	assert.Equal(t, 15, threads[1].tokenBegin)
	assert.Equal(t, 20, threads[1].tokenEnd)

	assert.Equal(t, 0, threads[0].batchBegin)
	assert.Equal(t, 2, threads[0].batchEnd)
	assert.Equal(t, 2, threads[1].batchBegin)
	assert.Equal(t, 5, threads[1].batchEnd)
}
