package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobonovski/clusterlda/store"
	"github.com/bobonovski/clusterlda/token"
)

func TestKVMatrixAddTokenIdempotentNoRewrite(t *testing.T) {
	fake := store.NewFake()
	m := NewKVMatrix(fake, "pwt", 2, CacheNone)

	tok := token.New("", "cat")
	idx1, err := m.AddToken(tok, true, []float32{0.5, 0.5})
	require.NoError(t, err)

	require.NoError(t, m.Set(idx1, []float32{0.9, 0.1}))

	idx2, err := m.AddToken(tok, true, []float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, idx1, idx2)

	row, err := m.Get(idx1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.9, 0.1}, row, "second AddToken must not rewrite the row")
}

func TestKVMatrixGetAndSetZeroesRow(t *testing.T) {
	fake := store.NewFake()
	m := NewKVMatrix(fake, "nwt", 2, CacheNone)

	idx, err := m.AddToken(token.New("", "dog"), true, []float32{3, 4})
	require.NoError(t, err)

	prev, err := m.GetAndSet(idx, []float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{3, 4}, prev)

	row, err := m.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, row)
}

func TestKVMatrixWriteCacheBuffersUntilFlush(t *testing.T) {
	fake := store.NewFake()
	m := NewKVMatrix(fake, "nwt", 2, CacheWrite)

	idx, err := m.AddToken(token.New("", "fox"), true, []float32{0, 0})
	require.NoError(t, err)

	ok, err := m.Increase(idx, []float32{1, 1})
	require.NoError(t, err)
	assert.True(t, ok)

	// Not yet visible in the store until Flush.
	raw, err := fake.GetRow("0nwt", 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, raw)

	require.NoError(t, m.Flush())

	raw, err = fake.GetRow("0nwt", 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 1}, raw)
}

func TestKVMatrixReadCacheServesStaleUntilCleared(t *testing.T) {
	fake := store.NewFake()
	m := NewKVMatrix(fake, "pwt", 1, CacheRead)

	idx, err := m.AddToken(token.New("", "owl"), true, []float32{1})
	require.NoError(t, err)

	first, err := m.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, first)

	require.NoError(t, fake.SetRow("0pwt", []float32{2}))

	stale, err := m.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, stale, "read cache should still serve the old value")

	m.ClearCache()

	fresh, err := m.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, fresh)
}
