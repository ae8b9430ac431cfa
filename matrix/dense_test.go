package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobonovski/clusterlda/token"
)

func TestDenseMatrixAddTokenIdempotent(t *testing.T) {
	m := NewDenseMatrix(2)
	a := token.New("", "cat")

	idx1, err := m.AddToken(a, true, []float32{0.1, 0.2})
	require.NoError(t, err)

	idx2, err := m.AddToken(a, true, []float32{9, 9})
	require.NoError(t, err)

	assert.Equal(t, idx1, idx2)
	row, err := m.Get(idx1)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, row)
}

func TestDenseMatrixIncreaseAndGetAndSet(t *testing.T) {
	m := NewDenseMatrix(2)
	idx, err := m.AddToken(token.New("", "dog"), true, []float32{0, 0})
	require.NoError(t, err)

	ok, err := m.Increase(idx, []float32{1, 2})
	require.NoError(t, err)
	assert.True(t, ok)

	prev, err := m.GetAndSet(idx, []float32{0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, prev)

	row, err := m.Get(idx)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0}, row)
}

func TestDenseMatrixGetOutOfRangePanics(t *testing.T) {
	m := NewDenseMatrix(2)
	assert.Panics(t, func() {
		_, _ = m.Get(5)
	})
}
