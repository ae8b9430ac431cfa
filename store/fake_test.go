package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeRowRoundTrip(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.SetRow("0pwt", []float32{0.1, 0.2, 0.3}))

	row, err := f.GetRow("0pwt", 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, row)
}

func TestFakeGetSetRowZeroesAndReturnsPrevious(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.SetRow("0nwt", []float32{1, 2, 3}))

	prev, err := f.GetSetRow("0nwt", []float32{0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, prev)

	after, err := f.GetRow("0nwt", 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 0, 0}, after)
}

func TestFakeIncreaseRowConcurrent(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.SetRow("0nwt", []float32{0, 0}))

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				ok, err := f.IncreaseRow("0nwt", []float32{1, 1}, 10)
				require.NoError(t, err)
				require.True(t, ok)
			}
		}()
	}
	wg.Wait()

	row, err := f.GetRow("0nwt", 2)
	require.NoError(t, err)
	assert.Equal(t, float32(2000), row[0])
	assert.Equal(t, float32(2000), row[1])
}

func TestFakeHashMerge(t *testing.T) {
	f := NewFake()
	require.NoError(t, f.SetHash("|dat-0-0", map[string][]float64{
		"@default_class": {1, 2},
	}))

	got, err := f.GetHash("|dat-0-0", 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, got["@default_class"])
}
