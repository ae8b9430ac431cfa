package store

import (
	"fmt"
	"sync"
)

// Fake is an in-memory stand-in for Client, used by package tests that
// need a KV store without a live Redis instance. Every operation runs
// under one mutex, so increments and get-and-set are atomic; there is
// no optimistic-retry path, and IncreaseRow always succeeds on its
// first attempt.
type Fake struct {
	mu    sync.Mutex
	flags map[string]string
	rows  map[string][]float32
	hash  map[string]map[string][]float64
}

// NewFake returns an empty Fake store.
func NewFake() *Fake {
	return &Fake{
		flags: make(map[string]string),
		rows:  make(map[string][]float32),
		hash:  make(map[string]map[string][]float64),
	}
}

func (f *Fake) GetFlag(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flags[key], nil
}

func (f *Fake) SetFlag(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flags[key] = value
	return nil
}

func (f *Fake) GetRow(key string, size int) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		return nil, fmt.Errorf("store/fake: no row at key %s", key)
	}
	if len(row) != size {
		return nil, fmt.Errorf("store/fake: row %s has size %d, want %d", key, len(row), size)
	}
	out := make([]float32, size)
	copy(out, row)
	return out, nil
}

func (f *Fake) SetRow(key string, values []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := make([]float32, len(values))
	copy(row, values)
	f.rows[key] = row
	return nil
}

func (f *Fake) GetSetRow(key string, newValues []float32, size int) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prev, ok := f.rows[key]
	if !ok {
		prev = make([]float32, size)
	}
	out := make([]float32, size)
	copy(out, prev)

	row := make([]float32, len(newValues))
	copy(row, newValues)
	f.rows[key] = row
	return out, nil
}

func (f *Fake) IncreaseRow(key string, increment []float32, maxRetries int) (bool, error) {
	// The fake store has no real optimistic-lock contention window
	// (the whole operation runs under one mutex), so it always
	// succeeds on the first attempt. maxRetries is accepted to keep
	// the interface identical to the real store.
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[key]
	if !ok {
		row = make([]float32, len(increment))
	}
	updated := make([]float32, len(increment))
	for i := range updated {
		base := float32(0)
		if i < len(row) {
			base = row[i]
		}
		updated[i] = base + increment[i]
	}
	f.rows[key] = updated
	return true, nil
}

func (f *Fake) GetHash(key string, size int) (map[string][]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.hash[key]
	if !ok {
		return map[string][]float64{}, nil
	}
	out := make(map[string][]float64, len(src))
	for field, vec := range src {
		if len(vec) != size {
			return nil, fmt.Errorf("store/fake: hash %s field %s has size %d, want %d", key, field, len(vec), size)
		}
		cp := make([]float64, size)
		copy(cp, vec)
		out[field] = cp
	}
	return out, nil
}

func (f *Fake) SetHash(key string, data map[string][]float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make(map[string][]float64, len(data))
	for field, vec := range data {
		v := make([]float64, len(vec))
		copy(v, vec)
		cp[field] = v
	}
	f.hash[key] = cp
	return nil
}
