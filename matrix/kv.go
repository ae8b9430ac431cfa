package matrix

import (
	"fmt"
	"sync"

	"github.com/golang/glog"

	"github.com/bobonovski/clusterlda/store"
	"github.com/bobonovski/clusterlda/token"
)

// CacheMode selects how a KVMatrix trades store round trips for local
// staleness: NONE always reads/writes through, READ caches reads
// until cleared, WRITE buffers increments until flushed.
type CacheMode int

const (
	// CacheNone always reads and writes through to the store.
	CacheNone CacheMode = iota
	// CacheRead populates a local read cache on Get and serves
	// subsequent Gets from it until ClearCache is called.
	CacheRead
	// CacheWrite buffers Increase calls locally and only reaches the
	// store when Flush is called.
	CacheWrite
)

const defaultMaxRetries = 10

// KVMatrix is the store-backed implementation of Matrix: one row per
// token, addressed by the key `<tokenID><modelName>`, with a
// per-process spinlock per row and an optional read or write cache.
// It mirrors original_source/include/redis_phi_matrix.h's
// RedisPhiMatrix.
type KVMatrix struct {
	modelName  string
	topics     int
	kv         store.KV
	maxRetries int
	cache      CacheMode

	regMu  sync.Mutex // guards tokens + locks growth (AddToken order)
	tokens *token.Collection
	locks  []*spinLock

	readMu    sync.Mutex
	readCache map[int][]float32

	writeMu    sync.Mutex
	writeCache map[int][]float32
}

// NewKVMatrix creates a KVMatrix for modelName ("pwt" or "nwt") with
// the given topic count, backed by kv.
func NewKVMatrix(kv store.KV, modelName string, topics int, cache CacheMode) *KVMatrix {
	if topics <= 0 {
		panic(ErrBadShape)
	}
	return &KVMatrix{
		modelName:  modelName,
		topics:     topics,
		kv:         kv,
		maxRetries: defaultMaxRetries,
		cache:      cache,
		tokens:     token.NewCollection(),
		readCache:  make(map[int][]float32),
		writeCache: make(map[int][]float32),
	}
}

func (m *KVMatrix) rowKey(tokenID int) string {
	return fmt.Sprintf("%d%s", tokenID, m.modelName)
}

// AddToken reserves an index for tok, writing initialValues to the
// store when publish is true. Idempotent: adding an already-registered
// token returns its index and performs no store write.
func (m *KVMatrix) AddToken(tok token.Token, publish bool, initialValues []float32) (int, error) {
	m.regMu.Lock()
	if idx, ok := m.tokens.Index(tok); ok {
		m.regMu.Unlock()
		return idx, nil
	}
	idx := m.tokens.Add(tok)
	m.locks = append(m.locks, &spinLock{})
	m.regMu.Unlock()

	if publish {
		if err := m.kv.SetRow(m.rowKey(idx), initialValues); err != nil {
			return idx, fmt.Errorf("matrix: add token %s/%s publish: %w", tok.ClassID, tok.Keyword, err)
		}
	}
	return idx, nil
}

func (m *KVMatrix) TokenSize() int {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	return m.tokens.Len()
}

func (m *KVMatrix) TopicSize() int { return m.topics }

func (m *KVMatrix) Token(tokenID int) token.Token {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	return m.tokens.At(tokenID)
}

func (m *KVMatrix) Index(tok token.Token) int {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	if idx, ok := m.tokens.Index(tok); ok {
		return idx
	}
	return UndefIndex
}

func (m *KVMatrix) rowLock(tokenID int) *spinLock {
	m.regMu.Lock()
	defer m.regMu.Unlock()
	return m.locks[tokenID]
}

// Get reads the row at tokenID, serving from the read cache when
// CacheRead is enabled. A failed read signals mis-sharded data, so
// callers should treat a non-nil error as unrecoverable for the
// current worker.
func (m *KVMatrix) Get(tokenID int) ([]float32, error) {
	lock := m.rowLock(tokenID)
	lock.Lock()
	defer lock.Unlock()

	if m.cache == CacheRead {
		m.readMu.Lock()
		if row, ok := m.readCache[tokenID]; ok {
			out := make([]float32, len(row))
			copy(out, row)
			m.readMu.Unlock()
			return out, nil
		}
		m.readMu.Unlock()
	}

	row, err := m.kv.GetRow(m.rowKey(tokenID), m.topics)
	if err != nil {
		return nil, fmt.Errorf("matrix: get token %d: %w", tokenID, err)
	}

	if m.cache == CacheRead {
		cp := make([]float32, len(row))
		copy(cp, row)
		m.readMu.Lock()
		m.readCache[tokenID] = cp
		m.readMu.Unlock()
	}
	return row, nil
}

// Set unconditionally writes the row at tokenID.
func (m *KVMatrix) Set(tokenID int, values []float32) error {
	lock := m.rowLock(tokenID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.kv.SetRow(m.rowKey(tokenID), values); err != nil {
		return fmt.Errorf("matrix: set token %d: %w", tokenID, err)
	}
	return nil
}

// GetAndSet atomically swaps in newValues, returning the row's prior
// content. Used by normalization phase B to zero N while capturing
// its pre-reset content in one round trip.
func (m *KVMatrix) GetAndSet(tokenID int, newValues []float32) ([]float32, error) {
	lock := m.rowLock(tokenID)
	lock.Lock()
	defer lock.Unlock()

	prev, err := m.kv.GetSetRow(m.rowKey(tokenID), newValues, m.topics)
	if err != nil {
		return nil, fmt.Errorf("matrix: get-and-set token %d: %w", tokenID, err)
	}
	return prev, nil
}

// Increase adds increment elementwise into the row at tokenID. Under
// CacheWrite, the increment is buffered locally and only reaches the
// store on Flush. Otherwise it is applied immediately via the store's
// optimistic watch/retry Increase.
func (m *KVMatrix) Increase(tokenID int, increment []float32) (bool, error) {
	lock := m.rowLock(tokenID)
	lock.Lock()
	defer lock.Unlock()

	if m.cache == CacheWrite {
		m.writeMu.Lock()
		buf, ok := m.writeCache[tokenID]
		if !ok {
			buf = make([]float32, m.topics)
		}
		for i, v := range increment {
			buf[i] += v
		}
		m.writeCache[tokenID] = buf
		m.writeMu.Unlock()
		return true, nil
	}

	ok, err := m.kv.IncreaseRow(m.rowKey(tokenID), increment, m.maxRetries)
	if err != nil {
		return false, fmt.Errorf("matrix: increase token %d: %w", tokenID, err)
	}
	if !ok {
		glog.Warningf("matrix: increase on token %d exhausted %d retries, update dropped", tokenID, m.maxRetries)
	}
	return ok, nil
}

// Flush pushes all buffered write-cache increments to the store and
// clears the buffer. It is a no-op under CacheNone/CacheRead. The
// flush boundary is left to the caller: call Flush after each batch
// for the memory-conscious choice, or once per outer iteration for
// the correctness-favoring choice.
func (m *KVMatrix) Flush() error {
	if m.cache != CacheWrite {
		return nil
	}

	m.writeMu.Lock()
	pending := m.writeCache
	m.writeCache = make(map[int][]float32)
	m.writeMu.Unlock()

	for tokenID, increment := range pending {
		lock := m.rowLock(tokenID)
		lock.Lock()
		ok, err := m.kv.IncreaseRow(m.rowKey(tokenID), increment, m.maxRetries)
		lock.Unlock()
		if err != nil {
			return fmt.Errorf("matrix: flush token %d: %w", tokenID, err)
		}
		if !ok {
			glog.Warningf("matrix: flush on token %d exhausted %d retries, update dropped", tokenID, m.maxRetries)
		}
	}
	return nil
}

// ClearCache discards the read cache (populate-on-get, clear-on-flush).
// Buffered write-cache increments are not touched; they stay pending
// until Flush.
func (m *KVMatrix) ClearCache() {
	m.readMu.Lock()
	m.readCache = make(map[int][]float32)
	m.readMu.Unlock()
}
