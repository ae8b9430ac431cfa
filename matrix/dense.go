package matrix

import (
	"sync"

	"github.com/bobonovski/clusterlda/token"
)

// DenseMatrix is the in-process implementation of Matrix, used by
// tests and by single-process scenarios that don't need a KV store.
// It mirrors bobonovski-gotm/matrix/dense_matrix.go's row-major
// []float32 storage and panic-on-range-error style, generalized to
// the shared token-keyed row set.
type DenseMatrix struct {
	mu     sync.Mutex
	topics int
	tokens *token.Collection
	rows   [][]float32
}

// NewDenseMatrix creates an empty matrix with topics columns.
func NewDenseMatrix(topics int) *DenseMatrix {
	if topics <= 0 {
		panic(ErrBadShape)
	}
	return &DenseMatrix{
		topics: topics,
		tokens: token.NewCollection(),
	}
}

func (m *DenseMatrix) AddToken(tok token.Token, publish bool, initialValues []float32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if idx, ok := m.tokens.Index(tok); ok {
		return idx, nil
	}
	idx := m.tokens.Add(tok)
	row := make([]float32, m.topics)
	if publish {
		copy(row, initialValues)
	}
	m.rows = append(m.rows, row)
	return idx, nil
}

func (m *DenseMatrix) TokenSize() int { m.mu.Lock(); defer m.mu.Unlock(); return m.tokens.Len() }
func (m *DenseMatrix) TopicSize() int { return m.topics }

func (m *DenseMatrix) Token(tokenID int) token.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens.At(tokenID)
}

func (m *DenseMatrix) Index(tok token.Token) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if idx, ok := m.tokens.Index(tok); ok {
		return idx
	}
	return UndefIndex
}

func (m *DenseMatrix) checkRange(tokenID int) {
	if tokenID < 0 || tokenID >= len(m.rows) {
		panic(ErrIndexOutOfRange)
	}
}

func (m *DenseMatrix) Get(tokenID int) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkRange(tokenID)
	out := make([]float32, m.topics)
	copy(out, m.rows[tokenID])
	return out, nil
}

func (m *DenseMatrix) Set(tokenID int, values []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkRange(tokenID)
	copy(m.rows[tokenID], values)
	return nil
}

func (m *DenseMatrix) GetAndSet(tokenID int, newValues []float32) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkRange(tokenID)
	prev := make([]float32, m.topics)
	copy(prev, m.rows[tokenID])
	copy(m.rows[tokenID], newValues)
	return prev, nil
}

func (m *DenseMatrix) Increase(tokenID int, increment []float32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checkRange(tokenID)
	for i, v := range increment {
		m.rows[tokenID][i] += v
	}
	return true, nil
}

func (m *DenseMatrix) ClearCache() {}
