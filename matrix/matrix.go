// Package matrix implements the shared, concurrently-updated Φ/N
// matrix abstraction: a row-keyed matrix with T columns, an expanding
// row set addressed by token, and two implementations — an
// in-process dense matrix for tests and a KV-store-backed matrix for
// the real distributed run. It folds in the row-set/token bookkeeping
// that original_source/include/redis_phi_matrix.h keeps inline.
package matrix

import "github.com/bobonovski/clusterlda/token"

// UndefIndex is returned by Index when the token is unknown, matching
// RedisPhiMatrix::kUndefIndex.
const UndefIndex = -1

// Matrix is the contract every Φ/N implementation satisfies.
type Matrix interface {
	// AddToken reserves (or returns the existing) index for tok. If
	// publish is true, initialValues is written to the row under that
	// index; every executor must call AddToken in identical order so
	// all processes agree on token→index.
	AddToken(tok token.Token, publish bool, initialValues []float32) (int, error)

	// TokenSize returns the number of rows registered so far.
	TokenSize() int
	// TopicSize returns the fixed column count T.
	TopicSize() int
	// Token returns the token registered at tokenID.
	Token(tokenID int) token.Token
	// Index returns tokenID for tok, or UndefIndex if unknown.
	Index(tok token.Token) int

	// Get reads the row at tokenID into a freshly-allocated T-vector.
	Get(tokenID int) ([]float32, error)
	// Set unconditionally overwrites the row at tokenID.
	Set(tokenID int, values []float32) error
	// GetAndSet atomically swaps in newValues and returns the row's
	// prior content.
	GetAndSet(tokenID int, newValues []float32) ([]float32, error)
	// Increase adds increment elementwise into the row at tokenID.
	// A failed increment (retries exhausted) is reported via ok=false
	// with a nil error; KVMatrix logs it as a warning, and it is not
	// fatal.
	Increase(tokenID int, increment []float32) (ok bool, err error)

	// ClearCache drops any cached row contents (no-op where caching
	// is disabled).
	ClearCache()
}
