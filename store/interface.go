package store

// KV is the subset of Client's behavior every consumer package
// depends on. matrix.KVMatrix, protocol, and normalize all take a KV
// so that store.Fake can stand in during tests, the way
// asks for composition over a concrete ownership graph rather than a
// shared-pointer web.
type KV interface {
	GetFlag(key string) (string, error)
	SetFlag(key, value string) error
	GetRow(key string, size int) ([]float32, error)
	SetRow(key string, values []float32) error
	GetSetRow(key string, newValues []float32, size int) ([]float32, error)
	IncreaseRow(key string, increment []float32, maxRetries int) (bool, error)
	GetHash(key string, size int) (map[string][]float64, error)
	SetHash(key string, data map[string][]float64) error
}

var (
	_ KV = (*Client)(nil)
	_ KV = (*Fake)(nil)
)
