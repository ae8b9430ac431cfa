package token

// Collection is an ordered, append-only sequence of Tokens with a
// reverse Token→index map. Indices are contiguous 0..N-1 in insertion
// order. Adding an already-present token is idempotent and returns its
// existing index, matching RedisPhiMatrix's AddToken contract.
type Collection struct {
	byIndex []Token
	byToken map[Token]int
}

// NewCollection returns an empty Collection ready to use.
func NewCollection() *Collection {
	return &Collection{byToken: make(map[Token]int)}
}

// Add reserves (or returns the existing) index for tok.
func (c *Collection) Add(tok Token) int {
	if idx, ok := c.byToken[tok]; ok {
		return idx
	}
	idx := len(c.byIndex)
	c.byIndex = append(c.byIndex, tok)
	c.byToken[tok] = idx
	return idx
}

// Has reports whether tok has already been added.
func (c *Collection) Has(tok Token) bool {
	_, ok := c.byToken[tok]
	return ok
}

// Index returns tok's index and whether it was found.
func (c *Collection) Index(tok Token) (int, bool) {
	idx, ok := c.byToken[tok]
	return idx, ok
}

// At returns the token stored at idx. Panics on out-of-range idx, the
// same programmer-error contract the matrix package uses for bad
// indices.
func (c *Collection) At(idx int) Token {
	return c.byIndex[idx]
}

// Len returns the number of tokens added so far.
func (c *Collection) Len() int {
	return len(c.byIndex)
}
