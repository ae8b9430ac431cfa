// Package seed derives a deterministic initial N-row for a token,
// reproducing original_source/src/helpers.cc's
// Helpers::generate_random_vector so that repeated runs over the same
// vocabulary and topic count start from identical accumulator values,
// independent of executor count or run order.
package seed

import (
	"math/rand"

	"github.com/bobonovski/clusterlda/token"
)

const hashPrime uint64 = 1125899906842597

const classTokenSeparator byte = 255

// Hash folds tok's class id and keyword into a 64-bit seed using the
// same multiplicative recurrence as the original C++ helper: the
// default class id is excluded from the fold, a separator byte is
// mixed in between class id and keyword, and an optional extra seed
// value is folded in last when positive.
func Hash(tok token.Token, extraSeed int) uint64 {
	h := hashPrime

	if tok.ClassID != token.DefaultClass {
		for i := 0; i < len(tok.ClassID); i++ {
			h = 31*h + uint64(tok.ClassID[i])
		}
	}

	h = 31*h + uint64(classTokenSeparator)

	for i := 0; i < len(tok.Keyword); i++ {
		h = 31*h + uint64(tok.Keyword[i])
	}

	if extraSeed > 0 {
		h = 31*h + uint64(extraSeed)
	}

	return h
}

// Vector draws size uniform(0,1) floats from a PRNG seeded with h and
// L1-normalizes the result. If the drawn values sum to zero the
// vector is returned unnormalized (all zeros).
func Vector(size int, h uint64) []float32 {
	rng := rand.New(rand.NewSource(int64(h)))

	values := make([]float32, size)
	var sum float32
	for i := range values {
		v := float32(rng.Float64())
		values[i] = v
		sum += v
	}

	if sum > 0 {
		for i := range values {
			values[i] /= sum
		}
	}
	return values
}

// TokenVector is the composition Vector(size, Hash(tok, extraSeed))
// used to seed a fresh N row for tok at init time.
func TokenVector(size int, tok token.Token, extraSeed int) []float32 {
	return Vector(size, Hash(tok, extraSeed))
}
