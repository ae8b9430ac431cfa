package estep

import "gonum.org/v1/gonum/blas/blas32"

func vec(x []float32) blas32.Vector {
	return blas32.Vector{N: len(x), Data: x, Inc: 1}
}

// dot returns the inner product of a and b via BLAS sdot, the
// contract this package calls out as an explicit numerics
// collaborator rather than a hand-rolled loop.
func dot(a, b []float32) float32 {
	return blas32.Dot(vec(a), vec(b))
}

// axpy computes y += alpha*x in place via BLAS saxpy.
func axpy(alpha float32, x, y []float32) {
	blas32.Axpy(alpha, vec(x), vec(y))
}
