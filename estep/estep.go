package estep

import (
	"fmt"
	"math"

	"github.com/bobonovski/clusterlda/batch"
	"github.com/bobonovski/clusterlda/matrix"
	"github.com/bobonovski/clusterlda/token"
)

// findBatchTokenIds maps each batch-local token index to m's global
// token index, or matrix.UndefIndex when m has no such token.
// Mirrors ProcessorHelpers::FindBatchTokenIds.
func findBatchTokenIds(b *batch.Batch, m matrix.Matrix) []int {
	ids := make([]int, b.TokenSize())
	for i := range ids {
		ids[i] = m.Index(token.New(b.ClassID[i], b.Token[i]))
	}
	return ids
}

// Run performs the full per-batch E-step: infers Θ for every document
// in b against the current Φ (pwt), then folds the result into
// additive updates to N (nwt) and returns the batch's perplexity
// contribution. Mirrors
// ProcessorHelpers::InferThetaAndUpdateNwtSparse.
func Run(b *batch.Batch, pwt, nwt matrix.Matrix, numInnerIters int) (float32, error) {
	numTopics := pwt.TopicSize()
	docsCount := b.ItemSize()

	ndw := BuildNdw(b)
	theta := NewTheta(numTopics, docsCount)
	tokenIDPhi := findBatchTokenIds(b, pwt)

	maxLocalTokenSize := 0
	for d := 0; d < docsCount; d++ {
		size := ndw.RowPtr[d+1] - ndw.RowPtr[d]
		if size > maxLocalTokenSize {
			maxLocalTokenSize = size
		}
	}
	localPhi := make([][]float32, maxLocalTokenSize)
	for i := range localPhi {
		localPhi[i] = make([]float32, numTopics)
	}

	ntd := make([]float32, numTopics)

	for d := 0; d < docsCount; d++ {
		begin, end := ndw.RowPtr[d], ndw.RowPtr[d+1]
		hasTokens := false

		for i := begin; i < end; i++ {
			w := ndw.ColInd[i]
			if tokenIDPhi[w] == matrix.UndefIndex {
				continue
			}
			hasTokens = true
			row, err := pwt.Get(tokenIDPhi[w])
			if err != nil {
				return 0, fmt.Errorf("estep: read phi row for batch token %d: %w", w, err)
			}
			copy(localPhi[i-begin], row)
		}
		if !hasTokens {
			continue
		}

		thetaCol := theta.Column(d)
		for iter := 0; iter < numInnerIters; iter++ {
			for k := range ntd {
				ntd[k] = 0
			}

			for i := begin; i < end; i++ {
				w := ndw.ColInd[i]
				if tokenIDPhi[w] == matrix.UndefIndex {
					continue
				}
				phi := localPhi[i-begin]

				pdw := dot(phi, thetaCol)
				if pdw == 0 {
					continue
				}

				alpha := ndw.Val[i] / pdw
				axpy(alpha, phi, ntd)
			}

			for k := range thetaCol {
				thetaCol[k] *= ntd[k]
			}
			NormalizeColumn(thetaCol)
		}
	}

	tokenIDNwt := findBatchTokenIds(b, nwt)
	nwd := ndw.Transpose()

	var perplexity float32
	pwtLocal := make([]float32, numTopics)
	nwtLocal := make([]float32, numTopics)

	for w := 0; w < b.TokenSize(); w++ {
		if tokenIDNwt[w] == matrix.UndefIndex {
			continue
		}

		if tokenIDPhi[w] != matrix.UndefIndex {
			row, err := pwt.Get(tokenIDPhi[w])
			if err != nil {
				return 0, fmt.Errorf("estep: read phi row for token %d: %w", w, err)
			}
			copy(pwtLocal, row)
		} else {
			for i := range pwtLocal {
				pwtLocal[i] = 1
			}
		}

		for i := nwd.RowPtr[w]; i < nwd.RowPtr[w+1]; i++ {
			d := nwd.ColInd[i]
			thetaCol := theta.Column(d)

			pwd := dot(pwtLocal, thetaCol)
			if pwd < Floor {
				continue
			}

			axpy(nwd.Val[i]/pwd, thetaCol, nwtLocal)
			perplexity += nwd.Val[i] * float32(math.Log(float64(pwd)))
		}

		values := make([]float32, numTopics)
		for k := range values {
			values[k] = pwtLocal[k] * nwtLocal[k]
			nwtLocal[k] = 0
		}

		if _, err := nwt.Increase(tokenIDNwt[w], values); err != nil {
			return 0, fmt.Errorf("estep: increase nwt row for token %d: %w", w, err)
		}
	}

	return perplexity, nil
}
