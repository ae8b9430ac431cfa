// Package estep implements the per-document E-step numerical kernel:
// building a sparse document-token matrix from a batch, inferring Θ
// by inner-iteration EM, and folding the result into additive updates
// to the shared N matrix while accumulating perplexity.
package estep

import "github.com/bobonovski/clusterlda/batch"

// CSR is a compressed sparse row matrix, grounded on
// original_source/include/csr_matrix.h's CsrMatrix<float>.
type CSR struct {
	NumCols int
	Val     []float32
	RowPtr  []int
	ColInd  []int
}

// NumRows returns the row count implied by RowPtr.
func (c *CSR) NumRows() int { return len(c.RowPtr) - 1 }

// BuildNdw builds the documents×batch-tokens sparse matrix from b,
// mirroring ProcessorHelpers::InitializeSparseNdw.
func BuildNdw(b *batch.Batch) *CSR {
	var val []float32
	var rowPtr []int
	var colInd []int

	rowPtr = append(rowPtr, 0)
	for _, item := range b.Items {
		for i, tokenID := range item.TokenID {
			val = append(val, item.TokenWeight[i])
			colInd = append(colInd, tokenID)
		}
		rowPtr = append(rowPtr, len(val))
	}

	return &CSR{NumCols: b.TokenSize(), Val: val, RowPtr: rowPtr, ColInd: colInd}
}

// Transpose returns the tokens×documents transpose of c, used to walk
// each token's postings when folding updates into N.
func (c *CSR) Transpose() *CSR {
	numRows := c.NumRows()
	numCols := c.NumCols

	rowPtr := make([]int, numCols+1)
	for _, col := range c.ColInd {
		rowPtr[col+1]++
	}
	for i := 0; i < numCols; i++ {
		rowPtr[i+1] += rowPtr[i]
	}

	val := make([]float32, len(c.Val))
	colInd := make([]int, len(c.ColInd))
	next := make([]int, numCols)
	copy(next, rowPtr[:numCols])

	for row := 0; row < numRows; row++ {
		for i := c.RowPtr[row]; i < c.RowPtr[row+1]; i++ {
			col := c.ColInd[i]
			dest := next[col]
			val[dest] = c.Val[i]
			colInd[dest] = row
			next[col]++
		}
	}

	return &CSR{NumCols: numRows, Val: val, RowPtr: rowPtr, ColInd: colInd}
}
