// Package sparsemat provides the sparse CSR/CSC double matrices that every
// mlnet algorithm consumes. It plays the role the teacher's matrix.Dense
// plays for lvlath (bounds-checked storage, a Clone that detaches from the
// original, deterministic row-major iteration) but is specialized to the
// compressed-sparse layouts §4.2 requires: supra-adjacency and modularity
// matrices are overwhelmingly sparse (block-diagonal plus thin inter-layer
// coupling), and materializing them densely would blow the memory budget
// of §5 for anything but toy networks.
package sparsemat

import (
	"fmt"
	"math"
	"sort"

	"github.com/katalvlaran/mlnet/mlerr"
)

// Triplet is a single (row, col, value) contribution to a sparse matrix
// under construction. Repeated (row, col) pairs are summed, mirroring the
// common coo-to-csr convention and letting MatrixBuilder accumulate
// multiple edge/coupling contributions into the same cell without having
// to pre-merge them.
type Triplet struct {
	Row, Col int
	Val      float64
}

// CSR is a compressed-sparse-row matrix: for row i, the half-open slice
// Indices[Indptr[i]:Indptr[i+1]] holds i's column indices (ascending) and
// Data holds the matching values at the same positions.
type CSR struct {
	Rows, Cols int
	Indptr     []int
	Indices    []int
	Data       []float64
}

// CSC is the column-major dual of CSR: for column j, the half-open slice
// Indices[Indptr[j]:Indptr[j+1]] holds j's row indices (ascending).
type CSC struct {
	Rows, Cols int
	Indptr     []int
	Indices    []int
	Data       []float64
}

// NewCSRFromTriplets builds a CSR matrix of the given shape from an
// unordered list of triplets, summing duplicate (row, col) contributions.
// Complexity: O(nnz log nnz) for the sort-based dedup/assembly.
func NewCSRFromTriplets(rows, cols int, triplets []Triplet) (*CSR, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("sparsemat: non-positive shape %dx%d: %w", rows, cols, mlerr.InvalidArgument)
	}
	for _, t := range triplets {
		if t.Row < 0 || t.Row >= rows || t.Col < 0 || t.Col >= cols {
			return nil, fmt.Errorf("sparsemat: triplet (%d,%d) out of %dx%d bounds: %w", t.Row, t.Col, rows, cols, mlerr.InvalidArgument)
		}
	}

	ordered := make([]Triplet, len(triplets))
	copy(ordered, triplets)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Row != ordered[j].Row {
			return ordered[i].Row < ordered[j].Row
		}
		return ordered[i].Col < ordered[j].Col
	})

	indptr := make([]int, rows+1)
	indices := make([]int, 0, len(ordered))
	data := make([]float64, 0, len(ordered))

	row := 0
	for idx := 0; idx < len(ordered); {
		t := ordered[idx]
		for row < t.Row {
			row++
			indptr[row] = len(indices)
		}
		sum := 0.0
		col := t.Col
		for idx < len(ordered) && ordered[idx].Row == t.Row && ordered[idx].Col == col {
			sum += ordered[idx].Val
			idx++
		}
		indices = append(indices, col)
		data = append(data, sum)
	}
	for row < rows {
		row++
		indptr[row] = len(indices)
	}

	return &CSR{Rows: rows, Cols: cols, Indptr: indptr, Indices: indices, Data: data}, nil
}

// NNZ returns the number of stored (non-deduplicated-away) entries.
func (m *CSR) NNZ() int { return len(m.Data) }

// NumRows returns the row count, satisfying the rowSource interface
// community/glouvain uses to stay agnostic between a materialized CSR and
// an on-the-fly reconstructed matrix.
func (m *CSR) NumRows() int { return m.Rows }

// At returns the value at (i, j), 0 if absent. Complexity: O(log rownnz).
func (m *CSR) At(i, j int) float64 {
	if i < 0 || i >= m.Rows || j < 0 || j >= m.Cols {
		return 0
	}
	start, end := m.Indptr[i], m.Indptr[i+1]
	cols := m.Indices[start:end]
	k := sort.SearchInts(cols, j)
	if k < len(cols) && cols[k] == j {
		return m.Data[start+k]
	}
	return 0
}

// Row calls fn(col, val) for every stored entry in row i, in ascending
// column order. Complexity: O(rownnz).
func (m *CSR) Row(i int, fn func(col int, val float64)) {
	start, end := m.Indptr[i], m.Indptr[i+1]
	for k := start; k < end; k++ {
		fn(m.Indices[k], m.Data[k])
	}
}

// RowSums returns the sum of each row, O(nnz).
func (m *CSR) RowSums() []float64 {
	out := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var s float64
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			s += m.Data[k]
		}
		out[i] = s
	}
	return out
}

// ColSums returns the sum of each column, O(nnz).
func (m *CSR) ColSums() []float64 {
	out := make([]float64, m.Cols)
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			out[m.Indices[k]] += m.Data[k]
		}
	}
	return out
}

// MulVec computes y = M x. Complexity: O(nnz).
func (m *CSR) MulVec(x []float64) []float64 {
	y := make([]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		var s float64
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			s += m.Data[k] * x[m.Indices[k]]
		}
		y[i] = s
	}
	return y
}

// ToCSC transposes-and-repacks into column-major form. Complexity: O(nnz).
func (m *CSR) ToCSC() *CSC {
	indptr := make([]int, m.Cols+1)
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			indptr[m.Indices[k]+1]++
		}
	}
	for j := 0; j < m.Cols; j++ {
		indptr[j+1] += indptr[j]
	}
	indices := make([]int, m.NNZ())
	data := make([]float64, m.NNZ())
	cursor := make([]int, m.Cols)
	copy(cursor, indptr[:m.Cols])
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			j := m.Indices[k]
			pos := cursor[j]
			indices[pos] = i
			data[pos] = m.Data[k]
			cursor[j]++
		}
	}
	return &CSC{Rows: m.Rows, Cols: m.Cols, Indptr: indptr, Indices: indices, Data: data}
}

// Transpose returns M^T as a CSR, reusing ToCSC's column-major packing
// (a CSC of M is, by construction, a CSR of M^T with rows/cols swapped).
func (m *CSR) Transpose() *CSR {
	csc := m.ToCSC()
	return &CSR{Rows: csc.Cols, Cols: csc.Rows, Indptr: csc.Indptr, Indices: csc.Indices, Data: csc.Data}
}

// IsSymmetric reports whether M == M^T within tol, comparing every stored
// entry against its mirror. Complexity: O(nnz log rownnz).
func (m *CSR) IsSymmetric(tol float64) bool {
	if m.Rows != m.Cols {
		return false
	}
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			j := m.Indices[k]
			if math.Abs(m.Data[k]-m.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// ToDense materializes M as a row-major dense slice. Intended only for
// small matrices (tests, small-N algorithm paths); large supra-adjacency
// matrices must stay sparse per §5's memory model.
func (m *CSR) ToDense() [][]float64 {
	out := make([][]float64, m.Rows)
	for i := range out {
		out[i] = make([]float64, m.Cols)
	}
	for i := 0; i < m.Rows; i++ {
		for k := m.Indptr[i]; k < m.Indptr[i+1]; k++ {
			out[i][m.Indices[k]] = m.Data[k]
		}
	}
	return out
}

// Col calls fn(row, val) for every stored entry in column j, in ascending
// row order. Complexity: O(colnnz).
func (m *CSC) Col(j int, fn func(row int, val float64)) {
	start, end := m.Indptr[j], m.Indptr[j+1]
	for k := start; k < end; k++ {
		fn(m.Indices[k], m.Data[k])
	}
}

// NNZ returns the number of stored entries.
func (m *CSC) NNZ() int { return len(m.Data) }
