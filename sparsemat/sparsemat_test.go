package sparsemat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewCSRFromTripletsDedups(t *testing.T) {
	m, err := NewCSRFromTriplets(2, 2, []Triplet{
		{0, 0, 1}, {0, 0, 2}, {0, 1, 3}, {1, 0, 4},
	})
	require.NoError(t, err)
	require.Equal(t, 3.0, m.At(0, 0))
	require.Equal(t, 3.0, m.At(0, 1))
	require.Equal(t, 4.0, m.At(1, 0))
	require.Equal(t, 0.0, m.At(1, 1))
	require.Equal(t, 3, m.NNZ())
}

func TestNewCSRFromTripletsRejectsOutOfBounds(t *testing.T) {
	_, err := NewCSRFromTriplets(2, 2, []Triplet{{2, 0, 1}})
	require.Error(t, err)
}

func TestMulVec(t *testing.T) {
	m, err := NewCSRFromTriplets(2, 2, []Triplet{{0, 0, 2}, {0, 1, 1}, {1, 1, 3}})
	require.NoError(t, err)
	y := m.MulVec([]float64{1, 2})
	require.Equal(t, []float64{4, 6}, y)
}

func TestTransposeAndSymmetry(t *testing.T) {
	m, err := NewCSRFromTriplets(3, 3, []Triplet{{0, 1, 5}, {1, 0, 5}, {1, 2, 2}})
	require.NoError(t, err)
	require.False(t, m.IsSymmetric(1e-12))

	sym, err := NewCSRFromTriplets(3, 3, []Triplet{{0, 1, 5}, {1, 0, 5}})
	require.NoError(t, err)
	require.True(t, sym.IsSymmetric(1e-12))

	tr := m.Transpose()
	require.Equal(t, m.At(1, 2), tr.At(2, 1))
}

func TestRowColSums(t *testing.T) {
	m, err := NewCSRFromTriplets(2, 2, []Triplet{{0, 0, 1}, {0, 1, 2}, {1, 1, 3}})
	require.NoError(t, err)
	require.Equal(t, []float64{3, 3}, m.RowSums())
	require.Equal(t, []float64{1, 5}, m.ColSums())
}

func TestToCSCRoundTrip(t *testing.T) {
	m, err := NewCSRFromTriplets(2, 3, []Triplet{{0, 2, 9}, {1, 0, 4}})
	require.NoError(t, err)
	csc := m.ToCSC()
	require.Equal(t, 2, csc.NNZ())
	var seen []int
	csc.Col(2, func(row int, val float64) {
		seen = append(seen, row)
		require.Equal(t, 9.0, val)
	})
	require.Equal(t, []int{0}, seen)
}
