package matrixbuilder

import (
	"testing"

	"github.com/katalvlaran/mlnet/network"
	"github.com/stretchr/testify/require"
)

// twoLayerNetwork builds 3 actors over two undirected layers: all three
// in L1 with a triangle, only A and B in L2 with a single edge, giving both layers distinct
// adjacency structure to distinguish block ordering bugs.
func twoLayerNetwork(t *testing.T) (*network.Network, *Index) {
	t.Helper()
	net := network.New()
	l1, err := net.AddLayer("L1", false)
	require.NoError(t, err)
	l2, err := net.AddLayer("L2", false)
	require.NoError(t, err)

	actors := map[string]network.ActorID{}
	for _, name := range []string{"A", "B", "C"} {
		a, err := net.AddActor(name)
		require.NoError(t, err)
		actors[name] = a
	}

	nodesL1 := map[string]network.NodeID{}
	for name, a := range actors {
		v, err := net.AddNode(a, l1)
		require.NoError(t, err)
		nodesL1[name] = v
	}
	nodesL2 := map[string]network.NodeID{}
	for _, name := range []string{"A", "B"} {
		v, err := net.AddNode(actors[name], l2)
		require.NoError(t, err)
		nodesL2[name] = v
	}

	_, err = net.AddEdge(nodesL1["A"], nodesL1["B"])
	require.NoError(t, err)
	_, err = net.AddEdge(nodesL1["B"], nodesL1["C"])
	require.NoError(t, err)
	_, err = net.AddEdge(nodesL1["A"], nodesL1["C"])
	require.NoError(t, err)
	_, err = net.AddEdge(nodesL2["A"], nodesL2["B"])
	require.NoError(t, err)

	return net, BuildIndex(net)
}

func TestPerLayerAdjacencySymmetricAndBinary(t *testing.T) {
	net, idx := twoLayerNetwork(t)
	layers, err := PerLayerAdjacency(net, idx)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	l1 := layers[0]
	require.True(t, l1.IsSymmetric(1e-12))
	require.Equal(t, 6, l1.NNZ(), "triangle: 3 undirected edges = 6 stored entries")

	l2 := layers[1]
	require.Equal(t, 2, l2.NNZ())
}

func TestSupraAdjacencyBlockDiagonalPlusCoupling(t *testing.T) {
	net, idx := twoLayerNetwork(t)
	m, err := SupraAdjacency(net, idx, SupraAdjacencyOptions{InterLayerWeight: 0.5})
	require.NoError(t, err)

	n := idx.N()
	require.Equal(t, n*idx.L(), m.Rows)

	a, _ := idx.ActorPos(mustActor(t, net, "A"))
	rowL1 := idx.SupraRow(mustActor(t, net, "A"), idx.Layers[0])
	rowL2 := idx.SupraRow(mustActor(t, net, "A"), idx.Layers[1])
	require.Equal(t, a, rowL1)
	require.Equal(t, m.At(rowL1, rowL2), 0.5)
	require.Equal(t, m.At(rowL2, rowL1), 0.5)
}

func TestSupraAdjacencyNormalizeColumnsSumsToOne(t *testing.T) {
	net, idx := twoLayerNetwork(t)
	m, err := SupraAdjacency(net, idx, SupraAdjacencyOptions{InterLayerWeight: 1, NormalizeColumns: true})
	require.NoError(t, err)
	sums := m.ColSums()
	for j, s := range sums {
		if s == 0 {
			continue
		}
		require.InDelta(t, 1.0, s, 1e-9, "column %d should sum to 1 after normalization", j)
	}
}

func TestModularityMatrixTwoMuAndSymmetry(t *testing.T) {
	net, idx := twoLayerNetwork(t)
	res, err := ModularityMatrix(net, idx, 1.0, 0.3)
	require.NoError(t, err)
	require.Greater(t, res.TwoMu, 0.0)
	require.True(t, res.B.IsSymmetric(1e-9))
}

func TestModularityMatrixZeroGammaDropsNullModel(t *testing.T) {
	net, idx := twoLayerNetwork(t)
	withNull, err := ModularityMatrix(net, idx, 1.0, 0)
	require.NoError(t, err)
	noNull, err := ModularityMatrix(net, idx, 0.0, 0)
	require.NoError(t, err)

	a := idx.SupraRow(mustActor(t, net, "A"), idx.Layers[0])
	b := idx.SupraRow(mustActor(t, net, "B"), idx.Layers[0])
	require.NotEqual(t, withNull.B.At(a, b), noNull.B.At(a, b))
}

func TestOnTheFlyModularityMatchesMaterializedRows(t *testing.T) {
	net, idx := twoLayerNetwork(t)
	mm, err := ModularityMatrix(net, idx, 1.0, 0.3)
	require.NoError(t, err)

	otf, err := NewOnTheFlyModularity(net, idx, 1.0, 0.3)
	require.NoError(t, err)
	require.InDelta(t, mm.TwoMu, otf.TwoMu, 1e-9)
	require.Equal(t, mm.B.Rows, otf.NumRows())

	for i := 0; i < mm.B.Rows; i++ {
		got := map[int]float64{}
		otf.Row(i, func(j int, v float64) { got[j] = v })
		mm.B.Row(i, func(j int, v float64) {
			require.InDelta(t, v, got[j], 1e-9, "row %d col %d", i, j)
			delete(got, j)
		})
		for j, v := range got {
			require.InDelta(t, 0.0, v, 1e-9, "on-the-fly row %d has extra nonzero at col %d", i, j)
		}
	}
}

func mustActor(t *testing.T, net *network.Network, name string) network.ActorID {
	t.Helper()
	a, err := net.ActorByName(name)
	require.NoError(t, err)
	return a.ID
}
