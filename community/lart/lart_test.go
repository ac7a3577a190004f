package lart

import (
	"testing"

	"github.com/katalvlaran/mlnet/matrixbuilder"
	"github.com/katalvlaran/mlnet/network"
	"github.com/stretchr/testify/require"
)

// twoDisconnectedTriangles builds Scenario B's network (§8): six actors on
// a single layer forming two triangles with no edge between them.
func twoDisconnectedTriangles(t *testing.T) (*network.Network, map[int]network.NodeID) {
	t.Helper()
	net := network.New()
	l, err := net.AddLayer("L1", false)
	require.NoError(t, err)
	nodes := map[int]network.NodeID{}
	for i := 1; i <= 6; i++ {
		a, err := net.AddActor(string(rune('0' + i)))
		require.NoError(t, err)
		v, err := net.AddNode(a, l)
		require.NoError(t, err)
		nodes[i] = v
	}
	edges := [][2]int{{1, 2}, {2, 3}, {1, 3}, {4, 5}, {5, 6}, {4, 6}}
	for _, e := range edges {
		_, err := net.AddEdge(nodes[e[0]], nodes[e[1]])
		require.NoError(t, err)
	}
	return net, nodes
}

// twoLayerTriangleAndEdge builds a two-layer network (triangle on layer 1,
// a single edge on layer 2 sharing all three actors) so supraAdjacency's
// cross-layer shared-neighbor coupling has something to measure.
func twoLayerTriangleAndEdge(t *testing.T) *network.Network {
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
		_, err = net.AddNode(a, l1)
		require.NoError(t, err)
		_, err = net.AddNode(a, l2)
		require.NoError(t, err)
	}
	va, _ := net.NodeByActorLayer(actors["A"], l1)
	vb, _ := net.NodeByActorLayer(actors["B"], l1)
	vc, _ := net.NodeByActorLayer(actors["C"], l1)
	_, err = net.AddEdge(va.ID, vb.ID)
	require.NoError(t, err)
	_, err = net.AddEdge(vb.ID, vc.ID)
	require.NoError(t, err)
	_, err = net.AddEdge(va.ID, vc.ID)
	require.NoError(t, err)

	va2, _ := net.NodeByActorLayer(actors["A"], l2)
	vb2, _ := net.NodeByActorLayer(actors["B"], l2)
	_, err = net.AddEdge(va2.ID, vb2.ID)
	require.NoError(t, err)
	return net
}

func TestRunEmptyNetworkReturnsEmptyStructure(t *testing.T) {
	net := network.New()
	cs, q, err := Run(net)
	require.NoError(t, err)
	require.True(t, cs.Empty())
	require.Equal(t, 0.0, q)
}

func TestRunSingleNodeIsSingleton(t *testing.T) {
	net := network.New()
	l, _ := net.AddLayer("L", false)
	a, _ := net.AddActor("solo")
	_, err := net.AddNode(a, l)
	require.NoError(t, err)

	cs, q, err := Run(net)
	require.NoError(t, err)
	require.Len(t, cs.Communities, 1)
	require.Equal(t, 0.0, q)
}

func TestRunRejectsNonPositiveSteps(t *testing.T) {
	net, _ := twoDisconnectedTriangles(t)
	_, _, err := Run(net, WithSteps(0))
	require.Error(t, err)
}

func TestRunRejectsNegativeEps(t *testing.T) {
	net, _ := twoDisconnectedTriangles(t)
	_, _, err := Run(net, WithEps(-1))
	require.Error(t, err)
}

func TestRunSeparatesTwoDisconnectedTriangles(t *testing.T) {
	net, nodes := twoDisconnectedTriangles(t)
	cs, q, err := Run(net, WithSteps(3), WithEps(0.1), WithGamma(1), WithOmega(1), WithSeed(42))
	require.NoError(t, err)
	require.Len(t, cs.Communities, 2)
	require.Greater(t, q, 0.0)

	group := map[network.NodeID]int{}
	for ci, c := range cs.Communities {
		for _, v := range c.Nodes {
			group[v] = ci
		}
	}
	require.Equal(t, group[nodes[1]], group[nodes[2]])
	require.Equal(t, group[nodes[2]], group[nodes[3]])
	require.Equal(t, group[nodes[4]], group[nodes[5]])
	require.Equal(t, group[nodes[5]], group[nodes[6]])
	require.NotEqual(t, group[nodes[1]], group[nodes[4]])
}

func TestRunOnTwoLayerNetworkProducesNonEmptyPartition(t *testing.T) {
	net := twoLayerTriangleAndEdge(t)
	cs, _, err := Run(net, WithSteps(3), WithEps(0.1), WithSeed(1))
	require.NoError(t, err)
	require.False(t, cs.Empty())
}

func TestSupraAdjacencyCouplesEveryLayerPair(t *testing.T) {
	net := twoLayerTriangleAndEdge(t)
	idx := matrixbuilder.BuildIndex(net)
	perLayer, err := matrixbuilder.PerLayerAdjacency(net, idx)
	require.NoError(t, err)
	supra := supraAdjacency(perLayer, idx.N(), idx.L(), 0.1)
	require.Greater(t, supra.At(idx.SupraRow(idx.Actors[0], idx.Layers[0]), idx.SupraRow(idx.Actors[0], idx.Layers[1])), 0.0)
}

func TestConnectivityComponentsDetectsTwoDisconnectedTriangles(t *testing.T) {
	net, _ := twoDisconnectedTriangles(t)
	idx := matrixbuilder.BuildIndex(net)
	perLayer, err := matrixbuilder.PerLayerAdjacency(net, idx)
	require.NoError(t, err)
	union := unweightedUnion(perLayer, idx.N(), idx.L())
	connected, components := connectivityComponents(union, idx.N()*idx.L())
	require.False(t, connected)
	require.NotEqual(t, components[0], components[3])
}
