package glouvain

import (
	"testing"

	"github.com/katalvlaran/mlnet/groupindex"
	"github.com/katalvlaran/mlnet/matrixbuilder"
	"github.com/katalvlaran/mlnet/modularity"
	"github.com/katalvlaran/mlnet/network"
	"github.com/katalvlaran/mlnet/rng"
	"github.com/stretchr/testify/require"
)

// twoTriangles builds Scenario B's network (§8): layer 1 undirected edges
// (1,2),(2,3),(1,3),(4,5),(5,6),(4,6) over six actors on a single layer.
func twoTriangles(t *testing.T) (*network.Network, map[int]network.NodeID) {
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

func TestRunSeparatesTwoTriangles(t *testing.T) {
	net, nodes := twoTriangles(t)
	cs, q, err := Run(net, WithGamma(1), WithOmega(1), WithSeed(42))
	require.NoError(t, err)
	require.Len(t, cs.Communities, 2)
	require.GreaterOrEqual(t, q, 4.0/9.0-1e-9)

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

func TestRunEmptyNetworkReturnsEmptyStructure(t *testing.T) {
	net := network.New()
	cs, q, err := Run(net)
	require.NoError(t, err)
	require.True(t, cs.Empty())
	require.Equal(t, 0.0, q)
}

func TestRunSingleActorSingleLayer(t *testing.T) {
	net := network.New()
	l, _ := net.AddLayer("L", false)
	a, _ := net.AddActor("solo")
	_, err := net.AddNode(a, l)
	require.NoError(t, err)

	cs, q, err := Run(net)
	require.NoError(t, err)
	require.Len(t, cs.Communities, 1)
	require.Equal(t, 1, cs.Communities[0].Size())
	require.Equal(t, 0.0, q)
}

func TestRunRejectsNegativeGamma(t *testing.T) {
	net, _ := twoTriangles(t)
	_, _, err := Run(net, WithGamma(-1))
	require.Error(t, err)
}

func TestRunModularityMatchesIndependentComputation(t *testing.T) {
	net, _ := twoTriangles(t)
	cs, q, err := Run(net, WithGamma(1), WithOmega(1), WithSeed(7))
	require.NoError(t, err)

	independent, err := modularity.Modularity(net, cs, 1, 1)
	require.NoError(t, err)
	require.InDelta(t, independent, q, 1e-9)
}

func TestRunRandomWeightedStrategyIsDeterministicGivenSeed(t *testing.T) {
	net, _ := twoTriangles(t)
	cs1, q1, err := Run(net, WithGamma(1), WithOmega(1), WithSeed(99), WithStrategy(StrategyRandomWeighted))
	require.NoError(t, err)
	cs2, q2, err := Run(net, WithGamma(1), WithOmega(1), WithSeed(99), WithStrategy(StrategyRandomWeighted))
	require.NoError(t, err)
	require.Equal(t, q1, q2)
	require.Equal(t, len(cs1.Communities), len(cs2.Communities))
}

func TestRunOnTheFlyMatchesMaterializedModularityMatrix(t *testing.T) {
	net, _ := twoTriangles(t)
	materialized, qMat, err := Run(net, WithGamma(1), WithOmega(1), WithSeed(7))
	require.NoError(t, err)

	onTheFly, qOtf, err := Run(net, WithGamma(1), WithOmega(1), WithSeed(7), WithMemLimit(0))
	require.NoError(t, err)

	require.InDelta(t, qMat, qOtf, 1e-9, "on-the-fly and materialized B must reach the same modularity")
	require.Equal(t, len(materialized.Communities), len(onTheFly.Communities))
}

func TestLocalMoveMonotonicGainAcrossOuterIterations(t *testing.T) {
	net, _ := twoTriangles(t)
	idx := matrixbuilder.BuildIndex(net)
	mm, err := matrixbuilder.ModularityMatrix(net, idx, 1, 1)
	require.NoError(t, err)

	r := rng.New(42)
	n := mm.B.Rows
	final := make([]int, n)
	for i := range final {
		final[i] = i
	}
	prevQ := assignmentModularity(mm.B, final, mm.TwoMu)

	current := mm.B
	for level := 0; level < 10; level++ {
		g := groupindex.New(current.Rows)
		localMove(current, g, StrategyBest, r)
		flat := g.ToFlatVector()
		k := distinctCount(flat)
		if k == current.Rows {
			break
		}
		for i := range final {
			final[i] = flat[final[i]]
		}
		current = collapse(current, flat, k)
		q := assignmentModularity(mm.B, final, mm.TwoMu)
		require.GreaterOrEqual(t, q, prevQ-1e-10, "invariant 5: modularity must not decrease across outer iterations")
		prevQ = q
	}
}
