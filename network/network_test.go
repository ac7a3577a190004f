package network

import (
	"errors"
	"testing"

	"github.com/katalvlaran/mlnet/mlerr"
	"github.com/stretchr/testify/require"
)

func triangleNetwork(t *testing.T) (*Network, map[string]NodeID) {
	t.Helper()
	net := New()
	l1, err := net.AddLayer("L1", false)
	require.NoError(t, err)

	ids := map[string]NodeID{}
	for _, name := range []string{"A", "B", "C"} {
		a, err := net.AddActor(name)
		require.NoError(t, err)
		v, err := net.AddNode(a, l1)
		require.NoError(t, err)
		ids[name] = v
	}
	_, err = net.AddEdge(ids["A"], ids["B"])
	require.NoError(t, err)
	_, err = net.AddEdge(ids["B"], ids["C"])
	require.NoError(t, err)
	return net, ids
}

func TestAddActorIdempotent(t *testing.T) {
	net := New()
	a1, err := net.AddActor("alice")
	require.NoError(t, err)
	a2, err := net.AddActor("alice")
	require.NoError(t, err)
	require.Equal(t, a1, a2)
	require.Equal(t, 1, net.ActorCount())
}

func TestAddEdgeIdempotentAndSymmetricUndirected(t *testing.T) {
	net, ids := triangleNetwork(t)
	eAB, err := net.AddEdge(ids["A"], ids["B"])
	require.NoError(t, err)
	eBA, err := net.AddEdge(ids["B"], ids["A"])
	require.NoError(t, err)
	require.Equal(t, eAB, eBA, "undirected edge is a single logical edge regardless of argument order")

	// Invariant 1: undirected edge endpoints list each other in INOUT.
	require.Contains(t, net.Neighbors(ids["A"], InOut), ids["B"])
	require.Contains(t, net.Neighbors(ids["B"], InOut), ids["A"])
}

func TestDirectedLayerEdgeDirectionMatchesLayer(t *testing.T) {
	net := New()
	l, err := net.AddLayer("D", true)
	require.NoError(t, err)
	a, _ := net.AddActor("x")
	b, _ := net.AddActor("y")
	u, _ := net.AddNode(a, l)
	v, _ := net.AddNode(b, l)
	_, err = net.AddEdge(u, v)
	require.NoError(t, err)

	e, err := net.EdgeByNodes(u, v)
	require.NoError(t, err)
	require.True(t, e.Directed)
	require.Contains(t, net.Neighbors(u, Out), v)
	require.NotContains(t, net.Neighbors(v, Out), u)
	require.Contains(t, net.Neighbors(v, In), u)
}

func TestEraseActorCascadesNodesAndEdges(t *testing.T) {
	net, ids := triangleNetwork(t)
	a, err := net.ActorByName("B")
	require.NoError(t, err)

	require.NoError(t, net.EraseActor(a.ID))

	for _, nid := range net.Nodes() {
		v, err := net.Node(nid)
		require.NoError(t, err)
		require.NotEqual(t, a.ID, v.Actor, "invariant 2: no node with erased actor survives")
	}
	for _, eid := range net.Edges() {
		e, _ := net.Edge(eid)
		require.NotEqual(t, ids["B"], e.V1)
		require.NotEqual(t, ids["B"], e.V2)
	}
	require.Equal(t, 0, net.EdgeCount(), "both triangle edges touched B")
}

func TestEraseNodeErasesIncidentEdgesOnly(t *testing.T) {
	net, ids := triangleNetwork(t)
	require.NoError(t, net.EraseNode(ids["B"]))
	require.Equal(t, 0, net.EdgeCount())
	_, err := net.Node(ids["A"])
	require.NoError(t, err, "A itself is not erased")
}

func TestLookupNotFound(t *testing.T) {
	net := New()
	_, err := net.Actor(999)
	require.ErrorIs(t, err, ErrActorNotFound)
	require.True(t, errors.Is(err, mlerr.NotFound))

	_, err = net.Node(999)
	require.ErrorIs(t, err, ErrNodeNotFound)

	_, err = net.Edge(999)
	require.ErrorIs(t, err, ErrEdgeNotFound)
}

func TestAttributeStoreDefaultsAndNotDeclared(t *testing.T) {
	store := NewAttributeStore()
	require.NoError(t, store.Declare("age", AttrNumeric))
	require.Error(t, store.Declare("age", AttrNumeric), "duplicate declare fails")

	v, err := store.GetNumeric(1, "age")
	require.NoError(t, err)
	require.Equal(t, 0.0, v, "undeclared-for-object reads the numeric default")

	require.NoError(t, store.SetNumeric(1, "age", 42))
	v, err = store.GetNumeric(1, "age")
	require.NoError(t, err)
	require.Equal(t, 42.0, v)

	_, err = store.GetNumeric(1, "height")
	require.ErrorIs(t, err, mlerr.NotFound)

	store.Reset(1)
	v, err = store.GetNumeric(1, "age")
	require.NoError(t, err)
	require.Equal(t, 0.0, v)
}

func TestWeightConvenience(t *testing.T) {
	net, ids := triangleNetwork(t)
	require.Equal(t, 0.0, net.Weight(ids["A"], ids["B"]))
	require.NoError(t, net.SetWeight(ids["A"], ids["B"], 2.5))
	require.Equal(t, 2.5, net.Weight(ids["A"], ids["B"]))
	require.Equal(t, 2.5, net.Weight(ids["B"], ids["A"]), "undirected weight is symmetric")
}

func TestRoundTripEraseAndReAddEdges(t *testing.T) {
	net, ids := triangleNetwork(t)
	before := make(map[[2]NodeID]bool)
	for _, eid := range net.Edges() {
		e, _ := net.Edge(eid)
		before[canon(e.V1, e.V2)] = true
	}

	for _, eid := range net.Edges() {
		require.NoError(t, net.EraseEdge(eid))
	}
	require.Equal(t, 0, net.EdgeCount())

	_, err := net.AddEdge(ids["A"], ids["B"])
	require.NoError(t, err)
	_, err = net.AddEdge(ids["B"], ids["C"])
	require.NoError(t, err)

	after := make(map[[2]NodeID]bool)
	for _, eid := range net.Edges() {
		e, _ := net.Edge(eid)
		after[canon(e.V1, e.V2)] = true
	}
	require.Equal(t, before, after)
}

func TestDirectedIsSymmetricOverLayerPairs(t *testing.T) {
	net := New()
	l1, _ := net.AddLayer("L1", false)
	l2, _ := net.AddLayer("L2", true)
	require.NoError(t, net.SetDirected(l1, l2, true))
	require.Equal(t, net.Directed(l1, l2), net.Directed(l2, l1))
}

func TestMonotonicIDsNeverReused(t *testing.T) {
	net := New()
	a, _ := net.AddActor("x")
	require.NoError(t, net.EraseActor(a))
	b, _ := net.AddActor("y")
	require.Greater(t, uint64(b), uint64(a))
}
