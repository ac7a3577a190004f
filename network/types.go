// Package network implements the multilayer network data model of §4.1:
// actors, layers, nodes as (actor, layer) pairs, directed/undirected
// intra- and inter-layer edges, and the typed attribute stores scoped to
// each of those. It plays the role the teacher's core.Graph plays for a
// single-layer graph, generalized to many simultaneous layers over a
// shared actor set, and follows the same ambient idiom: per-catalog
// sync.RWMutex guards, sentinel errors, monotonically increasing ids that
// are never reused, and O(1)/O(log n) point lookups backed by maps plus
// insertion-order slices for uniform-random selection.
package network

import "sync"

// ActorID, LayerID, NodeID, EdgeID are opaque, monotonically increasing
// identifiers, never reused even after erasure (§3 invariants).
type ActorID uint64
type LayerID uint64
type NodeID uint64
type EdgeID uint64

// Mode selects which direction of edges Neighbors considers.
type Mode int

const (
	Out Mode = iota
	In
	InOut
)

// Actor is a logical identity that may appear in zero or more layers.
type Actor struct {
	ID   ActorID
	Name string
}

// Layer is an independent relational context with its own edge set.
// Per-pair directionality (including the layer's own intra-layer pair) is
// tracked on the owning Network, not here, since directed(A,B) is a
// property of the unordered pair {A,B}.
type Layer struct {
	ID   LayerID
	Name string
}

// Node is an (actor, layer) incidence, the unit edges connect.
type Node struct {
	ID    NodeID
	Actor ActorID
	Layer LayerID
}

// Edge connects two nodes. Directed mirrors directed(layer(V1), layer(V2))
// at the time the edge was created.
type Edge struct {
	ID       EdgeID
	V1, V2   NodeID
	Directed bool
}

// layerPair canonicalizes an unordered pair of layer ids for use as a map
// key (directedness and edge-attribute scoping are both symmetric in the
// pair, per §3's "directed(A,B) = directed(B,A)" invariant).
type layerPair struct{ a, b LayerID }

func makeLayerPair(l1, l2 LayerID) layerPair {
	if l1 <= l2 {
		return layerPair{l1, l2}
	}
	return layerPair{l2, l1}
}

type actorLayer struct {
	actor ActorID
	layer LayerID
}

// Network owns every actor, layer, node, edge, and attribute store, per
// §3's ownership rule: algorithms borrow read-only (apart from the
// explicitly-permitted scratch attribute writes of §6). Entities hold ids,
// never back-pointers, so erasure is safe even with outstanding handles:
// a stale id simply resolves to a NotFound error (e.g. ErrNodeNotFound) on
// the next lookup.
type Network struct {
	muActors sync.RWMutex
	muLayers sync.RWMutex
	muNodes  sync.RWMutex
	muEdges  sync.RWMutex

	nextActorID ActorID
	nextLayerID LayerID
	nextNodeID  NodeID
	nextEdgeID  EdgeID

	actors     map[ActorID]*Actor
	actorOrder []ActorID
	actorByName map[string]ActorID

	layers      map[LayerID]*Layer
	layerOrder  []LayerID
	layerByName map[string]LayerID
	directedFor map[layerPair]bool // explicit per-pair directionality

	nodes          map[NodeID]*Node
	nodeOrder      []NodeID
	nodeByActorLyr map[actorLayer]NodeID
	nodesByLayer   map[LayerID]map[NodeID]struct{}
	nodesByActor   map[ActorID]map[NodeID]struct{}

	edges         map[EdgeID]*Edge
	edgeOrder     []EdgeID
	edgeByNodes   map[[2]NodeID]EdgeID // canonical (min,max) for undirected lookup convenience
	outAdj        map[NodeID]map[NodeID]EdgeID
	inAdj         map[NodeID]map[NodeID]EdgeID

	actorAttrs *AttributeStore
	layerAttrs *AttributeStore
	nodeAttrs  map[LayerID]*AttributeStore
	edgeAttrs  map[layerPair]*AttributeStore
}

// New returns an empty Network.
func New() *Network {
	return &Network{
		actors:      make(map[ActorID]*Actor),
		actorByName: make(map[string]ActorID),
		layers:      make(map[LayerID]*Layer),
		layerByName: make(map[string]LayerID),
		directedFor: make(map[layerPair]bool),
		nodes:          make(map[NodeID]*Node),
		nodeByActorLyr: make(map[actorLayer]NodeID),
		nodesByLayer:   make(map[LayerID]map[NodeID]struct{}),
		nodesByActor:   make(map[ActorID]map[NodeID]struct{}),
		edges:       make(map[EdgeID]*Edge),
		edgeByNodes: make(map[[2]NodeID]EdgeID),
		outAdj:      make(map[NodeID]map[NodeID]EdgeID),
		inAdj:       make(map[NodeID]map[NodeID]EdgeID),
		actorAttrs: NewAttributeStore(),
		layerAttrs: NewAttributeStore(),
		nodeAttrs:  make(map[LayerID]*AttributeStore),
		edgeAttrs:  make(map[layerPair]*AttributeStore),
	}
}

func canon(u, v NodeID) [2]NodeID {
	if u <= v {
		return [2]NodeID{u, v}
	}
	return [2]NodeID{v, u}
}
