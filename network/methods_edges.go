package network

const weightAttr = "weight"

// AddEdge inserts an edge between v1 and v2 if missing, idempotently.
// Directedness is derived from the owning layer pair's directed(A,B)
// flag, never overridden per edge (§3). Between any two nodes there is
// at most one edge (§3), so AddEdge is keyed on the unordered pair and
// returns the existing handle if one already connects v1 and v2 in
// either order.
func (n *Network) AddEdge(v1, v2 NodeID) (EdgeID, error) {
	n.muNodes.RLock()
	nv1, ok1 := n.nodes[v1]
	nv2, ok2 := n.nodes[v2]
	n.muNodes.RUnlock()
	if !ok1 || !ok2 {
		return 0, ErrNodeNotFound
	}

	n.muEdges.Lock()
	defer n.muEdges.Unlock()

	key := canon(v1, v2)
	if id, ok := n.edgeByNodes[key]; ok {
		return id, nil
	}

	directed := n.Directed(nv1.Layer, nv2.Layer)

	n.nextEdgeID++
	id := n.nextEdgeID
	e := &Edge{ID: id, V1: v1, V2: v2, Directed: directed}
	n.edges[id] = e
	n.edgeOrder = append(n.edgeOrder, id)
	n.edgeByNodes[key] = id

	ensureAdj(n.outAdj, v1)
	ensureAdj(n.inAdj, v2)
	n.outAdj[v1][v2] = id
	n.inAdj[v2][v1] = id
	if !directed {
		ensureAdj(n.outAdj, v2)
		ensureAdj(n.inAdj, v1)
		n.outAdj[v2][v1] = id
		n.inAdj[v1][v2] = id
	}

	return id, nil
}

func ensureAdj(m map[NodeID]map[NodeID]EdgeID, id NodeID) {
	if m[id] == nil {
		m[id] = make(map[NodeID]EdgeID)
	}
}

// Edge looks up an edge by id.
func (n *Network) Edge(id EdgeID) (*Edge, error) {
	n.muEdges.RLock()
	defer n.muEdges.RUnlock()
	e, ok := n.edges[id]
	if !ok {
		return nil, ErrEdgeNotFound
	}
	return e, nil
}

// EdgeByNodes looks up the edge connecting v1 and v2 (in either order).
func (n *Network) EdgeByNodes(v1, v2 NodeID) (*Edge, error) {
	n.muEdges.RLock()
	defer n.muEdges.RUnlock()
	id, ok := n.edgeByNodes[canon(v1, v2)]
	if !ok {
		return nil, ErrEdgeNotFound
	}
	return n.edges[id], nil
}

// Edges returns every edge id in insertion order.
func (n *Network) Edges() []EdgeID {
	n.muEdges.RLock()
	defer n.muEdges.RUnlock()
	out := make([]EdgeID, len(n.edgeOrder))
	copy(out, n.edgeOrder)
	return out
}

// EdgesOfCell returns every edge whose endpoints lie in layers l1 and l2
// (in either order), in insertion order. Complexity: O(E).
func (n *Network) EdgesOfCell(l1, l2 LayerID) []EdgeID {
	n.muEdges.RLock()
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	defer n.muEdges.RUnlock()

	var out []EdgeID
	for _, eid := range n.edgeOrder {
		e := n.edges[eid]
		nv1 := n.nodes[e.V1]
		nv2 := n.nodes[e.V2]
		if (nv1.Layer == l1 && nv2.Layer == l2) || (nv1.Layer == l2 && nv2.Layer == l1) {
			out = append(out, eid)
		}
	}
	return out
}

// EdgeCount returns the current number of edges.
func (n *Network) EdgeCount() int {
	n.muEdges.RLock()
	defer n.muEdges.RUnlock()
	return len(n.edges)
}

// EraseEdge removes the edge.
func (n *Network) EraseEdge(id EdgeID) error {
	n.muEdges.Lock()
	defer n.muEdges.Unlock()
	if _, ok := n.edges[id]; !ok {
		return ErrEdgeNotFound
	}
	n.removeEdgeLocked(id)
	return nil
}

// removeEdgeLocked assumes muEdges is already held by the caller.
func (n *Network) removeEdgeLocked(id EdgeID) {
	e, ok := n.edges[id]
	if !ok {
		return
	}
	delete(n.edges, id)
	delete(n.edgeByNodes, canon(e.V1, e.V2))
	n.edgeOrder = removeEdgeID(n.edgeOrder, id)

	if m := n.outAdj[e.V1]; m != nil {
		delete(m, e.V2)
	}
	if m := n.inAdj[e.V2]; m != nil {
		delete(m, e.V1)
	}
	if !e.Directed {
		if m := n.outAdj[e.V2]; m != nil {
			delete(m, e.V1)
		}
		if m := n.inAdj[e.V1]; m != nil {
			delete(m, e.V2)
		}
	}

	n.muNodes.RLock()
	nv1 := n.nodes[e.V1]
	nv2 := n.nodes[e.V2]
	n.muNodes.RUnlock()
	if nv1 != nil && nv2 != nil {
		if store, ok := n.edgeAttrs[makeLayerPair(nv1.Layer, nv2.Layer)]; ok {
			store.Reset(uint64(id))
		}
	}
}

func removeEdgeID(order []EdgeID, id EdgeID) []EdgeID {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// EdgeAttrs returns the AttributeStore scoped to edges-of-(layer1,layer2),
// creating it lazily on first access. The pair is canonicalized.
func (n *Network) EdgeAttrs(l1, l2 LayerID) *AttributeStore {
	n.muEdges.Lock()
	defer n.muEdges.Unlock()
	key := makeLayerPair(l1, l2)
	store, ok := n.edgeAttrs[key]
	if !ok {
		store = NewAttributeStore()
		_ = store.Declare(weightAttr, AttrNumeric)
		n.edgeAttrs[key] = store
	}
	return store
}

// Weight returns the "weight" numeric attribute of the edge between u, v,
// or 0.0 if no such edge exists or no weight was set.
func (n *Network) Weight(u, v NodeID) float64 {
	e, err := n.EdgeByNodes(u, v)
	if err != nil {
		return 0
	}
	nu, errU := n.Node(e.V1)
	nv, errV := n.Node(e.V2)
	if errU != nil || errV != nil {
		return 0
	}
	store := n.EdgeAttrs(nu.Layer, nv.Layer)
	w, _ := store.GetNumeric(uint64(e.ID), weightAttr)
	return w
}

// SetWeight sets the "weight" numeric attribute of the edge between u, v.
func (n *Network) SetWeight(u, v NodeID, w float64) error {
	e, err := n.EdgeByNodes(u, v)
	if err != nil {
		return err
	}
	nu, err := n.Node(e.V1)
	if err != nil {
		return err
	}
	nv, err := n.Node(e.V2)
	if err != nil {
		return err
	}
	store := n.EdgeAttrs(nu.Layer, nv.Layer)
	return store.SetNumeric(uint64(e.ID), weightAttr, w)
}

// ActorAttrs returns the AttributeStore scoped to actors.
func (n *Network) ActorAttrs() *AttributeStore { return n.actorAttrs }

// LayerAttrs returns the AttributeStore scoped to layers.
func (n *Network) LayerAttrs() *AttributeStore { return n.layerAttrs }
