package network

// AddNode inserts the (actor, layer) node if missing, idempotently.
// Returns ErrActorNotFound / ErrLayerNotFound if either endpoint is
// unknown.
func (n *Network) AddNode(actor ActorID, layer LayerID) (NodeID, error) {
	n.muActors.RLock()
	_, actorOK := n.actors[actor]
	n.muActors.RUnlock()
	if !actorOK {
		return 0, ErrActorNotFound
	}
	n.muLayers.RLock()
	_, layerOK := n.layers[layer]
	n.muLayers.RUnlock()
	if !layerOK {
		return 0, ErrLayerNotFound
	}

	key := actorLayer{actor: actor, layer: layer}

	n.muNodes.Lock()
	defer n.muNodes.Unlock()
	if id, ok := n.nodeByActorLyr[key]; ok {
		return id, nil
	}
	n.nextNodeID++
	id := n.nextNodeID
	n.nodes[id] = &Node{ID: id, Actor: actor, Layer: layer}
	n.nodeByActorLyr[key] = id
	n.nodeOrder = append(n.nodeOrder, id)

	if n.nodesByLayer[layer] == nil {
		n.nodesByLayer[layer] = make(map[NodeID]struct{})
	}
	n.nodesByLayer[layer][id] = struct{}{}

	if n.nodesByActor[actor] == nil {
		n.nodesByActor[actor] = make(map[NodeID]struct{})
	}
	n.nodesByActor[actor][id] = struct{}{}

	return id, nil
}

// Node looks up a node by id.
func (n *Network) Node(id NodeID) (*Node, error) {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	v, ok := n.nodes[id]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return v, nil
}

// NodeByActorLayer looks up the node for (actor, layer), if any.
func (n *Network) NodeByActorLayer(actor ActorID, layer LayerID) (*Node, error) {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	id, ok := n.nodeByActorLyr[actorLayer{actor: actor, layer: layer}]
	if !ok {
		return nil, ErrNodeNotFound
	}
	return n.nodes[id], nil
}

// Nodes returns every node id in insertion order.
func (n *Network) Nodes() []NodeID {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	out := make([]NodeID, len(n.nodeOrder))
	copy(out, n.nodeOrder)
	return out
}

// NodesOfLayer returns every node id in the given layer, in insertion order.
func (n *Network) NodesOfLayer(layer LayerID) []NodeID {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	set := n.nodesByLayer[layer]
	out := make([]NodeID, 0, len(set))
	for _, id := range n.nodeOrder {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// NodesOfActor returns every node id belonging to the given actor, in
// insertion order.
func (n *Network) NodesOfActor(actor ActorID) []NodeID {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	set := n.nodesByActor[actor]
	out := make([]NodeID, 0, len(set))
	for _, id := range n.nodeOrder {
		if _, ok := set[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// NodeCount returns the current number of nodes.
func (n *Network) NodeCount() int {
	n.muNodes.RLock()
	defer n.muNodes.RUnlock()
	return len(n.nodes)
}

// EraseNode removes the node and cascades to every incident edge.
func (n *Network) EraseNode(id NodeID) error {
	n.muNodes.Lock()
	v, ok := n.nodes[id]
	if !ok {
		n.muNodes.Unlock()
		return ErrNodeNotFound
	}
	delete(n.nodes, id)
	delete(n.nodeByActorLyr, actorLayer{actor: v.Actor, layer: v.Layer})
	n.nodeOrder = removeNodeID(n.nodeOrder, id)
	if set := n.nodesByLayer[v.Layer]; set != nil {
		delete(set, id)
	}
	if set := n.nodesByActor[v.Actor]; set != nil {
		delete(set, id)
	}
	n.muNodes.Unlock()

	n.muEdges.Lock()
	toErase := make([]EdgeID, 0)
	for eid, e := range n.edges {
		if e.V1 == id || e.V2 == id {
			toErase = append(toErase, eid)
		}
	}
	for _, eid := range toErase {
		n.removeEdgeLocked(eid)
	}
	delete(n.outAdj, id)
	delete(n.inAdj, id)
	n.muEdges.Unlock()

	if store, ok := n.nodeAttrs[v.Layer]; ok {
		store.Reset(uint64(id))
	}
	return nil
}

func removeNodeID(order []NodeID, id NodeID) []NodeID {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}

// NodeAttrs returns the AttributeStore scoped to nodes-of-layer, creating
// it lazily on first access.
func (n *Network) NodeAttrs(layer LayerID) *AttributeStore {
	n.muNodes.Lock()
	defer n.muNodes.Unlock()
	store, ok := n.nodeAttrs[layer]
	if !ok {
		store = NewAttributeStore()
		n.nodeAttrs[layer] = store
	}
	return store
}
