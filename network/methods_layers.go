package network

// AddLayer inserts a layer with the given name and intra-layer
// directedness if missing, idempotently. Adding a duplicate name returns
// the existing handle; its directedness is left untouched.
func (n *Network) AddLayer(name string, directed bool) (LayerID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	n.muLayers.Lock()
	defer n.muLayers.Unlock()

	if id, ok := n.layerByName[name]; ok {
		return id, nil
	}
	n.nextLayerID++
	id := n.nextLayerID
	n.layers[id] = &Layer{ID: id, Name: name}
	n.layerByName[name] = id
	n.layerOrder = append(n.layerOrder, id)
	n.directedFor[makeLayerPair(id, id)] = directed
	return id, nil
}

// Layer looks up a layer by id.
func (n *Network) Layer(id LayerID) (*Layer, error) {
	n.muLayers.RLock()
	defer n.muLayers.RUnlock()
	l, ok := n.layers[id]
	if !ok {
		return nil, ErrLayerNotFound
	}
	return l, nil
}

// LayerByName looks up a layer by name.
func (n *Network) LayerByName(name string) (*Layer, error) {
	n.muLayers.RLock()
	defer n.muLayers.RUnlock()
	id, ok := n.layerByName[name]
	if !ok {
		return nil, ErrLayerNotFound
	}
	return n.layers[id], nil
}

// Layers returns every layer id in insertion order.
func (n *Network) Layers() []LayerID {
	n.muLayers.RLock()
	defer n.muLayers.RUnlock()
	out := make([]LayerID, len(n.layerOrder))
	copy(out, n.layerOrder)
	return out
}

// LayerCount returns the current number of layers.
func (n *Network) LayerCount() int {
	n.muLayers.RLock()
	defer n.muLayers.RUnlock()
	return len(n.layers)
}

// Directed reports whether edges between l1 and l2 are directed. Since
// directed(A,B) = directed(B,A) (§3), the pair is canonicalized before
// lookup. Undeclared pairs default to undirected (false).
func (n *Network) Directed(l1, l2 LayerID) bool {
	n.muLayers.RLock()
	defer n.muLayers.RUnlock()
	return n.directedFor[makeLayerPair(l1, l2)]
}

// SetDirected declares the directionality of the (unordered) layer pair
// (l1, l2), including inter-layer pairs not set by AddLayer.
func (n *Network) SetDirected(l1, l2 LayerID, directed bool) error {
	n.muLayers.Lock()
	defer n.muLayers.Unlock()
	if _, ok := n.layers[l1]; !ok {
		return ErrLayerNotFound
	}
	if _, ok := n.layers[l2]; !ok {
		return ErrLayerNotFound
	}
	n.directedFor[makeLayerPair(l1, l2)] = directed
	return nil
}

// EraseLayer removes the layer and, cascading, every node in that layer.
func (n *Network) EraseLayer(id LayerID) error {
	n.muLayers.Lock()
	l, ok := n.layers[id]
	if !ok {
		n.muLayers.Unlock()
		return ErrLayerNotFound
	}
	delete(n.layers, id)
	delete(n.layerByName, l.Name)
	n.layerOrder = removeLayerID(n.layerOrder, id)
	n.muLayers.Unlock()

	n.muNodes.RLock()
	nodeSet := n.nodesByLayer[id]
	toErase := make([]NodeID, 0, len(nodeSet))
	for nid := range nodeSet {
		toErase = append(toErase, nid)
	}
	n.muNodes.RUnlock()

	for _, nid := range toErase {
		_ = n.EraseNode(nid)
	}
	n.layerAttrs.Reset(uint64(id))
	delete(n.nodeAttrs, id)
	return nil
}

func removeLayerID(order []LayerID, id LayerID) []LayerID {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
