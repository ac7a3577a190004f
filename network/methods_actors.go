package network

import "sort"

// AddActor inserts an actor with the given name if missing, idempotently.
// Adding a duplicate name returns the existing handle, not an error.
// Complexity: O(1) amortized.
func (n *Network) AddActor(name string) (ActorID, error) {
	if name == "" {
		return 0, ErrEmptyName
	}
	n.muActors.Lock()
	defer n.muActors.Unlock()

	if id, ok := n.actorByName[name]; ok {
		return id, nil
	}
	n.nextActorID++
	id := n.nextActorID
	n.actors[id] = &Actor{ID: id, Name: name}
	n.actorByName[name] = id
	n.actorOrder = append(n.actorOrder, id)
	return id, nil
}

// Actor looks up an actor by id.
func (n *Network) Actor(id ActorID) (*Actor, error) {
	n.muActors.RLock()
	defer n.muActors.RUnlock()
	a, ok := n.actors[id]
	if !ok {
		return nil, ErrActorNotFound
	}
	return a, nil
}

// ActorByName looks up an actor by name.
func (n *Network) ActorByName(name string) (*Actor, error) {
	n.muActors.RLock()
	defer n.muActors.RUnlock()
	id, ok := n.actorByName[name]
	if !ok {
		return nil, ErrActorNotFound
	}
	return n.actors[id], nil
}

// Actors returns every actor id in insertion order. Complexity: O(A).
func (n *Network) Actors() []ActorID {
	n.muActors.RLock()
	defer n.muActors.RUnlock()
	out := make([]ActorID, len(n.actorOrder))
	copy(out, n.actorOrder)
	return out
}

// ActorCount returns the current number of actors.
func (n *Network) ActorCount() int {
	n.muActors.RLock()
	defer n.muActors.RUnlock()
	return len(n.actors)
}

// EraseActor removes the actor and, cascading, every node of that actor
// (and, transitively, every edge incident to such a node).
func (n *Network) EraseActor(id ActorID) error {
	n.muActors.Lock()
	a, ok := n.actors[id]
	if !ok {
		n.muActors.Unlock()
		return ErrActorNotFound
	}
	delete(n.actors, id)
	delete(n.actorByName, a.Name)
	n.actorOrder = removeActorID(n.actorOrder, id)
	n.muActors.Unlock()

	n.muNodes.RLock()
	nodeSet := n.nodesByActor[id]
	toErase := make([]NodeID, 0, len(nodeSet))
	for nid := range nodeSet {
		toErase = append(toErase, nid)
	}
	n.muNodes.RUnlock()
	sort.Slice(toErase, func(i, j int) bool { return toErase[i] < toErase[j] })

	for _, nid := range toErase {
		_ = n.EraseNode(nid)
	}
	n.actorAttrs.Reset(uint64(id))
	return nil
}

func removeActorID(order []ActorID, id ActorID) []ActorID {
	for i, v := range order {
		if v == id {
			return append(order[:i], order[i+1:]...)
		}
	}
	return order
}
