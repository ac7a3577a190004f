package network

import "sort"

// Neighbors returns the nodes reachable from v by edges in the given
// mode, deduplicated and sorted by id for deterministic iteration.
// Complexity: O(deg(v) log deg(v)).
func (n *Network) Neighbors(v NodeID, mode Mode) []NodeID {
	n.muEdges.RLock()
	defer n.muEdges.RUnlock()

	switch mode {
	case Out:
		return sortedKeys(n.outAdj[v])
	case In:
		return sortedKeys(n.inAdj[v])
	default: // InOut
		set := make(map[NodeID]struct{})
		for u := range n.outAdj[v] {
			set[u] = struct{}{}
		}
		for u := range n.inAdj[v] {
			set[u] = struct{}{}
		}
		out := make([]NodeID, 0, len(set))
		for u := range set {
			out = append(out, u)
		}
		sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
		return out
	}
}

func sortedKeys(m map[NodeID]EdgeID) []NodeID {
	out := make([]NodeID, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Degree returns len(Neighbors(v, mode)), counting each distinct neighbor
// once (parallel edges do not exist per §3's at-most-one-edge invariant).
func (n *Network) Degree(v NodeID, mode Mode) int {
	return len(n.Neighbors(v, mode))
}
