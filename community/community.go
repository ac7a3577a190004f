// Package community defines the CommunityStructure result type every
// algorithm in the community/ tree returns and Modularity consumes.
// A Community is a set of nodes; communities in a CommunityStructure may
// overlap, so membership is resolved on demand rather than stored as a
// flat partition (§9's "Overlapping communities" design note).
package community

import (
	"sort"

	"github.com/katalvlaran/mlnet/network"
)

// Community is a non-empty set of nodes, stored sorted and deduplicated.
type Community struct {
	Nodes []network.NodeID
}

// NewCommunity builds a Community from a node list, sorting and
// deduplicating it.
func NewCommunity(nodes ...network.NodeID) Community {
	if len(nodes) == 0 {
		return Community{}
	}
	cp := make([]network.NodeID, len(nodes))
	copy(cp, nodes)
	sort.Slice(cp, func(i, j int) bool { return cp[i] < cp[j] })
	out := cp[:1]
	for _, n := range cp[1:] {
		if out[len(out)-1] != n {
			out = append(out, n)
		}
	}
	return Community{Nodes: out}
}

// Contains reports whether v is a member of c.
func (c Community) Contains(v network.NodeID) bool {
	i := sort.Search(len(c.Nodes), func(i int) bool { return c.Nodes[i] >= v })
	return i < len(c.Nodes) && c.Nodes[i] == v
}

// Size returns the number of member nodes.
func (c Community) Size() int { return len(c.Nodes) }

// CommunityStructure is an ordered sequence of communities, possibly
// overlapping (§4: "CommunityStructure | ordered sequence of Community").
type CommunityStructure struct {
	Communities []Community
}

// NewCommunityStructure wraps the given communities, dropping any that
// construction left empty.
func NewCommunityStructure(cs ...Community) CommunityStructure {
	out := make([]Community, 0, len(cs))
	for _, c := range cs {
		if c.Size() > 0 {
			out = append(out, c)
		}
	}
	return CommunityStructure{Communities: out}
}

// Empty reports whether the structure has no communities.
func (cs CommunityStructure) Empty() bool { return len(cs.Communities) == 0 }

// Membership returns, for every node that belongs to at least one
// community, the indices (into cs.Communities) of the communities
// containing it. A node absent from the map belongs to none.
func (cs CommunityStructure) Membership() map[network.NodeID][]int {
	out := make(map[network.NodeID][]int)
	for ci, c := range cs.Communities {
		for _, v := range c.Nodes {
			out[v] = append(out[v], ci)
		}
	}
	return out
}
