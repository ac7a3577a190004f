// Package abacus implements the ABACUS frequent-closed-itemset community
// ensemble (§4.7): run a single-layer community detector on every layer
// independently, treat each actor's per-layer (layer, community) pairs as
// a transaction, and mine closed itemsets of at least s items that are
// also supported by at least s actors (the glossary's "itemset with
// support >= threshold"); each surviving itemset becomes one (possibly
// overlapping) community of every actor whose transaction is a superset
// of it. Grounded on
// include/community/abacus.h's eclat_merge/abacus signature and on
// lib/eclat/tract/src/fim16.c's bit-transaction idea for small item
// universes, generalized to a single vertical-tidset closed-itemset
// miner: every item universe, including one of 16 items or fewer, goes
// through the same bitset tidset-intersection closure search. There is no
// separate uint16-per-transaction bitmap path.
package abacus

import (
	"fmt"
	"math/bits"
	"sort"
	"strings"

	"github.com/katalvlaran/mlnet/community"
	"github.com/katalvlaran/mlnet/community/glouvain"
	"github.com/katalvlaran/mlnet/mlerr"
	"github.com/katalvlaran/mlnet/network"
)

// bitmapItemLimit is the largest item-universe size whose transactions
// fit in a single uint16 word (fim16's BITTA). No code path branches on
// it: mineClosed handles every universe size the same way.
const bitmapItemLimit = 16

// Detector assigns every node of a single layer to a local community
// label (an arbitrary, layer-local integer); actors absent from the
// returned map took no label in that layer. This is the "per-layer
// single-layer community detector D" of §4.7.
type Detector func(net *network.Network, layer network.LayerID) (map[network.ActorID]int, error)

type options struct {
	minSupport     int
	maxItemsetSize int
	detector       Detector
}

func defaultOptions() *options {
	return &options{
		minSupport:     1,
		maxItemsetSize: 0,
		detector:       GlouvainDetector(),
	}
}

// Option configures Run.
type Option func(*options)

// WithMinSupport sets s: a closed itemset is reported only if it carries
// at least s per-layer labels AND is supported by at least s actors
// (default 1). The second condition is what prunes a closure like a
// single actor's own full label set, which can otherwise satisfy the
// item-count threshold without representing any real ensemble agreement.
func WithMinSupport(s int) Option { return func(o *options) { o.minSupport = s } }

// WithMaxItemsetSize caps the itemset size the miner explores (0, the
// default, means unbounded).
func WithMaxItemsetSize(n int) Option { return func(o *options) { o.maxItemsetSize = n } }

// WithDetector overrides the per-layer single-layer community detector
// (default GlouvainDetector()).
func WithDetector(d Detector) Option { return func(o *options) { o.detector = d } }

// GlouvainDetector adapts community/glouvain.Run into a Detector by
// running it on a single-layer projection of the network and relabeling
// its output communities as layer-local integer ids.
func GlouvainDetector(opts ...glouvain.Option) Detector {
	return func(net *network.Network, layer network.LayerID) (map[network.ActorID]int, error) {
		sub, actorOf, err := singleLayerSubnetwork(net, layer)
		if err != nil {
			return nil, err
		}
		cs, _, err := glouvain.Run(sub, opts...)
		if err != nil {
			return nil, err
		}
		labels := make(map[network.ActorID]int)
		for ci, c := range cs.Communities {
			for _, v := range c.Nodes {
				nd, err := sub.Node(v)
				if err != nil {
					continue
				}
				labels[actorOf[nd.Actor]] = ci
			}
		}
		return labels, nil
	}
}

// singleLayerSubnetwork copies layer's actors, nodes, and intra-layer
// edges into a fresh single-layer Network so a whole-network algorithm
// like glouvain.Run can be used as a single-layer detector. Returns the
// sub-network and a map from its actor ids back to the original's.
func singleLayerSubnetwork(net *network.Network, layer network.LayerID) (*network.Network, map[network.ActorID]network.ActorID, error) {
	directed := net.Directed(layer, layer)
	sub := network.New()
	subLayer, err := sub.AddLayer("L", directed)
	if err != nil {
		return nil, nil, err
	}

	actorOf := make(map[network.ActorID]network.ActorID)
	subOfOrig := make(map[network.ActorID]network.ActorID)
	for _, origNodeID := range net.NodesOfLayer(layer) {
		nd, err := net.Node(origNodeID)
		if err != nil {
			continue
		}
		origActor, err := net.Actor(nd.Actor)
		if err != nil {
			continue
		}
		subActor, err := sub.AddActor(origActor.Name)
		if err != nil {
			return nil, nil, err
		}
		if _, err := sub.AddNode(subActor, subLayer); err != nil {
			return nil, nil, err
		}
		actorOf[subActor] = origActor.ID
		subOfOrig[origActor.ID] = subActor
	}

	for _, eid := range net.EdgesOfCell(layer, layer) {
		e, err := net.Edge(eid)
		if err != nil {
			continue
		}
		n1, err1 := net.Node(e.V1)
		n2, err2 := net.Node(e.V2)
		if err1 != nil || err2 != nil {
			continue
		}
		s1, ok1 := subOfOrig[n1.Actor]
		s2, ok2 := subOfOrig[n2.Actor]
		if !ok1 || !ok2 {
			continue
		}
		v1, err := sub.NodeByActorLayer(s1, subLayer)
		if err != nil {
			continue
		}
		v2, err := sub.NodeByActorLayer(s2, subLayer)
		if err != nil {
			continue
		}
		if _, err := sub.AddEdge(v1.ID, v2.ID); err != nil {
			return nil, nil, err
		}
	}
	return sub, actorOf, nil
}

// item identifies a single (layer, local community label) transaction
// item, the atomic unit §4.7 mines closed itemsets over.
type item struct {
	layer network.LayerID
	label int
}

// Run computes the ABACUS ensemble (§4.7). An empty network or one with
// no layers returns an empty CommunityStructure.
func Run(net *network.Network, opts ...Option) (community.CommunityStructure, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.minSupport < 1 {
		return community.CommunityStructure{}, fmt.Errorf("abacus: minSupport must be >= 1: %w", mlerr.InvalidArgument)
	}

	actors := net.Actors()
	if len(actors) == 0 || len(net.Layers()) == 0 {
		return community.CommunityStructure{}, nil
	}

	transactions, items, err := buildTransactions(net, o.detector)
	if err != nil {
		return community.CommunityStructure{}, err
	}
	if len(items) == 0 {
		return community.CommunityStructure{}, nil
	}

	actorIdx := make(map[network.ActorID]int, len(actors))
	for i, a := range actors {
		actorIdx[a] = i
	}
	itemTidsets := make(map[int]tidset, len(items))
	words := (len(actors) + 63) / 64
	for itemID := range items {
		itemTidsets[itemID] = newTidset(words)
	}
	for a, its := range transactions {
		pos, ok := actorIdx[a]
		if !ok {
			continue
		}
		for itemID := range its {
			itemTidsets[itemID].set(pos)
		}
	}

	itemIDs := make([]int, 0, len(items))
	for id := range items {
		itemIDs = append(itemIDs, id)
	}
	sort.Ints(itemIDs)

	full := newTidset(words)
	for i := range actors {
		full.set(i)
	}

	groups := mineClosed(itemIDs, itemTidsets, full, o.maxItemsetSize)

	var comms []community.Community
	for _, g := range groups {
		if len(g.items) < o.minSupport {
			continue
		}
		members := g.tidset.members(len(actors))
		if len(members) < o.minSupport {
			continue
		}
		var nodes []network.NodeID
		for _, pos := range members {
			actor := actors[pos]
			for _, layer := range net.Layers() {
				v, err := net.NodeByActorLayer(actor, layer)
				if err != nil {
					continue
				}
				nodes = append(nodes, v.ID)
			}
		}
		comms = append(comms, community.NewCommunity(nodes...))
	}
	return community.NewCommunityStructure(comms...), nil
}

// buildTransactions runs the detector on every layer and returns, per
// actor, the set of item ids it carries, plus the id->item lookup.
func buildTransactions(net *network.Network, d Detector) (map[network.ActorID]map[int]struct{}, map[int]item, error) {
	transactions := make(map[network.ActorID]map[int]struct{})
	items := make(map[int]item)
	itemID := make(map[item]int)
	nextID := 0

	for _, layer := range net.Layers() {
		labels, err := d(net, layer)
		if err != nil {
			return nil, nil, fmt.Errorf("abacus: detector on layer %d: %w", layer, err)
		}
		for actor, label := range labels {
			key := item{layer: layer, label: label}
			id, ok := itemID[key]
			if !ok {
				id = nextID
				nextID++
				itemID[key] = id
				items[id] = key
			}
			if transactions[actor] == nil {
				transactions[actor] = make(map[int]struct{})
			}
			transactions[actor][id] = struct{}{}
		}
	}
	return transactions, items, nil
}

// tidset is a bitset over actor positions, the vertical representation
// the closed-itemset search intersects against.
type tidset []uint64

func newTidset(words int) tidset { return make(tidset, words) }

func (t tidset) set(i int) { t[i/64] |= 1 << uint(i%64) }

func (t tidset) and(o tidset) tidset {
	out := make(tidset, len(t))
	for i := range t {
		out[i] = t[i] & o[i]
	}
	return out
}

func (t tidset) count() int {
	c := 0
	for _, w := range t {
		c += bits.OnesCount64(w)
	}
	return c
}

func (t tidset) key() string {
	var b strings.Builder
	for _, w := range t {
		fmt.Fprintf(&b, "%016x", w)
	}
	return b.String()
}

func (t tidset) members(n int) []int {
	out := make([]int, 0, t.count())
	for i := 0; i < n; i++ {
		if t[i/64]&(1<<uint(i%64)) != 0 {
			out = append(out, i)
		}
	}
	return out
}

// closedGroup is a maximal itemset for a given supporting actor set.
type closedGroup struct {
	items  map[int]bool
	tidset tidset
}

// mineClosed enumerates every combination of itemIDs (in increasing id
// order, so each combination is visited exactly once) whose tidset
// intersection is non-empty, grouping combinations by their resulting
// tidset. Since every itemset sharing a tidset is found somewhere in this
// exhaustive search, the union of items within a group is exactly the
// closure for that supporting actor set (§9's 16-item bitmap machine /
// Eclat vertical miner, unified into one tidset-intersection search).
// maxSize (0 = unbounded) caps how deep the search recurses.
func mineClosed(itemIDs []int, itemTidsets map[int]tidset, full tidset, maxSize int) []closedGroup {
	groups := make(map[string]*closedGroup)

	var dfs func(prefix []int, t tidset, start int)
	dfs = func(prefix []int, t tidset, start int) {
		for i := start; i < len(itemIDs); i++ {
			id := itemIDs[i]
			nt := t.and(itemTidsets[id])
			if nt.count() == 0 {
				continue
			}
			key := nt.key()
			g, ok := groups[key]
			if !ok {
				g = &closedGroup{items: make(map[int]bool), tidset: nt}
				groups[key] = g
			}
			for _, p := range prefix {
				g.items[p] = true
			}
			g.items[id] = true

			if maxSize > 0 && len(prefix)+1 >= maxSize {
				continue
			}
			newPrefix := append(append([]int{}, prefix...), id)
			dfs(newPrefix, nt, i+1)
		}
	}
	dfs(nil, full, 0)

	out := make([]closedGroup, 0, len(groups))
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, *groups[k])
	}
	return out
}
