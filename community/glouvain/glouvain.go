// Package glouvain implements Generalized Louvain (§4.3): repeated local
// move passes over a supra-modularity matrix followed by collapsing moved
// groups into meta-nodes, until no further aggregation improves modularity.
// Grounded on the original multinet sources
// (src/community/glouvain.cpp, include/community/glouvain.h): the
// group_index fast-move structure, the move/moverandw strategies, and the
// metanetwork collapse step, adapted to mlnet's sparsemat/groupindex types.
package glouvain

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/katalvlaran/mlnet/community"
	"github.com/katalvlaran/mlnet/groupindex"
	"github.com/katalvlaran/mlnet/matrixbuilder"
	"github.com/katalvlaran/mlnet/mlerr"
	"github.com/katalvlaran/mlnet/network"
	"github.com/katalvlaran/mlnet/rng"
	"github.com/katalvlaran/mlnet/sparsemat"
)

// tol is the minimum modularity gain a move or an aggregation pass must
// clear to count as progress; below it, floating-point noise would loop
// the outer/inner convergence checks forever.
const tol = 1e-10

// Strategy selects how a node picks among modularity-improving target
// groups during the local move phase (§4.3).
type Strategy int

const (
	// StrategyBest always moves to the group with the largest gain
	// (ties broken by smallest group id for determinism).
	StrategyBest Strategy = iota
	// StrategyRandomWeighted moves to a gain-improving group chosen at
	// random, with probability proportional to that group's gain
	// (the original's "moverandw").
	StrategyRandomWeighted
)

// defaultMemLimit is the NL threshold above which Run reconstructs B's
// rows on demand instead of materializing ModularityMatrix's dense
// kℓkℓᵀ null-model term (§4.3). Chosen so small test/example networks
// always take the materialized path; override with WithMemLimit.
const defaultMemLimit = 4096

type options struct {
	gamma              float64
	omega              float64
	strategy           Strategy
	seed               int64
	maxOuterIterations int
	memLimit           int
}

func defaultOptions() *options {
	return &options{
		gamma:              1.0,
		omega:              1.0,
		strategy:           StrategyBest,
		seed:               0,
		maxOuterIterations: 1000,
		memLimit:           defaultMemLimit,
	}
}

// Option configures Run.
type Option func(*options)

// WithGamma sets the resolution parameter γ (default 1.0).
func WithGamma(gamma float64) Option { return func(o *options) { o.gamma = gamma } }

// WithOmega sets the inter-layer coupling weight ω (default 1.0). ω stays
// independent of γ throughout — the original source's meta-network
// constructor sets omega := gamma, treated here as a bug per §9 and not
// reproduced.
func WithOmega(omega float64) Option { return func(o *options) { o.omega = omega } }

// WithStrategy selects the move strategy (default StrategyBest).
func WithStrategy(s Strategy) Option { return func(o *options) { o.strategy = s } }

// WithSeed fixes the RNG seed driving node permutations and, under
// StrategyRandomWeighted, move selection (default: rng's own default seed).
func WithSeed(seed int64) Option { return func(o *options) { o.seed = seed } }

// WithMaxOuterIterations caps the number of collapse rounds (default 1000),
// guarding against pathological non-convergence per §5's cancellation model.
func WithMaxOuterIterations(n int) Option { return func(o *options) { o.maxOuterIterations = n } }

// WithMemLimit sets the NL threshold above which Run reconstructs the
// supra-modularity matrix's rows on demand instead of materializing
// matrixbuilder.ModularityMatrix (default 4096), per §4.3's on-the-fly
// mode and §9's column(i)/assign accumulator.
func WithMemLimit(n int) Option { return func(o *options) { o.memLimit = n } }

// Run computes a CommunityStructure over net's supra-modularity matrix and
// returns it together with the achieved modularity (§4.3). An empty
// network, or one with zero total edge weight (2μ = 0), returns a
// singleton community per node with modularity 0 (§8 boundary behavior).
func Run(net *network.Network, opts ...Option) (community.CommunityStructure, float64, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.gamma < 0 {
		return community.CommunityStructure{}, 0, fmt.Errorf("glouvain: gamma must be >= 0: %w", mlerr.InvalidArgument)
	}

	idx := matrixbuilder.BuildIndex(net)
	n := idx.N() * idx.L()
	if n == 0 {
		return community.CommunityStructure{}, 0, nil
	}

	var B rowSource
	var twoMu float64
	if n > o.memLimit {
		otf, err := matrixbuilder.NewOnTheFlyModularity(net, idx, o.gamma, o.omega)
		if err != nil {
			return community.CommunityStructure{}, 0, err
		}
		B, twoMu = otf, otf.TwoMu
	} else {
		mm, err := matrixbuilder.ModularityMatrix(net, idx, o.gamma, o.omega)
		if err != nil {
			return community.CommunityStructure{}, 0, err
		}
		B, twoMu = mm.B, mm.TwoMu
	}
	if twoMu == 0 {
		return singletonStructure(net), 0, nil
	}

	r := rng.New(o.seed)
	assignment, q := optimize(B, n, twoMu, o, r)
	return toCommunityStructure(net, idx, assignment), q, nil
}

// rowSource abstracts access to a row of the supra-modularity matrix,
// letting the local-move/collapse loop run identically whether B is a
// materialized *sparsemat.CSR or matrixbuilder.OnTheFlyModularity's
// on-demand reconstruction (§4.3, §9's column(i) accessor).
type rowSource interface {
	NumRows() int
	Row(i int, fn func(col int, val float64))
}

// optimize runs the outer collapse loop: local-move, then aggregate moved
// groups into a smaller meta-network, repeating until a pass produces no
// aggregation (Sb == S2 in the original) or the iteration cap is reached.
// Returns the final assignment over the original n supra-rows and the
// modularity it achieves.
func optimize(B rowSource, n int, twoMu float64, o *options, r *rand.Rand) ([]int, float64) {
	final := make([]int, n)
	for i := range final {
		final[i] = i
	}

	var current rowSource = B
	for level := 0; level < o.maxOuterIterations; level++ {
		g := groupindex.New(current.NumRows())
		localMove(current, g, o.strategy, r)
		flat := g.ToFlatVector()
		numGroups := distinctCount(flat)

		if numGroups == current.NumRows() {
			break // no node moved this round: converged
		}
		for i := range final {
			final[i] = flat[final[i]]
		}
		current = collapse(current, flat, numGroups)
	}

	return final, assignmentModularity(B, final, twoMu)
}

// localMove runs repeated passes over a random node permutation, moving
// each node to the best (or a randomly-weighted) modularity-improving
// neighbor group, until a full pass makes no further progress.
func localMove(B rowSource, g *groupindex.Index, strategy Strategy, r *rand.Rand) {
	for {
		perm := rng.Permutation(B.NumRows(), r)
		progressed := false
		for _, i := range perm {
			if applyBestMove(B, g, i, strategy, r) {
				progressed = true
			}
		}
		if !progressed {
			return
		}
	}
}

// applyBestMove evaluates every group node i has a neighbor in, and moves
// it if a strictly better group than its current one exists.
func applyBestMove(B rowSource, g *groupindex.Index, i int, strategy Strategy, r *rand.Rand) bool {
	contrib := map[int]float64{}
	B.Row(i, func(j int, v float64) {
		if j == i {
			return
		}
		contrib[g.Group(j)] += v
	})

	current := g.Group(i)
	baseline := contrib[current]

	groups := make([]int, 0, len(contrib))
	for grp := range contrib {
		groups = append(groups, grp)
	}
	sort.Ints(groups)

	var candGroups []int
	var candGains []float64
	for _, grp := range groups {
		if grp == current {
			continue
		}
		gain := contrib[grp] - baseline
		if gain > tol {
			candGroups = append(candGroups, grp)
			candGains = append(candGains, gain)
		}
	}
	if len(candGroups) == 0 {
		return false
	}

	var target int
	switch strategy {
	case StrategyRandomWeighted:
		target = candGroups[rng.WeightedChoice(candGains, r)]
	default:
		best := 0
		for k := 1; k < len(candGains); k++ {
			if candGains[k] > candGains[best] {
				best = k
			}
		}
		target = candGroups[best]
	}

	g.Move(i, target)
	return true
}

// collapse builds the meta-network of k×k entries obtained by summing
// every B(i,j) into (flat[i], flat[j]), the metanetwork step of §4.3. The
// result is always materialized: by the time a collapse happens, the
// group count k is the smaller meta-network size, never NL itself, so
// this never re-introduces the O(N²·L) blowup the on-the-fly mode exists
// to avoid.
func collapse(B rowSource, flat []int, k int) *sparsemat.CSR {
	var triplets []sparsemat.Triplet
	for i := 0; i < B.NumRows(); i++ {
		B.Row(i, func(j int, v float64) {
			triplets = append(triplets, sparsemat.Triplet{Row: flat[i], Col: flat[j], Val: v})
		})
	}
	out, _ := sparsemat.NewCSRFromTriplets(k, k, triplets)
	return out
}

func distinctCount(flat []int) int {
	max := -1
	for _, g := range flat {
		if g > max {
			max = g
		}
	}
	return max + 1
}

// assignmentModularity computes Q for a flat group assignment directly
// against the modularity matrix, mirroring the original header's
// `Q(M, y, twoum)`.
func assignmentModularity(B rowSource, assignment []int, twoMu float64) float64 {
	if twoMu == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < B.NumRows(); i++ {
		gi := assignment[i]
		B.Row(i, func(j int, v float64) {
			if assignment[j] == gi {
				sum += v
			}
		})
	}
	return sum / twoMu
}

// toCommunityStructure maps a supra-row assignment back to network nodes,
// grouping by assigned community id and skipping supra-rows that have no
// corresponding (actor, layer) node in the network (all-zero rows from
// PerLayerAdjacency).
func toCommunityStructure(net *network.Network, idx *matrixbuilder.Index, assignment []int) community.CommunityStructure {
	byGroup := map[int][]network.NodeID{}
	nAct := idx.N()
	for row, grp := range assignment {
		actorPos := row % nAct
		layerPos := row / nAct
		actor := idx.Actors[actorPos]
		layer := idx.Layers[layerPos]
		node, err := net.NodeByActorLayer(actor, layer)
		if err != nil {
			continue
		}
		byGroup[grp] = append(byGroup[grp], node.ID)
	}

	keys := make([]int, 0, len(byGroup))
	for k := range byGroup {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	comms := make([]community.Community, 0, len(keys))
	for _, k := range keys {
		comms = append(comms, community.NewCommunity(byGroup[k]...))
	}
	return community.NewCommunityStructure(comms...)
}

// singletonStructure builds one community per actual node, used when the
// network carries no edge weight at all (2μ = 0): every node is its own
// trivial community with modularity 0.
func singletonStructure(net *network.Network) community.CommunityStructure {
	nodes := net.Nodes()
	comms := make([]community.Community, 0, len(nodes))
	for _, v := range nodes {
		comms = append(comms, community.NewCommunity(v))
	}
	return community.NewCommunityStructure(comms...)
}
