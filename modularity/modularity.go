// Package modularity scores a CommunityStructure against the network it
// was computed from (§4.8): the standard multilayer modularity and its
// extended, overlap-aware counterpart. Both follow the same same-community
// pairwise-summation shape the teacher pack's graph metrics package uses
// for single-layer modularity, generalized across layers and inter-layer
// coupling.
package modularity

import (
	"fmt"
	"math"

	"github.com/katalvlaran/mlnet/community"
	"github.com/katalvlaran/mlnet/matrixbuilder"
	"github.com/katalvlaran/mlnet/mlerr"
	"github.com/katalvlaran/mlnet/network"
	"github.com/katalvlaran/mlnet/sparsemat"
)

// Modularity computes Q(net, cs, γ, ω) per §4.8: for every ordered pair
// of nodes sharing a community (a node paired with itself included), add
// their same-layer adjacency
// entry minus the configuration-model null term, or ω for a same-actor
// different-layer pair; normalize by 2μ. An empty CommunityStructure or
// an edgeless network (2μ = 0) has modularity 0 by convention (§8
// boundary behaviors).
func Modularity(net *network.Network, cs community.CommunityStructure, gamma, omega float64) (float64, error) {
	if gamma < 0 {
		return 0, fmt.Errorf("modularity: gamma must be >= 0: %w", mlerr.InvalidArgument)
	}
	if cs.Empty() {
		return 0, nil
	}

	idx := matrixbuilder.BuildIndex(net)
	perLayer, err := matrixbuilder.PerLayerAdjacency(net, idx)
	if err != nil {
		return 0, err
	}
	degs := make([][]float64, idx.L())
	twoM := make([]float64, idx.L())
	for lp, A := range perLayer {
		degs[lp] = A.RowSums()
		twoM[lp] = sumFloat(degs[lp])
	}
	n, l := idx.N(), idx.L()
	twoMu := sumFloat(twoM) + float64(n)*float64(l)*float64(l-1)*omega
	if twoMu == 0 {
		return 0, nil
	}

	var total float64
	for _, c := range cs.Communities {
		total += pairwiseSum(net, idx, perLayer, degs, twoM, gamma, omega, c.Nodes, nil, nil)
	}
	return total / twoMu, nil
}

// Combinator merges two nodes' belonging coefficients to a community into
// the pair weight extended modularity sums (§4.8).
type Combinator func(betaU, betaV float64) float64

// CombinatorMultiply multiplies the two coefficients; this is the form
// spelled out literally in §4.8 ("weighted by β(u,C)·β(v,C)").
func CombinatorMultiply(a, b float64) float64 { return a * b }

// CombinatorSum adds the two coefficients.
func CombinatorSum(a, b float64) float64 { return a + b }

// CombinatorAverage averages the two coefficients.
func CombinatorAverage(a, b float64) float64 { return (a + b) / 2 }

// CombinatorMax takes the larger of the two coefficients.
func CombinatorMax(a, b float64) float64 { return math.Max(a, b) }

// BelongingFunc returns node v's belonging coefficient to the community
// at index communityIdx, given the full membership index.
type BelongingFunc func(v network.NodeID, communityIdx int, membership map[network.NodeID][]int) float64

// UniformBelonging splits a node's membership evenly across every
// community it belongs to: β(v,C) = 1/|{communities containing v}|. This
// is the "derived from membership multiplicity" default of §9, and
// reproduces Scenario E's β=0.5 for a node in exactly two communities.
func UniformBelonging(v network.NodeID, _ int, membership map[network.NodeID][]int) float64 {
	k := len(membership[v])
	if k == 0 {
		return 0
	}
	return 1 / float64(k)
}

// ExtendedModularity computes the overlap-aware modularity of §4.8: the
// same pairwise same-community summation as Modularity, but every pair's
// contribution is weighted by combinator(belonging(u,C), belonging(v,C))
// instead of counted once. A nil belonging defaults to UniformBelonging.
func ExtendedModularity(net *network.Network, cs community.CommunityStructure, belonging BelongingFunc, combinator Combinator, gamma, omega float64) (float64, error) {
	if gamma < 0 {
		return 0, fmt.Errorf("modularity: gamma must be >= 0: %w", mlerr.InvalidArgument)
	}
	if combinator == nil {
		combinator = CombinatorMultiply
	}
	if belonging == nil {
		belonging = UniformBelonging
	}
	if cs.Empty() {
		return 0, nil
	}

	idx := matrixbuilder.BuildIndex(net)
	perLayer, err := matrixbuilder.PerLayerAdjacency(net, idx)
	if err != nil {
		return 0, err
	}
	degs := make([][]float64, idx.L())
	twoM := make([]float64, idx.L())
	for lp, A := range perLayer {
		degs[lp] = A.RowSums()
		twoM[lp] = sumFloat(degs[lp])
	}
	n, l := idx.N(), idx.L()
	twoMu := sumFloat(twoM) + float64(n)*float64(l)*float64(l-1)*omega
	if twoMu == 0 {
		return 0, nil
	}

	membership := cs.Membership()
	var total float64
	for ci, c := range cs.Communities {
		total += pairwiseSum(net, idx, perLayer, degs, twoM, gamma, omega, c.Nodes, func(v network.NodeID) float64 {
			return belonging(v, ci, membership)
		}, combinator)
	}
	return total / twoMu, nil
}

// pairwiseSum adds every ordered node-pair contribution within a single
// community's node list, including i==j: the Newman-Girvan null model
// A_ij - gamma*k_i*k_j/2m is summed over ALL i,j in the community, and
// skipping the diagonal drops the A_ii - gamma*k_i^2/2m term, which is
// exactly the term that makes modularity(net, single_community, 1) == 0
// (§8 invariant 4); it is also why a partition into singletons scores
// below zero rather than exactly zero. beta/combinator are nil for standard modularity
// (weight 1 on every pair).
func pairwiseSum(
	net *network.Network,
	idx *matrixbuilder.Index,
	perLayer []*sparsemat.CSR,
	degs [][]float64,
	twoM []float64,
	gamma, omega float64,
	nodes []network.NodeID,
	beta func(network.NodeID) float64,
	combinator Combinator,
) float64 {
	var sum float64
	for i := 0; i < len(nodes); i++ {
		for j := 0; j < len(nodes); j++ {
			u, v := nodes[i], nodes[j]
			nu, errU := net.Node(u)
			nv, errV := net.Node(v)
			if errU != nil || errV != nil {
				continue
			}

			weight := 1.0
			if beta != nil {
				weight = combinator(beta(u), beta(v))
			}
			if weight == 0 {
				continue
			}

			if nu.Layer == nv.Layer {
				lp, _ := idx.LayerPos(nu.Layer)
				ai, _ := idx.ActorPos(nu.Actor)
				aj, _ := idx.ActorPos(nv.Actor)
				a := perLayer[lp].At(ai, aj)
				var null float64
				if twoM[lp] > 0 {
					null = gamma * degs[lp][ai] * degs[lp][aj] / twoM[lp]
				}
				sum += weight * (a - null)
			} else if nu.Actor == nv.Actor {
				sum += weight * omega
			}
		}
	}
	return sum
}

func sumFloat(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
