// Package matrixbuilder projects a network.Network into the sparse
// matrices every community-detection algorithm consumes (§4.2): per-layer
// adjacency matrices, the block-diagonal supra-adjacency matrix, and the
// supra-modularity matrix with its companion normalization constant 2μ.
// It plays the role the teacher's matrix/impl_adjacency.go plays for a
// single core.Graph, generalized across layers with explicit inter-layer
// coupling cells.
package matrixbuilder

import (
	"fmt"
	"math"

	"github.com/katalvlaran/mlnet/mlerr"
	"github.com/katalvlaran/mlnet/network"
	"github.com/katalvlaran/mlnet/sparsemat"
)

// Index fixes a deterministic row/column numbering over a network's
// actors and layers: actor a at position i and layer ℓ at position j
// occupy supra-adjacency row/col j*N+i. Built once and reused by every
// MatrixBuilder entry point so two calls against the same network agree
// on numbering.
type Index struct {
	Actors   []network.ActorID
	Layers   []network.LayerID
	actorPos map[network.ActorID]int
	layerPos map[network.LayerID]int
}

// BuildIndex fixes actor/layer ordering from the network's own insertion
// order (§5: deterministic given the same network and iteration order).
func BuildIndex(net *network.Network) *Index {
	actors := net.Actors()
	layers := net.Layers()
	idx := &Index{
		Actors:   actors,
		Layers:   layers,
		actorPos: make(map[network.ActorID]int, len(actors)),
		layerPos: make(map[network.LayerID]int, len(layers)),
	}
	for i, a := range actors {
		idx.actorPos[a] = i
	}
	for j, l := range layers {
		idx.layerPos[l] = j
	}
	return idx
}

// N is the actor count.
func (idx *Index) N() int { return len(idx.Actors) }

// L is the layer count.
func (idx *Index) L() int { return len(idx.Layers) }

// ActorPos returns the row/col position of actor a within a single layer
// block, and ok=false if a is unknown to this Index.
func (idx *Index) ActorPos(a network.ActorID) (int, bool) {
	p, ok := idx.actorPos[a]
	return p, ok
}

// LayerPos returns the block position of layer l, and ok=false if l is
// unknown to this Index.
func (idx *Index) LayerPos(l network.LayerID) (int, bool) {
	p, ok := idx.layerPos[l]
	return p, ok
}

// SupraRow returns the supra-adjacency row/col index of (actor a, layer l).
func (idx *Index) SupraRow(a network.ActorID, l network.LayerID) int {
	ap := idx.actorPos[a]
	lp := idx.layerPos[l]
	return lp*idx.N() + ap
}

// edgeWeight returns the effective weight of the edge between u and v:
// the stored "weight" attribute if non-zero, otherwise 1.0 (an edge with
// no weight set is treated as a unit-weight edge, not a zero-weight one).
func edgeWeight(net *network.Network, u, v network.NodeID) float64 {
	w := net.Weight(u, v)
	if w == 0 {
		return 1
	}
	return w
}

// PerLayerAdjacency builds one N×N adjacency matrix per layer (§4.2).
// Missing nodes (an actor absent from a layer) yield all-zero rows/cols.
func PerLayerAdjacency(net *network.Network, idx *Index) ([]*sparsemat.CSR, error) {
	n := idx.N()
	out := make([]*sparsemat.CSR, idx.L())
	for lp, l := range idx.Layers {
		var triplets []sparsemat.Triplet
		for _, eid := range net.EdgesOfCell(l, l) {
			e, err := net.Edge(eid)
			if err != nil {
				continue
			}
			nv1, err1 := net.Node(e.V1)
			nv2, err2 := net.Node(e.V2)
			if err1 != nil || err2 != nil {
				continue
			}
			i, iok := idx.ActorPos(nv1.Actor)
			j, jok := idx.ActorPos(nv2.Actor)
			if !iok || !jok {
				continue
			}
			w := edgeWeight(net, e.V1, e.V2)
			triplets = append(triplets, sparsemat.Triplet{Row: i, Col: j, Val: w})
			if !e.Directed && i != j {
				triplets = append(triplets, sparsemat.Triplet{Row: j, Col: i, Val: w})
			}
		}
		m, err := sparsemat.NewCSRFromTriplets(n, n, triplets)
		if err != nil {
			return nil, fmt.Errorf("matrixbuilder: layer %d: %w", l, err)
		}
		out[lp] = m
	}
	return out, nil
}

// SupraAdjacencyOptions configures SupraAdjacency.
type SupraAdjacencyOptions struct {
	// InterLayerWeight is ω, the constant coupling mass placed between
	// copies of the same actor in different layers.
	InterLayerWeight float64
	// AddEps adds a small additional mass to every inter-layer coupling
	// cell, used by algorithms that need strictly-positive coupling to
	// stay ergodic.
	AddEps float64
	// NormalizeColumns divides every column by its sum, turning the
	// supra-adjacency into a random-walk transition matrix.
	NormalizeColumns bool
}

// SupraAdjacency builds the NL×NL block-diagonal-plus-coupling matrix of
// §4.2: per-layer adjacencies on the diagonal blocks, and for every actor
// and every ordered pair of distinct layers an off-diagonal entry equal
// to ω (+ε).
func SupraAdjacency(net *network.Network, idx *Index, opts SupraAdjacencyOptions) (*sparsemat.CSR, error) {
	layers, err := PerLayerAdjacency(net, idx)
	if err != nil {
		return nil, err
	}
	n, l := idx.N(), idx.L()
	size := n * l
	var triplets []sparsemat.Triplet

	for lp := 0; lp < l; lp++ {
		block := layers[lp]
		base := lp * n
		for i := 0; i < n; i++ {
			block.Row(i, func(j int, v float64) {
				triplets = append(triplets, sparsemat.Triplet{Row: base + i, Col: base + j, Val: v})
			})
		}
	}

	coupling := opts.InterLayerWeight + opts.AddEps
	if coupling != 0 {
		for a := 0; a < n; a++ {
			for l1 := 0; l1 < l; l1++ {
				for l2 := 0; l2 < l; l2++ {
					if l1 == l2 {
						continue
					}
					triplets = append(triplets, sparsemat.Triplet{Row: l2*n + a, Col: l1*n + a, Val: coupling})
				}
			}
		}
	}

	m, err := sparsemat.NewCSRFromTriplets(size, size, triplets)
	if err != nil {
		return nil, err
	}
	if opts.NormalizeColumns {
		m = normalizeColumns(m)
	}
	return m, nil
}

// normalizeColumns rescales every column to sum to 1 (a zero-sum column,
// e.g. an isolated node, is left as zero — callers needing ergodicity
// handle that explicitly, per LART's reseeding in §4.4).
func normalizeColumns(m *sparsemat.CSR) *sparsemat.CSR {
	sums := m.ColSums()
	triplets := make([]sparsemat.Triplet, 0, m.NNZ())
	for i := 0; i < m.Rows; i++ {
		m.Row(i, func(j int, v float64) {
			if sums[j] == 0 {
				return
			}
			triplets = append(triplets, sparsemat.Triplet{Row: i, Col: j, Val: v / sums[j]})
		})
	}
	out, _ := sparsemat.NewCSRFromTriplets(m.Rows, m.Cols, triplets)
	return out
}

// ModularityMatrixResult bundles the supra-modularity matrix with the 2μ
// normalization constant §4.2 defines alongside it.
type ModularityMatrixResult struct {
	B     *sparsemat.CSR
	TwoMu float64
}

// ModularityMatrix builds B = blockdiag((A_ℓ+A_ℓᵀ)/2 - γ kℓkℓᵀ/2m_ℓ) plus a
// constant ω on every inter-layer (a,a) pair, and 2μ = Σ_ℓ 2m_ℓ +
// N·L·(L−1)·ω (§4.2). This materializes the full matrix, including the
// dense kℓkℓᵀ null-model term per block: its triplet list carries O(N²·L)
// entries, one per (actor, actor) pair within every layer, even though the
// underlying adjacency is sparse. GLouvain only calls this below its
// memory limit; above it, OnTheFlyModularity reconstructs rows of the
// same B without ever storing that dense term (§4.3).
func ModularityMatrix(net *network.Network, idx *Index, gamma, omega float64) (*ModularityMatrixResult, error) {
	if gamma < 0 {
		return nil, fmt.Errorf("matrixbuilder: gamma must be >= 0: %w", mlerr.InvalidArgument)
	}
	layers, err := PerLayerAdjacency(net, idx)
	if err != nil {
		return nil, err
	}
	n, l := idx.N(), idx.L()
	size := n * l
	var triplets []sparsemat.Triplet
	var twoMu float64

	for lp := 0; lp < l; lp++ {
		A := layers[lp]
		k := A.RowSums() // degree for an undirected layer, out-degree for a directed one
		twoM := sumFloat(k)
		twoMu += twoM
		base := lp * n

		sym := symmetrize(A)
		for i := 0; i < n; i++ {
			sym.Row(i, func(j int, v float64) {
				triplets = append(triplets, sparsemat.Triplet{Row: base + i, Col: base + j, Val: v})
			})
		}
		if twoM > 0 && gamma > 0 {
			for i := 0; i < n; i++ {
				if k[i] == 0 {
					continue
				}
				for j := 0; j < n; j++ {
					if k[j] == 0 {
						continue
					}
					null := gamma * k[i] * k[j] / twoM
					triplets = append(triplets, sparsemat.Triplet{Row: base + i, Col: base + j, Val: -null})
				}
			}
		}
	}

	if omega != 0 {
		for a := 0; a < n; a++ {
			for l1 := 0; l1 < l; l1++ {
				for l2 := 0; l2 < l; l2++ {
					if l1 == l2 {
						continue
					}
					triplets = append(triplets, sparsemat.Triplet{Row: l2*n + a, Col: l1*n + a, Val: omega})
				}
			}
		}
	}
	twoMu += float64(n) * float64(l) * float64(l-1) * omega

	B, err := sparsemat.NewCSRFromTriplets(size, size, triplets)
	if err != nil {
		return nil, err
	}
	return &ModularityMatrixResult{B: B, TwoMu: twoMu}, nil
}

func symmetrize(A *sparsemat.CSR) *sparsemat.CSR {
	var triplets []sparsemat.Triplet
	for i := 0; i < A.Rows; i++ {
		A.Row(i, func(j int, v float64) {
			triplets = append(triplets, sparsemat.Triplet{Row: i, Col: j, Val: v / 2})
			triplets = append(triplets, sparsemat.Triplet{Row: j, Col: i, Val: v / 2})
		})
	}
	out, _ := sparsemat.NewCSRFromTriplets(A.Rows, A.Cols, triplets)
	return out
}

func sumFloat(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}

// onTheFlyZeroFloor is the contribution-magnitude floor below which a
// reconstructed B entry is dropped as noise rather than stored (§4.3).
const onTheFlyZeroFloor = 1e-100

// OnTheFlyModularity is the §4.3/§9 on-the-fly mode: it reconstructs a
// single row of the supra-modularity matrix B on demand instead of
// materializing ModularityMatrix's dense kℓkℓᵀ null-model term for every
// layer block. Resident memory is O(N·L) (the per-layer adjacency and
// degree vectors already held by any algorithm) plus O(N) transient per
// Row call, instead of ModularityMatrix's O(N²·L) triplet list.
type OnTheFlyModularity struct {
	idx      *Index
	symLayer []*sparsemat.CSR
	degs     [][]float64
	twoM     []float64
	gamma    float64
	omega    float64
	n, l     int
	// TwoMu is the same 2μ normalization constant ModularityMatrix.TwoMu
	// carries.
	TwoMu float64
}

// NewOnTheFlyModularity precomputes the per-layer symmetrized adjacency
// and degree vectors a Row call needs; none of this is O(N²).
func NewOnTheFlyModularity(net *network.Network, idx *Index, gamma, omega float64) (*OnTheFlyModularity, error) {
	if gamma < 0 {
		return nil, fmt.Errorf("matrixbuilder: gamma must be >= 0: %w", mlerr.InvalidArgument)
	}
	layers, err := PerLayerAdjacency(net, idx)
	if err != nil {
		return nil, err
	}
	n, l := idx.N(), idx.L()
	degs := make([][]float64, l)
	twoM := make([]float64, l)
	sym := make([]*sparsemat.CSR, l)
	var twoMu float64
	for lp, A := range layers {
		degs[lp] = A.RowSums()
		twoM[lp] = sumFloat(degs[lp])
		twoMu += twoM[lp]
		sym[lp] = symmetrize(A)
	}
	twoMu += float64(n) * float64(l) * float64(l-1) * omega

	return &OnTheFlyModularity{
		idx: idx, symLayer: sym, degs: degs, twoM: twoM,
		gamma: gamma, omega: omega, n: n, l: l, TwoMu: twoMu,
	}, nil
}

// NumRows returns NL, the supra-row count, satisfying community/glouvain's
// rowSource interface.
func (m *OnTheFlyModularity) NumRows() int { return m.n * m.l }

// Row reconstructs supra-row i of B without ever storing the dense
// null-model term network-wide: the within-layer symmetrized adjacency
// minus γ·k_i·k_j/2m for every actor j sharing i's layer block, plus ω for
// every other layer's copy of i's own actor (§4.3).
func (m *OnTheFlyModularity) Row(i int, fn func(col int, val float64)) {
	lp := i / m.n
	a := i % m.n
	base := lp * m.n

	symRow := make(map[int]float64, 8)
	m.symLayer[lp].Row(a, func(j int, v float64) { symRow[j] = v })

	ki := m.degs[lp][a]
	if m.twoM[lp] > 0 && ki > 0 {
		for j := 0; j < m.n; j++ {
			kj := m.degs[lp][j]
			if kj == 0 && symRow[j] == 0 {
				continue
			}
			v := symRow[j] - m.gamma*ki*kj/m.twoM[lp]
			if math.Abs(v) < onTheFlyZeroFloor {
				continue
			}
			fn(base+j, v)
		}
	} else {
		for j, v := range symRow {
			fn(base+j, v)
		}
	}

	if m.omega != 0 {
		for l2 := 0; l2 < m.l; l2++ {
			if l2 == lp {
				continue
			}
			fn(l2*m.n+a, m.omega)
		}
	}
}
