// Package rng centralizes deterministic random generation for every
// algorithm in mlnet that needs it: GLouvain's node permutation and
// random-weighted move strategy, PMM's k-means restarts, and LART's
// component reseeding. There is no package-global RNG: every call site
// receives or derives its own *rand.Rand, so results are reproducible
// given the same seed and the same iteration order over sorted collections.
//
// Concurrency: math/rand.Rand is not goroutine-safe; derive independent
// streams with Derive for concurrent restarts instead of sharing one.
package rng

import "math/rand"

// defaultSeed is used whenever a caller passes seed == 0, keeping a stable
// reproducible default instead of silently depending on process start time.
const defaultSeed int64 = 1

// New returns a deterministic *rand.Rand for the given seed. seed == 0
// selects defaultSeed.
func New(seed int64) *rand.Rand {
	s := seed
	if s == 0 {
		s = defaultSeed
	}
	return rand.New(rand.NewSource(s))
}

// mix applies a SplitMix64-style avalanche finalizer to combine a parent
// seed with a stream identifier into a new, well-distributed 64-bit seed.
func mix(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}

// Derive creates an independent deterministic RNG stream from a base RNG
// and a stream identifier (e.g. a restart index). If base is nil,
// defaultSeed is used as the parent. base.Int63() is consumed once first
// so that reusing the same stream id against the same base never yields
// identical children by accident.
func Derive(base *rand.Rand, stream uint64) *rand.Rand {
	var parent int64
	if base == nil {
		parent = defaultSeed
	} else {
		parent = base.Int63()
	}
	return rand.New(rand.NewSource(mix(parent, stream)))
}

// Permutation returns a uniformly random permutation of 0..n-1 driven by r.
// If r is nil, a deterministic default stream is used.
func Permutation(n int, r *rand.Rand) []int {
	if r == nil {
		r = New(0)
	}
	return r.Perm(n)
}

// WeightedChoice picks an index in [0,len(weights)) with probability
// proportional to weights[i]. weights must be non-negative and sum > 0;
// callers (GLouvain's random-weighted move strategy) guarantee this since
// they only call it over strictly-positive modularity gains.
func WeightedChoice(weights []float64, r *rand.Rand) int {
	if r == nil {
		r = New(0)
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	target := r.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if target < cum {
			return i
		}
	}
	return len(weights) - 1
}
