// Package signature generates and deduplicates function signatures and
// assigns them to function indices.
package signature

import (
	"math/rand"

	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// Registry holds the distinct signatures of one module.
type Registry struct {
	sigs []wasm.FuncType
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{}
}

// Reset clears every signature.
func (r *Registry) Reset() {
	r.sigs = nil
}

// Generate draws attempts random signatures and keeps the structurally new
// ones. Lengths are uniform in 0..maxParams and 0..maxResults, and types are
// uniform over allowed. The registry is never left empty: at least one draw
// is always made and kept.
func (r *Registry) Generate(rng *rand.Rand, attempts int, allowed []wasm.ValType, maxParams, maxResults int) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		ft := wasm.FuncType{
			Params:  randomTypes(rng, allowed, rng.Intn(maxParams+1)),
			Results: randomTypes(rng, allowed, rng.Intn(maxResults+1)),
		}
		r.Add(ft)
	}
}

// Add registers ft if no structurally equal signature exists, and returns
// its index either way.
func (r *Registry) Add(ft wasm.FuncType) uint32 {
	if idx, ok := r.IndexOf(ft); ok {
		return idx
	}
	r.sigs = append(r.sigs, ft)
	return uint32(len(r.sigs) - 1)
}

// Assign maps each of n functions to a uniformly chosen signature index.
// Generate (or Add) must have been called first.
func (r *Registry) Assign(rng *rand.Rand, n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(rng.Intn(len(r.sigs)))
	}
	return out
}

// IndexOf returns the index of a structurally equal signature.
func (r *Registry) IndexOf(ft wasm.FuncType) (uint32, bool) {
	for i, s := range r.sigs {
		if s.Equal(ft) {
			return uint32(i), true
		}
	}
	return 0, false
}

// Get returns the signature at idx.
func (r *Registry) Get(idx uint32) wasm.FuncType {
	return r.sigs[idx]
}

// Signatures returns all registered signatures in index order.
func (r *Registry) Signatures() []wasm.FuncType {
	return r.sigs
}

func randomTypes(rng *rand.Rand, allowed []wasm.ValType, n int) []wasm.ValType {
	if n == 0 {
		return nil
	}
	out := make([]wasm.ValType, n)
	for i := range out {
		out[i] = allowed[rng.Intn(len(allowed))]
	}
	return out
}
