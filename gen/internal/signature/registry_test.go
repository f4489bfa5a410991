package signature

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-fuzzgen/wasm"
)

var allowed = []wasm.ValType{wasm.ValI32, wasm.ValI64}

func TestRegistry_GenerateDeduplicates(t *testing.T) {
	r := New()
	r.Generate(rand.New(rand.NewSource(7)), 200, allowed, 2, 1)

	sigs := r.Signatures()
	if len(sigs) == 0 {
		t.Fatal("no signatures generated")
	}
	for i := range sigs {
		for j := i + 1; j < len(sigs); j++ {
			if sigs[i].Equal(sigs[j]) {
				t.Errorf("duplicate signatures %d and %d: %s", i, j, sigs[i])
			}
		}
		if len(sigs[i].Params) > 2 || len(sigs[i].Results) > 1 {
			t.Errorf("signature %s exceeds bounds", sigs[i])
		}
	}
}

func TestRegistry_NeverEmpty(t *testing.T) {
	r := New()
	r.Generate(rand.New(rand.NewSource(1)), 0, allowed, 0, 0)
	if n := len(r.Signatures()); n != 1 {
		t.Fatalf("%d signatures, want 1", n)
	}
	if diff := cmp.Diff(wasm.FuncType{}, r.Get(0)); diff != "" {
		t.Errorf("zero-bound signature mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Add(t *testing.T) {
	r := New()
	a := wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}
	b := wasm.FuncType{Results: []wasm.ValType{wasm.ValI32}}

	if idx := r.Add(a); idx != 0 {
		t.Errorf("Add(a) = %d, want 0", idx)
	}
	if idx := r.Add(b); idx != 1 {
		t.Errorf("Add(b) = %d, want 1", idx)
	}
	if idx := r.Add(wasm.FuncType{Params: []wasm.ValType{wasm.ValI32}}); idx != 0 {
		t.Errorf("Add(copy of a) = %d, want 0", idx)
	}
	if _, ok := r.IndexOf(wasm.FuncType{Params: []wasm.ValType{wasm.ValI64}}); ok {
		t.Error("IndexOf found an unregistered signature")
	}
}

func TestRegistry_Assign(t *testing.T) {
	r := New()
	rng := rand.New(rand.NewSource(3))
	r.Generate(rng, 20, allowed, 3, 3)

	assigned := r.Assign(rng, 50)
	if len(assigned) != 50 {
		t.Fatalf("Assign returned %d entries, want 50", len(assigned))
	}
	for fn, idx := range assigned {
		if int(idx) >= len(r.Signatures()) {
			t.Errorf("function %d assigned out-of-range index %d", fn, idx)
		}
	}

	r.Reset()
	if n := len(r.Signatures()); n != 0 {
		t.Errorf("%d signatures after Reset", n)
	}
}
