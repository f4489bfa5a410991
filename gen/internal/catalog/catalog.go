// Package catalog declares the instructions the generator can emit together
// with their stack effects, and filters them against a symbolic stack.
package catalog

import (
	"math/rand"

	"github.com/wippyai/wasm-fuzzgen/gen/internal/stack"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// Spec is an immutable catalog entry. Type is the produced value type (zero
// for untyped control instructions and for local.get, whose type comes from
// the chosen local). Operand is the required type of every consumed slot,
// zero meaning any.
type Spec struct {
	Kind     Kind
	Name     string
	Type     wasm.ValType
	Operand  wasm.ValType
	Consumes int
	Produces int
}

// Mnemonic returns the text-format instruction name, e.g. "i32.add".
func (s Spec) Mnemonic() string {
	switch s.Kind {
	case Const, Binary:
		return s.Type.String() + "." + s.Name
	case Compare:
		return s.Operand.String() + "." + s.Name
	}
	return s.Name
}

// Fits reports whether the stack can supply the consumed slots.
func (s Spec) Fits(st *stack.Stack) bool {
	if s.Consumes > st.Depth() {
		return false
	}
	if s.Operand == 0 {
		return true
	}
	for _, t := range st.Top(s.Consumes) {
		if t != s.Operand {
			return false
		}
	}
	return true
}

// Apply pops Consumes slots and pushes Produces copies of Type.
func (s Spec) Apply(st *stack.Stack) error {
	if err := st.Drop(s.Consumes); err != nil {
		return err
	}
	for i := 0; i < s.Produces; i++ {
		st.Push(s.Type)
	}
	return nil
}

// CallSpec binds a call or call_indirect entry to a concrete callee.
// Consumes and Produces follow the callee signature; for call_indirect the
// table index pushed before the call is an extra slot on top of Consumes.
type CallSpec struct {
	Spec
	Callee    uint32
	Signature wasm.FuncType
	TypeIndex uint32
}

// Fits reports whether the top of the stack matches the callee parameters.
func (c CallSpec) Fits(st *stack.Stack) bool {
	return st.TopMatches(c.Signature.Params)
}

// Apply pops the table index (call_indirect only) and the arguments, then
// pushes the callee results.
func (c CallSpec) Apply(st *stack.Stack) error {
	if c.Kind == CallIndirect {
		if _, err := st.Pop(); err != nil {
			return err
		}
	}
	if err := st.Drop(len(c.Signature.Params)); err != nil {
		return err
	}
	for _, t := range c.Signature.Results {
		st.Push(t)
	}
	return nil
}

// Catalog holds the fixed instruction entries for a set of value types and
// the call targets registered for the current module.
type Catalog struct {
	specs []Spec
	calls [2][]CallSpec
}

// New builds the catalog for the allowed value types. The result always
// contains a zero-consumes producer (T.const) for every type.
func New(types []wasm.ValType) *Catalog {
	c := &Catalog{}

	for _, t := range types {
		c.specs = append(c.specs, Spec{Kind: Const, Name: "const", Type: t, Produces: 1})
		for _, name := range wasm.ArithmeticOps {
			c.specs = append(c.specs, Spec{Kind: Binary, Name: name, Type: t, Operand: t, Consumes: 2, Produces: 1})
		}
		for _, name := range wasm.ComparisonOps {
			c.specs = append(c.specs, Spec{Kind: Compare, Name: name, Type: wasm.ValI32, Operand: t, Consumes: 2, Produces: 1})
		}
	}

	c.specs = append(c.specs,
		Spec{Kind: Drop, Name: "drop", Consumes: 1},
		Spec{Kind: LocalGet, Name: "local.get", Produces: 1},
		Spec{Kind: LocalSet, Name: "local.set", Consumes: 1},
		Spec{Kind: Return, Name: "return"},
		Spec{Kind: If, Name: "if", Operand: wasm.ValI32, Consumes: 1},
		Spec{Kind: Loop, Name: "loop"},
		// Call slots are placeholders; the arity comes from the CallSpec
		// resolved at emission.
		Spec{Kind: Call, Name: "call", Produces: 1},
		Spec{Kind: CallIndirect, Name: "call_indirect", Produces: 1},
	)
	return c
}

// CandidatesFor returns the entries not in excluded that the stack can feed.
// On an empty stack only entries that consume nothing and produce something
// qualify.
func (c *Catalog) CandidatesFor(st *stack.Stack, excluded Set) []Spec {
	var out []Spec
	empty := st.Depth() == 0
	for _, s := range c.specs {
		if excluded.Has(s.Kind) {
			continue
		}
		if empty && (s.Consumes != 0 || s.Produces == 0) {
			continue
		}
		if s.Fits(st) {
			out = append(out, s)
		}
	}
	return out
}

// Lookup finds a fixed entry by kind, produced type and name.
// Untyped entries match with t == 0.
func (c *Catalog) Lookup(kind Kind, t wasm.ValType, name string) (Spec, bool) {
	for _, s := range c.specs {
		if s.Kind == kind && s.Type == t && s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}

// AddCallTargets registers fn as a target of both call kinds.
func (c *Catalog) AddCallTargets(fn, typeIndex uint32, sig wasm.FuncType) {
	for i, kind := range []Kind{Call, CallIndirect} {
		c.calls[i] = append(c.calls[i], CallSpec{
			Spec: Spec{
				Kind:     kind,
				Name:     kind.String(),
				Consumes: len(sig.Params),
				Produces: len(sig.Results),
			},
			Callee:    fn,
			Signature: sig,
			TypeIndex: typeIndex,
		})
	}
}

// ResetCalls forgets every registered call target.
func (c *Catalog) ResetCalls() {
	c.calls[0] = nil
	c.calls[1] = nil
}

// CallTargets returns the targets of the given call kind whose parameters
// match the top of the stack.
func (c *Catalog) CallTargets(kind Kind, st *stack.Stack) []CallSpec {
	var out []CallSpec
	for _, cs := range c.calls[callSlot(kind)] {
		if cs.Fits(st) {
			out = append(out, cs)
		}
	}
	return out
}

func callSlot(kind Kind) int {
	if kind == CallIndirect {
		return 1
	}
	return 0
}

// Probabilities are the per-kind survival probabilities used by Suppress.
type Probabilities struct {
	Call         float64
	CallIndirect float64
	If           float64
	Loop         float64
}

// Suppress draws once per suppressible kind, in a fixed order, and returns
// the kinds that lost their draw. A kind survives when a uniform draw in
// [0,1) falls below its probability, so probability 0 always suppresses.
func Suppress(rng *rand.Rand, p Probabilities) Set {
	var s Set
	draws := []struct {
		kind Kind
		p    float64
	}{
		{Call, p.Call},
		{CallIndirect, p.CallIndirect},
		{If, p.If},
		{Loop, p.Loop},
	}
	for _, d := range draws {
		if rng.Float64() >= d.p {
			s = s.With(d.kind)
		}
	}
	return s
}
