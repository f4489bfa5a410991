package gen

import (
	"fmt"

	"github.com/wippyai/wasm-fuzzgen/gen/internal/catalog"
	"github.com/wippyai/wasm-fuzzgen/gen/internal/stack"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// funcGen is the per-function generation context.
type funcGen struct {
	g     *Generator
	fn    *Function
	stats Stats

	ifDepth   int
	loopDepth int
	loopSeq   int
	localSeq  int
	counter   int

	// locals random local.get/local.set may use, overall and per type
	access []uint32
	byType map[wasm.ValType][]uint32
}

// scope is one block being generated: the function body, an if branch or
// a loop body. Each scope starts from an empty stack.
type scope struct {
	st         stack.Stack
	target     []wasm.ValType
	excluded   catalog.Set
	function   bool
	converging bool
	returned   bool
	out        []Instruction
}

func (f *funcGen) emit(sc *scope, ins Instruction) {
	sc.out = append(sc.out, ins)
	f.stats.Instructions++
}

// exhausted reports whether the function has used its instruction budget.
// The budget covers every scope of the function, nested ones included.
func (f *funcGen) exhausted() bool {
	return f.stats.Instructions >= f.g.cfg.MaxInstructions
}

// run generates sc until it closes at its target types. Once the function
// budget is spent no scope draws further steps; each one goes straight to
// fixup.
func (f *funcGen) run(sc *scope) error {
	for count := 0; count < f.g.cfg.MinInstructions && !f.exhausted() && !sc.returned; count++ {
		if err := f.step(sc); err != nil {
			return err
		}
	}

	sc.converging = true
	for !sc.st.Matches(sc.target) && !f.exhausted() && !sc.returned {
		if err := f.step(sc); err != nil {
			return err
		}
	}

	if sc.returned {
		return nil
	}
	return f.fixup(sc)
}

// step selects and emits one catalog entry.
func (f *funcGen) step(sc *scope) error {
	excluded := sc.excluded | catalog.Suppress(f.g.rng, f.g.probs)
	if !sc.function || !sc.st.Matches(f.fn.Signature.Results) {
		excluded = excluded.With(catalog.Return)
	}

	candidates := f.g.cat.CandidatesFor(&sc.st, excluded)
	if len(candidates) == 0 {
		return internalFault(f.fn.Index, fmt.Sprintf("no candidate instruction for stack %v", sc.st.Snapshot()))
	}
	s := candidates[f.g.rng.Intn(len(candidates))]
	return f.g.handlers[s.Kind](f, sc, s)
}

// fixup drops values until the stack is a prefix of the target, then
// pushes a constant for every missing slot.
func (f *funcGen) fixup(sc *scope) error {
	if sc.st.Matches(sc.target) {
		return nil
	}
	f.stats.Fixups++

	drop, ok := f.g.cat.Lookup(catalog.Drop, 0, "drop")
	if !ok {
		return internalFault(f.fn.Index, "catalog has no drop")
	}
	for !sc.st.PrefixOf(sc.target) {
		if err := f.emitDrop(sc, drop); err != nil {
			return err
		}
	}

	for _, t := range sc.target[sc.st.Depth():] {
		c, ok := f.g.cat.Lookup(catalog.Const, t, "const")
		if !ok {
			return internalFault(f.fn.Index, "catalog has no "+t.String()+".const")
		}
		if err := f.emitConst(sc, c); err != nil {
			return err
		}
	}
	return nil
}

func (f *funcGen) randomType() wasm.ValType {
	return f.g.types[f.g.rng.Intn(len(f.g.types))]
}

func (f *funcGen) apply(sc *scope, s catalog.Spec) error {
	if err := s.Apply(&sc.st); err != nil {
		return internalFault(f.fn.Index, fmt.Sprintf("%s: %v", s.Mnemonic(), err))
	}
	return nil
}

func (f *funcGen) emitConst(sc *scope, s catalog.Spec) error {
	f.emit(sc, Instruction{Op: OpConst, Type: s.Type, Value: int64(f.g.rng.Intn(101))})
	return f.apply(sc, s)
}

func (f *funcGen) emitDrop(sc *scope, s catalog.Spec) error {
	f.emit(sc, Instruction{Op: OpDrop})
	return f.apply(sc, s)
}

func (f *funcGen) emitNumeric(sc *scope, s catalog.Spec) error {
	ins := Instruction{Op: OpBinary, Type: s.Type, Name: s.Name}
	if s.Kind == catalog.Compare {
		ins = Instruction{Op: OpCompare, Type: s.Operand, Name: s.Name}
	}
	f.emit(sc, ins)
	return f.apply(sc, s)
}

func (f *funcGen) emitReturn(sc *scope, _ catalog.Spec) error {
	f.emit(sc, Instruction{Op: OpReturn})
	f.stats.Returns++
	sc.returned = true
	return nil
}
