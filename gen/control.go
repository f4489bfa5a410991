package gen

import (
	"fmt"

	"github.com/wippyai/wasm-fuzzgen/gen/internal/catalog"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// ifResults picks the result types of an if expression. In the convergence
// phase, when the stack is already a prefix of the target, the if supplies
// exactly the missing suffix.
func (f *funcGen) ifResults(sc *scope) []wasm.ValType {
	if sc.converging && sc.st.PrefixOf(sc.target) {
		missing := sc.target[sc.st.Depth():]
		return append([]wasm.ValType(nil), missing...)
	}
	n := f.g.rng.Intn(f.g.cfg.MaxIfResults + 1)
	if n == 0 {
		return nil
	}
	out := make([]wasm.ValType, n)
	for i := range out {
		out[i] = f.randomType()
	}
	return out
}

func (f *funcGen) emitIf(sc *scope, s catalog.Spec) error {
	if err := f.apply(sc, s); err != nil {
		return err
	}
	results := f.ifResults(sc)

	f.ifDepth++
	defer func() { f.ifDepth-- }()
	excluded := sc.excluded
	if f.ifDepth > f.g.cfg.MaxNestedIfs {
		excluded = excluded.With(catalog.If)
	}

	then := &scope{target: results, excluded: excluded}
	if err := f.run(then); err != nil {
		return err
	}
	ins := Instruction{Op: OpIf, Results: results, Then: then.out}

	// Both arms must agree on the results, so else is mandatory with
	// results and optional without.
	if len(results) > 0 || f.g.rng.Intn(2) == 0 {
		els := &scope{target: results, excluded: excluded}
		if err := f.run(els); err != nil {
			return err
		}
		ins.Else = els.out
		ins.HasElse = true
	}

	f.emit(sc, ins)
	f.stats.Ifs++
	for _, t := range results {
		sc.st.Push(t)
	}
	return nil
}

func (f *funcGen) emitLoop(sc *scope, _ catalog.Spec) error {
	counter := f.newCounter()
	label := fmt.Sprintf("loop%d", f.loopSeq)
	f.loopSeq++

	f.emit(sc, Instruction{Op: OpConst, Type: wasm.ValI32, Value: 0})
	f.emit(sc, Instruction{Op: OpLocalSet, Index: counter})

	f.loopDepth++
	defer func() { f.loopDepth-- }()
	excluded := sc.excluded
	if f.loopDepth > f.g.cfg.MaxNestedLoops {
		excluded = excluded.With(catalog.Loop)
	}

	body := &scope{excluded: excluded}
	if err := f.run(body); err != nil {
		return err
	}

	trips := int64(1 + f.g.rng.Intn(f.g.cfg.MaxLoopIterations))
	tail := []Instruction{
		{Op: OpLocalGet, Index: counter},
		{Op: OpConst, Type: wasm.ValI32, Value: 1},
		{Op: OpBinary, Type: wasm.ValI32, Name: "add"},
		{Op: OpLocalSet, Index: counter},
		{Op: OpLocalGet, Index: counter},
		{Op: OpConst, Type: wasm.ValI32, Value: trips},
		{Op: OpCompare, Type: wasm.ValI32, Name: "lt_s"},
		{Op: OpBrIf, Name: label, Index: 0},
	}
	for _, ins := range tail {
		f.emit(body, ins)
	}

	f.emit(sc, Instruction{Op: OpLoop, Name: label, Body: body.out})
	f.stats.Loops++
	return nil
}

// emitCall resolves the call slot to a random callee whose parameters match
// the stack top. With no such callee a constant is emitted instead.
func (f *funcGen) emitCall(sc *scope, s catalog.Spec) error {
	targets := f.g.cat.CallTargets(s.Kind, &sc.st)
	if len(targets) == 0 {
		c, ok := f.g.cat.Lookup(catalog.Const, f.randomType(), "const")
		if !ok {
			return internalFault(f.fn.Index, "catalog has no constant")
		}
		return f.emitConst(sc, c)
	}
	cs := targets[f.g.rng.Intn(len(targets))]

	if cs.Kind == catalog.CallIndirect {
		f.emit(sc, Instruction{Op: OpConst, Type: wasm.ValI32, Value: int64(cs.Callee)})
		sc.st.Push(wasm.ValI32)
		f.emit(sc, Instruction{Op: OpCallIndirect, Index: cs.TypeIndex, Callee: cs.Callee})
		f.stats.IndirectCalls++
	} else {
		f.emit(sc, Instruction{Op: OpCall, Index: cs.Callee})
		f.stats.Calls++
	}

	if err := cs.Apply(&sc.st); err != nil {
		return internalFault(f.fn.Index, fmt.Sprintf("%s %d: %v", cs.Name, cs.Callee, err))
	}
	f.g.graph.AddEdge(f.fn.Index, cs.Callee)
	return nil
}
