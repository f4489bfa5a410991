package gen

import (
	"fmt"

	"github.com/wippyai/wasm-fuzzgen/gen/internal/catalog"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// indexParams makes the parameters available to random local access.
func (f *funcGen) indexParams() {
	f.byType = make(map[wasm.ValType][]uint32)
	for i, p := range f.fn.Signature.Params {
		f.index(uint32(i), p)
	}
}

func (f *funcGen) index(idx uint32, t wasm.ValType) {
	f.access = append(f.access, idx)
	f.byType[t] = append(f.byType[t], idx)
}

// accessible returns the local indices random local access may use:
// parameters plus non-counter locals, restricted to type t unless t is 0.
func (f *funcGen) accessible(t wasm.ValType) []uint32 {
	if t == 0 {
		return f.access
	}
	return f.byType[t]
}

func (f *funcGen) declare(name string, t wasm.ValType, counter bool) uint32 {
	f.fn.Locals = append(f.fn.Locals, Local{Name: name, Type: t, Counter: counter})
	idx := uint32(f.fn.NumLocals() - 1)
	if !counter {
		f.index(idx, t)
	}
	return idx
}

func (f *funcGen) newLocal(t wasm.ValType) uint32 {
	name := fmt.Sprintf("local%d", f.localSeq)
	f.localSeq++
	return f.declare(name, t, false)
}

func (f *funcGen) newCounter() uint32 {
	name := fmt.Sprintf("counter%d", f.counter)
	f.counter++
	return f.declare(name, wasm.ValI32, true)
}

func (f *funcGen) emitLocalGet(sc *scope, _ catalog.Spec) error {
	idx, ok := f.pick(f.accessible(0))
	if !ok {
		idx = f.newLocal(f.randomType())
	}
	t, _ := f.fn.LocalType(idx)
	f.emit(sc, Instruction{Op: OpLocalGet, Index: idx})
	sc.st.Push(t)
	return nil
}

func (f *funcGen) emitLocalSet(sc *scope, _ catalog.Spec) error {
	t, ok := sc.st.Peek()
	if !ok {
		return internalFault(f.fn.Index, "local.set on empty stack")
	}
	idx, ok := f.pick(f.accessible(t))
	if !ok {
		idx = f.newLocal(t)
	}
	f.emit(sc, Instruction{Op: OpLocalSet, Index: idx})
	_, err := sc.st.Pop()
	return err
}

func (f *funcGen) pick(idxs []uint32) (uint32, bool) {
	if len(idxs) == 0 {
		return 0, false
	}
	return idxs[f.g.rng.Intn(len(idxs))], true
}
