package gen

import (
	"fmt"

	"github.com/wippyai/wasm-fuzzgen/errors"
	"github.com/wippyai/wasm-fuzzgen/gen/internal/stack"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// Check re-executes every function body of m through a symbolic stack and
// reports the first typing violation: a pop from a too-shallow stack, an
// operand of the wrong type, or a block that closes with the wrong results.
func Check(m *Module) error {
	for _, fn := range m.Functions {
		if err := CheckFunction(m, fn); err != nil {
			return err
		}
	}
	return nil
}

// CheckFunction checks a single function of m.
func CheckFunction(m *Module, fn *Function) error {
	c := &checker{m: m, fn: fn}
	return c.block(fn.Body, fn.Signature.Results, []string{fmt.Sprintf("func%d", fn.Index)})
}

type checker struct {
	m  *Module
	fn *Function
}

func (c *checker) block(body []Instruction, results []wasm.ValType, path []string) error {
	st := stack.New()

	for i := range body {
		ins := &body[i]
		at := append(path[:len(path):len(path)], fmt.Sprintf("%d:%s", i, ins.Op))

		switch ins.Op {
		case OpConst:
			st.Push(ins.Type)

		case OpDrop:
			if err := pop(st, at, 0); err != nil {
				return err
			}

		case OpLocalGet:
			t, ok := c.fn.LocalType(ins.Index)
			if !ok {
				return errors.NotFound(errors.PhaseCheck, "local", fmt.Sprint(ins.Index))
			}
			st.Push(t)

		case OpLocalSet:
			t, ok := c.fn.LocalType(ins.Index)
			if !ok {
				return errors.NotFound(errors.PhaseCheck, "local", fmt.Sprint(ins.Index))
			}
			if err := pop(st, at, t); err != nil {
				return err
			}

		case OpBinary, OpCompare:
			if _, ok := wasm.NumericOpcode(ins.Type, ins.Name); !ok {
				return errors.Unsupported(errors.PhaseCheck, ins.Type.String()+"."+ins.Name)
			}
			if err := popN(st, at, []wasm.ValType{ins.Type, ins.Type}); err != nil {
				return err
			}
			if ins.Op == OpCompare {
				st.Push(wasm.ValI32)
			} else {
				st.Push(ins.Type)
			}

		case OpReturn:
			// Only the returned values matter; whatever follows is unreachable.
			if !st.TopMatches(c.fn.Signature.Results) {
				return errors.ArityMismatch(errors.PhaseCheck, at, st.Snapshot(), c.fn.Signature.Results)
			}
			return nil

		case OpCall:
			if int(ins.Index) >= len(c.m.Functions) {
				return errors.NotFound(errors.PhaseCheck, "function", fmt.Sprint(ins.Index))
			}
			if err := call(st, at, c.m.Functions[ins.Index].Signature); err != nil {
				return err
			}

		case OpCallIndirect:
			if int(ins.Index) >= len(c.m.Signatures) {
				return errors.NotFound(errors.PhaseCheck, "type", fmt.Sprint(ins.Index))
			}
			if int(ins.Callee) < len(c.m.Functions) && c.m.Functions[ins.Callee].TypeIndex != ins.Index {
				return errors.TypeMismatch(errors.PhaseCheck, at,
					fmt.Sprintf("type %d", c.m.Functions[ins.Callee].TypeIndex), fmt.Sprintf("type %d", ins.Index))
			}
			if err := pop(st, at, wasm.ValI32); err != nil {
				return err
			}
			if err := call(st, at, c.m.Signatures[ins.Index]); err != nil {
				return err
			}

		case OpIf:
			if err := pop(st, at, wasm.ValI32); err != nil {
				return err
			}
			if err := c.block(ins.Then, ins.Results, append(at, "then")); err != nil {
				return err
			}
			if ins.HasElse {
				if err := c.block(ins.Else, ins.Results, append(at, "else")); err != nil {
					return err
				}
			} else if len(ins.Results) > 0 {
				return errors.ArityMismatch(errors.PhaseCheck, append(at, "else"), nil, ins.Results)
			}
			for _, t := range ins.Results {
				st.Push(t)
			}

		case OpLoop:
			if err := c.block(ins.Body, nil, append(at, "body")); err != nil {
				return err
			}

		case OpBrIf:
			if err := pop(st, at, wasm.ValI32); err != nil {
				return err
			}

		default:
			return errors.Unsupported(errors.PhaseCheck, "op "+ins.Op.String())
		}
	}

	if !st.Matches(results) {
		return errors.ArityMismatch(errors.PhaseCheck, path, st.Snapshot(), results)
	}
	return nil
}

// pop removes one slot, requiring type want unless want is zero.
func pop(st *stack.Stack, path []string, want wasm.ValType) error {
	got, err := st.Pop()
	if err != nil {
		return errors.Underflow(errors.PhaseCheck, path, 1, 0)
	}
	if want != 0 && got != want {
		return errors.TypeMismatch(errors.PhaseCheck, path, got.String(), want.String())
	}
	return nil
}

// popN removes len(want) slots whose types, bottom first, must equal want.
func popN(st *stack.Stack, path []string, want []wasm.ValType) error {
	if st.Depth() < len(want) {
		return errors.Underflow(errors.PhaseCheck, path, len(want), st.Depth())
	}
	if !st.TopMatches(want) {
		return errors.TypeMismatch(errors.PhaseCheck, path,
			wasm.JoinTypes(st.Top(len(want))), wasm.JoinTypes(want))
	}
	return st.Drop(len(want))
}

func call(st *stack.Stack, path []string, sig wasm.FuncType) error {
	if err := popN(st, path, sig.Params); err != nil {
		return err
	}
	for _, t := range sig.Results {
		st.Push(t)
	}
	return nil
}
