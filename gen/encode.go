package gen

import (
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// Lower converts the module to its binary-format shape. Function signatures
// keep their indices; block types with more than one result are appended to
// the type section after them.
func (m *Module) Lower() *wasm.Module {
	l := &lowering{types: append([]wasm.FuncType(nil), m.Signatures...)}

	out := &wasm.Module{
		Funcs:     make([]uint32, len(m.Functions)),
		TableSize: uint32(len(m.Functions)),
		Elements:  make([]uint32, len(m.Functions)),
		Exports:   []wasm.Export{{Name: m.ExportName, Idx: m.Export}},
		Code:      make([]wasm.FuncBody, len(m.Functions)),
	}

	for i, fn := range m.Functions {
		out.Funcs[i] = fn.TypeIndex
		out.Elements[i] = uint32(i)

		locals := make([]wasm.ValType, len(fn.Locals))
		for j, loc := range fn.Locals {
			locals[j] = loc.Type
		}

		c := wasm.NewCodeWriter()
		l.body(c, fn.Body)
		c.Op(wasm.OpEnd)
		out.Code[i] = wasm.FuncBody{Locals: locals, Code: c.Bytes()}
	}

	out.Types = l.types
	return out
}

// Encode returns the module in WebAssembly binary format.
func (m *Module) Encode() []byte {
	return m.Lower().Encode()
}

type lowering struct {
	types []wasm.FuncType
}

// blockType returns the type index for a multi-value block, adding a
// () -> (results) type when no equal one exists.
func (l *lowering) blockType(results []wasm.ValType) uint32 {
	if len(results) < 2 {
		return 0
	}
	ft := wasm.FuncType{Results: results}
	for i, t := range l.types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	l.types = append(l.types, ft)
	return uint32(len(l.types) - 1)
}

func (l *lowering) body(c *wasm.CodeWriter, body []Instruction) {
	for i := range body {
		ins := &body[i]
		switch ins.Op {
		case OpConst:
			c.Const(ins.Type, ins.Value)
		case OpDrop:
			c.Op(wasm.OpDrop)
		case OpLocalGet:
			c.OpU32(wasm.OpLocalGet, ins.Index)
		case OpLocalSet:
			c.OpU32(wasm.OpLocalSet, ins.Index)
		case OpBinary, OpCompare:
			op, _ := wasm.NumericOpcode(ins.Type, ins.Name)
			c.Op(op)
		case OpReturn:
			c.Op(wasm.OpReturn)
		case OpCall:
			c.OpU32(wasm.OpCall, ins.Index)
		case OpCallIndirect:
			c.CallIndirect(ins.Index)
		case OpIf:
			c.BlockType(wasm.OpIf, ins.Results, l.blockType(ins.Results))
			l.body(c, ins.Then)
			if ins.HasElse {
				c.Op(wasm.OpElse)
				l.body(c, ins.Else)
			}
			c.Op(wasm.OpEnd)
		case OpLoop:
			c.BlockType(wasm.OpLoop, nil, 0)
			l.body(c, ins.Body)
			c.Op(wasm.OpEnd)
		case OpBrIf:
			c.OpU32(wasm.OpBrIf, ins.Index)
		}
	}
}
