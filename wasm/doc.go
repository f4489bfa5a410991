// Package wasm provides the core WebAssembly primitives the generator emits.
//
// It defines the integer value types, function signatures, the opcodes of the
// instruction subset the generator produces, and a binary encoder for the
// module shape every generated module shares:
//
//	type section      deduplicated function signatures, then block types
//	function section  one type index per function
//	table section     one funcref table sized to the function count
//	export section    the designated entry function
//	element section   one active segment listing every function in order
//	code section      locals and instruction bytes per function
//
// Instruction bytes are produced with a CodeWriter:
//
//	c := wasm.NewCodeWriter()
//	c.Const(wasm.ValI32, 7)
//	c.Op(wasm.OpDrop)
//	c.Op(wasm.OpEnd)
//
//	m := &wasm.Module{
//		Types: []wasm.FuncType{{}},
//		Funcs: []uint32{0},
//		Code:  []wasm.FuncBody{{Code: c.Bytes()}},
//	}
//	bin := m.Encode()
package wasm
