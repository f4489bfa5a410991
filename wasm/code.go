package wasm

import (
	"github.com/wippyai/wasm-fuzzgen/wasm/internal/binary"
)

// CodeWriter accumulates the instruction bytes of one function body.
// Immediates are LEB128 encoded as the binary format requires.
type CodeWriter struct {
	w *binary.Writer
}

// NewCodeWriter creates an empty instruction buffer.
func NewCodeWriter() *CodeWriter {
	return &CodeWriter{w: binary.NewWriter()}
}

// Op writes a bare opcode.
func (c *CodeWriter) Op(op byte) {
	c.w.Byte(op)
}

// OpU32 writes an opcode followed by an unsigned immediate (local, function,
// label or type index).
func (c *CodeWriter) OpU32(op byte, imm uint32) {
	c.w.Byte(op)
	c.w.WriteU32(imm)
}

// Const writes t.const with a signed immediate sized for t.
func (c *CodeWriter) Const(t ValType, v int64) {
	switch t {
	case ValI64:
		c.w.Byte(OpI64Const)
		c.w.WriteS64(v)
	default:
		c.w.Byte(OpI32Const)
		c.w.WriteS32(int32(v))
	}
}

// CallIndirect writes call_indirect with its type index and table 0.
func (c *CodeWriter) CallIndirect(typeIdx uint32) {
	c.w.Byte(OpCallIndirect)
	c.w.WriteU32(typeIdx)
	c.w.WriteU32(0)
}

// BlockType writes a structured instruction opcode with its block type:
// 0x40 for no results, a value type for one result, or a type index.
func (c *CodeWriter) BlockType(op byte, results []ValType, typeIdx uint32) {
	c.w.Byte(op)
	switch len(results) {
	case 0:
		c.w.Byte(BlockTypeVoid)
	case 1:
		c.w.Byte(byte(results[0]))
	default:
		c.w.WriteS64(int64(typeIdx))
	}
}

// Bytes returns the encoded instructions.
func (c *CodeWriter) Bytes() []byte {
	return c.w.Bytes()
}
