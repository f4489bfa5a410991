package wasm

// WebAssembly binary format magic number and version.
const (
	// Magic is the WebAssembly binary magic number ("\0asm" in little-endian).
	Magic uint32 = 0x6D736100

	// Version is the supported WebAssembly binary format version.
	Version uint32 = 0x01
)

// Section IDs emitted by the encoder, in the order they must appear.
const (
	SectionType     byte = 1  // Type section (function signatures)
	SectionFunction byte = 3  // Function section (type indices)
	SectionTable    byte = 4  // Table section
	SectionExport   byte = 7  // Export section
	SectionElement  byte = 9  // Element section
	SectionCode     byte = 10 // Code section (function bodies)
)

// Export descriptor kinds.
const (
	KindFunc byte = 0 // Function export
)

// Value type encodings as defined in the WebAssembly binary format.
const (
	ValI32     ValType = 0x7F // 32-bit integer
	ValI64     ValType = 0x7E // 64-bit integer
	ValFuncRef ValType = 0x70 // Function reference
)

// Type constructors and block types
const (
	FuncTypeByte  byte = 0x60
	BlockTypeVoid byte = 0x40
)

// Control flow opcodes
const (
	OpLoop         byte = 0x03
	OpIf           byte = 0x04
	OpElse         byte = 0x05
	OpEnd          byte = 0x0B
	OpBrIf         byte = 0x0D
	OpReturn       byte = 0x0F
	OpCall         byte = 0x10
	OpCallIndirect byte = 0x11
)

// Parametric and variable opcodes
const (
	OpDrop     byte = 0x1A
	OpLocalGet byte = 0x20
	OpLocalSet byte = 0x21
)

// Constant opcodes
const (
	OpI32Const byte = 0x41
	OpI64Const byte = 0x42
)

// i32 comparison opcodes
const (
	OpI32Eq  byte = 0x46
	OpI32Ne  byte = 0x47
	OpI32LtS byte = 0x48
	OpI32LtU byte = 0x49
	OpI32GtS byte = 0x4A
	OpI32GtU byte = 0x4B
	OpI32LeS byte = 0x4C
	OpI32LeU byte = 0x4D
	OpI32GeS byte = 0x4E
	OpI32GeU byte = 0x4F
)

// i64 comparison opcodes
const (
	OpI64Eq  byte = 0x51
	OpI64Ne  byte = 0x52
	OpI64LtS byte = 0x53
	OpI64LtU byte = 0x54
	OpI64GtS byte = 0x55
	OpI64GtU byte = 0x56
	OpI64LeS byte = 0x57
	OpI64LeU byte = 0x58
	OpI64GeS byte = 0x59
	OpI64GeU byte = 0x5A
)

// i32 numeric opcodes
const (
	OpI32Add  byte = 0x6A
	OpI32Sub  byte = 0x6B
	OpI32Mul  byte = 0x6C
	OpI32DivS byte = 0x6D
	OpI32DivU byte = 0x6E
	OpI32RemU byte = 0x70
	OpI32And  byte = 0x71
	OpI32Or   byte = 0x72
	OpI32Xor  byte = 0x73
)

// i64 numeric opcodes
const (
	OpI64Add  byte = 0x7C
	OpI64Sub  byte = 0x7D
	OpI64Mul  byte = 0x7E
	OpI64DivS byte = 0x7F
	OpI64DivU byte = 0x80
	OpI64RemU byte = 0x82
	OpI64And  byte = 0x83
	OpI64Or   byte = 0x84
	OpI64Xor  byte = 0x85
)

// Mnemonics of the two-operand integer instructions, without the type prefix.
var (
	ArithmeticOps = []string{"add", "sub", "mul", "div_s", "div_u", "rem_u", "and", "or", "xor"}
	ComparisonOps = []string{"eq", "ne", "lt_s", "lt_u", "gt_s", "gt_u", "le_s", "le_u", "ge_s", "ge_u"}
)

var numericOpcodes = map[ValType]map[string]byte{
	ValI32: {
		"add": OpI32Add, "sub": OpI32Sub, "mul": OpI32Mul,
		"div_s": OpI32DivS, "div_u": OpI32DivU, "rem_u": OpI32RemU,
		"and": OpI32And, "or": OpI32Or, "xor": OpI32Xor,
		"eq": OpI32Eq, "ne": OpI32Ne,
		"lt_s": OpI32LtS, "lt_u": OpI32LtU, "gt_s": OpI32GtS, "gt_u": OpI32GtU,
		"le_s": OpI32LeS, "le_u": OpI32LeU, "ge_s": OpI32GeS, "ge_u": OpI32GeU,
	},
	ValI64: {
		"add": OpI64Add, "sub": OpI64Sub, "mul": OpI64Mul,
		"div_s": OpI64DivS, "div_u": OpI64DivU, "rem_u": OpI64RemU,
		"and": OpI64And, "or": OpI64Or, "xor": OpI64Xor,
		"eq": OpI64Eq, "ne": OpI64Ne,
		"lt_s": OpI64LtS, "lt_u": OpI64LtU, "gt_s": OpI64GtS, "gt_u": OpI64GtU,
		"le_s": OpI64LeS, "le_u": OpI64LeU, "ge_s": OpI64GeS, "ge_u": OpI64GeU,
	},
}

// NumericOpcode returns the opcode of a typed two-operand instruction such as
// i32.add or i64.lt_s.
func NumericOpcode(t ValType, name string) (byte, bool) {
	ops, ok := numericOpcodes[t]
	if !ok {
		return 0, false
	}
	op, ok := ops[name]
	return op, ok
}

// ConstOpcode returns the t.const opcode.
func ConstOpcode(t ValType) (byte, bool) {
	switch t {
	case ValI32:
		return OpI32Const, true
	case ValI64:
		return OpI64Const, true
	}
	return 0, false
}
