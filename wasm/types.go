package wasm

import (
	"fmt"
	"strings"
)

// ValType is a WebAssembly value type encoding
type ValType byte

// String returns the text-format name of the value type.
func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValFuncRef:
		return "funcref"
	}
	return fmt.Sprintf("valtype(0x%02x)", byte(v))
}

// ParseValType maps a text-format name to its value type.
// Only the integer types the generator can produce are accepted.
func ParseValType(s string) (ValType, bool) {
	switch s {
	case "i32":
		return ValI32, true
	case "i64":
		return ValI64, true
	}
	return 0, false
}

// FuncType represents a WebAssembly function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports structural equality of the ordered parameter and result lists.
func (f FuncType) Equal(o FuncType) bool {
	return equalTypes(f.Params, o.Params) && equalTypes(f.Results, o.Results)
}

// String renders the signature as "(i32 i32) -> (i32)".
func (f FuncType) String() string {
	return "(" + JoinTypes(f.Params) + ") -> (" + JoinTypes(f.Results) + ")"
}

// JoinTypes renders value types separated by single spaces.
func JoinTypes(types []ValType) string {
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}

func equalTypes(a, b []ValType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Module is the encodable shape of a generated module: a type section, one
// funcref table filled by a single active element segment, exports and code.
type Module struct {
	Types     []FuncType
	Funcs     []uint32 // Type indices for declared functions
	TableSize uint32
	Elements  []uint32 // Function indices placed at table offset 0
	Exports   []Export
	Code      []FuncBody
}

// Export is a function export
type Export struct {
	Name string
	Idx  uint32
}

// FuncBody is a function's local declarations and instruction bytes
// (including the terminating end opcode).
type FuncBody struct {
	Locals []ValType
	Code   []byte
}
