package gen

import (
	"github.com/wippyai/wasm-fuzzgen/callgraph"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// Op tags an Instruction.
type Op uint8

const (
	OpConst Op = iota
	OpDrop
	OpLocalGet
	OpLocalSet
	OpBinary
	OpCompare
	OpReturn
	OpCall
	OpCallIndirect
	OpIf
	OpLoop
	OpBrIf
)

var opNames = [...]string{
	OpConst:        "const",
	OpDrop:         "drop",
	OpLocalGet:     "local.get",
	OpLocalSet:     "local.set",
	OpBinary:       "binary",
	OpCompare:      "compare",
	OpReturn:       "return",
	OpCall:         "call",
	OpCallIndirect: "call_indirect",
	OpIf:           "if",
	OpLoop:         "loop",
	OpBrIf:         "br_if",
}

func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// Instruction is one generated instruction. Which fields are meaningful
// depends on Op:
//
//	OpConst         Type, Value
//	OpLocalGet/Set  Index (params first, then declared locals)
//	OpBinary        Type, Name ("add", "rem_u", ...)
//	OpCompare       Type (operand type), Name ("lt_s", ...)
//	OpCall          Index (callee)
//	OpCallIndirect  Index (type index), Callee
//	OpIf            Results, Then, Else, HasElse
//	OpLoop          Name (label), Body
//	OpBrIf          Name (label), Index (relative depth)
type Instruction struct {
	Op      Op
	Type    wasm.ValType
	Name    string
	Value   int64
	Index   uint32
	Callee  uint32
	Results []wasm.ValType
	Then    []Instruction
	Else    []Instruction
	HasElse bool
	Body    []Instruction
}

// Local is a declared (non-parameter) local of a function.
// Counter marks loop trip counters, which random local access never touches.
type Local struct {
	Name    string
	Type    wasm.ValType
	Counter bool
}

// Function is one generated function body.
type Function struct {
	Index     uint32
	TypeIndex uint32
	Signature wasm.FuncType
	Locals    []Local
	Body      []Instruction
}

// NumLocals returns the size of the local index space (params included).
func (f *Function) NumLocals() int {
	return len(f.Signature.Params) + len(f.Locals)
}

// LocalType returns the type of local index idx.
func (f *Function) LocalType(idx uint32) (wasm.ValType, bool) {
	n := uint32(len(f.Signature.Params))
	if idx < n {
		return f.Signature.Params[idx], true
	}
	if int(idx-n) < len(f.Locals) {
		return f.Locals[idx-n].Type, true
	}
	return 0, false
}

// LocalName returns the declared name of local index idx; parameters have
// no name.
func (f *Function) LocalName(idx uint32) (string, bool) {
	n := uint32(len(f.Signature.Params))
	if idx < n || int(idx-n) >= len(f.Locals) {
		return "", false
	}
	return f.Locals[idx-n].Name, true
}

// Module is a complete generated module.
type Module struct {
	Seed       int64
	Signatures []wasm.FuncType
	Functions  []*Function
	Export     uint32
	ExportName string
	Graph      *callgraph.Graph
	Stats      Stats
}

// Stats counts what a generation run emitted.
type Stats struct {
	Instructions  int
	Fixups        int
	Calls         int
	IndirectCalls int
	Ifs           int
	Loops         int
	Returns       int
	Locals        int

	// Unreachable counts functions the export never reaches through calls.
	Unreachable int
}

// Add accumulates o into s.
func (s *Stats) Add(o Stats) {
	s.Instructions += o.Instructions
	s.Fixups += o.Fixups
	s.Calls += o.Calls
	s.IndirectCalls += o.IndirectCalls
	s.Ifs += o.Ifs
	s.Loops += o.Loops
	s.Returns += o.Returns
	s.Locals += o.Locals
	s.Unreachable += o.Unreachable
}

// Walk visits every instruction of body depth first, reporting how many
// ifs and loops enclose it.
func Walk(body []Instruction, visit func(ins *Instruction, ifs, loops int)) {
	walk(body, 0, 0, visit)
}

func walk(body []Instruction, ifs, loops int, visit func(*Instruction, int, int)) {
	for i := range body {
		ins := &body[i]
		visit(ins, ifs, loops)
		switch ins.Op {
		case OpIf:
			walk(ins.Then, ifs+1, loops, visit)
			walk(ins.Else, ifs+1, loops, visit)
		case OpLoop:
			walk(ins.Body, ifs, loops+1, visit)
		}
	}
}
