package wat

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/wippyai/wasm-fuzzgen/gen"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

const indentUnit = "  "

// Format returns the module text.
func Format(m *gen.Module) string {
	var buf bytes.Buffer
	_ = Write(&buf, m)
	return buf.String()
}

// Write writes the module text to w.
func Write(w io.Writer, m *gen.Module) error {
	p := &printer{}
	p.line(0, "(module")
	for _, sig := range m.Signatures {
		p.line(1, "(type (func"+typeGroups(sig)+"))")
	}
	n := len(m.Functions)
	p.line(1, fmt.Sprintf("(table %d funcref)", n))
	elems := make([]string, n)
	for i := range elems {
		elems[i] = fmt.Sprint(i)
	}
	p.line(1, "(elem (i32.const 0) "+strings.Join(elems, " ")+")")
	p.line(1, fmt.Sprintf("(export %q (func %d))", m.ExportName, m.Export))
	for _, fn := range m.Functions {
		p.function(1, fn)
	}
	p.line(0, ")")

	_, err := w.Write(p.buf.Bytes())
	return err
}

// FormatFunction returns the text of a single func declaration.
func FormatFunction(fn *gen.Function) string {
	p := &printer{}
	p.function(0, fn)
	return p.buf.String()
}

// FormatBody returns the instructions of body, one per line, resolving
// local names against fn.
func FormatBody(fn *gen.Function, body []gen.Instruction) string {
	p := &printer{fn: fn}
	p.body(0, body)
	return p.buf.String()
}

// Instruction returns the text of a plain (non-structured) instruction.
func Instruction(fn *gen.Function, ins *gen.Instruction) string {
	switch ins.Op {
	case gen.OpConst:
		return fmt.Sprintf("%s.const %d", ins.Type, ins.Value)
	case gen.OpDrop:
		return "drop"
	case gen.OpLocalGet:
		return "local.get " + localRef(fn, ins.Index)
	case gen.OpLocalSet:
		return "local.set " + localRef(fn, ins.Index)
	case gen.OpBinary, gen.OpCompare:
		return ins.Type.String() + "." + ins.Name
	case gen.OpReturn:
		return "return"
	case gen.OpCall:
		return fmt.Sprintf("call %d", ins.Index)
	case gen.OpCallIndirect:
		return fmt.Sprintf("call_indirect (type %d)", ins.Index)
	case gen.OpBrIf:
		return "br_if $" + ins.Name
	}
	return ";; " + ins.Op.String()
}

type printer struct {
	buf bytes.Buffer
	fn  *gen.Function
}

func (p *printer) line(depth int, s string) {
	for i := 0; i < depth; i++ {
		p.buf.WriteString(indentUnit)
	}
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

func (p *printer) function(depth int, fn *gen.Function) {
	p.fn = fn
	p.line(depth, fmt.Sprintf("(func $%d (type %d)%s", fn.Index, fn.TypeIndex, typeGroups(fn.Signature)))
	for _, l := range fn.Locals {
		p.line(depth+1, fmt.Sprintf("(local $%s %s)", l.Name, l.Type))
	}
	p.body(depth+1, fn.Body)
	p.line(depth, ")")
}

func (p *printer) body(depth int, body []gen.Instruction) {
	for i := range body {
		ins := &body[i]
		switch ins.Op {
		case gen.OpIf:
			head := "(if"
			if len(ins.Results) > 0 {
				head += " (result " + wasm.JoinTypes(ins.Results) + ")"
			}
			p.line(depth, head)
			p.line(depth+1, "(then")
			p.body(depth+2, ins.Then)
			p.line(depth+1, ")")
			if ins.HasElse {
				p.line(depth+1, "(else")
				p.body(depth+2, ins.Else)
				p.line(depth+1, ")")
			}
			p.line(depth, ")")
		case gen.OpLoop:
			p.line(depth, "(loop $"+ins.Name)
			p.body(depth+1, ins.Body)
			p.line(depth, ")")
		default:
			p.line(depth, Instruction(p.fn, ins))
		}
	}
}

func typeGroups(sig wasm.FuncType) string {
	var s string
	if len(sig.Params) > 0 {
		s += " (param " + wasm.JoinTypes(sig.Params) + ")"
	}
	if len(sig.Results) > 0 {
		s += " (result " + wasm.JoinTypes(sig.Results) + ")"
	}
	return s
}

func localRef(fn *gen.Function, idx uint32) string {
	if fn != nil {
		if name, ok := fn.LocalName(idx); ok {
			return "$" + name
		}
	}
	return fmt.Sprint(idx)
}
