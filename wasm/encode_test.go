package wasm

import (
	"bytes"
	"context"
	"testing"

	"github.com/tetratelabs/wazero"
)

func TestEncode_Header(t *testing.T) {
	m := &Module{}
	got := m.Encode()
	want := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("Encode(empty) = %x, want %x", got, want)
	}
}

func TestEncode_TypeSection(t *testing.T) {
	m := &Module{
		Types: []FuncType{{Params: []ValType{ValI32}, Results: []ValType{ValI64}}},
	}
	got := m.Encode()[8:]
	want := []byte{
		SectionType, 0x06, // id, size
		0x01,                // one type
		FuncTypeByte,        // func
		0x01, byte(ValI32),  // params
		0x01, byte(ValI64),  // results
	}
	if !bytes.Equal(got, want) {
		t.Errorf("type section = %x, want %x", got, want)
	}
}

func TestEncode_CompilesUnderWazero(t *testing.T) {
	ctx := context.Background()

	// func 0: () -> i32, calls func 1 indirectly through the table
	c0 := NewCodeWriter()
	c0.Const(ValI32, 41)
	c0.Const(ValI32, 1)
	c0.CallIndirect(1)
	c0.Op(OpReturn)
	c0.Op(OpEnd)

	// func 1: (i32) -> i32, adds one inside an if with a two-value block type
	c1 := NewCodeWriter()
	c1.OpU32(OpLocalGet, 0)
	c1.BlockType(OpIf, []ValType{ValI32, ValI32}, 2)
	c1.Const(ValI32, 1)
	c1.Const(ValI32, 2)
	c1.Op(OpElse)
	c1.Const(ValI32, 3)
	c1.Const(ValI32, 4)
	c1.Op(OpEnd)
	c1.Op(OpI32Add)
	c1.OpU32(OpLocalGet, 0)
	c1.Op(OpI32Add)
	c1.Op(OpEnd)

	m := &Module{
		Types: []FuncType{
			{Results: []ValType{ValI32}},
			{Params: []ValType{ValI32}, Results: []ValType{ValI32}},
			{Results: []ValType{ValI32, ValI32}},
		},
		Funcs:     []uint32{0, 1},
		TableSize: 2,
		Elements:  []uint32{0, 1},
		Exports:   []Export{{Name: "start", Idx: 0}},
		Code: []FuncBody{
			{Code: c0.Bytes()},
			{Locals: []ValType{ValI64}, Code: c1.Bytes()},
		},
	}

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, m.Encode())
	if err != nil {
		t.Fatalf("CompileModule: %v", err)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("test"))
	if err != nil {
		t.Fatalf("InstantiateModule: %v", err)
	}
	defer mod.Close(ctx)

	results, err := mod.ExportedFunction("start").Call(ctx)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(results) != 1 || uint32(results[0]) != 44 {
		t.Errorf("start() = %v, want [44]", results)
	}
}

func TestNumericOpcode(t *testing.T) {
	tests := []struct {
		typ  ValType
		name string
		want byte
	}{
		{ValI32, "add", OpI32Add},
		{ValI32, "ge_u", OpI32GeU},
		{ValI64, "rem_u", OpI64RemU},
		{ValI64, "lt_s", OpI64LtS},
	}
	for _, tt := range tests {
		got, ok := NumericOpcode(tt.typ, tt.name)
		if !ok || got != tt.want {
			t.Errorf("NumericOpcode(%s, %s) = 0x%02x, %v; want 0x%02x", tt.typ, tt.name, got, ok, tt.want)
		}
	}

	for _, name := range append(append([]string{}, ArithmeticOps...), ComparisonOps...) {
		for _, typ := range []ValType{ValI32, ValI64} {
			if _, ok := NumericOpcode(typ, name); !ok {
				t.Errorf("NumericOpcode(%s, %s) missing", typ, name)
			}
		}
	}

	if _, ok := NumericOpcode(ValFuncRef, "add"); ok {
		t.Error("NumericOpcode(funcref) should fail")
	}
}

func TestFuncType_Equal(t *testing.T) {
	a := FuncType{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI32}}
	b := FuncType{Params: []ValType{ValI32, ValI32}, Results: []ValType{ValI32}}
	c := FuncType{Params: []ValType{ValI32}, Results: []ValType{ValI32, ValI32}}

	if !a.Equal(b) {
		t.Error("identical signatures should be equal")
	}
	if a.Equal(c) {
		t.Error("same total arity with different split should differ")
	}
	if got := a.String(); got != "(i32 i32) -> (i32)" {
		t.Errorf("String() = %q", got)
	}
}
