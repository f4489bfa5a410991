package gen

import (
	"testing"

	"github.com/wippyai/wasm-fuzzgen/config"
	"github.com/wippyai/wasm-fuzzgen/gen/internal/catalog"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

func TestGenerator_HandlerTableComplete(t *testing.T) {
	g, err := New(config.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for k := catalog.Kind(0); k < catalog.KindCount; k++ {
		if g.handlers[k] == nil {
			t.Errorf("no handler for %s", k)
		}
	}
}

func TestFuncGen_FixupRepairsStack(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedTypes = []string{"i32", "i64"}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f := &funcGen{g: g, fn: &Function{}}

	i32, i64 := g.types[0], g.types[1]
	sc := &scope{target: []wasm.ValType{i32, i64, i64}}
	// i32 i32 i64: only the bottom slot survives, then two i64 consts
	sc.st.Push(i32)
	sc.st.Push(i32)
	sc.st.Push(i64)

	if err := f.fixup(sc); err != nil {
		t.Fatalf("fixup: %v", err)
	}
	if !sc.st.Matches(sc.target) {
		t.Fatalf("stack after fixup = %v, want %v", sc.st.Snapshot(), sc.target)
	}

	var ops []Op
	for _, ins := range sc.out {
		ops = append(ops, ins.Op)
	}
	want := []Op{OpDrop, OpDrop, OpConst, OpConst}
	if len(ops) != len(want) {
		t.Fatalf("fixup ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Errorf("fixup op %d = %s, want %s", i, ops[i], want[i])
		}
	}
	if sc.out[2].Type != i64 || sc.out[3].Type != i64 {
		t.Errorf("fixup constants typed %s, %s; want i64", sc.out[2].Type, sc.out[3].Type)
	}
	if f.stats.Fixups != 1 {
		t.Errorf("Fixups = %d, want 1", f.stats.Fixups)
	}
}

func TestFuncGen_SpentBudgetSkipsSteps(t *testing.T) {
	cfg := config.Default()
	cfg.MinInstructions = 10
	cfg.MaxInstructions = 10
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	i32 := g.types[0]
	f := &funcGen{g: g, fn: &Function{Signature: wasm.FuncType{Results: []wasm.ValType{i32, i32}}}}
	f.indexParams()
	f.stats.Instructions = cfg.MaxInstructions

	sc := &scope{target: f.fn.Signature.Results, function: true}
	if err := f.run(sc); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sc.out) != 2 || sc.out[0].Op != OpConst || sc.out[1].Op != OpConst {
		t.Fatalf("body after spent budget = %+v, want two constants", sc.out)
	}

	// nested scopes share the spent budget
	then := &scope{target: []wasm.ValType{i32}}
	if err := f.run(then); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(then.out) != 1 || then.out[0].Op != OpConst {
		t.Errorf("nested body after spent budget = %+v, want one constant", then.out)
	}
}

func TestFuncGen_AccessibleLocals(t *testing.T) {
	cfg := config.Default()
	cfg.AllowedTypes = []string{"i32", "i64"}
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	i32, i64 := g.types[0], g.types[1]
	f := &funcGen{g: g, fn: &Function{Signature: wasm.FuncType{Params: []wasm.ValType{i64, i32}}}}
	f.indexParams()

	f.newLocal(i32) // 2
	f.newCounter()  // 3
	f.newLocal(i64) // 4
	f.newCounter()  // 5

	tests := []struct {
		t    wasm.ValType
		want []uint32
	}{
		{0, []uint32{0, 1, 2, 4}},
		{i32, []uint32{1, 2}},
		{i64, []uint32{0, 4}},
	}
	for _, tt := range tests {
		got := f.accessible(tt.t)
		if len(got) != len(tt.want) {
			t.Errorf("accessible(%d) = %v, want %v", tt.t, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("accessible(%d) = %v, want %v", tt.t, got, tt.want)
				break
			}
		}
	}
}
