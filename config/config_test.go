package config

import (
	stderrors "errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/wasm-fuzzgen/errors"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

func TestDefault_Valid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		setting string
		kind    errors.Kind
	}{
		{"no functions", func(c *Config) { c.Functions = 0 }, "functions", errors.KindInvalidSetting},
		{"no types", func(c *Config) { c.AllowedTypes = nil }, "allowed_types", errors.KindInvalidSetting},
		{"float type", func(c *Config) { c.AllowedTypes = []string{"f32"} }, "allowed_types", errors.KindInvalidSetting},
		{"negative params", func(c *Config) { c.MaxParams = -1 }, "max_params", errors.KindInvalidSetting},
		{"negative nested ifs", func(c *Config) { c.MaxNestedIfs = -2 }, "max_nested_ifs", errors.KindInvalidSetting},
		{"call above one", func(c *Config) { c.ProbabilityOfCall = 1.5 }, "probability_of_call", errors.KindOutOfRange},
		{"loop below zero", func(c *Config) { c.ProbabilityOfLoop = -0.1 }, "probability_of_loop", errors.KindOutOfRange},
		{"if NaN", func(c *Config) { c.ProbabilityOfIf = math.NaN() }, "probability_of_if", errors.KindOutOfRange},
		{"min above max", func(c *Config) { c.MinInstructions = 100 }, "min_instructions", errors.KindInvalidSetting},
		{"zero loop iterations", func(c *Config) { c.MaxLoopIterations = 0 }, "max_loop_iterations", errors.KindInvalidSetting},
		{"empty export", func(c *Config) { c.ExportName = "" }, "export_name", errors.KindInvalidSetting},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate accepted invalid config")
			}
			var e *errors.Error
			if !stderrors.As(err, &e) {
				t.Fatalf("Validate error %T is not *errors.Error", err)
			}
			if e.Phase != errors.PhaseConfig || e.Kind != tt.kind {
				t.Errorf("error = [%s] %s, want [config] %s", e.Phase, e.Kind, tt.kind)
			}
			if len(e.Path) != 1 || e.Path[0] != tt.setting {
				t.Errorf("error path = %v, want [%s]", e.Path, tt.setting)
			}
		})
	}
}

func TestParse_OverlaysDefaults(t *testing.T) {
	data := []byte(`
functions: 3
allowed_types: [i32, i64]
probability_of_loop: 0
seed: 42
`)
	cfg, err := Parse(data, "test.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	want := Default()
	want.Functions = 3
	want.AllowedTypes = []string{"i32", "i64"}
	want.ProbabilityOfLoop = 0
	want.Seed = 42
	want.SeedSet = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]wasm.ValType{wasm.ValI32, wasm.ValI64}, cfg.ValueTypes()); diff != "" {
		t.Errorf("ValueTypes mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil, "empty.yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("empty file should yield defaults (-want +got):\n%s", diff)
	}
}

func TestParse_SeedSet(t *testing.T) {
	tests := []struct {
		name string
		data string
		set  bool
	}{
		{"omitted", "functions: 2\n", false},
		{"zero", "seed: 0\n", true},
		{"nonzero", "seed: 17\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.data), "seed.yaml")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if cfg.SeedSet != tt.set {
				t.Errorf("SeedSet = %v, want %v", cfg.SeedSet, tt.set)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"unknown key", "functoins: 3\n", "bad.yaml"},
		{"bad syntax", "functions: [\n", "bad.yaml"},
		{"invalid value", "probability_of_if: 2\n", "probability_of_if"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), "bad.yaml")
			if err == nil {
				t.Fatal("Parse should fail")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yaml")
	if err := os.WriteFile(path, []byte("functions: 7\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Functions != 7 {
		t.Errorf("Functions = %d, want 7", cfg.Functions)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !stderrors.Is(err, errors.New(errors.PhaseConfig, errors.KindIO).Build()) {
		t.Errorf("Load(missing) error = %v, want config io error", err)
	}
}

func TestSignatureAttempts(t *testing.T) {
	cfg := Default()
	cfg.AllowedTypes = []string{"i32", "i64"}
	cfg.MaxParams = 3
	cfg.MaxResults = 2
	if got := cfg.SignatureAttempts(); got != 10 {
		t.Errorf("derived SignatureAttempts() = %d, want 10", got)
	}

	cfg.MaxParams, cfg.MaxResults = 0, 0
	if got := cfg.SignatureAttempts(); got != 1 {
		t.Errorf("zero-arity SignatureAttempts() = %d, want 1", got)
	}

	cfg.MaxSignatures = 4
	if got := cfg.SignatureAttempts(); got != 4 {
		t.Errorf("explicit SignatureAttempts() = %d, want 4", got)
	}
}
