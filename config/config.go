// Package config holds the generator settings and loads them from YAML.
//
// Defaults are applied before decoding, so a file only needs the keys it
// changes:
//
//	functions: 20
//	allowed_types: [i32, i64]
//	probability_of_loop: 0
//	seed: 42
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-fuzzgen/errors"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// Config is the full set of generation settings.
type Config struct {
	// Functions is the number of functions in the module.
	Functions int `yaml:"functions"`

	// AllowedTypes lists the value types signatures, locals and constants
	// draw from. Only "i32" and "i64" are supported.
	AllowedTypes []string `yaml:"allowed_types"`

	MaxParams  int `yaml:"max_params"`
	MaxResults int `yaml:"max_results"`

	// MaxSignatures is the number of random signature draws. Zero derives
	// it from the type and arity bounds.
	MaxSignatures int `yaml:"max_signatures"`

	// MinInstructions is the length of the bulk phase; MaxInstructions caps
	// the whole body before the fixup pass takes over.
	MinInstructions int `yaml:"min_instructions"`
	MaxInstructions int `yaml:"max_instructions"`

	ProbabilityOfCall         float64 `yaml:"probability_of_call"`
	ProbabilityOfCallIndirect float64 `yaml:"probability_of_call_indirect"`
	ProbabilityOfIf           float64 `yaml:"probability_of_if"`
	ProbabilityOfLoop         float64 `yaml:"probability_of_loop"`

	MaxNestedIfs      int `yaml:"max_nested_ifs"`
	MaxNestedLoops    int `yaml:"max_nested_loops"`
	MaxIfResults      int `yaml:"max_if_results"`
	MaxLoopIterations int `yaml:"max_loop_iterations"`

	// ExportName is the name the entry function is exported under.
	ExportName string `yaml:"export_name"`

	// Seed seeds the pseudorandom source. Equal seeds and settings produce
	// identical modules.
	Seed int64 `yaml:"seed"`

	// SeedSet records that the parsed file named a seed, zero included.
	SeedSet bool `yaml:"-"`
}

// Default returns the stock settings.
func Default() Config {
	return Config{
		Functions:                 80,
		AllowedTypes:              []string{"i32"},
		MaxParams:                 10,
		MaxResults:                5,
		MinInstructions:           10,
		MaxInstructions:           80,
		ProbabilityOfCall:         0.9,
		ProbabilityOfCallIndirect: 0.9,
		ProbabilityOfIf:           0.9,
		ProbabilityOfLoop:         0.9,
		MaxNestedIfs:              1,
		MaxNestedLoops:            2,
		MaxIfResults:              2,
		MaxLoopIterations:         10,
		ExportName:                "start",
	}
}

// Load reads and parses a YAML settings file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(errors.PhaseConfig, errors.KindIO, err, "reading "+path)
	}
	return Parse(data, path)
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected. The path is used only for error messages.
func Parse(data []byte, path string) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	var explicit struct {
		Seed *int64 `yaml:"seed"`
	}
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return Config{}, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.SeedSet = explicit.Seed != nil

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns the first offending setting, or nil.
func (c Config) Validate() error {
	if c.Functions < 1 {
		return errors.InvalidSetting("functions", c.Functions, "at least one function is required")
	}
	if len(c.AllowedTypes) == 0 {
		return errors.InvalidSetting("allowed_types", c.AllowedTypes, "at least one value type is required")
	}
	for _, name := range c.AllowedTypes {
		if _, ok := wasm.ParseValType(name); !ok {
			return errors.InvalidSetting("allowed_types", name, fmt.Sprintf("unsupported value type %q", name))
		}
	}

	counts := []struct {
		name  string
		value int
	}{
		{"max_params", c.MaxParams},
		{"max_results", c.MaxResults},
		{"max_signatures", c.MaxSignatures},
		{"min_instructions", c.MinInstructions},
		{"max_instructions", c.MaxInstructions},
		{"max_nested_ifs", c.MaxNestedIfs},
		{"max_nested_loops", c.MaxNestedLoops},
		{"max_if_results", c.MaxIfResults},
		{"max_loop_iterations", c.MaxLoopIterations},
	}
	for _, cnt := range counts {
		if cnt.value < 0 {
			return errors.InvalidSetting(cnt.name, cnt.value, "must not be negative")
		}
	}

	probs := []struct {
		name  string
		value float64
	}{
		{"probability_of_call", c.ProbabilityOfCall},
		{"probability_of_call_indirect", c.ProbabilityOfCallIndirect},
		{"probability_of_if", c.ProbabilityOfIf},
		{"probability_of_loop", c.ProbabilityOfLoop},
	}
	for _, p := range probs {
		// written as a negated range check so NaN is rejected too
		if !(p.value >= 0 && p.value <= 1) {
			return errors.OutOfRange(p.name, p.value, 0, 1)
		}
	}

	if c.MinInstructions > c.MaxInstructions {
		return errors.InvalidSetting("min_instructions", c.MinInstructions,
			fmt.Sprintf("exceeds max_instructions (%d)", c.MaxInstructions))
	}
	if c.MaxLoopIterations < 1 {
		return errors.InvalidSetting("max_loop_iterations", c.MaxLoopIterations, "a loop must run at least once")
	}
	if c.ExportName == "" {
		return errors.InvalidSetting("export_name", c.ExportName, "must not be empty")
	}
	return nil
}

// ValueTypes returns AllowedTypes as value types, skipping unknown names.
func (c Config) ValueTypes() []wasm.ValType {
	out := make([]wasm.ValType, 0, len(c.AllowedTypes))
	for _, name := range c.AllowedTypes {
		if t, ok := wasm.ParseValType(name); ok {
			out = append(out, t)
		}
	}
	return out
}

// SignatureAttempts returns MaxSignatures, or when it is zero the derived
// count len(AllowedTypes) * (MaxParams + MaxResults), at least one.
func (c Config) SignatureAttempts() int {
	if c.MaxSignatures > 0 {
		return c.MaxSignatures
	}
	n := len(c.AllowedTypes) * (c.MaxParams + c.MaxResults)
	if n < 1 {
		n = 1
	}
	return n
}
