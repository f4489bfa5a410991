package fuzzgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wippyai/wasm-fuzzgen/config"
	"github.com/wippyai/wasm-fuzzgen/errors"
	"github.com/wippyai/wasm-fuzzgen/gen"
	"github.com/wippyai/wasm-fuzzgen/wat"
)

// GraphName is the digraph name used in DOT artifacts.
const GraphName = "CallGraph"

// Result holds one generated module and its artifacts.
type Result struct {
	Module *gen.Module
	WAT    string
	DOT    string
	Wasm   []byte
}

// Generate builds a module from cfg, re-checks its arity and renders every
// artifact.
func Generate(cfg config.Config, opts ...gen.Option) (*Result, error) {
	g, err := gen.New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	m, err := g.Generate()
	if err != nil {
		return nil, err
	}
	if err := gen.Check(m); err != nil {
		return nil, fmt.Errorf("generated module failed arity check: %w", err)
	}
	return &Result{
		Module: m,
		WAT:    wat.Format(m),
		DOT:    m.Graph.DOT(GraphName),
		Wasm:   m.Encode(),
	}, nil
}

// Files returns the artifact paths WriteFiles uses for name in dir.
func Files(dir, name string) (watPath, dotPath, wasmPath string) {
	base := filepath.Join(dir, name)
	return base + ".wat", base + ".dot", base + ".wasm"
}

// WriteFiles writes <name>.wat, <name>.dot and <name>.wasm into dir,
// creating it as needed.
func (r *Result) WriteFiles(dir, name string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.PhaseStore, errors.KindIO, err, "create "+dir)
	}
	watPath, dotPath, wasmPath := Files(dir, name)
	for _, f := range []struct {
		path string
		data []byte
	}{
		{watPath, []byte(r.WAT)},
		{dotPath, []byte(r.DOT)},
		{wasmPath, r.Wasm},
	} {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return errors.Wrap(errors.PhaseStore, errors.KindIO, err, "write "+f.path)
		}
	}
	return nil
}
