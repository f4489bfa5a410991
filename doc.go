// Package fuzzgen generates random, valid WebAssembly modules for fuzzing
// WebAssembly engines.
//
// Every generated function body is well typed by construction: instructions
// are drawn only when the symbolic operand stack can feed them, and each
// block closes at exactly its declared result arity. Modules are emitted as
// WebAssembly text, as a binary, and with a DOT rendering of the call graph.
//
// # Architecture Overview
//
//	fuzzgen/             Root package with the Generate facade
//	├── config/          YAML configuration, defaults and validation
//	├── gen/             Body generator, module IR, arity checker, lowering
//	│   └── internal/    Instruction catalog, stack model, signature registry
//	├── callgraph/       Call graph tracker, reachability, DOT output
//	├── wat/             Text format printer
//	├── wasm/            Value types, opcodes and binary encoding
//	├── verify/          wazero-backed validation and bounded execution
//	├── corpus/          SQLite index of generated modules
//	├── errors/          Structured error types
//	└── cmd/wasmgen/     Command-line generator and module browser
//
// # Quick Start
//
//	cfg := config.Default()
//	cfg.Seed = 42
//
//	res, err := fuzzgen.Generate(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := res.WriteFiles("out", "module"); err != nil {
//	    log.Fatal(err)
//	}
//
// The same seed and configuration always produce byte-identical artifacts.
//
// # Verification
//
// Generated binaries can be compiled and run under wazero:
//
//	eng := verify.NewEngine(ctx, nil)
//	defer eng.Close(ctx)
//
//	out, err := eng.Run(ctx, res.Wasm, res.Module.ExportName)
//
// Loops carry a bounded counter, so a run terminates unless the export
// recurses without bound; the engine's timeout covers that case.
package fuzzgen
