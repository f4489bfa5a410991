// Package gen generates random WebAssembly modules whose function bodies
// respect the operand-stack typing rules of structured control flow.
//
// A Generator draws a deduplicated signature set, assigns one signature to
// each function, then generates every body against a symbolic stack:
//
//	g, err := gen.New(cfg)
//	if err != nil {
//		return err
//	}
//	m, err := g.Generate()
//	if err != nil {
//		return err
//	}
//	bin := m.Encode()
//
// Bodies are generated in two phases. The bulk phase emits random
// stack-compatible instructions until MinInstructions is reached. The
// convergence phase continues until the stack holds exactly the scope's
// result types. MaxInstructions is a budget for the whole function: once it
// is spent every open scope stops drawing, and a deterministic fixup drops
// surplus values and pushes constants for the missing ones, so every body
// closes at its declared arity.
//
// if and loop bodies recurse with a fresh stack; nesting is bounded by
// MaxNestedIfs and MaxNestedLoops. Calls record edges in the module's call
// graph.
package gen

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-fuzzgen/callgraph"
	"github.com/wippyai/wasm-fuzzgen/config"
	"github.com/wippyai/wasm-fuzzgen/errors"
	"github.com/wippyai/wasm-fuzzgen/gen/internal/catalog"
	"github.com/wippyai/wasm-fuzzgen/gen/internal/signature"
	"github.com/wippyai/wasm-fuzzgen/wasm"
)

// handler emits the instructions for one selected catalog entry.
type handler func(f *funcGen, sc *scope, s catalog.Spec) error

// Generator produces modules from one configuration and one random source.
// A Generator is not safe for concurrent use.
type Generator struct {
	cfg      config.Config
	types    []wasm.ValType
	probs    catalog.Probabilities
	rng      *rand.Rand
	reg      *signature.Registry
	cat      *catalog.Catalog
	graph    *callgraph.Graph
	handlers [catalog.KindCount]handler
	log      *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand replaces the seeded random source.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithLogger sets the generator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		g.log = l
	}
}

// New validates cfg and returns a generator seeded from cfg.Seed.
func New(cfg config.Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	g := &Generator{
		cfg:   cfg,
		types: cfg.ValueTypes(),
		probs: catalog.Probabilities{
			Call:         cfg.ProbabilityOfCall,
			CallIndirect: cfg.ProbabilityOfCallIndirect,
			If:           cfg.ProbabilityOfIf,
			Loop:         cfg.ProbabilityOfLoop,
		},
		rng:   rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // reproducible fuzz input, not security
		reg:   signature.New(),
		graph: callgraph.New(),
		log:   Logger(),
	}
	g.cat = catalog.New(g.types)

	// Built here rather than at package level: the if and loop handlers
	// recurse into the step loop that reads this table.
	g.handlers = [catalog.KindCount]handler{
		catalog.Const:        (*funcGen).emitConst,
		catalog.Drop:         (*funcGen).emitDrop,
		catalog.LocalGet:     (*funcGen).emitLocalGet,
		catalog.LocalSet:     (*funcGen).emitLocalSet,
		catalog.Binary:       (*funcGen).emitNumeric,
		catalog.Compare:      (*funcGen).emitNumeric,
		catalog.Return:       (*funcGen).emitReturn,
		catalog.If:           (*funcGen).emitIf,
		catalog.Loop:         (*funcGen).emitLoop,
		catalog.Call:         (*funcGen).emitCall,
		catalog.CallIndirect: (*funcGen).emitCall,
	}

	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces a complete module. Signatures, call targets and the
// call graph are rebuilt on every call.
func (g *Generator) Generate() (*Module, error) {
	g.reg.Reset()
	g.cat.ResetCalls()
	g.graph = callgraph.New()

	g.reg.Generate(g.rng, g.cfg.SignatureAttempts(), g.types, g.cfg.MaxParams, g.cfg.MaxResults)
	assigned := g.reg.Assign(g.rng, g.cfg.Functions)
	export := uint32(g.rng.Intn(g.cfg.Functions))

	for i, typeIdx := range assigned {
		g.cat.AddCallTargets(uint32(i), typeIdx, g.reg.Get(typeIdx))
	}

	m := &Module{
		Seed:       g.cfg.Seed,
		Signatures: g.reg.Signatures(),
		Functions:  make([]*Function, 0, len(assigned)),
		Export:     export,
		ExportName: g.cfg.ExportName,
		Graph:      g.graph,
	}

	for i, typeIdx := range assigned {
		idx := uint32(i)
		g.graph.AddNode(idx, idx == export)

		fn, stats, err := g.generateBody(idx, typeIdx, g.reg.Get(typeIdx))
		if err != nil {
			return nil, err
		}
		m.Functions = append(m.Functions, fn)
		m.Stats.Add(stats)
	}
	m.Stats.Unreachable = len(m.Functions) - len(g.graph.Reachable(export))

	g.log.Debug("module generated",
		zap.Int64("seed", m.Seed),
		zap.Int("functions", len(m.Functions)),
		zap.Int("signatures", len(m.Signatures)),
		zap.Uint32("export", m.Export),
		zap.Int("instructions", m.Stats.Instructions),
		zap.Int("fixups", m.Stats.Fixups),
		zap.Int("calls", m.Stats.Calls),
		zap.Int("indirect_calls", m.Stats.IndirectCalls),
		zap.Int("ifs", m.Stats.Ifs),
		zap.Int("loops", m.Stats.Loops),
		zap.Int("returns", m.Stats.Returns),
		zap.Int("unreachable", m.Stats.Unreachable),
		zap.Int("call_edges", len(g.graph.Edges())))

	return m, nil
}

// GenerateBody generates one function body for sig. Calls can only target
// functions registered by a previous Generate; with none registered every
// call slot falls back to a constant.
func (g *Generator) GenerateBody(fn uint32, sig wasm.FuncType) (*Function, error) {
	f, _, err := g.generateBody(fn, g.reg.Add(sig), sig)
	return f, err
}

func (g *Generator) generateBody(idx, typeIdx uint32, sig wasm.FuncType) (*Function, Stats, error) {
	f := &funcGen{
		g: g,
		fn: &Function{
			Index:     idx,
			TypeIndex: typeIdx,
			Signature: sig,
		},
	}
	f.indexParams()

	sc := &scope{
		target:   sig.Results,
		function: true,
	}
	if err := f.run(sc); err != nil {
		return nil, Stats{}, fmt.Errorf("function %d: %w", idx, err)
	}
	f.fn.Body = sc.out
	f.stats.Locals = len(f.fn.Locals)

	g.log.Debug("function generated",
		zap.Uint32("index", idx),
		zap.Stringer("signature", sig),
		zap.Int("instructions", f.stats.Instructions),
		zap.Int("locals", len(f.fn.Locals)),
		zap.Bool("returned", sc.returned))

	return f.fn, f.stats, nil
}

func internalFault(fn uint32, detail string) error {
	return errors.Internal(errors.PhaseGenerate, []string{fmt.Sprintf("func%d", fn)}, detail)
}
