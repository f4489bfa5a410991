// Package verify checks generated binaries against a real WebAssembly
// engine. Compiling a module is a full validation pass; running the export
// shows how the module behaves, including traps such as division by zero or
// call stack exhaustion.
package verify

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-fuzzgen/errors"
)

// DefaultTimeout bounds a single Run when Config.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// Config holds engine options.
type Config struct {
	// Timeout bounds one Run call. Zero means DefaultTimeout.
	Timeout time.Duration

	// Interpreter selects wazero's interpreter instead of the compiler.
	Interpreter bool
}

// Engine wraps a wazero runtime. It is safe for concurrent use.
type Engine struct {
	runtime wazero.Runtime
	timeout time.Duration
	seq     atomic.Uint64
}

// NewEngine creates an engine. A nil cfg uses the defaults.
func NewEngine(ctx context.Context, cfg *Config) *Engine {
	runtimeCfg := wazero.NewRuntimeConfig()
	timeout := DefaultTimeout
	if cfg != nil {
		if cfg.Interpreter {
			runtimeCfg = wazero.NewRuntimeConfigInterpreter()
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	runtimeCfg = runtimeCfg.WithCloseOnContextDone(true)

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		timeout: timeout,
	}
}

// Close releases the runtime and every module compiled by it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Validate compiles bin and discards the result.
func (e *Engine) Validate(ctx context.Context, bin []byte) error {
	compiled, err := e.compile(ctx, bin)
	if err != nil {
		return err
	}
	return compiled.Close(ctx)
}

func (e *Engine) compile(ctx context.Context, bin []byte) (wazero.CompiledModule, error) {
	compiled, err := e.runtime.CompileModule(ctx, bin)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindCompile, err, "module rejected by engine")
	}
	return compiled, nil
}

// Outcome is the result of running an export.
type Outcome struct {
	Export   string
	Results  []uint64
	Trap     string
	TimedOut bool
	Duration time.Duration
}

// Trapped reports whether the call ended in a trap.
func (o *Outcome) Trapped() bool {
	return o.Trap != ""
}

func (o *Outcome) String() string {
	switch {
	case o.TimedOut:
		return fmt.Sprintf("%s: timed out after %s", o.Export, o.Duration)
	case o.Trapped():
		return fmt.Sprintf("%s: trap: %s", o.Export, o.Trap)
	}
	return fmt.Sprintf("%s: returned %v in %s", o.Export, o.Results, o.Duration)
}

// Run compiles and instantiates bin, then calls export with zero for every
// parameter. Traps and timeouts are reported in the Outcome; the error is
// reserved for modules that fail to compile, instantiate or export.
func (e *Engine) Run(ctx context.Context, bin []byte, export string) (*Outcome, error) {
	compiled, err := e.compile(ctx, bin)
	if err != nil {
		return nil, err
	}
	defer compiled.Close(ctx)

	def, ok := compiled.ExportedFunctions()[export]
	if !ok {
		return nil, errors.NotFound(errors.PhaseRun, "export", export)
	}

	name := fmt.Sprintf("gen-%d", e.seq.Add(1))
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseRun, errors.KindCompile, err, "instantiate failed")
	}
	defer mod.Close(ctx)

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := make([]uint64, len(def.ParamTypes()))
	start := time.Now()
	results, callErr := mod.ExportedFunction(export).Call(runCtx, args...)

	out := &Outcome{Export: export, Results: results, Duration: time.Since(start)}
	switch {
	case callErr == nil:
	case stderrors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.TimedOut = true
	default:
		out.Trap = callErr.Error()
	}

	Logger().Debug("export run",
		zap.String("module", name),
		zap.String("export", export),
		zap.Duration("duration", out.Duration),
		zap.Bool("timed_out", out.TimedOut),
		zap.String("trap", out.Trap))

	return out, nil
}
