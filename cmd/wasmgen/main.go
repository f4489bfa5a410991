package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wasm-fuzzgen"
	"github.com/wippyai/wasm-fuzzgen/config"
	"github.com/wippyai/wasm-fuzzgen/corpus"
	"github.com/wippyai/wasm-fuzzgen/gen"
	"github.com/wippyai/wasm-fuzzgen/verify"
)

type options struct {
	outDir      string
	name        string
	count       int
	verify      bool
	run         bool
	timeout     time.Duration
	interpreter bool
	corpusPath  string
}

func main() {
	var (
		configFile  = flag.String("config", "", "YAML configuration file")
		outDir      = flag.String("out", ".", "Output directory")
		name        = flag.String("name", "module", "Artifact base name")
		seed        = flag.Int64("seed", 0, "Random seed (default: from config, else the clock)")
		count       = flag.Int("count", 1, "Number of modules to generate; module i uses seed+i")
		functions   = flag.Int("functions", 0, "Override the number of functions")
		doVerify    = flag.Bool("verify", false, "Compile each module with wazero")
		doRun       = flag.Bool("run", false, "Call the export of each module (implies -verify)")
		timeout     = flag.Duration("timeout", verify.DefaultTimeout, "Time limit for one -run call")
		interpreter = flag.Bool("interp", false, "Use the wazero interpreter instead of the compiler")
		corpusPath  = flag.String("corpus", "", "SQLite corpus index; modules already indexed are skipped")
		interactive = flag.Bool("i", false, "Browse the generated module in a TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	log, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck
	gen.SetLogger(log.Named("gen"))
	verify.SetLogger(log.Named("verify"))
	corpus.SetLogger(log.Named("corpus"))

	cfg := config.Default()
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *functions > 0 {
		cfg.Functions = *functions
	}
	if resolveSeed(&cfg, *seed, flagSet("seed"), time.Now().UnixNano) {
		log.Info("using clock seed", zap.Int64("seed", cfg.Seed))
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		vcfg := &verify.Config{Timeout: *timeout, Interpreter: *interpreter}
		if err := runInteractive(cfg, vcfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	opts := options{
		outDir:      *outDir,
		name:        *name,
		count:       *count,
		verify:      *doVerify || *doRun,
		run:         *doRun,
		timeout:     *timeout,
		interpreter: *interpreter,
		corpusPath:  *corpusPath,
	}
	if err := run(context.Background(), cfg, opts, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

// resolveSeed prefers -seed, then a seed named in the config file (zero
// included), then the clock. It reports whether the clock was used.
func resolveSeed(cfg *config.Config, seed int64, seedFlag bool, clock func() int64) bool {
	switch {
	case seedFlag:
		cfg.Seed = seed
	case cfg.SeedSet:
	default:
		cfg.Seed = clock()
		return true
	}
	return false
}

func run(ctx context.Context, cfg config.Config, opts options, log *zap.Logger) error {
	var eng *verify.Engine
	if opts.verify {
		eng = verify.NewEngine(ctx, &verify.Config{Timeout: opts.timeout, Interpreter: opts.interpreter})
		defer eng.Close(ctx)
	}

	var store *corpus.Store
	if opts.corpusPath != "" {
		var err error
		store, err = corpus.Open(ctx, opts.corpusPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}

	base := cfg.Seed
	for i := 0; i < opts.count; i++ {
		cfg.Seed = base + int64(i)
		name := opts.name
		if opts.count > 1 {
			name = fmt.Sprintf("%s_%d", opts.name, i)
		}
		if err := generateOne(ctx, cfg, name, opts, eng, store, log); err != nil {
			return fmt.Errorf("seed %d: %w", cfg.Seed, err)
		}
	}
	return nil
}

func generateOne(ctx context.Context, cfg config.Config, name string, opts options,
	eng *verify.Engine, store *corpus.Store, log *zap.Logger,
) error {
	res, err := fuzzgen.Generate(cfg)
	if err != nil {
		return err
	}

	hash := corpus.Hash(res.Wasm)
	if store != nil {
		seen, err := store.Has(ctx, hash)
		if err != nil {
			return err
		}
		if seen {
			log.Info("skipping duplicate module", zap.Int64("seed", cfg.Seed), zap.String("hash", hash))
			return nil
		}
	}

	if err := res.WriteFiles(opts.outDir, name); err != nil {
		return err
	}
	base := filepath.Join(opts.outDir, name)

	entry := corpus.Entry{
		Hash:      hash,
		Seed:      cfg.Seed,
		Functions: len(res.Module.Functions),
		Path:      base,
		Valid:     true,
	}

	if eng != nil {
		if err := eng.Validate(ctx, res.Wasm); err != nil {
			entry.Valid = false
			entry.Outcome = err.Error()
			log.Error("generated module rejected", zap.Int64("seed", cfg.Seed), zap.Error(err))
		} else if opts.run {
			out, err := eng.Run(ctx, res.Wasm, res.Module.ExportName)
			if err != nil {
				return err
			}
			entry.Outcome = out.String()
		}
	}

	if store != nil {
		if _, _, err := store.Record(ctx, entry); err != nil {
			return err
		}
	}

	st := res.Module.Stats
	fmt.Printf("%s seed=%d functions=%d unreachable=%d instructions=%d calls=%d ifs=%d loops=%d fixups=%d",
		name, cfg.Seed, entry.Functions, st.Unreachable, st.Instructions, st.Calls+st.IndirectCalls, st.Ifs, st.Loops, st.Fixups)
	switch {
	case !entry.Valid:
		fmt.Print(" INVALID")
	case entry.Outcome != "":
		fmt.Printf(" [%s]", entry.Outcome)
	}
	fmt.Println()

	if !entry.Valid {
		return fmt.Errorf("engine rejected %s.wasm", base)
	}
	return nil
}
