package fuzzgen_test

import (
	"fmt"

	"github.com/wippyai/wasm-fuzzgen"
	"github.com/wippyai/wasm-fuzzgen/config"
)

func ExampleGenerate() {
	cfg := config.Default()
	cfg.Functions = 4
	cfg.Seed = 7

	res, err := fuzzgen.Generate(cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(len(res.Module.Functions), res.Module.ExportName)
	// Output: 4 start
}
