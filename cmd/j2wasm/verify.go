package main

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero"
)

// verifyModule loads a just-produced binary module into a real wazero
// runtime and instantiates it, catching anything a conforming Wasm host
// would reject (malformed sections, a bad type index, an unbalanced
// structured-control stream) before the module ever reaches a file. This
// is the cheapest form of spec.md §8's round-trip check: it does not call
// the exported functions (their argument values aren't known here), but a
// module that fails to instantiate could never round-trip correctly
// either.
func verifyModule(wasmBytes []byte) error {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return fmt.Errorf("compile module: %w", err)
	}

	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return fmt.Errorf("instantiate module: %w", err)
	}
	return mod.Close(ctx)
}
