// Package passes schedules function-level optimization passes over a
// module. Each function is an independent unit of work: passes may not
// share mutable state across functions, so units can run in parallel.
package passes

import (
	"runtime"

	"github.com/ecoball/binaryen/pkg/wasm"
	"golang.org/x/sync/errgroup"
)

// FunctionPass transforms one function at a time. Implementations must
// be safe for concurrent RunOnFunction calls on distinct functions.
type FunctionPass interface {
	Name() string
	RunOnFunction(fn *wasm.Function) error
}

// Runner executes passes over every function of a module.
type Runner struct {
	// Sequential disables per-function parallelism.
	Sequential bool
	// Workers bounds parallel units; 0 means NumCPU.
	Workers int
}

// Run applies each pass in order to every function. A pass completes
// over the whole module before the next one starts. The first error
// from any function stops the run.
func (r *Runner) Run(mod *wasm.Module, passList ...FunctionPass) error {
	for _, p := range passList {
		if err := r.runOne(mod, p); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runOne(mod *wasm.Module, p FunctionPass) error {
	if r.Sequential {
		for _, fn := range mod.Funcs {
			if err := p.RunOnFunction(fn); err != nil {
				return err
			}
		}
		return nil
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for _, fn := range mod.Funcs {
		fn := fn
		g.Go(func() error {
			return p.RunOnFunction(fn)
		})
	}
	return g.Wait()
}
