package jumpthreading

import (
	"io"
	"os"

	"github.com/ecoball/binaryen/pkg/wasm"
)

// Pass adapts the transformation to the function-pass runner. A Pass
// may run over many functions concurrently: the name pool is built
// eagerly in NewPass, before any parallel work can start, and is
// read-only afterwards. All other state lives inside each Thread call.
type Pass struct {
	pool *NamePool
	diag io.Writer
}

// NewPass creates the pass with the shared default name pool and
// diagnostics on stderr.
func NewPass() *Pass {
	return &Pass{pool: DefaultNamePool(), diag: os.Stderr}
}

// SetDiagnostics redirects advisory diagnostics (only emitted on name
// pool exhaustion).
func (p *Pass) SetDiagnostics(w io.Writer) {
	p.diag = w
}

// Name implements the function-pass interface.
func (p *Pass) Name() string {
	return "relooper-jump-threading"
}

// RunOnFunction optimizes one function in place. It never fails: an
// unprovable pattern is left unchanged, and pool exhaustion degrades
// to skipping further rewrites in the function.
func (p *Pass) RunOnFunction(fn *wasm.Function) error {
	thread(fn, p.pool, p.diag)
	return nil
}
