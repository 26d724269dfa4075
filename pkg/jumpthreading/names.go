package jumpthreading

import (
	"fmt"
	"sync"
)

// MaxNameIndex bounds how many scope name pairs a pool holds, and so
// how many rewrites a single function can receive.
const MaxNameIndex = 1000

// NamePool is an immutable supply of pre-generated scope names. The
// rewriter needs fresh names, which cannot be minted safely while
// functions are being optimized in parallel, so the whole supply is
// built up front and only read afterwards. Names are function-local,
// so separate functions may reuse the same indices.
type NamePool struct {
	inner []string
	outer []string
}

// NewNamePool builds the full name supply. Call it before starting
// any parallel per-function work.
func NewNamePool() *NamePool {
	p := &NamePool{
		inner: make([]string, MaxNameIndex),
		outer: make([]string, MaxNameIndex),
	}
	for i := 0; i < MaxNameIndex; i++ {
		p.inner[i] = fmt.Sprintf("jumpthreading$inner$%d", i)
		p.outer[i] = fmt.Sprintf("jumpthreading$outer$%d", i)
	}
	return p
}

// Inner returns the inner-scope name at i. The caller must keep
// i < MaxNameIndex.
func (p *NamePool) Inner(i int) string {
	return p.inner[i]
}

// Outer returns the outer-scope name at i.
func (p *NamePool) Outer(i int) string {
	return p.outer[i]
}

var (
	defaultPoolOnce sync.Once
	defaultPool     *NamePool
)

// DefaultNamePool returns a process-wide shared pool, built once on
// first use. Safe to call from concurrent pass instances.
func DefaultNamePool() *NamePool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewNamePool()
	})
	return defaultPool
}
