// Package jumpthreading removes the relooper's label-dispatch idiom
// from structured code. The relooper emulates arbitrary jumps by
// assigning an integer to a conventional local named "label" and
// checking it against constants right after; when every assignment of
// a checked value provably sits in the statement just before the
// check, the check can become a direct branch into a new named scope
// and the runtime comparison disappears.
//
// The safety analysis is deliberately conservative: any arrangement it
// cannot prove fall-through-only is left exactly as it was.
package jumpthreading

import (
	"fmt"
	"io"
	"os"

	"github.com/ecoball/binaryen/pkg/wasm"
)

// LabelName is the conventional name of the dispatch variable.
const LabelName = "label"

// Thread optimizes one function in place. Functions that do not
// declare the label variable are untouched. The pool must outlive the
// call and may be shared, read-only, with other concurrent calls.
func Thread(fn *wasm.Function, pool *NamePool) {
	thread(fn, pool, os.Stderr)
}

func thread(fn *wasm.Function, pool *NamePool, diag io.Writer) {
	labelIndex, ok := fn.LocalIndex(LabelName)
	if !ok {
		return
	}
	t := &threader{
		pool:       pool,
		diag:       diag,
		labelIndex: labelIndex,
		uses:       countLabelUses(fn.Body, labelIndex),
	}
	// The whole-function counts above are ground truth from here on;
	// scanning only reads them.
	wasm.Walk(fn.Body, func(e wasm.Expression) {
		if block, ok := e.(*wasm.Block); ok {
			t.visitBlock(block)
		}
	})
}

// threader is the per-function pass state.
type threader struct {
	pool        *NamePool
	diag        io.Writer
	labelIndex  wasm.Index
	uses        useCounts // whole-function snapshot, read-only
	nameCounter int       // monotonic index into the pool
}

// visitBlock scans a statement list for "origin, then label-check
// chain" runs. Each run starts at index i; elements after it are
// consumed while they are check nodes (or single-statement holder
// blocks wrapping one). Once any link proves irreducible the rest of
// the run is treated as irreducible too, so a partially unsafe chain
// is never partially rewritten past the unsafe point.
func (t *threader) visitBlock(block *wasm.Block) {
	list := block.List
	for i := 0; i+1 < len(list); i++ {
		irreducible := false
		origin := i
		for j := i + 1; j < len(list); j++ {
			if iff := labelCheckingIf(list[j], t.labelIndex); iff != nil {
				irreducible = irreducible || t.hasIrreducibleControlFlow(iff, list[origin])
				if !irreducible {
					newOrigin, rest := t.threadJumps(list[origin], iff)
					if rest != iff {
						list[origin] = newOrigin
						list[j] = residual(rest)
					}
				}
				i++
				continue
			}
			// The next element may be the relooper's holder block: a
			// single-statement block wrapping the check chain. The
			// holder must move to enclose the origin so that breaks
			// to its own name stay in scope, and its one-statement
			// shape is preserved for downstream consumers.
			if holder, ok := list[j].(*wasm.Block); ok && len(holder.List) == 1 {
				if iff := labelCheckingIf(holder.List[0], t.labelIndex); iff != nil {
					irreducible = irreducible || t.hasIrreducibleControlFlow(iff, list[origin])
					if !irreducible {
						// Chain bodies break to the holder's own name,
						// so the relocated holder must enclose every
						// rewritten link. A partial rewrite would leave
						// the residual links outside the holder with
						// their breaks stranded; a chain the pool
						// cannot cover in full is left untouched.
						if t.nameCounter+t.chainLength(iff) > MaxNameIndex {
							fmt.Fprintln(t.diag, poolExhaustedMsg)
						} else {
							newOrigin, _ := t.threadJumps(list[origin], iff)
							holder.List[0] = newOrigin
							list[origin] = holder
							list[j] = &wasm.Nop{}
						}
					}
					i++
					continue
				}
			}
			break // not a shape we recognize, the run ends here
		}
	}
}

const poolExhaustedMsg = "too many label names in jump threading, leaving the rest of the dispatch pattern in place"

// chainLength counts the links of the check cascade headed at iff.
func (t *threader) chainLength(iff *wasm.If) int {
	n := 0
	for iff != nil {
		n++
		iff = labelCheckingIf(iff.IfFalse, t.labelIndex)
	}
	return n
}

// residual turns the unconsumed tail of a chain back into a list
// element, or a nop placeholder when the chain was fully consumed.
func residual(rest *wasm.If) wasm.Expression {
	if rest != nil {
		return rest
	}
	return &wasm.Nop{}
}

// hasIrreducibleControlFlow decides whether rewriting the chain headed
// at iff, with the given origin, would be unsound. For every value
// checked along the chain we need: the value is checked exactly once
// in the whole function, it is not checked inside origin, and every
// assignment of it in the whole function sits inside origin. Then the
// only way to reach the check with a matching label is to fall through
// from origin, and a structural branch reproduces that exactly.
func (t *threader) hasIrreducibleControlFlow(iff *wasm.If, origin wasm.Expression) bool {
	if t.uses.nonConstSet {
		// A non-constant assignment somewhere makes every count
		// suspect; refuse the whole function's candidates.
		return true
	}
	inOrigin := countLabelUses(origin, t.labelIndex)
	for iff != nil {
		num := checkedLabelValue(iff)
		if t.uses.checks[num] > 1 {
			return true // checked again somewhere else in the function
		}
		if inOrigin.checks[num] != 0 {
			// The value would be consumed before ever reaching this
			// check; the analysis does not model that.
			return true
		}
		if inOrigin.sets[num] != t.uses.sets[num] {
			// Assigned somewhere outside origin, so reaching this
			// check is not confined to fall-through from origin.
			// TODO: a set inside this if's own body might be safe in
			// some cases; left unproven.
			return true
		}
		next := labelCheckingIf(iff.IfFalse, t.labelIndex)
		if next == nil && iff.IfFalse != nil {
			return true // a chain tail we do not recognize
		}
		iff = next
	}
	return false
}

// threadJumps rewrites the chain headed at iff against origin,
// consuming origin and returning its replacement. For each chain value
// it wraps the current origin in two nested scopes: assignments of the
// value inside origin become breaks to the inner scope, the inner
// scope falls through to a break past the check's body, and the
// check's body follows the inner scope inside the outer one.
//
// The second result is the first chain link left unconsumed because
// the name pool ran out, nil when the chain was fully rewritten. The
// caller keeps that link (and so the rest of the chain) in place,
// unoptimized; the already-rewritten prefix falls out of its scopes
// into the residual checks with the label variable intact, so the
// degraded form still behaves identically.
func (t *threader) threadJumps(origin wasm.Expression, iff *wasm.If) (wasm.Expression, *wasm.If) {
	counter := t.nameCounter
	t.nameCounter++
	if counter >= MaxNameIndex {
		fmt.Fprintln(t.diag, poolExhaustedMsg)
		return origin, iff
	}
	num := checkedLabelValue(iff)
	innerName := t.pool.Inner(counter)
	outerName := t.pool.Outer(counter)
	ifFalse := iff.IfFalse

	origin = t.redirectSets(origin, num, innerName)
	inner := wasm.Blockify(origin, innerName, &wasm.Break{Target: outerName})
	outer := wasm.Sequence(inner, iff.IfTrue)
	outer.Name = outerName

	if next := labelCheckingIf(ifFalse, t.labelIndex); next != nil {
		return t.threadJumps(outer, next)
	}
	return outer, nil
}

// redirectSets replaces every constant assignment of num to the label
// variable within e by a break to target, returning the new subtree.
func (t *threader) redirectSets(e wasm.Expression, num int32, target string) wasm.Expression {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *wasm.Nop, *wasm.Const, *wasm.LocalGet:
		return e
	case *wasm.LocalSet:
		if v, ok := labelSettingConst(e, t.labelIndex); ok && v == num {
			return &wasm.Break{Target: target}
		}
		e.Value = t.redirectSets(e.Value, num, target)
		return e
	case *wasm.Block:
		for i, c := range e.List {
			e.List[i] = t.redirectSets(c, num, target)
		}
		return e
	case *wasm.Loop:
		e.Body = t.redirectSets(e.Body, num, target)
		return e
	case *wasm.If:
		e.Condition = t.redirectSets(e.Condition, num, target)
		e.IfTrue = t.redirectSets(e.IfTrue, num, target)
		e.IfFalse = t.redirectSets(e.IfFalse, num, target)
		return e
	case *wasm.Break:
		e.Condition = t.redirectSets(e.Condition, num, target)
		return e
	case *wasm.Binary:
		e.Left = t.redirectSets(e.Left, num, target)
		e.Right = t.redirectSets(e.Right, num, target)
		return e
	case *wasm.Call:
		for i, o := range e.Operands {
			e.Operands[i] = t.redirectSets(o, num, target)
		}
		return e
	case *wasm.Return:
		e.Value = t.redirectSets(e.Value, num, target)
		return e
	}
	return e
}
