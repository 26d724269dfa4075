package jumpthreading

import "github.com/ecoball/binaryen/pkg/wasm"

// labelCheckingIf recognizes a check node: an if whose condition is
// exactly (i32.eq (local.get $label) (i32.const k)).
func labelCheckingIf(e wasm.Expression, labelIndex wasm.Index) *wasm.If {
	iff, ok := e.(*wasm.If)
	if !ok {
		return nil
	}
	cond, ok := iff.Condition.(*wasm.Binary)
	if !ok || cond.Op != wasm.EqInt32 {
		return nil
	}
	left, ok := cond.Left.(*wasm.LocalGet)
	if !ok || left.Index != labelIndex {
		return nil
	}
	if _, ok := cond.Right.(*wasm.Const); !ok {
		return nil
	}
	return iff
}

// checkedLabelValue returns the constant a check node compares against.
// Only valid on the result of labelCheckingIf.
func checkedLabelValue(iff *wasm.If) int32 {
	return iff.Condition.(*wasm.Binary).Right.(*wasm.Const).Value
}

// labelSettingConst recognizes an assignment of a constant to the
// label variable and returns the constant.
func labelSettingConst(e wasm.Expression, labelIndex wasm.Index) (int32, bool) {
	set, ok := e.(*wasm.LocalSet)
	if !ok || set.Index != labelIndex {
		return 0, false
	}
	c, ok := set.Value.(*wasm.Const)
	if !ok {
		return 0, false
	}
	return c.Value, true
}

// useCounts is a read-only snapshot of how the label variable is used
// within some subtree: how often each value is checked and how often
// it is assigned. NonConstSet records an assignment whose right-hand
// side is not a constant; exact counts cannot be trusted past one, so
// it disqualifies any rewrite that depends on them.
type useCounts struct {
	checks      map[int32]int
	sets        map[int32]int
	nonConstSet bool
}

// countLabelUses walks a subtree once and gathers the snapshot.
func countLabelUses(e wasm.Expression, labelIndex wasm.Index) useCounts {
	uses := useCounts{
		checks: make(map[int32]int),
		sets:   make(map[int32]int),
	}
	wasm.Walk(e, func(e wasm.Expression) {
		if iff := labelCheckingIf(e, labelIndex); iff != nil {
			uses.checks[checkedLabelValue(iff)]++
			return
		}
		if set, ok := e.(*wasm.LocalSet); ok && set.Index == labelIndex {
			if v, ok := labelSettingConst(e, labelIndex); ok {
				uses.sets[v]++
			} else {
				uses.nonConstSet = true
			}
		}
	})
	return uses
}
