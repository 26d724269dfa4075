package wasm

// A small tree-walking interpreter for the IR subset. It exists to
// check transformations by differential execution: two functions are
// behaviorally equal when they produce the same result and the same
// ordered call trace for the same arguments.

import (
	"errors"
	"fmt"
)

// ErrOutOfFuel is returned when execution exceeds the step budget.
var ErrOutOfFuel = errors.New("wasm: interpreter out of fuel")

// DefaultFuel bounds the number of evaluated nodes per Exec call.
const DefaultFuel = 1_000_000

// Interp executes functions of a module. Calls to functions defined in
// the module are executed; calls to unknown targets act as imports
// that return 0. Every call, internal or imported, is appended to
// Trace in evaluation order.
type Interp struct {
	mod    *Module
	budget int
	fuel   int // remaining steps in the current Exec
	Trace  []string
}

// NewInterp creates an interpreter over mod with the default fuel.
func NewInterp(mod *Module) *Interp {
	return &Interp{mod: mod, budget: DefaultFuel}
}

// SetFuel overrides the per-Exec step budget.
func (in *Interp) SetFuel(fuel int) {
	in.budget = fuel
}

// outcome carries the result of evaluating one node plus any pending
// control transfer. br is the name of a targeted scope; ret marks a
// function return in progress.
type outcome struct {
	value int32
	br    string
	ret   bool
}

func (o outcome) transfers() bool {
	return o.br != "" || o.ret
}

// Exec runs the named function on the given arguments, resetting the
// trace first. Missing arguments default to zero; extras are ignored.
func (in *Interp) Exec(name string, args ...int32) (int32, error) {
	in.Trace = in.Trace[:0]
	in.fuel = in.budget
	fn := in.mod.FuncByName(name)
	if fn == nil {
		return 0, fmt.Errorf("wasm: no function $%s in module", name)
	}
	return in.call(fn, args)
}

func (in *Interp) call(fn *Function, args []int32) (int32, error) {
	locals := make([]int32, len(fn.Locals))
	for i := 0; i < fn.NumParams && i < len(args); i++ {
		locals[i] = args[i]
	}
	o, err := in.exec(fn.Body, locals)
	if err != nil {
		return 0, err
	}
	if o.br != "" {
		return 0, fmt.Errorf("wasm: branch to unknown scope $%s escaped $%s", o.br, fn.Name)
	}
	return o.value, nil
}

func (in *Interp) exec(e Expression, locals []int32) (outcome, error) {
	if e == nil {
		return outcome{}, nil
	}
	if in.fuel <= 0 {
		return outcome{}, ErrOutOfFuel
	}
	in.fuel--
	switch e := e.(type) {
	case *Nop:
		return outcome{}, nil

	case *Block:
		var last outcome
		for _, c := range e.List {
			o, err := in.exec(c, locals)
			if err != nil {
				return outcome{}, err
			}
			if o.transfers() {
				if o.br != "" && o.br == e.Name {
					return outcome{}, nil // break caught here
				}
				return o, nil
			}
			last = o
		}
		return outcome{value: last.value}, nil

	case *Loop:
		for {
			o, err := in.exec(e.Body, locals)
			if err != nil {
				return outcome{}, err
			}
			if o.br != "" && o.br == e.Name {
				if in.fuel <= 0 {
					return outcome{}, ErrOutOfFuel
				}
				in.fuel--
				continue
			}
			return o, nil
		}

	case *If:
		cond, err := in.exec(e.Condition, locals)
		if err != nil {
			return outcome{}, err
		}
		if cond.transfers() {
			return cond, nil
		}
		if cond.value != 0 {
			return in.exec(e.IfTrue, locals)
		}
		return in.exec(e.IfFalse, locals)

	case *Break:
		if e.Condition != nil {
			cond, err := in.exec(e.Condition, locals)
			if err != nil {
				return outcome{}, err
			}
			if cond.transfers() {
				return cond, nil
			}
			if cond.value == 0 {
				return outcome{}, nil
			}
		}
		return outcome{br: e.Target}, nil

	case *LocalGet:
		if int(e.Index) >= len(locals) {
			return outcome{}, fmt.Errorf("wasm: local %d out of range", e.Index)
		}
		return outcome{value: locals[e.Index]}, nil

	case *LocalSet:
		v, err := in.exec(e.Value, locals)
		if err != nil {
			return outcome{}, err
		}
		if v.transfers() {
			return v, nil
		}
		if int(e.Index) >= len(locals) {
			return outcome{}, fmt.Errorf("wasm: local %d out of range", e.Index)
		}
		locals[e.Index] = v.value
		return outcome{}, nil

	case *Const:
		return outcome{value: e.Value}, nil

	case *Binary:
		l, err := in.exec(e.Left, locals)
		if err != nil {
			return outcome{}, err
		}
		if l.transfers() {
			return l, nil
		}
		r, err := in.exec(e.Right, locals)
		if err != nil {
			return outcome{}, err
		}
		if r.transfers() {
			return r, nil
		}
		return outcome{value: applyBinary(e.Op, l.value, r.value)}, nil

	case *Call:
		args := make([]int32, len(e.Operands))
		for i, op := range e.Operands {
			o, err := in.exec(op, locals)
			if err != nil {
				return outcome{}, err
			}
			if o.transfers() {
				return o, nil
			}
			args[i] = o.value
		}
		in.Trace = append(in.Trace, traceEntry(e.Target, args))
		if callee := in.mod.FuncByName(e.Target); callee != nil {
			v, err := in.call(callee, args)
			if err != nil {
				return outcome{}, err
			}
			return outcome{value: v}, nil
		}
		return outcome{}, nil // import: traced, returns 0

	case *Return:
		v, err := in.exec(e.Value, locals)
		if err != nil {
			return outcome{}, err
		}
		if v.transfers() {
			return v, nil
		}
		return outcome{value: v.value, ret: true}, nil
	}
	return outcome{}, fmt.Errorf("wasm: cannot execute %T", e)
}

func applyBinary(op Op, l, r int32) int32 {
	switch op {
	case EqInt32:
		return b2i(l == r)
	case NeInt32:
		return b2i(l != r)
	case AddInt32:
		return l + r
	case SubInt32:
		return l - r
	case LtSInt32:
		return b2i(l < r)
	case GtSInt32:
		return b2i(l > r)
	}
	return 0
}

func b2i(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func traceEntry(target string, args []int32) string {
	s := "$" + target
	for _, a := range args {
		s += fmt.Sprintf(" %d", a)
	}
	return s
}
