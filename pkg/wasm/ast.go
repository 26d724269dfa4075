// Package wasm defines the structured tree IR the optimizer works on.
// The representation is a single expression tree: there is no
// statement/expression split, blocks and loops carry optional names,
// and a break targets the nearest enclosing scope with that name.
// Every value in this subset is an i32.
package wasm

// Index identifies a local slot within a function.
type Index int

// Op is a binary operator over i32 values.
type Op int

const (
	EqInt32 Op = iota
	NeInt32
	AddInt32
	SubInt32
	LtSInt32
	GtSInt32
)

func (op Op) String() string {
	switch op {
	case EqInt32:
		return "i32.eq"
	case NeInt32:
		return "i32.ne"
	case AddInt32:
		return "i32.add"
	case SubInt32:
		return "i32.sub"
	case LtSInt32:
		return "i32.lt_s"
	case GtSInt32:
		return "i32.gt_s"
	}
	return "i32.?"
}

// Expression is the interface for all IR tree nodes.
type Expression interface {
	implWasmExpression()
}

// Nop is an empty placeholder statement.
type Nop struct{}

// Block is an ordered list of expressions. A break to Name (if
// non-empty) transfers control to just after the block.
type Block struct {
	Name string
	List []Expression
}

// Loop repeats its body when a break targets Name; falling off the end
// of the body exits the loop.
type Loop struct {
	Name string
	Body Expression
}

// If evaluates Condition and runs IfTrue on a nonzero result,
// otherwise IfFalse. IfFalse may be nil.
type If struct {
	Condition Expression
	IfTrue    Expression
	IfFalse   Expression
}

// Break branches to the enclosing scope named Target. If Condition is
// non-nil the branch is taken only when it evaluates nonzero.
type Break struct {
	Target    string
	Condition Expression
}

// LocalGet reads a local slot.
type LocalGet struct {
	Index Index
}

// LocalSet writes a local slot.
type LocalSet struct {
	Index Index
	Value Expression
}

// Const is an i32 literal.
type Const struct {
	Value int32
}

// Binary applies Op to two i32 operands.
type Binary struct {
	Op    Op
	Left  Expression
	Right Expression
}

// Call invokes a function by name. A target not defined in the module
// behaves as an import.
type Call struct {
	Target   string
	Operands []Expression
}

// Return exits the function. Value may be nil.
type Return struct {
	Value Expression
}

func (*Nop) implWasmExpression()      {}
func (*Block) implWasmExpression()    {}
func (*Loop) implWasmExpression()     {}
func (*If) implWasmExpression()       {}
func (*Break) implWasmExpression()    {}
func (*LocalGet) implWasmExpression() {}
func (*LocalSet) implWasmExpression() {}
func (*Const) implWasmExpression()    {}
func (*Binary) implWasmExpression()   {}
func (*Call) implWasmExpression()     {}
func (*Return) implWasmExpression()   {}

// Function is one function definition. Locals holds the names of all
// local slots, parameters first; a name may be empty for unnamed
// slots. Every local is an i32.
type Function struct {
	Name      string
	NumParams int
	Locals    []string
	Body      Expression
}

// LocalIndex reports the slot of the local with the given name.
func (f *Function) LocalIndex(name string) (Index, bool) {
	if name == "" {
		return 0, false
	}
	for i, n := range f.Locals {
		if n == name {
			return Index(i), true
		}
	}
	return 0, false
}

// LocalName returns the name of a slot, or "" if it is unnamed or out
// of range.
func (f *Function) LocalName(idx Index) string {
	if int(idx) < 0 || int(idx) >= len(f.Locals) {
		return ""
	}
	return f.Locals[idx]
}

// Module is an ordered collection of functions.
type Module struct {
	Funcs []*Function
}

// FuncByName returns the named function, or nil.
func (m *Module) FuncByName(name string) *Function {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}
