package wasm

// Copy returns a structural deep copy of e. Copying a nil expression
// yields nil, so optional children copy through unchanged.
func Copy(e Expression) Expression {
	if e == nil {
		return nil
	}
	switch e := e.(type) {
	case *Nop:
		return &Nop{}
	case *Block:
		list := make([]Expression, len(e.List))
		for i, c := range e.List {
			list[i] = Copy(c)
		}
		return &Block{Name: e.Name, List: list}
	case *Loop:
		return &Loop{Name: e.Name, Body: Copy(e.Body)}
	case *If:
		return &If{
			Condition: Copy(e.Condition),
			IfTrue:    Copy(e.IfTrue),
			IfFalse:   Copy(e.IfFalse),
		}
	case *Break:
		return &Break{Target: e.Target, Condition: Copy(e.Condition)}
	case *LocalGet:
		return &LocalGet{Index: e.Index}
	case *LocalSet:
		return &LocalSet{Index: e.Index, Value: Copy(e.Value)}
	case *Const:
		return &Const{Value: e.Value}
	case *Binary:
		return &Binary{Op: e.Op, Left: Copy(e.Left), Right: Copy(e.Right)}
	case *Call:
		ops := make([]Expression, len(e.Operands))
		for i, o := range e.Operands {
			ops[i] = Copy(o)
		}
		return &Call{Target: e.Target, Operands: ops}
	case *Return:
		return &Return{Value: Copy(e.Value)}
	}
	return nil
}

// CopyFunction deep-copies a function definition.
func CopyFunction(f *Function) *Function {
	locals := make([]string, len(f.Locals))
	copy(locals, f.Locals)
	return &Function{
		Name:      f.Name,
		NumParams: f.NumParams,
		Locals:    locals,
		Body:      Copy(f.Body),
	}
}
