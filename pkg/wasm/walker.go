package wasm

// Walk traverses the tree rooted at e in post order, calling f on
// every node exactly once. A nil e is ignored, as are nil optional
// children (If.IfFalse, Break.Condition, Return.Value).
func Walk(e Expression, f func(Expression)) {
	if e == nil {
		return
	}
	switch e := e.(type) {
	case *Nop, *Const, *LocalGet:
		// leaves
	case *Block:
		for _, c := range e.List {
			Walk(c, f)
		}
	case *Loop:
		Walk(e.Body, f)
	case *If:
		Walk(e.Condition, f)
		Walk(e.IfTrue, f)
		Walk(e.IfFalse, f)
	case *Break:
		Walk(e.Condition, f)
	case *LocalSet:
		Walk(e.Value, f)
	case *Binary:
		Walk(e.Left, f)
		Walk(e.Right, f)
	case *Call:
		for _, o := range e.Operands {
			Walk(o, f)
		}
	case *Return:
		Walk(e.Value, f)
	}
	f(e)
}
