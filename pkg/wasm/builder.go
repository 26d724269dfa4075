package wasm

// Blockify wraps e in a block named name, appending tail after it.
// An existing unnamed block is reused rather than nested, so repeated
// blockification does not pile up redundant scopes. Breaks inside a
// reused block can only target enclosing scopes, since the block had
// no name of its own.
func Blockify(e Expression, name string, tail Expression) *Block {
	b, ok := e.(*Block)
	if !ok || b.Name != "" {
		b = &Block{List: []Expression{e}}
	}
	b.Name = name
	if tail != nil {
		b.List = append(b.List, tail)
	}
	return b
}

// Sequence builds a fresh unnamed block holding exactly [a, b].
func Sequence(a, b Expression) *Block {
	return &Block{List: []Expression{a, b}}
}
