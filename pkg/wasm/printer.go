package wasm

import (
	"fmt"
	"io"
	"strings"
)

// Printer writes IR trees to w in a wat-flavored s-expression form.
// The output round-trips through the wast package and is used by
// tests for expectation matching, so the layout is deterministic:
// subtrees free of control structure print on one line, everything
// else nests with two-space indentation.
type Printer struct {
	w      io.Writer
	indent int
	fn     *Function
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintModule prints a complete module.
func (p *Printer) PrintModule(m *Module) {
	fmt.Fprintln(p.w, "(module")
	p.indent++
	for _, f := range m.Funcs {
		p.PrintFunction(f)
	}
	p.indent--
	fmt.Fprintln(p.w, ")")
}

// PrintFunction prints one function definition.
func (p *Printer) PrintFunction(f *Function) {
	p.fn = f
	p.writeIndent()
	fmt.Fprintf(p.w, "(func $%s", f.Name)
	for i, name := range f.Locals {
		kind := "local"
		if i < f.NumParams {
			kind = "param"
		}
		if name != "" {
			fmt.Fprintf(p.w, " (%s $%s)", kind, name)
		} else {
			fmt.Fprintf(p.w, " (%s)", kind)
		}
	}
	fmt.Fprintln(p.w)
	p.indent++
	p.printExpr(f.Body)
	p.indent--
	p.writeIndent()
	fmt.Fprintln(p.w, ")")
	p.fn = nil
}

// PrintExpression prints a single expression tree (used by tests).
func (p *Printer) PrintExpression(e Expression) {
	p.printExpr(e)
}

func (p *Printer) writeIndent() {
	fmt.Fprint(p.w, strings.Repeat("  ", p.indent))
}

// compact reports whether e contains no control structure and can
// print on a single line.
func compact(e Expression) bool {
	if e == nil {
		return true
	}
	switch e := e.(type) {
	case *Block, *Loop, *If:
		return false
	case *Break:
		return compact(e.Condition)
	case *LocalSet:
		return compact(e.Value)
	case *Binary:
		return compact(e.Left) && compact(e.Right)
	case *Call:
		for _, o := range e.Operands {
			if !compact(o) {
				return false
			}
		}
		return true
	case *Return:
		return compact(e.Value)
	}
	return true
}

func (p *Printer) printExpr(e Expression) {
	if e == nil {
		return
	}
	if compact(e) {
		p.writeIndent()
		fmt.Fprintln(p.w, p.line(e))
		return
	}
	switch e := e.(type) {
	case *Block:
		p.writeIndent()
		if e.Name != "" {
			fmt.Fprintf(p.w, "(block $%s\n", e.Name)
		} else {
			fmt.Fprintln(p.w, "(block")
		}
		p.indent++
		for _, c := range e.List {
			p.printExpr(c)
		}
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *Loop:
		p.writeIndent()
		if e.Name != "" {
			fmt.Fprintf(p.w, "(loop $%s\n", e.Name)
		} else {
			fmt.Fprintln(p.w, "(loop")
		}
		p.indent++
		p.printExpr(e.Body)
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *If:
		p.writeIndent()
		if compact(e.Condition) {
			fmt.Fprintf(p.w, "(if %s\n", p.line(e.Condition))
		} else {
			fmt.Fprintln(p.w, "(if")
			p.indent++
			p.printExpr(e.Condition)
			p.indent--
		}
		p.indent++
		p.writeIndent()
		fmt.Fprintln(p.w, "(then")
		p.indent++
		p.printExpr(e.IfTrue)
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
		if e.IfFalse != nil {
			p.writeIndent()
			fmt.Fprintln(p.w, "(else")
			p.indent++
			p.printExpr(e.IfFalse)
			p.indent--
			p.writeIndent()
			fmt.Fprintln(p.w, ")")
		}
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *Break:
		// non-compact: condition holds control structure
		p.writeIndent()
		fmt.Fprintf(p.w, "(br_if $%s\n", e.Target)
		p.indent++
		p.printExpr(e.Condition)
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *LocalSet:
		p.writeIndent()
		fmt.Fprintf(p.w, "(local.set %s\n", p.local(e.Index))
		p.indent++
		p.printExpr(e.Value)
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *Binary:
		p.writeIndent()
		fmt.Fprintf(p.w, "(%s\n", e.Op)
		p.indent++
		p.printExpr(e.Left)
		p.printExpr(e.Right)
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *Call:
		p.writeIndent()
		fmt.Fprintf(p.w, "(call $%s\n", e.Target)
		p.indent++
		for _, o := range e.Operands {
			p.printExpr(o)
		}
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	case *Return:
		p.writeIndent()
		fmt.Fprintln(p.w, "(return")
		p.indent++
		p.printExpr(e.Value)
		p.indent--
		p.writeIndent()
		fmt.Fprintln(p.w, ")")
	}
}

// line renders a compact expression on one line.
func (p *Printer) line(e Expression) string {
	switch e := e.(type) {
	case *Nop:
		return "(nop)"
	case *Const:
		return fmt.Sprintf("(i32.const %d)", e.Value)
	case *LocalGet:
		return fmt.Sprintf("(local.get %s)", p.local(e.Index))
	case *LocalSet:
		return fmt.Sprintf("(local.set %s %s)", p.local(e.Index), p.line(e.Value))
	case *Break:
		if e.Condition != nil {
			return fmt.Sprintf("(br_if $%s %s)", e.Target, p.line(e.Condition))
		}
		return fmt.Sprintf("(br $%s)", e.Target)
	case *Binary:
		return fmt.Sprintf("(%s %s %s)", e.Op, p.line(e.Left), p.line(e.Right))
	case *Call:
		var sb strings.Builder
		fmt.Fprintf(&sb, "(call $%s", e.Target)
		for _, o := range e.Operands {
			sb.WriteString(" ")
			sb.WriteString(p.line(o))
		}
		sb.WriteString(")")
		return sb.String()
	case *Return:
		if e.Value != nil {
			return fmt.Sprintf("(return %s)", p.line(e.Value))
		}
		return "(return)"
	}
	return "(?)"
}

func (p *Printer) local(idx Index) string {
	if p.fn != nil {
		if name := p.fn.LocalName(idx); name != "" {
			return "$" + name
		}
	}
	return fmt.Sprintf("%d", idx)
}

// Print renders a module to a string.
func Print(m *Module) string {
	var sb strings.Builder
	NewPrinter(&sb).PrintModule(m)
	return sb.String()
}

// PrintFunc renders one function to a string.
func PrintFunc(f *Function) string {
	var sb strings.Builder
	NewPrinter(&sb).PrintFunction(f)
	return sb.String()
}
