package wast

import (
	"fmt"
	"strconv"

	"github.com/ecoball/binaryen/pkg/wasm"
)

// Parser builds wasm IR from wast tokens.
type Parser struct {
	l       *Lexer
	curTok  Token
	peekTok Token
	errors  []string

	fn     *wasm.Function // function being parsed
	locals map[string]wasm.Index
}

// NewParser creates a Parser over l.
func NewParser(l *Lexer) *Parser {
	p := &Parser{l: l}
	// prime curTok and peekTok
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a source string into a module.
func Parse(input string) (*wasm.Module, error) {
	p := NewParser(NewLexer(input))
	m := p.ParseModule()
	if errs := p.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("wast: %s", errs[0])
	}
	return m, nil
}

// Errors returns all accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curTok = p.peekTok
	p.peekTok = p.l.NextToken()
}

func (p *Parser) errorf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	p.errors = append(p.errors, fmt.Sprintf("%d:%d: %s", p.curTok.Line, p.curTok.Column, msg))
}

func (p *Parser) expect(t TokenType, what string) bool {
	if p.curTok.Type != t {
		p.errorf("expected %s, got %s", what, p.curTok)
		return false
	}
	p.nextToken()
	return true
}

// atom consumes the current token if it is the given atom.
func (p *Parser) atom(lit string) bool {
	if p.curTok.Type == TokenAtom && p.curTok.Literal == lit {
		p.nextToken()
		return true
	}
	return false
}

// peekAtom reports whether the upcoming form is '(' lit.
func (p *Parser) peekAtom(lit string) bool {
	return p.curTok.Type == TokenLParen &&
		p.peekTok.Type == TokenAtom && p.peekTok.Literal == lit
}

// ParseModule parses (module func*).
func (p *Parser) ParseModule() *wasm.Module {
	m := &wasm.Module{}
	if !p.expect(TokenLParen, "(") {
		return m
	}
	if !p.atom("module") {
		p.errorf("expected module, got %s", p.curTok)
		return m
	}
	for p.peekAtom("func") {
		if fn := p.parseFunc(); fn != nil {
			m.Funcs = append(m.Funcs, fn)
		}
	}
	p.expect(TokenRParen, ")")
	if p.curTok.Type != TokenEOF {
		p.errorf("trailing input after module: %s", p.curTok)
	}
	return m
}

// parseFunc parses (func $name (param $x)* (local $y)* expr*).
func (p *Parser) parseFunc() *wasm.Function {
	p.nextToken() // (
	p.nextToken() // func
	fn := &wasm.Function{}
	if p.curTok.Type == TokenName {
		fn.Name = p.curTok.Literal
		p.nextToken()
	}
	p.fn = fn
	p.locals = make(map[string]wasm.Index)

	// parameter and local declarations, params first
	sawLocal := false
	for p.peekAtom("param") || p.peekAtom("local") {
		isParam := p.peekTok.Literal == "param"
		p.nextToken() // (
		p.nextToken() // param | local
		name := ""
		if p.curTok.Type == TokenName {
			name = p.curTok.Literal
			p.nextToken()
		}
		if isParam {
			if sawLocal {
				p.errorf("param after local in $%s", fn.Name)
			}
			fn.NumParams++
		} else {
			sawLocal = true
		}
		if name != "" {
			if _, dup := p.locals[name]; dup {
				p.errorf("duplicate local $%s in $%s", name, fn.Name)
			}
			p.locals[name] = wasm.Index(len(fn.Locals))
		}
		fn.Locals = append(fn.Locals, name)
		p.expect(TokenRParen, ")")
	}

	var body []wasm.Expression
	for p.curTok.Type == TokenLParen {
		if e := p.parseExpr(); e != nil {
			body = append(body, e)
		}
	}
	p.expect(TokenRParen, ")")
	fn.Body = implicitBlock(body)
	p.fn = nil
	p.locals = nil
	return fn
}

// implicitBlock wraps zero or many expressions the way a function body
// or a then/else arm expects a single child.
func implicitBlock(list []wasm.Expression) wasm.Expression {
	switch len(list) {
	case 0:
		return &wasm.Nop{}
	case 1:
		return list[0]
	default:
		return &wasm.Block{List: list}
	}
}

// parseExpr parses one parenthesized expression form.
func (p *Parser) parseExpr() wasm.Expression {
	if !p.expect(TokenLParen, "(") {
		p.nextToken()
		return nil
	}
	if p.curTok.Type != TokenAtom {
		p.errorf("expected an operator, got %s", p.curTok)
		p.skipForm()
		return nil
	}
	head := p.curTok.Literal
	p.nextToken()

	switch head {
	case "nop":
		p.expect(TokenRParen, ")")
		return &wasm.Nop{}

	case "block":
		b := &wasm.Block{Name: p.optionalName()}
		for p.curTok.Type == TokenLParen {
			if e := p.parseExpr(); e != nil {
				b.List = append(b.List, e)
			}
		}
		p.expect(TokenRParen, ")")
		return b

	case "loop":
		l := &wasm.Loop{Name: p.optionalName()}
		var body []wasm.Expression
		for p.curTok.Type == TokenLParen {
			if e := p.parseExpr(); e != nil {
				body = append(body, e)
			}
		}
		p.expect(TokenRParen, ")")
		l.Body = implicitBlock(body)
		return l

	case "if":
		iff := &wasm.If{}
		iff.Condition = p.parseExpr()
		if p.peekAtom("then") {
			p.nextToken() // (
			p.nextToken() // then
			var arm []wasm.Expression
			for p.curTok.Type == TokenLParen {
				if e := p.parseExpr(); e != nil {
					arm = append(arm, e)
				}
			}
			p.expect(TokenRParen, ")")
			iff.IfTrue = implicitBlock(arm)
		} else {
			p.errorf("if requires a (then ...) arm")
		}
		if p.peekAtom("else") {
			p.nextToken() // (
			p.nextToken() // else
			var arm []wasm.Expression
			for p.curTok.Type == TokenLParen {
				if e := p.parseExpr(); e != nil {
					arm = append(arm, e)
				}
			}
			p.expect(TokenRParen, ")")
			iff.IfFalse = implicitBlock(arm)
		}
		p.expect(TokenRParen, ")")
		return iff

	case "br":
		br := &wasm.Break{Target: p.requireName("br target")}
		p.expect(TokenRParen, ")")
		return br

	case "br_if":
		br := &wasm.Break{Target: p.requireName("br_if target")}
		br.Condition = p.parseExpr()
		p.expect(TokenRParen, ")")
		return br

	case "local.get":
		g := &wasm.LocalGet{Index: p.localRef()}
		p.expect(TokenRParen, ")")
		return g

	case "local.set":
		s := &wasm.LocalSet{Index: p.localRef()}
		s.Value = p.parseExpr()
		p.expect(TokenRParen, ")")
		return s

	case "i32.const":
		c := &wasm.Const{Value: p.intLiteral()}
		p.expect(TokenRParen, ")")
		return c

	case "i32.eq", "i32.ne", "i32.add", "i32.sub", "i32.lt_s", "i32.gt_s":
		b := &wasm.Binary{Op: binaryOp(head)}
		b.Left = p.parseExpr()
		b.Right = p.parseExpr()
		p.expect(TokenRParen, ")")
		return b

	case "call":
		c := &wasm.Call{Target: p.requireName("call target")}
		for p.curTok.Type == TokenLParen {
			if e := p.parseExpr(); e != nil {
				c.Operands = append(c.Operands, e)
			}
		}
		p.expect(TokenRParen, ")")
		return c

	case "return":
		r := &wasm.Return{}
		if p.curTok.Type == TokenLParen {
			r.Value = p.parseExpr()
		}
		p.expect(TokenRParen, ")")
		return r
	}

	p.errorf("unknown operator %q", head)
	p.skipForm()
	return nil
}

// skipForm consumes tokens until the current form's closing paren.
func (p *Parser) skipForm() {
	depth := 1
	for depth > 0 && p.curTok.Type != TokenEOF {
		switch p.curTok.Type {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
		}
		p.nextToken()
	}
}

func (p *Parser) optionalName() string {
	if p.curTok.Type == TokenName {
		name := p.curTok.Literal
		p.nextToken()
		return name
	}
	return ""
}

func (p *Parser) requireName(what string) string {
	if p.curTok.Type != TokenName {
		p.errorf("expected %s, got %s", what, p.curTok)
		return ""
	}
	name := p.curTok.Literal
	p.nextToken()
	return name
}

// localRef resolves $name or a bare index to a local slot.
func (p *Parser) localRef() wasm.Index {
	switch p.curTok.Type {
	case TokenName:
		name := p.curTok.Literal
		p.nextToken()
		if idx, ok := p.locals[name]; ok {
			return idx
		}
		p.errorf("undeclared local $%s", name)
		return 0
	case TokenInt:
		n := p.intLiteral()
		if p.fn != nil && int(n) >= len(p.fn.Locals) {
			p.errorf("local index %d out of range", n)
			return 0
		}
		return wasm.Index(n)
	default:
		p.errorf("expected a local reference, got %s", p.curTok)
		return 0
	}
}

func (p *Parser) intLiteral() int32 {
	if p.curTok.Type != TokenInt {
		p.errorf("expected an integer, got %s", p.curTok)
		return 0
	}
	n, err := strconv.ParseInt(p.curTok.Literal, 10, 32)
	if err != nil {
		p.errorf("bad integer %q: %v", p.curTok.Literal, err)
	}
	p.nextToken()
	return int32(n)
}

func binaryOp(head string) wasm.Op {
	switch head {
	case "i32.eq":
		return wasm.EqInt32
	case "i32.ne":
		return wasm.NeInt32
	case "i32.add":
		return wasm.AddInt32
	case "i32.sub":
		return wasm.SubInt32
	case "i32.lt_s":
		return wasm.LtSInt32
	case "i32.gt_s":
		return wasm.GtSInt32
	}
	return wasm.EqInt32
}
