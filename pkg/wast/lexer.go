// Package wast implements a lexer and parser for the wat-flavored
// s-expression text format covering the IR subset in pkg/wasm.
package wast

import "fmt"

// TokenType identifies a lexical token class.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLParen
	TokenRParen
	TokenAtom // keywords and operators, e.g. func, i32.eq, local.set
	TokenName // $-prefixed identifiers
	TokenInt  // signed integer literals
	TokenIllegal
)

// Token is one lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of input"
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}

// Lexer tokenizes wast source text.
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // next reading position
	ch      byte // current character
	line    int
	column  int
}

// NewLexer creates a Lexer for the given input.
func NewLexer(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.readPos >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPos]
	}
	l.pos = l.readPos
	l.readPos++
	l.column++

	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
}

// NextToken returns the next token from the input.
func (l *Lexer) NextToken() Token {
	l.skipSpaceAndComments()

	tok := Token{Line: l.line, Column: l.column}

	switch {
	case l.ch == 0:
		tok.Type = TokenEOF
	case l.ch == '(':
		tok.Type = TokenLParen
		tok.Literal = "("
		l.readChar()
	case l.ch == ')':
		tok.Type = TokenRParen
		tok.Literal = ")"
		l.readChar()
	case l.ch == '$':
		l.readChar()
		tok.Type = TokenName
		tok.Literal = l.readAtom()
	case l.ch == '-' || isDigit(l.ch):
		tok.Type = TokenInt
		tok.Literal = l.readNumber()
	case isAtomChar(l.ch):
		tok.Type = TokenAtom
		tok.Literal = l.readAtom()
	default:
		tok.Type = TokenIllegal
		tok.Literal = string(l.ch)
		l.readChar()
	}
	return tok
}

// skipSpaceAndComments skips whitespace and ;; line comments.
func (l *Lexer) skipSpaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == ';' {
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
			continue
		}
		return
	}
}

func (l *Lexer) readAtom() string {
	start := l.pos
	for isAtomChar(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func (l *Lexer) readNumber() string {
	start := l.pos
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

// isAtomChar covers keyword and name characters, including the '.' in
// i32.const and the '$' that generated scope names embed.
func isAtomChar(ch byte) bool {
	switch {
	case 'a' <= ch && ch <= 'z', 'A' <= ch && ch <= 'Z':
		return true
	case isDigit(ch):
		return true
	case ch == '.', ch == '_', ch == '$', ch == '-':
		return true
	}
	return false
}
