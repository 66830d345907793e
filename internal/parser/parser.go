// Package parser implements a recursive-descent parser with Pratt
// precedence climbing for expressions, producing the internal/ast tree.
//
// Key patterns:
//   - curToken/peekToken pair refilled from the lexer's own Peek/NextToken
//   - precedence table drives parseExpression(precedence)
//   - parse errors are fatal: the first one raised via panic(parseAbort{})
//     unwinds to Parse(), which recovers it into a returned *errors.CompilerError
package parser

import (
	"fmt"

	"github.com/tsnc-lang/tsnc/internal/ast"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// Precedence levels, lowest to highest.
const (
	_ int = iota
	LOWEST
	COMMA
	ASSIGN     // = += -= ... &&= ||= ??=
	TERNARY    // ?:
	NULLISH    // ??
	LOGIC_OR   // ||
	LOGIC_AND  // &&
	BIT_OR     // |
	BIT_XOR    // ^
	BIT_AND    // &
	EQUALS     // == != === !==
	RELATIONAL // < > <= >= instanceof in
	SHIFT      // << >> >>>
	SUM        // + -
	PRODUCT    // * / %
	EXPONENT   // **
	PREFIX     // !x -x +x ~x typeof void delete await ++x --x
	POSTFIX    // x++ x--
	CALLIDX    // f(...) a[...] a.b a?.b new
)

var precedences = map[lexer.TokenType]int{
	lexer.ASSIGN: ASSIGN, lexer.PLUS_ASSIGN: ASSIGN, lexer.MINUS_ASSIGN: ASSIGN,
	lexer.STAR_ASSIGN: ASSIGN, lexer.SLASH_ASSIGN: ASSIGN, lexer.PERCENT_ASSIGN: ASSIGN,
	lexer.STAR_STAR_ASSIGN: ASSIGN, lexer.AMP_ASSIGN: ASSIGN, lexer.PIPE_ASSIGN: ASSIGN,
	lexer.CARET_ASSIGN: ASSIGN, lexer.LSHIFT_ASSIGN: ASSIGN, lexer.RSHIFT_ASSIGN: ASSIGN,
	lexer.URSHIFT_ASSIGN: ASSIGN, lexer.AMP_AMP_ASSIGN: ASSIGN, lexer.PIPE_PIPE_ASSIGN: ASSIGN,
	lexer.QUESTION_QUESTION_ASSIGN: ASSIGN,
	lexer.QUESTION:                 TERNARY,
	lexer.QUESTION_QUESTION:        NULLISH,
	lexer.PIPE_PIPE:                LOGIC_OR,
	lexer.AMP_AMP:                  LOGIC_AND,
	lexer.PIPE:                     BIT_OR,
	lexer.CARET:                    BIT_XOR,
	lexer.AMP:                      BIT_AND,
	lexer.EQ:                       EQUALS,
	lexer.NOT_EQ:                   EQUALS,
	lexer.STRICT_EQ:                EQUALS,
	lexer.STRICT_NEQ:               EQUALS,
	lexer.LT:                       RELATIONAL,
	lexer.GT:                       RELATIONAL,
	lexer.LE:                       RELATIONAL,
	lexer.GE:                       RELATIONAL,
	lexer.INSTANCEOF:               RELATIONAL,
	lexer.IN:                       RELATIONAL,
	lexer.LSHIFT:                   SHIFT,
	lexer.RSHIFT:                   SHIFT,
	lexer.URSHIFT:                  SHIFT,
	lexer.PLUS:                     SUM,
	lexer.MINUS:                    SUM,
	lexer.STAR:                     PRODUCT,
	lexer.SLASH:                    PRODUCT,
	lexer.PERCENT:                  PRODUCT,
	lexer.STAR_STAR:                EXPONENT,
	lexer.LPAREN:                   CALLIDX,
	lexer.LBRACKET:                 CALLIDX,
	lexer.DOT:                      CALLIDX,
	lexer.QUESTION_DOT:             CALLIDX,
	lexer.PLUS_PLUS:                POSTFIX,
	lexer.MINUS_MINUS:              POSTFIX,
}

// Parser holds the scanning position and accumulates nothing: the first
// error aborts parsing (spec §4.2 — "errors are fatal; recovery is not
// required").
type Parser struct {
	l         *lexer.Lexer
	file      string
	source    string
	curToken  lexer.Token
	peekToken lexer.Token
}

// parseAbort is panicked to unwind out of arbitrarily deep recursive-descent
// frames back to Parse, where it is recovered into a *errors.CompilerError.
type parseAbort struct{ err *cerrors.CompilerError }

// New creates a Parser over already-lexed source. file/source are carried
// only for error context formatting.
func New(l *lexer.Lexer, file, source string) *Parser {
	p := &Parser{l: l, file: file, source: source}
	p.next()
	p.next()
	return p
}

// Parse runs the parser to completion, returning either the Program or the
// first fatal parse error encountered.
func (p *Parser) Parse() (prog *ast.Program, err *cerrors.CompilerError) {
	defer func() {
		if r := recover(); r != nil {
			if abort, ok := r.(parseAbort); ok {
				err = abort.err
				return
			}
			panic(r)
		}
	}()

	prog = &ast.Program{}
	for p.curToken.Type != lexer.EOF {
		prog.Statements = append(prog.Statements, p.parseStatement())
	}
	return prog, nil
}

func (p *Parser) next() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curIs(tt lexer.TokenType) bool  { return p.curToken.Type == tt }
func (p *Parser) peekIs(tt lexer.TokenType) bool { return p.peekToken.Type == tt }

func (p *Parser) curPrecedence() int {
	if pr, ok := precedences[p.curToken.Type]; ok {
		return pr
	}
	return LOWEST
}

// expect advances past the current token if it matches tt, otherwise
// raises a fatal ParseError.
func (p *Parser) expect(tt lexer.TokenType) lexer.Token {
	if !p.curIs(tt) {
		p.fail(fmt.Sprintf("expected %s, got %s (%q)", tt, p.curToken.Type, p.curToken.Literal))
	}
	tok := p.curToken
	p.next()
	return tok
}

func (p *Parser) fail(message string) {
	ce := cerrors.New(cerrors.Parse, p.curToken.Pos, message, p.source, p.file)
	panic(parseAbort{err: ce})
}

func (p *Parser) failAt(pos lexer.Position, message string) {
	ce := cerrors.New(cerrors.Parse, pos, message, p.source, p.file)
	panic(parseAbort{err: ce})
}
