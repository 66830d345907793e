package parser

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

var primitiveTypeNames = map[string]bool{
	"number": true, "string": true, "boolean": true, "void": true,
	"bigint": true, "symbol": true, "any": true, "unknown": true,
	"never": true, "object": true, "null": true, "undefined": true,
}

// parseTypeExpr parses a type annotation into its own small AST (see
// ast.TypeExpr), consumed later by the type checker — kept separate from
// the value-expression grammar so that `|`, `&`, and `<...>` don't
// interfere with their operator-token counterparts in expressions.
func (p *Parser) parseTypeExpr() ast.TypeExpr {
	return p.parseUnionType()
}

func (p *Parser) parseUnionType() ast.TypeExpr {
	tok := p.curToken
	first := p.parseArrayType()
	if !p.curIs(lexer.PIPE) {
		return first
	}
	alts := []ast.TypeExpr{first}
	for p.curIs(lexer.PIPE) {
		p.next()
		alts = append(alts, p.parseArrayType())
	}
	return &ast.UnionTypeExpr{Token: tok, Alts: alts}
}

func (p *Parser) parseArrayType() ast.TypeExpr {
	elem := p.parseTypePrimary()
	for p.curIs(lexer.LBRACKET) {
		tok := p.curToken
		p.next()
		p.expect(lexer.RBRACKET)
		elem = &ast.ArrayTypeExpr{Token: tok, Elem: elem}
	}
	return elem
}

func (p *Parser) parseTypePrimary() ast.TypeExpr {
	tok := p.curToken
	switch {
	case p.curIs(lexer.LBRACKET):
		return p.parseTupleType()
	case p.curIs(lexer.LBRACE):
		return p.parseRecordType()
	case p.curIs(lexer.LPAREN):
		return p.parseFunctionType()
	case p.curIs(lexer.NULL_KW):
		p.next()
		return &ast.PrimitiveTypeExpr{Token: tok, Name: "null"}
	case p.curIs(lexer.UNDEFINED_KW):
		p.next()
		return &ast.PrimitiveTypeExpr{Token: tok, Name: "undefined"}
	case p.curIs(lexer.VOID):
		p.next()
		return &ast.PrimitiveTypeExpr{Token: tok, Name: "void"}
	case p.curIs(lexer.STRING):
		// string-literal type, e.g. a discriminant: `kind: "circle"`
		p.next()
		return &ast.PrimitiveTypeExpr{Token: tok, Name: tok.Literal}
	case p.curIs(lexer.IDENT):
		name := tok.Literal
		p.next()
		if primitiveTypeNames[name] {
			return &ast.PrimitiveTypeExpr{Token: tok, Name: name}
		}
		ref := &ast.TypeRefExpr{Token: tok, Name: name}
		if p.curIs(lexer.LT) {
			ref.TypeArgs = p.parseTypeArgList()
		}
		return ref
	default:
		p.fail("expected type, got " + p.curToken.Type.String())
		return nil
	}
}

func (p *Parser) parseTupleType() ast.TypeExpr {
	tok := p.curToken
	p.next()
	tup := &ast.TupleTypeExpr{Token: tok}
	for !p.curIs(lexer.RBRACKET) {
		if p.curIs(lexer.ELLIPSIS) {
			p.next()
			tup.Rest = p.parseTypeExpr()
		} else {
			tup.Elems = append(tup.Elems, p.parseTypeExpr())
		}
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACKET)
	return tup
}

func (p *Parser) parseRecordType() ast.TypeExpr {
	tok := p.curToken
	p.next()
	rec := &ast.RecordTypeExpr{Token: tok}
	for !p.curIs(lexer.RBRACE) {
		readonly := false
		if p.curIs(lexer.READONLY) {
			readonly = true
			p.next()
		}
		name := p.curToken.Literal
		p.next()
		optional := false
		if p.curIs(lexer.QUESTION) {
			optional = true
			p.next()
		}
		p.expect(lexer.COLON)
		fieldType := p.parseTypeExpr()
		rec.Fields = append(rec.Fields, &ast.RecordTypeField{Name: name, TypeAnn: fieldType, Optional: optional, Readonly: readonly})
		if p.curIs(lexer.SEMICOLON) || p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return rec
}

func (p *Parser) parseFunctionType() ast.TypeExpr {
	tok := p.curToken
	params := p.parseParamList()
	p.expect(lexer.ARROW)
	ret := p.parseTypeExpr()
	return &ast.FunctionTypeExpr{Token: tok, Params: params, ReturnType: ret}
}

func (p *Parser) parseTypeArgList() []ast.TypeExpr {
	p.expect(lexer.LT)
	var args []ast.TypeExpr
	for !p.curIs(lexer.GT) {
		args = append(args, p.parseTypeExpr())
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.GT)
	return args
}

// tryParseTypeArgs parses `<T, U>` speculatively (used after `new Foo`,
// where `<` might instead be the less-than operator in a vanishingly rare
// expression-statement ambiguity the spec's subset does not need to
// resolve beyond this simple lookahead).
func (p *Parser) tryParseTypeArgs() []ast.TypeExpr {
	state := p.l.SaveState()
	savedCur, savedPeek := p.curToken, p.peekToken
	args := p.parseTypeArgList()
	if !p.curIs(lexer.LPAREN) {
		p.restoreParseState(state, savedCur, savedPeek)
		return nil
	}
	return args
}
