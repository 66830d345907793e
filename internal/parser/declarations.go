package parser

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func (p *Parser) parseEnumDecl() ast.Stmt {
	tok := p.curToken
	isConst := false
	if p.curIs(lexer.CONST) {
		isConst = true
		p.next()
	}
	p.expect(lexer.ENUM)
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.LBRACE)
	var members []*ast.EnumMember
	for !p.curIs(lexer.RBRACE) {
		memberName := p.curToken.Literal
		p.next()
		var value ast.Expr
		if p.curIs(lexer.ASSIGN) {
			p.next()
			value = p.parseExpression(ASSIGN)
		}
		members = append(members, &ast.EnumMember{Name: memberName, Value: value})
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RBRACE)
	return &ast.EnumDecl{Token: tok, Name: name, Members: members, IsConst: isConst}
}

func (p *Parser) parseNamespaceDecl() ast.Stmt {
	tok := p.curToken
	p.next() // namespace | module
	name := p.expect(lexer.IDENT).Literal
	for p.curIs(lexer.DOT) {
		p.next()
		name += "." + p.expect(lexer.IDENT).Literal
	}
	p.expect(lexer.LBRACE)
	var body []ast.Stmt
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		body = append(body, p.parseStatement())
	}
	p.expect(lexer.RBRACE)
	return &ast.NamespaceDecl{Token: tok, Name: name, Body: body}
}
