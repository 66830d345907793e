package parser

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func (p *Parser) parseClassDecl() ast.Stmt {
	tok := p.curToken
	abstract := false
	if p.curIs(lexer.ABSTRACT) {
		abstract = true
		p.next()
	}
	p.expect(lexer.CLASS)
	name := p.expect(lexer.IDENT).Literal
	typeParams := p.parseOptionalTypeParams()
	var super ast.Expr
	var impl []ast.TypeExpr
	if p.curIs(lexer.EXTENDS) {
		p.next()
		super = p.parsePrimary()
		if p.curIs(lexer.LT) {
			p.tryParseTypeArgs()
		}
	}
	if p.curIs(lexer.IMPLEMENTS) {
		p.next()
		impl = append(impl, p.parseTypeExpr())
		for p.curIs(lexer.COMMA) {
			p.next()
			impl = append(impl, p.parseTypeExpr())
		}
	}
	fields := p.parseClassBody()
	return &ast.ClassDecl{Token: tok, Name: name, SuperClass: super, Implements: impl, Fields: fields, TypeParams: typeParams, Abstract: abstract}
}

func (p *Parser) parseClassExpr() ast.Expr {
	tok := p.curToken
	p.next()
	name := ""
	if p.curIs(lexer.IDENT) {
		name = p.curToken.Literal
		p.next()
	}
	var super ast.Expr
	var impl []ast.TypeExpr
	if p.curIs(lexer.EXTENDS) {
		p.next()
		super = p.parsePrimary()
	}
	if p.curIs(lexer.IMPLEMENTS) {
		p.next()
		impl = append(impl, p.parseTypeExpr())
		for p.curIs(lexer.COMMA) {
			p.next()
			impl = append(impl, p.parseTypeExpr())
		}
	}
	fields := p.parseClassBody()
	return &ast.ClassExpr{Token: tok, Name: name, SuperClass: super, Implements: impl, Fields: fields}
}

func (p *Parser) parseClassBody() []*ast.ClassField {
	p.expect(lexer.LBRACE)
	var fields []*ast.ClassField
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.SEMICOLON) {
			p.next()
			continue
		}
		fields = append(fields, p.parseClassMember())
	}
	p.expect(lexer.RBRACE)
	return fields
}

func (p *Parser) parseClassMember() *ast.ClassField {
	tok := p.curToken
	field := &ast.ClassField{Token: tok, Access: ast.AccessPublic}

	for p.curIs(lexer.AT) {
		p.next()
		dec := p.parsePrimary()
		dec = p.parseMemberChainOnly(dec)
		if p.curIs(lexer.LPAREN) {
			args := p.parseArgs()
			dec = &ast.Call{Token: tok, Callee: dec, Args: args}
		}
		field.Decorators = append(field.Decorators, dec)
	}

loop:
	for {
		switch p.curToken.Type {
		case lexer.PUBLIC:
			field.Access = ast.AccessPublic
			p.next()
		case lexer.PRIVATE:
			field.Access = ast.AccessPrivate
			p.next()
		case lexer.PROTECTED:
			field.Access = ast.AccessProtected
			p.next()
		case lexer.STATIC:
			field.Static = true
			p.next()
		case lexer.READONLY:
			field.Readonly = true
			p.next()
		case lexer.ABSTRACT:
			field.Abstract = true
			p.next()
		default:
			break loop
		}
	}

	isAsync := false
	if p.curIs(lexer.ASYNC) {
		isAsync = true
		p.next()
	}
	isGenerator := false
	if p.curIs(lexer.STAR) {
		isGenerator = true
		p.next()
	}

	if (p.curIs(lexer.GET) || p.curIs(lexer.SET)) && !p.peekIs(lexer.LPAREN) {
		isGet := p.curIs(lexer.GET)
		p.next()
		name, isPrivate := p.parseMemberName()
		field.Name = name
		field.PrivateKey = isPrivate
		accessor := &ast.AccessorDef{Token: tok, IsGet: isGet}
		accessor.Params = p.parseParamList()
		if p.curIs(lexer.COLON) {
			p.next()
			accessor.ReturnType = p.parseTypeExpr()
		}
		accessor.Body = p.parseBlockStmt()
		field.Accessor = accessor
		return field
	}

	name, isPrivate := p.parseMemberName()
	field.Name = name
	field.PrivateKey = isPrivate

	if p.curIs(lexer.LT) || p.curIs(lexer.LPAREN) {
		fn := &ast.FunctionLiteral{Token: tok, Name: name, IsAsync: isAsync, IsGenerator: isGenerator}
		fn.TypeParams = p.parseOptionalTypeParams()
		fn.Params = p.parseParamList()
		if p.curIs(lexer.COLON) {
			p.next()
			fn.ReturnType = p.parseTypeExpr()
		}
		if p.curIs(lexer.LBRACE) {
			fn.Body = p.parseBlockStmt()
		} else {
			p.consumeSemicolon() // abstract/overload signature with no body
		}
		field.Method = fn
		return field
	}

	if p.curIs(lexer.QUESTION) {
		p.next()
	}
	if p.curIs(lexer.COLON) {
		p.next()
		field.TypeAnn = p.parseTypeExpr()
	}
	if p.curIs(lexer.ASSIGN) {
		p.next()
		field.Initializer = p.parseExpression(ASSIGN)
	}
	p.consumeSemicolon()
	return field
}

func (p *Parser) parseMemberName() (name string, private bool) {
	if p.curIs(lexer.ILLEGAL) && p.curToken.Literal == "#" {
		p.next()
		return p.expect(lexer.IDENT).Literal, true
	}
	if p.curIs(lexer.CONSTRUCTOR) {
		p.next()
		return "constructor", false
	}
	tok := p.curToken
	p.next()
	return tok.Literal, false
}
