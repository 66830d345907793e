package parser

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func (p *Parser) parseImportStmt() ast.Stmt {
	tok := p.curToken
	p.next()

	if p.curIs(lexer.IDENT) && p.peekIs(lexer.ASSIGN) {
		name := p.curToken.Literal
		p.next()
		p.next()              // =
		p.expect(lexer.IDENT) // require
		p.expect(lexer.LPAREN)
		source, _ := p.expect(lexer.STRING).Cooked.(string)
		p.expect(lexer.RPAREN)
		p.consumeSemicolon()
		return &ast.ImportRequireStmt{Token: tok, Name: name, Source: source}
	}

	if p.curIs(lexer.STRING) {
		source, _ := p.curToken.Cooked.(string)
		p.next()
		p.consumeSemicolon()
		return &ast.ImportStmt{Token: tok, Source: source, SideEffect: true}
	}

	stmt := &ast.ImportStmt{Token: tok}
	if p.curIs(lexer.TYPE) && !p.peekIs(lexer.FROM) && !p.peekIs(lexer.COMMA) {
		p.next()
	}

	if p.curIs(lexer.IDENT) {
		stmt.Default = p.curToken.Literal
		p.next()
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}

	if p.curIs(lexer.STAR) {
		p.next()
		p.expect(lexer.AS)
		stmt.Namespace = p.expect(lexer.IDENT).Literal
	} else if p.curIs(lexer.LBRACE) {
		p.next()
		for !p.curIs(lexer.RBRACE) {
			spec := p.parseImportSpec()
			stmt.Specifiers = append(stmt.Specifiers, spec)
			if p.curIs(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACE)
	}

	p.expect(lexer.FROM)
	stmt.Source, _ = p.expect(lexer.STRING).Cooked.(string)
	p.consumeSemicolon()
	return stmt
}

func (p *Parser) parseImportSpec() *ast.ImportSpec {
	tok := p.curToken
	typeOnly := false
	if p.curIs(lexer.TYPE) && !p.peekIs(lexer.AS) && !p.peekIs(lexer.COMMA) && !p.peekIs(lexer.RBRACE) {
		typeOnly = true
		p.next()
	}
	imported := p.curToken.Literal
	p.next()
	local := imported
	if p.curIs(lexer.AS) {
		p.next()
		local = p.curToken.Literal
		p.next()
	}
	return &ast.ImportSpec{Token: tok, Imported: imported, Local: local, TypeOnly: typeOnly}
}

func (p *Parser) parseExportStmt() ast.Stmt {
	tok := p.curToken
	p.next()

	if p.curIs(lexer.DEFAULT) {
		p.next()
		switch p.curToken.Type {
		case lexer.FUNCTION:
			return &ast.ExportStmt{Token: tok, Decl: p.parseFunctionDecl(), IsDefault: true}
		case lexer.CLASS, lexer.ABSTRACT:
			return &ast.ExportStmt{Token: tok, Decl: p.parseClassDecl(), IsDefault: true}
		default:
			expr := p.parseExpression(ASSIGN)
			p.consumeSemicolon()
			return &ast.ExportStmt{Token: tok, DefaultExpr: expr, IsDefault: true}
		}
	}

	if p.curIs(lexer.STAR) {
		p.next()
		alias := ""
		if p.curIs(lexer.AS) {
			p.next()
			alias = p.expect(lexer.IDENT).Literal
		}
		p.expect(lexer.FROM)
		source, _ := p.expect(lexer.STRING).Cooked.(string)
		p.consumeSemicolon()
		spec := &ast.ImportSpec{Token: tok, Imported: "*", Local: alias}
		return &ast.ExportStmt{Token: tok, Specifiers: []*ast.ImportSpec{spec}, Source: source}
	}

	if p.curIs(lexer.LBRACE) {
		p.next()
		var specs []*ast.ImportSpec
		for !p.curIs(lexer.RBRACE) {
			specs = append(specs, p.parseImportSpec())
			if p.curIs(lexer.COMMA) {
				p.next()
			}
		}
		p.expect(lexer.RBRACE)
		source := ""
		if p.curIs(lexer.FROM) {
			p.next()
			source, _ = p.expect(lexer.STRING).Cooked.(string)
		}
		p.consumeSemicolon()
		return &ast.ExportStmt{Token: tok, Specifiers: specs, Source: source}
	}

	if p.curIs(lexer.TYPE) {
		p.next()
		return &ast.ExportStmt{Token: tok}
	}

	decl := p.parseStatement()
	return &ast.ExportStmt{Token: tok, Decl: decl}
}
