package parser

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func (p *Parser) parseStatement() ast.Stmt {
	switch p.curToken.Type {
	case lexer.CONST:
		if p.peekIs(lexer.ENUM) {
			return p.parseEnumDecl()
		}
		return p.parseVarDecl()
	case lexer.VAR, lexer.LET:
		return p.parseVarDecl()
	case lexer.FUNCTION:
		return p.parseFunctionDecl()
	case lexer.ASYNC:
		if p.peekIs(lexer.FUNCTION) {
			return p.parseFunctionDecl()
		}
		return p.parseExpressionStatement()
	case lexer.CLASS:
		return p.parseClassDecl()
	case lexer.ABSTRACT:
		return p.parseClassDecl()
	case lexer.ENUM:
		return p.parseEnumDecl()
	case lexer.NAMESPACE, lexer.MODULE:
		return p.parseNamespaceDecl()
	case lexer.IF:
		return p.parseIfStmt()
	case lexer.FOR:
		return p.parseForStmt()
	case lexer.WHILE:
		return p.parseWhileStmt()
	case lexer.DO:
		return p.parseDoWhileStmt()
	case lexer.TRY:
		return p.parseTryCatchStmt()
	case lexer.THROW:
		return p.parseThrowStmt()
	case lexer.RETURN:
		return p.parseReturnStmt()
	case lexer.BREAK:
		return p.parseBreakStmt()
	case lexer.CONTINUE:
		return p.parseContinueStmt()
	case lexer.SWITCH:
		return p.parseSwitchStmt()
	case lexer.IMPORT:
		return p.parseImportStmt()
	case lexer.EXPORT:
		return p.parseExportStmt()
	case lexer.USING:
		return p.parseUsingStmt()
	case lexer.AWAIT:
		if p.peekIs(lexer.USING) {
			return p.parseUsingStmt()
		}
		return p.parseExpressionStatement()
	case lexer.LBRACE:
		return p.parseBlockStmt()
	case lexer.SEMICOLON:
		tok := p.curToken
		p.next()
		return &ast.ExpressionStmt{Token: tok, Expr: nil}
	case lexer.INTERFACE:
		p.skipInterfaceDecl()
		return &ast.ExpressionStmt{Token: p.curToken}
	case lexer.TYPE:
		p.skipTypeAliasDecl()
		return &ast.ExpressionStmt{Token: p.curToken}
	case lexer.DECLARE:
		p.next()
		return p.parseStatement()
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseBlockStmt() *ast.BlockStmt {
	tok := p.expect(lexer.LBRACE)
	block := &ast.BlockStmt{Token: tok}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		block.Statements = append(block.Statements, p.parseStatement())
	}
	p.expect(lexer.RBRACE)
	return block
}

func (p *Parser) consumeSemicolon() {
	if p.curIs(lexer.SEMICOLON) {
		p.next()
	}
}

func (p *Parser) parseExpressionStatement() ast.Stmt {
	tok := p.curToken
	expr := p.parseExpression(LOWEST)
	p.consumeSemicolon()
	return &ast.ExpressionStmt{Token: tok, Expr: expr}
}

func varKindFor(tt lexer.TokenType) ast.VarKind {
	switch tt {
	case lexer.CONST:
		return ast.VarConst
	case lexer.LET:
		return ast.VarLet
	default:
		return ast.VarVar
	}
}

func (p *Parser) parseVarDecl() ast.Stmt {
	tok := p.curToken
	kind := varKindFor(tok.Type)
	p.next()

	first := p.parseOneVarDeclarator(tok, kind)
	if !p.curIs(lexer.COMMA) {
		p.consumeSemicolon()
		return first
	}

	seq := &ast.SequenceStmt{Token: tok, Statements: []ast.Stmt{first}}
	for p.curIs(lexer.COMMA) {
		p.next()
		seq.Statements = append(seq.Statements, p.parseOneVarDeclarator(p.curToken, kind))
	}
	p.consumeSemicolon()
	return seq
}

func (p *Parser) parseOneVarDeclarator(tok lexer.Token, kind ast.VarKind) *ast.VarDecl {
	decl := &ast.VarDecl{Token: tok, Kind: kind}
	if p.curIs(lexer.LBRACE) || p.curIs(lexer.LBRACKET) {
		decl.Pattern = p.parsePrimary()
	} else {
		decl.Name = p.expect(lexer.IDENT).Literal
	}
	if p.curIs(lexer.COLON) {
		p.next()
		decl.TypeAnn = p.parseTypeExpr()
	}
	if p.curIs(lexer.ASSIGN) {
		p.next()
		decl.Initializer = p.parseExpression(ASSIGN)
	}
	return decl
}

func (p *Parser) parseFunctionDecl() ast.Stmt {
	tok := p.curToken
	fn := p.parseFunctionLiteral()
	return &ast.FunctionDecl{Token: tok, Function: fn}
}

func (p *Parser) parseFunctionLiteral() *ast.FunctionLiteral {
	tok := p.curToken
	fn := &ast.FunctionLiteral{Token: tok}
	if p.curIs(lexer.ASYNC) {
		fn.IsAsync = true
		p.next()
	}
	p.expect(lexer.FUNCTION)
	if p.curIs(lexer.STAR) {
		fn.IsGenerator = true
		p.next()
	}
	if p.curIs(lexer.IDENT) {
		fn.Name = p.curToken.Literal
		p.next()
	}
	fn.TypeParams = p.parseOptionalTypeParams()
	fn.Params = p.parseParamList()
	if p.curIs(lexer.COLON) {
		p.next()
		fn.ReturnType = p.parseTypeExpr()
	}
	fn.Body = p.parseBlockStmt()
	return fn
}

func (p *Parser) parseOptionalTypeParams() []string {
	if !p.curIs(lexer.LT) {
		return nil
	}
	p.next()
	var names []string
	for !p.curIs(lexer.GT) {
		names = append(names, p.expect(lexer.IDENT).Literal)
		if p.curIs(lexer.EXTENDS) {
			p.next()
			p.parseTypeExpr()
		}
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.GT)
	return names
}

func (p *Parser) parseParamList() []*ast.Parameter {
	p.expect(lexer.LPAREN)
	var params []*ast.Parameter
	for !p.curIs(lexer.RPAREN) {
		params = append(params, p.parseParameter())
		if p.curIs(lexer.COMMA) {
			p.next()
		}
	}
	p.expect(lexer.RPAREN)
	return params
}

func (p *Parser) parseParameter() *ast.Parameter {
	tok := p.curToken
	param := &ast.Parameter{Token: tok}

	// Access modifiers on constructor parameters (parameter properties)
	// are accepted and skipped; they are not recorded on the Parameter,
	// and no class field is created from them.
	for p.curIs(lexer.PUBLIC) || p.curIs(lexer.PRIVATE) || p.curIs(lexer.PROTECTED) || p.curIs(lexer.READONLY) {
		p.next()
	}

	if p.curIs(lexer.ELLIPSIS) {
		param.Rest = true
		p.next()
	}

	if p.curIs(lexer.LBRACE) || p.curIs(lexer.LBRACKET) {
		param.Pattern = p.parsePrimary()
	} else {
		param.Name = p.expect(lexer.IDENT).Literal
	}

	if p.curIs(lexer.QUESTION) {
		param.Optional = true
		p.next()
	}
	if p.curIs(lexer.COLON) {
		p.next()
		param.TypeAnn = p.parseTypeExpr()
	}
	if p.curIs(lexer.ASSIGN) {
		p.next()
		param.ParamDefault = p.parseExpression(ASSIGN)
	}
	return param
}

func (p *Parser) parseIfStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	p.expect(lexer.LPAREN)
	cond := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN)
	then := p.parseStatement()
	stmt := &ast.IfStmt{Token: tok, Condition: cond, Then: then}
	if p.curIs(lexer.ELSE) {
		p.next()
		stmt.Alt = p.parseStatement()
	}
	return stmt
}

func (p *Parser) parseWhileStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	p.expect(lexer.LPAREN)
	cond := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.WhileStmt{Token: tok, Condition: cond, Body: body}
}

func (p *Parser) parseDoWhileStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	body := p.parseStatement()
	p.expect(lexer.WHILE)
	p.expect(lexer.LPAREN)
	cond := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN)
	p.consumeSemicolon()
	return &ast.DoWhileStmt{Token: tok, Body: body, Condition: cond}
}

// parseForStmt dispatches to the classic, for-of, or for-in form after
// parsing the (optional) declaration that introduces the loop variable.
func (p *Parser) parseForStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	isAwait := false
	if p.curIs(lexer.AWAIT) {
		isAwait = true
		p.next()
	}
	p.expect(lexer.LPAREN)

	if p.curIs(lexer.SEMICOLON) {
		return p.finishClassicFor(tok, nil)
	}

	kindTok := p.curToken
	hasDeclKind := p.curIs(lexer.VAR) || p.curIs(lexer.LET) || p.curIs(lexer.CONST)
	if hasDeclKind {
		kind := varKindFor(kindTok.Type)
		declTok := p.curToken
		p.next()

		var pattern ast.Expr
		var name string
		if p.curIs(lexer.LBRACE) || p.curIs(lexer.LBRACKET) {
			pattern = p.parsePrimary()
		} else {
			name = p.expect(lexer.IDENT).Literal
		}

		if p.curIs(lexer.OF) {
			p.next()
			iterable := p.parseExpression(LOWEST)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForOfStmt{Token: tok, Kind: kind, Name: name, Pattern: pattern, Iterable: iterable, Body: body, IsAwait: isAwait}
		}
		if p.curIs(lexer.IN) {
			p.next()
			object := p.parseExpression(LOWEST)
			p.expect(lexer.RPAREN)
			body := p.parseStatement()
			return &ast.ForInStmt{Token: tok, Kind: kind, Name: name, Object: object, Body: body}
		}

		decl := &ast.VarDecl{Token: declTok, Kind: kind, Name: name, Pattern: pattern}
		if p.curIs(lexer.COLON) {
			p.next()
			decl.TypeAnn = p.parseTypeExpr()
		}
		if p.curIs(lexer.ASSIGN) {
			p.next()
			decl.Initializer = p.parseExpression(ASSIGN)
		}
		return p.finishClassicFor(tok, decl)
	}

	initExpr := p.parseExpression(LOWEST)
	if p.curIs(lexer.OF) || p.curIs(lexer.IN) {
		p.fail("destructuring for-of/for-in target must use var/let/const in this subset")
	}
	init := &ast.ExpressionStmt{Token: tok, Expr: initExpr}
	return p.finishClassicFor(tok, init)
}

func (p *Parser) finishClassicFor(tok lexer.Token, init ast.Stmt) ast.Stmt {
	p.expect(lexer.SEMICOLON)
	var cond ast.Expr
	if !p.curIs(lexer.SEMICOLON) {
		cond = p.parseExpression(LOWEST)
	}
	p.expect(lexer.SEMICOLON)
	var update ast.Expr
	if !p.curIs(lexer.RPAREN) {
		update = p.parseExpression(LOWEST)
	}
	p.expect(lexer.RPAREN)
	body := p.parseStatement()
	return &ast.ForStmt{Token: tok, Init: init, Condition: cond, Update: update, Body: body}
}

func (p *Parser) parseTryCatchStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	stmt := &ast.TryCatchStmt{Token: tok, Body: p.parseBlockStmt()}
	if p.curIs(lexer.CATCH) {
		catchTok := p.curToken
		p.next()
		clause := &ast.CatchClause{Token: catchTok}
		if p.curIs(lexer.LPAREN) {
			p.next()
			clause.Param = p.expect(lexer.IDENT).Literal
			if p.curIs(lexer.COLON) {
				p.next()
				clause.TypeAnn = p.parseTypeExpr()
			}
			p.expect(lexer.RPAREN)
		}
		clause.Body = p.parseBlockStmt()
		stmt.Catch = clause
	}
	if p.curIs(lexer.FINALLY) {
		p.next()
		stmt.Finally = p.parseBlockStmt()
	}
	return stmt
}

func (p *Parser) parseThrowStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	value := p.parseExpression(LOWEST)
	p.consumeSemicolon()
	return &ast.ThrowStmt{Token: tok, Value: value}
}

func (p *Parser) parseReturnStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	var value ast.Expr
	if !p.curIs(lexer.SEMICOLON) && !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		value = p.parseExpression(LOWEST)
	}
	p.consumeSemicolon()
	return &ast.ReturnStmt{Token: tok, Value: value}
}

func (p *Parser) parseBreakStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	label := ""
	if p.curIs(lexer.IDENT) {
		label = p.curToken.Literal
		p.next()
	}
	p.consumeSemicolon()
	return &ast.BreakStmt{Token: tok, Label: label}
}

func (p *Parser) parseContinueStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	label := ""
	if p.curIs(lexer.IDENT) {
		label = p.curToken.Literal
		p.next()
	}
	p.consumeSemicolon()
	return &ast.ContinueStmt{Token: tok, Label: label}
}

func (p *Parser) parseSwitchStmt() ast.Stmt {
	tok := p.curToken
	p.next()
	p.expect(lexer.LPAREN)
	disc := p.parseExpression(LOWEST)
	p.expect(lexer.RPAREN)
	p.expect(lexer.LBRACE)

	stmt := &ast.SwitchStmt{Token: tok, Discriminant: disc}
	for !p.curIs(lexer.RBRACE) && !p.curIs(lexer.EOF) {
		c := &ast.SwitchCase{}
		if p.curIs(lexer.CASE) {
			p.next()
			c.Test = p.parseExpression(LOWEST)
		} else {
			p.expect(lexer.DEFAULT)
		}
		p.expect(lexer.COLON)
		for !p.curIs(lexer.CASE) && !p.curIs(lexer.DEFAULT) && !p.curIs(lexer.RBRACE) {
			c.Body = append(c.Body, p.parseStatement())
		}
		stmt.Cases = append(stmt.Cases, c)
	}
	p.expect(lexer.RBRACE)
	return stmt
}

func (p *Parser) parseUsingStmt() ast.Stmt {
	tok := p.curToken
	isAwait := false
	if p.curIs(lexer.AWAIT) {
		isAwait = true
		p.next()
	}
	p.expect(lexer.USING)
	name := p.expect(lexer.IDENT).Literal
	p.expect(lexer.ASSIGN)
	init := p.parseExpression(ASSIGN)
	p.consumeSemicolon()
	return &ast.UsingStmt{Token: tok, Name: name, Initializer: init, IsAwait: isAwait}
}

// skipInterfaceDecl / skipTypeAliasDecl: interface and type-alias
// declarations are consumed here without recording their contents;
// parseStatement leaves an empty ExpressionStmt (nil Expr) in their
// place. Consuming them keeps the token stream balanced.
func (p *Parser) skipInterfaceDecl() {
	p.next()
	p.expect(lexer.IDENT)
	p.parseOptionalTypeParams()
	if p.curIs(lexer.EXTENDS) {
		p.next()
		p.parseTypeExpr()
		for p.curIs(lexer.COMMA) {
			p.next()
			p.parseTypeExpr()
		}
	}
	p.skipBalancedBraces()
}

func (p *Parser) skipTypeAliasDecl() {
	p.next()
	p.expect(lexer.IDENT)
	p.parseOptionalTypeParams()
	p.expect(lexer.ASSIGN)
	p.parseTypeExpr()
	p.consumeSemicolon()
}

func (p *Parser) skipBalancedBraces() {
	p.expect(lexer.LBRACE)
	depth := 1
	for depth > 0 && !p.curIs(lexer.EOF) {
		if p.curIs(lexer.LBRACE) {
			depth++
		} else if p.curIs(lexer.RBRACE) {
			depth--
		}
		p.next()
	}
}
