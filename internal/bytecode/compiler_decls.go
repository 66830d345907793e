package bytecode

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/runtime"
)

// compileEnumDecl builds the enum's runtime object: forward name→value
// entries resolved at compile time where possible (auto-increment from
// the last numeric member, spec §4.8), plus the numeric reverse mapping
// table keyed by the stringified value.
func (c *Compiler) compileEnumDecl(s *ast.EnumDecl, line int) {
	c.emit(OpNewObject, 0, 0, line)
	auto := float64(0)
	autoValid := true
	for _, m := range s.Members {
		var numeric float64
		isNumeric := false
		c.emit(OpDup, 0, 0, line)
		switch v := m.Value.(type) {
		case nil:
			if !autoValid {
				c.failLine(line, "enum member "+m.Name+" must have an initializer")
				return
			}
			numeric = auto
			isNumeric = true
			auto++
			c.emit(OpLoadConst, c.chunk.AddConstant(numeric), 0, line)
		case *ast.NumberLiteral:
			numeric = v.Value
			isNumeric = true
			auto = v.Value + 1
			autoValid = true
			c.emit(OpLoadConst, c.chunk.AddConstant(v.Value), 0, line)
		case *ast.StringLiteral:
			autoValid = false
			c.emit(OpLoadConst, c.chunk.AddConstant(v.Value), 0, line)
		default:
			autoValid = false
			c.compileExpr(m.Value)
		}
		c.emit(OpSetProp, c.chunk.AddName(m.Name), 0, line)
		if isNumeric {
			c.emit(OpDup, 0, 0, line)
			c.emit(OpLoadConst, c.chunk.AddConstant(runtime.FormatNumber(numeric)), 0, line)
			c.emit(OpLoadConst, c.chunk.AddConstant(m.Name), 0, line)
			c.emit(OpSetIndex, 0, 0, line)
		}
	}
	c.storeDeclaration(s.Name, line)
}

// storeDeclaration binds the value on the stack to a declaration name:
// a (module-prefixed) global at module scope, a fresh local otherwise.
func (c *Compiler) storeDeclaration(name string, line int) {
	if c.fn.parent == nil {
		c.emit(OpStoreGlobal, c.chunk.AddName(c.globalName(name)), 0, line)
		return
	}
	idx := c.allocLocal(name)
	c.emit(OpInitLocal, idx, 0, line)
}

// compileNamespaceDecl lowers `namespace N { ... }` to an immediately
// invoked function whose body is the namespace block and whose return
// value is an object of the block's declarations — so sibling members
// reference each other as ordinary locals/closures, and outside code
// reads them as properties of N.
func (c *Compiler) compileNamespaceDecl(s *ast.NamespaceDecl, line int) {
	tok := s.Token
	body := make([]ast.Stmt, 0, len(s.Body)+1)
	var members []string
	for _, stmt := range s.Body {
		if ex, ok := stmt.(*ast.ExportStmt); ok && ex.Decl != nil {
			stmt = ex.Decl
		}
		body = append(body, stmt)
		members = append(members, declaredNames(stmt)...)
	}
	props := make([]*ast.ObjectProperty, 0, len(members))
	for _, name := range members {
		props = append(props, &ast.ObjectProperty{
			Token: tok,
			Key:   &ast.IdentifierKey{Token: tok, Name: name},
			Value: &ast.Identifier{Token: tok, Name: name},
		})
	}
	body = append(body, &ast.ReturnStmt{
		Token: tok,
		Value: &ast.ObjectLiteral{Token: tok, Properties: props},
	})
	fn := &ast.FunctionLiteral{
		Token: tok,
		Name:  "",
		Body:  &ast.BlockStmt{Token: tok, Statements: body},
	}
	c.compileFunctionLiteral(fn, line)
	c.emit(OpCall, 0, 0, line)
	c.storeDeclaration(s.Name, line)
}
