package bytecode

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// compileClassDecl compiles a class declaration into a ClassProto plus
// the OpMakeClass site that assembles it, binding the result to a
// global (module scope) or local (nested scope) the same way
// storeDeclaration does for the other declaration forms.
func (c *Compiler) compileClassDecl(n *ast.ClassDecl, line int) {
	c.compileClassValue(n.Name, n.SuperClass, n.Fields, line)
	c.emitDecoratorMetadata(n.Decorators, n.Fields, line)
	if c.fn.parent == nil {
		c.emit(OpStoreGlobal, c.chunk.AddName(c.globalName(n.Name)), 0, line)
		return
	}
	idx := c.allocLocal(n.Name)
	c.emit(OpInitLocal, idx, 0, line)
}

// compileClassExpr compiles a class expression, leaving the assembled
// class value on the stack.
func (c *Compiler) compileClassExpr(n *ast.ClassExpr, line int) {
	c.compileClassValue(n.Name, n.SuperClass, n.Fields, line)
	c.emitDecoratorMetadata(n.Decorators, n.Fields, line)
}

// emitDecoratorMetadata applies decorators to the class value on top of
// the stack and records `design:type` reflection metadata for every
// decorated, annotated field (spec §6's decorator-metadata surface).
// The class value is left on the stack for the caller's store.
func (c *Compiler) emitDecoratorMetadata(decorators []ast.Expr, fields []*ast.ClassField, line int) {
	decorated := len(decorators) > 0
	for _, f := range fields {
		if len(f.Decorators) > 0 {
			decorated = true
		}
	}
	if !decorated {
		return
	}
	tmp := c.allocLocal("")
	c.emit(OpStoreLocal, tmp, 0, line)

	for _, dec := range decorators {
		c.compileExpr(dec)
		c.emit(OpLoadLocal, tmp, 0, line)
		c.emit(OpCall, 1, 0, line)
		c.emit(OpPop, 0, 0, line)
	}
	for _, f := range fields {
		if len(f.Decorators) == 0 {
			continue
		}
		for _, dec := range f.Decorators {
			c.compileExpr(dec)
			c.emit(OpLoadLocal, tmp, 0, line)
			c.emit(OpLoadConst, c.chunk.AddConstant(f.Name), 0, line)
			c.emit(OpCall, 2, 0, line)
			c.emit(OpPop, 0, 0, line)
		}
		if f.TypeAnn != nil {
			c.emit(OpLoadGlobal, c.chunk.AddName("Reflect"), 0, line)
			c.emit(OpGetProp, c.chunk.AddName("defineMetadata"), 0, line)
			c.emit(OpLoadConst, c.chunk.AddConstant("design:type"), 0, line)
			c.emit(OpLoadConst, c.chunk.AddConstant(f.TypeAnn.String()), 0, line)
			c.emit(OpLoadLocal, tmp, 0, line)
			c.emit(OpLoadConst, c.chunk.AddConstant(f.Name), 0, line)
			c.emit(OpCall, 4, 0, line)
			c.emit(OpPop, 0, 0, line)
		}
	}
	c.emit(OpLoadLocal, tmp, 0, line)
}

// compileClassValue builds this class's ClassProto (every member body
// compiled as its own FunctionProto against the *enclosing* funcState,
// exactly like a nested function literal, so methods close over outer
// scope the same way ordinary closures do) and emits the OpMakeClass
// that turns it into a runtime class value at the point of declaration.
func (c *Compiler) compileClassValue(name string, superClass ast.Expr, fields []*ast.ClassField, line int) {
	protoIndex := c.buildClassProto(name, superClass != nil, fields)
	if superClass != nil {
		c.compileExpr(superClass)
		c.emit(OpMakeClass, protoIndex, 1, line)
		return
	}
	c.emit(OpMakeClass, protoIndex, 0, line)
}

func (c *Compiler) buildClassProto(name string, hasSuper bool, fields []*ast.ClassField) int {
	proto := &ClassProto{Name: name, HasSuper: hasSuper, CtorProto: -1}
	c.chunk.ClassProtos = append(c.chunk.ClassProtos, proto)
	protoIndex := len(c.chunk.ClassProtos) - 1

	for _, f := range fields {
		switch {
		case f.Method != nil:
			kind := funcKindOf(f.Method.IsAsync, f.Method.IsGenerator)
			memberProto := c.compileMethodBody(f.Method.Name, f.Method.Params, f.Method.Body, kind)
			if f.Name == "constructor" && !f.Static {
				proto.CtorProto = memberProto
				continue
			}
			member := ClassMemberProto{Name: f.Name, Private: f.PrivateKey, ProtoIndex: memberProto}
			if f.Static {
				proto.StaticMethods = append(proto.StaticMethods, member)
			} else {
				proto.Methods = append(proto.Methods, member)
			}
		case f.Accessor != nil:
			memberProto := c.compileMethodBody(f.Name, f.Accessor.Params, f.Accessor.Body, FuncNormal)
			member := ClassMemberProto{Name: f.Name, Private: f.PrivateKey, ProtoIndex: memberProto}
			switch {
			case f.Static && f.Accessor.IsGet:
				proto.StaticGetters = append(proto.StaticGetters, member)
			case f.Static:
				proto.StaticSetters = append(proto.StaticSetters, member)
			case f.Accessor.IsGet:
				proto.Getters = append(proto.Getters, member)
			default:
				proto.Setters = append(proto.Setters, member)
			}
		default:
			initProto := -1
			if f.Initializer != nil {
				initProto = c.compileFieldInitializer(f.Initializer)
			}
			proto.Fields = append(proto.Fields, ClassFieldProto{
				Name:      f.Name,
				Private:   f.PrivateKey,
				Static:    f.Static,
				InitProto: initProto,
			})
		}
	}
	return protoIndex
}

// compileFieldInitializer wraps a field's initializer expression in a
// zero-arg method body (so it runs with `this` bound to the instance
// being constructed, able to read sibling fields already initialized).
func (c *Compiler) compileFieldInitializer(init ast.Expr) int {
	tok := lexer.Token{Pos: init.Pos()}
	body := &ast.BlockStmt{Token: tok, Statements: []ast.Stmt{&ast.ReturnStmt{Token: tok, Value: init}}}
	return c.compileMethodBody("", nil, body, FuncNormal)
}
