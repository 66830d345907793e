package checker

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/types"
)

func (c *Checker) checkStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.checkStmt(s)
	}
}

func (c *Checker) checkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case nil:
		return
	case *ast.BlockStmt:
		c.pushScope()
		c.checkStmts(n.Statements)
		c.popScope()
	case *ast.SequenceStmt:
		c.checkStmts(n.Statements)
	case *ast.ExpressionStmt:
		c.inferExpr(n.Expr)
	case *ast.VarDecl:
		c.checkVarDecl(n)
	case *ast.FunctionDecl:
		c.declareFunction(n.Function)
		c.checkFunctionBody(n.Function)
	case *ast.ClassDecl:
		c.checkClassBody(n)
	case *ast.EnumDecl:
		// member values/type already computed by hoistNamedTypes
	case *ast.NamespaceDecl:
		c.pushScope()
		c.checkStmts(n.Body)
		c.popScope()
	case *ast.IfStmt:
		c.checkCondition(n.Condition)
		c.checkStmt(n.Then)
		c.checkStmt(n.Alt)
	case *ast.ForStmt:
		c.pushScope()
		c.checkStmt(n.Init)
		if n.Condition != nil {
			c.checkCondition(n.Condition)
		}
		if n.Update != nil {
			c.inferExpr(n.Update)
		}
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
		c.popScope()
	case *ast.ForOfStmt:
		iterType := c.inferExpr(n.Iterable)
		c.pushScope()
		elem := elementTypeOf(iterType)
		if n.Pattern != nil {
			c.declarePatternAny(n.Pattern)
		} else {
			c.declare(n.Name, elem)
		}
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
		c.popScope()
	case *ast.ForInStmt:
		c.inferExpr(n.Object)
		c.pushScope()
		c.declare(n.Name, types.StringType)
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
		c.popScope()
	case *ast.WhileStmt:
		c.checkCondition(n.Condition)
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
	case *ast.DoWhileStmt:
		c.loopDepth++
		c.checkStmt(n.Body)
		c.loopDepth--
		c.checkCondition(n.Condition)
	case *ast.TryCatchStmt:
		c.checkStmt(n.Body)
		if n.Catch != nil {
			c.pushScope()
			if n.Catch.Param != "" {
				var t types.Type = types.AnyType
				if n.Catch.TypeAnn != nil {
					t = c.resolveType(n.Catch.TypeAnn)
				}
				c.declare(n.Catch.Param, t)
			}
			c.checkStmt(n.Catch.Body)
			c.popScope()
		}
		if n.Finally != nil {
			c.checkStmt(n.Finally)
		}
	case *ast.ThrowStmt:
		c.inferExpr(n.Value)
	case *ast.ReturnStmt:
		c.checkReturn(n)
	case *ast.BreakStmt:
		if c.loopDepth == 0 && n.Label == "" {
			c.errorf(n.Pos(), "'break' outside of a loop or switch")
		}
	case *ast.ContinueStmt:
		if c.loopDepth == 0 {
			c.errorf(n.Pos(), "'continue' outside of a loop")
		}
	case *ast.SwitchStmt:
		discType := c.inferExpr(n.Discriminant)
		c.pushScope()
		c.loopDepth++
		for _, cs := range n.Cases {
			if cs.Test != nil {
				testType := c.inferExpr(cs.Test)
				if !types.IsCompatible(discType, testType) && !types.IsCompatible(testType, discType) {
					c.errorf(cs.Test.Pos(), "this comparison appears to be unintentional because the types '%s' and '%s' have no overlap", discType.String(), testType.String())
				}
			}
			c.checkStmts(cs.Body)
		}
		c.loopDepth--
		c.popScope()
	case *ast.ImportStmt:
		if n.Default != "" {
			c.declare(n.Default, types.AnyType)
		}
		if n.Namespace != "" {
			c.declare(n.Namespace, types.AnyType)
		}
		for _, spec := range n.Specifiers {
			c.declare(spec.Local, types.AnyType)
		}
	case *ast.ImportRequireStmt:
		c.declare(n.Name, types.AnyType)
	case *ast.ExportStmt:
		if n.Decl != nil {
			c.checkStmt(n.Decl)
		}
		if n.DefaultExpr != nil {
			c.inferExpr(n.DefaultExpr)
		}
	case *ast.UsingStmt:
		t := c.inferExpr(n.Initializer)
		c.declare(n.Name, t)
	default:
		c.errorf(s.Pos(), "checker: unhandled statement %T", s)
	}
}

func (c *Checker) checkCondition(e ast.Expr) {
	c.inferExpr(e)
}

func (c *Checker) checkVarDecl(n *ast.VarDecl) {
	var initType types.Type = types.UndefinedType
	if n.Initializer != nil {
		initType = c.inferExpr(n.Initializer)
	}
	if n.Pattern != nil {
		c.declarePatternAny(n.Pattern)
		return
	}
	declared := initType
	if n.TypeAnn != nil {
		declared = c.resolveType(n.TypeAnn)
		if n.Initializer != nil {
			c.checkAssignable(n.Initializer.Pos(), declared, initType, "initializer")
		}
	}
	c.declare(n.Name, declared)
}

// declarePatternAny declares every name bound by a destructuring
// pattern as Any; structural destructuring-type inference is out of
// scope for the checker (the emitter still lowers the pattern itself).
func (c *Checker) declarePatternAny(pattern ast.Expr) {
	switch p := pattern.(type) {
	case *ast.Identifier:
		c.declare(p.Name, types.AnyType)
	case *ast.ArrayLiteral:
		for _, el := range p.Elements {
			if el == nil {
				continue
			}
			if spread, ok := el.(*ast.SpreadExpr); ok {
				c.declarePatternAny(spread.Value)
				continue
			}
			c.declarePatternAny(el)
		}
	case *ast.ObjectLiteral:
		for _, prop := range p.Properties {
			c.declarePatternAny(prop.Value)
		}
	case *ast.Assign:
		c.declarePatternAny(p.Target)
	}
}

func (c *Checker) declareFunction(f *ast.FunctionLiteral) {
	ft := c.functionTypeFromParams(f.Params, f.ReturnType)
	if f.IsAsync {
		// §4.6: an async function's declared return type names the
		// resolved value, not a Promise wrapper (Promise<T> already
		// collapses to T in resolveTypeRef), so ft.Return is used as-is.
	}
	c.declare(f.Name, ft)
}

func (c *Checker) checkFunctionBody(f *ast.FunctionLiteral) {
	ft := c.functionTypeFromParams(f.Params, f.ReturnType)
	c.pushScope()
	for i, p := range f.Params {
		if p.Pattern != nil {
			c.declarePatternAny(p.Pattern)
			continue
		}
		c.declare(p.Name, ft.Params[i])
		if p.ParamDefault != nil {
			defType := c.inferExpr(p.ParamDefault)
			c.checkAssignable(p.ParamDefault.Pos(), ft.Params[i], defType, "default value")
		}
	}
	retType := ft.Return
	if f.ReturnType == nil {
		retType = types.AnyType
	}
	c.returnStack = append(c.returnStack, retType)
	c.checkStmt(f.Body)
	c.returnStack = c.returnStack[:len(c.returnStack)-1]
	c.popScope()
}

func (c *Checker) checkReturn(n *ast.ReturnStmt) {
	var valType types.Type = types.UndefinedType
	if n.Value != nil {
		valType = c.inferExpr(n.Value)
	}
	ret, ok := c.currentReturnType()
	if !ok {
		return
	}
	c.checkAssignable(n.Pos(), ret, valType, "return value")
}

func (c *Checker) checkClassBody(n *ast.ClassDecl) {
	ct := c.classTypeOf(n.Name)
	var instanceType types.Type = types.AnyType
	if ct != nil {
		instanceType = types.NewInstanceType(ct)
	}
	c.thisStack = append(c.thisStack, instanceType)
	c.classStack = append(c.classStack, ct)
	if len(n.TypeParams) > 0 {
		c.pushTypeParams(n.TypeParams)
		defer c.popTypeParams()
	}
	c.pushScope()
	for _, f := range n.Fields {
		switch {
		case f.Method != nil:
			if f.Name == "constructor" && !f.Static {
				c.ctorDepth++
				c.checkFunctionBody(f.Method)
				c.ctorDepth--
				continue
			}
			c.checkFunctionBody(f.Method)
		case f.Accessor != nil:
			var retType types.Type = types.AnyType
			if f.Accessor.IsGet && f.Accessor.ReturnType != nil {
				retType = c.resolveType(f.Accessor.ReturnType)
			}
			c.returnStack = append(c.returnStack, retType)
			c.pushScope()
			for _, p := range f.Accessor.Params {
				var t types.Type = types.AnyType
				if p.TypeAnn != nil {
					t = c.resolveType(p.TypeAnn)
				}
				c.declare(p.Name, t)
			}
			c.checkStmt(f.Accessor.Body)
			c.popScope()
			c.returnStack = c.returnStack[:len(c.returnStack)-1]
		default:
			if f.Initializer != nil {
				initType := c.inferExpr(f.Initializer)
				if f.TypeAnn != nil {
					c.checkAssignable(f.Initializer.Pos(), c.resolveType(f.TypeAnn), initType, "field initializer")
				}
			}
		}
	}
	c.popScope()
	c.classStack = c.classStack[:len(c.classStack)-1]
	c.thisStack = c.thisStack[:len(c.thisStack)-1]
}

// elementTypeOf returns the iterated element type of a `for...of`
// target: Array<T> yields T, Set<T> yields T, Map<K,V> yields
// [K, V] tuples, everything else yields Any.
func elementTypeOf(t types.Type) types.Type {
	switch v := t.(type) {
	case *types.ArrayType:
		return v.Elem
	case *types.SetType:
		return v.Elem
	case *types.MapType:
		return &types.TupleType{Elems: []types.Type{v.Key, v.Value}}
	default:
		return types.AnyType
	}
}
