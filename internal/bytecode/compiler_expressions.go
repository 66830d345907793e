package bytecode

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// failLine reports a code-emitter failure at the given source line (the
// compiler doesn't track file/source text itself — that context is
// attached by the stage that surfaces CompilerError to the user).
func (c *Compiler) failLine(line int, message string) {
	c.fail(cerrors.New(cerrors.Type, lexer.Position{Line: line}, message, "", ""))
}

// compileExpr emits the instructions that leave expr's value on top of
// the stack.
func (c *Compiler) compileExpr(expr ast.Expr) {
	line := expr.Pos().Line
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emit(OpLoadConst, c.chunk.AddConstant(e.Value), 0, line)
	case *ast.StringLiteral:
		c.emit(OpLoadConst, c.chunk.AddConstant(e.Value), 0, line)
	case *ast.BooleanLiteral:
		if e.Value {
			c.emit(OpLoadTrue, 0, 0, line)
		} else {
			c.emit(OpLoadFalse, 0, 0, line)
		}
	case *ast.NullLiteral:
		c.emit(OpLoadNull, 0, 0, line)
	case *ast.UndefinedLiteral:
		c.emit(OpLoadUndefined, 0, 0, line)
	case *ast.Identifier:
		c.compileLoadVariable(e.Name, line)
	case *ast.ThisExpr:
		c.compileLoadVariable("this", line)
	case *ast.TemplateLiteral:
		c.compileTemplateLiteral(e, line)
	case *ast.TaggedTemplateLiteral:
		c.compileTaggedTemplate(e, line)
	case *ast.ArrayLiteral:
		c.compileArrayLiteral(e, line)
	case *ast.ObjectLiteral:
		c.compileObjectLiteral(e, line)
	case *ast.RegexLiteral:
		c.emit(OpLoadGlobal, c.chunk.AddName("RegExp"), 0, line)
		c.emit(OpLoadConst, c.chunk.AddConstant(e.Pattern), 0, line)
		c.emit(OpLoadConst, c.chunk.AddConstant(e.Flags), 0, line)
		c.emit(OpCall, 2, 0, line)
	case *ast.BigIntLiteral:
		c.compileBigIntLiteral(e, line)
	case *ast.Binary:
		c.compileBinary(e, line)
	case *ast.Logical:
		c.compileLogical(e, line)
	case *ast.Unary:
		c.compileUnary(e, line)
	case *ast.CondExpr:
		c.compileConditional(e, line)
	case *ast.Assign:
		c.compileExpr(e.Value)
		c.emit(OpDup, 0, 0, line)
		c.compileStoreVariable(e.Target.Name, line)
	case *ast.CompoundAssign:
		// RHS first into place, then the operator, then the store —
		// re-evaluating the LHS after an intervening await is what this
		// ordering rules out (spec §4.8).
		c.compileExpr(e.Value)
		tmp := c.allocLocal("")
		c.emit(OpStoreLocal, tmp, 0, line)
		c.compileLoadVariable(e.Target.Name, line)
		c.emit(OpLoadLocal, tmp, 0, line)
		c.emitBinaryOp(e.Operator, line)
		c.emit(OpDup, 0, 0, line)
		c.compileStoreVariable(e.Target.Name, line)
	case *ast.LogicalAssign:
		c.compileLogicalAssign(e, line)
	case *ast.Get:
		c.compileGet(e, line)
	case *ast.Set:
		c.compileExpr(e.Object)
		c.compileExpr(e.Value)
		tmp := c.allocLocal("")
		c.emit(OpDup, 0, 0, line)
		c.emit(OpStoreLocal, tmp, 0, line)
		c.emit(OpSetProp, c.chunk.AddName(e.Name), 0, line)
		c.emit(OpLoadLocal, tmp, 0, line)
	case *ast.CompoundSet:
		c.compileCompoundSet(e, line)
	case *ast.LogicalSet:
		c.compileLogicalSet(e, line)
	case *ast.GetIndex:
		c.compileGetIndex(e, line)
	case *ast.SetIndex:
		c.compileExpr(e.Object)
		c.compileExpr(e.Index)
		c.compileExpr(e.Value)
		tmp := c.allocLocal("")
		c.emit(OpDup, 0, 0, line)
		c.emit(OpStoreLocal, tmp, 0, line)
		c.emit(OpSetIndex, 0, 0, line)
		c.emit(OpLoadLocal, tmp, 0, line)
	case *ast.CompoundSetIndex:
		c.compileCompoundSetIndex(e, line)
	case *ast.LogicalSetIndex:
		c.compileLogicalSetIndex(e, line)
	case *ast.GetPrivate:
		c.compileExpr(e.Object)
		c.emit(OpGetPrivate, c.chunk.AddName(e.Name), 0, line)
	case *ast.SetPrivate:
		c.compileExpr(e.Object)
		c.compileExpr(e.Value)
		tmp := c.allocLocal("")
		c.emit(OpDup, 0, 0, line)
		c.emit(OpStoreLocal, tmp, 0, line)
		c.emit(OpSetPrivate, c.chunk.AddName(e.Name), 0, line)
		c.emit(OpLoadLocal, tmp, 0, line)
	case *ast.CallPrivate:
		c.compileExpr(e.Object)
		for _, a := range e.Args {
			c.compileExpr(a)
		}
		c.emit(OpCallPrivate, len(e.Args), c.chunk.AddName(e.Name), line)
	case *ast.Call:
		c.compileCall(e, line)
	case *ast.New:
		c.compileNew(e, line)
	case *ast.PrefixIncrement:
		c.compilePrefixIncrement(e, line)
	case *ast.PostfixIncrement:
		c.compilePostfixIncrement(e, line)
	case *ast.FunctionLiteral:
		c.compileFunctionLiteral(e, line)
	case *ast.ArrowFunction:
		c.compileArrowFunction(e, line)
	case *ast.ClassExpr:
		c.compileClassExpr(e, line)
	case *ast.Await:
		c.compileExpr(e.Value)
		c.emit(OpAwait, c.fn.allocSuspendState(), 0, line)
	case *ast.Yield:
		if e.Value != nil {
			c.compileExpr(e.Value)
		} else {
			c.emit(OpLoadUndefined, 0, 0, line)
		}
		c.emit(OpYield, c.fn.allocSuspendState(), 0, line)
	case *ast.YieldStar:
		c.compileExpr(e.Value)
		c.emit(OpYieldStar, c.fn.allocSuspendState(), 0, line)
	case *ast.NewTarget:
		c.emit(OpLoadNewTarget, 0, 0, line)
	case *ast.ImportMeta:
		c.compileImportMeta(line)
	case *ast.DynamicImport:
		c.emit(OpLoadGlobal, c.chunk.AddName("__import"), 0, line)
		c.compileExpr(e.Specifier)
		c.emit(OpCall, 1, 0, line)
	case *ast.SpreadExpr:
		// A bare spread only appears inside literals/calls, which
		// handle it structurally; reaching here means an argument
		// position already flattened it.
		c.compileExpr(e.Value)
	default:
		c.failLine(expr.Pos().Line, "unsupported expression form in code emitter: "+expr.String())
		c.emit(OpLoadUndefined, 0, 0, line)
	}
}

func propertyKeyName(key ast.PropertyKey) string {
	switch k := key.(type) {
	case *ast.IdentifierKey:
		return k.Name
	default:
		return key.String()
	}
}

func (c *Compiler) compileTemplateLiteral(t *ast.TemplateLiteral, line int) {
	c.emit(OpLoadConst, c.chunk.AddConstant(t.Quasis[0]), 0, line)
	for i, expr := range t.Exprs {
		c.compileExpr(expr)
		c.emit(OpAdd, 0, 0, line)
		c.emit(OpLoadConst, c.chunk.AddConstant(t.Quasis[i+1]), 0, line)
		c.emit(OpAdd, 0, 0, line)
	}
}

func (c *Compiler) compileBinary(b *ast.Binary, line int) {
	c.compileExpr(b.Left)
	c.compileExpr(b.Right)
	c.emitBinaryOp(b.Operator, line)
}

func (c *Compiler) emitBinaryOp(op string, line int) {
	switch op {
	case "+":
		c.emit(OpAdd, 0, 0, line)
	case "-":
		c.emit(OpSub, 0, 0, line)
	case "*":
		c.emit(OpMul, 0, 0, line)
	case "/":
		c.emit(OpDiv, 0, 0, line)
	case "%":
		c.emit(OpMod, 0, 0, line)
	case "**":
		c.emit(OpPow, 0, 0, line)
	case "&":
		c.emit(OpBitAnd, 0, 0, line)
	case "|":
		c.emit(OpBitOr, 0, 0, line)
	case "^":
		c.emit(OpBitXor, 0, 0, line)
	case "<<":
		c.emit(OpShl, 0, 0, line)
	case ">>":
		c.emit(OpShr, 0, 0, line)
	case ">>>":
		c.emit(OpUShr, 0, 0, line)
	case "==":
		c.emit(OpEq, 0, 0, line)
	case "===":
		c.emit(OpStrictEq, 0, 0, line)
	case "!=":
		c.emit(OpNotEq, 0, 0, line)
	case "!==":
		c.emit(OpStrictNotEq, 0, 0, line)
	case "<":
		c.emit(OpLt, 0, 0, line)
	case "<=":
		c.emit(OpLe, 0, 0, line)
	case ">":
		c.emit(OpGt, 0, 0, line)
	case ">=":
		c.emit(OpGe, 0, 0, line)
	case "instanceof":
		c.emit(OpInstanceOf, 0, 0, line)
	case "in":
		c.emit(OpIn, 0, 0, line)
	default:
		c.failLine(line, "unsupported binary operator: "+op)
	}
}

func (c *Compiler) compileLogical(l *ast.Logical, line int) {
	c.compileExpr(l.Left)
	switch l.Operator {
	case "&&":
		jmp := c.emit(OpJumpIfFalse, 0, 0, line)
		c.emit(OpPop, 0, 0, line)
		c.compileExpr(l.Right)
		c.patchJump(jmp, c.here())
	case "||":
		jmp := c.emit(OpJumpIfTrue, 0, 0, line)
		c.emit(OpPop, 0, 0, line)
		c.compileExpr(l.Right)
		c.patchJump(jmp, c.here())
	case "??":
		jmp := c.emit(OpJumpIfNullish, 0, 0, line)
		skip := c.emit(OpJump, 0, 0, line)
		c.patchJump(jmp, c.here())
		c.emit(OpPop, 0, 0, line)
		c.compileExpr(l.Right)
		end := c.emit(OpJump, 0, 0, line)
		c.patchJump(skip, c.here())
		c.patchJump(end, c.here())
	default:
		c.failLine(line, "unsupported logical operator: "+l.Operator)
	}
}

func (c *Compiler) compileUnary(u *ast.Unary, line int) {
	switch u.Operator {
	case "typeof":
		c.compileExpr(u.Right)
		c.emit(OpTypeOf, 0, 0, line)
	case "delete":
		c.compileDelete(u.Right, line)
	case "void":
		c.compileExpr(u.Right)
		c.emit(OpPop, 0, 0, line)
		c.emit(OpLoadUndefined, 0, 0, line)
	default:
		c.compileExpr(u.Right)
		switch u.Operator {
		case "-":
			c.emit(OpNeg, 0, 0, line)
		case "!":
			c.emit(OpNot, 0, 0, line)
		case "~":
			c.emit(OpBitNot, 0, 0, line)
		case "+":
			// Unary plus is ToNumber: x - 0 goes through the numeric
			// path without the string-concat risk OpAdd carries.
			c.emit(OpLoadConst, c.chunk.AddConstant(float64(0)), 0, line)
			c.emit(OpSub, 0, 0, line)
		default:
			c.failLine(line, "unsupported unary operator: "+u.Operator)
		}
	}
}

// compileDelete removes a property (`delete obj.x` / `delete obj[k]`),
// leaving `true` on the stack; any other operand just evaluates.
func (c *Compiler) compileDelete(target ast.Expr, line int) {
	switch t := target.(type) {
	case *ast.Get:
		c.compileExpr(t.Object)
		c.emit(OpDeletePropKeep, c.chunk.AddName(t.Name), 0, line)
		c.emit(OpPop, 0, 0, line)
		c.emit(OpLoadTrue, 0, 0, line)
	case *ast.GetIndex:
		// Deleting a computed key stringifies the index at runtime;
		// OpDeleteIndexKeep pops the key and leaves the receiver.
		c.compileExpr(t.Object)
		c.compileExpr(t.Index)
		c.emit(OpDeleteIndexKeep, 0, 0, line)
		c.emit(OpPop, 0, 0, line)
		c.emit(OpLoadTrue, 0, 0, line)
	default:
		c.compileExpr(target)
		c.emit(OpPop, 0, 0, line)
		c.emit(OpLoadTrue, 0, 0, line)
	}
}

func (c *Compiler) compileConditional(cond *ast.CondExpr, line int) {
	c.compileExpr(cond.Condition)
	elseJump := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(cond.Then)
	endJump := c.emit(OpJump, 0, 0, line)
	c.patchJump(elseJump, c.here())
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(cond.Alt)
	c.patchJump(endJump, c.here())
}

func (c *Compiler) compilePrefixIncrement(p *ast.PrefixIncrement, line int) {
	c.compileIncrementTarget(p.Target, p.Operator, line, true)
}

func (c *Compiler) compilePostfixIncrement(p *ast.PostfixIncrement, line int) {
	c.compileIncrementTarget(p.Target, p.Operator, line, false)
}

// compileIncrementTarget reads target, applies +1/-1, writes it back, and
// leaves either the new value (prefix) or the old value (postfix) on the
// stack. Member targets (`this.x++`, `arr[i]++`) load through a temp
// local so the receiver is only evaluated once.
func (c *Compiler) compileIncrementTarget(target ast.Expr, operator string, line int, prefix bool) {
	step := func() {
		c.emit(OpLoadConst, c.chunk.AddConstant(float64(1)), 0, line)
		if operator == "--" {
			c.emit(OpSub, 0, 0, line)
		} else {
			c.emit(OpAdd, 0, 0, line)
		}
	}
	switch t := target.(type) {
	case *ast.Identifier:
		c.compileLoadVariable(t.Name, line)
		if prefix {
			step()
			c.emit(OpDup, 0, 0, line)
		} else {
			c.emit(OpDup, 0, 0, line)
			step()
		}
		c.compileStoreVariable(t.Name, line)
		if !prefix {
			c.emit(OpPop, 0, 0, line)
		}
	case *ast.Get:
		c.compileExpr(t.Object)
		recv := c.allocLocal("")
		c.emit(OpDup, 0, 0, line)
		c.emit(OpStoreLocal, recv, 0, line)
		c.emit(OpGetProp, c.chunk.AddName(t.Name), 0, line)
		result := c.allocLocal("")
		if prefix {
			step()
			c.emit(OpDup, 0, 0, line)
			c.emit(OpStoreLocal, result, 0, line)
		} else {
			c.emit(OpDup, 0, 0, line)
			c.emit(OpStoreLocal, result, 0, line)
			step()
		}
		newVal := c.allocLocal("")
		c.emit(OpStoreLocal, newVal, 0, line)
		c.emit(OpLoadLocal, recv, 0, line)
		c.emit(OpLoadLocal, newVal, 0, line)
		c.emit(OpSetProp, c.chunk.AddName(t.Name), 0, line)
		c.emit(OpLoadLocal, result, 0, line)
	case *ast.GetIndex:
		c.compileExpr(t.Object)
		recv := c.allocLocal("")
		c.emit(OpDup, 0, 0, line)
		c.emit(OpStoreLocal, recv, 0, line)
		c.compileExpr(t.Index)
		idx := c.allocLocal("")
		c.emit(OpDup, 0, 0, line)
		c.emit(OpStoreLocal, idx, 0, line)
		c.emit(OpGetIndex, 0, 0, line)
		result := c.allocLocal("")
		if prefix {
			step()
			c.emit(OpDup, 0, 0, line)
			c.emit(OpStoreLocal, result, 0, line)
		} else {
			c.emit(OpDup, 0, 0, line)
			c.emit(OpStoreLocal, result, 0, line)
			step()
		}
		newVal := c.allocLocal("")
		c.emit(OpStoreLocal, newVal, 0, line)
		c.emit(OpLoadLocal, recv, 0, line)
		c.emit(OpLoadLocal, idx, 0, line)
		c.emit(OpLoadLocal, newVal, 0, line)
		c.emit(OpSetIndex, 0, 0, line)
		c.emit(OpLoadLocal, result, 0, line)
	default:
		c.failLine(line, "unsupported increment target")
	}
}

// compileLoadVariable resolves name against the active local table, the
// enclosing function chain (as an upvalue capture), or else the module's
// global bindings (import bindings read through the source module's
// exports object; module-scoped names live under the module prefix).
func (c *Compiler) compileLoadVariable(name string, line int) {
	if idx, ok := c.resolveLocal(name); ok {
		c.emit(OpLoadLocal, idx, 0, line)
		return
	}
	if idx, ok := c.resolveUpvalue(c.fn, name); ok {
		c.emit(OpLoadUpvalue, idx, 0, line)
		return
	}
	c.emitModuleGlobalLoad(name, line)
}

func (c *Compiler) compileStoreVariable(name string, line int) {
	if idx, ok := c.resolveLocal(name); ok {
		c.emit(OpStoreLocal, idx, 0, line)
		return
	}
	if idx, ok := c.resolveUpvalue(c.fn, name); ok {
		c.emit(OpStoreUpvalue, idx, 0, line)
		return
	}
	c.emitModuleGlobalStore(name, line)
}

// resolveUpvalue implements the standard closure-capture search: look in
// fs's own upvalue list first (already captured), then in the parent's
// locals, then recursively in the parent's own upvalues — chaining
// capture through every intermediate function so a doubly-nested closure
// reaches all the way back to the defining scope.
func (c *Compiler) resolveUpvalue(fs *funcState, name string) (int, bool) {
	if fs.parent == nil {
		return 0, false
	}
	if idx, ok := indexOfUpvalueName(fs, name); ok {
		return idx, true
	}
	if idx, ok := fs.parent.resolveLocalPublic(name); ok {
		upIdx := appendUpvalue(fs, name, UpvalueDesc{FromParentLocal: true, Index: idx})
		return upIdx, true
	}
	if idx, ok := c.resolveUpvalue(fs.parent, name); ok {
		upIdx := appendUpvalue(fs, name, UpvalueDesc{FromParentLocal: false, Index: idx})
		return upIdx, true
	}
	return 0, false
}

func indexOfUpvalueName(fs *funcState, name string) (int, bool) {
	for i, n := range fs.upvalueNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func appendUpvalue(fs *funcState, name string, desc UpvalueDesc) int {
	fs.proto.Upvalues = append(fs.proto.Upvalues, desc)
	fs.upvalueNames = append(fs.upvalueNames, name)
	return len(fs.proto.Upvalues) - 1
}

func (fs *funcState) resolveLocalPublic(name string) (int, bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i] == name {
			return i, true
		}
	}
	return 0, false
}
