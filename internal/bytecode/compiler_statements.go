package bytecode

import "github.com/tsnc-lang/tsnc/internal/ast"

// compileStmt emits the instructions for one statement. Expressions used
// in statement position leave no net value on the stack; a trailing
// OpPop discards whatever compileExpr leaves behind.
func (c *Compiler) compileStmt(stmt ast.Stmt) {
	line := stmt.Pos().Line
	switch s := stmt.(type) {
	case *ast.ExpressionStmt:
		c.compileExpr(s.Expr)
		c.emit(OpPop, 0, 0, line)
	case *ast.BlockStmt:
		for _, inner := range s.Statements {
			c.compileStmt(inner)
		}
	case *ast.SequenceStmt:
		for _, inner := range s.Statements {
			c.compileStmt(inner)
		}
	case *ast.VarDecl:
		c.compileVarDecl(s, line)
	case *ast.FunctionDecl:
		if c.fn.parent == nil {
			c.compileFunctionLiteral(s.Function, line)
			c.emit(OpStoreGlobal, c.chunk.AddName(c.globalName(s.Function.Name)), 0, line)
			break
		}
		idx := c.allocLocal(s.Function.Name)
		c.compileFunctionLiteral(s.Function, line)
		c.emit(OpStoreLocal, idx, 0, line)
	case *ast.IfStmt:
		c.compileIf(s, line)
	case *ast.WhileStmt:
		c.compileWhile(s, line)
	case *ast.DoWhileStmt:
		c.compileDoWhile(s, line)
	case *ast.ForStmt:
		c.compileFor(s, line)
	case *ast.ReturnStmt:
		if s.Value != nil {
			c.compileExpr(s.Value)
		} else {
			c.emit(OpLoadUndefined, 0, 0, line)
		}
		c.unwindForExit(0, line)
		c.emitUsingDisposal(line)
		c.emit(OpReturn, 0, 0, line)
	case *ast.ThrowStmt:
		c.compileExpr(s.Value)
		c.emit(OpThrow, 0, 0, line)
	case *ast.TryCatchStmt:
		c.compileTryCatch(s, line)
	case *ast.BreakStmt:
		c.compileBreak(s, line)
	case *ast.ContinueStmt:
		c.compileContinue(s, line)
	case *ast.SwitchStmt:
		c.compileSwitch(s, line)
	case *ast.ClassDecl:
		c.compileClassDecl(s, line)
	case *ast.ForOfStmt:
		c.compileForOf(s, line)
	case *ast.ForInStmt:
		c.compileForIn(s, line)
	case *ast.UsingStmt:
		c.compileUsing(s, line)
	case *ast.EnumDecl:
		c.compileEnumDecl(s, line)
	case *ast.NamespaceDecl:
		c.compileNamespaceDecl(s, line)
	case *ast.ImportStmt:
		// Bindings were registered when the module context was built;
		// evaluation order is the loader's concern, so no code here.
	case *ast.ImportRequireStmt:
		// Same: the binding reads through the source's exports object.
	case *ast.ExportStmt:
		c.compileExport(s, line)
	default:
		c.failLine(line, "unsupported statement form in code emitter: "+stmt.String())
	}
}

// unwindForExit emits the compile-time unwinding a jump out of try
// regions requires: pop each still-armed runtime handler and inline
// each pending finally body, innermost first, down to (not including)
// depth floor.
func (c *Compiler) unwindForExit(floor, line int) {
	for i := len(c.fn.tryContexts) - 1; i >= floor; i-- {
		ctx := c.fn.tryContexts[i]
		if ctx.handlerActive {
			c.emit(OpPopHandler, 0, 0, line)
		}
		if ctx.finallyBlock != nil {
			for _, inner := range ctx.finallyBlock.Statements {
				c.compileStmt(inner)
			}
		}
	}
}

// emitUsingDisposal releases `using`-bound resources in reverse
// declaration order before the function returns.
func (c *Compiler) emitUsingDisposal(line int) {
	for i := len(c.fn.usingSlots) - 1; i >= 0; i-- {
		c.emit(OpLoadLocal, c.fn.usingSlots[i], 0, line)
		c.emit(OpDispose, 0, 0, line)
	}
}

// compileVarDecl emits a declaration. At module scope (no enclosing
// function) declarations become named global bindings, the shape the
// module loader's live-binding exports object reads from; inside any
// function body they become ordinary local slots with TDZ tracking for
// `let`/`const` (spec §4.3).
func (c *Compiler) compileVarDecl(v *ast.VarDecl, line int) {
	if v.Pattern != nil {
		if v.Initializer != nil {
			c.compileExpr(v.Initializer)
		} else {
			c.emit(OpLoadUndefined, 0, 0, line)
		}
		srcSlot := c.allocLocal("")
		c.emit(OpStoreLocal, srcSlot, 0, line)
		c.compileDestructureVarDecl(v, srcSlot, line)
		return
	}
	if c.fn.parent == nil {
		if v.Initializer != nil {
			c.compileExpr(v.Initializer)
		} else {
			c.emit(OpLoadUndefined, 0, 0, line)
		}
		c.emit(OpStoreGlobal, c.chunk.AddName(c.globalName(v.Name)), 0, line)
		return
	}
	idx := c.allocLocal(v.Name)
	if v.Kind != ast.VarVar {
		c.emit(OpDeclareTDZ, idx, 0, line)
	}
	if v.Initializer != nil {
		c.compileExpr(v.Initializer)
	} else {
		c.emit(OpLoadUndefined, 0, 0, line)
	}
	c.emit(OpInitLocal, idx, 0, line)
}

func (c *Compiler) compileIf(s *ast.IfStmt, line int) {
	c.compileExpr(s.Condition)
	elseJump := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.compileStmt(s.Then)
	endJump := c.emit(OpJump, 0, 0, line)
	c.patchJump(elseJump, c.here())
	c.emit(OpPop, 0, 0, line)
	if s.Alt != nil {
		c.compileStmt(s.Alt)
	}
	c.patchJump(endJump, c.here())
}

func (c *Compiler) pushLoop(label string) *loopContext {
	lc := &loopContext{label: label, tryDepth: len(c.fn.tryContexts)}
	c.fn.loopStack = append(c.fn.loopStack, lc)
	return lc
}

func (c *Compiler) popLoop() *loopContext {
	lc := c.fn.loopStack[len(c.fn.loopStack)-1]
	c.fn.loopStack = c.fn.loopStack[:len(c.fn.loopStack)-1]
	return lc
}

// patchLoopExits patches every break/continue jump collected while
// compiling the loop body and pops its loopContext off the stack (it is
// always called as the last step of compiling the loop it was pushed
// for).
func (c *Compiler) patchLoopExits(lc *loopContext, continueTarget, breakTarget int) {
	for _, j := range lc.continueJumps {
		c.patchJump(j, continueTarget)
	}
	for _, j := range lc.breakJumps {
		c.patchJump(j, breakTarget)
	}
	c.popLoop()
}

func (c *Compiler) compileWhile(s *ast.WhileStmt, line int) {
	lc := c.pushLoop("")
	start := c.here()
	c.compileExpr(s.Condition)
	exitJump := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.compileStmt(s.Body)
	c.emit(OpJump, start, 0, line)
	c.patchJump(exitJump, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchLoopExits(lc, start, c.here())
}

func (c *Compiler) compileDoWhile(s *ast.DoWhileStmt, line int) {
	lc := c.pushLoop("")
	start := c.here()
	c.compileStmt(s.Body)
	condStart := c.here()
	c.compileExpr(s.Condition)
	exitJump := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.emit(OpJump, start, 0, line)
	c.patchJump(exitJump, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchLoopExits(lc, condStart, c.here())
}

func (c *Compiler) compileFor(s *ast.ForStmt, line int) {
	if s.Init != nil {
		c.compileStmt(s.Init)
	}
	lc := c.pushLoop("")
	start := c.here()
	var exitJump int
	hasCond := s.Condition != nil
	if hasCond {
		c.compileExpr(s.Condition)
		exitJump = c.emit(OpJumpIfFalse, 0, 0, line)
		c.emit(OpPop, 0, 0, line)
	}
	c.compileStmt(s.Body)
	continueTarget := c.here()
	if s.Update != nil {
		c.compileExpr(s.Update)
		c.emit(OpPop, 0, 0, line)
	}
	c.emit(OpJump, start, 0, line)
	end := c.here()
	if hasCond {
		c.patchJump(exitJump, end)
		c.emit(OpPop, 0, 0, line)
		end = c.here()
	}
	c.patchLoopExits(lc, continueTarget, end)
}

func (c *Compiler) compileBreak(s *ast.BreakStmt, line int) {
	if len(c.fn.loopStack) == 0 {
		c.failLine(line, "break outside of loop")
		return
	}
	lc := c.fn.loopStack[len(c.fn.loopStack)-1]
	c.unwindForExit(lc.tryDepth, line)
	j := c.emit(OpJump, 0, 0, line)
	lc.breakJumps = append(lc.breakJumps, j)
}

func (c *Compiler) compileContinue(s *ast.ContinueStmt, line int) {
	if len(c.fn.loopStack) == 0 {
		c.failLine(line, "continue outside of loop")
		return
	}
	lc := c.fn.loopStack[len(c.fn.loopStack)-1]
	c.unwindForExit(lc.tryDepth, line)
	j := c.emit(OpJump, 0, 0, line)
	lc.continueJumps = append(lc.continueJumps, j)
}

// compileTryCatch emits a handler-guarded region. A finally clause
// wraps the whole try/catch in an outer handler whose target runs the
// finally body and rethrows, so the finally runs on the exceptional
// path out of both the try body and the catch body; the normal path
// falls through into a second copy of the finally body.
func (c *Compiler) compileTryCatch(s *ast.TryCatchStmt, line int) {
	if s.Finally == nil {
		c.compileTryCatchCore(s.Body, s.Catch, line)
		return
	}
	outerHandler := c.emit(OpPushHandler, 0, 0, line)
	ctx := &tryContext{handlerActive: true, finallyBlock: s.Finally}
	c.fn.tryContexts = append(c.fn.tryContexts, ctx)
	if s.Catch != nil {
		c.compileTryCatchCore(s.Body, s.Catch, line)
	} else {
		for _, inner := range s.Body.Statements {
			c.compileStmt(inner)
		}
	}
	c.fn.tryContexts = c.fn.tryContexts[:len(c.fn.tryContexts)-1]
	c.emit(OpPopHandler, 0, 0, line)
	for _, inner := range s.Finally.Statements {
		c.compileStmt(inner)
	}
	end := c.emit(OpJump, 0, 0, line)

	c.patchJump(outerHandler, c.here())
	// Exceptional path: the thrown value is on the stack; run the
	// finally body around it, then rethrow.
	for _, inner := range s.Finally.Statements {
		c.compileStmt(inner)
	}
	c.emit(OpThrow, 0, 0, line)
	c.patchJump(end, c.here())
}

// compileTryCatchCore emits try/catch without a finally clause. The
// handler is registered before the try body and popped on the normal
// fall-through path; the VM consults the handler stack when a panic
// carrying an *runtime.Exception unwinds through it.
func (c *Compiler) compileTryCatchCore(body *ast.BlockStmt, catch *ast.CatchClause, line int) {
	handlerInstr := c.emit(OpPushHandler, 0, 0, line)
	ctx := &tryContext{handlerActive: true}
	c.fn.tryContexts = append(c.fn.tryContexts, ctx)
	for _, inner := range body.Statements {
		c.compileStmt(inner)
	}
	c.fn.tryContexts = c.fn.tryContexts[:len(c.fn.tryContexts)-1]
	c.emit(OpPopHandler, 0, 0, line)
	afterTry := c.emit(OpJump, 0, 0, line)

	catchStart := c.here()
	c.patchJump(handlerInstr, catchStart)
	if catch != nil {
		if catch.Param != "" {
			idx := c.allocLocal(catch.Param)
			c.emit(OpInitLocal, idx, 0, line)
		} else {
			c.emit(OpPop, 0, 0, line)
		}
		for _, inner := range catch.Body.Statements {
			c.compileStmt(inner)
		}
	} else {
		c.emit(OpPop, 0, 0, line)
	}
	c.patchJump(afterTry, c.here())
}

// compileSwitch emits the strict-equality dispatch chain followed by
// the case bodies in source order (so fall-through works), with the
// discriminant held on the stack through the bodies and popped once at
// the end — break jumps land on that pop.
func (c *Compiler) compileSwitch(s *ast.SwitchStmt, line int) {
	c.compileExpr(s.Discriminant)
	lc := c.pushLoop("")
	bodyJumps := make([]int, len(s.Cases))
	defaultIndex := -1
	for i, cs := range s.Cases {
		if cs.Test == nil {
			defaultIndex = i
			bodyJumps[i] = -1
			continue
		}
		c.emit(OpDup, 0, 0, line)
		c.compileExpr(cs.Test)
		c.emit(OpStrictEq, 0, 0, line)
		next := c.emit(OpJumpIfFalse, 0, 0, line)
		c.emit(OpPop, 0, 0, line)
		bodyJumps[i] = c.emit(OpJump, 0, 0, line)
		c.patchJump(next, c.here())
		c.emit(OpPop, 0, 0, line)
	}
	defaultJump := c.emit(OpJump, 0, 0, line)
	for i, cs := range s.Cases {
		target := c.here()
		if bodyJumps[i] >= 0 {
			c.patchJump(bodyJumps[i], target)
		}
		if i == defaultIndex {
			c.patchJump(defaultJump, target)
		}
		for _, inner := range cs.Body {
			c.compileStmt(inner)
		}
	}
	end := c.here()
	if defaultIndex == -1 {
		c.patchJump(defaultJump, end)
	}
	c.emit(OpPop, 0, 0, line)
	c.patchLoopExits(lc, end, end)
}
