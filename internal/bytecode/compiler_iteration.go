package bytecode

import "github.com/tsnc-lang/tsnc/internal/ast"

// compileForOf emits `for (const x of iterable) body` over the lazy
// iterator protocol: one next() per iteration, so a generator's body
// interleaves with the loop body and an early break stops pulling
// (spec §4.6, §5 — suspension points stay explicit; a snapshot-drain
// here would run every generator side effect up front and hang on an
// infinite generator). Arrays, strings, maps, and sets get a fresh
// snapshot iterator from GetIterator, preserving their eager-copy
// semantics.
func (c *Compiler) compileForOf(s *ast.ForOfStmt, line int) {
	if s.IsAwait {
		c.compileForAwaitOf(s, line)
		return
	}
	c.compileExpr(s.Iterable)
	c.emit(OpGetIter, 0, 0, line)
	iter := c.allocLocal("")
	c.emit(OpStoreLocal, iter, 0, line)
	res := c.allocLocal("")

	lc := c.pushLoop("")
	start := c.here()
	c.emit(OpLoadLocal, iter, 0, line)
	c.emit(OpCallMethod, 0, c.chunk.AddName("next"), line)
	c.emit(OpStoreLocal, res, 0, line)

	c.emit(OpLoadLocal, res, 0, line)
	c.emit(OpGetProp, c.chunk.AddName("done"), 0, line)
	exit := c.emit(OpJumpIfTrue, 0, 0, line)
	c.emit(OpPop, 0, 0, line)

	c.emit(OpLoadLocal, res, 0, line)
	c.emit(OpGetProp, c.chunk.AddName("value"), 0, line)
	c.bindIterationValue(s.Name, s.Pattern, line)

	c.compileStmt(s.Body)
	c.emit(OpJump, start, 0, line)

	c.patchJump(exit, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchLoopExits(lc, start, c.here())
}

// bindIterationValue stores the value on the stack into the loop's
// binding: a plain name, or a destructuring pattern through a temp.
func (c *Compiler) bindIterationValue(name string, pattern ast.Expr, line int) {
	if pattern == nil {
		slot := c.allocLocalOrReuse(name)
		c.emit(OpStoreLocal, slot, 0, line)
		return
	}
	src := c.allocLocal("")
	c.emit(OpStoreLocal, src, 0, line)
	c.destructureBind(pattern, src, line, c.bindLocalFromSlot)
}

// allocLocalOrReuse reuses the slot of an identically named local when
// the loop ran before (each iteration stores into the same slot).
func (c *Compiler) allocLocalOrReuse(name string) int {
	if idx, ok := c.resolveLocal(name); ok && name != "" {
		return idx
	}
	return c.allocLocal(name)
}

// compileForAwaitOf lowers `for await (const x of it)` to the iterator
// protocol: call next(), await its result, test done, bind value.
func (c *Compiler) compileForAwaitOf(s *ast.ForOfStmt, line int) {
	c.compileExpr(s.Iterable)
	c.emit(OpGetIter, 0, 0, line)
	iter := c.allocLocal("")
	c.emit(OpStoreLocal, iter, 0, line)
	res := c.allocLocal("")

	lc := c.pushLoop("")
	start := c.here()
	c.emit(OpLoadLocal, iter, 0, line)
	c.emit(OpCallMethod, 0, c.chunk.AddName("next"), line)
	c.emit(OpAwait, c.fn.allocSuspendState(), 0, line)
	c.emit(OpStoreLocal, res, 0, line)

	c.emit(OpLoadLocal, res, 0, line)
	c.emit(OpGetProp, c.chunk.AddName("done"), 0, line)
	exit := c.emit(OpJumpIfTrue, 0, 0, line)
	c.emit(OpPop, 0, 0, line)

	c.emit(OpLoadLocal, res, 0, line)
	c.emit(OpGetProp, c.chunk.AddName("value"), 0, line)
	c.bindIterationValue(s.Name, s.Pattern, line)

	c.compileStmt(s.Body)
	c.emit(OpJump, start, 0, line)

	c.patchJump(exit, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchLoopExits(lc, start, c.here())
}

// compileForIn walks an object's own enumerable keys (spec §4.3: the
// object evaluates in the enclosing scope, the binding lives in the
// loop-body scope).
func (c *Compiler) compileForIn(s *ast.ForInStmt, line int) {
	c.compileExpr(s.Object)
	c.emit(OpIterInKeys, 0, 0, line)
	arr := c.allocLocal("")
	c.emit(OpStoreLocal, arr, 0, line)
	idx := c.allocLocal("")
	c.emit(OpLoadConst, c.chunk.AddConstant(float64(0)), 0, line)
	c.emit(OpStoreLocal, idx, 0, line)

	lc := c.pushLoop("")
	start := c.here()
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpLoadLocal, arr, 0, line)
	c.emit(OpGetProp, c.chunk.AddName("length"), 0, line)
	c.emit(OpLt, 0, 0, line)
	exit := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)

	c.emit(OpLoadLocal, arr, 0, line)
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpGetIndex, 0, 0, line)
	slot := c.allocLocalOrReuse(s.Name)
	c.emit(OpStoreLocal, slot, 0, line)

	c.compileStmt(s.Body)

	continueTarget := c.here()
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpLoadConst, c.chunk.AddConstant(float64(1)), 0, line)
	c.emit(OpAdd, 0, 0, line)
	c.emit(OpStoreLocal, idx, 0, line)
	c.emit(OpJump, start, 0, line)

	c.patchJump(exit, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchLoopExits(lc, continueTarget, c.here())
}

// compileUsing binds a disposable resource like `const` and registers
// its slot for reverse-order disposal at function exit. `await using`
// disposes through the same path; an async dispose's promise is not
// awaited at the release point (the cooperative driver settles it on
// the same tick).
func (c *Compiler) compileUsing(s *ast.UsingStmt, line int) {
	idx := c.allocLocal(s.Name)
	c.emit(OpDeclareTDZ, idx, 0, line)
	c.compileExpr(s.Initializer)
	c.emit(OpInitLocal, idx, 0, line)
	c.fn.usingSlots = append(c.fn.usingSlots, idx)
}
