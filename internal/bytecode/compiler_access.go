package bytecode

import (
	"strconv"
	"strings"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/runtime"
)

// compileGet emits `obj.name`, with the optional-chaining duplicate-
// test-and-branch when the access is `obj?.name` (spec §4.8).
func (c *Compiler) compileGet(e *ast.Get, line int) {
	if _, isSuper := e.Object.(*ast.SuperExpr); isSuper {
		c.emit(OpGetSuperProp, c.chunk.AddName(e.Name), 0, line)
		return
	}
	c.compileExpr(e.Object)
	if !e.Optional {
		c.emit(OpGetProp, c.chunk.AddName(e.Name), 0, line)
		return
	}
	nilJump := c.emit(OpJumpIfNullish, 0, 0, line)
	c.emit(OpGetProp, c.chunk.AddName(e.Name), 0, line)
	end := c.emit(OpJump, 0, 0, line)
	c.patchJump(nilJump, c.here())
	c.emit(OpPop, 0, 0, line)
	c.emit(OpLoadUndefined, 0, 0, line)
	c.patchJump(end, c.here())
}

func (c *Compiler) compileGetIndex(e *ast.GetIndex, line int) {
	c.compileExpr(e.Object)
	if !e.Optional {
		c.compileExpr(e.Index)
		c.emit(OpGetIndex, 0, 0, line)
		return
	}
	nilJump := c.emit(OpJumpIfNullish, 0, 0, line)
	c.compileExpr(e.Index)
	c.emit(OpGetIndex, 0, 0, line)
	end := c.emit(OpJump, 0, 0, line)
	c.patchJump(nilJump, c.here())
	c.emit(OpPop, 0, 0, line)
	c.emit(OpLoadUndefined, 0, 0, line)
	c.patchJump(end, c.here())
}

// hasSpreadArg reports whether any argument is a `...spread`.
func hasSpreadArg(args []ast.Expr) bool {
	for _, a := range args {
		if _, ok := a.(*ast.SpreadExpr); ok {
			return true
		}
	}
	return false
}

// compileArgsArray flattens an argument list containing spreads into a
// single array on the stack: spread parts snapshot their iterable, the
// rest wrap as one-element arrays, then OpConcatN reassembles.
func (c *Compiler) compileArgsArray(args []ast.Expr, line int) {
	for _, a := range args {
		if sp, ok := a.(*ast.SpreadExpr); ok {
			c.compileExpr(sp.Value)
			c.emit(OpIterOfValues, 0, 0, line)
			continue
		}
		c.compileExpr(a)
		c.emit(OpNewArray, 1, 0, line)
	}
	c.emit(OpConcatN, len(args), 0, line)
}

// compileCall dispatches the call shapes: `super(...)`, `super.m(...)`,
// method calls through OpCallMethod (receiver preserved as `this`),
// optional calls, spread argument lists, and plain calls.
func (c *Compiler) compileCall(e *ast.Call, line int) {
	switch callee := e.Callee.(type) {
	case *ast.SuperExpr:
		if hasSpreadArg(e.Args) {
			c.failLine(line, "spread arguments to super are not supported")
			return
		}
		for _, a := range e.Args {
			c.compileExpr(a)
		}
		c.emit(OpCallSuper, len(e.Args), 0, line)
		return
	case *ast.Get:
		if _, isSuper := callee.Object.(*ast.SuperExpr); isSuper {
			for _, a := range e.Args {
				c.compileExpr(a)
			}
			c.emit(OpCallSuperMethod, len(e.Args), c.chunk.AddName(callee.Name), line)
			return
		}
		c.compileExpr(callee.Object)
		var nilJump int
		optional := callee.Optional || e.Optional
		if optional {
			nilJump = c.emit(OpJumpIfNullish, 0, 0, line)
		}
		if hasSpreadArg(e.Args) {
			c.compileArgsArray(e.Args, line)
			c.emit(OpCallMethodSpread, 0, c.chunk.AddName(callee.Name), line)
		} else {
			for _, a := range e.Args {
				c.compileExpr(a)
			}
			c.emit(OpCallMethod, len(e.Args), c.chunk.AddName(callee.Name), line)
		}
		if optional {
			end := c.emit(OpJump, 0, 0, line)
			c.patchJump(nilJump, c.here())
			c.emit(OpPop, 0, 0, line)
			c.emit(OpLoadUndefined, 0, 0, line)
			c.patchJump(end, c.here())
		}
		return
	}
	c.compileExpr(e.Callee)
	var nilJump int
	if e.Optional {
		nilJump = c.emit(OpJumpIfNullish, 0, 0, line)
	}
	if hasSpreadArg(e.Args) {
		c.compileArgsArray(e.Args, line)
		c.emit(OpCallSpread, 0, 0, line)
	} else {
		for _, a := range e.Args {
			c.compileExpr(a)
		}
		c.emit(OpCall, len(e.Args), 0, line)
	}
	if e.Optional {
		end := c.emit(OpJump, 0, 0, line)
		c.patchJump(nilJump, c.here())
		c.emit(OpPop, 0, 0, line)
		c.emit(OpLoadUndefined, 0, 0, line)
		c.patchJump(end, c.here())
	}
}

func (c *Compiler) compileNew(e *ast.New, line int) {
	c.compileExpr(e.Callee)
	if hasSpreadArg(e.Args) {
		c.compileArgsArray(e.Args, line)
		c.emit(OpNewSpread, 0, 0, line)
		return
	}
	for _, a := range e.Args {
		c.compileExpr(a)
	}
	c.emit(OpNew, len(e.Args), 0, line)
}

func (c *Compiler) compileArrayLiteral(e *ast.ArrayLiteral, line int) {
	if !hasSpreadArg(e.Elements) {
		for _, el := range e.Elements {
			c.compileExpr(el)
		}
		c.emit(OpNewArray, len(e.Elements), 0, line)
		return
	}
	c.compileArgsArray(e.Elements, line)
}

func (c *Compiler) compileObjectLiteral(e *ast.ObjectLiteral, line int) {
	c.emit(OpNewObject, 0, 0, line)
	for _, p := range e.Properties {
		if p.Spread {
			c.compileExpr(p.Value)
			c.emit(OpMergeObject, 0, 0, line)
			continue
		}
		if ck, ok := p.Key.(*ast.ComputedKey); ok {
			c.emit(OpDup, 0, 0, line)
			c.compileExpr(ck.Expr)
			c.compilePropertyValue(p, line)
			c.emit(OpSetIndex, 0, 0, line)
			continue
		}
		c.emit(OpDup, 0, 0, line)
		c.compilePropertyValue(p, line)
		c.emit(OpSetProp, c.chunk.AddName(propertyKeyName(p.Key)), 0, line)
	}
}

func (c *Compiler) compilePropertyValue(p *ast.ObjectProperty, line int) {
	if p.Method != nil {
		c.compileFunctionLiteral(p.Method, line)
		return
	}
	c.compileExpr(p.Value)
}

// compileTaggedTemplate calls the tag with the cooked-string array, the
// raw-string array, and the expression-value array (spec §4.8).
func (c *Compiler) compileTaggedTemplate(e *ast.TaggedTemplateLiteral, line int) {
	c.compileExpr(e.Tag)
	t := e.Template
	for _, q := range t.Quasis {
		c.emit(OpLoadConst, c.chunk.AddConstant(q), 0, line)
	}
	c.emit(OpNewArray, len(t.Quasis), 0, line)
	raw := t.Raw
	if len(raw) != len(t.Quasis) {
		raw = t.Quasis
	}
	for _, r := range raw {
		c.emit(OpLoadConst, c.chunk.AddConstant(r), 0, line)
	}
	c.emit(OpNewArray, len(raw), 0, line)
	for _, sub := range t.Exprs {
		c.compileExpr(sub)
	}
	c.emit(OpNewArray, len(t.Exprs), 0, line)
	c.emit(OpCall, 3, 0, line)
}

func (c *Compiler) compileBigIntLiteral(e *ast.BigIntLiteral, line int) {
	digits := strings.TrimSuffix(e.Value, "n")
	n, err := strconv.ParseInt(digits, 0, 64)
	if err != nil {
		c.failLine(line, "bigint literal out of the supported int64 range")
		n = 0
	}
	c.emit(OpLoadConst, c.chunk.AddConstant(&runtime.BigInt{Value: n}), 0, line)
}

// compileLogicalAssign emits `x &&= v` / `||=` / `??=` on an
// identifier: compute, dup, branch, skip-or-overwrite (spec §4.8's
// three-state scheme).
func (c *Compiler) compileLogicalAssign(e *ast.LogicalAssign, line int) {
	c.compileLoadVariable(e.Target.Name, line)
	skip := c.emitLogicalSkip(e.Operator, line)
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(e.Value)
	c.emit(OpDup, 0, 0, line)
	c.compileStoreVariable(e.Target.Name, line)
	c.patchJump(skip, c.here())
}

// emitLogicalSkip emits the branch that keeps the current value and
// skips the assignment: for `&&=` a falsy current value short-circuits,
// for `||=` a truthy one, for `??=` a non-nullish one.
func (c *Compiler) emitLogicalSkip(operator string, line int) int {
	switch operator {
	case "&&":
		return c.emit(OpJumpIfFalse, 0, 0, line)
	case "||":
		return c.emit(OpJumpIfTrue, 0, 0, line)
	default: // "??"
		nullishJump := c.emit(OpJumpIfNullish, 0, 0, line)
		skip := c.emit(OpJump, 0, 0, line)
		c.patchJump(nullishJump, c.here())
		return skip
	}
}

// memberTemp evaluates e.Object once into a temp local, leaving nothing
// on the stack, so read-modify-write sequences see one receiver.
func (c *Compiler) memberTemp(object ast.Expr, line int) int {
	c.compileExpr(object)
	tmp := c.allocLocal("")
	c.emit(OpStoreLocal, tmp, 0, line)
	return tmp
}

func (c *Compiler) compileCompoundSet(e *ast.CompoundSet, line int) {
	recv := c.memberTemp(e.Object, line)
	nameIdx := c.chunk.AddName(e.Name)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpGetProp, nameIdx, 0, line)
	c.compileExpr(e.Value)
	c.emitBinaryOp(e.Operator, line)
	result := c.allocLocal("")
	c.emit(OpDup, 0, 0, line)
	c.emit(OpStoreLocal, result, 0, line)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpLoadLocal, result, 0, line)
	c.emit(OpSetProp, nameIdx, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.emit(OpLoadLocal, result, 0, line)
}

func (c *Compiler) compileLogicalSet(e *ast.LogicalSet, line int) {
	recv := c.memberTemp(e.Object, line)
	nameIdx := c.chunk.AddName(e.Name)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpGetProp, nameIdx, 0, line)
	skip := c.emitLogicalSkip(e.Operator, line)
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(e.Value)
	result := c.allocLocal("")
	c.emit(OpDup, 0, 0, line)
	c.emit(OpStoreLocal, result, 0, line)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpLoadLocal, result, 0, line)
	c.emit(OpSetProp, nameIdx, 0, line)
	c.patchJump(skip, c.here())
}

func (c *Compiler) compileCompoundSetIndex(e *ast.CompoundSetIndex, line int) {
	recv := c.memberTemp(e.Object, line)
	c.compileExpr(e.Index)
	idx := c.allocLocal("")
	c.emit(OpStoreLocal, idx, 0, line)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpGetIndex, 0, 0, line)
	c.compileExpr(e.Value)
	c.emitBinaryOp(e.Operator, line)
	result := c.allocLocal("")
	c.emit(OpDup, 0, 0, line)
	c.emit(OpStoreLocal, result, 0, line)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpLoadLocal, result, 0, line)
	c.emit(OpSetIndex, 0, 0, line)
	c.emit(OpLoadLocal, result, 0, line)
}

func (c *Compiler) compileLogicalSetIndex(e *ast.LogicalSetIndex, line int) {
	recv := c.memberTemp(e.Object, line)
	c.compileExpr(e.Index)
	idx := c.allocLocal("")
	c.emit(OpStoreLocal, idx, 0, line)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpGetIndex, 0, 0, line)
	skip := c.emitLogicalSkip(e.Operator, line)
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(e.Value)
	result := c.allocLocal("")
	c.emit(OpDup, 0, 0, line)
	c.emit(OpStoreLocal, result, 0, line)
	c.emit(OpLoadLocal, recv, 0, line)
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpLoadLocal, result, 0, line)
	c.emit(OpSetIndex, 0, 0, line)
	c.patchJump(skip, c.here())
}

// compileImportMeta builds the frozen `{url, filename, dirname}` record
// (spec §4.8) from the compiling module's path.
func (c *Compiler) compileImportMeta(line int) {
	path := "<main>"
	if c.module != nil {
		path = c.module.path
	}
	dir := path
	if i := strings.LastIndexByte(dir, '/'); i >= 0 {
		dir = dir[:i]
	}
	tmp := c.allocLocal("")
	c.emit(OpNewObject, 0, 0, line)
	c.emit(OpStoreLocal, tmp, 0, line)
	setStr := func(key, value string) {
		c.emit(OpLoadLocal, tmp, 0, line)
		c.emit(OpLoadConst, c.chunk.AddConstant(value), 0, line)
		c.emit(OpSetProp, c.chunk.AddName(key), 0, line)
	}
	setStr("url", "file://"+path)
	setStr("filename", path)
	setStr("dirname", dir)
	c.emit(OpLoadGlobal, c.chunk.AddName("Object"), 0, line)
	c.emit(OpGetProp, c.chunk.AddName("freeze"), 0, line)
	c.emit(OpLoadLocal, tmp, 0, line)
	c.emit(OpCall, 1, 0, line)
}
