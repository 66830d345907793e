package bytecode

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lower"
)

// funcKindOf maps the parser's two independent async/generator flags
// onto the emitter's single FuncKind (spec §4.6 treats all three
// suspendable shapes, plus ordinary functions, as one family).
func funcKindOf(isAsync, isGenerator bool) FuncKind {
	switch {
	case isAsync && isGenerator:
		return FuncAsyncGenerator
	case isAsync:
		return FuncAsync
	case isGenerator:
		return FuncGenerator
	default:
		return FuncNormal
	}
}

func lowerKindOf(k FuncKind) lower.Kind {
	switch k {
	case FuncAsync:
		return lower.Async
	case FuncGenerator:
		return lower.Generator
	case FuncAsyncGenerator:
		return lower.AsyncGenerator
	default:
		return lower.Normal
	}
}

// compileFunctionLiteral compiles a `function` expression/declaration
// body into its own FunctionProto, pushed as a sibling in the shared
// Chunk, and emits the closure-creation instruction in the enclosing
// function.
func (c *Compiler) compileFunctionLiteral(f *ast.FunctionLiteral, line int) {
	kind := funcKindOf(f.IsAsync, f.IsGenerator)
	protoIndex := c.compileFunctionBody(f.Name, f.Params, f.Body, kind, false)
	c.emit(OpMakeClosure, protoIndex, 0, line)
}

// compileArrowFunction compiles `(params) => body`; concise-expression
// bodies are wrapped in an implicit return so the proto's calling
// convention matches ordinary functions. Per spec §4.3, arrow functions
// never bind their own `this`/`arguments` — the compiler simply omits
// declaring those names as locals, so any reference inside the arrow
// resolves as an upvalue capture of the enclosing function's binding.
// An `async` arrow is lowered the same way any other async function is
// (spec §4.6's "async arrow" is a capture-hoisting concern for a literal
// state-machine-class host; on this VM a suspended frame already closes
// over its upvalue cells exactly like any other closure, so the only
// extra step is the lower.Analyze call below, which records the capture
// set for diagnostics and confirms whether `this` needs to ride along —
// it always does, via the ordinary upvalue path, since arrows never
// declare their own `this` local).
func (c *Compiler) compileArrowFunction(a *ast.ArrowFunction, line int) {
	body := a.BlockBody
	if body == nil {
		body = &ast.BlockStmt{
			Token:      a.Token,
			Statements: []ast.Stmt{&ast.ReturnStmt{Token: a.Token, Value: a.ExprBody}},
		}
	}
	kind := funcKindOf(a.IsAsync, false)
	if kind == FuncAsync {
		lower.Analyze(lower.Async, true, a.Params, body)
	}
	protoIndex := c.compileFunctionBody("", a.Params, body, kind, false)
	c.emit(OpMakeClosure, protoIndex, 0, line)
}

// compileMethodBody compiles a class method/accessor/constructor: like
// compileFunctionBody, but local slot 0 is always the receiver (`this`)
// rather than the first declared parameter.
func (c *Compiler) compileMethodBody(name string, params []*ast.Parameter, body *ast.BlockStmt, kind FuncKind) int {
	proto := &FunctionProto{Name: name, Params: len(params), Kind: kind, IsMethod: true}
	c.chunk.FunctionProtos = append(c.chunk.FunctionProtos, proto)
	protoIndex := len(c.chunk.FunctionProtos) - 1

	parent := c.fn
	fs := &funcState{proto: proto, parent: parent, protoIndex: protoIndex}
	c.fn = fs

	c.allocLocal("this")
	c.compileParamList(params)
	c.compileSuspendableBody(body, kind)
	proto.NumLocals = len(fs.locals)

	c.fn = parent
	return protoIndex
}

// compileFunctionBody compiles params+body into a new FunctionProto,
// appends it to the shared Chunk, and returns its index. It switches the
// active funcState to the new function for the duration of the body and
// restores the caller's funcState afterward so sibling statements keep
// compiling against the right local table.
func (c *Compiler) compileFunctionBody(name string, params []*ast.Parameter, body *ast.BlockStmt, kind FuncKind, isMethod bool) int {
	proto := &FunctionProto{Name: name, Params: len(params), Kind: kind, IsMethod: isMethod}
	c.chunk.FunctionProtos = append(c.chunk.FunctionProtos, proto)
	protoIndex := len(c.chunk.FunctionProtos) - 1

	parent := c.fn
	fs := &funcState{proto: proto, parent: parent, protoIndex: protoIndex}
	c.fn = fs

	c.compileParamList(params)
	c.compileSuspendableBody(body, kind)
	proto.NumLocals = len(fs.locals)

	c.fn = parent
	return protoIndex
}

func (c *Compiler) compileParamList(params []*ast.Parameter) {
	for _, p := range params {
		if p.Rest {
			c.fn.proto.IsVariadic = true
		}
		if p.Pattern != nil {
			idx := c.allocLocal("")
			c.compileDestructureParam(p.Pattern, idx, p.Pos().Line)
			continue
		}
		idx := c.allocLocal(p.Name)
		if p.ParamDefault != nil {
			c.emitParamDefault(idx, p.ParamDefault, p.Pos().Line)
		}
	}
}

// emitParamDefault substitutes ParamDefault for slot idx when the
// caller passed `undefined` (including omitting a trailing argument,
// which the VM's call convention already fills with Undefined).
func (c *Compiler) emitParamDefault(idx int, def ast.Expr, line int) {
	c.emit(OpLoadLocal, idx, 0, line)
	c.emit(OpLoadUndefined, 0, 0, line)
	c.emit(OpStrictEq, 0, 0, line)
	skip := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(def)
	c.emit(OpStoreLocal, idx, 0, line)
	end := c.emit(OpJump, 0, 0, line)
	c.patchJump(skip, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchJump(end, c.here())
}

// compileSuspendableBody emits the body's statements followed by the
// function's implicit-undefined return, then — for generator and async
// generator kinds — leaves the proto to be driven by the VM's coroutine
// path rather than returning a plain value directly (spec §4.6: a
// generator's `next()` drives the body to its first suspension, not to
// completion).
func (c *Compiler) compileSuspendableBody(body *ast.BlockStmt, kind FuncKind) {
	for _, stmt := range body.Statements {
		c.compileStmt(stmt)
	}
	c.emitUsingDisposal(body.Pos().Line)
	c.emit(OpLoadUndefined, 0, 0, body.Pos().Line)
	c.emit(OpReturn, 0, 0, body.Pos().Line)
}
