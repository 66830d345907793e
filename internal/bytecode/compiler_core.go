package bytecode

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	cerrors "github.com/tsnc-lang/tsnc/internal/errors"
)

// Compiler turns resolved, type-checked ast.Programs into a Chunk (spec
// §4.8). One Compiler instance compiles a whole program — one module or
// many sharing the constant and name pools; nested function bodies are
// compiled into sibling FunctionProto entries by compileFunctionBody,
// recursively reusing the same Compiler.
type Compiler struct {
	chunk  *Chunk
	fn     *funcState
	err    *cerrors.CompilerError
	module *moduleContext // nil when compiling a plain script
}

// funcState is the in-progress instruction buffer and local-slot table
// for one function body (or the module top level, funcIndex 0).
type funcState struct {
	proto        *FunctionProto
	parent       *funcState
	locals       []string // index == local slot
	loopStack    []*loopContext
	tryContexts  []*tryContext
	usingSlots   []int // `using`-bound locals, disposed in reverse at exit
	protoIndex   int
	upvalueNames []string // index == upvalue slot, parallel to proto.Upvalues
	// nextSuspendState numbers this function's OpAwait/OpYield sites in
	// source order (spec §3's state_field), independent of instruction
	// offsets so a disassembler or stack trace can name "state 2" rather
	// than a raw ip.
	nextSuspendState int
}

func (fs *funcState) allocSuspendState() int {
	s := fs.nextSuspendState
	fs.nextSuspendState++
	return s
}

// tryContext tracks one entered try region so return/break/continue can
// unwind it correctly at compile time: pop the runtime handler while it
// is still armed, and inline the pending finally body (spec §7:
// "finally blocks always run, including on return, break, and continue
// that exit the try").
type tryContext struct {
	handlerActive bool
	finallyBlock  *ast.BlockStmt
}

// loopContext records the jump targets a break/continue inside the loop
// body must patch once the loop's bounds are known, plus the try-depth
// at loop entry so exits unwind only the regions opened inside.
type loopContext struct {
	label         string
	breakJumps    []int // instruction indices of OpJump placeholders
	continueJumps []int
	tryDepth      int
}

// Compile compiles a single plain script into a Chunk. Returns the
// first compile error encountered (spec §7 Kind=Runtime is not used
// here; compile-time failures surface as Kind=Type, since by this stage
// lexing/parsing/resolving/checking have already succeeded).
func Compile(prog *ast.Program) (*Chunk, *cerrors.CompilerError) {
	chunk, _, err := CompileProgram([]ModuleUnit{{Path: "", Program: prog}})
	return chunk, err
}

// ModuleUnit is one module handed to CompileProgram, in evaluation
// order. Resolve maps each import specifier appearing in the module to
// its canonical path (the loader computes this; built-in modules use
// the "builtin:" prefix).
type ModuleUnit struct {
	Path    string
	Program *ast.Program
	Resolve map[string]string
}

// CompileProgram compiles modules into one shared Chunk, one top-level
// FunctionProto per module; the returned indices parallel the input
// order so the driver can run each module body in dependency order.
// A unit with an empty Path compiles as a plain script (unprefixed
// globals, no exports object).
func CompileProgram(modules []ModuleUnit) (*Chunk, []int, *cerrors.CompilerError) {
	c := &Compiler{chunk: &Chunk{}}
	indices := make([]int, 0, len(modules))
	for _, unit := range modules {
		top := &FunctionProto{Name: "<module>"}
		if unit.Path != "" {
			top.Name = "<module " + unit.Path + ">"
		}
		c.chunk.FunctionProtos = append(c.chunk.FunctionProtos, top)
		protoIndex := len(c.chunk.FunctionProtos) - 1
		indices = append(indices, protoIndex)
		c.fn = &funcState{proto: top, protoIndex: protoIndex}
		c.module = newModuleContext(unit)
		for _, stmt := range unit.Program.Statements {
			c.compileStmt(stmt)
			if c.err != nil {
				return nil, nil, c.err
			}
		}
		c.emitUsingDisposal(0)
		c.emit(OpLoadUndefined, 0, 0, 0)
		c.emit(OpReturn, 0, 0, 0)
		c.fn.proto.NumLocals = len(c.fn.locals)
	}
	return c.chunk, indices, nil
}

func (c *Compiler) fail(err *cerrors.CompilerError) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Compiler) emit(op OpCode, a, b, line int) int {
	c.fn.proto.Code = append(c.fn.proto.Code, Instruction{Op: op, A: a, B: b, Line: line})
	return len(c.fn.proto.Code) - 1
}

func (c *Compiler) here() int { return len(c.fn.proto.Code) }

func (c *Compiler) patchJump(instrIndex, target int) {
	c.fn.proto.Code[instrIndex].A = target
}

// allocLocal assigns the next free local slot to name, appending it to
// the current function's local table (the resolver has already computed
// scope distances; the compiler just needs a stable per-function slot
// numbering, which it assigns in declaration order).
func (c *Compiler) allocLocal(name string) int {
	c.fn.locals = append(c.fn.locals, name)
	return len(c.fn.locals) - 1
}

func (c *Compiler) resolveLocal(name string) (int, bool) {
	for i := len(c.fn.locals) - 1; i >= 0; i-- {
		if c.fn.locals[i] == name {
			return i, true
		}
	}
	return 0, false
}
