// Package checker implements the structural/nominal type checker of
// spec §4.4: a single walk over a resolved ast.Program that infers and
// checks every expression and statement against internal/types,
// reporting Kind=Type errors for incompatible assignments, calls, and
// operators. It runs after internal/resolver and before internal/bytecode.
package checker

import (
	"fmt"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/types"
)

// scope is one lexical block's name -> declared-type table, mirroring
// internal/resolver's scope stack but carrying types instead of
// initialization flags.
type scope struct {
	vars map[string]types.Type
}

func newScope() *scope { return &scope{vars: map[string]types.Type{}} }

// Checker accumulates diagnostics while inferring types bottom-up over
// the AST (spec §4.4's `analyzeArrayDecl`-style per-declaration
// functions, generalized to the whole statement/expression grammar).
type Checker struct {
	source, file string
	errs         []*errors.CompilerError

	scopes     []*scope
	namedTypes map[string]types.Type // classes, interfaces, enums, namespaces

	returnStack []types.Type
	thisStack   []types.Type
	loopDepth   int
	// classStack tracks the enclosing class declarations so member
	// access can enforce private/protected against the declaring class
	// (spec §4.4); ctorDepth is non-zero while a constructor body is
	// being checked, gating readonly-field assignment.
	classStack []*types.ClassType
	ctorDepth  int
	// typeParamStack holds the type-parameter names in scope while a
	// generic class's members and bodies resolve their annotations.
	typeParamStack []map[string]bool
}

// New creates a Checker for one module's source text (source/file are
// only used for error context, matching internal/resolver.New).
func New(source, file string) *Checker {
	return &Checker{
		source:     source,
		file:       file,
		namedTypes: map[string]types.Type{},
	}
}

// Check walks prog and returns every diagnostic found; the caller
// treats the first as fatal per spec §7, same convention as the
// resolver.
func (c *Checker) Check(prog *ast.Program) []*errors.CompilerError {
	c.pushScope()
	c.hoistNamedTypes(prog.Statements)
	c.checkStmts(prog.Statements)
	c.popScope()
	return c.errs
}

func (c *Checker) pushScope() { c.scopes = append(c.scopes, newScope()) }
func (c *Checker) popScope()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *Checker) declare(name string, t types.Type) {
	if name == "" || len(c.scopes) == 0 {
		return
	}
	c.scopes[len(c.scopes)-1].vars[name] = t
}

func (c *Checker) lookup(name string) (types.Type, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if t, ok := c.scopes[i].vars[name]; ok {
			return t, true
		}
	}
	return nil, false
}

func (c *Checker) errorf(pos lexer.Position, format string, args ...interface{}) {
	c.errs = append(c.errs, errors.New(errors.Type, pos, fmt.Sprintf(format, args...), c.source, c.file))
}

func (c *Checker) currentReturnType() (types.Type, bool) {
	if len(c.returnStack) == 0 {
		return nil, false
	}
	return c.returnStack[len(c.returnStack)-1], true
}

func (c *Checker) currentThisType() types.Type {
	if len(c.thisStack) == 0 {
		return types.AnyType
	}
	return c.thisStack[len(c.thisStack)-1]
}

func (c *Checker) currentClass() *types.ClassType {
	if len(c.classStack) == 0 {
		return nil
	}
	return c.classStack[len(c.classStack)-1]
}

func (c *Checker) inConstructor() bool { return c.ctorDepth > 0 }

func (c *Checker) pushTypeParams(names []string) {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	c.typeParamStack = append(c.typeParamStack, set)
}

func (c *Checker) popTypeParams() {
	c.typeParamStack = c.typeParamStack[:len(c.typeParamStack)-1]
}

func (c *Checker) isTypeParam(name string) bool {
	for i := len(c.typeParamStack) - 1; i >= 0; i-- {
		if c.typeParamStack[i][name] {
			return true
		}
	}
	return false
}

// checkAssignable reports a Type error when value is not assignable
// to target, unless either side is Any/Unknown (spec §4.4 IsCompatible).
func (c *Checker) checkAssignable(pos lexer.Position, target, value types.Type, context string) {
	if !types.IsCompatible(target, value) {
		c.errorf(pos, "%s: type '%s' is not assignable to type '%s'", context, value.String(), target.String())
	}
}
