// Package resolver implements the variable resolver (spec §4.3): a single
// walk over the AST that records, for every identifier use, `this`, and
// `super`, the lexical scope distance to its declaration. The distance is
// written directly onto the AST node (Identifier.ResolvedDistance,
// ThisExpr.ResolvedDistance, SuperExpr.ResolvedDistance); absence of a
// recorded distance (left at -1) means "look up globally, or through the
// module's live export bindings at runtime".
//
// Declarations are two-phase: declare() marks a name as present-but-not-
// yet-initialized so a read before the declaration completes is caught as
// a temporal-dead-zone ResolveError; define() then marks it initialized.
package resolver

import (
	"fmt"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/errors"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// scope is one lexical block: name -> initialized?.
type scope struct {
	vars map[string]bool
	kind scopeKind
}

type scopeKind int

const (
	scopeBlock scopeKind = iota
	scopeFunction
	scopeClassThis
	scopeClassSuper
	scopeNamespace
)

func newScope(kind scopeKind) *scope {
	return &scope{vars: map[string]bool{}, kind: kind}
}

// Resolver performs the single-pass scope-distance computation.
type Resolver struct {
	scopes []*scope
	source string
	file   string
	errs   []*errors.CompilerError
}

// New creates a Resolver for one module's source text (source/file are
// only used for error context).
func New(source, file string) *Resolver {
	return &Resolver{source: source, file: file}
}

// Resolve walks the program's top-level statements, opening the implicit
// module scope first. It returns every error accumulated during the walk;
// the caller (module loader / compiler driver) treats the first one as
// fatal per spec §7.
func (r *Resolver) Resolve(program *ast.Program) []*errors.CompilerError {
	r.beginScope(scopeBlock)
	r.resolveStmts(program.Statements)
	r.endScope()
	return r.errs
}

func (r *Resolver) beginScope(kind scopeKind) { r.scopes = append(r.scopes, newScope(kind)) }
func (r *Resolver) endScope()                 { r.scopes = r.scopes[:len(r.scopes)-1] }

func (r *Resolver) current() *scope { return r.scopes[len(r.scopes)-1] }

func (r *Resolver) declare(name string) {
	if name == "" || len(r.scopes) == 0 {
		return
	}
	r.current().vars[name] = false
}

func (r *Resolver) define(name string) {
	if name == "" || len(r.scopes) == 0 {
		return
	}
	r.current().vars[name] = true
}

func (r *Resolver) errorf(pos lexer.Position, format string, args ...interface{}) {
	r.errs = append(r.errs, errors.New(errors.Resolve, pos, fmt.Sprintf(format, args...), r.source, r.file))
}

// resolveLocal searches the scope stack innermost-out and records the hop
// count on the supplied setter when found. A read of a declared-but-not-
// yet-initialized binding is a TDZ error — unless a function boundary
// sits between the use and the declaration, in which case the read is
// deferred until the function runs (`const id = setInterval(() =>
// clearInterval(id), ...)` is legal).
func (r *Resolver) resolveLocal(name string, pos lexer.Position, setDistance func(int)) {
	crossedFunction := false
	for i := len(r.scopes) - 1; i >= 0; i-- {
		initialized, ok := r.scopes[i].vars[name]
		if !ok {
			if r.scopes[i].kind == scopeFunction {
				crossedFunction = true
			}
			continue
		}
		if !initialized && !crossedFunction {
			r.errorf(pos, "cannot access '%s' before initialization", name)
		}
		setDistance(len(r.scopes) - 1 - i)
		return
	}
	setDistance(-1) // global / module export, resolved at runtime
}

// resolveThisOrSuper walks outward for the nearest this-binding scope (a class
// body or a plain function; arrow functions never introduce one, so the
// walk simply passes through them because resolver never opens a
// scopeClassThis for an arrow).
func (r *Resolver) resolveThisOrSuper(pos lexer.Position, wantSuper bool, setDistance func(int)) {
	hops := 0
	for i := len(r.scopes) - 1; i >= 0; i-- {
		k := r.scopes[i].kind
		if wantSuper && k == scopeClassSuper {
			setDistance(hops)
			return
		}
		if !wantSuper && (k == scopeClassThis || k == scopeFunction) {
			setDistance(hops)
			return
		}
		hops++
	}
	if wantSuper {
		r.errorf(pos, "'super' is only valid inside a derived class")
	}
	setDistance(-1)
}

// ---- statements ----

func (r *Resolver) resolveStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		r.resolveStmt(s)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt) {
	switch n := s.(type) {
	case nil:
		return
	case *ast.BlockStmt:
		r.beginScope(scopeBlock)
		r.resolveStmts(n.Statements)
		r.endScope()
	case *ast.SequenceStmt:
		r.resolveStmts(n.Statements)
	case *ast.ExpressionStmt:
		r.resolveExpr(n.Expr)
	case *ast.VarDecl:
		r.resolveVarDecl(n)
	case *ast.FunctionDecl:
		r.declare(n.Function.Name)
		r.define(n.Function.Name)
		r.resolveFunctionLiteral(n.Function)
	case *ast.ClassDecl:
		r.declare(n.Name)
		r.define(n.Name)
		r.resolveClassBody(n.SuperClass, n.Fields)
	case *ast.EnumDecl:
		r.declare(n.Name)
		r.define(n.Name)
		for _, m := range n.Members {
			r.resolveExpr(m.Value)
		}
	case *ast.NamespaceDecl:
		r.declare(n.Name)
		r.define(n.Name)
		r.beginScope(scopeNamespace)
		r.resolveStmts(n.Body)
		r.endScope()
	case *ast.IfStmt:
		r.resolveExpr(n.Condition)
		r.resolveStmt(n.Then)
		r.resolveStmt(n.Alt)
	case *ast.ForStmt:
		r.beginScope(scopeBlock)
		r.resolveStmt(n.Init)
		r.resolveExpr(n.Condition)
		r.resolveExpr(n.Update)
		r.resolveStmt(n.Body)
		r.endScope()
	case *ast.ForOfStmt:
		// The iterable is evaluated in the enclosing scope; the loop
		// variable lives in its own per-iteration body scope (spec §4.3).
		r.resolveExpr(n.Iterable)
		r.beginScope(scopeBlock)
		if n.Pattern != nil {
			r.declarePattern(n.Pattern)
			r.defineBindingPattern(n.Pattern)
		} else {
			r.declare(n.Name)
			r.define(n.Name)
		}
		r.resolveStmt(n.Body)
		r.endScope()
	case *ast.ForInStmt:
		r.resolveExpr(n.Object)
		r.beginScope(scopeBlock)
		r.declare(n.Name)
		r.define(n.Name)
		r.resolveStmt(n.Body)
		r.endScope()
	case *ast.WhileStmt:
		r.resolveExpr(n.Condition)
		r.resolveStmt(n.Body)
	case *ast.DoWhileStmt:
		r.resolveStmt(n.Body)
		r.resolveExpr(n.Condition)
	case *ast.TryCatchStmt:
		r.resolveStmt(n.Body)
		if n.Catch != nil {
			r.beginScope(scopeBlock)
			if n.Catch.Param != "" {
				r.declare(n.Catch.Param)
				r.define(n.Catch.Param)
			}
			r.resolveStmt(n.Catch.Body)
			r.endScope()
		}
		if n.Finally != nil {
			r.resolveStmt(n.Finally)
		}
	case *ast.ThrowStmt:
		r.resolveExpr(n.Value)
	case *ast.ReturnStmt:
		r.resolveExpr(n.Value)
	case *ast.BreakStmt, *ast.ContinueStmt:
		// no identifiers to resolve
	case *ast.SwitchStmt:
		r.resolveExpr(n.Discriminant)
		r.beginScope(scopeBlock)
		for _, c := range n.Cases {
			r.resolveExpr(c.Test)
			r.resolveStmts(c.Body)
		}
		r.endScope()
	case *ast.ImportStmt:
		if n.Default != "" {
			r.declare(n.Default)
			r.define(n.Default)
		}
		if n.Namespace != "" {
			r.declare(n.Namespace)
			r.define(n.Namespace)
		}
		for _, spec := range n.Specifiers {
			r.declare(spec.Local)
			r.define(spec.Local)
		}
	case *ast.ImportRequireStmt:
		r.declare(n.Name)
		r.define(n.Name)
	case *ast.ExportStmt:
		if n.Decl != nil {
			r.resolveStmt(n.Decl)
		}
		if n.DefaultExpr != nil {
			r.resolveExpr(n.DefaultExpr)
		}
	case *ast.UsingStmt:
		r.resolveExpr(n.Initializer)
		r.declare(n.Name)
		r.define(n.Name)
	default:
		r.errorf(s.Pos(), "resolver: unhandled statement %T", s)
	}
}

func (r *Resolver) resolveVarDecl(n *ast.VarDecl) {
	if n.Pattern != nil {
		r.declarePattern(n.Pattern)
	} else {
		r.declare(n.Name)
	}
	r.resolveExpr(n.Initializer)
	if n.Pattern != nil {
		r.defineBindingPattern(n.Pattern)
	} else {
		r.define(n.Name)
	}
}

// declarePattern/defineBindingPattern walk a destructuring target
// (ArrayLiteral/ObjectLiteral used as a binding pattern) and declare every
// bound name, supporting defaults and rest/spread elements.
func (r *Resolver) declarePattern(pattern ast.Expr) {
	r.walkPatternNames(pattern, r.declare)
}

func (r *Resolver) defineBindingPattern(pattern ast.Expr) {
	r.walkPatternNames(pattern, r.define)
	// default-value expressions in the pattern are evaluated in the
	// enclosing scope at destructure time; resolve them now that the
	// names they might reference are defined.
	r.resolvePatternDefaults(pattern)
}

func (r *Resolver) walkPatternNames(pattern ast.Expr, apply func(string)) {
	switch p := pattern.(type) {
	case *ast.Identifier:
		apply(p.Name)
	case *ast.ArrayLiteral:
		for _, el := range p.Elements {
			if el == nil {
				continue
			}
			if spread, ok := el.(*ast.SpreadExpr); ok {
				r.walkPatternNames(spread.Value, apply)
				continue
			}
			r.walkPatternNames(el, apply)
		}
	case *ast.ObjectLiteral:
		for _, prop := range p.Properties {
			if prop.Spread {
				r.walkPatternNames(prop.Value, apply)
				continue
			}
			r.walkPatternNames(prop.Value, apply)
		}
	case *ast.Assign:
		r.walkPatternNames(p.Target, apply)
	}
}

func (r *Resolver) resolvePatternDefaults(pattern ast.Expr) {
	switch p := pattern.(type) {
	case *ast.ArrayLiteral:
		for _, el := range p.Elements {
			r.resolvePatternDefaults(el)
		}
	case *ast.ObjectLiteral:
		for _, prop := range p.Properties {
			r.resolvePatternDefaults(prop.Value)
		}
	case *ast.Assign:
		r.resolveExpr(p.Value)
	}
}

func (r *Resolver) resolveFunctionLiteral(f *ast.FunctionLiteral) {
	r.beginScope(scopeFunction)
	r.resolveParams(f.Params)
	r.resolveStmt(f.Body)
	r.endScope()
}

func (r *Resolver) resolveParams(params []*ast.Parameter) {
	for _, p := range params {
		if p.Pattern != nil {
			r.declarePattern(p.Pattern)
		} else {
			r.declare(p.Name)
		}
		r.resolveExpr(p.ParamDefault)
		if p.Pattern != nil {
			r.defineBindingPattern(p.Pattern)
		} else {
			r.define(p.Name)
		}
	}
}

func (r *Resolver) resolveClassBody(superClass ast.Expr, fields []*ast.ClassField) {
	r.resolveExpr(superClass)
	r.beginScope(scopeClassThis)
	if superClass != nil {
		r.beginScope(scopeClassSuper)
	}
	for _, f := range fields {
		switch {
		case f.Method != nil:
			r.resolveFunctionLiteral(f.Method)
		case f.Accessor != nil:
			r.beginScope(scopeFunction)
			r.resolveParams(f.Accessor.Params)
			r.resolveStmt(f.Accessor.Body)
			r.endScope()
		default:
			r.resolveExpr(f.Initializer)
		}
	}
	if superClass != nil {
		r.endScope()
	}
	r.endScope()
}

// ---- expressions ----

func (r *Resolver) resolveExpr(e ast.Expr) {
	switch n := e.(type) {
	case nil:
		return
	case *ast.Identifier:
		r.resolveLocal(n.Name, n.Pos(), func(d int) { n.ResolvedDistance = d })
	case *ast.ThisExpr:
		r.resolveThisOrSuper(n.Pos(), false, func(d int) { n.ResolvedDistance = d })
	case *ast.SuperExpr:
		r.resolveThisOrSuper(n.Pos(), true, func(d int) { n.ResolvedDistance = d })
	case *ast.NumberLiteral, *ast.BigIntLiteral, *ast.StringLiteral, *ast.BooleanLiteral,
		*ast.NullLiteral, *ast.UndefinedLiteral, *ast.RegexLiteral, *ast.NewTarget, *ast.ImportMeta:
		// no identifiers
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			r.resolveExpr(el)
		}
	case *ast.ObjectLiteral:
		for _, p := range n.Properties {
			if key, ok := p.Key.(*ast.ComputedKey); ok {
				r.resolveExpr(key.Expr)
			}
			if p.Method != nil {
				r.resolveFunctionLiteral(p.Method)
				continue
			}
			if p.Accessor != nil {
				r.beginScope(scopeFunction)
				r.resolveParams(p.Accessor.Params)
				r.resolveStmt(p.Accessor.Body)
				r.endScope()
				continue
			}
			r.resolveExpr(p.Value)
		}
	case *ast.SpreadExpr:
		r.resolveExpr(n.Value)
	case *ast.TemplateLiteral:
		for _, e := range n.Exprs {
			r.resolveExpr(e)
		}
	case *ast.TaggedTemplateLiteral:
		r.resolveExpr(n.Tag)
		r.resolveExpr(n.Template)
	case *ast.FunctionLiteral:
		r.resolveFunctionLiteral(n)
	case *ast.ArrowFunction:
		// Arrow functions do not bind their own `this`; resolveThisOrSuper
		// simply skips over this scope because no scopeClassThis is
		// pushed here.
		r.beginScope(scopeBlock)
		r.resolveParams(n.Params)
		if n.BlockBody != nil {
			r.resolveStmt(n.BlockBody)
		} else {
			r.resolveExpr(n.ExprBody)
		}
		r.endScope()
	case *ast.ClassExpr:
		r.resolveClassBody(n.SuperClass, n.Fields)
	case *ast.Get:
		r.resolveExpr(n.Object)
	case *ast.Set:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Value)
	case *ast.GetIndex:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Index)
	case *ast.SetIndex:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Index)
		r.resolveExpr(n.Value)
	case *ast.GetPrivate:
		r.resolveExpr(n.Object)
	case *ast.SetPrivate:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Value)
	case *ast.CallPrivate:
		r.resolveExpr(n.Object)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case *ast.Call:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case *ast.New:
		r.resolveExpr(n.Callee)
		for _, a := range n.Args {
			r.resolveExpr(a)
		}
	case *ast.CondExpr:
		r.resolveExpr(n.Condition)
		r.resolveExpr(n.Then)
		r.resolveExpr(n.Alt)
	case *ast.Binary:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.Logical:
		r.resolveExpr(n.Left)
		r.resolveExpr(n.Right)
	case *ast.Unary:
		r.resolveExpr(n.Right)
	case *ast.Assign:
		r.resolveExpr(n.Value)
		r.resolveLocal(n.Target.Name, n.Target.Pos(), func(d int) { n.Target.ResolvedDistance = d })
	case *ast.CompoundAssign:
		r.resolveExpr(n.Value)
		r.resolveLocal(n.Target.Name, n.Target.Pos(), func(d int) { n.Target.ResolvedDistance = d })
	case *ast.LogicalAssign:
		r.resolveExpr(n.Value)
		r.resolveLocal(n.Target.Name, n.Target.Pos(), func(d int) { n.Target.ResolvedDistance = d })
	case *ast.CompoundSet:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Value)
	case *ast.CompoundSetIndex:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Index)
		r.resolveExpr(n.Value)
	case *ast.LogicalSet:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Value)
	case *ast.LogicalSetIndex:
		r.resolveExpr(n.Object)
		r.resolveExpr(n.Index)
		r.resolveExpr(n.Value)
	case *ast.PrefixIncrement:
		r.resolveExpr(n.Target)
	case *ast.PostfixIncrement:
		r.resolveExpr(n.Target)
	case *ast.DynamicImport:
		r.resolveExpr(n.Specifier)
	case *ast.Await:
		r.resolveExpr(n.Value)
	case *ast.Yield:
		r.resolveExpr(n.Value)
	case *ast.YieldStar:
		r.resolveExpr(n.Value)
	default:
		r.errorf(e.Pos(), "resolver: unhandled expression %T", e)
	}
}
