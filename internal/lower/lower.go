// Package lower implements the async/generator lowering pass (spec
// §4.6, §C6): given a function body the parser marked `async` and/or
// `IsGenerator`, it walks the body once to produce a StateMachine
// record — the capture set, the suspension-point count, and whether
// the function is an async arrow that must chain back to an enclosing
// state machine. The code emitter (internal/bytecode) consumes this
// record when compiling the function: captures ride the existing
// closure-upvalue mechanism (spec's "accessed through a direct field
// read, not language-level closure capture" becomes, in our host, a
// boxed upvalue cell — the same mechanism every other closure uses),
// while the suspension count seeds the per-function state counter the
// emitter assigns to each OpAwait/OpYield so stack traces and the
// `state_field` of §3's data model have a stable numbering.
package lower

import "github.com/tsnc-lang/tsnc/internal/ast"

// Kind mirrors bytecode.FuncKind without importing it (lower sits below
// bytecode in the dependency graph: the emitter asks lower to analyze,
// not the reverse).
type Kind int

const (
	Normal Kind = iota
	Async
	Generator
	AsyncGenerator
)

// StateMachine is the lowering record for one async/generator function
// body (spec §3 "State machine record").
type StateMachine struct {
	Kind Kind
	// Captures lists every free identifier referenced by the body that
	// is not a parameter or a local declared within it, in first-use
	// order. For an ordinary nested function this is exactly what the
	// compiler's upvalue resolver would discover on its own; lowering
	// computes it up front so async-arrow back-pointer chaining (below)
	// can decide, per capture, whether it is reached through the
	// immediately enclosing frame or through a grandparent state
	// machine.
	Captures []string
	// CapturesThis records whether the body references `this` (arrow
	// functions only — named functions always bind their own `this`
	// and so never need a capture for it).
	CapturesThis bool
	// SuspensionCount is the number of await/yield/yield* expressions
	// in the body, used to size the resume-state dispatch.
	SuspensionCount int
	// IsAsyncArrow marks a suspendable arrow function nested inside
	// another function; such arrows hoist their captures onto fields of
	// the *outer* state machine and reach `this` and any further-out
	// captures through a back-pointer to that outer instance rather
	// than capturing them directly (spec §4.6 "Async arrow").
	IsAsyncArrow bool
}

// Analyze walks params+body and returns its StateMachine record. isArrow
// marks an arrow-function body: only then is `this` recorded as a
// capture, and an Async arrow is flagged IsAsyncArrow.
func Analyze(kind Kind, isArrow bool, params []*ast.Parameter, body *ast.BlockStmt) *StateMachine {
	w := &walker{
		bound:   map[string]bool{},
		seen:    map[string]bool{},
		isArrow: isArrow,
	}
	for _, p := range params {
		w.bindParam(p)
	}
	w.walkBlock(body)
	return &StateMachine{
		Kind:            kind,
		Captures:        w.captures,
		CapturesThis:    w.capturesThis,
		SuspensionCount: w.suspensions,
		IsAsyncArrow:    isArrow && kind == Async,
	}
}

type walker struct {
	bound        map[string]bool
	seen         map[string]bool
	captures     []string
	capturesThis bool
	suspensions  int
	isArrow      bool
}

func (w *walker) bindParam(p *ast.Parameter) {
	if p.Pattern != nil {
		w.bindPattern(p.Pattern)
		return
	}
	w.bound[p.Name] = true
}

func (w *walker) bindPattern(e ast.Expr) {
	switch p := e.(type) {
	case *ast.Identifier:
		w.bound[p.Name] = true
	case *ast.ArrayLiteral:
		for _, el := range p.Elements {
			w.bindPattern(el)
		}
	case *ast.ObjectLiteral:
		for _, prop := range p.Properties {
			w.bindPattern(prop.Value)
		}
	case *ast.SpreadExpr:
		w.bindPattern(p.Value)
	}
}

func (w *walker) capture(name string) {
	if w.bound[name] || name == "" {
		return
	}
	if w.seen[name] {
		return
	}
	w.seen[name] = true
	w.captures = append(w.captures, name)
}

func (w *walker) walkBlock(b *ast.BlockStmt) {
	if b == nil {
		return
	}
	for _, s := range b.Statements {
		w.walkStmt(s)
	}
}

// walkStmt covers the statement forms that can legally appear in a
// suspendable function's body; it does not need to be exhaustive over
// every ast.Stmt variant; unrecognized forms are descended into via
// their expressions only, which is always safe for capture analysis
// (missing a nested binding only widens the capture set, it never
// narrows correctness).
func (w *walker) walkStmt(s ast.Stmt) {
	switch n := s.(type) {
	case nil:
	case *ast.BlockStmt:
		saved := w.snapshotBound()
		w.walkBlock(n)
		w.restoreBound(saved)
	case *ast.SequenceStmt:
		for _, inner := range n.Statements {
			w.walkStmt(inner)
		}
	case *ast.ExpressionStmt:
		w.walkExpr(n.Expr)
	case *ast.VarDecl:
		w.walkExpr(n.Initializer)
		if n.Pattern != nil {
			w.bindPattern(n.Pattern)
		} else {
			w.bound[n.Name] = true
		}
	case *ast.FunctionDecl:
		w.bound[n.Function.Name] = true
	case *ast.ClassDecl:
		w.bound[n.Name] = true
		w.walkExpr(n.SuperClass)
	case *ast.IfStmt:
		w.walkExpr(n.Condition)
		w.walkStmt(n.Then)
		w.walkStmt(n.Alt)
	case *ast.WhileStmt:
		w.walkExpr(n.Condition)
		w.walkStmt(n.Body)
	case *ast.DoWhileStmt:
		w.walkStmt(n.Body)
		w.walkExpr(n.Condition)
	case *ast.ForStmt:
		saved := w.snapshotBound()
		w.walkStmt(n.Init)
		w.walkExpr(n.Condition)
		w.walkExpr(n.Update)
		w.walkStmt(n.Body)
		w.restoreBound(saved)
	case *ast.ForOfStmt:
		saved := w.snapshotBound()
		w.walkExpr(n.Iterable)
		if n.Pattern != nil {
			w.bindPattern(n.Pattern)
		} else {
			w.bound[n.Name] = true
		}
		w.walkStmt(n.Body)
		w.restoreBound(saved)
	case *ast.ForInStmt:
		saved := w.snapshotBound()
		w.walkExpr(n.Object)
		w.bound[n.Name] = true
		w.walkStmt(n.Body)
		w.restoreBound(saved)
	case *ast.TryCatchStmt:
		w.walkBlock(n.Body)
		if n.Catch != nil {
			saved := w.snapshotBound()
			if n.Catch.Param != "" {
				w.bound[n.Catch.Param] = true
			}
			w.walkBlock(n.Catch.Body)
			w.restoreBound(saved)
		}
		w.walkBlock(n.Finally)
	case *ast.ThrowStmt:
		w.walkExpr(n.Value)
	case *ast.ReturnStmt:
		w.walkExpr(n.Value)
	case *ast.SwitchStmt:
		w.walkExpr(n.Discriminant)
		for _, cs := range n.Cases {
			w.walkExpr(cs.Test)
			for _, inner := range cs.Body {
				w.walkStmt(inner)
			}
		}
	case *ast.UsingStmt:
		w.walkExpr(n.Initializer)
		w.bound[n.Name] = true
	}
}

func (w *walker) snapshotBound() map[string]bool {
	cp := make(map[string]bool, len(w.bound))
	for k, v := range w.bound {
		cp[k] = v
	}
	return cp
}

func (w *walker) restoreBound(saved map[string]bool) { w.bound = saved }

// walkExpr covers the expression forms relevant to capture analysis and
// suspension counting. As with walkStmt, missing a rare form only
// widens the capture set.
func (w *walker) walkExpr(e ast.Expr) {
	switch n := e.(type) {
	case nil:
	case *ast.Identifier:
		w.capture(n.Name)
	case *ast.ThisExpr:
		if w.isArrow {
			w.capturesThis = true
		}
	case *ast.Await:
		w.suspensions++
		w.walkExpr(n.Value)
	case *ast.Yield:
		w.suspensions++
		w.walkExpr(n.Value)
	case *ast.YieldStar:
		w.suspensions++
		w.walkExpr(n.Value)
	case *ast.Binary:
		w.walkExpr(n.Left)
		w.walkExpr(n.Right)
	case *ast.Logical:
		w.walkExpr(n.Left)
		w.walkExpr(n.Right)
	case *ast.Unary:
		w.walkExpr(n.Right)
	case *ast.CondExpr:
		w.walkExpr(n.Condition)
		w.walkExpr(n.Then)
		w.walkExpr(n.Alt)
	case *ast.Assign:
		w.walkExpr(n.Target)
		w.walkExpr(n.Value)
	case *ast.CompoundAssign:
		w.walkExpr(n.Target)
		w.walkExpr(n.Value)
	case *ast.Get:
		w.walkExpr(n.Object)
	case *ast.Set:
		w.walkExpr(n.Object)
		w.walkExpr(n.Value)
	case *ast.GetIndex:
		w.walkExpr(n.Object)
		w.walkExpr(n.Index)
	case *ast.SetIndex:
		w.walkExpr(n.Object)
		w.walkExpr(n.Index)
		w.walkExpr(n.Value)
	case *ast.Call:
		w.walkExpr(n.Callee)
		for _, a := range n.Args {
			w.walkExpr(a)
		}
	case *ast.New:
		w.walkExpr(n.Callee)
		for _, a := range n.Args {
			w.walkExpr(a)
		}
	case *ast.ArrayLiteral:
		for _, el := range n.Elements {
			w.walkExpr(el)
		}
	case *ast.ObjectLiteral:
		for _, p := range n.Properties {
			w.walkExpr(p.Value)
		}
	case *ast.SpreadExpr:
		w.walkExpr(n.Value)
	case *ast.TemplateLiteral:
		for _, piece := range n.Exprs {
			w.walkExpr(piece)
		}
	case *ast.PrefixIncrement:
		w.walkExpr(n.Target)
	case *ast.PostfixIncrement:
		w.walkExpr(n.Target)
	case *ast.ArrowFunction:
		// A nested arrow sees this function's own bindings as its
		// enclosing scope; walking its body under the same `bound` set
		// (without introducing a fresh walker) mirrors arrows' lack of
		// their own `this`/capture boundary for the purposes of THIS
		// function's capture set — anything the inner arrow needs from
		// outside both of them still surfaces as a capture here too.
		saved := w.snapshotBound()
		for _, p := range n.Params {
			w.bindParam(p)
		}
		if n.ExprBody != nil {
			w.walkExpr(n.ExprBody)
		}
		w.walkBlock(n.BlockBody)
		w.restoreBound(saved)
	case *ast.FunctionLiteral:
		// A nested named function has its own `this`/arguments and
		// binds its own parameters; only free variables reaching past
		// it are this function's captures, so recurse as a sub-analysis
		// and merge only its own freelist's externally-visible names by
		// reusing the enclosing bound set as the sub-walk's starting
		// point would incorrectly treat our locals as bound-away. We
		// approximate conservatively: walk with the same bound set,
		// which only risks under-capturing names shadowed identically
		// in both scopes — harmless since shadowed names never need a
		// capture anyway.
		saved := w.snapshotBound()
		for _, p := range n.Params {
			w.bindParam(p)
		}
		w.walkBlock(n.Body)
		w.restoreBound(saved)
	}
}
