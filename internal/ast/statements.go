package ast

import (
	"strings"

	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// BlockStmt is `{ ...statements }`.
type BlockStmt struct {
	Token      lexer.Token
	Statements []Stmt
}

func (b *BlockStmt) stmtNode()            {}
func (b *BlockStmt) Pos() lexer.Position  { return b.Token.Pos }
func (b *BlockStmt) TokenLiteral() string { return b.Token.Literal }
func (b *BlockStmt) String() string {
	var out strings.Builder
	out.WriteString("{\n")
	for _, s := range b.Statements {
		out.WriteString("  " + strings.ReplaceAll(s.String(), "\n", "\n  ") + "\n")
	}
	out.WriteString("}")
	return out.String()
}

// SequenceStmt groups sibling statements produced by a single source
// construct that has no block of its own (e.g. the lowered output of a
// single-statement `if` arm the emitter wants to treat as a unit).
type SequenceStmt struct {
	Token      lexer.Token
	Statements []Stmt
}

func (s *SequenceStmt) stmtNode()            {}
func (s *SequenceStmt) Pos() lexer.Position  { return s.Token.Pos }
func (s *SequenceStmt) TokenLiteral() string { return s.Token.Literal }
func (s *SequenceStmt) String() string       { return joinStmts(s.Statements, "\n") }

// ExpressionStmt wraps an expression used in statement position.
type ExpressionStmt struct {
	Token lexer.Token
	Expr  Expr
}

func (e *ExpressionStmt) stmtNode()            {}
func (e *ExpressionStmt) Pos() lexer.Position  { return e.Token.Pos }
func (e *ExpressionStmt) TokenLiteral() string { return e.Token.Literal }
func (e *ExpressionStmt) String() string {
	if e.Expr != nil {
		return e.Expr.String() + ";"
	}
	return ";"
}

// VarKind distinguishes `var`/`let`/`const` for TDZ and hoisting purposes.
type VarKind int

const (
	VarVar VarKind = iota
	VarLet
	VarConst
)

func (k VarKind) String() string {
	switch k {
	case VarVar:
		return "var"
	case VarConst:
		return "const"
	default:
		return "let"
	}
}

// VarDecl is a `var`/`let`/`const` declaration, possibly with a
// destructuring pattern in place of a plain name.
type VarDecl struct {
	Token       lexer.Token
	Kind        VarKind
	Name        string
	Pattern     Expr // non-nil for `const { a, b } = obj;` style declarations
	TypeAnn     TypeExpr
	Initializer Expr
}

func (v *VarDecl) stmtNode()            {}
func (v *VarDecl) Pos() lexer.Position  { return v.Token.Pos }
func (v *VarDecl) TokenLiteral() string { return v.Token.Literal }
func (v *VarDecl) String() string {
	var out strings.Builder
	out.WriteString(v.Kind.String() + " ")
	if v.Pattern != nil {
		out.WriteString(v.Pattern.String())
	} else {
		out.WriteString(v.Name)
	}
	if v.TypeAnn != nil {
		out.WriteString(": " + v.TypeAnn.String())
	}
	if v.Initializer != nil {
		out.WriteString(" = " + v.Initializer.String())
	}
	out.WriteString(";")
	return out.String()
}

// FunctionDecl is a top-level/nested named `function` declaration.
type FunctionDecl struct {
	Token    lexer.Token
	Function *FunctionLiteral
}

func (f *FunctionDecl) stmtNode()            {}
func (f *FunctionDecl) Pos() lexer.Position  { return f.Token.Pos }
func (f *FunctionDecl) TokenLiteral() string { return f.Token.Literal }
func (f *FunctionDecl) String() string       { return f.Function.String() }

// ClassDecl is a named `class` declaration; shares its member shape with
// ClassExpr.
type ClassDecl struct {
	Token      lexer.Token
	Name       string
	SuperClass Expr
	Implements []TypeExpr
	Fields     []*ClassField
	TypeParams []string
	Abstract   bool
	Decorators []Expr
}

func (c *ClassDecl) stmtNode()            {}
func (c *ClassDecl) Pos() lexer.Position  { return c.Token.Pos }
func (c *ClassDecl) TokenLiteral() string { return c.Token.Literal }
func (c *ClassDecl) String() string {
	var out strings.Builder
	if c.Abstract {
		out.WriteString("abstract ")
	}
	out.WriteString("class " + c.Name)
	if c.SuperClass != nil {
		out.WriteString(" extends " + c.SuperClass.String())
	}
	out.WriteString(" {\n")
	for _, f := range c.Fields {
		out.WriteString("  " + f.String() + ";\n")
	}
	out.WriteString("}")
	return out.String()
}

// EnumMember is one `Name` or `Name = value` entry of an EnumDecl.
type EnumMember struct {
	Name  string
	Value Expr // nil when the value is implicit (auto-incremented)
}

// EnumDecl is `enum Name { A, B = 2, C }`.
type EnumDecl struct {
	Token   lexer.Token
	Name    string
	Members []*EnumMember
	IsConst bool
}

func (e *EnumDecl) stmtNode()            {}
func (e *EnumDecl) Pos() lexer.Position  { return e.Token.Pos }
func (e *EnumDecl) TokenLiteral() string { return e.Token.Literal }
func (e *EnumDecl) String() string {
	var out strings.Builder
	out.WriteString("enum " + e.Name + " { ")
	for i, m := range e.Members {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(m.Name)
		if m.Value != nil {
			out.WriteString(" = " + m.Value.String())
		}
	}
	out.WriteString(" }")
	return out.String()
}

// NamespaceDecl is `namespace Name { ... }`.
type NamespaceDecl struct {
	Token lexer.Token
	Name  string
	Body  []Stmt
}

func (n *NamespaceDecl) stmtNode()            {}
func (n *NamespaceDecl) Pos() lexer.Position  { return n.Token.Pos }
func (n *NamespaceDecl) TokenLiteral() string { return n.Token.Literal }
func (n *NamespaceDecl) String() string {
	return "namespace " + n.Name + " {\n" + joinStmts(n.Body, "\n") + "\n}"
}

// IfStmt is `if (cond) then else alt`. Alt is nil when there is no else
// branch.
type IfStmt struct {
	Token     lexer.Token
	Condition Expr
	Then      Stmt
	Alt       Stmt
}

func (i *IfStmt) stmtNode()            {}
func (i *IfStmt) Pos() lexer.Position  { return i.Token.Pos }
func (i *IfStmt) TokenLiteral() string { return i.Token.Literal }
func (i *IfStmt) String() string {
	var out strings.Builder
	out.WriteString("if (" + i.Condition.String() + ") " + i.Then.String())
	if i.Alt != nil {
		out.WriteString(" else " + i.Alt.String())
	}
	return out.String()
}

// ForStmt is a classic C-style `for (init; cond; update) body`. Init may be
// a *VarDecl or an ExpressionStmt; any of Init/Condition/Update may be nil.
type ForStmt struct {
	Token     lexer.Token
	Init      Stmt
	Condition Expr
	Update    Expr
	Body      Stmt
}

func (f *ForStmt) stmtNode()            {}
func (f *ForStmt) Pos() lexer.Position  { return f.Token.Pos }
func (f *ForStmt) TokenLiteral() string { return f.Token.Literal }
func (f *ForStmt) String() string {
	init, cond, upd := "", "", ""
	if f.Init != nil {
		init = f.Init.String()
	}
	if f.Condition != nil {
		cond = f.Condition.String()
	}
	if f.Update != nil {
		upd = f.Update.String()
	}
	return "for (" + init + " " + cond + "; " + upd + ") " + f.Body.String()
}

// ForOfStmt is `for (const x of iterable) body`; IsAwait marks
// `for await (const x of iterable)`.
type ForOfStmt struct {
	Token    lexer.Token
	Kind     VarKind
	Name     string
	Pattern  Expr
	Iterable Expr
	Body     Stmt
	IsAwait  bool
}

func (f *ForOfStmt) stmtNode()            {}
func (f *ForOfStmt) Pos() lexer.Position  { return f.Token.Pos }
func (f *ForOfStmt) TokenLiteral() string { return f.Token.Literal }
func (f *ForOfStmt) String() string {
	prefix := "for"
	if f.IsAwait {
		prefix = "for await"
	}
	return prefix + " (" + f.Kind.String() + " " + f.bindingString() + " of " + f.Iterable.String() + ") " + f.Body.String()
}

func (f *ForOfStmt) bindingString() string {
	if f.Pattern != nil {
		return f.Pattern.String()
	}
	return f.Name
}

// ForInStmt is `for (const key in obj) body`.
type ForInStmt struct {
	Token  lexer.Token
	Kind   VarKind
	Name   string
	Object Expr
	Body   Stmt
}

func (f *ForInStmt) stmtNode()            {}
func (f *ForInStmt) Pos() lexer.Position  { return f.Token.Pos }
func (f *ForInStmt) TokenLiteral() string { return f.Token.Literal }
func (f *ForInStmt) String() string {
	return "for (" + f.Kind.String() + " " + f.Name + " in " + f.Object.String() + ") " + f.Body.String()
}

// WhileStmt is `while (cond) body`.
type WhileStmt struct {
	Token     lexer.Token
	Condition Expr
	Body      Stmt
}

func (w *WhileStmt) stmtNode()            {}
func (w *WhileStmt) Pos() lexer.Position  { return w.Token.Pos }
func (w *WhileStmt) TokenLiteral() string { return w.Token.Literal }
func (w *WhileStmt) String() string       { return "while (" + w.Condition.String() + ") " + w.Body.String() }

// DoWhileStmt is `do body while (cond);`.
type DoWhileStmt struct {
	Token     lexer.Token
	Body      Stmt
	Condition Expr
}

func (d *DoWhileStmt) stmtNode()            {}
func (d *DoWhileStmt) Pos() lexer.Position  { return d.Token.Pos }
func (d *DoWhileStmt) TokenLiteral() string { return d.Token.Literal }
func (d *DoWhileStmt) String() string {
	return "do " + d.Body.String() + " while (" + d.Condition.String() + ");"
}

// CatchClause is the `catch (param) body` part of a TryCatchStmt; Param is
// empty when the parameter is omitted (`catch { ... }`).
type CatchClause struct {
	Token   lexer.Token
	Param   string
	TypeAnn TypeExpr
	Body    *BlockStmt
}

// TryCatchStmt is `try body catch (e) handler finally final`. Catch and
// Final are independently optional, but at least one must be present.
type TryCatchStmt struct {
	Token   lexer.Token
	Body    *BlockStmt
	Catch   *CatchClause
	Finally *BlockStmt
}

func (t *TryCatchStmt) stmtNode()            {}
func (t *TryCatchStmt) Pos() lexer.Position  { return t.Token.Pos }
func (t *TryCatchStmt) TokenLiteral() string { return t.Token.Literal }
func (t *TryCatchStmt) String() string {
	var out strings.Builder
	out.WriteString("try " + t.Body.String())
	if t.Catch != nil {
		out.WriteString(" catch (" + t.Catch.Param + ") " + t.Catch.Body.String())
	}
	if t.Finally != nil {
		out.WriteString(" finally " + t.Finally.String())
	}
	return out.String()
}

// ThrowStmt is `throw expr;`.
type ThrowStmt struct {
	Token lexer.Token
	Value Expr
}

func (t *ThrowStmt) stmtNode()            {}
func (t *ThrowStmt) Pos() lexer.Position  { return t.Token.Pos }
func (t *ThrowStmt) TokenLiteral() string { return t.Token.Literal }
func (t *ThrowStmt) String() string       { return "throw " + t.Value.String() + ";" }

// ReturnStmt is `return expr;` (Value is nil for a bare `return;`).
type ReturnStmt struct {
	Token lexer.Token
	Value Expr
}

func (r *ReturnStmt) stmtNode()            {}
func (r *ReturnStmt) Pos() lexer.Position  { return r.Token.Pos }
func (r *ReturnStmt) TokenLiteral() string { return r.Token.Literal }
func (r *ReturnStmt) String() string {
	if r.Value == nil {
		return "return;"
	}
	return "return " + r.Value.String() + ";"
}

// BreakStmt is `break;` or `break label;`.
type BreakStmt struct {
	Token lexer.Token
	Label string
}

func (b *BreakStmt) stmtNode()            {}
func (b *BreakStmt) Pos() lexer.Position  { return b.Token.Pos }
func (b *BreakStmt) TokenLiteral() string { return b.Token.Literal }
func (b *BreakStmt) String() string {
	if b.Label == "" {
		return "break;"
	}
	return "break " + b.Label + ";"
}

// ContinueStmt is `continue;` or `continue label;`.
type ContinueStmt struct {
	Token lexer.Token
	Label string
}

func (c *ContinueStmt) stmtNode()            {}
func (c *ContinueStmt) Pos() lexer.Position  { return c.Token.Pos }
func (c *ContinueStmt) TokenLiteral() string { return c.Token.Literal }
func (c *ContinueStmt) String() string {
	if c.Label == "" {
		return "continue;"
	}
	return "continue " + c.Label + ";"
}

// SwitchCase is one `case expr:` or `default:` arm of a SwitchStmt.
type SwitchCase struct {
	Test Expr // nil for the default case
	Body []Stmt
}

// SwitchStmt is `switch (disc) { case ...: ... default: ... }`.
type SwitchStmt struct {
	Token        lexer.Token
	Discriminant Expr
	Cases        []*SwitchCase
}

func (s *SwitchStmt) stmtNode()            {}
func (s *SwitchStmt) Pos() lexer.Position  { return s.Token.Pos }
func (s *SwitchStmt) TokenLiteral() string { return s.Token.Literal }
func (s *SwitchStmt) String() string {
	var out strings.Builder
	out.WriteString("switch (" + s.Discriminant.String() + ") {\n")
	for _, c := range s.Cases {
		if c.Test != nil {
			out.WriteString("case " + c.Test.String() + ":\n")
		} else {
			out.WriteString("default:\n")
		}
		out.WriteString("  " + joinStmts(c.Body, "\n  ") + "\n")
	}
	out.WriteString("}")
	return out.String()
}

// ImportStmt is `import { a as b, c } from "spec"` or `import Default from
// "spec"` or `import * as ns from "spec"`; Specifiers holds the named
// bindings, Default/Namespace are set for those forms.
type ImportStmt struct {
	Token      lexer.Token
	Specifiers []*ImportSpec
	Default    string
	Namespace  string
	Source     string
	SideEffect bool // true for `import "spec";` with no bindings
}

func (i *ImportStmt) stmtNode()            {}
func (i *ImportStmt) Pos() lexer.Position  { return i.Token.Pos }
func (i *ImportStmt) TokenLiteral() string { return i.Token.Literal }
func (i *ImportStmt) String() string {
	if i.SideEffect {
		return "import " + quoteStr(i.Source) + ";"
	}
	var parts []string
	if i.Default != "" {
		parts = append(parts, i.Default)
	}
	if i.Namespace != "" {
		parts = append(parts, "* as "+i.Namespace)
	}
	if len(i.Specifiers) > 0 {
		names := make([]string, len(i.Specifiers))
		for idx, s := range i.Specifiers {
			names[idx] = s.String()
		}
		parts = append(parts, "{ "+strings.Join(names, ", ")+" }")
	}
	return "import " + strings.Join(parts, ", ") + " from " + quoteStr(i.Source) + ";"
}

func quoteStr(s string) string { return "\"" + s + "\"" }

// ImportRequireStmt is the CommonJS-interop form `import x = require("m")`.
type ImportRequireStmt struct {
	Token  lexer.Token
	Name   string
	Source string
}

func (i *ImportRequireStmt) stmtNode()            {}
func (i *ImportRequireStmt) Pos() lexer.Position  { return i.Token.Pos }
func (i *ImportRequireStmt) TokenLiteral() string { return i.Token.Literal }
func (i *ImportRequireStmt) String() string {
	return "import " + i.Name + " = require(" + quoteStr(i.Source) + ");"
}

// ExportStmt wraps a declaration exported from the current module
// (`export const x = 1;`), re-exports named bindings from another module
// (`export { a, b } from "./m"`), or marks a default export.
type ExportStmt struct {
	Token       lexer.Token
	Decl        Stmt // non-nil for `export <decl>`
	Specifiers  []*ImportSpec
	Source      string // non-empty for re-exports
	IsDefault   bool
	DefaultExpr Expr // non-nil for `export default <expr>`
}

func (e *ExportStmt) stmtNode()            {}
func (e *ExportStmt) Pos() lexer.Position  { return e.Token.Pos }
func (e *ExportStmt) TokenLiteral() string { return e.Token.Literal }
func (e *ExportStmt) String() string {
	if e.Decl != nil {
		return "export " + e.Decl.String()
	}
	if e.DefaultExpr != nil {
		return "export default " + e.DefaultExpr.String() + ";"
	}
	names := make([]string, len(e.Specifiers))
	for i, s := range e.Specifiers {
		names[i] = s.String()
	}
	out := "export { " + strings.Join(names, ", ") + " }"
	if e.Source != "" {
		out += " from " + quoteStr(e.Source)
	}
	return out + ";"
}

// UsingStmt is `using x = expr;` / `await using x = expr;`, binding a
// disposable resource released at scope exit via `Symbol.dispose` /
// `Symbol.asyncDispose`.
type UsingStmt struct {
	Token       lexer.Token
	Name        string
	Initializer Expr
	IsAwait     bool
}

func (u *UsingStmt) stmtNode()            {}
func (u *UsingStmt) Pos() lexer.Position  { return u.Token.Pos }
func (u *UsingStmt) TokenLiteral() string { return u.Token.Literal }
func (u *UsingStmt) String() string {
	prefix := "using"
	if u.IsAwait {
		prefix = "await using"
	}
	return prefix + " " + u.Name + " = " + u.Initializer.String() + ";"
}
