// Package ast defines the abstract syntax tree produced by the parser: two
// sum types, Stmt and Expr, plus the auxiliary records referenced by both
// (Parameter, ClassField, AccessorDef, ImportSpec, PropertyKey,
// ObjectProperty). Every node carries its source position for diagnostics;
// nodes are referentially owned by their parent — nothing is shared.
package ast

import (
	"bytes"
	"strings"

	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// Node is the root interface implemented by every AST node.
type Node interface {
	TokenLiteral() string
	String() string
	Pos() lexer.Position
}

// Expr is any node that produces a value.
type Expr interface {
	Node
	exprNode()
}

// Stmt is any node that performs an action but does not itself produce a
// value (an expression used in statement position is wrapped in
// ExpressionStmt).
type Stmt interface {
	Node
	stmtNode()
}

// Program is the root of a parsed module.
type Program struct {
	Statements []Stmt
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) Pos() lexer.Position {
	if len(p.Statements) > 0 {
		return p.Statements[0].Pos()
	}
	return lexer.Position{Line: 1, Column: 1}
}

func (p *Program) String() string {
	var out bytes.Buffer
	for _, s := range p.Statements {
		out.WriteString(s.String())
		out.WriteString("\n")
	}
	return out.String()
}

// Parameter is a function/method/arrow parameter. Pattern carries a
// destructuring target when Name is empty (object/array pattern);
// ParamDefault holds the initializer for default values.
type Parameter struct {
	Token        lexer.Token
	Name         string
	Pattern      Expr
	TypeAnn      TypeExpr
	ParamDefault Expr
	Rest         bool
	Optional     bool
}

func (p *Parameter) Pos() lexer.Position { return p.Token.Pos }
func (p *Parameter) String() string {
	var out bytes.Buffer
	if p.Rest {
		out.WriteString("...")
	}
	if p.Pattern != nil {
		out.WriteString(p.Pattern.String())
	} else {
		out.WriteString(p.Name)
	}
	if p.Optional {
		out.WriteString("?")
	}
	if p.TypeAnn != nil {
		out.WriteString(": " + p.TypeAnn.String())
	}
	if p.ParamDefault != nil {
		out.WriteString(" = " + p.ParamDefault.String())
	}
	return out.String()
}

// AccessModifier enumerates the TypeScript member visibility modifiers.
type AccessModifier int

const (
	AccessPublic AccessModifier = iota
	AccessPrivate
	AccessProtected
)

// ClassField is a field, method, or accessor member of a class body.
type ClassField struct {
	Token       lexer.Token
	Name        string
	PrivateKey  bool // `#name` field
	TypeAnn     TypeExpr
	Initializer Expr
	Method      *FunctionLiteral // non-nil when this member is a method
	Accessor    *AccessorDef     // non-nil when this member is a get/set accessor
	Access      AccessModifier
	Static      bool
	Readonly    bool
	Abstract    bool
	Decorators  []Expr
}

func (cf *ClassField) Pos() lexer.Position { return cf.Token.Pos }
func (cf *ClassField) String() string {
	var out bytes.Buffer
	if cf.Static {
		out.WriteString("static ")
	}
	out.WriteString(cf.Name)
	if cf.TypeAnn != nil {
		out.WriteString(": " + cf.TypeAnn.String())
	}
	if cf.Initializer != nil {
		out.WriteString(" = " + cf.Initializer.String())
	}
	return out.String()
}

// AccessorDef is a `get`/`set` class member.
type AccessorDef struct {
	Token      lexer.Token
	IsGet      bool // false means this is a setter
	Params     []*Parameter
	ReturnType TypeExpr // getter return annotation, nil when omitted
	Body       *BlockStmt
}

func (ad *AccessorDef) Pos() lexer.Position { return ad.Token.Pos }
func (ad *AccessorDef) String() string {
	kind := "set"
	if ad.IsGet {
		kind = "get"
	}
	return kind + " " + ad.Token.Literal + "(...)"
}

// ImportSpec is one named binding within an import/export clause:
// `import { foo as bar } from "./m"` yields ImportSpec{Imported: "foo",
// Local: "bar"}.
type ImportSpec struct {
	Token    lexer.Token
	Imported string
	Local    string
	TypeOnly bool
}

func (is *ImportSpec) Pos() lexer.Position { return is.Token.Pos }
func (is *ImportSpec) String() string {
	if is.Imported != is.Local {
		return is.Imported + " as " + is.Local
	}
	return is.Local
}

// PropertyKey is the key of an ObjectLiteral/ClassField/ObjectProperty:
// a plain identifier, a literal (string/number), or a computed expression.
type PropertyKey interface {
	Node
	propertyKeyNode()
}

// IdentifierKey is a bare `name:` key.
type IdentifierKey struct {
	Token lexer.Token
	Name  string
}

func (k *IdentifierKey) propertyKeyNode()     {}
func (k *IdentifierKey) Pos() lexer.Position  { return k.Token.Pos }
func (k *IdentifierKey) TokenLiteral() string { return k.Token.Literal }
func (k *IdentifierKey) String() string       { return k.Name }

// LiteralKey is a `"name":` or `123:` key.
type LiteralKey struct {
	Token lexer.Token
	Value Expr
}

func (k *LiteralKey) propertyKeyNode()     {}
func (k *LiteralKey) Pos() lexer.Position  { return k.Token.Pos }
func (k *LiteralKey) TokenLiteral() string { return k.Token.Literal }
func (k *LiteralKey) String() string       { return k.Value.String() }

// ComputedKey is a `[expr]:` key.
type ComputedKey struct {
	Token lexer.Token
	Expr  Expr
}

func (k *ComputedKey) propertyKeyNode()     {}
func (k *ComputedKey) Pos() lexer.Position  { return k.Token.Pos }
func (k *ComputedKey) TokenLiteral() string { return k.Token.Literal }
func (k *ComputedKey) String() string       { return "[" + k.Expr.String() + "]" }

// ObjectProperty is one entry of an ObjectLiteral: a key/value pair, a
// shorthand `{x}`, a spread `{...x}`, or a method/accessor shorthand.
type ObjectProperty struct {
	Token     lexer.Token
	Key       PropertyKey
	Value     Expr
	Shorthand bool
	Spread    bool
	Method    *FunctionLiteral
	Accessor  *AccessorDef
}

func (op *ObjectProperty) Pos() lexer.Position { return op.Token.Pos }
func (op *ObjectProperty) String() string {
	if op.Spread {
		return "..." + op.Value.String()
	}
	if op.Shorthand {
		return op.Key.String()
	}
	return op.Key.String() + ": " + op.Value.String()
}

func joinExprs(exprs []Expr, sep string) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, sep)
}

func joinStmts(stmts []Stmt, sep string) string {
	parts := make([]string, len(stmts))
	for i, s := range stmts {
		parts[i] = s.String()
	}
	return strings.Join(parts, sep)
}

func joinParams(params []*Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}
