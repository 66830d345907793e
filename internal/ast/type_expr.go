package ast

import (
	"strings"

	"github.com/tsnc-lang/tsnc/internal/lexer"
)

// TypeExpr is the parsed form of a type annotation, consumed by the type
// checker (which resolves it to a TypeInfo). Parsing type syntax into its
// own small AST — rather than re-using Expr — keeps the expression grammar
// free of type-level constructs like `|`, `&`, and generic argument lists.
type TypeExpr interface {
	Node
	typeExprNode()
}

// PrimitiveTypeExpr is a built-in primitive name: number, string, boolean,
// null, undefined, void, bigint, symbol, any, unknown, never, object.
type PrimitiveTypeExpr struct {
	Token lexer.Token
	Name  string
}

func (t *PrimitiveTypeExpr) typeExprNode()        {}
func (t *PrimitiveTypeExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *PrimitiveTypeExpr) TokenLiteral() string { return t.Token.Literal }
func (t *PrimitiveTypeExpr) String() string       { return t.Name }

// TypeRefExpr references a named type (class, interface, enum, type alias,
// or generic type parameter), with optional generic type arguments:
// `Box<string>`, `MyEnum`, `T`.
type TypeRefExpr struct {
	Token    lexer.Token
	Name     string
	TypeArgs []TypeExpr
}

func (t *TypeRefExpr) typeExprNode()        {}
func (t *TypeRefExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *TypeRefExpr) TokenLiteral() string { return t.Token.Literal }
func (t *TypeRefExpr) String() string {
	if len(t.TypeArgs) == 0 {
		return t.Name
	}
	parts := make([]string, len(t.TypeArgs))
	for i, a := range t.TypeArgs {
		parts[i] = a.String()
	}
	return t.Name + "<" + strings.Join(parts, ", ") + ">"
}

// ArrayTypeExpr is `Elem[]`.
type ArrayTypeExpr struct {
	Token lexer.Token
	Elem  TypeExpr
}

func (t *ArrayTypeExpr) typeExprNode()        {}
func (t *ArrayTypeExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *ArrayTypeExpr) TokenLiteral() string { return t.Token.Literal }
func (t *ArrayTypeExpr) String() string       { return t.Elem.String() + "[]" }

// TupleTypeExpr is `[A, B, ...C[]]`.
type TupleTypeExpr struct {
	Token lexer.Token
	Elems []TypeExpr
	Rest  TypeExpr // non-nil when the tuple has a trailing `...T[]`
}

func (t *TupleTypeExpr) typeExprNode()        {}
func (t *TupleTypeExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *TupleTypeExpr) TokenLiteral() string { return t.Token.Literal }
func (t *TupleTypeExpr) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	if t.Rest != nil {
		parts = append(parts, "..."+t.Rest.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnionTypeExpr is `A | B | C`.
type UnionTypeExpr struct {
	Token lexer.Token
	Alts  []TypeExpr
}

func (t *UnionTypeExpr) typeExprNode()        {}
func (t *UnionTypeExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *UnionTypeExpr) TokenLiteral() string { return t.Token.Literal }
func (t *UnionTypeExpr) String() string {
	parts := make([]string, len(t.Alts))
	for i, a := range t.Alts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

// RecordTypeExpr is an inline object type: `{ name: string; age?: number }`.
type RecordTypeExpr struct {
	Token  lexer.Token
	Fields []*RecordTypeField
}

// RecordTypeField is one member of a RecordTypeExpr.
type RecordTypeField struct {
	Name     string
	TypeAnn  TypeExpr
	Optional bool
	Readonly bool
}

func (t *RecordTypeExpr) typeExprNode()        {}
func (t *RecordTypeExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *RecordTypeExpr) TokenLiteral() string { return t.Token.Literal }
func (t *RecordTypeExpr) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		parts[i] = f.Name + opt + ": " + f.TypeAnn.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// FunctionTypeExpr is `(a: number, ...b: string[]) => void`.
type FunctionTypeExpr struct {
	Token      lexer.Token
	Params     []*Parameter
	ReturnType TypeExpr
}

func (t *FunctionTypeExpr) typeExprNode()        {}
func (t *FunctionTypeExpr) Pos() lexer.Position  { return t.Token.Pos }
func (t *FunctionTypeExpr) TokenLiteral() string { return t.Token.Literal }
func (t *FunctionTypeExpr) String() string {
	return "(" + joinParams(t.Params) + ") => " + t.ReturnType.String()
}
