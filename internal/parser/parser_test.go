package parser

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
)

func testParse(t *testing.T, input string) *ast.Program {
	t.Helper()
	l := lexer.New(input)
	p := New(l, "test.ts", input)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %s", err.Error())
	}
	return prog
}

func TestParse_VarDecl(t *testing.T) {
	tests := []struct {
		input string
		kind  ast.VarKind
	}{
		{"var x = 1;", ast.VarVar},
		{"let y = 2;", ast.VarLet},
		{"const z = 3;", ast.VarConst},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := testParse(t, tt.input)
			if len(prog.Statements) != 1 {
				t.Fatalf("got %d statements, want 1", len(prog.Statements))
			}
			decl, ok := prog.Statements[0].(*ast.VarDecl)
			if !ok {
				t.Fatalf("statement is %T, want *ast.VarDecl", prog.Statements[0])
			}
			if decl.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", decl.Kind, tt.kind)
			}
		})
	}
}

func TestParse_NumberLiterals(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"5;", 5},
		{"3.14;", 3.14},
		{"0xFF;", 255},
		{"0o17;", 15},
		{"0b101;", 5},
		{"1_000_000;", 1000000},
		{"1.5e2;", 150},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			prog := testParse(t, tt.input)
			stmt, ok := prog.Statements[0].(*ast.ExpressionStmt)
			if !ok {
				t.Fatalf("statement is %T, want *ast.ExpressionStmt", prog.Statements[0])
			}
			lit, ok := stmt.Expr.(*ast.NumberLiteral)
			if !ok {
				t.Fatalf("expr is %T, want *ast.NumberLiteral", stmt.Expr)
			}
			if lit.Value != tt.expected {
				t.Errorf("value = %v, want %v", lit.Value, tt.expected)
			}
		})
	}
}

func TestParse_BinaryPrecedence(t *testing.T) {
	prog := testParse(t, "1 + 2 * 3;")
	stmt := prog.Statements[0].(*ast.ExpressionStmt)
	bin, ok := stmt.Expr.(*ast.Binary)
	if !ok {
		t.Fatalf("expr is %T, want *ast.Binary", stmt.Expr)
	}
	if bin.Operator != "+" {
		t.Fatalf("top operator = %q, want +", bin.Operator)
	}
	right, ok := bin.Right.(*ast.Binary)
	if !ok || right.Operator != "*" {
		t.Fatalf("right side = %#v, want * binary", bin.Right)
	}
}

func TestParse_ArrowFunctionVsParenExpr(t *testing.T) {
	prog := testParse(t, "const f = (a, b) => a + b;")
	decl := prog.Statements[0].(*ast.VarDecl)
	arrow, ok := decl.Initializer.(*ast.ArrowFunction)
	if !ok {
		t.Fatalf("init is %T, want *ast.ArrowFunction", decl.Initializer)
	}
	if len(arrow.Params) != 2 {
		t.Fatalf("got %d params, want 2", len(arrow.Params))
	}
	if arrow.ExprBody == nil {
		t.Fatalf("expected expression body")
	}
}

func TestParse_ParenthesizedExpressionNotArrow(t *testing.T) {
	prog := testParse(t, "(1 + 2) * 3;")
	stmt := prog.Statements[0].(*ast.ExpressionStmt)
	if _, ok := stmt.Expr.(*ast.Binary); !ok {
		t.Fatalf("expr is %T, want *ast.Binary", stmt.Expr)
	}
}

func TestParse_TemplateLiteralWithHoles(t *testing.T) {
	prog := testParse(t, "const s = `a${1}b${2}c`;")
	decl := prog.Statements[0].(*ast.VarDecl)
	tmpl, ok := decl.Initializer.(*ast.TemplateLiteral)
	if !ok {
		t.Fatalf("init is %T, want *ast.TemplateLiteral", decl.Initializer)
	}
	if len(tmpl.Quasis) != 3 {
		t.Fatalf("got %d quasis, want 3", len(tmpl.Quasis))
	}
	if len(tmpl.Exprs) != 2 {
		t.Fatalf("got %d exprs, want 2", len(tmpl.Exprs))
	}
}

func TestParse_IfElse(t *testing.T) {
	prog := testParse(t, "if (x) { y(); } else { z(); }")
	stmt, ok := prog.Statements[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.IfStmt", prog.Statements[0])
	}
	if stmt.Alt == nil {
		t.Fatalf("expected else branch")
	}
}

func TestParse_ForOf(t *testing.T) {
	prog := testParse(t, "for (const x of xs) { console.log(x); }")
	stmt, ok := prog.Statements[0].(*ast.ForOfStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ForOfStmt", prog.Statements[0])
	}
	if stmt.IsAwait {
		t.Errorf("expected non-await for-of")
	}
}

func TestParse_ClassDeclaration(t *testing.T) {
	src := `
class Animal {
  private name: string;
  constructor(name: string) { this.name = name; }
  get label(): string { return this.name; }
  speak(): string { return this.name; }
}
`
	prog := testParse(t, src)
	decl, ok := prog.Statements[0].(*ast.ClassDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ClassDecl", prog.Statements[0])
	}
	if decl.Name != "Animal" {
		t.Errorf("name = %q, want Animal", decl.Name)
	}
	var sawGetter, sawMethod, sawField bool
	for _, f := range decl.Fields {
		switch {
		case f.Accessor != nil:
			sawGetter = true
		case f.Name == "speak" && f.Method != nil:
			sawMethod = true
		case f.Name == "name" && f.Access == ast.AccessPrivate:
			sawField = true
		}
	}
	if !sawGetter || !sawMethod || !sawField {
		t.Errorf("missing expected class members: getter=%v method=%v field=%v", sawGetter, sawMethod, sawField)
	}
}

func TestParse_ClassExtendsImplements(t *testing.T) {
	prog := testParse(t, "class Dog extends Animal implements Speaker {}")
	decl := prog.Statements[0].(*ast.ClassDecl)
	if decl.SuperClass == nil {
		t.Fatalf("expected super class")
	}
	if len(decl.Implements) != 1 {
		t.Fatalf("got %d implements clauses, want 1", len(decl.Implements))
	}
}

func TestParse_EnumDeclaration(t *testing.T) {
	prog := testParse(t, "enum Color { Red, Green, Blue = 5 }")
	decl, ok := prog.Statements[0].(*ast.EnumDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.EnumDecl", prog.Statements[0])
	}
	if len(decl.Members) != 3 {
		t.Fatalf("got %d members, want 3", len(decl.Members))
	}
	if decl.Members[2].Value == nil {
		t.Errorf("expected explicit value for Blue")
	}
}

func TestParse_ConstEnum(t *testing.T) {
	prog := testParse(t, "const enum Flags { A, B }")
	decl, ok := prog.Statements[0].(*ast.EnumDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.EnumDecl", prog.Statements[0])
	}
	if !decl.IsConst {
		t.Errorf("expected IsConst = true")
	}
}

func TestParse_NamespaceDeclaration(t *testing.T) {
	prog := testParse(t, "namespace Util { export function id(x) { return x; } }")
	decl, ok := prog.Statements[0].(*ast.NamespaceDecl)
	if !ok {
		t.Fatalf("statement is %T, want *ast.NamespaceDecl", prog.Statements[0])
	}
	if decl.Name != "Util" {
		t.Errorf("name = %q, want Util", decl.Name)
	}
	if len(decl.Body) != 1 {
		t.Fatalf("got %d body statements, want 1", len(decl.Body))
	}
}

func TestParse_ImportNamedAndDefault(t *testing.T) {
	prog := testParse(t, `import Foo, { bar as baz } from "./mod";`)
	stmt, ok := prog.Statements[0].(*ast.ImportStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ImportStmt", prog.Statements[0])
	}
	if stmt.Default != "Foo" {
		t.Errorf("default = %q, want Foo", stmt.Default)
	}
	if len(stmt.Specifiers) != 1 || stmt.Specifiers[0].Imported != "bar" || stmt.Specifiers[0].Local != "baz" {
		t.Fatalf("unexpected specifiers: %#v", stmt.Specifiers)
	}
	if stmt.Source != "./mod" {
		t.Errorf("source = %q, want ./mod", stmt.Source)
	}
}

func TestParse_ImportNamespace(t *testing.T) {
	prog := testParse(t, `import * as util from "./util";`)
	stmt := prog.Statements[0].(*ast.ImportStmt)
	if stmt.Namespace != "util" {
		t.Errorf("namespace = %q, want util", stmt.Namespace)
	}
}

func TestParse_ExportNamed(t *testing.T) {
	prog := testParse(t, `export { a, b as c };`)
	stmt, ok := prog.Statements[0].(*ast.ExportStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.ExportStmt", prog.Statements[0])
	}
	if len(stmt.Specifiers) != 2 {
		t.Fatalf("got %d specifiers, want 2", len(stmt.Specifiers))
	}
}

func TestParse_ExportDefaultFunction(t *testing.T) {
	prog := testParse(t, `export default function f() { return 1; }`)
	stmt := prog.Statements[0].(*ast.ExportStmt)
	if !stmt.IsDefault {
		t.Errorf("expected IsDefault = true")
	}
	if _, ok := stmt.Decl.(*ast.FunctionDecl); !ok {
		t.Fatalf("decl is %T, want *ast.FunctionDecl", stmt.Decl)
	}
}

func TestParse_TryCatchFinally(t *testing.T) {
	prog := testParse(t, "try { a(); } catch (e) { b(); } finally { c(); }")
	stmt, ok := prog.Statements[0].(*ast.TryCatchStmt)
	if !ok {
		t.Fatalf("statement is %T, want *ast.TryCatchStmt", prog.Statements[0])
	}
	if stmt.Catch == nil {
		t.Fatalf("expected catch clause")
	}
	if stmt.Finally == nil {
		t.Fatalf("expected finally block")
	}
}

func TestParse_TypeAnnotationsRetained(t *testing.T) {
	prog := testParse(t, `
interface Point { x: number; y: number; }
type ID = string | number;
let p: Point;
`)
	if len(prog.Statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(prog.Statements))
	}
	decl, ok := prog.Statements[2].(*ast.VarDecl)
	if !ok {
		t.Fatalf("third statement is %T, want *ast.VarDecl", prog.Statements[2])
	}
	if decl.TypeAnn == nil {
		t.Errorf("expected type annotation on p")
	}
}

func TestParse_UnionAndArrayTypes(t *testing.T) {
	prog := testParse(t, "let xs: number[] | string[];")
	decl := prog.Statements[0].(*ast.VarDecl)
	union, ok := decl.TypeAnn.(*ast.UnionTypeExpr)
	if !ok {
		t.Fatalf("type is %T, want *ast.UnionTypeExpr", decl.TypeAnn)
	}
	if len(union.Alts) != 2 {
		t.Fatalf("got %d union members, want 2", len(union.Alts))
	}
	if _, ok := union.Alts[0].(*ast.ArrayTypeExpr); !ok {
		t.Fatalf("first alt is %T, want *ast.ArrayTypeExpr", union.Alts[0])
	}
}

func TestParse_RegexVsDivide(t *testing.T) {
	prog := testParse(t, "const r = /ab+c/g;")
	decl := prog.Statements[0].(*ast.VarDecl)
	if _, ok := decl.Initializer.(*ast.RegexLiteral); !ok {
		t.Fatalf("init is %T, want *ast.RegexLiteral", decl.Initializer)
	}

	prog2 := testParse(t, "const d = a / b / c;")
	decl2 := prog2.Statements[0].(*ast.VarDecl)
	if _, ok := decl2.Initializer.(*ast.Binary); !ok {
		t.Fatalf("init is %T, want *ast.Binary", decl2.Initializer)
	}
}

func TestParse_OptionalChainingAndNullish(t *testing.T) {
	prog := testParse(t, "const v = a?.b?.c ?? 0;")
	decl := prog.Statements[0].(*ast.VarDecl)
	logical, ok := decl.Initializer.(*ast.Logical)
	if !ok {
		t.Fatalf("init is %T, want *ast.Logical", decl.Initializer)
	}
	if logical.Operator != "??" {
		t.Errorf("operator = %q, want ??", logical.Operator)
	}
}

func TestParse_InvalidAssignTargetIsParseError(t *testing.T) {
	l := lexer.New("1 + 1 = 2;")
	p := New(l, "test.ts", "1 + 1 = 2;")
	_, err := p.Parse()
	if err == nil {
		t.Fatalf("expected a parse error for an invalid assignment target")
	}
}
