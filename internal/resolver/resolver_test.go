package resolver

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/parser"
)

func parseProgram(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l, "test.ts", src)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func TestResolveLocalVariableDistance(t *testing.T) {
	prog := parseProgram(t, `
		function outer() {
			let x = 1;
			function inner() {
				return x;
			}
			return inner();
		}
	`)
	r := New("", "")
	if errs := r.Resolve(prog); len(errs) > 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	fn := prog.Statements[0].(*ast.FunctionDecl).Function
	block := fn.Body
	innerDecl := block.Statements[1].(*ast.FunctionDecl).Function
	ret := innerDecl.Body.Statements[0].(*ast.ReturnStmt)
	ident := ret.Value.(*ast.Identifier)
	// inner's body block -> inner's function scope -> outer's body block.
	if ident.ResolvedDistance != 2 {
		t.Fatalf("expected scope distance 2, got %d", ident.ResolvedDistance)
	}
}

func TestResolveGlobalLeavesDistanceUnset(t *testing.T) {
	prog := parseProgram(t, `console.log(missingGlobal);`)
	r := New("", "")
	if errs := r.Resolve(prog); len(errs) > 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
	exprStmt := prog.Statements[0].(*ast.ExpressionStmt)
	call := exprStmt.Expr.(*ast.Call)
	ident := call.Args[0].(*ast.Identifier)
	if ident.ResolvedDistance != -1 {
		t.Fatalf("expected unresolved global to keep distance -1, got %d", ident.ResolvedDistance)
	}
}

func TestTemporalDeadZoneDetected(t *testing.T) {
	prog := parseProgram(t, `
		{
			let x = x;
		}
	`)
	r := New("", "")
	errs := r.Resolve(prog)
	if len(errs) == 0 {
		t.Fatal("expected a TDZ resolve error")
	}
}

func TestArrowFunctionDoesNotBindThis(t *testing.T) {
	prog := parseProgram(t, `
		class C {
			method() {
				const f = () => this;
				return f;
			}
		}
	`)
	r := New("", "")
	if errs := r.Resolve(prog); len(errs) > 0 {
		t.Fatalf("unexpected resolve errors: %v", errs)
	}
}
