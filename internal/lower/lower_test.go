package lower

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/parser"
)

// analyzeFirstFunction parses src and analyzes its first top-level
// function declaration.
func analyzeFirstFunction(t *testing.T, kind Kind, src string) *StateMachine {
	t.Helper()
	prog, err := parser.New(lexer.New(src), "test.ts", src).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	for _, stmt := range prog.Statements {
		if fd, ok := stmt.(*ast.FunctionDecl); ok {
			return Analyze(kind, false, fd.Function.Params, fd.Function.Body)
		}
	}
	t.Fatal("no function declaration in source")
	return nil
}

func TestSuspensionCountCountsAwaitYieldAndDelegation(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		src  string
		want int
	}{
		{"single await", Async, `async function f(p) { await p; }`, 1},
		{"awaits in branches", Async, `
			async function f(a, b, flag) {
				if (flag) {
					await a;
				} else {
					await b;
				}
				await a;
			}`, 3},
		{"yields and delegation", Generator, `
			function* g(inner) {
				yield 1;
				yield* inner;
				yield 2;
			}`, 3},
		{"no suspensions", Normal, `function f(x) { return x + 1; }`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sm := analyzeFirstFunction(t, tt.kind, tt.src)
			if sm.SuspensionCount != tt.want {
				t.Errorf("SuspensionCount = %d, want %d", sm.SuspensionCount, tt.want)
			}
		})
	}
}

func TestCapturesExcludeParamsAndLocals(t *testing.T) {
	sm := analyzeFirstFunction(t, Async, `
		async function f(p) {
			var local = 1;
			await outerA;
			var sum = local + p + outerB + outerA;
		}`)
	if len(sm.Captures) != 2 || sm.Captures[0] != "outerA" || sm.Captures[1] != "outerB" {
		t.Errorf("Captures = %v", sm.Captures)
	}
}

func TestBlockScopedBindingsRestoreOnExit(t *testing.T) {
	sm := analyzeFirstFunction(t, Normal, `
		function f() {
			{
				var shadowed = 1;
				use(shadowed);
			}
			use(shadowed2);
		}`)
	// `shadowed` is bound inside the block; `shadowed2` and `use` are
	// free. (The walker's block scoping is a snapshot/restore pair.)
	want := map[string]bool{"use": true, "shadowed2": true}
	for _, c := range sm.Captures {
		if !want[c] {
			t.Errorf("unexpected capture %q", c)
		}
		delete(want, c)
	}
	for missing := range want {
		t.Errorf("missing capture %q", missing)
	}
}

func TestNestedArrowSurfacesOuterCapturesOnly(t *testing.T) {
	sm := analyzeFirstFunction(t, Async, `
		async function f(items) {
			var local = 0;
			items.forEach((item) => {
				local = local + item + outer;
			});
			await done;
		}`)
	got := map[string]bool{}
	for _, c := range sm.Captures {
		got[c] = true
	}
	if !got["outer"] || !got["done"] {
		t.Errorf("Captures = %v", sm.Captures)
	}
	if got["item"] || got["local"] || got["items"] {
		t.Errorf("bound names leaked into captures: %v", sm.Captures)
	}
}

func TestAsyncArrowRecordsThisCapture(t *testing.T) {
	src := `async function host() { await p; }`
	prog, err := parser.New(lexer.New(src), "test.ts", src).Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	fd := prog.Statements[0].(*ast.FunctionDecl)
	// Re-analyze the same body as if it were an async arrow: `this`
	// references inside arrows ride the capture set.
	body := &ast.BlockStmt{
		Statements: []ast.Stmt{
			&ast.ExpressionStmt{Expr: &ast.ThisExpr{}},
			fd.Function.Body.Statements[0],
		},
	}
	sm := Analyze(Async, true, nil, body)
	if !sm.IsAsyncArrow {
		t.Error("IsAsyncArrow not set for async arrow analysis")
	}
	if !sm.CapturesThis {
		t.Error("CapturesThis not recorded for `this` in arrow body")
	}
	if sm.SuspensionCount != 1 {
		t.Errorf("SuspensionCount = %d", sm.SuspensionCount)
	}
}
