package bytecode

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/parser"
	"github.com/tsnc-lang/tsnc/internal/runtime"
)

func mustParse(t *testing.T, src string) *ast.Program {
	t.Helper()
	l := lexer.New(src)
	p := parser.New(l, "test.ts", src)
	prog, err := p.Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return prog
}

func runSource(t *testing.T, src string) interface{} {
	t.Helper()
	prog := mustParse(t, src)
	chunk, cerr := Compile(prog)
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	vm := NewVM(chunk)
	result, err := vm.Run()
	if err != nil {
		t.Fatalf("runtime error: %v", err)
	}
	return result
}

func TestArithmeticExpressionStatement(t *testing.T) {
	chunk, cerr := Compile(mustParse(t, "let x = 1 + 2 * 3;"))
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	vm := NewVM(chunk)
	if _, err := vm.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
}

func TestIfElseBranchesTakeTheRightPath(t *testing.T) {
	vm := compileAndRun(t, `
		var result = "";
		if (1 < 2) {
			result = "then";
		} else {
			result = "else";
		}
	`)
	if vm.Globals["result"] != "then" {
		t.Errorf("got %v", vm.Globals["result"])
	}
}

func TestWhileLoopAccumulates(t *testing.T) {
	vm := compileAndRun(t, `
		var i = 0;
		var sum = 0;
		while (i < 5) {
			sum = sum + i;
			i = i + 1;
		}
	`)
	if vm.Globals["sum"] != float64(10) {
		t.Errorf("got %v", vm.Globals["sum"])
	}
}

func TestForLoopWithBreakAndContinue(t *testing.T) {
	vm := compileAndRun(t, `
		var total = 0;
		for (var i = 0; i < 10; i = i + 1) {
			if (i === 3) {
				continue;
			}
			if (i === 6) {
				break;
			}
			total = total + i;
		}
	`)
	if vm.Globals["total"] != float64(1+2+4+5) {
		t.Errorf("got %v", vm.Globals["total"])
	}
}

func TestTryCatchRecoversThrownValue(t *testing.T) {
	vm := compileAndRun(t, `
		var caught = "";
		try {
			throw "boom";
		} catch (e) {
			caught = e;
		}
	`)
	if vm.Globals["caught"] != "boom" {
		t.Errorf("got %v", vm.Globals["caught"])
	}
}

func TestClosureCapturesOuterVariableByReference(t *testing.T) {
	vm := compileAndRun(t, `
		function makeCounter() {
			var count = 0;
			function increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		var first = counter();
		var second = counter();
	`)
	if vm.Globals["first"] != float64(1) || vm.Globals["second"] != float64(2) {
		t.Errorf("got first=%v second=%v", vm.Globals["first"], vm.Globals["second"])
	}
}

func TestTemplateLiteralConcatenatesCookedSegments(t *testing.T) {
	vm := compileAndRun(t, "var name = \"world\"; var greeting = `hello ${name}!`;")
	if vm.Globals["greeting"] != "hello world!" {
		t.Errorf("got %v", vm.Globals["greeting"])
	}
}

func TestNullishCoalescingOnlyFallsBackForNullish(t *testing.T) {
	vm := compileAndRun(t, `
		var a = 0 ?? 5;
		var b = null ?? 5;
	`)
	if vm.Globals["a"] != float64(0) {
		t.Errorf("expected 0 ?? 5 to be 0, got %v", vm.Globals["a"])
	}
	if vm.Globals["b"] != float64(5) {
		t.Errorf("expected null ?? 5 to be 5, got %v", vm.Globals["b"])
	}
}

// compileAndRun is a helper for tests that want to inspect the VM's
// Globals after the top-level module body runs (declarations at the
// outermost scope of a plain script compile to OpStoreGlobal, so tests
// read their values back from vm.Globals by name).
func compileAndRun(t *testing.T, src string) *VM {
	t.Helper()
	prog := mustParse(t, src)
	chunk, cerr := Compile(prog)
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	vm := NewVM(chunk)
	if _, err := vm.Run(); err != nil {
		t.Fatalf("run error: %v", err)
	}
	return vm
}

var _ = runtime.Undefined
