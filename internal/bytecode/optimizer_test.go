package bytecode

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/runtime"
)

func countOps(chunk *Chunk, op OpCode) int {
	n := 0
	for _, proto := range chunk.FunctionProtos {
		for _, instr := range proto.Code {
			if instr.Op == op {
				n++
			}
		}
	}
	return n
}

func TestNumericConstantFolding(t *testing.T) {
	chunk, cerr := Compile(mustParse(t, `var x = 2 + 3;`))
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	Optimize(chunk)
	if countOps(chunk, OpAdd) != 0 {
		t.Error("OpAdd survived folding")
	}
	found := false
	for _, c := range chunk.Constants {
		if c == float64(5) {
			found = true
		}
	}
	if !found {
		t.Error("folded constant 5 not in pool")
	}
}

// Folding must use the runtime's JS coercion, not Go addition: string
// plus number concatenates.
func TestFoldingUsesJsCoercion(t *testing.T) {
	chunk, cerr := Compile(mustParse(t, `var x = "a" + 1;`))
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	Optimize(chunk)
	found := false
	for _, c := range chunk.Constants {
		if c == "a1" {
			found = true
		}
	}
	if !found {
		t.Error("expected folded constant \"a1\"")
	}
}

func TestFoldingSkipsJumpTargets(t *testing.T) {
	// The loop condition's operand sequence is a jump target every
	// iteration; folding across it would corrupt the loop.
	src := `
		var n = 0;
		while (n < 3) {
			n = n + 1;
		}
	`
	chunk, cerr := Compile(mustParse(t, src))
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	Optimize(chunk)
	vm := NewVM(chunk)
	if _, err := vm.Run(); err != nil {
		t.Fatalf("optimized program failed: %v", err)
	}
	if vm.Globals["n"] != float64(3) {
		t.Errorf("n = %v", vm.Globals["n"])
	}
}

// Parity: the same program runs identically with the optimizer on and
// off. This is the regression net for every folding rule.
func TestOptimizerParity(t *testing.T) {
	sources := []struct {
		name string
		src  string
	}{
		{"constant arithmetic", `var r = 2 * 3 + 4 - 1;`},
		{"string building", `var r = "x" + 1 + 2;`},
		{"comparisons", `var r = (1 < 2) === true;`},
		{"branches", `
			var r = "";
			if (2 + 2 === 4) {
				r = "yes";
			} else {
				r = "no";
			}
		`},
		{"loop with folded bound", `
			var r = 0;
			for (var i = 0; i < 2 + 2; i = i + 1) {
				r = r + i;
			}
		`},
		{"closures over folded values", `
			function make() {
				var base = 10 + 5;
				return function (n) {
					return base + n;
				};
			}
			var r = make()(1);
		`},
	}
	for _, tt := range sources {
		t.Run(tt.name, func(t *testing.T) {
			plain, cerr := Compile(mustParse(t, tt.src))
			if cerr != nil {
				t.Fatalf("compile error: %v", cerr)
			}
			optimized, cerr := Compile(mustParse(t, tt.src))
			if cerr != nil {
				t.Fatalf("compile error: %v", cerr)
			}
			Optimize(optimized)

			vmPlain := NewVM(plain)
			if _, err := vmPlain.Run(); err != nil {
				t.Fatalf("plain run: %v", err)
			}
			vmOpt := NewVM(optimized)
			if _, err := vmOpt.Run(); err != nil {
				t.Fatalf("optimized run: %v", err)
			}
			if !runtime.StrictEquals(vmPlain.Globals["r"], vmOpt.Globals["r"]) {
				t.Errorf("parity broken: plain=%v optimized=%v", vmPlain.Globals["r"], vmOpt.Globals["r"])
			}
		})
	}
}

func TestDeadJumpElision(t *testing.T) {
	proto := &FunctionProto{Code: []Instruction{
		{Op: OpJump, A: 1},
		{Op: OpLoadUndefined},
		{Op: OpReturn},
	}}
	chunk := &Chunk{FunctionProtos: []*FunctionProto{proto}}
	Optimize(chunk)
	if proto.Code[0].Op != OpNop {
		t.Error("jump-to-next not elided")
	}
}
