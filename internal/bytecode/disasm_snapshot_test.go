package bytecode

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"
)

// The disassembly listings are golden-tested: any emitter change that
// shifts instruction selection shows up as a reviewable snapshot diff.

func disassembleSource(t *testing.T, src string) string {
	t.Helper()
	chunk, cerr := Compile(mustParse(t, src))
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	return Disassemble(chunk)
}

func TestDisassembleArithmetic(t *testing.T) {
	snaps.MatchSnapshot(t, disassembleSource(t, `var x = 1 + 2 * 3;`))
}

func TestDisassembleClosure(t *testing.T) {
	snaps.MatchSnapshot(t, disassembleSource(t, `
function makeAdder(n) {
	return function (x) {
		return x + n;
	};
}
var add2 = makeAdder(2);
`))
}

func TestDisassembleTryCatchFinally(t *testing.T) {
	snaps.MatchSnapshot(t, disassembleSource(t, `
var log = "";
try {
	log = "t";
} catch (e) {
	log = "c";
} finally {
	log = log + "f";
}
`))
}

func TestDisassembleClass(t *testing.T) {
	snaps.MatchSnapshot(t, disassembleSource(t, `
class Greeter {
	name = "world";
	greet() {
		return "hello " + this.name;
	}
}
var g = new Greeter();
`))
}

func TestDisassembleAsyncAwait(t *testing.T) {
	snaps.MatchSnapshot(t, disassembleSource(t, `
async function f(p) {
	var v = await p;
	return v + 1;
}
`))
}

func TestDisassembleOptimizedConstantFold(t *testing.T) {
	chunk, cerr := Compile(mustParse(t, `var x = 2 + 3;`))
	if cerr != nil {
		t.Fatalf("compile error: %v", cerr)
	}
	Optimize(chunk)
	snaps.MatchSnapshot(t, Disassemble(chunk))
}
