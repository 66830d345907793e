package bytecode

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/runtime"
)

func TestAsyncFunctionReturnsPromise(t *testing.T) {
	vm := compileAndRun(t, `
		async function f() {
			return 5;
		}
		var p = f();
	`)
	p, ok := vm.Globals["p"].(*runtime.Promise)
	if !ok {
		t.Fatalf("expected promise, got %T", vm.Globals["p"])
	}
	if p.State != runtime.PromiseFulfilled || p.Value != float64(5) {
		t.Errorf("promise = %v %v", p.State, p.Value)
	}
}

func TestAwaitResumesWithResolvedValue(t *testing.T) {
	vm := compileAndRun(t, `
		async function inner() {
			return 10;
		}
		async function outer() {
			var v = await inner();
			return v + 1;
		}
		var p = outer();
	`)
	p := vm.Globals["p"].(*runtime.Promise)
	if p.State != runtime.PromiseFulfilled || p.Value != float64(11) {
		t.Errorf("promise = %v %v", p.State, p.Value)
	}
}

func TestAsyncThrowRejectsThePromise(t *testing.T) {
	vm := compileAndRun(t, `
		async function f() {
			throw "reason";
		}
		var p = f();
	`)
	p := vm.Globals["p"].(*runtime.Promise)
	if p.State != runtime.PromiseRejected || p.Value != "reason" {
		t.Errorf("promise = %v %v", p.State, p.Value)
	}
}

func TestRejectionCrossesAwaitIntoCatch(t *testing.T) {
	vm := compileAndRun(t, `
		async function f() {
			throw "e";
		}
		async function m() {
			try {
				await f();
				return "not-reached";
			} catch (e) {
				return "caught:" + e;
			}
		}
		var p = m();
	`)
	p := vm.Globals["p"].(*runtime.Promise)
	if p.Value != "caught:e" {
		t.Errorf("got %v", p.Value)
	}
}

func TestGeneratorBodyStartsOnFirstNext(t *testing.T) {
	vm := compileAndRun(t, `
		var started = false;
		function* g() {
			started = true;
			yield 1;
		}
		var gen = g();
		var before = started;
		gen.next();
		var after = started;
	`)
	if vm.Globals["before"] != false || vm.Globals["after"] != true {
		t.Errorf("before=%v after=%v", vm.Globals["before"], vm.Globals["after"])
	}
}

func TestGeneratorYieldsAndCompletes(t *testing.T) {
	vm := compileAndRun(t, `
		function* g() {
			yield "a";
			yield "b";
			return "end";
		}
		var gen = g();
		var r1 = gen.next();
		var r2 = gen.next();
		var r3 = gen.next();
		var v1 = r1.value;
		var d1 = r1.done;
		var v3 = r3.value;
		var d3 = r3.done;
	`)
	if vm.Globals["v1"] != "a" || vm.Globals["d1"] != false {
		t.Errorf("first = %v %v", vm.Globals["v1"], vm.Globals["d1"])
	}
	if vm.Globals["v3"] != "end" || vm.Globals["d3"] != true {
		t.Errorf("final = %v %v", vm.Globals["v3"], vm.Globals["d3"])
	}
}

func TestGeneratorNextValueResumesYieldExpression(t *testing.T) {
	vm := compileAndRun(t, `
		function* echo() {
			var got = yield "ready";
			yield "got:" + got;
		}
		var gen = echo();
		gen.next();
		var second = gen.next("payload").value;
	`)
	if vm.Globals["second"] != "got:payload" {
		t.Errorf("got %v", vm.Globals["second"])
	}
}

func TestGeneratorReturnForcesCompletion(t *testing.T) {
	vm := compileAndRun(t, `
		function* g() {
			yield 1;
			yield 2;
		}
		var gen = g();
		gen.next();
		var r = gen.return("forced");
		var after = gen.next();
		var rv = r.value;
		var rd = r.done;
		var ad = after.done;
	`)
	if vm.Globals["rv"] != "forced" || vm.Globals["rd"] != true || vm.Globals["ad"] != true {
		t.Errorf("rv=%v rd=%v ad=%v", vm.Globals["rv"], vm.Globals["rd"], vm.Globals["ad"])
	}
}

func TestGeneratorThrowDispatchesToEnclosingTry(t *testing.T) {
	vm := compileAndRun(t, `
		function* g() {
			try {
				yield 1;
			} catch (e) {
				yield "handled:" + e;
			}
		}
		var gen = g();
		gen.next();
		var got = gen.throw("oops").value;
	`)
	if vm.Globals["got"] != "handled:oops" {
		t.Errorf("got %v", vm.Globals["got"])
	}
}

func TestYieldStarDelegates(t *testing.T) {
	vm := compileAndRun(t, `
		function* inner() {
			yield 2;
			yield 3;
		}
		function* outer() {
			yield 1;
			yield* inner();
			yield 4;
		}
		var all = "";
		for (var v of outer()) {
			all = all + v + ",";
		}
	`)
	if vm.Globals["all"] != "1,2,3,4," {
		t.Errorf("got %v", vm.Globals["all"])
	}
}

// The §4.6 suspension contract: generator side effects interleave with
// the consuming loop body, one next() per iteration — an eager drain
// would log every g* marker before the first loop* marker.
func TestForOfInterleavesGeneratorBodyWithLoopBody(t *testing.T) {
	vm := compileAndRun(t, `
		var log = "";
		function* g() {
			log = log + "g1;";
			yield 1;
			log = log + "g2;";
			yield 2;
			log = log + "g3;";
		}
		for (var v of g()) {
			log = log + "loop" + v + ";";
		}
	`)
	if vm.Globals["log"] != "g1;loop1;g2;loop2;g3;" {
		t.Errorf("got %v", vm.Globals["log"])
	}
}

func TestForOfBreaksOutOfInfiniteGenerator(t *testing.T) {
	vm := compileAndRun(t, `
		var sum = 0;
		function* naturals() {
			var i = 0;
			while (true) {
				yield i;
				i = i + 1;
			}
		}
		for (var n of naturals()) {
			if (n > 3) {
				break;
			}
			sum = sum + n;
		}
	`)
	if vm.Globals["sum"] != float64(6) {
		t.Errorf("sum = %v", vm.Globals["sum"])
	}
}

func TestYieldStarDelegatesLazily(t *testing.T) {
	vm := compileAndRun(t, `
		var log = "";
		function* inner() {
			log = log + "i1;";
			yield "a";
			log = log + "i2;";
			yield "b";
		}
		function* outer() {
			yield* inner();
		}
		var gen = outer();
		log = log + "start;";
		gen.next();
		log = log + "mid;";
		gen.next();
		log = log + "end;";
	`)
	if vm.Globals["log"] != "start;i1;mid;i2;end;" {
		t.Errorf("got %v", vm.Globals["log"])
	}
}

func TestYieldStarForwardsResumeValues(t *testing.T) {
	vm := compileAndRun(t, `
		function* inner() {
			var got = yield "ready";
			yield "inner-got:" + got;
		}
		function* outer() {
			yield* inner();
		}
		var gen = outer();
		gen.next();
		var second = gen.next("payload").value;
	`)
	if vm.Globals["second"] != "inner-got:payload" {
		t.Errorf("got %v", vm.Globals["second"])
	}
}

func TestYieldStarResultIsInnerReturnValue(t *testing.T) {
	vm := compileAndRun(t, `
		function* inner() {
			yield 1;
			return "inner-done";
		}
		function* outer() {
			var r = yield* inner();
			yield r;
		}
		var gen = outer();
		gen.next();
		var got = gen.next().value;
	`)
	if vm.Globals["got"] != "inner-done" {
		t.Errorf("got %v", vm.Globals["got"])
	}
}

func TestForOfOverArrayAndString(t *testing.T) {
	vm := compileAndRun(t, `
		var sum = 0;
		for (var n of [1, 2, 3]) {
			sum = sum + n;
		}
		var chars = "";
		for (var ch of "abc") {
			chars = chars + ch + "-";
		}
	`)
	if vm.Globals["sum"] != float64(6) || vm.Globals["chars"] != "a-b-c-" {
		t.Errorf("sum=%v chars=%v", vm.Globals["sum"], vm.Globals["chars"])
	}
}

func TestForInWalksOwnKeysInInsertionOrder(t *testing.T) {
	vm := compileAndRun(t, `
		var keys = "";
		var obj = {b: 1, a: 2, c: 3};
		for (var k in obj) {
			keys = keys + k;
		}
	`)
	if vm.Globals["keys"] != "bac" {
		t.Errorf("got %v", vm.Globals["keys"])
	}
}

func TestVirtualTimersFireInScheduledOrder(t *testing.T) {
	vm := compileAndRun(t, `
		var order = "";
		function tag(name) {
			order = order + name + ";";
		}
		tag("sync");
	`)
	// Schedule through the Go surface against the same clock the VM
	// drains, mirroring what the installed setTimeout global does.
	vm.Clock.SetTimeout(func([]interface{}) { vm.Globals["order"] = vm.Globals["order"].(string) + "t10;" }, 10)
	vm.Clock.SetTimeout(func([]interface{}) { vm.Globals["order"] = vm.Globals["order"].(string) + "t5;" }, 5)
	vm.Clock.RunUntilIdle(0)
	if vm.Globals["order"] != "sync;t5;t10;" {
		t.Errorf("got %v", vm.Globals["order"])
	}
}
