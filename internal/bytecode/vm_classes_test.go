package bytecode

import (
	"testing"

	"github.com/tsnc-lang/tsnc/internal/runtime"
)

func TestClassConstructionAndMethodDispatch(t *testing.T) {
	vm := compileAndRun(t, `
		class Point {
			x = 0;
			y = 0;
			constructor(x, y) {
				this.x = x;
				this.y = y;
			}
			manhattan() {
				return this.x + this.y;
			}
		}
		var p = new Point(3, 4);
		var d = p.manhattan();
	`)
	if vm.Globals["d"] != float64(7) {
		t.Errorf("got %v", vm.Globals["d"])
	}
}

func TestFieldInitializersRunRootFirst(t *testing.T) {
	vm := compileAndRun(t, `
		class Base {
			tag = "base";
		}
		class Derived extends Base {
			combined = this.tag + "+derived";
		}
		var got = new Derived().combined;
	`)
	if vm.Globals["got"] != "base+derived" {
		t.Errorf("got %v", vm.Globals["got"])
	}
}

func TestImplicitDerivedConstructorForwardsArgs(t *testing.T) {
	vm := compileAndRun(t, `
		class Base {
			constructor(v) {
				this.value = v;
			}
		}
		class Derived extends Base {}
		var got = new Derived(9).value;
	`)
	if vm.Globals["got"] != float64(9) {
		t.Errorf("got %v", vm.Globals["got"])
	}
}

func TestExplicitSuperCallAndSuperMethod(t *testing.T) {
	vm := compileAndRun(t, `
		class A {
			constructor(n) {
				this.n = n;
			}
			describe() {
				return "A:" + this.n;
			}
		}
		class B extends A {
			constructor(n) {
				super(n * 2);
			}
			describe() {
				return super.describe() + "/B";
			}
		}
		var got = new B(5).describe();
	`)
	if vm.Globals["got"] != "A:10/B" {
		t.Errorf("got %v", vm.Globals["got"])
	}
}

func TestStaticMembersAndStaticFields(t *testing.T) {
	vm := compileAndRun(t, `
		class Registry {
			static count = 0;
			static register() {
				Registry.count = Registry.count + 1;
				return Registry.count;
			}
		}
		Registry.register();
		var got = Registry.register();
	`)
	if vm.Globals["got"] != float64(2) {
		t.Errorf("got %v", vm.Globals["got"])
	}
}

func TestGetterSetterThroughHierarchy(t *testing.T) {
	vm := compileAndRun(t, `
		class Temp {
			constructor() {
				this.celsius = 0;
			}
			get fahrenheit() {
				return this.celsius * 9 / 5 + 32;
			}
			set fahrenheit(f) {
				this.celsius = (f - 32) * 5 / 9;
			}
		}
		var temp = new Temp();
		temp.fahrenheit = 212;
		var c = temp.celsius;
		var f = temp.fahrenheit;
	`)
	if vm.Globals["c"] != float64(100) || vm.Globals["f"] != float64(212) {
		t.Errorf("c=%v f=%v", vm.Globals["c"], vm.Globals["f"])
	}
}

func TestInstanceOfWalksTheChain(t *testing.T) {
	vm := compileAndRun(t, `
		class X {}
		class Y extends X {}
		var y = new Y();
		var isY = y instanceof Y;
		var isX = y instanceof X;
		var xNotY = new X() instanceof Y;
	`)
	if vm.Globals["isY"] != true || vm.Globals["isX"] != true || vm.Globals["xNotY"] != false {
		t.Errorf("isY=%v isX=%v xNotY=%v", vm.Globals["isY"], vm.Globals["isX"], vm.Globals["xNotY"])
	}
}

func TestPrivateFieldBrandCheck(t *testing.T) {
	vm := compileAndRun(t, `
		class Vault {
			#secret = "hidden";
			reveal() {
				return this.#secret;
			}
		}
		var got = new Vault().reveal();
		var leaked = new Vault().secret;
	`)
	if vm.Globals["got"] != "hidden" {
		t.Errorf("got %v", vm.Globals["got"])
	}
	if vm.Globals["leaked"] != runtime.Undefined {
		t.Errorf("expected undefined, got %v", vm.Globals["leaked"])
	}
}

func TestFinallyRunsOnReturnPath(t *testing.T) {
	vm := compileAndRun(t, `
		var log = "";
		function f() {
			try {
				return "ret";
			} finally {
				log = log + "finally;";
			}
		}
		var got = f();
	`)
	if vm.Globals["got"] != "ret" || vm.Globals["log"] != "finally;" {
		t.Errorf("got=%v log=%v", vm.Globals["got"], vm.Globals["log"])
	}
}

func TestFinallyRunsOnExceptionalPathAndRethrows(t *testing.T) {
	vm := compileAndRun(t, `
		var log = "";
		function boom() {
			try {
				throw "inner";
			} finally {
				log = log + "cleanup;";
			}
		}
		var caught = "";
		try {
			boom();
		} catch (e) {
			caught = e;
		}
	`)
	if vm.Globals["log"] != "cleanup;" || vm.Globals["caught"] != "inner" {
		t.Errorf("log=%v caught=%v", vm.Globals["log"], vm.Globals["caught"])
	}
}

func TestFinallyRunsOnBreakOutOfTry(t *testing.T) {
	vm := compileAndRun(t, `
		var log = "";
		for (var i = 0; i < 3; i = i + 1) {
			try {
				if (i === 1) {
					break;
				}
				log = log + "body" + i + ";";
			} finally {
				log = log + "fin" + i + ";";
			}
		}
	`)
	if vm.Globals["log"] != "body0;fin0;fin1;" {
		t.Errorf("log=%v", vm.Globals["log"])
	}
}
