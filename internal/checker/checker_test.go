package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/parser"
)

func checkSource(t *testing.T, src string) []error {
	t.Helper()
	prog, err := parser.New(lexer.New(src), "test.ts", src).Parse()
	require.Nil(t, err, "parse error: %v", err)
	errs := New(src, "test.ts").Check(prog)
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

func TestWellTypedProgramsProduceNoErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"annotated primitives", `
			const n: number = 1;
			const s: string = "x";
			const b: boolean = true;
		`},
		{"function with typed params and return", `
			function add(a: number, b: number): number {
				return a + b;
			}
			const r: number = add(1, 2);
		`},
		{"class with fields and methods", `
			class Point {
				x: number = 0;
				y: number = 0;
				manhattan(): number {
					return this.x + this.y;
				}
			}
			const p = new Point();
			const d: number = p.manhattan();
		`},
		{"union accepts either branch", `
			let u: number | string = 1;
			u = "two";
		`},
		{"array element access", `
			const nums: number[] = [1, 2, 3];
			const first: number = nums[0];
		`},
		{"any is compatible with everything", `
			const loose: any = "whatever";
			const n: number = loose;
		`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Empty(t, checkSource(t, tt.src))
		})
	}
}

func TestTypeMismatchesAreReported(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"string to number binding", `const n: number = "oops";`},
		{"number to string binding", `const s: string = 42;`},
		{"boolean condition type ok but wrong assign", `let b: boolean = 1;`},
		{"union rejects uncovered branch", `let u: number | string = true;`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEmpty(t, checkSource(t, tt.src), "expected a type error")
		})
	}
}

func TestGenericInstantiationSubstitutesMemberTypes(t *testing.T) {
	require.Empty(t, checkSource(t, `
		class Box<T> {
			value: T;
		}
		const b = new Box<number>();
		const n: number = b.value;
	`))
	require.NotEmpty(t, checkSource(t, `
		class Box<T> {
			value: T;
		}
		const b = new Box<number>();
		const s: string = b.value;
	`), "substituted member type should reject a string binding")
}

func TestGenericInstantiationChecksAssignment(t *testing.T) {
	require.Empty(t, checkSource(t, `
		class Box<T> {
			value: T;
		}
		const b = new Box<string>();
		b.value = "ok";
	`))
	require.NotEmpty(t, checkSource(t, `
		class Box<T> {
			value: T;
		}
		const b = new Box<string>();
		b.value = 1;
	`), "substituted field type should reject a number write")
}

func TestAssignmentToMissingPropertyIsReported(t *testing.T) {
	require.NotEmpty(t, checkSource(t, `
		class Point {
			x: number = 0;
		}
		const p = new Point();
		p.z = 1;
	`))
}

func TestGetterWithoutSetterRejectsAssignment(t *testing.T) {
	require.NotEmpty(t, checkSource(t, `
		class Circle {
			radius: number = 1;
			get area(): number {
				return this.radius * this.radius * 3;
			}
		}
		const c = new Circle();
		c.area = 10;
	`))
	require.Empty(t, checkSource(t, `
		class Temp {
			celsius: number = 0;
			get fahrenheit(): number {
				return this.celsius * 9 / 5 + 32;
			}
			set fahrenheit(f: number) {
				this.celsius = (f - 32) * 5 / 9;
			}
		}
		const t2 = new Temp();
		t2.fahrenheit = 212;
	`), "a full accessor pair accepts assignment")
}

func TestReadonlyAssignsOnlyInDeclaringConstructor(t *testing.T) {
	require.Empty(t, checkSource(t, `
		class Config {
			readonly limit: number = 0;
			constructor(limit: number) {
				this.limit = limit;
			}
		}
	`))
	require.NotEmpty(t, checkSource(t, `
		class Config {
			readonly limit: number = 0;
			raise(): void {
				this.limit = 99;
			}
		}
	`), "readonly write outside the constructor should be rejected")
	require.NotEmpty(t, checkSource(t, `
		class Config {
			readonly limit: number = 0;
		}
		const cfg = new Config();
		cfg.limit = 5;
	`), "readonly write outside the class should be rejected")
}

func TestAccessModifiersEnforcedAgainstEnclosingClass(t *testing.T) {
	require.Empty(t, checkSource(t, `
		class Vault {
			private secret: string = "";
			reveal(): string {
				return this.secret;
			}
		}
	`))
	require.NotEmpty(t, checkSource(t, `
		class Vault {
			private secret: string = "";
		}
		const v = new Vault();
		const leak = v.secret;
	`), "private read outside the class should be rejected")
	require.Empty(t, checkSource(t, `
		class Base {
			protected tag: string = "";
		}
		class Derived extends Base {
			describe(): string {
				return this.tag;
			}
		}
	`))
	require.NotEmpty(t, checkSource(t, `
		class Base {
			protected tag: string = "";
		}
		const b = new Base();
		const t3 = b.tag;
	`), "protected read outside the hierarchy should be rejected")
}

func TestCheckerToleratesUnknownGlobals(t *testing.T) {
	// Unresolved names degrade to `any` so globals installed by the
	// runtime (console, setTimeout) check cleanly.
	require.Empty(t, checkSource(t, `
		console.log("hi");
		setTimeout(() => { console.log("later"); }, 10);
	`))
}
