package tsnc

import (
	"bytes"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// writeTree populates an in-memory filesystem with source files.
func writeTree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, src := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(src), 0o644))
	}
	return fs
}

// runEntry compiles and runs entry, returning captured stdout.
func runEntry(t *testing.T, files map[string]string, entry string) string {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := CompileAndRun(Options{Fs: writeTree(t, files), Entry: entry}, &stdout, &stderr)
	require.NoError(t, err, "stderr: %s", stderr.String())
	return stdout.String()
}

func TestModuleEvaluationOrder(t *testing.T) {
	out := runEntry(t, map[string]string{
		"a.ts":    `console.log("a");`,
		"b.ts":    "import './a';\nconsole.log(\"b\");",
		"main.ts": "import './b';\nconsole.log(\"main\");",
	}, "main.ts")
	require.Equal(t, "a\nb\nmain\n", out)
}

func TestNamedExportWithImportAlias(t *testing.T) {
	out := runEntry(t, map[string]string{
		"m.ts":    `export const value = 42;`,
		"main.ts": "import {value as v} from './m';\nconsole.log(v);",
	}, "main.ts")
	require.Equal(t, "42\n", out)
}

func TestAsyncTryCatchCrossingAwait(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
async function f() { throw "e"; }
async function m() {
	try {
		await f();
	} catch (e) {
		console.log("caught:" + e);
	}
}
m();
`,
	}, "main.ts")
	require.Equal(t, "caught:e\n", out)
}

func TestSortStabilityWithUndefined(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `console.log([3, undefined, 1, undefined, 2].sort().join(","));`,
	}, "main.ts")
	require.Equal(t, "1,2,3,,\n", out)
}

func TestListenerSnapshotDuringDispatch(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
import { EventEmitter } from 'events';
const e = new EventEmitter();
const L2 = () => { console.log("L2"); };
const L1 = () => { console.log("L1"); e.removeListener("go", L2); };
const L3 = () => { console.log("L3"); };
e.on("go", L1);
e.on("go", L2);
e.on("go", L3);
e.emit("go");
console.log("--");
e.emit("go");
`,
	}, "main.ts")
	require.Equal(t, "L1\nL2\nL3\n--\nL1\nL3\n", out)
}

func TestConsoleFormatSpecifiers(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `console.log("Name: %s, Age: %d, Score: %f", "Alice", 30, 95.5);`,
	}, "main.ts")
	require.Equal(t, "Name: Alice, Age: 30, Score: 95.5\n", out)
}

func TestGeneratorDrivesThroughYieldStar(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
function* inner() { yield 2; yield 3; }
function* outer() { yield 1; yield* inner(); yield 4; }
const parts = [];
for (const v of outer()) {
	parts.push(v);
}
console.log(parts.join(","));
`,
	}, "main.ts")
	require.Equal(t, "1,2,3,4\n", out)
}

func TestTimerOrderingUnderVirtualClock(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
setTimeout(() => { console.log("late"); }, 20);
setTimeout(() => { console.log("early"); }, 5);
console.log("sync");
`,
	}, "main.ts")
	require.Equal(t, "sync\nearly\nlate\n", out)
}

func TestIntervalCancelledFromCallback(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
let ticks = 0;
const id = setInterval(() => {
	ticks++;
	console.log("tick " + ticks);
	if (ticks === 3) {
		clearInterval(id);
	}
}, 10);
`,
	}, "main.ts")
	require.Equal(t, "tick 1\ntick 2\ntick 3\n", out)
}

func TestClassInheritanceAndSuperDispatch(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
class Animal {
	name: string;
	constructor(name: string) {
		this.name = name;
	}
	speak(): string {
		return this.name + " makes a sound";
	}
}
class Dog extends Animal {
	speak(): string {
		return super.speak() + ": woof";
	}
}
const d = new Dog("Rex");
console.log(d.speak());
console.log(d instanceof Dog);
console.log(d instanceof Animal);
`,
	}, "main.ts")
	require.Equal(t, "Rex makes a sound: woof\ntrue\ntrue\n", out)
}

func TestGetterSetterAndPrivateField(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
class Counter {
	#count = 0;
	get value(): number {
		return this.#count;
	}
	increment(): void {
		this.#count = this.#count + 1;
	}
}
const c = new Counter();
c.increment();
c.increment();
console.log(c.value);
`,
	}, "main.ts")
	require.Equal(t, "2\n", out)
}

func TestJsonRoundTrip(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
const x = {a: 1, b: "two", c: [true, null, 3.5]};
const s = JSON.stringify(x);
console.log(s);
const y = JSON.parse(s);
console.log(y.b, y.c.length);
`,
	}, "main.ts")
	require.Equal(t, "{\"a\":1,\"b\":\"two\",\"c\":[true,null,3.5]}\ntwo 3\n", out)
}

func TestEnumForwardAndReverseMapping(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
enum Color { Red, Green = 5, Blue }
console.log(Color.Red, Color.Green, Color.Blue);
console.log(Color[5]);
`,
	}, "main.ts")
	require.Equal(t, "0 5 6\nGreen\n", out)
}

func TestDefaultExportAndSideEffectImport(t *testing.T) {
	out := runEntry(t, map[string]string{
		"lib.ts":  "export default function greet(): string { return \"hi\"; }",
		"main.ts": "import greet from './lib';\nconsole.log(greet());",
	}, "main.ts")
	require.Equal(t, "hi\n", out)
}

func TestReExportChain(t *testing.T) {
	out := runEntry(t, map[string]string{
		"base.ts":   `export const n = 7;`,
		"middle.ts": `export { n as seven } from './base';`,
		"main.ts":   "import { seven } from './middle';\nconsole.log(seven);",
	}, "main.ts")
	require.Equal(t, "7\n", out)
}

func TestPromiseChainOrdering(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
Promise.resolve(1)
	.then((v) => { console.log("then " + v); return v + 1; })
	.then((v) => { console.log("then " + v); });
console.log("after-setup");
`,
	}, "main.ts")
	// Settlement runs continuations on registration (synchronous
	// resolution), so the chain completes before the trailing log.
	require.Equal(t, "then 1\nthen 2\nafter-setup\n", out)
}

func TestSpreadAndDestructuring(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
const [first, ...rest] = [1, 2, 3, 4];
const merged = {a: 1, ...{b: 2, c: 3}};
console.log(first, rest.join("+"), merged.b + merged.c);
function sum(...nums: number[]): number {
	return nums.reduce((acc, n) => acc + n, 0);
}
console.log(sum(...[10, 20, 30]));
`,
	}, "main.ts")
	require.Equal(t, "1 2+3+4 5\n60\n", out)
}

func TestOptionalChainingAndLogicalAssignment(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
const obj: any = {inner: {x: 1}};
console.log(obj.inner?.x, obj.missing?.x);
let v: any = null;
v ??= "filled";
v ??= "ignored";
console.log(v);
`,
	}, "main.ts")
	require.Equal(t, "1 undefined\nfilled\n", out)
}

func TestSetOperations(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
const a = new Set([1, 2, 3]);
const b = new Set([2, 3, 4]);
console.log([...a.union(b)].join(","));
console.log([...a.intersection(b)].join(","));
console.log([...a.difference(b)].join(","));
console.log(a.isDisjointFrom(new Set([9])));
`,
	}, "main.ts")
	require.Equal(t, "1,2,3,4\n2,3\n1\ntrue\n", out)
}

func TestWritableStreamLifecycle(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
import { Writable } from 'stream';
const w = new Writable();
w._writeCallback = (chunk) => { console.log("wrote: " + chunk); };
w.on("finish", () => { console.log("finished"); });
w.cork();
w.write("a");
w.write("b");
w.uncork();
w.end();
w.end();
console.log(w.writableFinished);
`,
	}, "main.ts")
	require.Equal(t, "wrote: a\nwrote: b\nfinished\ntrue\n", out)
}

func TestRuntimeErrorEscapesWithMessage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := CompileAndRun(Options{
		Fs:    writeTree(t, map[string]string{"main.ts": `throw "fatal";`}),
		Entry: "main.ts",
	}, &stdout, &stderr)
	require.Error(t, err)
	require.Contains(t, err.Error(), "fatal")
}

func TestForAwaitOfOverAsyncGenerator(t *testing.T) {
	out := runEntry(t, map[string]string{
		"main.ts": `
async function* numbers() {
	yield 1;
	yield 2;
	yield 3;
}
async function main() {
	for await (const n of numbers()) {
		console.log("n=" + n);
	}
	console.log("done");
}
main();
`,
	}, "main.ts")
	require.Equal(t, "n=1\nn=2\nn=3\ndone\n", out)
}
