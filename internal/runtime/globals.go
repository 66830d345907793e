package runtime

import (
	"math"
	"strconv"
	"strings"
)

// nativeMembers backs static members on native constructor functions
// (Promise.resolve, Symbol.iterator) via the MemberCarrier hook in
// GetProperty.
type nativeMembers struct {
	members map[string]interface{}
}

func (n *nativeMembers) GetMember(name string) (interface{}, bool) {
	v, ok := n.members[name]
	return v, ok
}

func (n *nativeMembers) SetMember(name string, value interface{}) bool {
	n.members[name] = value
	return true
}

func nativeFn(name string, call func(this interface{}, args []interface{}) interface{}) *Function {
	return &Function{Name: name, Call: call}
}

// NewGlobalEnvironment builds the global bindings every compiled module
// sees (spec §6): console, Math, JSON, Object, Array, Number, Promise,
// Symbol, the timer functions bound to clock, and the Reflect metadata
// surface. The returned map is merged into the VM's global table by the
// program driver before the entry module runs.
func NewGlobalEnvironment(console *Console, clock *Clock) map[string]interface{} {
	globals := map[string]interface{}{
		"console":    console,
		"undefined":  Undefined,
		"NaN":        math.NaN(),
		"Infinity":   math.Inf(1),
		"this":       Undefined,
		"globalThis": NewObject(),
		"Math":       mathObject(),
		"JSON":       jsonObject(),
		"Object":     objectConstructor(),
		"Array":      arrayConstructor(),
		"Number":     numberConstructor(),
		"String":     nativeFn("String", func(_ interface{}, args []interface{}) interface{} { return Stringify(argAt(args, 0)) }),
		"Boolean":    nativeFn("Boolean", func(_ interface{}, args []interface{}) interface{} { return IsTruthy(argAt(args, 0)) }),
		"Promise":    promiseConstructor(),
		"Symbol":     symbolConstructor(),
		"Reflect":    reflectObject(),
		"Map":        nativeFn("Map", func(_ interface{}, args []interface{}) interface{} { return newMapFrom(argAt(args, 0)) }),
		"Set":        nativeFn("Set", func(_ interface{}, args []interface{}) interface{} { return NewSetFrom(IterableValues(argAt(args, 0))) }),
		"WeakMap":    nativeFn("WeakMap", func(_ interface{}, args []interface{}) interface{} { return NewWeakMap() }),
		"WeakSet":    nativeFn("WeakSet", func(_ interface{}, args []interface{}) interface{} { return NewWeakSet() }),
		"RegExp": nativeFn("RegExp", func(_ interface{}, args []interface{}) interface{} {
			return NewRegExp(argStr(args, 0), argStr(args, 1))
		}),
		"Date": dateConstructor(clock),
		"parseInt": nativeFn("parseInt", func(_ interface{}, args []interface{}) interface{} {
			return parseIntImpl(argStr(args, 0), argInt(args, 1, 10))
		}),
		"parseFloat": nativeFn("parseFloat", func(_ interface{}, args []interface{}) interface{} {
			return parseFloatImpl(argStr(args, 0))
		}),
		"isNaN": nativeFn("isNaN", func(_ interface{}, args []interface{}) interface{} {
			n, ok := toNumberIfComparable(argAt(args, 0))
			return !ok || math.IsNaN(n)
		}),
		"isFinite": nativeFn("isFinite", func(_ interface{}, args []interface{}) interface{} {
			n, ok := toNumberIfComparable(argAt(args, 0))
			return ok && !math.IsNaN(n) && !math.IsInf(n, 0)
		}),
		"structuredClone": nativeFn("structuredClone", func(_ interface{}, args []interface{}) interface{} {
			return deepClone(argAt(args, 0))
		}),
	}
	for name, fn := range timerFunctions(clock) {
		globals[name] = fn
	}
	errorCtor := errorConstructor("Error")
	globals["Error"] = errorCtor
	for _, kind := range []string{"TypeError", "RangeError", "ReferenceError", "SyntaxError"} {
		globals[kind] = errorConstructor(kind)
	}
	return globals
}

// BuiltinModuleExports returns the exports object for a bare built-in
// module specifier (spec §6: `events`, `timers`, `stream`), or false
// when name is not a built-in.
func BuiltinModuleExports(name string, clock *Clock) (*Object, bool) {
	switch name {
	case "events":
		exports := NewObject()
		emitterCtor := nativeFn("EventEmitter", func(_ interface{}, args []interface{}) interface{} {
			return NewEmitterBinding()
		})
		exports.Set("EventEmitter", emitterCtor)
		exports.Set("default", emitterCtor)
		return exports, true
	case "timers":
		exports := NewObject()
		for fname, fn := range timerFunctions(clock) {
			exports.Set(fname, fn)
		}
		return exports, true
	case "stream":
		exports := NewObject()
		writableCtor := nativeFn("Writable", func(_ interface{}, args []interface{}) interface{} {
			b := NewStreamBinding()
			if opts, ok := argAt(args, 0).(*Object); ok {
				if fn, ok := opts.Get("write").(*Function); ok {
					b.SetProp("_writeCallback", fn)
				}
				if fn, ok := opts.Get("final").(*Function); ok {
					b.SetProp("_finalCallback", fn)
				}
			}
			return b
		})
		exports.Set("Writable", writableCtor)
		exports.Set("default", writableCtor)
		return exports, true
	}
	return nil, false
}

func timerFunctions(clock *Clock) map[string]*Function {
	schedule := func(interval bool) func(this interface{}, args []interface{}) interface{} {
		return func(_ interface{}, args []interface{}) interface{} {
			fn := argFn(args, 0)
			if fn == nil {
				panic(&Exception{Value: "TypeError: callback is not a function"})
			}
			delay := argNum(args, 1)
			var extra []interface{}
			if len(args) > 2 {
				extra = args[2:]
			}
			cb := func(cbArgs []interface{}) { fn.Call(Undefined, cbArgs) }
			if interval {
				return float64(clock.SetInterval(cb, delay, extra...))
			}
			return float64(clock.SetTimeout(cb, delay, extra...))
		}
	}
	clear := nativeFn("clearTimeout", func(_ interface{}, args []interface{}) interface{} {
		clock.ClearTimer(int(argNum(args, 0)))
		return Undefined
	})
	immediate := nativeFn("setImmediate", func(_ interface{}, args []interface{}) interface{} {
		fn := argFn(args, 0)
		if fn == nil {
			panic(&Exception{Value: "TypeError: callback is not a function"})
		}
		var extra []interface{}
		if len(args) > 1 {
			extra = args[1:]
		}
		return float64(clock.SetTimeout(func(cbArgs []interface{}) { fn.Call(Undefined, cbArgs) }, 0, extra...))
	})
	return map[string]*Function{
		"setTimeout":     nativeFn("setTimeout", schedule(false)),
		"setInterval":    nativeFn("setInterval", schedule(true)),
		"clearTimeout":   clear,
		"clearInterval":  clear,
		"setImmediate":   immediate,
		"clearImmediate": clear,
		"queueMicrotask": nativeFn("queueMicrotask", func(_ interface{}, args []interface{}) interface{} {
			if fn := argFn(args, 0); fn != nil {
				fn.Call(Undefined, nil)
			}
			return Undefined
		}),
	}
}

func mathObject() *Object {
	o := NewObject()
	o.Set("PI", math.Pi)
	o.Set("E", math.E)
	unary := func(name string, f func(float64) float64) {
		o.Set(name, nativeFn(name, func(_ interface{}, args []interface{}) interface{} {
			return f(argNum(args, 0))
		}))
	}
	unary("floor", math.Floor)
	unary("ceil", math.Ceil)
	unary("abs", math.Abs)
	unary("sqrt", math.Sqrt)
	unary("trunc", math.Trunc)
	unary("sign", func(f float64) float64 {
		switch {
		case f > 0:
			return 1
		case f < 0:
			return -1
		}
		return f
	})
	unary("round", func(f float64) float64 { return math.Floor(f + 0.5) })
	unary("log", math.Log)
	unary("log2", math.Log2)
	unary("log10", math.Log10)
	unary("exp", math.Exp)
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	o.Set("pow", nativeFn("pow", func(_ interface{}, args []interface{}) interface{} {
		return math.Pow(argNum(args, 0), argNum(args, 1))
	}))
	o.Set("hypot", nativeFn("hypot", func(_ interface{}, args []interface{}) interface{} {
		return math.Hypot(argNum(args, 0), argNum(args, 1))
	}))
	extremum := func(name string, better func(a, b float64) bool, empty float64) *Function {
		return nativeFn(name, func(_ interface{}, args []interface{}) interface{} {
			out := empty
			for _, a := range args {
				n := toNumberOrZero(a)
				if math.IsNaN(n) {
					return math.NaN()
				}
				if better(n, out) {
					out = n
				}
			}
			return out
		})
	}
	o.Set("max", extremum("max", func(a, b float64) bool { return a > b }, math.Inf(-1)))
	o.Set("min", extremum("min", func(a, b float64) bool { return a < b }, math.Inf(1)))
	// Deterministic pseudo-random sequence: compiled programs replay
	// identically run to run, the same property the virtual clock gives
	// timers.
	seed := uint64(0x2545F4914F6CDD1D)
	o.Set("random", nativeFn("random", func(_ interface{}, args []interface{}) interface{} {
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		return float64(seed%1e9) / 1e9
	}))
	return o
}

func jsonObject() *Object {
	o := NewObject()
	o.Set("stringify", nativeFn("stringify", func(_ interface{}, args []interface{}) interface{} {
		if isNullish(argAt(args, 0)) && len(args) == 0 {
			return Undefined
		}
		s, err := JsonStringify(argAt(args, 0))
		if err != nil {
			panic(&Exception{Value: err.Error()})
		}
		return s
	}))
	o.Set("parse", nativeFn("parse", func(_ interface{}, args []interface{}) interface{} {
		text := argStr(args, 0)
		if fn := argFn(args, 1); fn != nil {
			v, err := JsonParseWithReviver(text, func(key string, value interface{}) interface{} {
				return fn.Call(Undefined, []interface{}{key, value})
			})
			if err != nil {
				panic(&Exception{Value: err.Error()})
			}
			return v
		}
		v, err := JsonParse(text)
		if err != nil {
			panic(&Exception{Value: err.Error()})
		}
		return v
	}))
	return o
}

func objectConstructor() *Function {
	ctor := nativeFn("Object", func(_ interface{}, args []interface{}) interface{} {
		if o, ok := argAt(args, 0).(*Object); ok {
			return o
		}
		return NewObject()
	})
	members := map[string]interface{}{
		"keys": nativeFn("keys", func(_ interface{}, args []interface{}) interface{} {
			return NewArray(EnumerableKeys(argAt(args, 0))...)
		}),
		"values": nativeFn("values", func(_ interface{}, args []interface{}) interface{} {
			o, ok := argAt(args, 0).(*Object)
			if !ok {
				return NewArray()
			}
			var out []interface{}
			for _, k := range o.Keys() {
				out = append(out, o.Get(k))
			}
			return NewArray(out...)
		}),
		"entries": nativeFn("entries", func(_ interface{}, args []interface{}) interface{} {
			o, ok := argAt(args, 0).(*Object)
			if !ok {
				return NewArray()
			}
			var out []interface{}
			for _, k := range o.Keys() {
				out = append(out, NewArray(k, o.Get(k)))
			}
			return NewArray(out...)
		}),
		"assign": nativeFn("assign", func(_ interface{}, args []interface{}) interface{} {
			dst, ok := argAt(args, 0).(*Object)
			if !ok {
				return argAt(args, 0)
			}
			for _, src := range args[1:] {
				if so, ok := src.(*Object); ok {
					MergeIntoObject(dst, so)
				}
			}
			return dst
		}),
		"freeze": nativeFn("freeze", func(_ interface{}, args []interface{}) interface{} {
			if o, ok := argAt(args, 0).(*Object); ok {
				o.Frozen = true
			}
			return argAt(args, 0)
		}),
		"isFrozen": nativeFn("isFrozen", func(_ interface{}, args []interface{}) interface{} {
			o, ok := argAt(args, 0).(*Object)
			return ok && o.Frozen
		}),
		"fromEntries": nativeFn("fromEntries", func(_ interface{}, args []interface{}) interface{} {
			out := NewObject()
			for _, entry := range IterableValues(argAt(args, 0)) {
				if pair, ok := entry.(*Array); ok && len(pair.Elements) >= 2 {
					out.Set(Stringify(pair.Elements[0]), pair.Elements[1])
				}
			}
			return out
		}),
		"getOwnPropertyNames": nativeFn("getOwnPropertyNames", func(_ interface{}, args []interface{}) interface{} {
			return NewArray(EnumerableKeys(argAt(args, 0))...)
		}),
	}
	ctor.Impl = &nativeMembers{members: members}
	return ctor
}

func arrayConstructor() *Function {
	ctor := nativeFn("Array", func(_ interface{}, args []interface{}) interface{} {
		if len(args) == 1 {
			if n, ok := args[0].(float64); ok {
				out := NewArray()
				for i := 0; i < int(n); i++ {
					out.Elements = append(out.Elements, Undefined)
				}
				return out
			}
		}
		return NewArray(args...)
	})
	ctor.Impl = &nativeMembers{members: map[string]interface{}{
		"isArray": nativeFn("isArray", func(_ interface{}, args []interface{}) interface{} {
			_, ok := argAt(args, 0).(*Array)
			return ok
		}),
		"from": nativeFn("from", func(_ interface{}, args []interface{}) interface{} {
			values := IterableValues(argAt(args, 0))
			if fn := argFn(args, 1); fn != nil {
				for i, v := range values {
					values[i] = fn.Call(Undefined, []interface{}{v, float64(i)})
				}
			}
			return NewArray(values...)
		}),
		"of": nativeFn("of", func(_ interface{}, args []interface{}) interface{} {
			return NewArray(args...)
		}),
	}}
	return ctor
}

func numberConstructor() *Function {
	ctor := nativeFn("Number", func(_ interface{}, args []interface{}) interface{} {
		n, ok := toNumberIfComparable(argAt(args, 0))
		if !ok {
			return math.NaN()
		}
		return n
	})
	ctor.Impl = &nativeMembers{members: map[string]interface{}{
		"MAX_SAFE_INTEGER":  float64(1<<53 - 1),
		"MIN_SAFE_INTEGER":  -float64(1<<53 - 1),
		"POSITIVE_INFINITY": math.Inf(1),
		"NEGATIVE_INFINITY": math.Inf(-1),
		"NaN":               math.NaN(),
		"EPSILON":           math.Nextafter(1, 2) - 1,
		"isInteger": nativeFn("isInteger", func(_ interface{}, args []interface{}) interface{} {
			n, ok := argAt(args, 0).(float64)
			return ok && !math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)
		}),
		"isFinite": nativeFn("isFinite", func(_ interface{}, args []interface{}) interface{} {
			n, ok := argAt(args, 0).(float64)
			return ok && !math.IsNaN(n) && !math.IsInf(n, 0)
		}),
		"isNaN": nativeFn("isNaN", func(_ interface{}, args []interface{}) interface{} {
			n, ok := argAt(args, 0).(float64)
			return ok && math.IsNaN(n)
		}),
		"parseFloat": nativeFn("parseFloat", func(_ interface{}, args []interface{}) interface{} {
			return parseFloatImpl(argStr(args, 0))
		}),
		"parseInt": nativeFn("parseInt", func(_ interface{}, args []interface{}) interface{} {
			return parseIntImpl(argStr(args, 0), argInt(args, 1, 10))
		}),
	}}
	return ctor
}

func promiseConstructor() *Function {
	ctor := nativeFn("Promise", func(_ interface{}, args []interface{}) interface{} {
		p := NewPromise()
		if executor := argFn(args, 0); executor != nil {
			resolve := nativeFn("resolve", func(_ interface{}, a []interface{}) interface{} {
				p.Resolve(argAt(a, 0))
				return Undefined
			})
			reject := nativeFn("reject", func(_ interface{}, a []interface{}) interface{} {
				p.Reject(argAt(a, 0))
				return Undefined
			})
			executor.Call(Undefined, []interface{}{resolve, reject})
		}
		return p
	})
	ctor.Impl = &nativeMembers{members: map[string]interface{}{
		"resolve": nativeFn("resolve", func(_ interface{}, args []interface{}) interface{} {
			return ResolvedPromise(argAt(args, 0))
		}),
		"reject": nativeFn("reject", func(_ interface{}, args []interface{}) interface{} {
			return RejectedPromise(argAt(args, 0))
		}),
		"all": nativeFn("all", func(_ interface{}, args []interface{}) interface{} {
			return PromiseAll(IterableValues(argAt(args, 0)))
		}),
		"race": nativeFn("race", func(_ interface{}, args []interface{}) interface{} {
			return PromiseRace(IterableValues(argAt(args, 0)))
		}),
		"allSettled": nativeFn("allSettled", func(_ interface{}, args []interface{}) interface{} {
			return PromiseAllSettled(IterableValues(argAt(args, 0)))
		}),
	}}
	return ctor
}

func symbolConstructor() *Function {
	ctor := nativeFn("Symbol", func(_ interface{}, args []interface{}) interface{} {
		desc := ""
		if len(args) > 0 {
			desc = argStr(args, 0)
		}
		return &Symbol{Description: desc}
	})
	ctor.Impl = &nativeMembers{members: map[string]interface{}{
		"iterator":      &Symbol{Description: "Symbol.iterator"},
		"asyncIterator": &Symbol{Description: "Symbol.asyncIterator"},
		"dispose":       &Symbol{Description: "Symbol.dispose"},
		"asyncDispose":  &Symbol{Description: "Symbol.asyncDispose"},
	}}
	return ctor
}

func reflectObject() *Object {
	o := NewObject()
	propKey := func(args []interface{}, i int) string {
		v := argAt(args, i)
		if isNullish(v) {
			return ""
		}
		return Stringify(v)
	}
	o.Set("defineMetadata", nativeFn("defineMetadata", func(_ interface{}, args []interface{}) interface{} {
		Metadata.Define(argStr(args, 0), argAt(args, 1), argAt(args, 2), propKey(args, 3))
		return Undefined
	}))
	o.Set("getMetadata", nativeFn("getMetadata", func(_ interface{}, args []interface{}) interface{} {
		v, ok := Metadata.Get(argStr(args, 0), argAt(args, 1), propKey(args, 2))
		if !ok {
			return Undefined
		}
		return v
	}))
	o.Set("getOwnMetadata", nativeFn("getOwnMetadata", func(_ interface{}, args []interface{}) interface{} {
		v, ok := Metadata.GetOwn(argStr(args, 0), argAt(args, 1), propKey(args, 2))
		if !ok {
			return Undefined
		}
		return v
	}))
	o.Set("hasMetadata", nativeFn("hasMetadata", func(_ interface{}, args []interface{}) interface{} {
		return Metadata.Has(argStr(args, 0), argAt(args, 1), propKey(args, 2))
	}))
	o.Set("hasOwnMetadata", nativeFn("hasOwnMetadata", func(_ interface{}, args []interface{}) interface{} {
		return Metadata.HasOwn(argStr(args, 0), argAt(args, 1), propKey(args, 2))
	}))
	o.Set("deleteMetadata", nativeFn("deleteMetadata", func(_ interface{}, args []interface{}) interface{} {
		return Metadata.Delete(argStr(args, 0), argAt(args, 1), propKey(args, 2))
	}))
	o.Set("getMetadataKeys", nativeFn("getMetadataKeys", func(_ interface{}, args []interface{}) interface{} {
		keys := Metadata.GetKeys(argAt(args, 0), propKey(args, 1))
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return NewArray(out...)
	}))
	return o
}

func dateConstructor(clock *Clock) *Function {
	ctor := nativeFn("Date", func(_ interface{}, args []interface{}) interface{} {
		if len(args) > 0 {
			return NewDate(argNum(args, 0))
		}
		return NewDate(clock.NowMs)
	})
	ctor.Impl = &nativeMembers{members: map[string]interface{}{
		"now": nativeFn("now", func(_ interface{}, args []interface{}) interface{} {
			clock.ProcessDue()
			return clock.NowMs
		}),
	}}
	return ctor
}

func errorConstructor(kind string) *Function {
	return nativeFn(kind, func(_ interface{}, args []interface{}) interface{} {
		o := NewObject()
		o.Set("name", kind)
		o.Set("message", argStr(args, 0))
		o.Set("stack", kind+": "+argStr(args, 0))
		return o
	})
}

func newMapFrom(v interface{}) *Map {
	m := NewMap()
	if isNullish(v) {
		return m
	}
	for _, entry := range IterableValues(v) {
		if pair, ok := entry.(*Array); ok && len(pair.Elements) >= 2 {
			m.Set(pair.Elements[0], pair.Elements[1])
		}
	}
	return m
}

func parseIntImpl(s string, radix int) float64 {
	s = strings.TrimSpace(s)
	if radix == 0 {
		radix = 10
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	}
	end := 0
	for end < len(s) {
		if _, err := strconv.ParseInt(string(s[end]), radix, 64); err != nil {
			break
		}
		end++
	}
	if end == 0 {
		return math.NaN()
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		return math.NaN()
	}
	if neg {
		return -float64(n)
	}
	return float64(n)
}

func parseFloatImpl(s string) float64 {
	s = strings.TrimSpace(s)
	end := len(s)
	for end > 0 {
		if _, err := strconv.ParseFloat(s[:end], 64); err == nil {
			break
		}
		end--
	}
	if end == 0 {
		return math.NaN()
	}
	n, _ := strconv.ParseFloat(s[:end], 64)
	return n
}

func deepClone(v interface{}) interface{} {
	switch val := v.(type) {
	case *Array:
		out := NewArray()
		for _, e := range val.Elements {
			out.Elements = append(out.Elements, deepClone(e))
		}
		return out
	case *Object:
		out := NewObject()
		for _, k := range val.Keys() {
			out.Set(k, deepClone(val.Get(k)))
		}
		return out
	default:
		return v
	}
}
