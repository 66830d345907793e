package runtime

import (
	"math"
	"strconv"
	"strings"
)

// CallMember invokes the named built-in method on receiver, returning
// (result, true) when receiver's type provides it. This is the runtime
// half of the emitter's method-call fallback (spec §4.7): the emitter
// compiles `recv.name(args)` to a single dispatch that lands here for
// every receiver the type checker could not prove to be a user class.
func CallMember(receiver interface{}, name string, args []interface{}) (interface{}, bool) {
	switch v := receiver.(type) {
	case *Array:
		return callArrayMember(v, name, args)
	case string:
		return callStringMember(v, name, args)
	case *Map:
		return callMapMember(v, name, args)
	case *Set:
		return callSetMember(v, name, args)
	case *WeakMap:
		return callMapMember(v.Map, name, args)
	case *WeakSet:
		return callSetMember(v.Set, name, args)
	case *Object:
		return callObjectMember(v, name, args)
	case *Promise:
		return callPromiseMember(v, name, args)
	case *Console:
		return callConsoleMember(v, name, args)
	case *EmitterBinding:
		return callEmitterMember(v, v, name, args)
	case *StreamBinding:
		return callStreamMember(v, name, args)
	case *RegExp:
		return callRegExpMember(v, name, args)
	case *Date:
		return callDateMember(v, name, args)
	case float64:
		return callNumberMember(v, name, args)
	case *BigInt:
		if name == "toString" {
			return strconv.FormatInt(v.Value, 10), true
		}
		return nil, false
	case AsyncIterator:
		if name == "next" {
			return v.NextAsync(argAt(args, 0)), true
		}
		return nil, false
	case Iterator:
		return callIteratorMember(v, name, args)
	default:
		return nil, false
	}
}

func argAt(args []interface{}, i int) interface{} {
	if i < len(args) {
		return args[i]
	}
	return Undefined
}

func argNum(args []interface{}, i int) float64 { return toNumberOrZero(argAt(args, i)) }

func argInt(args []interface{}, i, d int) int {
	v := argAt(args, i)
	if isNullish(v) {
		return d
	}
	n, ok := toNumberIfComparable(v)
	if !ok {
		return d
	}
	return ToIntegerOrInfinity(n, d)
}

func argStr(args []interface{}, i int) string {
	v := argAt(args, i)
	if isNullish(v) {
		return ""
	}
	return Stringify(v)
}

func argFn(args []interface{}, i int) *Function {
	fn, _ := argAt(args, i).(*Function)
	return fn
}

func elementCallback(args []interface{}, extra interface{}) func(v interface{}, i int) interface{} {
	fn := argFn(args, 0)
	if fn == nil {
		panic(&Exception{Value: "TypeError: callback is not a function"})
	}
	return func(v interface{}, i int) interface{} {
		return fn.Call(Undefined, []interface{}{v, float64(i), extra})
	}
}

func elementPredicate(args []interface{}, extra interface{}) func(v interface{}, i int) bool {
	cb := elementCallback(args, extra)
	return func(v interface{}, i int) bool { return IsTruthy(cb(v, i)) }
}

func comparatorArg(args []interface{}) Comparator {
	fn := argFn(args, 0)
	if fn == nil {
		return nil
	}
	return func(a, b interface{}) float64 {
		return toNumberOrZero(fn.Call(Undefined, []interface{}{a, b}))
	}
}

func callArrayMember(a *Array, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "push":
		return Push(a, args...), true
	case "pop":
		return Pop(a), true
	case "shift":
		return Shift(a), true
	case "unshift":
		return Unshift(a, args...), true
	case "slice":
		length := len(a.Elements)
		start := ClampIndex(argInt(args, 0, 0), length)
		end := length
		if !isNullish(argAt(args, 1)) {
			end = ClampIndex(argInt(args, 1, length), length)
		}
		return Slice(a, start, end), true
	case "splice", "toSpliced":
		length := len(a.Elements)
		start := ClampIndex(argInt(args, 0, 0), length)
		deleteCount := length - start
		if len(args) > 1 {
			deleteCount = argInt(args, 1, 0)
		}
		if deleteCount < 0 {
			deleteCount = 0
		}
		if deleteCount > length-start {
			deleteCount = length - start
		}
		var items []interface{}
		if len(args) > 2 {
			items = args[2:]
		}
		if name == "splice" {
			return Splice(a, start, deleteCount, items...), true
		}
		return ToSpliced(a, start, deleteCount, items...), true
	case "reverse":
		return Reverse(a), true
	case "toReversed":
		return ToReversed(a), true
	case "with":
		return With(a, argInt(args, 0, 0), argAt(args, 1)), true
	case "sort":
		return Sort(a, comparatorArg(args)), true
	case "toSorted":
		return ToSorted(a, comparatorArg(args)), true
	case "flat":
		depth := 1
		if len(args) > 0 {
			depth = argInt(args, 0, 1)
		}
		return Flat(a, depth), true
	case "flatMap":
		return FlatMap(a, elementCallback(args, a)), true
	case "map":
		return MapArray(a, elementCallback(args, a)), true
	case "filter":
		return Filter(a, elementPredicate(args, a)), true
	case "forEach":
		cb := elementCallback(args, a)
		ForEach(a, func(v interface{}, i int) { cb(v, i) })
		return Undefined, true
	case "find":
		return Find(a, elementPredicate(args, a)), true
	case "findIndex":
		return FindIndex(a, elementPredicate(args, a)), true
	case "some":
		return Some(a, elementPredicate(args, a)), true
	case "every":
		return Every(a, elementPredicate(args, a)), true
	case "reduce":
		fn := argFn(args, 0)
		if fn == nil {
			panic(&Exception{Value: "TypeError: callback is not a function"})
		}
		reducer := func(acc, v interface{}, i int) interface{} {
			return fn.Call(Undefined, []interface{}{acc, v, float64(i), a})
		}
		return Reduce(a, reducer, argAt(args, 1), len(args) > 1), true
	case "includes":
		return Includes(a, argAt(args, 0)), true
	case "indexOf":
		return IndexOf(a, argAt(args, 0)), true
	case "join":
		sep := ","
		if !isNullish(argAt(args, 0)) {
			sep = argStr(args, 0)
		}
		return Join(a, sep), true
	case "concat":
		return Concat(a, args...), true
	case "keys":
		keys := make([]interface{}, len(a.Elements))
		for i := range a.Elements {
			keys[i] = float64(i)
		}
		return &sliceIterator{values: keys}, true
	case "values":
		return GetIterator(a), true
	case "entries":
		entries := make([]interface{}, len(a.Elements))
		for i, e := range a.Elements {
			entries[i] = NewArray(float64(i), e)
		}
		return &sliceIterator{values: entries}, true
	}
	return nil, false
}

func callStringMember(s string, name string, args []interface{}) (interface{}, bool) {
	runes := []rune(s)
	switch name {
	case "charAt":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(runes) {
			return "", true
		}
		return string(runes[i]), true
	case "charCodeAt":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(runes) {
			return math.NaN(), true
		}
		return float64(runes[i]), true
	case "codePointAt":
		i := argInt(args, 0, 0)
		if i < 0 || i >= len(runes) {
			return Undefined, true
		}
		return float64(runes[i]), true
	case "at":
		i := argInt(args, 0, 0)
		if i < 0 {
			i += len(runes)
		}
		if i < 0 || i >= len(runes) {
			return Undefined, true
		}
		return string(runes[i]), true
	case "indexOf":
		return float64(strings.Index(s, argStr(args, 0))), true
	case "lastIndexOf":
		return float64(strings.LastIndex(s, argStr(args, 0))), true
	case "includes":
		return strings.Contains(s, argStr(args, 0)), true
	case "startsWith":
		return strings.HasPrefix(s, argStr(args, 0)), true
	case "endsWith":
		return strings.HasSuffix(s, argStr(args, 0)), true
	case "slice":
		start := ClampIndex(argInt(args, 0, 0), len(runes))
		end := len(runes)
		if !isNullish(argAt(args, 1)) {
			end = ClampIndex(argInt(args, 1, len(runes)), len(runes))
		}
		if start > end {
			return "", true
		}
		return string(runes[start:end]), true
	case "substring":
		start := ClampIndex(argInt(args, 0, 0), len(runes))
		end := len(runes)
		if !isNullish(argAt(args, 1)) {
			end = ClampIndex(argInt(args, 1, len(runes)), len(runes))
		}
		if start > end {
			start, end = end, start
		}
		return string(runes[start:end]), true
	case "toUpperCase":
		return strings.ToUpper(s), true
	case "toLowerCase":
		return strings.ToLower(s), true
	case "trim":
		return strings.TrimSpace(s), true
	case "trimStart":
		return strings.TrimLeft(s, " \t\n\r\v\f"), true
	case "trimEnd":
		return strings.TrimRight(s, " \t\n\r\v\f"), true
	case "split":
		sepArg := argAt(args, 0)
		if isNullish(sepArg) {
			return NewArray(s), true
		}
		parts := strings.Split(s, Stringify(sepArg))
		elems := make([]interface{}, len(parts))
		for i, p := range parts {
			elems[i] = p
		}
		return NewArray(elems...), true
	case "replace", "replaceAll":
		if re, ok := argAt(args, 0).(*RegExp); ok {
			return re.ReplaceIn(s, argStr(args, 1), name == "replaceAll"), true
		}
		pattern := argStr(args, 0)
		repl := argStr(args, 1)
		if name == "replaceAll" {
			return strings.ReplaceAll(s, pattern, repl), true
		}
		return strings.Replace(s, pattern, repl, 1), true
	case "repeat":
		n := argInt(args, 0, 0)
		if n < 0 {
			panic(&Exception{Value: "RangeError: Invalid count value: " + FormatNumber(float64(n))})
		}
		return strings.Repeat(s, n), true
	case "padStart", "padEnd":
		target := argInt(args, 0, 0)
		pad := " "
		if !isNullish(argAt(args, 1)) {
			pad = argStr(args, 1)
		}
		if pad == "" || len(runes) >= target {
			return s, true
		}
		fill := make([]rune, 0, target-len(runes))
		padRunes := []rune(pad)
		for len(fill) < target-len(runes) {
			fill = append(fill, padRunes[len(fill)%len(padRunes)])
		}
		if name == "padStart" {
			return string(fill) + s, true
		}
		return s + string(fill), true
	case "concat":
		var out strings.Builder
		out.WriteString(s)
		for _, a := range args {
			out.WriteString(Stringify(a))
		}
		return out.String(), true
	case "toString":
		return s, true
	case "localeCompare":
		other := argStr(args, 0)
		switch {
		case s < other:
			return float64(-1), true
		case s > other:
			return float64(1), true
		}
		return float64(0), true
	}
	return nil, false
}

func callMapMember(m *Map, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "get":
		return m.Get(argAt(args, 0)), true
	case "set":
		return m.Set(argAt(args, 0), argAt(args, 1)), true
	case "has":
		return m.Has(argAt(args, 0)), true
	case "delete":
		return m.Delete(argAt(args, 0)), true
	case "clear":
		m.Clear()
		return Undefined, true
	case "forEach":
		fn := argFn(args, 0)
		if fn == nil {
			panic(&Exception{Value: "TypeError: callback is not a function"})
		}
		m.ForEach(func(value, key interface{}) {
			fn.Call(Undefined, []interface{}{value, key, m})
		})
		return Undefined, true
	case "keys":
		entries := m.Entries()
		keys := make([]interface{}, len(entries))
		for i, e := range entries {
			keys[i] = e[0]
		}
		return &sliceIterator{values: keys}, true
	case "values":
		entries := m.Entries()
		values := make([]interface{}, len(entries))
		for i, e := range entries {
			values[i] = e[1]
		}
		return &sliceIterator{values: values}, true
	case "entries":
		return GetIterator(m), true
	}
	return nil, false
}

func otherSetArg(args []interface{}) *Set {
	if s, ok := argAt(args, 0).(*Set); ok {
		return s
	}
	panic(&Exception{Value: "TypeError: argument must be a Set"})
}

func callSetMember(s *Set, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "add":
		return s.Add(argAt(args, 0)), true
	case "has":
		return s.Has(argAt(args, 0)), true
	case "delete":
		return s.Delete(argAt(args, 0)), true
	case "clear":
		s.Clear()
		return Undefined, true
	case "forEach":
		fn := argFn(args, 0)
		if fn == nil {
			panic(&Exception{Value: "TypeError: callback is not a function"})
		}
		s.ForEach(func(v interface{}) {
			fn.Call(Undefined, []interface{}{v, v, s})
		})
		return Undefined, true
	case "values", "keys":
		return GetIterator(s), true
	case "union":
		return Union(s, otherSetArg(args)), true
	case "intersection":
		return Intersection(s, otherSetArg(args)), true
	case "difference":
		return Difference(s, otherSetArg(args)), true
	case "symmetricDifference":
		return SymmetricDifference(s, otherSetArg(args)), true
	case "isSubsetOf":
		return IsSubsetOf(s, otherSetArg(args)), true
	case "isSupersetOf":
		return IsSupersetOf(s, otherSetArg(args)), true
	case "isDisjointFrom":
		return IsDisjointFrom(s, otherSetArg(args)), true
	}
	return nil, false
}

func callObjectMember(o *Object, name string, args []interface{}) (interface{}, bool) {
	// A plain object's own function-valued property is an ordinary
	// method call; class methods are resolved by GetProperty's chain.
	if fn, ok := o.Get(name).(*Function); ok {
		return fn.Call(o, args), true
	}
	if o.Class != nil {
		if m := o.Class.findMethod(name); m != nil {
			return m(o, args), true
		}
	}
	switch name {
	case "hasOwnProperty":
		return o.Has(argStr(args, 0)), true
	case "toString":
		return Stringify(o), true
	}
	return nil, false
}

func promiseHandler(fn *Function) func(v interface{}) interface{} {
	if fn == nil {
		return nil
	}
	return func(v interface{}) interface{} {
		return fn.Call(Undefined, []interface{}{v})
	}
}

func callPromiseMember(p *Promise, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "then":
		return p.Then(promiseHandler(argFn(args, 0)), promiseHandler(argFn(args, 1))), true
	case "catch":
		return p.Catch(promiseHandler(argFn(args, 0))), true
	case "finally":
		fn := argFn(args, 0)
		return p.Finally(func() {
			if fn != nil {
				fn.Call(Undefined, nil)
			}
		}), true
	}
	return nil, false
}

func callConsoleMember(c *Console, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "log":
		c.Log(args...)
	case "info":
		c.Info(args...)
	case "debug":
		c.Debug(args...)
	case "warn":
		c.Warn(args...)
	case "error":
		c.Error(args...)
	case "trace":
		c.Trace(args...)
	case "count":
		label := ""
		if len(args) > 0 {
			label = argStr(args, 0)
		}
		c.Count(label)
	case "countReset":
		label := ""
		if len(args) > 0 {
			label = argStr(args, 0)
		}
		c.CountReset(label)
	case "time":
		c.Time(argStr(args, 0))
	case "timeEnd":
		c.TimeEnd(argStr(args, 0))
	case "timeLog":
		label := argStr(args, 0)
		var extra []interface{}
		if len(args) > 1 {
			extra = args[1:]
		}
		c.TimeLog(label, extra...)
	case "group":
		c.Group(args...)
	case "groupEnd":
		c.GroupEnd()
	default:
		return nil, false
	}
	return Undefined, true
}

// EmitterBinding pairs an EventEmitter with the per-user-function
// wrapper cache removeListener's identity comparison requires: the same
// *Function registered twice maps to the same Go func value.
type EmitterBinding struct {
	Emitter  *EventEmitter
	wrappers map[*Function]func(args []interface{})
}

// NewEmitterBinding wraps a fresh EventEmitter for user code.
func NewEmitterBinding() *EmitterBinding {
	return &EmitterBinding{Emitter: NewEventEmitter(), wrappers: map[*Function]func(args []interface{}){}}
}

func (b *EmitterBinding) wrapperFor(fn *Function) func(args []interface{}) {
	if fn == nil {
		panic(&Exception{Value: "TypeError: listener is not a function"})
	}
	if w, ok := b.wrappers[fn]; ok {
		return w
	}
	w := func(args []interface{}) { fn.Call(Undefined, args) }
	b.wrappers[fn] = w
	return w
}

// callEmitterMember dispatches the EventEmitter method surface. self is
// the value returned for chainable calls (the stream binding passes
// itself so `w.on(...).write(...)` chains stay on the stream).
func callEmitterMember(b *EmitterBinding, self interface{}, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "on", "addListener":
		b.Emitter.On(argStr(args, 0), b.wrapperFor(argFn(args, 1)))
		return self, true
	case "once":
		b.Emitter.Once(argStr(args, 0), b.wrapperFor(argFn(args, 1)))
		return self, true
	case "prependListener":
		b.Emitter.PrependListener(argStr(args, 0), b.wrapperFor(argFn(args, 1)))
		return self, true
	case "removeListener", "off":
		b.Emitter.RemoveListener(argStr(args, 0), b.wrapperFor(argFn(args, 1)))
		return self, true
	case "removeAllListeners":
		name := ""
		if len(args) > 0 {
			name = argStr(args, 0)
		}
		b.Emitter.RemoveAllListeners(name)
		return self, true
	case "emit":
		var rest []interface{}
		if len(args) > 1 {
			rest = args[1:]
		}
		return b.Emitter.Emit(argStr(args, 0), rest...), true
	case "listenerCount":
		return float64(b.Emitter.ListenerCount(argStr(args, 0))), true
	case "setMaxListeners":
		b.Emitter.SetMaxListeners(argInt(args, 0, defaultMaxListeners))
		return self, true
	case "getMaxListeners":
		return float64(b.Emitter.MaxListeners()), true
	}
	return nil, false
}

// StreamBinding exposes a Writable to user code, routing `_writeCallback`
// and `_finalCallback` property writes into the stream's Go callbacks
// and reflecting the state machine's flags as read-only properties.
type StreamBinding struct {
	Stream  *Writable
	emitter *EmitterBinding
}

// NewStreamBinding creates a writable-stream instance for user code.
func NewStreamBinding() *StreamBinding {
	w := NewWritable(nil, nil)
	return &StreamBinding{
		Stream:  w,
		emitter: &EmitterBinding{Emitter: w.EventEmitter, wrappers: map[*Function]func(args []interface{}){}},
	}
}

// GetProp implements PropertyAccessor.
func (b *StreamBinding) GetProp(name string) (interface{}, bool) {
	switch name {
	case "writable":
		return b.Stream.State.Writable && !b.Stream.State.Ended && !b.Stream.State.Destroyed, true
	case "writableEnded":
		return b.Stream.State.Ended, true
	case "writableFinished":
		return b.Stream.State.Finished, true
	case "destroyed":
		return b.Stream.State.Destroyed, true
	case "writableCorked":
		return float64(b.Stream.State.Corked), true
	}
	return nil, false
}

// SetProp implements PropertyAccessor.
func (b *StreamBinding) SetProp(name string, value interface{}) bool {
	fn, _ := value.(*Function)
	switch name {
	case "_writeCallback":
		if fn == nil {
			b.Stream.WriteCallback = nil
			return true
		}
		b.Stream.WriteCallback = func(chunk interface{}) error {
			fn.Call(Undefined, []interface{}{chunk})
			return nil
		}
		return true
	case "_finalCallback":
		if fn == nil {
			b.Stream.FinalCallback = nil
			return true
		}
		b.Stream.FinalCallback = func() error {
			fn.Call(Undefined, nil)
			return nil
		}
		return true
	}
	return false
}

func callStreamMember(b *StreamBinding, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "write":
		return b.Stream.Write(argAt(args, 0)), true
	case "end":
		if len(args) > 0 {
			b.Stream.End(args[0])
		} else {
			b.Stream.End()
		}
		return b, true
	case "destroy":
		if len(args) > 0 && !isNullish(args[0]) {
			b.Stream.DestroyWithError(args[0])
		} else {
			b.Stream.Destroy()
		}
		return b, true
	case "cork":
		b.Stream.Cork()
		return b, true
	case "uncork":
		b.Stream.Uncork()
		return b, true
	}
	return callEmitterMember(b.emitter, b, name, args)
}

func callRegExpMember(r *RegExp, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "test":
		return r.Test(argStr(args, 0)), true
	case "exec":
		return r.Exec(argStr(args, 0)), true
	case "toString":
		return r.String(), true
	}
	return nil, false
}

func callDateMember(d *Date, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "getTime", "valueOf":
		return d.GetTime(), true
	case "toISOString", "toString":
		return d.ToISOString(), true
	case "getFullYear":
		return d.GetFullYear(), true
	case "getMonth":
		return d.GetMonth(), true
	case "getDate":
		return d.GetDate(), true
	case "getHours":
		return d.GetHours(), true
	case "getMinutes":
		return d.GetMinutes(), true
	case "getSeconds":
		return d.GetSeconds(), true
	}
	return nil, false
}

func callNumberMember(n float64, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "toString":
		radix := argInt(args, 0, 10)
		if radix == 10 {
			return FormatNumber(n), true
		}
		if radix < 2 || radix > 36 {
			panic(&Exception{Value: "RangeError: toString() radix must be between 2 and 36"})
		}
		return strconv.FormatInt(int64(n), radix), true
	case "toFixed":
		digits := argInt(args, 0, 0)
		return strconv.FormatFloat(n, 'f', digits, 64), true
	case "toPrecision":
		if isNullish(argAt(args, 0)) {
			return FormatNumber(n), true
		}
		return strconv.FormatFloat(n, 'g', argInt(args, 0, 6), 64), true
	}
	return nil, false
}

// Dispose releases a `using`-bound resource at scope exit: the
// `[Symbol.dispose]` member when the declaring class used the computed
// well-known key, else a plain `dispose` method. A value with neither
// is a TypeError, matching engine behavior for non-disposable `using`.
func Dispose(v interface{}) {
	if isNullish(v) {
		return
	}
	if _, ok := CallMember(v, "Symbol.dispose", nil); ok {
		return
	}
	if _, ok := CallMember(v, "dispose", nil); ok {
		return
	}
	panic(&Exception{Value: "TypeError: object is not disposable"})
}

func callIteratorMember(it Iterator, name string, args []interface{}) (interface{}, bool) {
	switch name {
	case "next":
		value, done := it.Next(argAt(args, 0))
		return IterResult(value, done), true
	case "return":
		value, done := it.Return(argAt(args, 0))
		return IterResult(value, done), true
	case "throw":
		value, done := it.Throw(argAt(args, 0))
		return IterResult(value, done), true
	}
	return nil, false
}
