// Package runtime is the synthesized runtime library the code emitter
// calls into (spec §4.7): value coercion helpers, numeric helpers,
// collection methods, JSON, timers, the event emitter, the writable
// stream base, and reflection metadata. Every helper here is a pure
// function over an explicit Value representation except the three
// pieces of process-wide state spec §5 names: the timer queue (Clock),
// per-instance EventEmitter listener maps, and the single Metadata
// registry singleton.
package runtime

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Undefined is the distinct JS `undefined` value. Go's untyped nil is
// reserved for `null`, so loose/strict equality can tell them apart per
// spec §8 ("null == undefined is true, null === undefined is false").
type undefinedType struct{}

// Undefined is the single instance of the `undefined` value.
var Undefined = undefinedType{}

// Object is a plain JS object: an ordered property map (insertion order
// matters for `for...in`, Object.keys, and JSON.stringify).
type Object struct {
	keys   []string
	values map[string]interface{}
	// Frozen blocks writes once Object.freeze has been applied. Freezing
	// twice is the same as freezing once (spec §8 idempotence).
	Frozen bool
	// Class is set when this Object backs a class instance; used by
	// property dispatch to fall through to prototype methods and by JSON
	// stringification to find toJSON()/reflect fields.
	Class *ClassInstanceInfo
	// privates holds `#name` fields, reachable only through the
	// GetPrivate/SetPrivate/CallPrivate paths the emitter uses for
	// private member syntax — never via GetProperty or enumeration.
	privates map[string]interface{}
}

// ClassInstanceInfo names the originating class and its member tables,
// consulted by GetProperty for method/getter dispatch and by
// JsonStringify for reading `__`-prefixed backing fields. Parent links
// to the superclass's info so dispatch walks the chain (spec §4.4).
type ClassInstanceInfo struct {
	Name    string
	Methods map[string]func(this *Object, args []interface{}) interface{}
	Getters map[string]func(this *Object) interface{}
	Setters map[string]func(this *Object, value interface{})
	ToJSON  func(this *Object) interface{}
	Parent  *ClassInstanceInfo
}

// findGetter walks the class chain for an instance getter.
func (info *ClassInstanceInfo) findGetter(name string) func(this *Object) interface{} {
	for i := info; i != nil; i = i.Parent {
		if g, ok := i.Getters[name]; ok {
			return g
		}
	}
	return nil
}

func (info *ClassInstanceInfo) findSetter(name string) func(this *Object, value interface{}) {
	for i := info; i != nil; i = i.Parent {
		if s, ok := i.Setters[name]; ok {
			return s
		}
	}
	return nil
}

func (info *ClassInstanceInfo) findMethod(name string) func(this *Object, args []interface{}) interface{} {
	for i := info; i != nil; i = i.Parent {
		if m, ok := i.Methods[name]; ok {
			return m
		}
	}
	return nil
}

// NewObject creates an empty plain object.
func NewObject() *Object {
	return &Object{values: map[string]interface{}{}}
}

// Get reads a property, returning Undefined when absent.
func (o *Object) Get(name string) interface{} {
	if v, ok := o.values[name]; ok {
		return v
	}
	return Undefined
}

// Has reports whether name is an own property.
func (o *Object) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Set assigns a property, appending to key order the first time the key
// is seen. Writes to a frozen object are silently dropped (non-strict
// JS semantics).
func (o *Object) Set(name string, value interface{}) {
	if o.Frozen {
		return
	}
	if o.values == nil {
		o.values = map[string]interface{}{}
	}
	if _, exists := o.values[name]; !exists {
		o.keys = append(o.keys, name)
	}
	o.values[name] = value
}

// Delete removes a property, returning whether it existed.
func (o *Object) Delete(name string) bool {
	if _, ok := o.values[name]; !ok {
		return false
	}
	delete(o.values, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns own enumerable property names in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// GetPrivate reads a `#name` field, panicking with the JS TypeError a
// brand-check failure produces when the field was never installed.
func (o *Object) GetPrivate(name string) interface{} {
	if v, ok := o.privates[name]; ok {
		return v
	}
	panic(&Exception{Value: "TypeError: Cannot read private member #" + name + " from an object whose class did not declare it"})
}

// SetPrivate writes a `#name` field. Installation (first write) happens
// during construction via field initializers, after which writes from
// class bodies are ordinary updates.
func (o *Object) SetPrivate(name string, value interface{}) {
	if o.privates == nil {
		o.privates = map[string]interface{}{}
	}
	o.privates[name] = value
}

// HasPrivate reports whether the `#name` brand is installed.
func (o *Object) HasPrivate(name string) bool {
	_, ok := o.privates[name]
	return ok
}

// PrivateNames lists installed private-field names in sorted order.
func (o *Object) PrivateNames() []string {
	return sortStrings(mapKeys(o.privates))
}

func mapKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// MemberCarrier lets a non-Object value (a class value, a namespace
// object backed by the VM) expose named members through GetProperty/
// SetProperty without the runtime knowing its concrete type.
type MemberCarrier interface {
	GetMember(name string) (interface{}, bool)
	SetMember(name string, value interface{}) bool
}

// ClassCarrier is implemented by class values so `instanceof` can reach
// the instance-info chain without the runtime importing the VM.
type ClassCarrier interface {
	InstanceInfo() *ClassInstanceInfo
}

// Array is a JS array: a dense, growable slice of values. Holes (elided
// array-literal elements) are represented by Undefined.
type Array struct {
	Elements []interface{}
}

// NewArray builds an Array from the given elements.
func NewArray(elems ...interface{}) *Array { return &Array{Elements: elems} }

func (a *Array) Len() int { return len(a.Elements) }

func (a *Array) Get(i int) interface{} {
	if i < 0 || i >= len(a.Elements) {
		return Undefined
	}
	return a.Elements[i]
}

func (a *Array) Set(i int, v interface{}) {
	if i < 0 {
		return
	}
	for i >= len(a.Elements) {
		a.Elements = append(a.Elements, Undefined)
	}
	a.Elements[i] = v
}

// CreateArray implements spec §4.7 `CreateArray`.
func CreateArray(elems ...interface{}) *Array { return NewArray(elems...) }

// CreateObject implements spec §4.7 `CreateObject`.
func CreateObject() *Object { return NewObject() }

// TypeOf implements the `typeof` operator.
func TypeOf(v interface{}) string {
	switch val := v.(type) {
	case undefinedType:
		return "undefined"
	case nil:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case *BigInt:
		return "bigint"
	case *Object:
		return "object"
	case *Array:
		return "object"
	case *Function:
		return "function"
	case *Symbol:
		return "symbol"
	default:
		_ = val
		return "object"
	}
}

// Function wraps a callable value: a compiled closure, or a Go-native
// runtime helper exposed to user code (e.g. a bound method). Impl holds
// the producer's backing record (the VM's closure or class value) so
// property access and instanceof can reach through without the runtime
// depending on the VM package.
type Function struct {
	Name string
	Call func(this interface{}, args []interface{}) interface{}
	Impl interface{}
}

// Symbol is an opaque unique value (`Symbol()`); identity-compared only.
type Symbol struct{ Description string }

// BigInt is an arbitrary-precision integer value. The subset supported
// here backs it with int64 arithmetic (bigint literals beyond that range
// are out of scope for the VM's numeric tower, consistent with spec §1's
// "pragmatic subset").
type BigInt struct{ Value int64 }

func (b *BigInt) String() string { return strconv.FormatInt(b.Value, 10) + "n" }

// IsTruthy implements JS truthiness.
func IsTruthy(v interface{}) bool {
	switch val := v.(type) {
	case undefinedType:
		return false
	case nil:
		return false
	case bool:
		return val
	case float64:
		return val != 0 && !math.IsNaN(val)
	case string:
		return val != ""
	case *BigInt:
		return val.Value != 0
	default:
		return true // objects, arrays, functions, symbols are always truthy
	}
}

// StrictEquals implements `===`: same type and same value, with no
// null/undefined coalescing and NaN !== NaN.
func StrictEquals(a, b interface{}) bool {
	switch av := a.(type) {
	case undefinedType:
		_, ok := b.(undefinedType)
		return ok
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv // NaN != NaN falls out of Go's float equality
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case *BigInt:
		bv, ok := b.(*BigInt)
		return ok && av.Value == bv.Value
	default:
		return a == b // reference equality for objects/arrays/functions/symbols
	}
}

// Equals implements loose `==`: null and undefined compare equal to each
// other and nothing else; otherwise numbers/strings/booleans coerce to
// number before comparing (the subset's coercion table).
func Equals(a, b interface{}) bool {
	if isNullish(a) && isNullish(b) {
		return true
	}
	if isNullish(a) != isNullish(b) {
		return false
	}
	if StrictEquals(a, b) {
		return true
	}
	an, aIsNum := toNumberIfComparable(a)
	bn, bIsNum := toNumberIfComparable(b)
	if aIsNum && bIsNum {
		return an == bn
	}
	return false
}

// IsNullish reports whether v is JS `null` or `undefined`, used by the
// `?.`/`??` short-circuit operators.
func IsNullish(v interface{}) bool { return isNullish(v) }

func isNullish(v interface{}) bool {
	if v == nil {
		return true
	}
	_, ok := v.(undefinedType)
	return ok
}

// ToNumber implements JS ToNumber for the operand positions the
// emitter's inline arithmetic reaches: numbers pass through, booleans
// and numeric strings coerce, everything else is NaN (except null,
// which is 0, and undefined, which is NaN).
func ToNumber(v interface{}) float64 {
	switch v.(type) {
	case undefinedType:
		return math.NaN()
	case nil:
		return 0
	}
	n, ok := toNumberIfComparable(v)
	if !ok {
		return math.NaN()
	}
	return n
}

func toNumberIfComparable(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			if strings.TrimSpace(val) == "" {
				return 0, true
			}
			return math.NaN(), true
		}
		return n, true
	}
	return 0, false
}

// Add implements the `+` operator's JS coercion: string concatenation
// when either operand is a string, otherwise numeric addition.
func Add(a, b interface{}) interface{} {
	as, aIsStr := a.(string)
	bs, bIsStr := b.(string)
	if aIsStr || bIsStr {
		left := as
		if !aIsStr {
			left = Stringify(a)
		}
		right := bs
		if !bIsStr {
			right = Stringify(b)
		}
		return left + right
	}
	if abi, ok := a.(*BigInt); ok {
		if bbi, ok := b.(*BigInt); ok {
			return &BigInt{Value: abi.Value + bbi.Value}
		}
	}
	an := ToNumber(a)
	bn := ToNumber(b)
	if !isNumericLike(a) {
		an = math.NaN()
	}
	if !isNumericLike(b) {
		bn = math.NaN()
	}
	return an + bn
}

func isNumericLike(v interface{}) bool {
	switch v.(type) {
	case float64, bool:
		return true
	case undefinedType:
		return true
	case nil:
		return true
	}
	return false
}

// Stringify implements JS ToString for console/template-literal/`+` use.
func Stringify(v interface{}) string {
	switch val := v.(type) {
	case undefinedType:
		return "undefined"
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return FormatNumber(val)
	case string:
		return val
	case *BigInt:
		return strconv.FormatInt(val.Value, 10)
	case *Array:
		parts := make([]string, len(val.Elements))
		for i, e := range val.Elements {
			if isNullish(e) {
				parts[i] = ""
			} else {
				parts[i] = Stringify(e)
			}
		}
		return strings.Join(parts, ",")
	case *Object:
		// Error-shaped objects stringify the way JS's String(error)
		// does, so an uncaught `throw new Error("x")` prints usefully.
		if val.Has("name") && val.Has("message") {
			if name, ok := val.Get("name").(string); ok {
				if msg, ok := val.Get("message").(string); ok {
					if msg == "" {
						return name
					}
					return name + ": " + msg
				}
			}
		}
		return "[object Object]"
	case *Function:
		return "function " + val.Name + "() { [native code] }"
	case *Symbol:
		return "Symbol(" + val.Description + ")"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// FormatNumber renders a float64 the way JS's Number.prototype.toString
// does for the common cases: integers with no fractional part print
// without a decimal point, NaN/Infinity print their literal names, and
// everything else uses the shortest round-tripping representation.
func FormatNumber(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	if math.IsInf(f, 1) {
		return "Infinity"
	}
	if math.IsInf(f, -1) {
		return "-Infinity"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// InstanceOf implements `x instanceof Class`: walk the instance's class
// chain comparing against the class value's own info record.
func InstanceOf(v interface{}, class interface{}) bool {
	obj, ok := v.(*Object)
	if !ok || obj.Class == nil {
		return false
	}
	target := instanceInfoOf(class)
	if target == nil {
		return false
	}
	for info := obj.Class; info != nil; info = info.Parent {
		if info == target {
			return true
		}
	}
	return false
}

func instanceInfoOf(class interface{}) *ClassInstanceInfo {
	if fn, ok := class.(*Function); ok {
		if cc, ok := fn.Impl.(ClassCarrier); ok {
			return cc.InstanceInfo()
		}
	}
	if cc, ok := class.(ClassCarrier); ok {
		return cc.InstanceInfo()
	}
	return nil
}

// HasProperty implements the `in` operator.
func HasProperty(receiver interface{}, name string) bool {
	switch v := receiver.(type) {
	case *Object:
		if v.Has(name) {
			return true
		}
		return v.Class != nil && (v.Class.findMethod(name) != nil || v.Class.findGetter(name) != nil)
	case *Array:
		i, ok := toIntIndex(name)
		return ok && i >= 0 && i < len(v.Elements)
	default:
		return false
	}
}

// GetProperty implements the general property-read fallback path (spec
// §4.7). Dispatch order for class instances follows §4.4: instance
// getter, own field, then method, walking the superclass chain.
func GetProperty(receiver interface{}, name string) interface{} {
	switch v := receiver.(type) {
	case *Object:
		if v.Class != nil {
			if g := v.Class.findGetter(name); g != nil {
				return g(v)
			}
		}
		if v.Has(name) {
			return v.Get(name)
		}
		if v.Class != nil {
			if m := v.Class.findMethod(name); m != nil {
				return &Function{Name: name, Call: func(_ interface{}, args []interface{}) interface{} { return m(v, args) }}
			}
		}
		return Undefined
	case *Array:
		return arrayProperty(v, name)
	case string:
		return stringProperty(v, name)
	case *Map:
		if name == "size" {
			return float64(v.Size())
		}
		return Undefined
	case *Set:
		if name == "size" {
			return float64(v.Size())
		}
		return Undefined
	case *Function:
		if mc, ok := v.Impl.(MemberCarrier); ok {
			if member, found := mc.GetMember(name); found {
				return member
			}
		}
		if name == "name" {
			return v.Name
		}
		return Undefined
	case MemberCarrier:
		if member, found := v.GetMember(name); found {
			return member
		}
		return Undefined
	case PropertyAccessor:
		if member, found := v.GetProp(name); found {
			return member
		}
		return Undefined
	case nil, undefinedType:
		panic(&Exception{Value: "TypeError: Cannot read properties of " + Stringify(receiver) + " (reading '" + name + "')"})
	default:
		return Undefined
	}
}

// PropertyAccessor lets runtime bindings (streams, promises exposed as
// objects) intercept reads/writes of named properties.
type PropertyAccessor interface {
	GetProp(name string) (interface{}, bool)
	SetProp(name string, value interface{}) bool
}

// SetProperty implements the general property-write fallback path,
// honoring instance setters through the class chain and reporting the
// §4.4 getter-without-setter error.
func SetProperty(receiver interface{}, name string, value interface{}) {
	switch v := receiver.(type) {
	case *Object:
		if v.Class != nil {
			if s := v.Class.findSetter(name); s != nil {
				s(v, value)
				return
			}
			if v.Class.findGetter(name) != nil && !v.Has(name) {
				panic(&Exception{Value: "TypeError: Cannot set property " + name + " of " + v.Class.Name + " which has only a getter"})
			}
		}
		v.Set(name, value)
	case *Array:
		if name == "length" {
			n := int(toNumberOrZero(value))
			if n < len(v.Elements) {
				v.Elements = v.Elements[:n]
			} else {
				for len(v.Elements) < n {
					v.Elements = append(v.Elements, Undefined)
				}
			}
		}
	case *Function:
		if mc, ok := v.Impl.(MemberCarrier); ok {
			mc.SetMember(name, value)
		}
	case MemberCarrier:
		v.SetMember(name, value)
	case PropertyAccessor:
		v.SetProp(name, value)
	}
}

func toNumberOrZero(v interface{}) float64 {
	n, ok := toNumberIfComparable(v)
	if !ok {
		return 0
	}
	return n
}

// GetIndex implements indexed access for arrays, strings, maps, and
// objects-used-as-dictionaries.
func GetIndex(receiver, index interface{}) interface{} {
	switch v := receiver.(type) {
	case *Array:
		i, ok := toIntIndex(index)
		if !ok {
			return Undefined
		}
		return v.Get(i)
	case string:
		i, ok := toIntIndex(index)
		if !ok || i < 0 || i >= len([]rune(v)) {
			return Undefined
		}
		return string([]rune(v)[i])
	case *Map:
		return v.Get(index)
	case *Object:
		return GetProperty(v, Stringify(index))
	default:
		return Undefined
	}
}

// SetIndex implements indexed assignment.
func SetIndex(receiver, index, value interface{}) {
	switch v := receiver.(type) {
	case *Array:
		i, ok := toIntIndex(index)
		if ok {
			v.Set(i, value)
		}
	case *Map:
		v.Set(index, value)
	case *Object:
		SetProperty(v, Stringify(index), value)
	}
}

func toIntIndex(v interface{}) (int, bool) {
	n, ok := toNumberIfComparable(v)
	if !ok || math.IsNaN(n) {
		return 0, false
	}
	return int(n), true
}

// MergeIntoObject implements object-literal spread (`{...src}`): copies
// src's own enumerable keys onto dst in order.
func MergeIntoObject(dst, src *Object) {
	for _, k := range src.Keys() {
		dst.Set(k, src.Get(k))
	}
}

// RestObject implements object rest-destructuring (`const {a, ...rest}
// = obj`): a clone of v's own properties, or an empty object when v
// isn't an *Object. Callers delete the explicitly-bound keys back out
// of the clone.
func RestObject(v interface{}) *Object {
	out := NewObject()
	if o, ok := v.(*Object); ok {
		MergeIntoObject(out, o)
	}
	return out
}

// ConcatArrays implements spread-aware array concatenation
// (`[...a, ...b]` / `Array.prototype.concat`): each argument that is
// itself an *Array is flattened one level (honoring isConcatSpreadable
// being true by default for arrays in this subset); anything else is
// appended as a single element.
func ConcatArrays(parts ...interface{}) *Array {
	out := &Array{}
	for _, p := range parts {
		if arr, ok := p.(*Array); ok {
			out.Elements = append(out.Elements, arr.Elements...)
		} else {
			out.Elements = append(out.Elements, p)
		}
	}
	return out
}

// InvokeValue calls a value as a function with no explicit `this`.
func InvokeValue(callee interface{}, args []interface{}) interface{} {
	return InvokeWithThis(callee, Undefined, args)
}

// InvokeWithThis calls a value as a function with an explicit `this`
// binding, as used for method calls and `Function.prototype.call/apply`.
func InvokeWithThis(callee interface{}, this interface{}, args []interface{}) interface{} {
	fn, ok := callee.(*Function)
	if !ok {
		panic(&Exception{Value: "TypeError: " + Stringify(callee) + " is not a function"})
	}
	return fn.Call(this, args)
}

// Exception is the Go-level panic payload used to carry a thrown JS value
// (which may be any value, per spec §7) up to the nearest recover in the
// compiled try/catch dispatch.
type Exception struct{ Value interface{} }

func (e *Exception) Error() string { return Stringify(e.Value) }

func arrayProperty(a *Array, name string) interface{} {
	if name == "length" {
		return float64(len(a.Elements))
	}
	return Undefined
}

func stringProperty(s string, name string) interface{} {
	if name == "length" {
		return float64(len([]rune(s)))
	}
	return Undefined
}

// sortStrings returns a sorted copy of s; PrivateNames uses it for a
// deterministic order independent of insertion.
func sortStrings(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}
