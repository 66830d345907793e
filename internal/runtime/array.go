package runtime

import "strconv"

// ArrayMethods implements the exhaustive set of Array.prototype methods
// named in spec §4.7. Reverse and Sort mutate in place and return the
// same *Array they were given; Push/Unshift return the new length,
// Pop/Shift the removed element, and Splice the removed elements as a
// new array. Methods that project a new array always allocate one.

// Push appends elements and returns the new length.
func Push(a *Array, values ...interface{}) float64 {
	a.Elements = append(a.Elements, values...)
	return float64(len(a.Elements))
}

// Pop removes and returns the last element, or Undefined if empty.
func Pop(a *Array) interface{} {
	if len(a.Elements) == 0 {
		return Undefined
	}
	last := a.Elements[len(a.Elements)-1]
	a.Elements = a.Elements[:len(a.Elements)-1]
	return last
}

// Shift removes and returns the first element.
func Shift(a *Array) interface{} {
	if len(a.Elements) == 0 {
		return Undefined
	}
	first := a.Elements[0]
	a.Elements = a.Elements[1:]
	return first
}

// Unshift prepends elements and returns the new length.
func Unshift(a *Array, values ...interface{}) float64 {
	a.Elements = append(append([]interface{}{}, values...), a.Elements...)
	return float64(len(a.Elements))
}

// Slice returns a shallow copy of [start, end) with JS's relative-index
// and clamping rules applied.
func Slice(a *Array, start, end int) *Array {
	n := len(a.Elements)
	s := ClampIndex(start, n)
	e := ClampIndex(end, n)
	if e < s {
		e = s
	}
	out := make([]interface{}, e-s)
	copy(out, a.Elements[s:e])
	return &Array{Elements: out}
}

// RestArray implements array rest-destructuring (`const [a, ...rest] =
// arr`): the elements from index from to the end, or an empty array
// when v isn't an *Array.
func RestArray(v interface{}, from int) *Array {
	a, ok := v.(*Array)
	if !ok {
		return NewArray()
	}
	return Slice(a, from, len(a.Elements))
}

// IterableValues snapshots v into a value sequence for the positions
// that consume an iterable exhaustively by definition — spread
// elements, Array.from, Set/Map construction: an *Array yields its
// elements, a string yields one-character strings per code point, maps
// yield [k, v] entry pairs, sets their values, and a sync Iterator (a
// generator object) is drained to exhaustion. Anything else yields no
// values. Loops must NOT use this — `for...of` goes through
// GetIterator so generator bodies interleave with the loop body and an
// early break stops pulling.
func IterableValues(v interface{}) []interface{} {
	switch t := v.(type) {
	case *Array:
		out := make([]interface{}, len(t.Elements))
		copy(out, t.Elements)
		return out
	case string:
		runes := []rune(t)
		out := make([]interface{}, len(runes))
		for i, r := range runes {
			out[i] = string(r)
		}
		return out
	case *Map:
		entries := t.Entries()
		out := make([]interface{}, len(entries))
		for i, e := range entries {
			out[i] = NewArray(e[0], e[1])
		}
		return out
	case *Set:
		return t.Values()
	case Iterator:
		var out []interface{}
		for {
			value, done := t.Next(Undefined)
			if done {
				return out
			}
			out = append(out, value)
		}
	default:
		return nil
	}
}

// EnumerableKeys lists the keys a `for...in` loop walks: an *Object's
// own property names in insertion order, or an *Array's indices as
// strings ("0", "1", ...).
func EnumerableKeys(v interface{}) []interface{} {
	switch t := v.(type) {
	case *Object:
		keys := t.Keys()
		out := make([]interface{}, len(keys))
		for i, k := range keys {
			out[i] = k
		}
		return out
	case *Array:
		out := make([]interface{}, len(t.Elements))
		for i := range t.Elements {
			out[i] = strconv.Itoa(i)
		}
		return out
	default:
		return nil
	}
}

// Splice removes deleteCount elements starting at start and inserts
// items in their place, returning the removed elements.
func Splice(a *Array, start, deleteCount int, items ...interface{}) *Array {
	n := len(a.Elements)
	s := ClampIndex(start, n)
	dc := deleteCount
	if dc < 0 {
		dc = 0
	}
	if s+dc > n {
		dc = n - s
	}
	removed := append([]interface{}{}, a.Elements[s:s+dc]...)
	tail := append([]interface{}{}, a.Elements[s+dc:]...)
	a.Elements = append(append(a.Elements[:s], items...), tail...)
	return &Array{Elements: removed}
}

// ToSpliced is the non-mutating ES2025 counterpart of Splice.
func ToSpliced(a *Array, start, deleteCount int, items ...interface{}) *Array {
	copyArr := &Array{Elements: append([]interface{}{}, a.Elements...)}
	Splice(copyArr, start, deleteCount, items...)
	return copyArr
}

// Reverse mutates a in place and returns it.
func Reverse(a *Array) *Array {
	for i, j := 0, len(a.Elements)-1; i < j; i, j = i+1, j-1 {
		a.Elements[i], a.Elements[j] = a.Elements[j], a.Elements[i]
	}
	return a
}

// ToReversed is the non-mutating ES2025 counterpart of Reverse.
func ToReversed(a *Array) *Array {
	out := &Array{Elements: append([]interface{}{}, a.Elements...)}
	Reverse(out)
	return out
}

// With returns a copy of a with the element at index replaced.
func With(a *Array, index int, value interface{}) *Array {
	n := len(a.Elements)
	i := index
	if i < 0 {
		i += n
	}
	out := append([]interface{}{}, a.Elements...)
	if i >= 0 && i < n {
		out[i] = value
	}
	return &Array{Elements: out}
}

// Comparator is a user-supplied `(a, b) => number` comparison function,
// or nil for the default stringify-and-compare ordering.
type Comparator func(a, b interface{}) float64

// Sort implements `Array.prototype.sort` per spec §4.7/§8: a stable
// insertion sort over the three-phase partition — defined elements sort
// first (honoring the comparator's sign, treating NaN/0 as "no swap" to
// preserve stability), then every `undefined` is appended at the end in
// its original relative order.
func Sort(a *Array, cmp Comparator) *Array {
	a.Elements = stableSortedWithUndefinedsLast(a.Elements, cmp)
	return a
}

// ToSorted is the non-mutating ES2025 counterpart of Sort.
func ToSorted(a *Array, cmp Comparator) *Array {
	return &Array{Elements: stableSortedWithUndefinedsLast(append([]interface{}{}, a.Elements...), cmp)}
}

func stableSortedWithUndefinedsLast(elems []interface{}, cmp Comparator) []interface{} {
	var defined []interface{}
	var undef []interface{}
	for _, e := range elems {
		if _, ok := e.(undefinedType); ok {
			undef = append(undef, e)
		} else {
			defined = append(defined, e)
		}
	}
	insertionSortStable(defined, cmp)
	return append(defined, undef...)
}

// insertionSortStable sorts in place using JS's comparator contract: a
// comparator returning NaN or 0 must leave relative order unchanged
// (stability), a positive result means the left element sorts after the
// right, negative means it stays before. With no comparator, elements are
// stringified and compared ordinally.
func insertionSortStable(elems []interface{}, cmp Comparator) {
	less := func(x, y interface{}) bool {
		if cmp != nil {
			r := cmp(x, y)
			if r != r { // NaN
				return false
			}
			return r < 0
		}
		return Stringify(x) < Stringify(y)
	}
	for i := 1; i < len(elems); i++ {
		j := i
		for j > 0 && less(elems[j], elems[j-1]) {
			elems[j], elems[j-1] = elems[j-1], elems[j]
			j--
		}
	}
}

// Flat recursively flattens nested arrays up to depth levels.
func Flat(a *Array, depth int) *Array {
	return &Array{Elements: flatten(a.Elements, depth)}
}

func flatten(elems []interface{}, depth int) []interface{} {
	var out []interface{}
	for _, e := range elems {
		if inner, ok := e.(*Array); ok && depth > 0 {
			out = append(out, flatten(inner.Elements, depth-1)...)
		} else {
			out = append(out, e)
		}
	}
	return out
}

// FlatMap maps then flattens one level.
func FlatMap(a *Array, fn func(v interface{}, i int) interface{}) *Array {
	mapped := make([]interface{}, len(a.Elements))
	for i, e := range a.Elements {
		mapped[i] = fn(e, i)
	}
	return &Array{Elements: flatten(mapped, 1)}
}

// MapArray implements Array.prototype.map (named to leave `Map` free
// for the collection type).
func MapArray(a *Array, fn func(v interface{}, i int) interface{}) *Array {
	out := make([]interface{}, len(a.Elements))
	for i, e := range a.Elements {
		out[i] = fn(e, i)
	}
	return &Array{Elements: out}
}

func Filter(a *Array, pred func(v interface{}, i int) bool) *Array {
	var out []interface{}
	for i, e := range a.Elements {
		if pred(e, i) {
			out = append(out, e)
		}
	}
	return &Array{Elements: out}
}

func ForEach(a *Array, fn func(v interface{}, i int)) {
	for i, e := range a.Elements {
		fn(e, i)
	}
}

func Find(a *Array, pred func(v interface{}, i int) bool) interface{} {
	for i, e := range a.Elements {
		if pred(e, i) {
			return e
		}
	}
	return Undefined
}

func FindIndex(a *Array, pred func(v interface{}, i int) bool) float64 {
	for i, e := range a.Elements {
		if pred(e, i) {
			return float64(i)
		}
	}
	return -1
}

func Some(a *Array, pred func(v interface{}, i int) bool) bool {
	for i, e := range a.Elements {
		if pred(e, i) {
			return true
		}
	}
	return false
}

func Every(a *Array, pred func(v interface{}, i int) bool) bool {
	for i, e := range a.Elements {
		if !pred(e, i) {
			return false
		}
	}
	return true
}

func Reduce(a *Array, fn func(acc, v interface{}, i int) interface{}, initial interface{}, hasInitial bool) interface{} {
	acc := initial
	start := 0
	if !hasInitial {
		if len(a.Elements) == 0 {
			panic(&Exception{Value: "TypeError: Reduce of empty array with no initial value"})
		}
		acc = a.Elements[0]
		start = 1
	}
	for i := start; i < len(a.Elements); i++ {
		acc = fn(acc, a.Elements[i], i)
	}
	return acc
}

func Includes(a *Array, value interface{}) bool {
	for _, e := range a.Elements {
		if sameValueZero(e, value) {
			return true
		}
	}
	return false
}

// sameValueZero is the SameValueZero algorithm used by includes/Map/Set:
// like StrictEquals but NaN equals NaN.
func sameValueZero(a, b interface{}) bool {
	af, aIsNum := a.(float64)
	bf, bIsNum := b.(float64)
	if aIsNum && bIsNum && af != af && bf != bf {
		return true // NaN SameValueZero NaN
	}
	return StrictEquals(a, b)
}

func IndexOf(a *Array, value interface{}) float64 {
	for i, e := range a.Elements {
		if StrictEquals(e, value) {
			return float64(i)
		}
	}
	return -1
}

func Join(a *Array, sep string) string {
	parts := make([]string, len(a.Elements))
	for i, e := range a.Elements {
		if isNullish(e) {
			parts[i] = ""
		} else {
			parts[i] = Stringify(e)
		}
	}
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// Concat implements `Array.prototype.concat`.
func Concat(a *Array, others ...interface{}) *Array {
	parts := make([]interface{}, 0, len(others)+1)
	parts = append(parts, a)
	parts = append(parts, others...)
	return ConcatArrays(parts...)
}
