package runtime

// Iterator is the synchronous iterator protocol the VM's generator
// objects and the runtime's own array/string iterators implement.
// Next's resume value is the argument user code passed to `next(v)`.
type Iterator interface {
	Next(resume interface{}) (value interface{}, done bool)
	Return(value interface{}) (interface{}, bool)
	Throw(reason interface{}) (interface{}, bool)
}

// AsyncIterator is the async variant: Next returns a promise of the
// `{value, done}` result object, driven by `for await…of` (spec §4.6).
type AsyncIterator interface {
	NextAsync(resume interface{}) *Promise
}

// sliceIterator walks a materialized value list.
type sliceIterator struct {
	values []interface{}
	index  int
}

func (it *sliceIterator) Next(interface{}) (interface{}, bool) {
	if it.index >= len(it.values) {
		return Undefined, true
	}
	v := it.values[it.index]
	it.index++
	return v, false
}

func (it *sliceIterator) Return(v interface{}) (interface{}, bool) {
	it.index = len(it.values)
	return v, true
}

func (it *sliceIterator) Throw(reason interface{}) (interface{}, bool) {
	it.index = len(it.values)
	panic(&Exception{Value: reason})
}

// GetIterator returns the iterator for an iterable value: arrays and
// strings get a fresh index iterator, maps iterate entries, sets their
// values, and an Iterator/AsyncIterator is returned as-is (a generator
// object is its own iterator, per the protocol).
func GetIterator(v interface{}) interface{} {
	switch val := v.(type) {
	case *Array:
		return &sliceIterator{values: append([]interface{}(nil), val.Elements...)}
	case string:
		runes := []rune(val)
		values := make([]interface{}, len(runes))
		for i, r := range runes {
			values[i] = string(r)
		}
		return &sliceIterator{values: values}
	case *Map:
		entries := val.Entries()
		values := make([]interface{}, len(entries))
		for i, e := range entries {
			values[i] = NewArray(e[0], e[1])
		}
		return &sliceIterator{values: values}
	case *Set:
		return &sliceIterator{values: val.Values()}
	case Iterator:
		return val
	case AsyncIterator:
		return val
	default:
		panic(&Exception{Value: "TypeError: " + Stringify(v) + " is not iterable"})
	}
}

// IteratorNext advances an iterator, returning either a `{value, done}`
// result object or (for async iterators) a promise of one.
func IteratorNext(iter interface{}, resume interface{}) interface{} {
	switch it := iter.(type) {
	case AsyncIterator:
		return it.NextAsync(resume)
	case Iterator:
		value, done := it.Next(resume)
		return IterResult(value, done)
	default:
		panic(&Exception{Value: "TypeError: iterator protocol violated"})
	}
}

// IterResult builds the protocol's `{value, done}` record.
func IterResult(value interface{}, done bool) *Object {
	o := NewObject()
	o.Set("value", value)
	o.Set("done", done)
	return o
}
