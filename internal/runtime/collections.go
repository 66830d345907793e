package runtime

// Map is the runtime backing for JS `Map`: insertion-ordered key/value
// pairs compared with SameValueZero (so NaN is usable as a key, unlike
// Go's native map equality for floats).
type Map struct {
	keys   []interface{}
	values []interface{}
}

func NewMap() *Map { return &Map{} }

func (m *Map) indexOf(key interface{}) int {
	for i, k := range m.keys {
		if sameValueZero(k, key) {
			return i
		}
	}
	return -1
}

func (m *Map) Get(key interface{}) interface{} {
	if i := m.indexOf(key); i >= 0 {
		return m.values[i]
	}
	return Undefined
}

func (m *Map) Set(key, value interface{}) *Map {
	if i := m.indexOf(key); i >= 0 {
		m.values[i] = value
		return m
	}
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
	return m
}

func (m *Map) Has(key interface{}) bool { return m.indexOf(key) >= 0 }

func (m *Map) Delete(key interface{}) bool {
	i := m.indexOf(key)
	if i < 0 {
		return false
	}
	m.keys = append(m.keys[:i], m.keys[i+1:]...)
	m.values = append(m.values[:i], m.values[i+1:]...)
	return true
}

func (m *Map) Clear() { m.keys = nil; m.values = nil }

func (m *Map) Size() int { return len(m.keys) }

// Entries returns key/value pairs in insertion order.
func (m *Map) Entries() [][2]interface{} {
	out := make([][2]interface{}, len(m.keys))
	for i := range m.keys {
		out[i] = [2]interface{}{m.keys[i], m.values[i]}
	}
	return out
}

func (m *Map) ForEach(fn func(value, key interface{})) {
	for i := range m.keys {
		fn(m.values[i], m.keys[i])
	}
}

// Set is the runtime backing for JS `Set`.
type Set struct {
	elements []interface{}
}

func NewSet() *Set { return &Set{} }

func NewSetFrom(values []interface{}) *Set {
	s := NewSet()
	for _, v := range values {
		s.Add(v)
	}
	return s
}

func (s *Set) indexOf(v interface{}) int {
	for i, e := range s.elements {
		if sameValueZero(e, v) {
			return i
		}
	}
	return -1
}

func (s *Set) Add(v interface{}) *Set {
	if s.indexOf(v) < 0 {
		s.elements = append(s.elements, v)
	}
	return s
}

func (s *Set) Has(v interface{}) bool { return s.indexOf(v) >= 0 }

func (s *Set) Delete(v interface{}) bool {
	i := s.indexOf(v)
	if i < 0 {
		return false
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	return true
}

func (s *Set) Clear() { s.elements = nil }

func (s *Set) Size() int { return len(s.elements) }

func (s *Set) Values() []interface{} {
	out := make([]interface{}, len(s.elements))
	copy(out, s.elements)
	return out
}

func (s *Set) ForEach(fn func(v interface{})) {
	for _, e := range s.elements {
		fn(e)
	}
}

// ---- ES2025 Set operations (spec §4.7/§6) ----

// Union returns a new Set with every element of s and other.
func Union(s, other *Set) *Set {
	out := NewSetFrom(s.Values())
	for _, v := range other.elements {
		out.Add(v)
	}
	return out
}

// Intersection returns a new Set with only the elements present in both.
func Intersection(s, other *Set) *Set {
	out := NewSet()
	for _, v := range s.elements {
		if other.Has(v) {
			out.Add(v)
		}
	}
	return out
}

// Difference returns the elements of s that are not in other.
func Difference(s, other *Set) *Set {
	out := NewSet()
	for _, v := range s.elements {
		if !other.Has(v) {
			out.Add(v)
		}
	}
	return out
}

// SymmetricDifference returns elements present in exactly one of the two
// sets.
func SymmetricDifference(s, other *Set) *Set {
	out := NewSetFrom(s.Values())
	for _, v := range other.elements {
		if out.Has(v) {
			out.Delete(v)
		} else {
			out.Add(v)
		}
	}
	return out
}

// IsSubsetOf reports whether every element of s is in other.
func IsSubsetOf(s, other *Set) bool {
	for _, v := range s.elements {
		if !other.Has(v) {
			return false
		}
	}
	return true
}

// IsSupersetOf reports whether every element of other is in s.
func IsSupersetOf(s, other *Set) bool { return IsSubsetOf(other, s) }

// IsDisjointFrom reports whether s and other share no elements.
func IsDisjointFrom(s, other *Set) bool {
	for _, v := range s.elements {
		if other.Has(v) {
			return false
		}
	}
	return true
}

// WeakMap/WeakSet reuse Map/Set's implementation; the distinction
// (non-enumerability, key liveness) is a GC-visibility concern the host
// language's memory manager already provides (spec §3's ownership note),
// so no extra bookkeeping is needed here beyond the embedding wrapper types.
type WeakMap struct{ *Map }
type WeakSet struct{ *Set }

func NewWeakMap() *WeakMap { return &WeakMap{Map: NewMap()} }
func NewWeakSet() *WeakSet { return &WeakSet{Set: NewSet()} }
