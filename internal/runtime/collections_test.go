package runtime

import "testing"

func TestMapPreservesInsertionOrder(t *testing.T) {
	m := NewMap()
	m.Set("b", float64(2))
	m.Set("a", float64(1))
	entries := m.Entries()
	if entries[0][0] != "b" || entries[1][0] != "a" {
		t.Errorf("insertion order not preserved: %v", entries)
	}
}

func TestMapAllowsNaNKey(t *testing.T) {
	nan := func() float64 { var z float64; return z / z }()
	m := NewMap()
	m.Set(nan, "value")
	if !m.Has(nan) {
		t.Error("expected NaN to be usable as a Map key via SameValueZero")
	}
}

func TestSetDeduplicates(t *testing.T) {
	s := NewSet()
	s.Add(float64(1))
	s.Add(float64(1))
	s.Add(float64(2))
	if s.Size() != 2 {
		t.Errorf("got size %d want 2", s.Size())
	}
}

func TestSetOperations(t *testing.T) {
	a := NewSetFrom([]interface{}{float64(1), float64(2), float64(3)})
	b := NewSetFrom([]interface{}{float64(2), float64(3), float64(4)})

	if Union(a, b).Size() != 4 {
		t.Error("union size wrong")
	}
	if Intersection(a, b).Size() != 2 {
		t.Error("intersection size wrong")
	}
	if Difference(a, b).Size() != 1 {
		t.Error("difference size wrong")
	}
	if SymmetricDifference(a, b).Size() != 2 {
		t.Error("symmetric difference size wrong")
	}
	if IsDisjointFrom(a, b) {
		t.Error("sets share elements, should not be disjoint")
	}
	if !IsSubsetOf(NewSetFrom([]interface{}{float64(2)}), a) {
		t.Error("expected {2} subset of a")
	}
}

func TestWeakMapWeakSetDelegate(t *testing.T) {
	wm := NewWeakMap()
	key := NewObject()
	wm.Set(key, "value")
	if !wm.Has(key) {
		t.Error("WeakMap should delegate to Map")
	}
	ws := NewWeakSet()
	ws.Add(key)
	if !ws.Has(key) {
		t.Error("WeakSet should delegate to Set")
	}
}
