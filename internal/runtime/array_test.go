package runtime

import "testing"

func TestSortKeepsUndefinedsLast(t *testing.T) {
	arr := NewArray(float64(3), Undefined, float64(1), float64(2), Undefined)
	Sort(arr, func(a, b interface{}) float64 {
		return a.(float64) - b.(float64)
	})
	want := []interface{}{float64(1), float64(2), float64(3), Undefined, Undefined}
	if len(arr.Elements) != len(want) {
		t.Fatalf("length mismatch: got %v", arr.Elements)
	}
	for i := range want {
		if arr.Elements[i] != want[i] {
			t.Errorf("index %d: got %v want %v", i, arr.Elements[i], want[i])
		}
	}
}

func TestSortIsStableOnTies(t *testing.T) {
	type pair struct {
		key int
		tag string
	}
	a := &pair{1, "first"}
	b := &pair{1, "second"}
	arr := NewArray(a, b)
	Sort(arr, func(x, y interface{}) float64 {
		return float64(x.(*pair).key - y.(*pair).key)
	})
	if arr.Elements[0].(*pair).tag != "first" || arr.Elements[1].(*pair).tag != "second" {
		t.Errorf("stability violated: %v", arr.Elements)
	}
}

func TestSpliceRemovesAndInserts(t *testing.T) {
	arr := NewArray(float64(1), float64(2), float64(3), float64(4))
	removed := Splice(arr, 1, 2, float64(9))
	if len(removed.Elements) != 2 || removed.Elements[0] != float64(2) {
		t.Errorf("unexpected removed: %v", removed.Elements)
	}
	want := []interface{}{float64(1), float64(9), float64(4)}
	for i, w := range want {
		if arr.Elements[i] != w {
			t.Errorf("index %d: got %v want %v", i, arr.Elements[i], w)
		}
	}
}

func TestFlatRecursesToDepth(t *testing.T) {
	inner := NewArray(float64(2), float64(3))
	outer := NewArray(float64(1), inner, NewArray(inner))
	flat1 := Flat(outer, 1)
	if len(flat1.Elements) != 4 {
		t.Fatalf("depth 1: got %v", flat1.Elements)
	}
	flat2 := Flat(outer, 2)
	if len(flat2.Elements) != 5 {
		t.Fatalf("depth 2: got %v", flat2.Elements)
	}
}

func TestIncludesUsesSameValueZero(t *testing.T) {
	nan := func() float64 { var z float64; return z / z }()
	arr := NewArray(float64(1), nan)
	if !Includes(arr, nan) {
		t.Error("expected Includes to treat NaN as matching NaN")
	}
	if IndexOf(arr, nan) != -1 {
		t.Error("expected IndexOf (strict equals) to never match NaN")
	}
}

func TestReduceWithoutInitialUsesFirstElement(t *testing.T) {
	arr := NewArray(float64(1), float64(2), float64(3))
	sum := Reduce(arr, func(acc, v interface{}, _ int) interface{} {
		return acc.(float64) + v.(float64)
	}, nil, false)
	if sum.(float64) != 6 {
		t.Errorf("got %v want 6", sum)
	}
}

func TestReduceEmptyWithoutInitialPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on empty reduce with no initial value")
		}
	}()
	Reduce(NewArray(), func(acc, v interface{}, _ int) interface{} { return acc }, nil, false)
}
