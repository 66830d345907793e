package runtime

import "testing"

func TestJsonStringifyPrimitives(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"number", float64(42), "42"},
		{"string", "hi", `"hi"`},
		{"bool", true, "true"},
		{"null", nil, "null"},
		{"nan becomes null", func() float64 { var z float64; return z / z }(), "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JsonStringify(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestJsonStringifyBigIntErrors(t *testing.T) {
	_, err := JsonStringify(&BigInt{Value: 1})
	if err == nil {
		t.Fatal("expected error serializing BigInt")
	}
}

func TestJsonStringifyObjectOmitsUndefinedAndFunctions(t *testing.T) {
	obj := NewObject()
	obj.Set("a", float64(1))
	obj.Set("b", Undefined)
	obj.Set("c", &Function{Name: "f"})
	got, err := JsonStringify(obj)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestJsonStringifyArrayUndefinedBecomesNull(t *testing.T) {
	arr := NewArray(float64(1), Undefined, float64(3))
	got, err := JsonStringify(arr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "[1,null,3]" {
		t.Errorf("got %q", got)
	}
}

func TestJsonParseRoundTripsObject(t *testing.T) {
	v, err := JsonParse(`{"x": 1, "y": [true, null, "s"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("expected *Object, got %T", v)
	}
	if obj.Get("x") != float64(1) {
		t.Errorf("x: got %v", obj.Get("x"))
	}
	arr, ok := obj.Get("y").(*Array)
	if !ok || len(arr.Elements) != 3 {
		t.Fatalf("y: got %v", obj.Get("y"))
	}
}

func TestJsonParseWithReviverOmitsUndefined(t *testing.T) {
	reviver := func(key string, value interface{}) interface{} {
		if key == "drop" {
			return Undefined
		}
		return value
	}
	v, err := JsonParseWithReviver(`{"keep": 1, "drop": 2}`, reviver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	obj := v.(*Object)
	if obj.Has("drop") {
		t.Error("expected reviver to remove 'drop'")
	}
	if !obj.Has("keep") {
		t.Error("expected 'keep' to survive")
	}
}

func TestJsonParseRejectsTrailingGarbage(t *testing.T) {
	_, err := JsonParse(`{"a":1} garbage`)
	if err == nil {
		t.Fatal("expected syntax error")
	}
}
