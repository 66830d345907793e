package runtime

import "testing"

func TestMetadataDefineAndGet(t *testing.T) {
	r := NewMetadataRegistry()
	target := NewObject()
	r.Define("design:type", "string", target, "name")
	v, ok := r.Get("design:type", target, "name")
	if !ok || v != "string" {
		t.Errorf("got (%v, %v)", v, ok)
	}
}

func TestMetadataHasOwnFalseForDifferentTarget(t *testing.T) {
	r := NewMetadataRegistry()
	a := NewObject()
	b := NewObject()
	r.Define("k", 1, a, "")
	if r.HasOwn("k", b, "") {
		t.Error("expected metadata scoped to its own target")
	}
}

func TestMetadataDeleteRemovesEntryAndKey(t *testing.T) {
	r := NewMetadataRegistry()
	target := NewObject()
	r.Define("k", 1, target, "")
	if !r.Delete("k", target, "") {
		t.Fatal("expected delete to report the key was present")
	}
	if r.HasOwn("k", target, "") {
		t.Error("expected key gone after delete")
	}
	if len(r.GetKeys(target, "")) != 0 {
		t.Error("expected GetKeys to no longer list the deleted key")
	}
}

func TestMetadataGetKeysPreservesDefinitionOrder(t *testing.T) {
	r := NewMetadataRegistry()
	target := NewObject()
	r.Define("b", 1, target, "prop")
	r.Define("a", 2, target, "prop")
	keys := r.GetKeys(target, "prop")
	if len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("got %v", keys)
	}
}

func TestMetadataPropertyScopedSeparatelyFromTypeLevel(t *testing.T) {
	r := NewMetadataRegistry()
	target := NewObject()
	r.Define("k", "type-level", target, "")
	r.Define("k", "prop-level", target, "name")
	typeVal, _ := r.Get("k", target, "")
	propVal, _ := r.Get("k", target, "name")
	if typeVal != "type-level" || propVal != "prop-level" {
		t.Errorf("got type=%v prop=%v", typeVal, propVal)
	}
}
