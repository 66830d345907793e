package types

import "testing"

func TestUnionFlattensAndDedupes(t *testing.T) {
	u := NewUnionType(StringType, NewUnionType(NumberType, StringType), NumberType)
	union, ok := u.(*UnionType)
	if !ok {
		t.Fatalf("expected *UnionType, got %T", u)
	}
	if len(union.Alts) != 2 {
		t.Fatalf("expected 2 deduped alternatives, got %d (%s)", len(union.Alts), union.String())
	}
}

func TestUnionOfOneCollapses(t *testing.T) {
	if got := NewUnionType(StringType); got != StringType {
		t.Fatalf("expected single-member union to collapse, got %v", got)
	}
}

func TestIsCompatibleAnyWithAnything(t *testing.T) {
	if !IsCompatible(AnyType, NewArrayType(StringType)) {
		t.Fatal("Any target should accept anything")
	}
	if !IsCompatible(NewArrayType(StringType), AnyType) {
		t.Fatal("Any source should satisfy anything")
	}
}

func TestIsCompatibleUnionCoversAllBranches(t *testing.T) {
	target := NewUnionType(StringType, NumberType)
	if !IsCompatible(target, NumberType) {
		t.Fatal("number should be covered by string|number")
	}
	if IsCompatible(target, BooleanType) {
		t.Fatal("boolean should not be covered by string|number")
	}
}

func TestRecordCompatibilityRequiresEveryTargetKey(t *testing.T) {
	target := &RecordType{Fields: []*RecordField{
		{Name: "x", Type: NumberType},
		{Name: "y", Type: NumberType, Optional: true},
	}}
	source := &RecordType{Fields: []*RecordField{
		{Name: "x", Type: NumberType},
	}}
	if !IsCompatible(target, source) {
		t.Fatal("missing optional field should still be compatible")
	}
	target2 := &RecordType{Fields: []*RecordField{
		{Name: "x", Type: NumberType},
		{Name: "z", Type: NumberType},
	}}
	if IsCompatible(target2, source) {
		t.Fatal("missing required field should not be compatible")
	}
}

func TestClassHierarchyCompatibility(t *testing.T) {
	base := NewClassType("Animal")
	dog := NewClassType("Dog")
	dog.Super = base
	if !IsCompatible(NewInstanceType(base), NewInstanceType(dog)) {
		t.Fatal("Dog instance should be assignable to Animal-typed target")
	}
	if IsCompatible(NewInstanceType(dog), NewInstanceType(base)) {
		t.Fatal("Animal instance should not satisfy a Dog-typed target")
	}
}

func TestInstantiateGenericSubstitutesMemberTypes(t *testing.T) {
	def := NewGenericClassType("Box", []string{"T"})
	def.AddMember(&Member{Name: "value", Type: &TypeParamType{Name: "T"}})
	inst := InstantiateGeneric(def, []Type{StringType})
	m, _ := inst.Resolved.Lookup("value")
	if m.Type != StringType {
		t.Fatalf("expected substituted value field to be string, got %s", m.Type)
	}
}

func TestSubstituteIdempotentAtFixpoint(t *testing.T) {
	ft := &FunctionType{Params: []Type{StringType}, Return: NumberType}
	subst := map[string]Type{"T": StringType}
	once := Substitute(ft, subst)
	twice := Substitute(once, subst)
	if once.String() != twice.String() {
		t.Fatalf("substitution should be idempotent once no free params remain: %s vs %s", once, twice)
	}
}

func TestPromoteTypesStringWins(t *testing.T) {
	if PromoteTypes(StringType, NumberType) != StringType {
		t.Fatal("string + number should promote to string (JS concatenation)")
	}
	if PromoteTypes(NumberType, NumberType) != NumberType {
		t.Fatal("number + number should stay number")
	}
}
