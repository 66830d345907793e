// Package types implements the structural TypeInfo sum type consumed by
// internal/checker: primitives, arrays, tuples,
// unions, record (object) shapes, function signatures (including
// overloaded and generic forms), classes, interfaces, enums, namespaces,
// and the built-in Date/RegExp/Map/Set/WeakMap/WeakSet types.
//
// Every non-Any type resolves to a canonical form reachable through
// Resolve; Substitute (applying a type-parameter -> type-argument map) is
// idempotent at fixpoint; equality is structural except for the nominal
// Class/Enum/Interface variants, which compare by declaration identity.
package types

import "strings"

// Type is the root interface implemented by every type variant.
type Type interface {
	// String renders the type the way a TypeScript error message would.
	String() string
	typeNode()
}

// Primitive kinds.
type PrimitiveKind int

const (
	Number PrimitiveKind = iota
	String
	Boolean
	Null
	Undefined
	Void
	BigInt
	Symbol
	Any
	Unknown
	Never
	Object
)

func (k PrimitiveKind) String() string {
	switch k {
	case Number:
		return "number"
	case String:
		return "string"
	case Boolean:
		return "boolean"
	case Null:
		return "null"
	case Undefined:
		return "undefined"
	case Void:
		return "void"
	case BigInt:
		return "bigint"
	case Symbol:
		return "symbol"
	case Unknown:
		return "unknown"
	case Never:
		return "never"
	case Object:
		return "object"
	default:
		return "any"
	}
}

// PrimitiveType is one of the built-in scalar kinds.
type PrimitiveType struct{ Kind PrimitiveKind }

func (t *PrimitiveType) typeNode()      {}
func (t *PrimitiveType) String() string { return t.Kind.String() }

var (
	NumberType    = &PrimitiveType{Kind: Number}
	StringType    = &PrimitiveType{Kind: String}
	BooleanType   = &PrimitiveType{Kind: Boolean}
	NullType      = &PrimitiveType{Kind: Null}
	UndefinedType = &PrimitiveType{Kind: Undefined}
	VoidType      = &PrimitiveType{Kind: Void}
	BigIntType    = &PrimitiveType{Kind: BigInt}
	SymbolType    = &PrimitiveType{Kind: Symbol}
	AnyType       = &PrimitiveType{Kind: Any}
	UnknownType   = &PrimitiveType{Kind: Unknown}
	NeverType     = &PrimitiveType{Kind: Never}
	ObjectType    = &PrimitiveType{Kind: Object}
)

// ArrayType is `Elem[]`.
type ArrayType struct{ Elem Type }

func (t *ArrayType) typeNode()      {}
func (t *ArrayType) String() string { return t.Elem.String() + "[]" }

func NewArrayType(elem Type) *ArrayType { return &ArrayType{Elem: elem} }

// TupleType is `[A, B, ...C[]]`.
type TupleType struct {
	Elems []Type
	Rest  Type // nil when there is no trailing rest element
}

func (t *TupleType) typeNode() {}
func (t *TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	if t.Rest != nil {
		parts = append(parts, "..."+t.Rest.String()+"[]")
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// UnionType is `A | B | C`. Alts is always flattened (no nested unions).
type UnionType struct{ Alts []Type }

func (t *UnionType) typeNode() {}
func (t *UnionType) String() string {
	parts := make([]string, len(t.Alts))
	for i, a := range t.Alts {
		parts[i] = a.String()
	}
	return strings.Join(parts, " | ")
}

// NewUnionType builds a union, flattening nested unions and collapsing to
// the single member when only one alternative remains.
func NewUnionType(alts ...Type) Type {
	var flat []Type
	seen := map[string]bool{}
	for _, a := range alts {
		if u, ok := a.(*UnionType); ok {
			for _, inner := range u.Alts {
				if key := inner.String(); !seen[key] {
					seen[key] = true
					flat = append(flat, inner)
				}
			}
			continue
		}
		if key := a.String(); !seen[key] {
			seen[key] = true
			flat = append(flat, a)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &UnionType{Alts: flat}
}

// RecordField is one member of an anonymous object-literal type.
type RecordField struct {
	Name     string
	Type     Type
	Optional bool
	Readonly bool
}

// RecordType is a structural object-literal/interface-literal shape:
// `{ name: string; age?: number }`.
type RecordType struct {
	Fields []*RecordField
}

func (t *RecordType) typeNode() {}
func (t *RecordType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		opt := ""
		if f.Optional {
			opt = "?"
		}
		parts[i] = f.Name + opt + ": " + f.Type.String()
	}
	return "{ " + strings.Join(parts, "; ") + " }"
}

// Field looks up a member by name, returning nil if absent.
func (t *RecordType) Field(name string) *RecordField {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// FunctionType is a single call signature.
type FunctionType struct {
	Params        []Type
	ParamNames    []string
	Return        Type
	RequiredCount int // first RequiredCount params have no default/`?`
	HasRest       bool
	TypeParams    []string // empty unless this is a generic signature
}

func (t *FunctionType) typeNode() {}
func (t *FunctionType) String() string {
	parts := make([]string, len(t.Params))
	for i, p := range t.Params {
		name := ""
		if i < len(t.ParamNames) {
			name = t.ParamNames[i] + ": "
		}
		parts[i] = name + p.String()
	}
	rest := ""
	if t.HasRest && len(parts) > 0 {
		parts[len(parts)-1] = "..." + parts[len(parts)-1]
	}
	return "(" + strings.Join(parts, ", ") + rest + ") => " + t.Return.String()
}

// OverloadedFunctionType groups multiple call signatures for the same
// name; Impl is the (optionally nil) implementation signature, which may
// be broader than every individual overload.
type OverloadedFunctionType struct {
	Signatures []*FunctionType
	Impl       *FunctionType
}

func (t *OverloadedFunctionType) typeNode() {}
func (t *OverloadedFunctionType) String() string {
	parts := make([]string, len(t.Signatures))
	for i, s := range t.Signatures {
		parts[i] = s.String()
	}
	return strings.Join(parts, " & ")
}

// Visibility mirrors ast.AccessModifier without importing the ast package
// (types must stay below ast and the checker in the dependency graph).
type Visibility int

const (
	Public Visibility = iota
	Private
	Protected
)

// Member is one field, method, or accessor of a Class/Interface.
type Member struct {
	Name       string
	Type       Type // field type, or FunctionType/OverloadedFunctionType for methods
	Visibility Visibility
	Static     bool
	Readonly   bool
	Optional   bool
	IsMethod   bool
	HasGetter  bool
	HasSetter  bool
	Abstract   bool
}

// ClassType is a nominal class declaration. Equality is by pointer
// identity (two distinct `class Foo {}` declarations are never equal even
// if structurally identical), matching TypeScript's nominal class typing.
type ClassType struct {
	Name         string
	Super        *ClassType
	Interfaces   []*InterfaceType
	Members      map[string]*Member
	Order        []string // insertion order, for deterministic diagnostics
	Abstract     bool
	TypeParams   []string
	ConstructorT *FunctionType
}

func (t *ClassType) typeNode()      {}
func (t *ClassType) String() string { return t.Name }

func NewClassType(name string) *ClassType {
	return &ClassType{Name: name, Members: map[string]*Member{}}
}

// AddMember records a member in both the lookup map and insertion order.
func (t *ClassType) AddMember(m *Member) {
	if _, exists := t.Members[m.Name]; !exists {
		t.Order = append(t.Order, m.Name)
	}
	t.Members[m.Name] = m
}

// Lookup finds a member by walking the superclass chain; it returns the
// member and the class that actually declares it (for access-modifier
// checks against the *declaring* class).
func (t *ClassType) Lookup(name string) (*Member, *ClassType) {
	for c := t; c != nil; c = c.Super {
		if m, ok := c.Members[name]; ok {
			return m, c
		}
	}
	return nil, nil
}

// IsSubclassOf reports whether t is sub == t or a descendant of sub.
func (t *ClassType) IsSubclassOf(sub *ClassType) bool {
	for c := t; c != nil; c = c.Super {
		if c == sub {
			return true
		}
	}
	return false
}

// ImplementsInterface reports whether t (or an ancestor) declares iface
// among its `implements` clause.
func (t *ClassType) ImplementsInterface(iface *InterfaceType) bool {
	for c := t; c != nil; c = c.Super {
		for _, i := range c.Interfaces {
			if i == iface || i.IsSubInterfaceOf(iface) {
				return true
			}
		}
	}
	return false
}

// GenericClassType is a class declaration with unbound type parameters;
// InstantiatedGenericType is produced by substituting concrete type
// arguments for them at a `new G<T>(...)` site.
type GenericClassType struct {
	*ClassType
}

func NewGenericClassType(name string, typeParams []string) *GenericClassType {
	ct := NewClassType(name)
	ct.TypeParams = typeParams
	return &GenericClassType{ClassType: ct}
}

// InstantiatedGenericType is the result of substituting concrete type
// arguments into a GenericClassType's type-parameter map.
type InstantiatedGenericType struct {
	Def  *GenericClassType
	Args []Type
	// Resolved is the substituted ClassType used for member lookups; built
	// lazily by Substitute and cached here.
	Resolved *ClassType
}

func (t *InstantiatedGenericType) typeNode() {}
func (t *InstantiatedGenericType) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return t.Def.Name + "<" + strings.Join(parts, ", ") + ">"
}

// SubstitutionMap builds the typeParam -> typeArg map for an instantiation.
func (t *InstantiatedGenericType) SubstitutionMap() map[string]Type {
	m := make(map[string]Type, len(t.Def.TypeParams))
	for i, p := range t.Def.TypeParams {
		if i < len(t.Args) {
			m[p] = t.Args[i]
		} else {
			m[p] = AnyType
		}
	}
	return m
}

// InstanceType represents a value of a given class (as opposed to the
// class's static/constructor side, which is typed as *ClassType itself
// used in "class-of" position by the checker).
type InstanceType struct{ Class *ClassType }

func (t *InstanceType) typeNode()      {}
func (t *InstanceType) String() string { return t.Class.Name }

func NewInstanceType(c *ClassType) *InstanceType { return &InstanceType{Class: c} }

// InterfaceType is a nominal interface declaration.
type InterfaceType struct {
	Name    string
	Supers  []*InterfaceType
	Members map[string]*Member
	Order   []string
}

func (t *InterfaceType) typeNode()      {}
func (t *InterfaceType) String() string { return t.Name }

func NewInterfaceType(name string) *InterfaceType {
	return &InterfaceType{Name: name, Members: map[string]*Member{}}
}

func (t *InterfaceType) AddMember(m *Member) {
	if _, exists := t.Members[m.Name]; !exists {
		t.Order = append(t.Order, m.Name)
	}
	t.Members[m.Name] = m
}

func (t *InterfaceType) Lookup(name string) *Member {
	if m, ok := t.Members[name]; ok {
		return m
	}
	for _, s := range t.Supers {
		if m := s.Lookup(name); m != nil {
			return m
		}
	}
	return nil
}

func (t *InterfaceType) IsSubInterfaceOf(other *InterfaceType) bool {
	if t == other {
		return true
	}
	for _, s := range t.Supers {
		if s.IsSubInterfaceOf(other) {
			return true
		}
	}
	return false
}

// EnumType is a nominal `enum` declaration; Members maps name to its
// compile-time resolved value (numeric or string).
type EnumType struct {
	Name    string
	Members map[string]interface{}
	Order   []string
	IsConst bool
}

func (t *EnumType) typeNode()      {}
func (t *EnumType) String() string { return t.Name }

func NewEnumType(name string) *EnumType {
	return &EnumType{Name: name, Members: map[string]interface{}{}}
}

// NamespaceType groups a set of named exports under a dotted namespace.
type NamespaceType struct {
	Name    string
	Members map[string]Type
}

func (t *NamespaceType) typeNode()      {}
func (t *NamespaceType) String() string { return t.Name }

func NewNamespaceType(name string) *NamespaceType {
	return &NamespaceType{Name: name, Members: map[string]Type{}}
}

// Built-in parameterized collection/value types the checker treats
// specially for member resolution (§4.4).
type (
	DateType    struct{}
	RegExpType  struct{}
	MapType     struct{ Key, Value Type }
	SetType     struct{ Elem Type }
	WeakMapType struct{ Key, Value Type }
	WeakSetType struct{ Elem Type }
)

func (t *DateType) typeNode()      {}
func (t *DateType) String() string { return "Date" }

func (t *RegExpType) typeNode()      {}
func (t *RegExpType) String() string { return "RegExp" }

func (t *MapType) typeNode()      {}
func (t *MapType) String() string { return "Map<" + t.Key.String() + ", " + t.Value.String() + ">" }

func (t *SetType) typeNode()      {}
func (t *SetType) String() string { return "Set<" + t.Elem.String() + ">" }

func (t *WeakMapType) typeNode() {}
func (t *WeakMapType) String() string {
	return "WeakMap<" + t.Key.String() + ", " + t.Value.String() + ">"
}

func (t *WeakSetType) typeNode()      {}
func (t *WeakSetType) String() string { return "WeakSet<" + t.Elem.String() + ">" }

// TypeParamType is an unbound generic type parameter reference (`T`)
// appearing inside a GenericClassType/generic function signature body,
// resolved away by Substitute at instantiation time.
type TypeParamType struct{ Name string }

func (t *TypeParamType) typeNode()      {}
func (t *TypeParamType) String() string { return t.Name }

// Resolve walks aliases/instantiated-generics down to their canonical
// form. Most variants are already canonical; InstantiatedGenericType
// resolves to its substituted ClassType.
func Resolve(t Type) Type {
	if ig, ok := t.(*InstantiatedGenericType); ok && ig.Resolved != nil {
		return ig.Resolved
	}
	return t
}

// Substitute applies a type-parameter -> type-argument map throughout t,
// returning a new type with every TypeParamType replaced. It is
// idempotent at fixpoint: substituting into a type with no free type
// parameters left returns an equal type.
func Substitute(t Type, subst map[string]Type) Type {
	switch v := t.(type) {
	case *TypeParamType:
		if repl, ok := subst[v.Name]; ok {
			return repl
		}
		return v
	case *ArrayType:
		return &ArrayType{Elem: Substitute(v.Elem, subst)}
	case *TupleType:
		elems := make([]Type, len(v.Elems))
		for i, e := range v.Elems {
			elems[i] = Substitute(e, subst)
		}
		var rest Type
		if v.Rest != nil {
			rest = Substitute(v.Rest, subst)
		}
		return &TupleType{Elems: elems, Rest: rest}
	case *UnionType:
		alts := make([]Type, len(v.Alts))
		for i, a := range v.Alts {
			alts[i] = Substitute(a, subst)
		}
		return NewUnionType(alts...)
	case *RecordType:
		fields := make([]*RecordField, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = &RecordField{Name: f.Name, Type: Substitute(f.Type, subst), Optional: f.Optional, Readonly: f.Readonly}
		}
		return &RecordType{Fields: fields}
	case *FunctionType:
		return substituteFunction(v, subst)
	case *OverloadedFunctionType:
		sigs := make([]*FunctionType, len(v.Signatures))
		for i, s := range v.Signatures {
			sigs[i] = substituteFunction(s, subst)
		}
		var impl *FunctionType
		if v.Impl != nil {
			impl = substituteFunction(v.Impl, subst)
		}
		return &OverloadedFunctionType{Signatures: sigs, Impl: impl}
	case *MapType:
		return &MapType{Key: Substitute(v.Key, subst), Value: Substitute(v.Value, subst)}
	case *SetType:
		return &SetType{Elem: Substitute(v.Elem, subst)}
	case *WeakMapType:
		return &WeakMapType{Key: Substitute(v.Key, subst), Value: Substitute(v.Value, subst)}
	case *WeakSetType:
		return &WeakSetType{Elem: Substitute(v.Elem, subst)}
	default:
		// PrimitiveType, ClassType, InterfaceType, EnumType, NamespaceType,
		// InstanceType, InstantiatedGenericType, Date/RegExp: nominal or
		// already-ground types carry no free type parameters to substitute.
		return t
	}
}

func substituteFunction(f *FunctionType, subst map[string]Type) *FunctionType {
	params := make([]Type, len(f.Params))
	for i, p := range f.Params {
		params[i] = Substitute(p, subst)
	}
	return &FunctionType{
		Params:        params,
		ParamNames:    f.ParamNames,
		Return:        Substitute(f.Return, subst),
		RequiredCount: f.RequiredCount,
		HasRest:       f.HasRest,
	}
}

// InstantiateGeneric builds the InstantiatedGenericType for `new G<T>(...)`,
// eagerly computing the substituted ClassType used for member lookups.
func InstantiateGeneric(def *GenericClassType, args []Type) *InstantiatedGenericType {
	ig := &InstantiatedGenericType{Def: def, Args: args}
	subst := ig.SubstitutionMap()
	resolved := NewClassType(def.Name)
	resolved.Super = def.Super
	resolved.Interfaces = def.Interfaces
	resolved.Abstract = def.Abstract
	for _, name := range def.Order {
		m := def.Members[name]
		resolved.AddMember(&Member{
			Name:       m.Name,
			Type:       Substitute(m.Type, subst),
			Visibility: m.Visibility,
			Static:     m.Static,
			Readonly:   m.Readonly,
			Optional:   m.Optional,
			IsMethod:   m.IsMethod,
			HasGetter:  m.HasGetter,
			HasSetter:  m.HasSetter,
			Abstract:   m.Abstract,
		})
	}
	ig.Resolved = resolved
	return ig
}
