package types

// IsCompatible implements the assignability relation of spec §4.4
// (`IsCompatible`): Any is compatible with anything in either direction;
// a Union target is covered when every source alternative is itself
// covered; record-to-record covers when every target key exists on the
// source and is covariantly compatible; function parameters are treated
// bivariantly (either direction compatible) to keep the subset usable
// without full contravariance bookkeeping.
func IsCompatible(target, source Type) bool {
	if target == nil || source == nil {
		return false
	}
	if isAny(target) || isAny(source) {
		return true
	}
	if isUnknown(target) {
		return true
	}
	// An unbound type parameter is unconstrained in this subset: it
	// only becomes checkable once Substitute has replaced it at an
	// instantiation site.
	if _, ok := target.(*TypeParamType); ok {
		return true
	}
	if _, ok := source.(*TypeParamType); ok {
		return true
	}

	if su, ok := source.(*UnionType); ok {
		for _, alt := range su.Alts {
			if !IsCompatible(target, alt) {
				return false
			}
		}
		return true
	}
	if tu, ok := target.(*UnionType); ok {
		for _, alt := range tu.Alts {
			if IsCompatible(alt, source) {
				return true
			}
		}
		return false
	}

	switch t := target.(type) {
	case *PrimitiveType:
		s, ok := source.(*PrimitiveType)
		if !ok {
			return t.Kind == Object
		}
		if t.Kind == s.Kind {
			return true
		}
		// undefined widens into void; nothing else crosses primitive
		// kinds without an explicit conversion.
		return t.Kind == Void && (s.Kind == Undefined)
	case *ArrayType:
		s, ok := source.(*ArrayType)
		return ok && IsCompatible(t.Elem, s.Elem)
	case *TupleType:
		s, ok := source.(*TupleType)
		if !ok || len(s.Elems) < len(t.Elems) {
			return false
		}
		for i, e := range t.Elems {
			if !IsCompatible(e, s.Elems[i]) {
				return false
			}
		}
		return true
	case *RecordType:
		return recordCompatible(t, source)
	case *FunctionType:
		s, ok := asFunction(source)
		return ok && functionCompatible(t, s)
	case *ClassType:
		return classCompatible(t, source)
	case *InstanceType:
		s, ok := source.(*InstanceType)
		return ok && (s.Class == t.Class || s.Class.IsSubclassOf(t.Class))
	case *InterfaceType:
		switch s := source.(type) {
		case *InstanceType:
			return s.Class.ImplementsInterface(t) || classImplementsStructurally(s.Class, t)
		case *InterfaceType:
			return s.IsSubInterfaceOf(t)
		case *RecordType:
			return interfaceStructurallyCoveredBy(t, s)
		}
		return false
	case *EnumType:
		s, ok := source.(*EnumType)
		return ok && s == t
	case *MapType:
		s, ok := source.(*MapType)
		return ok && IsCompatible(t.Key, s.Key) && IsCompatible(t.Value, s.Value)
	case *SetType:
		s, ok := source.(*SetType)
		return ok && IsCompatible(t.Elem, s.Elem)
	case *WeakMapType, *WeakSetType, *DateType, *RegExpType:
		return sameConcreteKind(target, source)
	case *InstantiatedGenericType:
		s, ok := source.(*InstantiatedGenericType)
		return ok && s.Def == t.Def && IsCompatible(t.Resolved, s.Resolved)
	}
	return false
}

func isAny(t Type) bool {
	p, ok := t.(*PrimitiveType)
	return ok && p.Kind == Any
}

func isUnknown(t Type) bool {
	p, ok := t.(*PrimitiveType)
	return ok && p.Kind == Unknown
}

func sameConcreteKind(a, b Type) bool {
	switch a.(type) {
	case *DateType:
		_, ok := b.(*DateType)
		return ok
	case *RegExpType:
		_, ok := b.(*RegExpType)
		return ok
	case *WeakMapType:
		_, ok := b.(*WeakMapType)
		return ok
	case *WeakSetType:
		_, ok := b.(*WeakSetType)
		return ok
	}
	return false
}

func recordCompatible(target *RecordType, source Type) bool {
	var fields func(name string) *RecordField
	switch s := source.(type) {
	case *RecordType:
		fields = s.Field
	case *InstanceType:
		fields = func(name string) *RecordField {
			m, _ := s.Class.Lookup(name)
			if m == nil {
				return nil
			}
			return &RecordField{Name: m.Name, Type: m.Type, Optional: m.Optional, Readonly: m.Readonly}
		}
	default:
		return false
	}
	for _, tf := range target.Fields {
		sf := fields(tf.Name)
		if sf == nil {
			if tf.Optional {
				continue
			}
			return false
		}
		if !IsCompatible(tf.Type, sf.Type) {
			return false
		}
	}
	return true
}

func classImplementsStructurally(c *ClassType, iface *InterfaceType) bool {
	for _, name := range iface.Order {
		m := iface.Members[name]
		cm, _ := c.Lookup(name)
		if cm == nil || !IsCompatible(m.Type, cm.Type) {
			return false
		}
	}
	return true
}

func interfaceStructurallyCoveredBy(iface *InterfaceType, rec *RecordType) bool {
	for _, name := range iface.Order {
		m := iface.Members[name]
		rf := rec.Field(name)
		if rf == nil || !IsCompatible(m.Type, rf.Type) {
			return false
		}
	}
	return true
}

func classCompatible(target *ClassType, source Type) bool {
	s, ok := source.(*ClassType)
	return ok && (s == target || s.IsSubclassOf(target))
}

func asFunction(t Type) (*FunctionType, bool) {
	switch f := t.(type) {
	case *FunctionType:
		return f, true
	case *OverloadedFunctionType:
		if f.Impl != nil {
			return f.Impl, true
		}
		if len(f.Signatures) > 0 {
			return f.Signatures[0], true
		}
	}
	return nil, false
}

// functionCompatible treats parameters bivariantly (spec §4.4: "function
// parameters are bivariant for compatibility with the subset") and the
// return type covariantly.
func functionCompatible(target, source *FunctionType) bool {
	if len(source.Params) < target.RequiredCount {
		return false
	}
	n := len(target.Params)
	if len(source.Params) < n {
		n = len(source.Params)
	}
	for i := 0; i < n; i++ {
		if !IsCompatible(target.Params[i], source.Params[i]) && !IsCompatible(source.Params[i], target.Params[i]) {
			return false
		}
	}
	return IsCompatible(target.Return, source.Return) || isVoidOrUndefined(target.Return)
}

func isVoidOrUndefined(t Type) bool {
	p, ok := t.(*PrimitiveType)
	return ok && (p.Kind == Void || p.Kind == Undefined)
}

// IsNumericType reports whether t's values participate in arithmetic.
func IsNumericType(t Type) bool {
	p, ok := t.(*PrimitiveType)
	return ok && (p.Kind == Number || p.Kind == BigInt)
}

// IsOrdinalType reports whether t has a well-defined successor (used for
// `for` loop and enum reverse-mapping checks).
func IsOrdinalType(t Type) bool {
	if IsNumericType(t) {
		return true
	}
	_, ok := t.(*EnumType)
	return ok
}

// IsComparableType reports whether `<`/`>`/`<=`/`>=` are defined for t.
func IsComparableType(t Type) bool {
	p, ok := t.(*PrimitiveType)
	return ok && (p.Kind == Number || p.Kind == String || p.Kind == BigInt)
}

// PromoteTypes computes the result type of a binary arithmetic operator
// applied to a and b, following JS numeric-tower rules for the subset:
// string is involved -> string (concatenation), else number, unless both
// sides are bigint in which case the result stays bigint.
func PromoteTypes(a, b Type) Type {
	ap, aok := a.(*PrimitiveType)
	bp, bok := b.(*PrimitiveType)
	if aok && bok && ap.Kind == String || bok && bp.Kind == String {
		return StringType
	}
	if aok && ap.Kind == String {
		return StringType
	}
	if aok && bok && ap.Kind == BigInt && bp.Kind == BigInt {
		return BigIntType
	}
	return NumberType
}
