package checker

import "github.com/tsnc-lang/tsnc/internal/ast"
import "github.com/tsnc-lang/tsnc/internal/types"

// resolveType translates a parsed TypeExpr into its internal/types
// representation, following named references through c.namedTypes.
// An unresolvable name (forward reference the hoisting pass missed, or
// a generic type parameter not currently in scope) degrades to
// types.AnyType rather than failing the whole check, matching the
// forgiving style of go-dws's `a.resolveType(name)` helper.
func (c *Checker) resolveType(t ast.TypeExpr) types.Type {
	if t == nil {
		return types.AnyType
	}
	switch n := t.(type) {
	case *ast.PrimitiveTypeExpr:
		return resolvePrimitiveType(n.Name)
	case *ast.TypeRefExpr:
		return c.resolveTypeRef(n)
	case *ast.ArrayTypeExpr:
		return types.NewArrayType(c.resolveType(n.Elem))
	case *ast.TupleTypeExpr:
		elems := make([]types.Type, len(n.Elems))
		for i, e := range n.Elems {
			elems[i] = c.resolveType(e)
		}
		var rest types.Type
		if n.Rest != nil {
			rest = c.resolveType(n.Rest)
		}
		return &types.TupleType{Elems: elems, Rest: rest}
	case *ast.UnionTypeExpr:
		alts := make([]types.Type, len(n.Alts))
		for i, a := range n.Alts {
			alts[i] = c.resolveType(a)
		}
		return types.NewUnionType(alts...)
	case *ast.RecordTypeExpr:
		fields := make([]*types.RecordField, len(n.Fields))
		for i, f := range n.Fields {
			fields[i] = &types.RecordField{
				Name:     f.Name,
				Type:     c.resolveType(f.TypeAnn),
				Optional: f.Optional,
				Readonly: f.Readonly,
			}
		}
		return &types.RecordType{Fields: fields}
	case *ast.FunctionTypeExpr:
		return c.functionTypeFromParams(n.Params, n.ReturnType)
	default:
		return types.AnyType
	}
}

func resolvePrimitiveType(name string) types.Type {
	switch name {
	case "number":
		return types.NumberType
	case "string":
		return types.StringType
	case "boolean":
		return types.BooleanType
	case "null":
		return types.NullType
	case "undefined":
		return types.UndefinedType
	case "void":
		return types.VoidType
	case "bigint":
		return types.BigIntType
	case "symbol":
		return types.SymbolType
	case "unknown":
		return types.UnknownType
	case "never":
		return types.NeverType
	case "object":
		return types.ObjectType
	default:
		return types.AnyType
	}
}

// resolveTypeRef looks up a named type (class/interface/enum/built-in
// parameterized collection) and substitutes generic arguments when
// given.
func (c *Checker) resolveTypeRef(n *ast.TypeRefExpr) types.Type {
	switch n.Name {
	case "Date":
		return &types.DateType{}
	case "RegExp":
		return &types.RegExpType{}
	case "Array":
		if len(n.TypeArgs) == 1 {
			return types.NewArrayType(c.resolveType(n.TypeArgs[0]))
		}
		return types.NewArrayType(types.AnyType)
	case "Map":
		if len(n.TypeArgs) == 2 {
			return &types.MapType{Key: c.resolveType(n.TypeArgs[0]), Value: c.resolveType(n.TypeArgs[1])}
		}
		return &types.MapType{Key: types.AnyType, Value: types.AnyType}
	case "Set":
		if len(n.TypeArgs) == 1 {
			return &types.SetType{Elem: c.resolveType(n.TypeArgs[0])}
		}
		return &types.SetType{Elem: types.AnyType}
	case "WeakMap":
		if len(n.TypeArgs) == 2 {
			return &types.WeakMapType{Key: c.resolveType(n.TypeArgs[0]), Value: c.resolveType(n.TypeArgs[1])}
		}
		return &types.WeakMapType{Key: types.ObjectType, Value: types.AnyType}
	case "WeakSet":
		if len(n.TypeArgs) == 1 {
			return &types.WeakSetType{Elem: c.resolveType(n.TypeArgs[0])}
		}
		return &types.WeakSetType{Elem: types.ObjectType}
	case "Promise":
		// The subset represents an awaited value's type, not a distinct
		// Promise<T> type constructor (spec §4.6): a reference to Promise<T>
		// resolves to T itself so `await p` and `p: Promise<T>` line up.
		if len(n.TypeArgs) == 1 {
			return c.resolveType(n.TypeArgs[0])
		}
		return types.AnyType
	}
	if len(n.TypeArgs) == 0 && c.isTypeParam(n.Name) {
		return &types.TypeParamType{Name: n.Name}
	}
	named, ok := c.namedTypes[n.Name]
	if !ok {
		return types.AnyType
	}
	if len(n.TypeArgs) == 0 {
		// A bare class name in type position names the instance type, not
		// the class-of/constructor type (that form only arises internally,
		// e.g. a `new` callee's own type); interfaces/enums/namespaces have
		// no such distinction.
		if ct, ok := named.(*types.ClassType); ok {
			return types.NewInstanceType(ct)
		}
		return named
	}
	def, ok := named.(*types.GenericClassType)
	if !ok {
		return named
	}
	args := make([]types.Type, len(n.TypeArgs))
	for i, a := range n.TypeArgs {
		args[i] = c.resolveType(a)
	}
	return types.InstantiateGeneric(def, args)
}

func (c *Checker) functionTypeFromParams(params []*ast.Parameter, ret ast.TypeExpr) *types.FunctionType {
	ft := &types.FunctionType{Return: c.resolveType(ret)}
	required := 0
	for _, p := range params {
		var pt types.Type = types.AnyType
		if p.TypeAnn != nil {
			pt = c.resolveType(p.TypeAnn)
		}
		ft.Params = append(ft.Params, pt)
		ft.ParamNames = append(ft.ParamNames, p.Name)
		if p.Rest {
			ft.HasRest = true
			continue
		}
		if !p.Optional && p.ParamDefault == nil {
			required++
		}
	}
	ft.RequiredCount = required
	return ft
}
