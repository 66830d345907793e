package checker

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/types"
)

// hoistNamedTypes is the checker's two-phase declare/define for nominal
// types (spec §4.4): class/enum/namespace names are registered as
// stubs first so mutually-referencing declarations ("class A { b: B }"
// declared before "class B") and self-reference ("class Node { next:
// Node }") both resolve, then a second pass fills in each stub's
// members once every name in the module is known.
func (c *Checker) hoistNamedTypes(stmts []ast.Stmt) {
	for _, s := range stmts {
		c.declareNamedTypeStub(s)
	}
	for _, s := range stmts {
		c.defineNamedTypeMembers(s)
	}
}

func (c *Checker) declareNamedTypeStub(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ClassDecl:
		if len(n.TypeParams) > 0 {
			c.namedTypes[n.Name] = types.NewGenericClassType(n.Name, n.TypeParams)
		} else {
			c.namedTypes[n.Name] = types.NewClassType(n.Name)
		}
	case *ast.EnumDecl:
		c.namedTypes[n.Name] = types.NewEnumType(n.Name)
	case *ast.NamespaceDecl:
		c.namedTypes[n.Name] = types.NewNamespaceType(n.Name)
	case *ast.ExportStmt:
		if n.Decl != nil {
			c.declareNamedTypeStub(n.Decl)
		}
	}
}

func (c *Checker) defineNamedTypeMembers(s ast.Stmt) {
	switch n := s.(type) {
	case *ast.ClassDecl:
		c.defineClassType(n)
	case *ast.EnumDecl:
		c.defineEnumType(n)
	case *ast.NamespaceDecl:
		c.defineNamespaceType(n)
	case *ast.ExportStmt:
		if n.Decl != nil {
			c.defineNamedTypeMembers(n.Decl)
		}
	}
}

func (c *Checker) classTypeOf(name string) *types.ClassType {
	switch t := c.namedTypes[name].(type) {
	case *types.ClassType:
		return t
	case *types.GenericClassType:
		return t.ClassType
	default:
		return nil
	}
}

func (c *Checker) defineClassType(n *ast.ClassDecl) {
	ct := c.classTypeOf(n.Name)
	if ct == nil {
		return
	}
	ct.Abstract = n.Abstract
	if superID, ok := n.SuperClass.(*ast.Identifier); ok {
		ct.Super = c.classTypeOf(superID.Name)
	}
	if len(n.TypeParams) > 0 {
		c.pushTypeParams(n.TypeParams)
		defer c.popTypeParams()
	}
	for _, field := range n.Fields {
		m := c.memberFromField(field)
		// A get/set accessor pair arrives as two ClassFields with the
		// same name; merge them into one member so assignment checking
		// can tell a getter-only property from a full accessor pair
		// (spec §4.4's "getter exists without a setter" error).
		if existing, ok := ct.Members[m.Name]; ok &&
			(existing.HasGetter || existing.HasSetter) && (m.HasGetter || m.HasSetter) {
			existing.HasGetter = existing.HasGetter || m.HasGetter
			existing.HasSetter = existing.HasSetter || m.HasSetter
			if existing.Type == types.AnyType {
				existing.Type = m.Type
			}
			continue
		}
		ct.AddMember(m)
	}
}

// memberFromField builds a types.Member from a parsed class field,
// method, or accessor (spec §4.4's class member shape).
func (c *Checker) memberFromField(f *ast.ClassField) *types.Member {
	m := &types.Member{
		Name:       f.Name,
		Visibility: accessToVisibility(f.Access),
		Static:     f.Static,
		Readonly:   f.Readonly,
		Abstract:   f.Abstract,
	}
	switch {
	case f.Method != nil:
		m.IsMethod = true
		m.Type = c.functionTypeFromParams(f.Method.Params, f.Method.ReturnType)
	case f.Accessor != nil:
		if f.Accessor.IsGet {
			m.HasGetter = true
			var ret types.Type = types.AnyType
			if f.Accessor.ReturnType != nil {
				ret = c.resolveType(f.Accessor.ReturnType)
			}
			m.Type = ret
		} else {
			m.HasSetter = true
			var pt types.Type = types.AnyType
			if len(f.Accessor.Params) == 1 && f.Accessor.Params[0].TypeAnn != nil {
				pt = c.resolveType(f.Accessor.Params[0].TypeAnn)
			}
			m.Type = pt
		}
	default:
		m.Type = types.AnyType
		if f.TypeAnn != nil {
			m.Type = c.resolveType(f.TypeAnn)
		} else if f.Initializer != nil {
			m.Type = c.inferExpr(f.Initializer)
		}
	}
	return m
}

func accessToVisibility(a ast.AccessModifier) types.Visibility {
	switch a {
	case ast.AccessPrivate:
		return types.Private
	case ast.AccessProtected:
		return types.Protected
	default:
		return types.Public
	}
}

func (c *Checker) defineEnumType(n *ast.EnumDecl) {
	et, ok := c.namedTypes[n.Name].(*types.EnumType)
	if !ok {
		return
	}
	et.IsConst = n.IsConst
	next := 0.0
	for _, m := range n.Members {
		var value interface{}
		switch v := m.Value.(type) {
		case nil:
			value = next
			next++
		case *ast.NumberLiteral:
			value = v.Value
			next = v.Value + 1
		case *ast.StringLiteral:
			value = v.Value
		default:
			value = next
			next++
		}
		if _, exists := et.Members[m.Name]; !exists {
			et.Order = append(et.Order, m.Name)
		}
		et.Members[m.Name] = value
	}
}

func (c *Checker) defineNamespaceType(n *ast.NamespaceDecl) {
	ns, ok := c.namedTypes[n.Name].(*types.NamespaceType)
	if !ok {
		return
	}
	for _, s := range n.Body {
		switch inner := s.(type) {
		case *ast.FunctionDecl:
			ns.Members[inner.Function.Name] = c.functionTypeFromParams(inner.Function.Params, inner.Function.ReturnType)
		case *ast.VarDecl:
			if inner.TypeAnn != nil {
				ns.Members[inner.Name] = c.resolveType(inner.TypeAnn)
			} else {
				ns.Members[inner.Name] = types.AnyType
			}
		case *ast.ClassDecl, *ast.EnumDecl, *ast.NamespaceDecl:
			c.declareNamedTypeStub(inner)
			c.defineNamedTypeMembers(inner)
			if t, ok := c.namedTypes[nameOfDecl(inner)]; ok {
				ns.Members[nameOfDecl(inner)] = t
			}
		}
	}
}

func nameOfDecl(s ast.Stmt) string {
	switch n := s.(type) {
	case *ast.ClassDecl:
		return n.Name
	case *ast.EnumDecl:
		return n.Name
	case *ast.NamespaceDecl:
		return n.Name
	default:
		return ""
	}
}
