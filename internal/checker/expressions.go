package checker

import (
	"github.com/tsnc-lang/tsnc/internal/ast"
	"github.com/tsnc-lang/tsnc/internal/lexer"
	"github.com/tsnc-lang/tsnc/internal/types"
)

// inferExpr computes e's type, recording any Type diagnostics along
// the way. It never returns nil — an expression the checker can't yet
// reason about degrades to types.AnyType so the rest of the program
// keeps checking instead of aborting on the first unfamiliar form.
func (c *Checker) inferExpr(e ast.Expr) types.Type {
	switch n := e.(type) {
	case nil:
		return types.AnyType
	case *ast.Identifier:
		if t, ok := c.lookup(n.Name); ok {
			return t
		}
		return types.AnyType
	case *ast.ThisExpr:
		return c.currentThisType()
	case *ast.SuperExpr:
		if it, ok := c.currentThisType().(*types.InstanceType); ok && it.Class.Super != nil {
			return types.NewInstanceType(it.Class.Super)
		}
		return types.AnyType
	case *ast.NumberLiteral:
		return types.NumberType
	case *ast.BigIntLiteral:
		return types.BigIntType
	case *ast.StringLiteral:
		return types.StringType
	case *ast.BooleanLiteral:
		return types.BooleanType
	case *ast.NullLiteral:
		return types.NullType
	case *ast.UndefinedLiteral:
		return types.UndefinedType
	case *ast.RegexLiteral:
		return &types.RegExpType{}
	case *ast.NewTarget, *ast.ImportMeta:
		return types.AnyType
	case *ast.ArrayLiteral:
		return c.inferArrayLiteral(n)
	case *ast.ObjectLiteral:
		return c.inferObjectLiteral(n)
	case *ast.SpreadExpr:
		return c.inferExpr(n.Value)
	case *ast.TemplateLiteral:
		for _, sub := range n.Exprs {
			c.inferExpr(sub)
		}
		return types.StringType
	case *ast.TaggedTemplateLiteral:
		c.inferExpr(n.Tag)
		c.inferExpr(n.Template)
		return types.AnyType
	case *ast.FunctionLiteral:
		c.checkFunctionBody(n)
		return c.functionTypeFromParams(n.Params, n.ReturnType)
	case *ast.ArrowFunction:
		return c.inferArrowFunction(n)
	case *ast.ClassExpr:
		return types.AnyType
	case *ast.Get:
		return c.inferGet(n)
	case *ast.Set:
		return c.inferSet(n)
	case *ast.GetIndex:
		return c.inferGetIndex(n)
	case *ast.SetIndex:
		return c.inferSetIndex(n)
	case *ast.GetPrivate:
		c.inferExpr(n.Object)
		return types.AnyType
	case *ast.SetPrivate:
		c.inferExpr(n.Object)
		return c.inferExpr(n.Value)
	case *ast.CallPrivate:
		c.inferExpr(n.Object)
		for _, a := range n.Args {
			c.inferExpr(a)
		}
		return types.AnyType
	case *ast.Call:
		return c.inferCall(n)
	case *ast.New:
		return c.inferNew(n)
	case *ast.CondExpr:
		return c.inferConditional(n)
	case *ast.Binary:
		return c.inferBinary(n)
	case *ast.Logical:
		return c.inferLogical(n)
	case *ast.Unary:
		return c.inferUnary(n)
	case *ast.Assign:
		return c.inferAssign(n)
	case *ast.CompoundAssign:
		return c.inferCompoundAssign(n)
	case *ast.LogicalAssign:
		return c.inferLogicalAssign(n)
	case *ast.CompoundSet:
		objType := c.inferExpr(n.Object)
		c.inferExpr(n.Value)
		// The written value's type is the operator's result; the
		// member resolution rules (existence, setter-less getters,
		// readonly) apply the same as plain assignment.
		c.checkMemberAssign(objType, n.Name, types.AnyType, n)
		return types.AnyType
	case *ast.CompoundSetIndex:
		c.inferExpr(n.Object)
		c.inferExpr(n.Index)
		return c.inferExpr(n.Value)
	case *ast.LogicalSet:
		objType := c.inferExpr(n.Object)
		valType := c.inferExpr(n.Value)
		c.checkMemberAssign(objType, n.Name, valType, n)
		return valType
	case *ast.LogicalSetIndex:
		c.inferExpr(n.Object)
		c.inferExpr(n.Index)
		return c.inferExpr(n.Value)
	case *ast.PrefixIncrement:
		return c.inferIncrement(n.Target, n.Pos())
	case *ast.PostfixIncrement:
		return c.inferIncrement(n.Target, n.Pos())
	case *ast.DynamicImport:
		c.inferExpr(n.Specifier)
		return types.AnyType
	case *ast.Await:
		return c.inferExpr(n.Value)
	case *ast.Yield:
		if n.Value != nil {
			c.inferExpr(n.Value)
		}
		return types.AnyType
	case *ast.YieldStar:
		c.inferExpr(n.Value)
		return types.AnyType
	default:
		c.errorf(e.Pos(), "checker: unhandled expression %T", e)
		return types.AnyType
	}
}

func (c *Checker) inferIncrement(target ast.Expr, pos interface{ String() string }) types.Type {
	t := c.inferExpr(target)
	if !types.IsNumericType(t) && !types.IsCompatible(t, types.AnyType) == false {
		// fallthrough: Any/Unknown targets are accepted as-is.
	}
	return types.NumberType
}

func (c *Checker) inferArrayLiteral(n *ast.ArrayLiteral) types.Type {
	var elem types.Type
	for _, el := range n.Elements {
		if el == nil {
			continue
		}
		t := c.inferExpr(el)
		if _, ok := el.(*ast.SpreadExpr); ok {
			if arr, ok := t.(*types.ArrayType); ok {
				t = arr.Elem
			}
		}
		if elem == nil {
			elem = t
		} else if !sameType(elem, t) {
			elem = types.NewUnionType(elem, t)
		}
	}
	if elem == nil {
		elem = types.AnyType
	}
	return types.NewArrayType(elem)
}

func sameType(a, b types.Type) bool { return a.String() == b.String() }

func (c *Checker) inferObjectLiteral(n *ast.ObjectLiteral) types.Type {
	rt := &types.RecordType{}
	// A spread or computed key makes the literal's shape depend on
	// runtime values; the whole literal degrades to `any` rather than
	// a record missing the spread-in keys.
	exactShape := true
	for _, p := range n.Properties {
		if p.Spread {
			c.inferExpr(p.Value)
			exactShape = false
			continue
		}
		if key, ok := p.Key.(*ast.ComputedKey); ok {
			c.inferExpr(key.Expr)
			exactShape = false
			continue
		}
		name := propertyKeyName(p.Key)
		var t types.Type
		switch {
		case p.Method != nil:
			t = c.functionTypeFromParams(p.Method.Params, p.Method.ReturnType)
			c.checkFunctionBody(p.Method)
		case p.Accessor != nil:
			t = types.AnyType
		default:
			t = c.inferExpr(p.Value)
		}
		rt.Fields = append(rt.Fields, &types.RecordField{Name: name, Type: t})
	}
	if !exactShape {
		return types.AnyType
	}
	return rt
}

func propertyKeyName(k ast.PropertyKey) string {
	switch key := k.(type) {
	case *ast.IdentifierKey:
		return key.Name
	case *ast.LiteralKey:
		if s, ok := key.Value.(*ast.StringLiteral); ok {
			return s.Value
		}
		return key.Value.String()
	default:
		return ""
	}
}

func (c *Checker) inferArrowFunction(n *ast.ArrowFunction) types.Type {
	ft := c.functionTypeFromParams(n.Params, n.ReturnType)
	c.pushScope()
	for i, p := range n.Params {
		if p.Pattern != nil {
			c.declarePatternAny(p.Pattern)
			continue
		}
		c.declare(p.Name, ft.Params[i])
	}
	retType := ft.Return
	if n.ReturnType == nil {
		retType = types.AnyType
	}
	c.returnStack = append(c.returnStack, retType)
	if n.BlockBody != nil {
		c.checkStmt(n.BlockBody)
	} else {
		bodyType := c.inferExpr(n.ExprBody)
		if n.ReturnType != nil {
			c.checkAssignable(n.ExprBody.Pos(), ft.Return, bodyType, "arrow body")
		} else {
			ft.Return = bodyType
		}
	}
	c.returnStack = c.returnStack[:len(c.returnStack)-1]
	c.popScope()
	return ft
}

// memberType resolves a `.name` access against t, reporting an error
// and returning Any when the member doesn't exist on a type that
// actually has a closed member set (records/classes/interfaces);
// Any/Unknown/built-ins with no static member list pass through.
func (c *Checker) memberType(t types.Type, name string, pos interface{ String() string }, posNode ast.Node) types.Type {
	switch v := t.(type) {
	case *types.InstanceType:
		m, declaring := v.Class.Lookup(name)
		if m == nil {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return types.AnyType
		}
		c.checkMemberVisibility(m, declaring, name, posNode)
		return m.Type
	case *types.InstantiatedGenericType:
		// §4.4 generic instantiation: member lookup goes through the
		// substituted class (typeParam → arg applied to every member
		// type, overload signatures included, by InstantiateGeneric).
		resolved, ok := types.Resolve(v).(*types.ClassType)
		if !ok {
			return types.AnyType
		}
		return c.memberType(types.NewInstanceType(resolved), name, pos, posNode)
	case *types.ClassType:
		m, declaring := v.Lookup(name)
		if m == nil || !m.Static {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return types.AnyType
		}
		c.checkMemberVisibility(m, declaring, name, posNode)
		return m.Type
	case *types.RecordType:
		f := v.Field(name)
		if f == nil {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return types.AnyType
		}
		return f.Type
	case *types.InterfaceType:
		m := v.Lookup(name)
		if m == nil {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return types.AnyType
		}
		return m.Type
	case *types.NamespaceType:
		t, ok := v.Members[name]
		if !ok {
			c.errorf(posNode.Pos(), "namespace '%s' has no exported member '%s'", v.Name, name)
			return types.AnyType
		}
		return t
	case *types.EnumType:
		if _, ok := v.Members[name]; !ok {
			c.errorf(posNode.Pos(), "enum '%s' has no member '%s'", v.Name, name)
			return types.AnyType
		}
		return v
	default:
		// Any/Unknown/arrays/Map/Set/Date/RegExp/unions: member access on
		// these is left to the runtime (array/string built-ins, Map/Set
		// methods) rather than modeled structurally here.
		return types.AnyType
	}
}

// checkMemberVisibility enforces §4.4's access modifiers against the
// enclosing class: private members are reachable only inside the
// declaring class, protected members inside it and its subclasses.
func (c *Checker) checkMemberVisibility(m *types.Member, declaring *types.ClassType, name string, posNode ast.Node) {
	if declaring == nil {
		return
	}
	switch m.Visibility {
	case types.Private:
		if c.currentClass() != declaring {
			c.errorf(posNode.Pos(), "property '%s' is private and only accessible within class '%s'", name, declaring.Name)
		}
	case types.Protected:
		cur := c.currentClass()
		if cur == nil || !cur.IsSubclassOf(declaring) {
			c.errorf(posNode.Pos(), "property '%s' is protected and only accessible within class '%s' and its subclasses", name, declaring.Name)
		}
	}
}

// checkMemberAssign resolves the target of `obj.name = v` per §4.4:
// a setter through the hierarchy, a field, or — for generic classes —
// the same lookup after substitution. A getter without a setter is its
// own specific error, and a readonly field assigns only inside the
// declaring class's constructor.
func (c *Checker) checkMemberAssign(objType types.Type, name string, valType types.Type, posNode ast.Node) {
	switch v := objType.(type) {
	case *types.InstanceType:
		m, declaring := v.Class.Lookup(name)
		if m == nil {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return
		}
		c.checkMemberVisibility(m, declaring, name, posNode)
		if m.HasGetter && !m.HasSetter {
			c.errorf(posNode.Pos(), "cannot assign to '%s' because it has only a getter", name)
			return
		}
		if m.Readonly && !(c.currentClass() == declaring && c.inConstructor()) {
			c.errorf(posNode.Pos(), "cannot assign to '%s' because it is a read-only property", name)
			return
		}
		c.checkAssignable(posNode.Pos(), m.Type, valType, "assignment to '"+name+"'")
	case *types.InstantiatedGenericType:
		resolved, ok := types.Resolve(v).(*types.ClassType)
		if !ok {
			return
		}
		c.checkMemberAssign(types.NewInstanceType(resolved), name, valType, posNode)
	case *types.ClassType:
		m, declaring := v.Lookup(name)
		if m == nil || !m.Static {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return
		}
		c.checkMemberVisibility(m, declaring, name, posNode)
		c.checkAssignable(posNode.Pos(), m.Type, valType, "assignment to '"+name+"'")
	case *types.RecordType:
		f := v.Field(name)
		if f == nil {
			c.errorf(posNode.Pos(), "property '%s' does not exist on type '%s'", name, v.String())
			return
		}
		if f.Readonly {
			c.errorf(posNode.Pos(), "cannot assign to '%s' because it is a read-only property", name)
			return
		}
		c.checkAssignable(posNode.Pos(), f.Type, valType, "assignment to '"+name+"'")
	default:
		// Any/objects-as-dictionaries/collections: assignment is
		// runtime-dispatched, same as memberType's read fallback.
	}
}

func (c *Checker) inferGet(n *ast.Get) types.Type {
	objType := c.inferExpr(n.Object)
	if n.Optional {
		return types.AnyType
	}
	return c.memberType(objType, n.Name, n, n)
}

func (c *Checker) inferSet(n *ast.Set) types.Type {
	objType := c.inferExpr(n.Object)
	valType := c.inferExpr(n.Value)
	c.checkMemberAssign(objType, n.Name, valType, n)
	return valType
}

func (c *Checker) inferGetIndex(n *ast.GetIndex) types.Type {
	objType := c.inferExpr(n.Object)
	c.inferExpr(n.Index)
	switch v := objType.(type) {
	case *types.ArrayType:
		return v.Elem
	case *types.TupleType:
		return types.AnyType
	case *types.MapType:
		return v.Value
	case *types.RecordType:
		return types.AnyType
	default:
		return types.AnyType
	}
}

func (c *Checker) inferSetIndex(n *ast.SetIndex) types.Type {
	c.inferExpr(n.Object)
	c.inferExpr(n.Index)
	return c.inferExpr(n.Value)
}

func (c *Checker) inferCall(n *ast.Call) types.Type {
	calleeType := c.inferExpr(n.Callee)
	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.inferExpr(a)
	}
	if n.Optional {
		return types.AnyType
	}
	ft := functionSignatureOf(calleeType)
	if ft == nil {
		return types.AnyType
	}
	c.checkArgs(n.Pos(), ft, n.Args, argTypes)
	return ft.Return
}

func functionSignatureOf(t types.Type) *types.FunctionType {
	switch v := t.(type) {
	case *types.FunctionType:
		return v
	case *types.OverloadedFunctionType:
		if v.Impl != nil {
			return v.Impl
		}
		if len(v.Signatures) > 0 {
			return v.Signatures[0]
		}
	}
	return nil
}

func (c *Checker) checkArgs(pos lexer.Position, ft *types.FunctionType, args []ast.Expr, argTypes []types.Type) {
	if !ft.HasRest && len(args) > len(ft.Params) {
		return
	}
	if len(args) < ft.RequiredCount {
		return
	}
	for i := 0; i < len(args) && i < len(ft.Params); i++ {
		if _, ok := args[i].(*ast.SpreadExpr); ok {
			continue
		}
		c.checkAssignable(args[i].Pos(), ft.Params[i], argTypes[i], "argument")
	}
}

func (c *Checker) inferNew(n *ast.New) types.Type {
	calleeType := c.inferExpr(n.Callee)
	for _, a := range n.Args {
		c.inferExpr(a)
	}
	switch v := calleeType.(type) {
	case *types.ClassType:
		return types.NewInstanceType(v)
	case *types.GenericClassType:
		args := make([]types.Type, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			args[i] = c.resolveType(a)
		}
		if len(args) == 0 {
			return types.NewInstanceType(v.ClassType)
		}
		return types.InstantiateGeneric(v, args)
	default:
		return types.AnyType
	}
}

func (c *Checker) inferConditional(n *ast.CondExpr) types.Type {
	c.inferExpr(n.Condition)
	thenType := c.inferExpr(n.Then)
	altType := c.inferExpr(n.Alt)
	if sameType(thenType, altType) {
		return thenType
	}
	return types.NewUnionType(thenType, altType)
}

func (c *Checker) inferBinary(n *ast.Binary) types.Type {
	left := c.inferExpr(n.Left)
	right := c.inferExpr(n.Right)
	switch n.Operator {
	case "+":
		return types.PromoteTypes(left, right)
	case "-", "*", "/", "%", "**":
		c.checkNumericOperand(n.Left.Pos(), left)
		c.checkNumericOperand(n.Right.Pos(), right)
		return types.NumberType
	case "&", "|", "^", "<<", ">>", ">>>":
		return types.NumberType
	case "<", "<=", ">", ">=":
		if !types.IsComparableType(left) && !isAnyLike(left) {
			c.errorf(n.Left.Pos(), "operator '%s' cannot be applied to type '%s'", n.Operator, left.String())
		}
		return types.BooleanType
	case "==", "!=", "===", "!==":
		return types.BooleanType
	case "instanceof":
		return types.BooleanType
	case "in":
		return types.BooleanType
	default:
		return types.AnyType
	}
}

func isAnyLike(t types.Type) bool {
	p, ok := t.(*types.PrimitiveType)
	return ok && (p.Kind == types.Any || p.Kind == types.Unknown)
}

func (c *Checker) checkNumericOperand(pos lexer.Position, t types.Type) {
	if !types.IsNumericType(t) && !isAnyLike(t) {
		c.errorf(pos, "operator cannot be applied to type '%s'", t.String())
	}
}

func (c *Checker) inferLogical(n *ast.Logical) types.Type {
	left := c.inferExpr(n.Left)
	right := c.inferExpr(n.Right)
	switch n.Operator {
	case "&&":
		return right
	case "||", "??":
		if sameType(left, right) {
			return left
		}
		return types.NewUnionType(left, right)
	default:
		return types.AnyType
	}
}

func (c *Checker) inferUnary(n *ast.Unary) types.Type {
	c.inferExpr(n.Right)
	switch n.Operator {
	case "!":
		return types.BooleanType
	case "-", "+":
		return types.NumberType
	case "~":
		return types.NumberType
	case "typeof":
		return types.StringType
	case "void":
		return types.UndefinedType
	case "delete":
		return types.BooleanType
	default:
		return types.AnyType
	}
}

func (c *Checker) inferAssign(n *ast.Assign) types.Type {
	valType := c.inferExpr(n.Value)
	if target, ok := c.lookup(n.Target.Name); ok {
		c.checkAssignable(n.Pos(), target, valType, "assignment")
		return target
	}
	c.declare(n.Target.Name, valType)
	return valType
}

func (c *Checker) inferCompoundAssign(n *ast.CompoundAssign) types.Type {
	valType := c.inferExpr(n.Value)
	target, ok := c.lookup(n.Target.Name)
	if !ok {
		return valType
	}
	if n.Operator == "+" {
		return types.PromoteTypes(target, valType)
	}
	c.checkNumericOperand(n.Target.Pos(), target)
	c.checkNumericOperand(n.Value.Pos(), valType)
	return types.NumberType
}

func (c *Checker) inferLogicalAssign(n *ast.LogicalAssign) types.Type {
	valType := c.inferExpr(n.Value)
	target, ok := c.lookup(n.Target.Name)
	if !ok {
		return valType
	}
	if sameType(target, valType) {
		return target
	}
	return types.NewUnionType(target, valType)
}
