package bytecode

import "github.com/tsnc-lang/tsnc/internal/ast"

// compileDestructureParam binds a destructuring parameter pattern,
// reading the argument already stored in the anonymous local srcSlot
// (spec §4.3's parameter-position patterns share the same bind shape as
// `const`/`let` patterns; only the leaf binding target differs).
func (c *Compiler) compileDestructureParam(pattern ast.Expr, srcSlot int, line int) {
	c.destructureBind(pattern, srcSlot, line, c.bindLocalFromSlot)
}

// compileDestructureVarDecl binds a `const {a, b} = obj;`-style pattern.
// At module scope leaves become named globals, matching compileVarDecl's
// plain-identifier case; inside a function they become TDZ-tracked
// locals.
func (c *Compiler) compileDestructureVarDecl(v *ast.VarDecl, srcSlot int, line int) {
	if c.fn.parent == nil {
		c.destructureBind(v.Pattern, srcSlot, line, func(name string, slot, ln int) {
			c.emit(OpLoadLocal, slot, 0, ln)
			c.emit(OpStoreGlobal, c.chunk.AddName(c.globalName(name)), 0, ln)
		})
		return
	}
	c.destructureBind(v.Pattern, srcSlot, line, func(name string, slot, ln int) {
		idx := c.allocLocal(name)
		if v.Kind != ast.VarVar {
			c.emit(OpDeclareTDZ, idx, 0, ln)
		}
		c.emit(OpLoadLocal, slot, 0, ln)
		c.emit(OpInitLocal, idx, 0, ln)
	})
}

func (c *Compiler) bindLocalFromSlot(name string, srcSlot, line int) {
	idx := c.allocLocal(name)
	c.emit(OpLoadLocal, srcSlot, 0, line)
	c.emit(OpStoreLocal, idx, 0, line)
}

// destructureBind walks one pattern node, reading its source value from
// local slot srcSlot and calling bind for each leaf identifier it binds.
// Shape mirrors internal/resolver's walkPatternNames exactly: Identifier
// leaves, ArrayLiteral elements (with *ast.SpreadExpr marking the rest
// element), ObjectLiteral properties (with prop.Spread marking the rest
// property), and Assign wrapping a sub-pattern with a default value.
func (c *Compiler) destructureBind(pattern ast.Expr, srcSlot, line int, bind func(name string, srcSlot, line int)) {
	switch p := pattern.(type) {
	case *ast.Identifier:
		bind(p.Name, srcSlot, line)
	case *ast.Assign:
		c.applyPatternDefault(srcSlot, p.Value, line)
		c.destructureBind(p.Target, srcSlot, line, bind)
	case *ast.ArrayLiteral:
		c.destructureArray(p, srcSlot, line, bind)
	case *ast.ObjectLiteral:
		c.destructureObject(p, srcSlot, line, bind)
	default:
		c.failLine(line, "unsupported destructuring pattern")
	}
}

// applyPatternDefault replaces the value in slot with def's result when
// it is strictly `undefined`, leaving it untouched otherwise (same
// peek-then-conditionally-pop shape as emitParamDefault).
func (c *Compiler) applyPatternDefault(slot int, def ast.Expr, line int) {
	c.emit(OpLoadLocal, slot, 0, line)
	c.emit(OpLoadUndefined, 0, 0, line)
	c.emit(OpStrictEq, 0, 0, line)
	skip := c.emit(OpJumpIfFalse, 0, 0, line)
	c.emit(OpPop, 0, 0, line)
	c.compileExpr(def)
	c.emit(OpStoreLocal, slot, 0, line)
	end := c.emit(OpJump, 0, 0, line)
	c.patchJump(skip, c.here())
	c.emit(OpPop, 0, 0, line)
	c.patchJump(end, c.here())
}

func (c *Compiler) destructureArray(p *ast.ArrayLiteral, srcSlot, line int, bind func(string, int, int)) {
	for i, el := range p.Elements {
		if el == nil {
			continue // hole: `const [, b] = arr` skips index 0
		}
		if spread, ok := el.(*ast.SpreadExpr); ok {
			c.emit(OpLoadLocal, srcSlot, 0, line)
			c.emit(OpArrayRest, i, 0, line)
			tmp := c.allocLocal("")
			c.emit(OpStoreLocal, tmp, 0, line)
			c.destructureBind(spread.Value, tmp, line, bind)
			break // rest must be the last element
		}
		c.emit(OpLoadLocal, srcSlot, 0, line)
		c.emit(OpLoadConst, c.chunk.AddConstant(float64(i)), 0, line)
		c.emit(OpGetIndex, 0, 0, line)
		tmp := c.allocLocal("")
		c.emit(OpStoreLocal, tmp, 0, line)
		c.destructureBind(el, tmp, line, bind)
	}
}

func (c *Compiler) destructureObject(p *ast.ObjectLiteral, srcSlot, line int, bind func(string, int, int)) {
	var bound []string
	var rest *ast.ObjectProperty
	for _, prop := range p.Properties {
		if prop.Spread {
			rest = prop
			continue
		}
		name := propertyKeyName(prop.Key)
		bound = append(bound, name)
		c.emit(OpLoadLocal, srcSlot, 0, line)
		c.emit(OpGetProp, c.chunk.AddName(name), 0, line)
		tmp := c.allocLocal("")
		c.emit(OpStoreLocal, tmp, 0, line)
		c.destructureBind(prop.Value, tmp, line, bind)
	}
	if rest == nil {
		return
	}
	c.emit(OpLoadLocal, srcSlot, 0, line)
	c.emit(OpObjectRest, 0, 0, line)
	for _, name := range bound {
		c.emit(OpDeletePropKeep, c.chunk.AddName(name), 0, line)
	}
	tmp := c.allocLocal("")
	c.emit(OpStoreLocal, tmp, 0, line)
	c.destructureBind(rest.Value, tmp, line, bind)
}
