package bytecode

import "github.com/tsnc-lang/tsnc/internal/runtime"

// classValue is the runtime shape OpMakeClass assembles from a
// ClassProto: every member body closed over the defining frame (so
// methods capture enclosing scope exactly like nested functions), the
// superclass link, and the static side stored as ordinary properties.
type classValue struct {
	name          string
	super         *classValue
	ctor          *closure // nil when the class has no explicit constructor
	methods       map[string]*closure
	getters       map[string]*closure
	setters       map[string]*closure
	staticMethods map[string]*closure
	staticGetters map[string]*closure
	staticSetters map[string]*closure
	fields        []classFieldInit
	statics       *runtime.Object
	// fn is the public callable value user code sees; its Impl points
	// back here.
	fn *runtime.Function
	// info is the instance dispatch record installed on every
	// constructed object, chained to the superclass's info.
	info *runtime.ClassInstanceInfo
	vm   *VM
}

type classFieldInit struct {
	name    string
	private bool
	static  bool
	init    *closure // nil for fields with no initializer
}

// InstanceInfo implements runtime.ClassCarrier for instanceof.
func (cv *classValue) InstanceInfo() *runtime.ClassInstanceInfo { return cv.info }

// GetMember implements runtime.MemberCarrier: static getters, static
// fields, then static methods, walking the superclass chain (spec §4.4
// puts static members first in property dispatch).
func (cv *classValue) GetMember(name string) (interface{}, bool) {
	for c := cv; c != nil; c = c.super {
		if g, ok := c.staticGetters[name]; ok {
			return c.vm.callSync(g, c.fn, nil), true
		}
		if c.statics.Has(name) {
			return c.statics.Get(name), true
		}
		if m, ok := c.staticMethods[name]; ok {
			bound := c.vm.wrapClosure(m)
			class := c.fn
			call := bound.Call
			return &runtime.Function{Name: name, Call: func(_ interface{}, args []interface{}) interface{} {
				return call(class, args)
			}}, true
		}
	}
	if name == "name" {
		return cv.name, true
	}
	return nil, false
}

// SetMember implements runtime.MemberCarrier for static writes.
func (cv *classValue) SetMember(name string, value interface{}) bool {
	for c := cv; c != nil; c = c.super {
		if s, ok := c.staticSetters[name]; ok {
			c.vm.callSync(s, c.fn, []interface{}{value})
			return true
		}
	}
	cv.statics.Set(name, value)
	return true
}

// stepMakeClass assembles Chunk.ClassProtos[instr.A] into a class value
// against the current frame (instr.B != 0 means a superclass value is
// on the stack).
func (vm *VM) stepMakeClass(f *frame, instr Instruction) {
	proto := vm.chunk.ClassProtos[instr.A]
	var super *classValue
	if instr.B != 0 {
		superVal := vm.pop(f)
		fn, ok := superVal.(*runtime.Function)
		if ok {
			super, ok = fn.Impl.(*classValue)
		}
		if !ok {
			panic(&runtime.Exception{Value: "TypeError: Class extends value is not a constructor"})
		}
	}
	cv := &classValue{
		name:          proto.Name,
		super:         super,
		methods:       map[string]*closure{},
		getters:       map[string]*closure{},
		setters:       map[string]*closure{},
		staticMethods: map[string]*closure{},
		staticGetters: map[string]*closure{},
		staticSetters: map[string]*closure{},
		statics:       runtime.NewObject(),
		vm:            vm,
	}
	memberClosure := func(protoIndex int) *closure {
		cl := vm.makeClosure(f, protoIndex)
		cl.class = cv
		return cl
	}
	if proto.CtorProto >= 0 {
		cv.ctor = memberClosure(proto.CtorProto)
	}
	for _, m := range proto.Methods {
		cv.methods[m.Name] = memberClosure(m.ProtoIndex)
	}
	for _, m := range proto.Getters {
		cv.getters[m.Name] = memberClosure(m.ProtoIndex)
	}
	for _, m := range proto.Setters {
		cv.setters[m.Name] = memberClosure(m.ProtoIndex)
	}
	for _, m := range proto.StaticMethods {
		cv.staticMethods[m.Name] = memberClosure(m.ProtoIndex)
	}
	for _, m := range proto.StaticGetters {
		cv.staticGetters[m.Name] = memberClosure(m.ProtoIndex)
	}
	for _, m := range proto.StaticSetters {
		cv.staticSetters[m.Name] = memberClosure(m.ProtoIndex)
	}
	for _, fld := range proto.Fields {
		var init *closure
		if fld.InitProto >= 0 {
			init = memberClosure(fld.InitProto)
		}
		cv.fields = append(cv.fields, classFieldInit{name: fld.Name, private: fld.Private, static: fld.Static, init: init})
	}

	cv.info = vm.buildInstanceInfo(cv)
	cv.fn = &runtime.Function{Name: proto.Name, Impl: cv, Call: func(this interface{}, args []interface{}) interface{} {
		panic(&runtime.Exception{Value: "TypeError: Class constructor " + proto.Name + " cannot be invoked without 'new'"})
	}}

	// Static fields initialize at class-definition time, with `this`
	// bound to the class value itself.
	for _, fld := range cv.fields {
		if !fld.static {
			continue
		}
		value := interface{}(runtime.Undefined)
		if fld.init != nil {
			value = vm.callSync(fld.init, cv.fn, nil)
		}
		cv.statics.Set(fld.name, value)
	}

	vm.push(f, cv.fn)
}

// buildInstanceInfo wires the runtime dispatch record GetProperty and
// JsonStringify consult, chained to the superclass's record.
func (vm *VM) buildInstanceInfo(cv *classValue) *runtime.ClassInstanceInfo {
	info := &runtime.ClassInstanceInfo{
		Name:    cv.name,
		Methods: map[string]func(this *runtime.Object, args []interface{}) interface{}{},
		Getters: map[string]func(this *runtime.Object) interface{}{},
		Setters: map[string]func(this *runtime.Object, value interface{}){},
	}
	if cv.super != nil {
		info.Parent = cv.super.info
	}
	for name, m := range cv.methods {
		cl := m
		info.Methods[name] = func(this *runtime.Object, args []interface{}) interface{} {
			return vm.invokeMember(cl, this, args)
		}
	}
	for name, g := range cv.getters {
		cl := g
		info.Getters[name] = func(this *runtime.Object) interface{} {
			return vm.callSync(cl, this, nil)
		}
	}
	for name, s := range cv.setters {
		cl := s
		info.Setters[name] = func(this *runtime.Object, value interface{}) {
			vm.callSync(cl, this, []interface{}{value})
		}
	}
	if toJSON, ok := cv.methods["toJSON"]; ok {
		cl := toJSON
		info.ToJSON = func(this *runtime.Object) interface{} {
			return vm.callSync(cl, this, nil)
		}
	}
	return info
}

// invokeMember runs a class member body with `this` bound, routing
// suspendable kinds through their drivers (an async method returns a
// promise, a generator method a generator object).
func (vm *VM) invokeMember(cl *closure, this interface{}, args []interface{}) interface{} {
	switch cl.proto.Kind {
	case FuncAsync:
		return vm.callAsync(cl, this, args)
	case FuncGenerator:
		return vm.newGenerator(cl, this, args)
	case FuncAsyncGenerator:
		return vm.newAsyncGenerator(cl, this, args)
	default:
		return vm.callSync(cl, this, args)
	}
}

// instantiate implements OpNew for user classes: build the instance,
// run field initializers root-first, then the constructor chain with
// `new.target` set (spec §4.8: missing arguments already arrive padded
// with undefined via newFrame).
func (vm *VM) instantiate(cv *classValue, args []interface{}) interface{} {
	obj := runtime.NewObject()
	obj.Class = cv.info
	vm.initFields(cv, obj)
	vm.runConstructor(cv, cv, obj, args)
	return obj
}

// initFields runs instance field initializers from the root of the
// chain down, so a derived field initializer can read base fields.
func (vm *VM) initFields(cv *classValue, obj *runtime.Object) {
	if cv == nil {
		return
	}
	vm.initFields(cv.super, obj)
	for _, fld := range cv.fields {
		if fld.static {
			continue
		}
		value := interface{}(runtime.Undefined)
		if fld.init != nil {
			value = vm.callSync(fld.init, obj, nil)
		}
		if fld.private {
			obj.SetPrivate(fld.name, value)
		} else {
			obj.Set(fld.name, value)
		}
	}
}

// runConstructor invokes cv's constructor with this=obj, or walks up to
// the nearest ancestor constructor when cv has none (JS's implicit
// derived constructor forwards its arguments to super unchanged).
func (vm *VM) runConstructor(newTarget, cv *classValue, obj *runtime.Object, args []interface{}) {
	if cv == nil {
		return
	}
	if cv.ctor == nil {
		vm.runConstructor(newTarget, cv.super, obj, args)
		return
	}
	f := vm.newFrame(cv.ctor, obj, args)
	f.newTarget = newTarget.fn
	comp := vm.runFrame(f)
	if comp.kind != compReturn {
		panic(&runtime.Exception{Value: "InternalError: constructor suspended"})
	}
}

// stepCallSuper implements `super(...)`: run the superclass constructor
// chain against the current method's `this` (field initializers for the
// whole chain already ran at instantiation).
func (vm *VM) stepCallSuper(f *frame, args []interface{}) {
	cl := f.closure
	if cl.class == nil || cl.class.super == nil {
		panic(&runtime.Exception{Value: "SyntaxError: 'super' keyword unexpected here"})
	}
	this, ok := f.locals[0].(*runtime.Object)
	if !ok {
		panic(&runtime.Exception{Value: "TypeError: 'super' called outside of a constructor"})
	}
	vm.runConstructor(cl.class.super, cl.class.super, this, args)
}

// superMethod resolves `super.name`, bound to the current `this`.
func (vm *VM) superMethod(f *frame, name string) interface{} {
	cl := f.closure
	if cl.class == nil || cl.class.super == nil {
		panic(&runtime.Exception{Value: "SyntaxError: 'super' keyword unexpected here"})
	}
	this := f.locals[0]
	for c := cl.class.super; c != nil; c = c.super {
		if m, ok := c.methods[name]; ok {
			member := m
			return &runtime.Function{Name: name, Call: func(_ interface{}, args []interface{}) interface{} {
				return vm.invokeMember(member, this, args)
			}}
		}
		if g, ok := c.getters[name]; ok {
			return vm.callSync(g, this, nil)
		}
	}
	return runtime.Undefined
}
