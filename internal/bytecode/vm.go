package bytecode

import (
	"math"

	"github.com/tsnc-lang/tsnc/internal/runtime"
)

// handlerFrame is one pushed try/catch region: the instruction to jump
// to on an exception, and the stack depth to unwind back to before
// jumping (so values pushed inside the try body don't leak into the
// catch block's initial stack shape).
type handlerFrame struct {
	catchIP    int
	stackDepth int
}

// closure is a runtime function value: a FunctionProto plus the captured
// upvalue cells from its defining environment, and (for class members)
// the owning class for super dispatch.
type closure struct {
	proto    *FunctionProto
	upvalues []*upvalueCell
	class    *classValue
}

// upvalueCell is a shared box so multiple closures capturing the same
// variable observe each other's writes, matching JS reference semantics
// for captured variables.
type upvalueCell struct{ value interface{} }

// completion is what running a frame produces: a normal return, or a
// suspension at an await/yield site (spec §4.6's state transitions).
type completion struct {
	kind  completionKind
	value interface{}
}

type completionKind int

const (
	compReturn completionKind = iota
	compAwait
	compYield
	compYieldStar
)

// frame is one activation record. Suspendable frames (async/generator
// bodies) are heap-retained across suspensions: ip, locals, and the
// operand stack are exactly the state-machine record of spec §3, with
// the resume point carried by ip rather than a separate state integer.
type frame struct {
	closure  *closure
	locals   []interface{}
	tdz      []bool // true while local i is declared but not yet initialized
	ip       int
	handlers []handlerFrame
	stack    []interface{}
	cells    map[int]*upvalueCell
	// newTarget is the constructing class value inside OpNew-invoked
	// constructors, undefined elsewhere.
	newTarget interface{}
	// pendingThrow carries an exception injected at a suspension point
	// (a rejected awaited promise, generator.throw); the run loop
	// dispatches it to the innermost handler before the next step.
	pendingThrow *runtime.Exception
	// delegate holds the live iterator of an active `yield*`
	// delegation; the generator driver pulls it one next() per resume,
	// forwarding resume values, until it reports done (spec §4.6).
	delegate interface{}
}

// VM executes a compiled Chunk. Globals are a flat name->value map
// shared across the whole program, matching the module-top-level
// bindings the loader wires together (spec §4.5).
type VM struct {
	chunk   *Chunk
	Globals map[string]interface{}
	Clock   *runtime.Clock
}

// NewVM creates a VM ready to run chunk, with its own virtual timer
// clock (spec §5).
func NewVM(chunk *Chunk) *VM {
	return &VM{chunk: chunk, Globals: map[string]interface{}{}, Clock: runtime.NewClock()}
}

// InstallGlobals merges bindings into the VM's global table.
func (vm *VM) InstallGlobals(bindings map[string]interface{}) {
	for name, v := range bindings {
		vm.Globals[name] = v
	}
}

// Run executes the module's top-level function (FunctionProtos[0]) to
// completion, then drains the virtual timer queue by jumping the clock
// from deadline to deadline.
func (vm *VM) Run() (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			if exc, ok := r.(*runtime.Exception); ok {
				err = exc
				return
			}
			panic(r)
		}
	}()
	result = vm.RunProto(0)
	vm.Clock.RunUntilIdle(0)
	return result, nil
}

// RunProto executes FunctionProtos[index] as a fresh top-level frame;
// the module loader uses this to run each module body in dependency
// order against the shared global table.
func (vm *VM) RunProto(index int) interface{} {
	top := &closure{proto: vm.chunk.FunctionProtos[index]}
	return vm.callSync(top, runtime.Undefined, nil)
}

// wrapClosure exposes a compiled closure to the rest of the runtime as
// a *runtime.Function whose Call drives the right execution shape for
// the function's kind: plain call, promise-returning async driver, or
// generator-object construction (spec §4.6).
func (vm *VM) wrapClosure(cl *closure) *runtime.Function {
	fn := &runtime.Function{Name: cl.proto.Name, Impl: cl}
	fn.Call = func(this interface{}, args []interface{}) interface{} {
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
	return fn
}

// newFrame builds an activation record: methods bind `this` in local
// slot 0, declared parameters fill the following slots (missing
// trailing arguments pad with undefined, spec §4.8), and a variadic
// tail parameter collects the rest into an array.
func (vm *VM) newFrame(cl *closure, this interface{}, args []interface{}) *frame {
	f := &frame{
		closure:   cl,
		locals:    make([]interface{}, cl.proto.NumLocals),
		tdz:       make([]bool, cl.proto.NumLocals),
		newTarget: runtime.Undefined,
	}
	for i := range f.locals {
		f.locals[i] = runtime.Undefined
	}
	offset := 0
	if cl.proto.IsMethod {
		if len(f.locals) == 0 {
			f.locals = append(f.locals, runtime.Undefined)
			f.tdz = append(f.tdz, false)
		}
		f.locals[0] = this
		offset = 1
	}
	declared := cl.proto.Params
	if cl.proto.IsVariadic && declared > 0 {
		for i := 0; i < declared-1 && i < len(args); i++ {
			f.locals[offset+i] = args[i]
		}
		rest := runtime.NewArray()
		if len(args) >= declared {
			rest.Elements = append(rest.Elements, args[declared-1:]...)
		}
		f.locals[offset+declared-1] = rest
		return f
	}
	for i := 0; i < declared && i < len(args); i++ {
		f.locals[offset+i] = args[i]
	}
	return f
}

// callSync runs an ordinary function to completion.
func (vm *VM) callSync(cl *closure, this interface{}, args []interface{}) interface{} {
	f := vm.newFrame(cl, this, args)
	comp := vm.runFrame(f)
	if comp.kind != compReturn {
		panic(&runtime.Exception{Value: "InternalError: suspension in non-suspendable function"})
	}
	return comp.value
}

func (vm *VM) push(f *frame, v interface{}) { f.stack = append(f.stack, v) }

func (vm *VM) pop(f *frame) interface{} {
	n := len(f.stack)
	v := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return v
}

func (vm *VM) peek(f *frame) interface{} { return f.stack[len(f.stack)-1] }

// unwindToHandler routes exc to the innermost registered handler,
// truncating the operand stack to the handler's depth and jumping to
// its catch entry. Returns false when no handler is registered in this
// frame (the exception propagates to the caller).
func (vm *VM) unwindToHandler(f *frame, exc *runtime.Exception) bool {
	if len(f.handlers) == 0 {
		return false
	}
	h := f.handlers[len(f.handlers)-1]
	f.handlers = f.handlers[:len(f.handlers)-1]
	f.stack = f.stack[:h.stackDepth]
	vm.push(f, exc.Value)
	f.ip = h.catchIP
	return true
}

// runFrame executes f's instruction stream until it returns or
// suspends. Exceptions unwind to the nearest pushed handler within this
// frame; an unhandled throw propagates as a Go panic to the calling
// frame's step recover (or, for a driver-managed suspendable frame, to
// the driver's recover, which rejects/terminates).
func (vm *VM) runFrame(f *frame) completion {
	code := f.closure.proto.Code
	for f.ip < len(code) {
		if f.pendingThrow != nil {
			exc := f.pendingThrow
			f.pendingThrow = nil
			if !vm.unwindToHandler(f, exc) {
				panic(exc)
			}
		}
		instr := code[f.ip]
		f.ip++
		if comp := vm.step(f, instr); comp != nil {
			return *comp
		}
	}
	return completion{kind: compReturn, value: runtime.Undefined}
}

func (vm *VM) step(f *frame, instr Instruction) (result *completion) {
	defer func() {
		if r := recover(); r != nil {
			exc, ok := r.(*runtime.Exception)
			if !ok || !vm.unwindToHandler(f, exc) {
				panic(r)
			}
			result = nil
		}
	}()

	switch instr.Op {
	case OpNop:
	case OpLoadConst:
		vm.push(f, vm.chunk.Constants[instr.A])
	case OpLoadUndefined:
		vm.push(f, runtime.Undefined)
	case OpLoadNull:
		vm.push(f, nil)
	case OpLoadTrue:
		vm.push(f, true)
	case OpLoadFalse:
		vm.push(f, false)
	case OpLoadLocal:
		if f.tdz[instr.A] {
			panic(&runtime.Exception{Value: "ReferenceError: Cannot access variable before initialization"})
		}
		if c, ok := f.cells[instr.A]; ok {
			vm.push(f, c.value)
			break
		}
		vm.push(f, f.locals[instr.A])
	case OpStoreLocal:
		f.locals[instr.A] = vm.pop(f)
		if c, ok := f.cells[instr.A]; ok {
			c.value = f.locals[instr.A]
		}
	case OpDeclareTDZ:
		f.tdz[instr.A] = true
	case OpInitLocal:
		f.locals[instr.A] = vm.pop(f)
		f.tdz[instr.A] = false
		if c, ok := f.cells[instr.A]; ok {
			c.value = f.locals[instr.A]
		}
	case OpLoadGlobal:
		name := vm.chunk.Names[instr.A]
		v, ok := vm.Globals[name]
		if !ok {
			panic(&runtime.Exception{Value: "ReferenceError: " + name + " is not defined"})
		}
		vm.push(f, v)
	case OpStoreGlobal:
		vm.Globals[vm.chunk.Names[instr.A]] = vm.pop(f)
	case OpLoadUpvalue:
		vm.push(f, f.closure.upvalues[instr.A].value)
	case OpStoreUpvalue:
		f.closure.upvalues[instr.A].value = vm.pop(f)
	case OpAdd:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, runtime.Add(a, b))
	case OpSub, OpMul, OpDiv, OpMod, OpPow:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, arithmetic(instr.Op, a, b))
	case OpNeg:
		if bi, ok := vm.peek(f).(*runtime.BigInt); ok {
			vm.pop(f)
			vm.push(f, &runtime.BigInt{Value: -bi.Value})
			break
		}
		vm.push(f, -runtime.ToNumber(vm.pop(f)))
	case OpNot:
		vm.push(f, !runtime.IsTruthy(vm.pop(f)))
	case OpTypeOf:
		vm.push(f, runtime.TypeOf(vm.pop(f)))
	case OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr, OpUShr:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, bitwise(instr.Op, a, b))
	case OpBitNot:
		vm.push(f, runtime.BitNot(runtime.ToNumber(vm.pop(f))))
	case OpEq:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, runtime.Equals(a, b))
	case OpStrictEq:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, runtime.StrictEquals(a, b))
	case OpNotEq:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, !runtime.Equals(a, b))
	case OpStrictNotEq:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, !runtime.StrictEquals(a, b))
	case OpLt, OpLe, OpGt, OpGe:
		b, a := vm.pop(f), vm.pop(f)
		vm.push(f, compare(instr.Op, a, b))
	case OpInstanceOf:
		class, v := vm.pop(f), vm.pop(f)
		vm.push(f, runtime.InstanceOf(v, class))
	case OpIn:
		obj, key := vm.pop(f), vm.pop(f)
		vm.push(f, runtime.HasProperty(obj, runtime.Stringify(key)))
	case OpPop:
		vm.pop(f)
	case OpDup:
		vm.push(f, vm.peek(f))
	case OpJump:
		f.ip = instr.A
	case OpJumpIfFalse:
		if !runtime.IsTruthy(vm.peek(f)) {
			f.ip = instr.A
		}
	case OpJumpIfTrue:
		if runtime.IsTruthy(vm.peek(f)) {
			f.ip = instr.A
		}
	case OpJumpIfNullish:
		if runtime.IsNullish(vm.peek(f)) {
			f.ip = instr.A
		}
	case OpNewObject:
		vm.push(f, runtime.NewObject())
	case OpNewArray:
		elems := make([]interface{}, instr.A)
		for i := instr.A - 1; i >= 0; i-- {
			elems[i] = vm.pop(f)
		}
		vm.push(f, runtime.NewArray(elems...))
	case OpConcatN:
		parts := make([]interface{}, instr.A)
		for i := instr.A - 1; i >= 0; i-- {
			parts[i] = vm.pop(f)
		}
		vm.push(f, runtime.ConcatArrays(parts...))
	case OpMergeObject:
		src := vm.pop(f)
		if dst, ok := vm.peek(f).(*runtime.Object); ok {
			if so, ok := src.(*runtime.Object); ok {
				runtime.MergeIntoObject(dst, so)
			}
		}
	case OpGetProp:
		obj := vm.pop(f)
		vm.push(f, runtime.GetProperty(obj, vm.chunk.Names[instr.A]))
	case OpSetProp:
		value := vm.pop(f)
		obj := vm.pop(f)
		runtime.SetProperty(obj, vm.chunk.Names[instr.A], value)
	case OpGetIndex:
		index := vm.pop(f)
		obj := vm.pop(f)
		vm.push(f, runtime.GetIndex(obj, index))
	case OpSetIndex:
		value := vm.pop(f)
		index := vm.pop(f)
		obj := vm.pop(f)
		runtime.SetIndex(obj, index, value)
	case OpGetPrivate:
		obj := vm.popInstance(f, "read private member")
		vm.push(f, obj.GetPrivate(vm.chunk.Names[instr.A]))
	case OpSetPrivate:
		value := vm.pop(f)
		obj := vm.popInstance(f, "write private member")
		obj.SetPrivate(vm.chunk.Names[instr.A], value)
	case OpCallPrivate:
		args := vm.popArgs(f, instr.A)
		obj := vm.popInstance(f, "call private member")
		method := obj.GetPrivate(vm.chunk.Names[instr.B])
		vm.push(f, runtime.InvokeWithThis(method, obj, args))
	case OpCall:
		args := vm.popArgs(f, instr.A)
		callee := vm.pop(f)
		vm.push(f, runtime.InvokeValue(callee, args))
	case OpCallMethod:
		args := vm.popArgs(f, instr.A)
		receiver := vm.pop(f)
		vm.push(f, vm.callMethodOn(receiver, vm.chunk.Names[instr.B], args))
	case OpCallSpread:
		argsArr, _ := vm.pop(f).(*runtime.Array)
		callee := vm.pop(f)
		var args []interface{}
		if argsArr != nil {
			args = argsArr.Elements
		}
		vm.push(f, runtime.InvokeValue(callee, args))
	case OpCallMethodSpread:
		argsArr, _ := vm.pop(f).(*runtime.Array)
		receiver := vm.pop(f)
		var args []interface{}
		if argsArr != nil {
			args = argsArr.Elements
		}
		vm.push(f, vm.callMethodOn(receiver, vm.chunk.Names[instr.B], args))
	case OpNew:
		args := vm.popArgs(f, instr.A)
		callee := vm.pop(f)
		vm.push(f, vm.construct(callee, args))
	case OpNewSpread:
		argsArr, _ := vm.pop(f).(*runtime.Array)
		callee := vm.pop(f)
		var args []interface{}
		if argsArr != nil {
			args = argsArr.Elements
		}
		vm.push(f, vm.construct(callee, args))
	case OpMakeClosure:
		vm.push(f, vm.wrapClosure(vm.makeClosure(f, instr.A)))
	case OpMakeClass:
		vm.stepMakeClass(f, instr)
	case OpCallSuper:
		args := vm.popArgs(f, instr.A)
		vm.stepCallSuper(f, args)
		vm.push(f, runtime.Undefined)
	case OpGetSuperProp:
		vm.push(f, vm.superMethod(f, vm.chunk.Names[instr.A]))
	case OpCallSuperMethod:
		args := vm.popArgs(f, instr.A)
		method := vm.superMethod(f, vm.chunk.Names[instr.B])
		vm.push(f, runtime.InvokeValue(method, args))
	case OpLoadNewTarget:
		vm.push(f, f.newTarget)
	case OpDispose:
		runtime.Dispose(vm.pop(f))
	case OpReturn:
		v := vm.pop(f)
		return &completion{kind: compReturn, value: v}
	case OpAwait:
		v := vm.pop(f)
		return &completion{kind: compAwait, value: v}
	case OpYield:
		v := vm.pop(f)
		return &completion{kind: compYield, value: v}
	case OpYieldStar:
		v := vm.pop(f)
		f.delegate = runtime.GetIterator(v)
		return &completion{kind: compYieldStar}
	case OpThrow:
		v := vm.pop(f)
		panic(&runtime.Exception{Value: v})
	case OpPushHandler:
		f.handlers = append(f.handlers, handlerFrame{catchIP: instr.A, stackDepth: len(f.stack)})
	case OpPopHandler:
		f.handlers = f.handlers[:len(f.handlers)-1]
	case OpArrayRest:
		v := vm.pop(f)
		vm.push(f, runtime.RestArray(v, instr.A))
	case OpObjectRest:
		v := vm.pop(f)
		vm.push(f, runtime.RestObject(v))
	case OpDeletePropKeep:
		if obj, ok := vm.peek(f).(*runtime.Object); ok {
			obj.Delete(vm.chunk.Names[instr.A])
		}
	case OpDeleteIndexKeep:
		key := vm.pop(f)
		if obj, ok := vm.peek(f).(*runtime.Object); ok {
			obj.Delete(runtime.Stringify(key))
		}
	case OpIterOfValues:
		v := vm.pop(f)
		vm.push(f, runtime.NewArray(runtime.IterableValues(v)...))
	case OpIterInKeys:
		v := vm.pop(f)
		vm.push(f, runtime.NewArray(runtime.EnumerableKeys(v)...))
	case OpGetIter:
		v := vm.pop(f)
		vm.push(f, runtime.GetIterator(v))
	default:
		panic(&runtime.Exception{Value: "InternalError: unimplemented opcode"})
	}
	return nil
}

func (vm *VM) popArgs(f *frame, count int) []interface{} {
	args := make([]interface{}, count)
	for i := count - 1; i >= 0; i-- {
		args[i] = vm.pop(f)
	}
	return args
}

func (vm *VM) popInstance(f *frame, what string) *runtime.Object {
	obj, ok := vm.pop(f).(*runtime.Object)
	if !ok {
		panic(&runtime.Exception{Value: "TypeError: Cannot " + what + " of a non-object"})
	}
	return obj
}

// callMethodOn resolves and invokes `receiver.name(args)`: user-class
// members and own function properties first (via GetProperty's chain),
// then the runtime's built-in member dispatch (spec §4.7 collections,
// console, promises, emitters, streams).
func (vm *VM) callMethodOn(receiver interface{}, name string, args []interface{}) interface{} {
	switch recv := receiver.(type) {
	case *runtime.Object:
		member := runtime.GetProperty(recv, name)
		if fn, ok := member.(*runtime.Function); ok {
			return fn.Call(recv, args)
		}
	case *runtime.Function:
		if member, found := runtime.GetProperty(recv, name).(*runtime.Function); found {
			return member.Call(recv, args)
		}
	}
	if result, ok := runtime.CallMember(receiver, name, args); ok {
		return result
	}
	member := runtime.GetProperty(receiver, name)
	if fn, ok := member.(*runtime.Function); ok {
		return fn.Call(receiver, args)
	}
	panic(&runtime.Exception{Value: "TypeError: " + runtime.Stringify(receiver) + "." + name + " is not a function"})
}

func (vm *VM) construct(callee interface{}, args []interface{}) interface{} {
	fn, ok := callee.(*runtime.Function)
	if !ok {
		panic(&runtime.Exception{Value: "TypeError: value is not a constructor"})
	}
	if cv, ok := fn.Impl.(*classValue); ok {
		return vm.instantiate(cv, args)
	}
	// Native constructors (Promise, EventEmitter, Writable, Error)
	// construct by ordinary invocation.
	return fn.Call(runtime.Undefined, args)
}

// makeClosure builds a closure over FunctionProtos[protoIndex], resolving
// each declared upvalue against the creating frame f: a FromParentLocal
// capture reads f.locals directly (boxed lazily into a shared cell keyed
// by slot so later writes are observed by both sides); a non-local
// capture reuses the cell already captured by f's own closure.
func (vm *VM) makeClosure(f *frame, protoIndex int) *closure {
	proto := vm.chunk.FunctionProtos[protoIndex]
	cl := &closure{proto: proto, upvalues: make([]*upvalueCell, len(proto.Upvalues))}
	for i, desc := range proto.Upvalues {
		if desc.FromParentLocal {
			cl.upvalues[i] = f.localCell(desc.Index)
		} else {
			cl.upvalues[i] = f.closure.upvalues[desc.Index]
		}
	}
	return cl
}

// localCell lazily boxes local slot i into a shared cell the first time
// it is captured, and keeps returning that same cell afterward so every
// closure over the same variable observes subsequent writes.
func (f *frame) localCell(i int) *upvalueCell {
	if f.cells == nil {
		f.cells = make(map[int]*upvalueCell)
	}
	if c, ok := f.cells[i]; ok {
		return c
	}
	c := &upvalueCell{value: f.locals[i]}
	f.cells[i] = c
	return c
}

func arithmetic(op OpCode, a, b interface{}) interface{} {
	if abi, aOk := a.(*runtime.BigInt); aOk {
		if bbi, bOk := b.(*runtime.BigInt); bOk {
			switch op {
			case OpSub:
				return runtime.BigIntSub(abi, bbi)
			case OpMul:
				return runtime.BigIntMul(abi, bbi)
			case OpDiv:
				return runtime.BigIntDiv(abi, bbi)
			case OpMod:
				return runtime.BigIntMod(abi, bbi)
			}
		}
	}
	af, bf := runtime.ToNumber(a), runtime.ToNumber(b)
	switch op {
	case OpSub:
		return af - bf
	case OpMul:
		return af * bf
	case OpDiv:
		return af / bf
	case OpMod:
		return math.Mod(af, bf)
	case OpPow:
		return math.Pow(af, bf)
	}
	return float64(0)
}

func bitwise(op OpCode, a, b interface{}) float64 {
	af, bf := runtime.ToNumber(a), runtime.ToNumber(b)
	switch op {
	case OpBitAnd:
		return runtime.BitAnd(af, bf)
	case OpBitOr:
		return runtime.BitOr(af, bf)
	case OpBitXor:
		return runtime.BitXor(af, bf)
	case OpShl:
		return runtime.ShiftLeft(af, bf)
	case OpShr:
		return runtime.ShiftRight(af, bf)
	case OpUShr:
		return runtime.UnsignedRightShift(af, bf)
	}
	return 0
}

// compare implements JS relational comparison: string-to-string compares
// ordinally, anything else coerces both sides to number (NaN poisons
// every relation to false).
func compare(op OpCode, a, b interface{}) bool {
	if as, aOk := a.(string); aOk {
		if bs, bOk := b.(string); bOk {
			switch op {
			case OpLt:
				return as < bs
			case OpLe:
				return as <= bs
			case OpGt:
				return as > bs
			case OpGe:
				return as >= bs
			}
		}
	}
	af, bf := runtime.ToNumber(a), runtime.ToNumber(b)
	switch op {
	case OpLt:
		return af < bf
	case OpLe:
		return af <= bf
	case OpGt:
		return af > bf
	case OpGe:
		return af >= bf
	}
	return false
}
