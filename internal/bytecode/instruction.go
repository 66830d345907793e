// Package bytecode implements a stack-based intermediate language for
// compiled TypeScript/JavaScript-subset programs (spec §4.8).
//
// Architecture: stack-based VM with fixed-shape instructions.
// Each Instruction carries one opcode plus up to two operands; operand
// meaning is opcode-specific and documented per opcode below.
package bytecode

// OpCode identifies one bytecode instruction.
type OpCode byte

const (
	// ========================================
	// Constants and variables
	// ========================================

	// OpLoadConst pushes Chunk.Constants[A] onto the stack.
	OpLoadConst OpCode = iota
	// OpLoadUndefined pushes the JS `undefined` value.
	OpLoadUndefined
	// OpLoadNull pushes the JS `null` value.
	OpLoadNull
	// OpLoadTrue pushes boolean true.
	OpLoadTrue
	// OpLoadFalse pushes boolean false.
	OpLoadFalse

	// OpLoadLocal pushes local slot A.
	OpLoadLocal
	// OpStoreLocal pops the stack top into local slot A.
	OpStoreLocal
	// OpLoadGlobal pushes the global binding named Chunk.Names[A].
	OpLoadGlobal
	// OpStoreGlobal pops the stack top into the global binding named
	// Chunk.Names[A].
	OpStoreGlobal
	// OpLoadUpvalue pushes closure upvalue slot A.
	OpLoadUpvalue
	// OpStoreUpvalue pops the stack top into closure upvalue slot A.
	OpStoreUpvalue

	// ========================================
	// Temporal dead zone
	// ========================================

	// OpDeclareTDZ marks local slot A as not-yet-initialized; a load
	// before the matching OpInitLocal raises a
	// ReferenceError (spec §4.3).
	OpDeclareTDZ
	// OpInitLocal stores the stack top into local slot A and clears its
	// TDZ flag, used for `let`/`const`/class declarations.
	OpInitLocal

	// ========================================
	// Arithmetic and comparison
	// ========================================

	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpPow
	OpNeg
	OpNot
	OpTypeOf
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
	OpShl
	OpShr
	OpUShr
	OpEq
	OpStrictEq
	OpNotEq
	OpStrictNotEq
	OpLt
	OpLe
	OpGt
	OpGe

	// ========================================
	// Stack manipulation / control flow
	// ========================================

	// OpPop discards the stack top.
	OpPop
	// OpDup duplicates the stack top.
	OpDup
	// OpJump unconditionally sets the instruction pointer to A.
	OpJump
	// OpJumpIfFalse peeks the stack top without popping; if falsy, sets
	// ip to A.
	OpJumpIfFalse
	// OpJumpIfTrue peeks the stack top without popping; if truthy, sets
	// ip to A.
	OpJumpIfTrue
	// OpJumpIfNullish peeks the stack top without popping; if nullish,
	// sets ip to A (used for `?.`/`??` short-circuiting).
	OpJumpIfNullish

	// ========================================
	// Objects, arrays, and indexing
	// ========================================

	// OpNewObject pushes a fresh empty object.
	OpNewObject
	// OpNewArray pops A elements and pushes an array containing them in
	// order.
	OpNewArray
	// OpGetProp pops an object and pushes property Chunk.Names[A].
	OpGetProp
	// OpSetProp pops value, object and writes property Chunk.Names[A].
	OpSetProp
	// OpGetIndex pops index, receiver and pushes the indexed value.
	OpGetIndex
	// OpSetIndex pops value, index, receiver and performs the write.
	OpSetIndex
	// OpConcatN pops A arrays and pushes their spread-aware
	// concatenation (each part was either wrapped as a one-element
	// array, or converted through OpIterOfValues for `...spread`
	// elements, so flattening one level reassembles the literal).
	OpConcatN
	// OpMergeObject pops a source object and merges its own enumerable
	// properties into the object underneath, leaving the target on the
	// stack (object-literal spread).
	OpMergeObject

	// ========================================
	// Functions and classes
	// ========================================

	// OpMakeClosure pushes a closure over Chunk.FunctionProtos[A],
	// capturing from the enclosing frame the upvalues that the proto's
	// Upvalues descriptors name.
	OpMakeClosure
	// OpCall pops A arguments plus the callee and pushes the call's
	// result.
	OpCall
	// OpCallMethod pops A arguments plus a receiver and invokes method
	// Chunk.Names[B] on it, preserving the receiver as `this` and
	// falling back to the runtime's built-in member dispatch for
	// arrays, strings, maps, and the other §4.7 receivers.
	OpCallMethod
	// OpCallSpread pops an argument array plus the callee and calls the
	// callee with the array's elements as the argument list.
	OpCallSpread
	// OpCallMethodSpread pops an argument array plus a receiver and
	// invokes method Chunk.Names[B] on it with the array's elements.
	OpCallMethodSpread
	// OpNew constructs an instance of the class on the stack with A
	// arguments.
	OpNew
	// OpNewSpread pops an argument array plus the class and constructs
	// with the array's elements as the argument list.
	OpNewSpread
	// OpReturn pops the stack top and returns it from the current frame.
	OpReturn
	// OpThrow pops the stack top and raises it as a JS exception.
	OpThrow
	// OpInstanceOf pops class, value and pushes `value instanceof class`.
	OpInstanceOf
	// OpIn pops object, key and pushes `key in object`.
	OpIn

	// ========================================
	// Exception handling
	// ========================================

	// OpPushHandler registers a try/catch handler whose catch entry
	// point is A, recording the current stack depth to unwind to.
	// Finally bodies are compiled inline, not entered through a handler.
	OpPushHandler
	// OpPopHandler removes the most recently pushed handler.
	OpPopHandler

	// ========================================
	// Coroutine suspension (async/generator bodies; spec §4.6)
	// ========================================

	// OpAwait suspends the current state machine until the awaited
	// promise settles, resuming at state A.
	OpAwait
	// OpYield suspends a generator, resuming at state A on next() .
	OpYield
	// OpYieldStar begins delegating to the iterator of the value on top
	// of the stack: the driver pulls the inner iterator lazily, one
	// next() per outer resume (forwarding the resume value), until it
	// reports done; its final value becomes the yield* result.
	OpYieldStar

	// ========================================
	// Classes (spec §4.4, §4.8)
	// ========================================

	// OpMakeClass pops the superclass value (when B!=0) and assembles a
	// class value from Chunk.ClassProtos[A], building a closure over
	// every member FunctionProto against the current frame exactly like
	// OpMakeClosure — so methods capture enclosing-scope upvalues the
	// same way ordinary nested functions do.
	OpMakeClass
	// OpCallSuper invokes the superclass constructor chain against the
	// current frame's `this` (local slot 0), consuming A arguments.
	OpCallSuper
	// OpGetSuperProp reads a method/getter named Chunk.Names[A] from the
	// current closure's owning class's superclass, bound to `this`.
	OpGetSuperProp
	// OpCallSuperMethod invokes superclass method Chunk.Names[B] with A
	// arguments, bound to `this`.
	OpCallSuperMethod
	// OpGetPrivate/OpSetPrivate/OpCallPrivate mirror the public property
	// opcodes but read Chunk.Names[A] from the private (`#name`) field
	// table rather than the public one.
	OpGetPrivate
	OpSetPrivate
	OpCallPrivate

	// ========================================
	// Destructuring (spec §4.3)
	// ========================================

	// OpArrayRest pops an array and pushes its elements from index A to
	// the end, for a `[a, b, ...rest]` pattern's tail.
	OpArrayRest
	// OpObjectRest pops an object and pushes a shallow clone of it, for
	// a `{a, ...rest}` pattern's tail; a following run of OpDeletePropKeep
	// instructions strips the explicitly-named properties back out.
	OpObjectRest
	// OpDeletePropKeep removes property Chunk.Names[A] from the object on
	// top of the stack without popping it.
	OpDeletePropKeep
	// OpDeleteIndexKeep pops a computed key and removes the matching
	// property from the object left on top of the stack.
	OpDeleteIndexKeep

	// ========================================
	// Iteration (spec §4.2 for-of/for-in)
	// ========================================

	// OpIterOfValues pops an iterable (array, string, map, set, or
	// generator) and pushes an array snapshot of its values, for spread
	// elements, which are exhaustive by definition. Loops never use
	// this: `for...of` iterates lazily through OpGetIter so generator
	// bodies interleave with the loop body.
	OpIterOfValues
	// OpIterInKeys pops an object or array and pushes an array of its
	// own enumerable keys (as strings), for `for (const k in obj)`.
	OpIterInKeys
	// OpGetIter pops a value and pushes its protocol iterator, for the
	// lazy per-step iteration of `for…of` and `for await…of` (spec
	// §4.6).
	OpGetIter

	// ========================================
	// Miscellaneous
	// ========================================

	// OpLoadNewTarget pushes the active `new.target` (the class value
	// inside a constructor invoked via OpNew, undefined otherwise).
	OpLoadNewTarget
	// OpDispose pops a `using`-bound resource and invokes its dispose
	// method (spec §4.2 `using` declarations).
	OpDispose
	// OpNop does nothing; the peephole optimizer rewrites folded or
	// dead instructions to OpNop so jump targets stay stable.
	OpNop
)

// Instruction is one decoded bytecode op plus its operands.
type Instruction struct {
	Op OpCode
	A  int
	B  int
	// Line is the originating source line, carried for stack traces.
	Line int
}

// FuncKind distinguishes ordinary functions from the three suspendable
// shapes spec §4.6 lowers specially.
type FuncKind int

const (
	FuncNormal FuncKind = iota
	FuncAsync
	FuncGenerator
	FuncAsyncGenerator
)

// FunctionProto is the compiled shape of one function body: its
// instruction stream, constant references into the owning Chunk, local
// slot count, and upvalue capture descriptors (spec §4.6's closures).
type FunctionProto struct {
	Name       string
	Params     int
	IsVariadic bool
	NumLocals  int
	Code       []Instruction
	Upvalues   []UpvalueDesc
	Kind       FuncKind
	// IsMethod marks a class member body: local slot 0 is the receiver
	// (`this`) rather than the first declared parameter.
	IsMethod bool
}

// ClassMemberProto names one class member's compiled body plus its
// private/static flags.
type ClassMemberProto struct {
	Name       string
	Private    bool
	ProtoIndex int
}

// ClassFieldProto is one declared instance or static field, with its
// initializer expression compiled into a zero-arg method body
// (InitProto == -1 when the field has no initializer).
type ClassFieldProto struct {
	Name      string
	Private   bool
	Static    bool
	InitProto int
}

// ClassProto is the compiled shape of one class declaration/expression:
// every member's FunctionProto index plus its field list, assembled
// into a runtime class value by OpMakeClass.
type ClassProto struct {
	Name          string
	HasSuper      bool
	CtorProto     int // -1 when the class has no explicit constructor
	Methods       []ClassMemberProto
	Getters       []ClassMemberProto
	Setters       []ClassMemberProto
	StaticMethods []ClassMemberProto
	StaticGetters []ClassMemberProto
	StaticSetters []ClassMemberProto
	Fields        []ClassFieldProto
}

// UpvalueDesc names where a closure's captured variable comes from: a
// local slot in the immediately enclosing frame, or an upvalue slot
// already captured by that enclosing frame (chained closures).
type UpvalueDesc struct {
	FromParentLocal bool
	Index           int
}

// Chunk is one compiled program (one module or several sharing the
// pools): its constant pool, interned names, and the function
// prototypes defined within it (index 0 is the first module's
// top-level body; CompileProgram reports the index of each module's).
type Chunk struct {
	Constants      []interface{}
	Names          []string
	FunctionProtos []*FunctionProto
	ClassProtos    []*ClassProto
}

// AddConstant interns v into the constant pool, returning its index.
func (c *Chunk) AddConstant(v interface{}) int {
	for i, existing := range c.Constants {
		if existing == v {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// AddName interns name into the name table, returning its index.
func (c *Chunk) AddName(name string) int {
	for i, existing := range c.Names {
		if existing == name {
			return i
		}
	}
	c.Names = append(c.Names, name)
	return len(c.Names) - 1
}
