package bytecode

import "github.com/tsnc-lang/tsnc/internal/runtime"

// This file holds the drivers that turn suspendable frames into the
// user-visible async/generator surfaces (spec §4.6): an async function
// call returns a promise immediately and its frame is re-entered by the
// awaited promise's continuations; a generator call returns an iterator
// whose next()/return()/throw() advance the frame one suspension at a
// time. The heap-retained frame *is* the state machine record: ip is
// the state field, locals are the hoisted local slots, and upvalue
// cells carry the captured variables (including `this` for async
// arrows, which reaches the enclosing machine's captures through the
// same chained-cell mechanism every nested closure uses).

// callAsync starts an async function: run to the first suspension (or
// completion) synchronously, return the promise.
func (vm *VM) callAsync(cl *closure, this interface{}, args []interface{}) interface{} {
	p := runtime.NewPromise()
	f := vm.newFrame(cl, this, args)
	vm.driveAsync(f, p)
	return p
}

// driveAsync advances an async frame until it returns, throws, or
// suspends on an await; a suspension registers continuations on the
// awaited promise that re-enter this function (spec §4.6: "on resume,
// the awaiter's completed value (or error) re-enters the state machine
// at the saved state").
func (vm *VM) driveAsync(f *frame, p *runtime.Promise) {
	defer func() {
		if r := recover(); r != nil {
			if exc, ok := r.(*runtime.Exception); ok {
				p.Reject(exc.Value)
				return
			}
			panic(r)
		}
	}()
	for {
		comp := vm.runFrame(f)
		switch comp.kind {
		case compReturn:
			p.Resolve(comp.value)
			return
		case compAwait:
			awaited := runtime.ResolvedPromise(comp.value)
			if awaited.State == runtime.PromiseFulfilled {
				vm.push(f, awaited.Value)
				continue
			}
			awaited.OnSettled(func(v interface{}) {
				vm.push(f, v)
				vm.driveAsync(f, p)
			}, func(e interface{}) {
				f.pendingThrow = &runtime.Exception{Value: e}
				vm.driveAsync(f, p)
			})
			return
		default:
			panic(&runtime.Exception{Value: "InternalError: yield in async non-generator function"})
		}
	}
}

// generator implements runtime.Iterator over a suspendable frame.
type generator struct {
	vm      *VM
	frame   *frame
	started bool
	done    bool
}

// newGenerator creates the iterator without running any of the body
// (JS semantics: the body starts on the first next()).
func (vm *VM) newGenerator(cl *closure, this interface{}, args []interface{}) interface{} {
	return &generator{vm: vm, frame: vm.newFrame(cl, this, args)}
}

// Next advances to the next yield. The resume value becomes the value
// of the suspended yield expression — or, during an active `yield*`,
// it forwards into the inner iterator's next() (spec §4.6: "yield*
// delegates by looping over the inner iterable's iterator protocol").
func (g *generator) Next(resume interface{}) (interface{}, bool) {
	if g.done {
		return runtime.Undefined, true
	}
	if g.frame.delegate != nil {
		if value, delegated := g.stepDelegate(func(inner runtime.Iterator) (interface{}, bool) {
			return inner.Next(resume)
		}); delegated {
			return value, false
		}
	} else if g.started {
		g.vm.push(g.frame, resume)
	}
	g.started = true
	return g.drive()
}

// drive runs the outer body to its next suspension, dispatching any
// injected pendingThrow along the way.
func (g *generator) drive() (interface{}, bool) {
	defer func() {
		if r := recover(); r != nil {
			g.done = true
			panic(r)
		}
	}()
	for {
		comp := g.vm.runFrame(g.frame)
		switch comp.kind {
		case compYield:
			return comp.value, false
		case compYieldStar:
			if value, delegated := g.stepDelegate(func(inner runtime.Iterator) (interface{}, bool) {
				return inner.Next(runtime.Undefined)
			}); delegated {
				return value, false
			}
		case compReturn:
			g.done = true
			return comp.value, true
		default:
			panic(&runtime.Exception{Value: "InternalError: await in non-async generator"})
		}
	}
}

// stepDelegate advances the active `yield*` iterator one step via
// advance (a next() or throw() call). A value yields out of the outer
// generator (delegated=true); a done result ends the delegation, its
// value becomes the yield* expression's value, and the outer body
// resumes; an exception ends the delegation and re-enters the outer
// body at the yield* site, where an enclosing try/catch can handle it.
func (g *generator) stepDelegate(advance func(runtime.Iterator) (interface{}, bool)) (value interface{}, delegated bool) {
	inner, ok := g.frame.delegate.(runtime.Iterator)
	if !ok {
		g.frame.delegate = nil
		g.frame.pendingThrow = &runtime.Exception{Value: "TypeError: yield* target is not synchronously iterable"}
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			exc, isExc := r.(*runtime.Exception)
			if !isExc {
				panic(r)
			}
			g.frame.delegate = nil
			g.frame.pendingThrow = exc
			value, delegated = nil, false
		}
	}()
	v, done := advance(inner)
	if !done {
		return v, true
	}
	g.frame.delegate = nil
	g.vm.push(g.frame, v)
	return nil, false
}

// Return forces completion with value (spec §4.6: "return(v) forces the
// final state with that value"), forwarding the completion into an
// active delegation's inner iterator first.
func (g *generator) Return(value interface{}) (interface{}, bool) {
	if inner, ok := g.frame.delegate.(runtime.Iterator); ok {
		inner.Return(value)
	}
	g.frame.delegate = nil
	g.done = true
	return value, true
}

// Throw injects an exception at the suspension point: during a `yield*`
// it forwards into the inner iterator's throw(); otherwise the
// innermost try/catch enclosing the yield handles it, or the generator
// terminates and the exception propagates to the caller.
func (g *generator) Throw(reason interface{}) (interface{}, bool) {
	if g.done || !g.started {
		g.done = true
		panic(&runtime.Exception{Value: reason})
	}
	if g.frame.delegate != nil {
		if value, delegated := g.stepDelegate(func(inner runtime.Iterator) (interface{}, bool) {
			return inner.Throw(reason)
		}); delegated {
			return value, false
		}
	} else {
		g.frame.pendingThrow = &runtime.Exception{Value: reason}
	}
	return g.drive()
}

// asyncGenerator implements runtime.AsyncIterator: NextAsync returns a
// promise of the {value, done} record, awaits inside the body chain
// transparently, and yields settle the pending promise.
type asyncGenerator struct {
	vm      *VM
	frame   *frame
	started bool
	done    bool
}

func (vm *VM) newAsyncGenerator(cl *closure, this interface{}, args []interface{}) interface{} {
	return &asyncGenerator{vm: vm, frame: vm.newFrame(cl, this, args)}
}

// NextAsync advances to the next yield, resolving with {value, done}.
func (g *asyncGenerator) NextAsync(resume interface{}) *runtime.Promise {
	p := runtime.NewPromise()
	if g.done {
		p.Resolve(runtime.IterResult(runtime.Undefined, true))
		return p
	}
	if g.frame.delegate != nil {
		if g.stepDelegate(resume, p) {
			return p
		}
	} else if g.started {
		g.vm.push(g.frame, resume)
	}
	g.started = true
	g.drive(p)
	return p
}

// stepDelegate advances the active `yield*` iterator one step,
// forwarding resume. It reports true when p was settled (or chained to
// an async inner next()); false means the inner iterator finished —
// its value is pushed as the yield* result and the caller drives the
// outer body on.
func (g *asyncGenerator) stepDelegate(resume interface{}, p *runtime.Promise) bool {
	switch inner := g.frame.delegate.(type) {
	case runtime.AsyncIterator:
		inner.NextAsync(resume).OnSettled(func(v interface{}) {
			res, ok := v.(*runtime.Object)
			if !ok || runtime.IsTruthy(res.Get("done")) {
				g.frame.delegate = nil
				value := interface{}(runtime.Undefined)
				if ok {
					value = res.Get("value")
				}
				g.vm.push(g.frame, value)
				g.drive(p)
				return
			}
			p.Resolve(runtime.IterResult(res.Get("value"), false))
		}, func(e interface{}) {
			g.frame.delegate = nil
			g.frame.pendingThrow = &runtime.Exception{Value: e}
			g.drive(p)
		})
		return true
	case runtime.Iterator:
		value, done, failed := advanceSyncDelegate(inner, resume)
		if failed != nil {
			g.frame.delegate = nil
			g.frame.pendingThrow = failed
			return false
		}
		if !done {
			p.Resolve(runtime.IterResult(value, false))
			return true
		}
		g.frame.delegate = nil
		g.vm.push(g.frame, value)
		return false
	default:
		g.frame.delegate = nil
		g.frame.pendingThrow = &runtime.Exception{Value: "TypeError: yield* target is not iterable"}
		return false
	}
}

// advanceSyncDelegate calls a sync inner iterator's next(), converting
// a thrown exception into a value the caller injects at the yield*
// site instead of letting it escape the driver.
func advanceSyncDelegate(inner runtime.Iterator, resume interface{}) (value interface{}, done bool, failed *runtime.Exception) {
	defer func() {
		if r := recover(); r != nil {
			exc, ok := r.(*runtime.Exception)
			if !ok {
				panic(r)
			}
			failed = exc
		}
	}()
	value, done = inner.Next(resume)
	return value, done, nil
}

func (g *asyncGenerator) drive(p *runtime.Promise) {
	defer func() {
		if r := recover(); r != nil {
			if exc, ok := r.(*runtime.Exception); ok {
				g.done = true
				p.Reject(exc.Value)
				return
			}
			panic(r)
		}
	}()
	for {
		comp := g.vm.runFrame(g.frame)
		switch comp.kind {
		case compReturn:
			g.done = true
			p.Resolve(runtime.IterResult(comp.value, true))
			return
		case compYield:
			p.Resolve(runtime.IterResult(comp.value, false))
			return
		case compYieldStar:
			if g.stepDelegate(runtime.Undefined, p) {
				return
			}
		case compAwait:
			awaited := runtime.ResolvedPromise(comp.value)
			if awaited.State == runtime.PromiseFulfilled {
				g.vm.push(g.frame, awaited.Value)
				continue
			}
			awaited.OnSettled(func(v interface{}) {
				g.vm.push(g.frame, v)
				g.drive(p)
			}, func(e interface{}) {
				g.frame.pendingThrow = &runtime.Exception{Value: e}
				g.drive(p)
			})
			return
		}
	}
}
