package runtime

// PromiseState is the usual three-state promise lifecycle.
type PromiseState int

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// Promise is the cooperative single-threaded promise the compiled
// program's async state machines suspend on (spec §5). Settlement runs
// registered continuations immediately on the one cooperative thread;
// `Promise.resolve(non-promise)` is synchronous, and chaining happens
// in registration order within a tick.
type Promise struct {
	State PromiseState
	// Value holds the fulfillment value or the rejection reason.
	Value interface{}
	// Handled marks that at least one rejection continuation was
	// attached, so an unhandled rejection can be logged without
	// crashing (spec §7).
	Handled   bool
	callbacks []promiseCallback
}

type promiseCallback struct {
	onFulfilled func(v interface{})
	onRejected  func(e interface{})
}

// NewPromise creates a pending promise.
func NewPromise() *Promise { return &Promise{} }

// ResolvedPromise wraps v in a fulfilled promise; an existing promise is
// returned as-is (await adoption).
func ResolvedPromise(v interface{}) *Promise {
	if p, ok := v.(*Promise); ok {
		return p
	}
	return &Promise{State: PromiseFulfilled, Value: v}
}

// RejectedPromise creates a promise already rejected with reason.
func RejectedPromise(reason interface{}) *Promise {
	return &Promise{State: PromiseRejected, Value: reason}
}

// Resolve fulfills a pending promise, adopting the state of an inner
// promise when v is itself one.
func (p *Promise) Resolve(v interface{}) {
	if p.State != PromisePending {
		return
	}
	if inner, ok := v.(*Promise); ok {
		inner.OnSettled(p.Resolve, p.Reject)
		return
	}
	p.State = PromiseFulfilled
	p.Value = v
	p.drain()
}

// Reject rejects a pending promise.
func (p *Promise) Reject(reason interface{}) {
	if p.State != PromisePending {
		return
	}
	p.State = PromiseRejected
	p.Value = reason
	p.drain()
}

func (p *Promise) drain() {
	pending := p.callbacks
	p.callbacks = nil
	for _, cb := range pending {
		p.runCallback(cb)
	}
}

func (p *Promise) runCallback(cb promiseCallback) {
	if p.State == PromiseFulfilled {
		if cb.onFulfilled != nil {
			cb.onFulfilled(p.Value)
		}
		return
	}
	if cb.onRejected != nil {
		cb.onRejected(p.Value)
	}
}

// OnSettled registers continuations, running them immediately when the
// promise has already settled.
func (p *Promise) OnSettled(onFulfilled func(v interface{}), onRejected func(e interface{})) {
	if onRejected != nil {
		p.Handled = true
	}
	cb := promiseCallback{onFulfilled: onFulfilled, onRejected: onRejected}
	if p.State == PromisePending {
		p.callbacks = append(p.callbacks, cb)
		return
	}
	p.runCallback(cb)
}

// Then implements Promise.prototype.then with both handlers optional
// (pass nil). Handler return values resolve the derived promise; a
// handler panic carrying an *Exception rejects it.
func (p *Promise) Then(onFulfilled, onRejected func(v interface{}) interface{}) *Promise {
	derived := NewPromise()
	run := func(handler func(v interface{}) interface{}, v interface{}, settle func(interface{})) {
		if handler == nil {
			settle(v)
			return
		}
		defer func() {
			if r := recover(); r != nil {
				if exc, ok := r.(*Exception); ok {
					derived.Reject(exc.Value)
					return
				}
				panic(r)
			}
		}()
		derived.Resolve(handler(v))
	}
	p.OnSettled(
		func(v interface{}) { run(onFulfilled, v, derived.Resolve) },
		func(e interface{}) { run(onRejected, e, derived.Reject) },
	)
	return derived
}

// Catch is Then(nil, onRejected).
func (p *Promise) Catch(onRejected func(e interface{}) interface{}) *Promise {
	return p.Then(nil, onRejected)
}

// Finally runs fn on either settlement, passing the settlement through.
func (p *Promise) Finally(fn func()) *Promise {
	return p.Then(
		func(v interface{}) interface{} { fn(); return v },
		func(e interface{}) interface{} { fn(); panic(&Exception{Value: e}) },
	)
}

// PromiseAll resolves with an array of results once every input promise
// fulfills, or rejects with the first rejection.
func PromiseAll(values []interface{}) *Promise {
	result := NewPromise()
	results := make([]interface{}, len(values))
	remaining := len(values)
	if remaining == 0 {
		result.Resolve(NewArray())
		return result
	}
	for i, v := range values {
		idx := i
		ResolvedPromise(v).OnSettled(func(v interface{}) {
			results[idx] = v
			remaining--
			if remaining == 0 {
				result.Resolve(NewArray(results...))
			}
		}, result.Reject)
	}
	return result
}

// PromiseRace settles with the first input to settle.
func PromiseRace(values []interface{}) *Promise {
	result := NewPromise()
	for _, v := range values {
		ResolvedPromise(v).OnSettled(result.Resolve, result.Reject)
	}
	return result
}

// PromiseAllSettled resolves with an array of {status, value|reason}
// records once every input settles.
func PromiseAllSettled(values []interface{}) *Promise {
	result := NewPromise()
	results := make([]interface{}, len(values))
	remaining := len(values)
	if remaining == 0 {
		result.Resolve(NewArray())
		return result
	}
	settleOne := func(idx int, record *Object) {
		results[idx] = record
		remaining--
		if remaining == 0 {
			result.Resolve(NewArray(results...))
		}
	}
	for i, v := range values {
		idx := i
		ResolvedPromise(v).OnSettled(func(v interface{}) {
			rec := NewObject()
			rec.Set("status", "fulfilled")
			rec.Set("value", v)
			settleOne(idx, rec)
		}, func(e interface{}) {
			rec := NewObject()
			rec.Set("status", "rejected")
			rec.Set("reason", e)
			settleOne(idx, rec)
		})
	}
	return result
}
