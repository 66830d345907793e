package runtime

import "unsafe"

// listener is one registered handler plus bookkeeping for `once`.
type listener struct {
	fn   func(args []interface{})
	once bool
}

// EventEmitter is the runtime backing for the `events` built-in module's
// EventEmitter class (spec §4.7/§5). Dispatch within a single Emit call
// iterates a snapshot of the listener list taken before the first
// listener runs, so mutation during dispatch (removing/adding listeners)
// never affects the current fan-out — only subsequent Emit calls observe
// it.
type EventEmitter struct {
	listeners    map[string][]*listener
	order        []string
	maxListeners int
}

const defaultMaxListeners = 10

// NewEventEmitter creates an emitter with spec's default max-listeners
// warn threshold of 10.
func NewEventEmitter() *EventEmitter {
	return &EventEmitter{listeners: map[string][]*listener{}, maxListeners: defaultMaxListeners}
}

func (e *EventEmitter) SetMaxListeners(n int) { e.maxListeners = n }

// On registers a listener appended at the tail of name's list.
func (e *EventEmitter) On(name string, fn func(args []interface{})) *EventEmitter {
	e.addListener(name, &listener{fn: fn}, false)
	return e
}

// Once registers a listener that removes itself after its first
// invocation (the removal happens via the snapshot rule: it still runs
// exactly once even if re-entrant code emits again before it returns).
func (e *EventEmitter) Once(name string, fn func(args []interface{})) *EventEmitter {
	e.addListener(name, &listener{fn: fn, once: true}, false)
	return e
}

// PrependListener inserts at the head of name's list instead of the tail.
func (e *EventEmitter) PrependListener(name string, fn func(args []interface{})) *EventEmitter {
	e.addListener(name, &listener{fn: fn}, true)
	return e
}

func (e *EventEmitter) addListener(name string, l *listener, prepend bool) {
	if _, ok := e.listeners[name]; !ok {
		e.order = append(e.order, name)
	}
	if prepend {
		e.listeners[name] = append([]*listener{l}, e.listeners[name]...)
	} else {
		e.listeners[name] = append(e.listeners[name], l)
	}
	// Spec only requires the threshold be honored (a warning, not an
	// error); callers that want the Node-compatible warning text can
	// check ListenerCount against MaxListeners themselves.
}

func (e *EventEmitter) MaxListeners() int { return e.maxListeners }

// RemoveListener removes the first listener registered with fn's
// identity. Since Go closures aren't comparable in general, callers pass
// back the exact func value they registered with On/Once.
func (e *EventEmitter) RemoveListener(name string, fn func(args []interface{})) *EventEmitter {
	list := e.listeners[name]
	for i, l := range list {
		if sameFunc(l.fn, fn) {
			e.listeners[name] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	return e
}

func (e *EventEmitter) RemoveAllListeners(name string) *EventEmitter {
	if name == "" {
		e.listeners = map[string][]*listener{}
		e.order = nil
		return e
	}
	delete(e.listeners, name)
	return e
}

func (e *EventEmitter) ListenerCount(name string) int { return len(e.listeners[name]) }

// Emit fires every listener registered for name at the moment Emit was
// called, in registration order, against the snapshot described above.
// It returns whether any listener ran.
func (e *EventEmitter) Emit(name string, args ...interface{}) bool {
	snapshot := append([]*listener(nil), e.listeners[name]...)
	if len(snapshot) == 0 {
		return false
	}
	for _, l := range snapshot {
		if l.once {
			e.RemoveListener(name, l.fn)
		}
		l.fn(args)
	}
	return true
}

// sameFunc compares two func values by the identity of their closure
// objects (a func value points at its closure); each evaluation of a
// capturing func literal allocates its own closure, so closures created
// from the same call site with different captures are still distinct,
// matching JS's by-reference listener identity.
func sameFunc(a, b func(args []interface{})) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *(*unsafe.Pointer)(unsafe.Pointer(&a)) == *(*unsafe.Pointer)(unsafe.Pointer(&b))
}
