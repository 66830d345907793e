package runtime

import "testing"

func TestEmitInvokesListenersInRegistrationOrder(t *testing.T) {
	e := NewEventEmitter()
	var order []int
	e.On("tick", func(args []interface{}) { order = append(order, 1) })
	e.On("tick", func(args []interface{}) { order = append(order, 2) })
	e.Emit("tick")
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("got %v", order)
	}
}

func TestPrependListenerInsertsAtHead(t *testing.T) {
	e := NewEventEmitter()
	var order []int
	e.On("tick", func(args []interface{}) { order = append(order, 1) })
	e.PrependListener("tick", func(args []interface{}) { order = append(order, 0) })
	e.Emit("tick")
	if order[0] != 0 || order[1] != 1 {
		t.Errorf("got %v", order)
	}
}

func TestOnceListenerRunsExactlyOnce(t *testing.T) {
	e := NewEventEmitter()
	count := 0
	e.Once("tick", func(args []interface{}) { count++ })
	e.Emit("tick")
	e.Emit("tick")
	if count != 1 {
		t.Errorf("got %d fires, want 1", count)
	}
}

func TestEmitSnapshotIgnoresListenersAddedDuringDispatch(t *testing.T) {
	e := NewEventEmitter()
	ran := []string{}
	e.On("tick", func(args []interface{}) {
		ran = append(ran, "first")
		e.On("tick", func(args []interface{}) { ran = append(ran, "added-during-dispatch") })
	})
	e.Emit("tick")
	if len(ran) != 1 || ran[0] != "first" {
		t.Errorf("expected snapshot semantics, got %v", ran)
	}
	e.Emit("tick")
	if len(ran) != 3 {
		t.Errorf("expected listener added mid-dispatch to run on the next emit, got %v", ran)
	}
}

func TestRemoveListenerRemovesByIdentity(t *testing.T) {
	e := NewEventEmitter()
	fn := func(args []interface{}) {}
	e.On("tick", fn)
	if e.ListenerCount("tick") != 1 {
		t.Fatalf("expected listener registered")
	}
	e.RemoveListener("tick", fn)
	if e.ListenerCount("tick") != 0 {
		t.Errorf("expected listener removed")
	}
}

func TestDefaultMaxListenersIsTen(t *testing.T) {
	e := NewEventEmitter()
	if e.MaxListeners() != 10 {
		t.Errorf("got %d want 10", e.MaxListeners())
	}
}
