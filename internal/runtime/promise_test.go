package runtime

import "testing"

func TestResolvedPromiseIsSynchronous(t *testing.T) {
	var got interface{}
	ResolvedPromise(float64(7)).OnSettled(func(v interface{}) { got = v }, nil)
	if got != float64(7) {
		t.Fatalf("continuation did not run synchronously: %v", got)
	}
}

func TestResolvedPromiseAdoptsInnerPromise(t *testing.T) {
	inner := NewPromise()
	outer := NewPromise()
	outer.Resolve(inner)
	if outer.State != PromisePending {
		t.Fatal("outer settled before inner")
	}
	inner.Resolve("done")
	if outer.State != PromiseFulfilled || outer.Value != "done" {
		t.Fatalf("outer = %v %v", outer.State, outer.Value)
	}
}

func TestThenChainsInOrder(t *testing.T) {
	var order []string
	ResolvedPromise(float64(1)).
		Then(func(v interface{}) interface{} {
			order = append(order, "first")
			return v.(float64) + 1
		}, nil).
		Then(func(v interface{}) interface{} {
			if v != float64(2) {
				t.Errorf("second handler got %v", v)
			}
			order = append(order, "second")
			return nil
		}, nil)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("order = %v", order)
	}
}

func TestRejectionSkipsToCatch(t *testing.T) {
	var caught interface{}
	RejectedPromise("boom").
		Then(func(v interface{}) interface{} {
			t.Error("fulfillment handler ran on rejection")
			return nil
		}, nil).
		Catch(func(e interface{}) interface{} {
			caught = e
			return "recovered"
		}).
		Then(func(v interface{}) interface{} {
			if v != "recovered" {
				t.Errorf("recovery value %v", v)
			}
			return nil
		}, nil)
	if caught != "boom" {
		t.Fatalf("caught = %v", caught)
	}
}

func TestHandlerPanicRejectsDerived(t *testing.T) {
	derived := ResolvedPromise(float64(1)).Then(func(v interface{}) interface{} {
		panic(&Exception{Value: "thrown"})
	}, nil)
	if derived.State != PromiseRejected || derived.Value != "thrown" {
		t.Fatalf("derived = %v %v", derived.State, derived.Value)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	p := NewPromise()
	p.Resolve("first")
	p.Resolve("second")
	p.Reject("third")
	if p.Value != "first" || p.State != PromiseFulfilled {
		t.Fatalf("p = %v %v", p.State, p.Value)
	}
}

func TestFinallyRunsOnBothPaths(t *testing.T) {
	ran := 0
	ResolvedPromise(1).Finally(func() { ran++ })
	RejectedPromise("e").Finally(func() { ran++ }).Catch(func(interface{}) interface{} { return nil })
	if ran != 2 {
		t.Fatalf("finally ran %d times", ran)
	}
}

func TestPromiseAllCollectsInInputOrder(t *testing.T) {
	a := NewPromise()
	b := NewPromise()
	all := PromiseAll([]interface{}{a, b, float64(3)})
	b.Resolve(float64(2))
	a.Resolve(float64(1))
	if all.State != PromiseFulfilled {
		t.Fatal("not fulfilled")
	}
	arr := all.Value.(*Array)
	if arr.Elements[0] != float64(1) || arr.Elements[1] != float64(2) || arr.Elements[2] != float64(3) {
		t.Fatalf("results = %v", arr.Elements)
	}
}

func TestPromiseAllRejectsOnFirstFailure(t *testing.T) {
	a := NewPromise()
	all := PromiseAll([]interface{}{a, float64(1)})
	a.Reject("nope")
	if all.State != PromiseRejected || all.Value != "nope" {
		t.Fatalf("all = %v %v", all.State, all.Value)
	}
}
