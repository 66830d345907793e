package runtime

import "testing"

func TestSetTimeoutFiresOnAdvance(t *testing.T) {
	c := NewClock()
	fired := false
	c.SetTimeout(func(args []interface{}) { fired = true }, 100)
	c.Advance(50)
	if fired {
		t.Error("timer fired before its delay elapsed")
	}
	c.Advance(50)
	if !fired {
		t.Error("timer did not fire once its delay elapsed")
	}
}

func TestSetIntervalRefiresAndAdvancesSchedule(t *testing.T) {
	c := NewClock()
	count := 0
	id := c.SetInterval(func(args []interface{}) { count++ }, 10)
	c.Advance(35)
	if count != 3 {
		t.Errorf("got %d fires, want 3", count)
	}
	c.ClearTimer(id)
	c.Advance(100)
	if count != 3 {
		t.Errorf("interval kept firing after ClearTimer: got %d", count)
	}
}

func TestClearTimerInsideCallbackHonoredNextPass(t *testing.T) {
	c := NewClock()
	var selfID int
	runs := 0
	selfID = c.SetInterval(func(args []interface{}) {
		runs++
		if runs == 1 {
			c.ClearTimer(selfID)
		}
	}, 10)
	c.Advance(10)
	if runs != 1 {
		t.Fatalf("expected exactly one run before cancellation took effect, got %d", runs)
	}
	c.Advance(100)
	if runs != 1 {
		t.Errorf("cancelled interval fired again: runs=%d", runs)
	}
}

func TestTimersFireInScheduledOrderThenInsertionOrder(t *testing.T) {
	c := NewClock()
	var order []int
	c.SetTimeout(func(args []interface{}) { order = append(order, 1) }, 10)
	c.SetTimeout(func(args []interface{}) { order = append(order, 2) }, 5)
	c.SetTimeout(func(args []interface{}) { order = append(order, 3) }, 5)
	c.Advance(10)
	want := []int{2, 3, 1}
	if len(order) != len(want) {
		t.Fatalf("got %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("index %d: got %d want %d (full: %v)", i, order[i], want[i], order)
		}
	}
}

func TestPendingDoesNotCountCancelledTimers(t *testing.T) {
	c := NewClock()
	id := c.SetTimeout(func(args []interface{}) {}, 1000)
	if c.Pending() != 1 {
		t.Fatalf("expected 1 pending timer, got %d", c.Pending())
	}
	c.ClearTimer(id)
	if c.Pending() != 0 {
		t.Errorf("expected cancelled timer excluded from Pending, got %d", c.Pending())
	}
}
