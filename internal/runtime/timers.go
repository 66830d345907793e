package runtime

import "sort"

// Timer is one scheduled callback record (spec §3 "Virtual timer").
type Timer struct {
	ID          int
	Callback    func(args []interface{})
	Args        []interface{}
	ScheduledMs float64
	IntervalMs  float64
	IsInterval  bool
	IsCancelled bool
	HasRef      bool
	seq         int // insertion order, for tie-breaking at equal scheduled time
}

// Clock is the single-threaded cooperative virtual timer queue (spec §5).
// NowMs advances only when the driver explicitly moves it forward
// (there is no real wall clock backing compiled programs); ProcessDue
// fires every non-cancelled timer whose ScheduledMs has been reached.
type Clock struct {
	NowMs   float64
	timers  []*Timer
	nextID  int
	nextSeq int
}

// NewClock creates a virtual clock starting at t=0.
func NewClock() *Clock { return &Clock{} }

// SetTimeout schedules a one-shot timer after max(0, delayMs).
func (c *Clock) SetTimeout(cb func(args []interface{}), delayMs float64, args ...interface{}) int {
	return c.schedule(cb, delayMs, 0, false, args)
}

// SetInterval schedules a repeating timer firing every delayMs.
func (c *Clock) SetInterval(cb func(args []interface{}), delayMs float64, args ...interface{}) int {
	return c.schedule(cb, delayMs, delayMs, true, args)
}

func (c *Clock) schedule(cb func(args []interface{}), delayMs, intervalMs float64, isInterval bool, args []interface{}) int {
	if delayMs < 0 {
		delayMs = 0
	}
	c.nextID++
	c.nextSeq++
	t := &Timer{
		ID:          c.nextID,
		Callback:    cb,
		Args:        args,
		ScheduledMs: c.NowMs + delayMs,
		IntervalMs:  intervalMs,
		IsInterval:  isInterval,
		HasRef:      true,
		seq:         c.nextSeq,
	}
	c.timers = append(c.timers, t)
	return t.ID
}

// ClearTimer marks a timer (one-shot or interval) cancelled. It does not
// remove it from the queue immediately (spec §5: "a cancellation issued
// inside a firing callback is honored on the next pass").
func (c *Clock) ClearTimer(id int) {
	for _, t := range c.timers {
		if t.ID == id {
			t.IsCancelled = true
			return
		}
	}
}

// ProcessDue fires every timer whose ScheduledMs <= NowMs and which is not
// cancelled, in scheduled-time order (ties broken by insertion order).
// Fired one-shot timers are removed; intervals advance ScheduledMs by
// IntervalMs and remain queued.
func (c *Clock) ProcessDue() {
	for {
		due := c.dueTimers()
		if len(due) == 0 {
			return
		}
		for _, t := range due {
			if t.IsCancelled {
				continue
			}
			if t.IsInterval {
				t.ScheduledMs += t.IntervalMs
			}
			t.Callback(t.Args)
		}
		c.removeFinished()
	}
}

func (c *Clock) dueTimers() []*Timer {
	var due []*Timer
	for _, t := range c.timers {
		if !t.IsCancelled && t.ScheduledMs <= c.NowMs {
			due = append(due, t)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].ScheduledMs != due[j].ScheduledMs {
			return due[i].ScheduledMs < due[j].ScheduledMs
		}
		return due[i].seq < due[j].seq
	})
	return due
}

func (c *Clock) removeFinished() {
	var remaining []*Timer
	for _, t := range c.timers {
		if t.IsCancelled {
			continue
		}
		if !t.IsInterval && t.ScheduledMs <= c.NowMs {
			continue // one-shot timer that just fired
		}
		remaining = append(remaining, t)
	}
	c.timers = remaining
}

// Pending reports how many non-cancelled timers remain queued. Per
// spec §5, this has no bearing on process exit ("Timers do not keep the
// process alive") — it exists only for diagnostics/testing.
func (c *Clock) Pending() int {
	n := 0
	for _, t := range c.timers {
		if !t.IsCancelled {
			n++
		}
	}
	return n
}

// Advance moves the virtual clock forward and drains due timers, the
// shape a compiled program's driver loop uses to simulate elapsed time
// between synchronous bursts of user code.
func (c *Clock) Advance(ms float64) {
	c.NowMs += ms
	c.ProcessDue()
}

// RunUntilIdle repeatedly jumps the virtual clock to the earliest
// pending timer deadline and fires it, until no non-cancelled timers
// remain. This is the driver's drain loop after the entry module's
// synchronous body returns; it makes no timer wait on wall-clock time.
// maxSteps bounds runaway interval chains (0 means the default bound).
func (c *Clock) RunUntilIdle(maxSteps int) {
	if maxSteps <= 0 {
		maxSteps = 1 << 16
	}
	for steps := 0; steps < maxSteps; steps++ {
		c.ProcessDue()
		next, ok := c.earliestDeadline()
		if !ok {
			return
		}
		if next > c.NowMs {
			c.NowMs = next
		}
		c.ProcessDue()
	}
}

func (c *Clock) earliestDeadline() (float64, bool) {
	found := false
	var best float64
	for _, t := range c.timers {
		if t.IsCancelled {
			continue
		}
		if !found || t.ScheduledMs < best {
			best = t.ScheduledMs
			found = true
		}
	}
	return best, found
}
