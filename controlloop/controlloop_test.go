package controlloop

import (
	"testing"
	"time"
)

// fakeClock is a manually-advanced clock: SleepUntil jumps straight to
// the requested time instead of actually sleeping, so tests run instantly.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }
func (c *fakeClock) SleepUntil(t time.Time) {
	if t.After(c.now) {
		c.now = t
	}
}

func TestRunOneCycleRunsControlAndCommandEveryCall(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	r := New(clock, 10*time.Millisecond, 100*time.Millisecond)
	var state State

	controlCalls, commandCalls := 0, 0
	for i := 0; i < 5; i++ {
		r.RunOneCycle(func() { controlCalls++ }, func() { commandCalls++ }, func() {}, &state)
	}
	if controlCalls != 5 || commandCalls != 5 {
		t.Errorf("expected 5 control/command calls, got control=%d command=%d", controlCalls, commandCalls)
	}
}

func TestRunOneCycleCoalescesUpdateStep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	loopInterval := 10 * time.Millisecond
	updateInterval := 100 * time.Millisecond
	r := New(clock, loopInterval, updateInterval)
	var state State

	updateCalls := 0
	// 15 cycles of 10ms = 150ms of simulated time, update interval is
	// 100ms, so update should fire on the first cycle (due immediately)
	// and again once more after 100ms elapses, not once per loop tick.
	for i := 0; i < 15; i++ {
		r.RunOneCycle(func() {}, func() {}, func() { updateCalls++ }, &state)
	}
	if updateCalls != 2 {
		t.Errorf("expected update to fire exactly twice across 150ms at a 100ms interval, got %d", updateCalls)
	}
}

func TestRunOneCycleAdvancesNextLoopAtByInterval(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	loopInterval := 10 * time.Millisecond
	r := New(clock, loopInterval, time.Second)
	var state State

	r.RunOneCycle(func() {}, func() {}, func() {}, &state)
	first := state.NextLoopAt
	r.RunOneCycle(func() {}, func() {}, func() {}, &state)
	second := state.NextLoopAt

	if second.Sub(first) != loopInterval {
		t.Errorf("expected NextLoopAt to advance by %v, advanced by %v", loopInterval, second.Sub(first))
	}
}

func TestRunOneCycleCatchesUpAfterOverrun(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	loopInterval := 10 * time.Millisecond
	r := New(clock, loopInterval, time.Second)
	var state State

	r.RunOneCycle(func() {}, func() {}, func() {}, &state)
	// Simulate a long-running cycle: jump the clock far past NextLoopAt
	// before the next call, as if controlStep/commandStep took 55ms.
	clock.now = clock.now.Add(55 * time.Millisecond)
	r.RunOneCycle(func() {}, func() {}, func() {}, &state)

	if !state.NextLoopAt.After(clock.now) {
		t.Errorf("expected NextLoopAt to be pushed back past the overrun point, got %v vs now %v", state.NextLoopAt, clock.now)
	}
}
