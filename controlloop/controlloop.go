// Package controlloop is the monotonic control-thread scheduler
// (spec.md §4.7), grounded line-for-line on
// original_source/Server/src/ControlLoopRunner.cpp: sleep to the next
// tick, run control+command every cycle, run update at most once per
// update interval (coalescing missed ticks), track duty cycle, and log
// exactly one overrun message per overrun.
package controlloop

import (
	"time"

	"github.com/montanaflynn/stats"

	"rimoserver/logx"
)

// Clock is injected so tests can drive the runner deterministically.
type Clock interface {
	Now() time.Time
	SleepUntil(t time.Time)
}

// RealClock sleeps on the wall clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
func (RealClock) SleepUntil(t time.Time) {
	if d := time.Until(t); d > 0 {
		time.Sleep(d)
	}
}

// State is the runner's per-cycle bookkeeping, matching
// ControlLoopRunner::State.
type State struct {
	NextLoopAt    time.Time
	NextUpdateAt  time.Time
	NextDutyLogAt time.Time
	dutyCycles    []float64
	Initialized   bool
}

// Runner schedules controlStep/commandStep every loopInterval and
// updateStep at most once per updateInterval.
type Runner struct {
	clock          Clock
	loopInterval   time.Duration
	updateInterval time.Duration
	log            *logx.Logger
}

// New builds a Runner.
func New(clock Clock, loopInterval, updateInterval time.Duration) *Runner {
	return &Runner{clock: clock, loopInterval: loopInterval, updateInterval: updateInterval, log: logx.New("controlloop")}
}

func (r *Runner) makeInitialState() State {
	now := r.clock.Now()
	return State{
		NextLoopAt: now, NextUpdateAt: now, NextDutyLogAt: now.Add(time.Second),
		Initialized: true,
	}
}

// RunOneCycle runs one scheduling cycle, mutating state in place.
func (r *Runner) RunOneCycle(controlStep, commandStep, updateStep func(), state *State) {
	if !state.Initialized {
		*state = r.makeInitialState()
	}

	nowBefore := r.clock.Now()
	if nowBefore.Before(state.NextLoopAt) {
		r.clock.SleepUntil(state.NextLoopAt)
	}
	loopStart := r.clock.Now()

	controlStep()
	commandStep()

	now := r.clock.Now()
	if !now.Before(state.NextUpdateAt) {
		updateStep()
		for !state.NextUpdateAt.After(now) {
			state.NextUpdateAt = state.NextUpdateAt.Add(r.updateInterval)
		}
	}

	loopWork := now.Sub(loopStart)
	dutyCycle := loopWork.Seconds() / r.loopInterval.Seconds()
	state.dutyCycles = append(state.dutyCycles, dutyCycle)
	if !now.Before(state.NextDutyLogAt) && len(state.dutyCycles) > 0 {
		avg, err := stats.Mean(state.dutyCycles)
		if err == nil {
			r.log.Debug("Machine loop duty cycle avg %.3f%% (last %.3f%%)", avg*100, dutyCycle*100)
		}
		state.dutyCycles = state.dutyCycles[:0]
		for !state.NextDutyLogAt.After(now) {
			state.NextDutyLogAt = state.NextDutyLogAt.Add(time.Second)
		}
	}

	state.NextLoopAt = state.NextLoopAt.Add(r.loopInterval)
	if !state.NextLoopAt.After(now) {
		overrun := now.Sub(state.NextLoopAt) + r.loopInterval
		r.log.Warn("Machine loop overrun by %d ms", overrun.Milliseconds())
		for !state.NextLoopAt.After(now) {
			state.NextLoopAt = state.NextLoopAt.Add(r.loopInterval)
		}
	}
}
