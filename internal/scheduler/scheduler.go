// Package scheduler implements the fixed-step accumulator that drives a
// room's simulation forward from wall-clock deltas, with bounded catch-up so
// a slow or delayed caller never spirals into an unbounded backlog of steps.
package scheduler

import "time"

// Config parameterizes the accumulator.
type Config struct {
	// RateHz is the fixed simulation rate; DT is derived as 1/RateHz.
	RateHz int
	// MaxCatchupSteps bounds how many ticks a single Advance call may run.
	MaxCatchupSteps int
	// MaxElapsed bounds the wall-clock delta folded into the accumulator on
	// a single Advance call, absorbing pauses (GC, scheduling jitter, a
	// slow caller) without catching up all at once.
	MaxElapsed time.Duration
}

// Scheduler accumulates wall-clock time and yields fixed-size ticks.
type Scheduler struct {
	dt          time.Duration
	maxSteps    int
	maxElapsed  time.Duration
	lastLoop    time.Time
	accumulator time.Duration
}

// New constructs a Scheduler seeded at now.
func New(cfg Config, now time.Time) *Scheduler {
	return &Scheduler{
		dt:         time.Second / time.Duration(cfg.RateHz),
		maxSteps:   cfg.MaxCatchupSteps,
		maxElapsed: cfg.MaxElapsed,
		lastLoop:   now,
	}
}

// Step is invoked once per tick the scheduler advances, with the tick number
// being advanced to.
type Step func(tick uint64)

// Advance folds the elapsed wall-clock time since the previous call into the
// accumulator and invokes step once per fixed-size slice consumed, up to the
// configured cap. tick is advanced in place. It returns the number of ticks
// actually run. If the cap is hit with time still owed, the remainder is
// dropped rather than carried forward, so a stalled room never has to run an
// unbounded burst of catch-up ticks on its next message.
func (s *Scheduler) Advance(now time.Time, tick *uint64, step Step) int {
	elapsed := now.Sub(s.lastLoop)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > s.maxElapsed {
		elapsed = s.maxElapsed
	}
	s.lastLoop = now
	s.accumulator += elapsed

	steps := 0
	for s.accumulator >= s.dt && steps < s.maxSteps {
		*tick++
		step(*tick)
		s.accumulator -= s.dt
		steps++
	}
	if steps == s.maxSteps && s.accumulator >= s.dt {
		s.accumulator = 0
	}
	return steps
}
