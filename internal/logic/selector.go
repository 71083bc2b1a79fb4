package logic

import (
	"fmt"
	"time"
)

// Strategy decides which slot owns the setpoint. live[i] reports whether
// slot i has a fresh valid sample; current is the currently selected slot
// (-1 for none). Pick returns the new selection, or -1 for none.
type Strategy interface {
	Name() string
	Pick(live []bool, current int) int
}

type firstValid struct{}

func (firstValid) Name() string { return "first-valid" }

// Pick keeps the current slot while it is live, otherwise takes the lowest
// live slot. A live slot never loses selection to another slot.
func (firstValid) Pick(live []bool, current int) int {
	if current >= 0 && current < len(live) && live[current] {
		return current
	}
	for i, l := range live {
		if l {
			return i
		}
	}
	return -1
}

type priorityOrder struct{}

func (priorityOrder) Name() string { return "priority" }

// Pick always takes the lowest live slot: a higher-priority source coming
// alive preempts the current selection.
func (priorityOrder) Pick(live []bool, current int) int {
	for i, l := range live {
		if l {
			return i
		}
	}
	return -1
}

type fixedInstance struct{ slot int }

func (f fixedInstance) Name() string { return fmt.Sprintf("fixed:%d", f.slot) }

// Pick only ever selects the configured slot.
func (f fixedInstance) Pick(live []bool, current int) int {
	if f.slot >= 0 && f.slot < len(live) && live[f.slot] {
		return f.slot
	}
	return -1
}

// FirstValid keeps the first slot that produced valid data until it goes stale.
func FirstValid() Strategy { return firstValid{} }

// PriorityOrder prefers the lowest live slot index, preempting lower-priority slots.
func PriorityOrder() Strategy { return priorityOrder{} }

// FixedInstance only ever selects the given slot.
func FixedInstance(slot int) Strategy { return fixedInstance{slot: slot} }

type slot struct {
	sample    InputSample
	updatedAt time.Time
	seen      bool
}

// Selector picks the single authoritative input among MaxInputs slots and
// exposes the resulting setpoint plus the winning slot index.
type Selector struct {
	slots      [MaxInputs]slot
	timeout    time.Duration
	strategy   Strategy
	setpoint   Setpoint
	instance   int
	wasInvalid bool
}

// NewSelector creates a selector with no slot selected.
func NewSelector(timeout time.Duration, strategy Strategy) *Selector {
	return &Selector{
		timeout:  timeout,
		strategy: strategy,
		instance: -1,
	}
}

// SetTimeout changes the staleness timeout. Takes effect on the next evaluation.
func (s *Selector) SetTimeout(d time.Duration) {
	s.timeout = d
}

// SetStrategy changes the selection policy. Takes effect on the next evaluation.
func (s *Selector) SetStrategy(strategy Strategy) {
	s.strategy = strategy
}

// UpdateSlot records a fresh sample for the given slot and re-evaluates
// the selection. Samples for out-of-range slots are ignored.
func (s *Selector) UpdateSlot(now time.Time, sample InputSample, index int) {
	if index < 0 || index >= MaxInputs {
		return
	}
	s.slots[index].sample = sample
	s.slots[index].updatedAt = now
	s.slots[index].seen = true
	s.evaluate(now)
}

// UpdateTimeOnly re-evaluates slot liveness against the timeout without new
// data. Repeated calls with non-decreasing now never change the selection
// until the timeout is exceeded.
func (s *Selector) UpdateTimeOnly(now time.Time) {
	s.evaluate(now)
}

func (s *Selector) evaluate(now time.Time) {
	var live [MaxInputs]bool
	for i := range s.slots {
		sl := &s.slots[i]
		live[i] = sl.seen && sl.sample.Valid && now.Sub(sl.updatedAt) <= s.timeout
	}

	pick := s.strategy.Pick(live[:], s.instance)
	if pick < 0 {
		s.invalidate()
		return
	}

	sample := s.slots[pick].sample
	s.setpoint = Setpoint{
		Time:   sample.Time,
		X:      sample.X,
		Y:      sample.Y,
		Z:      sample.Z,
		R:      sample.R,
		Source: sample.Source,
		Valid:  true,
	}
	s.instance = pick
	s.wasInvalid = false
}

func (s *Selector) invalidate() {
	if s.wasInvalid {
		// Second consecutive invalid evaluation: clear axes to the neutral
		// sentinel so stale stick values cannot leak downstream.
		s.setpoint.X = unknownAxis()
		s.setpoint.Y = unknownAxis()
		s.setpoint.Z = unknownAxis()
		s.setpoint.R = unknownAxis()
	}
	s.setpoint.Valid = false
	s.instance = -1
	s.wasInvalid = true
}

// Setpoint returns the current cycle's output. Callers annotate it
// (gesture/override flags) in place before it is published.
func (s *Selector) Setpoint() *Setpoint {
	return &s.setpoint
}

// Instance returns the selected slot index, or -1 when none is selected.
func (s *Selector) Instance() int {
	return s.instance
}
