package logic

import "time"

// Config holds the derived knobs the arbiter needs. All fields are
// hot-reloadable via Apply.
type Config struct {
	Strategy        Strategy
	SourceTimeout   time.Duration // staleness timeout per input slot
	GestureHold     time.Duration // arm/disarm confirmation hold
	OverridePercent float64       // override sensitivity, percent of full range
}

// CycleResult is the outcome of one arbitration cycle.
type CycleResult struct {
	Setpoint         Setpoint  // value to publish when Publish is set
	Publish          bool      // whether the setpoint should be published this cycle
	Commands         []Command // arm/disarm commands to send, usually none
	Selected         int       // selected slot index, -1 when none
	SelectionChanged bool      // selection differs from the previous cycle
}

// Arbiter drives the selector, gesture detector and override detector once
// per cycle and decides what gets published. Owned by a single loop; not
// safe for concurrent use.
type Arbiter struct {
	selector *Selector
	gesture  *GestureDetector
	override *OverrideDetector

	publishedInvalid bool
	lastSelected     int
	prevKill         bool
	counts           Counts
}

// NewArbiter creates an arbiter from the given configuration.
func NewArbiter(cfg Config) *Arbiter {
	return &Arbiter{
		selector:     NewSelector(cfg.SourceTimeout, cfg.Strategy),
		gesture:      NewGestureDetector(cfg.GestureHold),
		override:     NewOverrideDetector(cfg.OverridePercent),
		lastSelected: -1,
	}
}

// Apply re-derives the internal constants from a changed configuration
// without restarting. Slot state, hysteresis state and latches survive.
func (a *Arbiter) Apply(cfg Config) {
	a.selector.SetTimeout(cfg.SourceTimeout)
	a.selector.SetStrategy(cfg.Strategy)
	a.gesture.SetHoldTime(cfg.GestureHold)
	a.override.SetPercent(cfg.OverridePercent)
}

// Cycle runs one complete arbitration pass. It ingests the cycle's samples
// (or advances time only when none arrived), annotates the selected
// setpoint with gesture and override flags, and reports what to publish.
//
// A valid setpoint is published every cycle with Time stamped to now. An
// invalid setpoint is published exactly once per invalidation episode.
func (a *Arbiter) Cycle(now time.Time, inputs []SlotSample, switches *SwitchSample) CycleResult {
	if len(inputs) == 0 {
		a.selector.UpdateTimeOnly(now)
	} else {
		for _, in := range inputs {
			a.selector.UpdateSlot(now, in.Sample, in.Slot)
		}
	}

	sp := a.selector.Setpoint()
	res := CycleResult{Selected: a.selector.Instance()}

	if !sp.Valid {
		if a.lastSelected != -1 {
			a.lastSelected = -1
			res.SelectionChanged = true
		}
		if !a.publishedInvalid {
			a.publishedInvalid = true
			a.counts.Invalidations++
			res.Publish = true
		}
		a.override.Reset()
		// No switch samples arrive during a loss episode; treat the switch
		// as released so a kill still held on recovery disarms again.
		a.prevKill = false
		res.Setpoint = *sp
		return res
	}

	a.publishedInvalid = false

	armEdge, disarmEdge := a.gesture.Update(sp)
	if armEdge {
		a.counts.ArmCommands++
		res.Commands = append(res.Commands, Command{Time: now, Arm: true, Origin: OriginStickGesture})
	}
	if disarmEdge {
		a.counts.DisarmCommands++
		res.Commands = append(res.Commands, Command{Time: now, Arm: false, Origin: OriginStickGesture})
	}

	a.override.Update(sp)
	if sp.UserOverride {
		a.counts.OverrideCycles++
	}

	if switches != nil {
		// The disarm fires on the rising edge and only while an RC source
		// is authoritative, but the switch state is tracked on every sample
		// so a release seen under a non-RC source still re-arms the edge.
		if switches.Kill && !a.prevKill && sp.Source == SourceRC {
			a.counts.DisarmCommands++
			res.Commands = append(res.Commands, Command{Time: now, Arm: false, Origin: OriginKillSwitch})
		}
		a.prevKill = switches.Kill
	}

	sp.Time = now
	res.Publish = true
	res.Setpoint = *sp

	if a.lastSelected != a.selector.Instance() {
		a.lastSelected = a.selector.Instance()
		a.counts.SourceChanges++
		res.SelectionChanged = true
	}
	return res
}

// Counts returns the event counts since startup.
func (a *Arbiter) Counts() Counts {
	return a.counts
}

// Setpoint returns a copy of the current setpoint for observability.
func (a *Arbiter) Setpoint() Setpoint {
	return *a.selector.Setpoint()
}

// Instance returns the currently selected slot index, or -1.
func (a *Arbiter) Instance() int {
	return a.selector.Instance()
}
