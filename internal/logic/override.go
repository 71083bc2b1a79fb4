package logic

import "math"

// OverrideDetector flags pilot stick movement between consecutive valid
// setpoints as manual override intent. Previous-axis memory is NaN while
// unknown, which makes every comparison false: the first valid cycle after
// a reset can never report movement against stale data.
type OverrideDetector struct {
	percent float64
	prevX   float64
	prevY   float64
	prevZ   float64
	prevR   float64
}

// NewOverrideDetector creates a detector with the given sensitivity
// percentage of full stick range.
func NewOverrideDetector(percent float64) *OverrideDetector {
	o := &OverrideDetector{percent: percent}
	o.Reset()
	return o
}

// SetPercent changes the sensitivity percentage.
func (o *OverrideDetector) SetPercent(percent float64) {
	o.percent = percent
}

// Update compares the setpoint's axes against the previous cycle and writes
// the UserOverride flag into it. Call only with a valid setpoint.
func (o *OverrideDetector) Update(sp *Setpoint) {
	minimumStickChange := 0.01 * o.percent

	rpyMoved := math.Abs(sp.X-o.prevX) > minimumStickChange ||
		math.Abs(sp.Y-o.prevY) > minimumStickChange ||
		math.Abs(sp.R-o.prevR) > minimumStickChange

	// Throttle delta doubled: z spans [0,1], half the width of the other
	// axes, so the comparison is normalized to the same sensitivity.
	throttleMoved := math.Abs(sp.Z-o.prevZ)*2 > minimumStickChange

	sp.UserOverride = rpyMoved || throttleMoved

	o.prevX = sp.X
	o.prevY = sp.Y
	o.prevZ = sp.Z
	o.prevR = sp.R
}

// Reset clears the previous-axis memory to unknown. Called whenever the
// setpoint was invalid, so the next valid cycle starts from scratch.
func (o *OverrideDetector) Reset() {
	o.prevX = unknownAxis()
	o.prevY = unknownAxis()
	o.prevZ = unknownAxis()
	o.prevR = unknownAxis()
}
