package logic

import (
	"math"
	"time"
)

// GestureDetector maps stick geometry into debounced arm/disarm gestures.
// A gesture only confirms after the stick has held the geometry for the
// configured hold duration; release confirms immediately. The two gestures
// require opposite full yaw deflections and can never both be confirmed.
type GestureDetector struct {
	arm        *Hysteresis
	disarm     *Hysteresis
	prevArm    bool
	prevDisarm bool
}

// NewGestureDetector creates a detector with the given confirmation hold time.
func NewGestureDetector(hold time.Duration) *GestureDetector {
	g := &GestureDetector{
		arm:    NewHysteresis(false),
		disarm: NewHysteresis(false),
	}
	g.SetHoldTime(hold)
	return g
}

// SetHoldTime changes the confirmation hold duration for both gestures.
func (g *GestureDetector) SetHoldTime(hold time.Duration) {
	g.arm.SetHoldFrom(false, hold)
	g.disarm.SetHoldFrom(false, hold)
}

// Update evaluates the setpoint's stick geometry, writes the confirmed
// gesture flags into it, and reports false -> true confirmation edges.
// An edge is reported exactly once per confirmed gesture; holding the
// gesture reports nothing further.
//
// The hysteresis timers run on the setpoint's own timestamp, not the loop
// clock, so confirmation follows the cadence of valid setpoints.
func (g *GestureDetector) Update(sp *Setpoint) (armEdge, disarmEdge bool) {
	rightStickCentered := math.Abs(sp.X) < StickDeadband && math.Abs(sp.Y) < StickDeadband
	stickLowerLeft := sp.Z < LowThrottle && sp.R < -YawExtreme
	stickLowerRight := sp.Z < LowThrottle && sp.R > YawExtreme

	g.arm.SetStateAndUpdate(stickLowerRight && rightStickCentered, sp.Time)
	g.disarm.SetStateAndUpdate(stickLowerLeft && rightStickCentered, sp.Time)

	sp.ArmGesture = g.arm.State()
	sp.DisarmGesture = g.disarm.State()

	armEdge = sp.ArmGesture && !g.prevArm
	disarmEdge = sp.DisarmGesture && !g.prevDisarm
	g.prevArm = sp.ArmGesture
	g.prevDisarm = sp.DisarmGesture
	return armEdge, disarmEdge
}
