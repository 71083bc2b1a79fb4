// Package logic contains pure arbitration logic for manual control inputs.
// This package has NO external dependencies (no MQTT, GPIO, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"math"
	"time"
)

// MaxInputs is the number of input slots the selector tracks.
const MaxInputs = 3

// Stick geometry thresholds, as fractions of full range.
const (
	// StickDeadband bounds |x| and |y| for the right stick to count as centered.
	StickDeadband = 0.1
	// LowThrottle is the z threshold below which throttle counts as low.
	LowThrottle = 0.1
	// YawExtreme is the |r| threshold for a full yaw deflection.
	YawExtreme = 0.9
)

// DataSource identifies the origin of an input sample.
type DataSource uint8

const (
	SourceUnknown DataSource = iota
	SourceRC                 // radio control link
	SourceApp                // companion/ground app
	SourceSim                // simulated input
)

// String returns the wire name of the source.
func (s DataSource) String() string {
	switch s {
	case SourceRC:
		return "rc"
	case SourceApp:
		return "app"
	case SourceSim:
		return "sim"
	}
	return "unknown"
}

// SourceFromString parses a wire name into a DataSource.
// Unrecognized names map to SourceUnknown.
func SourceFromString(s string) DataSource {
	switch s {
	case "rc":
		return SourceRC
	case "app":
		return SourceApp
	case "sim":
		return SourceSim
	}
	return SourceUnknown
}

// InputSample is one raw reading from one input source.
// X, Y, R are in [-1, 1]; Z is in [0, 1]. Immutable once received.
type InputSample struct {
	Time   time.Time
	X      float64
	Y      float64
	Z      float64
	R      float64
	Source DataSource
	Valid  bool
}

// SwitchSample carries discrete switch/button states accompanying a source.
type SwitchSample struct {
	Time    time.Time
	Source  DataSource
	Kill    bool // kill/arm-enable switch engaged
	Buttons uint32
}

// Setpoint is the single authoritative control output for one cycle.
type Setpoint struct {
	Time          time.Time
	X             float64
	Y             float64
	Z             float64
	R             float64
	Source        DataSource
	Valid         bool
	ArmGesture    bool
	DisarmGesture bool
	UserOverride  bool
}

// SlotSample pairs an input sample with the slot it arrived on.
type SlotSample struct {
	Slot   int
	Sample InputSample
}

// CommandOrigin tags where an arm/disarm command came from.
type CommandOrigin string

const (
	OriginStickGesture CommandOrigin = "stick-gesture"
	OriginKillSwitch   CommandOrigin = "kill-switch"
)

// Command is a fire-and-forget arm/disarm request toward the command sink.
type Command struct {
	Time   time.Time
	Arm    bool // true = arm, false = disarm
	Origin CommandOrigin
}

// Counts tracks arbitration events since startup.
type Counts struct {
	ArmCommands    int
	DisarmCommands int
	OverrideCycles int
	Invalidations  int
	SourceChanges  int
}

// unknownAxis is the sentinel for "no previous value" and for the axes of a
// setpoint that has been invalid for more than one cycle. NaN rather than
// zero so it can never be mistaken for a valid centered stick.
func unknownAxis() float64 {
	return math.NaN()
}
