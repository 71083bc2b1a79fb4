package status

import (
	"encoding/json"
	"math"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Selected      int          `json:"selected"`
	Setpoint      SetpointJSON `json:"setpoint"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Loop          LoopJSON     `json:"loop"`
	Config        ConfigJSON   `json:"config"`
}

// SetpointJSON is the JSON representation of the current setpoint.
// Axes are pointers so an unknown axis serializes as null rather than
// breaking the encoder with a NaN.
type SetpointJSON struct {
	Valid         bool     `json:"valid"`
	Source        string   `json:"source"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
	Z             *float64 `json:"z"`
	R             *float64 `json:"r"`
	ArmGesture    bool     `json:"arm_gesture"`
	DisarmGesture bool     `json:"disarm_gesture"`
	UserOverride  bool     `json:"user_override"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ArmCommands    int `json:"arm_commands"`
	DisarmCommands int `json:"disarm_commands"`
	OverrideCycles int `json:"override_cycles"`
	Invalidations  int `json:"invalidations"`
	SourceChanges  int `json:"source_changes"`
}

// LoopJSON is the JSON representation of loop timing.
type LoopJSON struct {
	Cycles int64   `json:"cycles"`
	LastMs float64 `json:"last_ms"`
	AvgMs  float64 `json:"avg_ms"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PeriodMs        int64   `json:"period_ms"`
	SourceTimeoutMs int64   `json:"source_timeout_ms"`
	GestureHoldMs   int64   `json:"gesture_hold_ms"`
	OverridePercent float64 `json:"override_percent"`
	InputMode       string  `json:"input_mode"`
	Broker          string  `json:"broker"`
	HTTPAddr        string  `json:"http_addr"`
}

func axis(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func buildInner(snap Snapshot) StatusInner {
	sp := snap.Setpoint
	return StatusInner{
		Selected: snap.Selected,
		Setpoint: SetpointJSON{
			Valid:         sp.Valid,
			Source:        sp.Source.String(),
			X:             axis(sp.X),
			Y:             axis(sp.Y),
			Z:             axis(sp.Z),
			R:             axis(sp.R),
			ArmGesture:    sp.ArmGesture,
			DisarmGesture: sp.DisarmGesture,
			UserOverride:  sp.UserOverride,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ArmCommands:    snap.Counts.ArmCommands,
			DisarmCommands: snap.Counts.DisarmCommands,
			OverrideCycles: snap.Counts.OverrideCycles,
			Invalidations:  snap.Counts.Invalidations,
			SourceChanges:  snap.Counts.SourceChanges,
		},
		Loop: LoopJSON{
			Cycles: snap.Loop.Cycles,
			LastMs: float64(snap.Loop.Last) / float64(time.Millisecond),
			AvgMs:  float64(snap.Loop.Average()) / float64(time.Millisecond),
		},
		Config: ConfigJSON{
			PeriodMs:        snap.Config.PeriodMs,
			SourceTimeoutMs: snap.Config.SourceTimeoutMs,
			GestureHoldMs:   snap.Config.GestureHoldMs,
			OverridePercent: snap.Config.OverridePercent,
			InputMode:       snap.Config.InputMode,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// SetpointEnvelope is the JSON payload for the setpoint endpoint. It
// carries only what a poller sampling the arbitration output needs.
type SetpointEnvelope struct {
	Selected  int          `json:"selected"`
	Setpoint  SetpointJSON `json:"setpoint"`
	Timestamp string       `json:"timestamp"`
}

// FormatSetpoint returns just the selected slot and current setpoint.
func FormatSetpoint(snap Snapshot) []byte {
	inner := buildInner(snap)
	env := SetpointEnvelope{
		Selected:  inner.Selected,
		Setpoint:  inner.Setpoint,
		Timestamp: inner.Timestamp,
	}
	data, _ := json.MarshalIndent(env, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
