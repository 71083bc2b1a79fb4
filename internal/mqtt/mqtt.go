// Package mqtt provides the pub/sub transport for manual control samples,
// setpoints and commands, with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sweeney/manual-control/internal/logic"
)

// TopicInputPrefix is the per-slot input topic prefix; the slot index is appended.
const TopicInputPrefix = "manual/input/"

// TopicSwitches is the topic carrying switch/button samples.
const TopicSwitches = "manual/switches"

// TopicSetpoint is the topic the authoritative setpoint is published on.
const TopicSetpoint = "manual/setpoint"

// TopicCommand is the topic arm/disarm commands are published on.
const TopicCommand = "manual/command"

// TopicSystem is the topic for system lifecycle events.
const TopicSystem = "manual/system"

// InputTopic returns the input topic for the given slot.
func InputTopic(slot int) string {
	return TopicInputPrefix + strconv.Itoa(slot)
}

// SlotFromTopic extracts the slot index from an input topic.
func SlotFromTopic(topic string) (int, bool) {
	rest, ok := strings.CutPrefix(topic, TopicInputPrefix)
	if !ok {
		return 0, false
	}
	slot, err := strconv.Atoi(rest)
	if err != nil || slot < 0 || slot >= logic.MaxInputs {
		return 0, false
	}
	return slot, true
}

// Transport is what the arbitration loop needs each cycle: non-blocking
// "latest value or nothing" ingress and one-shot egress.
type Transport interface {
	// Poll drains the pending input and switch samples. Each sample is
	// returned at most once; an empty result means nothing arrived since
	// the previous call.
	Poll() ([]logic.SlotSample, *logic.SwitchSample)

	// Watch registers wake interest on the given slot. Only the watched
	// slot and the switch channel trigger Wake; unwatched slots still fill
	// their mailboxes silently. Pass -1 to watch no slot.
	Watch(slot int)

	// Wake is signalled when a sample arrives on a watched channel.
	Wake() <-chan struct{}

	// PublishSetpoint sends the cycle's setpoint. At most once per cycle.
	PublishSetpoint(sp logic.Setpoint) error

	// PublishCommand sends an arm/disarm command. Fire and forget: the
	// caller does not wait for acknowledgement beyond broker delivery.
	PublishCommand(cmd logic.Command) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the broker connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// InputPayload is the wire envelope for one input sample.
type InputPayload struct {
	Input InputInner `json:"input"`
}

// InputInner contains the input sample fields.
type InputInner struct {
	Timestamp string  `json:"timestamp"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	R         float64 `json:"r"`
	Source    string  `json:"source"`
	Valid     bool    `json:"valid"`
}

// ParseInput decodes an input sample from its wire payload.
func ParseInput(payload []byte) (logic.InputSample, error) {
	var p InputPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return logic.InputSample{}, fmt.Errorf("decode input: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Input.Timestamp)
	if err != nil {
		return logic.InputSample{}, fmt.Errorf("decode input timestamp: %w", err)
	}
	return logic.InputSample{
		Time:   ts,
		X:      p.Input.X,
		Y:      p.Input.Y,
		Z:      p.Input.Z,
		R:      p.Input.R,
		Source: logic.SourceFromString(p.Input.Source),
		Valid:  p.Input.Valid,
	}, nil
}

// FormatInput encodes an input sample. Used by tests and simulators.
func FormatInput(sample logic.InputSample) ([]byte, error) {
	p := InputPayload{
		Input: InputInner{
			Timestamp: sample.Time.UTC().Format(time.RFC3339Nano),
			X:         sample.X,
			Y:         sample.Y,
			Z:         sample.Z,
			R:         sample.R,
			Source:    sample.Source.String(),
			Valid:     sample.Valid,
		},
	}
	return json.Marshal(p)
}

// SwitchPayload is the wire envelope for one switch sample.
type SwitchPayload struct {
	Switches SwitchInner `json:"switches"`
}

// SwitchInner contains the switch sample fields.
type SwitchInner struct {
	Timestamp string `json:"timestamp"`
	Source    string `json:"source"`
	Kill      bool   `json:"kill"`
	Buttons   uint32 `json:"buttons"`
}

// ParseSwitches decodes a switch sample from its wire payload.
func ParseSwitches(payload []byte) (logic.SwitchSample, error) {
	var p SwitchPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return logic.SwitchSample{}, fmt.Errorf("decode switches: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, p.Switches.Timestamp)
	if err != nil {
		return logic.SwitchSample{}, fmt.Errorf("decode switches timestamp: %w", err)
	}
	return logic.SwitchSample{
		Time:    ts,
		Source:  logic.SourceFromString(p.Switches.Source),
		Kill:    p.Switches.Kill,
		Buttons: p.Switches.Buttons,
	}, nil
}

// FormatSwitches encodes a switch sample. Used by tests and simulators.
func FormatSwitches(sample logic.SwitchSample) ([]byte, error) {
	p := SwitchPayload{
		Switches: SwitchInner{
			Timestamp: sample.Time.UTC().Format(time.RFC3339Nano),
			Source:    sample.Source.String(),
			Kill:      sample.Kill,
			Buttons:   sample.Buttons,
		},
	}
	return json.Marshal(p)
}

// SetpointPayload is the wire envelope for the published setpoint.
type SetpointPayload struct {
	Setpoint SetpointInner `json:"setpoint"`
}

// SetpointInner contains the setpoint fields. Axes are pointers so the NaN
// sentinel of an invalidated setpoint serializes as null.
type SetpointInner struct {
	Timestamp     string   `json:"timestamp"`
	X             *float64 `json:"x"`
	Y             *float64 `json:"y"`
	Z             *float64 `json:"z"`
	R             *float64 `json:"r"`
	Source        string   `json:"source"`
	Valid         bool     `json:"valid"`
	ArmGesture    bool     `json:"arm_gesture"`
	DisarmGesture bool     `json:"disarm_gesture"`
	UserOverride  bool     `json:"user_override"`
}

func axis(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// FormatSetpoint creates the JSON payload for a setpoint.
func FormatSetpoint(sp logic.Setpoint) ([]byte, error) {
	p := SetpointPayload{
		Setpoint: SetpointInner{
			Timestamp:     sp.Time.UTC().Format(time.RFC3339Nano),
			X:             axis(sp.X),
			Y:             axis(sp.Y),
			Z:             axis(sp.Z),
			R:             axis(sp.R),
			Source:        sp.Source.String(),
			Valid:         sp.Valid,
			ArmGesture:    sp.ArmGesture,
			DisarmGesture: sp.DisarmGesture,
			UserOverride:  sp.UserOverride,
		},
	}
	return json.Marshal(p)
}

// CommandPayload is the wire envelope for an arm/disarm command.
type CommandPayload struct {
	Command CommandInner `json:"command"`
}

// CommandInner contains the command fields. Param follows the arm=1.0 /
// disarm=0.0 convention of the downstream command consumer.
type CommandInner struct {
	Timestamp string  `json:"timestamp"`
	Param     float64 `json:"param"`
	Origin    string  `json:"origin"`
}

// FormatCommand creates the JSON payload for a command.
func FormatCommand(cmd logic.Command) ([]byte, error) {
	param := 0.0
	if cmd.Arm {
		param = 1.0
	}
	p := CommandPayload{
		Command: CommandInner{
			Timestamp: cmd.Time.UTC().Format(time.RFC3339Nano),
			Param:     param,
			Origin:    string(cmd.Origin),
		},
	}
	return json.Marshal(p)
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
