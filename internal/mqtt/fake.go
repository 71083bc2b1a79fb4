package mqtt

import (
	"github.com/sweeney/manual-control/internal/logic"
)

// ScriptedCycle is one cycle's worth of inbound samples for FakeTransport.
type ScriptedCycle struct {
	Inputs   []logic.SlotSample
	Switches *logic.SwitchSample
}

// FakeTransport is a test double: Poll consumes scripted cycles, publishes
// are recorded for assertions. After the script is exhausted Poll returns
// nothing, which models the sources going silent.
type FakeTransport struct {
	// Cycles contains the scripted inbound samples, one entry per Poll.
	Cycles []ScriptedCycle

	// index tracks the current position in Cycles.
	index int

	// Setpoints contains all published setpoints.
	Setpoints []logic.Setpoint

	// SetpointPayloads contains the JSON payloads of published setpoints.
	SetpointPayloads [][]byte

	// Commands contains all published commands.
	Commands []logic.Command

	// CommandPayloads contains the JSON payloads of published commands.
	CommandPayloads [][]byte

	// SystemEvents contains all published system events.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads of system events.
	SystemPayloads [][]byte

	// Watched records every Watch call.
	Watched []int

	// PublishError, if set, is returned by PublishSetpoint and PublishCommand.
	PublishError error

	// PublishSystemError, if set, is returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	wake chan struct{}
}

// NewFakeTransport creates a FakeTransport with the given scripted cycles.
func NewFakeTransport(cycles []ScriptedCycle) *FakeTransport {
	return &FakeTransport{
		Cycles: cycles,
		wake:   make(chan struct{}, 1),
	}
}

// Poll returns the next scripted cycle, or nothing once exhausted.
func (f *FakeTransport) Poll() ([]logic.SlotSample, *logic.SwitchSample) {
	if f.index >= len(f.Cycles) {
		return nil, nil
	}
	c := f.Cycles[f.index]
	f.index++
	return c.Inputs, c.Switches
}

// Watch records the watched slot.
func (f *FakeTransport) Watch(slot int) {
	f.Watched = append(f.Watched, slot)
}

// Wake returns the wake channel; tests signal it with PushWake.
func (f *FakeTransport) Wake() <-chan struct{} {
	return f.wake
}

// PushWake signals the wake channel without blocking.
func (f *FakeTransport) PushWake() {
	select {
	case f.wake <- struct{}{}:
	default:
	}
}

// PublishSetpoint records the setpoint.
func (f *FakeTransport) PublishSetpoint(sp logic.Setpoint) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Setpoints = append(f.Setpoints, sp)

	payload, err := FormatSetpoint(sp)
	if err != nil {
		return err
	}
	f.SetpointPayloads = append(f.SetpointPayloads, payload)
	return nil
}

// PublishCommand records the command.
func (f *FakeTransport) PublishCommand(cmd logic.Command) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Commands = append(f.Commands, cmd)

	payload, err := FormatCommand(cmd)
	if err != nil {
		return err
	}
	f.CommandPayloads = append(f.CommandPayloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakeTransport) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// IsConnected reports whether the fake transport is "connected".
func (f *FakeTransport) IsConnected() bool {
	return f.Connected
}

// Close marks the transport as closed.
func (f *FakeTransport) Close() error {
	f.Closed = true
	return nil
}

// Reset clears recorded traffic and rewinds the script.
func (f *FakeTransport) Reset() {
	f.index = 0
	f.Setpoints = nil
	f.SetpointPayloads = nil
	f.Commands = nil
	f.CommandPayloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Watched = nil
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Closed = false
	f.Connected = false
}
