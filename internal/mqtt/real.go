package mqtt

import (
	"fmt"
	"log"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/manual-control/internal/logic"
)

// RealTransport talks to an actual MQTT broker. Inbound samples land in
// per-topic mailboxes; the loop drains them with Poll once per cycle.
type RealTransport struct {
	client   paho.Client
	inputs   [logic.MaxInputs]mailbox[logic.InputSample]
	switches mailbox[logic.SwitchSample]
	wake     chan struct{}
	watched  atomic.Int32
}

// NewRealTransport connects to the given broker and subscribes to all input
// slots plus the switch channel. Subscriptions are re-established on
// reconnect.
func NewRealTransport(broker string) (*RealTransport, error) {
	t := &RealTransport{wake: make(chan struct{}, 1)}
	t.watched.Store(-1)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("manual-control").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(t.subscribeAll)

	client := paho.NewClient(opts)
	t.client = client

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	return t, nil
}

func (t *RealTransport) subscribeAll(client paho.Client) {
	for i := 0; i < logic.MaxInputs; i++ {
		topic := InputTopic(i)
		if token := client.Subscribe(topic, 0, t.handleInput); token.WaitTimeout(5*time.Second) && token.Error() != nil {
			log.Printf("mqtt: subscribe %s: %v", topic, token.Error())
		}
	}
	if token := client.Subscribe(TopicSwitches, 0, t.handleSwitches); token.WaitTimeout(5*time.Second) && token.Error() != nil {
		log.Printf("mqtt: subscribe %s: %v", TopicSwitches, token.Error())
	}
}

func (t *RealTransport) handleInput(_ paho.Client, msg paho.Message) {
	slot, ok := SlotFromTopic(msg.Topic())
	if !ok {
		return
	}
	sample, err := ParseInput(msg.Payload())
	if err != nil {
		log.Printf("mqtt: %s: %v", msg.Topic(), err)
		return
	}
	t.inputs[slot].put(sample)
	if int(t.watched.Load()) == slot {
		t.notify()
	}
}

func (t *RealTransport) handleSwitches(_ paho.Client, msg paho.Message) {
	sample, err := ParseSwitches(msg.Payload())
	if err != nil {
		log.Printf("mqtt: %s: %v", msg.Topic(), err)
		return
	}
	t.switches.put(sample)
	// The switch channel is always watched.
	t.notify()
}

func (t *RealTransport) notify() {
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// Poll drains all pending samples.
func (t *RealTransport) Poll() ([]logic.SlotSample, *logic.SwitchSample) {
	var inputs []logic.SlotSample
	for i := 0; i < logic.MaxInputs; i++ {
		if sample, ok := t.inputs[i].take(); ok {
			inputs = append(inputs, logic.SlotSample{Slot: i, Sample: sample})
		}
	}
	var switches *logic.SwitchSample
	if sw, ok := t.switches.take(); ok {
		switches = &sw
	}
	return inputs, switches
}

// Watch registers wake interest on the given slot.
func (t *RealTransport) Watch(slot int) {
	t.watched.Store(int32(slot))
}

// Wake is signalled when a watched channel receives a sample.
func (t *RealTransport) Wake() <-chan struct{} {
	return t.wake
}

// PublishSetpoint sends the setpoint to the broker.
// QoS 0 (at-most-once): cyclic data, the next cycle supersedes it.
func (t *RealTransport) PublishSetpoint(sp logic.Setpoint) error {
	payload, err := FormatSetpoint(sp)
	if err != nil {
		return fmt.Errorf("format setpoint: %w", err)
	}

	token := t.client.Publish(TopicSetpoint, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish setpoint: %w", err)
	}
	return nil
}

// PublishCommand sends an arm/disarm command to the broker.
// QoS 1 (at-least-once): commands are safety-relevant and must arrive.
func (t *RealTransport) PublishCommand(cmd logic.Command) error {
	payload, err := FormatCommand(cmd)
	if err != nil {
		return fmt.Errorf("format command: %w", err)
	}

	token := t.client.Publish(TopicCommand, 1, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish command: %w", err)
	}
	return nil
}

// PublishSystem sends a system lifecycle event to the broker.
func (t *RealTransport) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	token := t.client.Publish(TopicSystem, 1, event.Retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish system timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish system: %w", err)
	}
	return nil
}

// IsConnected reports whether the broker connection is open.
func (t *RealTransport) IsConnected() bool {
	return t.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (t *RealTransport) Close() error {
	t.client.Disconnect(1000) // 1 second timeout
	return nil
}
