// Package status provides a thread-safe status tracker for the
// manual-control daemon. It is read by HTTP handlers and serialized into
// system lifecycle events.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/manual-control/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PeriodMs        int64
	SourceTimeoutMs int64
	GestureHoldMs   int64
	OverridePercent float64
	InputMode       string
	Broker          string
	HTTPAddr        string
}

// LoopStats tracks arbitration loop timing.
type LoopStats struct {
	Cycles int64
	Last   time.Duration
	Total  time.Duration
}

// Average returns the mean cycle duration.
func (l LoopStats) Average() time.Duration {
	if l.Cycles == 0 {
		return 0
	}
	return l.Total / time.Duration(l.Cycles)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Setpoint      logic.Setpoint
	Selected      int
	Counts        logic.Counts
	Loop          LoopStats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Selected:  -1,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the current setpoint, selected slot and event counts.
// Called from the loop on every cycle.
func (t *Tracker) Update(sp logic.Setpoint, selected int, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Setpoint = sp
	t.snap.Selected = selected
	t.snap.Counts = counts
	t.mu.Unlock()
}

// ObserveCycle records the duration of one arbitration cycle.
func (t *Tracker) ObserveCycle(d time.Duration) {
	t.mu.Lock()
	t.snap.Loop.Cycles++
	t.snap.Loop.Last = d
	t.snap.Loop.Total += d
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetConfig replaces the displayed configuration after a hot reload.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
