package logic

import (
	"math"
	"testing"
	"time"
)

func validSample(source DataSource, ts time.Time) InputSample {
	return InputSample{Time: ts, X: 0.1, Y: 0.2, Z: 0.5, R: 0.3, Source: source, Valid: true}
}

func TestSelectorNoInput(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())

	if s.Instance() != -1 {
		t.Errorf("expected instance -1, got %d", s.Instance())
	}
	if s.Setpoint().Valid {
		t.Error("expected invalid setpoint with no input")
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.UpdateTimeOnly(now)
	if s.Instance() != -1 || s.Setpoint().Valid {
		t.Error("time-only update must not produce a selection")
	}
}

func TestSelectorSelectsFirstValid(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceApp, now), 1)

	if s.Instance() != 1 {
		t.Fatalf("expected instance 1, got %d", s.Instance())
	}
	sp := s.Setpoint()
	if !sp.Valid {
		t.Fatal("expected valid setpoint")
	}
	if sp.Source != SourceApp {
		t.Errorf("expected source app, got %s", sp.Source)
	}
	if sp.X != 0.1 || sp.Y != 0.2 || sp.Z != 0.5 || sp.R != 0.3 {
		t.Errorf("setpoint axes not copied from winning sample: %+v", sp)
	}
	if !sp.Time.Equal(now) {
		t.Errorf("setpoint should carry the sample timestamp, got %v", sp.Time)
	}
}

func TestSelectorFirstValidIsSticky(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceApp, now), 1)

	// A lower slot coming alive must not steal selection while slot 1 is live.
	s.UpdateSlot(now.Add(100*time.Millisecond), validSample(SourceRC, now.Add(100*time.Millisecond)), 0)
	if s.Instance() != 1 {
		t.Errorf("first-valid selection must be sticky, got instance %d", s.Instance())
	}

	// Keep slot 0 alive while slot 1 goes silent: selection fails over.
	for i := 1; i <= 8; i++ {
		ts := now.Add(time.Duration(i) * 200 * time.Millisecond)
		s.UpdateSlot(ts, validSample(SourceRC, ts), 0)
	}
	if s.Instance() != 0 {
		t.Errorf("expected failover to slot 0 after slot 1 went stale, got %d", s.Instance())
	}
	if s.Setpoint().Source != SourceRC {
		t.Errorf("expected source rc after failover, got %s", s.Setpoint().Source)
	}
}

func TestSelectorPriorityPreempts(t *testing.T) {
	s := NewSelector(500*time.Millisecond, PriorityOrder())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceApp, now), 2)
	if s.Instance() != 2 {
		t.Fatalf("expected instance 2, got %d", s.Instance())
	}

	s.UpdateSlot(now.Add(100*time.Millisecond), validSample(SourceRC, now.Add(100*time.Millisecond)), 0)
	if s.Instance() != 0 {
		t.Errorf("higher-priority live slot must preempt, got instance %d", s.Instance())
	}
}

func TestSelectorFixedInstance(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FixedInstance(1))
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceRC, now), 0)
	if s.Instance() != -1 {
		t.Errorf("fixed:1 must ignore slot 0, got instance %d", s.Instance())
	}

	s.UpdateSlot(now, validSample(SourceApp, now), 1)
	if s.Instance() != 1 {
		t.Errorf("expected instance 1, got %d", s.Instance())
	}
}

func TestSelectorIgnoresInvalidSamples(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	sample := validSample(SourceRC, now)
	sample.Valid = false
	s.UpdateSlot(now, sample, 0)

	if s.Instance() != -1 || s.Setpoint().Valid {
		t.Error("invalid sample must not win selection")
	}
}

func TestSelectorIgnoresOutOfRangeSlot(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceRC, now), MaxInputs)
	s.UpdateSlot(now, validSample(SourceRC, now), -1)

	if s.Instance() != -1 {
		t.Errorf("out-of-range slot must be ignored, got instance %d", s.Instance())
	}
}

func TestSelectorTimeoutInvalidates(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceRC, now), 0)

	// Within the timeout the selection holds without new data.
	s.UpdateTimeOnly(now.Add(400 * time.Millisecond))
	if s.Instance() != 0 || !s.Setpoint().Valid {
		t.Fatal("selection must hold within the timeout")
	}

	s.UpdateTimeOnly(now.Add(600 * time.Millisecond))
	if s.Instance() != -1 {
		t.Errorf("expected instance -1 after timeout, got %d", s.Instance())
	}
	if s.Setpoint().Valid {
		t.Error("expected invalid setpoint after timeout")
	}
}

func TestSelectorUpdateTimeOnlyIdempotent(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceRC, now), 0)

	for i := 0; i < 20; i++ {
		s.UpdateTimeOnly(now.Add(450 * time.Millisecond))
		if s.Instance() != 0 {
			t.Fatalf("call %d: repeated time-only updates changed selection", i)
		}
	}
}

func TestSelectorAxesClearedOnSecondInvalidCycle(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	s.UpdateSlot(now, validSample(SourceRC, now), 0)

	// First invalid evaluation keeps the last axes for the one-shot publish.
	s.UpdateTimeOnly(now.Add(600 * time.Millisecond))
	sp := s.Setpoint()
	if sp.Valid {
		t.Fatal("expected invalid setpoint")
	}
	if math.IsNaN(sp.X) {
		t.Error("first invalid cycle should keep the last axis values")
	}

	// Second invalid evaluation clears to the NaN sentinel.
	s.UpdateTimeOnly(now.Add(800 * time.Millisecond))
	sp = s.Setpoint()
	if !math.IsNaN(sp.X) || !math.IsNaN(sp.Y) || !math.IsNaN(sp.Z) || !math.IsNaN(sp.R) {
		t.Errorf("expected NaN axes on invalid-to-invalid cycle, got %+v", sp)
	}
}

// Scenario from the failover requirements: slot 0 sends valid samples for 5
// cycles at 200ms then stops; with a 500ms timeout the setpoint is invalid
// by cycle 8.
func TestSelectorSourceLossScenario(t *testing.T) {
	s := NewSelector(500*time.Millisecond, FirstValid())
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	period := 200 * time.Millisecond

	for cycle := 0; cycle < 10; cycle++ {
		now := start.Add(time.Duration(cycle) * period)
		if cycle < 5 {
			s.UpdateSlot(now, validSample(SourceRC, now), 0)
		} else {
			s.UpdateTimeOnly(now)
		}

		switch {
		case cycle < 5:
			if s.Instance() != 0 {
				t.Fatalf("cycle %d: expected instance 0, got %d", cycle, s.Instance())
			}
		case cycle >= 8:
			// Last sample at cycle 4 (800ms); 500ms of silence elapses
			// within cycle 7 (1400ms), so cycle 8 must be invalid.
			if s.Instance() != -1 || s.Setpoint().Valid {
				t.Fatalf("cycle %d: expected invalid setpoint, instance -1", cycle)
			}
		}
	}
}

func TestStrategyNames(t *testing.T) {
	tests := []struct {
		strategy Strategy
		want     string
	}{
		{FirstValid(), "first-valid"},
		{PriorityOrder(), "priority"},
		{FixedInstance(2), "fixed:2"},
	}
	for _, tt := range tests {
		if got := tt.strategy.Name(); got != tt.want {
			t.Errorf("Name(): got %q, want %q", got, tt.want)
		}
	}
}
