package logic

import "time"

// Hysteresis debounces a boolean: the confirmed state only follows the
// candidate after the candidate has held steady for the hold duration
// configured for the direction of the change. A zero hold duration makes
// that direction flip immediately.
type Hysteresis struct {
	confirmed     bool
	candidate     bool
	holdFromFalse time.Duration // required hold for a false -> true flip
	holdFromTrue  time.Duration // required hold for a true -> false flip
	changedAt     time.Time     // when the candidate last changed value
}

// NewHysteresis returns a Hysteresis with both candidate and confirmed
// set to the initial state and zero hold durations.
func NewHysteresis(initial bool) *Hysteresis {
	return &Hysteresis{confirmed: initial, candidate: initial}
}

// SetHoldFrom sets the hold duration required to leave the given confirmed
// state. SetHoldFrom(false, d) delays false -> true confirmation by d.
func (h *Hysteresis) SetHoldFrom(state bool, d time.Duration) {
	if state {
		h.holdFromTrue = d
	} else {
		h.holdFromFalse = d
	}
}

// SetStateAndUpdate records the candidate state and advances the timer.
// Deterministic and idempotent for monotonically non-decreasing now.
func (h *Hysteresis) SetStateAndUpdate(candidate bool, now time.Time) {
	if candidate != h.candidate {
		h.candidate = candidate
		h.changedAt = now
	}

	if h.candidate == h.confirmed {
		return
	}

	hold := h.holdFromFalse
	if h.confirmed {
		hold = h.holdFromTrue
	}
	if now.Sub(h.changedAt) >= hold {
		h.confirmed = h.candidate
	}
}

// State returns the confirmed (debounced) value.
func (h *Hysteresis) State() bool {
	return h.confirmed
}
