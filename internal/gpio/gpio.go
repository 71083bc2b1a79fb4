// Package gpio provides GPIO input reading with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the hardware kill-switch state.
type Reader interface {
	// Read returns whether the kill switch is engaged.
	// Raw active (1) = engaged.
	Read() (bool, error)

	// Close releases GPIO resources.
	Close() error
}

// DefaultPinKill is the default BCM pin for the kill switch.
const DefaultPinKill = 17

// DefaultChip is the default GPIO character device.
const DefaultChip = "gpiochip0"
