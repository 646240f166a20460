// Package gpio provides one-shot GPIO pin reads with hardware abstraction.
// The real implementation uses the Linux GPIO character device; the fake
// implementation allows testing without hardware.
package gpio

import "codeberg.org/mutker/kscand/internal/errors"

const (
	ErrChipOpenFailed    = errors.ErrorCode("gpio_chip_open_failed")
	ErrLineRequestFailed = errors.ErrorCode("gpio_line_request_failed")
	ErrReadFailed        = errors.ErrorCode("gpio_read_failed")
	ErrNotSupported      = errors.ErrorCode("gpio_not_supported")
)

// Reader performs diagnostic reads of individual scan-line pins.
type Reader interface {
	// ReadPin returns the current logical level of the given pin on the
	// named GPIO chip. The line is requested as input for the duration
	// of the read and released afterwards.
	ReadPin(chip string, pin uint32) (bool, error)

	// Close releases GPIO resources.
	Close() error
}
