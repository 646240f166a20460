//go:build linux

package gpio

import (
	"sync"

	"codeberg.org/mutker/kscand/internal/errors"
	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads pins through the Linux GPIO character device. Chips are
// opened lazily and cached; lines are requested per read so the scan
// driver keeps ownership between diagnostic probes.
type RealReader struct {
	mu    sync.Mutex
	chips map[string]*gpiocdev.Chip
}

// NewRealReader creates a reader for actual hardware.
func NewRealReader() *RealReader {
	return &RealReader{chips: make(map[string]*gpiocdev.Chip)}
}

// ReadPin returns the current logical level of the pin.
func (r *RealReader) ReadPin(chip string, pin uint32) (bool, error) {
	errFactory := errors.New()

	r.mu.Lock()
	c, ok := r.chips[chip]
	if !ok {
		var err error
		c, err = gpiocdev.NewChip(chip)
		if err != nil {
			r.mu.Unlock()
			return false, errFactory.Wrap(ErrChipOpenFailed, err)
		}
		r.chips[chip] = c
	}
	r.mu.Unlock()

	line, err := c.RequestLine(int(pin), gpiocdev.AsInput)
	if err != nil {
		return false, errFactory.Wrap(ErrLineRequestFailed, err)
	}
	defer line.Close()

	value, err := line.Value()
	if err != nil {
		return false, errFactory.Wrap(ErrReadFailed, err)
	}

	return value != 0, nil
}

// Close releases all opened chips.
func (r *RealReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	errFactory := errors.New()
	var firstErr error
	for name, c := range r.chips {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = errFactory.Wrap(ErrChipOpenFailed, err).WithData(name)
		}
		delete(r.chips, name)
	}
	return firstErr
}
