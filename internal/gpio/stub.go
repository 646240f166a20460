//go:build !linux

package gpio

import "codeberg.org/mutker/kscand/internal/errors"

// RealReader is not available on non-Linux platforms.
type RealReader struct{}

// NewRealReader returns a reader whose reads always fail.
func NewRealReader() *RealReader {
	return &RealReader{}
}

// ReadPin is not implemented on non-Linux platforms.
func (r *RealReader) ReadPin(_ string, _ uint32) (bool, error) {
	return false, errors.New().WithMessage(ErrNotSupported,
		"gpio requires the Linux character device")
}

// Close is a no-op on non-Linux platforms.
func (r *RealReader) Close() error {
	return nil
}
