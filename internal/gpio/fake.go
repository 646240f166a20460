package gpio

import "codeberg.org/mutker/kscand/internal/errors"

// FakeReader is a test double returning scripted pin levels.
type FakeReader struct {
	// Levels maps "chip" -> pin -> level. Missing pins read as low.
	Levels map[string]map[uint32]bool

	// ReadError, if set, is returned by every ReadPin call.
	ReadError error

	// Closed tracks whether Close was called.
	Closed bool

	// Reads counts ReadPin invocations.
	Reads int
}

// NewFakeReader creates a FakeReader with the given levels.
func NewFakeReader(levels map[string]map[uint32]bool) *FakeReader {
	return &FakeReader{Levels: levels}
}

// ReadPin returns the scripted level for the pin.
func (f *FakeReader) ReadPin(chip string, pin uint32) (bool, error) {
	f.Reads++
	if f.ReadError != nil {
		return false, errors.New().Wrap(ErrReadFailed, f.ReadError)
	}
	return f.Levels[chip][pin], nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}
