package gpio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFakeReaderScriptedLevels(t *testing.T) {
	f := NewFakeReader(map[string]map[uint32]bool{
		"gpiochip0": {4: true},
	})

	state, err := f.ReadPin("gpiochip0", 4)
	assert.NoError(t, err)
	assert.True(t, state)

	state, err = f.ReadPin("gpiochip0", 5)
	assert.NoError(t, err)
	assert.False(t, state, "unscripted pins read low")

	state, err = f.ReadPin("gpiochip1", 4)
	assert.NoError(t, err)
	assert.False(t, state)

	assert.Equal(t, 3, f.Reads)
}

func TestFakeReaderError(t *testing.T) {
	f := NewFakeReader(nil)
	f.ReadError = assert.AnError

	_, err := f.ReadPin("gpiochip0", 0)
	assert.Error(t, err)
}

func TestFakeReaderClose(t *testing.T) {
	f := NewFakeReader(nil)
	assert.NoError(t, f.Close())
	assert.True(t, f.Closed)
}
