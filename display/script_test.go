package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScriptRecords(t *testing.T) {
	assert := assert.New(t)

	sc := &Script{}

	sc.RequestRedraw()
	sc.Clear()
	sc.SetAudioEnabled(true)

	assert.Equal([]ScriptEntry{
		{Op: SCRIPT_REDRAW},
		{Op: SCRIPT_CLEAR},
		{Op: SCRIPT_AUDIO, On: true},
	}, sc.Recorded)
	assert.Equal(1, sc.Redraws())
}

func TestScriptKeys(t *testing.T) {
	assert := assert.New(t)

	sc := &Script{}
	sc.PressKeys(0x5, 0xA)

	assert.True(sc.IsKeyPressed(0x5))
	assert.False(sc.IsKeyPressed(0x0))

	key, err := sc.WaitForKeyRelease()
	assert.NoError(err)
	assert.Equal(uint8(0x5), key)

	key, err = sc.WaitForKeyRelease()
	assert.NoError(err)
	assert.Equal(uint8(0xA), key)

	_, err = sc.WaitForKeyRelease()
	assert.ErrorIs(err, ErrFrontendClosed)
}

func TestScriptClosed(t *testing.T) {
	assert := assert.New(t)

	sc := &Script{}
	sc.PressKeys(0x5)
	sc.Closed = true

	assert.False(sc.IsKeyPressed(0x5))

	_, err := sc.WaitForKeyRelease()
	assert.ErrorIs(err, ErrFrontendClosed)
}
