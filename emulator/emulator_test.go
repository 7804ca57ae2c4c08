package emulator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vmforge/chip8go/cpu"
	"github.com/vmforge/chip8go/display"
)

func newTestEmulator() (emu *Emulator, script *display.Script) {
	script = &display.Script{}
	emu = NewEmulator(script)
	return
}

func TestEmulatorLoadROM(t *testing.T) {
	assert := assert.New(t)

	emu, script := newTestEmulator()

	// ld v0 5; add v0 3; sentinel.
	assert.NoError(emu.LoadROM([]byte{0x60, 0x05, 0x70, 0x03, 0x00, 0x00}))
	assert.NoError(emu.Run())

	assert.Equal(uint8(8), emu.Register[0])
	assert.Equal(2, emu.Ticks)
	assert.Equal(0, script.Redraws())
}

func TestEmulatorCompile(t *testing.T) {
	assert := assert.New(t)

	emu, script := newTestEmulator()

	source := `
; draw a glyph, then stop
    ld v0, 0x7
    ld f, v0
    ld v1, 10
    ld v2, 5
    drw v1, v2, GLYPH_SIZE
    exit
`

	assert.NoError(emu.Compile(strings.NewReader(source)))
	assert.NoError(emu.Run())

	assert.Equal(1, script.Redraws())
	assert.Equal(uint16(0x7*5), emu.Index)
	// Top row of the 7 glyph is 0xF0.
	assert.True(emu.Frame.Pixel(10, 5))
	assert.True(emu.Frame.Pixel(13, 5))
	assert.False(emu.Frame.Pixel(14, 5))
}

func TestEmulatorDefinesFlow(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator()

	// System defines are visible to assembled programs as equates.
	source := `
    ld i, PROGRAM_START
    ld v0, DISPLAY_HEIGHT
    exit
`

	assert.NoError(emu.Compile(strings.NewReader(source)))
	assert.NoError(emu.Run())

	assert.Equal(uint16(cpu.PROGRAM_START), emu.Index)
	assert.Equal(uint8(display.HEIGHT), emu.Register[0])
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator()

	source := `
    ld v0, 1
    dw 0xFAFF
`

	assert.NoError(emu.Compile(strings.NewReader(source)))

	err := emu.Run()
	assert.ErrorIs(err, cpu.ErrOpcode(cpu.Code{Word: 0xFAFF}))

	var rterr *ErrRuntime
	assert.ErrorAs(err, &rterr)
	assert.Equal(3, rterr.LineNo)
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator()

	assert.NoError(emu.Compile(strings.NewReader("    ld v0, 9\n    exit\n")))
	assert.NoError(emu.Run())
	assert.Equal(uint8(9), emu.Register[0])

	assert.NoError(emu.Reset())
	assert.Equal(uint8(0), emu.Register[0])
	assert.Equal(uint16(cpu.PROGRAM_START), emu.Pc)

	assert.NoError(emu.Run())
	assert.Equal(uint8(9), emu.Register[0])
}
