package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssemblerBasic(t *testing.T) {
	assert := assert.New(t)

	source := `
.equ SPEED 3
start:
    ld v0, 0       ; counter
    ld v1, SPEED
loop:
    add v0, SPEED
    se v0, 9
    jp loop
    exit
sprite:
    db 0xF0, 0x90
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal([]byte{
		0x60, 0x00,
		0x61, 0x03,
		0x70, 0x03,
		0x30, 0x09,
		0x12, 0x04, // jp loop -> 0x204
		0x00, 0x00,
		0xF0, 0x90,
	}, prog.Binary())

	assert.Equal(PROGRAM_START, asm.Label["start"])
	assert.Equal(PROGRAM_START+4, asm.Label["loop"])
	assert.Equal(PROGRAM_START+12, asm.Label["sprite"])
}

func TestAssemblerLoadForms(t *testing.T) {
	assert := assert.New(t)

	source := `
    ld v0, 0x42
    ld v1, v0
    ld i, 0x300
    ld v2, dt
    ld v3, k
    ld dt, v4
    ld st, v5
    ld f, v6
    ld b, v7
    ld [i], v8
    ld v9, [i]
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal([]byte{
		0x60, 0x42,
		0x81, 0x00,
		0xA3, 0x00,
		0xF2, 0x07,
		0xF3, 0x0A,
		0xF4, 0x15,
		0xF5, 0x18,
		0xF6, 0x29,
		0xF7, 0x33,
		0xF8, 0x55,
		0xF9, 0x65,
	}, prog.Binary())
}

func TestAssemblerShifts(t *testing.T) {
	assert := assert.New(t)

	source := `
    shr v0
    shr v0, v1
    shl v2
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal([]byte{
		0x80, 0x06,
		0x80, 0x16,
		0x82, 0x2E,
	}, prog.Binary())
}

func TestAssemblerExpressions(t *testing.T) {
	assert := assert.New(t)

	source := `
.equ BASE 8
    ld v0, $(BASE*2+1)
    ld v1, 'A'
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal([]byte{
		0x60, 0x11,
		0x61, 0x41,
	}, prog.Binary())
}

func TestAssemblerMacro(t *testing.T) {
	assert := assert.New(t)

	source := `
.macro splat X N
    drw X X N
.endm
    ld v2, 1
    splat v2 5
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	assert.Equal([]byte{
		0x62, 0x01,
		0xD2, 0x25,
	}, prog.Binary())
}

func TestAssemblerPredefine(t *testing.T) {
	assert := assert.New(t)

	asm := Assembler{}
	asm.Predefine("SPRITE_HOME", "0x300")

	prog, err := asm.Parse(strings.NewReader("    ld i, SPRITE_HOME\n"))
	assert.NoError(err)
	assert.Equal([]byte{0xA3, 0x00}, prog.Binary())
}

func TestAssemblerErrors(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		source string
		err    error
	}{
		{"oops: oops: cls\n", ErrLabelDuplicate},
		{"    jp nowhere\n", ErrLabelMissing("nowhere")},
		{"    frobnicate v0\n", ErrOpcodeInvalid},
		{"    ld vz, 1\n", ErrTargetInvalid},
		{"    se v0\n", ErrOpcodeValueMissing},
		{"    cls v0\n", ErrOpcodeExtraArgs},
		{"    ld v0, 0x100\n", ErrTargetInvalid},
		{".equ A 1\n.equ A 2\n", ErrEquateDuplicate},
		{".macro m\n.macro n\n", ErrMacroNesting},
		{".endm\n", ErrMacroLonelyEndm},
		{".macro m\n    cls\n", ErrMacroLonely},
	}

	for _, c := range cases {
		asm := Assembler{}
		_, err := asm.Parse(strings.NewReader(c.source))
		assert.ErrorIs(err, c.err, "source %q", c.source)
	}
}

func TestAssemblerDebugListing(t *testing.T) {
	assert := assert.New(t)

	source := `
start:
    ld v0, 1
    jp start
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	dbg := prog.Debug(0x202)
	assert.NotNil(dbg.Opcode)
	assert.Equal(4, dbg.LineNo)
	assert.Equal([]string{"jp", "start"}, dbg.Words)

	var listing strings.Builder
	assert.NoError(prog.ListTo(&listing))
	assert.Contains(listing.String(), "200:")
	assert.Contains(listing.String(), "jp")

	var codes []Code
	for _, code := range prog.Codes() {
		codes = append(codes, code)
	}
	assert.Equal([]Code{{Word: 0x6001}, {Word: 0x1200}}, codes)
}

func TestAssembledProgramRuns(t *testing.T) {
	assert := assert.New(t)

	source := `
    ld v0, 0
loop:
    add v0, 3
    se v0, 9
    jp loop
    exit
`

	asm := Assembler{}
	prog, err := asm.Parse(strings.NewReader(source))
	assert.NoError(err)

	cpu, _ := newTestCpu()
	assert.NoError(cpu.Reset(prog.Binary()))

	for {
		done, err := cpu.Tick()
		assert.NoError(err)
		if done {
			break
		}
	}

	assert.Equal(uint8(9), cpu.Register[0])
}
