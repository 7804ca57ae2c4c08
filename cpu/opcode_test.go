package cpu

import (
	"fmt"
	"testing"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
	"github.com/stretchr/testify/assert"
)

func TestCodeDecode(t *testing.T) {
	assert := assert.New(t)

	cases := []struct {
		word uint16
		op   Op
	}{
		{0x0123, OP_SYS},
		{0x00E0, OP_CLS},
		{0x00EE, OP_RET},
		{0x1234, OP_JP},
		{0x2345, OP_CALL},
		{0x3A12, OP_SE_BYTE},
		{0x4A12, OP_SNE_BYTE},
		{0x5AB0, OP_SE_REG},
		{0x6A12, OP_LD_BYTE},
		{0x7A12, OP_ADD_BYTE},
		{0x8AB0, OP_LD_REG},
		{0x8AB1, OP_OR},
		{0x8AB2, OP_AND},
		{0x8AB3, OP_XOR},
		{0x8AB4, OP_ADD_REG},
		{0x8AB5, OP_SUB},
		{0x8AB6, OP_SHR},
		{0x8AB7, OP_SUBN},
		{0x8ABE, OP_SHL},
		{0x9AB0, OP_SNE_REG},
		{0xA123, OP_LD_I},
		{0xB123, OP_JP_V0},
		{0xCA12, OP_RND},
		{0xDAB5, OP_DRW},
		{0xEA9E, OP_SKP},
		{0xEAA1, OP_SKNP},
		{0xFA07, OP_LD_DT},
		{0xFA0A, OP_LD_KEY},
		{0xFA15, OP_ST_DT},
		{0xFA18, OP_ST_ST},
		{0xFA1E, OP_ADD_I},
		{0xFA29, OP_LD_FONT},
		{0xFA33, OP_LD_BCD},
		{0xFA55, OP_ST_MEM},
		{0xFA65, OP_LD_MEM},
	}

	for _, c := range cases {
		op, err := Code{Word: c.word}.Decode()
		assert.NoError(err, "word %04x", c.word)
		assert.Equal(c.op, op, "word %04x", c.word)
	}
}

func TestCodeDecodeInvalid(t *testing.T) {
	assert := assert.New(t)

	for _, word := range []uint16{
		0x5AB1, 0x8AB8, 0x8ABF, 0x9AB3,
		0xEA00, 0xEAFF, 0xFA00, 0xFA66, 0xFAFF,
	} {
		code := Code{Word: word}
		_, err := code.Decode()
		assert.ErrorIs(err, ErrOpcode(code), "word %04x", word)
	}
}

func TestCodeAccessors(t *testing.T) {
	assert := assert.New(t)

	code := Code{Word: 0xDAB5}
	assert.Equal(uint8(0xA), code.X())
	assert.Equal(uint8(0xB), code.Y())
	assert.Equal(uint8(0x5), code.Nibble())
	assert.Equal(uint16(0xAB5), code.Addr())
	assert.Equal(uint8(0xB5), code.Byte())
}

func TestMakeCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint16(0x00E0), MakeCodeBare(OP_CLS).Word)
	assert.Equal(uint16(0x1234), MakeCodeAddr(OP_JP, 0x234).Word)
	assert.Equal(uint16(0x610A), MakeCodeRegByte(OP_LD_BYTE, 1, 0x0A).Word)
	assert.Equal(uint16(0x8AB4), MakeCodeRegReg(OP_ADD_REG, 0xA, 0xB).Word)
	assert.Equal(uint16(0xFA29), MakeCodeReg(OP_LD_FONT, 0xA).Word)
	assert.Equal(uint16(0xD125), MakeCodeDraw(1, 2, 5).Word)
}

func TestCodeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(chip8.ClsName, Code{Word: 0x00E0}.String())
	assert.Equal(fmt.Sprintf("%v $234", chip8.JpName), Code{Word: 0x1234}.String())
	assert.Equal(fmt.Sprintf("%v V1, $0A", chip8.LdName), Code{Word: 0x610A}.String())
	assert.Equal(fmt.Sprintf("%v V1, V2, $5", chip8.DrwName), Code{Word: 0xD125}.String())
	assert.Equal(fmt.Sprintf("%v V3, [I]", chip8.LdName), Code{Word: 0xF365}.String())

	// Undecodable words render as data.
	assert.Equal("dw $FAFF", Code{Word: 0xFAFF}.String())
}
