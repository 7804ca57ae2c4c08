package cpu

import (
	"fmt"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// Op identifies a decoded instruction.
type Op int

const (
	OP_SYS      = Op(0)  // sys
	OP_CLS      = Op(1)  // cls
	OP_RET      = Op(2)  // ret
	OP_JP       = Op(3)  // jp
	OP_CALL     = Op(4)  // call
	OP_SE_BYTE  = Op(5)  // se.byte
	OP_SNE_BYTE = Op(6)  // sne.byte
	OP_SE_REG   = Op(7)  // se.reg
	OP_LD_BYTE  = Op(8)  // ld.byte
	OP_ADD_BYTE = Op(9)  // add.byte
	OP_LD_REG   = Op(10) // ld.reg
	OP_OR       = Op(11) // or
	OP_AND      = Op(12) // and
	OP_XOR      = Op(13) // xor
	OP_ADD_REG  = Op(14) // add.reg
	OP_SUB      = Op(15) // sub
	OP_SHR      = Op(16) // shr
	OP_SUBN     = Op(17) // subn
	OP_SHL      = Op(18) // shl
	OP_SNE_REG  = Op(19) // sne.reg
	OP_LD_I     = Op(20) // ld.i
	OP_JP_V0    = Op(21) // jp.v0
	OP_RND      = Op(22) // rnd
	OP_DRW      = Op(23) // drw
	OP_SKP      = Op(24) // skp
	OP_SKNP     = Op(25) // sknp
	OP_LD_DT    = Op(26) // ld.dt
	OP_LD_KEY   = Op(27) // ld.key
	OP_ST_DT    = Op(28) // st.dt
	OP_ST_ST    = Op(29) // st.st
	OP_ADD_I    = Op(30) // add.i
	OP_LD_FONT  = Op(31) // ld.font
	OP_LD_BCD   = Op(32) // ld.bcd
	OP_ST_MEM   = Op(33) // st.mem
	OP_LD_MEM   = Op(34) // ld.mem
)

var opNames = [...]string{
	"sys", "cls", "ret", "jp", "call",
	"se.byte", "sne.byte", "se.reg",
	"ld.byte", "add.byte", "ld.reg",
	"or", "and", "xor", "add.reg",
	"sub", "shr", "subn", "shl", "sne.reg",
	"ld.i", "jp.v0", "rnd", "drw",
	"skp", "sknp",
	"ld.dt", "ld.key", "st.dt", "st.st",
	"add.i", "ld.font", "ld.bcd", "st.mem", "ld.mem",
}

func (op Op) String() string {
	if op < 0 || int(op) >= len(opNames) {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return opNames[op]
}

// opWords maps each operation to its instruction word with all operand
// fields zeroed. The Make* constructors OR operands into these.
var opWords = map[Op]uint16{
	OP_SYS:      0x0000,
	OP_CLS:      0x00E0,
	OP_RET:      0x00EE,
	OP_JP:       0x1000,
	OP_CALL:     0x2000,
	OP_SE_BYTE:  0x3000,
	OP_SNE_BYTE: 0x4000,
	OP_SE_REG:   0x5000,
	OP_LD_BYTE:  0x6000,
	OP_ADD_BYTE: 0x7000,
	OP_LD_REG:   0x8000,
	OP_OR:       0x8001,
	OP_AND:      0x8002,
	OP_XOR:      0x8003,
	OP_ADD_REG:  0x8004,
	OP_SUB:      0x8005,
	OP_SHR:      0x8006,
	OP_SUBN:     0x8007,
	OP_SHL:      0x800E,
	OP_SNE_REG:  0x9000,
	OP_LD_I:     0xA000,
	OP_JP_V0:    0xB000,
	OP_RND:      0xC000,
	OP_DRW:      0xD000,
	OP_SKP:      0xE09E,
	OP_SKNP:     0xE0A1,
	OP_LD_DT:    0xF007,
	OP_LD_KEY:   0xF00A,
	OP_ST_DT:    0xF015,
	OP_ST_ST:    0xF018,
	OP_ADD_I:    0xF01E,
	OP_LD_FONT:  0xF029,
	OP_LD_BCD:   0xF033,
	OP_ST_MEM:   0xF055,
	OP_LD_MEM:   0xF065,
}

// Code represents a single 16-bit instruction word.
type Code struct {
	Word uint16
}

// MakeCodeAddr creates an instruction carrying a 12-bit address.
func MakeCodeAddr(op Op, addr uint16) Code {
	return Code{Word: opWords[op] | (addr & 0x0FFF)}
}

// MakeCodeRegByte creates an instruction with a register and a byte operand.
func MakeCodeRegByte(op Op, x, b uint8) Code {
	return Code{Word: opWords[op] | (uint16(x&0xF) << 8) | uint16(b)}
}

// MakeCodeRegReg creates an instruction with two register operands.
func MakeCodeRegReg(op Op, x, y uint8) Code {
	return Code{Word: opWords[op] | (uint16(x&0xF) << 8) | (uint16(y&0xF) << 4)}
}

// MakeCodeReg creates an instruction with a single register operand.
func MakeCodeReg(op Op, x uint8) Code {
	return Code{Word: opWords[op] | (uint16(x&0xF) << 8)}
}

// MakeCodeDraw creates a sprite draw instruction.
func MakeCodeDraw(x, y, n uint8) Code {
	return Code{Word: opWords[OP_DRW] | (uint16(x&0xF) << 8) | (uint16(y&0xF) << 4) | uint16(n&0xF)}
}

// MakeCodeBare creates an instruction with no operands.
func MakeCodeBare(op Op) Code {
	return Code{Word: opWords[op]}
}

// Addr returns the 12-bit address operand.
func (code Code) Addr() uint16 {
	return code.Word & 0x0FFF
}

// X returns the first register operand.
func (code Code) X() uint8 {
	return uint8((code.Word >> 8) & 0xF)
}

// Y returns the second register operand.
func (code Code) Y() uint8 {
	return uint8((code.Word >> 4) & 0xF)
}

// Byte returns the 8-bit immediate operand.
func (code Code) Byte() uint8 {
	return uint8(code.Word & 0xFF)
}

// Nibble returns the 4-bit immediate operand.
func (code Code) Nibble() uint8 {
	return uint8(code.Word & 0xF)
}

// Decode classifies the instruction word. Patterns whose fixed bits do not
// match any of the 35 operations return ErrOpcode.
func (code Code) Decode() (op Op, err error) {
	switch code.Word >> 12 {
	case 0x0:
		switch code.Word {
		case 0x00E0:
			op = OP_CLS
		case 0x00EE:
			op = OP_RET
		default:
			op = OP_SYS
		}
	case 0x1:
		op = OP_JP
	case 0x2:
		op = OP_CALL
	case 0x3:
		op = OP_SE_BYTE
	case 0x4:
		op = OP_SNE_BYTE
	case 0x5:
		if code.Nibble() != 0x0 {
			err = ErrOpcode(code)
			return
		}
		op = OP_SE_REG
	case 0x6:
		op = OP_LD_BYTE
	case 0x7:
		op = OP_ADD_BYTE
	case 0x8:
		switch code.Nibble() {
		case 0x0:
			op = OP_LD_REG
		case 0x1:
			op = OP_OR
		case 0x2:
			op = OP_AND
		case 0x3:
			op = OP_XOR
		case 0x4:
			op = OP_ADD_REG
		case 0x5:
			op = OP_SUB
		case 0x6:
			op = OP_SHR
		case 0x7:
			op = OP_SUBN
		case 0xE:
			op = OP_SHL
		default:
			err = ErrOpcode(code)
		}
	case 0x9:
		if code.Nibble() != 0x0 {
			err = ErrOpcode(code)
			return
		}
		op = OP_SNE_REG
	case 0xA:
		op = OP_LD_I
	case 0xB:
		op = OP_JP_V0
	case 0xC:
		op = OP_RND
	case 0xD:
		op = OP_DRW
	case 0xE:
		switch code.Byte() {
		case 0x9E:
			op = OP_SKP
		case 0xA1:
			op = OP_SKNP
		default:
			err = ErrOpcode(code)
		}
	case 0xF:
		switch code.Byte() {
		case 0x07:
			op = OP_LD_DT
		case 0x0A:
			op = OP_LD_KEY
		case 0x15:
			op = OP_ST_DT
		case 0x18:
			op = OP_ST_ST
		case 0x1E:
			op = OP_ADD_I
		case 0x29:
			op = OP_LD_FONT
		case 0x33:
			op = OP_LD_BCD
		case 0x55:
			op = OP_ST_MEM
		case 0x65:
			op = OP_LD_MEM
		default:
			err = ErrOpcode(code)
		}
	}
	return
}

// Mnemonic returns the instruction name for the decoded operation.
func (op Op) Mnemonic() string {
	switch op {
	case OP_CLS:
		return chip8.ClsName
	case OP_RET:
		return chip8.RetName
	case OP_JP, OP_JP_V0:
		return chip8.JpName
	case OP_CALL:
		return chip8.CallName
	case OP_SE_BYTE, OP_SE_REG:
		return chip8.SeName
	case OP_SNE_BYTE, OP_SNE_REG:
		return chip8.SneName
	case OP_LD_BYTE, OP_LD_REG, OP_LD_I, OP_LD_DT, OP_LD_KEY,
		OP_ST_DT, OP_ST_ST, OP_LD_FONT, OP_LD_BCD, OP_ST_MEM, OP_LD_MEM:
		return chip8.LdName
	case OP_ADD_BYTE, OP_ADD_REG, OP_ADD_I:
		return chip8.AddName
	case OP_OR:
		return chip8.OrName
	case OP_AND:
		return chip8.AndName
	case OP_XOR:
		return chip8.XorName
	case OP_SUB:
		return chip8.SubName
	case OP_SUBN:
		return chip8.SubnName
	case OP_SHR:
		return chip8.ShrName
	case OP_SHL:
		return chip8.ShlName
	case OP_RND:
		return chip8.RndName
	case OP_DRW:
		return chip8.DrwName
	case OP_SKP:
		return chip8.SkpName
	case OP_SKNP:
		return chip8.SknpName
	}
	return "sys"
}

// String returns the assembly language representation of this instruction.
func (code Code) String() (out string) {
	op, err := code.Decode()
	if err != nil {
		return fmt.Sprintf("dw $%04X", code.Word)
	}

	name := op.Mnemonic()

	var args string
	switch op {
	case OP_CLS, OP_RET:
		// No operands.
	case OP_SYS, OP_JP, OP_CALL:
		args = fmt.Sprintf("$%03X", code.Addr())
	case OP_JP_V0:
		args = fmt.Sprintf("V0, $%03X", code.Addr())
	case OP_SE_BYTE, OP_SNE_BYTE, OP_LD_BYTE, OP_ADD_BYTE, OP_RND:
		args = fmt.Sprintf("V%X, $%02X", code.X(), code.Byte())
	case OP_SE_REG, OP_SNE_REG, OP_LD_REG, OP_OR, OP_AND, OP_XOR,
		OP_ADD_REG, OP_SUB, OP_SUBN, OP_SHR, OP_SHL:
		args = fmt.Sprintf("V%X, V%X", code.X(), code.Y())
	case OP_LD_I:
		args = fmt.Sprintf("I, $%03X", code.Addr())
	case OP_DRW:
		args = fmt.Sprintf("V%X, V%X, $%X", code.X(), code.Y(), code.Nibble())
	case OP_SKP, OP_SKNP:
		args = fmt.Sprintf("V%X", code.X())
	case OP_LD_DT:
		args = fmt.Sprintf("V%X, DT", code.X())
	case OP_LD_KEY:
		args = fmt.Sprintf("V%X, K", code.X())
	case OP_ST_DT:
		args = fmt.Sprintf("DT, V%X", code.X())
	case OP_ST_ST:
		args = fmt.Sprintf("ST, V%X", code.X())
	case OP_ADD_I:
		args = fmt.Sprintf("I, V%X", code.X())
	case OP_LD_FONT:
		args = fmt.Sprintf("F, V%X", code.X())
	case OP_LD_BCD:
		args = fmt.Sprintf("B, V%X", code.X())
	case OP_ST_MEM:
		args = fmt.Sprintf("[I], V%X", code.X())
	case OP_LD_MEM:
		args = fmt.Sprintf("V%X, [I]", code.X())
	}

	if args == "" {
		out = name
	} else {
		out = fmt.Sprintf("%v %v", name, args)
	}

	return
}
