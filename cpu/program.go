package cpu

import (
	"fmt"
	"io"
	"iter"
)

// Program is the output of the assembler: assembled opcodes with their
// source words and memory addresses.
type Program struct {
	Opcodes []Opcode
}

// Debug locates the source line covering a memory address.
type Debug struct {
	*Opcode
	Offset int
}

func (prog *Program) Debug(addr uint16) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if addr >= uint16(op.Addr) && addr < uint16(op.Addr)+uint16(len(op.Bytes)) {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
				Offset: int(addr) - op.Addr,
			}
			break
		}
	}

	return
}

// Binary returns the program image, loadable at PROGRAM_START.
func (prog *Program) Binary() (rom []byte) {
	for _, op := range prog.Opcodes {
		rom = append(rom, op.Bytes...)
	}

	return
}

// Codes iterates the assembled instruction words with their addresses.
// Data bytes emitted by db appear as raw words.
func (prog *Program) Codes() iter.Seq2[uint16, Code] {
	return func(yield func(addr uint16, code Code) bool) {
		for _, op := range prog.Opcodes {
			for n := 0; n+1 < len(op.Bytes); n += 2 {
				code := Code{Word: uint16(op.Bytes[n])<<8 | uint16(op.Bytes[n+1])}
				if !yield(uint16(op.Addr+n), code) {
					return
				}
			}
		}
	}
}

// ListTo writes an assembly listing: address, bytes, and source words.
func (prog *Program) ListTo(w io.Writer) (err error) {
	for _, op := range prog.Opcodes {
		var hexbytes string
		for _, b := range op.Bytes {
			hexbytes += fmt.Sprintf("%02X ", b)
		}
		_, err = fmt.Fprintf(w, "%03X: %-12s; %4d: %v\n",
			op.Addr, hexbytes, op.LineNo, op.Words)
		if err != nil {
			return
		}
	}

	return
}
