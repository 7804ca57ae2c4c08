package cpu

import (
	"fmt"
	"io"
)

const (
	RAM_SIZE      = 0x1000 // Total addressable memory
	PROGRAM_START = 0x200  // Load address for programs
	FONT_START    = 0x000  // Load address for the hex digit font
	GLYPH_SIZE    = 5      // Bytes per font glyph
)

// fontDigits are the built-in 4x5 glyphs for hex digits 0..F.
var fontDigits = [16][GLYPH_SIZE]byte{
	{0xF0, 0x90, 0x90, 0x90, 0xF0}, // 0
	{0x20, 0x60, 0x20, 0x20, 0x70}, // 1
	{0xF0, 0x10, 0xF0, 0x80, 0xF0}, // 2
	{0xF0, 0x10, 0xF0, 0x10, 0xF0}, // 3
	{0x90, 0x90, 0xF0, 0x10, 0x10}, // 4
	{0xF0, 0x80, 0xF0, 0x10, 0xF0}, // 5
	{0xF0, 0x80, 0xF0, 0x90, 0xF0}, // 6
	{0xF0, 0x10, 0x20, 0x40, 0x40}, // 7
	{0xF0, 0x90, 0xF0, 0x90, 0xF0}, // 8
	{0xF0, 0x90, 0xF0, 0x10, 0xF0}, // 9
	{0xF0, 0x90, 0xF0, 0x90, 0x90}, // A
	{0xE0, 0x90, 0xE0, 0x90, 0xE0}, // B
	{0xF0, 0x80, 0x80, 0x80, 0xF0}, // C
	{0xE0, 0x90, 0x90, 0x90, 0xE0}, // D
	{0xF0, 0x80, 0xF0, 0x80, 0xF0}, // E
	{0xF0, 0x80, 0xF0, 0x80, 0x80}, // F
}

// Memory is the flat 4KB address space. The font lives below PROGRAM_START;
// everything from PROGRAM_START up belongs to the loaded program.
type Memory struct {
	Data [RAM_SIZE]byte
}

// Reset clears all of memory and reinstalls the font glyphs.
func (m *Memory) Reset() {
	clear(m.Data[:])

	for digit, glyph := range fontDigits {
		copy(m.Data[FONT_START+digit*GLYPH_SIZE:], glyph[:])
	}
}

// GlyphAddr returns the font address for a hex digit.
func (m *Memory) GlyphAddr(digit uint8) uint16 {
	return FONT_START + uint16(digit&0xF)*GLYPH_SIZE
}

// ReadByte reads one byte.
func (m *Memory) ReadByte(addr uint16) (value byte, err error) {
	if int(addr) >= RAM_SIZE {
		err = ErrAddress(addr)
		return
	}
	value = m.Data[addr]
	return
}

// WriteByte writes one byte.
func (m *Memory) WriteByte(addr uint16, value byte) (err error) {
	if int(addr) >= RAM_SIZE {
		err = ErrAddress(addr)
		return
	}
	m.Data[addr] = value
	return
}

// ReadWord reads a big-endian 16-bit word.
func (m *Memory) ReadWord(addr uint16) (value uint16, err error) {
	if int(addr)+1 >= RAM_SIZE {
		err = ErrAddress(addr)
		return
	}
	value = uint16(m.Data[addr])<<8 | uint16(m.Data[addr+1])
	return
}

// ReadBytes reads count bytes starting at addr.
func (m *Memory) ReadBytes(addr uint16, count int) (values []byte, err error) {
	if int(addr)+count > RAM_SIZE {
		err = ErrAddress(addr)
		return
	}
	values = m.Data[addr : int(addr)+count]
	return
}

// WriteBytes writes all of values starting at addr.
func (m *Memory) WriteBytes(addr uint16, values []byte) (err error) {
	if int(addr)+len(values) > RAM_SIZE {
		err = ErrAddress(addr)
		return
	}
	copy(m.Data[addr:], values)
	return
}

// LoadROM resets memory and copies a program image to PROGRAM_START.
func (m *Memory) LoadROM(rom []byte) (err error) {
	if len(rom) > RAM_SIZE-PROGRAM_START {
		err = ErrRomTooLarge
		return
	}

	m.Reset()
	copy(m.Data[PROGRAM_START:], rom)
	return
}

// DumpTo writes a hex dump of all of memory, 32 bytes per line, two
// digits per byte with no separators.
func (m *Memory) DumpTo(w io.Writer) (err error) {
	for addr := 0; addr < RAM_SIZE; addr += 32 {
		for _, b := range m.Data[addr : addr+32] {
			_, err = fmt.Fprintf(w, "%02X", b)
			if err != nil {
				return
			}
		}
		_, err = fmt.Fprintln(w)
		if err != nil {
			return
		}
	}
	return
}
