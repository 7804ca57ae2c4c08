package cpu

import (
	"testing"

	"github.com/vmforge/chip8go/display"
)

// FuzzCodeDecode verifies that no instruction word can break the decoder
// or the formatter.
func FuzzCodeDecode(f *testing.F) {
	f.Add(uint16(0x0000))
	f.Add(uint16(0x00E0))
	f.Add(uint16(0x1234))
	f.Add(uint16(0x8AB4))
	f.Add(uint16(0xDAB5))
	f.Add(uint16(0xFAFF))

	f.Fuzz(func(t *testing.T, word uint16) {
		code := Code{Word: word}

		op, err := code.Decode()
		if err == nil {
			_ = op.String()
			_ = op.Mnemonic()
		}
		_ = code.String()
	})
}

// FuzzCpuExecute verifies that arbitrary instruction words never panic the
// engine. Errors are expected; crashes are not.
func FuzzCpuExecute(f *testing.F) {
	f.Add(uint16(0x00E0), uint8(0), uint8(0))
	f.Add(uint16(0xD015), uint8(60), uint8(30))
	f.Add(uint16(0xF355), uint8(0xFF), uint8(0))
	f.Add(uint16(0x2FFF), uint8(0), uint8(0))
	f.Add(uint16(0xBFFF), uint8(0xFF), uint8(0))

	f.Fuzz(func(t *testing.T, word uint16, v0, v1 uint8) {
		script := &display.Script{}
		script.PressKeys(0x5)

		cpu := NewCpu(script)
		cpu.Register[0] = v0
		cpu.Register[1] = v1
		cpu.Index = uint16(v1) << 4

		_ = cpu.Execute(Code{Word: word})

		// A program counter outside memory must fault on the next
		// fetch instead of being silently wrapped.
		if int(cpu.Pc)+1 >= RAM_SIZE {
			if _, err := cpu.FetchCode(); err == nil {
				t.Fatalf("pc $%04X escaped memory without a fault", cpu.Pc)
			}
		}
	})
}
