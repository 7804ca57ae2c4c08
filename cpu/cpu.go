package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
	"math/rand/v2"
	"time"

	"github.com/vmforge/chip8go/display"
)

// Frontend is the display/input/audio collaborator attached to the engine.
type Frontend display.Frontend

// timerPeriod is the decay interval of the delay and sound timers.
const timerPeriod = time.Second / display.REFRESH_HZ

var _cpu_defines = map[string]string{
	"RAM_SIZE":      fmt.Sprintf("0x%x", RAM_SIZE),
	"PROGRAM_START": fmt.Sprintf("0x%x", PROGRAM_START),
	"FONT_START":    fmt.Sprintf("0x%x", FONT_START),
	"GLYPH_SIZE":    fmt.Sprintf("%d", GLYPH_SIZE),
	"STACK_LIMIT":   fmt.Sprintf("%d", STACK_LIMIT),
}

// Quirks selects behavior variants that some programs depend on.
type Quirks struct {
	// ShiftInPlace makes shr/shl shift Vx in place. The default shifts
	// Vy into Vx, as the original interpreter did.
	ShiftInPlace bool
}

// Cpu is the execution engine: memory, registers, timers, call stack, and
// the framebuffer it composes sprites onto.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.
	Quirks  Quirks

	Memory Memory               // 4KB address space.
	Frame  *display.FrameBuffer // Shared pixel plane.

	Register [16]uint8 // V0..VF; VF doubles as the flag register.
	Index    uint16    // I register.
	Pc       uint16    // Program counter.
	Delay    uint8     // Delay timer, decays at 60Hz.
	Sound    uint8     // Sound timer, decays at 60Hz.
	Stack    Stack     // Subroutine return addresses.

	Ticks int // Instructions executed counter.

	frontend  Frontend
	random    func() uint8
	timerMark time.Time
	soundOn   bool
}

// NewCpu creates an engine attached to a frontend.
func NewCpu(frontend Frontend) (cpu *Cpu) {
	cpu = &Cpu{
		Frame:    &display.FrameBuffer{},
		frontend: frontend,
		random:   func() uint8 { return uint8(rand.UintN(256)) },
	}

	cpu.Memory.Reset()
	cpu.Pc = PROGRAM_START
	cpu.timerMark = time.Now()

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current engine state as a string.
func (cpu *Cpu) String() (text string) {
	text = fmt.Sprintf("  pc: %03X    i: %03X   dt: %02X   st: %02X\n",
		cpu.Pc, cpu.Index, cpu.Delay, cpu.Sound)

	for n, val := range cpu.Register {
		text += fmt.Sprintf("  v%X: %02X", n, val)
		if n%4 == 3 {
			text += "\n"
		}
	}

	if top, ok := cpu.Stack.Peek(); ok {
		text += fmt.Sprintf("  sp: %d (top %03X)\n", cpu.Stack.Depth(), top)
	} else {
		text += "  sp: 0\n"
	}

	return
}

// Reset the engine state.
//   - Clears registers, timers, stack, and the framebuffer.
//   - Reinstalls the font and loads the program image at PROGRAM_START.
//   - Sets the program counter to PROGRAM_START.
func (cpu *Cpu) Reset(rom []byte) (err error) {
	if cpu.Verbose {
		log.Printf("cpu: reset, %d byte rom", len(rom))
	}

	err = cpu.Memory.LoadROM(rom)
	if err != nil {
		return
	}

	clear(cpu.Register[:])
	cpu.Stack.Reset()
	cpu.Frame.Clear()
	cpu.Index = 0
	cpu.Pc = PROGRAM_START
	cpu.Delay = 0
	cpu.Sound = 0
	cpu.Ticks = 0
	cpu.timerMark = time.Now()
	cpu.soundOn = false

	cpu.frontend.Clear()

	return
}

// FetchCode fetches the instruction word at the program counter.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	word, err := cpu.Memory.ReadWord(cpu.Pc)
	if err != nil {
		return
	}

	code = Code{Word: word}
	return
}

// Tick executes a single instruction cycle. A zero instruction word marks
// the end of the program and reports done without executing.
func (cpu *Cpu) Tick() (done bool, err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	if code.Word == 0x0000 {
		done = true
		return
	}

	cpu.Pc += 2

	err = cpu.Execute(code)
	if err != nil {
		return
	}

	cpu.tickTimers()

	return
}

// Execute executes a single instruction. The program counter has already
// advanced past the instruction word; control flow operations overwrite it.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	op, err := code.Decode()
	if err != nil {
		return
	}

	if cpu.Verbose {
		log.Printf("%03x: %v", cpu.Pc-2, code)
	}

	x := code.X()
	y := code.Y()

	switch op {
	case OP_CLS:
		cpu.Frame.Clear()
		cpu.frontend.Clear()
	case OP_RET:
		addr, ok := cpu.Stack.Pop()
		if !ok {
			err = ErrStackEmpty
			return
		}
		cpu.Pc = addr
	case OP_JP:
		cpu.Pc = code.Addr()
	case OP_SYS, OP_CALL:
		// sys calls a native machine routine; there is none, so it
		// behaves exactly like call.
		if !cpu.Stack.Push(cpu.Pc) {
			err = ErrStackFull
			return
		}
		cpu.Pc = code.Addr()
	case OP_SE_BYTE:
		if cpu.Register[x] == code.Byte() {
			cpu.Pc += 2
		}
	case OP_SNE_BYTE:
		if cpu.Register[x] != code.Byte() {
			cpu.Pc += 2
		}
	case OP_SE_REG:
		if cpu.Register[x] == cpu.Register[y] {
			cpu.Pc += 2
		}
	case OP_LD_BYTE:
		cpu.Register[x] = code.Byte()
	case OP_ADD_BYTE:
		// No carry flag on the immediate form.
		cpu.Register[x] += code.Byte()
	case OP_LD_REG:
		cpu.Register[x] = cpu.Register[y]
	case OP_OR:
		cpu.Register[x] |= cpu.Register[y]
	case OP_AND:
		cpu.Register[x] &= cpu.Register[y]
	case OP_XOR:
		cpu.Register[x] ^= cpu.Register[y]
	case OP_ADD_REG:
		sum := uint16(cpu.Register[x]) + uint16(cpu.Register[y])
		cpu.Register[x] = uint8(sum)
		cpu.setFlag(sum > 0xFF)
	case OP_SUB:
		a, b := cpu.Register[x], cpu.Register[y]
		cpu.Register[x] = a - b
		cpu.setFlag(a >= b)
	case OP_SHR:
		val := cpu.Register[cpu.shiftSource(x, y)]
		cpu.Register[x] = val >> 1
		cpu.setFlag(val&0x01 != 0)
	case OP_SUBN:
		a, b := cpu.Register[y], cpu.Register[x]
		cpu.Register[x] = a - b
		cpu.setFlag(a >= b)
	case OP_SHL:
		val := cpu.Register[cpu.shiftSource(x, y)]
		cpu.Register[x] = val << 1
		cpu.setFlag(val&0x80 != 0)
	case OP_SNE_REG:
		if cpu.Register[x] != cpu.Register[y] {
			cpu.Pc += 2
		}
	case OP_LD_I:
		cpu.Index = code.Addr()
	case OP_JP_V0:
		// An out of range target faults on the next fetch.
		cpu.Pc = code.Addr() + uint16(cpu.Register[0])
	case OP_RND:
		cpu.Register[x] = cpu.random() & code.Byte()
	case OP_DRW:
		err = cpu.drawSprite(x, y, code.Nibble())
	case OP_SKP:
		if cpu.frontend.IsKeyPressed(cpu.Register[x]) {
			cpu.Pc += 2
		}
	case OP_SKNP:
		if !cpu.frontend.IsKeyPressed(cpu.Register[x]) {
			cpu.Pc += 2
		}
	case OP_LD_DT:
		cpu.Register[x] = cpu.Delay
	case OP_LD_KEY:
		var key uint8
		key, err = cpu.frontend.WaitForKeyRelease()
		if err != nil {
			err = errors.Join(ErrKeyWait, err)
			return
		}
		cpu.Register[x] = key
	case OP_ST_DT:
		cpu.Delay = cpu.Register[x]
	case OP_ST_ST:
		cpu.Sound = cpu.Register[x]
		cpu.syncAudio()
	case OP_ADD_I:
		cpu.Index += uint16(cpu.Register[x])
	case OP_LD_FONT:
		cpu.Index = cpu.Memory.GlyphAddr(cpu.Register[x])
	case OP_LD_BCD:
		val := cpu.Register[x]
		err = cpu.Memory.WriteBytes(cpu.Index, []byte{val / 100, (val / 10) % 10, val % 10})
	case OP_ST_MEM:
		err = cpu.Memory.WriteBytes(cpu.Index, cpu.Register[:int(x)+1])
	case OP_LD_MEM:
		var values []byte
		values, err = cpu.Memory.ReadBytes(cpu.Index, int(x)+1)
		if err != nil {
			return
		}
		copy(cpu.Register[:int(x)+1], values)
	}
	if err != nil {
		return
	}

	cpu.Ticks += 1

	return
}

// shiftSource selects the register a shift reads from.
func (cpu *Cpu) shiftSource(x, y uint8) uint8 {
	if cpu.Quirks.ShiftInPlace {
		return x
	}
	return y
}

func (cpu *Cpu) setFlag(on bool) {
	if on {
		cpu.Register[0xF] = 1
	} else {
		cpu.Register[0xF] = 0
	}
}

// drawSprite composes a sprite from memory at I onto the framebuffer.
// VF reports whether any lit pixel was erased by any row.
func (cpu *Cpu) drawSprite(x, y, height uint8) (err error) {
	sprite, err := cpu.Memory.ReadBytes(cpu.Index, int(height))
	if err != nil {
		return
	}

	px := cpu.Register[x] % display.WIDTH
	py := cpu.Register[y] % display.HEIGHT

	cpu.setFlag(cpu.Frame.Blit(px, py, sprite))

	cpu.frontend.RequestRedraw()

	return
}

// tickTimers decays the delay and sound timers by the number of whole 60Hz
// periods elapsed since the previous check. A slow host catches up; timers
// never decay below zero.
func (cpu *Cpu) tickTimers() {
	elapsed := int(time.Since(cpu.timerMark) / timerPeriod)
	if elapsed <= 0 {
		return
	}
	cpu.timerMark = cpu.timerMark.Add(time.Duration(elapsed) * timerPeriod)

	cpu.Delay = saturateSub(cpu.Delay, elapsed)
	cpu.Sound = saturateSub(cpu.Sound, elapsed)
	cpu.syncAudio()
}

// syncAudio tells the frontend about sound timer transitions, never the
// steady state.
func (cpu *Cpu) syncAudio() {
	on := cpu.Sound > 0
	if on != cpu.soundOn {
		cpu.soundOn = on
		cpu.frontend.SetAudioEnabled(on)
	}
}

func saturateSub(value uint8, count int) uint8 {
	if count >= int(value) {
		return 0
	}
	return value - uint8(count)
}
