package emulator

import (
	"fmt"
	"io"
	"iter"
	"maps"

	"github.com/vmforge/chip8go/cpu"
	"github.com/vmforge/chip8go/display"
	"github.com/vmforge/chip8go/internal"
)

var _emulator_defines = map[string]string{
	"ROM_LIMIT": fmt.Sprintf("0x%x", cpu.RAM_SIZE-cpu.PROGRAM_START),
}

// Emulator state. Engine + program listing + frontend.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the execution engine.
	Program  *cpu.Program // Reference to the currently running program listing.

	Frontend cpu.Frontend // Attached display/input/audio frontend.
}

// NewEmulator creates a new emulator attached to a frontend.
func NewEmulator(frontend cpu.Frontend) (emu *Emulator) {
	emu = &Emulator{
		Cpu:      cpu.NewCpu(frontend),
		Program:  &cpu.Program{},
		Frontend: frontend,
	}

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		display.Defines(),
	)
}

// NewAssembler creates an assembler with all system defines as equates.
func (emu *Emulator) NewAssembler() (asm *cpu.Assembler) {
	asm = &cpu.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}

	return
}

// Compile assembles a source stream, keeps its listing, and resets the
// engine with the assembled image.
func (emu *Emulator) Compile(input io.Reader) (err error) {
	asm := emu.NewAssembler()

	prog, err := asm.Parse(input)
	if err != nil {
		return
	}

	emu.Program = prog

	return emu.Reset()
}

// LoadROM resets the engine with a raw program image. No source listing is
// available for runtime errors.
func (emu *Emulator) LoadROM(rom []byte) (err error) {
	emu.Program = &cpu.Program{}
	emu.Cpu.Verbose = emu.Verbose

	return emu.Cpu.Reset(rom)
}

// Reset reloads the current program image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	return emu.Cpu.Reset(emu.Program.Binary())
}

// LineNo returns the source line number for the executing instruction, or
// zero when no listing covers it.
func (emu *Emulator) LineNo() int {
	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// Code returns the instruction word at the program counter.
func (emu *Emulator) Code() cpu.Code {
	code, _ := emu.Cpu.FetchCode()

	return code
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set engine verbosity
	emu.Cpu.Verbose = emu.Verbose

	lineno := emu.LineNo()
	defer func() {
		if err != nil {
			err = &ErrRuntime{LineNo: lineno, Err: err}
		}
	}()

	return emu.Cpu.Tick()
}

// Run ticks the emulator until the program ends or fails.
func (emu *Emulator) Run() (err error) {
	for {
		var done bool
		done, err = emu.Tick()
		if err != nil || done {
			return
		}
	}
}

// DumpMemory writes a hex dump of the engine memory.
func (emu *Emulator) DumpMemory(w io.Writer) (err error) {
	return emu.Cpu.Memory.DumpTo(w)
}
