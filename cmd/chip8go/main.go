package main

import (
	"flag"
	"log"
	"os"

	"github.com/vmforge/chip8go/display"
	"github.com/vmforge/chip8go/emulator"
)

func main() {
	var compile string
	var listing string
	var dump bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".c8 assembly file to compile")
	flag.StringVar(&listing, "o", "", "write an assembly listing to this file")
	flag.BoolVar(&dump, "dump", false, "Dump memory after the program ends")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() > 1 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args()[1:])
	}
	if flag.NArg() == 0 && len(compile) == 0 {
		log.Fatalf("%v: No rom file or -c source given", os.Args[0])
	}

	term := display.NewTerminal(nil)

	emu := emulator.NewEmulator(term)
	emu.Verbose = verbose

	// The engine owns the framebuffer; the terminal renders it.
	term.Frame = emu.Frame

	// Compile a new program.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		err = emu.Compile(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		if len(listing) != 0 {
			ouf, err := os.Create(listing)
			if err != nil {
				log.Fatalf("%v: %v", listing, err)
			}
			defer ouf.Close()

			err = emu.Program.ListTo(ouf)
			if err != nil {
				log.Fatalf("%v: %v", listing, err)
			}
		}
	}

	// Load a rom image.
	if flag.NArg() == 1 {
		name := flag.Arg(0)
		rom, err := os.ReadFile(name)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}

		err = emu.LoadROM(rom)
		if err != nil {
			log.Fatalf("%v: %v", name, err)
		}
	}

	err := term.Start()
	if err != nil {
		log.Fatalf("%v: %v", os.Args[0], err)
	}
	defer term.Stop()

	errc := make(chan error, 1)
	go func() { errc <- emu.Run() }()

	select {
	case err = <-errc:
		term.Stop()
		if err != nil {
			log.Fatal(err)
		}
	case <-term.Done():
		// User quit from the keyboard.
	}

	if dump {
		err = emu.DumpMemory(os.Stderr)
		if err != nil {
			log.Fatal(err)
		}
	}
}
