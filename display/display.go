// Package display owns everything on the presentation side of the
// interpreter: the shared framebuffer, the Frontend command boundary the
// execution engine talks through, a raw-terminal frontend, and a scripted
// frontend for headless testing.
//
// The engine is the only writer of the framebuffer; frontends only read it.
// All other interaction crosses the Frontend interface as commands with
// synchronous responses.
package display

import (
	"fmt"
	"iter"
	"maps"
)

// Display geometry. One row of the framebuffer is a 64-bit bitfield,
// bit 63-x holds column x.
const (
	WIDTH  = 64 // Display width in pixels.
	HEIGHT = 32 // Display height in pixels.
)

// Rate at which frontends refresh and timers decay.
const REFRESH_HZ = 60

var _display_defines = map[string]string{
	"DISPLAY_WIDTH":  fmt.Sprintf("%v", WIDTH),
	"DISPLAY_HEIGHT": fmt.Sprintf("%v", HEIGHT),
}

// Defines for the display geometry.
func Defines() iter.Seq2[string, string] {
	return maps.All(_display_defines)
}

// Frontend is the command boundary between the execution engine and the
// presentation layer. Implementations own the rendering surface, keyboard
// state, and audio playback.
//
// A frontend whose event loop has exited answers IsKeyPressed with false
// and fails WaitForKeyRelease with ErrFrontendClosed; the engine treats
// the former as recoverable and the latter as fatal.
type Frontend interface {
	// RequestRedraw renders the current framebuffer contents, returning
	// after the frontend's throttling delay.
	RequestRedraw()
	// Clear clears the rendering surface. The engine zeroes the
	// framebuffer itself before issuing this command.
	Clear()
	// IsKeyPressed reports whether the hex key (0..15) is currently down.
	IsKeyPressed(key uint8) bool
	// WaitForKeyRelease blocks until a key is released and returns its
	// mapped value (0..15). There is no timeout.
	WaitForKeyRelease() (key uint8, err error)
	// SetAudioEnabled starts or stops tone playback.
	SetAudioEnabled(enabled bool)
}
