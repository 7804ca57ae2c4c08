// Package cpu implements the CHIP-8 execution engine and assembler.
//
// The engine consists of a 4KB memory with a built-in hex digit font,
// sixteen 8-bit general-purpose registers (v0-vf), a 16-bit index register,
// a 16-deep call stack, and delay/sound timers that decay at 60Hz. Sprites
// are composed onto a shared 64x32 framebuffer by XOR; keyboard and audio
// are reached through an attached frontend.
//
// The assembler provides an assembly language for the 35-instruction set,
// supporting macros, labels, equates, and compile-time expression
// evaluation.
package cpu
