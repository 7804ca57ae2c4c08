package emulator

import (
	"github.com/vmforge/chip8go/translate"
)

var f = translate.From

type ErrRuntime struct {
	LineNo int
	Err    error
}

func (err ErrRuntime) Error() string {
	if err.LineNo == 0 {
		return f("runtime: %v", err.Err)
	}

	return f("runtime: line %d: %v", err.LineNo, err.Err)
}

func (err ErrRuntime) Unwrap() error {
	return err.Err
}
