package display

import (
	"errors"

	"github.com/vmforge/chip8go/translate"
)

var f = translate.From

var (
	ErrFrontendClosed = errors.New(f("frontend closed"))
)
