package emulator

import (
	"errors"

	"github.com/ezrec/mvx/translate"
)

var f = translate.From

var (
	ErrQuit = errors.New(f("quit at breakpoint"))
)

// ErrRuntime indicates the instruction pointer of a fatal runtime error.
type ErrRuntime struct {
	Ip  uint32
	Err error
}

func (err *ErrRuntime) Error() string {
	return f("ip %04X_%04X: %v", err.Ip>>16, err.Ip&0xFFFF, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
