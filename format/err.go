package format

import (
	"errors"

	"github.com/ezrec/mvx/translate"
)

var f = translate.From

var (
	ErrImageIdent      = errors.New(f("not a VMX program image"))
	ErrImageVersion    = errors.New(f("unsupported VMX image version"))
	ErrCodeSize        = errors.New(f("invalid code size"))
	ErrEntryPoint      = errors.New(f("entry point outside of the code segment"))
	ErrParamSize       = errors.New(f("parameters too large"))
	ErrSnapshotIdent   = errors.New(f("not a VMI snapshot"))
	ErrSnapshotVersion = errors.New(f("unsupported VMI snapshot version"))
	ErrMemorySize      = errors.New(f("invalid memory size"))
)

// ErrFile annotates an error with the file that caused it.
type ErrFile struct {
	Path string
	Err  error
}

func (err *ErrFile) Error() string {
	return f("%v: %v", err.Path, err.Err)
}

func (err *ErrFile) Unwrap() error {
	return err.Err
}
