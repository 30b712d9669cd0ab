// Package io provides the consoles used by the MV system calls: a buffered
// stream console over any reader and writer, and an interactive terminal
// console with line editing.
package io

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/ezrec/mvx/cpu"
)

// CLEAR_SCREEN is the ANSI sequence that homes the cursor and clears the
// screen.
const CLEAR_SCREEN = "\033[H\033[2J"

// Console is a system call console that holds resources until closed.
type Console interface {
	cpu.Console
	io.Closer
}

var _ Console = (*Stream)(nil)
var _ Console = (*Terminal)(nil)

// Open returns a Terminal when both in and out are terminals, and a Stream
// otherwise.
func Open(in, out *os.File) (con Console, err error) {
	if term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd())) {
		con, err = NewTerminal(in, out)
		return
	}

	con = &Stream{Input: in, Output: out}
	return
}
