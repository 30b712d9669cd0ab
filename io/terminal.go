package io

import (
	"errors"
	"io"

	"github.com/chzyer/readline"
)

// Terminal is an interactive console with line editing.
type Terminal struct {
	rl *readline.Instance
}

// NewTerminal opens a line editor on a terminal.
func NewTerminal(in io.ReadCloser, out io.Writer) (con *Terminal, err error) {
	rl, err := readline.NewEx(&readline.Config{
		Stdin:                  in,
		Stdout:                 out,
		HistoryLimit:           -1,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		return
	}

	con = &Terminal{rl: rl}
	return
}

// Write sends console output.
func (con *Terminal) Write(data []byte) (n int, err error) {
	return con.rl.Stdout().Write(data)
}

// ReadLine reads an edited line. An interrupt reads as end of file.
func (con *Terminal) ReadLine(prompt string) (line string, err error) {
	con.rl.SetPrompt(prompt)

	line, err = con.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		err = io.EOF
	}

	return
}

// Clear clears the terminal screen.
func (con *Terminal) Clear() (err error) {
	_, err = io.WriteString(con, CLEAR_SCREEN)
	return
}

// Close restores the terminal.
func (con *Terminal) Close() error {
	return con.rl.Close()
}
