package io

import (
	"bufio"
	"io"
	"strings"
)

// Stream is a line console over a plain reader and writer. A nil Input
// reads as end of file, and a nil Output discards.
type Stream struct {
	Input  io.Reader
	Output io.Writer

	reader *bufio.Reader
}

// Write sends console output.
func (con *Stream) Write(data []byte) (n int, err error) {
	if con.Output == nil {
		n = len(data)
		return
	}

	n, err = con.Output.Write(data)
	return
}

// ReadLine prints the prompt and returns the next input line without its
// line terminator. A final line without a terminator is still returned.
func (con *Stream) ReadLine(prompt string) (line string, err error) {
	if len(prompt) != 0 {
		_, err = io.WriteString(con, prompt)
		if err != nil {
			return
		}
	}

	if con.Input == nil {
		err = io.EOF
		return
	}

	if con.reader == nil {
		con.reader = bufio.NewReader(con.Input)
	}

	line, err = con.reader.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err != nil {
		return
	}

	line = strings.TrimRight(line, "\r\n")
	return
}

// Clear writes the clear screen sequence.
func (con *Stream) Clear() (err error) {
	_, err = io.WriteString(con, CLEAR_SCREEN)
	return
}

// Close does nothing; the caller owns Input and Output.
func (con *Stream) Close() error {
	return nil
}
