package cpu

import (
	"iter"
)

// Segment sizes of a version 2 program that does not set them.
const (
	DATA_SIZE_DEFAULT  = 1024
	STACK_SIZE_DEFAULT = 1024
)

// Statement is one assembled instruction.
type Statement struct {
	LineNo    int    // Source line number.
	Ip        int    // Offset in the code segment.
	Text      string // Source text, without comments and labels.
	Code      []byte // Encoded instruction.
	LinkLabel string // Label to link into the immediate operand.
}

// Program is an assembled program.
type Program struct {
	Version    int         // Architecture revision.
	Statements []Statement // Code segment.
	Const      []byte      // Const segment.
	Data       int         // Data segment size.
	Extra      int         // Extra segment size.
	Stack      int         // Stack segment size.
	Entry      int         // Entry point offset.
}

// Debug returns the statement at a code offset, or nil.
func (prog *Program) Debug(ip int) (stmt *Statement) {
	for n, st := range prog.Statements {
		if ip >= st.Ip && ip < st.Ip+len(st.Code) {
			stmt = &prog.Statements[n]
			break
		}
	}

	return
}

// Binary returns the code segment.
func (prog *Program) Binary() (code []byte) {
	for _, data := range prog.Codes() {
		code = append(code, data...)
	}

	return
}

// Codes iterates over the instruction offsets and encodings.
func (prog *Program) Codes() iter.Seq2[int, []byte] {
	return func(yield func(ip int, code []byte) bool) {
		for _, st := range prog.Statements {
			if !yield(st.Ip, st.Code) {
				return
			}
		}
	}
}
