// Package cpu implements the execution engine and assembler for the MV
// segmented 32-bit didactic processor.
//
// The processor has a flat big-endian memory of 1 to 1024 KiB, an eight
// slot segment table, and a 32 entry register file whose selector registers
// (CS, DS, ES, SS, KS, PS) hold a segment index in their high 16 bits.
// Instructions are variable length: a header byte carrying the opcode and
// operand types, followed by up to two Register, Immediate or Memory operands.
//
// Two architecture revisions are supported. Version 1 has a code and a data
// segment only. Version 2 adds the param, const, extra and stack segments,
// PUSH/POP/CALL/RET, and the string, clear screen and breakpoint syscalls.
//
// The assembler provides a small assembly language for the instruction set,
// with labels, equates, constant strings, and compile-time expression
// evaluation.
package cpu
