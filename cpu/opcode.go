package cpu

import (
	"fmt"
	"strings"
)

// Architecture revisions.
const (
	VERSION_1 = 1 // Code and data segments only.
	VERSION_2 = 2 // Five segments, stack and subroutine calls.
)

// Opcode is the 5-bit operation code of an instruction.
type Opcode byte

const (
	OP_SYS  = Opcode(0x00) // SYS
	OP_JMP  = Opcode(0x01) // JMP
	OP_JZ   = Opcode(0x02) // JZ
	OP_JP   = Opcode(0x03) // JP
	OP_JN   = Opcode(0x04) // JN
	OP_JNZ  = Opcode(0x05) // JNZ
	OP_JNP  = Opcode(0x06) // JNP
	OP_JNN  = Opcode(0x07) // JNN
	OP_NOT  = Opcode(0x08) // NOT
	OP_PUSH = Opcode(0x0B) // PUSH
	OP_POP  = Opcode(0x0C) // POP
	OP_CALL = Opcode(0x0D) // CALL
	OP_RET  = Opcode(0x0E) // RET
	OP_STOP = Opcode(0x0F) // STOP
	OP_MOV  = Opcode(0x10) // MOV
	OP_ADD  = Opcode(0x11) // ADD
	OP_SUB  = Opcode(0x12) // SUB
	OP_MUL  = Opcode(0x13) // MUL
	OP_DIV  = Opcode(0x14) // DIV
	OP_CMP  = Opcode(0x15) // CMP
	OP_SHL  = Opcode(0x16) // SHL
	OP_SHR  = Opcode(0x17) // SHR
	OP_SAR  = Opcode(0x18) // SAR
	OP_AND  = Opcode(0x19) // AND
	OP_OR   = Opcode(0x1A) // OR
	OP_XOR  = Opcode(0x1B) // XOR
	OP_SWAP = Opcode(0x1C) // SWAP
	OP_LDL  = Opcode(0x1D) // LDL
	OP_LDH  = Opcode(0x1E) // LDH
	OP_RND  = Opcode(0x1F) // RND
)

// OpcodeInfo describes an instruction kind. The table is shared by the
// decoder, the disassembler and the assembler.
type OpcodeInfo struct {
	Mnemonic string
	Operands int  // 0, 1 or 2
	Version  int  // First architecture revision with this instruction.
	Jump     bool // Operand A is a code segment offset.
}

var opcodeTable = [32]OpcodeInfo{
	OP_SYS:  {"SYS", 1, VERSION_1, false},
	OP_JMP:  {"JMP", 1, VERSION_1, true},
	OP_JZ:   {"JZ", 1, VERSION_1, true},
	OP_JP:   {"JP", 1, VERSION_1, true},
	OP_JN:   {"JN", 1, VERSION_1, true},
	OP_JNZ:  {"JNZ", 1, VERSION_1, true},
	OP_JNP:  {"JNP", 1, VERSION_1, true},
	OP_JNN:  {"JNN", 1, VERSION_1, true},
	OP_NOT:  {"NOT", 1, VERSION_1, false},
	OP_PUSH: {"PUSH", 1, VERSION_2, false},
	OP_POP:  {"POP", 1, VERSION_2, false},
	OP_CALL: {"CALL", 1, VERSION_2, true},
	OP_RET:  {"RET", 0, VERSION_2, false},
	OP_STOP: {"STOP", 0, VERSION_1, false},
	OP_MOV:  {"MOV", 2, VERSION_1, false},
	OP_ADD:  {"ADD", 2, VERSION_1, false},
	OP_SUB:  {"SUB", 2, VERSION_1, false},
	OP_MUL:  {"MUL", 2, VERSION_1, false},
	OP_DIV:  {"DIV", 2, VERSION_1, false},
	OP_CMP:  {"CMP", 2, VERSION_1, false},
	OP_SHL:  {"SHL", 2, VERSION_1, false},
	OP_SHR:  {"SHR", 2, VERSION_1, false},
	OP_SAR:  {"SAR", 2, VERSION_1, false},
	OP_AND:  {"AND", 2, VERSION_1, false},
	OP_OR:   {"OR", 2, VERSION_1, false},
	OP_XOR:  {"XOR", 2, VERSION_1, false},
	OP_SWAP: {"SWAP", 2, VERSION_1, false},
	OP_LDL:  {"LDL", 2, VERSION_1, false},
	OP_LDH:  {"LDH", 2, VERSION_1, false},
	OP_RND:  {"RND", 2, VERSION_1, false},
}

// Info returns the instruction kind of an opcode.
func (op Opcode) Info() (info OpcodeInfo, ok bool) {
	if int(op) >= len(opcodeTable) {
		return
	}
	info = opcodeTable[op]
	ok = len(info.Mnemonic) != 0
	return
}

// Supported returns true if the opcode exists in architecture revision version.
func (op Opcode) Supported(version int) bool {
	info, ok := op.Info()
	return ok && info.Version <= version
}

func (op Opcode) String() string {
	info, ok := op.Info()
	if !ok {
		return fmt.Sprintf("OP_%02X", byte(op))
	}
	return info.Mnemonic
}

// LookupOpcode finds an opcode by mnemonic.
func LookupOpcode(mnemonic string) (op Opcode, ok bool) {
	mnemonic = strings.ToUpper(mnemonic)
	for n, info := range opcodeTable {
		if len(info.Mnemonic) != 0 && info.Mnemonic == mnemonic {
			return Opcode(n), true
		}
	}
	return
}

// OperandType is the 2-bit operand type field of an instruction header.
type OperandType int

//go:generate go tool stringer -linecomment -type=OperandType
const (
	OPERAND_NONE      = OperandType(0b00) // none
	OPERAND_REGISTER  = OperandType(0b01) // register
	OPERAND_IMMEDIATE = OperandType(0b10) // immediate
	OPERAND_MEMORY    = OperandType(0b11) // memory
)

// Len returns the encoded length, in bytes, of an operand of this type.
func (ot OperandType) Len() int {
	return int(ot)
}

// Header is the first byte of an instruction:
//
//	bits 0-4: opcode (bit 4 set for two-operand instructions)
//	bits 4-5: operand A type (two-operand instructions)
//	bits 6-7: operand B type (two-operand), operand A type (one-operand)
type Header byte

// MakeHeader encodes an instruction header. Operand A of a two-operand
// instruction must be a register or memory operand, as bit 4 is shared with
// the opcode.
func MakeHeader(op Opcode, a, b OperandType) Header {
	info, _ := op.Info()
	switch info.Operands {
	case 2:
		return Header(byte(op&0x1F) | byte(a&3)<<4 | byte(b&3)<<6)
	case 1:
		return Header(byte(op&0x1F) | byte(a&3)<<6)
	}
	return Header(op & 0x1F)
}

// Opcode returns the operation code.
func (h Header) Opcode() Opcode {
	return Opcode(h & 0x1F)
}

// TwoOperand returns the operand count bit.
func (h Header) TwoOperand() bool {
	return (h>>4)&1 == 1
}

// TypeA returns the type of operand A.
func (h Header) TypeA() OperandType {
	if h.TwoOperand() {
		return OperandType((h >> 4) & 3)
	}
	return OperandType((h >> 6) & 3)
}

// TypeB returns the type of operand B.
func (h Header) TypeB() OperandType {
	if h.TwoOperand() {
		return OperandType((h >> 6) & 3)
	}
	return OPERAND_NONE
}
