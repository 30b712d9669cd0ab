package cpu

import (
	"fmt"
)

// Memory operand access modes, in bits 6-7 of the first operand byte.
const (
	MODE_LONG    = 0b00 // 4 bytes
	MODE_WORD    = 0b01 // 2 bytes
	MODE_BYTE    = 0b10 // 1 byte
	MODE_INVALID = 0b11
)

// Operand is a decoded instruction operand: its type, and the raw bytes of
// its encoding assembled big-endian.
type Operand struct {
	Type OperandType
	Raw  uint32
}

// MakeOperandRegister encodes a register operand.
func MakeOperandRegister(reg Register, sec Sector) Operand {
	return Operand{
		Type: OPERAND_REGISTER,
		Raw:  uint32(reg&0x1F) | uint32(sec&3)<<6,
	}
}

// MakeOperandImmediate encodes an immediate operand.
func MakeOperandImmediate(value int32) Operand {
	return Operand{
		Type: OPERAND_IMMEDIATE,
		Raw:  uint32(value) & 0xFFFF,
	}
}

// MakeOperandMemory encodes a memory operand of size 1, 2 or 4 bytes.
func MakeOperandMemory(base Register, displacement int16, size int) Operand {
	mode := MODE_LONG
	switch size {
	case 1:
		mode = MODE_BYTE
	case 2:
		mode = MODE_WORD
	}
	return Operand{
		Type: OPERAND_MEMORY,
		Raw:  (uint32(base&0x1F)|uint32(mode)<<6)<<16 | uint32(uint16(displacement)),
	}
}

// Len returns the encoded length of the operand.
func (op Operand) Len() int {
	return op.Type.Len()
}

// Bytes returns the encoded operand.
func (op Operand) Bytes() (data []byte) {
	n := op.Len()
	data = make([]byte, n)
	for i := range n {
		data[i] = byte(op.Raw >> (8 * (n - 1 - i)))
	}
	return
}

// Record returns the operand as stored in the OP1 and OP2 registers.
func (op Operand) Record() uint32 {
	return uint32(op.Type)<<24 | (op.Raw & 0xFFFFFF)
}

// OperandFromRecord decodes an OP1 or OP2 register value.
func OperandFromRecord(record uint32) Operand {
	return Operand{
		Type: OperandType((record >> 24) & 3),
		Raw:  record & 0xFFFFFF,
	}
}

// Register returns the register of a register operand, or the base register
// of a memory operand.
func (op Operand) Register() Register {
	switch op.Type {
	case OPERAND_MEMORY:
		return Register((op.Raw >> 16) & 0x1F)
	}
	return Register(op.Raw & 0x1F)
}

// Sector returns the register sector of a register operand.
func (op Operand) Sector() Sector {
	return Sector((op.Raw >> 6) & 3)
}

// Immediate returns the sign-extended immediate value.
func (op Operand) Immediate() int32 {
	return int32(int16(op.Raw))
}

// Mode returns the access mode of a memory operand.
func (op Operand) Mode() int {
	return int((op.Raw >> 22) & 3)
}

// Displacement returns the signed displacement of a memory operand.
func (op Operand) Displacement() int16 {
	return int16(op.Raw)
}

// Size returns the width in bytes of the value the operand addresses.
func (op Operand) Size() (size int) {
	switch op.Type {
	case OPERAND_REGISTER:
		size = op.Sector().Size()
	case OPERAND_IMMEDIATE:
		size = 2
	case OPERAND_MEMORY:
		switch op.Mode() {
		case MODE_LONG:
			size = 4
		case MODE_WORD:
			size = 2
		case MODE_BYTE:
			size = 1
		}
	}
	return
}

func (op Operand) String() string {
	switch op.Type {
	case OPERAND_REGISTER:
		return SubRegisterName(op.Register(), op.Sector())
	case OPERAND_IMMEDIATE:
		return fmt.Sprintf("%d", op.Immediate())
	case OPERAND_MEMORY:
		prefix := ""
		switch op.Size() {
		case 1:
			prefix = "b"
		case 2:
			prefix = "w"
		}
		disp := op.Displacement()
		switch {
		case disp > 0:
			return fmt.Sprintf("%s[%v+%d]", prefix, op.Register(), disp)
		case disp < 0:
			return fmt.Sprintf("%s[%v%d]", prefix, op.Register(), disp)
		}
		return fmt.Sprintf("%s[%v]", prefix, op.Register())
	}
	return ""
}
