package cpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		code    []byte
		version int
		inst    Instruction
	}){
		{"stop", []byte{0x0F}, VERSION_1,
			MakeInstruction(OP_STOP, Operand{}, Operand{})},
		{"mov_reg_imm", []byte{0x90, 0x00, 0x64, 0x0A}, VERSION_1,
			MakeInstruction(OP_MOV, MakeOperandRegister(REG_EAX, SECTOR_FULL), MakeOperandImmediate(100))},
		{"mov_mem_reg", []byte{0x70, 0x0A, 0x0B, 0x00, 0x04}, VERSION_1,
			MakeInstruction(OP_MOV, MakeOperandMemory(REG_EBX, 4, 4), MakeOperandRegister(REG_EAX, SECTOR_FULL))},
		{"add_sub_byte", []byte{0x71, 0x4B, 0x8D, 0xFF, 0xFE}, VERSION_1,
			MakeInstruction(OP_ADD, MakeOperandMemory(REG_EDX, -2, 1), MakeOperandRegister(REG_EBX, SECTOR_LOW))},
		{"jmp_imm", []byte{0x81, 0x12, 0x34}, VERSION_1,
			MakeInstruction(OP_JMP, MakeOperandImmediate(0x1234), Operand{})},
		{"sys", []byte{0x80, 0x00, 0x02}, VERSION_1,
			MakeInstruction(OP_SYS, MakeOperandImmediate(SYS_WRITE), Operand{})},
		{"push_reg", []byte{0x4B, 0x0C}, VERSION_2,
			MakeInstruction(OP_PUSH, MakeOperandRegister(REG_ECX, SECTOR_FULL), Operand{})},
		{"ret", []byte{0x0E}, VERSION_2,
			MakeInstruction(OP_RET, Operand{}, Operand{})},
	}

	for _, entry := range table {
		inst, err := Decode(entry.code, entry.version)
		assert.NoError(err, entry.name)
		assert.Equal(entry.inst, inst, entry.name)
		assert.Equal(len(entry.code), inst.Len, entry.name)
		assert.Equal(entry.code, inst.Bytes(), entry.name)
	}
}

func TestDecode_Invalid(t *testing.T) {
	assert := assert.New(t)

	// Call and return are not part of version 1.
	for _, code := range [][]byte{{0x0E}, {0x8D, 0x00, 0x00}, {0x4B, 0x0A}} {
		_, err := Decode(code, VERSION_1)
		assert.True(errors.Is(err, ErrInstructionInvalid), "%x", code)
	}

	// Unassigned opcodes
	for _, code := range [][]byte{{0x09}, {0x0A}} {
		_, err := Decode(code, VERSION_2)
		assert.True(errors.Is(err, ErrInstructionInvalid), "%x", code)
	}

	// Truncated operand
	_, err := Decode([]byte{0x90, 0x00}, VERSION_1)
	assert.True(errors.Is(err, ErrPhysicalAddress))

	_, err = Decode(nil, VERSION_1)
	assert.True(errors.Is(err, ErrPhysicalAddress))
}

func TestHeader(t *testing.T) {
	assert := assert.New(t)

	h := MakeHeader(OP_SUB, OPERAND_MEMORY, OPERAND_IMMEDIATE)
	assert.Equal(Header(0xB2), h)
	assert.True(h.TwoOperand())
	assert.Equal(OP_SUB, h.Opcode())
	assert.Equal(OPERAND_MEMORY, h.TypeA())
	assert.Equal(OPERAND_IMMEDIATE, h.TypeB())

	h = MakeHeader(OP_NOT, OPERAND_REGISTER, OPERAND_NONE)
	assert.Equal(Header(0x48), h)
	assert.False(h.TwoOperand())
	assert.Equal(OPERAND_REGISTER, h.TypeA())
	assert.Equal(OPERAND_NONE, h.TypeB())
}

func TestOperand(t *testing.T) {
	assert := assert.New(t)

	op := MakeOperandMemory(REG_ES, -8, 2)
	assert.Equal(REG_ES, op.Register())
	assert.Equal(int16(-8), op.Displacement())
	assert.Equal(MODE_WORD, op.Mode())
	assert.Equal(2, op.Size())
	assert.Equal([]byte{0x5C, 0xFF, 0xF8}, op.Bytes())
	assert.Equal(uint32(0x035CFFF8), op.Record())
	assert.Equal(op, OperandFromRecord(op.Record()))
	assert.Equal("w[ES-8]", op.String())

	op = MakeOperandImmediate(-1)
	assert.Equal(int32(-1), op.Immediate())
	assert.Equal(uint32(0x0200FFFF), op.Record())

	op = MakeOperandRegister(REG_EDX, SECTOR_HIGH)
	assert.Equal("DH", op.String())
	assert.Equal(1, op.Size())
	assert.Equal([]byte{0x8D}, op.Bytes())
}

func TestOperandType_String(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("none", OPERAND_NONE.String())
	assert.Equal("memory", OPERAND_MEMORY.String())
	assert.Equal("OperandType(4)", OperandType(4).String())
}
