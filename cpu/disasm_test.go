package cpu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		inst Instruction
		text string
	}){
		{MakeInstruction(OP_STOP, Operand{}, Operand{}), "STOP"},
		{MakeInstruction(OP_RET, Operand{}, Operand{}), "RET"},
		{MakeInstruction(OP_MOV, MakeOperandRegister(REG_EAX, SECTOR_FULL), MakeOperandImmediate(-100)), "MOV   EAX, -100"},
		{MakeInstruction(OP_ADD, MakeOperandMemory(REG_EBX, 4, 4), MakeOperandRegister(REG_ECX, SECTOR_LOW)), "ADD   [EBX+4], CL"},
		{MakeInstruction(OP_SUB, MakeOperandMemory(REG_DS, 0, 1), MakeOperandMemory(REG_ES, -2, 2)), "SUB   b[DS], w[ES-2]"},
		{MakeInstruction(OP_JNZ, MakeOperandImmediate(0x20), Operand{}), "JNZ   0x0020"},
		{MakeInstruction(OP_CALL, MakeOperandRegister(REG_EDX, SECTOR_WORD), Operand{}), "CALL  DX"},
		{MakeInstruction(OP_SYS, MakeOperandImmediate(SYS_WRITE), Operand{}), "SYS   2"},
		{Instruction{Opcode: Opcode(0x09)}, "OP_09"},
	}

	for _, entry := range table {
		assert.Equal(entry.text, Disassemble(entry.inst), entry.text)
	}
}

func TestCpu_Listing(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := newTestCpu(t, "STOP\n_start: MOV EAX, 1\nJMP _start")

	// Const segment strings
	copy(cpu.Memory[0x3000:], "hi\x00there\x00")
	cpu.Segment[3] = Segment{Base: 0x3000, Size: 9}
	cpu.Register[REG_KS] = uint32(MakeSelector(3))

	var buff strings.Builder
	assert.NoError(cpu.Listing(&buff))

	lines := strings.Split(strings.TrimSuffix(buff.String(), "\n"), "\n")
	assert.Equal(5, len(lines))
	assert.Equal(` [0000] "hi"`, lines[0])
	assert.Equal(` [0003] "there"`, lines[1])
	assert.True(strings.HasPrefix(lines[2], " [0000] 0F "), lines[2])
	assert.True(strings.HasSuffix(lines[2], "| STOP"), lines[2])
	assert.True(strings.HasPrefix(lines[3], ">[0001] 90 00 01 0A "), lines[3])
	assert.True(strings.HasSuffix(lines[3], "| MOV   EAX, 1"), lines[3])
	assert.True(strings.HasPrefix(lines[4], " [0005] 81 00 01 "), lines[4])
	assert.True(strings.HasSuffix(lines[4], "| JMP   0x0001"), lines[4])
}
