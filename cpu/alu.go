package cpu

import (
	"math"
)

// operands reads the source, then the destination, of a two-operand
// instruction.
func (cpu *Cpu) operands(inst Instruction) (a, b int32, err error) {
	b, err = cpu.getValue(inst.B)
	if err != nil {
		return
	}
	a, err = cpu.getValue(inst.A)
	return
}

// result writes an instruction result and updates the condition code.
func (cpu *Cpu) result(inst Instruction, value int32) (err error) {
	err = cpu.setValue(inst.A, value)
	if err != nil {
		return
	}
	cpu.Register.SetCC(value)
	return
}

func (cpu *Cpu) execMov(inst Instruction) (err error) {
	b, err := cpu.getValue(inst.B)
	if err != nil {
		return
	}
	err = cpu.setValue(inst.A, b)
	return
}

func (cpu *Cpu) execArith(inst Instruction) (err error) {
	a, b, err := cpu.operands(inst)
	if err != nil {
		return
	}

	var wide int64
	switch inst.Opcode {
	case OP_ADD:
		wide = int64(a) + int64(b)
	case OP_SUB:
		wide = int64(a) - int64(b)
	case OP_MUL:
		wide = int64(a) * int64(b)
	}

	if wide > math.MaxInt32 || wide < math.MinInt32 {
		err = ErrOverflow
		return
	}

	err = cpu.result(inst, int32(wide))
	return
}

func (cpu *Cpu) execDiv(inst Instruction) (err error) {
	a, b, err := cpu.operands(inst)
	if err != nil {
		return
	}

	if b == 0 {
		err = ErrDivideByZero
		return
	}
	if a == math.MinInt32 && b == -1 {
		err = ErrOverflow
		return
	}

	err = cpu.result(inst, a/b)
	if err != nil {
		return
	}
	cpu.Register[REG_AC] = uint32(a % b)
	return
}

func (cpu *Cpu) execCmp(inst Instruction) (err error) {
	a, b, err := cpu.operands(inst)
	if err != nil {
		return
	}

	cpu.Register.SetCC(a - b)
	return
}

func (cpu *Cpu) execShift(inst Instruction) (err error) {
	b, err := cpu.getValue(inst.B)
	if err != nil {
		return
	}
	if b < 0 || b > 31 {
		err = ErrOperandInvalid
		return
	}

	a, err := cpu.getValue(inst.A)
	if err != nil {
		return
	}

	var value int32
	switch inst.Opcode {
	case OP_SHL:
		value = a << b
	case OP_SHR:
		value = int32(uint32(a&math.MaxInt32) >> b)
	case OP_SAR:
		value = a >> b
	}

	err = cpu.result(inst, value)
	return
}

func (cpu *Cpu) execLogic(inst Instruction) (err error) {
	a, b, err := cpu.operands(inst)
	if err != nil {
		return
	}

	var value int32
	switch inst.Opcode {
	case OP_AND:
		value = a & b
	case OP_OR:
		value = a | b
	case OP_XOR:
		value = a ^ b
	}

	err = cpu.result(inst, value)
	return
}

func (cpu *Cpu) execNot(inst Instruction) (err error) {
	a, err := cpu.getValue(inst.A)
	if err != nil {
		return
	}

	err = cpu.result(inst, ^a)
	return
}

func (cpu *Cpu) execSwap(inst Instruction) (err error) {
	for _, op := range []Operand{inst.A, inst.B} {
		if op.Type != OPERAND_REGISTER && op.Type != OPERAND_MEMORY {
			err = ErrOperandInvalid
			return
		}
	}
	if inst.A.Size() != inst.B.Size() {
		err = ErrOperandInvalid
		return
	}

	a, b, err := cpu.operands(inst)
	if err != nil {
		return
	}

	err = cpu.setValue(inst.A, b)
	if err != nil {
		return
	}
	err = cpu.setValue(inst.B, a)
	return
}

func (cpu *Cpu) execLoadHalf(inst Instruction) (err error) {
	a, b, err := cpu.operands(inst)
	if err != nil {
		return
	}

	var value int32
	switch inst.Opcode {
	case OP_LDL:
		value = int32((uint32(a) & 0xFFFF0000) | (uint32(b) & 0xFFFF))
	case OP_LDH:
		value = int32(((uint32(b) & 0xFFFF) << 16) | (uint32(a) & 0xFFFF))
	}

	err = cpu.setValue(inst.A, value)
	return
}

func (cpu *Cpu) execRnd(inst Instruction) (err error) {
	b, err := cpu.getValue(inst.B)
	if err != nil {
		return
	}
	if b < 0 {
		err = ErrOperandInvalid
		return
	}

	err = cpu.setValue(inst.A, int32(cpu.Rand.Int64N(int64(b)+1)))
	return
}
