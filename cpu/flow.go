package cpu

// condition evaluates the condition code for a jump opcode.
func (cpu *Cpu) condition(op Opcode) bool {
	cc := cpu.Register[REG_CC]
	n := cc&CC_N != 0
	z := cc&CC_Z != 0

	switch op {
	case OP_JZ:
		return z
	case OP_JP:
		return !n && !z
	case OP_JN:
		return n
	case OP_JNZ:
		return !z
	case OP_JNP:
		return n || z
	case OP_JNN:
		return !n
	}
	return true
}

// target resolves a jump operand to a logical address in the code segment.
// ok is false when the offset lies outside the code segment.
func (cpu *Cpu) target(op Operand) (logical uint32, ok bool, err error) {
	var offset uint32
	if op.Type == OPERAND_IMMEDIATE {
		offset = op.Raw & 0xFFFF
	} else {
		var value int32
		value, err = cpu.getValue(op)
		if err != nil {
			return
		}
		offset = uint32(value)
	}

	cs, present := cpu.codeSegment()
	if !present || offset >= uint32(cs.Size) {
		return
	}

	logical = cpu.Register.Selector(REG_CS).Address(uint16(offset))
	ok = true
	return
}

func (cpu *Cpu) execJump(inst Instruction) (err error) {
	if !cpu.condition(inst.Opcode) {
		return
	}

	logical, ok, err := cpu.target(inst.A)
	if err != nil || !ok {
		return
	}

	cpu.Register[REG_IP] = logical
	return
}

func (cpu *Cpu) execCall(inst Instruction) (err error) {
	logical, ok, err := cpu.target(inst.A)
	if err != nil {
		return
	}
	if !ok {
		err = ErrSegmentInvalid
		return
	}

	err = cpu.Push(int32(cpu.Register[REG_IP]))
	if err != nil {
		return
	}

	cpu.Register[REG_IP] = logical
	return
}

func (cpu *Cpu) execRet(inst Instruction) (err error) {
	value, err := cpu.Pop()
	if err != nil {
		return
	}

	cpu.Register[REG_IP] = uint32(value)
	return
}

func (cpu *Cpu) execStop(inst Instruction) (err error) {
	cpu.Register[REG_IP] = IP_INVALID
	cpu.Halt()
	return
}
