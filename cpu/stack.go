package cpu

// stackSegment returns the SS selector and its segment descriptor.
func (cpu *Cpu) stackSegment() (sel Selector, seg Segment, err error) {
	sel = cpu.Register.Selector(REG_SS)
	index, ok := sel.Segment()
	if ok {
		seg = cpu.Segment[index]
	}
	if !ok || !seg.Present() {
		err = &ErrAddress{Err: ErrSegmentInvalid, Address: uint32(sel)}
	}
	return
}

// Push stores a 4 byte value below the stack pointer.
func (cpu *Cpu) Push(value int32) (err error) {
	sel, _, err := cpu.stackSegment()
	if err != nil {
		return
	}

	sp := cpu.Register[REG_SP]
	offset := int(AddressOffset(sp)) - 4
	if offset < 0 {
		err = &ErrAddress{Err: ErrStackOverflow, Address: sp}
		return
	}

	logical := sel.Address(uint16(offset))
	err = cpu.store(logical, value, 4)
	if err != nil {
		return
	}

	cpu.Register[REG_SP] = logical
	return
}

// Pop loads the 4 byte value at the stack pointer.
func (cpu *Cpu) Pop() (value int32, err error) {
	sel, seg, err := cpu.stackSegment()
	if err != nil {
		return
	}

	sp := cpu.Register[REG_SP]
	offset := int(AddressOffset(sp))
	if offset+4 > int(seg.Size) {
		err = &ErrAddress{Err: ErrStackUnderflow, Address: sp}
		return
	}

	value, err = cpu.load(sel.Address(uint16(offset)), 4)
	if err != nil {
		return
	}

	cpu.Register[REG_SP] = sel.Address(uint16(offset + 4))
	return
}

// InitMainFrame pushes the entry frame of a program: the parameter pointer
// array (SELECTOR_ABSENT when there are no parameters), the parameter count,
// and an invalid return address.
func (cpu *Cpu) InitMainFrame(argv uint32, argc int) (err error) {
	for _, value := range []uint32{argv, uint32(argc), IP_INVALID} {
		err = cpu.Push(int32(value))
		if err != nil {
			return
		}
	}
	return
}

func (cpu *Cpu) execPush(inst Instruction) (err error) {
	value, err := cpu.getValue(inst.A)
	if err != nil {
		return
	}

	err = cpu.Push(value)
	return
}

func (cpu *Cpu) execPop(inst Instruction) (err error) {
	value, err := cpu.Pop()
	if err != nil {
		return
	}

	err = cpu.setValue(inst.A, value)
	return
}
