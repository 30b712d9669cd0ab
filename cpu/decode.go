package cpu

// Instruction is a decoded instruction.
type Instruction struct {
	Header Header
	Opcode Opcode
	A      Operand // Destination, or the single operand.
	B      Operand // Source.
	Len    int     // Encoded length in bytes.
}

// MakeInstruction builds an instruction from its parts, computing the header
// and the encoded length.
func MakeInstruction(op Opcode, a, b Operand) (inst Instruction) {
	info, _ := op.Info()
	switch info.Operands {
	case 0:
		a, b = Operand{}, Operand{}
	case 1:
		b = Operand{}
	}
	inst = Instruction{
		Header: MakeHeader(op, a.Type, b.Type),
		Opcode: op,
		A:      a,
		B:      b,
		Len:    1 + a.Len() + b.Len(),
	}
	return
}

// Bytes encodes the instruction: header, then operand B, then operand A.
func (inst Instruction) Bytes() (data []byte) {
	data = append(data, byte(inst.Header))
	data = append(data, inst.B.Bytes()...)
	data = append(data, inst.A.Bytes()...)
	return
}

func (inst Instruction) String() string {
	return Disassemble(inst)
}

// decodeOperand reads an operand of type ot from the start of code.
func decodeOperand(code []byte, ot OperandType) (op Operand, err error) {
	n := ot.Len()
	if len(code) < n {
		err = &ErrAddress{Err: ErrPhysicalAddress, Address: uint32(len(code))}
		return
	}
	op.Type = ot
	for _, b := range code[:n] {
		op.Raw = op.Raw<<8 | uint32(b)
	}
	return
}

// Decode decodes the instruction at the start of code for an architecture
// revision. On an unknown opcode the header and opcode of inst are still
// valid.
func Decode(code []byte, version int) (inst Instruction, err error) {
	if len(code) == 0 {
		err = &ErrAddress{Err: ErrPhysicalAddress, Address: 0}
		return
	}

	inst.Header = Header(code[0])
	inst.Opcode = inst.Header.Opcode()
	inst.Len = 1

	if !inst.Opcode.Supported(version) {
		err = &ErrInstruction{Opcode: inst.Opcode, Err: ErrInstructionInvalid}
		return
	}

	switch inst.Opcode {
	case OP_STOP, OP_RET:
		return
	}

	if inst.Header.TwoOperand() {
		inst.B, err = decodeOperand(code[inst.Len:], inst.Header.TypeB())
		if err != nil {
			return
		}
		inst.Len += inst.B.Len()
	}

	inst.A, err = decodeOperand(code[inst.Len:], inst.Header.TypeA())
	if err != nil {
		return
	}
	inst.Len += inst.A.Len()

	return
}
