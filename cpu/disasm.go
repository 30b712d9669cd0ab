package cpu

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// operandText renders an operand; jump targets are shown as code offsets.
func operandText(op Operand, jump bool) string {
	if jump && op.Type == OPERAND_IMMEDIATE {
		return fmt.Sprintf("0x%04X", op.Raw&0xFFFF)
	}
	return op.String()
}

// Disassemble renders an instruction as assembly text.
func Disassemble(inst Instruction) string {
	info, ok := inst.Opcode.Info()
	if !ok {
		return inst.Opcode.String()
	}

	switch info.Operands {
	case 0:
		return info.Mnemonic
	case 1:
		return fmt.Sprintf("%-5s %s", info.Mnemonic, operandText(inst.A, info.Jump))
	}

	return fmt.Sprintf("%-5s %s, %s", info.Mnemonic, operandText(inst.A, false), operandText(inst.B, false))
}

// selectorSegment returns the segment named by a selector register.
func (cpu *Cpu) selectorSegment(reg Register) (seg Segment, ok bool) {
	index, ok := cpu.Register.Selector(reg).Segment()
	if !ok {
		return
	}
	seg = cpu.Segment[index]
	ok = seg.Present()
	return
}

// Listing writes the disassembly of the code segment, preceded by the
// strings of the const segment.
func (cpu *Cpu) Listing(w io.Writer) (err error) {
	if ks, ok := cpu.selectorSegment(REG_KS); ok && ks.End() <= uint32(len(cpu.Memory)) {
		data := cpu.Memory[ks.Base:ks.End()]
		offset := 0
		for len(data) != 0 {
			text, rest, _ := bytes.Cut(data, []byte{0})
			_, err = fmt.Fprintf(w, " [%04X] %s\n", offset, strconv.Quote(string(text)))
			if err != nil {
				return
			}
			offset += len(data) - len(rest)
			data = rest
		}
	}

	cs, ok := cpu.codeSegment()
	if !ok || cs.End() > uint32(len(cpu.Memory)) {
		err = &ErrAddress{Err: ErrSegmentInvalid, Address: cpu.Register[REG_CS]}
		return
	}

	code := cpu.Memory[cs.Base:cs.End()]
	entry := -1
	if cpu.Version >= VERSION_2 {
		entry = int(cpu.Ip())
	}

	for offset := 0; offset < len(code); {
		inst, derr := Decode(code[offset:], cpu.Version)
		size := inst.Len
		text := Disassemble(inst)
		if derr != nil {
			size = 1
			text = "??"
		}

		marker := " "
		if offset == entry {
			marker = ">"
		}

		_, err = fmt.Fprintf(w, "%s[%04X] %-20s | %s\n", marker, offset, fmt.Sprintf("% X", code[offset:offset+size]), text)
		if err != nil {
			return
		}

		offset += size
	}

	return
}
