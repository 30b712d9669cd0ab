package cpu

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// System call identifiers, the operand of SYS.
const (
	SYS_READ       = 0x1 // Read EDX[ECX] from the console, format EAX.
	SYS_WRITE      = 0x2 // Write EDX[ECX] to the console, format EAX.
	SYS_STR_READ   = 0x3 // Read a string to EDX, at most CX bytes.
	SYS_STR_WRITE  = 0x4 // Write the string at EDX.
	SYS_CLEAR      = 0x7 // Clear the console.
	SYS_BREAKPOINT = 0xF // Invoke the debugger.
)

// Console formats, the bits of EAX for SYS_READ and SYS_WRITE.
const (
	FMT_DEC = 0x01 // Decimal
	FMT_CHR = 0x02 // Characters
	FMT_OCT = 0x04 // Octal
	FMT_HEX = 0x08 // Hexadecimal
	FMT_BIN = 0x10 // Binary

	FMT_MASK = 0x1F
)

// STRING_MAX is the longest string SYS_STR_READ stores, excluding its NUL.
const STRING_MAX = 255

var _syscall_defines = map[string]string{
	"SYS_READ":       fmt.Sprintf("0x%x", SYS_READ),
	"SYS_WRITE":      fmt.Sprintf("0x%x", SYS_WRITE),
	"SYS_STR_READ":   fmt.Sprintf("0x%x", SYS_STR_READ),
	"SYS_STR_WRITE":  fmt.Sprintf("0x%x", SYS_STR_WRITE),
	"SYS_CLEAR":      fmt.Sprintf("0x%x", SYS_CLEAR),
	"SYS_BREAKPOINT": fmt.Sprintf("0x%x", SYS_BREAKPOINT),
	"FMT_DEC":        fmt.Sprintf("0x%x", FMT_DEC),
	"FMT_CHR":        fmt.Sprintf("0x%x", FMT_CHR),
	"FMT_OCT":        fmt.Sprintf("0x%x", FMT_OCT),
	"FMT_HEX":        fmt.Sprintf("0x%x", FMT_HEX),
	"FMT_BIN":        fmt.Sprintf("0x%x", FMT_BIN),
}

func (cpu *Cpu) execSys(inst Instruction) (err error) {
	id, err := cpu.getValue(inst.A)
	if err != nil {
		return
	}

	if cpu.Version < VERSION_2 && id > SYS_WRITE {
		err = ErrOperandInvalid
		return
	}

	switch id {
	case SYS_READ:
		err = cpu.sysRead()
	case SYS_WRITE:
		err = cpu.sysWrite()
	case SYS_STR_READ:
		err = cpu.sysStrRead()
	case SYS_STR_WRITE:
		err = cpu.sysStrWrite()
	case SYS_CLEAR:
		if cpu.Console != nil {
			err = cpu.Console.Clear()
		}
	case SYS_BREAKPOINT:
		if cpu.Debugger != nil {
			err = cpu.Debugger.Breakpoint(cpu)
		}
	default:
		err = ErrOperandInvalid
	}

	return
}

// output returns the console writer.
func (cpu *Cpu) output() io.Writer {
	if cpu.Console == nil {
		return io.Discard
	}
	return cpu.Console
}

// buffer returns the physical address of the ECX described array at EDX.
func (cpu *Cpu) buffer(modeErr error) (physical uint32, size int, count int, err error) {
	ecx := cpu.Register[REG_ECX]
	size = int((ecx >> 16) & 0xFF)
	count = int(ecx & 0xFF)

	if !validSize(size) {
		err = modeErr
		return
	}

	physical, err = cpu.Segment.Translate(cpu.Register[REG_EDX], len(cpu.Memory))
	if err != nil {
		return
	}

	end := physical + uint32(size*count)
	if end > uint32(len(cpu.Memory)) {
		err = &ErrAddress{Err: ErrPhysicalAddress, Address: end}
		return
	}

	return
}

// parseInput converts console input in a format to a value.
func parseInput(format uint32, line string) (value int32, ok bool, err error) {
	if format == FMT_CHR {
		if len(line) == 0 {
			return
		}
		value = int32(line[0])
		ok = true
		return
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	text := fields[0]

	base := 10
	switch format {
	case FMT_DEC:
	case FMT_OCT:
		base = 8
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0o"), "0O")
	case FMT_HEX:
		base = 16
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0x"), "0X")
	case FMT_BIN:
		base = 2
		text = strings.TrimPrefix(strings.TrimPrefix(text, "0b"), "0B")
	default:
		err = ErrReadMode
		return
	}

	wide, perr := strconv.ParseInt(text, base, 64)
	if perr != nil || wide < math.MinInt32 || wide > math.MaxUint32 {
		return
	}
	if base == 10 && wide > math.MaxInt32 {
		return
	}

	value = int32(wide)
	ok = true
	return
}

func (cpu *Cpu) sysRead() (err error) {
	format := cpu.Register[REG_EAX]
	switch format {
	case FMT_DEC, FMT_CHR, FMT_OCT, FMT_HEX, FMT_BIN:
	default:
		err = ErrReadMode
		return
	}

	physical, size, count, err := cpu.buffer(ErrReadMode)
	if err != nil {
		return
	}

	if cpu.Console == nil {
		err = ErrReadFault
		return
	}

	for n := range count {
		addr := physical + uint32(n*size)

		var value int32
		var ok bool
		for attempt := 0; attempt < 3 && !ok; attempt++ {
			line, rerr := cpu.Console.ReadLine(fmt.Sprintf("[%04X]: ", addr))
			if rerr != nil {
				err = &ErrAddress{Err: ErrReadFault, Address: addr}
				return
			}
			value, ok, err = parseInput(format, line)
			if err != nil {
				return
			}
			if !ok && attempt < 2 {
				fmt.Fprintln(cpu.Console, f("Invalid input. Try again."))
			}
		}
		if !ok {
			err = &ErrAddress{Err: ErrReadFault, Address: addr}
			return
		}

		err = cpu.Memory.Write(addr, value, size)
		if err != nil {
			return
		}
	}

	return
}

func (cpu *Cpu) sysWrite() (err error) {
	format := cpu.Register[REG_EAX]
	if format&^FMT_MASK != 0 {
		err = ErrWriteMode
		return
	}

	physical, size, count, err := cpu.buffer(ErrWriteMode)
	if err != nil {
		return
	}

	mask := uint32((uint64(1) << (8 * size)) - 1)
	out := cpu.output()

	for n := range count {
		addr := physical + uint32(n*size)
		var value int32
		value, err = cpu.Memory.Read(addr, size)
		if err != nil {
			return
		}
		raw := uint32(value) & mask

		text := fmt.Sprintf("[%04X]:", addr)
		if format&FMT_BIN != 0 {
			text += fmt.Sprintf(" 0b%b", raw)
		}
		if format&FMT_HEX != 0 {
			text += fmt.Sprintf(" 0x%X", raw)
		}
		if format&FMT_OCT != 0 {
			text += fmt.Sprintf(" 0o%o", raw)
		}
		if format&FMT_CHR != 0 {
			chars := bytes.Clone(cpu.Memory[addr : addr+uint32(size)])
			for i, c := range chars {
				if c < 32 || c > 126 {
					chars[i] = '.'
				}
			}
			text += " " + string(chars)
		}
		if format&FMT_DEC != 0 {
			text += fmt.Sprintf(" %d", value)
		}

		_, err = fmt.Fprintln(out, text)
		if err != nil {
			return
		}
	}

	return
}

func (cpu *Cpu) sysStrWrite() (err error) {
	logical := cpu.Register[REG_EDX]

	var text []byte
	for {
		var physical uint32
		physical, err = cpu.Segment.Translate(logical, len(cpu.Memory))
		if err != nil {
			return
		}
		c := cpu.Memory[physical]
		if c == 0 {
			break
		}
		text = append(text, c)
		logical = (logical & 0xFFFF0000) | ((logical + 1) & 0xFFFF)
	}

	_, err = cpu.output().Write(text)
	return
}

func (cpu *Cpu) sysStrRead() (err error) {
	if cpu.Console == nil {
		err = ErrReadFault
		return
	}

	limit := STRING_MAX
	if cx := int16(cpu.Register[REG_ECX]); cx > 0 && int(cx) < limit {
		limit = int(cx)
	}

	line, err := cpu.Console.ReadLine("")
	if err != nil {
		err = &ErrAddress{Err: ErrReadFault, Address: cpu.Register[REG_EDX]}
		return
	}
	if len(line) > limit {
		line = line[:limit]
	}

	logical := cpu.Register[REG_EDX]
	for _, c := range append([]byte(line), 0) {
		var physical uint32
		physical, err = cpu.Segment.Translate(logical, len(cpu.Memory))
		if err != nil {
			return
		}
		cpu.Memory[physical] = c
		logical = (logical & 0xFFFF0000) | ((logical + 1) & 0xFFFF)
	}

	return
}
