package cpu

import (
	"fmt"
	"strings"
)

// Register is an index into the register file.
type Register int

const (
	REG_LAR = Register(0)  // Logical address of the last memory access.
	REG_MAR = Register(1)  // Access size (high) and physical address (low).
	REG_MBR = Register(2)  // Value of the last memory access.
	REG_IP  = Register(3)  // Instruction pointer.
	REG_OPC = Register(4)  // Last decoded opcode.
	REG_OP1 = Register(5)  // Last decoded operand A.
	REG_OP2 = Register(6)  // Last decoded operand B.
	REG_SP  = Register(7)  // Stack pointer.
	REG_BP  = Register(8)  // Base pointer.
	REG_EAX = Register(10) // General purpose.
	REG_EBX = Register(11) // General purpose.
	REG_ECX = Register(12) // General purpose.
	REG_EDX = Register(13) // General purpose.
	REG_EEX = Register(14) // General purpose.
	REG_EFX = Register(15) // General purpose.
	REG_AC  = Register(16) // Accumulator, DIV remainder.
	REG_CC  = Register(17) // Condition code.
	REG_CS  = Register(26) // Code segment selector.
	REG_DS  = Register(27) // Data segment selector.
	REG_ES  = Register(28) // Extra segment selector.
	REG_SS  = Register(29) // Stack segment selector.
	REG_KS  = Register(30) // Const segment selector.
	REG_PS  = Register(31) // Param segment selector.
)

const REGISTER_COUNT = 32 // Entries in the register file.

// Condition code bits.
const (
	CC_N = uint32(1 << 31) // Negative
	CC_Z = uint32(1 << 30) // Zero
)

var registerName = [REGISTER_COUNT]string{
	REG_LAR: "LAR", REG_MAR: "MAR", REG_MBR: "MBR", REG_IP: "IP",
	REG_OPC: "OPC", REG_OP1: "OP1", REG_OP2: "OP2", REG_SP: "SP", REG_BP: "BP",
	REG_EAX: "EAX", REG_EBX: "EBX", REG_ECX: "ECX", REG_EDX: "EDX",
	REG_EEX: "EEX", REG_EFX: "EFX", REG_AC: "AC", REG_CC: "CC",
	REG_CS: "CS", REG_DS: "DS", REG_ES: "ES", REG_SS: "SS", REG_KS: "KS", REG_PS: "PS",
}

// Valid returns true for an index inside the register file.
func (reg Register) Valid() bool {
	return reg >= 0 && reg < REGISTER_COUNT
}

// General returns true for EAX through EFX.
func (reg Register) General() bool {
	return reg >= REG_EAX && reg <= REG_EFX
}

func (reg Register) String() string {
	if reg.Valid() && len(registerName[reg]) != 0 {
		return registerName[reg]
	}
	return fmt.Sprintf("R%d", int(reg))
}

// Sector selects the part of a register an operand addresses: all 32 bits
// (EAX), bits 0-7 (AL), bits 8-15 (AH) or bits 0-15 (AX).
type Sector int

//go:generate go tool stringer -linecomment -type=Sector
const (
	SECTOR_FULL = Sector(0) // full
	SECTOR_LOW  = Sector(1) // low
	SECTOR_HIGH = Sector(2) // high
	SECTOR_WORD = Sector(3) // word
)

// Size returns the sector width in bytes.
func (sec Sector) Size() int {
	switch sec {
	case SECTOR_LOW, SECTOR_HIGH:
		return 1
	case SECTOR_WORD:
		return 2
	}
	return 4
}

// Get extracts the sector from a register value, sign-extended.
func (sec Sector) Get(raw uint32) int32 {
	switch sec {
	case SECTOR_LOW:
		return int32(int8(raw))
	case SECTOR_HIGH:
		return int32(int8(raw >> 8))
	case SECTOR_WORD:
		return int32(int16(raw))
	}
	return int32(raw)
}

// Set replaces the sector of a register value, leaving the other bits alone.
func (sec Sector) Set(raw uint32, value int32) uint32 {
	switch sec {
	case SECTOR_LOW:
		return (raw &^ 0xFF) | (uint32(value) & 0xFF)
	case SECTOR_HIGH:
		return (raw &^ 0xFF00) | ((uint32(value) & 0xFF) << 8)
	case SECTOR_WORD:
		return (raw &^ 0xFFFF) | (uint32(value) & 0xFFFF)
	}
	return uint32(value)
}

// SubRegisterName names a register sector, e.g. EAX/AL/AH/AX.
func SubRegisterName(reg Register, sec Sector) string {
	if sec == SECTOR_FULL {
		return reg.String()
	}
	if reg.General() {
		letter := string("ABCDEF"[reg-REG_EAX])
		return letter + [...]string{"", "L", "H", "X"}[sec]
	}
	return reg.String() + [...]string{"", ".L", ".H", ".X"}[sec]
}

// ParseRegister parses a (sub-)register name.
func ParseRegister(name string) (reg Register, sec Sector, ok bool) {
	name = strings.ToUpper(name)
	for n, rname := range registerName {
		if len(rname) != 0 && rname == name {
			return Register(n), SECTOR_FULL, true
		}
	}
	if len(name) == 2 && name[0] >= 'A' && name[0] <= 'F' {
		reg = REG_EAX + Register(name[0]-'A')
		switch name[1] {
		case 'L':
			return reg, SECTOR_LOW, true
		case 'H':
			return reg, SECTOR_HIGH, true
		case 'X':
			return reg, SECTOR_WORD, true
		}
	}
	return 0, 0, false
}

// RegisterFile is the processor register bank.
type RegisterFile [REGISTER_COUNT]uint32

// SetCC updates the condition code from a result.
func (rf *RegisterFile) SetCC(result int32) {
	cc := rf[REG_CC] &^ (CC_N | CC_Z)
	if result < 0 {
		cc |= CC_N
	}
	if result == 0 {
		cc |= CC_Z
	}
	rf[REG_CC] = cc
}

// Selector returns a selector register as a Selector.
func (rf *RegisterFile) Selector(reg Register) Selector {
	return Selector(rf[reg])
}
