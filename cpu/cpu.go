package cpu

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"math/rand/v2"
)

// State is the run state of the processor. A processor is halted by STOP,
// by running past its code, or by an instruction fault, and faulted by a
// fatal fetch or opcode fault.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_RUNNING = State(0) // running
	STATE_HALTED  = State(1) // halted
	STATE_FAULTED = State(2) // faulted
)

// IP_INVALID is the instruction pointer after STOP.
const IP_INVALID = uint32(0xFFFFFFFF)

// Console is the terminal used by the console system calls.
type Console interface {
	io.Writer
	// ReadLine prompts for, and returns, one line without its line ending.
	ReadLine(prompt string) (line string, err error)
	// Clear clears the screen.
	Clear() (err error)
}

// Debugger is invoked by the BREAKPOINT system call.
type Debugger interface {
	Breakpoint(cpu *Cpu) (err error)
}

var _cpu_defines = map[string]string{
	"SELECTOR_ABSENT": fmt.Sprintf("0x%x", uint32(SELECTOR_ABSENT)),
	"IP_INVALID":      fmt.Sprintf("0x%x", IP_INVALID),
	"CC_N":            fmt.Sprintf("0x%x", CC_N),
	"CC_Z":            fmt.Sprintf("0x%x", CC_Z),
}

// Cpu is the simulation context of an MV processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Version  int          // Architecture revision of the loaded image.
	Memory   Memory       // Physical memory.
	Segment  SegmentTable // Segment descriptors.
	Register RegisterFile // Register bank.

	State State // Run state.
	Fault error // Fault that stopped the processor, if any.

	Console  Console    // Console for system calls.
	Debugger Debugger   // Breakpoint handler, optional.
	Rand     *rand.Rand // Source for RND.

	Steps int // Executed instruction counter.
}

// NewCpu creates a new processor with kib KiB of memory.
func NewCpu(kib int) (cpu *Cpu) {
	cpu = &Cpu{
		Version: VERSION_2,
		Memory:  NewMemory(kib),
		Rand:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}

	return
}

// Seed reseeds the RND source.
func (cpu *Cpu) Seed(seed uint64) {
	cpu.Rand = rand.New(rand.NewPCG(seed, seed))
}

// Defines for the cpu.
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return defines()
}

// Reset clears memory, registers and segments, and sets the processor
// running.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Memory)
	clear(cpu.Register[:])
	clear(cpu.Segment[:])

	cpu.State = STATE_RUNNING
	cpu.Fault = nil
	cpu.Steps = 0
}

// Running returns true until the processor halts or faults.
func (cpu *Cpu) Running() bool {
	return cpu.State == STATE_RUNNING
}

// Halt stops the processor gracefully.
func (cpu *Cpu) Halt() {
	if cpu.State == STATE_RUNNING {
		cpu.State = STATE_HALTED
	}
}

// raise records a fault and stops the processor.
// An *ErrFatal fault leaves the processor faulted, any other halted.
func (cpu *Cpu) raise(err error) {
	var fatal *ErrFatal
	if errors.As(err, &fatal) {
		cpu.State = STATE_FAULTED
	} else {
		cpu.State = STATE_HALTED
	}
	cpu.Fault = err

	if cpu.Verbose {
		log.Printf("cpu: %08X: %v", cpu.Register[REG_IP], err)
	}
}

// codeSegment returns the segment named by CS.
func (cpu *Cpu) codeSegment() (seg Segment, ok bool) {
	index, ok := cpu.Register.Selector(REG_CS).Segment()
	if !ok {
		return
	}
	seg = cpu.Segment[index]
	ok = seg.Present()
	return
}

// Ip returns the offset of the instruction pointer in the code segment.
func (cpu *Cpu) Ip() uint16 {
	return AddressOffset(cpu.Register[REG_IP])
}

// fetch translates the instruction pointer and decodes the instruction there.
// done is set when the instruction pointer has left the code segment.
func (cpu *Cpu) fetch() (inst Instruction, done bool, err error) {
	ip := cpu.Register[REG_IP]

	cs, ok := cpu.codeSegment()
	if !ok {
		err = &ErrFatal{Err: &ErrAddress{Err: ErrSegmentInvalid, Address: cpu.Register[REG_CS]}}
		return
	}

	if AddressOffset(ip) >= cs.Size {
		done = true
		return
	}

	physical, err := cpu.Segment.Translate(ip, len(cpu.Memory))
	if err != nil {
		err = &ErrFatal{Err: err}
		return
	}

	inst, err = Decode(cpu.Memory[physical:], cpu.Version)
	if err != nil {
		var opErr *ErrInstruction
		if errors.As(err, &opErr) {
			err = &ErrFatal{Err: err}
		} else {
			err = &ErrAddress{Err: ErrPhysicalAddress, Address: physical + uint32(len(cpu.Memory[physical:]))}
		}
		return
	}

	return
}

// Peek decodes the instruction at the instruction pointer without executing
// it.
func (cpu *Cpu) Peek() (inst Instruction, err error) {
	inst, done, err := cpu.fetch()
	if err == nil && done {
		err = io.EOF
	}
	return
}

// Tick executes a single instruction cycle.
// Only fatal faults are returned, other faults halt the processor and are
// recorded in Fault.
func (cpu *Cpu) Tick() (err error) {
	if !cpu.Running() {
		return
	}

	inst, done, err := cpu.fetch()
	if err != nil {
		var opErr *ErrInstruction
		if errors.As(err, &opErr) {
			cpu.Register[REG_OPC] = uint32(opErr.Opcode)
			cpu.Register[REG_OP1] = 0
			cpu.Register[REG_OP2] = 0
		}
		cpu.raise(err)
		var fatal *ErrFatal
		if !errors.As(err, &fatal) {
			err = nil
		}
		return
	}

	if done {
		if cpu.Verbose {
			log.Printf("cpu: %08X: end of code", cpu.Register[REG_IP])
		}
		cpu.Halt()
		return
	}

	if cpu.Verbose {
		log.Printf("cpu: %04X: %v", cpu.Ip(), inst)
	}

	ip := cpu.Register[REG_IP]
	cpu.Register[REG_OPC] = uint32(inst.Opcode)
	cpu.Register[REG_OP1] = inst.A.Record()
	cpu.Register[REG_OP2] = inst.B.Record()
	cpu.Register[REG_IP] = (ip & 0xFFFF0000) | ((ip + uint32(inst.Len)) & 0xFFFF)

	cpu.Steps++

	exec := handlers[inst.Opcode]
	xerr := exec(cpu, inst)
	if xerr != nil {
		cpu.raise(&ErrInstruction{Opcode: inst.Opcode, Err: xerr})
	}

	return
}

// Run executes instructions until the processor stops.
func (cpu *Cpu) Run() (err error) {
	for cpu.Running() {
		err = cpu.Tick()
		if err != nil {
			return
		}
	}

	return
}

// String returns the current processor state as a string.
func (cpu *Cpu) String() (text string) {
	regs := []Register{
		REG_IP, REG_CC,
		REG_EAX, REG_EBX, REG_ECX, REG_EDX, REG_EEX, REG_EFX, REG_AC,
		REG_SP, REG_BP,
		REG_CS, REG_DS, REG_ES, REG_SS, REG_KS, REG_PS,
		REG_LAR, REG_MAR, REG_MBR,
	}
	for _, reg := range regs {
		val := cpu.Register[reg]
		text += fmt.Sprintf("% 5s: %04X_%04X\n", reg, val>>16, val&0xffff)
	}
	for n, seg := range cpu.Segment {
		if seg.Present() {
			text += fmt.Sprintf("  [%d]: %v\n", n, seg)
		}
	}

	return
}

// address computes the logical address of a memory operand.
func (cpu *Cpu) address(op Operand) (logical uint32, err error) {
	reg := op.Register()
	if !reg.Valid() {
		err = ErrRegisterInvalid
		return
	}

	base := cpu.Register[reg]
	offset := (base + uint32(int32(op.Displacement()))) & 0xFFFF
	logical = (base & 0xFFFF0000) | offset
	return
}

// translate converts a logical address for a size byte access, mirroring it
// into LAR and MAR.
func (cpu *Cpu) translate(logical uint32, size int) (physical uint32, err error) {
	cpu.Register[REG_LAR] = logical
	physical, err = cpu.Segment.Translate(logical, len(cpu.Memory))
	if err != nil {
		return
	}
	cpu.Register[REG_MAR] = uint32(size)<<16 | (physical & 0xFFFF)
	return
}

// load reads size bytes at a logical address.
func (cpu *Cpu) load(logical uint32, size int) (value int32, err error) {
	physical, err := cpu.translate(logical, size)
	if err != nil {
		return
	}
	value, err = cpu.Memory.Read(physical, size)
	if err != nil {
		return
	}
	cpu.Register[REG_MBR] = uint32(value)
	return
}

// store writes size bytes at a logical address.
func (cpu *Cpu) store(logical uint32, value int32, size int) (err error) {
	physical, err := cpu.translate(logical, size)
	if err != nil {
		return
	}
	err = cpu.Memory.Write(physical, value, size)
	if err != nil {
		return
	}
	cpu.Register[REG_MBR] = uint32(value)
	return
}

// getValue reads the value of an operand.
func (cpu *Cpu) getValue(op Operand) (value int32, err error) {
	switch op.Type {
	case OPERAND_REGISTER:
		reg := op.Register()
		if !reg.Valid() {
			err = ErrRegisterInvalid
			return
		}
		if reg == REG_DS {
			value = int32(cpu.Register[reg])
			return
		}
		value = op.Sector().Get(cpu.Register[reg])
	case OPERAND_IMMEDIATE:
		value = op.Immediate()
	case OPERAND_MEMORY:
		size := op.Size()
		if size == 0 {
			err = ErrOperandInvalid
			return
		}
		var logical uint32
		logical, err = cpu.address(op)
		if err != nil {
			return
		}
		value, err = cpu.load(logical, size)
	default:
		err = ErrOperandInvalid
	}

	return
}

// setValue writes the value of an operand.
func (cpu *Cpu) setValue(op Operand, value int32) (err error) {
	switch op.Type {
	case OPERAND_REGISTER:
		reg := op.Register()
		if !reg.Valid() {
			err = ErrRegisterInvalid
			return
		}
		cpu.Register[reg] = op.Sector().Set(cpu.Register[reg], value)
	case OPERAND_MEMORY:
		size := op.Size()
		if size == 0 {
			err = ErrOperandInvalid
			return
		}
		var logical uint32
		logical, err = cpu.address(op)
		if err != nil {
			return
		}
		err = cpu.store(logical, value, size)
	default:
		err = ErrOperandInvalid
	}

	return
}

// handlers is the dispatch table, indexed by opcode.
var handlers [32]func(cpu *Cpu, inst Instruction) (err error)

func init() {
	handlers = [32]func(cpu *Cpu, inst Instruction) (err error){
		OP_SYS:  (*Cpu).execSys,
		OP_JMP:  (*Cpu).execJump,
		OP_JZ:   (*Cpu).execJump,
		OP_JP:   (*Cpu).execJump,
		OP_JN:   (*Cpu).execJump,
		OP_JNZ:  (*Cpu).execJump,
		OP_JNP:  (*Cpu).execJump,
		OP_JNN:  (*Cpu).execJump,
		OP_NOT:  (*Cpu).execNot,
		OP_PUSH: (*Cpu).execPush,
		OP_POP:  (*Cpu).execPop,
		OP_CALL: (*Cpu).execCall,
		OP_RET:  (*Cpu).execRet,
		OP_STOP: (*Cpu).execStop,
		OP_MOV:  (*Cpu).execMov,
		OP_ADD:  (*Cpu).execArith,
		OP_SUB:  (*Cpu).execArith,
		OP_MUL:  (*Cpu).execArith,
		OP_DIV:  (*Cpu).execDiv,
		OP_CMP:  (*Cpu).execCmp,
		OP_SHL:  (*Cpu).execShift,
		OP_SHR:  (*Cpu).execShift,
		OP_SAR:  (*Cpu).execShift,
		OP_AND:  (*Cpu).execLogic,
		OP_OR:   (*Cpu).execLogic,
		OP_XOR:  (*Cpu).execLogic,
		OP_SWAP: (*Cpu).execSwap,
		OP_LDL:  (*Cpu).execLoadHalf,
		OP_LDH:  (*Cpu).execLoadHalf,
		OP_RND:  (*Cpu).execRnd,
	}
}
