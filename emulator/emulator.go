// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ezrec/mvx/cpu"
	"github.com/ezrec/mvx/format"
	mvio "github.com/ezrec/mvx/io"
	"github.com/ezrec/mvx/translate"
)

const (
	EXIT_OK    = 0 // Program stopped, gracefully or not.
	EXIT_FATAL = 1 // Program faulted on fetch or decode.
)

// Emulator state. CPU + console + breakpoint stepping.
type Emulator struct {
	Verbose  bool // If set, enables verbose logging.
	*cpu.Cpu      // Reference to the CPU simulation.

	Image    *format.Image // Loaded program image, nil after a snapshot start.
	Console  cpu.Console   // Console for system calls and breakpoints.
	Snapshot string        // Path a breakpoint saves to, empty disables breakpoints.

	stepping bool // Break after every instruction.
	breaks   int  // Breakpoints taken.
}

var _ cpu.Debugger = (*Emulator)(nil)

// NewEmulator creates a new emulator with kib KiB of memory.
func NewEmulator(kib int) (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(kib),
	}

	emu.Cpu.Debugger = emu

	return
}

// console returns the console, or one that reads end of file.
func (emu *Emulator) console() cpu.Console {
	if emu.Console == nil {
		return &mvio.Stream{}
	}
	return emu.Console
}

// attach connects the emulator to the processor.
func (emu *Emulator) attach() {
	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Console = emu.Console
	emu.Cpu.Debugger = emu
	emu.stepping = false
}

// LoadImage installs a program image with its parameters.
func (emu *Emulator) LoadImage(img *format.Image, params []string) (err error) {
	emu.attach()

	err = img.Load(emu.Cpu, params)
	if err != nil {
		return
	}

	emu.Image = img

	if emu.Verbose {
		log.Printf("emulator: loaded %v", img)
	}

	return
}

// LoadImageFile reads and installs a VMX program file.
func (emu *Emulator) LoadImageFile(path string, params []string) (err error) {
	img, err := format.ReadImageFile(path)
	if err != nil {
		return
	}

	err = emu.LoadImage(img, params)
	if err != nil {
		err = &format.ErrFile{Path: path, Err: err}
		return
	}

	return
}

// LoadSnapshotFile restores the processor state from a VMI file, to resume
// execution at its instruction pointer.
func (emu *Emulator) LoadSnapshotFile(path string) (err error) {
	emu.attach()

	err = format.LoadSnapshotFile(path, emu.Cpu)
	if err != nil {
		return
	}

	emu.Image = nil

	if emu.Verbose {
		log.Printf("emulator: restored %v, %d KiB", path, len(emu.Cpu.Memory)/1024)
	}

	return
}

// Breakpoint saves a snapshot and prompts for how to continue:
// 'g' runs on, 'q' stops the program, an empty line steps one instruction.
// Without a snapshot path a breakpoint does nothing.
func (emu *Emulator) Breakpoint(cp *cpu.Cpu) (err error) {
	if len(emu.Snapshot) == 0 {
		emu.stepping = false
		return
	}

	emu.breaks++

	err = format.SaveSnapshotFile(emu.Snapshot, cp)
	if err != nil {
		return
	}

	con := emu.console()

	for {
		inst, perr := cp.Peek()
		if perr == nil {
			fmt.Fprintf(con, "[%04X] %v\n", cp.Ip(), inst)
		}

		var line string
		line, err = con.ReadLine(f("g: go, q: quit, enter: step> "))
		if err != nil {
			return
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "g":
			emu.stepping = false
			return
		case "q":
			emu.stepping = false
			err = ErrQuit
			return
		case "":
			emu.stepping = true
			return
		default:
			translate.Fprint(con, "Unknown command %q.\n", line)
		}
	}
}

// Tick performs a single instruction of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	cp := emu.Cpu
	cp.Verbose = emu.Verbose
	cp.Console = emu.Console

	if !cp.Running() {
		done = true
		return
	}

	ip := cp.Register[cpu.REG_IP]
	breaks := emu.breaks

	err = cp.Tick()
	if err != nil {
		err = &ErrRuntime{Ip: ip, Err: err}
		done = true
		return
	}

	if emu.stepping && breaks == emu.breaks && cp.Running() {
		// Nothing is left to step when the next fetch stops the program.
		if _, perr := cp.Peek(); perr == nil {
			berr := emu.Breakpoint(cp)
			if berr != nil {
				cp.Fault = berr
				cp.Halt()
			}
		}
	}

	done = !cp.Running()
	return
}

// Run executes the loaded program to completion, reporting any fault on
// the console, and returns the process exit code.
func (emu *Emulator) Run() (exitCode int) {
	con := emu.console()

	for {
		done, err := emu.Tick()
		if err != nil {
			fmt.Fprintln(con, err)
			exitCode = EXIT_FATAL
			return
		}
		if done {
			break
		}
	}

	fault := emu.Cpu.Fault
	if fault != nil && !errors.Is(fault, ErrQuit) {
		fmt.Fprintln(con, f("ip %04X: %v", emu.Cpu.Register[cpu.REG_IP]&0xFFFF, fault))
	}

	if emu.Verbose {
		log.Printf("emulator: %d instructions", emu.Cpu.Steps)
	}

	exitCode = EXIT_OK
	return
}
