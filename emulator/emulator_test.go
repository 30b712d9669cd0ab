package emulator

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/mvx/cpu"
	"github.com/ezrec/mvx/format"
	mvio "github.com/ezrec/mvx/io"
)

func newTestEmulator(t *testing.T, program []string, input string) (emu *Emulator, output *bytes.Buffer) {
	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	img, err := format.NewImage(prog)
	require.NoError(t, err)

	output = &bytes.Buffer{}

	emu = NewEmulator(4)
	emu.Snapshot = filepath.Join(t.TempDir(), "test.vmi")
	emu.Console = &mvio.Stream{Input: strings.NewReader(input), Output: output}

	err = emu.LoadImage(img, nil)
	require.NoError(t, err)

	return
}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(16)

	assert.False(emu.Verbose)
	assert.Equal(16*1024, len(emu.Cpu.Memory))
	assert.Empty(emu.Snapshot)
	assert.Equal(cpu.Debugger(emu), emu.Cpu.Debugger)
}

func TestEmulator_Run(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: MOV [DS], 42",
		"        MOV EDX, DS",
		"        LDH ECX, 4",
		"        LDL ECX, 1",
		"        MOV EAX, FMT_DEC",
		"        SYS SYS_WRITE",
		"        STOP",
	}

	emu, output := newTestEmulator(t, program, "")

	assert.Equal(EXIT_OK, emu.Run())
	assert.Nil(emu.Cpu.Fault)
	assert.Equal(cpu.STATE_HALTED, emu.Cpu.State)
	assert.Regexp(`^\[[0-9A-F]{4}\]: 42\n$`, output.String())

	done, err := emu.Tick()
	assert.NoError(err)
	assert.True(done)
}

func TestEmulator_Fault(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: MOV EAX, 1",
		"        DIV EAX, 0",
		"        MOV EAX, 2",
	}

	emu, output := newTestEmulator(t, program, "")

	assert.Equal(EXIT_OK, emu.Run())
	assert.ErrorIs(emu.Cpu.Fault, cpu.ErrDivideByZero)
	assert.Equal(uint32(1), emu.Cpu.Register[cpu.REG_EAX])
	assert.NotEmpty(output.String())
}

func TestEmulator_Fatal(t *testing.T) {
	assert := assert.New(t)

	img := &format.Image{
		Version:   cpu.VERSION_2,
		Code:      []byte{0x09},
		StackSize: 16,
	}

	var output bytes.Buffer
	emu := NewEmulator(1)
	emu.Console = &mvio.Stream{Output: &output}
	require.NoError(t, emu.LoadImage(img, nil))

	done, err := emu.Tick()
	assert.True(done)
	var runtime *ErrRuntime
	require.True(t, errors.As(err, &runtime))
	assert.Equal(uint32(0), runtime.Ip)
	assert.ErrorIs(err, cpu.ErrInstructionInvalid)
	assert.Equal(cpu.STATE_FAULTED, emu.Cpu.State)

	require.NoError(t, emu.LoadImage(img, nil))
	assert.Equal(EXIT_FATAL, emu.Run())
	assert.NotEmpty(output.String())
}

func TestEmulator_Version1(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(1)
	err := emu.LoadImage(&format.Image{Version: cpu.VERSION_1, Code: []byte{0x0F}}, nil)
	require.NoError(t, err)

	assert.Equal(EXIT_OK, emu.Run())
	assert.Nil(emu.Cpu.Fault)
	assert.Equal(1, emu.Cpu.Steps)
}

func TestEmulator_Breakpoint(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: SYS SYS_BREAKPOINT",
		"        MOV EAX, 5",
		"        STOP",
	}

	emu, output := newTestEmulator(t, program, "x\ng\n")

	assert.Equal(EXIT_OK, emu.Run())
	assert.Nil(emu.Cpu.Fault)
	assert.Equal(uint32(5), emu.Cpu.Register[cpu.REG_EAX])
	assert.Equal(1, emu.breaks)
	assert.Contains(output.String(), "MOV")

	// The snapshot resumes after the breakpoint.
	resumed := NewEmulator(1)
	err := resumed.LoadSnapshotFile(emu.Snapshot)
	require.NoError(t, err)
	assert.Nil(resumed.Image)
	assert.Equal(4*1024, len(resumed.Cpu.Memory))
	assert.Equal(uint32(0), resumed.Cpu.Register[cpu.REG_EAX])

	assert.Equal(EXIT_OK, resumed.Run())
	assert.Nil(resumed.Cpu.Fault)
	assert.Equal(uint32(5), resumed.Cpu.Register[cpu.REG_EAX])
}

func TestEmulator_Step(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: SYS SYS_BREAKPOINT",
		"        MOV EAX, 1",
		"        MOV EAX, 2",
		"        MOV EAX, 3",
		"        STOP",
	}

	emu, _ := newTestEmulator(t, program, "\n\ng\n")

	assert.Equal(EXIT_OK, emu.Run())
	assert.Nil(emu.Cpu.Fault)
	assert.Equal(3, emu.breaks)
	assert.Equal(uint32(3), emu.Cpu.Register[cpu.REG_EAX])
}

func TestEmulator_StepToEnd(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: SYS SYS_BREAKPOINT",
		"        MOV EAX, 1",
	}

	emu, _ := newTestEmulator(t, program, "\n\n\n\n")

	assert.Equal(EXIT_OK, emu.Run())
	assert.Nil(emu.Cpu.Fault)
	assert.Equal(1, emu.breaks)
	assert.Equal(uint32(1), emu.Cpu.Register[cpu.REG_EAX])
}

func TestEmulator_Quit(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: SYS SYS_BREAKPOINT",
		"        MOV EAX, 5",
		"        STOP",
	}

	emu, output := newTestEmulator(t, program, "q\n")

	assert.Equal(EXIT_OK, emu.Run())
	assert.ErrorIs(emu.Cpu.Fault, ErrQuit)
	assert.Equal(uint32(0), emu.Cpu.Register[cpu.REG_EAX])
	assert.Equal(1, emu.breaks)
	assert.NotContains(output.String(), ErrQuit.Error())

	_, err := os.Stat(emu.Snapshot)
	assert.NoError(err)
}

func TestEmulator_BreakpointDisabled(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: SYS SYS_BREAKPOINT",
		"        MOV EAX, 5",
		"        STOP",
	}

	dir := t.TempDir()
	t.Chdir(dir)

	emu, output := newTestEmulator(t, program, "")
	emu.Snapshot = ""

	assert.Equal(EXIT_OK, emu.Run())
	assert.Nil(emu.Cpu.Fault)
	assert.Equal(uint32(5), emu.Cpu.Register[cpu.REG_EAX])
	assert.Equal(0, emu.breaks)
	assert.Empty(output.String())

	entries, err := os.ReadDir(dir)
	assert.NoError(err)
	assert.Empty(entries)
}

func TestEmulator_BreakpointEOF(t *testing.T) {
	assert := assert.New(t)

	program := []string{
		"_start: SYS SYS_BREAKPOINT",
		"        MOV EAX, 5",
	}

	emu, _ := newTestEmulator(t, program, "")

	assert.Equal(EXIT_OK, emu.Run())
	assert.ErrorIs(emu.Cpu.Fault, io.EOF)
	assert.Equal(uint32(0), emu.Cpu.Register[cpu.REG_EAX])
}

func TestEmulator_LoadErrors(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	emu := NewEmulator(1)

	err := emu.LoadImageFile(filepath.Join(dir, "missing.vmx"), nil)
	assert.Error(err)

	path := filepath.Join(dir, "big.vmx")
	img := &format.Image{Version: cpu.VERSION_2, Code: []byte{0x0F}, DataSize: 0x8000}
	var buff bytes.Buffer
	_, err = img.WriteTo(&buff)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, buff.Bytes(), 0o644))

	err = emu.LoadImageFile(path, nil)
	assert.ErrorIs(err, cpu.ErrInsufficientMemory)

	err = emu.LoadSnapshotFile(filepath.Join(dir, "missing.vmi"))
	assert.Error(err)
}
