package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ezrec/mvx/cpu"
)

const VMX_IDENT = "VMX25" // VMX file signature.

type vmxIdent struct {
	Ident   [5]byte
	Version uint8
}

type vmxHeaderV1 struct {
	CodeSize uint16
}

type vmxHeaderV2 struct {
	ConstSize uint16
	CodeSize  uint16
	DataSize  uint16
	ExtraSize uint16
	StackSize uint16
	Entry     uint16
}

// Image is a VMX program image.
type Image struct {
	Version   int    // Architecture revision, 1 or 2.
	Code      []byte // Code segment contents.
	Const     []byte // Const segment contents.
	DataSize  uint16 // Data segment size.
	ExtraSize uint16 // Extra segment size.
	StackSize uint16 // Stack segment size.
	Entry     uint16 // Entry point offset in the code segment.
}

// NewImage builds an image from an assembled program.
func NewImage(prog *cpu.Program) (img *Image, err error) {
	code := prog.Binary()
	if len(code) > 0xFFFF || len(prog.Const) > 0xFFFF {
		err = ErrCodeSize
		return
	}

	img = &Image{
		Version:   prog.Version,
		Code:      code,
		Const:     prog.Const,
		DataSize:  uint16(prog.Data),
		ExtraSize: uint16(prog.Extra),
		StackSize: uint16(prog.Stack),
		Entry:     uint16(prog.Entry),
	}

	return
}

// ReadImage parses a VMX image.
func ReadImage(r io.Reader) (img *Image, err error) {
	var ident vmxIdent
	err = binary.Read(r, binary.BigEndian, &ident)
	if err != nil {
		return
	}
	if string(ident.Ident[:]) != VMX_IDENT {
		err = ErrImageIdent
		return
	}

	img = &Image{Version: int(ident.Version)}

	switch img.Version {
	case cpu.VERSION_1:
		var hdr vmxHeaderV1
		err = binary.Read(r, binary.BigEndian, &hdr)
		if err != nil {
			return
		}
		img.Code = make([]byte, hdr.CodeSize)
	case cpu.VERSION_2:
		var hdr vmxHeaderV2
		err = binary.Read(r, binary.BigEndian, &hdr)
		if err != nil {
			return
		}
		img.Code = make([]byte, hdr.CodeSize)
		img.Const = make([]byte, hdr.ConstSize)
		img.DataSize = hdr.DataSize
		img.ExtraSize = hdr.ExtraSize
		img.StackSize = hdr.StackSize
		img.Entry = hdr.Entry
	default:
		err = ErrImageVersion
		img = nil
		return
	}

	_, err = io.ReadFull(r, img.Code)
	if err != nil {
		img = nil
		return
	}
	_, err = io.ReadFull(r, img.Const)
	if err != nil {
		img = nil
		return
	}

	return
}

// ReadImageFile parses a VMX image file.
func ReadImageFile(path string) (img *Image, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	img, err = ReadImage(inf)
	if err != nil {
		err = &ErrFile{Path: path, Err: err}
		return
	}

	return
}

// WriteTo writes the image in VMX format.
func (img *Image) WriteTo(w io.Writer) (n int64, err error) {
	var buff bytes.Buffer

	ident := vmxIdent{Version: uint8(img.Version)}
	copy(ident.Ident[:], VMX_IDENT)
	binary.Write(&buff, binary.BigEndian, &ident)

	switch img.Version {
	case cpu.VERSION_1:
		binary.Write(&buff, binary.BigEndian, &vmxHeaderV1{
			CodeSize: uint16(len(img.Code)),
		})
		buff.Write(img.Code)
	case cpu.VERSION_2:
		binary.Write(&buff, binary.BigEndian, &vmxHeaderV2{
			ConstSize: uint16(len(img.Const)),
			CodeSize:  uint16(len(img.Code)),
			DataSize:  img.DataSize,
			ExtraSize: img.ExtraSize,
			StackSize: img.StackSize,
			Entry:     img.Entry,
		})
		buff.Write(img.Code)
		buff.Write(img.Const)
	default:
		err = ErrImageVersion
		return
	}

	n, err = buff.WriteTo(w)
	return
}

// paramBlock packs parameters: the NUL terminated strings, followed by an
// array of their logical addresses in the param segment.
func paramBlock(params []string, sel cpu.Selector) (block []byte, argv uint32) {
	if len(params) == 0 {
		argv = uint32(cpu.SELECTOR_ABSENT)
		return
	}

	var offsets []uint16
	for _, param := range params {
		offsets = append(offsets, uint16(len(block)))
		block = append(block, param...)
		block = append(block, 0)
	}

	argv = sel.Address(uint16(len(block)))
	for _, offset := range offsets {
		block = binary.BigEndian.AppendUint32(block, sel.Address(offset))
	}

	return
}

// paramSize returns the size of the param block.
func paramSize(params []string) (size int) {
	for _, param := range params {
		size += len(param) + 1 + 4
	}
	return
}

// Load resets the processor and installs the image and its parameters.
func (img *Image) Load(cp *cpu.Cpu, params []string) (err error) {
	switch img.Version {
	case cpu.VERSION_1:
		err = img.loadV1(cp)
	case cpu.VERSION_2:
		err = img.loadV2(cp, params)
	default:
		err = ErrImageVersion
	}

	return
}

func (img *Image) loadV1(cp *cpu.Cpu) (err error) {
	memSize := len(cp.Memory)
	codeSize := len(img.Code)

	if codeSize == 0 {
		err = ErrCodeSize
		return
	}
	if codeSize >= memSize {
		err = cpu.ErrInsufficientMemory
		return
	}

	cp.Reset()
	cp.Version = cpu.VERSION_1
	copy(cp.Memory, img.Code)

	cp.Segment[0] = cpu.Segment{Base: 0, Size: uint16(codeSize)}
	cp.Segment[1] = cpu.Segment{Base: uint16(codeSize), Size: uint16(min(memSize-codeSize, 0xFFFF))}

	cp.Register[cpu.REG_CS] = uint32(cpu.MakeSelector(0))
	cp.Register[cpu.REG_DS] = uint32(cpu.MakeSelector(1))
	cp.Register[cpu.REG_IP] = cpu.MakeSelector(0).Address(0)

	if cp.Verbose {
		log.Printf("format: v1 code %v, data %v", cp.Segment[0], cp.Segment[1])
	}

	return
}

// layout is one segment of a version 2 image.
type layout struct {
	reg  cpu.Register
	size int
	data []byte
}

func (img *Image) loadV2(cp *cpu.Cpu, params []string) (err error) {
	memSize := len(cp.Memory)

	if int(img.Entry) >= len(img.Code) {
		err = ErrEntryPoint
		return
	}

	psize := paramSize(params)
	if psize > 0xFFFF {
		err = ErrParamSize
		return
	}

	segments := []layout{
		{cpu.REG_PS, psize, nil},
		{cpu.REG_KS, len(img.Const), img.Const},
		{cpu.REG_CS, len(img.Code), img.Code},
		{cpu.REG_DS, int(img.DataSize), nil},
		{cpu.REG_ES, int(img.ExtraSize), nil},
		{cpu.REG_SS, int(img.StackSize), nil},
	}

	total := 0
	for _, seg := range segments {
		if seg.size > memSize {
			err = cpu.ErrInsufficientMemory
			return
		}
		total += seg.size
	}
	if total > memSize {
		err = &cpu.ErrAddress{Err: cpu.ErrInsufficientMemory, Address: uint32(total)}
		return
	}

	cp.Reset()
	cp.Version = cpu.VERSION_2

	base := 0
	index := 0
	for _, seg := range segments {
		if seg.size == 0 {
			cp.Register[seg.reg] = uint32(cpu.SELECTOR_ABSENT)
			continue
		}
		if base > 0xFFFF {
			err = &cpu.ErrAddress{Err: cpu.ErrSegmentInvalid, Address: uint32(base)}
			return
		}

		cp.Segment[index] = cpu.Segment{Base: uint16(base), Size: uint16(seg.size)}
		cp.Register[seg.reg] = uint32(cpu.MakeSelector(index))
		copy(cp.Memory[base:base+seg.size], seg.data)

		if cp.Verbose {
			log.Printf("format: v2 %v [%d] %v", seg.reg, index, cp.Segment[index])
		}

		base += seg.size
		index++
	}

	block, argv := paramBlock(params, cp.Register.Selector(cpu.REG_PS))
	if len(block) != 0 {
		ps := cp.Segment[0]
		copy(cp.Memory[ps.Base:ps.End()], block)
	}

	cp.Register[cpu.REG_IP] = cp.Register.Selector(cpu.REG_CS).Address(img.Entry)
	cp.Register[cpu.REG_SP] = uint32(cpu.SELECTOR_ABSENT)

	if img.StackSize != 0 {
		cp.Register[cpu.REG_SP] = cp.Register.Selector(cpu.REG_SS).Address(img.StackSize)
		err = cp.InitMainFrame(argv, len(params))
		if err != nil {
			return
		}
	}

	return
}

// LoadProgram reads a VMX image and installs it into the processor.
func LoadProgram(r io.Reader, cp *cpu.Cpu, params []string) (img *Image, err error) {
	img, err = ReadImage(r)
	if err != nil {
		return
	}

	err = img.Load(cp, params)
	if err != nil {
		img = nil
		return
	}

	return
}

// String summarises the image.
func (img *Image) String() string {
	return fmt.Sprintf("v%d code=%d const=%d data=%d extra=%d stack=%d entry=%04X",
		img.Version, len(img.Code), len(img.Const), img.DataSize, img.ExtraSize, img.StackSize, img.Entry)
}
