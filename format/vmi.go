package format

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/ezrec/mvx/cpu"
)

const (
	VMI_IDENT   = "VMI25" // VMI file signature.
	VMI_VERSION = 1       // VMI format version.
)

// SEGMENT_ABSENT is the on-disk descriptor of an unused segment slot.
const SEGMENT_ABSENT = 0xFFFF

type vmiHeader struct {
	Ident     [5]byte
	Version   uint8
	MemoryKiB uint16
}

type vmiSegment struct {
	Base uint16
	Size uint16
}

type vmiState struct {
	Register [cpu.REGISTER_COUNT]uint32
	Segment  [cpu.SEGMENT_COUNT]vmiSegment
}

// SaveSnapshot writes the processor state in VMI format.
func SaveSnapshot(w io.Writer, cp *cpu.Cpu) (err error) {
	kib := len(cp.Memory) / 1024
	if kib < cpu.MEMORY_KIB_MIN || kib > cpu.MEMORY_KIB_MAX || len(cp.Memory)%1024 != 0 {
		err = ErrMemorySize
		return
	}

	hdr := vmiHeader{
		Version:   VMI_VERSION,
		MemoryKiB: uint16(kib),
	}
	copy(hdr.Ident[:], VMI_IDENT)

	state := vmiState{
		Register: cp.Register,
	}
	for n, seg := range cp.Segment {
		if seg.Present() {
			state.Segment[n] = vmiSegment{Base: seg.Base, Size: seg.Size}
		} else {
			state.Segment[n] = vmiSegment{Base: SEGMENT_ABSENT, Size: SEGMENT_ABSENT}
		}
	}

	bw := bufio.NewWriter(w)

	err = binary.Write(bw, binary.BigEndian, &hdr)
	if err != nil {
		return
	}
	err = binary.Write(bw, binary.BigEndian, &state)
	if err != nil {
		return
	}
	_, err = bw.Write(cp.Memory)
	if err != nil {
		return
	}

	err = bw.Flush()
	return
}

// LoadSnapshot restores the processor state from a VMI snapshot, replacing
// its memory. The processor is left running at the saved instruction pointer.
func LoadSnapshot(r io.Reader, cp *cpu.Cpu) (err error) {
	var hdr vmiHeader
	err = binary.Read(r, binary.BigEndian, &hdr)
	if err != nil {
		return
	}
	if string(hdr.Ident[:]) != VMI_IDENT {
		err = ErrSnapshotIdent
		return
	}
	if hdr.Version != VMI_VERSION {
		err = ErrSnapshotVersion
		return
	}
	kib := int(hdr.MemoryKiB)
	if kib < cpu.MEMORY_KIB_MIN || kib > cpu.MEMORY_KIB_MAX {
		err = ErrMemorySize
		return
	}

	var state vmiState
	err = binary.Read(r, binary.BigEndian, &state)
	if err != nil {
		return
	}

	mem := cpu.NewMemory(kib)
	_, err = io.ReadFull(r, mem)
	if err != nil {
		return
	}

	var segments cpu.SegmentTable
	for n, seg := range state.Segment {
		if seg.Base == SEGMENT_ABSENT && seg.Size == SEGMENT_ABSENT {
			continue
		}
		segments[n] = cpu.Segment{Base: seg.Base, Size: seg.Size}
	}
	err = segments.Validate(len(mem))
	if err != nil {
		return
	}

	cp.Reset()
	cp.Version = cpu.VERSION_2
	cp.Memory = mem
	cp.Register = state.Register
	cp.Segment = segments

	return
}

// SaveSnapshotFile writes the processor state to a VMI file.
func SaveSnapshotFile(path string, cp *cpu.Cpu) (err error) {
	outf, err := os.Create(path)
	if err != nil {
		return
	}

	err = SaveSnapshot(outf, cp)
	cerr := outf.Close()
	if err == nil {
		err = cerr
	}
	if err != nil {
		err = &ErrFile{Path: path, Err: err}
	}

	return
}

// LoadSnapshotFile restores the processor state from a VMI file.
func LoadSnapshotFile(path string, cp *cpu.Cpu) (err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	err = LoadSnapshot(bufio.NewReader(inf), cp)
	if err != nil {
		err = &ErrFile{Path: path, Err: err}
		return
	}

	return
}
