package cpu

import (
	"fmt"
)

const SEGMENT_COUNT = 8 // Slots in the segment table.

// Segment is a segment descriptor. A descriptor with a zero Size is unused.
type Segment struct {
	Base uint16
	Size uint16
}

// Present returns true if the descriptor is in use.
func (seg Segment) Present() bool {
	return seg.Size != 0
}

// End returns the physical address one past the segment.
func (seg Segment) End() uint32 {
	return uint32(seg.Base) + uint32(seg.Size)
}

func (seg Segment) String() string {
	return fmt.Sprintf("%04X+%04X", seg.Base, seg.Size)
}

// SegmentTable maps a segment index to a physical region of memory.
type SegmentTable [SEGMENT_COUNT]Segment

// Translate converts a logical address into a physical address in a memory
// of memSize bytes.
func (st *SegmentTable) Translate(logical uint32, memSize int) (physical uint32, err error) {
	index := AddressSegment(logical)
	offset := AddressOffset(logical)

	if index >= SEGMENT_COUNT {
		err = &ErrAddress{Err: ErrLogicalAddress, Address: logical}
		return
	}

	seg := st[index]
	if offset >= seg.Size {
		err = &ErrAddress{Err: ErrLogicalAddress, Address: logical}
		return
	}

	physical = uint32(seg.Base) + uint32(offset)
	if physical >= uint32(memSize) {
		err = &ErrAddress{Err: ErrPhysicalAddress, Address: physical}
		physical = 0
		return
	}

	return
}

// Validate checks that every present segment lies inside memSize bytes.
func (st *SegmentTable) Validate(memSize int) (err error) {
	for n, seg := range st {
		if seg.Present() && seg.End() > uint32(memSize) {
			err = &ErrAddress{Err: ErrSegmentInvalid, Address: MakeAddress(n, 0)}
			return
		}
	}
	return
}

// Selector is the value of a segment selector register: the segment index
// in the high 16 bits.
type Selector uint32

// SELECTOR_ABSENT is the selector of a segment the image does not define.
const SELECTOR_ABSENT = Selector(0xFFFFFFFF)

// MakeSelector returns the selector for a segment table index.
func MakeSelector(index int) Selector {
	return Selector(uint32(index) << 16)
}

// Segment returns the segment index named by the selector.
func (sel Selector) Segment() (index int, ok bool) {
	if sel == SELECTOR_ABSENT {
		return
	}
	index = int(uint32(sel) >> 16)
	ok = index < SEGMENT_COUNT
	return
}

// Address returns the logical address of offset within the selected segment.
func (sel Selector) Address(offset uint16) uint32 {
	return (uint32(sel) & 0xFFFF0000) | uint32(offset)
}

// MakeAddress builds a logical address.
func MakeAddress(index int, offset uint16) uint32 {
	return (uint32(index) << 16) | uint32(offset)
}

// AddressSegment returns the segment index of a logical address.
func AddressSegment(logical uint32) int {
	return int(logical >> 16)
}

// AddressOffset returns the offset of a logical address.
func AddressOffset(logical uint32) uint16 {
	return uint16(logical & 0xFFFF)
}
