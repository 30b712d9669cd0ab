package cpu

const (
	MEMORY_KIB_MIN     = 1    // Smallest configurable memory, in KiB.
	MEMORY_KIB_MAX     = 1024 // Largest configurable memory, in KiB.
	MEMORY_KIB_DEFAULT = 16   // Memory size when none is configured, in KiB.
)

// Memory is the flat physical memory. All multi-byte accesses are big-endian.
type Memory []byte

// NewMemory allocates a zeroed memory of kib KiB.
func NewMemory(kib int) Memory {
	return make(Memory, kib*1024)
}

// validSize is true for the 1, 2 and 4 byte access widths.
func validSize(size int) bool {
	return size == 1 || size == 2 || size == 4
}

// signExtend widens a size byte big-endian value to 32 bits.
func signExtend(raw uint32, size int) int32 {
	shift := 32 - 8*size
	return int32(raw<<shift) >> shift
}

// check verifies that size bytes at physical address addr are in memory.
func (mem Memory) check(addr uint32, size int) (err error) {
	if !validSize(size) {
		err = ErrOperandInvalid
		return
	}
	if uint64(addr)+uint64(size) > uint64(len(mem)) {
		err = &ErrAddress{Err: ErrPhysicalAddress, Address: addr + uint32(size)}
		return
	}
	return
}

// Read assembles size bytes at addr, sign-extended to 32 bits.
func (mem Memory) Read(addr uint32, size int) (value int32, err error) {
	err = mem.check(addr, size)
	if err != nil {
		return
	}

	var raw uint32
	for _, b := range mem[addr : addr+uint32(size)] {
		raw = (raw << 8) | uint32(b)
	}

	value = signExtend(raw, size)
	return
}

// Write stores the low size bytes of value at addr.
func (mem Memory) Write(addr uint32, value int32, size int) (err error) {
	err = mem.check(addr, size)
	if err != nil {
		return
	}

	for n := range size {
		mem[int(addr)+n] = byte(uint32(value) >> (8 * (size - 1 - n)))
	}
	return
}
