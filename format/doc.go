// Package format reads and writes the binary files of the MV processor:
// VMX program images (versions 1 and 2) and VMI snapshots.
//
// All multi-byte fields are big-endian.
//
// VMX version 1:
//
//	"VMX25" 0x01 code-size:u16 code...
//
// VMX version 2:
//
//	"VMX25" 0x02 const:u16 code:u16 data:u16 extra:u16 stack:u16 entry:u16
//	code... const...
//
// VMI:
//
//	"VMI25" 0x01 memory-kib:u16 registers:[32]u32 segments:[8](base:u16 size:u16)
//	memory...
package format
