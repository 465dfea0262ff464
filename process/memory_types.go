package process

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// ProcessMemoryAddress represents a memory address within the current process
type ProcessMemoryAddress uintptr

func (pma ProcessMemoryAddress) ToString() string {
	return fmt.Sprintf("0x%X", uint64(pma))
}

// ProcessMemorySize represents a size of memory region
type ProcessMemorySize uint

func (pms ProcessMemorySize) ToString() string {
	return fmt.Sprintf("%d bytes", uint(pms))
}

// MemoryRegion is a read-only, non-owning description of mapped memory.
// It does not keep the backing module alive.
type MemoryRegion struct {
	Base   ProcessMemoryAddress
	Length ProcessMemorySize
}

// End returns the first address past the region
func (r MemoryRegion) End() ProcessMemoryAddress {
	return r.Base + ProcessMemoryAddress(r.Length)
}

func (r MemoryRegion) IsEmpty() bool {
	return r.Length == 0
}

// Valid reports whether the region has a non-null base, a non-zero length and
// does not wrap around the address space.
func (r MemoryRegion) Valid() bool {
	if r.Base == 0 || r.Length == 0 {
		return false
	}
	return r.End() > r.Base
}

// Contains reports whether addr lies within [Base, End)
func (r MemoryRegion) Contains(addr ProcessMemoryAddress) bool {
	return addr >= r.Base && addr < r.End()
}

func (r MemoryRegion) String() string {
	return fmt.Sprintf("[%s-%s) %s", r.Base.ToString(), r.End().ToString(), r.Length.ToString())
}

// AOB (Array of Bytes) is the raw pattern+mask form of a signature
type AOB struct {
	Pattern []byte // The byte pattern to search for
	Mask    []byte // 0xFF means exact match and 0x00 means wildcard
}

// IsValid checks if the AOB pattern is valid
func (aob AOB) IsValid() bool {
	return len(aob.Pattern) > 0 && len(aob.Pattern) == len(aob.Mask)
}

func NewAOB(pattern, mask []byte) (AOB, error) {
	if len(pattern) != len(mask) {
		return AOB{}, fmt.Errorf("pattern and mask must be of the same length")
	}
	return AOB{Pattern: pattern, Mask: mask}, nil
}

// AlignDown rounds v down to a multiple of align, which must be a power of two
func AlignDown[I constraints.Integer](v, align I) I {
	return v &^ (align - 1)
}
