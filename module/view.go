package module

import (
	"fmt"
	"unsafe"

	"sigscan/process"
	"sigscan/process/memory_map"
)

// View returns region as a byte slice aliasing live process memory. It is not
// a copy: the slice is valid only while the module stays mapped and must not
// be written to. The region is checked against the memory map first, so a
// region that is not entirely mapped readable fails with
// process.ErrInvalidModule instead of faulting during the scan.
func View(region process.MemoryRegion) ([]byte, error) {
	if err := checkReadable(region); err != nil {
		return nil, err
	}

	// The only conversion of a loader-reported address into Go memory
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(region.Base))), int(region.Length)), nil
}

func checkReadable(region process.MemoryRegion) error {
	if !region.Valid() {
		return fmt.Errorf("%w: degenerate region %s", process.ErrInvalidModule, region.String())
	}

	mm, err := memory_map.NewMemoryMap().ReadMemoryMap()
	if err != nil {
		return fmt.Errorf("%w: failed to read memory map: %v", process.ErrInvalidModule, err)
	}

	if !memory_map.IsReadableRange(uint64(region.Base), uint64(region.Length), mm) {
		return fmt.Errorf("%w: region %s is not mapped readable", process.ErrInvalidModule, region.String())
	}
	return nil
}
