package memory_map

import (
	"fmt"
	"sort"
)

// MemoryMapItem represents a memory region in the current process's address space
type MemoryMapItem struct {
	Address uint64 // The starting address of the memory region
	Size    uint   // The size of the memory region in bytes
	Perms   string // Permissions (e.g., "r-xp" for read, execute, private)
	Offset  uint64 // Offset into the mapped file, zero for anonymous mappings
	Path    string // Backing file path, empty for anonymous mappings
	Device  string // major:minor of the backing file
	Inode   uint64
	Deleted bool // The backing file was unlinked after it was mapped
}

// String returns a string representation of the memory map item
func (mmItem MemoryMapItem) String() string {
	return fmt.Sprintf("Address: %x, Size: %d, Perms: %s, Offset: %x, Path: %s",
		mmItem.Address, mmItem.Size, mmItem.Perms, mmItem.Offset, mmItem.Path)
}

func (mmItem MemoryMapItem) End() uint64 {
	return mmItem.Address + uint64(mmItem.Size)
}

func (mmItem MemoryMapItem) IsReadable() bool {
	return len(mmItem.Perms) > 0 && mmItem.Perms[0] == 'r'
}

func (mmItem MemoryMapItem) IsWritable() bool {
	return len(mmItem.Perms) > 1 && mmItem.Perms[1] == 'w'
}

func (mmItem MemoryMapItem) IsExecutable() bool {
	return len(mmItem.Perms) > 2 && mmItem.Perms[2] == 'x'
}

// MemoryMap reads the memory map of the current process
type MemoryMap interface {
	// ReadMemoryMap reads and parses the memory map, sorted by address
	ReadMemoryMap() ([]MemoryMapItem, error)
}

// SortByAddress sorts the map in place; FindItem and IsReadableRange require it
func SortByAddress(memoryMap []MemoryMapItem) {
	sort.Slice(memoryMap, func(i, j int) bool {
		return memoryMap[i].Address < memoryMap[j].Address
	})
}

// FindItem returns the region containing addr. memoryMap must be sorted by address.
func FindItem(addr uint64, memoryMap []MemoryMapItem) *MemoryMapItem {
	i := sort.Search(len(memoryMap), func(i int) bool {
		return memoryMap[i].End() > addr
	})
	if i < len(memoryMap) && memoryMap[i].Address <= addr {
		return &memoryMap[i]
	}

	return nil
}

// IsReadableRange reports whether every byte of [addr, addr+size) lies in
// readable regions. Adjacent regions must touch with no gap.
func IsReadableRange(addr uint64, size uint64, memoryMap []MemoryMapItem) bool {
	if size == 0 || addr+size < addr {
		return false
	}

	end := addr + size
	for cur := addr; cur < end; {
		item := FindItem(cur, memoryMap)
		if item == nil || !item.IsReadable() {
			return false
		}
		cur = item.End()
	}
	return true
}
