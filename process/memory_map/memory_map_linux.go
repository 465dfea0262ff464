//go:build linux

package memory_map

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// LinuxMemoryMap implements MemoryMap for Linux
type LinuxMemoryMap struct {
	path string
}

// NewLinuxMemoryMap creates a new LinuxMemoryMap reading /proc/self/maps
func NewLinuxMemoryMap() *LinuxMemoryMap {
	return &LinuxMemoryMap{path: "/proc/self/maps"}
}

// NewMemoryMap returns the memory map reader for this platform
func NewMemoryMap() MemoryMap {
	return NewLinuxMemoryMap()
}

// ReadMemoryMap reads and parses the memory map of the current process
func (l *LinuxMemoryMap) ReadMemoryMap() ([]MemoryMapItem, error) {
	file, err := os.Open(l.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	memoryMap, err := ParseMaps(file)
	if err != nil {
		return nil, err
	}

	SortByAddress(memoryMap)
	return memoryMap, nil
}

// ParseMaps parses the /proc/<pid>/maps format, one mapping per line:
//
//	start-end perms offset dev inode [path]
//
// Malformed lines are skipped.
func ParseMaps(r io.Reader) ([]MemoryMapItem, error) {
	var memoryMap []MemoryMapItem
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}

		// Parse address range (e.g., "00400000-0040b000")
		addrRange := strings.Split(fields[0], "-")
		if len(addrRange) != 2 {
			continue
		}

		startAddr, err := strconv.ParseUint(addrRange[0], 16, 64)
		if err != nil {
			continue
		}

		endAddr, err := strconv.ParseUint(addrRange[1], 16, 64)
		if err != nil || endAddr < startAddr {
			continue
		}

		offset, err := strconv.ParseUint(fields[2], 16, 64)
		if err != nil {
			continue
		}

		inode, err := strconv.ParseUint(fields[4], 10, 64)
		if err != nil {
			continue
		}

		// Paths may contain spaces
		var path string
		var deleted bool
		if len(fields) >= 6 {
			path = strings.Join(fields[5:], " ")
			path, deleted = strings.CutSuffix(path, " (deleted)")
		}

		memoryMap = append(memoryMap, MemoryMapItem{
			Address: startAddr,
			Size:    uint(endAddr - startAddr),
			Perms:   fields[1],
			Offset:  offset,
			Path:    path,
			Device:  fields[3],
			Inode:   inode,
			Deleted: deleted,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return memoryMap, nil
}
