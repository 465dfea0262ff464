//go:build !linux && !windows

package memory_map

import (
	"fmt"
	"runtime"
)

type unsupportedMemoryMap struct{}

// NewMemoryMap returns the memory map reader for this platform
func NewMemoryMap() MemoryMap {
	return unsupportedMemoryMap{}
}

func (unsupportedMemoryMap) ReadMemoryMap() ([]MemoryMapItem, error) {
	return nil, fmt.Errorf("memory map is not supported on %s", runtime.GOOS)
}
