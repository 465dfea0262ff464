//go:build windows

package module

import (
	"fmt"

	"sigscan/process"

	"golang.org/x/sys/windows"
)

// Snapshot copies region out of live memory. Unlike View the result stays
// valid after the module is unloaded.
func Snapshot(region process.MemoryRegion) ([]byte, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("%w: degenerate region %s", process.ErrInvalidModule, region.String())
	}

	buf := make([]byte, region.Length)
	var bytesRead uintptr
	err := windows.ReadProcessMemory(windows.CurrentProcess(), uintptr(region.Base), &buf[0], uintptr(len(buf)), &bytesRead)
	if err != nil {
		return nil, fmt.Errorf("%w: ReadProcessMemory failed: %v", process.ErrInvalidModule, err)
	}

	if bytesRead != uintptr(len(buf)) {
		return nil, fmt.Errorf("%w: read incomplete: expected %d, got %d", process.ErrInvalidModule, len(buf), bytesRead)
	}

	return buf, nil
}
