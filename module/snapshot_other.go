//go:build !linux && !windows

package module

import (
	"fmt"
	"runtime"

	"sigscan/process"
)

func Snapshot(region process.MemoryRegion) ([]byte, error) {
	return nil, fmt.Errorf("%w: snapshots are not supported on %s", process.ErrInvalidModule, runtime.GOOS)
}
