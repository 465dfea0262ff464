//go:build !linux && !windows

package module

import (
	"fmt"
	"runtime"

	"sigscan/process"
)

func resolve(name string) (process.MemoryRegion, error) {
	return process.MemoryRegion{}, fmt.Errorf("%w: module resolution is not supported on %s", process.ErrInvalidModule, runtime.GOOS)
}

func modules() ([]ModuleInfo, error) {
	return nil, fmt.Errorf("module listing is not supported on %s", runtime.GOOS)
}
