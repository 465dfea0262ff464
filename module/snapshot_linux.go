//go:build linux

package module

import (
	"fmt"

	"sigscan/process"

	"golang.org/x/sys/unix"
)

// process_vm_readv copies bytesToRead bytes at remoteAddr of our own process
// into a fresh buffer. Unmapped pages produce EFAULT instead of a fault.
func process_vm_readv(remoteAddr process.ProcessMemoryAddress, bytesToRead process.ProcessMemorySize) ([]byte, error) {
	localBuf := make([]byte, bytesToRead)

	localIov := []unix.Iovec{{Base: &localBuf[0]}}
	localIov[0].SetLen(len(localBuf))

	remoteIov := []unix.RemoteIovec{{
		Base: uintptr(remoteAddr),
		Len:  int(bytesToRead),
	}}

	n, err := unix.ProcessVMReadv(unix.Getpid(), localIov, remoteIov, 0)
	if err != nil {
		return nil, fmt.Errorf("process_vm_readv failed: %w", err)
	}

	if n != len(localBuf) {
		return localBuf[:n], fmt.Errorf("partial read: %d of %d bytes", n, bytesToRead)
	}

	return localBuf, nil
}

// Snapshot copies region out of live memory. Unlike View the result stays
// valid after the module is unloaded.
func Snapshot(region process.MemoryRegion) ([]byte, error) {
	if !region.Valid() {
		return nil, fmt.Errorf("%w: degenerate region %s", process.ErrInvalidModule, region.String())
	}

	data, err := process_vm_readv(region.Base, region.Length)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read region %s: %v", process.ErrInvalidModule, region.String(), err)
	}
	return data, nil
}
