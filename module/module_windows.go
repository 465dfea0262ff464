//go:build windows

package module

import (
	"fmt"
	"unsafe"

	"sigscan/process"

	"golang.org/x/sys/windows"
)

// moduleHandle looks up a module already loaded in this process without
// loading it or changing its reference count
func moduleHandle(name string) (windows.Handle, error) {
	namePtr, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", process.ErrInvalidName, name, err)
	}

	var h windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT, namePtr, &h); err != nil {
		return 0, fmt.Errorf("%w: %q is not loaded: %v", process.ErrInvalidModule, name, err)
	}
	return h, nil
}

func moduleInformation(h windows.Handle) (windows.ModuleInfo, error) {
	var mi windows.ModuleInfo
	err := windows.GetModuleInformation(windows.CurrentProcess(), h, &mi, uint32(unsafe.Sizeof(mi)))
	return mi, err
}

func resolve(name string) (process.MemoryRegion, error) {
	h, err := moduleHandle(name)
	if err != nil {
		return process.MemoryRegion{}, err
	}

	mi, err := moduleInformation(h)
	if err != nil {
		return process.MemoryRegion{}, fmt.Errorf("%w: GetModuleInformation(%q): %v", process.ErrInvalidModule, name, err)
	}

	return process.MemoryRegion{
		Base:   process.ProcessMemoryAddress(mi.BaseOfDll),
		Length: process.ProcessMemorySize(mi.SizeOfImage),
	}, nil
}

func modules() ([]ModuleInfo, error) {
	self := windows.CurrentProcess()

	// Grow the handle buffer until the loader's list fits
	handles := make([]windows.Handle, 256)
	for {
		var needed uint32
		size := uint32(len(handles)) * uint32(unsafe.Sizeof(handles[0]))
		if err := windows.EnumProcessModules(self, &handles[0], size, &needed); err != nil {
			return nil, fmt.Errorf("EnumProcessModules failed: %w", err)
		}
		if needed <= size {
			handles = handles[:needed/uint32(unsafe.Sizeof(handles[0]))]
			break
		}
		handles = make([]windows.Handle, needed/uint32(unsafe.Sizeof(handles[0]))+16)
	}

	result := make([]ModuleInfo, 0, len(handles))
	buf := make([]uint16, windows.MAX_LONG_PATH)
	for _, h := range handles {
		mi, err := moduleInformation(h)
		if err != nil {
			// Unloaded since the enumeration
			continue
		}

		path := ""
		if err := windows.GetModuleFileNameEx(self, h, &buf[0], uint32(len(buf))); err == nil {
			path = windows.UTF16ToString(buf)
		}

		result = append(result, ModuleInfo{
			Path: path,
			Base: process.ProcessMemoryAddress(mi.BaseOfDll),
			Size: process.ProcessMemorySize(mi.SizeOfImage),
		})
	}
	return result, nil
}
