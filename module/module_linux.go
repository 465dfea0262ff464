//go:build linux

package module

import (
	"bytes"
	"debug/elf"
	"fmt"
	"slices"
	"strings"

	"sigscan/process"
	"sigscan/process/memory_map"

	"golang.org/x/sys/unix"
)

// loadedObject is one file-backed ELF object found in /proc/self/maps
type loadedObject struct {
	path     string
	mappings []memory_map.MemoryMapItem // sorted by address
}

func (o loadedObject) base() uint64 {
	return o.mappings[0].Address
}

func (o loadedObject) end() uint64 {
	return o.mappings[len(o.mappings)-1].End()
}

// mappingAtOffset returns the lowest mapping of the given file offset
func (o loadedObject) mappingAtOffset(offset uint64) (memory_map.MemoryMapItem, bool) {
	for _, m := range o.mappings {
		if m.Offset == offset {
			return m, true
		}
	}
	return memory_map.MemoryMapItem{}, false
}

// objectKey separates two objects mapped from the same path, e.g. a library
// that was replaced on disk and loaded again
type objectKey struct {
	path   string
	device string
	inode  uint64
}

// loadedObjects collects the loaded objects in load address order. Only
// files with at least one executable mapping count; plain mmap'd data files
// are not loader objects.
func loadedObjects() ([]loadedObject, error) {
	mm, err := memory_map.NewLinuxMemoryMap().ReadMemoryMap()
	if err != nil {
		return nil, fmt.Errorf("failed to read memory map: %w", err)
	}
	return groupObjects(mm), nil
}

func groupObjects(mm []memory_map.MemoryMapItem) []loadedObject {
	var objects []loadedObject
	index := make(map[objectKey]int)
	executable := make(map[int]bool)

	for _, item := range mm {
		if !strings.HasPrefix(item.Path, "/") {
			continue
		}

		key := objectKey{path: item.Path, device: item.Device, inode: item.Inode}
		i, ok := index[key]
		if !ok {
			i = len(objects)
			index[key] = i
			objects = append(objects, loadedObject{path: item.Path})
		}
		objects[i].mappings = append(objects[i].mappings, item)

		if item.IsExecutable() {
			executable[i] = true
		}
	}

	var result []loadedObject
	for i, o := range objects {
		if executable[i] {
			result = append(result, o)
		}
	}
	return result
}

func findObject(objects []loadedObject, name string) (loadedObject, bool) {
	for _, o := range objects {
		if strings.HasSuffix(o.path, name) {
			return o, true
		}
	}
	return loadedObject{}, false
}

// imageReader copies a region of live memory; Snapshot in production
type imageReader func(process.MemoryRegion) ([]byte, error)

// loadedHeaders parses the ELF header and program headers from the object's
// mapped first page rather than from the file at its path, which may have been
// replaced or deleted since it was loaded.
func loadedHeaders(o loadedObject, read imageReader) (*elf.File, error) {
	head, ok := o.mappingAtOffset(0)
	if !ok {
		return nil, fmt.Errorf("%w: %s: ELF header is not mapped", process.ErrInvalidModule, o.path)
	}

	image, err := read(process.MemoryRegion{
		Base:   process.ProcessMemoryAddress(head.Address),
		Length: process.ProcessMemorySize(head.Size),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", process.ErrInvalidModule, o.path, err)
	}

	f, err := elf.NewFile(bytes.NewReader(withoutSectionHeaders(image)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", process.ErrInvalidModule, o.path, err)
	}
	return f, nil
}

// withoutSectionHeaders returns a copy of image with e_shoff, e_shnum and
// e_shstrndx cleared. Section headers live at the end of the file and are not
// part of the loaded image.
func withoutSectionHeaders(image []byte) []byte {
	image = slices.Clone(image)

	var shoff, shoffEnd, shnum int
	switch {
	case len(image) >= 64 && elf.Class(image[elf.EI_CLASS]) == elf.ELFCLASS64:
		shoff, shoffEnd, shnum = 0x28, 0x30, 0x3C
	case len(image) >= 52 && elf.Class(image[elf.EI_CLASS]) == elf.ELFCLASS32:
		shoff, shoffEnd, shnum = 0x20, 0x24, 0x30
	default:
		return image
	}

	clear(image[shoff:shoffEnd])
	clear(image[shnum : shnum+4]) // e_shnum and e_shstrndx
	return image
}

// firstLoadRegion computes [bias+p_vaddr, bias+p_vaddr+p_memsz) of the first
// PT_LOAD segment. The bias is zero for ET_EXEC; for ET_DYN it is derived from
// where the segment's first file page is mapped.
func firstLoadRegion(o loadedObject, read imageReader) (process.MemoryRegion, error) {
	f, err := loadedHeaders(o, read)
	if err != nil {
		return process.MemoryRegion{}, err
	}

	var load *elf.Prog
	for _, p := range f.Progs {
		if p.Type == elf.PT_LOAD {
			load = p
			break
		}
	}
	if load == nil {
		return process.MemoryRegion{}, fmt.Errorf("%w: %s has no loadable segment", process.ErrInvalidModule, o.path)
	}

	var bias uint64
	switch f.Type {
	case elf.ET_EXEC:
	case elf.ET_DYN:
		pageSize := uint64(unix.Getpagesize())
		m, ok := o.mappingAtOffset(process.AlignDown(load.Off, pageSize))
		if !ok {
			return process.MemoryRegion{}, fmt.Errorf("%w: %s: first loadable segment is not mapped", process.ErrInvalidModule, o.path)
		}
		bias = m.Address - process.AlignDown(load.Vaddr, pageSize)
	default:
		return process.MemoryRegion{}, fmt.Errorf("%w: %s: unexpected ELF type %s", process.ErrInvalidModule, o.path, f.Type)
	}

	return process.MemoryRegion{
		Base:   process.ProcessMemoryAddress(bias + load.Vaddr),
		Length: process.ProcessMemorySize(load.Memsz),
	}, nil
}

func resolve(name string) (process.MemoryRegion, error) {
	objects, err := loadedObjects()
	if err != nil {
		return process.MemoryRegion{}, fmt.Errorf("%w: %v", process.ErrInvalidModule, err)
	}

	o, ok := findObject(objects, name)
	if !ok {
		return process.MemoryRegion{}, fmt.Errorf("%w: %q is not loaded", process.ErrInvalidModule, name)
	}

	return firstLoadRegion(o, Snapshot)
}

func modules() ([]ModuleInfo, error) {
	objects, err := loadedObjects()
	if err != nil {
		return nil, err
	}

	result := make([]ModuleInfo, 0, len(objects))
	for _, o := range objects {
		result = append(result, ModuleInfo{
			Path: o.path,
			Base: process.ProcessMemoryAddress(o.base()),
			Size: process.ProcessMemorySize(o.end() - o.base()),
		})
	}
	return result, nil
}
