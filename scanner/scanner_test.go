package scanner

import (
	"errors"
	"runtime"
	"testing"
	"unsafe"

	"github.com/google/go-cmp/cmp"

	"sigscan/process"
	"sigscan/signature"
)

// fakeResolver returns a fixed region, typically one covering a Go buffer
type fakeResolver struct {
	region process.MemoryRegion
	err    error
	calls  int
}

func (f *fakeResolver) ModuleName() string {
	return "fake.so"
}

func (f *fakeResolver) Resolve() (process.MemoryRegion, error) {
	f.calls++
	return f.region, f.err
}

// held keeps test buffers on the heap; a stack buffer can move while its
// address is held as an integer
var held [][]byte

func regionOf(buf []byte) process.MemoryRegion {
	held = append(held, buf)
	return process.MemoryRegion{
		Base:   process.ProcessMemoryAddress(uintptr(unsafe.Pointer(&buf[0]))),
		Length: process.ProcessMemorySize(len(buf)),
	}
}

func supportsMemoryMap(t *testing.T) {
	t.Helper()
	if runtime.GOOS != "linux" && runtime.GOOS != "windows" {
		t.Skipf("memory map not supported on %s", runtime.GOOS)
	}
}

func TestScanner_Find(t *testing.T) {
	supportsMemoryMap(t)

	tests := []struct {
		name       string
		buf        []byte
		sig        string
		wantOffset int
		wantErr    error
	}{
		{name: "unique", buf: []byte{0x90, 0x90, 0xC3, 0x90}, sig: "C3", wantOffset: 2},
		{name: "duplicate", buf: []byte{0xC3, 0x90, 0x90, 0x90, 0xC3}, sig: "C3", wantErr: process.ErrMultipleFound},
		{name: "missing", buf: []byte{0x90, 0x90}, sig: "C3", wantErr: process.ErrNotFound},
		{name: "wildcard", buf: []byte("xxA.Cxx"), sig: "41 ?? 43", wantOffset: 2},
		{name: "longer than region", buf: []byte{0x41}, sig: "41 42", wantErr: process.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region := regionOf(tt.buf)
			s := NewWithResolver(&fakeResolver{region: region})

			addr, err := s.Find(signature.MustParse(tt.sig))
			runtime.KeepAlive(tt.buf)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Find() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if want := region.Base + process.ProcessMemoryAddress(tt.wantOffset); addr != want {
				t.Errorf("Find() = %s, want %s", addr.ToString(), want.ToString())
			}
		})
	}
}

func TestScanner_ResolveFailureSkipsMatching(t *testing.T) {
	s := NewWithResolver(&fakeResolver{err: process.ErrInvalidModule})
	s.scan = func([]byte, signature.Signature) (int, error) {
		t.Fatal("matcher ran after the module failed to resolve")
		return 0, nil
	}

	_, err := s.Find(signature.MustParse("C3"))
	if !errors.Is(err, process.ErrInvalidModule) {
		t.Fatalf("Find() error = %v, want ErrInvalidModule", err)
	}
}

func TestScanner_DegenerateRegion(t *testing.T) {
	for _, region := range []process.MemoryRegion{
		{},
		{Base: 0x1000, Length: 0},
		{Base: 0, Length: 0x1000},
	} {
		s := NewWithResolver(&fakeResolver{region: region})
		s.scan = func([]byte, signature.Signature) (int, error) {
			t.Fatal("matcher ran over a degenerate region")
			return 0, nil
		}

		if _, err := s.Find(signature.MustParse("C3")); !errors.Is(err, process.ErrInvalidModule) {
			t.Errorf("Find() over %s error = %v, want ErrInvalidModule", region.String(), err)
		}
	}
}

func TestScanner_EmptySignature(t *testing.T) {
	r := &fakeResolver{}
	s := NewWithResolver(r)

	if _, err := s.Find(signature.Signature{}); !errors.Is(err, process.ErrEmptySignature) {
		t.Fatalf("Find() error = %v, want ErrEmptySignature", err)
	}
	if _, err := s.FindAll(signature.Signature{}); !errors.Is(err, process.ErrEmptySignature) {
		t.Fatalf("FindAll() error = %v, want ErrEmptySignature", err)
	}
	if r.calls != 0 {
		t.Errorf("resolver called %d times for an empty signature", r.calls)
	}
}

func TestScanner_ResolvesEveryCall(t *testing.T) {
	supportsMemoryMap(t)

	buf := []byte{0x90, 0xC3}
	r := &fakeResolver{region: regionOf(buf)}
	s := NewWithResolver(r)

	for i := 0; i < 3; i++ {
		if _, err := s.Find(signature.MustParse("C3")); err != nil {
			t.Fatal(err)
		}
	}
	runtime.KeepAlive(buf)

	if r.calls != 3 {
		t.Errorf("resolver called %d times, want 3", r.calls)
	}
}

func TestScanner_Snapshot(t *testing.T) {
	supportsMemoryMap(t)

	buf := []byte{0x00, 0x48, 0x8B, 0x05, 0x00}
	region := regionOf(buf)
	s := NewWithResolver(&fakeResolver{region: region}, WithSnapshot(true))

	addr, err := s.Find(signature.MustParse("48 8B ??"))
	runtime.KeepAlive(buf)
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if want := region.Base + 1; addr != want {
		t.Errorf("Find() = %s, want %s", addr.ToString(), want.ToString())
	}
}

func TestScanner_FindAll(t *testing.T) {
	supportsMemoryMap(t)

	buf := []byte{0xC3, 0x90, 0xC3, 0xC3}
	region := regionOf(buf)
	s := NewWithResolver(&fakeResolver{region: region})

	got, err := s.FindAll(signature.MustParse("C3"))
	runtime.KeepAlive(buf)
	if err != nil {
		t.Fatal(err)
	}

	want := []process.ProcessMemoryAddress{region.Base, region.Base + 2, region.Base + 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FindAll mismatch (-want +got):\n%s", diff)
	}
}

func TestFind_InvalidModule(t *testing.T) {
	tests := []struct {
		name   string
		module string
	}{
		{name: "empty name", module: ""},
		{name: "NUL in name", module: "lib\x00c.so"},
		{name: "not loaded", module: "sigscan-module-that-is-never-loaded.so"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Find(tt.module, signature.MustParse("C3"))
			if !errors.Is(err, process.ErrInvalidModule) {
				t.Fatalf("Find(%q) error = %v, want ErrInvalidModule", tt.module, err)
			}
		})
	}
}

func TestNew_RejectsInvalidName(t *testing.T) {
	if _, ok := New(""); ok {
		t.Error("New(\"\") succeeded")
	}
	if s, ok := New("libc.so.6"); !ok || s == nil {
		t.Error("New(\"libc.so.6\") failed")
	}
}
