package memory_map

import "testing"

func testMap() []MemoryMapItem {
	mm := []MemoryMapItem{
		{Address: 0x3000, Size: 0x1000, Perms: "---p"},
		{Address: 0x1000, Size: 0x1000, Perms: "r--p"},
		{Address: 0x2000, Size: 0x1000, Perms: "r-xp"},
		{Address: 0x5000, Size: 0x1000, Perms: "rw-p"},
	}
	SortByAddress(mm)
	return mm
}

func TestFindItem(t *testing.T) {
	mm := testMap()

	tests := []struct {
		addr     uint64
		wantAddr uint64
		wantNil  bool
	}{
		{addr: 0x0fff, wantNil: true},
		{addr: 0x1000, wantAddr: 0x1000},
		{addr: 0x1fff, wantAddr: 0x1000},
		{addr: 0x2000, wantAddr: 0x2000},
		{addr: 0x4000, wantNil: true},
		{addr: 0x5fff, wantAddr: 0x5000},
		{addr: 0x6000, wantNil: true},
	}

	for _, tt := range tests {
		item := FindItem(tt.addr, mm)
		if tt.wantNil {
			if item != nil {
				t.Errorf("FindItem(0x%x) = %v, want nil", tt.addr, item)
			}
			continue
		}
		if item == nil || item.Address != tt.wantAddr {
			t.Errorf("FindItem(0x%x) = %v, want region at 0x%x", tt.addr, item, tt.wantAddr)
		}
	}
}

func TestIsReadableRange(t *testing.T) {
	mm := testMap()

	tests := []struct {
		name string
		addr uint64
		size uint64
		want bool
	}{
		{name: "inside one region", addr: 0x1100, size: 0x10, want: true},
		{name: "spans adjacent readable regions", addr: 0x1800, size: 0x1000, want: true},
		{name: "runs into unreadable region", addr: 0x2800, size: 0x1000, want: false},
		{name: "runs into gap", addr: 0x5800, size: 0x1000, want: false},
		{name: "starts in gap", addr: 0x4000, size: 0x10, want: false},
		{name: "exact region", addr: 0x5000, size: 0x1000, want: true},
		{name: "zero size", addr: 0x1000, size: 0, want: false},
		{name: "wraps", addr: ^uint64(0) - 1, size: 0x10, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReadableRange(tt.addr, tt.size, mm); got != tt.want {
				t.Errorf("IsReadableRange(0x%x, 0x%x) = %v, want %v", tt.addr, tt.size, got, tt.want)
			}
		})
	}
}

func TestMemoryMapItem_Perms(t *testing.T) {
	item := MemoryMapItem{Perms: "r-xp"}
	if !item.IsReadable() || item.IsWritable() || !item.IsExecutable() {
		t.Errorf("perms %q decoded wrong", item.Perms)
	}
	if (MemoryMapItem{}).IsReadable() {
		t.Error("empty perms reported readable")
	}
}
