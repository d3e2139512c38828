package bootinfo

import "testing"

func TestVisitMemRegions(t *testing.T) {
	defer SetMemoryMap(nil)
	SetMemoryMap([]MemoryMapEntry{
		{PhysStart: 0x0, PageCount: 159, Type: MemConventional},
		{PhysStart: 0x9f000, PageCount: 1, Type: MemReserved},
		{PhysStart: 0x100000, PageCount: 32480, Type: MemConventional},
		{PhysStart: 0xfffc0000, PageCount: 64, Type: MemoryType(99)},
	})

	var (
		visited     int
		unknownType MemoryType
	)
	VisitMemRegions(func(entry *MemoryMapEntry) bool {
		if visited == 3 {
			unknownType = entry.Type
		}
		visited++
		return true
	})

	if visited != 4 {
		t.Fatalf("expected visitor to be invoked 4 times; got %d", visited)
	}

	if unknownType != MemReserved {
		t.Fatalf("expected unknown region type to be reported as reserved; got %s", unknownType)
	}
}

func TestVisitMemRegionsAbort(t *testing.T) {
	defer SetMemoryMap(nil)
	SetMemoryMap([]MemoryMapEntry{
		{PhysStart: 0x0, PageCount: 1, Type: MemConventional},
		{PhysStart: 0x1000, PageCount: 1, Type: MemConventional},
	})

	var visited int
	VisitMemRegions(func(*MemoryMapEntry) bool {
		visited++
		return false
	})

	if visited != 1 {
		t.Fatalf("expected visitor abort after 1 region; visited %d", visited)
	}
}

func TestMemoryTypeString(t *testing.T) {
	specs := []struct {
		in  MemoryType
		exp string
	}{
		{MemConventional, "conventional"},
		{MemReserved, "reserved"},
		{MemACPIReclaimable, "acpi-reclaimable"},
		{MemMMIO, "mmio"},
		{MemFirmwareRuntime, "firmware-runtime"},
		{MemoryType(42), "unknown"},
	}

	for specIndex, spec := range specs {
		if got := spec.in.String(); got != spec.exp {
			t.Errorf("[spec %d] expected %q; got %q", specIndex, spec.exp, got)
		}
	}
}
