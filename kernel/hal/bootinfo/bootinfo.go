// Package bootinfo exposes the memory map handed over by the bootloader.
// Parsing of the boot protocol itself happens before the kernel proper runs;
// this package only provides the iteration contract that the memory
// subsystem consumes.
package bootinfo

// MemoryType defines the type of a MemoryMapEntry.
type MemoryType uint32

const (
	// MemConventional indicates that the memory region is normal RAM
	// available for use.
	MemConventional MemoryType = iota + 1

	// MemReserved indicates that the memory region must not be used.
	MemReserved

	// MemACPIReclaimable indicates a region holding ACPI tables that the
	// OS may reclaim once it has consumed them.
	MemACPIReclaimable

	// MemMMIO indicates a memory-mapped device region.
	MemMMIO

	// MemFirmwareRuntime indicates a region the firmware retains at
	// runtime.
	MemFirmwareRuntime
)

// String implements fmt.Stringer for MemoryType.
func (t MemoryType) String() string {
	switch t {
	case MemConventional:
		return "conventional"
	case MemReserved:
		return "reserved"
	case MemACPIReclaimable:
		return "acpi-reclaimable"
	case MemMMIO:
		return "mmio"
	case MemFirmwareRuntime:
		return "firmware-runtime"
	default:
		return "unknown"
	}
}

// MemoryMapEntry describes a physical memory region reported by the
// bootloader.
type MemoryMapEntry struct {
	// PhysStart is the physical address where this region begins. It is
	// always page-aligned.
	PhysStart uint64

	// PageCount is the number of 4 KiB pages in this region.
	PageCount uint64

	// Type describes what this region may be used for.
	Type MemoryType
}

var memoryMap []MemoryMapEntry

// MemRegionVisitor defines a visitor function that gets invoked by
// VisitMemRegions for each memory region provided by the bootloader. The
// visitor must return true to continue or false to abort the scan.
type MemRegionVisitor func(entry *MemoryMapEntry) bool

// SetMemoryMap installs the memory map provided by the bootloader. It must
// be invoked once, before any call to VisitMemRegions.
func SetMemoryMap(entries []MemoryMapEntry) {
	memoryMap = entries
}

// VisitMemRegions invokes the supplied visitor for each memory region in the
// installed memory map, in the order the bootloader reported them. Entries
// with an unrecognized type value are reported as MemReserved.
func VisitMemRegions(visitor MemRegionVisitor) {
	for i := range memoryMap {
		entry := memoryMap[i]
		if entry.Type == 0 || entry.Type > MemFirmwareRuntime {
			entry.Type = MemReserved
		}

		if !visitor(&entry) {
			return
		}
	}
}
