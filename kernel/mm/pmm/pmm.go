// Package pmm implements the kernel's physical frame allocator. The
// allocator is initialized exactly once at boot from the memory map handed
// over by the bootloader and serves every physical page allocation for the
// lifetime of the kernel.
package pmm

import (
	"github.com/yutiansut/zCore/kernel"
	"github.com/yutiansut/zCore/kernel/hal/bootinfo"
	"github.com/yutiansut/zCore/kernel/kfmt"
	"github.com/yutiansut/zCore/kernel/mm"
)

var (
	// frameAllocator is the process-wide bitmap allocator singleton that
	// serves all page allocations while the kernel runs.
	frameAllocator BitmapAllocator

	initialized bool
)

// InitFrameAllocator walks the boot memory map and inserts every
// conventional memory region into the frame allocator. Regions of any other
// type (reserved, MMIO, firmware-runtime) are skipped so the allocator can
// never hand out non-RAM physical addresses.
//
// InitFrameAllocator must be called exactly once at boot, before any frame
// allocation takes place; a second invocation is a precondition violation.
func InitFrameAllocator() *kernel.Error {
	kernel.Assert(!initialized, "pmm: frame allocator initialized twice")
	initialized = true

	printMemoryMap()

	bootinfo.VisitMemRegions(func(region *bootinfo.MemoryMapEntry) bool {
		if region.Type != bootinfo.MemConventional {
			return true
		}

		startFrame := region.PhysStart >> uint64(mm.PageShift)
		frameAllocator.insert(startFrame, region.PageCount)
		return true
	})

	mm.SetFrameAllocator(allocFrame, freeFrame)
	kfmt.Printf("[pmm] frame allocator init end: %d free frames\n", frameAllocator.FreeFrameCount())
	return nil
}

func allocFrame() (mm.Frame, *kernel.Error) {
	return frameAllocator.AllocFrame()
}

func freeFrame(frame mm.Frame) {
	frameAllocator.FreeFrame(frame)
}

// AllocPhys reserves a free frame and returns its physical address. This is
// the physical-frame allocation ABI consumed by the paging and object
// subsystems; returned addresses are page-aligned and offset by
// mm.MemoryOffset.
func AllocPhys() (uintptr, *kernel.Error) {
	frame, err := frameAllocator.AllocFrame()
	if err != nil {
		return 0, err
	}
	return frame.Address() + mm.MemoryOffset, nil
}

// FreePhys returns a physical address previously obtained via AllocPhys to
// the free set.
func FreePhys(physAddr uintptr) {
	frameAllocator.FreeFrame(mm.FrameFromAddress(physAddr - mm.MemoryOffset))
}

// printMemoryMap logs the memory region information provided by the
// bootloader.
func printMemoryMap() {
	kfmt.Printf("[pmm] system memory map:\n")
	var totalFree uint64
	bootinfo.VisitMemRegions(func(region *bootinfo.MemoryMapEntry) bool {
		length := region.PageCount << uint64(mm.PageShift)
		kfmt.Printf("\t[0x%10x - 0x%10x], size: %10d, type: %s\n",
			region.PhysStart, region.PhysStart+length, length, region.Type.String())

		if region.Type == bootinfo.MemConventional {
			totalFree += length
		}
		return true
	})
	kfmt.Printf("[pmm] free memory: %dKb\n", totalFree>>10)
}
