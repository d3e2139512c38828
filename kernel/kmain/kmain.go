// Package kmain wires the memory core together at boot: the firmware memory
// map is ingested into the frame allocator and the kernel heap is installed
// on top of it.
package kmain

import (
	"github.com/yutiansut/zCore/kernel"
	"github.com/yutiansut/zCore/kernel/hal/bootinfo"
	"github.com/yutiansut/zCore/kernel/kfmt"
	"github.com/yutiansut/zCore/kernel/mm/heap"
	"github.com/yutiansut/zCore/kernel/mm/pmm"
)

// InitMemory brings up the memory subsystems in dependency order. The boot
// memory map feeds the frame allocator; the heap installs its static boot
// arena and relies on the frame allocator only once the rescue path runs.
//
// InitMemory is invoked exactly once by the boot path, before the object
// layer allocates anything.
func InitMemory(memoryMap []bootinfo.MemoryMapEntry) *kernel.Error {
	bootinfo.SetMemoryMap(memoryMap)

	if err := pmm.InitFrameAllocator(); err != nil {
		return err
	}

	heap.Init()
	kfmt.Printf("[kmain] memory subsystems online\n")
	return nil
}
