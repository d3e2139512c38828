// Package heap implements the kernel's general-purpose allocator: a buddy
// allocator over a set of backing arenas, fronted by a lock and an
// out-of-memory rescue policy that grows the heap with freshly allocated
// physical frames.
package heap

import (
	"unsafe"

	"github.com/yutiansut/zCore/kernel"
	"github.com/yutiansut/zCore/kernel/kfmt"
	"github.com/yutiansut/zCore/kernel/mm"
	"github.com/yutiansut/zCore/kernel/sync"
)

// bootArenaSize is the size of the static arena that backs the heap before
// the rescue path can add physical memory.
const bootArenaSize = 8 << 20 // 8 MiB

var (
	// bootArena backs the heap at boot. It is compile-time sized so the
	// heap can serve allocations before the frame allocator exists.
	bootArena [bootArenaSize]byte

	// kernelAllocator is the process-wide heap singleton installed by
	// Init.
	kernelAllocator *Allocator

	errHeapOutOfMemory = &kernel.Error{Module: "heap", Message: "out of memory"}
	errRescueExhausted = &kernel.Error{Module: "heap", Message: "physical memory exhausted during heap rescue"}
)

// RescuePolicy grows a heap that failed to satisfy an allocation. Rescue is
// invoked with the allocator lock held; it must add one or more arenas to
// the heap or report that no more memory can be recovered.
type RescuePolicy interface {
	Rescue(h *Heap, size uintptr) *kernel.Error
}

// Allocator serializes access to a Heap and invokes a RescuePolicy when an
// allocation cannot be satisfied by the existing arenas.
type Allocator struct {
	lock   sync.Spinlock
	heap   Heap
	rescue RescuePolicy
}

// NewAllocator returns an Allocator that grows its heap through the supplied
// rescue policy. A nil policy turns exhaustion into an immediate
// out-of-memory error.
func NewAllocator(rescue RescuePolicy) *Allocator {
	return &Allocator{rescue: rescue}
}

// AddArena registers backing memory with the allocator's heap.
func (a *Allocator) AddArena(start, size uintptr) {
	a.lock.Acquire()
	a.heap.AddArena(start, size)
	a.lock.Release()
}

// Alloc reserves a block of at least size bytes. When the existing arenas
// cannot satisfy the request the rescue policy is invoked exactly once and
// the allocation retried; if the rescue cannot recover memory the allocation
// fails with an out-of-memory error that the caller must surface, never
// swallow.
func (a *Allocator) Alloc(size uintptr) (uintptr, *kernel.Error) {
	a.lock.Acquire()
	defer a.lock.Release()

	if addr, ok := a.heap.alloc(size); ok {
		return addr, nil
	}

	if a.rescue == nil {
		return 0, errHeapOutOfMemory
	}

	kfmt.Printf("[heap] exhausted; attempting rescue for %d byte allocation\n", size)
	if err := a.rescue.Rescue(&a.heap, size); err != nil {
		return 0, err
	}

	if addr, ok := a.heap.alloc(size); ok {
		return addr, nil
	}
	return 0, errHeapOutOfMemory
}

// Free returns a block previously obtained from Alloc with the same size.
func (a *Allocator) Free(addr, size uintptr) {
	a.lock.Acquire()
	a.heap.free(addr, size)
	a.lock.Release()
}

// FreeBytes returns the number of bytes available for allocation.
func (a *Allocator) FreeBytes() uintptr {
	a.lock.Acquire()
	defer a.lock.Release()
	return a.heap.FreeBytes()
}

var (
	// physMapBaseFn returns the virtual base of the direct physical
	// memory window. It is a package-level hook so tests can point the
	// window at mock physical memory.
	physMapBaseFn = func() uintptr { return mm.PhysMapOffset }

	// allocFrameFn and the rescue frame budget below are hooks for the
	// same purpose.
	allocFrameFn = mm.AllocFrame
)

const (
	// rescueFrameBudget is the maximum number of frames a single rescue
	// pulls from the frame allocator.
	rescueFrameBudget = 16384

	// rescueMaxRuns bounds the number of physically contiguous runs a
	// rescue tracks before registering them as arenas. Registering one
	// arena per frame would fragment the heap's free lists; coalescing
	// adjacent frames amortizes that cost.
	rescueMaxRuns = 32
)

// FrameRescue is the production rescue policy: it pulls frames from the
// physical frame allocator, coalesces physically adjacent frames into runs
// and registers each run, mapped through the direct physical memory window,
// as a new heap arena.
type FrameRescue struct{}

// Rescue implements RescuePolicy.
func (FrameRescue) Rescue(h *Heap, size uintptr) *kernel.Error {
	type run struct {
		addr uintptr
		size uintptr
	}

	var (
		runs     [rescueMaxRuns]run
		runCount int
		windowVA = physMapBaseFn()
	)

	for pulled := 0; pulled < rescueFrameBudget; pulled++ {
		frame, err := allocFrameFn()
		if err != nil {
			// Physical memory is exhausted. Whatever was recovered
			// so far still gets registered below; if nothing was,
			// the out-of-memory condition propagates to the
			// requesting allocation.
			break
		}

		va := windowVA + frame.Address()

		if runCount > 0 {
			last := &runs[runCount-1]
			switch {
			case last.addr+last.size == va:
				last.size += mm.PageSize
				continue
			case va+mm.PageSize == last.addr:
				last.addr -= mm.PageSize
				last.size += mm.PageSize
				continue
			}
		}

		if runCount == rescueMaxRuns {
			// Out of run slots; return the frame and register what
			// we have.
			mm.FreeFrame(frame)
			break
		}

		runs[runCount] = run{addr: va, size: mm.PageSize}
		runCount++
	}

	if runCount == 0 {
		return errRescueExhausted
	}

	for i := 0; i < runCount; i++ {
		kfmt.Printf("[heap] adding arena 0x%x (%d bytes)\n", runs[i].addr, runs[i].size)
		h.AddArena(runs[i].addr, runs[i].size)
	}
	return nil
}

// Init installs the process-wide kernel heap backed by the static boot
// arena and growable through the frame-rescue policy. It must run before
// any dynamic kernel allocation; there is no teardown.
func Init() {
	kernel.Assert(kernelAllocator == nil, "heap: initialized twice")
	kernelAllocator = NewAllocator(FrameRescue{})
	kernelAllocator.AddArena(uintptr(unsafe.Pointer(&bootArena[0])), bootArenaSize)
	kfmt.Printf("[heap] init end: %d bytes available\n", kernelAllocator.FreeBytes())
}

// Alloc reserves a block of at least size bytes from the kernel heap.
func Alloc(size uintptr) (uintptr, *kernel.Error) {
	return kernelAllocator.Alloc(size)
}

// Free returns a block previously obtained from Alloc with the same size.
func Free(addr, size uintptr) {
	kernelAllocator.Free(addr, size)
}
