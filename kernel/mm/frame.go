// Package mm declares the memory-management types and constants shared by
// the physical and virtual memory subsystems.
package mm

import (
	"math"

	"github.com/yutiansut/zCore/kernel"
)

// Frame describes a physical memory page index.
type Frame uintptr

const (
	// InvalidFrame is returned by page allocators when they fail to
	// reserve the requested frame.
	InvalidFrame = Frame(math.MaxUint64)
)

// Valid returns true if this is a valid frame.
func (f Frame) Valid() bool {
	return f != InvalidFrame
}

// Address returns the physical memory address pointed to by this Frame.
func (f Frame) Address() uintptr {
	return uintptr(f << PageShift)
}

// FrameFromAddress returns a Frame that corresponds to the given physical
// address. This function can handle both page-aligned and not aligned
// addresses. In the latter case, the input address will be rounded down to
// the frame that contains it.
func FrameFromAddress(physAddr uintptr) Frame {
	return Frame((physAddr & ^(PageSize - 1)) >> PageShift)
}

// Page describes a virtual memory page index.
type Page uintptr

// Address returns the virtual memory address pointed to by this Page.
func (p Page) Address() uintptr {
	return uintptr(p << PageShift)
}

// PageFromAddress returns a Page that corresponds to the given virtual
// address. This function can handle both page-aligned and not aligned
// virtual addresses. In the latter case, the input address will be rounded
// down to the page that contains it.
func PageFromAddress(virtAddr uintptr) Page {
	return Page((virtAddr & ^(PageSize - 1)) >> PageShift)
}

var (
	// frameAllocator points to a frame allocator function registered
	// using SetFrameAllocator.
	frameAllocator FrameAllocatorFn

	// frameDeallocator points to a frame release function registered
	// using SetFrameAllocator.
	frameDeallocator FrameDeallocatorFn

	errNoAllocator = &kernel.Error{Module: "mm", Message: "no frame allocator registered"}
)

// FrameAllocatorFn is a function that can allocate physical frames.
type FrameAllocatorFn func() (Frame, *kernel.Error)

// FrameDeallocatorFn is a function that releases a previously allocated
// physical frame.
type FrameDeallocatorFn func(Frame)

// SetFrameAllocator registers the frame allocator functions that will be
// used by all kernel code that needs to allocate or release physical frames.
func SetFrameAllocator(allocFn FrameAllocatorFn, deallocFn FrameDeallocatorFn) {
	frameAllocator = allocFn
	frameDeallocator = deallocFn
}

// AllocFrame allocates a new physical frame using the currently registered
// physical frame allocator.
func AllocFrame() (Frame, *kernel.Error) {
	if frameAllocator == nil {
		return InvalidFrame, errNoAllocator
	}
	return frameAllocator()
}

// FreeFrame returns a physical frame obtained via AllocFrame to the
// registered allocator. The caller must guarantee the frame is not freed
// twice.
func FreeFrame(frame Frame) {
	kernel.Assert(frameDeallocator != nil, "mm: no frame deallocator registered")
	frameDeallocator(frame)
}
