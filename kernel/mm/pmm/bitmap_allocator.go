package pmm

import (
	"math/bits"

	"github.com/yutiansut/zCore/kernel"
	"github.com/yutiansut/zCore/kernel/mm"
	"github.com/yutiansut/zCore/kernel/sync"
)

const (
	// maxPhysMem is the maximum amount of addressable physical memory
	// that the allocator bitmap can track.
	maxPhysMem = uintptr(64 << 30) // 64 GiB

	// maxFrames is the number of page frames covered by the bitmap.
	maxFrames = uint64(maxPhysMem >> mm.PageShift)

	// bitmapWords is the number of 64-bit words backing the free bitmap.
	bitmapWords = maxFrames >> 6
)

var errOutOfMemory = &kernel.Error{Module: "pmm", Message: "out of physical memory"}

// BitmapAllocator tracks the free/used state of every physical frame in the
// supported physical range using one bit per frame. A set bit marks the
// frame as free. The allocator hands out any free frame with no ordering
// guarantee; callers treat frames as interchangeable.
type BitmapAllocator struct {
	lock sync.Spinlock

	// freeBitmap tracks the free frames. The bitmap is statically sized
	// so that the allocator never depends on the heap it bootstraps.
	freeBitmap [bitmapWords]uint64

	// freeCount tracks the number of free frames across the bitmap.
	freeCount uint64

	// totalFrames tracks the number of frames inserted at boot.
	totalFrames uint64

	// scanHint remembers the word where the last allocation found a free
	// bit so consecutive allocations do not rescan exhausted regions.
	scanHint uint64
}

// insert marks the frames in [startFrame, startFrame+count) as free. It is
// only invoked while ingesting the boot memory map and expects regions not
// to overlap.
func (alloc *BitmapAllocator) insert(startFrame, count uint64) {
	if startFrame >= maxFrames {
		return
	}
	if startFrame+count > maxFrames {
		count = maxFrames - startFrame
	}

	alloc.lock.Acquire()
	for frame := startFrame; frame < startFrame+count; frame++ {
		alloc.freeBitmap[frame>>6] |= 1 << (frame & 63)
	}
	alloc.freeCount += count
	alloc.totalFrames += count
	alloc.lock.Release()
}

// AllocFrame reserves and returns a free physical frame. It returns
// errOutOfMemory when no frame is free. AllocFrame is safe for concurrent
// use.
func (alloc *BitmapAllocator) AllocFrame() (mm.Frame, *kernel.Error) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	if alloc.freeCount == 0 {
		return mm.InvalidFrame, errOutOfMemory
	}

	// Scan the bitmap starting at the hint, wrapping around once.
	for scanned := uint64(0); scanned < bitmapWords; scanned++ {
		wordIndex := (alloc.scanHint + scanned) % bitmapWords
		word := alloc.freeBitmap[wordIndex]
		if word == 0 {
			continue
		}

		bit := uint64(bits.TrailingZeros64(word))
		alloc.freeBitmap[wordIndex] &^= 1 << bit
		alloc.freeCount--
		alloc.scanHint = wordIndex
		return mm.Frame(wordIndex<<6 + bit), nil
	}

	// freeCount and the bitmap can only disagree if a frame was freed
	// twice or a non-inserted frame was freed.
	kernel.Assert(false, "pmm: free count does not match bitmap contents")
	return mm.InvalidFrame, errOutOfMemory
}

// FreeFrame returns a frame previously obtained via AllocFrame to the free
// set. Freeing a frame that is already free is a caller contract violation
// and trips an assertion.
func (alloc *BitmapAllocator) FreeFrame(frame mm.Frame) {
	alloc.lock.Acquire()
	defer alloc.lock.Release()

	wordIndex, mask := uint64(frame)>>6, uint64(1)<<(uint64(frame)&63)
	kernel.Assert(uint64(frame) < maxFrames, "pmm: frame outside supported physical range")
	kernel.Assert(alloc.freeBitmap[wordIndex]&mask == 0, "pmm: frame freed twice")

	alloc.freeBitmap[wordIndex] |= mask
	alloc.freeCount++
	if wordIndex < alloc.scanHint {
		alloc.scanHint = wordIndex
	}
}

// FreeFrameCount returns the number of currently free frames.
func (alloc *BitmapAllocator) FreeFrameCount() uint64 {
	alloc.lock.Acquire()
	defer alloc.lock.Release()
	return alloc.freeCount
}

// TotalFrameCount returns the number of frames inserted at boot.
func (alloc *BitmapAllocator) TotalFrameCount() uint64 {
	alloc.lock.Acquire()
	defer alloc.lock.Release()
	return alloc.totalFrames
}
