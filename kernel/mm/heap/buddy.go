package heap

import (
	"math/bits"
	"unsafe"
)

const (
	// minBlockShift is log2 of the smallest block the heap hands out. A
	// block must be able to hold the intrusive free-list pointer.
	minBlockShift = 4

	// maxOrder bounds the largest block size (1 << maxOrder bytes) an
	// arena can contribute.
	maxOrder = 48
)

// Heap is a buddy allocator over one or more backing arenas. Free blocks are
// kept in per-order intrusive lists threaded through the free memory itself,
// so the allocator needs no metadata allocations of its own.
//
// Heap performs no locking; the Allocator front end serializes access.
type Heap struct {
	// freeList[n] heads the list of free blocks of size 1<<n bytes. Each
	// free block stores the address of the next free block in its first
	// word.
	freeList [maxOrder + 1]uintptr

	// totalBytes tracks the usable bytes contributed by all arenas.
	totalBytes uintptr

	// allocatedBytes tracks the bytes currently handed out, rounded up
	// to block sizes.
	allocatedBytes uintptr
}

// AddArena registers the contiguous virtual range [start, start+size) as
// backing memory for the heap. The range is carved into maximally-sized,
// naturally-aligned power-of-two blocks. Ranges smaller than the minimum
// block size after alignment are ignored.
func (h *Heap) AddArena(start, size uintptr) {
	const minBlock = uintptr(1) << minBlockShift

	end := (start + size) &^ (minBlock - 1)
	cur := (start + minBlock - 1) &^ (minBlock - 1)

	for cur+minBlock <= end {
		// The largest block that is naturally aligned at cur and still
		// fits in the remaining range.
		alignOrder := uint(bits.TrailingZeros64(uint64(cur)))
		fitOrder := uint(bits.Len64(uint64(end-cur))) - 1
		order := alignOrder
		if fitOrder < order {
			order = fitOrder
		}
		if order > maxOrder {
			order = maxOrder
		}

		h.push(cur, order)
		h.totalBytes += uintptr(1) << order
		cur += uintptr(1) << order
	}
}

// alloc reserves a block of at least size bytes and returns its address. The
// returned block is aligned to the rounded-up power-of-two block size. The
// second return value is false when no free block can satisfy the request.
func (h *Heap) alloc(size uintptr) (uintptr, bool) {
	order := orderFor(size)

	// Find the smallest non-empty order that covers the request.
	from := order
	for from <= maxOrder && h.freeList[from] == 0 {
		from++
	}
	if from > maxOrder {
		return 0, false
	}

	addr := h.pop(from)

	// Split the block down to the requested order, returning the upper
	// halves to their free lists.
	for from > order {
		from--
		h.push(addr+(uintptr(1)<<from), from)
	}

	h.allocatedBytes += uintptr(1) << order
	return addr, true
}

// free returns the block at addr, previously obtained from alloc with the
// same size, to the heap. Adjacent free buddies are coalesced greedily.
func (h *Heap) free(addr, size uintptr) {
	order := orderFor(size)
	h.allocatedBytes -= uintptr(1) << order

	for order < maxOrder {
		buddy := addr ^ (uintptr(1) << order)
		if !h.remove(buddy, order) {
			break
		}
		if buddy < addr {
			addr = buddy
		}
		order++
	}

	h.push(addr, order)
}

// FreeBytes returns the number of bytes available for allocation.
func (h *Heap) FreeBytes() uintptr {
	return h.totalBytes - h.allocatedBytes
}

// TotalBytes returns the usable bytes contributed by all arenas.
func (h *Heap) TotalBytes() uintptr {
	return h.totalBytes
}

// push prepends the block at addr to the free list of the given order.
func (h *Heap) push(addr uintptr, order uint) {
	*(*uintptr)(unsafe.Pointer(addr)) = h.freeList[order]
	h.freeList[order] = addr
}

// pop removes and returns the head block of the free list of the given
// order. The list must not be empty.
func (h *Heap) pop(order uint) uintptr {
	addr := h.freeList[order]
	h.freeList[order] = *(*uintptr)(unsafe.Pointer(addr))
	return addr
}

// remove unlinks the block at addr from the free list of the given order,
// returning false if the block is not on the list.
func (h *Heap) remove(addr uintptr, order uint) bool {
	prev := &h.freeList[order]
	for node := *prev; node != 0; node = *prev {
		if node == addr {
			*prev = *(*uintptr)(unsafe.Pointer(node))
			return true
		}
		prev = (*uintptr)(unsafe.Pointer(node))
	}
	return false
}

// orderFor maps an allocation size to the free-list order serving it.
func orderFor(size uintptr) uint {
	if size <= uintptr(1)<<minBlockShift {
		return minBlockShift
	}
	order := uint(bits.Len64(uint64(size - 1)))
	return order
}
