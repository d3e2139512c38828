// Package vmm hosts the virtual-memory helpers the kernel core needs during
// process bootstrap. The full mapping machinery (VM regions, protection
// changes, copy-on-write) lives elsewhere; this package only understands
// top-level page-table entries well enough to duplicate the kernel's shared
// mappings into a new address space.
package vmm

import "github.com/yutiansut/zCore/kernel/mm"

// PageTableEntryFlag describes a flag that can be applied to a page table
// entry.
type PageTableEntryFlag uintptr

const (
	// FlagPresent marks the entry as mapped.
	FlagPresent PageTableEntryFlag = 1 << 0

	// FlagRW marks the entry as writable.
	FlagRW PageTableEntryFlag = 1 << 1

	// FlagUserAccessible allows userland to access the mapped range.
	FlagUserAccessible PageTableEntryFlag = 1 << 2

	// FlagGlobal keeps the TLB entry for this mapping across address
	// space switches.
	FlagGlobal PageTableEntryFlag = 1 << 8

	// FlagNoExecute forbids instruction fetches from the mapped range.
	FlagNoExecute PageTableEntryFlag = 1 << 63
)

// ptePhysPageMask masks the physical frame address bits of an entry.
const ptePhysPageMask = uintptr(0x000ffffffffff000)

// pageTableEntries is the number of entries in a table at any paging level.
const pageTableEntries = 512

// topLevelShift is the shift that extracts the top-level (PML4) index from
// a virtual address on a 4-level paging architecture.
const topLevelShift = 39

// PageTableEntry encodes a physical frame address and a set of flags.
type PageTableEntry uintptr

// HasFlags returns true if this entry has all the input flags set.
func (pte PageTableEntry) HasFlags(flags PageTableEntryFlag) bool {
	return (uintptr(pte) & uintptr(flags)) == uintptr(flags)
}

// SetFlags sets the input list of flags on the page table entry.
func (pte *PageTableEntry) SetFlags(flags PageTableEntryFlag) {
	*pte = (PageTableEntry)(uintptr(*pte) | uintptr(flags))
}

// ClearFlags unsets the input list of flags from the page table entry.
func (pte *PageTableEntry) ClearFlags(flags PageTableEntryFlag) {
	*pte = (PageTableEntry)(uintptr(*pte) &^ uintptr(flags))
}

// Frame returns the physical page frame that this page table entry points to.
func (pte PageTableEntry) Frame() mm.Frame {
	return mm.Frame((uintptr(pte) & ptePhysPageMask) >> mm.PageShift)
}

// SetFrame updates the page table entry to point to the given physical frame.
func (pte *PageTableEntry) SetFrame(frame mm.Frame) {
	*pte = (PageTableEntry)((uintptr(*pte) &^ ptePhysPageMask) | frame.Address())
}

// PageTable describes a top-level page table.
type PageTable [pageTableEntries]PageTableEntry

// topLevelIndex returns the top-level table slot covering virtAddr.
func topLevelIndex(virtAddr uintptr) int {
	return int((virtAddr >> topLevelShift) & (pageTableEntries - 1))
}

// DuplicateKernelMappings copies the top-level entries covering the kernel
// image and the direct physical memory window from src into dst so that the
// new address space shares the kernel mappings. FlagGlobal is OR-ed into
// both copies so their TLB entries survive address-space switches. No other
// slot in dst is touched, preserving whatever per-process mappings the
// caller installed.
func DuplicateKernelMappings(dst, src *PageTable) {
	kernelSlot := topLevelIndex(mm.KernelOffset)
	physMapSlot := topLevelIndex(mm.PhysMapOffset)

	dst[kernelSlot] = src[kernelSlot]
	dst[kernelSlot].SetFlags(FlagGlobal)

	dst[physMapSlot] = src[physMapSlot]
	dst[physMapSlot].SetFlags(FlagGlobal)
}
