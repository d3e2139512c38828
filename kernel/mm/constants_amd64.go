package mm

const (
	// PageShift is equal to log2(PageSize). This constant is used when
	// we need to convert a physical address to a page number (shift right
	// by PageShift) and vice-versa.
	PageShift = uintptr(12)

	// PageSize defines the system's page size in bytes.
	PageSize = uintptr(1 << PageShift)

	// KernelOffset is the virtual address where the kernel image is
	// mapped.
	KernelOffset = uintptr(0xffffff0000000000)

	// PhysMapOffset is the virtual address where all physical memory is
	// linearly mapped. Adding PhysMapOffset to a physical address yields
	// a kernel virtual address that dereferences the same memory.
	PhysMapOffset = uintptr(0xffff800000000000)

	// MemoryOffset is the fixed offset applied to physical addresses
	// returned by the frame allocation ABI.
	MemoryOffset = uintptr(0)
)
