// Package kernel provides the error and assertion primitives shared by all
// kernel subsystems.
package kernel

// Error describes a kernel error. All kernel errors must be defined as global
// variables that are pointers to the Error structure. This allows callers to
// compare errors by pointer and keeps error construction allocation-free, a
// requirement for code paths that may run before the heap is initialized.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Assert panics if cond is false. It is reserved for contract violations by
// trusted in-kernel callers; conditions that user code can trigger must be
// surfaced as typed errors instead.
func Assert(cond bool, msg string) {
	if !cond {
		panic("kernel: assertion failed: " + msg)
	}
}
