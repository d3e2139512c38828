package object

// Status is the result code returned by every capability-layer operation.
// The numeric values follow the Zircon status ABI so that callers built
// against a compatible system observe identical codes: 0 is success, all
// failures are negative.
type Status int32

const (
	// StatusOK indicates the operation succeeded.
	StatusOK Status = 0

	// ErrInternal indicates a condition that should never be observed by
	// user code.
	ErrInternal Status = -1

	// ErrNotSupported is returned for operations or topics the kernel
	// recognizes but does not implement. It is distinct from
	// ErrInvalidArgs so callers can tell a malformed call apart from a
	// known but unimplemented one.
	ErrNotSupported Status = -2

	// ErrNoMemory indicates physical memory exhaustion. It is fatal to
	// the allocation that triggered it, not to the kernel.
	ErrNoMemory Status = -4

	// ErrInvalidArgs indicates a malformed argument: an unrecognized
	// property identifier, a signal mask with undefined bits or an
	// unsupported option value.
	ErrInvalidArgs Status = -10

	// ErrBadHandle indicates the handle value does not name a live
	// handle in the caller's handle table.
	ErrBadHandle Status = -11

	// ErrWrongType indicates the handle refers to an object of a
	// different type than the operation requires.
	ErrWrongType Status = -12

	// ErrBufferTooSmall indicates the caller-provided buffer cannot hold
	// a fixed-size property.
	ErrBufferTooSmall Status = -15

	// ErrTimedOut indicates a wait deadline elapsed before the awaited
	// signal state was observed.
	ErrTimedOut Status = -21

	// ErrShouldWait indicates no packet/message is ready and the caller
	// asked not to block.
	ErrShouldWait Status = -22

	// ErrCanceled indicates a pending wait was canceled.
	ErrCanceled Status = -23

	// ErrPeerClosed indicates the peer endpoint of the object is gone.
	ErrPeerClosed Status = -24

	// ErrAccessDenied indicates the handle does not carry the right
	// required for the requested operation.
	ErrAccessDenied Status = -30
)

// Error implements the error interface.
func (s Status) Error() string { return s.String() }

// String returns a human readable description of the status code.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case ErrInternal:
		return "internal error"
	case ErrNotSupported:
		return "not supported"
	case ErrNoMemory:
		return "out of memory"
	case ErrInvalidArgs:
		return "invalid arguments"
	case ErrBadHandle:
		return "bad handle"
	case ErrWrongType:
		return "wrong object type"
	case ErrBufferTooSmall:
		return "buffer too small"
	case ErrTimedOut:
		return "timed out"
	case ErrShouldWait:
		return "should wait"
	case ErrCanceled:
		return "canceled"
	case ErrPeerClosed:
		return "peer closed"
	case ErrAccessDenied:
		return "access denied"
	default:
		return "unknown status"
	}
}
