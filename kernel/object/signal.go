package object

// Signal is a bitmask of event flags attached to an object and observable by
// waiters. The bit assignments follow the Zircon signal ABI.
type Signal uint32

const (
	// SignalReadable indicates the object has data or packets to read.
	SignalReadable Signal = 1 << 0

	// SignalWritable indicates the object can accept writes.
	SignalWritable Signal = 1 << 1

	// SignalPeerClosed indicates the peer endpoint was closed.
	SignalPeerClosed Signal = 1 << 2

	// SignalSignaled is the generic "event fired" signal.
	SignalSignaled Signal = 1 << 3

	// SignalHandleClosed is asserted on waiters when the handle used for
	// the wait is closed.
	SignalHandleClosed Signal = 1 << 23

	// SignalUser0 through SignalUser7 are free for user-defined
	// protocols; they are the only bits mutable through the explicit
	// signal operations.
	SignalUser0 Signal = 1 << 24
	SignalUser1 Signal = 1 << 25
	SignalUser2 Signal = 1 << 26
	SignalUser3 Signal = 1 << 27
	SignalUser4 Signal = 1 << 28
	SignalUser5 Signal = 1 << 29
	SignalUser6 Signal = 1 << 30
	SignalUser7 Signal = 1 << 31

	// SignalUserAll is the set of all user-mutable signal bits.
	SignalUserAll = SignalUser0 | SignalUser1 | SignalUser2 | SignalUser3 |
		SignalUser4 | SignalUser5 | SignalUser6 | SignalUser7

	// signalAll is the set of every defined signal bit.
	signalAll = SignalReadable | SignalWritable | SignalPeerClosed |
		SignalSignaled | SignalHandleClosed | SignalUserAll
)

// SignalFromBits validates a raw user-supplied signal mask, rejecting masks
// that contain undefined bits.
func SignalFromBits(bits uint32) (Signal, Status) {
	if Signal(bits)&^signalAll != 0 {
		return 0, ErrInvalidArgs
	}
	return Signal(bits), StatusOK
}

// VerifyUserSignal validates a signal mask destined for an explicit
// user-triggered signal mutation: only the user signal bits are legal.
func VerifyUserSignal(bits uint32) (Signal, Status) {
	if Signal(bits)&^SignalUserAll != 0 {
		return 0, ErrInvalidArgs
	}
	return Signal(bits), StatusOK
}
