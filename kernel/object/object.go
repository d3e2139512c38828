// Package object implements the kernel object and capability layer: handles
// with rights, waitable signal state and asynchronous notification ports.
package object

import (
	"sync"
	"sync/atomic"
	"time"
)

// Type enumerates the kernel object types known to this layer. The numeric
// values follow the Zircon object-type ABI.
type Type uint32

const (
	TypeNone      Type = 0
	TypeProcess   Type = 1
	TypeThread    Type = 2
	TypePort      Type = 6
	TypeEventPair Type = 16
	TypeVMAR      Type = 18
)

// maxNameLen is the capacity of an object name buffer, including the NUL
// terminator: stored names hold at most maxNameLen-1 bytes.
const maxNameLen = 32

// koidCounter mints kernel object IDs. IDs below 1024 are reserved.
var koidCounter uint64 = 1023

// KernelObject is implemented by every entity reachable through a
// capability. All kernel objects share an ID, a mutable name and a waitable
// signal state.
type KernelObject interface {
	// ID returns the kernel object ID. IDs are unique for the lifetime
	// of the kernel.
	ID() uint64

	// Type returns the concrete object type.
	Type() Type

	// Name returns the object name.
	Name() string

	// SetName updates the object name, silently truncating it to the
	// maximum stored length.
	SetName(name string)

	// Signal returns the current signal state.
	Signal() Signal

	// SignalChange first clears then sets the given signal bits, waking
	// any waiter and firing any port registration whose mask intersects
	// the new state.
	SignalChange(clear, set Signal)

	// WaitSignal blocks the calling context until the object's signal
	// state intersects mask, returning the observed state. A zero
	// deadline waits forever; otherwise the wait fails with ErrTimedOut
	// once the deadline passes.
	WaitSignal(mask Signal, deadline time.Time) (Signal, Status)

	// RegisterPortWait records a one-shot (port, key, mask) registration:
	// when the signal state intersects mask, a packet tagged with key is
	// enqueued on the port. A registration whose mask already intersects
	// the current state fires immediately.
	RegisterPortWait(port *Port, key uint64, mask Signal)
}

// Peered is implemented by objects that have a related peer endpoint whose
// user signals can be mutated through this endpoint.
type Peered interface {
	KernelObject

	// UserSignalPeer first clears then sets user signal bits on the peer
	// endpoint.
	UserSignalPeer(clear, set Signal) Status
}

// waiter is a synchronous wait registration. The notify channel is buffered
// so a signaler never blocks handing over the observed state.
type waiter struct {
	mask   Signal
	notify chan Signal
}

// portWait is an asynchronous one-shot wait registration against a port.
type portWait struct {
	port *Port
	key  uint64
	mask Signal
}

// Base supplies the shared capability state for every kernel object: ID,
// name, signal bitmask, synchronous waiters and asynchronous port
// registrations. Concrete objects embed Base and pick their Type.
type Base struct {
	id    uint64
	otype Type

	mu        sync.Mutex
	name      string
	signals   Signal
	waiters   []*waiter
	portWaits []portWait
}

// NewBase initializes the shared object state with a freshly minted ID.
func NewBase(otype Type, name string) Base {
	return Base{
		id:    atomic.AddUint64(&koidCounter, 1),
		otype: otype,
		name:  truncateName(name),
	}
}

// ID returns the kernel object ID.
func (b *Base) ID() uint64 { return b.id }

// Type returns the concrete object type.
func (b *Base) Type() Type { return b.otype }

// Name returns the object name.
func (b *Base) Name() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.name
}

// SetName updates the object name, silently truncating it so that it fits a
// maxNameLen-byte buffer including the NUL terminator.
func (b *Base) SetName(name string) {
	name = truncateName(name)
	b.mu.Lock()
	b.name = name
	b.mu.Unlock()
}

// Signal returns the current signal state.
func (b *Base) Signal() Signal {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.signals
}

// SignalChange first clears then sets the given signal bits. Waiter wake-up
// and the removal of fired one-shot port registrations happen under the
// object lock so no waiter can miss a transition between its state check and
// registration; the packets themselves are delivered after the lock is
// released, since a port may be registered to watch its own signals.
func (b *Base) SignalChange(clear, set Signal) {
	deliver(b.applySignal(clear, set))
}

// applySignal clears then sets signal bits under the object lock, waking
// matching waiters and unlinking matching one-shot port registrations. The
// fired registrations are returned so the caller can deliver their packets
// once it holds no lock a port push might re-enter.
func (b *Base) applySignal(clear, set Signal) ([]portWait, Signal) {
	b.mu.Lock()
	b.signals = (b.signals &^ clear) | set
	observed := b.signals

	remaining := b.waiters[:0]
	for _, w := range b.waiters {
		if observed&w.mask != 0 {
			w.notify <- observed
			continue
		}
		remaining = append(remaining, w)
	}
	b.waiters = remaining

	var fired []portWait
	pending := b.portWaits[:0]
	for _, pw := range b.portWaits {
		if observed&pw.mask != 0 {
			fired = append(fired, pw)
			continue
		}
		pending = append(pending, pw)
	}
	b.portWaits = pending
	b.mu.Unlock()
	return fired, observed
}

// deliver pushes a completion packet for every fired registration. It must
// be called with no object or port lock held.
func deliver(fired []portWait, observed Signal) {
	for _, pw := range fired {
		pw.port.push(Packet{Key: pw.key, Status: StatusOK, Observed: observed})
	}
}

// WaitSignal blocks until the object's signal state intersects mask or the
// deadline elapses. The current state is checked and the waiter registered
// under the same lock acquisition, so a concurrent SignalChange either
// satisfies the check or finds the registered waiter. The caller holds no
// subsystem lock while suspended.
func (b *Base) WaitSignal(mask Signal, deadline time.Time) (Signal, Status) {
	b.mu.Lock()
	if observed := b.signals; observed&mask != 0 {
		b.mu.Unlock()
		return observed, StatusOK
	}

	w := &waiter{mask: mask, notify: make(chan Signal, 1)}
	b.waiters = append(b.waiters, w)
	b.mu.Unlock()

	var timeout <-chan time.Time
	if !deadline.IsZero() {
		timer := time.NewTimer(time.Until(deadline))
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case observed := <-w.notify:
		return observed, StatusOK
	case <-timeout:
		return b.cancelWait(w)
	}
}

// cancelWait removes a timed-out waiter. The registration may have been
// satisfied between the timer firing and the lock acquisition, in which case
// the wait succeeded.
func (b *Base) cancelWait(w *waiter) (Signal, Status) {
	b.mu.Lock()
	for i, other := range b.waiters {
		if other == w {
			b.waiters = append(b.waiters[:i], b.waiters[i+1:]...)
			b.mu.Unlock()
			return 0, ErrTimedOut
		}
	}
	b.mu.Unlock()

	// Already removed by SignalChange: the observed state is in flight.
	return <-w.notify, StatusOK
}

// RegisterPortWait records a one-shot port registration, delivering the
// packet immediately when the current state already intersects mask. The
// check and the registration happen under the object lock.
func (b *Base) RegisterPortWait(port *Port, key uint64, mask Signal) {
	b.mu.Lock()
	if observed := b.signals; observed&mask != 0 {
		b.mu.Unlock()
		port.push(Packet{Key: key, Status: StatusOK, Observed: observed})
		return
	}
	b.portWaits = append(b.portWaits, portWait{port: port, key: key, mask: mask})
	b.mu.Unlock()
}

// CancelPortWaits removes every registration against port, e.g. when the
// port is destroyed, so no registration outlives the objects it references.
func (b *Base) CancelPortWaits(port *Port) {
	b.mu.Lock()
	pending := b.portWaits[:0]
	for _, pw := range b.portWaits {
		if pw.port != port {
			pending = append(pending, pw)
		}
	}
	b.portWaits = pending
	b.mu.Unlock()
}

// truncateName cuts name at the first NUL and limits it to the stored
// maximum of maxNameLen-1 bytes.
func truncateName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == 0 {
			name = name[:i]
			break
		}
	}
	if len(name) > maxNameLen-1 {
		name = name[:maxNameLen-1]
	}
	return name
}
