package object

import (
	"sync"
	"time"
)

// Packet is a completion message enqueued on a Port by an asynchronous wait
// registration, correlated to the registration by Key.
type Packet struct {
	// Key is the caller-chosen correlation value from the registration.
	Key uint64

	// Status reports how the wait concluded.
	Status Status

	// Observed is the signal state at the time the registration fired.
	Observed Signal
}

// Port is a kernel object that queues completion packets from asynchronous
// wait registrations. Its own SignalReadable bit tracks queue occupancy, so
// ports are themselves waitable.
type Port struct {
	Base

	qmu   sync.Mutex
	queue []Packet
}

// NewPort returns an empty port.
func NewPort(name string) *Port {
	return &Port{Base: NewBase(TypePort, name)}
}

// push appends a packet and marks the port readable. The readable signal is
// updated while the queue lock is held so queue contents and signal state
// never disagree; registrations fired by the readable transition are
// delivered after the queue lock is released, since the port may be
// registered to watch itself.
func (p *Port) push(packet Packet) {
	p.qmu.Lock()
	p.queue = append(p.queue, packet)
	fired, observed := p.applySignal(0, SignalReadable)
	p.qmu.Unlock()
	deliver(fired, observed)
}

// Dequeue removes and returns the oldest packet without blocking. It
// returns ErrShouldWait when the queue is empty.
func (p *Port) Dequeue() (Packet, Status) {
	p.qmu.Lock()
	if len(p.queue) == 0 {
		p.qmu.Unlock()
		return Packet{}, ErrShouldWait
	}

	packet := p.queue[0]
	p.queue = p.queue[1:]

	var (
		fired    []portWait
		observed Signal
	)
	if len(p.queue) == 0 {
		fired, observed = p.applySignal(SignalReadable, 0)
	}
	p.qmu.Unlock()

	deliver(fired, observed)
	return packet, StatusOK
}

// Wait blocks until a packet can be dequeued or the deadline elapses. A zero
// deadline waits forever.
func (p *Port) Wait(deadline time.Time) (Packet, Status) {
	for {
		packet, st := p.Dequeue()
		if st != ErrShouldWait {
			return packet, st
		}

		if _, st = p.WaitSignal(SignalReadable, deadline); st != StatusOK {
			return Packet{}, st
		}
	}
}
