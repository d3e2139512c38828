package object

import "sync"

// EventPair is the simplest peered object: two endpoints whose user signals
// can be mutated through each other. It exists so protocols can build
// bidirectional notification without a data channel.
type EventPair struct {
	Base

	peerMu sync.Mutex
	peer   *EventPair
}

// NewEventPair returns the two cross-linked endpoints of a fresh event pair.
func NewEventPair() (*EventPair, *EventPair) {
	ep0 := &EventPair{Base: NewBase(TypeEventPair, "")}
	ep1 := &EventPair{Base: NewBase(TypeEventPair, "")}
	ep0.peer = ep1
	ep1.peer = ep0
	return ep0, ep1
}

// Peer returns the other endpoint of the pair, or nil once the pair is
// closed.
func (ep *EventPair) Peer() *EventPair {
	ep.peerMu.Lock()
	defer ep.peerMu.Unlock()
	return ep.peer
}

// UserSignalPeer first clears then sets user signal bits on the peer
// endpoint. The caller must have validated both masks with
// VerifyUserSignal.
func (ep *EventPair) UserSignalPeer(clear, set Signal) Status {
	peer := ep.Peer()
	if peer == nil {
		return ErrPeerClosed
	}
	peer.SignalChange(clear, set)
	return StatusOK
}

// Close detaches the endpoint and asserts SignalPeerClosed on its peer. The
// peer pointers on both endpoints are cleared before the signal fires, so a
// racing UserSignalPeer either lands before the close or observes
// ErrPeerClosed.
func (ep *EventPair) Close() {
	ep.peerMu.Lock()
	peer := ep.peer
	ep.peer = nil
	ep.peerMu.Unlock()

	if peer == nil {
		return
	}

	peer.peerMu.Lock()
	peer.peer = nil
	peer.peerMu.Unlock()

	peer.SignalChange(0, SignalPeerClosed)
}
