package syscall

import (
	"encoding/binary"
	"strings"
	"testing"
	"time"

	"github.com/yutiansut/zCore/kernel/object"
)

// testContext builds a process with a main thread and returns the syscall
// context plus the process for minting handles.
func testContext() (*Syscall, *object.Process) {
	vmar := object.NewVMAR(0x1000000, 0x40000000)
	proc := object.NewProcess("test-proc", vmar)
	thread := object.NewThread(proc, "main")
	return &Syscall{Thread: thread, Regs: &Registers{}}, proc
}

func TestNameProperty(t *testing.T) {
	s, proc := testContext()
	ep, _ := object.NewEventPair()
	hv := proc.Handles().Add(ep, object.RightsProperty)

	longName := strings.Repeat("n", 64)
	if st := s.ObjectSetProperty(hv, PropName, []byte(longName)); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}

	// A 31-byte buffer cannot hold name plus terminator.
	small := make([]byte, maxNameLen-1)
	if st := s.ObjectGetProperty(hv, PropName, small); st != object.ErrBufferTooSmall {
		t.Fatalf("expected ErrBufferTooSmall for a %d byte buffer; got %v", len(small), st)
	}

	buf := make([]byte, maxNameLen)
	if st := s.ObjectGetProperty(hv, PropName, buf); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}

	nul := -1
	for i, b := range buf {
		if b == 0 {
			nul = i
			break
		}
	}
	if nul == -1 {
		t.Fatal("expected returned name to be NUL-terminated")
	}
	if nul != maxNameLen-1 {
		t.Fatalf("expected a 64-byte name to be truncated to %d bytes; got %d", maxNameLen-1, nul)
	}
	if got := string(buf[:nul]); got != longName[:maxNameLen-1] {
		t.Fatalf("expected name %q; got %q", longName[:maxNameLen-1], got)
	}
}

func TestPropertyRightsChecks(t *testing.T) {
	s, proc := testContext()
	ep, _ := object.NewEventPair()

	readOnly := proc.Handles().Add(ep, object.RightGetProperty)
	if st := s.ObjectSetProperty(readOnly, PropName, []byte("x")); st != object.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied without RightSetProperty; got %v", st)
	}

	writeOnly := proc.Handles().Add(ep, object.RightSetProperty)
	if st := s.ObjectGetProperty(writeOnly, PropName, make([]byte, maxNameLen)); st != object.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied without RightGetProperty; got %v", st)
	}

	if st := s.ObjectGetProperty(object.HandleValue(404), PropName, make([]byte, maxNameLen)); st != object.ErrBadHandle {
		t.Fatalf("expected ErrBadHandle; got %v", st)
	}
}

func TestProcessScalarProperties(t *testing.T) {
	s, proc := testContext()
	hv := proc.Handles().Add(proc, object.RightsProperty)

	// The vDSO base defaults to 0 when unset rather than failing.
	buf := make([]byte, 8)
	if st := s.ObjectGetProperty(hv, PropProcessVDSOBase, buf); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	if got := binary.NativeEndian.Uint64(buf); got != 0 {
		t.Fatalf("expected unset vDSO base to read as 0; got %x", got)
	}

	proc.VMAR().SetVDSOBase(0x7fff0000)
	if st := s.ObjectGetProperty(hv, PropProcessVDSOBase, buf); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	if got := binary.NativeEndian.Uint64(buf); got != 0x7fff0000 {
		t.Fatalf("expected vDSO base 0x7fff0000; got %x", got)
	}

	for _, prop := range []uint32{PropProcessDebugAddr, PropProcessBreakOnLoad} {
		binary.NativeEndian.PutUint64(buf, 0xdeadbeef)
		if st := s.ObjectSetProperty(hv, prop, buf); st != object.StatusOK {
			t.Fatalf("[prop %d] unexpected status: %v", prop, st)
		}

		out := make([]byte, 8)
		if st := s.ObjectGetProperty(hv, prop, out); st != object.StatusOK {
			t.Fatalf("[prop %d] unexpected status: %v", prop, st)
		}
		if got := binary.NativeEndian.Uint64(out); got != 0xdeadbeef {
			t.Fatalf("[prop %d] expected 0xdeadbeef; got %x", prop, got)
		}

		// An 8-byte scalar needs an 8-byte buffer.
		if st := s.ObjectGetProperty(hv, prop, make([]byte, 7)); st != object.ErrBufferTooSmall {
			t.Fatalf("[prop %d] expected ErrBufferTooSmall; got %v", prop, st)
		}
		if st := s.ObjectSetProperty(hv, prop, make([]byte, 7)); st != object.ErrBufferTooSmall {
			t.Fatalf("[prop %d] expected ErrBufferTooSmall; got %v", prop, st)
		}
	}
}

func TestUnknownPropertyFailsClosed(t *testing.T) {
	s, proc := testContext()
	hv := proc.Handles().Add(proc, object.RightsProperty)

	if st := s.ObjectGetProperty(hv, 1234, make([]byte, 8)); st != object.ErrInvalidArgs {
		t.Fatalf("expected ErrInvalidArgs for an unknown property; got %v", st)
	}
	if st := s.ObjectSetProperty(hv, 1234, make([]byte, 8)); st != object.ErrInvalidArgs {
		t.Fatalf("expected ErrInvalidArgs for an unknown property; got %v", st)
	}
}

func TestRegisterFSProperty(t *testing.T) {
	s, proc := testContext()

	buf := make([]byte, 8)
	binary.NativeEndian.PutUint64(buf, 0x12345678)

	own := proc.Handles().Add(s.Thread, object.RightsProperty)
	if st := s.ObjectSetProperty(own, PropRegisterFS, buf); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	if s.Regs.FSBase != 0x12345678 {
		t.Fatalf("expected FSBase to be set to 0x12345678; got %x", s.Regs.FSBase)
	}

	notAThread := proc.Handles().Add(proc, object.RightsProperty)
	if st := s.ObjectSetProperty(notAThread, PropRegisterFS, buf); st != object.ErrWrongType {
		t.Fatalf("expected ErrWrongType for a non-thread handle; got %v", st)
	}
}

func TestRegisterFSForeignThreadAsserts(t *testing.T) {
	s, proc := testContext()

	foreign := object.NewThread(proc, "other")
	hv := proc.Handles().Add(foreign, object.RightsProperty)

	buf := make([]byte, 8)
	binary.NativeEndian.PutUint64(buf, 0x1000)

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected a foreign-thread register-fs set to trip an assertion")
		}
		if s.Regs.FSBase == 0x1000 {
			t.Fatal("register state must not be mutated through a foreign thread handle")
		}
	}()
	s.ObjectSetProperty(hv, PropRegisterFS, buf)
}

func TestGetInfoTopics(t *testing.T) {
	s, proc := testContext()

	procHV := proc.Handles().Add(proc, object.RightsBasic)
	vmarHV := proc.Handles().Add(proc.VMAR(), object.RightsBasic)

	info, st := s.ObjectGetInfo(procHV, uint32(topicHandleBasic))
	if st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	basic, ok := info.(object.HandleBasicInfo)
	if !ok {
		t.Fatalf("expected a HandleBasicInfo payload; got %T", info)
	}
	if basic.Koid != proc.ID() || basic.Type != object.TypeProcess || !basic.Rights.Has(object.RightsBasic) {
		t.Fatalf("unexpected handle-basic payload: %+v", basic)
	}

	info, st = s.ObjectGetInfo(procHV, uint32(topicProcess))
	if st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	if _, ok = info.(object.ProcessInfo); !ok {
		t.Fatalf("expected a ProcessInfo payload; got %T", info)
	}

	info, st = s.ObjectGetInfo(vmarHV, uint32(topicVMAR))
	if st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	vmarInfo, ok := info.(object.VMARInfo)
	if !ok {
		t.Fatalf("expected a VMARInfo payload; got %T", info)
	}
	if vmarInfo.Base != 0x1000000 || vmarInfo.Len != 0x40000000 {
		t.Fatalf("unexpected VMAR payload: %+v", vmarInfo)
	}
}

func TestGetInfoUnsupportedTopics(t *testing.T) {
	s, proc := testContext()
	hv := proc.Handles().Add(proc, object.RightsBasic)

	// Topic 5 is a hole in the enumeration; topic 99 is outside it. Both
	// must report NotSupported, never InvalidArgs, so callers can tell
	// malformed calls from unimplemented ones.
	for _, topic := range []uint32{5, 99, uint32(topicThread), uint32(topicKmemStats)} {
		if _, st := s.ObjectGetInfo(hv, topic); st != object.ErrNotSupported {
			t.Fatalf("[topic %d] expected ErrNotSupported; got %v", topic, st)
		}
	}
}

func TestGetInfoChecks(t *testing.T) {
	s, proc := testContext()

	noInspect := proc.Handles().Add(proc, object.RightWait)
	if _, st := s.ObjectGetInfo(noInspect, uint32(topicProcess)); st != object.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied without RightInspect; got %v", st)
	}

	vmarHV := proc.Handles().Add(proc.VMAR(), object.RightsBasic)
	if _, st := s.ObjectGetInfo(vmarHV, uint32(topicProcess)); st != object.ErrWrongType {
		t.Fatalf("expected ErrWrongType for a process topic on a VMAR handle; got %v", st)
	}
}

func TestWaitOne(t *testing.T) {
	s, proc := testContext()
	ep0, _ := object.NewEventPair()
	hv := proc.Handles().Add(ep0, object.RightsBasic)

	// Undefined mask bits are a malformed call.
	var observed object.Signal
	if st := s.ObjectWaitOne(hv, 1<<5, time.Time{}, &observed); st != object.ErrInvalidArgs {
		t.Fatalf("expected ErrInvalidArgs for an undefined mask bit; got %v", st)
	}

	noWait := proc.Handles().Add(ep0, object.RightInspect)
	if st := s.ObjectWaitOne(noWait, uint32(object.SignalUser0), time.Time{}, &observed); st != object.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied without RightWait; got %v", st)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		ep0.SignalChange(0, object.SignalUser0)
	}()

	if st := s.ObjectWaitOne(hv, uint32(object.SignalUser0), time.Now().Add(time.Second), &observed); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	if observed&object.SignalUser0 == 0 {
		t.Fatalf("expected observed state to include SignalUser0; got %x", observed)
	}

	if st := s.ObjectWaitOne(hv, uint32(object.SignalUser7), time.Now().Add(20*time.Millisecond), &observed); st != object.ErrTimedOut {
		t.Fatalf("expected ErrTimedOut; got %v", st)
	}
}

func TestSignalPeer(t *testing.T) {
	s, proc := testContext()
	ep0, ep1 := object.NewEventPair()
	hv := proc.Handles().Add(ep0, object.RightSignalPeer)

	if st := s.ObjectSignalPeer(hv, 0, uint32(object.SignalUser0)); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}
	if ep1.Signal()&object.SignalUser0 == 0 {
		t.Fatal("expected the peer endpoint to carry SignalUser0")
	}

	// Only user signal bits may be signaled explicitly.
	if st := s.ObjectSignalPeer(hv, 0, uint32(object.SignalReadable)); st != object.ErrInvalidArgs {
		t.Fatalf("expected ErrInvalidArgs for a non-user bit; got %v", st)
	}
	if st := s.ObjectSignalPeer(hv, uint32(object.SignalReadable), 0); st != object.ErrInvalidArgs {
		t.Fatalf("expected ErrInvalidArgs for a non-user clear mask; got %v", st)
	}

	noRight := proc.Handles().Add(ep0, object.RightsBasic)
	if st := s.ObjectSignalPeer(noRight, 0, uint32(object.SignalUser0)); st != object.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied without RightSignalPeer; got %v", st)
	}

	// Objects without a peer endpoint cannot be peer-signaled.
	port := object.NewPort("p")
	portHV := proc.Handles().Add(port, object.RightSignalPeer)
	if st := s.ObjectSignalPeer(portHV, 0, uint32(object.SignalUser0)); st != object.ErrNotSupported {
		t.Fatalf("expected ErrNotSupported for a non-peered object; got %v", st)
	}
}

func TestWaitAsync(t *testing.T) {
	s, proc := testContext()
	ep0, _ := object.NewEventPair()
	port := object.NewPort("notify")

	objHV := proc.Handles().Add(ep0, object.RightsBasic)
	portHV := proc.Handles().Add(port, object.RightsBasic|object.RightsIO)

	if st := s.ObjectWaitAsync(objHV, portHV, 0xabc, uint32(object.SignalUser0), 0); st != object.StatusOK {
		t.Fatalf("unexpected status: %v", st)
	}

	// A bit outside the registered mask must not produce a packet.
	ep0.SignalChange(0, object.SignalUser1)
	if _, st := port.Dequeue(); st != object.ErrShouldWait {
		t.Fatalf("expected no packet for a non-matching signal; got %v", st)
	}

	ep0.SignalChange(0, object.SignalUser0)
	packet, st := port.Dequeue()
	if st != object.StatusOK {
		t.Fatalf("expected exactly one completion packet; got %v", st)
	}
	if packet.Key != 0xabc {
		t.Fatalf("expected packet key 0xabc; got %x", packet.Key)
	}

	if _, st := port.Dequeue(); st != object.ErrShouldWait {
		t.Fatal("expected the registration to deliver exactly one packet")
	}
}

func TestWaitAsyncValidation(t *testing.T) {
	s, proc := testContext()
	ep0, _ := object.NewEventPair()
	port := object.NewPort("notify")

	objHV := proc.Handles().Add(ep0, object.RightsBasic)
	portHV := proc.Handles().Add(port, object.RightsBasic|object.RightsIO)

	// Non-default options are rejected, not ignored.
	if st := s.ObjectWaitAsync(objHV, portHV, 1, uint32(object.SignalUser0), 1); st != object.ErrNotSupported {
		t.Fatalf("expected ErrNotSupported for options != 0; got %v", st)
	}

	if st := s.ObjectWaitAsync(objHV, portHV, 1, 1<<9, 0); st != object.ErrInvalidArgs {
		t.Fatalf("expected ErrInvalidArgs for an undefined mask bit; got %v", st)
	}

	noWrite := proc.Handles().Add(port, object.RightsBasic)
	if st := s.ObjectWaitAsync(objHV, noWrite, 1, uint32(object.SignalUser0), 0); st != object.ErrAccessDenied {
		t.Fatalf("expected ErrAccessDenied without RightWrite on the port; got %v", st)
	}

	notAPort := proc.Handles().Add(ep0, object.RightsBasic|object.RightsIO)
	if st := s.ObjectWaitAsync(objHV, notAPort, 1, uint32(object.SignalUser0), 0); st != object.ErrWrongType {
		t.Fatalf("expected ErrWrongType for a non-port handle; got %v", st)
	}
}
