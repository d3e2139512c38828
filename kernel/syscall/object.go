// Package syscall implements the object syscall surface: rights-checked,
// handle-mediated operations on kernel objects. Every operation resolves its
// handle through the calling process's handle table, validates its inputs
// and returns a Status; no failure unwinds past this boundary.
//
// User-pointer marshalling happens in the outer syscall dispatcher; the
// operations here work on byte slices and Go values.
package syscall

import (
	"encoding/binary"
	"time"

	"github.com/yutiansut/zCore/kernel"
	"github.com/yutiansut/zCore/kernel/kfmt"
	"github.com/yutiansut/zCore/kernel/object"
)

// Object property identifiers. The values are part of the numeric syscall
// contract and must match the Zircon ABI.
const (
	PropName               uint32 = 3
	PropRegisterFS         uint32 = 4
	PropProcessDebugAddr   uint32 = 5
	PropProcessVDSOBase    uint32 = 6
	PropProcessBreakOnLoad uint32 = 7
)

// maxNameLen is the required buffer capacity for the name property,
// including the NUL terminator.
const maxNameLen = 32

// Registers is the subset of the caller's register state the object
// syscalls may touch.
type Registers struct {
	FSBase uint64
}

// Syscall carries the per-invocation context: the calling thread and its
// saved register state.
type Syscall struct {
	Thread *object.Thread
	Regs   *Registers
}

// ObjectGetProperty reads the named property of the object behind handle
// into buf. The handle must carry RightGetProperty.
func (s *Syscall) ObjectGetProperty(handle object.HandleValue, property uint32, buf []byte) object.Status {
	proc := s.Thread.Process()
	obj, st := proc.Handles().GetWithRights(handle, object.RightGetProperty)
	if st != object.StatusOK {
		return st
	}

	switch property {
	case PropName:
		if len(buf) < maxNameLen {
			return object.ErrBufferTooSmall
		}
		name := obj.Name()
		n := copy(buf, name)
		buf[n] = 0
		return object.StatusOK

	case PropProcessDebugAddr:
		target, st := s.processFor(obj)
		if st != object.StatusOK {
			return st
		}
		return putScalar(buf, uint64(target.DebugAddr()))

	case PropProcessVDSOBase:
		target, st := s.processFor(obj)
		if st != object.StatusOK {
			return st
		}
		// Unset vDSO base reads as 0 rather than failing.
		return putScalar(buf, uint64(target.VMAR().VDSOBase()))

	case PropProcessBreakOnLoad:
		target, st := s.processFor(obj)
		if st != object.StatusOK {
			return st
		}
		return putScalar(buf, uint64(target.BreakOnLoad()))

	default:
		kfmt.Printf("[syscall] unknown property %d in object_get_property\n", property)
		return object.ErrInvalidArgs
	}
}

// ObjectSetProperty writes the named property of the object behind handle
// from buf. The handle must carry RightSetProperty.
func (s *Syscall) ObjectSetProperty(handle object.HandleValue, property uint32, buf []byte) object.Status {
	proc := s.Thread.Process()
	obj, st := proc.Handles().GetWithRights(handle, object.RightSetProperty)
	if st != object.StatusOK {
		return st
	}

	switch property {
	case PropName:
		// Oversized names are silently truncated to maxNameLen-1 bytes
		// plus terminator, never rejected.
		obj.SetName(string(buf))
		return object.StatusOK

	case PropRegisterFS:
		fsbase, st := getScalar(buf)
		if st != object.StatusOK {
			return st
		}
		thread, ok := obj.(*object.Thread)
		if !ok {
			return object.ErrWrongType
		}
		// Mutating another thread's registers through this property
		// indicates a capability-model violation by a trusted caller,
		// not a runtime condition.
		kernel.Assert(thread == s.Thread, "syscall: register-fs set on a foreign thread")
		s.Regs.FSBase = fsbase
		return object.StatusOK

	case PropProcessDebugAddr:
		addr, st := getScalar(buf)
		if st != object.StatusOK {
			return st
		}
		target, st := s.processFor(obj)
		if st != object.StatusOK {
			return st
		}
		target.SetDebugAddr(uintptr(addr))
		return object.StatusOK

	case PropProcessBreakOnLoad:
		addr, st := getScalar(buf)
		if st != object.StatusOK {
			return st
		}
		target, st := s.processFor(obj)
		if st != object.StatusOK {
			return st
		}
		target.SetBreakOnLoad(uintptr(addr))
		return object.StatusOK

	default:
		kfmt.Printf("[syscall] unknown property %d in object_set_property\n", property)
		return object.ErrInvalidArgs
	}
}

// ObjectWaitOne suspends the calling context until the signal state of the
// object behind handle intersects the requested mask or the deadline
// elapses, then writes the observed state to *observed. A zero deadline
// waits forever. The handle must carry RightWait.
func (s *Syscall) ObjectWaitOne(handle object.HandleValue, signals uint32, deadline time.Time, observed *object.Signal) object.Status {
	mask, st := object.SignalFromBits(signals)
	if st != object.StatusOK {
		return st
	}

	obj, st := s.Thread.Process().Handles().GetWithRights(handle, object.RightWait)
	if st != object.StatusOK {
		return st
	}

	seen, st := obj.WaitSignal(mask, deadline)
	if st != object.StatusOK {
		return st
	}

	*observed = seen
	return object.StatusOK
}

// ObjectGetInfo returns the info payload for the given topic. Topics the
// kernel recognizes but does not serve fail with ErrNotSupported, as do
// unknown topic numbers, so callers can distinguish malformed calls
// (ErrInvalidArgs) from unimplemented ones.
func (s *Syscall) ObjectGetInfo(handle object.HandleValue, topic uint32) (interface{}, object.Status) {
	proc := s.Thread.Process()

	switch infoTopic(topic) {
	case topicHandleBasic:
		info, st := proc.HandleBasicInfo(handle)
		if st != object.StatusOK {
			return nil, st
		}
		return info, object.StatusOK

	case topicProcess:
		obj, st := proc.Handles().GetWithRights(handle, object.RightInspect)
		if st != object.StatusOK {
			return nil, st
		}
		target, ok := obj.(*object.Process)
		if !ok {
			return nil, object.ErrWrongType
		}
		return target.Info(), object.StatusOK

	case topicVMAR:
		obj, st := proc.Handles().GetWithRights(handle, object.RightInspect)
		if st != object.StatusOK {
			return nil, st
		}
		vmar, ok := obj.(*object.VMAR)
		if !ok {
			return nil, object.ErrWrongType
		}
		return vmar.Info(), object.StatusOK

	default:
		kfmt.Printf("[syscall] unsupported info topic %d\n", topic)
		return nil, object.ErrNotSupported
	}
}

// ObjectSignalPeer clears then sets user signal bits on the peer endpoint of
// the object behind handle. The handle must carry RightSignalPeer and both
// masks may only contain user signal bits.
func (s *Syscall) ObjectSignalPeer(handle object.HandleValue, clearMask, setMask uint32) object.Status {
	obj, st := s.Thread.Process().Handles().GetWithRights(handle, object.RightSignalPeer)
	if st != object.StatusOK {
		return st
	}

	clear, st := object.VerifyUserSignal(clearMask)
	if st != object.StatusOK {
		return st
	}
	set, st := object.VerifyUserSignal(setMask)
	if st != object.StatusOK {
		return st
	}

	peered, ok := obj.(object.Peered)
	if !ok {
		return object.ErrNotSupported
	}
	return peered.UserSignalPeer(clear, set)
}

// ObjectWaitAsync registers a one-shot asynchronous wait: when the signal
// state of the object behind handle intersects the mask, a packet tagged
// with key is enqueued on the port behind portHandle. It never suspends the
// caller. Non-default options are rejected rather than silently ignored,
// since ignoring an unknown option would change wire behavior for callers
// of a compatible system.
func (s *Syscall) ObjectWaitAsync(handle, portHandle object.HandleValue, key uint64, signals uint32, options uint32) object.Status {
	mask, st := object.SignalFromBits(signals)
	if st != object.StatusOK {
		return st
	}

	if options != 0 {
		return object.ErrNotSupported
	}

	proc := s.Thread.Process()
	obj, st := proc.Handles().GetWithRights(handle, object.RightWait)
	if st != object.StatusOK {
		return st
	}

	portObj, st := proc.Handles().GetWithRights(portHandle, object.RightWrite)
	if st != object.StatusOK {
		return st
	}
	port, ok := portObj.(*object.Port)
	if !ok {
		return object.ErrWrongType
	}

	obj.RegisterPortWait(port, key, mask)
	return object.StatusOK
}

// processFor narrows a property target to a process object.
func (s *Syscall) processFor(obj object.KernelObject) (*object.Process, object.Status) {
	target, ok := obj.(*object.Process)
	if !ok {
		return nil, object.ErrWrongType
	}
	return target, object.StatusOK
}

// putScalar writes an 8-byte native-endian scalar property value.
func putScalar(buf []byte, v uint64) object.Status {
	if len(buf) < 8 {
		return object.ErrBufferTooSmall
	}
	binary.NativeEndian.PutUint64(buf, v)
	return object.StatusOK
}

// getScalar reads an 8-byte native-endian scalar property value.
func getScalar(buf []byte) (uint64, object.Status) {
	if len(buf) < 8 {
		return 0, object.ErrBufferTooSmall
	}
	return binary.NativeEndian.Uint64(buf), object.StatusOK
}
