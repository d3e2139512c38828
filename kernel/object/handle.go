package object

import "sync"

// HandleValue is the numeric capability value user code passes to syscalls.
// Zero is never a valid handle.
type HandleValue uint32

// InvalidHandle is the reserved always-invalid handle value.
const InvalidHandle HandleValue = 0

// Handle is a process-local capability pairing an object reference with the
// rights the holder may exercise on it.
type Handle struct {
	Object KernelObject
	Rights Rights
}

// HandleTable maps handle values to handles for one process. Every
// privileged operation resolves its handle through GetWithRights, making the
// rights check uniform across the syscall surface.
type HandleTable struct {
	mu      sync.Mutex
	next    HandleValue
	handles map[HandleValue]Handle
}

// Add mints a handle for obj carrying the given rights and returns its
// value.
func (t *HandleTable) Add(obj KernelObject, rights Rights) HandleValue {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.handles == nil {
		t.handles = make(map[HandleValue]Handle)
	}

	t.next++
	hv := t.next
	t.handles[hv] = Handle{Object: obj, Rights: rights}
	return hv
}

// Remove deletes the handle, returning ErrBadHandle if it does not exist.
// The object outlives the handle for as long as other references remain.
func (t *HandleTable) Remove(hv HandleValue) Status {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.handles[hv]; !ok {
		return ErrBadHandle
	}
	delete(t.handles, hv)
	return StatusOK
}

// Get resolves a handle value without a rights check.
func (t *HandleTable) Get(hv HandleValue) (Handle, Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.handles[hv]
	if !ok {
		return Handle{}, ErrBadHandle
	}
	return h, StatusOK
}

// GetWithRights resolves a handle value and verifies the handle carries all
// the required rights. A missing handle yields ErrBadHandle; a live handle
// lacking a right yields ErrAccessDenied, never a crash.
func (t *HandleTable) GetWithRights(hv HandleValue, required Rights) (KernelObject, Status) {
	h, st := t.Get(hv)
	if st != StatusOK {
		return nil, st
	}

	if !h.Rights.Has(required) {
		return nil, ErrAccessDenied
	}
	return h.Object, StatusOK
}

// Count returns the number of live handles in the table.
func (t *HandleTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.handles)
}
