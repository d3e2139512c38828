package object

import "sync"

// VMAR is a virtual memory address region. The mapping machinery lives in
// the VM subsystem; the capability layer only needs the region extents and
// the vDSO code location used by the process properties.
type VMAR struct {
	Base

	mu       sync.Mutex
	baseAddr uintptr
	size     uintptr
	vdsoBase uintptr
}

// NewVMAR returns a region covering [base, base+size).
func NewVMAR(base, size uintptr) *VMAR {
	return &VMAR{Base: NewBase(TypeVMAR, ""), baseAddr: base, size: size}
}

// VDSOBase returns the vDSO code base, or 0 if the vDSO has not been mapped
// into this region yet.
func (v *VMAR) VDSOBase() uintptr {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.vdsoBase
}

// SetVDSOBase records where the vDSO code was mapped.
func (v *VMAR) SetVDSOBase(addr uintptr) {
	v.mu.Lock()
	v.vdsoBase = addr
	v.mu.Unlock()
}

// Info returns the VMAR info payload served by the get-info topic.
func (v *VMAR) Info() VMARInfo {
	v.mu.Lock()
	defer v.mu.Unlock()
	return VMARInfo{Base: v.baseAddr, Len: v.size}
}

// Process is a task object owning a handle table and a root address region.
// Only the properties the object syscalls touch are modeled here; execution
// state belongs to the task subsystem.
type Process struct {
	Base

	handles HandleTable

	mu          sync.Mutex
	rootVMAR    *VMAR
	debugAddr   uintptr
	breakOnLoad uintptr
	started     bool
	exited      bool
	retCode     int64
}

// NewProcess returns a process with an empty handle table and the given
// root address region.
func NewProcess(name string, rootVMAR *VMAR) *Process {
	return &Process{Base: NewBase(TypeProcess, name), rootVMAR: rootVMAR}
}

// Handles exposes the process handle table; the syscall layer resolves
// every capability through it.
func (p *Process) Handles() *HandleTable { return &p.handles }

// VMAR returns the process root address region.
func (p *Process) VMAR() *VMAR {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rootVMAR
}

// DebugAddr returns the dynamic linker debug address.
func (p *Process) DebugAddr() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.debugAddr
}

// SetDebugAddr records the dynamic linker debug address.
func (p *Process) SetDebugAddr(addr uintptr) {
	p.mu.Lock()
	p.debugAddr = addr
	p.mu.Unlock()
}

// BreakOnLoad returns the dynamic linker break-on-load address.
func (p *Process) BreakOnLoad() uintptr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.breakOnLoad
}

// SetBreakOnLoad records the dynamic linker break-on-load address.
func (p *Process) SetBreakOnLoad(addr uintptr) {
	p.mu.Lock()
	p.breakOnLoad = addr
	p.mu.Unlock()
}

// Info returns the process info payload served by the get-info topic.
func (p *Process) Info() ProcessInfo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ProcessInfo{ReturnCode: p.retCode, Started: p.started, Exited: p.exited}
}

// HandleBasicInfo resolves hv in this process and returns the handle-basic
// info payload.
func (p *Process) HandleBasicInfo(hv HandleValue) (HandleBasicInfo, Status) {
	h, st := p.handles.Get(hv)
	if st != StatusOK {
		return HandleBasicInfo{}, st
	}

	return HandleBasicInfo{
		Koid:   h.Object.ID(),
		Rights: h.Rights,
		Type:   h.Object.Type(),
	}, StatusOK
}

// Thread is a task object representing one execution context inside a
// process.
type Thread struct {
	Base
	proc *Process
}

// NewThread returns a thread owned by proc.
func NewThread(proc *Process, name string) *Thread {
	return &Thread{Base: NewBase(TypeThread, name), proc: proc}
}

// Process returns the owning process.
func (t *Thread) Process() *Process { return t.proc }

// HandleBasicInfo is the payload of the handle-basic info topic.
type HandleBasicInfo struct {
	Koid   uint64
	Rights Rights
	Type   Type
}

// ProcessInfo is the payload of the process info topic.
type ProcessInfo struct {
	ReturnCode int64
	Started    bool
	Exited     bool
}

// VMARInfo is the payload of the VMAR info topic.
type VMARInfo struct {
	Base uintptr
	Len  uintptr
}
