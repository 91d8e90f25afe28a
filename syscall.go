package preemptk

// Syscall numbers. Each has exactly one typed UserContext method below —
// there is no shared variadic entry point, the fix SPEC_FULL.md §6 calls
// for in place of the original ABI.
const (
	SysCreate = iota
	SysYield
	SysStop
	SysGetPID
	SysSetPrio
	SysPuts
	SysGetCPUTimes
	SysSend
	SysRecv
	SysRecvAny
	SysSleep
	SysSigHandler
	SysKill
	SysSigReturn
	SysOpen
	SysClose
	SysRead
	SysWrite
	SysIoctl
)

// SyscallRequest is the single typed payload a Trapframe carries. Only the
// fields relevant to Syscall are meaningful for any given request; this is
// the same "typed per-operation struct instead of a grab-bag of untyped
// arguments" shape IoctlArg uses for ioctl specifically, applied to the
// whole syscall surface.
type SyscallRequest struct {
	Syscall int

	Entry     func(*UserContext)
	StackSize int
	Priority  int

	TargetPID int
	Bytes     []byte
	BufLen    int

	Minor int
	Fd    int

	Signal  int
	Handler HandlerFunc

	Ms int

	Ioctl IoctlArg

	Text string
}

// SyscallResult is what the kernel hands back across the trap boundary.
type SyscallResult struct {
	Code  int32
	Bytes []byte
	PID   int
}

// UserContext is the only way process code reaches the kernel. doTrap is
// supplied by the active ContextSwitcher (internal/simhw's implementation
// closes over the process's own trap/resume channel pair), so user code
// never touches *Kernel directly — exactly as the teacher's instruction
// handlers only ever touch *CPU through its exported methods, never the
// Bus implementation underneath it.
type UserContext struct {
	PID    int
	doTrap func(SyscallRequest) SyscallResult
}

// NewUserContext is called by a ContextSwitcher implementation to build
// the handle passed to a process's entry function.
func NewUserContext(pid int, doTrap func(SyscallRequest) SyscallResult) *UserContext {
	return &UserContext{PID: pid, doTrap: doTrap}
}

func (u *UserContext) GetPID() int { return u.PID }

func (u *UserContext) Create(entry func(*UserContext), stackSize, prio int) (int, int32) {
	r := u.doTrap(SyscallRequest{Syscall: SysCreate, Entry: entry, StackSize: stackSize, Priority: prio})
	return int(r.Code), r.Code
}

func (u *UserContext) Yield() { u.doTrap(SyscallRequest{Syscall: SysYield}) }

func (u *UserContext) Stop(target int) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysStop, TargetPID: target}).Code
}

func (u *UserContext) SetPriority(prio int) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysSetPrio, Priority: prio}).Code
}

func (u *UserContext) Puts(s string) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysPuts, Text: s}).Code
}

func (u *UserContext) GetCPUTimes() map[int]uint64 {
	r := u.doTrap(SyscallRequest{Syscall: SysGetCPUTimes})
	out := make(map[int]uint64, len(r.Bytes)/12)
	decodeCPUTimes(r.Bytes, out)
	return out
}

// Send performs a blocking rendezvous send, returning one of the IPC
// result/error codes defined in ipc.go.
func (u *UserContext) Send(target int, msg []byte) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysSend, TargetPID: target, Bytes: msg}).Code
}

// Recv performs a blocking rendezvous receive restricted to fromPID.
func (u *UserContext) Recv(fromPID int, buf []byte) (int32, []byte) {
	r := u.doTrap(SyscallRequest{Syscall: SysRecv, TargetPID: fromPID, BufLen: len(buf)})
	n := copy(buf, r.Bytes)
	return r.Code, buf[:n]
}

// RecvAny performs a blocking rendezvous receive from any sender.
func (u *UserContext) RecvAny(buf []byte) (int32, []byte) {
	r := u.doTrap(SyscallRequest{Syscall: SysRecvAny, BufLen: len(buf)})
	n := copy(buf, r.Bytes)
	return r.Code, buf[:n]
}

func (u *UserContext) Sleep(ms int) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysSleep, Ms: ms}).Code
}

func (u *UserContext) SigHandler(sig int, h HandlerFunc) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysSigHandler, Signal: sig, Handler: h}).Code
}

func (u *UserContext) Kill(target, sig int) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysKill, TargetPID: target, Signal: sig}).Code
}

func (u *UserContext) SigReturn() int32 {
	return u.doTrap(SyscallRequest{Syscall: SysSigReturn}).Code
}

func (u *UserContext) Open(minor int) (int, int32) {
	r := u.doTrap(SyscallRequest{Syscall: SysOpen, Minor: minor})
	return int(r.Code), r.Code
}

func (u *UserContext) Close(fd int) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysClose, Fd: fd}).Code
}

func (u *UserContext) Read(fd int, buf []byte) (int32, []byte) {
	r := u.doTrap(SyscallRequest{Syscall: SysRead, Fd: fd, BufLen: len(buf)})
	n := copy(buf, r.Bytes)
	return r.Code, buf[:n]
}

// Write always takes (fd, buf, buflen) — SPEC_FULL.md §6 item 1 — there is
// no implicit single-fd console to default to.
func (u *UserContext) Write(fd int, buf []byte) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysWrite, Fd: fd, Bytes: buf}).Code
}

func (u *UserContext) Ioctl(fd int, arg IoctlArg) int32 {
	return u.doTrap(SyscallRequest{Syscall: SysIoctl, Fd: fd, Ioctl: arg}).Code
}

// dispatchSyscall services one trapped-in syscall for p. It is the sole
// caller of every exported Kernel method that mutates scheduling state in
// response to user code, matching the teacher's pattern of routing every
// opcode through exactly one decode table (decode.go's opcodeTable) before
// any handler runs.
func (k *Kernel) dispatchSyscall(p *PCB, tf Trapframe) {
	req := tf.Req
	var result int32

	switch req.Syscall {
	case SysCreate:
		child, err := k.Create(req.Entry, req.StackSize, req.Priority)
		if err != nil {
			result = errToCode(err)
		} else {
			result = int32(child.PID)
		}

	case SysYield:
		p.yieldRequested = true
		result = 0

	case SysStop:
		target := k.findPCB(req.TargetPID)
		if err := k.Stop(target); err != nil {
			result = errToCode(err)
		}
		if target == p {
			return // p no longer exists, nothing to complete
		}

	case SysGetPID:
		result = int32(p.PID)

	case SysSetPrio:
		old, err := k.SetPriority(p, req.Priority)
		if err != nil {
			result = errToCode(err)
		} else {
			result = int32(old)
		}

	case SysPuts:
		logEvent("puts", map[string]interface{}{"pid": p.PID, "text": req.Text})

	case SysGetCPUTimes:
		p.msgBuf = encodeCPUTimes(k.CPUTimes())

	case SysSend:
		result = k.Send(p, req.TargetPID, req.Bytes)
	case SysRecv:
		buf := make([]byte, req.BufLen)
		result = k.Recv(p, req.TargetPID, buf)
		if p.State == StateBlocked {
			return
		}
		p.msgBuf = buf[:max0(int(result))]
	case SysRecvAny:
		buf := make([]byte, req.BufLen)
		result = k.Recv(p, 0, buf)
		if p.State == StateBlocked {
			return
		}
		p.msgBuf = buf[:max0(int(result))]

	case SysSleep:
		k.Sleep(p, req.Ms)
		if p.State == StateBlocked {
			return
		}

	case SysSigHandler:
		if err := k.SetHandler(p, req.Signal, req.Handler); err != nil {
			result = errToCode(err)
		}
	case SysKill:
		target := k.findPCB(req.TargetPID)
		if err := k.Kill(target, req.Signal); err != nil {
			result = killErrToCode(err)
		}
	case SysSigReturn:
		r, err := k.SigReturn(p)
		if err != nil {
			result = errToCode(err)
		} else {
			result = r
		}

	case SysOpen:
		fd, err := k.Open(p, req.Minor)
		if err != nil {
			result = errToCode(err)
		} else {
			result = int32(fd)
		}
	case SysClose:
		if err := k.Close(p, req.Fd); err != nil {
			result = errToCode(err)
		}
	case SysRead:
		buf := make([]byte, req.BufLen)
		n := k.Read(p, req.Fd, buf)
		if p.State == StateBlocked {
			return
		}
		result = int32(n)
		p.msgBuf = buf[:max0(n)]
	case SysWrite:
		result = int32(k.Write(p, req.Fd, req.Bytes))
	case SysIoctl:
		result = int32(k.Ioctl(p, req.Fd, req.Ioctl))
	}

	if p.State != StateBlocked {
		k.completeSyscall(p, result)
	}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// killErrToCode maps syskill's validation failures to its own numeric
// contract (spec.md §4.5/§6), distinct from every other syscall's sentinel
// mapping: target does not exist -> -514, bad signal number -> -583.
func killErrToCode(err error) int32 {
	switch err {
	case ErrNoSuchTarget:
		return -514
	case ErrBadSignalNum:
		return -583
	default:
		return errToCode(err)
	}
}

// errToCode maps sentinel errors to the negative numeric contracts
// documented in SPEC_FULL.md §6/§8.
func errToCode(err error) int32 {
	switch err {
	case ErrTableFull:
		return -5
	case ErrBadPriority:
		return -6
	case ErrNoSuchTarget:
		return -2
	case ErrBadFd:
		return -4
	case ErrFdTableFull:
		return -7
	case ErrNoSuchMinor:
		return -8
	case ErrBadSignalNum:
		return -9
	case ErrNotInHandler:
		return -11
	default:
		return -100
	}
}
