package preemptk

// Stack is an owned region of the process's stack, obtained from a
// StackAllocator. The kernel never reads or writes through it directly —
// it is handed back to the ContextSwitcher at create time and released at
// cleanup — matching spec.md's treatment of stack/memory management as an
// external collaborator.
type Stack struct {
	Base uintptr
	Size int
}

// StackAllocator is the out-of-scope physical memory allocator, consumed
// here the same way the teacher's CPU consumes a Bus: as a narrow
// interface with no concrete implementation in the production package.
// internal/simhw provides the reference implementation used by tests and
// the demo CLI.
type StackAllocator interface {
	Allocate(size int) (Stack, error)
	Free(s Stack)
}

// RequestKind identifies why a process's goroutine handed control back to
// the kernel at its last trap.
type RequestKind int

const (
	ReqNone RequestKind = iota
	ReqSyscall
	ReqExited
)

// Trapframe is what a process goroutine hands the kernel when it traps in:
// the Go analogue of the teacher's register-based trap frame, generalized
// away from any particular CPU's calling convention. Rather than packing
// arguments into fixed-width registers (meaningless once there's no real
// address space to point them at), a Trapframe carries the one typed
// SyscallRequest the trapping call actually needs — the typed-entry-point
// resolution of spec.md §9's variadic-ABI note, taken all the way down to
// the trap boundary itself.
type Trapframe struct {
	Kind   RequestKind
	Req    SyscallRequest
	Result int32
}

// ContextSwitcher is the out-of-scope context-switch primitive. The
// dispatcher calls Resume to run a process until it traps back in (via a
// syscall or by exiting), and Start to give a freshly created process its
// entry point and stack. Both calls block the caller until the process
// itself yields control, which is exactly the contract spec.md's
// "external context-switch collaborator" is documented to provide.
type ContextSwitcher interface {
	// Start begins running entry on the given stack as pid's initial
	// register frame, returning only once the process's first trap
	// arrives.
	Start(pid int, stack Stack, entry func(*UserContext)) Trapframe

	// Resume continues a previously-started process, handing back the
	// result of whatever syscall it last trapped in on (and, for recv and
	// read, the bytes that rendezvous produced) and optionally delivering
	// a signal context first (nil if none is pending). It returns once
	// the process traps back in again.
	Resume(pid int, result SyscallResult, sig *SignalContext) Trapframe

	// Destroy releases any goroutine/channel state associated with pid.
	// Called once during cleanup, after the process has reported
	// ReqExited.
	Destroy(pid int)
}
