// Package simhw is the reference implementation of the kernel's two
// out-of-scope hardware collaborators: the context-switch primitive and
// the physical memory allocator. Neither is part of the production
// preemptk package (spec.md explicitly treats both as external
// collaborators); this package exists so the kernel can be driven end to
// end in tests and by cmd/preemptk without real hardware.
package simhw

import (
	"sync"

	"github.com/kernelsim/preemptk"
)

// resumeMsg is what Resume hands back to a blocked process goroutine: the
// syscall result it was waiting on, plus an optional signal to run first.
type resumeMsg struct {
	result preemptk.SyscallResult
	sig    *preemptk.SignalContext
}

type procChannels struct {
	trapCh   chan preemptk.Trapframe
	resumeCh chan resumeMsg
}

// GoroutineSwitcher implements preemptk.ContextSwitcher by giving each
// process its own goroutine and handing control back and forth over a
// pair of unbuffered channels. Because exactly one side of the pair is
// ever runnable at a time — the kernel's Step loop or the process
// goroutine, never both — this reproduces "only one flow of control runs
// at a time" without either side taking a lock.
//
// Preemption granularity: a process only traps back to the kernel when it
// calls a UserContext method (or returns, which traps as an exit). A Go
// goroutine executing a tight compute loop with no syscalls cannot be cut
// off mid-instruction without real hardware timer support, which is
// exactly the collaborator spec.md declares out of scope; entry functions
// written against this switcher are expected to make periodic syscalls
// the way any cooperative scheduler's test workloads do.
type GoroutineSwitcher struct {
	mu    sync.Mutex
	procs map[int]*procChannels
}

// NewGoroutineSwitcher returns a ready-to-use switcher.
func NewGoroutineSwitcher() *GoroutineSwitcher {
	return &GoroutineSwitcher{procs: make(map[int]*procChannels)}
}

func (s *GoroutineSwitcher) register(pid int) *procChannels {
	pc := &procChannels{
		trapCh:   make(chan preemptk.Trapframe),
		resumeCh: make(chan resumeMsg),
	}
	s.mu.Lock()
	s.procs[pid] = pc
	s.mu.Unlock()
	return pc
}

func (s *GoroutineSwitcher) lookup(pid int) *procChannels {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[pid]
}

// Start launches entry on a new goroutine and blocks until it traps in
// for the first time (via a syscall) or returns (an immediate exit).
func (s *GoroutineSwitcher) Start(pid int, stack preemptk.Stack, entry func(*preemptk.UserContext)) preemptk.Trapframe {
	pc := s.register(pid)

	go func() {
		doTrap := func(req preemptk.SyscallRequest) preemptk.SyscallResult {
			pc.trapCh <- preemptk.Trapframe{Kind: preemptk.ReqSyscall, Req: req}
			rm := <-pc.resumeCh
			if rm.sig != nil {
				rm.sig.Handler(rm.sig)
			}
			return rm.result
		}
		uc := preemptk.NewUserContext(pid, doTrap)
		entry(uc)
		pc.trapCh <- preemptk.Trapframe{Kind: preemptk.ReqExited}
	}()

	return <-pc.trapCh
}

// Resume delivers result (and, if non-nil, sig) to the process and blocks
// until its next trap.
func (s *GoroutineSwitcher) Resume(pid int, result preemptk.SyscallResult, sig *preemptk.SignalContext) preemptk.Trapframe {
	pc := s.lookup(pid)
	if pc == nil {
		return preemptk.Trapframe{Kind: preemptk.ReqExited}
	}
	pc.resumeCh <- resumeMsg{result: result, sig: sig}
	return <-pc.trapCh
}

// Destroy drops the channel pair for pid. The process goroutine has
// already returned (ReqExited was observed) by the time this is called.
func (s *GoroutineSwitcher) Destroy(pid int) {
	s.mu.Lock()
	delete(s.procs, pid)
	s.mu.Unlock()
}
