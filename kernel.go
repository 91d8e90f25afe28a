package preemptk

import "fmt"

// Kernel is the process-management nucleus. Like the teacher's CPU, it
// exposes one constructor and one caller-driven Step method; it never
// spawns a goroutine or takes a lock itself; a single goroutine calling
// Step in a loop is what gives the rest of the kernel its single-threaded
// semantics (SPEC_FULL.md §7).
type Kernel struct {
	cfg Config

	table []PCB // index 0 is always the idle PCB, PID 0

	ready [4]Queue // one FIFO per priority, 0 is highest
	sleep DeltaList

	devices [2]*devsw // DII device-switch table, indexed by minor

	switcher ContextSwitcher
	stacks   StackAllocator

	running    *PCB
	idle       *PCB
	nextPID    int
	userProcs  int // SPEC_FULL.md §6 item 4: distinct counter, never touched at boot
	ticks      uint64
	timeSlice  int
	sliceLeft  int
}

// New constructs a Kernel from cfg, a ContextSwitcher and a StackAllocator.
// It does not start any process; call Boot to install the idle process and
// the first user process.
func New(cfg Config, switcher ContextSwitcher, stacks StackAllocator) *Kernel {
	k := &Kernel{
		cfg:       cfg,
		table:     make([]PCB, cfg.TableSize),
		switcher:  switcher,
		stacks:    stacks,
		timeSlice: cfg.TimeSliceMS,
	}
	for i := range k.table {
		k.table[i] = *newPCB(i)
	}
	return k
}

// Boot installs the idle process (PID 0, never enqueued on a ready queue,
// selected only when every ready queue is empty) and returns the PCB for
// the first user process, created from entry exactly as Create does.
func (k *Kernel) Boot(entry func(*UserContext), stackSize int) (*PCB, error) {
	idle := &k.table[0]
	idle.PID = 0
	idle.State = StateReady
	idle.Priority = 3
	k.idle = idle
	k.running = idle

	init, err := k.Create(entry, stackSize, 1)
	if err != nil {
		return nil, err
	}
	return init, nil
}

// Halted reports whether every slot but the idle process is unused, the
// kernel's equivalent of the teacher's CPU.Halted — useful for demo/test
// code to know when a scenario has run to completion.
func (k *Kernel) Halted() bool {
	return k.userProcs == 0
}

// Step advances the clock by one tick and runs whichever process the
// dispatcher currently favors for exactly one trap round: a syscall is
// serviced synchronously (the teacher's CPU.Step executes exactly one
// instruction per call; a syscall is this kernel's unit of execution in
// the same sense, since nothing shorter than "the next trap" is visible
// to a goroutine-backed process without real hardware preemption — see
// DESIGN.md's resolution of the preemption-granularity open question). A
// process keeps k.running across ticks, without re-entering the ready
// queue, until it blocks, exits, calls yield, or exhausts its time slice,
// which is what gives round-robin its "slice", not "one syscall", unit.
// Step returns the PID that will run next, or 0 if the idle process is next.
func (k *Kernel) Step() int {
	k.ticks++

	for _, p := range k.sleep.Tick() {
		k.wake(p, 0)
	}

	if k.running == nil || k.running == k.idle {
		k.running = k.pickNext()
	}

	p := k.running
	if p == k.idle {
		return 0
	}

	sigctx := k.handlePendingSignals(p)
	if p.State == StateUnused {
		k.running = k.pickNext()
		return k.nextPIDOrZero()
	}

	res := SyscallResult{Code: p.msgResult, Bytes: p.msgBuf}
	p.msgBuf = nil
	tf := k.switcher.Resume(p.PID, res, sigctx)
	k.handleTrap(p, tf)

	switch {
	case p.State == StateUnused, p.State == StateBlocked:
		k.running = nil
	case p.State == StateReady:
		// already re-enqueued during the trap (sleep(0) yields via k.yield)
		k.running = nil
	case p.yieldRequested:
		p.yieldRequested = false
		k.yield(p)
		k.running = nil
	default:
		k.sliceLeft--
		if k.sliceLeft <= 0 {
			k.yield(p)
			k.running = nil
		}
	}

	if k.running == nil {
		k.running = k.pickNext()
	}
	return k.nextPIDOrZero()
}

func (k *Kernel) nextPIDOrZero() int {
	if k.running == nil || k.running == k.idle {
		return 0
	}
	return k.running.PID
}

// handleTrap dispatches a single trap from a process back to the kernel:
// either a syscall to service, or an exit to clean up after.
func (k *Kernel) handleTrap(p *PCB, tf Trapframe) {
	switch tf.Kind {
	case ReqExited:
		k.doExit(p)
	case ReqSyscall:
		k.dispatchSyscall(p, tf)
	default:
		panic(fmt.Sprintf("preemptk: unknown trap kind %d from pid %d", tf.Kind, p.PID))
	}
}

func (k *Kernel) findPCB(pid int) *PCB {
	if pid == 0 {
		return k.idle
	}
	for i := range k.table {
		if k.table[i].PID == pid && k.table[i].State != StateUnused {
			return &k.table[i]
		}
	}
	return nil
}
