package preemptk

// State is the lifecycle state of a process control block.
type State int

const (
	StateUnused State = iota
	StateReady
	StateRunning
	StateBlocked
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUnused:
		return "unused"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateBlocked:
		return "blocked"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// BlockReason records why a PCB left the ready/running state, the
// kernel's equivalent of the teacher's Size type: a small enum with a
// String method, used purely for diagnostics (logEvent fields) and for
// the dispatcher to know how to wake a process back up.
type BlockReason int

const (
	BlockNone BlockReason = iota
	BlockSend
	BlockRecv
	BlockRecvAny
	BlockSleep
	BlockRead
	BlockSignalWait
)

func (r BlockReason) String() string {
	switch r {
	case BlockNone:
		return "none"
	case BlockSend:
		return "send"
	case BlockRecv:
		return "recv"
	case BlockRecvAny:
		return "recv-any"
	case BlockSleep:
		return "sleep"
	case BlockRead:
		return "read"
	case BlockSignalWait:
		return "signal-wait"
	default:
		return "unknown"
	}
}

// FdEntry is one slot of a process's file descriptor table.
type FdEntry struct {
	Open  bool
	Minor int
}

// SignalFrame is the bookkeeping record pushed when a signal preempts a
// process, mirroring a signal trampoline frame: the handler to run, the saved last-delivered priority so sigreturn can
// restore it, and the syscall result the interrupted call would have
// returned had it not been interrupted.
type SignalFrame struct {
	Signal        int
	Handler       HandlerFunc
	SavedLastSig  int
	SavedResult   int32
}

// PCB is a process control block. Queue membership is intrusive: prev/next
// point directly at sibling PCBs, so removal from the ready queue or the
// sleep delta list is O(1) without a secondary index structure.
type PCB struct {
	PID      int
	slot     int // table index this PCB currently occupies
	State    State
	Priority int
	Block    BlockReason

	Stack Stack

	// IPC rendezvous fields.
	pendingFrom int // pid the blocked recv is restricted to, or 0 for recv-any
	msgBuf      []byte
	msgResult   int32

	// Sleep / delta-list fields.
	deltaKey int // ticks after predecessor, valid only while queued on the sleep list

	// Signal subsystem fields.
	pendingSignals  uint32 // bitmask, bit i set means signal i is pending
	handlers        [32]HandlerFunc
	lastSigDeliv    int // priority of the most recently delivered, not-yet-returned signal; -1 if none
	frames          []SignalFrame

	// DII fd table.
	fds [maxFdTable]FdEntry

	exited         bool
	yieldRequested bool

	// intrusive list links, reused by both the ready queues and the
	// sleep delta list; a PCB is never a member of more than one list.
	prev *PCB
	next *PCB
}

const maxFdTable = 4

// HandlerFunc is a user-space signal handler. SignalContext carries the
// state a trampoline frame would expose: which signal fired, the priority
// the handler is running at, and the handler to invoke.
type HandlerFunc func(ctx *SignalContext)

// SignalContext is passed to a HandlerFunc when the kernel delivers a
// signal to a process's own goroutine (see contextswitch.go).
type SignalContext struct {
	Signal   int
	Priority int
	Handler  HandlerFunc
}

func newPCB(slot int) *PCB {
	return &PCB{slot: slot, State: StateUnused, lastSigDeliv: -1}
}

func (p *PCB) reset() {
	pid := p.PID
	slot := p.slot
	*p = PCB{PID: pid, slot: slot, State: StateUnused, lastSigDeliv: -1}
}
