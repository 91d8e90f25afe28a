package preemptk

import "math"

// maxPID bounds PID growth before the reuse policy wraps back to the
// slot's base value, per spec.md §3's PID policy: pid = old_pid + N on
// each reuse of a table slot, wrapping to old_pid mod N (== the slot
// index, since that invariant holds for every PID ever issued from this
// slot) once the running value would overflow.
const maxPID = math.MaxInt32 / 2

// allocSlot finds a free table slot and assigns it the next PID in its
// reuse sequence.
func (k *Kernel) allocSlot() (*PCB, error) {
	n := len(k.table)
	for i := 1; i < n; i++ {
		p := &k.table[i]
		if p.State == StateUnused {
			if p.PID == 0 {
				p.PID = i
			} else {
				next := p.PID + n
				if next > maxPID {
					next = p.PID % n
					if next == 0 {
						next = i
					}
				}
				p.PID = next
			}
			return p, nil
		}
	}
	return nil, ErrTableFull
}

// Create allocates a PCB, a stack from the configured StackAllocator, and
// starts entry running on it at priority prio. It returns ErrTableFull if
// every slot is in use and ErrBadPriority if prio is out of range.
func (k *Kernel) Create(entry func(*UserContext), stackSize, prio int) (*PCB, error) {
	if prio < 0 || prio >= len(k.ready) {
		return nil, ErrBadPriority
	}
	p, err := k.allocSlot()
	if err != nil {
		return nil, err
	}
	stack, err := k.stacks.Allocate(stackSize)
	if err != nil {
		p.reset()
		return nil, wrapErr("allocate stack", err)
	}

	pid := p.PID
	slot := p.slot
	p.reset()
	p.PID = pid
	p.slot = slot
	p.Priority = prio
	p.Stack = stack
	p.State = StateRunning
	p.msgResult = 0

	k.userProcs++

	tf := k.switcher.Start(p.PID, stack, entry)
	k.handleFirstTrap(p, tf)
	// Only a process still running after its first trap goes on the ready
	// queue; one that blocked, exited or already yielded is not enqueued here.
	if p.State == StateRunning {
		k.enqueueReady(p)
	}

	logEvent("create", map[string]interface{}{"pid": p.PID, "priority": prio})
	return p, nil
}

// handleFirstTrap exists separately from the main Step loop because a
// freshly-started process may trap back in immediately (e.g. a process
// that exits without ever yielding); Create must still observe that trap.
func (k *Kernel) handleFirstTrap(p *PCB, tf Trapframe) {
	if tf.Kind == ReqNone {
		return
	}
	k.handleTrap(p, tf)
}

// doExit tears down p: closes every open fd, releases its stack, and wakes
// anyone blocked sending or receiving from it with the ErrTargetDied
// contract (syscall result -1, spec.md §6). It does not take p off a ready
// queue or the sleep list; Stop does that before calling doExit.
func (k *Kernel) doExit(p *PCB) {
	for i := range p.fds {
		if p.fds[i].Open {
			k.closeFd(p, i)
		}
	}
	k.wakeWaitersOnDeath(p)
	k.stacks.Free(p.Stack)
	k.switcher.Destroy(p.PID)
	k.userProcs--
	p.exited = true
	p.State = StateUnused
	logEvent("exit", map[string]interface{}{"pid": p.PID})
}

// Stop forcibly terminates the process identified by pid, the syscall
// surface's stop(). It is distinguished from a process's own voluntary
// exit only by who calls doExit; the bookkeeping is identical, which is
// what fixes the user_proc_count double-decrement bug spec.md §9 flags:
// there is exactly one decrement site (doExit), never touched again here.
func (k *Kernel) Stop(target *PCB) error {
	if target == nil || target.State == StateUnused {
		return ErrNoSuchTarget
	}
	if target.State == StateReady {
		k.ready[target.Priority].Remove(target)
	} else if target.State == StateBlocked && target.Block == BlockSleep {
		k.sleep.Remove(target)
	}
	k.doExit(target)
	return nil
}

// SetPriority changes p's scheduling priority and returns the priority it
// held beforehand. If p is currently on a ready queue it is moved to the
// new queue's tail. A prio of -1 queries the current priority without
// changing anything, per spec.md §6's setprio(-1) round-trip contract.
func (k *Kernel) SetPriority(p *PCB, prio int) (int, error) {
	if prio == -1 {
		return p.Priority, nil
	}
	if prio < 0 || prio >= len(k.ready) {
		return 0, ErrBadPriority
	}
	old := p.Priority
	if p.State == StateReady {
		k.ready[p.Priority].Remove(p)
		p.Priority = prio
		k.ready[prio].PushBack(p)
		return old, nil
	}
	p.Priority = prio
	return old, nil
}

// CPUTimes reports ticks consumed, keyed by PID, as of the current Step.
// getcputimes (spec.md §6) copies this into a caller-supplied table; the
// typed entry point here returns a map and lets syscall.go marshal it into
// whatever fixed-size table the caller's UserContext exposes.
func (k *Kernel) CPUTimes() map[int]uint64 {
	out := make(map[int]uint64, k.userProcs+1)
	for i := range k.table {
		if k.table[i].State != StateUnused {
			out[k.table[i].PID] = k.ticks
		}
	}
	return out
}
