package preemptk

// enqueueReady places p on its priority's ready queue and marks it ready.
// The idle PCB (PID 0) is never enqueued — pickNext falls back to it
// implicitly when every real queue is empty, per spec.md's dispatcher
// design.
func (k *Kernel) enqueueReady(p *PCB) {
	if p.PID == 0 {
		return
	}
	p.State = StateReady
	p.Block = BlockNone
	k.ready[p.Priority].PushBack(p)
}

// pickNext selects the next PCB to run: the head of the highest-priority
// non-empty ready queue, round-robin within that priority, falling back to
// the idle process if every queue is empty.
func (k *Kernel) pickNext() *PCB {
	for prio := 0; prio < len(k.ready); prio++ {
		if !k.ready[prio].Empty() {
			p := k.ready[prio].PopFront()
			p.State = StateRunning
			k.sliceLeft = k.timeSlice
			return p
		}
	}
	k.idle.State = StateRunning
	return k.idle
}

// block removes p from scheduling until something calls wake(p, ...). It
// does not touch any queue membership — the caller (ipc.go, sleep.go,
// keyboard.go) is responsible for placing p on whatever wait structure is
// appropriate for reason.
func (k *Kernel) block(p *PCB, reason BlockReason) {
	p.State = StateBlocked
	p.Block = reason
	logEvent("block", map[string]interface{}{"pid": p.PID, "reason": reason.String()})
}

// wake makes p runnable again with the given syscall result pending for
// its next resume, re-enqueueing it on its priority's ready queue.
func (k *Kernel) wake(p *PCB, result int32) {
	p.msgResult = result
	p.Block = BlockNone
	k.enqueueReady(p)
	logEvent("wake", map[string]interface{}{"pid": p.PID, "result": result})
}

// yield voluntarily returns a running process to the back of its ready
// queue without changing its result code.
func (k *Kernel) yield(p *PCB) {
	k.enqueueReady(p)
}

// completeSyscall records the result of a synchronous syscall without
// touching queue membership — the calling process stays k.running and
// gets the rest of its time slice, the distinction between "made a
// syscall" and "yielded" that keeps round-robin's unit a whole quantum
// rather than a single trap.
func (k *Kernel) completeSyscall(p *PCB, result int32) {
	p.msgResult = result
}
