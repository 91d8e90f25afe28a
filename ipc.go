package preemptk

// IPC result/error codes, exact per SPEC_FULL.md §8 / spec.md §6.
const (
	IPCTargetDied         int32 = -1
	IPCNoSuchTarget       int32 = -2
	IPCSelfTarget         int32 = -3
	IPCOnlyProcess        int32 = -10
	IPCSignalInterrupted  int32 = -666
)

// Send performs a blocking rendezvous send from sender to the process with
// the given pid. If a matching receiver is already waiting, the message is
// copied immediately and both processes become runnable; otherwise sender
// blocks until a Recv/RecvAny call claims it, the target dies (IPCTargetDied),
// or a signal interrupts the wait (IPCSignalInterrupted).
func (k *Kernel) Send(sender *PCB, targetPID int, msg []byte) int32 {
	if targetPID == sender.PID {
		return IPCSelfTarget
	}
	target := k.findPCB(targetPID)
	if target == nil {
		return IPCNoSuchTarget
	}

	if target.State == StateBlocked && target.Block == BlockRecv || target.State == StateBlocked && target.Block == BlockRecvAny {
		if target.pendingFrom == 0 || target.pendingFrom == sender.PID {
			n := copy(target.msgBuf, msg)
			target.msgBuf = target.msgBuf[:n]
			k.wake(target, int32(n))
			return 0
		}
	}

	sender.pendingFrom = targetPID
	sender.msgBuf = msg
	k.block(sender, BlockSend)
	return 0 // overwritten once a Recv rendezvous completes; see wake callers
}

// Recv performs a blocking rendezvous receive into buf, accepting only
// messages from fromPID, or from any sender if fromPID is 0 (recv_any).
// recv_any additionally enforces the OnlyProcess invariant: a process that
// is the sole live user process may not block forever waiting on a
// rendezvous that nothing else can ever complete.
func (k *Kernel) Recv(receiver *PCB, fromPID int, buf []byte) int32 {
	if fromPID == receiver.PID {
		return IPCSelfTarget
	}
	if fromPID == 0 && k.userProcs <= 1 {
		return IPCOnlyProcess
	}
	if fromPID != 0 {
		target := k.findPCB(fromPID)
		if target == nil {
			return IPCNoSuchTarget
		}
		if target.State == StateBlocked && target.Block == BlockSend && target.pendingFrom == receiver.PID {
			n := copy(buf, target.msgBuf)
			k.wake(target, 0)
			return int32(n)
		}
	} else {
		for i := range k.table {
			cand := &k.table[i]
			if cand.State == StateBlocked && cand.Block == BlockSend && cand.pendingFrom == receiver.PID {
				n := copy(buf, cand.msgBuf)
				k.wake(cand, 0)
				return int32(n)
			}
		}
	}

	receiver.pendingFrom = fromPID
	receiver.msgBuf = buf
	k.block(receiver, pickRecvReason(fromPID))
	return 0
}

func pickRecvReason(fromPID int) BlockReason {
	if fromPID == 0 {
		return BlockRecvAny
	}
	return BlockRecv
}

// wakeWaitersOnDeath is called from doExit: any process blocked sending to
// or receiving from the dying PCB is released with IPCTargetDied.
func (k *Kernel) wakeWaitersOnDeath(dead *PCB) {
	for i := range k.table {
		p := &k.table[i]
		if p.State != StateBlocked || p == dead {
			continue
		}
		switch p.Block {
		case BlockSend:
			if p.pendingFrom == dead.PID {
				k.wake(p, IPCTargetDied)
			}
		case BlockRecv:
			if p.pendingFrom == dead.PID {
				k.wake(p, IPCTargetDied)
			}
		}
	}
}

// interruptForSignal releases a process blocked in send/recv/recv-any (or
// a device read) early with IPCSignalInterrupted, used by Kill when a
// signal with an installed handler must preempt a blocking call in progress (spec.md §4.3's "may-interrupt-lower" rule). A
// process blocked asleep instead resumes with its remaining delay in
// milliseconds (spec.md §4.5/§6): sleep is not an IPC rendezvous that can
// fail, so an interrupted sleep reports how much longer it had to go
// rather than an error code.
func (k *Kernel) interruptForSignal(p *PCB) {
	switch p.Block {
	case BlockSend, BlockRecv, BlockRecvAny, BlockRead:
		k.wake(p, IPCSignalInterrupted)
	case BlockSleep:
		ticksLeft := k.sleep.Remove(p)
		k.wake(p, int32(ticksLeft*k.timeSlice))
	}
}
