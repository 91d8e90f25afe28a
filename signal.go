package preemptk

// HardKillSignal is priority 31, the top of the 32-level signal space.
// Per SPEC_FULL.md §4 it always terminates the target; no handler can
// intercept it, matching the reset vector's role in the teacher's
// exception table — a level nothing else can mask.
const HardKillSignal = 31

const signalLevels = 32

// SetHandler installs h as the handler for sig on p, replacing any
// previous handler. A nil h clears the handler (future deliveries of sig
// are silently dropped, except HardKillSignal which cannot be cleared).
func (k *Kernel) SetHandler(p *PCB, sig int, h HandlerFunc) error {
	if sig < 0 || sig >= signalLevels {
		return ErrBadSignalNum
	}
	p.handlers[sig] = h
	return nil
}

// maySignalInterrupt implements spec.md §4.3's delivery rule: a signal may
// interrupt (or be delivered ahead of) whatever the process is currently
// doing only if it is strictly more urgent than the highest-priority
// handler currently on the process's signal stack. Equal or lower
// priority signals must wait for sigreturn to unwind past that frame.
func maySignalInterrupt(p *PCB, sig int) bool {
	return sig == HardKillSignal || sig > p.lastSigDeliv
}

// Kill raises sig against target. If target is blocked, the signal may
// interrupt it immediately, and target has a handler installed for sig (or
// sig is HardKillSignal, which has no handler to check), it is pulled off
// whatever it was waiting on and woken early; delivery of the handler
// itself happens uniformly in handlePendingSignals the next time target is
// about to run, so the bookkeeping for "was this a fresh deliver or an
// interrupt" lives in exactly one place. A signal with a null handler is
// silently ignored and never unblocks anything (spec.md §4.5).
func (k *Kernel) Kill(target *PCB, sig int) error {
	if sig < 0 || sig >= signalLevels {
		return ErrBadSignalNum
	}
	if target == nil || target.State == StateUnused {
		return ErrNoSuchTarget
	}
	target.pendingSignals |= 1 << uint(sig)
	logEvent("kill", map[string]interface{}{"pid": target.PID, "signal": sig})

	hasHandler := sig == HardKillSignal || target.handlers[sig] != nil
	if target.State == StateBlocked && hasHandler && maySignalInterrupt(target, sig) {
		k.interruptForSignal(target)
	}
	return nil
}

// handlePendingSignals is called once per Step, immediately before
// resuming the process chosen to run, exactly where the teacher's
// checkInterrupt runs immediately before CPU.Step executes an instruction.
// It returns the SignalContext to hand to ContextSwitcher.Resume, or nil
// if nothing is deliverable right now.
func (k *Kernel) handlePendingSignals(p *PCB) *SignalContext {
	if p.pendingSignals == 0 {
		return nil
	}
	sig := highestPendingSignal(p.pendingSignals)
	if sig < 0 {
		return nil
	}
	if !maySignalInterrupt(p, sig) {
		return nil
	}
	p.pendingSignals &^= 1 << uint(sig)

	if sig == HardKillSignal {
		logEvent("hard-kill", map[string]interface{}{"pid": p.PID})
		k.doExit(p)
		return nil
	}

	handler := p.handlers[sig]
	if handler == nil {
		return nil
	}

	p.frames = append(p.frames, SignalFrame{
		Signal:       sig,
		Handler:      handler,
		SavedLastSig: p.lastSigDeliv,
		SavedResult:  p.msgResult,
	})
	p.lastSigDeliv = sig
	logEvent("deliver-signal", map[string]interface{}{"pid": p.PID, "signal": sig})
	return &SignalContext{Signal: sig, Priority: sig, Handler: handler}
}

// highestPendingSignal returns the index of the highest set bit in mask,
// or -1 if mask is zero. 31 is the most urgent level.
func highestPendingSignal(mask uint32) int {
	for i := signalLevels - 1; i >= 0; i-- {
		if mask&(1<<uint(i)) != 0 {
			return i
		}
	}
	return -1
}

// SigReturn unwinds the most recently delivered signal frame, restoring
// the priority level and syscall result that was in effect before that
// signal was delivered. It is itself a trap into the kernel, just like
// any other syscall (spec.md §9): the handler's final act is to call
// sigreturn rather than returning normally through the trampoline.
func (k *Kernel) SigReturn(p *PCB) (int32, error) {
	n := len(p.frames)
	if n == 0 {
		return 0, ErrNotInHandler
	}
	frame := p.frames[n-1]
	p.frames = p.frames[:n-1]
	p.lastSigDeliv = frame.SavedLastSig
	return frame.SavedResult, nil
}
