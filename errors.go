package preemptk

import "errors"

// KernelError wraps a sentinel error with kernel-specific context, the same
// shape goserial uses for its transport errors: a message plus an
// unwrappable cause so callers can still errors.Is against the sentinel.
type KernelError struct {
	msg string
	err error
}

func (e *KernelError) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *KernelError) Unwrap() error { return e.err }

func wrapErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return &KernelError{msg: msg, err: err}
}

// Sentinel errors for internal control flow. Syscall wrappers translate
// these into the numeric contracts documented in SPEC_FULL.md §8; internal
// callers use errors.Is against these values directly.
var (
	ErrNoSuchTarget    = errors.New("no process with that pid")
	ErrSelfTarget      = errors.New("operation not valid on own pid")
	ErrOnlyProcess     = errors.New("only the calling process is runnable")
	ErrTargetDied      = errors.New("target process exited before rendezvous completed")
	ErrSignalled       = errors.New("blocking call interrupted by signal delivery")
	ErrTableFull       = errors.New("process table full")
	ErrBadPriority     = errors.New("priority out of range")
	ErrBadFd           = errors.New("file descriptor not open")
	ErrFdTableFull     = errors.New("file descriptor table full")
	ErrNoSuchMinor     = errors.New("no device registered for that minor number")
	ErrDeviceBusy      = errors.New("device minor already open")
	ErrBadSignalNum    = errors.New("signal number out of range")
	ErrHandlerNotSet   = errors.New("no handler installed for that signal")
	ErrNotInHandler    = errors.New("sigreturn called outside a signal handler")
	ErrBadAddr         = errors.New("address outside valid user region")
	ErrWouldBlockNoBuf = errors.New("no data available and device is non-blocking")
)
