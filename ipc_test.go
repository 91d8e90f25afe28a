package preemptk

import "testing"

func twoProcs(k *Kernel) (a, b *PCB) {
	a = &k.table[1]
	a.PID = 1
	a.State = StateRunning
	b = &k.table[2]
	b.PID = 2
	b.State = StateRunning
	k.userProcs = 2
	return a, b
}

func TestSendSelfRejected(t *testing.T) {
	k, _ := newTestKernel(8)
	a, _ := twoProcs(k)
	if code := k.Send(a, a.PID, []byte("x")); code != IPCSelfTarget {
		t.Fatalf("Send(self) = %d, want IPCSelfTarget", code)
	}
}

func TestSendNoSuchTarget(t *testing.T) {
	k, _ := newTestKernel(8)
	a, _ := twoProcs(k)
	if code := k.Send(a, 99, []byte("x")); code != IPCNoSuchTarget {
		t.Fatalf("Send(nonexistent) = %d, want IPCNoSuchTarget", code)
	}
}

// TestSendThenRecvRendezvous exercises the case where the sender blocks
// first and a later Recv call completes the rendezvous.
func TestSendThenRecvRendezvous(t *testing.T) {
	k, _ := newTestKernel(8)
	a, b := twoProcs(k)

	code := k.Send(a, b.PID, []byte("hello"))
	if code != 0 {
		t.Fatalf("Send (pre-recv) returned %d, want 0 (blocks)", code)
	}
	if a.State != StateBlocked || a.Block != BlockSend {
		t.Fatalf("sender state = %v/%v, want Blocked/BlockSend", a.State, a.Block)
	}

	buf := make([]byte, 16)
	n := k.Recv(b, a.PID, buf)
	if n != 5 {
		t.Fatalf("Recv() = %d, want 5", n)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("Recv() data = %q, want %q", buf[:n], "hello")
	}
	if a.State != StateReady {
		t.Fatalf("sender not woken: state = %v", a.State)
	}
	if a.msgResult != 0 {
		t.Fatalf("sender result = %d, want 0 (send() always reports success as 0)", a.msgResult)
	}
}

// TestRecvThenSendRendezvous is the mirror case: receiver blocks first.
func TestRecvThenSendRendezvous(t *testing.T) {
	k, _ := newTestKernel(8)
	a, b := twoProcs(k)

	buf := make([]byte, 16)
	n := k.Recv(b, a.PID, buf)
	if n != 0 {
		t.Fatalf("Recv (pre-send) returned %d, want 0 (blocks)", n)
	}
	if b.State != StateBlocked || b.Block != BlockRecv {
		t.Fatalf("receiver state = %v/%v, want Blocked/BlockRecv", b.State, b.Block)
	}

	code := k.Send(a, b.PID, []byte("hi"))
	if code != 0 {
		t.Fatalf("Send() = %d, want 0 (send() always reports success as 0)", code)
	}
	if b.State != StateReady || b.msgResult != 2 {
		t.Fatalf("receiver not woken correctly: state=%v result=%d", b.State, b.msgResult)
	}
}

func TestRecvSelfRejected(t *testing.T) {
	k, _ := newTestKernel(8)
	a, _ := twoProcs(k)
	buf := make([]byte, 8)
	if code := k.Recv(a, a.PID, buf); code != IPCSelfTarget {
		t.Fatalf("Recv(self) = %d, want IPCSelfTarget", code)
	}
	if a.State != StateRunning {
		t.Fatal("Recv(self) must fail outright, not block the caller")
	}
}

func TestRecvAnyOnlyProcess(t *testing.T) {
	k, _ := newTestKernel(8)
	a := &k.table[1]
	a.PID = 1
	a.State = StateRunning
	k.userProcs = 1

	buf := make([]byte, 8)
	if code := k.Recv(a, 0, buf); code != IPCOnlyProcess {
		t.Fatalf("RecvAny with no other process = %d, want IPCOnlyProcess", code)
	}
}

func TestTargetDeathWakesBlockedSender(t *testing.T) {
	k, _ := newTestKernel(8)
	a, b := twoProcs(k)

	k.Send(a, b.PID, []byte("x"))
	if a.State != StateBlocked {
		t.Fatal("sender should be blocked")
	}

	k.doExit(b)

	if a.State != StateReady {
		t.Fatalf("sender state after target death = %v, want Ready", a.State)
	}
	if a.msgResult != IPCTargetDied {
		t.Fatalf("sender result after target death = %d, want IPCTargetDied", a.msgResult)
	}
}
