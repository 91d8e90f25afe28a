package preemptk

import "testing"

func TestRingBufferLeavesOneSlotEmpty(t *testing.T) {
	r := newRing(4)
	for i := 0; i < 3; i++ {
		if !r.push(byte('a' + i)) {
			t.Fatalf("push %d unexpectedly failed", i)
		}
	}
	if r.push('x') {
		t.Fatal("4-capacity ring should reject the 4th push (one slot always kept empty)")
	}
	b, ok := r.pop()
	if !ok || b != 'a' {
		t.Fatalf("pop() = %q, %v, want 'a', true", b, ok)
	}
	if !r.push('x') {
		t.Fatal("push should succeed after freeing a slot")
	}
}

func TestKeyboardReadBlocksThenWakesOnInterrupt(t *testing.T) {
	k, _ := newTestKernel(8)
	kbd := NewKeyboardDriver(k, 4, 0x04)
	if err := k.RegisterDevice(KeyboardMinorNoEcho, kbd); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}

	p := &k.table[1]
	p.PID = 1
	p.State = StateRunning
	fd, err := k.Open(p, KeyboardMinorNoEcho)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	buf := make([]byte, 1)
	n := k.Read(p, fd, buf)
	if n != BlockReadSentinel {
		t.Fatalf("Read with empty ring = %d, want BlockReadSentinel", n)
	}
	if p.State != StateBlocked || p.Block != BlockRead {
		t.Fatalf("state/block = %v/%v, want Blocked/BlockRead", p.State, p.Block)
	}

	kbd.InterruptASCII('q')
	if p.State != StateReady {
		t.Fatalf("process not woken after keypress: state = %v", p.State)
	}
	if len(p.msgBuf) != 1 || p.msgBuf[0] != 'q' {
		t.Fatalf("msgBuf = %v, want ['q']", p.msgBuf)
	}
}

func TestKeyboardEOFReturnsZeroOnEmptyRead(t *testing.T) {
	k, _ := newTestKernel(8)
	kbd := NewKeyboardDriver(k, 4, 0x04)
	if err := k.RegisterDevice(KeyboardMinorNoEcho, kbd); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	p := &k.table[1]
	p.PID = 1
	fd, _ := k.Open(p, KeyboardMinorNoEcho)

	kbd.InterruptASCII(0x04) // EOF char queued directly, no reader blocked yet
	buf := make([]byte, 8)
	n := k.Read(p, fd, buf)
	if n != 0 {
		t.Fatalf("Read() after EOF char = %d, want 0", n)
	}
}

func TestShiftTranslatesLetterToUppercase(t *testing.T) {
	d := &KeyboardDriver{buf: newRing(4)}
	d.shift = true
	d.Interrupt(0x19) // 'a' row position per asciiTable
	b, ok := d.buf.pop()
	if !ok {
		t.Fatal("expected a buffered character")
	}
	if b != 'A' {
		t.Fatalf("shifted scan code produced %q, want 'A'", b)
	}
}

func TestCtrlTranslatesToControlCode(t *testing.T) {
	d := &KeyboardDriver{buf: newRing(4)}
	d.ctrl = true
	d.Interrupt(0x19) // 'a' row position per asciiTable
	b, ok := d.buf.pop()
	if !ok {
		t.Fatal("expected a buffered character")
	}
	if b != 1 {
		t.Fatalf("ctrl-a produced %d, want 1", b)
	}
}
