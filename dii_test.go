package preemptk

import "testing"

// stubDevice is a minimal DeviceOps used to exercise the DII routing logic
// independent of any real driver's behavior.
type stubDevice struct {
	opened  int
	closed  int
	readN   int
	writeN  int
	ioctlN  int
	lastArg IoctlArg
}

func (d *stubDevice) Init() error            { return nil }
func (d *stubDevice) Open(p *PCB) error      { d.opened++; return nil }
func (d *stubDevice) Close(p *PCB) error     { d.closed++; return nil }
func (d *stubDevice) Read(p *PCB, buf []byte) int {
	if d.readN < 0 {
		return d.readN
	}
	for i := 0; i < d.readN && i < len(buf); i++ {
		buf[i] = byte('a' + i)
	}
	return d.readN
}
func (d *stubDevice) Write(p *PCB, buf []byte) int { return d.writeN }
func (d *stubDevice) Ioctl(p *PCB, arg IoctlArg) int {
	d.lastArg = arg
	return d.ioctlN
}

func TestRegisterDeviceBadMinor(t *testing.T) {
	k, _ := newTestKernel(4)
	if err := k.RegisterDevice(2, &stubDevice{}); err != ErrNoSuchMinor {
		t.Fatalf("RegisterDevice(2) = %v, want ErrNoSuchMinor", err)
	}
}

func TestOpenUnregisteredMinor(t *testing.T) {
	k, _ := newTestKernel(4)
	p := &k.table[1]
	p.PID = 1
	if _, err := k.Open(p, 0); err != ErrNoSuchMinor {
		t.Fatalf("Open(unregistered) = %v, want ErrNoSuchMinor", err)
	}
}

func TestOpenAssignsLowestFreeFd(t *testing.T) {
	k, _ := newTestKernel(4)
	dev := &stubDevice{}
	if err := k.RegisterDevice(0, dev); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	p := &k.table[1]
	p.PID = 1

	fd, err := k.Open(p, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if fd != 0 {
		t.Fatalf("first fd = %d, want 0", fd)
	}
	if dev.opened != 1 {
		t.Fatalf("device Open called %d times, want 1", dev.opened)
	}
}

func TestOpenExhaustsFdTable(t *testing.T) {
	k, _ := newTestKernel(4)
	dev := &stubDevice{}
	if err := k.RegisterDevice(0, dev); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	p := &k.table[1]
	p.PID = 1

	for i := 0; i < maxFdTable; i++ {
		if _, err := k.Open(p, 0); err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
	}
	if _, err := k.Open(p, 0); err != ErrFdTableFull {
		t.Fatalf("Open past table size = %v, want ErrFdTableFull", err)
	}
}

func TestReadWriteIoctlBadFd(t *testing.T) {
	k, _ := newTestKernel(4)
	p := &k.table[1]
	p.PID = 1

	if n := k.Read(p, 0, make([]byte, 1)); n != int(ErrBadFdCode) {
		t.Fatalf("Read(unopened fd) = %d, want %d", n, ErrBadFdCode)
	}
	if n := k.Write(p, 0, []byte("x")); n != int(ErrBadFdCode) {
		t.Fatalf("Write(unopened fd) = %d, want %d", n, ErrBadFdCode)
	}
	if n := k.Ioctl(p, 0, IoctlArg{}); n != int(ErrBadFdCode) {
		t.Fatalf("Ioctl(unopened fd) = %d, want %d", n, ErrBadFdCode)
	}
	if n := k.Read(p, -1, make([]byte, 1)); n != int(ErrBadFdCode) {
		t.Fatalf("Read(negative fd) = %d, want %d", n, ErrBadFdCode)
	}
}

func TestReadWriteIoctlRouteThroughFd(t *testing.T) {
	k, _ := newTestKernel(4)
	dev := &stubDevice{readN: 3, writeN: 5, ioctlN: 7}
	if err := k.RegisterDevice(1, dev); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	p := &k.table[1]
	p.PID = 1
	fd, err := k.Open(p, 1)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	buf := make([]byte, 8)
	if n := k.Read(p, fd, buf); n != 3 {
		t.Fatalf("Read() = %d, want 3", n)
	}
	if string(buf[:3]) != "abc" {
		t.Fatalf("Read() data = %q, want %q", buf[:3], "abc")
	}
	if n := k.Write(p, fd, []byte("hello")); n != 5 {
		t.Fatalf("Write() = %d, want 5", n)
	}
	arg := IoctlArg{Cmd: 42, Int: 9}
	if n := k.Ioctl(p, fd, arg); n != 7 {
		t.Fatalf("Ioctl() = %d, want 7", n)
	}
	if dev.lastArg != arg {
		t.Fatalf("Ioctl arg seen by device = %+v, want %+v", dev.lastArg, arg)
	}
}

func TestReadBlockSentinelBlocksCaller(t *testing.T) {
	k, _ := newTestKernel(4)
	dev := &stubDevice{readN: BlockReadSentinel}
	if err := k.RegisterDevice(0, dev); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	p := &k.table[1]
	p.PID = 1
	p.State = StateRunning
	fd, err := k.Open(p, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n := k.Read(p, fd, make([]byte, 1))
	if n != BlockReadSentinel {
		t.Fatalf("Read() = %d, want BlockReadSentinel", n)
	}
	if p.State != StateBlocked || p.Block != BlockRead {
		t.Fatalf("state/block = %v/%v, want Blocked/BlockRead", p.State, p.Block)
	}
	if p.pendingFrom != fd {
		t.Fatalf("pendingFrom = %d, want %d (the blocked fd)", p.pendingFrom, fd)
	}
}

func TestCloseFreesFdSlotAndCallsDeviceClose(t *testing.T) {
	k, _ := newTestKernel(4)
	dev := &stubDevice{}
	if err := k.RegisterDevice(0, dev); err != nil {
		t.Fatalf("RegisterDevice: %v", err)
	}
	p := &k.table[1]
	p.PID = 1
	fd, err := k.Open(p, 0)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := k.Close(p, fd); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if dev.closed != 1 {
		t.Fatalf("device Close called %d times, want 1", dev.closed)
	}
	if err := k.Close(p, fd); err != ErrBadFd {
		t.Fatalf("double Close = %v, want ErrBadFd", err)
	}
	// the slot should be reusable now that it's closed.
	if _, err := k.Open(p, 0); err != nil {
		t.Fatalf("re-Open after Close: %v", err)
	}
}
