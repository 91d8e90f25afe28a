package preemptk

import (
	"encoding/binary"
	"errors"
)

// snapshotVersion is incremented whenever the binary layout changes,
// exactly as the teacher's cpuSerializeVersion guards CPU.Serialize.
const snapshotVersion = 1

// per-PCB record: pid(4) + slot(4) + state(1) + priority(4) + block(1) = 14 bytes.
const snapshotPCBSize = 14

// SnapshotSize returns the number of bytes Snapshot will produce for a
// kernel with this many table slots.
func (k *Kernel) SnapshotSize() int {
	return 1 + 4 + len(k.table)*snapshotPCBSize
}

// Snapshot writes a versioned binary dump of every PCB's scheduling state
// into buf, which must be at least SnapshotSize() bytes. This is a
// diagnostics feature (cmd/preemptk snapshot), not part of the syscall
// surface, and follows the teacher's own CPU.Serialize layout convention:
// a version byte, then BigEndian fixed-width fields in table order.
func (k *Kernel) Snapshot(buf []byte) error {
	need := k.SnapshotSize()
	if len(buf) < need {
		return errors.New("preemptk: snapshot buffer too small")
	}
	be := binary.BigEndian
	buf[0] = snapshotVersion
	be.PutUint32(buf[1:], uint32(len(k.table)))
	off := 5
	for i := range k.table {
		p := &k.table[i]
		be.PutUint32(buf[off:], uint32(p.PID))
		off += 4
		be.PutUint32(buf[off:], uint32(p.slot))
		off += 4
		buf[off] = byte(p.State)
		off++
		be.PutUint32(buf[off:], uint32(p.Priority))
		off += 4
		buf[off] = byte(p.Block)
		off++
	}
	return nil
}

// RestoreSnapshot is the inverse of Snapshot, restoring only the
// scheduling fields it wrote; stacks and device state are not part of the
// snapshot and are left untouched, matching Deserialize's documented
// "bus references are not included" limitation in the teacher.
func (k *Kernel) RestoreSnapshot(buf []byte) error {
	if len(buf) < 5 {
		return errors.New("preemptk: snapshot buffer too small")
	}
	if buf[0] != snapshotVersion {
		return errors.New("preemptk: unsupported snapshot version")
	}
	be := binary.BigEndian
	n := int(be.Uint32(buf[1:]))
	if n != len(k.table) {
		return errors.New("preemptk: snapshot table size mismatch")
	}
	off := 5
	need := 5 + n*snapshotPCBSize
	if len(buf) < need {
		return errors.New("preemptk: snapshot buffer truncated")
	}
	for i := 0; i < n; i++ {
		p := &k.table[i]
		p.PID = int(be.Uint32(buf[off:]))
		off += 4
		p.slot = int(be.Uint32(buf[off:]))
		off += 4
		p.State = State(buf[off])
		off++
		p.Priority = int(be.Uint32(buf[off:]))
		off += 4
		p.Block = BlockReason(buf[off])
		off++
	}
	return nil
}

// encodeCPUTimes/decodeCPUTimes marshal the getcputimes table across the
// UserContext trap boundary using the same BigEndian fixed-width idiom as
// Snapshot: pid(4) + ticks(8) per entry.
func encodeCPUTimes(times map[int]uint64) []byte {
	buf := make([]byte, 0, len(times)*12)
	tmp := make([]byte, 12)
	be := binary.BigEndian
	for pid, ticks := range times {
		be.PutUint32(tmp[0:4], uint32(pid))
		be.PutUint64(tmp[4:12], ticks)
		buf = append(buf, tmp...)
	}
	return buf
}

func decodeCPUTimes(buf []byte, out map[int]uint64) {
	be := binary.BigEndian
	for off := 0; off+12 <= len(buf); off += 12 {
		pid := int(be.Uint32(buf[off : off+4]))
		ticks := be.Uint64(buf[off+4 : off+12])
		out[pid] = ticks
	}
}
