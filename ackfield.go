package smartsock

// ackWindow is the number of seqnums an AckField can cover behind its
// latest entry — one bit per trailing seqnum, per §3/§4.B.
const ackWindow = 32

// AckField is a selective-ack bitmap: Latest plus up to 32 trailing bits,
// bit i set meaning "Latest-(i+1) was also received". It is the wire
// encoding of "everything we've received from a peer" in 6 bytes.
type AckField struct {
	Latest SeqNum
	Bits   uint32
	// started is false until the first UpdateForSeqNum, so the first
	// update does not mark the zero-value Latest as received.
	started bool
}

// UpdateForSeqNum folds a newly-received seqnum into the field. It is
// idempotent: applying the same s twice leaves (Latest, Bits) unchanged,
// since the second application always falls into the "already covered"
// branch below.
func (a *AckField) UpdateForSeqNum(s SeqNum) {
	if !a.started {
		a.Latest = s
		a.started = true
		return
	}
	if s == a.Latest {
		return
	}
	if s.GreaterThan(a.Latest) {
		d := s.Distance(a.Latest)
		if d <= ackWindow {
			a.Bits <<= d
			a.Bits |= 1 << (d - 1)
		} else {
			a.Bits = 0
		}
		a.Latest = s
		return
	}
	back := a.Latest.Distance(s)
	if back >= 1 && back <= ackWindow {
		a.Bits |= 1 << (back - 1)
	}
	// else: too old, ignore.
}

// IsAcked reports whether s is within the covered range of this field.
func (a AckField) IsAcked(s SeqNum) bool {
	if s == a.Latest {
		return true
	}
	if s.GreaterThan(a.Latest) {
		return false
	}
	back := a.Latest.Distance(s)
	if back < 1 || back > ackWindow {
		return false
	}
	return a.Bits&(1<<(back-1)) != 0
}

// ForEachAckedSeqNum invokes f(Latest) and then f for every trailing
// seqnum whose bit is set, in no particular bit order.
func (a AckField) ForEachAckedSeqNum(f func(SeqNum)) {
	f(a.Latest)
	for i := uint32(0); i < ackWindow; i++ {
		if a.Bits&(1<<i) != 0 {
			f(a.Latest.Sub(uint16(i + 1)))
		}
	}
}
