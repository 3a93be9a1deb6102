package smartsock

// recvBufferCapacity is the ring size M from §4.D.
const recvBufferCapacity = 256

// RecvBuffer is a fixed-capacity ring of decoded inbound packets awaiting
// dispatch, keyed by seqnum mod capacity.
type RecvBuffer struct {
	slots       [recvBufferCapacity]Packet
	occupied    [recvBufferCapacity]bool
	occupiedCnt int
}

// NewRecvBuffer returns an empty RecvBuffer.
func NewRecvBuffer() *RecvBuffer {
	return &RecvBuffer{}
}

// Insert writes packet into its slot and returns whatever previously
// occupied it. A same-seqnum occupant denotes a duplicate; a
// different-seqnum occupant denotes displacement under load — both are
// the caller's concern to log (see Connection.handleReceive).
func (b *RecvBuffer) Insert(s SeqNum, packet Packet) (evicted Packet, hadEvicted bool) {
	idx := uint16(s) % recvBufferCapacity
	if b.occupied[idx] {
		evicted = b.slots[idx]
		hadEvicted = true
	} else {
		b.occupiedCnt++
	}
	b.slots[idx] = packet
	b.occupied[idx] = true
	return evicted, hadEvicted
}

// removeOldest pops the occupant with the circular-least seqnum, the
// next packet dispatchReceivedPackets should hand to the application.
func (b *RecvBuffer) removeOldest() (Packet, bool) {
	bestIdx := -1
	var bestSeq SeqNum
	for i := range b.slots {
		if !b.occupied[i] {
			continue
		}
		s := b.slots[i].Header.SeqNum
		if bestIdx == -1 || bestSeq.GreaterThan(s) {
			bestIdx = i
			bestSeq = s
		}
	}
	if bestIdx == -1 {
		return Packet{}, false
	}
	p := b.slots[bestIdx]
	b.occupied[bestIdx] = false
	b.slots[bestIdx] = Packet{}
	b.occupiedCnt--
	return p, true
}

// Empty reports whether no packets are currently buffered.
func (b *RecvBuffer) Empty() bool {
	return b.occupiedCnt == 0
}

// Len returns the number of packets currently buffered.
func (b *RecvBuffer) Len() int {
	return b.occupiedCnt
}
