package smartsock

import "time"

// sentBufferCapacity is the ring size N from §4.C — chosen so the
// 256-packet ack eviction window in §4.E lines up exactly with capacity.
const sentBufferCapacity = 256

// SentPacketExt is an in-flight packet plus its resend budget and the
// time it was handed to the substrate, per §3.
type SentPacketExt struct {
	Packet      Packet
	ResendLimit uint32
	Timestamp   time.Time
}

// SentBuffer is a fixed-capacity ring of outstanding sent packets, keyed
// by seqnum mod capacity. It is not safe for concurrent use; callers
// serialize access (the single-executor model in §5 does this for free).
type SentBuffer struct {
	slots       [sentBufferCapacity]SentPacketExt
	occupied    [sentBufferCapacity]bool
	nextSeqNum  SeqNum
	occupiedCnt int
}

// NewSentBuffer returns an empty SentBuffer whose first assigned seqnum is 0.
func NewSentBuffer() *SentBuffer {
	return &SentBuffer{}
}

// Store stamps packet's header with a freshly-allocated seqnum and the
// given ack snapshot, writes it into its ring slot, and returns whatever
// previously occupied that slot (invariant 1 in §3: a seqnum never
// occupies two slots at once, so storing forces any collision out).
func (b *SentBuffer) Store(header PacketHeader, payload []byte, resendLimit uint32, ack AckField) (stored Packet, evicted SentPacketExt, hadEvicted bool) {
	seq := b.nextSeqNum
	b.nextSeqNum = b.nextSeqNum.Add(1)

	header.SeqNum = seq
	header.Ack = ack.Latest
	header.AckBits = ack.Bits
	stored = Packet{Header: header, Payload: payload}

	idx := uint16(seq) % sentBufferCapacity
	if b.occupied[idx] {
		evicted = b.slots[idx]
		hadEvicted = true
	} else {
		b.occupiedCnt++
	}
	b.slots[idx] = SentPacketExt{Packet: stored, ResendLimit: resendLimit, Timestamp: time.Now()}
	b.occupied[idx] = true
	return stored, evicted, hadEvicted
}

// Contains reports whether seqnum s currently occupies its slot.
func (b *SentBuffer) Contains(s SeqNum) bool {
	idx := uint16(s) % sentBufferCapacity
	return b.occupied[idx] && b.slots[idx].Packet.Header.SeqNum == s
}

// Release clears s's slot and returns its entry. Precondition: Contains(s).
func (b *SentBuffer) Release(s SeqNum) (SentPacketExt, error) {
	if !b.Contains(s) {
		return SentPacketExt{}, ErrSeqNumNotInFlight
	}
	idx := uint16(s) % sentBufferCapacity
	entry := b.slots[idx]
	b.occupied[idx] = false
	b.slots[idx] = SentPacketExt{}
	b.occupiedCnt--
	return entry, nil
}

// OldestSeqNum returns the seqnum occupying the circular-earliest slot.
func (b *SentBuffer) OldestSeqNum() (SeqNum, bool) {
	var oldest SeqNum
	found := false
	for i := range b.slots {
		if !b.occupied[i] {
			continue
		}
		s := b.slots[i].Packet.Header.SeqNum
		if !found || oldest.GreaterThan(s) {
			oldest = s
			found = true
		}
	}
	return oldest, found
}

// OldestTime returns the smallest timestamp among occupied slots.
func (b *SentBuffer) OldestTime() (time.Time, bool) {
	var oldest time.Time
	found := false
	for i := range b.slots {
		if !b.occupied[i] {
			continue
		}
		t := b.slots[i].Timestamp
		if !found || t.Before(oldest) {
			oldest = t
			found = true
		}
	}
	return oldest, found
}

// Empty reports whether the buffer currently holds no in-flight packets.
func (b *SentBuffer) Empty() bool {
	return b.occupiedCnt == 0
}

// Len returns the number of in-flight packets currently tracked.
func (b *SentBuffer) Len() int {
	return b.occupiedCnt
}
