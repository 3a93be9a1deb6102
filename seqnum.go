package smartsock

// SeqNum is a 16-bit sequence number that counts modulo 1<<16. Comparing two
// SeqNums with the plain < or > operators is wrong once either has wrapped,
// so every ordering question goes through GreaterThan/Distance instead of a
// raw uint16 compare — a dedicated type is the cheapest way to make the raw
// comparison a compile error rather than a code-review nit.
type SeqNum uint16

// Add returns the sequence number d steps ahead of s, wrapping at 1<<16.
func (s SeqNum) Add(d uint16) SeqNum {
	return SeqNum(uint16(s) + d)
}

// Sub returns the sequence number d steps behind s, wrapping at 1<<16.
func (s SeqNum) Sub(d uint16) SeqNum {
	return SeqNum(uint16(s) - d)
}

// Distance returns (s - t) mod 1<<16, the forward distance from t to s.
func (s SeqNum) Distance(t SeqNum) uint16 {
	return uint16(s) - uint16(t)
}

// GreaterThan implements the circular-greater relation a ⪴ b: true iff
// (a-b) mod 1<<16 lies in the open interval (0, 1<<15), i.e. a is strictly
// "ahead" of b on the 16-bit ring without having wrapped all the way around.
func (s SeqNum) GreaterThan(t SeqNum) bool {
	d := s.Distance(t)
	return d != 0 && d < 1<<15
}

// GreaterOrEqual is GreaterThan(t) || s == t.
func (s SeqNum) GreaterOrEqual(t SeqNum) bool {
	return s == t || s.GreaterThan(t)
}
