package smartsock

import "github.com/pkg/errors"

// Sentinel errors returned (possibly wrapped) by core operations. Callers
// compare against these with errors.Is / errors.Cause, never by string.
var (
	// ErrBadPacketSize is returned by decode when a datagram falls outside
	// [headerSize, maxDatagramSize]. It never touches connection state.
	ErrBadPacketSize = errors.New("smartsock: datagram outside valid size bounds")

	// ErrConnectionDead names a connection's terminal, non-retryable dead
	// state. No operation in this package returns it: AsyncSend on a dead
	// connection drops the send silently, and Conn.Read/Write report
	// net.ErrClosed.
	ErrConnectionDead = errors.New("smartsock: connection is dead")

	// ErrSocketClosed is returned by Listener.Accept once the Listener has
	// been closed.
	ErrSocketClosed = errors.New("smartsock: socket is shut down")

	// ErrSeqNumNotInFlight is returned by SentBuffer.Release when the
	// caller's precondition (Contains(s)) did not hold.
	ErrSeqNumNotInFlight = errors.New("smartsock: sequence number not in flight")
)
