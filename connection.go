package smartsock

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// connState is the Fresh→Active→Dead lifecycle from §4.E.
type connState int

const (
	connFresh connState = iota
	connActive
	connDead
)

// Dispatcher receives one decoded, deduplicated payload per call, in
// ascending circular-seqnum order within a single drain.
type Dispatcher func(conn *Connection, pkt Packet)

// ConnectionStats is a point-in-time snapshot of a Connection's counters.
type ConnectionStats struct {
	RecvCount uint64
	SentCount uint64
	AckdCount uint64
	AvgRTT    time.Duration
	InFlight  int
	Pending   int
	IsDead    bool
}

// Connection is the per-peer state machine: sequence assignment,
// sent/recv buffers, selective ack, RTT estimate, and liveness. It is
// shared between the owning SmartSocket's registry and whichever
// application code holds the handle returned by GetOrCreateConnection;
// both lifetimes extend through the last reference. Connection holds
// only a non-owning back-reference to its socket, so there is no
// ownership cycle — the socket is guaranteed to outlive it.
type Connection struct {
	mu sync.Mutex

	id          uuid.UUID
	peerAddr    net.Addr
	socket      *SmartSocket
	state       connState
	lastPeerAck SeqNum

	localAck AckField
	sent     *SentBuffer
	recv     *RecvBuffer

	avgRTT       time.Duration
	recvCount    uint64
	sentCount    uint64
	ackdCount    uint64
	lastRecvTime time.Time

	// recvSignal is nudged (non-blocking) after handleReceive inserts a
	// packet, so a facade goroutine waiting on it wakes and calls
	// DispatchReceivedPackets without polling. Nil unless a facade Conn is
	// watching.
	recvSignal chan struct{}

	logger *zap.Logger
}

func newConnection(socket *SmartSocket, peer net.Addr) *Connection {
	id := uuid.New()
	return &Connection{
		id:           id,
		peerAddr:     peer,
		socket:       socket,
		state:        connFresh,
		sent:         NewSentBuffer(),
		recv:         NewRecvBuffer(),
		avgRTT:       socket.config.InitialRTT,
		lastRecvTime: time.Now(),
		logger:       socket.logger.With(zap.String("peer", peer.String()), zap.String("conn_id", id.String())),
	}
}

// watch lazily allocates and returns the connection's recv-signal
// channel, used by the byte-stream facade to wake on new data.
func (c *Connection) watch() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.recvSignal == nil {
		c.recvSignal = make(chan struct{}, 1)
	}
	return c.recvSignal
}

func (c *Connection) signalRecv() {
	c.mu.Lock()
	ch := c.recvSignal
	c.mu.Unlock()
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Peer returns the connection's remote endpoint. Immutable after
// construction, per §3.
func (c *Connection) Peer() net.Addr {
	return c.peerAddr
}

// IsDead reports whether the connection has reached its terminal state.
func (c *Connection) IsDead() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == connDead
}

// Stats returns a consistent snapshot of the connection's counters.
func (c *Connection) Stats() ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnectionStats{
		RecvCount: c.recvCount,
		SentCount: c.sentCount,
		AckdCount: c.ackdCount,
		AvgRTT:    c.avgRTT,
		InFlight:  c.sent.Len(),
		Pending:   c.recv.Len(),
		IsDead:    c.state == connDead,
	}
}

// AsyncSend schedules payload for transmission on the socket's executor
// and returns immediately. If resendLimit is omitted, the socket's
// configured default is used. A dead connection drops the send silently,
// matching §4.E's "fails silently" contract.
func (c *Connection) AsyncSend(payload []byte, resendLimit ...uint32) {
	limit := c.socket.config.DefaultResendLimit
	if len(resendLimit) > 0 {
		limit = resendLimit[0]
	}
	body := make([]byte, len(payload))
	copy(body, payload)
	c.socket.executor.post(func() {
		c.doSend(body, limit)
	})
}

// doSend executes the send path from §4.E. It must only run on the
// socket's executor.
func (c *Connection) doSend(payload []byte, resendLimit uint32) {
	c.mu.Lock()
	if c.state == connDead {
		c.mu.Unlock()
		return
	}
	header := PacketHeader{Protocol: protocolMagic}
	stored, evicted, hadEvicted := c.sent.Store(header, payload, resendLimit, c.localAck)
	c.mu.Unlock()

	if hadEvicted && evicted.ResendLimit > 0 {
		evictedPayload := evicted.Packet.Payload
		evictedLimit := evicted.ResendLimit - 1
		c.socket.executor.post(func() {
			c.doSend(evictedPayload, evictedLimit)
		})
	}

	raw := encodePacket(stored.Header, stored.Payload)
	if err := c.socket.writeTo(raw, c.peerAddr); err != nil {
		c.mu.Lock()
		c.sent.Release(stored.Header.SeqNum) //nolint:errcheck // just stored, Contains is guaranteed
		c.mu.Unlock()
		if resendLimit > 0 {
			limit := resendLimit - 1
			c.socket.executor.post(func() {
				c.doSend(payload, limit)
			})
		}
		c.socket.observers.notify(func(o Observer) { o.OnError(c, err) })
		return
	}

	c.mu.Lock()
	c.sentCount++
	becameActive := c.state == connFresh
	if becameActive {
		c.state = connActive
	}
	c.mu.Unlock()

	if becameActive {
		c.socket.observers.notify(func(o Observer) { o.OnConnect(c) })
	}
}

// handleReceive executes the receive path from §4.E. It must only run
// on the socket's executor.
func (c *Connection) handleReceive(pkt Packet) {
	c.mu.Lock()
	c.lastRecvTime = time.Now()
	c.recvCount++
	c.localAck.UpdateForSeqNum(pkt.Header.SeqNum)
	c.mu.Unlock()

	c.processPeerAcks(pkt.Header.Ack, pkt.Header.AckBits)

	c.mu.Lock()
	evicted, hadEvicted := c.recv.Insert(pkt.Header.SeqNum, pkt)
	becameActive := c.state == connFresh
	if becameActive {
		c.state = connActive
	}
	c.mu.Unlock()

	if hadEvicted {
		if evicted.Header.SeqNum == pkt.Header.SeqNum {
			c.logger.Debug("duplicate packet", zap.Uint16("seq", uint16(pkt.Header.SeqNum)))
		} else {
			c.logger.Warn("recv buffer overflow, dropping older packet",
				zap.Uint16("dropped_seq", uint16(evicted.Header.SeqNum)))
		}
	}

	if becameActive {
		c.socket.observers.notify(func(o Observer) { o.OnConnect(c) })
	}
	c.signalRecv()
}

// processPeerAcks folds the peer's ack field into our sent buffer:
// release everything it covers, then evict anything too old or too far
// behind to plausibly still be acked (§4.E loss detection).
func (c *Connection) processPeerAcks(peerAck SeqNum, peerAckBits uint32) {
	field := AckField{Latest: peerAck, Bits: peerAckBits}
	field.ForEachAckedSeqNum(c.confirmPacketDelivery)

	c.mu.Lock()
	c.lastPeerAck = peerAck
	c.mu.Unlock()

	c.sweepUndelivered(peerAck)
}

// confirmPacketDelivery releases s from the sent buffer if it is still
// in flight and folds the observed RTT into avgRTT via an α=0.1 EWMA.
func (c *Connection) confirmPacketDelivery(s SeqNum) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.sent.Contains(s) {
		return
	}
	entry, err := c.sent.Release(s)
	if err != nil {
		return
	}
	observed := time.Since(entry.Timestamp)
	c.avgRTT = (9*c.avgRTT + observed) / 10
	c.ackdCount++
}

// DispatchReceivedPackets drains recv in ascending circular-seqnum order,
// invoking dispatcher once per packet on the caller's own goroutine. It
// may be called from any thread; the drain runs under the connection's
// lock rather than being posted to the executor, per §5's explicit
// "implementation choice" allowance.
func (c *Connection) DispatchReceivedPackets(dispatcher Dispatcher) {
	for {
		c.mu.Lock()
		pkt, ok := c.recv.removeOldest()
		c.mu.Unlock()
		if !ok {
			return
		}
		dispatcher(c, pkt)
	}
}

// markDead latches the terminal state and, if notify is true, fires
// OnPeerDisconnect. Safe to call more than once; only the first call has
// effect.
func (c *Connection) markDead(notify bool) {
	c.mu.Lock()
	if c.state == connDead {
		c.mu.Unlock()
		return
	}
	c.state = connDead
	c.mu.Unlock()

	c.socket.metrics.liveConns.Dec()
	if notify {
		c.socket.observers.notify(func(o Observer) { o.OnPeerDisconnect(c) })
	}
}
