package smartsock

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// livenessSweepInterval is how often the socket checks every connection
// for the liveness timeout; independent of any per-connection RTT.
const livenessSweepInterval = 1 * time.Second

// SmartSocket owns one UDP endpoint, the {peer → *Connection} registry,
// the observer set, and the single cooperative executor all connection
// mutation flows through. It is the datagram demultiplexer described in
// §4.F: it validates framing, routes inbound datagrams to the right
// connection, and fans out observer notifications.
type SmartSocket struct {
	pconn  net.PacketConn
	config Config
	logger *zap.Logger

	executor  *executor
	observers *observerSet
	metrics   *Metrics

	registryMu sync.RWMutex
	registry   map[string]*Connection

	closed bool
}

// NewSmartSocket binds addr and returns a socket ready to accept
// connections once AsyncReceive is called. network must be "udp",
// "udp4", or "udp6" — the substrate contract of §6.
func NewSmartSocket(network, addr string, opts ...Option) (*SmartSocket, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	pconn, err := net.ListenPacket(network, addr)
	if err != nil {
		return nil, errors.Wrap(err, "smartsock: bind UDP endpoint")
	}

	s := &SmartSocket{
		pconn:    pconn,
		config:   cfg,
		logger:   cfg.Logger,
		executor: newExecutor(cfg.ExecutorQueueLen),
		registry: make(map[string]*Connection),
	}
	s.observers = &observerSet{socket: s}
	s.metrics = newMetrics(s)
	return s, nil
}

// LocalAddr returns the bound UDP endpoint.
func (s *SmartSocket) LocalAddr() net.Addr {
	return s.pconn.LocalAddr()
}

// AddObserver registers o for lifecycle/error notifications. Fan-out
// order follows registration order.
func (s *SmartSocket) AddObserver(o Observer) {
	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	s.observers.add(o)
}

// GetOrCreateConnection performs an atomic lookup-or-insert on the
// registry. A newly created entry only fires OnConnect once it sees its
// first successful exchange, per §4.E/§4.F.
func (s *SmartSocket) GetOrCreateConnection(peer net.Addr) *Connection {
	key := peer.String()

	s.registryMu.RLock()
	if conn, ok := s.registry[key]; ok {
		s.registryMu.RUnlock()
		return conn
	}
	s.registryMu.RUnlock()

	s.registryMu.Lock()
	defer s.registryMu.Unlock()
	if conn, ok := s.registry[key]; ok {
		return conn
	}
	conn := newConnection(s, peer)
	s.registry[key] = conn
	s.metrics.liveConns.Inc()
	return conn
}

// lookupConnection returns an existing connection without creating one.
func (s *SmartSocket) lookupConnection(peer net.Addr) (*Connection, bool) {
	s.registryMu.RLock()
	defer s.registryMu.RUnlock()
	conn, ok := s.registry[peer.String()]
	return conn, ok
}

// post schedules task on the socket's executor, serializing it with
// every other connection mutation on this socket.
func (s *SmartSocket) post(task func()) {
	s.executor.post(task)
}

// writeTo submits a datagram to the UDP substrate. Suspension here is
// the only blocking point the core's synchronous logic ever crosses.
func (s *SmartSocket) writeTo(b []byte, addr net.Addr) error {
	_, err := s.pconn.WriteTo(b, addr)
	return err
}

// AsyncReceive posts the continuous read loop described in §4.F. Each
// completion is framed-validated, routed to its connection (creating one
// if needed), and handed to Connection.handleReceive; it also starts the
// periodic liveness/timeout sweep. Call once per socket.
func (s *SmartSocket) AsyncReceive() {
	s.executor.group.Go(s.readLoop)
	s.executor.group.Go(s.sweepLoop)
}

func (s *SmartSocket) readLoop() error {
	buf := make([]byte, maxDatagramSize+1)
	for {
		select {
		case <-s.executor.ctx.Done():
			return nil
		default:
		}

		n, addr, err := s.pconn.ReadFrom(buf)
		if err != nil {
			select {
			case <-s.executor.ctx.Done():
				return nil
			default:
			}
			s.logger.Warn("substrate recv failed", zap.Error(err))
			continue
		}

		raw := make([]byte, n)
		copy(raw, buf[:n])

		pkt, decodeErr := decodePacket(raw)
		if decodeErr != nil {
			s.observers.notify(func(o Observer) { o.OnBadPacketSize(addr, n) })
			s.metrics.recordBadPacket()
			continue
		}
		if pkt.Header.Protocol != protocolMagic {
			s.observers.notify(func(o Observer) { o.OnBadPacketSize(addr, n) })
			s.metrics.recordBadPacket()
			continue
		}

		s.post(func() {
			conn := s.GetOrCreateConnection(addr)
			conn.handleReceive(pkt)
			s.metrics.observeConnection(conn)
		})
	}
}

func (s *SmartSocket) sweepLoop() error {
	ticker := time.NewTicker(livenessSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.executor.ctx.Done():
			return nil
		case now := <-ticker.C:
			s.post(func() { s.sweepAll(now) })
		}
	}
}

func (s *SmartSocket) sweepAll(now time.Time) {
	s.registryMu.RLock()
	conns := make([]*Connection, 0, len(s.registry))
	for _, conn := range s.registry {
		conns = append(conns, conn)
	}
	s.registryMu.RUnlock()

	for _, conn := range conns {
		conn.sweepTimeouts()
		conn.checkLiveness(now)
		s.metrics.observeConnection(conn)
	}
}

// Shutdown stops the executor, marks every connection dead, and fires
// OnSocketShutdown exactly once. It is the sole cancellation primitive;
// tasks already posted before Shutdown returns may still run, but no
// post after Shutdown is accepted.
func (s *SmartSocket) Shutdown() error {
	s.registryMu.Lock()
	if s.closed {
		s.registryMu.Unlock()
		return nil
	}
	s.closed = true
	conns := make([]*Connection, 0, len(s.registry))
	for _, conn := range s.registry {
		conns = append(conns, conn)
	}
	s.registryMu.Unlock()

	s.executor.stop()
	err := s.pconn.Close() // unblocks a readLoop parked in ReadFrom before wait can return
	_ = s.executor.wait()

	for _, conn := range conns {
		conn.markDead(false)
	}
	s.observers.notify(func(o Observer) { o.OnSocketShutdown() })
	return err
}
